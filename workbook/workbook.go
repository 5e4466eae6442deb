// Package workbook reads Eurostat job-vacancy spreadsheets and reshapes the
// quarter-per-column layout into long-format tidy tables.
package workbook

import (
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xuri/excelize/v2"
)

// Workbook wraps an open spreadsheet and caches sheet grids so repeated reads
// of the same sheet (interactive previews, multi-artifact runs) stay cheap.
type Workbook struct {
	path  string
	file  *excelize.File
	grids *lru.Cache[string, [][]string]
}

// Open loads the workbook at path. A missing file is reported as
// ErrFileNotFound so callers can distinguish it from a corrupt one.
func Open(path string, cacheSize int) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound{Path: path}
		}
		return nil, fmt.Errorf("stat workbook: %w", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	if cacheSize <= 0 {
		cacheSize = 1
	}
	grids, err := lru.New[string, [][]string](cacheSize)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("create grid cache: %w", err)
	}

	return &Workbook{path: path, file: file, grids: grids}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Path returns the workbook's file path.
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames returns the worksheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// ResolveSheet maps a sheet name or zero-based index to an existing worksheet
// name. An explicit name wins over the index.
func (w *Workbook) ResolveSheet(name string, index int) (string, error) {
	names := w.SheetNames()
	if name != "" {
		for _, candidate := range names {
			if candidate == name {
				return candidate, nil
			}
		}
		return "", ErrSheetNotFound{Sheet: name, Index: -1, Available: names}
	}
	if index >= 0 && index < len(names) {
		return names[index], nil
	}
	return "", ErrSheetNotFound{Index: index, Available: names}
}

// Grid returns the sheet's cell grid with formatted values. Rows are ragged:
// trailing empty cells are absent, so callers index defensively. Grids are
// cached per sheet.
func (w *Workbook) Grid(sheet string) ([][]string, error) {
	if rows, ok := w.grids.Get(sheet); ok {
		return rows, nil
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	w.grids.Add(sheet, rows)
	return rows, nil
}

// Label reads a single cell, typically the dataset description above the
// table. Missing or unreadable cells yield an empty string, never an error:
// the label is cosmetic.
func (w *Workbook) Label(sheet, cellRef string) string {
	if cellRef == "" {
		return ""
	}
	value, err := w.file.GetCellValue(sheet, cellRef)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
