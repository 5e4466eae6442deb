package workbook

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFileNotFound indicates the workbook path does not exist.
type ErrFileNotFound struct {
	Path string
}

func (e ErrFileNotFound) Error() string {
	return fmt.Sprintf("workbook not found: %s", e.Path)
}

// ErrSheetNotFound indicates the requested worksheet is missing. The message
// lists the available sheets so the user can correct the selector without
// reopening the file in a spreadsheet application.
type ErrSheetNotFound struct {
	Sheet     string
	Index     int
	Available []string
}

func (e ErrSheetNotFound) Error() string {
	selector := fmt.Sprintf("index %d", e.Index)
	if e.Sheet != "" {
		selector = fmt.Sprintf("%q", e.Sheet)
	}
	return fmt.Sprintf("worksheet %s not found (available: %s)", selector, strings.Join(e.Available, ", "))
}

// ErrLayoutMismatch indicates the configured rows do not line up with the
// Eurostat layout, e.g. no quarter labels on the header row. It guards
// against silently emitting an empty or garbage table.
type ErrLayoutMismatch struct {
	Sheet     string
	HeaderRow int
	Reason    string
}

func (e ErrLayoutMismatch) Error() string {
	return fmt.Sprintf("layout mismatch in sheet %q (header row %d): %s", e.Sheet, e.HeaderRow, e.Reason)
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var fileNotFound ErrFileNotFound
	if errors.As(err, &fileNotFound) {
		return "file_not_found"
	}
	var sheetNotFound ErrSheetNotFound
	if errors.As(err, &sheetNotFound) {
		return "sheet_not_found"
	}
	var layoutMismatch ErrLayoutMismatch
	if errors.As(err, &layoutMismatch) {
		return "layout_mismatch"
	}
	return "other"
}
