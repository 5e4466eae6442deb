package workbook

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/acarvalhaes/go-tidy-vacancies/models"
	"github.com/acarvalhaes/go-tidy-vacancies/parser"
)

// Options controls how one worksheet is extracted.
type Options struct {
	HeaderRow int // zero-based row holding the quarter labels
	DataRow   int // zero-based first geography row
	LabelCell string
	Geos      []string // optional filter; empty keeps every geography
}

// Extractor reshapes worksheets into tidy tables.
type Extractor struct {
	wb      *Workbook
	metrics *Metrics
}

// NewExtractor builds an extractor over an open workbook. A nil metrics
// bundle disables instrumentation.
func NewExtractor(wb *Workbook, metrics *Metrics) *Extractor {
	return &Extractor{wb: wb, metrics: metrics}
}

// quarterColumn pairs a grid column index with its normalized quarter label.
type quarterColumn struct {
	index int
	label string
}

// geoRow pairs a geography name with its raw source row.
type geoRow struct {
	geo   string
	cells []string
}

// Extract reads one worksheet and reshapes it into a rectangular tidy table:
// every kept geography carries one record per quarter column, with nil rates
// where the source holds a missing-value marker. Record order is geography
// first, then quarter, both in source order.
func (e *Extractor) Extract(sheet string, opts Options) (*models.ExtractResult, error) {
	start := time.Now()
	result, err := e.extract(sheet, opts)
	if err != nil {
		e.metrics.IncError(errorTypeLabel(err))
		return nil, err
	}
	result.Duration = time.Since(start)

	e.metrics.IncSheets()
	e.metrics.AddRecords(len(result.Table.Records))
	e.metrics.AddMissing(result.MissingCells)
	e.metrics.AddSkipped(result.SkippedColumns)
	e.metrics.ObserveDuration(result.Duration)

	return result, nil
}

func (e *Extractor) extract(sheet string, opts Options) (*models.ExtractResult, error) {
	grid, err := e.wb.Grid(sheet)
	if err != nil {
		return nil, err
	}

	if opts.HeaderRow < 0 || opts.HeaderRow >= len(grid) {
		return nil, ErrLayoutMismatch{
			Sheet:     sheet,
			HeaderRow: opts.HeaderRow,
			Reason:    fmt.Sprintf("header row outside sheet (%d rows)", len(grid)),
		}
	}

	quarters, flagColumns, skipped := locateQuarterColumns(grid[opts.HeaderRow])
	if len(quarters) == 0 {
		return nil, ErrLayoutMismatch{
			Sheet:     sheet,
			HeaderRow: opts.HeaderRow,
			Reason:    "no quarter labels on header row",
		}
	}

	rows := locateGeoRows(grid, opts.DataRow)
	if len(rows) == 0 {
		return nil, ErrLayoutMismatch{
			Sheet:     sheet,
			HeaderRow: opts.HeaderRow,
			Reason:    fmt.Sprintf("no geography rows from data row %d", opts.DataRow),
		}
	}

	slog.Debug("worksheet layout",
		slog.String("sheet", sheet),
		slog.Int("quarters", len(quarters)),
		slog.Int("geographies", len(rows)),
		slog.Int("flag_columns", flagColumns),
		slog.Int("skipped_columns", skipped),
	)

	var unmatched []string
	if len(opts.Geos) > 0 {
		available := make([]string, 0, len(rows))
		for _, row := range rows {
			available = append(available, row.geo)
		}
		matched, missed := parser.MatchGeos(available, opts.Geos)
		unmatched = missed
		for _, name := range missed {
			slog.Warn("requested geography not in sheet",
				slog.String("sheet", sheet),
				slog.String("geo", name),
			)
		}

		keep := make(map[string]bool, len(matched))
		for _, name := range matched {
			keep[name] = true
		}
		kept := make([]geoRow, 0, len(matched))
		for _, row := range rows {
			if keep[row.geo] {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	table := &models.TidyTable{
		Records:  make([]models.TidyRecord, 0, len(rows)*len(quarters)),
		Quarters: make([]string, 0, len(quarters)),
		Geos:     make([]string, 0, len(rows)),
	}
	for _, q := range quarters {
		table.Quarters = append(table.Quarters, q.label)
	}

	missing := 0
	for _, row := range rows {
		table.Geos = append(table.Geos, row.geo)
		for _, q := range quarters {
			record := models.TidyRecord{Geo: row.geo, Quarter: q.label}
			if value, ok := parser.ParseRate(cellAt(row.cells, q.index)); ok {
				rate := value
				record.VacancyRate = &rate
			} else {
				missing++
			}
			table.Records = append(table.Records, record)
		}
	}

	return &models.ExtractResult{
		Table:          table,
		SheetName:      sheet,
		DatasetLabel:   e.wb.Label(sheet, opts.LabelCell),
		FlagColumns:    flagColumns,
		SkippedColumns: skipped,
		MissingCells:   missing,
		UnmatchedGeos:  unmatched,
	}, nil
}

// locateQuarterColumns classifies header cells from column B onward: empty
// cells are Eurostat flag columns, quarter labels become data columns, and
// anything else is skipped. Column A holds the geography names.
func locateQuarterColumns(header []string) (cols []quarterColumn, flagColumns, skipped int) {
	for i := 1; i < len(header); i++ {
		label := strings.TrimSpace(header[i])
		if label == "" {
			flagColumns++
			continue
		}
		normalized, ok := parser.ParseQuarterLabel(label)
		if !ok {
			skipped++
			continue
		}
		cols = append(cols, quarterColumn{index: i, label: normalized})
	}
	return cols, flagColumns, skipped
}

// locateGeoRows collects the contiguous block of geography rows starting at
// dataRow. The first row with an empty geography cell ends the block, which
// keeps footnotes below the table out of the data.
func locateGeoRows(grid [][]string, dataRow int) []geoRow {
	if dataRow < 0 {
		return nil
	}
	var rows []geoRow
	for r := dataRow; r < len(grid); r++ {
		geo := strings.TrimSpace(cellAt(grid[r], 0))
		if geo == "" {
			break
		}
		rows = append(rows, geoRow{geo: geo, cells: grid[r]})
	}
	return rows
}

// cellAt indexes a ragged row, treating absent trailing cells as empty.
func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
