// Package models defines data structures for the extraction pipeline.
package models

import "time"

// TidyRecord is one observation in the long-format table: a geography, a
// normalized quarter, and the vacancy rate for that pair. A nil rate marks a
// value the source flagged as missing.
type TidyRecord struct {
	Geo         string   `csv:"geo" json:"geo"`
	Quarter     string   `csv:"quarter" json:"quarter"`
	VacancyRate *float64 `csv:"vacancy_rate" json:"vacancy_rate"`
}

// TidyTable is the reshaped result of one worksheet extraction. Records are
// rectangular and geography-major: every geography carries a record for every
// quarter, geographies in source row order, quarters in source column order.
type TidyTable struct {
	Records  []TidyRecord
	Quarters []string
	Geos     []string
}

// Series returns geo's rates in quarter order, with nil entries where the
// source had no value. It returns nil when the geography is not in the table.
func (t *TidyTable) Series(geo string) []*float64 {
	index := make(map[string]int, len(t.Quarters))
	for i, q := range t.Quarters {
		index[q] = i
	}
	out := make([]*float64, len(t.Quarters))
	found := false
	for i := range t.Records {
		record := &t.Records[i]
		if record.Geo != geo {
			continue
		}
		found = true
		if qi, ok := index[record.Quarter]; ok {
			out[qi] = record.VacancyRate
		}
	}
	if !found {
		return nil
	}
	return out
}

// ExtractResult holds the outcome of extracting one worksheet.
type ExtractResult struct {
	Table          *TidyTable
	SheetName      string
	DatasetLabel   string
	FlagColumns    int
	SkippedColumns int
	MissingCells   int
	UnmatchedGeos  []string
	Duration       time.Duration
}
