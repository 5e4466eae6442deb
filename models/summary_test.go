package models

import (
	"math"
	"testing"
)

func rate(v float64) *float64 {
	return &v
}

func testTable() *TidyTable {
	return &TidyTable{
		Quarters: []string{"2023-Q1", "2023-Q2", "2023-Q3"},
		Geos:     []string{"Germany", "France"},
		Records: []TidyRecord{
			{Geo: "Germany", Quarter: "2023-Q1", VacancyRate: rate(4.1)},
			{Geo: "Germany", Quarter: "2023-Q2", VacancyRate: rate(3.9)},
			{Geo: "Germany", Quarter: "2023-Q3", VacancyRate: nil},
			{Geo: "France", Quarter: "2023-Q1", VacancyRate: rate(2.3)},
			{Geo: "France", Quarter: "2023-Q2", VacancyRate: rate(2.5)},
			{Geo: "France", Quarter: "2023-Q3", VacancyRate: rate(2.4)},
		},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(testTable())

	if summary.GeoCount != 2 || summary.QuarterCount != 3 || summary.RecordCount != 6 {
		t.Fatalf("counts = %d geos, %d quarters, %d records, want 2, 3, 6",
			summary.GeoCount, summary.QuarterCount, summary.RecordCount)
	}
	if summary.MissingCount != 1 {
		t.Fatalf("MissingCount = %d, want 1", summary.MissingCount)
	}
	if !summary.HasRates {
		t.Fatal("HasRates = false, want true")
	}
	if summary.MinRate != 2.3 || summary.MaxRate != 4.1 {
		t.Fatalf("min/max = %.2f/%.2f, want 2.30/4.10", summary.MinRate, summary.MaxRate)
	}
	wantMean := (4.1 + 3.9 + 2.3 + 2.5 + 2.4) / 5
	if math.Abs(summary.MeanRate-wantMean) > 1e-9 {
		t.Fatalf("MeanRate = %v, want %v", summary.MeanRate, wantMean)
	}
	if summary.MedianRate != 2.5 {
		t.Fatalf("MedianRate = %v, want 2.5", summary.MedianRate)
	}
}

func TestSummarizeAllMissing(t *testing.T) {
	table := &TidyTable{
		Quarters: []string{"2023-Q1"},
		Geos:     []string{"Malta"},
		Records:  []TidyRecord{{Geo: "Malta", Quarter: "2023-Q1"}},
	}
	summary := Summarize(table)
	if summary.HasRates {
		t.Fatal("HasRates = true for a table with no present rates")
	}
	if summary.MissingCount != 1 {
		t.Fatalf("MissingCount = %d, want 1", summary.MissingCount)
	}
}

func TestSeries(t *testing.T) {
	series := testTable().Series("Germany")
	if len(series) != 3 {
		t.Fatalf("len(series) = %d, want 3", len(series))
	}
	if series[0] == nil || *series[0] != 4.1 {
		t.Fatalf("series[0] = %v, want 4.1", series[0])
	}
	if series[2] != nil {
		t.Fatalf("series[2] = %v, want nil", *series[2])
	}
}

func TestSeriesUnknownGeo(t *testing.T) {
	if series := testTable().Series("Atlantis"); series != nil {
		t.Fatalf("Series(unknown) = %v, want nil", series)
	}
}
