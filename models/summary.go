package models

import "github.com/montanaflynn/stats"

// Summary aggregates one extracted table for the end-of-run report.
type Summary struct {
	GeoCount     int
	QuarterCount int
	RecordCount  int
	MissingCount int
	HasRates     bool
	MinRate      float64
	MaxRate      float64
	MeanRate     float64
	MedianRate   float64
}

// Summarize computes descriptive statistics over the present rates. Missing
// values count separately and never enter the statistics.
func Summarize(t *TidyTable) Summary {
	summary := Summary{
		GeoCount:     len(t.Geos),
		QuarterCount: len(t.Quarters),
		RecordCount:  len(t.Records),
	}

	var rates stats.Float64Data
	for i := range t.Records {
		if t.Records[i].VacancyRate == nil {
			summary.MissingCount++
			continue
		}
		rates = append(rates, *t.Records[i].VacancyRate)
	}
	if len(rates) == 0 {
		return summary
	}

	summary.HasRates = true
	summary.MinRate, _ = stats.Min(rates)
	summary.MaxRate, _ = stats.Max(rates)
	summary.MeanRate, _ = stats.Mean(rates)
	summary.MedianRate, _ = stats.Median(rates)
	return summary
}
