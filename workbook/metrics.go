package workbook

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extraction pipeline.
type Metrics struct {
	Registry             *prometheus.Registry
	SheetsExtracted      prometheus.Counter
	ExtractDuration      prometheus.Histogram
	RecordsEmittedTotal  prometheus.Counter
	MissingCellsTotal    prometheus.Counter
	SkippedColumnsTotal  prometheus.Counter
	DownloadRetriesTotal prometheus.Counter
	ErrorsTotal          *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	sheets := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tidyvac_sheets_extracted_total",
			Help: "Total number of worksheets extracted successfully.",
		},
	)
	extractDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tidyvac_extract_duration_seconds",
			Help:    "Time spent extracting and reshaping one worksheet.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tidyvac_records_emitted_total",
			Help: "Total number of tidy records produced.",
		},
	)
	missing := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tidyvac_missing_cells_total",
			Help: "Total number of cells carrying a missing-value marker.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tidyvac_skipped_columns_total",
			Help: "Total number of header columns ignored as non-quarter.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tidyvac_download_retries_total",
			Help: "Total number of workbook download retries scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidyvac_errors_total",
			Help: "Total number of extraction errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(sheets, extractDuration, records, missing, skipped, retries, errorsTotal)

	return &Metrics{
		Registry:             registry,
		SheetsExtracted:      sheets,
		ExtractDuration:      extractDuration,
		RecordsEmittedTotal:  records,
		MissingCellsTotal:    missing,
		SkippedColumnsTotal:  skipped,
		DownloadRetriesTotal: retries,
		ErrorsTotal:          errorsTotal,
	}
}

// IncSheets increments the extracted sheets counter.
func (m *Metrics) IncSheets() {
	if m == nil {
		return
	}
	m.SheetsExtracted.Inc()
}

// ObserveDuration records the duration of one extraction.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractDuration.Observe(d.Seconds())
}

// AddRecords adds to the emitted records counter.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsEmittedTotal.Add(float64(n))
}

// AddMissing adds to the missing cells counter.
func (m *Metrics) AddMissing(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MissingCellsTotal.Add(float64(n))
}

// AddSkipped adds to the skipped columns counter.
func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedColumnsTotal.Add(float64(n))
}

// IncRetries increments the download retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.DownloadRetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
