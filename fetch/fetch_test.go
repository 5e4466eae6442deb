package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/acarvalhaes/go-tidy-vacancies/config"
	"github.com/acarvalhaes/go-tidy-vacancies/workbook"
)

const fetchURL = "http://stats.example.test/job_vacancies.xlsx"

// xlsxPayload mimics a zip container; the fetcher never inspects the bytes.
var xlsxPayload = []byte("PK\x03\x04 workbook bytes")

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.FetchURL = fetchURL
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 5 * time.Millisecond
	return cfg
}

func newTestFetcher(t *testing.T, cfg *config.Config, transport *httpmock.MockTransport) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(cfg, workbook.NewMetrics())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	fetcher.collector.WithTransport(transport)
	return fetcher
}

func TestFetcherDownload(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", fetchURL, httpmock.NewBytesResponder(http.StatusOK, xlsxPayload))

	fetcher := newTestFetcher(t, testConfig(), transport)
	dest := filepath.Join(t.TempDir(), "data", "job_vacancies.xlsx")

	if err := fetcher.Download(context.Background(), dest); err != nil {
		t.Fatalf("download: %v", err)
	}

	written, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(written, xlsxPayload) {
		t.Fatalf("downloaded bytes differ from response body")
	}
}

func TestFetcherRetriesThenSucceeds(t *testing.T) {
	calls := 0
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", fetchURL, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls <= 2 {
			return httpmock.NewStringResponse(http.StatusInternalServerError, "try later"), nil
		}
		return httpmock.NewBytesResponse(http.StatusOK, xlsxPayload), nil
	})

	fetcher := newTestFetcher(t, testConfig(), transport)
	dest := filepath.Join(t.TempDir(), "job_vacancies.xlsx")

	if err := fetcher.Download(context.Background(), dest); err != nil {
		t.Fatalf("download should succeed on the third attempt: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestFetcherGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", fetchURL, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(http.StatusInternalServerError, "still broken"), nil
	})

	cfg := testConfig()
	cfg.MaxRetries = 1
	fetcher := newTestFetcher(t, cfg, transport)

	err := fetcher.Download(context.Background(), filepath.Join(t.TempDir(), "job_vacancies.xlsx"))
	if err == nil {
		t.Fatal("expected download to fail")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (initial attempt plus one retry)", calls)
	}
}

func TestFetcherRejectsEmptyBody(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", fetchURL, httpmock.NewStringResponder(http.StatusOK, ""))

	cfg := testConfig()
	cfg.MaxRetries = 0
	fetcher := newTestFetcher(t, cfg, transport)

	err := fetcher.Download(context.Background(), filepath.Join(t.TempDir(), "job_vacancies.xlsx"))
	if err == nil {
		t.Fatal("expected error for empty response body")
	}
}

func TestFetcherContextCanceled(t *testing.T) {
	calls := 0
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", fetchURL, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewBytesResponse(http.StatusOK, xlsxPayload), nil
	})

	fetcher := newTestFetcher(t, testConfig(), transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fetcher.Download(ctx, filepath.Join(t.TempDir(), "job_vacancies.xlsx"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestNewFetcherRejectsBadURL(t *testing.T) {
	cfg := testConfig()
	cfg.FetchURL = "http://"
	if _, err := NewFetcher(cfg, nil); err == nil {
		t.Fatal("expected error for fetch url without host")
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		max      time.Duration
		attempt  int
		expected time.Duration
	}{
		{
			name:     "first attempt",
			base:     200 * time.Millisecond,
			max:      2 * time.Second,
			attempt:  1,
			expected: 200 * time.Millisecond,
		},
		{
			name:     "doubles per attempt",
			base:     200 * time.Millisecond,
			max:      2 * time.Second,
			attempt:  3,
			expected: 800 * time.Millisecond,
		},
		{
			name:     "capped at max",
			base:     200 * time.Millisecond,
			max:      500 * time.Millisecond,
			attempt:  4,
			expected: 500 * time.Millisecond,
		},
		{
			name:     "uncapped when max unset",
			base:     100 * time.Millisecond,
			attempt:  3,
			expected: 400 * time.Millisecond,
		},
		{
			name:     "zero attempt coerced",
			base:     200 * time.Millisecond,
			max:      2 * time.Second,
			attempt:  0,
			expected: 200 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backoffDelay(tt.base, tt.max, tt.attempt); got != tt.expected {
				t.Fatalf("backoffDelay(%v, %v, %d) = %v, want %v", tt.base, tt.max, tt.attempt, got, tt.expected)
			}
		})
	}
}
