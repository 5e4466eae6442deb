// Package fetch downloads the source workbook ahead of extraction.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/acarvalhaes/go-tidy-vacancies/config"
	"github.com/acarvalhaes/go-tidy-vacancies/workbook"
)

// Fetcher retrieves the workbook over HTTP with capped exponential retry.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *workbook.Metrics
}

// NewFetcher builds a fetcher for cfg.FetchURL. A nil metrics bundle
// disables instrumentation.
func NewFetcher(cfg *config.Config, metrics *workbook.Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.FetchURL)
	if err != nil {
		return nil, fmt.Errorf("parse fetch url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("fetch url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{cfg: cfg, collector: collector, metrics: metrics}, nil
}

// Download fetches the workbook and writes it to dest, creating parent
// directories as needed. Failed attempts retry with exponential backoff
// capped at the configured maximum; ctx cancels between attempts.
func (f *Fetcher) Download(ctx context.Context, dest string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := f.fetchOnce(dest)
		if err == nil {
			slog.Info("workbook downloaded",
				slog.String("url", f.cfg.FetchURL),
				slog.String("dest", dest),
			)
			return nil
		}
		if attempt >= f.cfg.MaxRetries {
			return fmt.Errorf("download %s: %w", f.cfg.FetchURL, err)
		}

		attempt++
		f.metrics.IncRetries()
		delay := backoffDelay(f.cfg.RetryBackoff, f.cfg.RetryBackoffMax, attempt)
		slog.Warn("download failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// fetchOnce runs a single synchronous request on a collector clone so each
// attempt starts with fresh callbacks.
func (f *Fetcher) fetchOnce(dest string) error {
	c := f.collector.Clone()

	var body []byte
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(f.cfg.FetchURL); err != nil {
		return fmt.Errorf("visit: %w", err)
	}
	if fetchErr != nil {
		return fmt.Errorf("fetch: %w", fetchErr)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty response body")
	}

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
