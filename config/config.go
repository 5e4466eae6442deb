package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"
)

// DefaultChartGeos are the benchmark series drawn when no chart filter is
// given. Some Eurostat exports spell the euro area with an en dash; geography
// matching folds dash variants, so the plain hyphen here matches both.
var DefaultChartGeos = []string{
	"European Union - 27 countries (from 2020)",
	"Euro area - 20 countries (from 2023)",
	"Germany",
	"France",
	"Spain",
}

var cellRefPattern = regexp.MustCompile(`^[A-Za-z]{1,3}[1-9][0-9]*$`)

// Config holds extraction configuration.
type Config struct {
	InputPath       string
	SheetName       string
	SheetIndex      int    // zero-based, -1 means unset
	HeaderRow       int    // zero-based row holding the quarter labels
	DataRow         int    // zero-based first geography row
	LabelCell       string // cell holding the dataset label, empty skips it
	Geos            []string
	ChartGeos       []string
	TablePath       string // empty derives data/vacancies_<sheet>.csv
	ChartPath       string // empty derives plots/vacancies_<sheet>.png
	OutputFormat    string // csv, json, or dual
	SkipTable       bool
	SkipChart       bool
	Interactive     bool
	FetchURL        string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	UserAgent       string
	GridCacheSize   int
	MetricsAddr     string
	Verbose         bool
}

// DefaultConfig returns defaults matching the published Eurostat workbook
// layout: quarter labels on zero-based row 10, geography data from row 12,
// dataset label in C7.
func DefaultConfig() *Config {
	return &Config{
		InputPath:       "data/job_vacancies.xlsx",
		SheetName:       "Sheet 19",
		SheetIndex:      -1,
		HeaderRow:       10,
		DataRow:         12,
		LabelCell:       "C7",
		ChartGeos:       DefaultChartGeos,
		OutputFormat:    "csv",
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    200 * time.Millisecond,
		RetryBackoffMax: 2 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		GridCacheSize:   8,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if c.SheetName == "" && c.SheetIndex < 0 && !c.Interactive {
		return fmt.Errorf("a sheet name, sheet index, or interactive mode is required")
	}
	if c.SheetIndex < -1 {
		return fmt.Errorf("sheet index cannot be negative")
	}
	if c.HeaderRow < 0 {
		return fmt.Errorf("header row cannot be negative")
	}
	if c.DataRow <= c.HeaderRow {
		return fmt.Errorf("data row (%d) must come after header row (%d)", c.DataRow, c.HeaderRow)
	}
	if c.LabelCell != "" && !cellRefPattern.MatchString(c.LabelCell) {
		return fmt.Errorf("label cell %q is not a valid cell reference", c.LabelCell)
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.SkipTable && c.SkipChart {
		return fmt.Errorf("nothing to do: both table and chart outputs are disabled")
	}
	if c.FetchURL != "" {
		parsedURL, err := url.Parse(c.FetchURL)
		if err != nil {
			return fmt.Errorf("invalid fetch URL: %w", err)
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("fetch URL must include a host")
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.GridCacheSize <= 0 {
		return fmt.Errorf("grid cache size must be positive")
	}

	return nil
}

// EnvString looks up an environment variable, reporting whether it was set to
// a non-empty value.
func EnvString(key string) (string, bool) {
	value := os.Getenv(key)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt looks up an integer environment variable. The boolean reports
// presence; a set but unparsable value returns an error.
func EnvInt(key string) (int, bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, true, nil
}
