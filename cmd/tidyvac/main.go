package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/acarvalhaes/go-tidy-vacancies/config"
	"github.com/acarvalhaes/go-tidy-vacancies/fetch"
	"github.com/acarvalhaes/go-tidy-vacancies/models"
	"github.com/acarvalhaes/go-tidy-vacancies/parser"
	"github.com/acarvalhaes/go-tidy-vacancies/pipeline"
	"github.com/acarvalhaes/go-tidy-vacancies/workbook"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	inputDefault := defaultCfg.InputPath
	if value, ok := config.EnvString("TIDYVAC_INPUT"); ok {
		inputDefault = value
	}
	sheetDefault := defaultCfg.SheetName
	if value, ok := config.EnvString("TIDYVAC_SHEET"); ok {
		sheetDefault = value
	}
	headerRowDefault := defaultCfg.HeaderRow
	if value, ok, err := config.EnvInt("TIDYVAC_HEADER_ROW"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid TIDYVAC_HEADER_ROW: %v\n", err)
		os.Exit(1)
	} else if ok {
		headerRowDefault = value
	}
	dataRowDefault := defaultCfg.DataRow
	if value, ok, err := config.EnvInt("TIDYVAC_DATA_ROW"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid TIDYVAC_DATA_ROW: %v\n", err)
		os.Exit(1)
	} else if ok {
		dataRowDefault = value
	}
	outputDefault := defaultCfg.TablePath
	if value, ok := config.EnvString("TIDYVAC_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("TIDYVAC_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	input := flag.String("input", inputDefault, "Path to the Eurostat workbook (.xlsx)")
	sheet := flag.String("sheet", sheetDefault, "Worksheet name holding the vacancy table")
	sheetIndex := flag.Int("sheet-index", -1, "Zero-based worksheet index, used when -sheet is empty")
	headerRow := flag.Int("header-row", headerRowDefault, "Zero-based row holding the quarter labels")
	dataRow := flag.Int("data-row", dataRowDefault, "Zero-based first row of geography data")
	labelCell := flag.String("label-cell", defaultCfg.LabelCell, "Cell holding the dataset label, empty to skip")
	geos := flag.String("geos", "", "Comma-separated geography filter for the table (default: keep all)")
	chartGeos := flag.String("chart-geos", "", "Comma-separated geographies to chart (default: EU benchmarks)")
	output := flag.String("output", outputDefault, "Table output path (default: data/vacancies_<sheet>.csv)")
	chartOutput := flag.String("chart-output", "", "Chart output path (default: plots/vacancies_<sheet>.png)")
	format := flag.String("format", defaultCfg.OutputFormat, "Table output format: csv, json, or dual")
	noTable := flag.Bool("no-table", false, "Skip writing the tidy table")
	noChart := flag.Bool("no-chart", false, "Skip rendering the chart")
	interactive := flag.Bool("interactive", false, "Pick the worksheet interactively")
	listSheets := flag.Bool("list-sheets", false, "List worksheet names and exit")
	fetchURL := flag.String("fetch-url", "", "Download the workbook from this URL to -input first")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum download retry attempts")
	retryBackoffMs := flag.Int("retry-backoff", int(defaultCfg.RetryBackoff/time.Millisecond), "Initial download retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaultCfg.RetryBackoffMax/time.Millisecond), "Maximum download retry backoff (milliseconds)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg := buildConfigFromFlags(
		*input, *sheet, *sheetIndex, *headerRow, *dataRow, *labelCell,
		*geos, *chartGeos, *output, *chartOutput, *format,
		*noTable, *noChart, *interactive, *fetchURL,
		*maxRetries, *retryBackoffMs, *retryBackoffMaxMs, *metricsAddr, *verbose,
	)

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting extraction",
		slog.String("input", cfg.InputPath),
		slog.String("sheet", cfg.SheetName),
		slog.String("format", cfg.OutputFormat),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := workbook.NewMetrics()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	if cfg.FetchURL != "" {
		fetcher, err := fetch.NewFetcher(cfg, metrics)
		if err != nil {
			slog.Error("initialising fetcher", slog.Any("error", err))
			os.Exit(1)
		}
		if err := fetcher.Download(ctx, cfg.InputPath); err != nil {
			slog.Error("downloading workbook", slog.Any("error", err))
			os.Exit(1)
		}
	}

	wb, err := workbook.Open(cfg.InputPath, cfg.GridCacheSize)
	if err != nil {
		slog.Error("opening workbook", slog.Any("error", err))
		os.Exit(1)
	}
	defer wb.Close()

	if *listSheets {
		for i, name := range wb.SheetNames() {
			fmt.Printf("  [%d] %s\n", i+1, name)
		}
		return
	}

	extractor := workbook.NewExtractor(wb, metrics)
	opts := workbook.Options{
		HeaderRow: cfg.HeaderRow,
		DataRow:   cfg.DataRow,
		LabelCell: cfg.LabelCell,
		Geos:      cfg.Geos,
	}

	startTime := time.Now()

	var result *models.ExtractResult
	if cfg.Interactive {
		result, err = chooseSheet(wb, extractor, opts, os.Stdin, os.Stdout)
		if err != nil {
			slog.Error("interactive selection failed", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		sheetName, resolveErr := wb.ResolveSheet(cfg.SheetName, cfg.SheetIndex)
		if resolveErr != nil {
			slog.Error("resolving worksheet", slog.Any("error", resolveErr))
			os.Exit(1)
		}
		result, err = extractor.Extract(sheetName, opts)
		if err != nil {
			slog.Error("extraction failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	slug := parser.Slugify(result.SheetName)
	tablePath := cfg.TablePath
	if tablePath == "" {
		tablePath = filepath.Join("data", "vacancies_"+slug+tableExtension(cfg.OutputFormat))
	}
	chartPath := cfg.ChartPath
	if chartPath == "" {
		chartPath = filepath.Join("plots", "vacancies_"+slug+".png")
	}

	artifacts := pipeline.NewArtifacts()
	artifactSetupFailed := false
	if !cfg.SkipTable {
		writer, writerErr := createTableWriter(cfg.OutputFormat, tablePath)
		if writerErr != nil {
			slog.Error("creating table writer", slog.Any("error", writerErr))
			artifactSetupFailed = true
		} else {
			artifacts.Add("table", writer)
		}
	}
	if !cfg.SkipChart {
		title := result.DatasetLabel
		if title == "" {
			title = "Job vacancy rate"
		}
		chartWriter, chartErr := pipeline.NewChartWriter(chartPath, title, cfg.ChartGeos)
		if chartErr != nil {
			slog.Error("creating chart writer", slog.Any("error", chartErr))
			artifactSetupFailed = true
		} else {
			artifacts.Add("chart", chartWriter)
		}
	}

	runErr := artifacts.Run(result.Table)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	summary := models.Summarize(result.Table)
	printSummary(result, summary, time.Since(startTime), cfg, tablePath, chartPath)

	if runErr != nil || artifactSetupFailed {
		os.Exit(1)
	}
}

func buildConfigFromFlags(
	input, sheet string, sheetIndex, headerRow, dataRow int, labelCell,
	geos, chartGeos, tablePath, chartPath, format string,
	skipTable, skipChart, interactive bool, fetchURL string,
	maxRetries, retryBackoffMs, retryBackoffMaxMs int, metricsAddr string, verbose bool,
) *config.Config {
	cfg := config.DefaultConfig()
	cfg.InputPath = input
	cfg.SheetName = sheet
	cfg.SheetIndex = sheetIndex
	cfg.HeaderRow = headerRow
	cfg.DataRow = dataRow
	cfg.LabelCell = labelCell
	cfg.Geos = parser.SplitList(geos)
	if parsed := parser.SplitList(chartGeos); parsed != nil {
		cfg.ChartGeos = parsed
	}
	cfg.TablePath = tablePath
	cfg.ChartPath = chartPath
	cfg.OutputFormat = strings.ToLower(format)
	cfg.SkipTable = skipTable
	cfg.SkipChart = skipChart
	cfg.Interactive = interactive
	cfg.FetchURL = fetchURL
	cfg.MaxRetries = maxRetries
	cfg.RetryBackoff = time.Duration(retryBackoffMs) * time.Millisecond
	cfg.RetryBackoffMax = time.Duration(retryBackoffMaxMs) * time.Millisecond
	cfg.MetricsAddr = metricsAddr
	cfg.Verbose = verbose
	return cfg
}

func tableExtension(format string) string {
	if format == "json" {
		return ".json"
	}
	return ".csv"
}

func createTableWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.ExtractResult, summary models.Summary, duration time.Duration, cfg *config.Config, tablePath, chartPath string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Extraction complete")
	fmt.Printf("  Worksheet:     %s\n", result.SheetName)
	if result.DatasetLabel != "" {
		fmt.Printf("  Dataset:       %s\n", result.DatasetLabel)
	}
	fmt.Printf("  Geographies:   %d\n", summary.GeoCount)
	fmt.Printf("  Quarters:      %d\n", summary.QuarterCount)
	fmt.Printf("  Records:       %d\n", summary.RecordCount)
	fmt.Printf("  Missing cells: %d\n", summary.MissingCount)
	if summary.HasRates {
		fmt.Printf("  Rate min/max:  %.2f / %.2f\n", summary.MinRate, summary.MaxRate)
		fmt.Printf("  Rate mean:     %.2f (median %.2f)\n", summary.MeanRate, summary.MedianRate)
	}
	if len(result.UnmatchedGeos) > 0 {
		fmt.Printf("  Unmatched:     %s\n", strings.Join(result.UnmatchedGeos, ", "))
	}
	fmt.Printf("  Duration:      %v\n", duration)
	if !cfg.SkipTable {
		fmt.Printf("  Table output:  %s\n", tablePath)
	}
	if !cfg.SkipChart {
		fmt.Printf("  Chart output:  %s\n", chartPath)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
