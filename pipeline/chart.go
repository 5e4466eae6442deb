package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/acarvalhaes/go-tidy-vacancies/models"
	"github.com/acarvalhaes/go-tidy-vacancies/parser"
)

// ChartWriter renders the tidy table as a line chart image, one line per
// geography with quarters along the X axis.
type ChartWriter struct {
	path  string
	title string
	geos  []string // series filter; empty draws every geography
}

// NewChartWriter initialises a chart writer targeting path. The image format
// follows the file extension (.png, .svg, .pdf and friends).
func NewChartWriter(path, title string, geos []string) (*ChartWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &ChartWriter{path: path, title: title, geos: geos}, nil
}

// Write renders the chart. A geography's line breaks where quarters are
// missing, so gaps stay visible instead of being bridged. Requested
// geographies absent from the table are logged and skipped; having nothing
// left to draw is an error.
func (cw *ChartWriter) Write(table *models.TidyTable) error {
	geos := table.Geos
	if len(cw.geos) > 0 {
		matched, missed := parser.MatchGeos(table.Geos, cw.geos)
		for _, name := range missed {
			slog.Warn("chart geography not in table", slog.String("geo", name))
		}
		geos = matched
	}
	if len(geos) == 0 {
		return fmt.Errorf("no geography series to plot")
	}

	p := plot.New()
	p.Title.Text = cw.title
	p.X.Label.Text = "Quarter"
	p.Y.Label.Text = "Job vacancy rate (%)"
	p.X.Tick.Label.Rotation = math.Pi / 5
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())
	p.NominalX(table.Quarters...)
	p.Legend.Top = true

	for i, geo := range geos {
		inLegend := false
		for _, segment := range segments(table.Series(geo)) {
			line, points, err := plotter.NewLinePoints(segment)
			if err != nil {
				return fmt.Errorf("build series %q: %w", geo, err)
			}
			line.Color = plotutil.Color(i)
			points.Color = plotutil.Color(i)
			points.Shape = plotutil.Shape(i)
			p.Add(line, points)
			if !inLegend {
				p.Legend.Add(geo, line, points)
				inLegend = true
			}
		}
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, cw.path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// segments splits a series into contiguous runs of present values, keeping
// the quarter positions as X coordinates.
func segments(series []*float64) []plotter.XYs {
	var runs []plotter.XYs
	var current plotter.XYs
	for i, value := range series {
		if value == nil {
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, plotter.XY{X: float64(i), Y: *value})
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// Close is a no-op: Write saves and closes the image file itself.
func (cw *ChartWriter) Close() error {
	return nil
}

// Validate ensures the chart file landed on disk with content.
func (cw *ChartWriter) Validate() error {
	info, err := os.Stat(cw.path)
	if err != nil {
		return fmt.Errorf("stat chart file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("chart file is empty")
	}
	return nil
}
