// Package render draws chart aggregates to image files with gonum/plot.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Formats lists the supported output formats.
var Formats = []string{"png", "svg", "pdf"}

// Artifact is a chart written to disk.
type Artifact struct {
	ChartID     string           `json:"chart_id"`
	Kind        domain.ChartKind `json:"kind"`
	Path        string           `json:"path"`
	Placeholder bool             `json:"placeholder,omitempty"`
}

// Renderer writes one file per chart into Dir. It holds no per-chart state,
// so rendering the same chart twice produces the same file.
type Renderer struct {
	dir    string
	format string
	logger *slog.Logger
}

// NewRenderer creates dir if needed and validates format.
func NewRenderer(dir, format string, logger *slog.Logger) (*Renderer, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if !supported(format) {
		return nil, fmt.Errorf("unsupported image format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Renderer{dir: dir, format: format, logger: logger}, nil
}

func supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

// Path returns the file a chart spec renders to.
func (r *Renderer) Path(spec domain.ChartSpec) string {
	return filepath.Join(r.dir, spec.File+"."+r.format)
}

// Render draws chart. An empty chart, or one whose plot cannot be built,
// is replaced by a placeholder image and reported as a *domain.RenderError
// together with the placeholder artifact. Only a failure to write any file
// returns a zero Artifact.
func (r *Renderer) Render(ctx context.Context, chart domain.ChartData) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	spec := chart.Spec
	art := Artifact{ChartID: spec.ID, Kind: spec.Kind, Path: r.Path(spec)}

	if chart.Len() == 0 {
		return r.placeholder(art, spec, domain.ErrEmptyInput)
	}

	p, err := build(chart)
	if err != nil {
		r.logger.Warn("chart could not be built, writing placeholder", "chart", spec.ID, "error", err)
		return r.placeholder(art, spec, err)
	}

	if err := r.save(p, spec); err != nil {
		return Artifact{}, &domain.RenderError{Chart: spec.ID, Err: err}
	}
	r.logger.Debug("chart rendered", "chart", spec.ID, "path", art.Path, "rows", chart.Len())
	return art, nil
}

func (r *Renderer) placeholder(art Artifact, spec domain.ChartSpec, cause error) (Artifact, error) {
	renderErr := &domain.RenderError{Chart: spec.ID, Err: cause}
	p, err := placeholderPlot(spec.Title)
	if err == nil {
		err = r.save(p, spec)
	}
	if err != nil {
		return Artifact{}, &domain.RenderError{Chart: spec.ID, Err: errors.Join(cause, err)}
	}
	art.Placeholder = true
	return art, renderErr
}

func (r *Renderer) save(p *plot.Plot, spec domain.ChartSpec) error {
	w := vg.Length(spec.WidthIn) * vg.Inch
	h := vg.Length(spec.HeightIn) * vg.Inch
	if err := p.Save(w, h, r.Path(spec)); err != nil {
		return fmt.Errorf("save %s: %w", r.Path(spec), err)
	}
	return nil
}

func build(chart domain.ChartData) (*plot.Plot, error) {
	switch chart.Spec.Kind {
	case domain.KindBar:
		return barChart(chart.Spec, chart.Savings)
	case domain.KindLine:
		return lineChart(chart.Spec, chart.Trend)
	case domain.KindBox:
		return boxChart(chart.Spec, chart.Distribution)
	case domain.KindErrorBar:
		return errorBarChart(chart.Spec, chart.Intervals)
	case domain.KindBubbleMap:
		return bubbleMap(chart.Spec, chart.Points, chart.Year)
	}
	return nil, fmt.Errorf("unknown chart kind %q", chart.Spec.Kind)
}

func newPlot(spec domain.ChartSpec) *plot.Plot {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	return p
}

// placeholderPlot is an axis-less plot that says there is nothing to show.
func placeholderPlot(title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{"No data"},
	})
	if err != nil {
		return nil, err
	}
	labels.TextStyle[0].Font.Size = vg.Points(18)
	labels.TextStyle[0].Color = color.Gray{Y: 96}
	labels.TextStyle[0].XAlign = draw.XCenter
	labels.TextStyle[0].YAlign = draw.YCenter
	p.Add(labels)
	return p, nil
}
