package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/couchcryptid/energy-usage-report/internal/observability"
	"github.com/couchcryptid/energy-usage-report/internal/render"
)

// Loader reads the dataset.
type Loader interface {
	Load(ctx context.Context) (domain.Table, error)
}

// ChartBuilder computes the aggregate of one chart.
type ChartBuilder interface {
	Build(ctx context.Context, t domain.Table, spec domain.ChartSpec) (domain.ChartData, error)
}

// Renderer draws one chart.
type Renderer interface {
	Render(ctx context.Context, chart domain.ChartData) (render.Artifact, error)
}

// Sink receives the aggregates of every chart that could be built.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, charts []domain.ChartData) error
}

// Pipeline orchestrates the load-aggregate-render run.
type Pipeline struct {
	loader   Loader
	builder  ChartBuilder
	renderer Renderer
	sinks    []Sink
	specs    []domain.ChartSpec
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
	last     atomic.Pointer[Report]
}

// New creates a Pipeline with the given stages and observability.
func New(l Loader, b ChartBuilder, r Renderer, specs []domain.ChartSpec, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Pipeline {
	return &Pipeline{
		loader:   l,
		builder:  b,
		renderer: r,
		sinks:    sinks,
		specs:    specs,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("report has not been generated yet")
	}
	return nil
}

// LastReport returns the summary of the most recent completed run.
func (p *Pipeline) LastReport() (Report, bool) {
	r := p.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Run loads the dataset once and produces every configured chart. A load
// failure aborts the run; chart and sink failures are logged, counted and
// recorded in the report, and never stop the remaining charts.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{StartedAt: domain.Now()}
	p.logger.Info("report run started", "charts", len(p.specs))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	table, err := p.loader.Load(ctx)
	if err != nil {
		p.metrics.LastRunSuccess.Set(0)
		return Report{}, err
	}
	report.Records = table.Len()
	p.metrics.RecordsLoaded.Add(float64(table.Len()))

	charts := make([]domain.ChartData, 0, len(p.specs))
	for _, spec := range p.specs {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		result, chart, ok := p.produce(ctx, table, spec)
		report.Charts = append(report.Charts, result)
		if ok {
			charts = append(charts, chart)
		}
	}

	for _, s := range p.sinks {
		report.Sinks = append(report.Sinks, p.deliver(ctx, s, charts))
	}

	report.FinishedAt = domain.Now()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if report.Failed() == 0 {
		p.metrics.LastRunSuccess.Set(1)
	} else {
		p.metrics.LastRunSuccess.Set(0)
	}
	p.last.Store(&report)
	p.ready.Store(true)

	p.logger.Info("report run finished",
		"records", report.Records,
		"charts", len(report.Charts),
		"failed", report.Failed(),
		"unresolved_countries", len(report.Unresolved()),
		"duration", time.Since(start),
	)
	return report, nil
}

// produce builds and renders one chart. ok reports whether the aggregate was
// computed, in which case it is handed to the sinks even if drawing failed.
func (p *Pipeline) produce(ctx context.Context, table domain.Table, spec domain.ChartSpec) (ChartResult, domain.ChartData, bool) {
	result := ChartResult{ID: spec.ID, Kind: spec.Kind}

	chart, err := p.builder.Build(ctx, table, spec)
	if err != nil {
		p.logger.Error("chart aggregation failed, skipping", "chart", spec.ID, "error", err)
		p.metrics.ChartErrors.WithLabelValues(spec.ID, "build").Inc()
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, domain.ChartData{}, false
	}

	result.Rows = chart.Len()
	for _, o := range chart.Omitted {
		result.Omitted = append(result.Omitted, o.Group)
	}
	for _, u := range chart.Unresolved {
		result.Unresolved = append(result.Unresolved, u.Country)
	}
	p.metrics.GroupsOmitted.WithLabelValues(spec.ID).Add(float64(len(chart.Omitted)))
	p.metrics.CountriesUnresolved.Add(float64(len(chart.Unresolved)))

	art, err := p.renderer.Render(ctx, chart)
	result.Path = art.Path
	switch {
	case err == nil:
		result.Status = StatusRendered
		p.metrics.ChartsRendered.WithLabelValues(string(spec.Kind)).Inc()
		p.logger.Info("chart rendered", "chart", spec.ID, "path", art.Path, "rows", result.Rows)
	case art.Placeholder:
		stage := "render"
		if errors.Is(err, domain.ErrEmptyInput) {
			stage = "empty"
		}
		result.Status = StatusPlaceholder
		result.Error = err.Error()
		p.metrics.ChartErrors.WithLabelValues(spec.ID, stage).Inc()
		p.logger.Warn("chart replaced by placeholder", "chart", spec.ID, "path", art.Path, "error", err)
	default:
		result.Status = StatusFailed
		result.Error = err.Error()
		p.metrics.ChartErrors.WithLabelValues(spec.ID, "render").Inc()
		p.logger.Error("chart render failed, skipping", "chart", spec.ID, "error", err)
	}
	return result, chart, true
}

func (p *Pipeline) deliver(ctx context.Context, s Sink, charts []domain.ChartData) SinkResult {
	result := SinkResult{Name: s.Name()}
	if err := s.Deliver(ctx, charts); err != nil {
		p.logger.Error("sink delivery failed", "sink", s.Name(), "error", err)
		p.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
		result.Error = errorString(err)
		return result
	}
	result.Delivered = len(charts)
	p.metrics.AggregatesPublished.WithLabelValues(s.Name()).Add(float64(len(charts)))
	return result
}
