package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
)

// ReportBuilder implements ChartBuilder using the domain aggregations, with
// the capital locator used for the map chart.
type ReportBuilder struct {
	locator domain.CapitalLocator
	logger  *slog.Logger
}

// NewBuilder creates a ReportBuilder. A nil locator leaves every country off
// the map.
func NewBuilder(locator domain.CapitalLocator, logger *slog.Logger) *ReportBuilder {
	return &ReportBuilder{
		locator: locator,
		logger:  logger,
	}
}

func (b *ReportBuilder) Build(ctx context.Context, t domain.Table, spec domain.ChartSpec) (domain.ChartData, error) {
	return domain.BuildChart(ctx, t, spec, b.locator, b.logger.With("chart", spec.ID))
}
