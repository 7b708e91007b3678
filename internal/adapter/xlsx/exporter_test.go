package xlsx

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testCharts(t *testing.T) []domain.ChartData {
	t.Helper()
	table := domain.NewTable([]domain.UsageRecord{
		{Country: "A", Source: domain.SourceSolar, Year: 2024, HouseholdSize: 2, UsageKWh: domain.Known(100), SavingsUSD: domain.Known(10)},
		{Country: "A", Source: domain.SourceSolar, Year: 2024, HouseholdSize: 2, UsageKWh: domain.Known(200), SavingsUSD: domain.Known(30)},
		{Country: "B", Source: domain.SourceWind, Year: 2024, HouseholdSize: 3, UsageKWh: domain.Known(50), SavingsUSD: domain.Known(5)},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var charts []domain.ChartData
	for _, spec := range domain.DefaultChartSpecs() {
		c, err := domain.BuildChart(context.Background(), table, spec, nil, logger)
		require.NoError(t, err)
		charts = append(charts, c)
	}
	return charts
}

func TestExporter_Deliver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "usage.xlsx")
	exp := NewExporter(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "xlsx", exp.Name())

	require.NoError(t, exp.Deliver(context.Background(), testCharts(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"savings_by_source",
		"usage_trend",
		"usage_by_household_size",
		"usage_ci_by_household_size",
		"usage_map",
	}, f.GetSheetList())

	rows, err := f.GetRows("savings_by_source")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Energy Source", "Mean Cost Savings (USD)", "N"},
		{"Solar", "20", "2"},
		{"Wind", "5", "1"},
	}, rows)

	rows, err = f.GetRows("usage_ci_by_household_size")
	require.NoError(t, err)
	require.Len(t, rows, 2, "singleton household size is omitted")
	assert.Equal(t, []string{"2", "2", "150"}, rows[1][:3])

	rows, err = f.GetRows("usage_map")
	require.NoError(t, err)
	require.Len(t, rows, 3, "no locator: both countries listed as unresolved")
	assert.Equal(t, []string{"A", "(unresolved)"}, rows[1])
}

func TestExporter_Deliver_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "usage.xlsx")

	err := NewExporter(path, slog.New(slog.NewTextHandler(io.Discard, nil))).Deliver(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "usage_map", sheetName("usage_map"))
	assert.Len(t, sheetName("a_very_long_chart_identifier_that_overflows"), maxSheetName)
	assert.Equal(t, "usage_by_size (kWh)_2024", sheetName(`usage_by_size [kWh]/2024`))
	assert.Equal(t, "a_b_c_d_e", sheetName(`a:b\c?d*e`))
}

func TestExporter_Deliver_SheetNameCollision(t *testing.T) {
	charts := testCharts(t)[:2]
	charts[0].Spec.ID = "a_very_long_chart_identifier_number_one"
	charts[1].Spec.ID = "a_very_long_chart_identifier_number_two"
	path := filepath.Join(t.TempDir(), "usage.xlsx")

	err := NewExporter(path, slog.New(slog.NewTextHandler(io.Discard, nil))).Deliver(context.Background(), charts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same sheet")
	assert.NoFileExists(t, path)
}

func TestTable_BoxUsesQuartiles(t *testing.T) {
	rows := table(domain.ChartData{
		Spec:         domain.ChartSpec{Kind: domain.KindBox},
		Distribution: []domain.UsageDistribution{{HouseholdSize: 4, Values: []float64{40, 10, 30, 20}}},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, []any{4, 4, 10.0, 10.0, 20.0, 30.0, 40.0}, rows[1])
}
