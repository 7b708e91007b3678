// Package xlsx exports chart aggregates to an Excel workbook, one sheet per chart.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// Exporter writes a workbook to Path. It implements pipeline.Sink.
type Exporter struct {
	path   string
	logger *slog.Logger
}

// NewExporter creates an Exporter for the workbook at path.
func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

func (e *Exporter) Name() string { return "xlsx" }

// Deliver writes every chart to its own sheet and replaces any existing
// workbook at the target path.
func (e *Exporter) Deliver(ctx context.Context, charts []domain.ChartData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	used := make(map[string]string, len(charts))
	for i, chart := range charts {
		name := sheetName(chart.Spec.ID)
		if prev, ok := used[strings.ToLower(name)]; ok {
			return fmt.Errorf("charts %s and %s map to the same sheet %q", prev, chart.Spec.ID, name)
		}
		used[strings.ToLower(name)] = chart.Spec.ID
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, header, table(chart)); err != nil {
			return fmt.Errorf("write sheet %s: %w", name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", e.path, err)
	}
	e.logger.Info("workbook written", "path", e.path, "sheets", len(charts))
	return nil
}

// sheetName replaces characters Excel rejects in sheet names and truncates
// to the allowed length.
func sheetName(id string) string {
	name := sheetReplacer.Replace(id)
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

var sheetReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

func writeSheet(f *excelize.File, sheet string, headerStyle int, rows [][]any) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// table lays out a chart as a header row followed by one row per aggregate.
func table(chart domain.ChartData) [][]any {
	var rows [][]any
	switch chart.Spec.Kind {
	case domain.KindBar:
		rows = append(rows, []any{"Energy Source", "Mean Cost Savings (USD)", "N"})
		for _, r := range chart.Savings {
			rows = append(rows, []any{r.Source.Label(), r.MeanSavings, r.Count})
		}
	case domain.KindLine:
		rows = append(rows, []any{"Year", "Energy Source", "Mean Usage (kWh)", "Total Usage (kWh)", "N"})
		for _, r := range chart.Trend {
			rows = append(rows, []any{r.Year, r.Source.Label(), r.MeanUsage, r.TotalUsage, r.Count})
		}
	case domain.KindBox:
		rows = append(rows, []any{"Household Size", "N", "Min", "Q1", "Median", "Q3", "Max"})
		for _, r := range chart.Distribution {
			q, ok := domain.Quartiles(r.Values)
			if !ok {
				continue
			}
			rows = append(rows, []any{r.HouseholdSize, len(r.Values), q.Min, q.Q1, q.Median, q.Q3, q.Max})
		}
	case domain.KindErrorBar:
		rows = append(rows, []any{"Household Size", "N", "Mean Usage (kWh)", "SD", "CI Lower", "CI Upper"})
		for _, r := range chart.Intervals {
			rows = append(rows, []any{r.HouseholdSize, r.N, r.MeanUsage, r.SD, r.CILower, r.CIUpper})
		}
	case domain.KindBubbleMap:
		rows = append(rows, []any{"Country", "Capital", "Latitude", "Longitude", "Total Usage (kWh)", "N"})
		for _, p := range chart.Points {
			rows = append(rows, []any{p.Country, p.Capital, p.Lat, p.Lon, p.TotalUsage, p.Count})
		}
		for _, u := range chart.Unresolved {
			rows = append(rows, []any{u.Country, "(unresolved)"})
		}
	}
	return rows
}
