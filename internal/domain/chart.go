package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ChartKind selects the aggregate and geometry of a chart.
type ChartKind string

const (
	KindBar       ChartKind = "bar"       // mean savings per source, horizontal, descending
	KindLine      ChartKind = "line"      // mean usage per year, one line per source
	KindBox       ChartKind = "box"       // usage distribution per household size
	KindErrorBar  ChartKind = "errorbar"  // mean usage ± 95% CI per household size
	KindBubbleMap ChartKind = "bubblemap" // total usage per country at its capital
)

// ChartSpec is the explicit configuration of one chart.
type ChartSpec struct {
	ID       string    `yaml:"id" json:"id"`
	Kind     ChartKind `yaml:"kind" json:"kind"`
	Title    string    `yaml:"title" json:"title"`
	XLabel   string    `yaml:"x_label" json:"x_label,omitempty"`
	YLabel   string    `yaml:"y_label" json:"y_label,omitempty"`
	File     string    `yaml:"file" json:"file"` // base name; the renderer adds the extension
	WidthIn  float64   `yaml:"width_in" json:"width_in"`
	HeightIn float64   `yaml:"height_in" json:"height_in"`
	Year     int       `yaml:"year,omitempty" json:"year,omitempty"` // bubblemap only; 0 = latest year in the table
}

// DefaultChartSpecs returns the five charts of the report in render order.
func DefaultChartSpecs() []ChartSpec {
	return []ChartSpec{
		{
			ID:       "savings_by_source",
			Kind:     KindBar,
			Title:    "Average Monthly Cost Savings by Energy Source",
			XLabel:   "Mean cost savings (USD)",
			File:     "01_savings_by_source",
			WidthIn:  8,
			HeightIn: 5,
		},
		{
			ID:       "usage_trend",
			Kind:     KindLine,
			Title:    "Average Monthly Usage by Year and Energy Source",
			XLabel:   "Year",
			YLabel:   "Mean monthly usage (kWh)",
			File:     "02_usage_trend",
			WidthIn:  9,
			HeightIn: 5,
		},
		{
			ID:       "usage_by_household_size",
			Kind:     KindBox,
			Title:    "Monthly Usage by Household Size",
			XLabel:   "Household size",
			YLabel:   "Monthly usage (kWh)",
			File:     "03_usage_by_household_size",
			WidthIn:  9,
			HeightIn: 5,
		},
		{
			ID:       "usage_ci_by_household_size",
			Kind:     KindErrorBar,
			Title:    "Mean Monthly Usage by Household Size (95% CI)",
			XLabel:   "Household size",
			YLabel:   "Mean monthly usage (kWh)",
			File:     "04_usage_ci_by_household_size",
			WidthIn:  8,
			HeightIn: 5,
		},
		{
			ID:       "usage_map",
			Kind:     KindBubbleMap,
			Title:    "Total Usage by Country",
			XLabel:   "Longitude",
			YLabel:   "Latitude",
			File:     "05_usage_map",
			WidthIn:  12,
			HeightIn: 7,
		},
	}
}

// MaxChartIDLen is the longest chart id. Ids double as workbook sheet names,
// which Excel limits to 31 characters.
const MaxChartIDLen = 31

// invalidIDChars are rejected in chart ids because Excel rejects them in
// sheet names.
const invalidIDChars = `:\/?*[]`

// ValidateChartSpecs checks ids, kinds, file names and sizes.
func ValidateChartSpecs(specs []ChartSpec) error {
	if len(specs) == 0 {
		return errors.New("no charts configured")
	}
	ids := make(map[string]bool, len(specs))
	files := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s.ID == "" {
			return fmt.Errorf("chart %d: id is required", i)
		}
		if len(s.ID) > MaxChartIDLen {
			return fmt.Errorf("chart %s: id longer than %d characters", s.ID, MaxChartIDLen)
		}
		if strings.ContainsAny(s.ID, invalidIDChars) {
			return fmt.Errorf("chart %s: id must not contain any of %s", s.ID, invalidIDChars)
		}
		if ids[strings.ToLower(s.ID)] {
			return fmt.Errorf("chart %s: duplicate id", s.ID)
		}
		ids[strings.ToLower(s.ID)] = true
		switch s.Kind {
		case KindBar, KindLine, KindBox, KindErrorBar, KindBubbleMap:
		default:
			return fmt.Errorf("chart %s: unknown kind %q", s.ID, s.Kind)
		}
		if s.File == "" {
			return fmt.Errorf("chart %s: file is required", s.ID)
		}
		if files[s.File] {
			return fmt.Errorf("chart %s: file %q already used", s.ID, s.File)
		}
		files[s.File] = true
		if s.WidthIn <= 0 || s.HeightIn <= 0 {
			return fmt.Errorf("chart %s: width_in and height_in must be positive", s.ID)
		}
	}
	return nil
}

// ChartData is a chart spec together with the aggregate it plots. Exactly one
// of the row slices is populated, selected by Spec.Kind.
type ChartData struct {
	Spec         ChartSpec           `json:"spec"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Savings      []SourceSavings     `json:"savings,omitempty"`
	Trend        []YearSourceUsage   `json:"trend,omitempty"`
	Distribution []UsageDistribution `json:"distribution,omitempty"`
	Intervals    []UsageInterval     `json:"intervals,omitempty"`
	Points       []GeoPoint          `json:"points,omitempty"`
	Year         int                 `json:"year,omitempty"`

	Omitted    []*AggregationError   `json:"-"`
	Unresolved []*GeoResolutionError `json:"-"`
}

// Len returns the number of plotted rows.
func (c ChartData) Len() int {
	switch c.Spec.Kind {
	case KindBar:
		return len(c.Savings)
	case KindLine:
		return len(c.Trend)
	case KindBox:
		return len(c.Distribution)
	case KindErrorBar:
		return len(c.Intervals)
	case KindBubbleMap:
		return len(c.Points)
	}
	return 0
}

// BuildChart computes the aggregate for spec from t. Only the bubble map uses
// the locator. Omitted groups and unresolved countries are recorded on the
// result; they never fail the chart.
func BuildChart(ctx context.Context, t Table, spec ChartSpec, locator CapitalLocator, logger *slog.Logger) (ChartData, error) {
	chart := ChartData{Spec: spec, GeneratedAt: Now()}

	switch spec.Kind {
	case KindBar:
		chart.Savings, chart.Omitted = SavingsBySource(t)
	case KindLine:
		chart.Trend, chart.Omitted = UsageTrend(t)
	case KindBox:
		chart.Distribution, chart.Omitted = UsageDistributionBySize(t)
	case KindErrorBar:
		chart.Intervals, chart.Omitted = UsageConfidence(t)
	case KindBubbleMap:
		year := spec.Year
		if year == 0 {
			year = t.LatestYear()
		}
		chart.Year = year
		var rows []CountryUsage
		rows, chart.Omitted = UsageByCountry(t, year)
		join := JoinCoordinates(ctx, rows, locator, logger)
		chart.Points, chart.Unresolved = join.Points, join.Unresolved
	default:
		return ChartData{}, fmt.Errorf("chart %s: unknown kind %q", spec.ID, spec.Kind)
	}

	for _, o := range chart.Omitted {
		logger.Info("group omitted from chart", "chart", spec.ID, "group", o.Group, "reason", o.Err)
	}
	return chart, nil
}

// OutputEvent is the serialized form of a chart destined for a sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// chartMessage is the wire form of a chart aggregate.
type chartMessage struct {
	ID          string    `json:"id"`
	Kind        ChartKind `json:"kind"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Year        int       `json:"year,omitempty"`
	Rows        any       `json:"rows"`
	Omitted     []string  `json:"omitted,omitempty"`
	Unresolved  []string  `json:"unresolved,omitempty"`
}

// Rows returns the populated row slice for Spec.Kind.
func (c ChartData) Rows() any {
	switch c.Spec.Kind {
	case KindBar:
		return c.Savings
	case KindLine:
		return c.Trend
	case KindBox:
		return c.Distribution
	case KindErrorBar:
		return c.Intervals
	case KindBubbleMap:
		return c.Points
	}
	return nil
}

// SerializeChart marshals a chart aggregate into an OutputEvent keyed by chart id.
func SerializeChart(c ChartData) (OutputEvent, error) {
	msg := chartMessage{
		ID:          c.Spec.ID,
		Kind:        c.Spec.Kind,
		Title:       c.Spec.Title,
		GeneratedAt: c.GeneratedAt,
		Year:        c.Year,
		Rows:        c.Rows(),
	}
	for _, o := range c.Omitted {
		msg.Omitted = append(msg.Omitted, o.Group)
	}
	for _, u := range c.Unresolved {
		msg.Unresolved = append(msg.Unresolved, u.Country)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize chart %s: %w", c.Spec.ID, err)
	}
	return OutputEvent{
		Key:   []byte(c.Spec.ID),
		Value: data,
		Headers: map[string]string{
			"chart_kind":   string(c.Spec.Kind),
			"generated_at": c.GeneratedAt.Format(time.RFC3339),
			"rows":         strconv.Itoa(c.Len()),
		},
	}, nil
}
