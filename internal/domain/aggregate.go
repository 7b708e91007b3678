package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dimension is a column a table can be grouped by.
type Dimension string

const (
	DimCountry       Dimension = "country"
	DimSource        Dimension = "energy_source"
	DimYear          Dimension = "year"
	DimHouseholdSize Dimension = "household_size"
)

// Column is a numeric column a group can be reduced over.
type Column string

const (
	ColumnUsageKWh   Column = "monthly_usage_kwh"
	ColumnSavingsUSD Column = "cost_savings_usd"
)

// Order selects how aggregate rows are sorted. All orders are stable.
type Order int

const (
	OrderFirstSeen Order = iota
	OrderMeanDesc
	OrderSumDesc
	// OrderKeyAsc sorts by the numeric dimensions (year, then household size)
	// and keeps first-seen order for text dimensions.
	OrderKeyAsc
)

// GroupKey identifies a group. Dimensions that are not grouped on stay zero.
type GroupKey struct {
	Country       string       `json:"country,omitempty"`
	Source        EnergySource `json:"energy_source,omitempty"`
	Year          int          `json:"year,omitempty"`
	HouseholdSize int          `json:"household_size,omitempty"`
}

// String renders the non-zero parts of the key, e.g. "2024/solar".
func (k GroupKey) String() string {
	var parts []string
	if k.Country != "" {
		parts = append(parts, k.Country)
	}
	if k.Year != 0 {
		parts = append(parts, strconv.Itoa(k.Year))
	}
	if k.Source != "" {
		parts = append(parts, string(k.Source))
	}
	if k.HouseholdSize != 0 {
		parts = append(parts, "size="+strconv.Itoa(k.HouseholdSize))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "/")
}

// Query describes one group-by reduction.
type Query struct {
	GroupBy []Dimension
	Measure Column
	Year    int // 0 keeps every year
	Order   Order
}

// GroupStats is the reduction of one group.
type GroupStats struct {
	Key    GroupKey  `json:"key"`
	Rows   int       `json:"rows"` // rows in the group, missing values included
	Values []float64 `json:"-"`    // non-missing values in input order
	Summary
}

// Aggregate partitions t by q.GroupBy and reduces q.Measure per group. Groups
// only arise from rows present in t, so no group is empty. The table is read,
// never written.
func Aggregate(t Table, q Query) ([]GroupStats, error) {
	for _, d := range q.GroupBy {
		if !knownDimension(d) {
			return nil, fmt.Errorf("unknown dimension %q", d)
		}
	}
	if q.Measure != ColumnUsageKWh && q.Measure != ColumnSavingsUSD {
		return nil, fmt.Errorf("unknown measure %q", q.Measure)
	}

	index := make(map[GroupKey]int)
	var groups []GroupStats

	for i := 0; i < t.Len(); i++ {
		rec := t.Record(i)
		if q.Year != 0 && rec.Year != q.Year {
			continue
		}
		key := keyFor(rec, q.GroupBy)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, GroupStats{Key: key})
		}
		groups[gi].Rows++
		if m := measureOf(rec, q.Measure); m.Valid {
			groups[gi].Values = append(groups[gi].Values, m.Value)
		}
	}

	for i := range groups {
		groups[i].Summary = Summarize(groups[i].Values)
	}

	sortGroups(groups, q.Order)
	return groups, nil
}

// mustAggregate runs a query built into this package. Such queries only name
// known dimensions and measures, so an error is a programming mistake.
func mustAggregate(t Table, q Query) []GroupStats {
	groups, err := Aggregate(t, q)
	if err != nil {
		panic("domain: " + err.Error())
	}
	return groups
}

func knownDimension(d Dimension) bool {
	switch d {
	case DimCountry, DimSource, DimYear, DimHouseholdSize:
		return true
	}
	return false
}

func keyFor(rec UsageRecord, dims []Dimension) GroupKey {
	var k GroupKey
	for _, d := range dims {
		switch d {
		case DimCountry:
			k.Country = rec.Country
		case DimSource:
			k.Source = rec.Source
		case DimYear:
			k.Year = rec.Year
		case DimHouseholdSize:
			k.HouseholdSize = rec.HouseholdSize
		}
	}
	return k
}

func measureOf(rec UsageRecord, c Column) Measure {
	if c == ColumnSavingsUSD {
		return rec.SavingsUSD
	}
	return rec.UsageKWh
}

func sortGroups(groups []GroupStats, order Order) {
	switch order {
	case OrderMeanDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Mean > groups[j].Mean })
	case OrderSumDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Sum > groups[j].Sum })
	case OrderKeyAsc:
		sort.SliceStable(groups, func(i, j int) bool {
			a, b := groups[i].Key, groups[j].Key
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			return a.HouseholdSize < b.HouseholdSize
		})
	default:
		// first-seen order
	}
}

// --- per-chart aggregates ---

// SourceSavings is the mean monthly cost saving of one energy source.
type SourceSavings struct {
	Source      EnergySource `json:"energy_source"`
	MeanSavings float64      `json:"mean_savings_usd"`
	Count       int          `json:"n"`
}

// YearSourceUsage is the usage of one energy source in one year.
type YearSourceUsage struct {
	Year       int          `json:"year"`
	Source     EnergySource `json:"energy_source"`
	MeanUsage  float64      `json:"mean_usage_kwh"`
	TotalUsage float64      `json:"total_usage_kwh"`
	Count      int          `json:"n"`
}

// UsageDistribution holds every non-missing usage value of one household size.
type UsageDistribution struct {
	HouseholdSize int       `json:"household_size"`
	Values        []float64 `json:"values"`
}

// UsageInterval is the mean usage of one household size with its 95% interval.
type UsageInterval struct {
	HouseholdSize int     `json:"household_size"`
	N             int     `json:"n"`
	MeanUsage     float64 `json:"mean_usage_kwh"`
	SD            float64 `json:"sd"`
	CILower       float64 `json:"ci_lower"`
	CIUpper       float64 `json:"ci_upper"`
}

// CountryUsage is the total usage of one country.
type CountryUsage struct {
	Country    string  `json:"country"`
	TotalUsage float64 `json:"total_usage_kwh"`
	Count      int     `json:"n"`
}

// SavingsBySource returns mean savings per energy source, highest first. Ties
// keep input order.
func SavingsBySource(t Table) ([]SourceSavings, []*AggregationError) {
	groups := mustAggregate(t, Query{GroupBy: []Dimension{DimSource}, Measure: ColumnSavingsUSD, Order: OrderMeanDesc})
	rows := make([]SourceSavings, 0, len(groups))
	var omitted []*AggregationError
	for _, g := range groups {
		if g.N == 0 {
			omitted = append(omitted, &AggregationError{Group: g.Key.String(), Err: ErrNoValues})
			continue
		}
		rows = append(rows, SourceSavings{Source: g.Key.Source, MeanSavings: g.Mean, Count: g.N})
	}
	return rows, omitted
}

// UsageTrend returns mean and total usage per (year, source), by ascending year.
func UsageTrend(t Table) ([]YearSourceUsage, []*AggregationError) {
	groups := mustAggregate(t, Query{GroupBy: []Dimension{DimYear, DimSource}, Measure: ColumnUsageKWh, Order: OrderKeyAsc})
	rows := make([]YearSourceUsage, 0, len(groups))
	var omitted []*AggregationError
	for _, g := range groups {
		if g.N == 0 {
			omitted = append(omitted, &AggregationError{Group: g.Key.String(), Err: ErrNoValues})
			continue
		}
		rows = append(rows, YearSourceUsage{
			Year:       g.Key.Year,
			Source:     g.Key.Source,
			MeanUsage:  g.Mean,
			TotalUsage: g.Sum,
			Count:      g.N,
		})
	}
	return rows, omitted
}

// UsageDistributionBySize returns the usage values per household size, by
// ascending size.
func UsageDistributionBySize(t Table) ([]UsageDistribution, []*AggregationError) {
	groups := mustAggregate(t, Query{GroupBy: []Dimension{DimHouseholdSize}, Measure: ColumnUsageKWh, Order: OrderKeyAsc})
	rows := make([]UsageDistribution, 0, len(groups))
	var omitted []*AggregationError
	for _, g := range groups {
		if g.N == 0 {
			omitted = append(omitted, &AggregationError{Group: g.Key.String(), Err: ErrNoValues})
			continue
		}
		values := make([]float64, len(g.Values))
		copy(values, g.Values)
		rows = append(rows, UsageDistribution{HouseholdSize: g.Key.HouseholdSize, Values: values})
	}
	return rows, omitted
}

// UsageConfidence returns mean usage with its 95% interval per household size,
// by ascending size. Groups with fewer than two values are omitted.
func UsageConfidence(t Table) ([]UsageInterval, []*AggregationError) {
	groups := mustAggregate(t, Query{GroupBy: []Dimension{DimHouseholdSize}, Measure: ColumnUsageKWh, Order: OrderKeyAsc})
	rows := make([]UsageInterval, 0, len(groups))
	var omitted []*AggregationError
	for _, g := range groups {
		if !g.HasCI {
			omitted = append(omitted, &AggregationError{Group: g.Key.String(), Err: ErrUndefinedInterval})
			continue
		}
		rows = append(rows, UsageInterval{
			HouseholdSize: g.Key.HouseholdSize,
			N:             g.N,
			MeanUsage:     g.Mean,
			SD:            g.SD,
			CILower:       g.CILower,
			CIUpper:       g.CIUpper,
		})
	}
	return rows, omitted
}

// UsageByCountry returns total usage per country for year (0 = all years),
// largest first. Ties keep input order.
func UsageByCountry(t Table, year int) ([]CountryUsage, []*AggregationError) {
	groups := mustAggregate(t, Query{GroupBy: []Dimension{DimCountry}, Measure: ColumnUsageKWh, Year: year, Order: OrderSumDesc})
	rows := make([]CountryUsage, 0, len(groups))
	var omitted []*AggregationError
	for _, g := range groups {
		if g.N == 0 {
			omitted = append(omitted, &AggregationError{Group: g.Key.String(), Err: ErrNoValues})
			continue
		}
		rows = append(rows, CountryUsage{Country: g.Key.Country, TotalUsage: g.Sum, Count: g.N})
	}
	return rows, omitted
}
