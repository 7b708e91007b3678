package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EnergySource is the renewable source powering a household.
type EnergySource string

const (
	SourceSolar      EnergySource = "solar"
	SourceWind       EnergySource = "wind"
	SourceHydro      EnergySource = "hydro"
	SourceBiomass    EnergySource = "biomass"
	SourceGeothermal EnergySource = "geothermal"
)

// EnergySources lists every known source in canonical order.
var EnergySources = []EnergySource{SourceSolar, SourceWind, SourceHydro, SourceBiomass, SourceGeothermal}

// Label returns the display form, e.g. "Geothermal".
func (s EnergySource) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseEnergySource normalizes a raw source cell. Matching is case-insensitive.
func ParseEnergySource(raw string) (EnergySource, error) {
	v := EnergySource(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range EnergySources {
		if v == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown energy source %q", raw)
}

const (
	MinYear          = 2020
	MaxYear          = 2024
	MinHouseholdSize = 1
	MaxHouseholdSize = 8
)

// Measure is a numeric cell that may be missing.
type Measure struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Known returns a present measure.
func Known(v float64) Measure { return Measure{Value: v, Valid: true} }

// UsageRecord is one household-month of the dataset.
type UsageRecord struct {
	Country       string       `json:"country"`
	Source        EnergySource `json:"energy_source"`
	Year          int          `json:"year"`
	HouseholdSize int          `json:"household_size"`
	UsageKWh      Measure      `json:"monthly_usage_kwh"`
	SavingsUSD    Measure      `json:"cost_savings_usd"`
}

// Column names of the input table.
const (
	ColumnCountry       = "Country"
	ColumnEnergySource  = "Energy_Source"
	ColumnYear          = "Year"
	ColumnHouseholdSize = "Household_Size"
	ColumnUsage         = "Monthly_Usage_kWh"
	ColumnSavings       = "Cost_Savings_USD"
)

// RequiredColumns lists the columns every input table must carry.
var RequiredColumns = []string{
	ColumnCountry,
	ColumnEnergySource,
	ColumnYear,
	ColumnHouseholdSize,
	ColumnUsage,
	ColumnSavings,
}

// RawUsageRow holds the untyped cells of one input row keyed by column.
type RawUsageRow struct {
	Country       string
	EnergySource  string
	Year          string
	HouseholdSize string
	Usage         string
	Savings       string
}

// ParseUsageRow converts raw cells into a typed record. The returned error
// names the offending column via *FieldError.
func ParseUsageRow(raw RawUsageRow) (UsageRecord, error) {
	country := strings.TrimSpace(raw.Country)
	if country == "" {
		return UsageRecord{}, &FieldError{Column: ColumnCountry, Reason: "empty"}
	}

	source, err := ParseEnergySource(raw.EnergySource)
	if err != nil {
		return UsageRecord{}, &FieldError{Column: ColumnEnergySource, Reason: err.Error()}
	}

	year, err := parseBoundedInt(raw.Year, MinYear, MaxYear)
	if err != nil {
		return UsageRecord{}, &FieldError{Column: ColumnYear, Reason: err.Error()}
	}

	size, err := parseBoundedInt(raw.HouseholdSize, MinHouseholdSize, MaxHouseholdSize)
	if err != nil {
		return UsageRecord{}, &FieldError{Column: ColumnHouseholdSize, Reason: err.Error()}
	}

	usage, err := parseMeasure(raw.Usage)
	if err != nil {
		return UsageRecord{}, &FieldError{Column: ColumnUsage, Reason: err.Error()}
	}
	if usage.Valid && usage.Value < 0 {
		return UsageRecord{}, &FieldError{Column: ColumnUsage, Reason: fmt.Sprintf("negative usage %g", usage.Value)}
	}

	savings, err := parseMeasure(raw.Savings)
	if err != nil {
		return UsageRecord{}, &FieldError{Column: ColumnSavings, Reason: err.Error()}
	}

	return UsageRecord{
		Country:       country,
		Source:        source,
		Year:          year,
		HouseholdSize: size,
		UsageKWh:      usage,
		SavingsUSD:    savings,
	}, nil
}

func parseBoundedInt(s string, lo, hi int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Some exports write integers as "2024.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("not an integer: %q", s)
		}
		v = int(f)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%d outside %d-%d", v, lo, hi)
	}
	return v, nil
}

// missingSentinels are the cell values treated as a missing measure.
var missingSentinels = map[string]bool{"": true, "na": true, "n/a": true, "nan": true, "null": true}

func parseMeasure(s string) (Measure, error) {
	s = strings.TrimSpace(s)
	if missingSentinels[strings.ToLower(s)] {
		return Measure{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Measure{}, fmt.Errorf("not a number: %q", s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Measure{}, fmt.Errorf("not a finite number: %q", s)
	}
	return Known(v), nil
}

// Table is the read-only, in-memory form of the dataset. It copies its input
// and hands out copies, so no caller can mutate the records it holds.
type Table struct {
	records []UsageRecord
}

// NewTable builds a Table from a copy of records.
func NewTable(records []UsageRecord) Table {
	cp := make([]UsageRecord, len(records))
	copy(cp, records)
	return Table{records: cp}
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.records) }

// Record returns the i-th record by value.
func (t Table) Record(i int) UsageRecord { return t.records[i] }

// Records returns a copy of all records.
func (t Table) Records() []UsageRecord {
	cp := make([]UsageRecord, len(t.records))
	copy(cp, t.records)
	return cp
}

// Countries returns the distinct countries in first-seen order.
func (t Table) Countries() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.records {
		if !seen[r.Country] {
			seen[r.Country] = true
			out = append(out, r.Country)
		}
	}
	return out
}

// LatestYear returns the most recent year present, or 0 for an empty table.
func (t Table) LatestYear() int {
	latest := 0
	for _, r := range t.records {
		if r.Year > latest {
			latest = r.Year
		}
	}
	return latest
}
