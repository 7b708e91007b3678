package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawUsageRow {
	return RawUsageRow{
		Country:       "Germany",
		EnergySource:  "Solar",
		Year:          "2024",
		HouseholdSize: "3",
		Usage:         "412.55",
		Savings:       "61.2",
	}
}

func TestParseUsageRow(t *testing.T) {
	t.Run("valid row", func(t *testing.T) {
		rec, err := ParseUsageRow(validRaw())
		require.NoError(t, err)

		assert.Equal(t, "Germany", rec.Country)
		assert.Equal(t, SourceSolar, rec.Source)
		assert.Equal(t, 2024, rec.Year)
		assert.Equal(t, 3, rec.HouseholdSize)
		assert.Equal(t, Known(412.55), rec.UsageKWh)
		assert.Equal(t, Known(61.2), rec.SavingsUSD)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		raw := validRaw()
		raw.Country = "  Germany "
		raw.EnergySource = " WIND "
		raw.Year = " 2021 "
		rec, err := ParseUsageRow(raw)
		require.NoError(t, err)
		assert.Equal(t, "Germany", rec.Country)
		assert.Equal(t, SourceWind, rec.Source)
		assert.Equal(t, 2021, rec.Year)
	})

	t.Run("float-formatted integers", func(t *testing.T) {
		raw := validRaw()
		raw.Year = "2022.0"
		raw.HouseholdSize = "4.0"
		rec, err := ParseUsageRow(raw)
		require.NoError(t, err)
		assert.Equal(t, 2022, rec.Year)
		assert.Equal(t, 4, rec.HouseholdSize)
	})

	t.Run("missing measures", func(t *testing.T) {
		for _, sentinel := range []string{"", "NA", "n/a", "NaN", "null"} {
			raw := validRaw()
			raw.Usage = sentinel
			raw.Savings = sentinel
			rec, err := ParseUsageRow(raw)
			require.NoError(t, err, sentinel)
			assert.False(t, rec.UsageKWh.Valid, sentinel)
			assert.False(t, rec.SavingsUSD.Valid, sentinel)
		}
	})

	t.Run("negative savings allowed", func(t *testing.T) {
		raw := validRaw()
		raw.Savings = "-4.5"
		rec, err := ParseUsageRow(raw)
		require.NoError(t, err)
		assert.Equal(t, Known(-4.5), rec.SavingsUSD)
	})
}

func TestParseUsageRow_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawUsageRow)
		column string
	}{
		{"empty country", func(r *RawUsageRow) { r.Country = " " }, ColumnCountry},
		{"unknown source", func(r *RawUsageRow) { r.EnergySource = "coal" }, ColumnEnergySource},
		{"empty year", func(r *RawUsageRow) { r.Year = "" }, ColumnYear},
		{"year too early", func(r *RawUsageRow) { r.Year = "2019" }, ColumnYear},
		{"year too late", func(r *RawUsageRow) { r.Year = "2025" }, ColumnYear},
		{"fractional year", func(r *RawUsageRow) { r.Year = "2024.5" }, ColumnYear},
		{"household size zero", func(r *RawUsageRow) { r.HouseholdSize = "0" }, ColumnHouseholdSize},
		{"household size nine", func(r *RawUsageRow) { r.HouseholdSize = "9" }, ColumnHouseholdSize},
		{"usage not numeric", func(r *RawUsageRow) { r.Usage = "lots" }, ColumnUsage},
		{"usage negative", func(r *RawUsageRow) { r.Usage = "-1" }, ColumnUsage},
		{"savings not numeric", func(r *RawUsageRow) { r.Savings = "$12" }, ColumnSavings},
		{"usage infinite", func(r *RawUsageRow) { r.Usage = "Inf" }, ColumnUsage},
		{"usage overflows", func(r *RawUsageRow) { r.Usage = "1e400" }, ColumnUsage},
		{"savings negative infinity", func(r *RawUsageRow) { r.Savings = "-Infinity" }, ColumnSavings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			_, err := ParseUsageRow(raw)
			require.Error(t, err)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.column, fe.Column)
		})
	}
}

func TestParseEnergySource(t *testing.T) {
	for _, s := range EnergySources {
		got, err := ParseEnergySource(s.Label())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseEnergySource("nuclear")
	assert.Error(t, err)
}

func TestEnergySourceLabel(t *testing.T) {
	assert.Equal(t, "Geothermal", SourceGeothermal.Label())
	assert.Equal(t, "", EnergySource("").Label())
}

func TestTable_CopiesInputAndOutput(t *testing.T) {
	records := []UsageRecord{{Country: "A", Year: 2024}, {Country: "B", Year: 2023}}
	table := NewTable(records)

	records[0].Country = "changed"
	assert.Equal(t, "A", table.Record(0).Country, "mutating the input does not reach the table")

	out := table.Records()
	out[1].Country = "changed"
	assert.Equal(t, "B", table.Record(1).Country, "mutating the output does not reach the table")
}

func TestTable_CountriesAndLatestYear(t *testing.T) {
	table := NewTable([]UsageRecord{
		{Country: "B", Year: 2021},
		{Country: "A", Year: 2024},
		{Country: "B", Year: 2022},
	})
	assert.Equal(t, []string{"B", "A"}, table.Countries())
	assert.Equal(t, 2024, table.LatestYear())
	assert.Equal(t, 0, NewTable(nil).LatestYear())
}

func TestLoadError(t *testing.T) {
	err := &LoadError{Path: "usage.csv", Line: 7, Column: ColumnYear, Err: ErrMalformedRow}
	assert.Equal(t, "load usage.csv line 7 column Year: malformed row", err.Error())
	assert.ErrorIs(t, err, ErrMalformedRow)

	missing := &LoadError{Path: "none.csv", Err: ErrFileNotFound}
	assert.Equal(t, "load none.csv: file not found", missing.Error())
}
