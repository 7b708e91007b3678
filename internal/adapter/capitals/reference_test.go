package capitals

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	ref := Default()
	assert.Greater(t, ref.Len(), 40)
	assert.Empty(t, ref.Duplicates())

	result, err := ref.LocateCapital(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", result.PlaceName)
	assert.InDelta(t, 52.52, result.Lat, 1e-9)
	assert.InDelta(t, 13.405, result.Lon, 1e-9)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestLocateCapital_ExactMatchOnly(t *testing.T) {
	ref := Default()
	for _, name := range []string{"germany", "GERMANY", " Germany", "Deutschland", ""} {
		_, err := ref.LocateCapital(context.Background(), name)
		assert.ErrorIs(t, err, domain.ErrCountryNotFound, "%q", name)
	}
}

func TestLoadFile_FirstEntryWins(t *testing.T) {
	ref, err := LoadFile(filepath.Join("testdata", "dupes.csv"))
	require.NoError(t, err)

	c, ok := ref.Lookup("Germany")
	require.True(t, ok)
	assert.Equal(t, "Berlin", c.Name)

	assert.Equal(t, []string{"Germany", "Atlantis"}, ref.Countries())
	require.Len(t, ref.Duplicates(), 1)
	assert.Equal(t, "Bonn", ref.Duplicates()[0].Name)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "nope.csv"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad header", "name,city,y,x\nGermany,Berlin,52.5,13.4\n"},
		{"bad latitude", "country,capital,lat,lon\nGermany,Berlin,north,13.4\n"},
		{"latitude out of range", "country,capital,lat,lon\nGermany,Berlin,95,13.4\n"},
		{"longitude out of range", "country,capital,lat,lon\nGermany,Berlin,52.5,200\n"},
		{"empty country", "country,capital,lat,lon\n,Berlin,52.5,13.4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReference_CopiesAreIndependent(t *testing.T) {
	ref := Default()
	countries := ref.Countries()
	countries[0] = "Mutated"
	assert.NotEqual(t, "Mutated", ref.Countries()[0])
}
