// Package capitals provides the static country to capital-coordinate
// reference used to place countries on the usage map.
package capitals

import (
	"context"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
)

//go:embed capitals.csv
var embedded string

// Capital is one reference entry.
type Capital struct {
	Country string
	Name    string
	Lat     float64
	Lon     float64
}

// Reference is an immutable, exact-match lookup from country to capital.
// It implements domain.CapitalLocator.
type Reference struct {
	byCountry  map[string]Capital
	order      []string
	duplicates []Capital
}

// Default returns the reference compiled into the binary.
func Default() *Reference {
	ref, err := Load(strings.NewReader(embedded))
	if err != nil {
		panic(fmt.Sprintf("capitals: embedded reference is invalid: %v", err))
	}
	return ref
}

// LoadFile reads a reference from a CSV file with the header
// country,capital,lat,lon.
func LoadFile(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capitals %s: %w", path, err)
	}
	defer f.Close()

	ref, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load capitals %s: %w", path, err)
	}
	return ref, nil
}

// Load parses a reference. When a country appears more than once the first
// entry wins; later ones are kept only for Duplicates.
func Load(r io.Reader) (*Reference, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	want := []string{"country", "capital", "lat", "lon"}
	if len(header) < len(want) {
		return nil, fmt.Errorf("header %v: want %v", header, want)
	}
	for i, w := range want {
		if !strings.EqualFold(strings.TrimSpace(header[i]), w) {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, header[i], w)
		}
	}

	ref := &Reference{byCountry: make(map[string]Capital)}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		c, err := parseCapital(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, ok := ref.byCountry[c.Country]; ok {
			ref.duplicates = append(ref.duplicates, c)
			continue
		}
		ref.byCountry[c.Country] = c
		ref.order = append(ref.order, c.Country)
	}
	return ref, nil
}

func parseCapital(row []string) (Capital, error) {
	c := Capital{
		Country: strings.TrimSpace(row[0]),
		Name:    strings.TrimSpace(row[1]),
	}
	if c.Country == "" {
		return Capital{}, errors.New("empty country")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Capital{}, fmt.Errorf("%s: invalid latitude %q", c.Country, row[2])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return Capital{}, fmt.Errorf("%s: invalid longitude %q", c.Country, row[3])
	}
	c.Lat, c.Lon = lat, lon
	return c, nil
}

// Lookup returns the capital of country. Matching is exact and case-sensitive.
func (r *Reference) Lookup(country string) (Capital, bool) {
	c, ok := r.byCountry[country]
	return c, ok
}

// LocateCapital implements domain.CapitalLocator.
func (r *Reference) LocateCapital(_ context.Context, country string) (domain.GeocodingResult, error) {
	c, ok := r.byCountry[country]
	if !ok {
		return domain.GeocodingResult{}, domain.ErrCountryNotFound
	}
	return domain.GeocodingResult{Lat: c.Lat, Lon: c.Lon, PlaceName: c.Name, Confidence: 1}, nil
}

// Len returns the number of distinct countries.
func (r *Reference) Len() int { return len(r.order) }

// Countries returns the distinct countries in file order.
func (r *Reference) Countries() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Duplicates returns the entries shadowed by an earlier row for the same country.
func (r *Reference) Duplicates() []Capital {
	out := make([]Capital, len(r.duplicates))
	copy(out, r.duplicates)
	return out
}
