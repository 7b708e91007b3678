package domain

import (
	"context"
	"errors"
)

// GeocodingResult is the location a provider returned for a country.
type GeocodingResult struct {
	Lat        float64
	Lon        float64
	PlaceName  string  // capital city, or the provider's feature name
	Confidence float64 // 0.0–1.0 provider confidence score; 1 for the static reference
}

// CapitalLocator maps a country name to the coordinates plotted for it.
type CapitalLocator interface {
	// LocateCapital returns ErrCountryNotFound when the country is unknown.
	// Matching is exact and case-sensitive.
	LocateCapital(ctx context.Context, country string) (GeocodingResult, error)
}

// ChainLocator asks each locator in turn and returns the first hit.
type ChainLocator []CapitalLocator

func (c ChainLocator) LocateCapital(ctx context.Context, country string) (GeocodingResult, error) {
	var errs []error
	for _, l := range c {
		if l == nil {
			continue
		}
		result, err := l.LocateCapital(ctx, country)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrCountryNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return GeocodingResult{}, errors.Join(errs...)
	}
	return GeocodingResult{}, ErrCountryNotFound
}
