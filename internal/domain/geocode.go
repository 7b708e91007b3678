package domain

import (
	"context"
	"log/slog"
)

// GeoPoint is a country aggregate placed at its capital.
type GeoPoint struct {
	CountryUsage
	Capital string  `json:"capital,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// GeoJoin is the outcome of placing country aggregates on the map.
type GeoJoin struct {
	Points     []GeoPoint            `json:"points"`
	Unresolved []*GeoResolutionError `json:"-"`
}

// UnresolvedCountries lists the countries that were dropped from the map.
func (j GeoJoin) UnresolvedCountries() []string {
	out := make([]string, 0, len(j.Unresolved))
	for _, u := range j.Unresolved {
		out = append(out, u.Country)
	}
	return out
}

// JoinCoordinates attaches capital coordinates to each row. Rows the locator
// cannot place are left out of Points and reported in Unresolved; a locator
// failure never aborts the join. A nil locator resolves nothing.
func JoinCoordinates(ctx context.Context, rows []CountryUsage, locator CapitalLocator, logger *slog.Logger) GeoJoin {
	join := GeoJoin{Points: make([]GeoPoint, 0, len(rows))}

	for _, row := range rows {
		if locator == nil {
			join.Unresolved = append(join.Unresolved, &GeoResolutionError{Country: row.Country, Err: ErrCountryNotFound})
			continue
		}
		result, err := locator.LocateCapital(ctx, row.Country)
		if err != nil {
			logger.Warn("country not placed on map",
				"country", row.Country,
				"total_usage_kwh", row.TotalUsage,
				"error", err,
			)
			join.Unresolved = append(join.Unresolved, &GeoResolutionError{Country: row.Country, Err: err})
			continue
		}
		join.Points = append(join.Points, GeoPoint{
			CountryUsage: row,
			Capital:      result.PlaceName,
			Lat:          result.Lat,
			Lon:          result.Lon,
		})
	}

	return join
}
