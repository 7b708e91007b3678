package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrMissingColumn     = errors.New("missing required column")
	ErrMalformedRow      = errors.New("malformed row")
	ErrEmptyDataset      = errors.New("dataset has no rows")
	ErrUndefinedInterval = errors.New("confidence interval undefined for fewer than 2 values")
	ErrNoValues          = errors.New("group has no non-missing values")
	ErrCountryNotFound   = errors.New("country not found in coordinate reference")
	ErrEmptyInput        = errors.New("no rows to render")
)

// FieldError describes why a single cell could not be parsed.
type FieldError struct {
	Column string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("column %s: %s", e.Column, e.Reason)
}

// LoadError reports a failure to read the input table. Load failures abort the run.
type LoadError struct {
	Path   string
	Line   int    // 1-based, 0 when not tied to a row
	Column string // empty when not tied to a column
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load " + e.Path
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += " column " + e.Column
	}
	return msg + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// AggregationError reports a group whose reduction is undefined. The group is
// omitted from the chart; the rest of the chart is still produced.
type AggregationError struct {
	Group string
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate group %s: %v", e.Group, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// GeoResolutionError reports a country that could not be placed on the map.
type GeoResolutionError struct {
	Country string
	Err     error
}

func (e *GeoResolutionError) Error() string {
	return fmt.Sprintf("resolve country %q: %v", e.Country, e.Err)
}

func (e *GeoResolutionError) Unwrap() error { return e.Err }

// RenderError reports a chart that could not be drawn as specified. When Err
// is ErrEmptyInput a placeholder artifact has still been written.
type RenderError struct {
	Chart string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render chart %s: %v", e.Chart, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
