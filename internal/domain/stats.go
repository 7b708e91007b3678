package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// z95 is the two-sided 95% quantile of the standard normal distribution.
// It is applied to every group size, including small ones where a Student t
// quantile would be wider.
const z95 = 1.96

// Summary holds the reductions of one numeric column over one group.
type Summary struct {
	N       int     `json:"n"` // non-missing values
	Sum     float64 `json:"sum"`
	Mean    float64 `json:"mean"`
	SD      float64 `json:"sd"` // sample standard deviation, 0 when N < 2
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`
	HasCI   bool    `json:"has_ci"`
}

// Summarize reduces values. Callers pass only non-missing values.
func Summarize(values []float64) Summary {
	s := Summary{N: len(values)}
	if s.N == 0 {
		return s
	}
	s.Sum = floats.Sum(values)
	s.Mean = stat.Mean(values, nil)
	if s.N < 2 {
		return s
	}
	s.SD = stat.StdDev(values, nil)
	lo, hi, err := ConfidenceInterval95(s.Mean, s.SD, s.N)
	if err == nil {
		s.CILower, s.CIUpper, s.HasCI = lo, hi, true
	}
	return s
}

// ConfidenceInterval95 returns mean ± 1.96·sd/√n. It returns
// ErrUndefinedInterval when n < 2.
func ConfidenceInterval95(mean, sd float64, n int) (lower, upper float64, err error) {
	if n < 2 {
		return 0, 0, ErrUndefinedInterval
	}
	half := z95 * sd / math.Sqrt(float64(n))
	return mean - half, mean + half, nil
}

// FiveNumber is the box-plot summary of a set of values.
type FiveNumber struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Quartiles returns the five-number summary of values using the empirical
// quantile. values is not modified. ok is false for an empty slice.
func Quartiles(values []float64) (s FiveNumber, ok bool) {
	if len(values) == 0 {
		return FiveNumber{}, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return FiveNumber{
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}, true
}
