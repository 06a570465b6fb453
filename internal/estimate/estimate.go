// Package estimate implements PERT three-point duration estimates.
package estimate

import (
	"fmt"
	"math"
)

// ThreePoint is an optimistic / most likely / pessimistic duration estimate.
// The ordering optimistic <= mostLikely <= pessimistic is expected but not
// enforced; out-of-order values still produce a defined result.
type ThreePoint struct {
	Optimistic  float64 `json:"optimistic" yaml:"optimistic"`
	MostLikely  float64 `json:"most_likely" yaml:"most_likely"`
	Pessimistic float64 `json:"pessimistic" yaml:"pessimistic"`
}

// Expected returns the PERT expected duration and standard deviation.
func Expected(optimistic, mostLikely, pessimistic float64) (expected, stddev float64) {
	expected = (optimistic + 4*mostLikely + pessimistic) / 6
	stddev = (pessimistic - optimistic) / 6
	return expected, stddev
}

// Expected returns (o + 4m + p) / 6.
func (t ThreePoint) Expected() float64 {
	e, _ := Expected(t.Optimistic, t.MostLikely, t.Pessimistic)
	return e
}

// StdDev returns (p - o) / 6.
func (t ThreePoint) StdDev() float64 {
	_, sd := Expected(t.Optimistic, t.MostLikely, t.Pessimistic)
	return sd
}

// Variance returns StdDev squared.
func (t ThreePoint) Variance() float64 {
	sd := t.StdDev()
	return sd * sd
}

// Validate reports the first field that is negative, NaN or infinite.
// Ordering between the three values is not checked.
func (t ThreePoint) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"optimistic", t.Optimistic},
		{"most_likely", t.MostLikely},
		{"pessimistic", t.Pessimistic},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%s must be a finite non-negative number, got %v", f.name, f.v)
		}
	}
	return nil
}

// Ordered reports whether optimistic <= mostLikely <= pessimistic.
func (t ThreePoint) Ordered() bool {
	return t.Optimistic <= t.MostLikely && t.MostLikely <= t.Pessimistic
}
