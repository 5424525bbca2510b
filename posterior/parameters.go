// Package posterior composes the regime-chained log-likelihood and the
// log-prior into the posterior density evaluated per parameter draw.
package posterior

import "math"

// Density is a univariate log-density. The distuv distributions satisfy it.
type Density interface {
	LogProb(x float64) float64
}

// Parameter is one scalar model parameter with its bounds, fixed flag and
// prior. During sampling a non-fixed value outside [Lower, Upper] makes the
// whole draw's likelihood -Inf; it is a rejection signal, not an error.
type Parameter struct {
	Value float64
	Lower float64
	Upper float64
	Fixed bool
	Prior Density
}

// Vector is an immutable-by-convention parameter snapshot. Concurrent
// evaluations must each own their own copy; Clone provides one.
type Vector []Parameter

// Clone returns an independent copy of the snapshot.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Values returns the bare parameter values in order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v))
	for i, p := range v {
		out[i] = p.Value
	}
	return out
}

// InBounds reports whether every non-fixed parameter lies inside its bounds.
func (v Vector) InBounds() bool {
	for _, p := range v {
		if p.Fixed {
			continue
		}
		if p.Value < p.Lower || p.Value > p.Upper {
			return false
		}
	}
	return true
}

// LogPrior sums the log-prior densities over the non-fixed parameters.
// Parameters without a prior contribute nothing.
func (v Vector) LogPrior() float64 {
	var sum float64
	for _, p := range v {
		if p.Fixed || p.Prior == nil {
			continue
		}
		lp := p.Prior.LogProb(p.Value)
		if math.IsInf(lp, -1) {
			return math.Inf(-1)
		}
		sum += lp
	}
	return sum
}
