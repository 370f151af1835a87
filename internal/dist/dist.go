// Package dist draws demand and lead-time values from parametric
// distribution families. Every draw consumes uniforms from an explicit
// randx.Stream, so callers own the randomness and replications stay
// reproducible.
package dist

import (
	"math"

	"github.com/stocksim/inventory-core/internal/randx"
)

// Family identifies a distribution family.
type Family int

const (
	// Normal is (mean, stddev). It is also the fallback for unknown family
	// strings, see ParseFamily.
	Normal Family = iota
	// Triangular is (min, mode, max).
	Triangular
	// Uniform is (min, max).
	Uniform
	// Poisson is (lambda).
	Poisson
)

// String returns the YAML/wire name of the family.
func (f Family) String() string {
	switch f {
	case Triangular:
		return "triangular"
	case Uniform:
		return "uniform"
	case Poisson:
		return "poisson"
	default:
		return "normal"
	}
}

// ParseFamily maps a family name to its Family value. Unknown names map to
// Normal with the given (param1, param2) rather than erroring, so scenarios
// with unrecognized families still simulate.
func ParseFamily(name string) Family {
	switch name {
	case "triangular":
		return Triangular
	case "uniform":
		return Uniform
	case "poisson":
		return Poisson
	case "normal":
		return Normal
	default:
		return Normal
	}
}

// Spec is a distribution family with up to three parameters. Parameter
// meaning depends on the family: normal=(mean, stddev),
// triangular=(min, mode, max), uniform=(min, max), poisson=(lambda).
type Spec struct {
	Family Family
	P1     float64
	P2     float64
	P3     float64
}

// NormalSpec is a convenience constructor for the most common family.
func NormalSpec(mean, stddev float64) Spec {
	return Spec{Family: Normal, P1: mean, P2: stddev}
}

// Mean returns the analytic mean of the distribution.
func (s Spec) Mean() float64 {
	switch s.Family {
	case Triangular:
		return (s.P1 + s.P2 + s.P3) / 3
	case Uniform:
		return (s.P1 + s.P2) / 2
	case Poisson:
		return s.P1
	default:
		return s.P1
	}
}

// StdDev returns the analytic standard deviation of the distribution.
func (s Spec) StdDev() float64 {
	switch s.Family {
	case Triangular:
		a, b, c := s.P1, s.P3, s.P2 // min, max, mode
		return math.Sqrt((a*a + b*b + c*c - a*b - a*c - b*c) / 18)
	case Uniform:
		return (s.P2 - s.P1) / math.Sqrt(12)
	case Poisson:
		return math.Sqrt(s.P1)
	default:
		return s.P2
	}
}

// Sample draws one value from the distribution. All samples are clamped to
// be non-negative: demand and lead times below zero have no physical
// meaning in the simulation.
func Sample(spec Spec, rng *randx.Stream) float64 {
	var v float64
	switch spec.Family {
	case Triangular:
		v = sampleTriangular(spec.P1, spec.P2, spec.P3, rng)
	case Uniform:
		v = spec.P1 + rng.Next()*(spec.P2-spec.P1)
	case Poisson:
		v = float64(samplePoisson(spec.P1, rng))
	default:
		v = sampleNormal(spec.P1, spec.P2, rng)
	}
	if v < 0 {
		return 0
	}
	return v
}

// sampleNormal applies the Box-Muller transform (cosine branch) and rounds
// the result to whole units.
func sampleNormal(mean, stddev float64, rng *randx.Stream) float64 {
	u1 := rng.Next()
	u2 := rng.Next()
	if u1 <= 0 { // log(0) guard; the LCG can land on state 0
		u1 = math.SmallestNonzeroFloat64
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return math.Round(mean + stddev*z)
}

// sampleTriangular uses the inverse-CDF method on (min, mode, max).
func sampleTriangular(min, mode, max float64, rng *randx.Stream) float64 {
	u := rng.Next()
	span := max - min
	if span <= 0 {
		return min
	}
	cut := (mode - min) / span
	if u < cut {
		return min + math.Sqrt(u*span*(mode-min))
	}
	return max - math.Sqrt((1-u)*span*(max-mode))
}

// samplePoisson implements Knuth's multiplicative algorithm: multiply
// uniforms until the product drops below e^-lambda.
func samplePoisson(lambda float64, rng *randx.Stream) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for p > limit {
		k++
		p *= rng.Next()
	}
	return k - 1
}
