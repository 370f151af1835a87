// Package randx provides the deterministic pseudo-random streams used by
// every sampling and optimization component.
//
// The generator is a linear-congruential recurrence:
//
//	state = (state*9301 + 49297) mod 233280
//	next  = state / 233280
//
// The constants are part of the external contract, not an implementation
// detail: two runs with the same seed must produce identical sequences.
package randx

// LCG recurrence constants. Changing any of these breaks reproducibility of
// every previously published result.
const (
	lcgMultiplier int64 = 9301
	lcgIncrement  int64 = 49297
	lcgModulus    int64 = 233280
)

// Stream is a deterministic uniform stream over [0, 1).
// A Stream is not safe for concurrent use; derive one per goroutine.
type Stream struct {
	state int64
}

// NewStream creates a stream seeded with the given value. The seed is reduced
// modulo the LCG modulus, so seeds that differ by a multiple of the modulus
// produce the same stream.
func NewStream(seed int64) *Stream {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	return &Stream{state: s}
}

// Next advances the stream and returns a uniform value in [0, 1).
func (s *Stream) Next() float64 {
	s.state = (s.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(s.state) / float64(lcgModulus)
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("randx: Intn called with non-positive n")
	}
	v := int(s.Next() * float64(n))
	if v >= n { // guards against float rounding at the top of the range
		v = n - 1
	}
	return v
}

// IntBetween returns a uniform integer in [low, high]. If high <= low it
// returns low.
func (s *Stream) IntBetween(low, high int) int {
	if high <= low {
		return low
	}
	return low + s.Intn(high-low+1)
}

// DeriveSeed mixes a base seed and a stream identifier into a new seed using
// a SplitMix64-style finalizer. Substreams derived for different identifiers
// are statistically independent, which keeps parallel replications
// reproducible regardless of execution order.
func DeriveSeed(base int64, stream uint64) int64 {
	x := uint64(base) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// DeriveStream creates an independent stream for the given identifier.
func DeriveStream(base int64, stream uint64) *Stream {
	return NewStream(DeriveSeed(base, stream))
}
