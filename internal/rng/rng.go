// Package rng implements the two reproducible linear-congruential streams
// used for placement. Nothing here touches math/rand: layouts must replay
// bit-for-bit from a stored seed.
package rng

import "math"

const (
	floatMul = 1664525
	floatAdd = 1013904223

	seedMul  = 1103515245
	seedAdd  = 12345
	seedMask = 0x7FFFFFF

	ieeeOne  = 0x3f800000
	ieeeMask = 0x007fffff
)

// Default stream states for a freshly constructed volume.
const (
	DefaultSeed  = 3
	DefaultSeed2 = 7
)

// Streams holds the float stream, the seed stream and the original seed
// the seed stream was started from.
type Streams struct {
	seed    uint32
	seed2   uint32
	orgSeed uint32
}

// New returns streams starting at the given states. The original seed is seed2.
func New(seed, seed2 int32) *Streams {
	return &Streams{
		seed:    uint32(seed),
		seed2:   uint32(seed2),
		orgSeed: uint32(seed2),
	}
}

// FromTime derives the seed stream from a wall-clock second count and an
// entity number. Used when a volume asks for a non-reproducible layout.
func FromTime(secs int64, entityNum int) *Streams {
	s := uint32(floatMul*uint32(secs+int64(entityNum))+floatAdd) & 0x7FFFFFFF
	return New(DefaultSeed, int32(s))
}

// RandomFloat returns the next value of the float stream in [0, 1).
// The mantissa of the state is combined with the exponent of 1.0 to get
// a float in [1, 2), then 1 is subtracted.
func (s *Streams) RandomFloat() float64 {
	s.seed = floatMul*s.seed + floatAdd
	bits := uint32(ieeeOne) | (s.seed & ieeeMask)
	return float64(math.Float32frombits(bits) - 1.0)
}

// RandomSeed advances the seed stream and returns a positive 27-bit value.
func (s *Streams) RandomSeed() int32 {
	s.seed2 = seedMul*s.seed2 + seedAdd
	return int32(s.seed2 & seedMask)
}

// SetSeed replaces the float stream state.
func (s *Streams) SetSeed(v int32) { s.seed = uint32(v) }

// SetSeed2 replaces the seed stream state without touching the original seed.
func (s *Streams) SetSeed2(v int32) { s.seed2 = uint32(v) }

// SetOrgSeed replaces the stored original seed.
func (s *Streams) SetOrgSeed(v int32) { s.orgSeed = uint32(v) }

// Reset rewinds the seed stream to the original seed.
func (s *Streams) Reset() { s.seed2 = s.orgSeed }

func (s *Streams) Seed() int32    { return int32(s.seed) }
func (s *Streams) Seed2() int32   { return int32(s.seed2) }
func (s *Streams) OrgSeed() int32 { return int32(s.orgSeed) }
