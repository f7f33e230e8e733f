package model

import "math"

// Falloff selects the probability curve used inside the unit disc of a
// volume or inhibitor.
type Falloff int

const (
	FalloffNone Falloff = iota
	FalloffCutoff
	FalloffPower
	FalloffRoot
	FalloffLinear
	FalloffFunc
)

var falloffNames = [...]string{"none", "cutoff", "power", "root", "linear", "func"}

// FalloffNames returns every accepted falloff name, in enum order.
func FalloffNames() []string {
	return falloffNames[:]
}

func (f Falloff) String() string {
	if f < 0 || int(f) >= len(falloffNames) {
		return "unknown"
	}
	return falloffNames[f]
}

// FalloffByName resolves a falloff name. ok is false for unknown names.
func FalloffByName(name string) (Falloff, bool) {
	for i, n := range falloffNames {
		if n == name {
			return Falloff(i), true
		}
	}
	return FalloffNone, false
}

// Radial reports whether the falloff samples inside the unit disc.
func (f Falloff) Radial() bool {
	return f >= FalloffCutoff && f <= FalloffLinear
}

// Elliptic reports whether the effective area is the inscribed ellipse.
func (f Falloff) Elliptic() bool {
	return f >= FalloffCutoff && f <= FalloffRoot
}

// Probability returns the rejection threshold for a squared radius d in [0, 1].
// A candidate is kept when a uniform draw exceeds the returned value.
func (f Falloff) Probability(d, factor float64) float64 {
	switch f {
	case FalloffLinear:
		return d
	case FalloffPower:
		return math.Pow(d, factor)
	case FalloffRoot:
		return math.Pow(d, 1/factor)
	}
	return 0
}

// Func axis term: X or X*X.
const (
	FuncLinear  = 1
	FuncSquared = 2
)

// FuncFalloff is the bilinear "func" falloff:
// p = S * (X * x' + Y * y' + A), where x' and y' are the normalized
// coordinates, optionally squared.
type FuncFalloff struct {
	A    float64
	S    float64
	XPow int
	YPow int
	X    float64
	Y    float64
	Min  float64
	Max  float64
	// Clamp clamps p into [Min, Max]; otherwise p outside the band rejects the candidate.
	Clamp bool
}

// DefaultFuncFalloff returns the parameters used when nothing is configured.
func DefaultFuncFalloff() FuncFalloff {
	return FuncFalloff{
		S:    0.5,
		XPow: FuncLinear,
		YPow: FuncLinear,
		X:    1,
		Y:    1,
		Min:  0,
		Max:  1,
	}
}

// Eval computes the probability at normalized coordinates nx, ny in [0, 1].
// ok is false when the value falls outside the band in zero-clamp mode.
func (f FuncFalloff) Eval(nx, ny float64) (p float64, ok bool) {
	if f.XPow == FuncSquared {
		nx *= nx
	}
	if f.YPow == FuncSquared {
		ny *= ny
	}
	p = f.S * (nx*f.X + ny*f.Y + f.A)

	if p < f.Min || p > f.Max {
		if !f.Clamp {
			return 0, false
		}
		p = math.Min(math.Max(p, f.Min), f.Max)
	}
	return p, true
}
