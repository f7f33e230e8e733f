package model

import (
	"math"

	"github.com/udisondev/seed/internal/geom"
)

// ScaleKind tags a Scale.
type ScaleKind uint8

const (
	// ScaleUniform scales all axes by one factor drawn from [Min.Z, Max.Z].
	ScaleUniform ScaleKind = iota
	// ScalePerAxis draws each axis independently.
	ScalePerAxis
)

// Scale is the random scaling range of a class.
type Scale struct {
	Kind ScaleKind
	Min  geom.Vec3
	Max  geom.Vec3
}

// UniformScale returns a uniform range. max is clamped to be >= min.
func UniformScale(min, max float64) Scale {
	max = math.Max(min, max)
	return Scale{
		Kind: ScaleUniform,
		Min:  geom.Vec3{X: min, Y: min, Z: min},
		Max:  geom.Vec3{X: max, Y: max, Z: max},
	}
}

// PerAxisScale returns an independent range. max is clamped per axis.
func PerAxisScale(min, max geom.Vec3) Scale {
	return Scale{Kind: ScalePerAxis, Min: min, Max: max.Max(min)}
}

// DefaultScale is the identity scale.
func DefaultScale() Scale {
	return UniformScale(1, 1)
}

// Sample draws a scale vector. Uniform consumes one draw, per-axis three.
func (s Scale) Sample(rnd func() float64) geom.Vec3 {
	if s.Kind == ScaleUniform {
		v := rnd()*(s.Max.Z-s.Min.Z) + s.Min.Z
		return geom.Vec3{X: v, Y: v, Z: v}
	}
	return geom.Vec3{
		X: rnd()*(s.Max.X-s.Min.X) + s.Min.X,
		Y: rnd()*(s.Max.Y-s.Min.Y) + s.Min.Y,
		Z: rnd()*(s.Max.Z-s.Min.Z) + s.Min.Z,
	}
}

// IsIdentity reports whether every sample is exactly 1.
func (s Scale) IsIdentity() bool {
	one := geom.Vec3{X: 1, Y: 1, Z: 1}
	return s.Min == one && s.Max == one
}
