package geom

import (
	"fmt"
	"math"
)

// Vec3 is a point or direction in world space.
// Value type, passed by value.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// V builds a Vec3.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// LengthSqr возвращает квадрат длины (без sqrt).
func (v Vec3) LengthSqr() float64 { return v.Dot(v) }

func (v Vec3) Length() float64 { return math.Sqrt(v.LengthSqr()) }

// Normalize returns the unit vector, or the zero vector for a zero input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// At returns the i-th component (0=X, 1=Y, 2=Z).
func (v Vec3) At(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{math.Max(v.X, o.X), math.Max(v.Y, o.Y), math.Max(v.Z, o.Z)}
}

// Clamp clamps every component into [lo, hi].
func (v Vec3) Clamp(lo, hi Vec3) Vec3 {
	return Vec3{
		math.Min(math.Max(v.X, lo.X), hi.X),
		math.Min(math.Max(v.Y, lo.Y), hi.Y),
		math.Min(math.Max(v.Z, lo.Z), hi.Z),
	}
}

// ProjectOnPlane removes the component along normal n (n must be unit length).
func (v Vec3) ProjectOnPlane(n Vec3) Vec3 {
	return v.Sub(n.Scale(v.Dot(n)))
}

func (v Vec3) String() string {
	return fmt.Sprintf("%g %g %g", v.X, v.Y, v.Z)
}

// Angles are Euler angles in degrees.
type Angles struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// Vec returns the angles as a (pitch, yaw, roll) vector.
func (a Angles) Vec() Vec3 { return Vec3{a.Pitch, a.Yaw, a.Roll} }

// AnglesFromVec is the inverse of Angles.Vec.
func AnglesFromVec(v Vec3) Angles { return Angles{Pitch: v.X, Yaw: v.Y, Roll: v.Z} }

// IsZero reports whether all angles are zero.
func (a Angles) IsZero() bool { return a == Angles{} }

// ToMat3 converts to a rotation matrix whose rows are the forward, left and up axes.
func (a Angles) ToMat3() Mat3 {
	sp, cp := math.Sincos(a.Pitch * math.Pi / 180)
	sy, cy := math.Sincos(a.Yaw * math.Pi / 180)
	sr, cr := math.Sincos(a.Roll * math.Pi / 180)

	return Mat3{
		{cp * cy, cp * sy, -sp},
		{sr*sp*cy + cr*-sy, sr*sp*sy + cr*cy, sr * cp},
		{cr*sp*cy + -sr*-sy, cr*sp*sy + -sr*cy, cr * cp},
	}
}

// Mat3 is a row-major rotation matrix.
type Mat3 [3]Vec3

// Identity returns the identity rotation.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply rotates v into the matrix frame (v * M).
func (m Mat3) Apply(v Vec3) Vec3 {
	return m[0].Scale(v.X).Add(m[1].Scale(v.Y)).Add(m[2].Scale(v.Z))
}

// Transpose returns the inverse rotation.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		{m[0].X, m[1].X, m[2].X},
		{m[0].Y, m[1].Y, m[2].Y},
		{m[0].Z, m[1].Z, m[2].Z},
	}
}

// Polar returns the horizontal offset of length r at yaw degrees.
func Polar(r, yaw float64) Vec3 {
	s, c := math.Sincos(yaw * math.Pi / 180)
	return Vec3{c * r, s * r, 0}
}

// PolarDir returns a unit direction from pitch and yaw in degrees.
func PolarDir(pitch, yaw float64) Vec3 {
	sp, cp := math.Sincos(pitch * math.Pi / 180)
	sy, cy := math.Sincos(yaw * math.Pi / 180)
	return Vec3{cp * cy, cp * sy, -sp}
}
