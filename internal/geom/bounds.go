package geom

import "math"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// BoundsFromSize returns bounds centered on the XY origin with the bottom at z=0.
func BoundsFromSize(size Vec3) Bounds {
	return Bounds{
		Min: Vec3{-size.X / 2, -size.Y / 2, 0},
		Max: Vec3{size.X / 2, size.Y / 2, size.Z},
	}
}

// CenteredBounds returns bounds of the given full size centered on the origin.
func CenteredBounds(size Vec3) Bounds {
	h := size.Scale(0.5)
	return Bounds{Min: h.Scale(-1), Max: h}
}

func (b Bounds) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }
func (b Bounds) Size() Vec3   { return b.Max.Sub(b.Min) }

// Translate moves the bounds by o.
func (b Bounds) Translate(o Vec3) Bounds {
	return Bounds{Min: b.Min.Add(o), Max: b.Max.Add(o)}
}

// Expand grows the bounds by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	e := Vec3{d, d, d}
	return Bounds{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Intersects reports whether b and o overlap (touching counts).
func (b Bounds) Intersects(o Bounds) bool {
	return b.Max.X >= o.Min.X && b.Min.X <= o.Max.X &&
		b.Max.Y >= o.Min.Y && b.Min.Y <= o.Max.Y &&
		b.Max.Z >= o.Min.Z && b.Min.Z <= o.Max.Z
}

// Contains reports whether p lies inside or on the bounds.
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Box is an oriented bounding box.
type Box struct {
	Center  Vec3
	Extents Vec3 // half sizes along the axes
	Axis    Mat3
}

// NewBox places local bounds at origin with the given rotation.
func NewBox(b Bounds, origin Vec3, axis Mat3) Box {
	return Box{
		Center:  origin.Add(axis.Apply(b.Center())),
		Extents: b.Size().Scale(0.5),
		Axis:    axis,
	}
}

// Expand grows the box by d along every axis.
func (b Box) Expand(d float64) Box {
	b.Extents = b.Extents.Add(Vec3{d, d, d})
	return b
}

// Bounds returns the world-space AABB enclosing the box.
func (b Box) Bounds() Bounds {
	var half Vec3
	half.X = math.Abs(b.Axis[0].X)*b.Extents.X + math.Abs(b.Axis[1].X)*b.Extents.Y + math.Abs(b.Axis[2].X)*b.Extents.Z
	half.Y = math.Abs(b.Axis[0].Y)*b.Extents.X + math.Abs(b.Axis[1].Y)*b.Extents.Y + math.Abs(b.Axis[2].Y)*b.Extents.Z
	half.Z = math.Abs(b.Axis[0].Z)*b.Extents.X + math.Abs(b.Axis[1].Z)*b.Extents.Y + math.Abs(b.Axis[2].Z)*b.Extents.Z
	return Bounds{Min: b.Center.Sub(half), Max: b.Center.Add(half)}
}

// ContainsPoint reports whether p lies inside or on the box.
func (b Box) ContainsPoint(p Vec3) bool {
	d := p.Sub(b.Center)
	const eps = 1e-9
	return math.Abs(d.Dot(b.Axis[0])) <= b.Extents.X+eps &&
		math.Abs(d.Dot(b.Axis[1])) <= b.Extents.Y+eps &&
		math.Abs(d.Dot(b.Axis[2])) <= b.Extents.Z+eps
}

// Local converts a world point into the box frame, relative to the center.
func (b Box) Local(p Vec3) Vec3 {
	d := p.Sub(b.Center)
	return Vec3{d.Dot(b.Axis[0]), d.Dot(b.Axis[1]), d.Dot(b.Axis[2])}
}

// IntersectsBox runs the separating axis test over the 15 candidate axes.
func (b Box) IntersectsBox(o Box) bool {
	const eps = 1e-9

	a := [3]float64{b.Extents.X, b.Extents.Y, b.Extents.Z}
	e := [3]float64{o.Extents.X, o.Extents.Y, o.Extents.Z}

	var r, ar [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = b.Axis[i].Dot(o.Axis[j])
			ar[i][j] = math.Abs(r[i][j]) + eps
		}
	}

	d := o.Center.Sub(b.Center)
	t := [3]float64{d.Dot(b.Axis[0]), d.Dot(b.Axis[1]), d.Dot(b.Axis[2])}

	for i := 0; i < 3; i++ {
		ra := a[i]
		rb := e[0]*ar[i][0] + e[1]*ar[i][1] + e[2]*ar[i][2]
		if math.Abs(t[i]) > ra+rb {
			return false
		}
	}

	for j := 0; j < 3; j++ {
		ra := a[0]*ar[0][j] + a[1]*ar[1][j] + a[2]*ar[2][j]
		rb := e[j]
		if math.Abs(t[0]*r[0][j]+t[1]*r[1][j]+t[2]*r[2][j]) > ra+rb {
			return false
		}
	}

	// cross products A_i x B_j
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3
			ra := a[i1]*ar[i2][j] + a[i2]*ar[i1][j]
			rb := e[j1]*ar[i][j2] + e[j2]*ar[i][j1]
			if math.Abs(t[i2]*r[i1][j]-t[i1]*r[i2][j]) > ra+rb {
				return false
			}
		}
	}

	return true
}
