package world

import (
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// TracePoint traces a point against the floor plane.
func (w *World) TracePoint(start, end geom.Vec3, _ host.ContentMask) host.Trace {
	return w.traceFloor(start, end, 0)
}

// TraceBounds traces a box against the floor plane; the box bottom touches it.
func (w *World) TraceBounds(start, end geom.Vec3, b geom.Bounds, _ host.ContentMask) host.Trace {
	return w.traceFloor(start, end, b.Min.Z)
}

func (w *World) traceFloor(start, end geom.Vec3, bottom float64) host.Trace {
	floor := w.floorZ - bottom
	if start.Z < floor || end.Z > floor || start.Z == end.Z {
		return host.Trace{Fraction: 1, EndPos: end}
	}
	frac := (start.Z - floor) / (start.Z - end.Z)
	pos := start.Add(end.Sub(start).Scale(frac))
	pos.Z = floor
	return host.Trace{
		Fraction: frac,
		EndPos:   pos,
		Normal:   geom.V(0, 0, 1),
		Surface:  w.SurfaceAt(pos.X, pos.Y),
	}
}

// SurfaceAt returns the surface type of the floor at (x, y). The first
// matching material zone wins.
func (w *World) SurfaceAt(x, y float64) string {
	for _, z := range w.materials {
		if x >= z.Min[0] && x <= z.Max[0] && y >= z.Min[1] && y <= z.Max[1] {
			return z.Surface
		}
	}
	return w.defaultSurface
}
