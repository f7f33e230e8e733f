// Package host declares the collaborators the placement core consumes from
// the world it runs in: object spawning, geometry, traces, visibility and
// definition lookup.
package host

import (
	"errors"

	"github.com/udisondev/seed/internal/geom"
)

// ErrSpawnLimit is returned by Runtime.Spawn when the global live-object
// ceiling is reached. Callers retry on a later tick.
var ErrSpawnLimit = errors.New("spawn limit reached")

// ErrGeometryNotFound is returned when a geometry or collision name cannot be resolved.
var ErrGeometryNotFound = errors.New("geometry not found")

// Handle identifies a live object. Zero means "no object".
type Handle int32

// SpawnRequest is everything the runtime needs to create one live object.
type SpawnRequest struct {
	DefName string
	Model   string
	Origin  geom.Vec3
	Angles  geom.Angles
	Skin    string
	Color   geom.Vec3
	Scale   geom.Vec3
	// Managed disables the object's own distance checks; the caller owns them.
	Managed bool
	// Velocity is applied once when HasVelocity is set.
	Velocity    geom.Vec3
	HasVelocity bool
	// Geometry replaces the definition's model when non-nil. Not owned by the runtime.
	Geometry Geometry
	// Collision replaces the definition's collision when non-nil. Not owned by the runtime.
	Collision Collision
	// Members lists the sub-objects of a combined object, relative to Origin.
	Members []Member
}

// Member is one sub-object of a combined live object.
type Member struct {
	Offset geom.Vec3
	Angles geom.Angles
	Level  int
	Color  uint32
	Scale  geom.Vec3
}

// LiveObject is an existing object found in the world.
type LiveObject struct {
	Handle Handle
	Origin geom.Vec3
	Angles geom.Angles
	Skin   string
}

// Runtime creates and removes live objects.
type Runtime interface {
	Spawn(req SpawnRequest) (Handle, error)
	Remove(h Handle)
	// Transform returns the current placement of a live object.
	Transform(h Handle) (origin geom.Vec3, angles geom.Angles, ok bool)
	// FindByDef lists live objects spawned from the named definition.
	FindByDef(defName string) []LiveObject
}

// Geometry is a resolved render model.
type Geometry interface {
	Name() string
	Bounds() geom.Bounds
	Release()
}

// Collision is a resolved collision shape.
type Collision interface {
	Name() string
	Bounds() geom.Bounds
	Release()
}

// DuplicateOptions controls GeometryStore.Duplicate.
type DuplicateOptions struct {
	Name  string
	Scale geom.Vec3
}

// GeometryStore resolves models and collision shapes by name.
type GeometryStore interface {
	Resolve(name string) (Geometry, error)
	Duplicate(g Geometry, opts DuplicateOptions) (Geometry, error)
	// MaxMergeCount returns how many copies of g fit into one combined model.
	MaxMergeCount(g Geometry) int
	LoadCollision(name string) (Collision, error)
}

// ContentMask selects what a trace collides with.
type ContentMask uint32

const (
	ContentSolid ContentMask = 1 << iota
	ContentBody
	ContentCorpse
	ContentOpaque
	ContentMoveableClip
)

// FloorContents is the mask used for floor and material traces.
const FloorContents = ContentSolid | ContentBody | ContentCorpse | ContentOpaque | ContentMoveableClip

// Trace is the result of a trace query. Fraction 1 means nothing was hit.
type Trace struct {
	Fraction float64
	EndPos   geom.Vec3
	Normal   geom.Vec3
	// Surface is the surface-type description of the hit material, e.g. "grass".
	Surface string
}

// Hit reports whether the trace stopped before its end.
func (t Trace) Hit() bool { return t.Fraction < 1 }

// Tracer runs collision traces.
type Tracer interface {
	TracePoint(start, end geom.Vec3, mask ContentMask) Trace
	TraceBounds(start, end geom.Vec3, b geom.Bounds, mask ContentMask) Trace
}

// Visibility answers coarse visibility-region queries.
type Visibility interface {
	// Areas returns the visibility region ids touched by b.
	Areas(b geom.Bounds) []int
	// InCurrentPVS reports whether any of the areas is potentially visible to the observer.
	InCurrentPVS(areas []int) bool
}

// Observer is the point of reference for distance checks.
type Observer interface {
	Origin() geom.Vec3
	// GravityNormal is the unit "down" direction.
	GravityNormal() geom.Vec3
}

// Quality exposes the user quality bias.
type Quality interface {
	LODBias() float64
}

// Images samples density maps by name.
type Images interface {
	Image(name string) (DensityMap, error)
}

// DensityMap is an 8-bit single-channel density image.
type DensityMap interface {
	Width() int
	Height() int
	// At returns the density at pixel (x, y) in [0, 255].
	At(x, y int) uint8
	// Density returns the precomputed average over the whole image in [0, 1].
	Density() float64
}
