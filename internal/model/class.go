package model

import (
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// Collide selects which already placed objects a class must not overlap.
type Collide int

const (
	CollideNone   Collide = 0
	CollideStatic Collide = 1
	CollideAll    Collide = 2
)

// HeightBand restricts placement to a z range, with optional fades at the edges.
type HeightBand struct {
	Min     float64
	Max     float64
	FadeIn  float64
	FadeOut float64
	// Invert places only outside (Min, Max).
	Invert bool
}

// DefaultHeightBand accepts every height.
func DefaultHeightBand() HeightBand {
	return HeightBand{Min: -1e6, Max: 1e6}
}

// MaterialProb is the placement probability on surfaces whose type matches Name.
type MaterialProb struct {
	Name        string
	Probability float64
}

// ImageRef points a class at a density image and its sampling transform.
type ImageRef struct {
	Name   string
	Invert bool
	ScaleX float64
	ScaleY float64
	OfsX   float64
	OfsY   float64
}

// DefaultImageRef samples the whole image once.
func DefaultImageRef(name string) ImageRef {
	return ImageRef{Name: name, ScaleX: 1, ScaleY: 1}
}

// MemberOffset is one member of a combined class, relative to its representative.
type MemberOffset struct {
	Offset geom.Vec3
	Angles geom.Angles
	Level  int
	Color  uint32
	Scale  geom.Vec3
}

// SubShape is one collision piece of a composite collision.
type SubShape struct {
	Model  string
	Offset geom.Vec3
	Angles geom.Angles
	Scale  geom.Vec3
}

// Composite is the collision of a combined class: one sub-shape per member.
type Composite struct {
	Shapes []SubShape

	handles []host.Collision
}

// Attach stores the loaded collision for every shape. The composite takes ownership.
func (c *Composite) Attach(handles []host.Collision) {
	c.release()
	c.handles = handles
}

// Handles returns the attached collision handles (non-owning), one per
// shape in Shapes order; nil marks a shape whose collision failed to load.
func (c *Composite) Handles() []host.Collision {
	return c.handles
}

func (c *Composite) release() {
	for _, h := range c.handles {
		if h != nil {
			h.Release()
		}
	}
	c.handles = nil
}

// PlacementClass is one placement archetype.
type PlacementClass struct {
	// ClassName is the definition spawned for every instance.
	ClassName string
	ModelName string
	// DefName is the definition the class was built from (equals ClassName unless inlined).
	DefName string

	Synthetic bool
	Watch     bool

	MaxEntities int
	NumEntities int
	Score       int

	CullDistSq  float64
	SpawnDistSq float64

	Spacing  float64
	Bunching float64
	SinkMin  float64
	SinkMax  float64
	Scale    Scale

	Origin geom.Vec3
	Offset geom.Vec3
	Size   geom.Vec3

	NoCollide Collide
	NoCombine bool
	Solid     bool
	Floor     bool
	Stack     bool
	NoInhibit bool
	Movable   bool

	Falloff    Falloff
	FuncFactor float64 // exponent of power/root
	Func       FuncFalloff

	AvgSize float64

	ColorMin   geom.Vec3
	ColorMax   geom.Vec3
	RotateMin  geom.Angles
	RotateMax  geom.Angles
	ImpulseMin geom.Vec3
	ImpulseMax geom.Vec3

	Band        HeightBand
	DefaultProb float64
	Materials   []MaterialProb
	Skins       []int

	Image *ImageRef
	LOD   *LOD

	// Members is set only on synthetic classes; the representative is Members[0].
	Members []MemberOffset

	// Persisted names of owned blobs; each has its own presence flag in save streams.
	OwnedModel string
	ClipModel  string
	Composite  *Composite

	model host.Geometry
	clip  host.Collision
}

// Combinable reports whether instances of the class may be merged.
func (c *PlacementClass) Combinable() bool {
	return !c.NoCombine && !c.Synthetic && !c.Watch
}

// Real reports whether the class takes part in count planning and placement.
func (c *PlacementClass) Real() bool {
	return !c.Synthetic && !c.Watch
}

// Model returns the owned geometry handle, if any (non-owning reference).
func (c *PlacementClass) Model() host.Geometry { return c.model }

// Clip returns the owned collision handle, if any (non-owning reference).
func (c *PlacementClass) Clip() host.Collision { return c.clip }

// SetModel transfers ownership of g to the class, releasing the previous handle.
func (c *PlacementClass) SetModel(g host.Geometry) {
	if c.model != nil && c.model != g {
		c.model.Release()
	}
	c.model = g
}

// SetClip transfers ownership of clip to the class, releasing the previous handle.
func (c *PlacementClass) SetClip(clip host.Collision) {
	if c.clip != nil && c.clip != clip {
		c.clip.Release()
	}
	c.clip = clip
}

// Release frees every owned handle. Safe to call more than once.
func (c *PlacementClass) Release() {
	if c.model != nil {
		c.model.Release()
		c.model = nil
	}
	if c.clip != nil {
		c.clip.Release()
		c.clip = nil
	}
	if c.Composite != nil {
		c.Composite.release()
	}
}

// Bounds returns the local placement bounds: centered in XY, bottom at z=0.
func (c *PlacementClass) Bounds() geom.Bounds {
	return geom.BoundsFromSize(c.Size)
}
