// Package registry builds placement classes and inhibitors from templates
// and owns them, together with the skin table, until Release.
package registry

import (
	"errors"
	"log/slog"

	"github.com/udisondev/seed/internal/defs"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/spawnargs"
)

var (
	// ErrUnknownDefinition is returned when a template names a definition that does not exist.
	ErrUnknownDefinition = errors.New("unknown entity definition")
	// ErrInvalidFunction is returned for a func falloff with an unknown clamp mode.
	ErrInvalidFunction = errors.New("invalid falloff function clamp mode")
	// ErrGeometry is returned when geometry required by a class cannot be loaded.
	ErrGeometry = errors.New("required geometry unavailable")
)

// DummyClass is spawned for static classes whose geometry is supplied by the
// registry (inlined or combined) instead of a model file.
const DummyClass = "seed_dummy_static"

// DefaultCullRange is added to hide_distance when computing spawn/cull thresholds.
const DefaultCullRange = 150.0

// Definitions resolves entity definitions by name.
type Definitions interface {
	Lookup(name string) (defs.Definition, bool)
	Names() []string
}

// Template is an object a class is built from.
type Template struct {
	Name    string
	DefName string
	Origin  geom.Vec3
	Args    spawnargs.Dict
	// Inline marks templates that carry their own geometry; ModelName then
	// names that geometry in the store.
	Inline    bool
	ModelName string
}

// Options configure a registry for one volume.
type Options struct {
	// Name of the owning volume, used in logs.
	Name string
	// Args are the volume parameters used as the group default layer.
	Args        spawnargs.Dict
	Combine     bool
	DebugColors bool
	// Random is the host's non-reproducible generator, used for cosmetic choices only.
	Random func() float64
}

// Registry owns classes, inhibitors and skins of one volume.
type Registry struct {
	opts     Options
	defs     Definitions
	geometry host.GeometryStore
	images   host.Images

	classes    []*model.PlacementClass
	inhibitors []model.Inhibitor
	skins      *model.SkinTable
}

// New creates an empty registry. images may be nil when no class uses density maps.
func New(d Definitions, geometry host.GeometryStore, images host.Images, opts Options) *Registry {
	if opts.Random == nil {
		opts.Random = func() float64 { return 0 }
	}
	return &Registry{
		opts:     opts,
		defs:     d,
		geometry: geometry,
		images:   images,
		skins:    model.NewSkinTable(),
	}
}

// AddSkin returns the skin table index of name, appending it if new.
func (r *Registry) AddSkin(name string) int {
	return r.skins.Add(name)
}

// Skins returns the skin table.
func (r *Registry) Skins() *model.SkinTable { return r.skins }

// Classes returns the class list. Indices are stable until DropSynthetic or Replace.
func (r *Registry) Classes() []*model.PlacementClass { return r.classes }

// Class returns the class at idx.
func (r *Registry) Class(idx int) *model.PlacementClass { return r.classes[idx] }

// Inhibitors returns the inhibitor list.
func (r *Registry) Inhibitors() []model.Inhibitor { return r.inhibitors }

// Len returns the number of classes.
func (r *Registry) Len() int { return len(r.classes) }

// AppendSynthetic adds a combined class and returns its index. The registry takes ownership.
func (r *Registry) AppendSynthetic(c *model.PlacementClass) int {
	c.Synthetic = true
	r.classes = append(r.classes, c)
	return len(r.classes) - 1
}

// DropSynthetic releases and removes all synthetic classes. Real classes keep their indices
// because synthetic classes are only ever appended after them.
func (r *Registry) DropSynthetic() {
	kept := r.classes[:0]
	for _, c := range r.classes {
		if c.Synthetic {
			c.Release()
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(r.classes); i++ {
		r.classes[i] = nil
	}
	r.classes = kept
}

// Replace installs state read from a save stream, releasing the current classes.
func (r *Registry) Replace(classes []*model.PlacementClass, inhibitors []model.Inhibitor, skins []string) {
	r.Release()
	r.classes = classes
	r.inhibitors = inhibitors
	r.skins.Replace(skins)
}

// Release frees every owned geometry and collision handle and clears the registry.
func (r *Registry) Release() {
	for _, c := range r.classes {
		c.Release()
	}
	r.classes = nil
	r.inhibitors = nil
}

// Rebind resolves the owned geometry of classes restored from a save stream.
// Failures are logged; the class then spawns with its definition's model.
func (r *Registry) Rebind() {
	for _, c := range r.classes {
		if c.OwnedModel != "" && c.Model() == nil {
			g, err := r.geometry.Resolve(c.OwnedModel)
			if err != nil {
				slog.Warn("rebinding class model", "seed", r.opts.Name, "class", c.ClassName, "model", c.OwnedModel, "error", err)
			} else {
				c.SetModel(g)
			}
		}
		if c.ClipModel != "" && c.Clip() == nil {
			clip, err := r.geometry.LoadCollision(c.ClipModel)
			if err != nil {
				slog.Warn("rebinding class collision", "seed", r.opts.Name, "class", c.ClassName, "clip", c.ClipModel, "error", err)
			} else {
				c.SetClip(clip)
			}
		}
		if c.Composite != nil && len(c.Composite.Handles()) == 0 {
			r.AttachComposite(c)
		}
	}
}

// AttachComposite loads one collision per sub-shape and hands them to the class.
// Handles stay aligned with the shapes: a shape that fails to load gets a nil
// handle and a warning.
func (r *Registry) AttachComposite(c *model.PlacementClass) {
	handles := make([]host.Collision, len(c.Composite.Shapes))
	for i, sh := range c.Composite.Shapes {
		clip, err := r.geometry.LoadCollision(sh.Model)
		if err != nil {
			slog.Warn("loading member collision", "seed", r.opts.Name, "class", c.ClassName, "member", i, "model", sh.Model, "error", err)
			continue
		}
		handles[i] = clip
	}
	c.Composite.Attach(handles)
}
