package world

import (
	"fmt"

	"github.com/udisondev/seed/internal/config"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// modelHandle implements both host.Geometry and host.Collision.
type modelHandle struct {
	w        *World
	name     string
	bounds   geom.Bounds
	capacity int
	released bool
}

func (h *modelHandle) Name() string        { return h.name }
func (h *modelHandle) Bounds() geom.Bounds { return h.bounds }

func (h *modelHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.w.geomHandles.Add(-1)
}

func (w *World) lookupModel(name string) (config.Model, error) {
	m, ok := w.models[name]
	if !ok {
		return config.Model{}, fmt.Errorf("%s: %w", name, host.ErrGeometryNotFound)
	}
	return m, nil
}

func (w *World) newHandle(name string, size geom.Vec3, capacity int) *modelHandle {
	w.geomHandles.Add(1)
	return &modelHandle{w: w, name: name, bounds: geom.BoundsFromSize(size), capacity: capacity}
}

// Resolve returns the catalogue model with the given name.
func (w *World) Resolve(name string) (host.Geometry, error) {
	m, err := w.lookupModel(name)
	if err != nil {
		return nil, err
	}
	return w.newHandle(name, geom.V(m.Size[0], m.Size[1], m.Size[2]), m.Capacity), nil
}

// Duplicate returns a scaled copy of g.
func (w *World) Duplicate(g host.Geometry, opts host.DuplicateOptions) (host.Geometry, error) {
	name := opts.Name
	if name == "" {
		name = g.Name()
	}
	scale := opts.Scale
	if scale == (geom.Vec3{}) {
		scale = geom.V(1, 1, 1)
	}
	capacity := 0
	if mh, ok := g.(*modelHandle); ok {
		capacity = mh.capacity
	}
	return w.newHandle(name, g.Bounds().Size().Mul(scale), capacity), nil
}

// MaxMergeCount returns the catalogue capacity of the model behind g.
func (w *World) MaxMergeCount(g host.Geometry) int {
	if mh, ok := g.(*modelHandle); ok {
		return mh.capacity
	}
	return w.models[g.Name()].Capacity
}

// LoadCollision returns the collision of a catalogue model, its bounding box.
func (w *World) LoadCollision(name string) (host.Collision, error) {
	m, err := w.lookupModel(name)
	if err != nil {
		return nil, err
	}
	return w.newHandle(name, geom.V(m.Size[0], m.Size[1], m.Size[2]), m.Capacity), nil
}

// OutstandingGeometry returns the number of unreleased geometry and collision handles.
func (w *World) OutstandingGeometry() int {
	return int(w.geomHandles.Load())
}
