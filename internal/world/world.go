// Package world is a headless host for seed volumes: a live-object table
// with a spawn ceiling, a grid of visibility regions, a flat floor with
// material zones and a model catalogue.
package world

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/udisondev/seed/internal/config"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// World implements every host collaborator a seed volume consumes.
type World struct {
	grid    Grid
	limit   int
	handles HandleGenerator

	regions sync.Map // area id → *Region
	objects sync.Map // host.Handle → *Object
	count   atomic.Int32

	floorZ         float64
	defaultSurface string
	materials      []config.MaterialZone

	models      map[string]config.Model
	geomHandles atomic.Int32 // outstanding geometry and collision handles

	observerMu sync.RWMutex
	observer   geom.Vec3
	bias       atomic.Uint64 // math.Float64bits
}

// New creates a world. limit <= 0 disables the spawn ceiling.
func New(cfg config.World, limit int) *World {
	w := &World{
		grid:           NewGrid(cfg.RegionSize),
		limit:          limit,
		floorZ:         cfg.FloorZ,
		defaultSurface: cfg.DefaultSurface,
		materials:      cfg.Materials,
		models:         make(map[string]config.Model, len(cfg.Models)),
	}
	for _, m := range cfg.Models {
		w.models[m.Name] = m
	}
	w.SetLODBias(1)
	return w
}

// Grid returns the region grid.
func (w *World) Grid() Grid { return w.grid }

// region returns the region of an area id, creating it on first use.
func (w *World) region(id int) *Region {
	if r, ok := w.regions.Load(id); ok {
		return r.(*Region)
	}
	r, _ := w.regions.LoadOrStore(id, NewRegion(id))
	return r.(*Region)
}

// Region returns the region of an area id, or nil if nothing was ever in it.
func (w *World) Region(id int) *Region {
	r, ok := w.regions.Load(id)
	if !ok {
		return nil
	}
	return r.(*Region)
}

// Spawn creates a live object. It fails with host.ErrSpawnLimit once the
// ceiling is reached.
func (w *World) Spawn(req host.SpawnRequest) (host.Handle, error) {
	if w.limit > 0 {
		for {
			n := w.count.Load()
			if int(n) >= w.limit {
				return 0, host.ErrSpawnLimit
			}
			if w.count.CompareAndSwap(n, n+1) {
				break
			}
		}
	} else {
		w.count.Add(1)
	}

	obj := &Object{
		Handle: w.handles.Next(),
		Req:    req,
		origin: req.Origin,
		angles: req.Angles,
		area:   w.grid.IDAt(req.Origin),
	}
	w.objects.Store(obj.Handle, obj)
	w.region(obj.area).Add(obj)
	return obj.Handle, nil
}

// Remove deletes a live object. Unknown handles are ignored.
func (w *World) Remove(h host.Handle) {
	value, ok := w.objects.LoadAndDelete(h)
	if !ok {
		return
	}
	obj := value.(*Object)
	_, _, area := obj.transform()
	w.region(area).Remove(h)
	w.count.Add(-1)
}

// Transform returns the current placement of a live object.
func (w *World) Transform(h host.Handle) (geom.Vec3, geom.Angles, bool) {
	obj, ok := w.Object(h)
	if !ok {
		return geom.Vec3{}, geom.Angles{}, false
	}
	origin, angles, _ := obj.transform()
	return origin, angles, true
}

// FindByDef lists live objects spawned from the named definition, in handle order.
func (w *World) FindByDef(defName string) []host.LiveObject {
	var out []host.LiveObject
	last := w.handles.Last()
	for h := host.Handle(1); h <= last; h++ {
		obj, ok := w.Object(h)
		if !ok || obj.Req.DefName != defName {
			continue
		}
		origin, angles, _ := obj.transform()
		out = append(out, host.LiveObject{Handle: h, Origin: origin, Angles: angles, Skin: obj.Req.Skin})
	}
	return out
}

// Object returns a live object by handle.
func (w *World) Object(h host.Handle) (*Object, bool) {
	value, ok := w.objects.Load(h)
	if !ok {
		return nil, false
	}
	return value.(*Object), true
}

// Move places a live object somewhere else, moving it between regions when needed.
func (w *World) Move(h host.Handle, origin geom.Vec3, angles geom.Angles) error {
	obj, ok := w.Object(h)
	if !ok {
		return fmt.Errorf("moving object %d: not found", h)
	}
	area := w.grid.IDAt(origin)

	obj.mu.Lock()
	prev := obj.area
	obj.origin = origin
	obj.angles = angles
	obj.area = area
	obj.mu.Unlock()

	if prev != area {
		w.region(prev).Remove(h)
		w.region(area).Add(obj)
	}
	return nil
}

// ObjectCount returns the number of live objects (O(1)).
func (w *World) ObjectCount() int {
	return int(w.count.Load())
}

// Areas returns the visibility regions b touches.
func (w *World) Areas(b geom.Bounds) []int {
	return w.grid.Cells(b)
}

// InCurrentPVS reports whether any area lies in the 3x3 region window
// around the observer.
func (w *World) InCurrentPVS(areas []int) bool {
	ox, oy := w.grid.Cell(w.Origin().X, w.Origin().Y)
	for _, id := range areas {
		cx, cy := CellFromID(id)
		if abs32(cx-ox) <= 1 && abs32(cy-oy) <= 1 {
			return true
		}
	}
	return false
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Origin returns the observer position.
func (w *World) Origin() geom.Vec3 {
	w.observerMu.RLock()
	defer w.observerMu.RUnlock()
	return w.observer
}

// GravityNormal points down the Z axis.
func (w *World) GravityNormal() geom.Vec3 { return geom.V(0, 0, -1) }

// SetObserver moves the observer.
func (w *World) SetObserver(p geom.Vec3) {
	w.observerMu.Lock()
	defer w.observerMu.Unlock()
	w.observer = p
}

// LODBias returns the quality bias.
func (w *World) LODBias() float64 {
	return math.Float64frombits(w.bias.Load())
}

// SetLODBias changes the quality bias.
func (w *World) SetLODBias(b float64) {
	w.bias.Store(math.Float64bits(b))
	slog.Debug("lod bias set", "bias", b)
}
