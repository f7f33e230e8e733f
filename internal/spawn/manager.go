package spawn

import (
	"errors"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/model"
)

// Manager spawns and culls the live objects of one seed volume.
type Manager struct {
	name    string
	runtime host.Runtime
	skins   *model.SkinTable
	// rand is the volume's reproducible float stream, used for impulses.
	rand  func() float64
	debug bool

	existing atomic.Int32
	visible  atomic.Int32
	multis   atomic.Int32 // live combined objects
}

// NewManager creates a spawn manager for the named volume.
func NewManager(name string, runtime host.Runtime, skins *model.SkinTable, rand func() float64) *Manager {
	return &Manager{
		name:    name,
		runtime: runtime,
		skins:   skins,
		rand:    rand,
	}
}

// SetDebug enables per-object logging.
func (m *Manager) SetDebug(debug bool) { m.debug = debug }

// SetSkins replaces the skin table used to resolve skin indices.
func (m *Manager) SetSkins(skins *model.SkinTable) { m.skins = skins }

// Spawn creates the live object of inst. managed disables the object's own
// distance checks. It returns false when the runtime refused, in which case
// inst stays pending and may be retried on a later tick.
func (m *Manager) Spawn(inst *model.Instance, class *model.PlacementClass, managed bool) bool {
	if inst.Exists() {
		return false
	}

	req := host.SpawnRequest{
		DefName:   class.ClassName,
		Model:     class.ModelName,
		Origin:    inst.Origin,
		Angles:    inst.Angles,
		Skin:      m.skins.Name(inst.SkinIdx),
		Color:     model.UnpackColor(inst.Color),
		Scale:     inst.Scale,
		Managed:   managed,
		Geometry:  class.Model(),
		Collision: class.Clip(),
	}
	if class.Synthetic {
		req.Members = make([]host.Member, len(class.Members))
		for i, mo := range class.Members {
			req.Members[i] = host.Member{
				Offset: mo.Offset,
				Angles: mo.Angles,
				Level:  mo.Level,
				Color:  mo.Color,
				Scale:  mo.Scale,
			}
		}
	}
	if class.Movable && !inst.Flags.Has(model.FlagSpawned) {
		req.Velocity = m.impulse(class)
		req.HasVelocity = true
	}

	h, err := m.runtime.Spawn(req)
	if err != nil {
		if !errors.Is(err, host.ErrSpawnLimit) {
			slog.Warn("spawning instance", "seed", m.name, "class", class.ClassName, "error", err)
		}
		return false
	}

	if m.debug {
		slog.Debug("instance spawned",
			"seed", m.name,
			"class", class.ClassName,
			"skin", req.Skin,
			"model", class.ModelName,
			"managed", managed,
			"handle", h)
	}

	inst.Handle = h
	inst.Flags = model.FlagSpawned | model.FlagExists | inst.Flags&model.FlagSynthetic
	m.existing.Add(1)
	m.visible.Add(1)
	if class.Synthetic {
		m.multis.Add(1)
	}
	return true
}

// impulse draws a velocity from the class range given as
// (strength, inclination, azimuth) with angles in degrees.
func (m *Manager) impulse(class *model.PlacementClass) geom.Vec3 {
	span := class.ImpulseMax.Sub(class.ImpulseMin)
	p := geom.Vec3{
		X: span.X*m.rand() + class.ImpulseMin.X,
		Y: span.Y*m.rand() + class.ImpulseMin.Y,
		Z: span.Z*m.rand() + class.ImpulseMin.Z,
	}
	st, ct := math.Sincos(p.Y * math.Pi / 180)
	sa, ca := math.Sincos(p.Z * math.Pi / 180)
	return geom.Vec3{X: ct * p.X * ca, Y: ct * p.X * sa, Z: p.X * st}
}

// Cull removes the live object of inst after copying its current placement
// back, so objects moved by physics keep their last position.
func (m *Manager) Cull(inst *model.Instance, class *model.PlacementClass) bool {
	if !inst.Exists() {
		return false
	}
	if origin, angles, ok := m.runtime.Transform(inst.Handle); ok {
		inst.Origin = origin
		inst.Angles = angles
	}
	m.runtime.Remove(inst.Handle)

	if m.debug {
		slog.Debug("instance culled", "seed", m.name, "class", class.ClassName, "handle", inst.Handle)
	}

	inst.Flags = inst.Flags&^model.FlagExists | model.FlagHidden
	inst.Handle = 0
	m.existing.Add(-1)
	m.visible.Add(-1)
	if class.Synthetic {
		m.multis.Add(-1)
	}
	return true
}

// ResetCounters zeroes the live counters.
func (m *Manager) ResetCounters() {
	m.existing.Store(0)
	m.visible.Store(0)
	m.multis.Store(0)
}

// Restore installs counters read from a save stream.
func (m *Manager) Restore(existing, visible, multis int) {
	m.existing.Store(int32(existing))
	m.visible.Store(int32(visible))
	m.multis.Store(int32(multis))
}

// Existing returns the number of live objects.
func (m *Manager) Existing() int { return int(m.existing.Load()) }

// Visible returns the number of shown live objects.
func (m *Manager) Visible() int { return int(m.visible.Load()) }

// Multis returns the number of live combined objects.
func (m *Manager) Multis() int { return int(m.multis.Load()) }
