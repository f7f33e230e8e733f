// Package seed implements the seed volume: it owns the classes, inhibitors
// and instances of one placement box, prepares them once, and then spawns
// and culls their live objects as the observer moves.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/udisondev/seed/internal/combine"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/placement"
	"github.com/udisondev/seed/internal/planner"
	"github.com/udisondev/seed/internal/registry"
	"github.com/udisondev/seed/internal/rng"
	"github.com/udisondev/seed/internal/spawn"
	"github.com/udisondev/seed/internal/spawnargs"
)

const (
	// DefaultDistCheckPeriod is the default interval between distance checks.
	DefaultDistCheckPeriod = 50 * time.Millisecond
	// MaxInvisibleChecks is how many distance checks in a row may be skipped
	// because the volume is outside the observer's visible set.
	MaxInvisibleChecks = 20
	// BiasHysteresis is the smallest quality bias change that triggers a rebuild.
	BiasHysteresis = 0.1
)

// ErrMissingHost is returned by New when a required collaborator is nil.
var ErrMissingHost = errors.New("required host collaborator missing")

// Host bundles the collaborators a volume consumes. Tracer, Visibility,
// Quality and Images are optional.
type Host struct {
	Runtime     host.Runtime
	Geometry    host.GeometryStore
	Tracer      host.Tracer
	Visibility  host.Visibility
	Observer    host.Observer
	Quality     host.Quality
	Images      host.Images
	Definitions registry.Definitions
	// Random is the host's non-reproducible generator for cosmetic choices.
	Random func() float64
	// Now returns the wall clock; used to seed volumes without "randseed".
	Now func() time.Time
}

// Config describes one seed volume.
type Config struct {
	Name      string
	Origin    geom.Vec3
	Size      geom.Vec3
	Angles    geom.Angles
	EntityNum int
	Args      spawnargs.Dict

	Classes    []registry.Template
	Watch      []registry.Template
	Inhibitors []registry.InhibitorTemplate
}

// Stats is a snapshot of a volume's counters.
type Stats struct {
	Instances int
	Classes   int
	Existing  int
	Visible   int
	Multis    int
	Target    int
}

// Volume is one seed volume. All methods are safe for concurrent use; Think
// never overlaps with itself or with Save.
type Volume struct {
	mu sync.Mutex

	cfg  Config
	host Host
	args spawnargs.Layers

	reg      *registry.Registry
	rnd      *rng.Streams
	spawner  *spawn.Manager
	placer   *placement.Engine
	combiner *combine.Engine

	instances []model.Instance
	areas     []int

	active         bool
	waitForTrigger bool
	debug          int
	debugColors    bool
	combine        bool
	numEntities    int
	thinkCounter   int
	bias           float64

	distCheckStamp    time.Time
	distCheckInterval time.Duration
	distCheckXYOnly   bool
	phase             time.Duration
	checkOnResume     bool

	prepared       bool
	needsLODRebind bool
	removed        bool
}

// New creates a volume. Nothing is placed until the first Think or an explicit Prepare.
func New(cfg Config, h Host) (*Volume, error) {
	if h.Runtime == nil || h.Geometry == nil || h.Observer == nil || h.Definitions == nil {
		return nil, fmt.Errorf("creating seed %s: %w", cfg.Name, ErrMissingHost)
	}
	if h.Random == nil {
		h.Random = func() float64 { return 0 }
	}
	if h.Now == nil {
		h.Now = time.Now
	}

	args := spawnargs.Layers{cfg.Args}
	v := &Volume{
		cfg:               cfg,
		host:              h,
		args:              args,
		active:            true,
		debug:             args.Int("debug", 0),
		debugColors:       args.Bool("debug_colors", false),
		combine:           args.Bool("combine", true),
		waitForTrigger:    args.Bool("wait_for_trigger", false),
		distCheckInterval: time.Duration(args.Float("dist_check_period", DefaultDistCheckPeriod.Seconds()) * float64(time.Second)),
		distCheckXYOnly:   args.Bool("dist_check_xy", false),
		bias:              quality(h.Quality),
		rnd:               rng.New(rng.DefaultSeed, rng.DefaultSeed2),
		placer:            placement.NewEngine(h.Tracer, h.Images, h.Runtime),
		combiner:          combine.NewEngine(h.Geometry, h.Visibility),
	}
	v.phase = time.Duration(float64(v.distCheckInterval) * (1 + h.Random()))
	v.reg = v.newRegistry()
	v.spawner = spawn.NewManager(cfg.Name, h.Runtime, v.reg.Skins(), v.rnd.RandomFloat)
	v.spawner.SetDebug(v.debug > 0)

	if h.Visibility != nil {
		v.areas = h.Visibility.Areas(v.box().Bounds())
	}

	slog.Info("seed created",
		"seed", cfg.Name,
		"origin", cfg.Origin,
		"size", cfg.Size,
		"angles", cfg.Angles.Vec(),
		"areas", len(v.areas),
		"cull_range", args.Float("cull_range", registry.DefaultCullRange))
	return v, nil
}

func quality(q host.Quality) float64 {
	if q == nil {
		return 1
	}
	return q.LODBias()
}

func (v *Volume) newRegistry() *registry.Registry {
	return registry.New(v.host.Definitions, v.host.Geometry, v.host.Images, registry.Options{
		Name:        v.cfg.Name,
		Args:        v.cfg.Args,
		Combine:     v.combine,
		DebugColors: v.debugColors,
		Random:      v.host.Random,
	})
}

func (v *Volume) box() geom.Box {
	return v.placementVolume().Box()
}

func (v *Volume) placementVolume() placement.Volume {
	return placement.Volume{
		Name:    v.cfg.Name,
		Origin:  v.cfg.Origin,
		Size:    v.cfg.Size,
		Axis:    v.cfg.Angles.ToMat3(),
		Spacing: v.args.Float("spacing", 0),
	}
}

// Name returns the volume name.
func (v *Volume) Name() string { return v.cfg.Name }

// Prepare builds classes and inhibitors, computes counts and places
// instances. It is called by the first Think when not called before.
func (v *Volume) Prepare() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.prepare()
}

func (v *Volume) prepare() error {
	v.reg.Release()
	v.reg = v.newRegistry()
	v.spawner.SetSkins(v.reg.Skins())

	for _, in := range v.cfg.Inhibitors {
		v.reg.AddInhibitor(in)
	}
	for _, tpl := range v.cfg.Watch {
		if err := v.reg.AddWatchClass(tpl); err != nil {
			return fmt.Errorf("preparing seed %s: %w", v.cfg.Name, err)
		}
	}
	for _, tpl := range v.cfg.Classes {
		if err := v.reg.AddClass(tpl); err != nil {
			return fmt.Errorf("preparing seed %s: %w", v.cfg.Name, err)
		}
	}
	if err := v.reg.AddSpawnClasses(v.cfg.Origin); err != nil {
		return fmt.Errorf("preparing seed %s: %w", v.cfg.Name, err)
	}

	if v.reg.Len() > 0 {
		v.computeCounts()
		if v.numEntities <= 0 {
			slog.Warn("entity count is invalid", "seed", v.cfg.Name, "count", v.numEntities)
			v.numEntities = 0
		}
	}
	slog.Info("entity count computed", "seed", v.cfg.Name, "max", v.numEntities)

	if rs := int32(v.args.Int("randseed", 0)); rs != 0 {
		*v.rnd = *rng.New(rng.DefaultSeed, rs)
	} else {
		*v.rnd = *rng.FromTime(v.host.Now().Unix(), v.cfg.EntityNum)
	}
	slog.Debug("random streams seeded", "seed", v.cfg.Name, "seed2", v.rnd.Seed2())

	v.build(nil)

	if v.args.Bool("remove", false) {
		if n := v.syntheticClasses(); n > 0 {
			slog.Info("cannot remove seed, it owns combined classes", "seed", v.cfg.Name, "combined", n)
		} else {
			v.spawnAllAndRemove()
			return nil
		}
	}

	v.prepared = true
	if len(v.instances) == 0 {
		slog.Info("seed has no entities to control, becoming inactive", "seed", v.cfg.Name)
		v.numEntities = -1
	}
	return nil
}

// computeCounts plans the per-class counts for the current quality bias.
func (v *Volume) computeCounts() {
	bias := planner.RemapBias(quality(v.host.Quality))
	in := planner.InputFromArgs(v.args, v.cfg.Size, bias, v.reg.Classes())
	res := planner.ComputeCounts(in)
	res.Apply(v.reg.Classes())
	v.numEntities = res.Total

	slog.Info("counts computed",
		"seed", v.cfg.Name,
		"area", res.Area,
		"bias", bias,
		"total", res.Total)
}

// build places and combines instances from scratch. Watch instances in
// keep replace freshly adopted ones, so live objects culled before a
// rebuild are not lost.
func (v *Volume) build(keep []model.Instance) {
	v.reg.DropSynthetic()

	insts := v.placer.Place(placement.Request{
		Volume:      v.placementVolume(),
		Classes:     v.reg.Classes(),
		Inhibitors:  v.reg.Inhibitors(),
		Skins:       v.reg.Skins(),
		NumEntities: v.numEntities,
		Rand:        v.rnd,
		Debug:       v.debug > 0,
	})
	if len(keep) > 0 {
		insts = append(insts, keep...)
	}

	if v.combine {
		insts, _ = v.combiner.Combine(insts, v.reg, combine.Request{
			Volume:      v.cfg.Name,
			MaxDistance: v.args.Float("combine_distance", combine.DefaultDistance),
			Areas:       v.areas,
			Observer:    v.host.Observer.Origin(),
			Gravity:     v.host.Observer.GravityNormal(),
			Bias:        quality(v.host.Quality),
		})
	}
	v.instances = insts
}

func (v *Volume) syntheticClasses() int {
	n := 0
	for _, c := range v.reg.Classes() {
		if c.Synthetic {
			n++
		}
	}
	return n
}

// spawnAllAndRemove spawns every instance unmanaged and hands them over to
// the runtime for good.
func (v *Volume) spawnAllAndRemove() {
	slog.Info("spawning all entities and then removing seed", "seed", v.cfg.Name, "count", len(v.instances))
	for i := range v.instances {
		inst := &v.instances[i]
		v.spawner.Spawn(inst, v.reg.Class(inst.ClassIdx), false)
	}
	v.reg.Release()
	v.instances = nil
	v.numEntities = -1
	v.active = false
	v.removed = true
}

// Removed reports whether the volume handed its objects over and retired.
func (v *Volume) Removed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.removed
}

// Stats returns a snapshot of the volume counters.
func (v *Volume) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Stats{
		Instances: len(v.instances),
		Classes:   v.reg.Len(),
		Existing:  v.spawner.Existing(),
		Visible:   v.spawner.Visible(),
		Multis:    v.spawner.Multis(),
		Target:    v.numEntities,
	}
}

// Instances returns a copy of the instance list.
func (v *Volume) Instances() []model.Instance {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.Instance, len(v.instances))
	copy(out, v.instances)
	return out
}

// Classes returns the class list. The classes must not be modified.
func (v *Volume) Classes() []*model.PlacementClass {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reg.Classes()
}

func biasChanged(prev, cur float64) bool {
	return math.Abs(cur-prev) > BiasHysteresis
}
