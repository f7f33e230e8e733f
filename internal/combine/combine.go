// Package combine merges nearby instances of one class into synthetic
// classes that are spawned as a single multi-member object.
package combine

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/registry"
)

const (
	// DefaultDistance is the default maximum distance between a representative and its members.
	DefaultDistance = 1024.0
	// MinDistance is the smallest accepted combine distance.
	MinDistance = 10.0
)

// Registry is the class storage the engine reads from and appends to.
type Registry interface {
	Class(idx int) *model.PlacementClass
	AppendSynthetic(c *model.PlacementClass) int
	AttachComposite(c *model.PlacementClass)
}

// Request configures one combination pass.
type Request struct {
	Volume string
	// MaxDistance is the unsquared combine distance.
	MaxDistance float64
	// Areas are the visibility regions of the whole volume.
	Areas []int
	// Observer and Gravity determine the LOD level recorded per member.
	Observer geom.Vec3
	Gravity  geom.Vec3
	Bias     float64
}

// Stats reports the outcome of a pass.
type Stats struct {
	Before    int
	After     int
	Synthetic int
	Merged    int
}

// Engine runs combination passes.
type Engine struct {
	geometry   host.GeometryStore
	visibility host.Visibility
}

// NewEngine creates an engine. visibility may be nil; all instances then share one region.
func NewEngine(geometry host.GeometryStore, visibility host.Visibility) *Engine {
	return &Engine{geometry: geometry, visibility: visibility}
}

// MaxDistanceSq validates a combine distance and returns its square.
func MaxDistanceSq(volume string, d float64) float64 {
	if d < MinDistance {
		slog.Warn("combine distance below minimum, enforcing it", "seed", volume, "distance", d, "min", MinDistance)
		d = MinDistance
	}
	return d * d
}

type tag uint8

const (
	unvisited tag = iota
	merged
	// deferred instances were candidates but did not fit; later representatives may take them.
	deferred
)

type candidate struct {
	idx    int
	member model.MemberOffset
}

type pass struct {
	e      *Engine
	req    Request
	reg    Registry
	insts  []model.Instance
	tags   []tag
	areas  []int
	maxSq  float64
	models map[int]host.Geometry
	stats  Stats
}

// Combine merges instances greedily in index order and returns the
// compacted list. Merged members are removed; each representative is
// repointed at a new synthetic class holding all member offsets.
//
// Representatives are updated in place in instances.
// A class is skipped when its geometry cannot be resolved or its capacity
// is below two.
func (e *Engine) Combine(instances []model.Instance, reg Registry, req Request) ([]model.Instance, Stats) {
	start := time.Now()
	p := &pass{
		e:      e,
		req:    req,
		reg:    reg,
		insts:  instances,
		tags:   make([]tag, len(instances)),
		maxSq:  MaxDistanceSq(req.Volume, req.MaxDistance),
		models: make(map[int]host.Geometry),
		stats:  Stats{Before: len(instances)},
	}
	defer p.releaseModels()

	if e.visibility != nil && len(req.Areas) > 1 {
		p.instanceAreas()
	}

	for i := 0; i < len(p.insts)-1; i++ {
		if p.tags[i] == merged {
			continue
		}
		p.combineAt(i)
	}

	out := instances
	if p.stats.Merged > 0 {
		out = make([]model.Instance, 0, len(instances)-p.stats.Merged)
		for i, inst := range p.insts {
			if p.tags[i] == merged {
				continue
			}
			out = append(out, inst)
		}
	}
	p.stats.After = len(out)

	slog.Info("combine done",
		"seed", req.Volume,
		"before", p.stats.Before,
		"after", p.stats.After,
		"synthetic", p.stats.Synthetic,
		"elapsed", time.Since(start))
	return out, p.stats
}

// instanceAreas assigns one visibility region per instance, -1 when an
// instance touches more than one region.
func (p *pass) instanceAreas() {
	p.areas = make([]int, len(p.insts))
	for i, inst := range p.insts {
		c := p.reg.Class(inst.ClassIdx)
		b := geom.NewBox(c.Bounds(), inst.Origin, inst.Angles.ToMat3()).Bounds()
		areas := p.e.visibility.Areas(b)
		if len(areas) != 1 {
			p.areas[i] = -1
			continue
		}
		p.areas[i] = areas[0]
	}
}

func (p *pass) sameArea(i, j int) bool {
	if p.areas == nil {
		return true
	}
	return p.areas[i] >= 0 && p.areas[i] == p.areas[j]
}

func (p *pass) combineAt(i int) {
	rep := &p.insts[i]
	class := p.reg.Class(rep.ClassIdx)
	if !class.Combinable() || !p.sameArea(i, i) {
		return
	}

	g := p.model(rep.ClassIdx, class)
	if g == nil {
		return
	}
	capacity := p.e.geometry.MaxMergeCount(g)
	if capacity < 2 {
		return
	}

	cands := []candidate{{idx: i, member: p.member(class, rep, geom.Vec3{})}}
	for j := i + 1; j < len(p.insts); j++ {
		if p.tags[j] == merged {
			continue
		}
		other := &p.insts[j]
		if other.ClassIdx != rep.ClassIdx || other.SkinIdx != rep.SkinIdx || !p.sameArea(i, j) {
			continue
		}
		ofs := other.Origin.Sub(rep.Origin)
		if ofs.LengthSqr() > p.maxSq {
			continue
		}
		cands = append(cands, candidate{idx: j, member: p.member(class, other, ofs)})
	}
	if len(cands) < 2 {
		return
	}

	if len(cands) > capacity {
		slices.SortStableFunc(cands, func(a, b candidate) int {
			return cmp.Compare(a.member.Offset.LengthSqr(), b.member.Offset.LengthSqr())
		})
		for _, c := range cands[capacity:] {
			p.tags[c.idx] = deferred
		}
		cands = cands[:capacity]
	}

	syn := p.synthetic(class, cands)
	for _, c := range cands[1:] {
		p.tags[c.idx] = merged
	}
	p.stats.Merged += len(cands) - 1
	p.stats.Synthetic++

	rep.ClassIdx = p.reg.AppendSynthetic(syn)
	rep.Flags |= model.FlagSynthetic
	rep.Angles = geom.Angles{}

	slog.Debug("instances combined", "seed", p.req.Volume, "class", class.DefName, "members", len(cands), "capacity", capacity)
}

func (p *pass) member(class *model.PlacementClass, inst *model.Instance, ofs geom.Vec3) model.MemberOffset {
	distSq := class.LOD.DistanceSq(inst.Origin.Sub(p.req.Observer), p.req.Gravity, p.req.Bias)
	return model.MemberOffset{
		Offset: ofs,
		Angles: inst.Angles,
		Level:  class.LOD.Evaluate(distSq).Level,
		Color:  inst.Color,
		Scale:  inst.Scale,
	}
}

// synthetic builds the combined class for the given members. Members[0] is the representative.
func (p *pass) synthetic(class *model.PlacementClass, cands []candidate) *model.PlacementClass {
	syn := &model.PlacementClass{
		ClassName:   registry.DummyClass,
		ModelName:   class.ModelName,
		DefName:     class.DefName,
		Synthetic:   true,
		NoCombine:   true,
		CullDistSq:  class.CullDistSq,
		SpawnDistSq: class.SpawnDistSq,
		Size:        class.Size,
		Offset:      class.Offset,
		Solid:       class.Solid,
		Scale:       model.DefaultScale(),
		ColorMin:    class.ColorMin,
		ColorMax:    class.ColorMax,
		Band:        model.DefaultHeightBand(),
		Skins:       slices.Clone(class.Skins),
		ClipModel:   class.ClipModel,
		Members:     make([]model.MemberOffset, len(cands)),
	}
	if class.LOD != nil {
		lod := *class.LOD
		lod.Stages = slices.Clone(class.LOD.Stages)
		syn.LOD = &lod
	}
	for k, c := range cands {
		syn.Members[k] = c.member
	}

	if class.OwnedModel != "" {
		g, err := p.e.geometry.Resolve(class.OwnedModel)
		if err != nil {
			slog.Warn("resolving model for combined class", "seed", p.req.Volume, "class", class.DefName, "model", class.OwnedModel, "error", err)
		} else {
			syn.SetModel(g)
			syn.OwnedModel = class.OwnedModel
		}
	}

	if class.Solid {
		clip := class.ClipModel
		if clip == "" {
			clip = p.lowestModel(class)
		}
		shapes := make([]model.SubShape, len(syn.Members))
		for k, m := range syn.Members {
			shapes[k] = model.SubShape{Model: clip, Offset: m.Offset, Angles: m.Angles, Scale: m.Scale}
		}
		syn.Composite = &model.Composite{Shapes: shapes}
		p.reg.AttachComposite(syn)
	}
	return syn
}

// lowestModel returns the last LOD stage model that resolves, or the class model.
func (p *pass) lowestModel(class *model.PlacementClass) string {
	name := class.ModelName
	if class.LOD == nil {
		return name
	}
	for _, st := range class.LOD.Stages {
		if st.Model == "" {
			continue
		}
		g, err := p.e.geometry.Resolve(st.Model)
		if err != nil {
			slog.Warn("could not load LOD model, skipping it", "seed", p.req.Volume, "class", class.DefName, "model", st.Model, "error", err)
			continue
		}
		g.Release()
		name = st.Model
	}
	return name
}

// model returns the geometry used to ask for merge capacity, cached per class.
func (p *pass) model(idx int, class *model.PlacementClass) host.Geometry {
	if g, ok := p.models[idx]; ok {
		return g
	}
	var g host.Geometry
	if owned := class.Model(); owned != nil {
		g = owned
	} else {
		resolved, err := p.e.geometry.Resolve(class.ModelName)
		if err != nil {
			slog.Warn("could not load model, skipping combine", "seed", p.req.Volume, "class", class.DefName, "model", class.ModelName, "error", err)
		} else {
			g = resolved
		}
	}
	p.models[idx] = g
	return g
}

func (p *pass) releaseModels() {
	for idx, g := range p.models {
		if g == nil {
			continue
		}
		if g != p.reg.Class(idx).Model() {
			g.Release()
		}
	}
}
