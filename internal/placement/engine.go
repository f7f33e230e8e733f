// Package placement computes instance positions for the classes of one volume.
package placement

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/imagemap"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/rng"
)

const (
	// MaxTries is the number of attempts per instance before it is dropped.
	MaxTries = 8

	falloffTries   = 16
	minProbability = 0.000001
)

// Volume is the oriented box instances are placed in.
type Volume struct {
	Name   string
	Origin geom.Vec3
	Size   geom.Vec3
	Axis   geom.Mat3
	// Spacing is the default spacing of classes without their own.
	Spacing float64
}

// Box returns the oriented box of the volume.
func (v Volume) Box() geom.Box {
	return geom.NewBox(geom.CenteredBounds(v.Size), v.Origin, v.Axis)
}

// Engine places instances. It is stateless between calls.
type Engine struct {
	tracer  host.Tracer
	images  host.Images
	runtime host.Runtime
}

// NewEngine creates an engine. Any collaborator may be nil: without a tracer
// floor and material traces never hit, without images density maps are
// ignored, without a runtime watch classes adopt nothing.
func NewEngine(tracer host.Tracer, images host.Images, runtime host.Runtime) *Engine {
	return &Engine{tracer: tracer, images: images, runtime: runtime}
}

// Request is one placement cycle.
type Request struct {
	Volume     Volume
	Classes    []*model.PlacementClass
	Inhibitors []model.Inhibitor
	// Skins receives the skins of adopted live objects.
	Skins *model.SkinTable
	// NumEntities stops placement once that many instances exist.
	NumEntities int
	Rand        *rng.Streams
	Debug       bool
}

// shape caches the collision volumes of a placed instance.
type shape struct {
	bounds geom.Bounds
	box    geom.Box
}

type cycle struct {
	e      *Engine
	req    Request
	rnd    *rng.Streams
	volBox geom.Box
	toVol  geom.Mat3
	log    *slog.Logger

	out    []model.Instance
	shapes []shape
	maps   map[string]host.DensityMap
}

// Place runs one placement cycle and then adopts watched live objects.
//
// Every class draws its own seed from the seed stream before the class order
// is shuffled, so the positions of one class do not depend on the quality
// bias that decides how many instances the other classes get.
func (e *Engine) Place(req Request) []model.Instance {
	start := time.Now()
	c := &cycle{
		e:      e,
		req:    req,
		rnd:    req.Rand,
		volBox: req.Volume.Box(),
		toVol:  req.Volume.Axis.Transpose(),
		log:    slog.With("seed", req.Volume.Name),
		maps:   make(map[string]host.DensityMap),
	}
	if req.NumEntities > 100 {
		c.out = make([]model.Instance, 0, req.NumEntities)
	}

	n := len(req.Classes)
	order := make([]int, n)
	seeds := make([]int32, n)
	for i := range order {
		order[i] = i
		seeds[i] = c.rnd.RandomSeed()
	}
	c.rnd.SetSeed(c.rnd.RandomSeed())
	for i := 0; i < n; i++ {
		j := int(c.rnd.RandomFloat() * float64(n))
		order[i], order[j] = order[j], order[i]
	}

	for _, ci := range order {
		if len(c.out) >= req.NumEntities {
			break
		}
		class := req.Classes[ci]
		if !class.Real() {
			continue
		}
		c.rnd.SetSeed(seeds[ci])
		c.placeClass(ci, class)
	}
	placed := len(c.out)

	c.out = append(c.out, e.AdoptWatched(req.Volume, req.Classes, req.Skins)...)

	slog.Info("placement done",
		"seed", req.Volume.Name,
		"placed", placed,
		"adopted", len(c.out)-placed,
		"requested", req.NumEntities,
		"elapsed", time.Since(start))
	return c.out
}

func (c *cycle) placeClass(ci int, class *model.PlacementClass) {
	count := class.MaxEntities
	if count <= 0 {
		count = max(0, class.NumEntities)
	}
	if c.req.Debug {
		c.log.Debug("placing class", "class", class.DefName, "index", ci, "count", count, "seed", c.rnd.Seed())
	}

	for j := 0; j < count; j++ {
		var (
			origin geom.Vec3
			angles geom.Angles
			ok     bool
			tries  int
		)
		for tries = 1; tries <= MaxTries && !ok; tries++ {
			origin, angles, ok = c.attempt(ci, class)
		}
		if !ok {
			continue
		}
		if c.req.Debug {
			c.log.Debug("found position", "class", class.DefName, "entity", j, "tries", tries-1)
		}
		c.add(ci, class, origin, angles)
		if len(c.out) >= c.req.NumEntities {
			return
		}
	}
}

// add finishes an accepted candidate: color, skin and scale, in that draw order.
func (c *cycle) add(ci int, class *model.PlacementClass, origin geom.Vec3, angles geom.Angles) {
	var color geom.Vec3
	color.X = class.ColorMin.X + c.rnd.RandomFloat()*(class.ColorMax.X-class.ColorMin.X)
	color.Y = class.ColorMin.Y + c.rnd.RandomFloat()*(class.ColorMax.Y-class.ColorMin.Y)
	color.Z = class.ColorMin.Z + c.rnd.RandomFloat()*(class.ColorMax.Z-class.ColorMin.Z)

	skin := 0
	pick := c.rnd.RandomFloat()
	if len(class.Skins) > 0 {
		skin = class.Skins[min(int(pick*float64(len(class.Skins))), len(class.Skins)-1)]
	}

	scale := class.Scale.Sample(c.rnd.RandomFloat)

	c.out = append(c.out, model.Instance{
		ClassIdx: ci,
		Origin:   origin,
		Angles:   angles,
		Color:    model.PackColor(color),
		Scale:    scale,
		SkinIdx:  skin,
		Flags:    model.FlagHidden,
	})
	box := geom.NewBox(class.Bounds(), origin, angles.ToMat3())
	c.shapes = append(c.shapes, shape{bounds: box.Bounds(), box: box})
}

// attempt runs one try of the placement pipeline.
func (c *cycle) attempt(ci int, class *model.PlacementClass) (geom.Vec3, geom.Angles, bool) {
	vol := c.req.Volume

	local, ok := c.candidate(ci, class)
	if !ok {
		return geom.Vec3{}, geom.Angles{}, false
	}

	prob := 1.0
	if class.Falloff == model.FalloffFunc {
		p, ok := class.Func.Eval(local.X/vol.Size.X+0.5, local.Y/vol.Size.Y+0.5)
		if !ok {
			return geom.Vec3{}, geom.Angles{}, false
		}
		prob = p
	}

	if class.Image != nil {
		prob *= c.imageProbability(class, local)
		if prob < minProbability {
			return geom.Vec3{}, geom.Angles{}, false
		}
	}

	origin := vol.Axis.Apply(local).Add(vol.Origin)

	if len(class.Materials) > 0 {
		prob *= c.materialProbability(class, origin)
	}

	// the same draw decides the height band below
	draw := c.rnd.RandomFloat()
	if draw > prob {
		return geom.Vec3{}, geom.Angles{}, false
	}

	if class.Floor {
		if tr, hit := c.traceFloor(origin, class); hit {
			origin = tr.EndPos
		}
	} else {
		origin.Z = class.Origin.Z
	}

	prob, ok = bandProbability(class.Band, origin.Z, prob)
	if !ok || draw > prob {
		return geom.Vec3{}, geom.Angles{}, false
	}

	if class.SinkMin != 0 || class.SinkMax != 0 {
		origin.Z -= class.SinkMin + c.rnd.RandomFloat()*(class.SinkMax-class.SinkMin)
	}
	origin = origin.Add(class.Offset)

	var angles geom.Angles
	angles.Pitch = class.RotateMin.Pitch + c.rnd.RandomFloat()*(class.RotateMax.Pitch-class.RotateMin.Pitch)
	angles.Yaw = class.RotateMin.Yaw + c.rnd.RandomFloat()*(class.RotateMax.Yaw-class.RotateMin.Yaw)
	angles.Roll = class.RotateMin.Roll + c.rnd.RandomFloat()*(class.RotateMax.Roll-class.RotateMin.Roll)

	if !c.volBox.ContainsPoint(origin) {
		return geom.Vec3{}, geom.Angles{}, false
	}

	box := geom.NewBox(class.Bounds(), origin, angles.ToMat3())
	if !class.NoInhibit && c.inhibited(class, origin, box) {
		return geom.Vec3{}, geom.Angles{}, false
	}

	spacing := vol.Spacing
	if class.Spacing != 0 {
		spacing = class.Spacing
	}
	if (class.NoCollide > model.CollideNone || spacing > 0) && c.collides(box.Expand(spacing)) {
		return geom.Vec3{}, geom.Angles{}, false
	}

	return origin, angles, true
}

// candidate returns a position relative to the volume origin, in volume axes, with z = 0.
func (c *cycle) candidate(ci int, class *model.PlacementClass) (geom.Vec3, bool) {
	size := c.req.Volume.Size

	if len(c.out) > 0 && c.rnd.RandomFloat() < class.Bunching {
		if local, ok := c.bunch(ci, class); ok {
			return local, true
		}
	}

	if class.Falloff.Radial() {
		for k := 0; k < falloffTries; k++ {
			x := 2 * (c.rnd.RandomFloat() - 0.5)
			y := 2 * (c.rnd.RandomFloat() - 0.5)
			d := x*x + y*y
			if d > 1 {
				continue
			}
			if class.Falloff == model.FalloffCutoff || c.rnd.RandomFloat() > class.Falloff.Probability(d, class.FuncFactor) {
				return geom.V(x*size.X/2, y*size.Y/2, 0), true
			}
		}
		return geom.Vec3{}, false
	}

	x := (c.rnd.RandomFloat() - 0.5) * size.X
	y := (c.rnd.RandomFloat() - 0.5) * size.Y
	return geom.V(x, y, 0), true
}

// bunch places next to a random instance of the same class, at two to
// two and a third times the class diagonal plus spacing.
func (c *cycle) bunch(ci int, class *model.PlacementClass) (geom.Vec3, bool) {
	var same []int
	for i := range c.out {
		if c.out[i].ClassIdx == ci {
			same = append(same, i)
		}
	}
	if len(same) == 0 {
		return geom.Vec3{}, false
	}

	dist := math.Sqrt(class.Size.X*class.Size.X+class.Size.Y*class.Size.Y) + 2*class.Spacing
	target := c.out[same[min(int(float64(len(same))*c.rnd.RandomFloat()), len(same)-1)]]
	radius := 2*dist + c.rnd.RandomFloat()*dist/3
	yaw := c.rnd.RandomFloat() * 360

	local := c.toVol.Apply(target.Origin.Sub(c.req.Volume.Origin)).Add(geom.Polar(radius, yaw))
	local.Z = 0
	return local, true
}

func (c *cycle) traceFloor(origin geom.Vec3, class *model.PlacementClass) (host.Trace, bool) {
	if c.e.tracer == nil {
		return host.Trace{}, false
	}
	end := origin
	end.Z = c.req.Volume.Origin.Z - c.req.Volume.Size.Z
	tr := c.e.tracer.TraceBounds(origin, end, class.Bounds(), host.FloorContents)
	return tr, tr.Hit()
}

// imageProbability samples the class density map. The map's x axis runs
// right to left, matching images authored top-left first.
func (c *cycle) imageProbability(class *model.PlacementClass, local geom.Vec3) float64 {
	m := c.densityMap(class.Image.Name)
	if m == nil {
		return 1
	}
	ref := class.Image
	size := c.req.Volume.Size
	x := imagemap.Wrap(ref.ScaleX*(local.X/size.X)+ref.OfsX+0.5, 1)
	y := imagemap.Wrap(ref.ScaleY*(local.Y/size.Y)+ref.OfsY+0.5, 1)

	v := imagemap.Sample(m, 1-x, y)
	if ref.Invert {
		v = 255 - v
	}
	return float64(v) / 256
}

func (c *cycle) densityMap(name string) host.DensityMap {
	if m, ok := c.maps[name]; ok {
		return m
	}
	var m host.DensityMap
	if c.e.images != nil {
		var err error
		m, err = c.e.images.Image(name)
		if err != nil {
			c.log.Warn("density map unavailable, ignoring it", "map", name, "error", err)
			m = nil
		}
	}
	c.maps[name] = m
	return m
}

// materialProbability traces down to the volume bottom and looks up the hit surface.
func (c *cycle) materialProbability(class *model.PlacementClass, origin geom.Vec3) float64 {
	if c.e.tracer == nil {
		return 1
	}
	end := origin
	end.Z = c.req.Volume.Origin.Z - c.req.Volume.Size.Z
	tr := c.e.tracer.TracePoint(origin, end, host.FloorContents)
	if !tr.Hit() {
		return 1
	}
	return surfaceProbability(class, tr.Surface)
}

// surfaceProbability returns the probability of the first material whose
// name starts with the surface description, or the class default.
func surfaceProbability(class *model.PlacementClass, surface string) float64 {
	if surface == "" {
		return class.DefaultProb
	}
	for _, m := range class.Materials {
		if strings.HasPrefix(m.Name, surface) {
			return m.Probability
		}
	}
	return class.DefaultProb
}

// bandProbability applies the height band to z. Fades scale p linearly from
// 0 at the band edge to 1 at the fade distance, on the side where placement is allowed.
func bandProbability(b model.HeightBand, z, p float64) (float64, bool) {
	if !b.Invert {
		if z < b.Min || z > b.Max {
			return 0, false
		}
		if b.FadeIn > 0 && z < b.Min+b.FadeIn {
			p *= (z - b.Min) / b.FadeIn
		}
		if b.FadeOut > 0 && z > b.Max-b.FadeOut {
			p *= (b.Max - z) / b.FadeOut
		}
		return p, true
	}

	if z > b.Min && z < b.Max {
		return 0, false
	}
	if b.FadeIn > 0 && z <= b.Min && z > b.Min-b.FadeIn {
		p *= (b.Min - z) / b.FadeIn
	}
	if b.FadeOut > 0 && z >= b.Max && z < b.Max+b.FadeOut {
		p *= (z - b.Max) / b.FadeOut
	}
	return p, true
}

// inhibited reports whether any inhibitor rejects the candidate. The first
// inhibitor that rejects decides.
func (c *cycle) inhibited(class *model.PlacementClass, origin geom.Vec3, box geom.Box) bool {
	for i := range c.req.Inhibitors {
		in := &c.req.Inhibitors[i]
		if !in.Applies(class.DefName) || !box.IntersectsBox(in.Box) {
			continue
		}
		if in.Falloff == model.FalloffNone {
			return true
		}

		x := 2 * (origin.X - in.Origin.X) / in.Size.X
		y := 2 * (origin.Y - in.Origin.Y) / in.Size.Y
		d := x*x + y*y
		if d >= 1 {
			continue
		}
		p := 0.0
		if in.Falloff != model.FalloffCutoff {
			p = in.Falloff.Probability(d, in.Factor)
		}
		if c.rnd.RandomFloat() > p {
			return true
		}
	}
	return false
}

// collides checks box against every instance placed in this cycle, bounds first.
func (c *cycle) collides(box geom.Box) bool {
	bounds := box.Bounds()
	for i := range c.shapes {
		if c.shapes[i].bounds.Intersects(bounds) && c.shapes[i].box.IntersectsBox(box) {
			return true
		}
	}
	return false
}
