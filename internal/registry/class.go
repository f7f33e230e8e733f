package registry

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/udisondev/seed/internal/defs"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/imagemap"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/spawnargs"
)

const (
	lodLevels   = 6
	minSize     = 1.0
	minDensity  = 1e-6
	minImageAvg = 0.001
)

// params reads a class parameter from the template, then a differently
// named parameter from the volume, then a default.
type params struct {
	class  spawnargs.Layers
	volume spawnargs.Layers
}

func (p params) str(classKey, volumeKey, def string) string {
	if v, ok := p.class.Get(classKey); ok {
		return v
	}
	if volumeKey != "" {
		if v, ok := p.volume.Get(volumeKey); ok {
			return v
		}
	}
	return def
}

func (p params) float(classKey, volumeKey string, def float64) float64 {
	return spawnargs.ParseFloat(p.str(classKey, volumeKey, ""), def)
}

func (p params) bool(classKey, volumeKey string, def bool) bool {
	v := p.str(classKey, volumeKey, "")
	if v == "" {
		return def
	}
	return spawnargs.Layers{{"v": v}}.Bool("v", def)
}

func (p params) vec(classKey, volumeKey, def string) geom.Vec3 {
	return spawnargs.ParseVector(p.str(classKey, volumeKey, def))
}

// AddClass builds a placement class from tpl and appends it.
func (r *Registry) AddClass(tpl Template) error {
	c, err := r.buildClass(tpl, false)
	if err != nil {
		return err
	}
	r.classes = append(r.classes, c)
	slog.Debug("class added", "seed", r.opts.Name, "class", c.ClassName, "avg_size", c.AvgSize)
	return nil
}

// AddWatchClass registers a class whose existing live objects are adopted
// instead of placed.
func (r *Registry) AddWatchClass(tpl Template) error {
	c, err := r.buildClass(tpl, true)
	if err != nil {
		return err
	}
	r.classes = append(r.classes, c)
	return nil
}

func (r *Registry) buildClass(tpl Template, watch bool) (*model.PlacementClass, error) {
	def, ok := r.defs.Lookup(tpl.DefName)
	if !ok {
		return nil, fmt.Errorf("adding class from %q: %w: %s %s",
			tpl.Name, ErrUnknownDefinition, tpl.DefName, spawnargs.Hint(tpl.DefName, r.defs.Names()))
	}

	args := spawnargs.Layers{tpl.Args, def.Args}
	p := params{class: args, volume: spawnargs.Layers{r.opts.Args}}
	log := slog.With("seed", r.opts.Name, "class", def.Name)

	c := &model.PlacementClass{
		ClassName: def.Name,
		DefName:   def.Name,
		Watch:     watch,
		Movable:   def.Caps.Movable,
		Origin:    tpl.Origin,
	}
	c.ModelName = args.String("model", def.Model)
	c.Solid = args.Bool("solid", true)

	c.NoCombine = !args.Bool("seed_combine", true) || !def.Caps.Combinable
	if !c.NoCombine {
		if args.String("scriptobject", "") != "" || strings.HasSuffix(c.ModelName, ".prt") {
			c.NoCombine = true
		}
	}

	if !watch {
		c.Score = max(1, args.Int("seed_score", 1))
	}

	c.Skins = r.parseSkins(args)
	c.Offset = args.Vector("seed_offset", geom.Vec3{})
	c.Floor = p.bool("seed_floor", "floor", false)
	c.Stack = args.Bool("seed_stack", true)
	c.NoInhibit = args.Bool("seed_noinhibit", false)
	c.Spacing = args.Float("seed_spacing", 0)

	c.SinkMin = p.float("seed_sink_min", "sink_min", 0)
	c.SinkMax = math.Max(c.SinkMin, p.float("seed_sink_max", "sink_max", 0))

	c.Scale = parseScale(p)

	falloff, factor := r.ParseFalloff(args, p.volume.String("falloff", "none"), p.volume.String("func_a", "2"), def.Name)
	c.Falloff = falloff
	c.FuncFactor = factor
	if falloff == model.FalloffFunc {
		fn, err := parseFunc(p, log)
		if err != nil {
			return nil, fmt.Errorf("adding class %s: %w", def.Name, err)
		}
		c.Func = fn
		c.FuncFactor = 0
	}

	imgDensity := 1.0
	if name := p.str("seed_map", "map", ""); name != "" {
		ref, density, err := r.parseImage(p, name)
		if err != nil {
			log.Warn("could not load image map", "map", name, "error", err)
		} else {
			c.Image = &ref
			imgDensity = density
		}
	}

	c.Bunching = p.float("seed_bunching", "bunching", 0)
	if c.Bunching < 0 || c.Bunching > 1 {
		log.Warn("invalid bunching, must be between 0 and 1", "bunching", c.Bunching)
		c.Bunching = 0
	}
	if c.Spacing > 0 {
		c.NoCollide = model.CollideAll
	} else {
		c.NoCollide = model.CollideStatic
	}

	c.Size = r.classSize(def, c.ModelName)
	if c.Size.X < 0.001 {
		log.Warn("size.x below minimum, enforcing", "size_x", c.Size.X, "min", minSize)
		c.Size.X = minSize
	}
	if c.Size.Y < 0.001 {
		log.Warn("size.y below minimum, enforcing", "size_y", c.Size.Y, "min", minSize)
		c.Size.Y = minSize
	}

	hideDist := args.Float("hide_distance", 0)
	cullRange := p.float("seed_cull_range", "cull_range", DefaultCullRange)
	if cullRange > 0 && hideDist > 0 {
		cull := hideDist + cullRange
		spawn := hideDist + cullRange/2
		c.CullDistSq = cull * cull
		c.SpawnDistSq = spawn * spawn
	}

	c.LOD = ParseLOD(spawnargs.Layers{def.Args})

	c.DefaultProb = p.float("seed_probability", "probability", 1.0)
	c.Materials = parseMaterials(args, log)

	if err := r.attachGeometry(c, tpl, def); err != nil {
		return nil, err
	}

	colorDef := args.String("_color", "1 1 1")
	c.ColorMin = p.vec("seed_color_min", "color_min", colorDef).Clamp(geom.Vec3{}, geom.V(1, 1, 1))
	c.ColorMax = p.vec("seed_color_max", "color_max", colorDef).Clamp(c.ColorMin, geom.V(1, 1, 1))
	if r.opts.DebugColors {
		dc := debugPalette[int(r.opts.Random()*float64(len(debugPalette)))%len(debugPalette)]
		c.ColorMin, c.ColorMax = dc, dc
	}

	c.ImpulseMin = p.vec("seed_impulse_min", "impulse_min", "0 -90 0").Clamp(geom.V(0, -90, 0), geom.V(1000, 90, 359.9))
	c.ImpulseMax = p.vec("seed_impulse_max", "impulse_max", "0 90 360").Clamp(c.ImpulseMin, geom.V(1000, 90, 360))

	rotMin := r.opts.Args["rotate_min"]
	if rotMin == "" {
		rotMin = "0 0 0"
	}
	rotMax := r.opts.Args["rotate_max"]
	if rotMax == "" {
		rotMax = "5 360 5"
	}
	c.RotateMin = geom.AnglesFromVec(p.vec("seed_rotate_min", "seed_rotate_min", rotMin))
	c.RotateMax = geom.AnglesFromVec(p.vec("seed_rotate_max", "seed_rotate_max", rotMax))

	c.Band = parseBand(p, c, log)

	size := (math.Max(0.1, c.Size.X) + c.Spacing) * (math.Max(0.1, c.Size.Y) + c.Spacing)
	if c.Falloff.Elliptic() {
		size *= 4 / math.Pi
	}
	density := math.Max(minDensity, args.Float("seed_density", 1))
	baseDensity := math.Max(minDensity, args.Float("seed_base_density", 1))
	c.AvgSize = size / (baseDensity * imgDensity * density)

	c.MaxEntities = p.int("seed_max_entities", "seed_max_entities", 0)

	return c, nil
}

func (p params) int(classKey, volumeKey string, def int) int {
	v := p.str(classKey, volumeKey, "")
	if v == "" {
		return def
	}
	return spawnargs.Layers{{"v": v}}.Int("v", def)
}

// parseSkins collects "skin*" keys and the comma separated random_skin list.
// A class without a "skin" key always gets the empty skin.
func (r *Registry) parseSkins(args spawnargs.Layers) []int {
	var skins []int
	if !args.Has("skin") {
		skins = append(skins, 0)
	}
	for _, kv := range args.WithPrefix("skin") {
		skins = append(skins, r.AddSkin(kv.Value))
	}
	for _, part := range SplitRandomList(args.String("random_skin", "")) {
		skins = append(skins, r.AddSkin(part))
	}
	return skins
}

// SplitRandomList splits "a, b, '', c" into its parts. "''" is the empty string.
func SplitRandomList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "''" {
			part = ""
		}
		out = append(out, part)
	}
	return out
}

func parseScale(p params) model.Scale {
	minStr := p.str("seed_scale_min", "scale_min", "1 1 1")
	maxStr := p.str("seed_scale_max", "scale_max", "1 1 1")

	if !strings.Contains(strings.TrimSpace(minStr), " ") {
		lo := spawnargs.ParseFloat(minStr, 1)
		hi := spawnargs.ParseVector(maxStr).Z
		if !strings.Contains(strings.TrimSpace(maxStr), " ") {
			hi = spawnargs.ParseFloat(maxStr, 1)
		}
		return model.UniformScale(lo, hi)
	}

	lo := spawnargs.ParseVector(minStr)
	var hi geom.Vec3
	if strings.Contains(strings.TrimSpace(maxStr), " ") {
		hi = spawnargs.ParseVector(maxStr)
	} else {
		v := spawnargs.ParseFloat(maxStr, 1)
		hi = geom.V(v, v, v)
	}
	return model.PerAxisScale(lo, hi)
}

func parseFunc(p params, log *slog.Logger) (model.FuncFalloff, error) {
	fn := model.DefaultFuncFalloff()
	fn.A = p.float("seed_func_a", "func_a", 0)
	fn.S = p.float("seed_func_s", "func_s", 0.5)
	if p.str("seed_func_Xt", "func_Xt", "X") == "X*X" {
		fn.XPow = model.FuncSquared
	}
	if p.str("seed_func_Yt", "func_Yt", "Y") == "Y*Y" {
		fn.YPow = model.FuncSquared
	}
	fn.X = p.float("seed_func_x", "func_x", 1)
	fn.Y = p.float("seed_func_y", "func_y", 1)
	fn.Min = p.float("seed_func_min", "func_min", 0)
	fn.Max = p.float("seed_func_max", "func_max", 1)
	if fn.Min < 0 {
		log.Warn("func_min below 0, using 0", "func_min", fn.Min)
		fn.Min = 0
	}
	if fn.Max > 1 {
		log.Warn("func_max above 1, using 1", "func_max", fn.Max)
		fn.Max = 1
	}
	if fn.Min > fn.Max {
		log.Warn("func_min above func_max, using 0", "func_min", fn.Min, "func_max", fn.Max)
		fn.Min = 0
	}

	switch f := p.str("seed_func_f", "func_f", "clamp"); f {
	case "clamp":
		fn.Clamp = true
	case "zeroclamp":
		fn.Clamp = false
	default:
		return fn, fmt.Errorf("%w: expected clamp or zeroclamp, found %q", ErrInvalidFunction, f)
	}
	return fn, nil
}

// parseImage resolves the density map and its average density after the
// sampling transform, inversion and the minimum floor are applied.
func (r *Registry) parseImage(p params, name string) (model.ImageRef, float64, error) {
	ref := model.DefaultImageRef(name)
	if r.images == nil {
		return ref, 0, fmt.Errorf("no image source configured")
	}
	img, err := r.images.Image(name)
	if err != nil {
		return ref, 0, err
	}

	ref.Invert = p.bool("seed_map_invert", "map_invert", false)
	ref.ScaleX = chainFloat(p, 1, []string{"seed_map_scale_x", "seed_map_scale"}, []string{"map_scale_x", "map_scale"})
	ref.ScaleY = chainFloat(p, 1, []string{"seed_map_scale_y", "seed_map_scale"}, []string{"map_scale_y", "map_scale"})
	ref.OfsX = chainFloat(p, 0, []string{"seed_map_ofs_x", "seed_map_ofs"}, []string{"map_ofs_x", "map_ofs"})
	ref.OfsY = chainFloat(p, 0, []string{"seed_map_ofs_y", "seed_map_ofs"}, []string{"map_ofs_y", "map_ofs"})

	density := imagemap.AverageDensity(img, ref.ScaleX, ref.ScaleY, ref.OfsX, ref.OfsY)
	if ref.Invert {
		density = 1 - density
	}
	if density < minImageAvg {
		slog.Warn("average density of image map is very low", "seed", r.opts.Name, "map", name, "density", density)
		density = minImageAvg
	}
	return ref, density, nil
}

func chainFloat(p params, def float64, classKeys, volumeKeys []string) float64 {
	if v, ok := p.class.FirstOf(classKeys...); ok {
		return spawnargs.ParseFloat(v, def)
	}
	if v, ok := p.volume.FirstOf(volumeKeys...); ok {
		return spawnargs.ParseFloat(v, def)
	}
	return def
}

func (r *Registry) classSize(def defs.Definition, modelName string) geom.Vec3 {
	if def.Size != (geom.Vec3{}) || r.geometry == nil || modelName == "" {
		return def.Size
	}
	g, err := r.geometry.Resolve(modelName)
	if err != nil {
		return def.Size
	}
	defer g.Release()
	return g.Bounds().Size()
}

func parseMaterials(args spawnargs.Layers, log *slog.Logger) []model.MaterialProb {
	const prefix = "seed_material_"
	var out []model.MaterialProb
	for _, kv := range args.WithPrefix(prefix) {
		name := strings.TrimPrefix(kv.Key, prefix)
		prob := spawnargs.ParseFloat(kv.Value, 1)
		if prob < 0 || prob > 1 {
			log.Warn("invalid material probability, ignoring it", "material", name, "probability", prob)
			continue
		}
		out = append(out, model.MaterialProb{Name: name, Probability: prob})
	}
	return out
}

func parseBand(p params, c *model.PlacementClass, log *slog.Logger) model.HeightBand {
	b := model.HeightBand{
		Invert:  p.bool("seed_z_invert", "z_invert", false),
		Min:     p.float("seed_z_min", "z_min", -1e6),
		Max:     p.float("seed_z_max", "z_max", 1e6),
		FadeIn:  p.float("seed_z_fadein", "z_fadein", 0),
		FadeOut: p.float("seed_z_fadeout", "z_fadeout", 0),
	}
	if b.Max < b.Min {
		log.Warn("z_max below z_min, using z_min", "z_min", b.Min, "z_max", b.Max)
		b.Max = b.Min
	}
	if b.FadeIn < 0 {
		log.Warn("invalid z_fadein, ignoring it", "z_fadein", b.FadeIn)
		b.FadeIn = 0
	}
	if b.FadeOut < 0 {
		log.Warn("invalid z_fadeout, ignoring it", "z_fadeout", b.FadeOut)
		b.FadeOut = 0
	}
	if b.Min+b.FadeIn > b.Max-b.FadeOut {
		b.FadeIn = math.Max(0, b.Max-b.FadeOut-b.Min)
	}
	if b.Min != -1e6 && !c.Floor {
		log.Warn("z_min requires floor projection, enabling it")
		c.Floor = true
	}
	return b
}

// ParseLOD reads level-of-detail parameters. Returns nil when the definition has none.
func ParseLOD(args spawnargs.Layers) *model.LOD {
	lod := &model.LOD{
		XYOnly:       args.Bool("dist_check_xy", false),
		HideDistance: args.Float("hide_distance", 0),
		FadeRange:    args.Float("lod_fadeout_range", 0),
	}
	for i := 1; i <= lodLevels; i++ {
		d := args.Float(fmt.Sprintf("lod_%d_distance", i), 0)
		if d <= 0 {
			continue
		}
		lod.Stages = append(lod.Stages, model.LODStage{
			DistanceSq: d * d,
			Model:      args.String(fmt.Sprintf("model_lod_%d", i), ""),
		})
	}
	if lod.HideDistance <= 0 && len(lod.Stages) == 0 {
		return nil
	}
	return lod
}

// attachGeometry gives static classes the geometry they need at spawn time.
func (r *Registry) attachGeometry(c *model.PlacementClass, tpl Template, def defs.Definition) error {
	switch {
	case tpl.Inline:
		g, err := r.geometry.Resolve(tpl.ModelName)
		if err != nil {
			return fmt.Errorf("adding class %s: inline model %s: %w: %w", def.Name, tpl.ModelName, ErrGeometry, err)
		}
		c.SetModel(g)
		c.OwnedModel = tpl.ModelName
		c.ModelName = tpl.ModelName

		clip, err := r.geometry.LoadCollision(tpl.ModelName)
		if err != nil {
			c.Release()
			return fmt.Errorf("adding class %s: inline collision %s: %w: %w", def.Name, tpl.ModelName, ErrGeometry, err)
		}
		c.SetClip(clip)
		c.ClipModel = tpl.ModelName
		c.ClassName = DummyClass

	case def.Caps.Static && r.opts.Combine:
		c.ClassName = DummyClass

	case def.Caps.Static && !c.Scale.IsIdentity():
		// kept so scaled copies can be duplicated at spawn time
		g, err := r.geometry.Resolve(c.ModelName)
		if err != nil {
			slog.Warn("could not resolve model for scaling", "seed", r.opts.Name, "class", def.Name, "model", c.ModelName, "error", err)
			return nil
		}
		c.SetModel(g)
		c.OwnedModel = c.ModelName
	}
	return nil
}

var debugPalette = []geom.Vec3{
	{X: 1, Y: 0.2, Z: 0.2},
	{X: 0.2, Y: 1, Z: 0.2},
	{X: 0.2, Y: 0.2, Z: 1},
	{X: 1, Y: 1, Z: 0.2},
	{X: 1, Y: 0.2, Z: 1},
	{X: 0.2, Y: 1, Z: 1},
	{X: 1, Y: 0.6, Z: 0.1},
	{X: 0.6, Y: 0.3, Z: 1},
}
