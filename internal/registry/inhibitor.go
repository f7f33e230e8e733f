package registry

import (
	"log/slog"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/spawnargs"
)

// InhibitorTemplate describes an exclusion volume.
type InhibitorTemplate struct {
	Name   string
	Origin geom.Vec3
	Size   geom.Vec3
	Angles geom.Angles
	Args   spawnargs.Dict
}

// ParseFalloff reads "seed_falloff" (default defaultName) and, for power and
// root, the exponent "seed_func_a" (default defaultFactor). Unknown names and
// exponents below 2 are corrected with a warning.
func (r *Registry) ParseFalloff(args spawnargs.Layers, defaultName, defaultFactor, owner string) (model.Falloff, float64) {
	name := args.String("seed_falloff", defaultName)
	f, ok := model.FalloffByName(name)
	if !ok {
		slog.Warn("wrong falloff, expected one of none, cutoff, power, root, linear or func",
			"seed", r.opts.Name,
			"owner", owner,
			"falloff", name,
			"hint", spawnargs.Hint(name, model.FalloffNames()))
		return model.FalloffNone, 0
	}
	if f != model.FalloffPower && f != model.FalloffRoot {
		return f, 0
	}

	factor := spawnargs.ParseFloat(args.String("seed_func_a", defaultFactor), 2)
	if factor < 2 {
		slog.Warn("expect seed_func_a >= 2", "seed", r.opts.Name, "owner", owner, "falloff", name, "func_a", factor)
		factor = 2
	}
	return f, factor
}

// AddInhibitor registers an exclusion volume.
//
// With an "inhibit" key the volume inhibits only the classes listed under
// "inhibit*"; otherwise a "noinhibit" key lists the classes it lets through.
func (r *Registry) AddInhibitor(tpl InhibitorTemplate) {
	args := spawnargs.Layers{tpl.Args}

	in := model.Inhibitor{
		Origin: tpl.Origin,
		Size:   tpl.Size,
		Box:    geom.NewBox(geom.CenteredBounds(tpl.Size), tpl.Origin, tpl.Angles.ToMat3()),
	}

	in.Falloff, in.Factor = r.ParseFalloff(args, args.String("falloff", "none"), args.String("func_a", "2"), tpl.Name)
	if in.Falloff == model.FalloffFunc {
		slog.Warn("falloff func is not supported on inhibitors, ignoring it", "seed", r.opts.Name, "inhibitor", tpl.Name)
		in.Falloff = model.FalloffNone
	}

	prefix := ""
	switch {
	case args.Has("inhibit"):
		in.InhibitOnly = true
		prefix = "inhibit"
	case args.Has("noinhibit"):
		prefix = "noinhibit"
	}

	if prefix != "" {
		for _, kv := range args.WithPrefix(prefix) {
			if _, ok := r.defs.Lookup(kv.Value); !ok {
				slog.Warn("inhibitor lists unknown class",
					"seed", r.opts.Name,
					"inhibitor", tpl.Name,
					"class", kv.Value,
					"hint", spawnargs.Hint(kv.Value, r.defs.Names()))
			}
			in.ClassNames = append(in.ClassNames, kv.Value)
		}
	}

	r.inhibitors = append(r.inhibitors, in)
}

// AddSpawnClasses builds classes from the volume's "spawn_class*" keys. The
// matching "spawn_skin*" key holds a comma separated list one skin is picked from.
// Unknown definitions are skipped with a warning.
func (r *Registry) AddSpawnClasses(origin geom.Vec3) error {
	vol := spawnargs.Layers{r.opts.Args}
	for _, kv := range vol.WithPrefix("spawn_class") {
		if _, ok := r.defs.Lookup(kv.Value); !ok {
			slog.Warn("could not find definition for spawn class",
				"seed", r.opts.Name,
				"class", kv.Value,
				"hint", spawnargs.Hint(kv.Value, r.defs.Names()))
			continue
		}

		suffix := kv.Key[len("spawn_class"):]
		skin := ""
		if parts := SplitRandomList(vol.String("spawn_skin"+suffix, "")); len(parts) > 0 {
			skin = parts[int(r.opts.Random()*float64(len(parts)))%len(parts)]
		}

		tpl := Template{
			Name:    kv.Key,
			DefName: kv.Value,
			Origin:  origin,
			Args: spawnargs.Dict{
				"seed_floor":  "1",
				"floor":       "0",
				"skin":        skin,
				"random_skin": "",
			},
		}
		if err := r.AddClass(tpl); err != nil {
			return err
		}
	}
	return nil
}
