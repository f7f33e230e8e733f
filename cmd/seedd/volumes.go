package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/seed/internal/config"
	"github.com/udisondev/seed/internal/db"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/registry"
	"github.com/udisondev/seed/internal/savegame"
	"github.com/udisondev/seed/internal/seed"
	"github.com/udisondev/seed/internal/spawnargs"
)

// layoutStore persists volume save streams.
type layoutStore interface {
	Save(ctx context.Context, name string, blob []byte, entities int) (bool, error)
	Load(ctx context.Context, name string) (*db.Layout, error)
}

func vec(v [3]float64) geom.Vec3 { return geom.V(v[0], v[1], v[2]) }

func dict(m map[string]string) spawnargs.Dict {
	d := make(spawnargs.Dict, len(m))
	for k, v := range m {
		d[k] = v
	}
	return d
}

func templates(classes []config.Class) []registry.Template {
	out := make([]registry.Template, 0, len(classes))
	for _, c := range classes {
		out = append(out, registry.Template{
			Name:      c.Name,
			DefName:   c.Def,
			Origin:    vec(c.Origin),
			Args:      dict(c.Args),
			Inline:    c.Inline,
			ModelName: c.Model,
		})
	}
	return out
}

// volumeConfig converts a configured volume. num is the volume's entity number,
// used to seed volumes without "randseed".
func volumeConfig(v config.Volume, num int) seed.Config {
	cfg := seed.Config{
		Name:      v.Name,
		Origin:    vec(v.Origin),
		Size:      vec(v.Size),
		Angles:    geom.Angles{Yaw: v.Yaw},
		EntityNum: num,
		Args:      dict(v.Args),
		Classes:   templates(v.Classes),
		Watch:     templates(v.Watch),
	}
	for _, in := range v.Inhibitors {
		cfg.Inhibitors = append(cfg.Inhibitors, registry.InhibitorTemplate{
			Name:   in.Name,
			Origin: vec(in.Origin),
			Size:   vec(in.Size),
			Angles: geom.Angles{Yaw: in.Yaw},
			Args:   dict(in.Args),
		})
	}
	return cfg
}

// buildVolumes creates every configured volume.
func buildVolumes(list []config.Volume, h seed.Host) ([]*seed.Volume, error) {
	vols := make([]*seed.Volume, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for i, v := range list {
		if _, dup := seen[v.Name]; dup {
			return nil, fmt.Errorf("volume %q defined twice", v.Name)
		}
		seen[v.Name] = struct{}{}

		vol, err := seed.New(volumeConfig(v, i+1), h)
		if err != nil {
			return nil, fmt.Errorf("creating volume %q: %w", v.Name, err)
		}
		vols = append(vols, vol)
	}
	return vols, nil
}

// restoreVolumes loads stored layouts. Volumes without a stored layout, or
// with one that fails to restore, are prepared from scratch on their first think.
func restoreVolumes(ctx context.Context, store layoutStore, vols []*seed.Volume) int {
	restored := 0
	for _, v := range vols {
		l, err := store.Load(ctx, v.Name())
		if err != nil {
			if !errors.Is(err, db.ErrLayoutNotFound) {
				slog.Warn("loading layout failed, regenerating", "seed", v.Name(), "error", err)
			}
			continue
		}
		if err := v.Restore(l.Blob); err != nil {
			slog.Warn("restoring layout failed, regenerating", "seed", v.Name(), "error", err)
			continue
		}
		restored++
		slog.Debug("layout restored", "seed", v.Name(), "entities", l.Entities, "updated_at", l.UpdatedAt)
	}
	return restored
}

// saveVolumes writes the save stream of every volume. Unchanged layouts are
// skipped by the store.
func saveVolumes(ctx context.Context, store layoutStore, vols []*seed.Volume) (int, error) {
	w := savegame.Get()
	defer w.Put()

	written := 0
	for _, v := range vols {
		w.Reset()
		v.Save(w)
		ok, err := store.Save(ctx, v.Name(), w.Bytes(), v.Stats().Instances)
		if err != nil {
			return written, fmt.Errorf("saving volume %q: %w", v.Name(), err)
		}
		if ok {
			written++
		}
	}
	return written, nil
}
