package placement

import (
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/model"
)

// AdoptWatched returns an instance for every live object of a watch class
// whose origin lies inside the volume. Adopted instances already exist and
// keep the handle of the live object; their skins are added to skins.
func (e *Engine) AdoptWatched(vol Volume, classes []*model.PlacementClass, skins *model.SkinTable) []model.Instance {
	if e.runtime == nil {
		return nil
	}

	box := vol.Box()
	var out []model.Instance
	for ci, class := range classes {
		if !class.Watch {
			continue
		}
		for _, obj := range e.runtime.FindByDef(class.DefName) {
			if !box.ContainsPoint(obj.Origin) {
				continue
			}
			skin := 0
			if skins != nil {
				skin = skins.Add(obj.Skin)
			}
			out = append(out, model.Instance{
				ClassIdx: ci,
				Origin:   obj.Origin,
				Angles:   obj.Angles,
				Color:    model.PackColor(geom.V(1, 1, 1)),
				Scale:    geom.V(1, 1, 1),
				SkinIdx:  skin,
				Flags:    model.FlagExists | model.FlagSpawned,
				Handle:   obj.Handle,
			})
		}
	}
	return out
}
