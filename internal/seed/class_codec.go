package seed

import (
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/savegame"
)

// Optional class parts are preceded by a presence flag. Owned geometry is
// written by name and resolved again by Registry.Rebind.

func writeClass(w *savegame.Writer, c *model.PlacementClass) {
	w.WriteString(c.ClassName)
	w.WriteString(c.ModelName)
	w.WriteString(c.DefName)
	w.WriteBool(c.Synthetic)
	w.WriteBool(c.Watch)

	w.WriteInt(int32(c.MaxEntities))
	w.WriteInt(int32(c.NumEntities))
	w.WriteInt(int32(c.Score))
	w.WriteFloat(c.CullDistSq)
	w.WriteFloat(c.SpawnDistSq)
	w.WriteFloat(c.Spacing)
	w.WriteFloat(c.Bunching)
	w.WriteFloat(c.SinkMin)
	w.WriteFloat(c.SinkMax)

	w.WriteInt(int32(c.Scale.Kind))
	w.WriteVec3(c.Scale.Min)
	w.WriteVec3(c.Scale.Max)

	w.WriteVec3(c.Origin)
	w.WriteVec3(c.Offset)
	w.WriteVec3(c.Size)

	w.WriteInt(int32(c.NoCollide))
	w.WriteBool(c.NoCombine)
	w.WriteBool(c.Solid)
	w.WriteBool(c.Floor)
	w.WriteBool(c.Stack)
	w.WriteBool(c.NoInhibit)
	w.WriteBool(c.Movable)

	w.WriteInt(int32(c.Falloff))
	w.WriteFloat(c.FuncFactor)
	writeFunc(w, c.Func)
	w.WriteFloat(c.AvgSize)

	w.WriteVec3(c.ColorMin)
	w.WriteVec3(c.ColorMax)
	w.WriteAngles(c.RotateMin)
	w.WriteAngles(c.RotateMax)
	w.WriteVec3(c.ImpulseMin)
	w.WriteVec3(c.ImpulseMax)

	w.WriteFloat(c.Band.Min)
	w.WriteFloat(c.Band.Max)
	w.WriteFloat(c.Band.FadeIn)
	w.WriteFloat(c.Band.FadeOut)
	w.WriteBool(c.Band.Invert)

	w.WriteFloat(c.DefaultProb)
	w.WriteInt(int32(len(c.Materials)))
	for _, m := range c.Materials {
		w.WriteString(m.Name)
		w.WriteFloat(m.Probability)
	}
	w.WriteInt(int32(len(c.Skins)))
	for _, s := range c.Skins {
		w.WriteInt(int32(s))
	}

	w.WriteBool(c.Image != nil)
	if c.Image != nil {
		w.WriteString(c.Image.Name)
		w.WriteBool(c.Image.Invert)
		w.WriteFloat(c.Image.ScaleX)
		w.WriteFloat(c.Image.ScaleY)
		w.WriteFloat(c.Image.OfsX)
		w.WriteFloat(c.Image.OfsY)
	}

	w.WriteBool(c.LOD != nil)
	if c.LOD != nil {
		w.WriteBool(c.LOD.XYOnly)
		w.WriteFloat(c.LOD.HideDistance)
		w.WriteFloat(c.LOD.FadeRange)
		w.WriteInt(int32(len(c.LOD.Stages)))
		for _, st := range c.LOD.Stages {
			w.WriteFloat(st.DistanceSq)
			w.WriteString(st.Model)
		}
	}

	w.WriteInt(int32(len(c.Members)))
	for _, m := range c.Members {
		w.WriteVec3(m.Offset)
		w.WriteAngles(m.Angles)
		w.WriteInt(int32(m.Level))
		w.WriteUint(m.Color)
		w.WriteVec3(m.Scale)
	}

	w.WriteString(c.OwnedModel)
	w.WriteString(c.ClipModel)
	w.WriteBool(c.Composite != nil)
	if c.Composite != nil {
		w.WriteInt(int32(len(c.Composite.Shapes)))
		for _, sh := range c.Composite.Shapes {
			w.WriteString(sh.Model)
			w.WriteVec3(sh.Offset)
			w.WriteAngles(sh.Angles)
			w.WriteVec3(sh.Scale)
		}
	}
}

func writeFunc(w *savegame.Writer, f model.FuncFalloff) {
	w.WriteFloat(f.A)
	w.WriteFloat(f.S)
	w.WriteInt(int32(f.XPow))
	w.WriteInt(int32(f.YPow))
	w.WriteFloat(f.X)
	w.WriteFloat(f.Y)
	w.WriteFloat(f.Min)
	w.WriteFloat(f.Max)
	w.WriteBool(f.Clamp)
}

func readClass(d *savegame.Decoder) *model.PlacementClass {
	c := &model.PlacementClass{
		ClassName: d.Text(),
		ModelName: d.Text(),
		DefName:   d.Text(),
		Synthetic: d.Bool(),
		Watch:     d.Bool(),
	}

	c.MaxEntities = int(d.Int())
	c.NumEntities = int(d.Int())
	c.Score = int(d.Int())
	c.CullDistSq = d.Float()
	c.SpawnDistSq = d.Float()
	c.Spacing = d.Float()
	c.Bunching = d.Float()
	c.SinkMin = d.Float()
	c.SinkMax = d.Float()

	c.Scale = model.Scale{Kind: model.ScaleKind(d.Int()), Min: d.Vec3(), Max: d.Vec3()}

	c.Origin = d.Vec3()
	c.Offset = d.Vec3()
	c.Size = d.Vec3()

	c.NoCollide = model.Collide(d.Int())
	c.NoCombine = d.Bool()
	c.Solid = d.Bool()
	c.Floor = d.Bool()
	c.Stack = d.Bool()
	c.NoInhibit = d.Bool()
	c.Movable = d.Bool()

	c.Falloff = model.Falloff(d.Int())
	c.FuncFactor = d.Float()
	c.Func = readFunc(d)
	c.AvgSize = d.Float()

	c.ColorMin = d.Vec3()
	c.ColorMax = d.Vec3()
	c.RotateMin = d.Angles()
	c.RotateMax = d.Angles()
	c.ImpulseMin = d.Vec3()
	c.ImpulseMax = d.Vec3()

	c.Band = model.HeightBand{
		Min:     d.Float(),
		Max:     d.Float(),
		FadeIn:  d.Float(),
		FadeOut: d.Float(),
		Invert:  d.Bool(),
	}

	c.DefaultProb = d.Float()
	if n := d.Count(maxListLen); n > 0 {
		c.Materials = make([]model.MaterialProb, n)
		for i := range c.Materials {
			c.Materials[i] = model.MaterialProb{Name: d.Text(), Probability: d.Float()}
		}
	}
	if n := d.Count(maxListLen); n > 0 {
		c.Skins = make([]int, n)
		for i := range c.Skins {
			c.Skins[i] = int(d.Int())
		}
	}

	if d.Bool() {
		img := model.DefaultImageRef(d.Text())
		img.Invert = d.Bool()
		img.ScaleX = d.Float()
		img.ScaleY = d.Float()
		img.OfsX = d.Float()
		img.OfsY = d.Float()
		c.Image = &img
	}

	if d.Bool() {
		lod := &model.LOD{
			XYOnly:       d.Bool(),
			HideDistance: d.Float(),
			FadeRange:    d.Float(),
		}
		if n := d.Count(maxListLen); n > 0 {
			lod.Stages = make([]model.LODStage, n)
			for i := range lod.Stages {
				lod.Stages[i] = model.LODStage{DistanceSq: d.Float(), Model: d.Text()}
			}
		}
		c.LOD = lod
	}

	if n := d.Count(maxListLen); n > 0 {
		c.Members = make([]model.MemberOffset, n)
		for i := range c.Members {
			c.Members[i] = model.MemberOffset{
				Offset: d.Vec3(),
				Angles: d.Angles(),
				Level:  int(d.Int()),
				Color:  d.Uint(),
				Scale:  d.Vec3(),
			}
		}
	}

	c.OwnedModel = d.Text()
	c.ClipModel = d.Text()
	if d.Bool() {
		comp := &model.Composite{}
		if n := d.Count(maxListLen); n > 0 {
			comp.Shapes = make([]model.SubShape, n)
			for i := range comp.Shapes {
				comp.Shapes[i] = model.SubShape{
					Model:  d.Text(),
					Offset: d.Vec3(),
					Angles: d.Angles(),
					Scale:  d.Vec3(),
				}
			}
		}
		c.Composite = comp
	}
	return c
}

func readFunc(d *savegame.Decoder) model.FuncFalloff {
	return model.FuncFalloff{
		A:     d.Float(),
		S:     d.Float(),
		XPow:  int(d.Int()),
		YPow:  int(d.Int()),
		X:     d.Float(),
		Y:     d.Float(),
		Min:   d.Float(),
		Max:   d.Float(),
		Clamp: d.Bool(),
	}
}
