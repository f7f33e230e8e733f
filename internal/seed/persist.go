package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/savegame"
)

const (
	streamMagic   = 0x44454553 // "SEED"
	streamVersion = 2

	maxListLen = 1 << 20
)

// ErrBadStream is returned by Restore for streams of another format or version.
var ErrBadStream = errors.New("not a seed save stream")

// Save writes the complete volume state to w. Live handles are not
// written; a restored volume spawns its objects again. Scheduling state tied
// to the wall clock (the last check stamp and the invisible-check counter) is
// not written either, so an idle volume always saves the same bytes.
func (v *Volume) Save(w *savegame.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	w.WriteUint(streamMagic)
	w.WriteInt(streamVersion)

	w.WriteBool(v.active)
	w.WriteBool(v.waitForTrigger)
	w.WriteBool(v.prepared)
	w.WriteBool(v.combine)
	w.WriteBool(v.debugColors)
	w.WriteInt(int32(v.debug))
	w.WriteInt(int32(v.numEntities))
	w.WriteFloat(v.bias)

	w.WriteLong(int64(v.distCheckInterval))
	w.WriteLong(int64(v.phase))
	w.WriteBool(v.distCheckXYOnly)

	w.WriteInt(v.rnd.Seed())
	w.WriteInt(v.rnd.Seed2())
	w.WriteInt(v.rnd.OrgSeed())

	names := v.reg.Skins().Names()
	w.WriteInt(int32(len(names)))
	for _, n := range names {
		w.WriteString(n)
	}

	inhibitors := v.reg.Inhibitors()
	w.WriteInt(int32(len(inhibitors)))
	for i := range inhibitors {
		writeInhibitor(w, &inhibitors[i])
	}

	classes := v.reg.Classes()
	w.WriteInt(int32(len(classes)))
	for _, c := range classes {
		writeClass(w, c)
	}

	w.WriteInt(int32(len(v.instances)))
	for i := range v.instances {
		writeInstance(w, &v.instances[i])
	}

	w.WriteInt(int32(len(v.areas)))
	for _, a := range v.areas {
		w.WriteInt(int32(a))
	}
}

// Restore replaces the volume state with one read from data. On error the
// volume is left unchanged. Live objects of the current state are culled.
func (v *Volume) Restore(data []byte) error {
	d := savegame.NewDecoder(data)
	if d.Uint() != streamMagic {
		return fmt.Errorf("restoring seed %s: %w", v.cfg.Name, ErrBadStream)
	}
	if ver := d.Int(); ver != streamVersion {
		return fmt.Errorf("restoring seed %s: version %d: %w", v.cfg.Name, ver, ErrBadStream)
	}

	var st restored
	st.read(d)
	if err := d.Err(); err != nil {
		return fmt.Errorf("restoring seed %s: %w", v.cfg.Name, err)
	}
	if err := st.validate(); err != nil {
		return fmt.Errorf("restoring seed %s: %w", v.cfg.Name, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.cullAll()
	v.active = st.active
	v.waitForTrigger = st.waitForTrigger
	v.prepared = st.prepared
	v.combine = st.combine
	v.debugColors = st.debugColors
	v.debug = st.debug
	v.numEntities = st.numEntities
	v.thinkCounter = 0
	v.bias = st.bias
	v.distCheckStamp = time.Time{}
	v.checkOnResume = true
	v.distCheckInterval = st.distCheckInterval
	v.phase = st.phase
	v.distCheckXYOnly = st.distCheckXYOnly

	v.rnd.SetSeed(st.seed)
	v.rnd.SetSeed2(st.seed2)
	v.rnd.SetOrgSeed(st.orgSeed)

	v.reg.Replace(st.classes, st.inhibitors, st.skins)
	v.spawner.SetSkins(v.reg.Skins())
	v.spawner.SetDebug(v.debug > 0)
	v.spawner.ResetCounters()
	v.instances = st.instances
	v.areas = st.areas
	v.needsLODRebind = true

	slog.Info("seed restored",
		"seed", v.cfg.Name,
		"classes", len(st.classes),
		"instances", len(st.instances),
		"prepared", st.prepared)
	return nil
}

// restored is a decoded save stream, installed only once fully read.
type restored struct {
	active, waitForTrigger, prepared, combine, debugColors bool
	debug, numEntities                                    int
	bias                                                  float64

	distCheckInterval time.Duration
	phase             time.Duration
	distCheckXYOnly   bool

	seed, seed2, orgSeed int32

	skins      []string
	inhibitors []model.Inhibitor
	classes    []*model.PlacementClass
	instances  []model.Instance
	areas      []int
}

func (st *restored) read(d *savegame.Decoder) {
	st.active = d.Bool()
	st.waitForTrigger = d.Bool()
	st.prepared = d.Bool()
	st.combine = d.Bool()
	st.debugColors = d.Bool()
	st.debug = int(d.Int())
	st.numEntities = int(d.Int())
	st.bias = d.Float()

	st.distCheckInterval = time.Duration(d.Long())
	st.phase = time.Duration(d.Long())
	st.distCheckXYOnly = d.Bool()

	st.seed = d.Int()
	st.seed2 = d.Int()
	st.orgSeed = d.Int()

	st.skins = make([]string, d.Count(maxListLen))
	for i := range st.skins {
		st.skins[i] = d.Text()
	}

	st.inhibitors = make([]model.Inhibitor, d.Count(maxListLen))
	for i := range st.inhibitors {
		readInhibitor(d, &st.inhibitors[i])
	}

	st.classes = make([]*model.PlacementClass, d.Count(maxListLen))
	for i := range st.classes {
		st.classes[i] = readClass(d)
	}

	st.instances = make([]model.Instance, d.Count(maxListLen))
	for i := range st.instances {
		readInstance(d, &st.instances[i])
	}

	st.areas = make([]int, d.Count(maxListLen))
	for i := range st.areas {
		st.areas[i] = int(d.Int())
	}
}

// validate checks cross references the decoder cannot see.
func (st *restored) validate() error {
	for i, inst := range st.instances {
		if inst.ClassIdx < 0 || inst.ClassIdx >= len(st.classes) {
			return fmt.Errorf("instance %d references class %d of %d: %w", i, inst.ClassIdx, len(st.classes), savegame.ErrBadLength)
		}
		if inst.SkinIdx < 0 || (len(st.skins) > 0 && inst.SkinIdx >= len(st.skins)) {
			return fmt.Errorf("instance %d references skin %d of %d: %w", i, inst.SkinIdx, len(st.skins), savegame.ErrBadLength)
		}
	}
	return nil
}

func writeInhibitor(w *savegame.Writer, in *model.Inhibitor) {
	w.WriteVec3(in.Origin)
	w.WriteVec3(in.Size)
	w.WriteVec3(in.Box.Center)
	w.WriteVec3(in.Box.Extents)
	w.WriteMat3(in.Box.Axis)
	w.WriteBool(in.InhibitOnly)
	w.WriteInt(int32(in.Falloff))
	w.WriteFloat(in.Factor)
	w.WriteInt(int32(len(in.ClassNames)))
	for _, n := range in.ClassNames {
		w.WriteString(n)
	}
}

func readInhibitor(d *savegame.Decoder, in *model.Inhibitor) {
	in.Origin = d.Vec3()
	in.Size = d.Vec3()
	in.Box = geom.Box{Center: d.Vec3(), Extents: d.Vec3(), Axis: d.Mat3()}
	in.InhibitOnly = d.Bool()
	in.Falloff = model.Falloff(d.Int())
	in.Factor = d.Float()
	if n := d.Count(maxListLen); n > 0 {
		in.ClassNames = make([]string, n)
		for i := range in.ClassNames {
			in.ClassNames[i] = d.Text()
		}
	}
}

func writeInstance(w *savegame.Writer, inst *model.Instance) {
	w.WriteInt(int32(inst.ClassIdx))
	w.WriteVec3(inst.Origin)
	w.WriteAngles(inst.Angles)
	w.WriteUint(inst.Color)
	w.WriteVec3(inst.Scale)
	w.WriteInt(int32(inst.SkinIdx))
	w.WriteInt(int32(inst.Flags))
}

// readInstance drops the live state: the handle is gone with the old world.
func readInstance(d *savegame.Decoder, inst *model.Instance) {
	inst.ClassIdx = int(d.Int())
	inst.Origin = d.Vec3()
	inst.Angles = d.Angles()
	inst.Color = d.Uint()
	inst.Scale = d.Vec3()
	inst.SkinIdx = int(d.Int())
	inst.Flags = model.InstanceFlags(d.Int()) &^ model.FlagExists
	inst.Handle = 0
}
