package model

import (
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// InstanceFlags is a bit set of instance states.
type InstanceFlags int32

const (
	// FlagExists is set while a live object represents the instance.
	FlagExists InstanceFlags = 1 << iota
	FlagHidden
	// FlagSpawned is set once the instance was spawned at least once.
	FlagSpawned
	// FlagSynthetic marks the representative of a combined class.
	FlagSynthetic
)

func (f InstanceFlags) Has(flag InstanceFlags) bool { return f&flag != 0 }

// Instance is one placed object.
type Instance struct {
	ClassIdx int
	Origin   geom.Vec3
	Angles   geom.Angles
	Color    uint32
	Scale    geom.Vec3
	SkinIdx  int
	Flags    InstanceFlags
	Handle   host.Handle
}

// Exists reports whether a live object currently represents the instance.
func (i *Instance) Exists() bool { return i.Flags.Has(FlagExists) }
