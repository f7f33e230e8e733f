package model

import (
	"slices"

	"github.com/udisondev/seed/internal/geom"
)

// Inhibitor suppresses (or exclusively allows) placement inside its box.
type Inhibitor struct {
	Origin geom.Vec3
	Size   geom.Vec3
	Box    geom.Box
	// InhibitOnly: true inhibits only the listed classes, false inhibits all except them.
	InhibitOnly bool
	Falloff     Falloff
	Factor      float64
	ClassNames  []string
}

// Applies reports whether the inhibitor targets className, ignoring geometry.
func (in *Inhibitor) Applies(className string) bool {
	if len(in.ClassNames) == 0 {
		return true
	}
	listed := slices.Contains(in.ClassNames, className)
	if in.InhibitOnly {
		return listed
	}
	return !listed
}
