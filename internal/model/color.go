package model

import (
	"math"

	"github.com/udisondev/seed/internal/geom"
)

// PackColor packs an RGB color with components in [0, 1] into 0x00BBGGRR.
func PackColor(c geom.Vec3) uint32 {
	return uint32(channel(c.X)) | uint32(channel(c.Y))<<8 | uint32(channel(c.Z))<<16
}

// UnpackColor is the inverse of PackColor (up to 8-bit precision).
func UnpackColor(c uint32) geom.Vec3 {
	return geom.Vec3{
		X: float64(c&0xff) / 255,
		Y: float64((c>>8)&0xff) / 255,
		Z: float64((c>>16)&0xff) / 255,
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
