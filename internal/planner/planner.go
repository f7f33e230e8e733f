// Package planner turns volume area, density and class scores into entity counts.
package planner

import (
	"math"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/spawnargs"
)

const (
	minDensity          = 0.00001
	defaultScalingLimit = 10
)

// RemapBias softens the user quality bias. The menu offers
// 0.5, 0.75, 1, 1.5, 2 and 3, which map to 0.7, 0.9, 1, 1.125, 1.25 and 1.4.
func RemapBias(b float64) float64 {
	switch {
	case b < 0.7:
		return b * 1.4
	case b < 0.8:
		return b * 1.2
	case b > 1:
		base := 1.0
		if b > 2 {
			base = 0.9
		}
		return base + (b-1)/4
	}
	return b
}

// Input is everything the count computation depends on.
type Input struct {
	// Size of the volume; only X and Y are used.
	Size    geom.Vec3
	Density float64
	// ScaleDensity multiplies Density by Bias.
	ScaleDensity bool
	// MaxEntities caps the total; 0 means the count follows the area.
	MaxEntities int
	// ScalingLimit: MaxEntities above it is multiplied by Bias.
	ScalingLimit float64
	// Bias is the already remapped quality bias.
	Bias    float64
	Classes []*model.PlacementClass
}

// InputFromArgs reads the volume parameters "density", "lod_scale_density",
// "max_entities" and "lod_scaling_limit".
func InputFromArgs(args spawnargs.Layers, size geom.Vec3, bias float64, classes []*model.PlacementClass) Input {
	return Input{
		Size:         size,
		Density:      args.Float("density", 1),
		ScaleDensity: args.Bool("lod_scale_density", true),
		MaxEntities:  args.Int("max_entities", 0),
		ScalingLimit: args.Float("lod_scaling_limit", defaultScalingLimit),
		Bias:         bias,
		Classes:      classes,
	}
}

// Result holds the planned counts. PerClass is parallel to Input.Classes;
// synthetic and watch classes get 0.
type Result struct {
	Total    int
	PerClass []int
	// Area is the density-weighted area the counts were derived from.
	Area float64
}

// ComputeCounts plans how many instances each class gets.
//
// With MaxEntities set, the total is shared by score with at least one
// instance per class and the total is reported as MaxEntities even when
// per-class counts add up to more. Otherwise every class gets area/AvgSize.
// Class MaxEntities caps the per-class count in both modes.
func ComputeCounts(in Input) Result {
	density := in.Density
	if in.ScaleDensity {
		density *= in.Bias
	}
	density = math.Max(density, minDensity)

	res := Result{
		PerClass: make([]int, len(in.Classes)),
		Area:     (in.Size.X + 1) * (in.Size.Y + 1) * density,
	}

	maxEntities := in.MaxEntities
	scoreSum := 0
	if maxEntities > 0 {
		if float64(maxEntities) > in.ScalingLimit {
			maxEntities = int(float64(maxEntities) * in.Bias)
		}
		for _, c := range in.Classes {
			scoreSum += c.Score
		}
	}

	for i, c := range in.Classes {
		if !c.Real() {
			continue
		}

		n := 0
		switch {
		case maxEntities > 0 && scoreSum > 0:
			n = max(1, maxEntities*c.Score/scoreSum)
		case maxEntities <= 0 && c.AvgSize > 0:
			n = int(res.Area / c.AvgSize)
		}
		if c.MaxEntities > 0 && n > c.MaxEntities {
			n = c.MaxEntities
		}

		res.PerClass[i] = n
		res.Total += n
	}

	if maxEntities > 0 {
		res.Total = maxEntities
	}
	return res
}

// Apply stores the per-class counts on the classes.
func (r Result) Apply(classes []*model.PlacementClass) {
	for i, c := range classes {
		if i < len(r.PerClass) {
			c.NumEntities = r.PerClass[i]
		}
	}
}
