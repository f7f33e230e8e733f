package model

import (
	"math"

	"github.com/udisondev/seed/internal/geom"
)

// LODStage switches to Model once the squared distance reaches DistanceSq.
type LODStage struct {
	DistanceSq float64
	Model      string
}

// LOD describes distance-based model switching and hiding of one class.
type LOD struct {
	// XYOnly ignores the gravity axis when measuring distance.
	XYOnly bool
	// HideDistance hides the object beyond this distance; 0 disables hiding.
	HideDistance float64
	// FadeRange fades alpha out over this distance before HideDistance.
	FadeRange float64
	Stages    []LODStage
}

// LODResult is the outcome of one LOD evaluation.
type LODResult struct {
	Alpha float64
	// Level is 0 for the default model, k for the k-th stage.
	Level int
}

// Evaluate returns alpha and model level for a squared distance.
// A nil LOD always yields the default model at full alpha.
func (l *LOD) Evaluate(distSq float64) LODResult {
	res := LODResult{Alpha: 1}
	if l == nil {
		return res
	}

	for i, st := range l.Stages {
		if st.Model != "" && distSq >= st.DistanceSq {
			res.Level = i + 1
		}
	}

	if l.HideDistance > 0 {
		d := math.Sqrt(distSq)
		switch {
		case d >= l.HideDistance:
			res.Alpha = 0
		case l.FadeRange > 0 && d > l.HideDistance-l.FadeRange:
			res.Alpha = (l.HideDistance - d) / l.FadeRange
		}
	}
	return res
}

// DistanceSq returns the squared distance used for LOD and spawn checks:
// delta is projected onto the plane normal to gravity when XYOnly is set,
// and the result is divided by the squared quality bias.
func (l *LOD) DistanceSq(delta, gravity geom.Vec3, bias float64) float64 {
	if l != nil && l.XYOnly {
		delta = delta.ProjectOnPlane(gravity)
	}
	if bias <= 0 {
		bias = 1
	}
	return delta.LengthSqr() / (bias * bias)
}
