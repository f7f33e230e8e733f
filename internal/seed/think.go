package seed

import (
	"log/slog"
	"time"

	"github.com/udisondev/seed/internal/model"
)

// Think runs one scheduler step: lazy preparation, quality bias tracking
// and, at most once per distance-check interval, spawning and culling.
func (v *Volume) Think(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.numEntities < 0 || v.waitForTrigger || !v.active {
		return
	}

	if !v.prepared {
		if err := v.prepare(); err != nil {
			slog.Error("preparing seed, disabling it", "seed", v.cfg.Name, "error", err)
			v.numEntities = -1
			return
		}
		if !v.prepared {
			return
		}
	}

	v.trackBias()

	if v.needsLODRebind {
		v.reg.Rebind()
		v.needsLODRebind = false
	}

	if v.distCheckStamp.IsZero() {
		v.distCheckStamp = now.Add(v.phase - v.distCheckInterval)
		if v.checkOnResume {
			// restored volumes check on their first think
			v.distCheckStamp = now.Add(-v.distCheckInterval)
			v.checkOnResume = false
		}
	}
	if now.Sub(v.distCheckStamp) < v.distCheckInterval {
		return
	}
	v.distCheckStamp = now

	if !v.inView() {
		return
	}
	v.checkDistances()
}

// trackBias rebuilds the layout when the quality bias moved by more than
// BiasHysteresis and the planned count changed as a result. The float
// stream restarts from its original seed, so the same bias reproduces the
// same layout.
func (v *Volume) trackBias() {
	cur := quality(v.host.Quality)
	if !biasChanged(v.bias, cur) {
		return
	}
	prevBias, prevCount := v.bias, v.numEntities
	v.bias = cur
	v.computeCounts()
	if v.numEntities == prevCount {
		return
	}

	slog.Info("quality bias changed, rebuilding seed",
		"seed", v.cfg.Name,
		"bias_from", prevBias,
		"bias_to", cur,
		"count_from", prevCount,
		"count_to", v.numEntities)

	v.cullAll()
	var keep []model.Instance
	for _, inst := range v.instances {
		if v.reg.Class(inst.ClassIdx).Watch {
			keep = append(keep, inst)
		}
	}
	v.rnd.Reset()
	v.build(keep)
}

// inView reports whether a distance check should run. Outside the
// observer's visible set checks are skipped, but never more than
// MaxInvisibleChecks times in a row.
func (v *Volume) inView() bool {
	if v.host.Visibility == nil || len(v.areas) == 0 {
		return true
	}
	if v.host.Visibility.InCurrentPVS(v.areas) {
		v.thinkCounter = 0
		return true
	}
	v.thinkCounter++
	if v.thinkCounter < MaxInvisibleChecks {
		return false
	}
	v.thinkCounter = 0
	return true
}

func (v *Volume) checkDistances() {
	observer := v.host.Observer.Origin()
	gravity := v.host.Observer.GravityNormal()

	for i := range v.instances {
		inst := &v.instances[i]
		class := v.reg.Class(inst.ClassIdx)

		delta := inst.Origin.Sub(observer)
		if v.distCheckXYOnly {
			delta = delta.ProjectOnPlane(gravity)
		}
		distSq := class.LOD.DistanceSq(delta, gravity, v.bias)

		if inst.Exists() {
			if class.CullDistSq > 0 && distSq > class.CullDistSq {
				v.spawner.Cull(inst, class)
			}
			continue
		}
		if class.SpawnDistSq == 0 || distSq < class.SpawnDistSq {
			v.spawner.Spawn(inst, class, !class.Synthetic)
		}
	}
}
