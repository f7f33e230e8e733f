package seed

import "log/slog"

// Activate starts a volume that waits for a trigger and resumes a disabled one.
func (v *Volume) Activate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.waitForTrigger = false
	v.active = true
	slog.Debug("seed activated", "seed", v.cfg.Name)
}

// Disable stops thinking. Live objects stay where they are.
func (v *Volume) Disable() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = false
}

// Enable resumes thinking after Disable.
func (v *Volume) Enable() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = true
}

// Active reports whether the volume thinks.
func (v *Volume) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active && !v.waitForTrigger && v.numEntities >= 0
}

// CullAll removes every live object of the volume. Instances stay and are
// spawned again by later thinks.
func (v *Volume) CullAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cullAll()
}

func (v *Volume) cullAll() {
	culled := 0
	for i := range v.instances {
		inst := &v.instances[i]
		if !inst.Exists() {
			continue
		}
		if v.spawner.Cull(inst, v.reg.Class(inst.ClassIdx)) {
			culled++
		}
	}
	v.spawner.ResetCounters()
	if culled > 0 {
		slog.Debug("seed culled all", "seed", v.cfg.Name, "culled", culled)
	}
}

// Release removes every live object, frees all owned geometry and retires the volume.
func (v *Volume) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cullAll()
	v.reg.Release()
	v.instances = nil
	v.numEntities = -1
	v.prepared = false
}
