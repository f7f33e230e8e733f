package world

import (
	"sync"
	"sync/atomic"

	"github.com/udisondev/seed/internal/host"
)

// Region is one visibility region and the live objects inside it.
type Region struct {
	id int

	objects sync.Map // host.Handle → *Object

	// snapshot cache (immutable slice), rebuilt lazily after Add/Remove
	snapshotCache atomic.Value
	snapshotDirty atomic.Bool

	version atomic.Uint64 // incremented on Add/Remove
	count   atomic.Int32
}

// NewRegion creates an empty region.
func NewRegion(id int) *Region {
	return &Region{id: id}
}

// ID returns the area id of the region.
func (r *Region) ID() int { return r.id }

// Version returns current region version (incremented on Add/Remove).
func (r *Region) Version() uint64 {
	return r.version.Load()
}

// Count returns the number of objects in the region.
func (r *Region) Count() int {
	return int(r.count.Load())
}

// Add adds an object to the region (concurrent-safe).
func (r *Region) Add(obj *Object) {
	if _, loaded := r.objects.LoadOrStore(obj.Handle, obj); loaded {
		return
	}
	r.count.Add(1)
	r.version.Add(1)
	r.snapshotDirty.Store(true)
}

// Remove removes an object from the region (concurrent-safe).
func (r *Region) Remove(h host.Handle) {
	if _, ok := r.objects.LoadAndDelete(h); !ok {
		return
	}
	r.count.Add(-1)
	r.version.Add(1)
	r.snapshotDirty.Store(true)
}

// ForEach iterates over the objects of the region until fn returns false.
func (r *Region) ForEach(fn func(*Object) bool) {
	r.objects.Range(func(_, value any) bool {
		return fn(value.(*Object))
	})
}

// Snapshot returns the cached object list.
// IMPORTANT: Returned slice is immutable, DO NOT modify.
func (r *Region) Snapshot() []*Object {
	if !r.snapshotDirty.Load() {
		if cache := r.snapshotCache.Load(); cache != nil {
			return cache.([]*Object)
		}
	}
	return r.rebuildSnapshot()
}

func (r *Region) rebuildSnapshot() []*Object {
	objects := make([]*Object, 0, r.Count())
	r.objects.Range(func(_, value any) bool {
		objects = append(objects, value.(*Object))
		return true
	})

	r.snapshotCache.Store(objects)
	r.snapshotDirty.Store(false)
	return objects
}
