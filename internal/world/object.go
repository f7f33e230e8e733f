package world

import (
	"sync"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// Object is one live object of the world.
type Object struct {
	Handle host.Handle
	// Req is the request the object was spawned from.
	Req host.SpawnRequest

	mu     sync.RWMutex
	origin geom.Vec3
	angles geom.Angles
	area   int
}

// Origin returns the current position.
func (o *Object) Origin() geom.Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.origin
}

// Angles returns the current orientation.
func (o *Object) Angles() geom.Angles {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.angles
}

func (o *Object) transform() (geom.Vec3, geom.Angles, int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.origin, o.angles, o.area
}
