package world

import (
	"sync/atomic"

	"github.com/udisondev/seed/internal/host"
)

// HandleGenerator hands out live-object handles. Zero is never returned.
type HandleGenerator struct {
	next atomic.Int32
}

// Next returns the next unique handle.
// Thread-safe via atomic increment.
func (g *HandleGenerator) Next() host.Handle {
	return host.Handle(g.next.Add(1))
}

// Last returns the most recently issued handle.
func (g *HandleGenerator) Last() host.Handle {
	return host.Handle(g.next.Load())
}
