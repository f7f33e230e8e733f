package spawn

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTickInterval is the frame length used when none is configured.
const DefaultTickInterval = 50 * time.Millisecond

// Thinker is stepped once per tick.
type Thinker interface {
	Think(now time.Time)
}

// TickManager drives registered thinkers from a single ticker. Thinkers are
// stepped sequentially, so one thinker never overlaps with itself.
type TickManager struct {
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	thinkers map[string]Thinker
	order    []string
	count    atomic.Int32
	ticks    atomic.Int64
}

// NewTickManager creates a tick manager. interval <= 0 uses DefaultTickInterval.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickManager{
		interval: interval,
		stopCh:   make(chan struct{}),
		thinkers: make(map[string]Thinker),
	}
}

// Register adds or replaces the thinker stored under name.
func (m *TickManager) Register(name string, t Thinker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.thinkers[name]; !ok {
		m.order = append(m.order, name)
		m.count.Add(1)
	}
	m.thinkers[name] = t

	slog.Debug("thinker registered", "name", name)
}

// Unregister removes a thinker.
func (m *TickManager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.thinkers[name]; !ok {
		return
	}
	delete(m.thinkers, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.count.Add(-1)

	slog.Debug("thinker unregistered", "name", name)
}

// Start runs the tick loop (blocks until ctx is canceled or Stop is called).
func (m *TickManager) Start(ctx context.Context) error {
	m.ticker = time.NewTicker(m.interval)
	defer m.ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval, "thinkers", m.Count())

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped")
			return nil

		case now := <-m.ticker.C:
			m.Tick(now)
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Tick steps every registered thinker in registration order.
func (m *TickManager) Tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.order {
		m.thinkers[name].Think(now)
	}
	m.ticks.Add(1)
}

// Count returns the number of registered thinkers.
func (m *TickManager) Count() int {
	return int(m.count.Load())
}

// Ticks returns how many ticks ran so far.
func (m *TickManager) Ticks() int64 {
	return m.ticks.Load()
}
