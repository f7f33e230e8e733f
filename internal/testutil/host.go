package testutil

import (
	"fmt"
	"sync"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
)

// ModelSpec описывает модель в GeometryStore.
type ModelSpec struct {
	Bounds   geom.Bounds
	Capacity int
}

// GeometryStore: in-memory имплементация host.GeometryStore.
// Считает выданные и освобождённые handles, чтобы тесты могли проверить
// что каждый handle освобождён ровно один раз.
type GeometryStore struct {
	mu       sync.Mutex
	models   map[string]ModelSpec
	acquired int
	released int
	// DoubleRelease counts Release calls on an already released handle.
	DoubleRelease int
}

// NewGeometryStore создаёт пустой store.
func NewGeometryStore() *GeometryStore {
	return &GeometryStore{models: make(map[string]ModelSpec)}
}

// AddModel registers a model whose bounds are centered in XY with the bottom at z=0.
func (s *GeometryStore) AddModel(name string, size geom.Vec3, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[name] = ModelSpec{Bounds: geom.BoundsFromSize(size), Capacity: capacity}
}

// Outstanding returns the number of handles not yet released.
func (s *GeometryStore) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired - s.released
}

func (s *GeometryStore) lookup(name string) (ModelSpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[name]
	if !ok {
		return ModelSpec{}, fmt.Errorf("%s: %w", name, host.ErrGeometryNotFound)
	}
	s.acquired++
	return m, nil
}

func (s *GeometryStore) release(h *handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.released {
		s.DoubleRelease++
		return
	}
	h.released = true
	s.released++
}

func (s *GeometryStore) Resolve(name string) (host.Geometry, error) {
	m, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return &handle{store: s, name: name, bounds: m.Bounds}, nil
}

func (s *GeometryStore) Duplicate(g host.Geometry, opts host.DuplicateOptions) (host.Geometry, error) {
	s.mu.Lock()
	s.acquired++
	s.mu.Unlock()
	name := opts.Name
	if name == "" {
		name = g.Name()
	}
	return &handle{store: s, name: name, bounds: g.Bounds()}, nil
}

func (s *GeometryStore) MaxMergeCount(g host.Geometry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models[g.Name()].Capacity
}

func (s *GeometryStore) LoadCollision(name string) (host.Collision, error) {
	m, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return &handle{store: s, name: name, bounds: m.Bounds}, nil
}

// handle implements both host.Geometry and host.Collision.
type handle struct {
	store    *GeometryStore
	name     string
	bounds   geom.Bounds
	released bool
}

func (h *handle) Name() string        { return h.name }
func (h *handle) Bounds() geom.Bounds { return h.bounds }
func (h *handle) Release()            { h.store.release(h) }

// LiveObject: объект, созданный через Runtime.
type LiveObject struct {
	Req    host.SpawnRequest
	Origin geom.Vec3
	Angles geom.Angles
}

// Runtime: in-memory имплементация host.Runtime с лимитом объектов.
type Runtime struct {
	mu      sync.Mutex
	Limit   int
	next    host.Handle
	objects map[host.Handle]*LiveObject
	// Removed lists every handle passed to Remove, in order.
	Removed []host.Handle
	// SpawnCalls counts every Spawn call, including rejected ones.
	SpawnCalls int
}

// NewRuntime создаёт Runtime; limit <= 0 означает без лимита.
func NewRuntime(limit int) *Runtime {
	return &Runtime{Limit: limit, objects: make(map[host.Handle]*LiveObject)}
}

func (r *Runtime) Spawn(req host.SpawnRequest) (host.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SpawnCalls++
	if r.Limit > 0 && len(r.objects) >= r.Limit {
		return 0, host.ErrSpawnLimit
	}
	r.next++
	r.objects[r.next] = &LiveObject{Req: req, Origin: req.Origin, Angles: req.Angles}
	return r.next, nil
}

func (r *Runtime) Remove(h host.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, h)
	r.Removed = append(r.Removed, h)
}

func (r *Runtime) Transform(h host.Handle) (geom.Vec3, geom.Angles, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[h]
	if !ok {
		return geom.Vec3{}, geom.Angles{}, false
	}
	return o.Origin, o.Angles, true
}

func (r *Runtime) FindByDef(defName string) []host.LiveObject {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []host.LiveObject
	for h := host.Handle(1); h <= r.next; h++ {
		o, ok := r.objects[h]
		if !ok || o.Req.DefName != defName {
			continue
		}
		out = append(out, host.LiveObject{Handle: h, Origin: o.Origin, Angles: o.Angles, Skin: o.Req.Skin})
	}
	return out
}

// Move teleports a live object, as a physics step would.
func (r *Runtime) Move(h host.Handle, origin geom.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.objects[h]; ok {
		o.Origin = origin
	}
}

// Object returns the live object behind h.
func (r *Runtime) Object(h host.Handle) (*LiveObject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[h]
	return o, ok
}

// Count returns the number of live objects.
func (r *Runtime) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// FlatFloor is a tracer for an infinite horizontal floor at Z.
type FlatFloor struct {
	Z float64
	// Surface returns the surface type at a point; nil means "" everywhere.
	Surface func(p geom.Vec3) string
}

func (f FlatFloor) TracePoint(start, end geom.Vec3, _ host.ContentMask) host.Trace {
	return f.trace(start, end)
}

func (f FlatFloor) TraceBounds(start, end geom.Vec3, _ geom.Bounds, _ host.ContentMask) host.Trace {
	return f.trace(start, end)
}

func (f FlatFloor) trace(start, end geom.Vec3) host.Trace {
	if start.Z < f.Z || end.Z > f.Z || start.Z == end.Z {
		return host.Trace{Fraction: 1, EndPos: end}
	}
	frac := (start.Z - f.Z) / (start.Z - end.Z)
	pos := start.Add(end.Sub(start).Scale(frac))
	pos.Z = f.Z
	tr := host.Trace{Fraction: frac, EndPos: pos, Normal: geom.V(0, 0, 1)}
	if f.Surface != nil {
		tr.Surface = f.Surface(pos)
	}
	return tr
}

// Visibility returns fixed areas and a switchable PVS answer.
type Visibility struct {
	mu      sync.Mutex
	AreaFn  func(b geom.Bounds) []int
	visible bool
	// Queries counts InCurrentPVS calls.
	Queries int
}

// NewVisibility returns a visibility that reports area 0 and is visible.
func NewVisibility() *Visibility {
	return &Visibility{visible: true}
}

func (v *Visibility) Areas(b geom.Bounds) []int {
	if v.AreaFn != nil {
		return v.AreaFn(b)
	}
	return []int{0}
}

func (v *Visibility) InCurrentPVS(_ []int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Queries++
	return v.visible
}

// SetVisible switches the PVS answer.
func (v *Visibility) SetVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = visible
}

// Observer is a movable point of reference with gravity along -Z.
type Observer struct {
	mu  sync.Mutex
	pos geom.Vec3
}

func NewObserver(pos geom.Vec3) *Observer { return &Observer{pos: pos} }

func (o *Observer) Origin() geom.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *Observer) GravityNormal() geom.Vec3 { return geom.V(0, 0, -1) }

// MoveTo sets the observer position.
func (o *Observer) MoveTo(p geom.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pos = p
}

// Quality is a settable quality bias.
type Quality struct {
	mu   sync.Mutex
	bias float64
}

func NewQuality(bias float64) *Quality { return &Quality{bias: bias} }

func (q *Quality) LODBias() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.bias
}

func (q *Quality) Set(bias float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bias = bias
}

// DensityMap is an in-memory 8-bit map.
type DensityMap struct {
	W, H int
	Data []uint8
}

// UniformMap returns a w*h map filled with v.
func UniformMap(w, h int, v uint8) *DensityMap {
	data := make([]uint8, w*h)
	for i := range data {
		data[i] = v
	}
	return &DensityMap{W: w, H: h, Data: data}
}

func (m *DensityMap) Width() int          { return m.W }
func (m *DensityMap) Height() int         { return m.H }
func (m *DensityMap) At(x, y int) uint8   { return m.Data[y*m.W+x] }
func (m *DensityMap) Density() float64 {
	var sum float64
	for _, v := range m.Data {
		sum += float64(v)
	}
	return sum / float64(m.W*m.H*256)
}

// Images maps names to density maps.
type Images map[string]*DensityMap

func (im Images) Image(name string) (host.DensityMap, error) {
	m, ok := im[name]
	if !ok {
		return nil, fmt.Errorf("image %s not found", name)
	}
	return m, nil
}
