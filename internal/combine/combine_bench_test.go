package combine

import (
	"testing"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/testutil"
)

func BenchmarkCombine(b *testing.B) {
	store := testutil.NewGeometryStore()
	store.AddModel("models/rock.lwo", geom.V(10, 10, 10), 32)

	insts := make([]model.Instance, 0, 1024)
	for x := range 32 {
		for y := range 32 {
			insts = append(insts, inst(0, float64(x)*40, float64(y)*40))
		}
	}
	e := NewEngine(store, nil)

	b.ReportAllocs()
	for b.Loop() {
		reg := &fakeRegistry{geometry: store, classes: []*model.PlacementClass{
			{ClassName: "rock", DefName: "rock", ModelName: "models/rock.lwo", Size: geom.V(10, 10, 10)},
		}}
		work := append([]model.Instance(nil), insts...)
		e.Combine(work, reg, Request{MaxDistance: 256})
		reg.release()
	}
}
