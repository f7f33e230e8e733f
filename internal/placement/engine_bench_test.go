package placement

import (
	"testing"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/rng"
	"github.com/udisondev/seed/internal/testutil"
)

// BenchmarkPlace measures one placement cycle of 500 instances over a floor.
func BenchmarkPlace(b *testing.B) {
	e := NewEngine(testutil.FlatFloor{Z: 0}, nil, nil)
	vol := Volume{Name: "bench", Origin: geom.V(0, 0, 100), Size: geom.V(2000, 2000, 200), Axis: geom.Identity()}
	classes := []*model.PlacementClass{testClass("rock", 250), testClass("bush", 250)}
	for _, c := range classes {
		c.Floor = true
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		e.Place(Request{Volume: vol, Classes: classes, NumEntities: 500, Rand: rng.New(rng.DefaultSeed, 42)})
	}
}

// BenchmarkCollides measures the collision scan against a full cycle.
func BenchmarkCollides(b *testing.B) {
	c := &cycle{}
	class := testClass("rock", 0)
	for i := 0; i < 1000; i++ {
		origin := geom.V(float64(i%40)*20, float64(i/40)*20, 0)
		box := geom.NewBox(class.Bounds(), origin, geom.Identity())
		c.shapes = append(c.shapes, shape{bounds: box.Bounds(), box: box})
	}
	probe := geom.NewBox(class.Bounds(), geom.V(405, 205, 0), geom.Identity()).Expand(2)

	b.ResetTimer()
	for b.Loop() {
		c.collides(probe)
	}
}
