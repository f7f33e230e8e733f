package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/rng"
	"github.com/udisondev/seed/internal/testutil"
)

func testClass(name string, count int) *model.PlacementClass {
	return &model.PlacementClass{
		ClassName:   name,
		DefName:     name,
		Score:       1,
		NumEntities: count,
		Size:        geom.V(10, 10, 10),
		Origin:      geom.V(0, 0, 100),
		Scale:       model.DefaultScale(),
		Skins:       []int{0},
		ColorMin:    geom.V(1, 1, 1),
		ColorMax:    geom.V(1, 1, 1),
		RotateMax:   geom.Angles{Yaw: 360},
		Band:        model.DefaultHeightBand(),
		DefaultProb: 1,
		NoCollide:   model.CollideStatic,
	}
}

func testVolume() Volume {
	return Volume{Name: "seed_test", Origin: geom.V(0, 0, 100), Size: geom.V(200, 200, 200), Axis: geom.Identity()}
}

func TestPlaceIsReproducible(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	req := func(seed int32) Request {
		return Request{
			Volume:      testVolume(),
			Classes:     []*model.PlacementClass{testClass("rock", 30), testClass("bush", 30)},
			NumEntities: 60,
			Rand:        rng.New(rng.DefaultSeed, seed),
		}
	}

	a := e.Place(req(42))
	b := e.Place(req(42))
	c := e.Place(req(43))

	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPlaceStaysInsideVolumeWithoutOverlap(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	classes := []*model.PlacementClass{testClass("rock", 40), testClass("bush", 40)}
	vol := testVolume()

	out := e.Place(Request{Volume: vol, Classes: classes, NumEntities: 50, Rand: rng.New(rng.DefaultSeed, 99)})

	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 50)
	box := vol.Box()
	for i, a := range out {
		assert.True(t, box.ContainsPoint(a.Origin), "instance %d outside volume", i)
		assert.Equal(t, model.FlagHidden, a.Flags)
		assert.Equal(t, geom.V(1, 1, 1), a.Scale)

		ba := geom.NewBox(classes[a.ClassIdx].Bounds(), a.Origin, a.Angles.ToMat3())
		for j := i + 1; j < len(out); j++ {
			b := out[j]
			bb := geom.NewBox(classes[b.ClassIdx].Bounds(), b.Origin, b.Angles.ToMat3())
			assert.False(t, ba.IntersectsBox(bb), "instances %d and %d overlap", i, j)
		}
	}
}

func TestPlaceSpacing(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	class := testClass("rock", 20)
	class.Spacing = 15
	class.NoCollide = model.CollideAll
	class.RotateMax = geom.Angles{}

	out := e.Place(Request{Volume: testVolume(), Classes: []*model.PlacementClass{class}, NumEntities: 20, Rand: rng.New(rng.DefaultSeed, 5)})

	require.NotEmpty(t, out)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			d := out[i].Origin.Sub(out[j].Origin)
			far := d.X > 25 || d.X < -25 || d.Y > 25 || d.Y < -25
			assert.True(t, far, "instances %d and %d closer than spacing", i, j)
		}
	}
}

func TestPlaceHeightBand(t *testing.T) {
	tests := []struct {
		name    string
		floorZ  float64
		wantAny bool
	}{
		{"floor above band", 150, false},
		{"floor inside band", 50, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(testutil.FlatFloor{Z: tt.floorZ}, nil, nil)
			vol := Volume{Name: "band", Origin: geom.V(0, 0, 200), Size: geom.V(200, 200, 400), Axis: geom.Identity()}
			class := testClass("grass", 20)
			class.Floor = true
			class.Band = model.HeightBand{Min: 0, Max: 100}

			out := e.Place(Request{Volume: vol, Classes: []*model.PlacementClass{class}, NumEntities: 20, Rand: rng.New(rng.DefaultSeed, 11)})

			if !tt.wantAny {
				assert.Empty(t, out)
				return
			}
			require.NotEmpty(t, out)
			for _, inst := range out {
				assert.Equal(t, tt.floorZ, inst.Origin.Z)
			}
		})
	}
}

func TestPlaceInhibitOnly(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	vol := testVolume()
	inhibitor := model.Inhibitor{
		Origin:      vol.Origin,
		Size:        geom.V(400, 400, 400),
		Box:         geom.NewBox(geom.CenteredBounds(geom.V(400, 400, 400)), vol.Origin, geom.Identity()),
		InhibitOnly: true,
		ClassNames:  []string{"foo"},
	}
	classes := []*model.PlacementClass{testClass("foo", 10), testClass("bar", 10)}

	out := e.Place(Request{Volume: vol, Classes: classes, Inhibitors: []model.Inhibitor{inhibitor}, NumEntities: 20, Rand: rng.New(rng.DefaultSeed, 3)})

	require.NotEmpty(t, out)
	for _, inst := range out {
		assert.Equal(t, 1, inst.ClassIdx, "class foo must be inhibited")
	}

	// a class that opts out ignores the inhibitor
	classes[0].NoInhibit = true
	out = e.Place(Request{Volume: vol, Classes: classes, Inhibitors: []model.Inhibitor{inhibitor}, NumEntities: 20, Rand: rng.New(rng.DefaultSeed, 3)})
	var foo int
	for _, inst := range out {
		if inst.ClassIdx == 0 {
			foo++
		}
	}
	assert.Positive(t, foo)
}

func TestPlaceMaterials(t *testing.T) {
	floor := testutil.FlatFloor{Z: 0, Surface: func(p geom.Vec3) string {
		if p.X < 0 {
			return "grass"
		}
		return "stone"
	}}
	e := NewEngine(floor, nil, nil)
	vol := Volume{Name: "mat", Origin: geom.V(0, 0, 100), Size: geom.V(200, 200, 200), Axis: geom.Identity()}
	class := testClass("flower", 30)
	class.Floor = true
	class.DefaultProb = 0
	class.Materials = []model.MaterialProb{{Name: "grass_soft", Probability: 1}}

	out := e.Place(Request{Volume: vol, Classes: []*model.PlacementClass{class}, NumEntities: 30, Rand: rng.New(rng.DefaultSeed, 17)})

	require.NotEmpty(t, out)
	for _, inst := range out {
		assert.Less(t, inst.Origin.X, 5.0)
	}
}

func TestPlaceDensityMap(t *testing.T) {
	// left half of the image is empty; the x axis is mirrored, so the
	// volume's positive x half stays empty
	m := testutil.UniformMap(2, 1, 255)
	m.Data[0] = 0
	e := NewEngine(nil, testutil.Images{"half": m}, nil)
	class := testClass("fern", 30)
	ref := model.DefaultImageRef("half")
	class.Image = &ref

	out := e.Place(Request{Volume: testVolume(), Classes: []*model.PlacementClass{class}, NumEntities: 30, Rand: rng.New(rng.DefaultSeed, 23)})

	require.NotEmpty(t, out)
	for _, inst := range out {
		assert.Less(t, inst.Origin.X, 5.0)
	}
}

func TestPlaceRespectsNumEntities(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	classes := []*model.PlacementClass{testClass("a", 5), testClass("b", 5), testClass("c", 5), testClass("d", 5)}

	out := e.Place(Request{Volume: testVolume(), Classes: classes, NumEntities: 1, Rand: rng.New(rng.DefaultSeed, 8)})
	assert.Len(t, out, 1)
}

func TestPlaceSkipsWatchAndSynthetic(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	watch := testClass("lamp", 5)
	watch.Watch = true
	syn := testClass("combined", 5)
	syn.Synthetic = true

	out := e.Place(Request{Volume: testVolume(), Classes: []*model.PlacementClass{watch, syn}, NumEntities: 10, Rand: rng.New(rng.DefaultSeed, 8)})
	assert.Empty(t, out)
}

func TestAdoptWatched(t *testing.T) {
	rt := testutil.NewRuntime(0)
	inside, err := rt.Spawn(host.SpawnRequest{DefName: "lamp", Origin: geom.V(10, 10, 100), Skin: "lit"})
	require.NoError(t, err)
	_, err = rt.Spawn(host.SpawnRequest{DefName: "lamp", Origin: geom.V(1000, 0, 100)})
	require.NoError(t, err)
	_, err = rt.Spawn(host.SpawnRequest{DefName: "chair", Origin: geom.V(0, 0, 100)})
	require.NoError(t, err)

	e := NewEngine(nil, nil, rt)
	watch := testClass("lamp", 0)
	watch.Watch = true
	skins := model.NewSkinTable()

	out := e.Place(Request{Volume: testVolume(), Classes: []*model.PlacementClass{testClass("rock", 0), watch}, Skins: skins, NumEntities: 0, Rand: rng.New(rng.DefaultSeed, 1)})

	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ClassIdx)
	assert.Equal(t, inside, out[0].Handle)
	assert.True(t, out[0].Exists())
	assert.True(t, out[0].Flags.Has(model.FlagSpawned))
	assert.Equal(t, "lit", skins.Name(out[0].SkinIdx))
}

func TestBandProbability(t *testing.T) {
	band := model.HeightBand{Min: 0, Max: 100, FadeIn: 20, FadeOut: 10}
	inverted := band
	inverted.Invert = true

	tests := []struct {
		name string
		b    model.HeightBand
		z    float64
		p    float64
		ok   bool
	}{
		{"below", band, -1, 0, false},
		{"above", band, 150, 0, false},
		{"middle", band, 50, 1, true},
		{"fade in", band, 10, 0.5, true},
		{"fade out", band, 95, 0.5, true},
		{"inverted inside", inverted, 50, 0, false},
		{"inverted far below", inverted, -100, 1, true},
		{"inverted fade in", inverted, -10, 0.5, true},
		{"inverted fade out", inverted, 105, 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := bandProbability(tt.b, tt.z, 1)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.p, p, 1e-12)
			}
		})
	}
}

func TestSurfaceProbability(t *testing.T) {
	class := &model.PlacementClass{DefaultProb: 0.3, Materials: []model.MaterialProb{
		{Name: "grass", Probability: 0.9},
		{Name: "gravel", Probability: 0.1},
	}}

	assert.Equal(t, 0.9, surfaceProbability(class, "grass"))
	assert.Equal(t, 0.9, surfaceProbability(class, "gr"))
	assert.Equal(t, 0.1, surfaceProbability(class, "grav"))
	assert.Equal(t, 0.3, surfaceProbability(class, "stone"))
	assert.Equal(t, 0.3, surfaceProbability(class, ""))
}
