package registry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seed/internal/defs"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/host"
	"github.com/udisondev/seed/internal/model"
	"github.com/udisondev/seed/internal/spawnargs"
	"github.com/udisondev/seed/internal/testutil"
)

func testDefs() *defs.Table {
	return defs.NewTable([]defs.Definition{
		{Name: "rock", Category: "static", Model: "models/rock.lwo", Size: geom.V(16, 16, 8)},
		{Name: "bush", Category: "generic", Model: "models/bush.lwo", Size: geom.V(24, 24, 32),
			Args: spawnargs.Dict{"hide_distance": "1000", "lod_1_distance": "200", "model_lod_1": "models/bush_lod.lwo"}},
		{Name: "crate", Category: "movable", Model: "models/crate.lwo", Size: geom.V(32, 32, 32)},
		{Name: "door", Category: "door", Model: "models/door.lwo", Size: geom.V(4, 48, 96)},
	})
}

func newTestRegistry(t *testing.T, vol spawnargs.Dict) (*Registry, *testutil.GeometryStore) {
	t.Helper()
	store := testutil.NewGeometryStore()
	store.AddModel("models/rock.lwo", geom.V(16, 16, 8), 10)
	store.AddModel("models/bush.lwo", geom.V(24, 24, 32), 10)
	store.AddModel("inline_1", geom.V(20, 20, 20), 4)
	r := New(testDefs(), store, testutil.Images{"dens": testutil.UniformMap(4, 4, 128)}, Options{Name: "seed_1", Args: vol})
	return r, store
}

func TestSkinsDeduplicated(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "bush", Args: spawnargs.Dict{"random_skin": "red, green, ''"}}))
	require.NoError(t, r.AddClass(Template{Name: "b", DefName: "bush", Args: spawnargs.Dict{"skin": "red"}}))

	assert.Equal(t, []string{"", "red", "green"}, r.Skins().Names())
	assert.Equal(t, []int{0, 1, 2, 0}, r.Class(0).Skins)
	assert.Equal(t, []int{1}, r.Class(1).Skins)
}

func TestSplitRandomList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"a", []string{"a"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{"a,'',b", []string{"a", "", "b"}},
		{"a,,b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRandomList(tt.in))
		})
	}
}

func TestParseFalloff(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	tests := []struct {
		name       string
		args       spawnargs.Dict
		wantKind   model.Falloff
		wantFactor float64
	}{
		{"default none", nil, model.FalloffNone, 0},
		{"linear", spawnargs.Dict{"seed_falloff": "linear"}, model.FalloffLinear, 0},
		{"unknown falls back to none", spawnargs.Dict{"seed_falloff": "liner"}, model.FalloffNone, 0},
		{"power default factor", spawnargs.Dict{"seed_falloff": "power"}, model.FalloffPower, 2},
		{"power factor kept", spawnargs.Dict{"seed_falloff": "power", "seed_func_a": "3.5"}, model.FalloffPower, 3.5},
		{"root factor clamped", spawnargs.Dict{"seed_falloff": "root", "seed_func_a": "1"}, model.FalloffRoot, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, factor := r.ParseFalloff(spawnargs.Layers{tt.args}, "none", "2", "test")
			assert.Equal(t, tt.wantKind, f)
			assert.Equal(t, tt.wantFactor, factor)
		})
	}
}

func TestFuncFalloffInvalidClampIsError(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	err := r.AddClass(Template{Name: "a", DefName: "bush", Args: spawnargs.Dict{
		"seed_falloff": "func",
		"seed_func_f":  "wrap",
	}})
	require.ErrorIs(t, err, ErrInvalidFunction)
	assert.Equal(t, 0, r.Len())
}

func TestFuncFalloffParsed(t *testing.T) {
	r, _ := newTestRegistry(t, spawnargs.Dict{"func_min": "-1", "func_max": "2"})

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "bush", Args: spawnargs.Dict{
		"seed_falloff": "func",
		"seed_func_Xt": "X*X",
		"seed_func_f":  "zeroclamp",
	}}))
	c := r.Class(0)
	assert.Equal(t, model.FalloffFunc, c.Falloff)
	assert.Equal(t, model.FuncSquared, c.Func.XPow)
	assert.Equal(t, model.FuncLinear, c.Func.YPow)
	assert.Equal(t, 0.0, c.Func.Min)
	assert.Equal(t, 1.0, c.Func.Max)
	assert.False(t, c.Func.Clamp)
}

func TestUnknownDefinition(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	err := r.AddClass(Template{Name: "a", DefName: "bushh"})
	require.ErrorIs(t, err, ErrUnknownDefinition)
	assert.Contains(t, err.Error(), "did you mean bush?")
}

func TestScaleVariant(t *testing.T) {
	tests := []struct {
		name string
		args spawnargs.Dict
		want model.Scale
	}{
		{"default is per axis", nil, model.PerAxisScale(geom.V(1, 1, 1), geom.V(1, 1, 1))},
		{"uniform", spawnargs.Dict{"seed_scale_min": "0.5", "seed_scale_max": "2"}, model.UniformScale(0.5, 2)},
		{"uniform with vector max uses z", spawnargs.Dict{"seed_scale_min": "0.5", "seed_scale_max": "1 1 3"}, model.UniformScale(0.5, 3)},
		{"per axis", spawnargs.Dict{"seed_scale_min": "1 1 0.5", "seed_scale_max": "2 2 1"}, model.PerAxisScale(geom.V(1, 1, 0.5), geom.V(2, 2, 1))},
		{"per axis max clamped", spawnargs.Dict{"seed_scale_min": "1 1 1", "seed_scale_max": "0.5"}, model.PerAxisScale(geom.V(1, 1, 1), geom.V(1, 1, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t, nil)
			require.NoError(t, r.AddClass(Template{Name: "a", DefName: "bush", Args: tt.args}))
			assert.Equal(t, tt.want, r.Class(0).Scale)
		})
	}
}

func TestDistanceThresholds(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "bush"}))
	require.NoError(t, r.AddClass(Template{Name: "b", DefName: "rock"}))

	bush := r.Class(0)
	assert.Equal(t, 1150.0*1150.0, bush.CullDistSq)
	assert.Equal(t, 1075.0*1075.0, bush.SpawnDistSq)
	require.NotNil(t, bush.LOD)
	assert.Len(t, bush.LOD.Stages, 1)

	rock := r.Class(1)
	assert.Zero(t, rock.CullDistSq)
	assert.Zero(t, rock.SpawnDistSq)
	assert.Nil(t, rock.LOD)
}

func TestHeightBandForcesFloor(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "bush", Args: spawnargs.Dict{
		"seed_z_min":     "0",
		"seed_z_max":     "100",
		"seed_z_fadein":  "-5",
		"seed_z_fadeout": "80",
	}}))
	c := r.Class(0)
	assert.True(t, c.Floor)
	assert.Equal(t, 0.0, c.Band.FadeIn)
	assert.Equal(t, 80.0, c.Band.FadeOut)
}

func TestHeightBandMaxBelowMin(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "bush", Args: spawnargs.Dict{
		"seed_z_min": "50",
		"seed_z_max": "10",
	}}))
	assert.Equal(t, 50.0, r.Class(0).Band.Max)
}

func TestCombinability(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock"}))
	require.NoError(t, r.AddClass(Template{Name: "b", DefName: "door"}))
	require.NoError(t, r.AddClass(Template{Name: "c", DefName: "rock", Args: spawnargs.Dict{"seed_combine": "0"}}))
	require.NoError(t, r.AddClass(Template{Name: "d", DefName: "crate"}))

	assert.True(t, r.Class(0).Combinable())
	assert.False(t, r.Class(1).Combinable())
	assert.False(t, r.Class(2).Combinable())
	assert.False(t, r.Class(3).Combinable())
	assert.True(t, r.Class(3).Movable)
}

func TestImageDensityScalesAvgSize(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock"}))
	require.NoError(t, r.AddClass(Template{Name: "b", DefName: "rock", Args: spawnargs.Dict{"seed_map": "dens"}}))
	require.NoError(t, r.AddClass(Template{Name: "c", DefName: "rock", Args: spawnargs.Dict{"seed_map": "missing"}}))

	plain, mapped, missing := r.Class(0), r.Class(1), r.Class(2)
	assert.Equal(t, 256.0, plain.AvgSize)
	assert.InDelta(t, 512.0, mapped.AvgSize, 1e-9)
	require.NotNil(t, mapped.Image)
	assert.Nil(t, missing.Image)
	assert.Equal(t, plain.AvgSize, missing.AvgSize)
}

func TestEllipticFalloffEnlargesAvgSize(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock", Args: spawnargs.Dict{"seed_falloff": "cutoff"}}))
	assert.InDelta(t, 256*4/math.Pi, r.Class(0).AvgSize, 1e-9)
}

func TestStaticClassUsesDummyWhenCombining(t *testing.T) {
	store := testutil.NewGeometryStore()
	r := New(testDefs(), store, nil, Options{Name: "seed_1", Combine: true})

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock"}))
	assert.Equal(t, DummyClass, r.Class(0).ClassName)
	assert.Equal(t, "rock", r.Class(0).DefName)
}

func TestInlineTemplateOwnsGeometry(t *testing.T) {
	r, store := newTestRegistry(t, nil)

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock", Inline: true, ModelName: "inline_1"}))
	c := r.Class(0)
	assert.Equal(t, DummyClass, c.ClassName)
	assert.Equal(t, "inline_1", c.OwnedModel)
	assert.Equal(t, "inline_1", c.ClipModel)
	assert.Equal(t, 2, store.Outstanding())

	r.Release()
	r.Release()
	assert.Equal(t, 0, store.Outstanding())
	assert.Zero(t, store.DoubleRelease)
}

func TestInlineTemplateMissingGeometry(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	err := r.AddClass(Template{Name: "a", DefName: "rock", Inline: true, ModelName: "nope"})
	require.ErrorIs(t, err, ErrGeometry)
}

// noCollisionStore resolves models but fails every collision load.
type noCollisionStore struct {
	*testutil.GeometryStore
}

func (noCollisionStore) LoadCollision(string) (host.Collision, error) {
	return nil, testutil.ErrSimulated
}

func TestInlineTemplateCollisionFailureReleasesModel(t *testing.T) {
	store := testutil.NewGeometryStore()
	store.AddModel("inline_1", geom.V(20, 20, 20), 4)
	r := New(testDefs(), noCollisionStore{store}, nil, Options{Name: "seed_1"})

	err := r.AddClass(Template{Name: "a", DefName: "rock", Inline: true, ModelName: "inline_1"})
	require.ErrorIs(t, err, ErrGeometry)
	require.ErrorIs(t, err, testutil.ErrSimulated)
	assert.Zero(t, r.Len())

	r.Release()
	assert.Zero(t, store.Outstanding())
	assert.Zero(t, store.DoubleRelease)
}

func TestDropSyntheticReleases(t *testing.T) {
	r, store := newTestRegistry(t, nil)
	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock"}))

	g, err := store.Resolve("inline_1")
	require.NoError(t, err)
	syn := &model.PlacementClass{ClassName: DummyClass}
	syn.SetModel(g)
	idx := r.AppendSynthetic(syn)
	assert.Equal(t, 1, idx)
	assert.True(t, r.Class(idx).Synthetic)

	r.DropSynthetic()
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, store.Outstanding())
}

func TestRebindRestoresOwnedGeometry(t *testing.T) {
	r, store := newTestRegistry(t, nil)

	c := &model.PlacementClass{ClassName: DummyClass, OwnedModel: "inline_1", ClipModel: "inline_1",
		Composite: &model.Composite{Shapes: []model.SubShape{{Model: "models/rock.lwo"}, {Model: "missing"}}}}
	r.Replace([]*model.PlacementClass{c}, nil, []string{"", "red"})
	r.Rebind()

	assert.NotNil(t, c.Model())
	assert.NotNil(t, c.Clip())
	require.Len(t, c.Composite.Handles(), 2)
	assert.NotNil(t, c.Composite.Handles()[0])
	assert.Nil(t, c.Composite.Handles()[1], "handles stay aligned with shapes")
	assert.Equal(t, 3, store.Outstanding())
	assert.Equal(t, "red", r.Skins().Name(1))

	r.Release()
	assert.Equal(t, 0, store.Outstanding())
}

func TestAddInhibitor(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	tests := []struct {
		name        string
		args        spawnargs.Dict
		inhibitOnly bool
		names       []string
		falloff     model.Falloff
		factor      float64
	}{
		{"all classes", spawnargs.Dict{}, false, nil, model.FalloffNone, 0},
		{"inhibit only listed", spawnargs.Dict{"inhibit": "rock", "inhibit_1": "bush"}, true, []string{"rock", "bush"}, model.FalloffNone, 0},
		{"noinhibit listed", spawnargs.Dict{"noinhibit": "rock"}, false, []string{"rock"}, model.FalloffNone, 0},
		{"own falloff overrides", spawnargs.Dict{"falloff": "linear", "seed_falloff": "power", "seed_func_a": "4"}, false, nil, model.FalloffPower, 4},
		{"func not allowed", spawnargs.Dict{"seed_falloff": "func"}, false, nil, model.FalloffNone, 0},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.AddInhibitor(InhibitorTemplate{Name: tt.name, Size: geom.V(10, 10, 10), Args: tt.args})
			in := r.Inhibitors()[i]
			assert.Equal(t, tt.inhibitOnly, in.InhibitOnly)
			assert.Equal(t, tt.names, in.ClassNames)
			assert.Equal(t, tt.falloff, in.Falloff)
			assert.Equal(t, tt.factor, in.Factor)
		})
	}
}

func TestAddSpawnClasses(t *testing.T) {
	r, _ := newTestRegistry(t, spawnargs.Dict{
		"spawn_class":   "bush",
		"spawn_skin":    "autumn, summer",
		"spawn_class_2": "tree",
		"spawn_class_3": "rock",
	})

	require.NoError(t, r.AddSpawnClasses(geom.V(1, 2, 3)))
	require.Equal(t, 2, r.Len())
	assert.Equal(t, "bush", r.Class(0).DefName)
	assert.True(t, r.Class(0).Floor)
	assert.Equal(t, []int{r.Skins().Add("autumn")}, r.Class(0).Skins)
	assert.Equal(t, "rock", r.Class(1).DefName)
	assert.Equal(t, geom.V(1, 2, 3), r.Class(1).Origin)
}

func TestRotateRangeFallsBackToVolume(t *testing.T) {
	r, _ := newTestRegistry(t, spawnargs.Dict{"rotate_min": "0 10 0", "rotate_max": "0 20 0"})

	require.NoError(t, r.AddClass(Template{Name: "a", DefName: "rock"}))
	require.NoError(t, r.AddClass(Template{Name: "b", DefName: "rock", Args: spawnargs.Dict{"seed_rotate_max": "0 90 0"}}))

	assert.Equal(t, geom.Angles{Yaw: 10}, r.Class(0).RotateMin)
	assert.Equal(t, geom.Angles{Yaw: 20}, r.Class(0).RotateMax)
	assert.Equal(t, geom.Angles{Yaw: 90}, r.Class(1).RotateMax)
}
