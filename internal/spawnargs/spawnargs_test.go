package spawnargs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/seed/internal/geom"
)

func TestLayers_FrontLayerWins(t *testing.T) {
	class := Dict{"seed_spacing": "4"}
	volume := Dict{"seed_spacing": "10", "seed_bunching": "0.5"}
	l := Layers{class, volume}

	assert.Equal(t, 4.0, l.Float("seed_spacing", 0))
	assert.Equal(t, 0.5, l.Float("seed_bunching", 0))
	assert.Equal(t, 7.0, l.Float("seed_missing", 7))
}

func TestLayers_NilLayerSkipped(t *testing.T) {
	l := Layers{nil, Dict{"a": "1"}}
	assert.Equal(t, 1, l.Int("a", 0))
}

func TestLayers_FloatOf(t *testing.T) {
	l := Layers{Dict{"map_scale": "2"}}

	got := l.FloatOf(1.0, "seed_map_scale_x", "seed_map_scale", "map_scale_x", "map_scale")
	assert.Equal(t, 2.0, got)

	got = l.FloatOf(1.0, "seed_map_ofs_x", "seed_map_ofs")
	assert.Equal(t, 1.0, got)
}

func TestLayers_Bool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"0", false},
		{"true", true},
		{"False", false},
		{"2.5", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l := Layers{Dict{"k": tt.in}}
			assert.Equal(t, tt.want, l.Bool("k", !tt.want))
		})
	}
}

func TestLayers_Int_AcceptsFloatText(t *testing.T) {
	l := Layers{Dict{"n": "3.7", "bad": "x"}}

	assert.Equal(t, 3, l.Int("n", 0))
	assert.Equal(t, 9, l.Int("bad", 9))
}

func TestParseVector(t *testing.T) {
	assert.Equal(t, geom.V(1, -2, 3.5), ParseVector("1 -2 3.5"))
	assert.Equal(t, geom.V(4, 0, 0), ParseVector(" 4 "))
	assert.Equal(t, geom.V(1, 2, 3), ParseVector("1 2 3 4"))
}

func TestWithPrefix_MergedAndSorted(t *testing.T) {
	l := Layers{
		Dict{"seed_material_grass": "0.5", "other": "x"},
		Dict{"seed_material_grass": "0.1", "seed_material_dirt": "1"},
	}

	got := l.WithPrefix("seed_material_")

	assert.Equal(t, []KeyValue{
		{Key: "seed_material_dirt", Value: "1"},
		{Key: "seed_material_grass", Value: "0.5"},
	}, got)
}

func TestDict_SetAllocates(t *testing.T) {
	var d Dict
	d.Set("a", "b")

	v, ok := d.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}
