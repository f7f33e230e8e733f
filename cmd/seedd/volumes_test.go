package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seed/internal/config"
	"github.com/udisondev/seed/internal/db"
	"github.com/udisondev/seed/internal/defs"
	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/seed"
	"github.com/udisondev/seed/internal/testutil"
	"github.com/udisondev/seed/internal/world"
)

type memStore struct {
	blobs   map[string][]byte
	saveErr error
}

func newMemStore() *memStore { return &memStore{blobs: make(map[string][]byte)} }

func (s *memStore) Save(_ context.Context, name string, blob []byte, _ int) (bool, error) {
	if s.saveErr != nil {
		return false, s.saveErr
	}
	if bytes.Equal(s.blobs[name], blob) {
		return false, nil
	}
	s.blobs[name] = bytes.Clone(blob)
	return true, nil
}

func (s *memStore) Load(_ context.Context, name string) (*db.Layout, error) {
	b, ok := s.blobs[name]
	if !ok {
		return nil, db.ErrLayoutNotFound
	}
	return &db.Layout{Name: name, Blob: b}, nil
}

func testVolumes() []config.Volume {
	return []config.Volume{
		{
			Name:   "seed_rocks",
			Origin: [3]float64{0, 0, 100},
			Size:   [3]float64{200, 200, 200},
			Args:   map[string]string{"randseed": "7", "max_entities": "12", "combine": "0"},
			Classes: []config.Class{
				{Name: "rock_1", Def: "rock"},
			},
		},
		{
			Name:   "seed_bushes",
			Origin: [3]float64{1000, 0, 100},
			Size:   [3]float64{200, 200, 200},
			Yaw:    45,
			Args:   map[string]string{"randseed": "9", "max_entities": "8", "combine": "0"},
			Classes: []config.Class{
				{Name: "bush_1", Def: "bush", Args: map[string]string{"scale_min": "0.5"}},
			},
			Inhibitors: []config.Inhibitor{
				{Name: "road", Origin: [3]float64{1000, 0, 100}, Size: [3]float64{40, 200, 200}, Yaw: 10,
					Args: map[string]string{"inhibit": "bush"}},
			},
		},
	}
}

func testHost() seed.Host {
	w := world.New(config.World{
		RegionSize:     2048,
		DefaultSurface: "stone",
		Models: []config.Model{
			{Name: "models/rock.lwo", Size: [3]float64{16, 16, 8}, Capacity: 10},
			{Name: "models/bush.lwo", Size: [3]float64{24, 24, 32}, Capacity: 10},
		},
	}, 0)
	w.SetObserver(geom.V(0, 0, 100))
	return seed.Host{
		Runtime:    w,
		Geometry:   w,
		Tracer:     w,
		Visibility: w,
		Observer:   w,
		Quality:    w,
		Definitions: defs.NewTable([]defs.Definition{
			{Name: "rock", Category: "static", Model: "models/rock.lwo", Size: geom.V(16, 16, 8)},
			{Name: "bush", Category: "generic", Model: "models/bush.lwo", Size: geom.V(24, 24, 32)},
		}),
		Now: func() time.Time { return time.Unix(1_700_000_000, 0) },
	}
}

func TestVolumeConfig(t *testing.T) {
	cfg := volumeConfig(testVolumes()[1], 3)

	assert.Equal(t, "seed_bushes", cfg.Name)
	assert.Equal(t, 3, cfg.EntityNum)
	assert.Equal(t, geom.V(1000, 0, 100), cfg.Origin)
	assert.Equal(t, 45.0, cfg.Angles.Yaw)
	assert.Equal(t, "9", cfg.Args["randseed"])

	require.Len(t, cfg.Classes, 1)
	assert.Equal(t, "bush_1", cfg.Classes[0].Name)
	assert.Equal(t, "bush", cfg.Classes[0].DefName)
	assert.Equal(t, "0.5", cfg.Classes[0].Args["scale_min"])

	require.Len(t, cfg.Inhibitors, 1)
	assert.Equal(t, "road", cfg.Inhibitors[0].Name)
	assert.Equal(t, 10.0, cfg.Inhibitors[0].Angles.Yaw)
	assert.Equal(t, geom.V(40, 200, 200), cfg.Inhibitors[0].Size)
}

func TestBuildVolumes(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		vols, err := buildVolumes(testVolumes(), testHost())
		require.NoError(t, err)
		require.Len(t, vols, 2)
		assert.Equal(t, "seed_rocks", vols[0].Name())
		assert.Equal(t, "seed_bushes", vols[1].Name())
	})

	t.Run("duplicate name", func(t *testing.T) {
		list := testVolumes()
		list[1].Name = list[0].Name
		_, err := buildVolumes(list, testHost())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "defined twice")
	})
}

func TestSaveRestoreVolumes(t *testing.T) {
	ctx := testutil.ContextWithTimeout(t, 5*time.Second)
	store := newMemStore()

	vols, err := buildVolumes(testVolumes(), testHost())
	require.NoError(t, err)
	for _, v := range vols {
		require.NoError(t, v.Prepare())
	}

	written, err := saveVolumes(ctx, store, vols)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	// повторное сохранение без изменений ничего не пишет
	written, err = saveVolumes(ctx, store, vols)
	require.NoError(t, err)
	assert.Zero(t, written)

	fresh, err := buildVolumes(testVolumes(), testHost())
	require.NoError(t, err)
	assert.Equal(t, 2, restoreVolumes(ctx, store, fresh))

	for i := range vols {
		assert.Equal(t, vols[i].Instances(), fresh[i].Instances(), vols[i].Name())
	}
}

func TestRestoreVolumes_Fallbacks(t *testing.T) {
	ctx := testutil.ContextWithTimeout(t, 5*time.Second)
	store := newMemStore()
	store.blobs["seed_bushes"] = []byte("garbage")

	vols, err := buildVolumes(testVolumes(), testHost())
	require.NoError(t, err)

	assert.Zero(t, restoreVolumes(ctx, store, vols))
	for _, v := range vols {
		assert.Empty(t, v.Instances())
	}
}

func TestSaveVolumes_StoreError(t *testing.T) {
	store := newMemStore()
	store.saveErr = testutil.ErrSimulated

	vols, err := buildVolumes(testVolumes(), testHost())
	require.NoError(t, err)

	_, err = saveVolumes(context.Background(), store, vols)
	require.ErrorIs(t, err, testutil.ErrSimulated)
	assert.Contains(t, err.Error(), "seed_rocks")
}

func TestSaveLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := testutil.ContextWithCancel(t)
	store := newMemStore()
	vols, err := buildVolumes(testVolumes()[:1], testHost())
	require.NoError(t, err)
	require.NoError(t, vols[0].Prepare())

	done := make(chan error, 1)
	go func() { done <- saveLoop(ctx, store, vols, 5*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("save loop did not stop")
	}
	assert.Contains(t, store.blobs, "seed_rocks")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}
