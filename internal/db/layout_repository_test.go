package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seed/internal/testutil"
)

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("layout"))
	assert.Len(t, a, 32)
	assert.Equal(t, a, Checksum([]byte("layout")))
	assert.NotEqual(t, a, Checksum([]byte("layouT")))
}

func TestLayoutRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewLayoutRepository(pool)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Load(ctx, "seed_missing")
		require.ErrorIs(t, err, ErrLayoutNotFound)
		require.ErrorIs(t, repo.Delete(ctx, "seed_missing"), ErrLayoutNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		written, err := repo.Save(ctx, "seed_a", []byte{1, 2, 3}, 3)
		require.NoError(t, err)
		assert.True(t, written)

		l, err := repo.Load(ctx, "seed_a")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, l.Blob)
		assert.Equal(t, 3, l.Entities)
		assert.False(t, l.UpdatedAt.IsZero())
	})

	t.Run("unchanged blob is skipped", func(t *testing.T) {
		written, err := repo.Save(ctx, "seed_a", []byte{1, 2, 3}, 3)
		require.NoError(t, err)
		assert.False(t, written)

		written, err = repo.Save(ctx, "seed_a", []byte{4, 5}, 2)
		require.NoError(t, err)
		assert.True(t, written)

		l, err := repo.Load(ctx, "seed_a")
		require.NoError(t, err)
		assert.Equal(t, []byte{4, 5}, l.Blob)
	})

	t.Run("corrupt blob detected", func(t *testing.T) {
		_, err := repo.Save(ctx, "seed_b", []byte("good"), 1)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `UPDATE seed_layouts SET blob = $1 WHERE name = $2`, []byte("evil"), "seed_b")
		require.NoError(t, err)

		_, err = repo.Load(ctx, "seed_b")
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("list and delete", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "seed_a", list[0].Name)
		assert.Equal(t, 2, list[0].Size)
		assert.Equal(t, "seed_b", list[1].Name)

		require.NoError(t, repo.Delete(ctx, "seed_b"))
		list, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
