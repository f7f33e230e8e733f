package db

import (
	"context"
	"testing"

	"github.com/udisondev/seed/internal/testutil"
)

// BenchmarkLayoutRepository_SaveUnchanged: повторное сохранение того же blob
// должно ограничиваться одним SELECT по checksum.
func BenchmarkLayoutRepository_SaveUnchanged(b *testing.B) {
	pool := testutil.SetupTestDB(b)
	repo := NewLayoutRepository(pool)
	ctx := context.Background()
	blob := make([]byte, 64*1024)
	if _, err := repo.Save(ctx, "seed_bench", blob, 500); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := repo.Save(ctx, "seed_bench", blob, 500); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkChecksum(b *testing.B) {
	blob := make([]byte, 64*1024)
	b.SetBytes(int64(len(blob)))
	for b.Loop() {
		_ = Checksum(blob)
	}
}
