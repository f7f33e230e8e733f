package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrLayoutNotFound is returned when no layout is stored under a name.
	ErrLayoutNotFound = errors.New("layout not found")
	// ErrChecksumMismatch is returned when a stored blob does not match its checksum.
	ErrChecksumMismatch = errors.New("layout checksum mismatch")
)

// Layout is one stored save stream.
type Layout struct {
	Name      string
	Blob      []byte
	Entities  int
	UpdatedAt time.Time
}

// LayoutInfo describes a stored layout without its blob.
type LayoutInfo struct {
	Name      string
	Size      int
	Entities  int
	UpdatedAt time.Time
}

// LayoutRepository stores the save streams of seed volumes, one row per volume.
type LayoutRepository struct {
	pool *pgxpool.Pool
}

// NewLayoutRepository creates a new layout repository.
func NewLayoutRepository(pool *pgxpool.Pool) *LayoutRepository {
	return &LayoutRepository{pool: pool}
}

// Checksum returns the BLAKE2b-256 digest stored beside every blob.
func Checksum(blob []byte) []byte {
	sum := blake2b.Sum256(blob)
	return sum[:]
}

// Save upserts the layout of a volume. It reports false when the stored
// blob is identical and nothing was written.
func (r *LayoutRepository) Save(ctx context.Context, name string, blob []byte, entities int) (bool, error) {
	sum := Checksum(blob)

	var stored []byte
	err := r.pool.QueryRow(ctx, `SELECT checksum FROM seed_layouts WHERE name = $1`, name).Scan(&stored)
	switch {
	case err == nil:
		if bytes.Equal(stored, sum) {
			return false, nil
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return false, fmt.Errorf("reading checksum of layout %q: %w", name, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO seed_layouts (name, blob, checksum, entities, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE
		SET blob = EXCLUDED.blob,
		    checksum = EXCLUDED.checksum,
		    entities = EXCLUDED.entities,
		    updated_at = EXCLUDED.updated_at`,
		name, blob, sum, entities,
	)
	if err != nil {
		return false, fmt.Errorf("saving layout %q: %w", name, err)
	}

	slog.Debug("layout stored", "seed", name, "bytes", len(blob), "entities", entities)
	return true, nil
}

// Load returns the layout stored under name and verifies its checksum.
func (r *LayoutRepository) Load(ctx context.Context, name string) (*Layout, error) {
	var (
		l   Layout
		sum []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT name, blob, checksum, entities, updated_at FROM seed_layouts WHERE name = $1`, name,
	).Scan(&l.Name, &l.Blob, &sum, &l.Entities, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loading layout %q: %w", name, ErrLayoutNotFound)
		}
		return nil, fmt.Errorf("loading layout %q: %w", name, err)
	}

	if !bytes.Equal(sum, Checksum(l.Blob)) {
		return nil, fmt.Errorf("loading layout %q: %w", name, ErrChecksumMismatch)
	}
	return &l, nil
}

// Delete removes the layout stored under name.
func (r *LayoutRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM seed_layouts WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting layout %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting layout %q: %w", name, ErrLayoutNotFound)
	}
	return nil
}

// List returns every stored layout ordered by name.
func (r *LayoutRepository) List(ctx context.Context) ([]LayoutInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, octet_length(blob), entities, updated_at
		FROM seed_layouts
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing layouts: %w", err)
	}
	defer rows.Close()

	var out []LayoutInfo
	for rows.Next() {
		var li LayoutInfo
		if err := rows.Scan(&li.Name, &li.Size, &li.Entities, &li.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning layout row: %w", err)
		}
		out = append(out, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating layout rows: %w", err)
	}
	return out, nil
}
