package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PlaceCacheRepository caches provider detail payloads in sqlite.
//
// Entries older than the TTL are treated as misses and removed on read.
type PlaceCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewPlaceCacheRepository creates a cache whose entries live for ttl. A zero ttl keeps entries forever.
func NewPlaceCacheRepository(db *sql.DB, ttl time.Duration) *PlaceCacheRepository {
	return &PlaceCacheRepository{db: db, ttl: ttl, now: time.Now}
}

// Get returns the payload cached under key.
func (r *PlaceCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		payload  string
		cachedAt time.Time
	)

	err := r.db.QueryRowContext(ctx, "SELECT payload, cached_at FROM place_cache WHERE query = ?", key).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read place cache: %w", err)
	}

	if r.expired(cachedAt) {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM place_cache WHERE query = ?", key); err != nil {
			return nil, false, fmt.Errorf("failed to evict place cache entry: %w", err)
		}
		return nil, false, nil
	}
	return []byte(payload), true, nil
}

// Put stores payload under key, replacing any previous entry.
func (r *PlaceCacheRepository) Put(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO place_cache (query, payload, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at
	`, key, string(payload), r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write place cache: %w", err)
	}
	return nil
}

// Purge deletes every expired entry and returns how many were removed.
func (r *PlaceCacheRepository) Purge(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM place_cache WHERE cached_at < ?", r.now().Add(-r.ttl).UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge place cache: %w", err)
	}
	return result.RowsAffected()
}

func (r *PlaceCacheRepository) expired(cachedAt time.Time) bool {
	return r.ttl > 0 && r.now().Sub(cachedAt) > r.ttl
}
