package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/pinmap/internal/models"
)

// MarkerRepository persists the live marker collection.
//
// The collection is always written as a whole so the table mirrors the in-memory order exactly.
type MarkerRepository struct {
	db *sql.DB
}

// NewMarkerRepository creates a new MarkerRepository with the given database connection
func NewMarkerRepository(db *sql.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// ReplaceAll replaces the stored collection with markers in a single transaction.
func (r *MarkerRepository) ReplaceAll(markers []models.Marker) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM markers"); err != nil {
		return fmt.Errorf("failed to clear markers: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO markers (id, position, name, lat, lng, address, rating, total_ratings, open_now, website, phone, tags, photo_reference, place_id, source_query, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range markers {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		tags, err := json.Marshal(tagsOrEmpty(m.Tags))
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}

		_, err = stmt.Exec(
			m.ID,
			i,
			m.Name,
			m.Coordinates.Lat,
			m.Coordinates.Lng,
			m.Address,
			m.Rating,
			m.TotalRatings,
			openNowValue(m.IsOpenNow),
			m.Website,
			m.Phone,
			string(tags),
			m.PhotoReference,
			m.PlaceID,
			m.SourceQuery,
			m.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert marker %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit markers: %w", err)
	}
	return nil
}

// All returns the stored collection in position order.
func (r *MarkerRepository) All() ([]models.Marker, error) {
	rows, err := r.db.Query(`
		SELECT id, name, lat, lng, address, rating, total_ratings, open_now, website, phone, tags, photo_reference, place_id, source_query, created_at
		FROM markers
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query markers: %w", err)
	}
	defer rows.Close()

	markers := []models.Marker{}
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		markers = append(markers, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return markers, nil
}

// Count returns the number of stored markers.
func (r *MarkerRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM markers").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count markers: %w", err)
	}
	return n, nil
}

// scanRow scans a single row into a [models.Marker]
func (r *MarkerRepository) scanRow(rows *sql.Rows) (*models.Marker, error) {
	var (
		m       models.Marker
		openNow sql.NullBool
		tags    string
	)

	err := rows.Scan(
		&m.ID,
		&m.Name,
		&m.Coordinates.Lat,
		&m.Coordinates.Lng,
		&m.Address,
		&m.Rating,
		&m.TotalRatings,
		&openNow,
		&m.Website,
		&m.Phone,
		&tags,
		&m.PhotoReference,
		&m.PlaceID,
		&m.SourceQuery,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan marker: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", m.ID, err)
	}
	if len(m.Tags) == 0 {
		m.Tags = nil
	}

	if openNow.Valid {
		m.IsOpenNow = models.OpenStateOf(&openNow.Bool)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func openNowValue(s models.OpenState) sql.NullBool {
	if b := s.Bool(); b != nil {
		return sql.NullBool{Bool: *b, Valid: true}
	}
	return sql.NullBool{}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
