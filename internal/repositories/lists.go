package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
)

// ListRepository implements models.Repository[*models.PlaceList] for saved marker lists.
//
// Each list is one row holding its markers as a JSON array. Saving under an existing name replaces the
// markers and timestamp but keeps the original sequence number.
type ListRepository struct {
	db *sql.DB
}

// NewListRepository creates a new ListRepository with the given database connection
func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db}
}

var _ models.Repository[*models.PlaceList] = (*ListRepository)(nil)

// Upsert inserts list or replaces the list with the same name.
func (r *ListRepository) Upsert(list *models.PlaceList) error {
	if err := list.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(list.Markers)
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM place_lists WHERE name = ?)", list.Name).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check list: %w", err)
	}

	sequence := 0
	if !exists {
		if sequence, err = nextSequence(tx, "place_lists"); err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
	}

	query := `
		INSERT INTO place_lists (name, sequence, markers, marker_count, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			markers = excluded.markers,
			marker_count = excluded.marker_count,
			saved_at = excluded.saved_at
	`

	if _, err := tx.Exec(query, list.Name, sequence, string(payload), len(list.Markers), list.SavedAt.UTC()); err != nil {
		return fmt.Errorf("failed to upsert list: %w", err)
	}

	return tx.Commit()
}

// Get retrieves a list by name.
func (r *ListRepository) Get(name string) (*models.PlaceList, error) {
	row := r.db.QueryRow("SELECT name, markers, saved_at FROM place_lists WHERE name = ?", name)

	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: list %q", shared.ErrNotFound, name)
	}
	return list, err
}

// Delete removes the list with name. Deleting a missing list is not an error.
func (r *ListRepository) Delete(name string) error {
	if _, err := r.db.Exec("DELETE FROM place_lists WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// All returns every list in the order it was first saved.
func (r *ListRepository) All() ([]*models.PlaceList, error) {
	rows, err := r.db.Query("SELECT name, markers, saved_at FROM place_lists ORDER BY sequence ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	lists := []*models.PlaceList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*models.PlaceList, error) {
	var (
		list    models.PlaceList
		payload string
	)

	if err := row.Scan(&list.Name, &payload, &list.SavedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan list: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &list.Markers); err != nil {
		return nil, fmt.Errorf("failed to decode markers for list %q: %w", list.Name, err)
	}
	if list.Markers == nil {
		list.Markers = []models.Marker{}
	}
	list.SavedAt = list.SavedAt.UTC()
	return &list, nil
}
