// Package store holds the live marker collection and the registry of saved lists.
//
// Every mutation is written through to a [Backend] before the in-memory state changes, so a failed write
// leaves memory and disk in agreement.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
)

// Backend persists the store's state.
type Backend interface {
	LoadMarkers() ([]models.Marker, error)
	SaveMarkers(markers []models.Marker) error
	LoadLists() ([]*models.PlaceList, error)
	SaveList(list *models.PlaceList) error
	DeleteList(name string) error
}

// MarkerStore is the single owner of the live marker collection and the list registry.
// It is safe for concurrent use.
type MarkerStore struct {
	mu      sync.RWMutex
	backend Backend
	markers []models.Marker
	lists   map[string]*models.PlaceList
	now     func() time.Time
}

// Open loads the live collection and the list registry from backend.
func Open(backend Backend) (*MarkerStore, error) {
	markers, err := backend.LoadMarkers()
	if err != nil {
		return nil, fmt.Errorf("failed to load markers: %w", err)
	}

	lists, err := backend.LoadLists()
	if err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}

	s := &MarkerStore{
		backend: backend,
		markers: models.CloneMarkers(markers),
		lists:   make(map[string]*models.PlaceList, len(lists)),
		now:     time.Now,
	}
	for _, l := range lists {
		s.lists[l.Name] = l.Clone()
	}
	return s, nil
}

// Markers returns a deep copy of the live collection in insertion order.
func (s *MarkerStore) Markers() []models.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneMarkers(s.markers)
}

// Len returns the number of live markers.
func (s *MarkerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Get returns the marker with id.
func (s *MarkerStore) Get(id string) (models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.markers[i].Clone(), nil
	}
	return models.Marker{}, fmt.Errorf("%w: marker %q", shared.ErrNotFound, id)
}

// Add appends m to the live collection. A marker whose id is already present is rejected.
func (s *MarkerStore) Add(m models.Marker) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(m.ID) >= 0 {
		return fmt.Errorf("%w: duplicate id %q", shared.ErrInvalidMarker, m.ID)
	}

	next := append(models.CloneMarkers(s.markers), m.Clone())
	return s.commit(next)
}

// Remove deletes the marker with id. Removing an absent id is a no-op.
func (s *MarkerStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := make([]models.Marker, 0, len(s.markers)-1)
	next = append(next, s.markers[:i]...)
	next = append(next, s.markers[i+1:]...)
	return s.commit(models.CloneMarkers(next))
}

// Clear empties the live collection.
func (s *MarkerStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit([]models.Marker{})
}

// SaveAsList snapshots the live collection under name, replacing any list with the same name.
func (s *MarkerStore) SaveAsList(name string) (*models.PlaceList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: list name is required", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := models.NewPlaceList(name, s.markers, s.now())
	if err := s.backend.SaveList(list); err != nil {
		return nil, fmt.Errorf("failed to save list: %w", err)
	}

	s.lists[name] = list
	return list.Clone(), nil
}

// LoadList replaces the live collection with a copy of the named list. The list itself is not modified.
func (s *MarkerStore) LoadList(name string) ([]models.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: list %q", shared.ErrNotFound, name)
	}

	if err := s.commit(models.CloneMarkers(list.Markers)); err != nil {
		return nil, err
	}
	return models.CloneMarkers(s.markers), nil
}

// DeleteList removes the named list. Deleting an absent list is a no-op.
func (s *MarkerStore) DeleteList(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if _, ok := s.lists[name]; !ok {
		return nil
	}

	if err := s.backend.DeleteList(name); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	delete(s.lists, name)
	return nil
}

// List returns a deep copy of the named list.
func (s *MarkerStore) List(name string) (*models.PlaceList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: list %q", shared.ErrNotFound, name)
	}
	return list.Clone(), nil
}

// Lists returns a summary of every saved list, sorted by name.
func (s *MarkerStore) Lists() []models.PlaceListSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.PlaceListSummary, 0, len(s.lists))
	for _, l := range s.lists {
		summaries = append(summaries, l.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// AllLists returns deep copies of every saved list, sorted by name.
func (s *MarkerStore) AllLists() []*models.PlaceList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lists := make([]*models.PlaceList, 0, len(s.lists))
	for _, l := range s.lists {
		lists = append(lists, l.Clone())
	}
	sort.Slice(lists, func(i, j int) bool {
		return lists[i].Name < lists[j].Name
	})
	return lists
}

// commit persists next and, only on success, makes it the live collection. Callers hold the write lock.
func (s *MarkerStore) commit(next []models.Marker) error {
	if err := s.backend.SaveMarkers(next); err != nil {
		return fmt.Errorf("failed to persist markers: %w", err)
	}
	s.markers = next
	return nil
}

func (s *MarkerStore) indexOf(id string) int {
	for i, m := range s.markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}
