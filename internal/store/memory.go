package store

import (
	"sync"

	"github.com/desertthunder/pinmap/internal/models"
)

// MemoryBackend keeps state in process memory. It backs stores that need no persistence.
type MemoryBackend struct {
	mu      sync.Mutex
	markers []models.Marker
	lists   map[string]*models.PlaceList
	order   []string
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{lists: make(map[string]*models.PlaceList)}
}

func (b *MemoryBackend) LoadMarkers() ([]models.Marker, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.CloneMarkers(b.markers), nil
}

func (b *MemoryBackend) SaveMarkers(markers []models.Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markers = models.CloneMarkers(markers)
	return nil
}

func (b *MemoryBackend) LoadLists() ([]*models.PlaceList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lists := make([]*models.PlaceList, 0, len(b.order))
	for _, name := range b.order {
		lists = append(lists, b.lists[name].Clone())
	}
	return lists, nil
}

func (b *MemoryBackend) SaveList(list *models.PlaceList) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.lists[list.Name]; !ok {
		b.order = append(b.order, list.Name)
	}
	b.lists[list.Name] = list.Clone()
	return nil
}

func (b *MemoryBackend) DeleteList(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.lists[name]; !ok {
		return nil
	}
	delete(b.lists, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}
