package repositories

import (
	"database/sql"

	"github.com/desertthunder/pinmap/internal/models"
)

// Backend persists the marker store's state: the live collection and the saved lists.
type Backend struct {
	Markers *MarkerRepository
	Lists   *ListRepository
}

// NewBackend creates a Backend over db.
func NewBackend(db *sql.DB) *Backend {
	return &Backend{
		Markers: NewMarkerRepository(db),
		Lists:   NewListRepository(db),
	}
}

func (b *Backend) LoadMarkers() ([]models.Marker, error) {
	return b.Markers.All()
}

func (b *Backend) SaveMarkers(markers []models.Marker) error {
	return b.Markers.ReplaceAll(markers)
}

func (b *Backend) LoadLists() ([]*models.PlaceList, error) {
	return b.Lists.All()
}

func (b *Backend) SaveList(list *models.PlaceList) error {
	return b.Lists.Upsert(list)
}

func (b *Backend) DeleteList(name string) error {
	return b.Lists.Delete(name)
}
