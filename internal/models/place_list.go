package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/pinmap/internal/shared"
)

// PlaceList is a named snapshot of the marker collection.
type PlaceList struct {
	Name    string    `json:"name"`
	Markers []Marker  `json:"markers"`
	SavedAt time.Time `json:"savedAt"`
}

// NewPlaceList captures a deep copy of markers under name.
func NewPlaceList(name string, markers []Marker, savedAt time.Time) *PlaceList {
	return &PlaceList{
		Name:    strings.TrimSpace(name),
		Markers: CloneMarkers(markers),
		SavedAt: savedAt,
	}
}

// Validate checks the list name and every marker.
func (l *PlaceList) Validate() error {
	if l == nil || strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: list name is required", shared.ErrInvalidInput)
	}
	for i, m := range l.Markers {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("marker %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the list.
func (l *PlaceList) Clone() *PlaceList {
	return NewPlaceList(l.Name, l.Markers, l.SavedAt)
}

// Summary returns the list without its markers.
func (l *PlaceList) Summary() PlaceListSummary {
	return PlaceListSummary{Name: l.Name, MarkerCount: len(l.Markers), SavedAt: l.SavedAt}
}

// PlaceListSummary describes a saved list without its markers.
type PlaceListSummary struct {
	Name        string    `json:"name"`
	MarkerCount int       `json:"markerCount"`
	SavedAt     time.Time `json:"savedAt"`
}
