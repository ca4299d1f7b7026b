package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/pinmap/internal/models"
)

// markerItem wraps [models.Marker] to implement list.Item.
type markerItem struct {
	marker models.Marker
}

func (i markerItem) FilterValue() string { return i.marker.Name }
func (i markerItem) Title() string       { return Pin(i.marker.Category()) + " " + i.marker.Name }
func (i markerItem) Description() string {
	parts := []string{}
	if i.marker.Address != "" {
		parts = append(parts, i.marker.Address)
	}
	if i.marker.Rating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f★ (%d)", i.marker.Rating, i.marker.TotalRatings))
	}
	switch i.marker.IsOpenNow {
	case models.OpenYes:
		parts = append(parts, "Open now")
	case models.OpenNo:
		parts = append(parts, "Closed")
	}
	if len(parts) == 0 {
		return i.marker.Coordinates.String()
	}
	return strings.Join(parts, " • ")
}

// listItem wraps [models.PlaceListSummary] to implement list.Item.
type listItem struct {
	summary models.PlaceListSummary
}

func (i listItem) FilterValue() string { return i.summary.Name }
func (i listItem) Title() string       { return i.summary.Name }
func (i listItem) Description() string {
	desc := fmt.Sprintf("%d places", i.summary.MarkerCount)
	if !i.summary.SavedAt.IsZero() {
		desc = fmt.Sprintf("%s • saved %s", desc, i.summary.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return desc
}
