package models

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pinmap/internal/shared"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that both values are finite and within range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: non-finite value", shared.ErrInvalidCoordinates)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", shared.ErrInvalidCoordinates, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", shared.ErrInvalidCoordinates, c.Lng)
	}
	return nil
}

func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// OpenState is the tri-state "open now" flag reported by the places provider.
type OpenState int

const (
	OpenUnknown OpenState = iota
	OpenYes
	OpenNo
)

// OpenStateOf converts an optional boolean into an [OpenState].
func OpenStateOf(open *bool) OpenState {
	switch {
	case open == nil:
		return OpenUnknown
	case *open:
		return OpenYes
	default:
		return OpenNo
	}
}

// Bool returns the state as an optional boolean; nil means unknown.
func (s OpenState) Bool() *bool {
	var b bool
	switch s {
	case OpenYes:
		b = true
	case OpenNo:
		b = false
	default:
		return nil
	}
	return &b
}

func (s OpenState) String() string {
	switch s {
	case OpenYes:
		return "open"
	case OpenNo:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as true, false or null.
func (s OpenState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Bool())
}

// UnmarshalJSON decodes true, false or null.
func (s *OpenState) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	*s = OpenStateOf(b)
	return nil
}

// Marker is one point placed on the map.
type Marker struct {
	ID             string      `json:"id"`
	Coordinates    Coordinates `json:"coordinates"`
	Name           string      `json:"name"`
	Address        string      `json:"address,omitempty"`
	Rating         float64     `json:"rating,omitempty"`
	TotalRatings   int         `json:"totalRatings,omitempty"`
	IsOpenNow      OpenState   `json:"isOpenNow"`
	Website        string      `json:"website,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	PhotoReference string      `json:"photoReference,omitempty"`
	PlaceID        string      `json:"placeId,omitempty"`
	SourceQuery    string      `json:"sourceQuery,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// NewMarker builds a marker with an id derived from name, coordinates and the creation instant.
func NewMarker(name string, coords Coordinates, createdAt time.Time) Marker {
	return Marker{
		ID:          NewMarkerID(name, coords, createdAt),
		Coordinates: coords,
		Name:        name,
		CreatedAt:   createdAt,
	}
}

// NewMarkerID returns "<name>_<lat>_<lng>_<unix nanos>".
func NewMarkerID(name string, coords Coordinates, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d",
		strings.TrimSpace(name),
		strconv.FormatFloat(coords.Lat, 'f', -1, 64),
		strconv.FormatFloat(coords.Lng, 'f', -1, 64),
		at.UnixNano(),
	)
}

// Validate enforces the marker invariants.
func (m Marker) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: empty id", shared.ErrInvalidMarker)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: empty name", shared.ErrInvalidMarker)
	}
	if err := m.Coordinates.Validate(); err != nil {
		return err
	}
	if math.IsNaN(m.Rating) || m.Rating < 0 || m.Rating > 5 {
		return fmt.Errorf("%w: rating %v out of range", shared.ErrInvalidMarker, m.Rating)
	}
	if m.TotalRatings < 0 {
		return fmt.Errorf("%w: negative rating count", shared.ErrInvalidMarker)
	}
	return nil
}

// Clone returns a deep copy of the marker.
func (m Marker) Clone() Marker {
	c := m
	if m.Tags != nil {
		c.Tags = append([]string(nil), m.Tags...)
	}
	return c
}

// Category returns the display category derived from the marker's tags.
func (m Marker) Category() Category {
	return CategoryOf(m.Tags)
}

// GoogleMapsURL returns a search link for the marker's name and address.
func (m Marker) GoogleMapsURL() string {
	q := strings.TrimSpace(m.Name + " " + m.Address)
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(q)
}

// Summary renders the marker as the multi-line text copied to the clipboard.
func (m Marker) Summary() string {
	var b strings.Builder
	b.WriteString(m.Name)
	if m.Address != "" {
		b.WriteString("\n" + m.Address)
	}
	if m.Rating > 0 {
		fmt.Fprintf(&b, "\nRating: %.1f (%d reviews)", m.Rating, m.TotalRatings)
	}
	if m.Phone != "" {
		b.WriteString("\nPhone: " + m.Phone)
	}
	if m.Website != "" {
		b.WriteString("\nWebsite: " + m.Website)
	}
	b.WriteString("\n" + m.GoogleMapsURL())
	return b.String()
}

// CloneMarkers deep-copies a marker slice; a nil input yields an empty slice.
func CloneMarkers(markers []Marker) []Marker {
	out := make([]Marker, len(markers))
	for i, m := range markers {
		out[i] = m.Clone()
	}
	return out
}

// MarkerIDs returns the ids of markers in order.
func MarkerIDs(markers []Marker) []string {
	ids := make([]string, len(markers))
	for i, m := range markers {
		ids[i] = m.ID
	}
	return ids
}
