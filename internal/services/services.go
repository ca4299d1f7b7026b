package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
)

// PlacesProvider looks places up by free text, fetches their details and reverse geocodes coordinates.
type PlacesProvider interface {
	// FindPlace returns the candidates matching query, best match first.
	FindPlace(ctx context.Context, query string) ([]Candidate, error)

	// PlaceDetails returns the detail record for a provider place id.
	PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)

	// ReverseGeocode returns the closest address for coords.
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (*PlaceDetails, error)

	// Ready reports whether a credential is configured.
	Ready() bool
}

// Completer sends one system and user prompt pair to a language model and returns the raw text answer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Ready reports whether a credential is configured.
	Ready() bool

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// PlaceCache stores provider detail payloads keyed by normalised query.
type PlaceCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Location is a lat/lng pair as returned by the Places API.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps the location of a place.
type Geometry struct {
	Location Location `json:"location"`
}

// Candidate is one result of a find-place lookup.
type Candidate struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Geometry Geometry `json:"geometry"`
}

type openingHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

type photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// PlaceDetails is the detail record of a place. It is also the payload stored in a [PlaceCache].
type PlaceDetails struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Geometry         Geometry      `json:"geometry"`
	FormattedAddress string        `json:"formatted_address"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	OpeningHours     *openingHours `json:"opening_hours,omitempty"`
	Photos           []photo       `json:"photos,omitempty"`
	Website          string        `json:"website,omitempty"`
	Phone            string        `json:"formatted_phone_number,omitempty"`
	Types            []string      `json:"types,omitempty"`
}

// Coordinates returns the location of the place as [models.Coordinates].
func (d *PlaceDetails) Coordinates() models.Coordinates {
	return models.Coordinates{Lat: d.Geometry.Location.Lat, Lng: d.Geometry.Location.Lng}
}

// OpenNow returns the open_now flag, nil when the provider did not report opening hours.
func (d *PlaceDetails) OpenNow() *bool {
	if d.OpeningHours == nil {
		return nil
	}
	return d.OpeningHours.OpenNow
}

// PhotoReference returns the reference of the first photo, if any.
func (d *PlaceDetails) PhotoReference() string {
	if len(d.Photos) == 0 {
		return ""
	}
	return d.Photos[0].PhotoReference
}

// NewCompleter returns the completer selected by the llm.provider setting.
func NewCompleter(cfg *shared.Config, logger *log.Logger) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)) {
	case "", "openai":
		return NewOpenAIService(cfg.Credentials.OpenAI, nil, logger), nil
	case "gemini":
		return NewGeminiService(cfg.Credentials.Gemini, "", nil, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", shared.ErrInvalidConfig, cfg.LLM.Provider)
	}
}
