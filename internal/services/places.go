// Google Places and Geocoding API implementation of [PlacesProvider]
//
// Response types based on https://developers.google.com/maps/documentation/places/web-service
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	"golang.org/x/time/rate"
)

const (
	placesBaseURL = "https://maps.googleapis.com/maps/api"

	findFields    = "name,geometry,place_id"
	detailsFields = "place_id,name,geometry,formatted_address,rating,user_ratings_total,opening_hours,photos,website,formatted_phone_number,types"
)

// Places API status values.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusNotFound       = "NOT_FOUND"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusInvalidRequest = "INVALID_REQUEST"
)

type findPlaceResponse struct {
	Candidates   []Candidate `json:"candidates"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

type detailsResponse struct {
	Result       *PlaceDetails `json:"result"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

type geocodeResponse struct {
	Results      []PlaceDetails `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// PlacesService is a rate limited client for the Places and Geocoding APIs.
type PlacesService struct {
	api      *APIClient
	apiKey   string
	baseURL  string
	language string
	limiter  *rate.Limiter
	logger   *log.Logger
}

// PlacesOpts configures a [PlacesService].
type PlacesOpts struct {
	APIKey    string
	BaseURL   string
	Language  string
	RateLimit float64 // requests per second, zero or less disables limiting
	Burst     int
	Client    *http.Client
	Logger    *log.Logger
}

// NewPlacesService creates a Places client.
func NewPlacesService(opts PlacesOpts) *PlacesService {
	if opts.BaseURL == "" {
		opts.BaseURL = placesBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	return &PlacesService{
		api:      NewAPIClient(opts.BaseURL, opts.Client),
		apiKey:   opts.APIKey,
		baseURL:  opts.BaseURL,
		language: opts.Language,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		logger:   opts.Logger,
	}
}

// NewPlacesServiceFromConfig builds a Places client from the credential and places sections of the config.
func NewPlacesServiceFromConfig(cfg *shared.Config, client *http.Client, logger *log.Logger) *PlacesService {
	return NewPlacesService(PlacesOpts{
		APIKey:    cfg.Credentials.Places.APIKey,
		BaseURL:   cfg.Credentials.Places.BaseURL,
		Language:  cfg.Places.Language,
		RateLimit: cfg.Places.RateLimit,
		Burst:     cfg.Places.Burst,
		Client:    client,
		Logger:    logger,
	})
}

// Ready reports whether an API key is configured.
func (s *PlacesService) Ready() bool {
	return s.apiKey != ""
}

// FindPlace looks up query with the find-place-from-text endpoint.
func (s *PlacesService) FindPlace(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("inputtype", "textquery")
	params.Set("fields", findFields)

	var resp findPlaceResponse
	if err := s.get(ctx, "/place/findplacefromtext/json", params, &resp); err != nil {
		return nil, err
	}
	if err := statusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates for %q", shared.ErrNotFound, query)
	}
	return resp.Candidates, nil
}

// PlaceDetails fetches the detail record for placeID.
func (s *PlacesService) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	var resp detailsResponse
	if err := s.get(ctx, "/place/details/json", params, &resp); err != nil {
		return nil, err
	}
	if err := statusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%w: details response has no result", shared.ErrMalformedResponse)
	}
	return resp.Result, nil
}

// ReverseGeocode returns the first address the Geocoding API reports for coords.
func (s *PlacesService) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(coords.Lat, 'f', -1, 64)+","+strconv.FormatFloat(coords.Lng, 'f', -1, 64))

	var resp geocodeResponse
	if err := s.get(ctx, "/geocode/json", params, &resp); err != nil {
		return nil, err
	}
	if err := statusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: no address at %s", shared.ErrNotFound, coords)
	}

	result := resp.Results[0]
	return &result, nil
}

// PhotoURL returns the photo endpoint URL for a photo reference, or "" when ref is empty.
func (s *PlacesService) PhotoURL(ref string, maxWidth int) string {
	if ref == "" {
		return ""
	}
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photo_reference", ref)
	params.Set("key", s.apiKey)
	return s.baseURL + "/place/photo?" + params.Encode()
}

func (s *PlacesService) get(ctx context.Context, path string, params url.Values, v any) error {
	if !s.Ready() {
		return fmt.Errorf("%w: places api key", shared.ErrMissingCredential)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrProvider, err)
	}

	params.Set("key", s.apiKey)
	if s.language != "" {
		params.Set("language", s.language)
	}

	resp, err := s.api.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if !resp.OK() {
		s.logger.Warn("places request failed", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s returned status %d", shared.ErrProvider, path, resp.StatusCode)
	}
	return resp.Decode(v)
}

// statusError maps a Places API status onto the shared error taxonomy.
func statusError(status, message string) error {
	switch status {
	case StatusOK:
		return nil
	case StatusZeroResults, StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, status)
	case "":
		return fmt.Errorf("%w: missing status", shared.ErrMalformedResponse)
	default:
		if message != "" {
			return fmt.Errorf("%w: %s: %s", shared.ErrProvider, status, message)
		}
		return fmt.Errorf("%w: %s", shared.ErrProvider, status)
	}
}
