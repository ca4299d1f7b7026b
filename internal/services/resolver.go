package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
)

// DroppedPinName names a marker placed on coordinates the geocoder knows nothing about.
const DroppedPinName = "Dropped pin"

// ResultStatus tags the outcome of a single resolution.
type ResultStatus int

const (
	ResultFound ResultStatus = iota
	ResultNotFound
	ResultProviderError
)

func (s ResultStatus) String() string {
	switch s {
	case ResultFound:
		return "found"
	case ResultNotFound:
		return "not_found"
	default:
		return "provider_error"
	}
}

// Result is the outcome of resolving one description. Marker is set only when Status is [ResultFound].
type Result struct {
	Query  string
	Status ResultStatus
	Marker *models.Marker
	Err    error
}

// Resolver turns free-text descriptions into markers with a find-then-details lookup.
//
// It never touches the marker store; callers decide what to do with a found marker.
type Resolver struct {
	places PlacesProvider
	cache  PlaceCache
	logger *log.Logger

	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(places PlacesProvider, cache PlaceCache, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{places: places, cache: cache, logger: logger, now: time.Now}
}

// SetClock replaces the clock used to stamp new markers.
func (r *Resolver) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// stamp returns a creation time strictly after the previous one so two markers resolved back to back never share an id.
func (r *Resolver) stamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.now()
	if !t.After(r.last) {
		t = r.last.Add(time.Nanosecond)
	}
	r.last = t
	return t
}

// Ready reports whether the places provider has a credential.
func (r *Resolver) Ready() bool {
	return r.places != nil && r.places.Ready()
}

// Resolve looks up query and returns a tagged [Result].
func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Query: query, Status: ResultNotFound, Err: fmt.Errorf("%w: empty query", shared.ErrInvalidInput)}
	}

	details, err := r.lookup(ctx, query)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Result{Query: query, Status: ResultNotFound, Err: err}
		}
		return Result{Query: query, Status: ResultProviderError, Err: err}
	}

	marker, err := r.buildMarker(query, details)
	if err != nil {
		return Result{Query: query, Status: ResultProviderError, Err: err}
	}
	return Result{Query: query, Status: ResultFound, Marker: marker}
}

func (r *Resolver) lookup(ctx context.Context, query string) (*PlaceDetails, error) {
	key := shared.NormalizeQuery(query)
	if details, ok := r.cached(ctx, key); ok {
		return details, nil
	}

	candidates, err := r.places.FindPlace(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates for %q", shared.ErrNotFound, query)
	}

	best := candidates[0]
	details, err := r.places.PlaceDetails(ctx, best.PlaceID)
	if err != nil {
		return nil, err
	}

	if details.Name == "" {
		details.Name = best.Name
	}
	if details.PlaceID == "" {
		details.PlaceID = best.PlaceID
	}
	if details.Geometry == (Geometry{}) {
		details.Geometry = best.Geometry
	}

	r.store(ctx, key, details)
	return details, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (*PlaceDetails, bool) {
	if r.cache == nil {
		return nil, false
	}

	payload, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("place cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var details PlaceDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		r.logger.Warn("place cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	r.logger.Debug("place cache hit", "key", key)
	return &details, true
}

func (r *Resolver) store(ctx context.Context, key string, details *PlaceDetails) {
	if r.cache == nil {
		return
	}

	payload, err := json.Marshal(details)
	if err != nil {
		r.logger.Warn("place cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.cache.Put(ctx, key, payload); err != nil {
		r.logger.Warn("place cache write failed", "key", key, "error", err)
	}
}

func (r *Resolver) buildMarker(query string, details *PlaceDetails) (*models.Marker, error) {
	name := strings.TrimSpace(details.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: place has no name", shared.ErrMalformedResponse)
	}

	coords := details.Coordinates()
	if err := coords.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	m := models.NewMarker(name, coords, r.stamp())
	m.Address = details.FormattedAddress
	m.Rating = math.Min(math.Max(details.Rating, 0), 5)
	m.TotalRatings = max(details.UserRatingsTotal, 0)
	m.IsOpenNow = models.OpenStateOf(details.OpenNow())
	m.Website = details.Website
	m.Phone = details.Phone
	m.Tags = append([]string(nil), details.Types...)
	m.PhotoReference = details.PhotoReference()
	m.PlaceID = details.PlaceID
	m.SourceQuery = query
	return &m, nil
}

// ReverseGeocode builds a marker at coords named after the nearest address.
//
// When the geocoder has no address the marker is still placed and named [DroppedPinName].
func (r *Resolver) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Marker, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	details, err := r.places.ReverseGeocode(ctx, coords)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		r.logger.Info("no address for coordinates", "coords", coords)
		m := models.NewMarker(DroppedPinName, coords, r.stamp())
		return &m, nil
	case err != nil:
		return nil, err
	}

	name := strings.TrimSpace(details.FormattedAddress)
	if name == "" {
		name = DroppedPinName
	}

	m := models.NewMarker(name, coords, r.stamp())
	m.Address = details.FormattedAddress
	m.Tags = append([]string(nil), details.Types...)
	m.PlaceID = details.PlaceID
	return &m, nil
}
