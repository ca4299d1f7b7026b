package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	tu "github.com/desertthunder/pinmap/internal/testing"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
	failPut bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failPut {
		return errors.New("cache down")
	}
	c.entries[key] = payload
	return nil
}

func newTestResolver(t *testing.T, key string, cache PlaceCache, places ...tu.FakePlace) (*Resolver, *tu.PlacesServer) {
	t.Helper()
	svc, srv := newTestPlaces(t, key, places...)
	return NewResolver(svc, cache, nil), srv
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolve", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			r, srv := newTestResolver(t, "key", nil, eiffel)

			res := r.Resolve(ctx, "Eiffel Tower")
			if res.Status != ResultFound {
				t.Fatalf("expected found, got %v (%v)", res.Status, res.Err)
			}

			m := res.Marker
			if m.Name != "Eiffel Tower" {
				t.Errorf("expected name 'Eiffel Tower', got %q", m.Name)
			}
			if m.Coordinates != (models.Coordinates{Lat: 48.8584, Lng: 2.2945}) {
				t.Errorf("unexpected coordinates %v", m.Coordinates)
			}
			if !strings.HasPrefix(m.ID, "Eiffel Tower_48.8584_2.2945_") {
				t.Errorf("unexpected id %q", m.ID)
			}
			if m.Address != eiffel.Address || m.Rating != 4.7 || m.TotalRatings != 345000 {
				t.Errorf("details not copied: %+v", m)
			}
			if m.IsOpenNow != models.OpenYes {
				t.Errorf("expected open, got %v", m.IsOpenNow)
			}
			if m.PhotoReference != "eiffel-photo" || m.PlaceID != "eiffel-1" {
				t.Errorf("expected photo and place id, got %q %q", m.PhotoReference, m.PlaceID)
			}
			if m.SourceQuery != "Eiffel Tower" {
				t.Errorf("expected source query, got %q", m.SourceQuery)
			}
			if err := m.Validate(); err != nil {
				t.Errorf("expected valid marker, got %v", err)
			}
			if srv.Hits() != 2 {
				t.Errorf("expected find and details requests, got %d", srv.Hits())
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			r, _ := newTestResolver(t, "key", nil, eiffel)

			res := r.Resolve(ctx, "Zzzyx Qwerty Nonexistent")
			if res.Status != ResultNotFound {
				t.Fatalf("expected not found, got %v", res.Status)
			}
			if res.Marker != nil {
				t.Error("expected no marker")
			}
			if res.Query != "Zzzyx Qwerty Nonexistent" {
				t.Errorf("expected query to be kept, got %q", res.Query)
			}
		})

		t.Run("Provider Error", func(t *testing.T) {
			r, srv := newTestResolver(t, "key", nil, eiffel)
			srv.FailWith(StatusOverQueryLimit)

			res := r.Resolve(ctx, "Eiffel Tower")
			if res.Status != ResultProviderError {
				t.Fatalf("expected provider error, got %v", res.Status)
			}
			if !errors.Is(res.Err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", res.Err)
			}
		})

		t.Run("Missing Key", func(t *testing.T) {
			r, srv := newTestResolver(t, "", nil, eiffel)
			if r.Ready() {
				t.Error("expected resolver without a key to report not ready")
			}
			if ready, _ := newTestResolver(t, "key", nil); !ready.Ready() {
				t.Error("expected resolver with a key to report ready")
			}

			res := r.Resolve(ctx, "Eiffel Tower")
			if res.Status != ResultProviderError {
				t.Fatalf("expected provider error, got %v", res.Status)
			}
			if !errors.Is(res.Err, shared.ErrMissingCredential) {
				t.Errorf("expected ErrMissingCredential, got %v", res.Err)
			}
			if srv.Hits() != 0 {
				t.Errorf("expected no requests, got %d", srv.Hits())
			}
		})

		t.Run("Empty Query", func(t *testing.T) {
			r, srv := newTestResolver(t, "key", nil, eiffel)

			res := r.Resolve(ctx, "   ")
			if res.Status != ResultNotFound || !errors.Is(res.Err, shared.ErrInvalidInput) {
				t.Errorf("expected not found with ErrInvalidInput, got %v %v", res.Status, res.Err)
			}
			if srv.Hits() != 0 {
				t.Errorf("expected no requests, got %d", srv.Hits())
			}
		})

		t.Run("Rating Is Clamped", func(t *testing.T) {
			odd := eiffel
			odd.PlaceID, odd.Name, odd.Rating = "odd", "Odd Place", 7.5
			r, _ := newTestResolver(t, "key", nil, odd)

			res := r.Resolve(ctx, "Odd Place")
			if res.Status != ResultFound {
				t.Fatalf("expected found, got %v", res.Err)
			}
			if res.Marker.Rating != 5 {
				t.Errorf("expected rating clamped to 5, got %v", res.Marker.Rating)
			}
		})

		t.Run("Invalid Provider Coordinates", func(t *testing.T) {
			bad := eiffel
			bad.PlaceID, bad.Name, bad.Lat = "bad", "Bad Place", 123
			r, _ := newTestResolver(t, "key", nil, bad)

			res := r.Resolve(ctx, "Bad Place")
			if res.Status != ResultProviderError || !errors.Is(res.Err, shared.ErrMalformedResponse) {
				t.Errorf("expected malformed provider error, got %v %v", res.Status, res.Err)
			}
		})

		t.Run("Ids Stay Unique Under A Frozen Clock", func(t *testing.T) {
			r, _ := newTestResolver(t, "key", nil, eiffel)
			frozen := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
			r.SetClock(func() time.Time { return frozen })

			first := r.Resolve(ctx, "Eiffel Tower")
			second := r.Resolve(ctx, "Eiffel Tower")
			if first.Marker.ID == second.Marker.ID {
				t.Errorf("expected distinct ids, both %q", first.Marker.ID)
			}
		})
	})

	t.Run("Cache", func(t *testing.T) {
		t.Run("Second Lookup Is Served From Cache", func(t *testing.T) {
			cache := newMemCache()
			r, srv := newTestResolver(t, "key", cache, eiffel)

			first := r.Resolve(ctx, "Eiffel Tower")
			second := r.Resolve(ctx, "  eiffel   TOWER ")
			if first.Status != ResultFound || second.Status != ResultFound {
				t.Fatalf("expected both found, got %v %v", first.Err, second.Err)
			}
			if srv.Hits() != 2 {
				t.Errorf("expected only the first lookup to hit the provider, got %d", srv.Hits())
			}
			if first.Marker.ID == second.Marker.ID {
				t.Error("cached lookups must still produce fresh ids")
			}
			if _, ok := cache.entries["eiffel tower"]; !ok {
				t.Error("expected normalised cache key")
			}
		})

		t.Run("Cache Failures Are Ignored", func(t *testing.T) {
			cache := newMemCache()
			cache.failGet, cache.failPut = true, true
			r, _ := newTestResolver(t, "key", cache, eiffel)

			if res := r.Resolve(ctx, "Eiffel Tower"); res.Status != ResultFound {
				t.Errorf("expected found despite cache failure, got %v", res.Err)
			}
		})
	})

	t.Run("ReverseGeocode", func(t *testing.T) {
		t.Run("Known Address", func(t *testing.T) {
			r, _ := newTestResolver(t, "key", nil, eiffel)
			coords := models.Coordinates{Lat: 48.8584, Lng: 2.2945}

			m, err := r.ReverseGeocode(ctx, coords)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if m.Name != eiffel.Address {
				t.Errorf("expected name from address, got %q", m.Name)
			}
			if m.Coordinates != coords {
				t.Errorf("expected marker at clicked coordinates, got %v", m.Coordinates)
			}
		})

		t.Run("Unknown Address Drops A Pin", func(t *testing.T) {
			r, _ := newTestResolver(t, "key", nil, eiffel)

			m, err := r.ReverseGeocode(ctx, models.Coordinates{Lat: 10, Lng: 10})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if m.Name != DroppedPinName {
				t.Errorf("expected %q, got %q", DroppedPinName, m.Name)
			}
		})

		t.Run("Invalid Coordinates", func(t *testing.T) {
			r, srv := newTestResolver(t, "key", nil, eiffel)

			_, err := r.ReverseGeocode(ctx, models.Coordinates{Lat: 91, Lng: 0})
			if !errors.Is(err, shared.ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", err)
			}
			if srv.Hits() != 0 {
				t.Errorf("expected no requests, got %d", srv.Hits())
			}
		})

		t.Run("Provider Failure", func(t *testing.T) {
			r, srv := newTestResolver(t, "key", nil, eiffel)
			srv.FailWith(StatusRequestDenied)

			_, err := r.ReverseGeocode(ctx, models.Coordinates{Lat: 1, Lng: 1})
			if !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
		})
	})
}

func TestResultStatusString(t *testing.T) {
	for status, want := range map[ResultStatus]string{
		ResultFound:         "found",
		ResultNotFound:      "not_found",
		ResultProviderError: "provider_error",
	} {
		if got := status.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
