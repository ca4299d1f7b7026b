package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	tu "github.com/desertthunder/pinmap/internal/testing"
)

var eiffel = tu.FakePlace{
	PlaceID: "eiffel-1",
	Name:    "Eiffel Tower",
	Lat:     48.8584,
	Lng:     2.2945,
	Address: "Av. Gustave Eiffel, 75007 Paris, France",
	Rating:  4.7,
	Total:   345000,
	OpenNow: tu.OpenNow(true),
	Types:   []string{"tourist_attraction", "point_of_interest"},
	Photo:   "eiffel-photo",
}

func newTestPlaces(t *testing.T, key string, places ...tu.FakePlace) (*PlacesService, *tu.PlacesServer) {
	t.Helper()
	srv := tu.NewPlacesServer(t, places...)
	return NewPlacesService(PlacesOpts{APIKey: key, BaseURL: srv.URL, Language: "en"}), srv
}

func TestPlacesService(t *testing.T) {
	ctx := context.Background()

	t.Run("FindPlace", func(t *testing.T) {
		t.Run("Returns Candidates", func(t *testing.T) {
			svc, _ := newTestPlaces(t, "key", eiffel)

			candidates, err := svc.FindPlace(ctx, "Eiffel Tower")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(candidates) != 1 || candidates[0].PlaceID != "eiffel-1" {
				t.Fatalf("expected eiffel candidate, got %+v", candidates)
			}
			if candidates[0].Geometry.Location.Lat != 48.8584 {
				t.Errorf("expected lat 48.8584, got %v", candidates[0].Geometry.Location.Lat)
			}
		})

		t.Run("Zero Results Is Not Found", func(t *testing.T) {
			svc, _ := newTestPlaces(t, "key", eiffel)

			_, err := svc.FindPlace(ctx, "Zzzyx Qwerty Nonexistent")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("Request Denied Is Provider Error", func(t *testing.T) {
			svc, srv := newTestPlaces(t, "key", eiffel)
			srv.FailWith(StatusRequestDenied)

			_, err := svc.FindPlace(ctx, "Eiffel Tower")
			if !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
			if errors.Is(err, shared.ErrNotFound) {
				t.Error("request denied must not read as not found")
			}
		})

		t.Run("Missing Key Makes No Request", func(t *testing.T) {
			svc, srv := newTestPlaces(t, "", eiffel)

			_, err := svc.FindPlace(ctx, "Eiffel Tower")
			if !errors.Is(err, shared.ErrMissingCredential) {
				t.Errorf("expected ErrMissingCredential, got %v", err)
			}
			if !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
			if srv.Hits() != 0 {
				t.Errorf("expected no requests, got %d", srv.Hits())
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			svc := NewPlacesService(PlacesOpts{APIKey: "key", BaseURL: server.URL})
			_, err := svc.FindPlace(ctx, "Eiffel Tower")
			if !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
		})
	})

	t.Run("PlaceDetails", func(t *testing.T) {
		svc, _ := newTestPlaces(t, "key", eiffel)

		details, err := svc.PlaceDetails(ctx, "eiffel-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if details.FormattedAddress != eiffel.Address {
			t.Errorf("expected address %q, got %q", eiffel.Address, details.FormattedAddress)
		}
		if details.UserRatingsTotal != 345000 {
			t.Errorf("expected 345000 ratings, got %d", details.UserRatingsTotal)
		}
		if open := details.OpenNow(); open == nil || !*open {
			t.Errorf("expected open_now true, got %v", open)
		}
		if details.PhotoReference() != "eiffel-photo" {
			t.Errorf("expected photo reference, got %q", details.PhotoReference())
		}

		_, err = svc.PlaceDetails(ctx, "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown id, got %v", err)
		}
	})

	t.Run("ReverseGeocode", func(t *testing.T) {
		svc, _ := newTestPlaces(t, "key", eiffel)

		details, err := svc.ReverseGeocode(ctx, models.Coordinates{Lat: 48.8584, Lng: 2.2945})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if details.FormattedAddress != eiffel.Address {
			t.Errorf("expected address %q, got %q", eiffel.Address, details.FormattedAddress)
		}

		_, err = svc.ReverseGeocode(ctx, models.Coordinates{Lat: 0, Lng: 0})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Rate Limiter Respects Deadline", func(t *testing.T) {
		srv := tu.NewPlacesServer(t, eiffel)
		svc := NewPlacesService(PlacesOpts{APIKey: "key", BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})

		if _, err := svc.FindPlace(ctx, "Eiffel Tower"); err != nil {
			t.Fatalf("expected first request to pass, got %v", err)
		}

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := svc.FindPlace(short, "Eiffel Tower")
		if !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider from limiter, got %v", err)
		}
		if srv.Hits() != 1 {
			t.Errorf("expected 1 request, got %d", srv.Hits())
		}
	})

	t.Run("PhotoURL", func(t *testing.T) {
		svc := NewPlacesService(PlacesOpts{APIKey: "key", BaseURL: "https://maps.example.com/api"})

		if got := svc.PhotoURL("", 400); got != "" {
			t.Errorf("expected empty url for empty ref, got %q", got)
		}

		got := svc.PhotoURL("abc", 400)
		if !strings.HasPrefix(got, "https://maps.example.com/api/place/photo?") {
			t.Errorf("unexpected photo url %q", got)
		}
		for _, part := range []string{"maxwidth=400", "photo_reference=abc", "key=key"} {
			if !strings.Contains(got, part) {
				t.Errorf("expected %q in %q", part, got)
			}
		}
	})

	t.Run("From Config", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Places.APIKey = "abc"

		client := &http.Client{}
		svc := NewPlacesServiceFromConfig(cfg, client, nil)
		if !svc.Ready() {
			t.Error("expected service to be ready with a key")
		}
		if svc.baseURL != cfg.Credentials.Places.BaseURL {
			t.Errorf("expected base url %q, got %q", cfg.Credentials.Places.BaseURL, svc.baseURL)
		}
		if svc.api.httpClient != client {
			t.Error("expected the injected http client to be used")
		}
	})
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status string
		want   error
	}{
		{StatusOK, nil},
		{StatusZeroResults, shared.ErrNotFound},
		{StatusNotFound, shared.ErrNotFound},
		{StatusRequestDenied, shared.ErrProvider},
		{StatusOverQueryLimit, shared.ErrProvider},
		{StatusInvalidRequest, shared.ErrProvider},
		{"", shared.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			err := statusError(tt.status, "")
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
