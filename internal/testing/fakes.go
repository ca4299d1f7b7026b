package testing

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// FakePlace is a place known to [PlacesServer].
type FakePlace struct {
	PlaceID string
	Name    string
	Lat     float64
	Lng     float64
	Address string
	Rating  float64
	Total   int
	OpenNow *bool
	Types   []string
	Photo   string
}

func (p FakePlace) geometry() map[string]any {
	return map[string]any{"location": map[string]any{"lat": p.Lat, "lng": p.Lng}}
}

func (p FakePlace) details() map[string]any {
	d := map[string]any{
		"place_id":           p.PlaceID,
		"name":               p.Name,
		"geometry":           p.geometry(),
		"formatted_address":  p.Address,
		"rating":             p.Rating,
		"user_ratings_total": p.Total,
		"types":              p.Types,
	}
	if p.OpenNow != nil {
		d["opening_hours"] = map[string]any{"open_now": *p.OpenNow}
	}
	if p.Photo != "" {
		d["photos"] = []map[string]any{{"photo_reference": p.Photo}}
	}
	return d
}

// PlacesServer is an httptest stand-in for the Places find, details and geocode endpoints.
//
// Queries match a place when they equal its name, ignoring case, or start with it followed by a comma.
type PlacesServer struct {
	*httptest.Server

	mu     sync.Mutex
	places []FakePlace
	status string
	hits   atomic.Int64
}

// NewPlacesServer starts a fake Places API serving places. The server is closed with the test.
func NewPlacesServer(t *testing.T, places ...FakePlace) *PlacesServer {
	t.Helper()

	ps := &PlacesServer{places: places}
	mux := http.NewServeMux()
	mux.HandleFunc("/place/findplacefromtext/json", ps.handleFind)
	mux.HandleFunc("/place/details/json", ps.handleDetails)
	mux.HandleFunc("/geocode/json", ps.handleGeocode)

	ps.Server = httptest.NewServer(ps.count(mux))
	t.Cleanup(ps.Close)
	return ps
}

// Hits returns the number of requests served.
func (ps *PlacesServer) Hits() int {
	return int(ps.hits.Load())
}

// FailWith makes every following request answer with status (e.g. "REQUEST_DENIED").
func (ps *PlacesServer) FailWith(status string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.status = status
}

func (ps *PlacesServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)

		ps.mu.Lock()
		status := ps.status
		ps.mu.Unlock()

		switch {
		case r.URL.Query().Get("key") == "":
			writeJSON(w, map[string]any{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."})
		case status != "":
			writeJSON(w, map[string]any{"status": status})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (ps *PlacesServer) match(query string) (FakePlace, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range ps.places {
		name := strings.ToLower(p.Name)
		if q == name || strings.HasPrefix(q, name+",") {
			return p, true
		}
	}
	return FakePlace{}, false
}

func (ps *PlacesServer) handleFind(w http.ResponseWriter, r *http.Request) {
	p, ok := ps.match(r.URL.Query().Get("input"))
	if !ok {
		writeJSON(w, map[string]any{"candidates": []any{}, "status": "ZERO_RESULTS"})
		return
	}

	writeJSON(w, map[string]any{
		"candidates": []map[string]any{{"place_id": p.PlaceID, "name": p.Name, "geometry": p.geometry()}},
		"status":     "OK",
	})
}

func (ps *PlacesServer) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("place_id")
	for _, p := range ps.places {
		if p.PlaceID == id {
			writeJSON(w, map[string]any{"result": p.details(), "status": "OK"})
			return
		}
	}
	writeJSON(w, map[string]any{"status": "NOT_FOUND"})
}

func (ps *PlacesServer) handleGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := splitLatLng(r.URL.Query().Get("latlng"))
	if err != nil {
		writeJSON(w, map[string]any{"status": "INVALID_REQUEST", "error_message": err.Error()})
		return
	}

	for _, p := range ps.places {
		if math.Abs(p.Lat-lat) < 0.001 && math.Abs(p.Lng-lng) < 0.001 {
			writeJSON(w, map[string]any{"results": []map[string]any{p.details()}, "status": "OK"})
			return
		}
	}
	writeJSON(w, map[string]any{"results": []any{}, "status": "ZERO_RESULTS"})
}

func splitLatLng(s string) (float64, float64, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("bad latlng %q", s)
	}
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(lngS, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// ChatServer is an httptest stand-in for an OpenAI chat completions endpoint.
type ChatServer struct {
	*httptest.Server

	mu       sync.Mutex
	answer   string
	lastAuth string
	lastBody map[string]any
	hits     atomic.Int64
}

// NewChatServer starts a fake chat completions API that always answers with answer.
func NewChatServer(t *testing.T, answer string) *ChatServer {
	t.Helper()

	cs := &ChatServer{answer: answer}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	cs.hits.Add(1)

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	cs.mu.Lock()
	cs.lastAuth = r.Header.Get("Authorization")
	cs.lastBody = body
	answer := cs.answer
	cs.mu.Unlock()

	if r.URL.Path != "/chat/completions" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, map[string]any{
		"id":    "chatcmpl-test",
		"model": body["model"],
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": answer},
			"finish_reason": "stop",
		}},
	})
}

// SetAnswer changes the content returned by later requests.
func (cs *ChatServer) SetAnswer(answer string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.answer = answer
}

// Hits returns the number of requests served.
func (cs *ChatServer) Hits() int {
	return int(cs.hits.Load())
}

// LastAuthorization returns the Authorization header of the last request.
func (cs *ChatServer) LastAuthorization() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastAuth
}

// LastBody returns the decoded JSON body of the last request.
func (cs *ChatServer) LastBody() map[string]any {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastBody
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
