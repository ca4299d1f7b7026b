// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/pinmap/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// OpenNow returns a pointer to v for building fixtures.
func OpenNow(v bool) *bool { return &v }

// SampleMarkers returns three fully populated markers in a fixed order.
func SampleMarkers() []models.Marker {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	eiffel := models.NewMarker("Eiffel Tower", models.Coordinates{Lat: 48.8584, Lng: 2.2945}, at)
	eiffel.Address = "Av. Gustave Eiffel, 75007 Paris, France"
	eiffel.Rating = 4.7
	eiffel.TotalRatings = 345000
	eiffel.IsOpenNow = models.OpenYes
	eiffel.Website = "https://www.toureiffel.paris/"
	eiffel.Tags = []string{"tourist_attraction", "point_of_interest", "establishment"}
	eiffel.PlaceID = "ChIJLU7jZClu5kcR4PcOOO6p3I0"
	eiffel.SourceQuery = "Eiffel Tower"

	steirereck := models.NewMarker("Steirereck", models.Coordinates{Lat: 48.2046, Lng: 16.3813}, at.Add(time.Second))
	steirereck.Address = "Am Heumarkt 2A, 1030 Wien, Austria"
	steirereck.Rating = 4.6
	steirereck.TotalRatings = 2100
	steirereck.IsOpenNow = models.OpenNo
	steirereck.Phone = "01 7133168"
	steirereck.Tags = []string{"restaurant", "food", "establishment"}
	steirereck.SourceQuery = "Steirereck, Vienna, Austria"

	schonbrunn := models.NewMarker("Schönbrunn Palace", models.Coordinates{Lat: 48.1845, Lng: 16.3122}, at.Add(2*time.Second))
	schonbrunn.Address = "Schönbrunner Schloßstraße 47, 1130 Wien, Austria"
	schonbrunn.Rating = 4.7
	schonbrunn.TotalRatings = 160000
	schonbrunn.Tags = []string{"museum", "tourist_attraction"}
	schonbrunn.PhotoReference = "photo-ref-1"
	schonbrunn.SourceQuery = "Schönbrunn Palace, Schönbrunner Schlossstrasse 47, 1130 Vienna"

	return []models.Marker{eiffel, steirereck, schonbrunn}
}
