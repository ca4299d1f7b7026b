package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/pinmap/internal/formatter"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	tu "github.com/desertthunder/pinmap/internal/testing"
)

func sampleLists() []*models.PlaceList {
	markers := tu.SampleMarkers()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*models.PlaceList{
		models.NewPlaceList("Paris", markers[:1], at),
		models.NewPlaceList("Vienna", markers[1:], at),
		models.NewPlaceList("Empty", nil, at),
	}
}

func readManifest(t *testing.T, path string) formatter.BulkExportManifest {
	t.Helper()
	var m formatter.BulkExportManifest
	if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &m); err != nil {
		t.Fatalf("manifest does not decode: %v", err)
	}
	return m
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	for _, format := range []string{formatter.FormatJSON, formatter.FormatCSV, formatter.FormatText, formatter.FormatGeoJSON} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()

			result, err := BulkExport(ctx, sampleLists(), BulkExportOpts{Format: format, OutputDir: dir}, nil)
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if result.Successful != 3 || result.Failed != 0 {
				t.Errorf("expected 3 successful exports, got %d/%d", result.Successful, result.Failed)
			}
			for i, name := range []string{"Paris", "Vienna", "Empty"} {
				res := result.Results[i]
				if res.Name != name {
					t.Errorf("result %d: expected %s, got %s", i, name, res.Name)
				}
				tu.AssertFileExists(t, filepath.Join(dir, name+formatter.Extension(format)))
			}

			m := readManifest(t, result.ManifestPath)
			if m.RunID != result.RunID || m.RunID == "" {
				t.Errorf("manifest run id mismatch: %q vs %q", m.RunID, result.RunID)
			}
			if m.Format != format || m.Total != 3 {
				t.Errorf("unexpected manifest header: %+v", m)
			}
			if m.Lists[1].MarkerCount != 2 {
				t.Errorf("expected Vienna to hold 2 markers, got %d", m.Lists[1].MarkerCount)
			}
		})
	}

	t.Run("markdown with photo", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		opts := BulkExportOpts{
			Format:    formatter.FormatMarkdown,
			OutputDir: dir,
			RateLimit: 100,
			PhotoURL: func(l *models.PlaceList) string {
				if l.Name == "Vienna" {
					return srv.URL + "/photo"
				}
				return ""
			},
		}

		result, err := BulkExport(ctx, sampleLists(), opts, nil)
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "Paris", "README.md"))
		tu.AssertFileExists(t, filepath.Join(dir, "Vienna", "photo.jpg"))
		if len(result.Results[1].Files) != 2 {
			t.Errorf("expected photo and README for Vienna, got %v", result.Results[1].Files)
		}
	})

	t.Run("colliding names get distinct files", func(t *testing.T) {
		dir := t.TempDir()
		lists := []*models.PlaceList{
			models.NewPlaceList("a b", nil, time.Time{}),
			models.NewPlaceList("a_b", nil, time.Time{}),
		}

		result, err := BulkExport(ctx, lists, BulkExportOpts{Format: formatter.FormatJSON, OutputDir: dir}, nil)
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if result.Results[0].Files[0] == result.Results[1].Files[0] {
			t.Errorf("both lists were written to %s", result.Results[0].Files[0])
		}
	})

	t.Run("partial failure is recorded", func(t *testing.T) {
		dir := t.TempDir()
		// A directory squatting on the target file name makes that one write fail.
		if err := os.Mkdir(filepath.Join(dir, "Vienna.json"), 0755); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		result, err := BulkExport(ctx, sampleLists(), BulkExportOpts{Format: formatter.FormatJSON, OutputDir: dir, NumWorkers: 1}, nil)
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if result.Successful != 2 || result.Failed != 1 {
			t.Fatalf("expected 2 successes and 1 failure, got %d/%d", result.Successful, result.Failed)
		}
		if result.Results[1].Error == nil {
			t.Error("expected Vienna to fail")
		}

		m := readManifest(t, result.ManifestPath)
		if m.Lists[1].Success || m.Lists[1].Error == "" {
			t.Errorf("manifest should record the failure: %+v", m.Lists[1])
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := BulkExport(ctx, sampleLists(), BulkExportOpts{Format: "pdf", OutputDir: t.TempDir()}, nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 32)
		if _, err := BulkExport(ctx, sampleLists(), BulkExportOpts{OutputDir: t.TempDir()}, progress); err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		close(progress)

		count := 0
		for u := range progress {
			if u.Phase != Export {
				t.Errorf("unexpected phase %v", u.Phase)
			}
			count++
		}
		if count != 6 {
			t.Errorf("expected 6 updates (start and finish per list), got %d", count)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := BulkExport(cctx, sampleLists(), BulkExportOpts{OutputDir: t.TempDir()}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.Failed != 3 {
			t.Errorf("expected every list to be skipped, got %+v", result)
		}
	})

	t.Run("worker count is clamped", func(t *testing.T) {
		result, err := BulkExport(ctx, sampleLists(), BulkExportOpts{OutputDir: t.TempDir(), NumWorkers: 50}, nil)
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if result.Successful != 3 {
			t.Errorf("expected all exports to succeed, got %d", result.Successful)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Interpret: "interpret",
		Extract:   "extract",
		Resolve:   "resolve",
		Complete:  "complete",
		Export:    "export",
		Phase(99): "",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
