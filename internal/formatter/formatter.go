// package formatter provides functions to export marker lists to various formats (CSV, Markdown, plain text, GeoJSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatGeoJSON  = "geojson"
)

// Formats lists every supported export format.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatGeoJSON}

var csvHeaders = []string{"id", "name", "lat", "lng", "address", "rating", "total_ratings", "open_now", "website", "phone", "tags", "source_query"}

// ExportToCSV converts a PlaceList to CSV with one row per marker.
func ExportToCSV(list *models.PlaceList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range list.Markers {
		openNow := ""
		if b := m.IsOpenNow.Bool(); b != nil {
			openNow = strconv.FormatBool(*b)
		}

		record := []string{
			m.ID,
			m.Name,
			strconv.FormatFloat(m.Coordinates.Lat, 'f', -1, 64),
			strconv.FormatFloat(m.Coordinates.Lng, 'f', -1, 64),
			m.Address,
			strconv.FormatFloat(m.Rating, 'f', -1, 64),
			strconv.Itoa(m.TotalRatings),
			openNow,
			m.Website,
			m.Phone,
			strings.Join(m.Tags, ";"),
			m.SourceQuery,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaceList to Markdown with a Google Maps link per marker.
//
// imageFilename is an optional photo shown under the heading.
func ExportToMarkdown(list *models.PlaceList, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Photo](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Places**: %d\n", len(list.Markers))
	if !list.SavedAt.IsZero() {
		fmt.Fprintf(&buf, "**Saved**: %s\n", list.SavedAt.Format(time.RFC1123))
	}
	buf.WriteString("\n## Places\n\n")

	for i, m := range list.Markers {
		fmt.Fprintf(&buf, "%d. [%s](%s)", i+1, m.Name, m.GoogleMapsURL())
		if m.Address != "" {
			fmt.Fprintf(&buf, " - %s", m.Address)
		}
		if m.Rating > 0 {
			fmt.Fprintf(&buf, " (%.1f★, %d reviews)", m.Rating, m.TotalRatings)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaceList to plain text format
func ExportToText(list *models.PlaceList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "List: %s\n", list.Name)
	fmt.Fprintf(&buf, "Places: %d\n\n", len(list.Markers))

	for i, m := range list.Markers {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, m.Name, m.Coordinates)
		if m.Address != "" {
			fmt.Fprintf(&buf, "   %s\n", m.Address)
		}
	}

	return buf.Bytes(), nil
}

// MarkerPoint returns the marker position as a lng/lat point.
func MarkerPoint(m models.Marker) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: m.Coordinates.Lng, Y: m.Coordinates.Lat}})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: marker %q: %v", shared.ErrInvalidCoordinates, m.Name, err)
	}
	return pt, nil
}

// ExportToGeoJSON converts a PlaceList to a GeoJSON FeatureCollection of points.
func ExportToGeoJSON(list *models.PlaceList) ([]byte, error) {
	features := make(geom.GeoJSONFeatureCollection, 0, len(list.Markers))

	for _, m := range list.Markers {
		pt, err := MarkerPoint(m)
		if err != nil {
			return nil, err
		}

		props := map[string]any{
			"name":         m.Name,
			"address":      m.Address,
			"rating":       m.Rating,
			"totalRatings": m.TotalRatings,
			"isOpenNow":    m.IsOpenNow.Bool(),
			"category":     string(m.Category()),
			"mapsUrl":      m.GoogleMapsURL(),
		}
		if m.Website != "" {
			props["website"] = m.Website
		}
		if m.Phone != "" {
			props["phone"] = m.Phone
		}
		if len(m.Tags) > 0 {
			props["tags"] = m.Tags
		}
		if m.SourceQuery != "" {
			props["sourceQuery"] = m.SourceQuery
		}

		features = append(features, geom.GeoJSONFeature{
			Geometry:   pt.AsGeometry(),
			ID:         m.ID,
			Properties: props,
		})
	}

	data, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return data, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// Slug turns a list name into a safe file name.
func Slug(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if s == "" {
		return "list"
	}
	return s
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	case FormatGeoJSON:
		return ".geojson"
	default:
		return ".json"
	}
}

// ValidateFormat reports whether format is one of [Formats].
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
}

// Render encodes list in format. Unknown formats are an error.
func Render(list *models.PlaceList, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list, "")
	case FormatText:
		return ExportToText(list)
	case FormatGeoJSON:
		return ExportToGeoJSON(list)
	case FormatJSON, "":
		return shared.MarshalJSON(list, true)
	default:
		return nil, ValidateFormat(format)
	}
}

// WriteExport renders list in format and writes it to path.
//
// Defaults to {slug(list.Name)}{ext} in the working directory.
func WriteExport(list *models.PlaceList, format, path string) (string, error) {
	data, err := Render(list, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = Slug(list.Name) + Extension(format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Photo     string
}

// WriteMarkdownExport exports a list to Markdown format in a dedicated directory.
//
// The photoURL parameter is optional - if provided, attempts to download the photo of the first marker.
// Creates a directory structure: {dir}/README.md and optionally {dir}/photo.jpg
func WriteMarkdownExport(list *models.PlaceList, outputDir string, photoURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(list.Name)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var photoFilename string
	if photoURL != "" {
		imageData, err := DownloadImage(photoURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download photo: %v\n", err)
		} else {
			photoFilename = "photo.jpg"
			photoPath := filepath.Join(outputDir, photoFilename)
			if err := os.WriteFile(photoPath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save photo: %v\n", err)
				photoFilename = ""
			} else {
				result.Photo = photoPath
				result.Files = append(result.Files, photoPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(list, photoFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// ManifestEntry describes the outcome of exporting one list in a bulk run.
type ManifestEntry struct {
	Name        string   `json:"name"`
	MarkerCount int      `json:"marker_count"`
	Success     bool     `json:"success"`
	Files       []string `json:"files,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// BulkExportManifest summarizes a bulk export run.
type BulkExportManifest struct {
	RunID      string          `json:"run_id"`
	Format     string          `json:"format"`
	ExportedAt time.Time       `json:"exported_at"`
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Directory  string          `json:"directory"`
	Lists      []ManifestEntry `json:"lists"`
}

// WriteBulkExportManifest writes m as indented JSON to path.
func WriteBulkExportManifest(m *BulkExportManifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
