// Package geo computes map viewports for marker collections.
//
// Positions are WGS84 (EPSG:4326). Zoom levels follow the web map convention of a 256 pixel world tile at zoom 0
// in spherical mercator (EPSG:3857), so a viewport computed here matches what a browser map would pick for fit-bounds.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

const (
	MinZoom = 1
	MaxZoom = 20

	tileSize = 256
	// Width of the EPSG:3857 world in metres.
	worldMeters = 2 * 20037508.342789244
)

// Bounds is the south-west / north-east box around a set of markers.
type Bounds struct {
	SouthWest models.Coordinates `json:"southWest"`
	NorthEast models.Coordinates `json:"northEast"`
}

// Viewport is the centre and zoom that shows every marker.
type Viewport struct {
	Center models.Coordinates `json:"center"`
	Zoom   int                `json:"zoom"`
	Bounds *Bounds            `json:"bounds,omitempty"`
}

// Fit returns the viewport that frames markers within the configured pixel size minus padding.
//
// No markers gives the default centre and one marker centres on it, both at the single-marker zoom.
func Fit(markers []models.Marker, cfg shared.MapConfig) Viewport {
	single := cfg.SingleMarkerZoom
	if single <= 0 {
		single = 13
	}

	switch len(markers) {
	case 0:
		return Viewport{Center: models.Coordinates{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}, Zoom: single}
	case 1:
		c := markers[0].Coordinates
		return Viewport{Center: c, Zoom: single, Bounds: &Bounds{SouthWest: c, NorthEast: c}}
	}

	geographic := Envelope(markers)
	sw, ne, ok := geographic.MinMaxXYs()
	if !ok {
		return Viewport{Center: models.Coordinates{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}, Zoom: single}
	}
	bounds := &Bounds{
		SouthWest: models.Coordinates{Lat: sw.Y, Lng: sw.X},
		NorthEast: models.Coordinates{Lat: ne.Y, Lng: ne.X},
	}

	lo, hi := Project(sw), Project(ne)
	center := Unproject(geom.XY{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2})

	return Viewport{
		Center: models.Coordinates{Lat: center.Y, Lng: center.X},
		Zoom:   fitZoom(hi.X-lo.X, hi.Y-lo.Y, cfg, single),
		Bounds: bounds,
	}
}

// Envelope returns the lng/lat bounding envelope of markers.
//
// Markers with NaN or infinite coordinates are left out.
func Envelope(markers []models.Marker) geom.Envelope {
	var env geom.Envelope
	for _, m := range markers {
		extended, err := env.ExtendToIncludeXY(geom.XY{X: m.Coordinates.Lng, Y: m.Coordinates.Lat})
		if err != nil {
			continue
		}
		env = extended
	}
	return env
}

// Project converts a lng/lat position to EPSG:3857 metres.
func Project(xy geom.XY) geom.XY {
	x, y, _ := wgs84.EPSG().Transform(4326, 3857)(xy.X, xy.Y, 0)
	return geom.XY{X: x, Y: y}
}

// Unproject converts EPSG:3857 metres back to lng/lat.
func Unproject(xy geom.XY) geom.XY {
	x, y, _ := wgs84.EPSG().Transform(3857, 4326)(xy.X, xy.Y, 0)
	return geom.XY{X: x, Y: y}
}

// fitZoom picks the largest zoom at which a dx by dy metre extent fits the padded viewport.
func fitZoom(dx, dy float64, cfg shared.MapConfig, single int) int {
	width := float64(cfg.ViewportWidth - 2*cfg.Padding)
	height := float64(cfg.ViewportHeight - 2*cfg.Padding)
	if width <= 0 || height <= 0 {
		return clampZoom(single)
	}

	zoom := math.Inf(1)
	if dx > 0 {
		zoom = math.Min(zoom, math.Log2(width*worldMeters/(tileSize*dx)))
	}
	if dy > 0 {
		zoom = math.Min(zoom, math.Log2(height*worldMeters/(tileSize*dy)))
	}
	if math.IsInf(zoom, 1) {
		// every marker sits on the same spot
		return clampZoom(single)
	}
	return clampZoom(int(math.Floor(zoom)))
}

func clampZoom(z int) int {
	return max(MinZoom, min(MaxZoom, z))
}

// ParseLatLng parses "lat,lng" into validated coordinates.
func ParseLatLng(s string) (models.Coordinates, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return models.Coordinates{}, fmt.Errorf("%w: expected \"lat,lng\", got %q", shared.ErrInvalidCoordinates, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: bad latitude %q", shared.ErrInvalidCoordinates, latS)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: bad longitude %q", shared.ErrInvalidCoordinates, lngS)
	}

	c := models.Coordinates{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return models.Coordinates{}, err
	}
	return c, nil
}
