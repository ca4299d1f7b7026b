package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/pinmap/internal/formatter"
	"github.com/desertthunder/pinmap/internal/geo"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/urfave/cli/v3"
)

var openBrowser = shared.OpenBrowser

// MarkersList prints the live markers.
func (r *Runner) MarkersList(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	markers := r.store.Markers()
	if cmd.Bool("json") {
		return r.writeJSON(markers, true)
	}

	if len(markers) == 0 {
		r.writePlain("No markers. Try 'pinmap search \"Eiffel Tower, Paris\"'.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Markers (%d)", len(markers)))
	for _, m := range markers {
		r.writePlain("%s  %s\n", m.ID, m.Name)
		if m.Address != "" {
			r.writePlain("    %s\n", m.Address)
		}
		details := []string{m.Coordinates.String(), string(m.Category())}
		if m.Rating > 0 {
			details = append(details, fmt.Sprintf("%.1f★ (%d)", m.Rating, m.TotalRatings))
		}
		if m.IsOpenNow != models.OpenUnknown {
			details = append(details, m.IsOpenNow.String())
		}
		r.writePlain("    %s\n", strings.Join(details, " • "))
	}
	return nil
}

// MarkersAddPoint drops a marker at the given coordinates.
func (r *Runner) MarkersAddPoint(ctx context.Context, cmd *cli.Command) error {
	var coords models.Coordinates

	if arg := cmd.StringArg("latlng"); arg != "" {
		c, err := geo.ParseLatLng(arg)
		if err != nil {
			return err
		}
		coords = c
	} else if cmd.IsSet("lat") && cmd.IsSet("lng") {
		coords = models.Coordinates{Lat: cmd.Float("lat"), Lng: cmd.Float("lng")}
	} else {
		return fmt.Errorf("%w: give \"lat,lng\" or --lat and --lng", shared.ErrMissingArgument)
	}

	if err := coords.Validate(); err != nil {
		return err
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	m, err := r.pipeline.AddPoint(ctx, coords)
	if err != nil {
		return err
	}
	r.writePlain("✓ Added %s at %s\n", m.Name, m.Coordinates.String())
	return nil
}

// MarkersRemove removes one marker by id.
func (r *Runner) MarkersRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: marker id is required", shared.ErrMissingArgument)
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	m, err := r.store.Get(id)
	if err != nil {
		return err
	}
	if err := r.store.Remove(id); err != nil {
		return err
	}
	r.writePlain("✓ Removed %s\n", m.Name)
	return nil
}

// MarkersClear removes every marker after confirmation.
func (r *Runner) MarkersClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	n := r.store.Len()
	if n == 0 {
		r.writePlain("No markers to remove.\n")
		return nil
	}

	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Remove all %d markers?", n)) {
		r.writePlain("Cancelled.\n")
		return nil
	}

	if err := r.store.Clear(); err != nil {
		return err
	}
	r.writePlain("✓ Removed %d markers\n", n)
	return nil
}

// MarkersOpen opens a marker's Google Maps link in the browser.
func (r *Runner) MarkersOpen(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: marker id is required", shared.ErrMissingArgument)
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	m, err := r.store.Get(id)
	if err != nil {
		return err
	}

	url := m.GoogleMapsURL()
	if err := openBrowser(url); err != nil {
		r.writePlain("Open this link in your browser:\n%s\n", url)
		return err
	}
	r.writePlain("✓ Opened %s\n", m.Name)
	return nil
}

// MarkersExport renders the live markers in the chosen format.
func (r *Runner) MarkersExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	list := models.NewPlaceList("markers", r.store.Markers(), time.Now())
	return r.export(list, cmd.String("format"), cmd.String("output"))
}

// export writes list to path, or to the runner's output when path is "-".
func (r *Runner) export(list *models.PlaceList, format, path string) error {
	if path == "-" {
		data, err := formatter.Render(list, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	written, err := formatter.WriteExport(list, format, path)
	if err != nil {
		return err
	}
	r.logger.Info("export written", "list", list.Name, "format", format, "path", written)
	r.writePlain("✓ Exported %d places to %s\n", len(list.Markers), written)
	return nil
}

// Viewport prints the map centre and zoom framing the markers.
func (r *Runner) Viewport(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	vp := geo.Fit(r.store.Markers(), r.config.Map)
	if cmd.Bool("json") {
		return r.writeJSON(vp, true)
	}

	r.writePlain("Center: %s\n", vp.Center.String())
	r.writePlain("Zoom:   %d\n", vp.Zoom)
	if vp.Bounds != nil {
		r.writePlain("Bounds: %s to %s\n", vp.Bounds.SouthWest.String(), vp.Bounds.NorthEast.String())
	}
	return nil
}

// confirm asks a yes/no question on the runner's input; anything but y or yes is a no.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N] ", question)

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
