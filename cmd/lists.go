package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func listName(cmd *cli.Command) (string, error) {
	name := cmd.StringArg("name")
	if name == "" {
		return "", fmt.Errorf("%w: list name is required", shared.ErrMissingArgument)
	}
	return name, nil
}

// ListsList prints the saved lists.
func (r *Runner) ListsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	lists := r.store.Lists()
	if cmd.Bool("json") {
		return r.writeJSON(lists, true)
	}

	if len(lists) == 0 {
		r.writePlain("No saved lists.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Saved lists (%d)", len(lists)))
	for _, l := range lists {
		r.writePlain("%-30s %3d places  saved %s\n", l.Name, l.MarkerCount, l.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// ListsSave saves the live markers under a name, replacing a list with the same name.
func (r *Runner) ListsSave(ctx context.Context, cmd *cli.Command) error {
	name, err := listName(cmd)
	if err != nil {
		return err
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	list, err := r.store.SaveAsList(name)
	if err != nil {
		return err
	}
	r.writePlain("✓ Saved %q (%d places)\n", list.Name, len(list.Markers))
	return nil
}

// ListsLoad replaces the live markers with a saved list.
func (r *Runner) ListsLoad(ctx context.Context, cmd *cli.Command) error {
	name, err := listName(cmd)
	if err != nil {
		return err
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	markers, err := r.store.LoadList(name)
	if err != nil {
		return err
	}
	r.writePlain("✓ Loaded %q (%d places)\n", name, len(markers))
	return nil
}

// ListsDelete removes a saved list.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	name, err := listName(cmd)
	if err != nil {
		return err
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	if err := r.store.DeleteList(name); err != nil {
		return err
	}
	r.writePlain("✓ Deleted %q\n", name)
	return nil
}

// ListsExport writes one saved list to a file.
func (r *Runner) ListsExport(ctx context.Context, cmd *cli.Command) error {
	name, err := listName(cmd)
	if err != nil {
		return err
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	list, err := r.store.List(name)
	if err != nil {
		return err
	}
	return r.export(list, cmd.String("format"), cmd.String("output"))
}

// ListsExportAll exports every saved list with a worker pool and writes a manifest.
func (r *Runner) ListsExportAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	lists := r.store.AllLists()
	if len(lists) == 0 {
		r.writePlain("No saved lists to export.\n")
		return nil
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Places.RateLimit,
	}
	if cmd.Bool("photos") {
		opts.PhotoURL = func(list *models.PlaceList) string {
			for _, m := range list.Markers {
				if m.PhotoReference != "" {
					return r.places.PhotoURL(m.PhotoReference, 800)
				}
			}
			return ""
		}
	}

	progress := make(chan tasks.ProgressUpdate, len(lists)*2)
	var g errgroup.Group
	g.Go(func() error {
		for update := range progress {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
		return nil
	})

	result, err := tasks.BulkExport(ctx, lists, opts, progress)
	close(progress)
	g.Wait()

	if result == nil {
		return err
	}

	r.writePlainln("Exported %d of %d lists to %s", result.Successful, result.TotalLists, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.Name, res.Error)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return err
}
