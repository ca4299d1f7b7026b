package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// CachePurge deletes expired entries from the sqlite place cache.
//
// The redis driver expires entries itself, so there is nothing to purge.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	if r.placeCache == nil {
		r.writePlain("Cache driver %q does not need purging.\n", r.config.Cache.Driver)
		return nil
	}

	n, err := r.placeCache.Purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	r.logger.Info("cache purged", "removed", n)
	r.writePlain("✓ Removed %d expired cache entries\n", n)
	return nil
}
