package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/pinmap/internal/formatter"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultExportWorkers = 4
	maxExportWorkers     = 10
)

// BulkExportOpts contains configuration for bulk list exports.
type BulkExportOpts struct {
	Format     string                              // Export format: json, csv, markdown, txt, geojson
	OutputDir  string                              // Base output directory (default: pinmap_export_{epoch})
	NumWorkers int                                 // Concurrent workers (default: 4, max: 10)
	RateLimit  float64                             // Photo downloads per second (default: 5)
	PhotoURL   func(list *models.PlaceList) string // Optional photo source for markdown exports
	Now        func() time.Time                    // Clock for the manifest timestamp
}

// ListExportResult is the outcome of exporting one list.
type ListExportResult struct {
	Index   int
	Name    string
	Success bool
	Files   []string
	Error   error
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	RunID           string
	TotalLists      int
	Successful      int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []ListExportResult
}

type listExportJob struct {
	index int
	list  *models.PlaceList
	base  string
}

// BulkExport exports every list concurrently and writes a manifest summarizing the run.
//
// A failing list is recorded in the result and does not stop the others.
func BulkExport(ctx context.Context, lists []*models.PlaceList, opts BulkExportOpts, progress chan<- ProgressUpdate) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if err := formatter.ValidateFormat(opts.Format); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("pinmap_export_%d", opts.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultExportWorkers
	}
	if opts.NumWorkers > maxExportWorkers {
		opts.NumWorkers = maxExportWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		RunID:           shared.GenerateID(),
		TotalLists:      len(lists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ListExportResult, 0, len(lists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan listExportJob, len(lists))
	results := make(chan ListExportResult, len(lists))

	seen := make(map[string]bool, len(lists))
	for i, list := range lists {
		base := formatter.Slug(list.Name)
		if seen[base] {
			base = fmt.Sprintf("%s_%d", base, i+1)
		}
		seen[base] = true
		jobs <- listExportJob{index: i, list: list, base: base}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, limiter, opts, len(lists), progress)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			sendProgress(progress, exportCompletedUpdate(completed, len(lists), res.Name, len(res.Files)))
		} else {
			result.Failed++
			sendProgress(progress, exportFailedUpdate(completed, len(lists), res.Name, res.Error))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Index < result.Results[j].Index
	})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result.manifest(lists, opts), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportWorker is a worker goroutine that exports lists from the jobs channel.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan listExportJob,
	results chan<- ListExportResult,
	limiter *rate.Limiter,
	opts BulkExportOpts,
	total int,
	progress chan<- ProgressUpdate,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- ListExportResult{Index: job.index, Name: job.list.Name, Error: err}
			continue
		}

		sendProgress(progress, exportingListUpdate(job.index+1, total, job.list.Name))
		results <- exportSingleList(ctx, job, limiter, opts)
	}
}

// exportSingleList exports a single list to the configured format.
func exportSingleList(ctx context.Context, j listExportJob, limiter *rate.Limiter, opts BulkExportOpts) ListExportResult {
	result := ListExportResult{
		Index: j.index,
		Name:  j.list.Name,
		Files: []string{},
	}

	if opts.Format == formatter.FormatMarkdown {
		var photoURL string
		if opts.PhotoURL != nil {
			if photoURL = opts.PhotoURL(j.list); photoURL != "" {
				if err := limiter.Wait(ctx); err != nil {
					photoURL = ""
				}
			}
		}

		mdRes, err := formatter.WriteMarkdownExport(j.list, filepath.Join(opts.OutputDir, j.base), photoURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true
		return result
	}

	path := filepath.Join(opts.OutputDir, j.base+formatter.Extension(opts.Format))
	written, err := formatter.WriteExport(j.list, opts.Format, path)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Files = []string{written}
	result.Success = true
	return result
}

func (r *BulkExportResult) manifest(lists []*models.PlaceList, opts BulkExportOpts) *formatter.BulkExportManifest {
	m := &formatter.BulkExportManifest{
		RunID:      r.RunID,
		Format:     opts.Format,
		ExportedAt: opts.Now().UTC(),
		Total:      r.TotalLists,
		Successful: r.Successful,
		Failed:     r.Failed,
		Directory:  r.OutputDirectory,
		Lists:      make([]formatter.ManifestEntry, 0, len(r.Results)),
	}

	for _, res := range r.Results {
		entry := formatter.ManifestEntry{
			Name:    res.Name,
			Success: res.Success,
			Files:   res.Files,
		}
		if res.Index < len(lists) {
			entry.MarkerCount = len(lists[res.Index].Markers)
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Lists = append(m.Lists, entry)
	}
	return m
}
