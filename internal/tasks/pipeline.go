package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/services"
	"github.com/desertthunder/pinmap/internal/shared"
	"golang.org/x/sync/semaphore"
)

// PlaceResolver resolves one description into a tagged result.
type PlaceResolver interface {
	Resolve(ctx context.Context, query string) services.Result
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Marker, error)

	// Ready reports whether lookups can be made at all.
	Ready() bool
}

// MarkerSink receives resolved markers.
type MarkerSink interface {
	Add(m models.Marker) error
}

// QuestionInterpreter turns a question into place descriptions.
type QuestionInterpreter interface {
	Interpret(ctx context.Context, question string) ([]string, error)
}

// TextExtractor pulls place entries out of free text.
type TextExtractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// FailedQuery is a description whose lookup or store write failed.
type FailedQuery struct {
	Query string `json:"query"`
	Err   error  `json:"-"`
}

// Message returns the error text for display.
func (f FailedQuery) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// RunResult contains the outcome of one pipeline run.
type RunResult struct {
	Added      []models.Marker // Markers added to the store, in input order
	Unresolved []string        // Descriptions the provider found nothing for
	Failed     []FailedQuery   // Descriptions that hit a provider or store error
	Total      int             // Number of descriptions processed
}

func newRunResult(total int) *RunResult {
	return &RunResult{
		Added:      []models.Marker{},
		Unresolved: []string{},
		Failed:     []FailedQuery{},
		Total:      total,
	}
}

// Notice returns the consolidated message shown after a run, or "" when every description was added.
func (r *RunResult) Notice() string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	if n := len(r.Unresolved); n > 0 {
		if n == 1 {
			b.WriteString("Could not find 1 place:")
		} else {
			fmt.Fprintf(&b, "Could not find %d places:", n)
		}
		for _, q := range r.Unresolved {
			b.WriteString("\n  - " + q)
		}
	}
	if len(r.Failed) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if n := len(r.Failed); n == 1 {
			b.WriteString("1 lookup failed. Please try again.")
		} else {
			fmt.Fprintf(&b, "%d lookups failed. Please try again.", n)
		}
	}
	return b.String()
}

type resolution struct {
	query      string
	marker     *models.Marker
	unresolved bool
	err        error
}

// Pipeline resolves batches of descriptions into the marker store, one run at a time.
type Pipeline struct {
	resolver    PlaceResolver
	sink        MarkerSink
	interpreter QuestionInterpreter
	extractor   TextExtractor
	logger      *log.Logger
	sem         *semaphore.Weighted
}

// NewPipeline creates a pipeline. interpreter and extractor may be nil when only [Pipeline.Run] is used.
func NewPipeline(resolver PlaceResolver, sink MarkerSink, interpreter QuestionInterpreter, extractor TextExtractor, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Pipeline{
		resolver:    resolver,
		sink:        sink,
		interpreter: interpreter,
		extractor:   extractor,
		logger:      logger,
		sem:         semaphore.NewWeighted(1),
	}
}

// ready fails with [shared.ErrMissingCredential] when the resolver has no places key.
func (p *Pipeline) ready() error {
	if !p.resolver.Ready() {
		return fmt.Errorf("%w: no places api key configured", shared.ErrMissingCredential)
	}
	return nil
}

// Run resolves descriptions in order and adds every found place to the store.
//
// Returns [shared.ErrMissingCredential] before any lookup when the places key is missing, and
// [shared.ErrPipelineBusy] without doing any work when another run is in flight.
// On cancellation the partial result is returned together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, descriptions []string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if !p.sem.TryAcquire(1) {
		return nil, shared.ErrPipelineBusy
	}
	defer p.sem.Release(1)

	return p.run(ctx, descriptions, progress)
}

// RunQueued is [Pipeline.Run] but waits for an in-flight run to finish instead of failing.
func (p *Pipeline) RunQueued(ctx context.Context, descriptions []string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	return p.run(ctx, descriptions, progress)
}

// Ask interprets question with the language model and resolves the answer.
//
// An interpreter error is returned as-is and nothing is resolved. Both credentials are checked before the model is called.
func (p *Pipeline) Ask(ctx context.Context, question string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if p.interpreter == nil {
		return nil, fmt.Errorf("%w: no language model configured", shared.ErrMissingCredential)
	}
	if !p.sem.TryAcquire(1) {
		return nil, shared.ErrPipelineBusy
	}
	defer p.sem.Release(1)

	sendProgress(progress, interpretUpdate(question))
	descriptions, err := p.interpreter.Interpret(ctx, question)
	if err != nil {
		return nil, err
	}
	p.logger.Info("question interpreted", "places", len(descriptions))
	return p.run(ctx, descriptions, progress)
}

// ExtractAndRun extracts place entries from text and resolves them.
func (p *Pipeline) ExtractAndRun(ctx context.Context, text string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if p.extractor == nil {
		return nil, fmt.Errorf("%w: no language model configured", shared.ErrMissingCredential)
	}
	if !p.sem.TryAcquire(1) {
		return nil, shared.ErrPipelineBusy
	}
	defer p.sem.Release(1)

	sendProgress(progress, extractUpdate(len(text)))
	descriptions, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	p.logger.Info("text extracted", "places", len(descriptions))
	return p.run(ctx, descriptions, progress)
}

// AddPoint reverse geocodes coords and adds the resulting marker.
func (p *Pipeline) AddPoint(ctx context.Context, coords models.Coordinates) (*models.Marker, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	m, err := p.resolver.ReverseGeocode(ctx, coords)
	if err != nil {
		return nil, err
	}
	if err := p.sink.Add(*m); err != nil {
		return nil, err
	}
	p.logger.Info("point added", "name", m.Name, "coordinates", coords.String())
	return m, nil
}

func (p *Pipeline) run(ctx context.Context, descriptions []string, progress chan<- ProgressUpdate) (*RunResult, error) {
	result := newRunResult(len(descriptions))

	for i, query := range descriptions {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cancelled", "processed", i, "total", len(descriptions))
			return result, err
		}

		sendProgress(progress, resolvingUpdate(i+1, len(descriptions), query))
		r := p.resolveOne(ctx, query)

		switch {
		case r.marker != nil:
			result.Added = append(result.Added, *r.marker)
		case r.unresolved:
			result.Unresolved = append(result.Unresolved, query)
		default:
			result.Failed = append(result.Failed, FailedQuery{Query: query, Err: r.err})
		}
		sendProgress(progress, resolvedUpdate(i+1, len(descriptions), r))
	}

	p.logger.Info("run complete",
		"total", result.Total,
		"added", len(result.Added),
		"unresolved", len(result.Unresolved),
		"failed", len(result.Failed),
	)
	sendProgress(progress, completeUpdate(result))
	return result, nil
}

func (p *Pipeline) resolveOne(ctx context.Context, query string) resolution {
	res := p.resolver.Resolve(ctx, query)

	switch res.Status {
	case services.ResultFound:
		if err := p.sink.Add(*res.Marker); err != nil {
			p.logger.Error("failed to store marker", "query", query, "error", err)
			return resolution{query: query, err: err}
		}
		return resolution{query: query, marker: res.Marker}
	case services.ResultNotFound:
		p.logger.Debug("place not found", "query", query)
		return resolution{query: query, unresolved: true, err: res.Err}
	default:
		p.logger.Warn("place lookup failed", "query", query, "error", res.Err)
		return resolution{query: query, err: res.Err}
	}
}
