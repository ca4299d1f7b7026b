package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/shared"
)

// listMarker matches a leading "1." / "2)" / "-" / "*" / "•" bullet.
var listMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)

// SplitLines splits a model answer into one trimmed description per line.
//
// Code fence lines are dropped and leading list markers are stripped.
func SplitLines(raw string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}

		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		line = strings.Trim(line, `"`)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Interpreter answers natural-language questions with a list of place descriptions.
type Interpreter struct {
	completer Completer
	maxTokens int
	logger    *log.Logger
}

// NewInterpreter creates an interpreter. A non-positive maxTokens uses [DefaultQuestionMaxTokens].
func NewInterpreter(c Completer, maxTokens int, logger *log.Logger) *Interpreter {
	if maxTokens <= 0 {
		maxTokens = DefaultQuestionMaxTokens
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Interpreter{completer: c, maxTokens: maxTokens, logger: logger}
}

// Interpret asks the model for places answering question, one description per element.
func (i *Interpreter) Interpret(ctx context.Context, question string) ([]string, error) {
	return complete(ctx, i.completer, CompletionRequest{
		System:    QuestionPrompt(),
		User:      question,
		MaxTokens: i.maxTokens,
	}, i.logger)
}

// Extractor pulls atomic place entries out of free text.
type Extractor struct {
	completer    Completer
	maxTokens    int
	fallbackCity string
	logger       *log.Logger
}

// NewExtractor creates an extractor. fallbackCity is added to entries naming no city.
func NewExtractor(c Completer, maxTokens int, fallbackCity string, logger *log.Logger) *Extractor {
	if maxTokens <= 0 {
		maxTokens = DefaultExtractMaxTokens
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Extractor{completer: c, maxTokens: maxTokens, fallbackCity: fallbackCity, logger: logger}
}

// Extract returns the place entries mentioned in text.
func (e *Extractor) Extract(ctx context.Context, text string) ([]string, error) {
	return complete(ctx, e.completer, CompletionRequest{
		System:    ExtractPrompt(e.fallbackCity),
		User:      text,
		MaxTokens: e.maxTokens,
	}, e.logger)
}

func complete(ctx context.Context, c Completer, req CompletionRequest, logger *log.Logger) ([]string, error) {
	if strings.TrimSpace(req.User) == "" {
		return nil, fmt.Errorf("%w: empty prompt", shared.ErrInvalidInput)
	}
	if c == nil || !c.Ready() {
		return nil, fmt.Errorf("%w: no language model key configured", shared.ErrMissingCredential)
	}

	raw, err := c.Complete(ctx, req)
	switch {
	case errors.Is(err, shared.ErrMalformedResponse):
		logger.Warn("model returned no usable answer", "provider", c.Name(), "error", err)
		return []string{}, nil
	case errors.Is(err, shared.ErrMissingCredential), errors.Is(err, shared.ErrProvider), errors.Is(err, shared.ErrTimeout):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrProvider, c.Name(), err)
	}

	lines := SplitLines(raw)
	logger.Debug("model answered", "provider", c.Name(), "lines", len(lines))
	return lines, nil
}
