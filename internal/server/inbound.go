package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/pinmap/internal/shared"
)

// InboundBatch is a list of place descriptions pushed by the browser extension.
type InboundBatch struct {
	Source string   `json:"source"`
	Origin string   `json:"origin,omitempty"`
	Places []string `json:"places"`
}

// Validate checks the batch's origin and source tag. origin is the request's Origin header, falling back to the body.
func (b InboundBatch) Validate(cfg shared.ServerConfig, origin string) error {
	if origin == "" {
		origin = b.Origin
	}
	if !OriginAllowed(cfg.AllowedOrigins, origin) {
		return fmt.Errorf("%w: %q", shared.ErrForbiddenOrigin, origin)
	}
	if cfg.ExtensionSource == "" || b.Source != cfg.ExtensionSource {
		return fmt.Errorf("%w: unexpected source %q", shared.ErrForbiddenOrigin, b.Source)
	}
	return nil
}

// DedupePlaces trims entries, drops empty ones and keeps the first of any repeated description.
//
// Repeats are compared with [shared.NormalizeQuery].
func DedupePlaces(places []string) []string {
	seen := make(map[string]bool, len(places))
	out := make([]string, 0, len(places))
	for _, p := range places {
		p = strings.TrimSpace(p)
		key := shared.NormalizeQuery(p)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// inbound validates an extension batch and queues it behind any run in flight.
func (a *API) inbound(w http.ResponseWriter, r *http.Request) {
	var batch InboundBatch
	if err := decodeJSON(w, r, &batch); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := batch.Validate(a.server, r.Header.Get("Origin")); err != nil {
		if logger := LoggerFrom(r.Context()); logger != nil {
			logger.Warn("inbound batch rejected", "error", err)
		}
		WriteError(w, r, err)
		return
	}

	places := DedupePlaces(batch.Places)
	if len(places) == 0 {
		WriteError(w, r, fmt.Errorf("%w: batch has no places", shared.ErrInvalidInput))
		return
	}

	result, err := a.pipeline.RunQueued(r.Context(), places, nil)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewRunView(result))
}
