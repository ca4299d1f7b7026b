package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/pinmap/internal/shared"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates an [APIError]. Only the first detail is kept.
func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrBadJSON  = NewAPIError("INVALID_INPUT", "Request body is not valid JSON", http.StatusBadRequest)
	ErrInternal = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// FromError converts any error into an [APIError] using [shared.Classify].
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := shared.Classify(err)
	status := http.StatusInternalServerError
	switch kind {
	case shared.KindMissingCredential:
		status = http.StatusUnauthorized
	case shared.KindNotFound:
		status = http.StatusNotFound
	case shared.KindProvider, shared.KindMalformedResponse:
		status = http.StatusBadGateway
	case shared.KindInvalidInput:
		status = http.StatusBadRequest
	case shared.KindForbidden:
		status = http.StatusForbidden
	case shared.KindBusy:
		status = http.StatusConflict
	}

	code := "UNKNOWN_ERROR"
	if kind != shared.KindUnknown {
		code = strings.ToUpper(kind.String())
	}
	return NewAPIError(code, shared.UserMessage(err), status, err.Error())
}

// WriteError writes err as a JSON [APIError], tagged with the request id when one is set.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := *FromError(err)
	if r != nil {
		apiErr.RequestID = RequestIDFrom(r.Context())
	}
	if apiErr.Status >= 500 && r != nil {
		if logger := LoggerFrom(r.Context()); logger != nil {
			logger.Error("server error", "code", apiErr.Code, "details", apiErr.Details)
		}
	}
	WriteJSON(w, apiErr.Status, apiErr)
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON reads a JSON request body of at most 1 MiB into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return NewAPIError(ErrBadJSON.Code, ErrBadJSON.Message, ErrBadJSON.Status, err.Error())
	}
	return nil
}
