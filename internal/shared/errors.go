package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrMissingCredential = fmt.Errorf("missing credential")

	// Provider errors
	ErrNotFound          = fmt.Errorf("not found")
	ErrProvider          = fmt.Errorf("provider request failed")
	ErrMalformedResponse = fmt.Errorf("malformed provider response")
	ErrTimeout           = fmt.Errorf("operation timed out")

	// Domain errors
	ErrInvalidCoordinates = fmt.Errorf("invalid coordinates")
	ErrInvalidMarker      = fmt.Errorf("invalid marker")
	ErrPipelineBusy       = fmt.Errorf("a resolution run is already in progress")
	ErrForbiddenOrigin    = fmt.Errorf("origin not allowed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind is the user-facing classification of an error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingCredential
	KindNotFound
	KindProvider
	KindMalformedResponse
	KindInvalidInput
	KindBusy
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider_error"
	case KindMalformedResponse:
		return "malformed_response"
	case KindInvalidInput:
		return "invalid_input"
	case KindBusy:
		return "busy"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Classify maps err onto an [ErrorKind].
//
// MissingCredential wins over Provider so a provider call that failed for lack of a key is reported as such.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrProvider), errors.Is(err, ErrTimeout):
		return KindProvider
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPipelineBusy):
		return KindBusy
	case errors.Is(err, ErrForbiddenOrigin):
		return KindForbidden
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrMissingArgument),
		errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrInvalidMarker):
		return KindInvalidInput
	default:
		return KindUnknown
	}
}

// UserMessage returns the passive notification text shown for err.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindMissingCredential:
		return "An API key is required. Set it with 'pinmap setup credential' or the environment."
	case KindProvider:
		return "The provider could not be reached. Please try again."
	case KindMalformedResponse:
		return "The model returned an unexpected answer. No places were found."
	case KindNotFound:
		return "Nothing was found."
	case KindBusy:
		return "Another search is still running. Please wait for it to finish."
	case KindForbidden:
		return "This request is not allowed."
	case KindInvalidInput:
		return fmt.Sprintf("Invalid input: %v", err)
	default:
		return "Something went wrong. Please try again."
	}
}
