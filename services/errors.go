package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every lookup that fails because the referenced
// agency, worker, template or invoice does not exist.
var ErrNotFound = errors.New("not found")

// ErrBlockLocked is returned when an editor operation targets one of the
// permanent default blocks.
var ErrBlockLocked = &ValidationError{Field: "block", Message: "block is locked and cannot be changed or removed"}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// ValidationError reports malformed input: a bad template, a bad field
// reference or an out-of-range editor argument.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RenderError is fatal to a single invoice: layout or PDF encoding failed
// before any bytes were handed back.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render invoice: " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// ExternalServiceError wraps failures of the payment provider or file store.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string { return e.Service + ": " + e.Err.Error() }
func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ErrorKind classifies an error for clients.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindValidation      ErrorKind = "validation"
	KindRender          ErrorKind = "render"
	KindExternalService ErrorKind = "external_service"
	KindInternal        ErrorKind = "internal"
)

// KindOf maps err onto the error taxonomy. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	var re *RenderError
	var xe *ExternalServiceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &re):
		return KindRender
	case errors.As(err, &xe):
		return KindExternalService
	default:
		return KindInternal
	}
}

// PublicMessage returns a message that is safe to show to a client.
// Internal errors are reduced to a generic text.
func PublicMessage(err error) string {
	var ve *ValidationError
	var xe *ExternalServiceError
	switch KindOf(err) {
	case KindNotFound:
		return err.Error()
	case KindValidation:
		errors.As(err, &ve)
		return ve.Error()
	case KindRender:
		return "failed to render invoice PDF"
	case KindExternalService:
		errors.As(err, &xe)
		return xe.Service + " is unavailable"
	default:
		return "internal error"
	}
}
