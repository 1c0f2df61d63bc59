// Package lvserrors defines the error taxonomy shared by the ingestion
// gateway, snapshot provider and HTTP controllers. Three classes cover
// the whole service: validation failures (4xx, per-field detail),
// missing resources (404) and an unreachable datastore (503).
package lvserrors

import (
	"errors"
	"fmt"
)

// ErrDownstreamUnavailable marks a storage failure during ingestion.
// It is the only error class allowed to abort a submit call outright;
// callers must not broadcast anything when they see it.
var ErrDownstreamUnavailable = errors.New("downstream storage unavailable")

// ValidationError carries per-field validation detail for a rejected
// input record.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NotFoundError reports a lookup with no match where auto-creation does
// not apply.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// NewNotFoundError builds a NotFoundError for a resource/key pair.
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDownstreamUnavailable reports whether err wraps ErrDownstreamUnavailable.
func IsDownstreamUnavailable(err error) bool {
	return errors.Is(err, ErrDownstreamUnavailable)
}

// WrapDownstream tags a storage error as downstream-unavailable while
// keeping the cause in the chain.
func WrapDownstream(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
}
