package ocr

import (
	"errors"
	"fmt"
)

// ErrMissingImage is matched by every MissingImageError
var ErrMissingImage = errors.New("no image provided")

// MissingImageError is returned when a request carries no image in either
// accepted encoding. It is the only client error in the pipeline.
type MissingImageError struct {
	Field string
}

func (e *MissingImageError) Error() string {
	return fmt.Sprintf(`No image provided. Send a file with field name "%s" or a base64 encoded image in the request body.`, e.Field)
}

func (e *MissingImageError) Is(target error) bool {
	return target == ErrMissingImage
}

// DecodeError is a malformed base64 payload or data URI
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to decode image: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("failed to decode image: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// EngineFailure wraps anything the OCR engine reports, including a failed
// initialization
type EngineFailure struct {
	Engine string
	Cause  error
}

func (e *EngineFailure) Error() string {
	return fmt.Sprintf("%s engine: %v", e.Engine, e.Cause)
}

func (e *EngineFailure) Unwrap() error {
	return e.Cause
}

// SerializationError is a value the normalizer could not turn into JSON
type SerializationError struct {
	Type  string
	Cause error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot serialize %s: %v", e.Type, e.Cause)
	}
	return fmt.Sprintf("cannot serialize %s", e.Type)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}
