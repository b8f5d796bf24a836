// ABOUTME: Error types for the voice changer core
// ABOUTME: Typed errors with sentinels for errors.Is matching
package voicechanger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter matches any InvalidParameterError
	ErrInvalidParameter = errors.New("invalid transform parameter")
	// ErrEmptyBuffer matches any EmptyBufferError
	ErrEmptyBuffer = errors.New("empty audio buffer")
	// ErrInvalidBuffer matches any InvalidBufferError
	ErrInvalidBuffer = errors.New("invalid audio buffer")
)

// InvalidParameterError reports a speed or pitch factor the transform cannot use
type InvalidParameterError struct {
	Name   string // "speed" or "pitch"
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s factor %v: %s", e.Name, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// EmptyBufferError reports an input clip without samples
type EmptyBufferError struct{}

func (e *EmptyBufferError) Error() string {
	return "audio buffer has no samples"
}

func (e *EmptyBufferError) Is(target error) bool {
	return target == ErrEmptyBuffer
}

// InvalidBufferError reports a buffer that breaks its layout invariants
type InvalidBufferError struct {
	Err error
}

func (e *InvalidBufferError) Error() string {
	return fmt.Sprintf("invalid audio buffer: %v", e.Err)
}

func (e *InvalidBufferError) Unwrap() error {
	return e.Err
}

func (e *InvalidBufferError) Is(target error) bool {
	return target == ErrInvalidBuffer
}
