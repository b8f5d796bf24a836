// ABOUTME: Decoder error taxonomy
// ABOUTME: Distinguishes unsupported formats from corrupt input
package decode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat matches any UnsupportedFormatError
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrDecode matches any DecodeError
	ErrDecode = errors.New("audio decode failed")
)

// UnsupportedFormatError reports input that no decoder accepts
type UnsupportedFormatError struct {
	MIME     string
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format: %s (file %q)", e.MIME, e.Filename)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// DecodeError reports input that was recognised but could not be decoded
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode failed: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErr(codec string, err error) error {
	return &DecodeError{Codec: codec, Err: err}
}
