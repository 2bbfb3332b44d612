package model

import (
	"errors"
	"fmt"
)

// DecodeError marks a malformed on-chain payload. Builders treat it as
// "drop this record", never as fatal.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Reason
}

// Decodef builds a DecodeError from a format string.
func Decodef(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

var (
	// ErrEmptyInput signals that no candidates survived classification.
	// Builders report it and skip persistence.
	ErrEmptyInput = errors.New("no candidates after classification")

	// ErrDataUnavailable distinguishes "could not read the data" from a
	// legitimate zero result on the read path.
	ErrDataUnavailable = errors.New("source data unavailable")

	// ErrNotFound is returned by receipt lookups for unknown hashes.
	ErrNotFound = errors.New("not found")
)
