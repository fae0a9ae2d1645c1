package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame indicates wire data without a complete frame.
	ErrNoFrame = errors.New("no frame")
	// ErrBadNumber indicates a numeric field that doesn't parse.
	ErrBadNumber = errors.New("malformed number")
	// ErrEmptyPath indicates a message without a path.
	ErrEmptyPath = errors.New("empty path")
	// ErrReservedChar indicates a path or string value containing one of
	// the frame delimiters.
	ErrReservedChar = errors.New("reserved character")
	// ErrKindMismatch indicates a message whose values don't match its kind.
	ErrKindMismatch = errors.New("values don't match payload kind")
)

// UnknownKindError indicates an unrecognized payload kind name.
type UnknownKindError struct {
	Kind string
}

// Error implements error.
func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown payload kind %q", e.Kind)
}

// UnknownCodecError indicates an unregistered codec name.
type UnknownCodecError struct {
	Name string
}

// Error implements error.
func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("unknown codec %q", e.Name)
}
