package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxDepth is returned when nesting exceeds MaxDepth, which for a
	// well-formed entity graph indicates a cycle.
	ErrMaxDepth = errors.New("maximum nesting depth exceeded")

	// ErrNilEntity is returned when an entity to serialize is nil or a nil
	// pointer.
	ErrNilEntity = errors.New("nil entity")

	// ErrUnsupportedValue is returned for a value the serializer does not
	// know how to convert.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// SerializationError reports a value of unexpected shape found while
// serializing. Path locates the value in camelCase dotted form.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("serializing entity: %v", e.Err)
	}

	return fmt.Sprintf("serializing %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
