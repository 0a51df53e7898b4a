package loom

import "errors"

// Common engine errors.
var (
	// ErrNotFound indicates an id, tag, or parent does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate id or root, or a non-cascading
	// delete of a node that still has children.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed input, such as empty node text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState indicates an operation that requires an active path
	// was called without one.
	ErrInvalidState = errors.New("invalid state")

	// ErrCorrupt indicates a loaded document failed structural validation.
	ErrCorrupt = errors.New("corrupt")
)
