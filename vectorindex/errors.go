package vectorindex

import "errors"

var (
	// ErrLengthMismatch indicates ids and vectors differ in length.
	ErrLengthMismatch = errors.New("ids and vectors differ in length")

	// ErrDimensionMismatch indicates a vector of the wrong size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorrupt indicates an index file failed to decode or verify.
	ErrCorrupt = errors.New("corrupt index file")

	// ErrStale indicates an index file built from different content.
	ErrStale = errors.New("index is stale")
)
