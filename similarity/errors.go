package similarity

import "errors"

var (
	// ErrLengthMismatch indicates ids and vectors differ in length.
	ErrLengthMismatch = errors.New("ids and vectors differ in length")

	// ErrDimensionMismatch indicates vectors of different sizes.
	ErrDimensionMismatch = errors.New("vectors differ in dimension")

	// ErrDuplicateID indicates the same dataset id appears twice.
	ErrDuplicateID = errors.New("duplicate dataset id")

	// ErrBadMatrix indicates a similarity artifact could not be decoded.
	ErrBadMatrix = errors.New("malformed similarity matrix")
)
