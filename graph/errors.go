package graph

import "errors"

var (
	errSelfLink       = errors.New("dataset cannot be similar to itself")
	errUnknownDataset = errors.New("unknown dataset")

	// ErrSyntax indicates a pattern query that does not parse.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupported indicates a query construct outside the supported subset.
	ErrUnsupported = errors.New("unsupported construct")
)
