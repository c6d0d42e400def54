package core

import "errors"

// Failure taxonomy shared by all components. Component errors wrap one of
// these kinds, so callers can classify with errors.Is.
var (
	// ErrInput indicates a malformed or missing raw record field.
	ErrInput = errors.New("input error")

	// ErrTranslation indicates facet or pattern-query generation failed.
	ErrTranslation = errors.New("translation error")

	// ErrQuery indicates a malformed pattern query or an engine failure.
	ErrQuery = errors.New("query error")

	// ErrIndex indicates a missing or corrupt vector index.
	ErrIndex = errors.New("index error")

	// ErrExternalService indicates a text-generation or embedding service failure.
	ErrExternalService = errors.New("external service error")

	// ErrNotFound indicates a missing serialized artifact.
	ErrNotFound = errors.New("not found")
)

// Validation errors.
var (
	// ErrInvalidDataset indicates a Dataset failed validation.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrEmptyID indicates the dataset ID is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyDescription indicates the Description field is empty.
	ErrEmptyDescription = errors.New("description cannot be empty")

	// ErrInvalidYear indicates a created or modified year is out of range.
	ErrInvalidYear = errors.New("year out of range")
)

// Error carries the failure kind and the operation that failed.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// NewError wraps err as a failure of the given kind during op.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
