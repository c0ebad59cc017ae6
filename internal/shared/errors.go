package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a structurally invalid request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a state conflict such as a duplicate write.
	ErrConflict = errors.New("conflict")
)
