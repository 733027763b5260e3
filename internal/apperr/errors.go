package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedTree is returned when a repository tree violates the
	// single-root, acyclic, unique-path invariant.
	ErrMalformedTree = errors.New("malformed tree")
	ErrDuplicatePath = errors.New("duplicate path")
	ErrBinaryFile    = errors.New("binary file")
)
