package core

import "errors"

var (
	// ErrNotImplemented is returned by Update: the write path does not exist.
	ErrNotImplemented = errors.New("update is not implemented")

	// ErrInvalidEntity is returned by Update for an entity outside the
	// category set.
	ErrInvalidEntity = errors.New("invalid entity")
)
