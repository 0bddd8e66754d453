package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCategory is returned for a category outside the closed set.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnsupportedFilter is returned when a query carries a filter; backends
	// only serve whole-category reads.
	ErrUnsupportedFilter = errors.New("filtered queries are not supported")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// StoreError reports a failed backing query: connectivity problems, a bad
// response status, or a payload that could not be decoded.
type StoreError struct {
	// Op is the failing operation ("query", "decode", "ping", ...).
	Op string
	// Backend names the driver that produced the error.
	Backend string
	// Category is the category being read, if any.
	Category Category
	// Err is the underlying cause.
	Err error
}

func (e *StoreError) Error() string {
	parts := []string{"store"}
	for _, p := range []string{e.Backend, e.Op, string(e.Category)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError. A nil err yields nil.
func NewStoreError(backend, op string, category Category, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Backend: backend, Category: category, Err: err}
}

// IsStoreError reports whether err is or wraps a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
