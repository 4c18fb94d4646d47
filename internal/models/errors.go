package models

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidQuery is returned for search queries shorter than the minimum length.
	ErrInvalidQuery = errors.New("query must be at least 2 characters")

	// ErrInvalidInput is returned for malformed identifiers.
	ErrInvalidInput = errors.New("invalid input")
)
