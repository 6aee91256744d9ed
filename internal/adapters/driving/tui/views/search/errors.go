package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoIndex indicates that no index was provided.
	ErrNoIndex = errors.New("index is required")
)
