package tui

import "errors"

// ErrMissingIndex is returned when no index is provided.
var ErrMissingIndex = errors.New("tui: index is required")
