// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// SearchMode selects which index query the TUI runs.
type SearchMode int

const (
	// ModeSearch returns the nearest hits without a score floor.
	ModeSearch SearchMode = iota

	// ModeSimilar returns only hits at or above the similarity threshold.
	ModeSimilar
)

// String returns the label shown in the UI.
func (m SearchMode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeSimilar:
		return "similar"
	default:
		return "unknown"
	}
}

// Next returns the other mode.
func (m SearchMode) Next() SearchMode {
	if m == ModeSearch {
		return ModeSimilar
	}
	return ModeSearch
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query string
	Mode  SearchMode
	Hits  []domain.SearchHit
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
