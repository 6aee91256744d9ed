// Package tui provides an interactive terminal search over one index.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

// Ports aggregates what the TUI needs from the core.
type Ports struct {
	// Index answers the queries.
	Index driving.IndexService

	// Limit caps the hits per query. Zero uses the default.
	Limit int

	// Threshold is the similarity floor in similar mode. Zero uses the default.
	Threshold float64
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndex
	}
	return nil
}
