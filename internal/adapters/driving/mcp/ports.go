package mcp

import (
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Catalog opens and lists indexes.
	Catalog driving.IndexCatalog
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalog
	}
	return nil
}
