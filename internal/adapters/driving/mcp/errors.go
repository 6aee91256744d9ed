// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-index. It lets assistants list indexes, run semantic search and
// look for duplicate records.
package mcp

import "errors"

// ErrMissingCatalog is returned when the index catalog is not provided.
var ErrMissingCatalog = errors.New("mcp: index catalog is required")
