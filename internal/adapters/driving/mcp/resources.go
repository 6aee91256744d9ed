package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

const (
	// URIScheme is the custom URI scheme for sercha-index resources.
	uriScheme = "sercha-index://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indexes",
		Name:        "indexes",
		Description: "Manifests of all indexes",
		MIMEType:    "application/json",
	}, s.handleIndexesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "indexes/{index}/records/{id}",
		Name:        "index-record",
		Description: "A stored record of an index",
		MIMEType:    "application/json",
	}, s.handleRecordResource)
}

// handleIndexesResource returns the manifests of all indexes.
func (s *Server) handleIndexesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	manifests, err := s.ports.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	if manifests == nil {
		manifests = []domain.IndexManifest{}
	}

	data, err := json.MarshalIndent(manifests, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling indexes: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleRecordResource returns one record of an index.
func (s *Server) handleRecordResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// sercha-index://indexes/{index}/records/{id}
	name, id, ok := parseRecordURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	var records []domain.Record
	err := s.withIndex(ctx, name, func(idx driving.IndexService) error {
		var err error
		records, err = idx.Retrieve(ctx, []int64{id})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving record: %w", err)
	}
	if len(records) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(records[0], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling record: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// parseRecordURI extracts the index name and record id from a record URI.
func parseRecordURI(uri string) (string, int64, bool) {
	const prefix = uriScheme + "indexes/"

	if !strings.HasPrefix(uri, prefix) {
		return "", 0, false
	}

	name, rawID, ok := strings.Cut(strings.TrimPrefix(uri, prefix), "/records/")
	if !ok || name == "" {
		return "", 0, false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return name, id, true
}
