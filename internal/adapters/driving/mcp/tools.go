package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

// ListIndexesInput is the input schema for the list_indexes tool.
type ListIndexesInput struct{}

// ListIndexesOutput is the output schema for the list_indexes tool.
type ListIndexesOutput struct {
	Indexes []IndexOutput `json:"indexes"`
	Count   int           `json:"count"`
}

// IndexOutput describes one index.
type IndexOutput struct {
	Name          string   `json:"name"`
	Mode          string   `json:"mode"`
	Collections   []string `json:"collections"`
	ModelKind     string   `json:"model_kind"`
	EmbeddingSize int      `json:"embedding_size"`
	RecordCount   int      `json:"record_count"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Index string `json:"index" jsonschema:"name of the index to query"`
	Query string `json:"query" jsonschema:"the text to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchSimilarInput is the input schema for the search_similar tool.
type SearchSimilarInput struct {
	Index     string  `json:"index" jsonschema:"name of the index to query"`
	Query     string  `json:"query" jsonschema:"the text to compare against"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity (default 0.95)"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID         int64   `json:"id"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
	Collection string  `json:"collection"`
}

// FindDuplicatesInput is the input schema for the find_duplicates tool.
type FindDuplicatesInput struct {
	Index     string  `json:"index" jsonschema:"name of the index to scan"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity (default 0.95)"`
	Connected bool    `json:"connected,omitempty" jsonschema:"merge clusters that share a record"`
}

// FindDuplicatesOutput is the output schema for the find_duplicates tool.
type FindDuplicatesOutput struct {
	Clusters [][]int64 `json:"clusters"`
	Count    int       `json:"count"`
}

var errMissingIndex = errors.New("index is required")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_indexes",
		Description: "List the available search indexes",
	}, s.handleListIndexes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Return the records of an index closest in meaning to the query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_similar",
		Description: "Return records of an index whose similarity to the query meets a threshold",
	}, s.handleSearchSimilar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: "Group near-identical records of an index",
	}, s.handleFindDuplicates)
}

func (s *Server) handleListIndexes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListIndexesInput,
) (*mcp.CallToolResult, ListIndexesOutput, error) {
	manifests, err := s.ports.Catalog.List(ctx)
	if err != nil {
		return nil, ListIndexesOutput{}, err
	}

	output := ListIndexesOutput{
		Indexes: make([]IndexOutput, len(manifests)),
		Count:   len(manifests),
	}
	for i := range manifests {
		m := &manifests[i]
		output.Indexes[i] = IndexOutput{
			Name:          m.Name,
			Mode:          string(m.Mode),
			Collections:   m.CollectionNames(),
			ModelKind:     m.ModelKind,
			EmbeddingSize: m.EmbeddingSize,
			RecordCount:   m.RecordCount,
		}
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Index == "" {
		return nil, SearchOutput{}, errMissingIndex
	}
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	var hits []domain.SearchHit
	err := s.withIndex(ctx, input.Index, func(idx driving.IndexService) error {
		var err error
		hits, err = idx.Search(ctx, input.Query, limit)
		return err
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(hits), nil
}

func (s *Server) handleSearchSimilar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchSimilarInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Index == "" {
		return nil, SearchOutput{}, errMissingIndex
	}
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	threshold := input.Threshold
	if threshold <= 0 {
		threshold = domain.DefaultSimilarityThreshold
	}

	var hits []domain.SearchHit
	err := s.withIndex(ctx, input.Index, func(idx driving.IndexService) error {
		var err error
		hits, err = idx.SearchSimilar(ctx, input.Query, limit, threshold)
		return err
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(hits), nil
}

func (s *Server) handleFindDuplicates(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindDuplicatesInput,
) (*mcp.CallToolResult, FindDuplicatesOutput, error) {
	if input.Index == "" {
		return nil, FindDuplicatesOutput{}, errMissingIndex
	}

	var clusters []domain.DuplicateCluster
	err := s.withIndex(ctx, input.Index, func(idx driving.IndexService) error {
		var err error
		clusters, err = idx.FindDuplicates(ctx, domain.DuplicateOptions{
			Threshold: input.Threshold,
			Connected: input.Connected,
		})
		return err
	})
	if err != nil {
		return nil, FindDuplicatesOutput{}, err
	}

	output := FindDuplicatesOutput{
		Clusters: make([][]int64, len(clusters)),
		Count:    len(clusters),
	}
	for i, c := range clusters {
		output.Clusters[i] = c.IDs
	}
	return nil, output, nil
}

func toSearchOutput(hits []domain.SearchHit) SearchOutput {
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = SearchResultOutput{
			ID:         h.ID,
			Score:      h.Score,
			Content:    h.Content,
			Collection: h.Collection,
		}
	}
	return output
}
