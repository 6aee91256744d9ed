package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// contentKey is the payload field holding the point text.
const contentKey = "content"

// Store is a Qdrant-backed vector store.
type Store struct {
	client *client
}

// NewStore creates a store talking to the server in cfg.
func NewStore(cfg Config) (*Store, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{client: c}, nil
}

type wirePoint struct {
	ID      int64          `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float64        `json:"score,omitempty"`
}

func (p wirePoint) content() string {
	s, _ := p.Payload[contentKey].(string)
	return s
}

func collectionPath(name string, suffix string) string {
	return "/collections/" + url.PathEscape(name) + suffix
}

// CreateCollection drops the collection if present and creates it again.
func (s *Store) CreateCollection(ctx context.Context, name string, dim int, distance domain.Distance) error {
	if name == "" || dim <= 0 {
		return fmt.Errorf("%w: collection %q with dimension %d", domain.ErrInvalidInput, name, dim)
	}
	if err := s.DeleteCollection(ctx, name); err != nil {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": string(distance),
		},
	}
	if err := s.client.do(ctx, http.MethodPut, collectionPath(name, ""), body, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// CollectionInfo describes a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	var result struct {
		PointsCount *int `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := s.client.do(ctx, http.MethodGet, collectionPath(name, ""), nil, &result); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}

	info := &domain.CollectionInfo{
		Name:      name,
		Dimension: result.Config.Params.Vectors.Size,
		Distance:  domain.Distance(result.Config.Params.Vectors.Distance),
	}
	if result.PointsCount != nil {
		info.Count = *result.PointsCount
	}
	return info, nil
}

// DeleteCollection removes a collection. Missing collections are ignored.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.do(ctx, http.MethodDelete, collectionPath(name, ""), nil, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Upsert writes points and waits for them to be applied.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	wire := make([]wirePoint, len(points))
	for i, p := range points {
		wire[i] = wirePoint{ID: p.ID, Vector: p.Vector, Payload: map[string]any{contentKey: p.Content}}
	}
	err := s.client.do(ctx, http.MethodPut, collectionPath(collection, "/points?wait=true"), map[string]any{"points": wire}, nil)
	return s.wrap("upsert", collection, err)
}

// UpdateVectors replaces the vector of an existing point.
func (s *Store) UpdateVectors(ctx context.Context, collection string, id int64, vector []float32) error {
	body := map[string]any{
		"points": []map[string]any{{"id": id, "vector": vector}},
	}
	err := s.client.do(ctx, http.MethodPut, collectionPath(collection, "/points/vectors?wait=true"), body, nil)
	if isNotFound(err) {
		return fmt.Errorf("point %d: %w", id, domain.ErrNotFound)
	}
	return s.wrap("update vectors", collection, err)
}

// Delete removes points by id.
func (s *Store) Delete(ctx context.Context, collection string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.client.do(ctx, http.MethodPost, collectionPath(collection, "/points/delete?wait=true"), map[string]any{"points": ids}, nil)
	return s.wrap("delete", collection, err)
}

// Search queries the nearest neighbours of vector.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int, threshold *float64) ([]domain.ScoredPoint, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if threshold != nil {
		body["score_threshold"] = *threshold
	}

	var result []wirePoint
	if err := s.client.do(ctx, http.MethodPost, collectionPath(collection, "/points/search"), body, &result); err != nil {
		return nil, s.wrap("search", collection, err)
	}

	hits := make([]domain.ScoredPoint, len(result))
	for i, p := range result {
		hits[i] = domain.ScoredPoint{ID: p.ID, Score: p.Score, Content: p.content()}
	}
	return hits, nil
}

// Retrieve fetches points by id in request order.
func (s *Store) Retrieve(ctx context.Context, collection string, ids []int64, withVectors bool) ([]domain.Point, error) {
	if len(ids) == 0 {
		return []domain.Point{}, nil
	}
	body := map[string]any{
		"ids":          ids,
		"with_payload": true,
		"with_vector":  withVectors,
	}
	var result []wirePoint
	if err := s.client.do(ctx, http.MethodPost, collectionPath(collection, "/points"), body, &result); err != nil {
		return nil, s.wrap("retrieve", collection, err)
	}

	byID := make(map[int64]wirePoint, len(result))
	for _, p := range result {
		byID[p.ID] = p
	}
	out := make([]domain.Point, 0, len(result))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, domain.Point{ID: p.ID, Vector: p.Vector, Content: p.content()})
			delete(byID, id)
		}
	}
	return out, nil
}

// Scroll pages through the collection using Qdrant's next_page_offset.
func (s *Store) Scroll(ctx context.Context, collection string, req domain.ScrollRequest) (*domain.ScrollPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultScrollPageSize
	}
	body := map[string]any{
		"limit":        limit,
		"with_payload": req.WithPayload,
		"with_vector":  req.WithVectors,
	}
	if req.Cursor != "" {
		offset, err := strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cursor %q", domain.ErrInvalidInput, req.Cursor)
		}
		body["offset"] = offset
	}

	var result struct {
		Points         []wirePoint     `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	}
	if err := s.client.do(ctx, http.MethodPost, collectionPath(collection, "/points/scroll"), body, &result); err != nil {
		return nil, s.wrap("scroll", collection, err)
	}

	page := &domain.ScrollPage{Points: make([]domain.Point, len(result.Points))}
	for i, p := range result.Points {
		page.Points[i] = domain.Point{ID: p.ID, Vector: p.Vector, Content: p.content()}
	}
	if len(result.NextPageOffset) > 0 && string(result.NextPageOffset) != "null" {
		var next int64
		if err := json.Unmarshal(result.NextPageOffset, &next); err != nil {
			return nil, fmt.Errorf("scroll %s: decoding next offset: %w", collection, err)
		}
		page.Next = strconv.FormatInt(next, 10)
	}
	return page, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.http.CloseIdleConnections()
	return nil
}

// wrap maps a 404 to domain.ErrCollectionNotFound.
func (s *Store) wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%s: %w: %s", op, domain.ErrCollectionNotFound, collection)
	}
	return fmt.Errorf("%s %s: %w", op, collection, err)
}
