package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type storedPoint struct {
	vector  []float32
	norm    float64
	content string
}

type collection struct {
	dim      int
	distance domain.Distance
	points   map[int64]storedPoint
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is a brute-force cosine scan.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// CreateCollection creates or replaces a collection.
func (s *VectorStore) CreateCollection(_ context.Context, name string, dim int, distance domain.Distance) error {
	if name == "" || dim <= 0 {
		return fmt.Errorf("%w: collection %q with dimension %d", domain.ErrInvalidInput, name, dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = &collection{dim: dim, distance: distance, points: make(map[int64]storedPoint)}
	return nil
}

// CollectionInfo describes a collection.
func (s *VectorStore) CollectionInfo(_ context.Context, name string) (*domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return &domain.CollectionInfo{Name: name, Dimension: c.dim, Distance: c.distance, Count: len(c.points)}, nil
}

// DeleteCollection removes a collection.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Upsert inserts or replaces points.
func (s *VectorStore) Upsert(_ context.Context, name string, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(name)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != c.dim {
			return &domain.DimensionMismatchError{Collection: name, Want: c.dim, Got: len(p.Vector)}
		}
	}
	for _, p := range points {
		c.points[p.ID] = storedPoint{vector: vecmath.Clone(p.Vector), norm: vecmath.Norm(p.Vector), content: p.Content}
	}
	return nil
}

// UpdateVectors replaces the vector of an existing point.
func (s *VectorStore) UpdateVectors(_ context.Context, name string, id int64, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(name)
	if err != nil {
		return err
	}
	if len(vector) != c.dim {
		return &domain.DimensionMismatchError{Collection: name, Want: c.dim, Got: len(vector)}
	}
	p, ok := c.points[id]
	if !ok {
		return fmt.Errorf("point %d: %w", id, domain.ErrNotFound)
	}
	p.vector = vecmath.Clone(vector)
	p.norm = vecmath.Norm(vector)
	c.points[id] = p
	return nil
}

// Delete removes points by id.
func (s *VectorStore) Delete(_ context.Context, name string, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(name)
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(c.points, id)
	}
	return nil
}

// Search scores every point against vector.
func (s *VectorStore) Search(_ context.Context, name string, vector []float32, limit int, threshold *float64) ([]domain.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if len(vector) != c.dim {
		return nil, &domain.DimensionMismatchError{Collection: name, Want: c.dim, Got: len(vector)}
	}

	qnorm := vecmath.Norm(vector)
	if qnorm == 0 {
		return []domain.ScoredPoint{}, nil
	}

	hits := make([]domain.ScoredPoint, 0, len(c.points))
	for id, p := range c.points {
		if p.norm == 0 {
			continue
		}
		score := vecmath.CosineNorms(vector, p.vector, qnorm, p.norm)
		if !vecmath.Passes(score, threshold) {
			continue
		}
		hits = append(hits, domain.ScoredPoint{ID: id, Score: score, Content: p.content})
	}
	return vecmath.Rank(hits, limit), nil
}

// Retrieve returns the points that exist among ids, in request order.
func (s *VectorStore) Retrieve(_ context.Context, name string, ids []int64, withVectors bool) ([]domain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Point, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		p, ok := c.points[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, toPoint(id, p, true, withVectors))
	}
	return out, nil
}

// Scroll pages through the collection in id order. The cursor is the id of
// the first point of the next page.
func (s *VectorStore) Scroll(_ context.Context, name string, req domain.ScrollRequest) (*domain.ScrollPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}

	var from int64
	if req.Cursor != "" {
		from, err = strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cursor %q", domain.ErrInvalidInput, req.Cursor)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultScrollPageSize
	}

	ids := make([]int64, 0, len(c.points))
	for id := range c.points {
		if id >= from {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	page := &domain.ScrollPage{Points: make([]domain.Point, 0, min(limit, len(ids)))}
	for i, id := range ids {
		if i == limit {
			page.Next = strconv.FormatInt(id, 10)
			break
		}
		page.Points = append(page.Points, toPoint(id, c.points[id], req.WithPayload, req.WithVectors))
	}
	return page, nil
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

// get returns the named collection (caller must hold lock).
func (s *VectorStore) get(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return c, nil
}

func toPoint(id int64, p storedPoint, withPayload, withVectors bool) domain.Point {
	out := domain.Point{ID: id}
	if withPayload {
		out.Content = p.content
	}
	if withVectors {
		out.Vector = vecmath.Clone(p.vector)
	}
	return out
}
