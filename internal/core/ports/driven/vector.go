package driven

import (
	"context"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// VectorStore holds named collections of fixed-dimension vectors and their
// payloads. A single store handle is constructed by the caller and shared by
// every index that targets the same backing location.
//
// Every write is idempotent by point id.
type VectorStore interface {
	// CreateCollection creates the collection, erasing it first if it exists.
	CreateCollection(ctx context.Context, name string, dim int, distance domain.Distance) error

	// CollectionInfo describes a collection.
	// Returns domain.ErrCollectionNotFound if it does not exist.
	CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error)

	// DeleteCollection removes a collection. Unknown collections are ignored.
	DeleteCollection(ctx context.Context, name string) error

	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, collection string, points []domain.Point) error

	// UpdateVectors replaces the vector of an existing point without touching its payload.
	// Returns domain.ErrNotFound if the point does not exist.
	UpdateVectors(ctx context.Context, collection string, id int64, vector []float32) error

	// Delete removes points by id. Unknown ids are ignored.
	Delete(ctx context.Context, collection string, ids []int64) error

	// Search returns up to limit points ordered by descending cosine similarity.
	// When threshold is non-nil only points scoring at least *threshold are returned.
	Search(ctx context.Context, collection string, vector []float32, limit int, threshold *float64) ([]domain.ScoredPoint, error)

	// Retrieve fetches points by id. Unknown ids are skipped.
	Retrieve(ctx context.Context, collection string, ids []int64, withVectors bool) ([]domain.Point, error)

	// Scroll returns one page of the collection ordered by id.
	Scroll(ctx context.Context, collection string, req domain.ScrollRequest) (*domain.ScrollPage, error)

	// Close releases resources.
	Close() error
}
