package driving

import (
	"context"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// IndexService maintains one named index and answers queries against it.
// Operations are synchronous; concurrent callers against the same index
// must serialise their access.
type IndexService interface {
	// Manifest returns a copy of the index manifest.
	Manifest() domain.IndexManifest

	// Build converts raw records, trains a new model on them, recreates every
	// collection of the index and writes all vectors. It is the cold-start path.
	Build(ctx context.Context, records []domain.RawRecord) (*domain.WriteReport, error)

	// Add vectorises records with the current model and upserts them.
	Add(ctx context.Context, records []domain.RawRecord) (*domain.WriteReport, error)

	// Update vectorises records with the current model, then upserts them and
	// rewrites their vectors.
	Update(ctx context.Context, records []domain.RawRecord) (*domain.WriteReport, error)

	// Delete removes the ids that exist in the index and returns them.
	// Unknown ids are ignored.
	Delete(ctx context.Context, ids []int64) ([]int64, error)

	// Rebuild scans every stored payload, trains a new model on it and
	// rewrites every collection.
	Rebuild(ctx context.Context) (*domain.WriteReport, error)

	// Sync diffs records against the stored corpus and applies the changes.
	Sync(ctx context.Context, records []domain.RawRecord) (*domain.SyncReport, error)

	// Search returns the top limit hits for query without a score floor.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)

	// SearchSimilar returns hits scoring at least threshold. A threshold of
	// 0 or less selects domain.DefaultSimilarityThreshold; pass a small
	// positive value for a near-zero floor.
	SearchSimilar(ctx context.Context, query string, limit int, threshold float64) ([]domain.SearchHit, error)

	// FindDuplicates clusters near-identical records. Zero option fields take
	// their defaults, so opts.Threshold <= 0 means DefaultSimilarityThreshold.
	FindDuplicates(ctx context.Context, opts domain.DuplicateOptions) ([]domain.DuplicateCluster, error)

	// Retrieve returns the stored records for ids. Unknown ids are skipped.
	Retrieve(ctx context.Context, ids []int64) ([]domain.Record, error)

	// CheckConsistency reports ids missing from some collections.
	CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error)

	// Repair deletes ids that exist in only some collections and returns the
	// report describing what was found.
	Repair(ctx context.Context) (*domain.ConsistencyReport, error)
}

// IndexCatalog creates, opens and removes named indexes.
type IndexCatalog interface {
	// Create builds a new index from records and persists its bundle.
	Create(ctx context.Context, spec domain.IndexSpec, records []domain.RawRecord) (IndexService, *domain.WriteReport, error)

	// Open reconstructs an index from its persisted bundle.
	Open(ctx context.Context, name string) (IndexService, error)

	// List returns the manifests of all indexes.
	List(ctx context.Context) ([]domain.IndexManifest, error)

	// Drop removes the bundle and the collections of an index.
	Drop(ctx context.Context, name string) error
}
