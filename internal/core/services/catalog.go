package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// Ensure Catalog implements the interface.
var _ driving.IndexCatalog = (*Catalog)(nil)

// Catalog manages named indexes that share one vector store.
type Catalog struct {
	deps        IndexDeps
	persistence *Persistence
}

// NewCatalog creates a catalog over deps.
func NewCatalog(deps IndexDeps) (*Catalog, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Catalog{
		deps:        deps,
		persistence: NewPersistence(deps.Bundles, deps.Factory, deps.Store),
	}, nil
}

// Create builds a new index from records.
// An existing index of the same name is replaced only when spec.Overwrite is set.
func (c *Catalog) Create(ctx context.Context, spec domain.IndexSpec, records []domain.RawRecord) (driving.IndexService, *domain.WriteReport, error) {
	spec, err := spec.Normalise()
	if err != nil {
		return nil, nil, fmt.Errorf("create index: %w", err)
	}
	if _, err := c.deps.Factory.Create(spec.ModelKind); err != nil {
		return nil, nil, fmt.Errorf("create index: %w", err)
	}

	exists, err := c.deps.Bundles.Exists(ctx, spec.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("create index: %w", err)
	}
	if exists {
		if !spec.Overwrite {
			return nil, nil, fmt.Errorf("create index %s: %w", spec.Name, domain.ErrIndexExists)
		}
		if err := c.dropStaleCollections(ctx, spec); err != nil {
			return nil, nil, fmt.Errorf("create index %s: %w", spec.Name, err)
		}
	}

	sync, err := NewSynchronizer(domain.NewManifest(spec), c.deps, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create index %s: %w", spec.Name, err)
	}
	report, err := sync.Build(ctx, records)
	if err != nil {
		return nil, report, err
	}
	return sync, report, nil
}

// dropStaleCollections removes collections of the previous index that the
// replacing spec no longer uses.
func (c *Catalog) dropStaleCollections(ctx context.Context, spec domain.IndexSpec) error {
	old, err := c.deps.Bundles.LoadManifest(ctx, spec.Name)
	if err != nil {
		logger.Warn("overwrite %s: previous manifest unreadable: %v", spec.Name, err)
		return nil
	}
	keep := spec.Collections.Names(spec.Mode)
	for _, name := range old.CollectionNames() {
		if slices.Contains(keep, name) {
			continue
		}
		if err := c.deps.Store.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("delete collection %s: %w", name, err)
		}
	}
	return nil
}

// Open reconstructs an index from its bundle.
func (c *Catalog) Open(ctx context.Context, name string) (driving.IndexService, error) {
	if err := domain.ValidateIndexName(name); err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	manifest, model, err := c.persistence.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}
	sync, err := NewSynchronizer(manifest, c.deps, model)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}
	logger.Debug("opened index %s (%s, dim %d)", name, manifest.Mode, manifest.EmbeddingSize)
	return sync, nil
}

// List returns the manifests of every readable index, sorted by name.
func (c *Catalog) List(ctx context.Context) ([]domain.IndexManifest, error) {
	names, err := c.deps.Bundles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	manifests := make([]domain.IndexManifest, 0, len(names))
	for _, name := range names {
		m, err := c.deps.Bundles.LoadManifest(ctx, name)
		if err != nil {
			logger.Warn("skipping index %s: %v", name, err)
			continue
		}
		manifests = append(manifests, *m)
	}
	return manifests, nil
}

// Drop deletes the collections and then the bundle of an index.
func (c *Catalog) Drop(ctx context.Context, name string) error {
	manifest, err := c.deps.Bundles.LoadManifest(ctx, name)
	if err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	for _, collection := range manifest.CollectionNames() {
		if err := c.deps.Store.DeleteCollection(ctx, collection); err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
			return fmt.Errorf("drop index %s: delete collection %s: %w", name, collection, err)
		}
	}
	if err := c.deps.Bundles.Delete(ctx, name); err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}
