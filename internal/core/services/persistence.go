package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// Persistence saves and restores index bundles.
type Persistence struct {
	bundles driven.BundleStore
	factory driven.VectorizerFactory
	store   driven.VectorStore
}

// NewPersistence creates a persistence coordinator.
// The store is used on load to check collection dimensions.
func NewPersistence(bundles driven.BundleStore, factory driven.VectorizerFactory, store driven.VectorStore) *Persistence {
	return &Persistence{bundles: bundles, factory: factory, store: store}
}

// Save writes the model state and then the manifest. The writes are
// independent; a failed manifest write leaves the previous manifest in place.
func (p *Persistence) Save(ctx context.Context, manifest *domain.IndexManifest, model driven.Vectorizer) error {
	if err := p.bundles.SaveModel(ctx, manifest.Name, model); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := p.bundles.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	logger.Debug("saved bundle %s (generation %s, dim %d)", manifest.Name, manifest.Generation, manifest.EmbeddingSize)
	return nil
}

// Load restores the manifest and model of name and checks that the model
// matches every collection it will be used against.
func (p *Persistence) Load(ctx context.Context, name string) (*domain.IndexManifest, driven.Vectorizer, error) {
	manifest, err := p.bundles.LoadManifest(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("load manifest: %w", err)
	}

	model, err := p.factory.Create(manifest.ModelKind)
	if err != nil {
		return nil, nil, fmt.Errorf("create model: %w", err)
	}
	if err := p.bundles.LoadModel(ctx, name, model); err != nil {
		return nil, nil, fmt.Errorf("load model: %w", err)
	}

	dim := model.EmbeddingSize()
	if dim != manifest.EmbeddingSize {
		return nil, nil, &domain.DimensionMismatchError{Collection: name + " manifest", Want: manifest.EmbeddingSize, Got: dim}
	}
	if err := checkDimensions(ctx, p.store, manifest.CollectionNames(), dim); err != nil {
		return nil, nil, err
	}
	return manifest, model, nil
}

// checkDimensions fails fast when a collection is missing or sized
// differently from the model.
func checkDimensions(ctx context.Context, store driven.VectorStore, collections []string, dim int) error {
	for _, c := range collections {
		info, err := store.CollectionInfo(ctx, c)
		if err != nil {
			if errors.Is(err, domain.ErrCollectionNotFound) {
				return fmt.Errorf("collection %s: %w", c, err)
			}
			return fmt.Errorf("describe collection %s: %w", c, err)
		}
		if info.Dimension != dim {
			return &domain.DimensionMismatchError{Collection: c, Want: dim, Got: info.Dimension}
		}
	}
	return nil
}
