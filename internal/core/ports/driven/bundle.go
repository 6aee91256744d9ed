package driven

import (
	"context"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// BundleStore persists the recovery unit of an index: its manifest
// (preparator configuration plus model metadata) and its model state.
// The two artifacts are written independently.
type BundleStore interface {
	// SaveManifest writes the manifest of manifest.Name.
	SaveManifest(ctx context.Context, manifest *domain.IndexManifest) error

	// SaveModel writes model state for the named index.
	SaveModel(ctx context.Context, name string, model Vectorizer) error

	// LoadManifest reads a manifest.
	// Returns domain.ErrIndexNotFound when it is missing.
	LoadManifest(ctx context.Context, name string) (*domain.IndexManifest, error)

	// LoadModel restores model state into model.
	// Returns domain.ErrIndexNotFound when the model artifact is missing.
	LoadModel(ctx context.Context, name string, model Vectorizer) error

	// Exists reports whether a manifest exists for name.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the names of all stored indexes, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes every artifact of the named index.
	Delete(ctx context.Context, name string) error
}
