// Package vectorizer creates vectorizers by model kind.
package vectorizer

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-index/internal/adapters/driven/vectorizer/tfidf"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.VectorizerFactory = (*Factory)(nil)

// Constructor builds an untrained vectorizer.
type Constructor func() driven.Vectorizer

// Factory maps model kinds to constructors.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates a factory with the built-in kinds registered.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	f.Register(tfidf.Kind, func() driven.Vectorizer { return tfidf.New() })
	return f
}

// Register adds or replaces the constructor for kind.
func (f *Factory) Register(kind string, ctor Constructor) {
	f.constructors[kind] = ctor
}

// Create returns a fresh vectorizer of the given kind.
func (f *Factory) Create(kind string) (driven.Vectorizer, error) {
	ctor, ok := f.constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: model kind %q", domain.ErrUnsupportedType, kind)
	}
	return ctor(), nil
}

// SupportedKinds lists the registered kinds, sorted.
func (f *Factory) SupportedKinds() []string {
	kinds := make([]string, 0, len(f.constructors))
	for kind := range f.constructors {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
