package driven

import (
	"context"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// RecordSource reads the raw corpus.
type RecordSource interface {
	// Load reads every record of the source.
	Load(ctx context.Context) ([]domain.RawRecord, error)

	// Location describes where the records come from, e.g. a file path.
	Location() string
}

// RecordWatcher notifies when the corpus behind a RecordSource changes.
type RecordWatcher interface {
	// Watch blocks, calling onChange after each change, until ctx is cancelled
	// or onChange returns an error.
	Watch(ctx context.Context, onChange func(ctx context.Context) error) error
}
