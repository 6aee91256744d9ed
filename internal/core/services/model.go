package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// ModelLifecycle owns the vectorizer of one index.
//
// Each Train call fits a brand new model exactly once and only swaps it in on
// success. Between trainings the active model is frozen: Add, Update and
// queries only call Transform, so every vector in the collections shares one
// coordinate space.
type ModelLifecycle struct {
	mu         sync.RWMutex
	fresh      func() (driven.Vectorizer, error)
	model      driven.Vectorizer
	generation string
	trainedAt  time.Time
}

// NewModelLifecycle creates a lifecycle that builds models with fresh.
func NewModelLifecycle(fresh func() (driven.Vectorizer, error)) *ModelLifecycle {
	return &ModelLifecycle{fresh: fresh}
}

// Attach installs a model restored from a bundle.
func (l *ModelLifecycle) Attach(model driven.Vectorizer, generation string, trainedAt time.Time) error {
	if model == nil || model.EmbeddingSize() <= 0 {
		return domain.ErrModelNotFitted
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.model = model
	l.generation = generation
	l.trainedAt = trainedAt
	return nil
}

// Train fits a new model on corpus and makes it the active model.
// On failure the previous model stays active.
func (l *ModelLifecycle) Train(corpus [][]string) error {
	if len(corpus) == 0 {
		return domain.ErrEmptyCorpus
	}

	model, err := l.fresh()
	if err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	if err := model.Fit(corpus); err != nil {
		return fmt.Errorf("fit model: %w", err)
	}
	if model.EmbeddingSize() <= 0 {
		return fmt.Errorf("fit model: %w: no terms survived normalisation", domain.ErrEmptyCorpus)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.model = model
	l.generation = uuid.NewString()
	l.trainedAt = time.Now()
	return nil
}

// Transform vectorises lemmas with the active model.
func (l *ModelLifecycle) Transform(lemmas []string) ([]float32, error) {
	l.mu.RLock()
	model := l.model
	l.mu.RUnlock()

	if model == nil {
		return nil, domain.ErrModelNotFitted
	}
	vec, err := model.Transform(lemmas)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	if len(vec) != model.EmbeddingSize() {
		return nil, fmt.Errorf("transform: %w: model returned %d values, embedding size is %d",
			domain.ErrDimensionMismatch, len(vec), model.EmbeddingSize())
	}
	return vec, nil
}

// Fitted reports whether an active model exists.
func (l *ModelLifecycle) Fitted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.model != nil
}

// EmbeddingSize returns the dimension of the active model, 0 when none.
func (l *ModelLifecycle) EmbeddingSize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.model == nil {
		return 0
	}
	return l.model.EmbeddingSize()
}

// Model returns the active model.
func (l *ModelLifecycle) Model() driven.Vectorizer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.model
}

// Generation returns the id stamped on the active model.
func (l *ModelLifecycle) Generation() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation
}

// TrainedAt returns when the active model was fitted.
func (l *ModelLifecycle) TrainedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.trainedAt
}
