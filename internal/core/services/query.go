package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// Search returns the top limit hits for query across the search collections.
// In dual mode the question and answer hits are merged and the answers of the
// winning ids are returned.
func (s *Synchronizer) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return s.query(ctx, "search", query, limit, nil, s.layout.search)
}

// SearchSimilar returns hits scoring at least threshold from the similar collection.
// A threshold of 0 or less selects domain.DefaultSimilarityThreshold.
func (s *Synchronizer) SearchSimilar(ctx context.Context, query string, limit int, threshold float64) ([]domain.SearchHit, error) {
	if threshold <= 0 {
		threshold = domain.DefaultSimilarityThreshold
	}
	return s.query(ctx, "search similar", query, limit, &threshold, []string{s.layout.similar})
}

func (s *Synchronizer) query(ctx context.Context, op, text string, limit int, threshold *float64, collections []string) ([]domain.SearchHit, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	if err := s.ready(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lemmas := s.lemmatizer.Normalize(text)
	vec, err := s.model.Transform(lemmas)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if isZeroVector(vec) {
		logger.Debug("%s: query %q has no known terms", op, text)
		return []domain.SearchHit{}, nil
	}

	var hits []domain.SearchHit
	for _, c := range collections {
		points, err := s.store.Search(ctx, c, vec, limit, threshold)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, c, err)
		}
		for _, p := range points {
			hits = append(hits, domain.SearchHit{ID: p.ID, Score: p.Score, Content: p.Content, Collection: c})
		}
	}
	logger.Debug("%s: %d raw hits from %d collection(s)", op, len(hits), len(collections))

	merged := mergeHits(hits, limit)
	for _, c := range collections {
		if c != s.layout.results {
			return s.hydrate(ctx, merged)
		}
	}
	return merged, nil
}

// mergeHits orders hits by descending score, keeps the first (best) hit of
// each id and truncates to limit.
func mergeHits(hits []domain.SearchHit, limit int) []domain.SearchHit {
	sorted := make([]domain.SearchHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	out := make([]domain.SearchHit, 0, min(limit, len(sorted)))
	seen := make(map[int64]struct{}, len(sorted))
	for _, h := range sorted {
		if len(out) == limit {
			break
		}
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		out = append(out, h)
	}
	return out
}

// hydrate replaces each hit's content with the payload from the results
// collection, keeping hit order. Ids missing from it are dropped. Collection
// is left as the matching collection.
func (s *Synchronizer) hydrate(ctx context.Context, hits []domain.SearchHit) ([]domain.SearchHit, error) {
	if len(hits) == 0 {
		return hits, nil
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	points, err := s.store.Retrieve(ctx, s.layout.results, ids, false)
	if err != nil {
		return nil, fmt.Errorf("retrieve results: %w", err)
	}
	contents := make(map[int64]string, len(points))
	for _, p := range points {
		contents[p.ID] = p.Content
	}

	out := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		content, ok := contents[h.ID]
		if !ok {
			logger.Warn("hit %d missing from %s", h.ID, s.layout.results)
			continue
		}
		h.Content = content
		out = append(out, h)
	}
	return out, nil
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
