package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

// mockCatalog is a mock implementation of driving.IndexCatalog.
type mockCatalog struct {
	manifests []domain.IndexManifest
	index     *mockIndex
	opened    []string
	err       error
}

func (m *mockCatalog) Create(_ context.Context, _ domain.IndexSpec, _ []domain.RawRecord) (driving.IndexService, *domain.WriteReport, error) {
	return nil, nil, domain.ErrNotImplemented
}

func (m *mockCatalog) Open(_ context.Context, name string) (driving.IndexService, error) {
	m.opened = append(m.opened, name)
	if m.err != nil {
		return nil, m.err
	}
	if m.index == nil {
		return nil, domain.ErrIndexNotFound
	}
	return m.index, nil
}

func (m *mockCatalog) List(_ context.Context) ([]domain.IndexManifest, error) {
	return m.manifests, m.err
}

func (m *mockCatalog) Drop(_ context.Context, _ string) error {
	return m.err
}

// mockIndex is a mock implementation of driving.IndexService.
// Unused operations return ErrNotImplemented.
type mockIndex struct {
	hits     []domain.SearchHit
	clusters []domain.DuplicateCluster
	records  []domain.Record
	err      error

	lastLimit     int
	lastThreshold float64
	lastOpts      domain.DuplicateOptions
}

func (m *mockIndex) Manifest() domain.IndexManifest { return domain.IndexManifest{} }

func (m *mockIndex) Build(_ context.Context, _ []domain.RawRecord) (*domain.WriteReport, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Add(_ context.Context, _ []domain.RawRecord) (*domain.WriteReport, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Update(_ context.Context, _ []domain.RawRecord) (*domain.WriteReport, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Delete(_ context.Context, _ []int64) ([]int64, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Rebuild(_ context.Context) (*domain.WriteReport, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Sync(_ context.Context, _ []domain.RawRecord) (*domain.SyncReport, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Search(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
	m.lastLimit = limit
	return m.hits, m.err
}

func (m *mockIndex) SearchSimilar(_ context.Context, _ string, limit int, threshold float64) ([]domain.SearchHit, error) {
	m.lastLimit = limit
	m.lastThreshold = threshold
	return m.hits, m.err
}

func (m *mockIndex) FindDuplicates(_ context.Context, opts domain.DuplicateOptions) ([]domain.DuplicateCluster, error) {
	m.lastOpts = opts
	return m.clusters, m.err
}

func (m *mockIndex) Retrieve(_ context.Context, _ []int64) ([]domain.Record, error) {
	return m.records, m.err
}

func (m *mockIndex) CheckConsistency(_ context.Context) (*domain.ConsistencyReport, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockIndex) Repair(_ context.Context) (*domain.ConsistencyReport, error) {
	return nil, domain.ErrNotImplemented
}
