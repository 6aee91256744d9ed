package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	stdsync "sync"

	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// --- Mock implementations shared by service tests ---

// wordLemmatizer lowercases text and splits it on whitespace.
type wordLemmatizer struct{}

func (wordLemmatizer) Normalize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

const countKind = "count"

// countVectorizer maps lemmas to raw term counts over a sorted vocabulary.
type countVectorizer struct {
	terms   []string
	index   map[string]int
	fits    int
	failFit error
}

func (v *countVectorizer) Kind() string { return countKind }

func (v *countVectorizer) Fit(corpus [][]string) error {
	if v.fits > 0 {
		return errors.New("already fitted")
	}
	v.fits++
	if v.failFit != nil {
		return v.failFit
	}
	seen := make(map[string]struct{})
	for _, doc := range corpus {
		for _, l := range doc {
			seen[l] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return domain.ErrEmptyCorpus
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	v.setTerms(terms)
	return nil
}

func (v *countVectorizer) setTerms(terms []string) {
	v.terms = terms
	v.index = make(map[string]int, len(terms))
	for i, t := range terms {
		v.index[t] = i
	}
}

func (v *countVectorizer) Transform(lemmas []string) ([]float32, error) {
	if len(v.terms) == 0 {
		return nil, domain.ErrModelNotFitted
	}
	vec := make([]float32, len(v.terms))
	for _, l := range lemmas {
		if i, ok := v.index[l]; ok {
			vec[i]++
		}
	}
	return vec, nil
}

func (v *countVectorizer) EmbeddingSize() int { return len(v.terms) }
func (v *countVectorizer) Save(string) error  { return nil }
func (v *countVectorizer) Load(string) error  { return nil }

// mockFactory creates countVectorizers and records every instance.
type mockFactory struct {
	mu      stdsync.Mutex
	created []*countVectorizer
	failFit error
}

func (f *mockFactory) Create(kind string) (driven.Vectorizer, error) {
	if kind != countKind {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, kind)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &countVectorizer{failFit: f.failFit}
	f.created = append(f.created, v)
	return v, nil
}

func (f *mockFactory) SupportedKinds() []string { return []string{countKind} }

// memBundles is an in-memory BundleStore for countVectorizers.
type memBundles struct {
	mu              stdsync.Mutex
	manifests       map[string]domain.IndexManifest
	models          map[string][]string
	saveManifestErr error
	saves           []string
}

func newMemBundles() *memBundles {
	return &memBundles{
		manifests: make(map[string]domain.IndexManifest),
		models:    make(map[string][]string),
	}
}

func (b *memBundles) SaveManifest(_ context.Context, m *domain.IndexManifest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveManifestErr != nil {
		return b.saveManifestErr
	}
	b.manifests[m.Name] = *m
	b.saves = append(b.saves, "manifest")
	return nil
}

func (b *memBundles) SaveModel(_ context.Context, name string, model driven.Vectorizer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cv, ok := model.(*countVectorizer)
	if !ok {
		return domain.ErrUnsupportedType
	}
	b.models[name] = append([]string(nil), cv.terms...)
	b.saves = append(b.saves, "model")
	return nil
}

func (b *memBundles) LoadManifest(_ context.Context, name string) (*domain.IndexManifest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.manifests[name]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	return &m, nil
}

func (b *memBundles) LoadModel(_ context.Context, name string, model driven.Vectorizer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	terms, ok := b.models[name]
	if !ok {
		return domain.ErrIndexNotFound
	}
	model.(*countVectorizer).setTerms(append([]string(nil), terms...))
	return nil
}

func (b *memBundles) Exists(_ context.Context, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.manifests[name]
	return ok, nil
}

func (b *memBundles) List(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.manifests))
	for n := range b.manifests {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (b *memBundles) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.manifests, name)
	delete(b.models, name)
	return nil
}

// flakyStore fails selected writes on top of a memory store.
type flakyStore struct {
	driven.VectorStore
	failUpsert map[string]map[int64]bool
	failDelete map[string]error
}

func newFlakyStore(inner driven.VectorStore) *flakyStore {
	return &flakyStore{
		VectorStore: inner,
		failUpsert:  make(map[string]map[int64]bool),
		failDelete:  make(map[string]error),
	}
}

func (s *flakyStore) failUpsertOf(collection string, ids ...int64) {
	if s.failUpsert[collection] == nil {
		s.failUpsert[collection] = make(map[int64]bool)
	}
	for _, id := range ids {
		s.failUpsert[collection][id] = true
	}
}

func (s *flakyStore) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	for _, p := range points {
		if s.failUpsert[collection][p.ID] {
			return fmt.Errorf("upsert %d: %w", p.ID, domain.ErrStoreUnavailable)
		}
	}
	return s.VectorStore.Upsert(ctx, collection, points)
}

func (s *flakyStore) Delete(ctx context.Context, collection string, ids []int64) error {
	if err := s.failDelete[collection]; err != nil {
		return err
	}
	return s.VectorStore.Delete(ctx, collection, ids)
}

// testEnv bundles the collaborators of a test index.
type testEnv struct {
	store   *memory.VectorStore
	bundles *memBundles
	factory *mockFactory
	deps    IndexDeps
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:   memory.NewVectorStore(),
		bundles: newMemBundles(),
		factory: &mockFactory{},
	}
	env.deps = IndexDeps{
		Store:      env.store,
		Lemmatizer: wordLemmatizer{},
		Bundles:    env.bundles,
		Factory:    env.factory,
		PageSize:   2,
	}
	return env
}

func documentManifest(name string) *domain.IndexManifest {
	spec, err := domain.IndexSpec{
		Name:      name,
		Mode:      domain.SingleCollectionMode,
		Fields:    domain.FieldMapping{ID: "id", Content: "text"},
		ModelKind: countKind,
	}.Normalise()
	if err != nil {
		panic(err)
	}
	return domain.NewManifest(spec)
}

func faqManifest(name string) *domain.IndexManifest {
	spec, err := domain.IndexSpec{
		Name:      name,
		Mode:      domain.DualCollectionMode,
		Fields:    domain.FieldMapping{ID: "id", Question: "q", Answer: "a"},
		ModelKind: countKind,
	}.Normalise()
	if err != nil {
		panic(err)
	}
	return domain.NewManifest(spec)
}

func doc(id int64, text string) domain.RawRecord {
	return domain.RawRecord{"id": id, "text": text}
}

func faq(id int64, q, a string) domain.RawRecord {
	return domain.RawRecord{"id": id, "q": q, "a": a}
}

func docCorpus() []domain.RawRecord {
	return []domain.RawRecord{
		doc(1, "pay by card online"),
		doc(2, "delivery takes two days"),
		doc(3, "return goods within month"),
	}
}

func faqCorpus() []domain.RawRecord {
	return []domain.RawRecord{
		faq(1, "how to pay", "pay by card at checkout"),
		faq(2, "when is delivery", "delivery takes two days"),
		faq(3, "can i return goods", "return within one month"),
	}
}

func hitIDs(hits []domain.SearchHit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}
