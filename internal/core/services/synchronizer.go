package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// Ensure Synchronizer implements the interface.
var _ driving.IndexService = (*Synchronizer)(nil)

// IndexDeps are the collaborators shared by every index.
// The Store handle is owned by the caller and may back many indexes.
type IndexDeps struct {
	Store      driven.VectorStore
	Lemmatizer driven.Lemmatizer
	Bundles    driven.BundleStore
	Factory    driven.VectorizerFactory

	// PageSize is the scroll page and upsert batch size.
	PageSize int
}

func (d IndexDeps) validate() error {
	switch {
	case d.Store == nil:
		return errors.New("vector store not configured")
	case d.Lemmatizer == nil:
		return errors.New("lemmatizer not configured")
	case d.Bundles == nil:
		return errors.New("bundle store not configured")
	case d.Factory == nil:
		return errors.New("vectorizer factory not configured")
	}
	return nil
}

// Synchronizer keeps one index in the vector store in step with its corpus.
// The index mode is fixed at construction and selects the collection layout.
type Synchronizer struct {
	mu       sync.RWMutex
	manifest domain.IndexManifest

	layout      layout
	store       driven.VectorStore
	lemmatizer  driven.Lemmatizer
	model       *ModelLifecycle
	preparator  *Preparator
	persistence *Persistence
	detector    *DuplicateDetector
	pageSize    int
}

// NewSynchronizer creates a synchronizer for manifest.
// model is the restored vectorizer of an existing index, or nil for an index
// that has not been built yet.
func NewSynchronizer(manifest *domain.IndexManifest, deps IndexDeps, model driven.Vectorizer) (*Synchronizer, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	prep, err := NewPreparator(manifest.Mode, manifest.Fields)
	if err != nil {
		return nil, err
	}

	kind := manifest.ModelKind
	lifecycle := NewModelLifecycle(func() (driven.Vectorizer, error) {
		return deps.Factory.Create(kind)
	})
	if model != nil {
		if err := lifecycle.Attach(model, manifest.Generation, manifest.TrainedAt); err != nil {
			return nil, fmt.Errorf("attach model: %w", err)
		}
	}

	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultScrollPageSize
	}

	return &Synchronizer{
		manifest:    *manifest,
		layout:      newLayout(manifest),
		store:       deps.Store,
		lemmatizer:  deps.Lemmatizer,
		model:       lifecycle,
		preparator:  prep,
		persistence: NewPersistence(deps.Bundles, deps.Factory, deps.Store),
		detector:    NewDuplicateDetector(deps.Store),
		pageSize:    pageSize,
	}, nil
}

// Manifest returns a copy of the index manifest.
func (s *Synchronizer) Manifest() domain.IndexManifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

func (s *Synchronizer) name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest.Name
}

// Build trains a new model on records and rewrites every collection.
func (s *Synchronizer) Build(ctx context.Context, raw []domain.RawRecord) (*domain.WriteReport, error) {
	name := s.name()
	logger.Section("Build " + name)

	records := s.preparator.Convert(raw)
	report := &domain.WriteReport{Operation: "build", Received: len(raw), Accepted: len(records)}
	if len(records) == 0 {
		return report, fmt.Errorf("build %s: %w", name, domain.ErrEmptyCorpus)
	}

	lemmas := make([][]domain.LemmaRecord, len(s.layout.roles))
	for i, role := range s.layout.roles {
		lemmas[i] = s.lemmatizeRecords(records, role)
	}
	if err := s.model.Train(corpus(lemmas)); err != nil {
		return report, fmt.Errorf("build %s: %w", name, err)
	}
	dim := s.model.EmbeddingSize()
	report.EmbeddingSize = dim
	logger.Info("trained model on %d records, embedding size %d", len(records), dim)

	points := make([][]domain.Point, len(s.layout.roles))
	for i := range s.layout.roles {
		pts, err := s.vectorize(lemmas[i])
		if err != nil {
			return report, fmt.Errorf("build %s: %w", name, err)
		}
		points[i] = pts
	}

	if err := s.recreateCollections(ctx, dim); err != nil {
		return report, fmt.Errorf("build %s: %w", name, err)
	}
	for i, role := range s.layout.roles {
		if err := s.bulkUpsert(ctx, role.name, points[i]); err != nil {
			return report, fmt.Errorf("build %s: %w", name, err)
		}
	}
	report.Written = len(records)

	if err := s.persist(ctx, len(records)); err != nil {
		return report, fmt.Errorf("build %s: %w", name, err)
	}
	return report, nil
}

// Add vectorises records with the current model and upserts them one by one.
func (s *Synchronizer) Add(ctx context.Context, raw []domain.RawRecord) (*domain.WriteReport, error) {
	return s.write(ctx, "add", raw, false)
}

// Update vectorises records with the current model, upserts them and
// rewrites their vectors.
func (s *Synchronizer) Update(ctx context.Context, raw []domain.RawRecord) (*domain.WriteReport, error) {
	return s.write(ctx, "update", raw, true)
}

func (s *Synchronizer) write(ctx context.Context, op string, raw []domain.RawRecord, updateVectors bool) (*domain.WriteReport, error) {
	records := s.preparator.Convert(raw)
	report := &domain.WriteReport{Operation: op, Received: len(raw), Accepted: len(records)}
	if err := s.writeRecords(ctx, op, records, updateVectors, report); err != nil {
		return report, err
	}
	logger.Info("%s: wrote %d of %d records", op, report.Written, report.Received)
	return report, nil
}

// writeRecords writes each record to every collection in layout order.
// A record that fails in a later collection after succeeding in an earlier
// one is reported as diverged; replaying the write heals it.
func (s *Synchronizer) writeRecords(ctx context.Context, op string, records []domain.Record, updateVectors bool, report *domain.WriteReport) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ready(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	report.EmbeddingSize = s.model.EmbeddingSize()

	var diverged []int64
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		id := rec.RecordID()
		written := 0
		for _, role := range s.layout.roles {
			text := role.text(rec)
			if err := s.writePoint(ctx, role.name, id, text, s.lemmatizer.Normalize(text), updateVectors); err != nil {
				logger.Failure(op, id, role.name, err)
				report.Failures = append(report.Failures, domain.ItemFailure{ID: id, Collection: role.name, Err: err})
				break
			}
			written++
		}

		switch {
		case written == len(s.layout.roles):
			report.Written++
		case written > 0:
			diverged = append(diverged, id)
		}
	}

	if len(report.Failures) > 0 {
		return &domain.PartialWriteError{Operation: op, Failures: report.Failures, Diverged: diverged}
	}
	return nil
}

func (s *Synchronizer) writePoint(ctx context.Context, collection string, id int64, text string, lemmas []string, updateVectors bool) error {
	vec, err := s.model.Transform(lemmas)
	if err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, collection, []domain.Point{{ID: id, Vector: vec, Content: text}}); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	if updateVectors {
		if err := s.store.UpdateVectors(ctx, collection, id, vec); err != nil {
			return fmt.Errorf("update vectors: %w", err)
		}
	}
	return nil
}

// Delete removes the ids present in the index with one delete call per
// collection. The layout is deleted in reverse order so a failed delete
// leaves survivors in the primary collection, where a replay resolves them.
func (s *Synchronizer) Delete(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resolved, err := s.resolveIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	if len(resolved) == 0 {
		logger.Debug("delete: none of %d ids present", len(ids))
		return nil, nil
	}

	roles := s.layout.roles
	for i := len(roles) - 1; i >= 0; i-- {
		if err := s.store.Delete(ctx, roles[i].name, resolved); err != nil {
			perr := &domain.PartialWriteError{Operation: "delete"}
			for _, id := range resolved {
				perr.Failures = append(perr.Failures, domain.ItemFailure{ID: id, Collection: roles[i].name, Err: err})
			}
			if i < len(roles)-1 {
				perr.Diverged = resolved
			}
			return nil, perr
		}
	}

	logger.Info("deleted %d of %d requested ids", len(resolved), len(ids))
	return resolved, nil
}

// resolveIDs keeps the requested ids that exist in any collection of the
// index, in request order.
func (s *Synchronizer) resolveIDs(ctx context.Context, ids []int64) ([]int64, error) {
	present := make(map[int64]struct{})
	for _, role := range s.layout.roles {
		points, err := s.store.Retrieve(ctx, role.name, ids, false)
		if err != nil {
			return nil, fmt.Errorf("retrieve from %s: %w", role.name, err)
		}
		for _, p := range points {
			present[p.ID] = struct{}{}
		}
	}

	resolved := make([]int64, 0, len(present))
	for _, id := range ids {
		if _, ok := present[id]; ok {
			resolved = append(resolved, id)
			delete(present, id)
		}
	}
	return resolved, nil
}

// Rebuild recovers every stored payload, trains a new model on it and
// rewrites every collection at the new embedding size.
//
//nolint:gocyclo // Sequential rebuild phases
func (s *Synchronizer) Rebuild(ctx context.Context) (*domain.WriteReport, error) {
	name := s.name()
	logger.Section("Rebuild " + name)
	report := &domain.WriteReport{Operation: "rebuild"}

	roles := s.layout.roles
	lemmas := make([][]domain.LemmaRecord, len(roles))
	ids := make(map[int64]struct{})
	for i, role := range roles {
		points, err := scrollAll(ctx, s.store, role.name, s.pageSize, true, false)
		if err != nil {
			return report, fmt.Errorf("rebuild %s: %w", name, err)
		}
		lemmas[i] = s.lemmatizePoints(points)
		for _, p := range points {
			ids[p.ID] = struct{}{}
		}
	}
	report.Received = len(ids)
	report.Accepted = len(ids)
	if len(ids) == 0 {
		return report, fmt.Errorf("rebuild %s: %w", name, domain.ErrEmptyCorpus)
	}
	logger.Info("recovered %d records from %d collection(s)", len(ids), len(roles))

	if err := s.model.Train(corpus(lemmas)); err != nil {
		return report, fmt.Errorf("rebuild %s: %w", name, err)
	}
	dim := s.model.EmbeddingSize()
	report.EmbeddingSize = dim

	if err := s.recreateCollections(ctx, dim); err != nil {
		return report, fmt.Errorf("rebuild %s: %w", name, err)
	}

	failed := make(map[int64]bool)
	succeeded := make(map[int64]bool)
	for i, role := range roles {
		for _, l := range lemmas[i] {
			if err := s.writePoint(ctx, role.name, l.ID, l.Content, l.Lemmas, false); err != nil {
				logger.Failure("rebuild", l.ID, role.name, err)
				report.Failures = append(report.Failures, domain.ItemFailure{ID: l.ID, Collection: role.name, Err: err})
				failed[l.ID] = true
				continue
			}
			succeeded[l.ID] = true
		}
	}
	report.Written = len(ids) - len(failed)

	if err := s.persist(ctx, len(ids)); err != nil {
		return report, fmt.Errorf("rebuild %s: %w", name, err)
	}

	if len(report.Failures) > 0 {
		var diverged []int64
		for id := range failed {
			if succeeded[id] {
				diverged = append(diverged, id)
			}
		}
		slices.Sort(diverged)
		return report, &domain.PartialWriteError{Operation: "rebuild", Failures: report.Failures, Diverged: diverged}
	}
	return report, nil
}

// Sync diffs records against the corpus recovered from the store, then
// updates changed and new records and deletes missing ones. An id held by
// only some collections and absent from records is deleted too.
func (s *Synchronizer) Sync(ctx context.Context, raw []domain.RawRecord) (*domain.SyncReport, error) {
	name := s.name()
	logger.Section("Sync " + name)

	records := s.preparator.Convert(raw)
	stored, storedIDs, err := s.storedRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", name, err)
	}

	toUpdate, _ := Diff(records, stored)
	toDelete := absentIDs(storedIDs, records)
	write := &domain.WriteReport{Operation: "sync", Received: len(raw), Accepted: len(records)}
	report := &domain.SyncReport{Unchanged: len(records) - len(toUpdate), Write: write}
	logger.Info("sync %s: %d unchanged, %d to update, %d to delete", name, report.Unchanged, len(toUpdate), len(toDelete))

	err = s.writeRecords(ctx, "sync", toUpdate, true, write)
	report.Updated = write.Written
	if err != nil {
		return report, err
	}

	if len(toDelete) > 0 {
		deleted, err := s.Delete(ctx, toDelete)
		report.Deleted = len(deleted)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// absentIDs returns the stored ids that no record of the new corpus carries.
// Ids held by only some collections are included so a replayed delete finishes them.
func absentIDs(storedIDs []int64, records []domain.Record) []int64 {
	keep := make(map[int64]struct{}, len(records))
	for _, r := range records {
		keep[r.RecordID()] = struct{}{}
	}
	var absent []int64
	for _, id := range storedIDs {
		if _, ok := keep[id]; !ok {
			absent = append(absent, id)
		}
	}
	return absent
}

// storedRecords rebuilds the corpus from stored payloads, ordered by id, and
// returns the sorted ids found in any collection. In dual mode an id missing
// from one collection has no record but is still listed.
func (s *Synchronizer) storedRecords(ctx context.Context) ([]domain.Record, []int64, error) {
	roles := s.layout.roles
	texts := make([]map[int64]string, len(roles))
	var order []int64
	seen := make(map[int64]struct{})
	for i, role := range roles {
		points, err := scrollAll(ctx, s.store, role.name, s.pageSize, true, false)
		if err != nil {
			return nil, nil, err
		}
		texts[i] = make(map[int64]string, len(points))
		for _, p := range points {
			texts[i][p.ID] = p.Content
			if _, ok := seen[p.ID]; !ok {
				seen[p.ID] = struct{}{}
				order = append(order, p.ID)
			}
		}
	}
	slices.Sort(order)
	return s.assembleAll(order, texts), order, nil
}

// Retrieve returns the stored records for ids in request order.
func (s *Synchronizer) Retrieve(ctx context.Context, ids []int64) ([]domain.Record, error) {
	roles := s.layout.roles
	texts := make([]map[int64]string, len(roles))
	for i, role := range roles {
		points, err := s.store.Retrieve(ctx, role.name, ids, false)
		if err != nil {
			return nil, fmt.Errorf("retrieve from %s: %w", role.name, err)
		}
		texts[i] = make(map[int64]string, len(points))
		for _, p := range points {
			texts[i][p.ID] = p.Content
		}
	}

	order := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			order = append(order, id)
		}
	}
	return s.assembleAll(order, texts), nil
}

func (s *Synchronizer) assembleAll(order []int64, texts []map[int64]string) []domain.Record {
	records := make([]domain.Record, 0, len(order))
	for _, id := range order {
		values := make([]string, len(texts))
		present := make([]bool, len(texts))
		for i := range texts {
			values[i], present[i] = texts[i][id]
		}
		if rec, ok := s.layout.assemble(id, values, present); ok {
			records = append(records, rec)
		}
	}
	return records
}

// FindDuplicates clusters near-identical records of the duplicates collection.
func (s *Synchronizer) FindDuplicates(ctx context.Context, opts domain.DuplicateOptions) ([]domain.DuplicateCluster, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = s.pageSize
	}
	return s.detector.Find(ctx, s.layout.duplicates, opts)
}

// ready checks the model is fitted and matches every collection.
func (s *Synchronizer) ready(ctx context.Context) error {
	if !s.model.Fitted() {
		return domain.ErrModelNotFitted
	}
	return checkDimensions(ctx, s.store, s.layout.names(), s.model.EmbeddingSize())
}

func (s *Synchronizer) recreateCollections(ctx context.Context, dim int) error {
	for _, role := range s.layout.roles {
		if err := s.store.CreateCollection(ctx, role.name, dim, domain.DistanceCosine); err != nil {
			return fmt.Errorf("create collection %s: %w", role.name, err)
		}
	}
	return nil
}

func (s *Synchronizer) bulkUpsert(ctx context.Context, collection string, points []domain.Point) error {
	for start := 0; start < len(points); start += s.pageSize {
		end := min(start+s.pageSize, len(points))
		if err := s.store.Upsert(ctx, collection, points[start:end]); err != nil {
			return fmt.Errorf("upsert %s [%d:%d]: %w", collection, start, end, err)
		}
	}
	return nil
}

func (s *Synchronizer) lemmatizeRecords(records []domain.Record, role collectionRole) []domain.LemmaRecord {
	out := make([]domain.LemmaRecord, len(records))
	for i, rec := range records {
		text := role.text(rec)
		out[i] = domain.LemmaRecord{ID: rec.RecordID(), Content: text, Lemmas: s.lemmatizer.Normalize(text)}
	}
	return out
}

func (s *Synchronizer) lemmatizePoints(points []domain.Point) []domain.LemmaRecord {
	out := make([]domain.LemmaRecord, len(points))
	for i, p := range points {
		out[i] = domain.LemmaRecord{ID: p.ID, Content: p.Content, Lemmas: s.lemmatizer.Normalize(p.Content)}
	}
	return out
}

func (s *Synchronizer) vectorize(lemmas []domain.LemmaRecord) ([]domain.Point, error) {
	points := make([]domain.Point, len(lemmas))
	for i, l := range lemmas {
		vec, err := s.model.Transform(l.Lemmas)
		if err != nil {
			return nil, fmt.Errorf("vectorize %d: %w", l.ID, err)
		}
		points[i] = domain.Point{ID: l.ID, Vector: vec, Content: l.Content}
	}
	return points, nil
}

// persist stamps the manifest with the active model and saves the bundle.
func (s *Synchronizer) persist(ctx context.Context, recordCount int) error {
	s.mu.Lock()
	s.manifest.EmbeddingSize = s.model.EmbeddingSize()
	s.manifest.Generation = s.model.Generation()
	s.manifest.TrainedAt = s.model.TrainedAt()
	s.manifest.RecordCount = recordCount
	manifest := s.manifest
	s.mu.Unlock()

	return s.persistence.Save(ctx, &manifest, s.model.Model())
}

// corpus flattens per-collection lemma records into one training corpus.
func corpus(lemmas [][]domain.LemmaRecord) [][]string {
	var out [][]string
	for _, group := range lemmas {
		for _, l := range group {
			out = append(out, l.Lemmas)
		}
	}
	return out
}
