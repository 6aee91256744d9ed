package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

func newTestCatalog(t *testing.T, env *testEnv) *Catalog {
	t.Helper()
	c, err := NewCatalog(env.deps)
	require.NoError(t, err)
	return c
}

func docSpec(name string) domain.IndexSpec {
	return domain.IndexSpec{
		Name:      name,
		Fields:    domain.FieldMapping{ID: "id", Content: "text"},
		ModelKind: countKind,
	}
}

func TestNewCatalog_MissingDeps(t *testing.T) {
	env := newTestEnv()
	env.deps.Lemmatizer = nil
	_, err := NewCatalog(env.deps)
	assert.Error(t, err)
}

func TestCatalog_CreateAndOpen(t *testing.T) {
	env := newTestEnv()
	c := newTestCatalog(t, env)
	ctx := context.Background()

	created, report, err := c.Create(ctx, docSpec("docs"), docCorpus())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, domain.SingleCollectionMode, created.Manifest().Mode)

	want, err := created.Search(ctx, "card", 3)
	require.NoError(t, err)

	opened, err := c.Open(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, created.Manifest().Generation, opened.Manifest().Generation)
	assert.Equal(t, 12, opened.Manifest().EmbeddingSize)

	got, err := opened.Search(ctx, "card", 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The reopened index writes with the restored model, not a new one.
	_, err = opened.Add(ctx, []domain.RawRecord{doc(4, "card delivery")})
	require.NoError(t, err)
	assert.Equal(t, 0, env.factory.created[len(env.factory.created)-1].fits)
}

func TestCatalog_Create_Exists(t *testing.T) {
	env := newTestEnv()
	c := newTestCatalog(t, env)
	ctx := context.Background()

	_, _, err := c.Create(ctx, docSpec("docs"), docCorpus())
	require.NoError(t, err)

	_, _, err = c.Create(ctx, docSpec("docs"), docCorpus())
	assert.ErrorIs(t, err, domain.ErrIndexExists)

	spec := docSpec("docs")
	spec.Overwrite = true
	_, report, err := c.Create(ctx, spec, docCorpus()[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, report.Written)

	info, err := env.store.CollectionInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Count)
}

func TestCatalog_Create_OverwriteDropsStaleCollections(t *testing.T) {
	env := newTestEnv()
	c := newTestCatalog(t, env)
	ctx := context.Background()

	_, _, err := c.Create(ctx, docSpec("kb"), docCorpus())
	require.NoError(t, err)

	spec := domain.IndexSpec{
		Name:      "kb",
		Mode:      domain.DualCollectionMode,
		Fields:    domain.FieldMapping{ID: "id", Question: "q", Answer: "a"},
		ModelKind: countKind,
		Overwrite: true,
	}
	svc, _, err := c.Create(ctx, spec, faqCorpus())
	require.NoError(t, err)
	assert.Equal(t, []string{"kb_questions", "kb_answers"}, svc.Manifest().CollectionNames())

	_, err = env.store.CollectionInfo(ctx, "kb")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	_, err = env.store.CollectionInfo(ctx, "kb_answers")
	assert.NoError(t, err)
}

func TestCatalog_Create_Invalid(t *testing.T) {
	env := newTestEnv()
	c := newTestCatalog(t, env)
	ctx := context.Background()

	spec := docSpec("docs")
	spec.ModelKind = "bogus"
	_, _, err := c.Create(ctx, spec, docCorpus())
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, _, err = c.Create(ctx, docSpec("../bad"), docCorpus())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	spec = docSpec("docs")
	spec.Fields.Content = ""
	_, _, err = c.Create(ctx, spec, docCorpus())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = c.Create(ctx, docSpec("empty"), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestCatalog_Open_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing bundle", func(t *testing.T) {
		env := newTestEnv()
		_, err := newTestCatalog(t, env).Open(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("missing model", func(t *testing.T) {
		env := newTestEnv()
		c := newTestCatalog(t, env)
		_, _, err := c.Create(ctx, docSpec("docs"), docCorpus())
		require.NoError(t, err)
		delete(env.bundles.models, "docs")

		_, err = c.Open(ctx, "docs")
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("collection resized", func(t *testing.T) {
		env := newTestEnv()
		c := newTestCatalog(t, env)
		_, _, err := c.Create(ctx, docSpec("docs"), docCorpus())
		require.NoError(t, err)
		require.NoError(t, env.store.CreateCollection(ctx, "docs", 3, domain.DistanceCosine))

		_, err = c.Open(ctx, "docs")
		var mismatch *domain.DimensionMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 12, mismatch.Want)
		assert.Equal(t, 3, mismatch.Got)
	})

	t.Run("collection missing", func(t *testing.T) {
		env := newTestEnv()
		c := newTestCatalog(t, env)
		_, _, err := c.Create(ctx, docSpec("docs"), docCorpus())
		require.NoError(t, err)
		require.NoError(t, env.store.DeleteCollection(ctx, "docs"))

		_, err = c.Open(ctx, "docs")
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})

	t.Run("model disagrees with manifest", func(t *testing.T) {
		env := newTestEnv()
		c := newTestCatalog(t, env)
		_, _, err := c.Create(ctx, docSpec("docs"), docCorpus())
		require.NoError(t, err)
		env.bundles.models["docs"] = append(env.bundles.models["docs"], "zzz")

		_, err = c.Open(ctx, "docs")
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("invalid name", func(t *testing.T) {
		env := newTestEnv()
		_, err := newTestCatalog(t, env).Open(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCatalog_ListAndDrop(t *testing.T) {
	env := newTestEnv()
	c := newTestCatalog(t, env)
	ctx := context.Background()

	_, _, err := c.Create(ctx, docSpec("b-docs"), docCorpus())
	require.NoError(t, err)
	faqSpec := domain.IndexSpec{
		Name:      "a-faq",
		Mode:      domain.DualCollectionMode,
		Fields:    domain.FieldMapping{ID: "id", Question: "q", Answer: "a"},
		ModelKind: countKind,
	}
	_, _, err = c.Create(ctx, faqSpec, faqCorpus())
	require.NoError(t, err)

	manifests, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, "a-faq", manifests[0].Name)
	assert.Equal(t, "b-docs", manifests[1].Name)

	require.NoError(t, c.Drop(ctx, "a-faq"))
	for _, name := range []string{"a-faq_questions", "a-faq_answers"} {
		_, err := env.store.CollectionInfo(ctx, name)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	}

	manifests, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 1)

	err = c.Drop(ctx, "a-faq")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestCatalog_Drop_MissingCollectionTolerated(t *testing.T) {
	env := newTestEnv()
	c := newTestCatalog(t, env)
	ctx := context.Background()

	_, _, err := c.Create(ctx, docSpec("docs"), docCorpus())
	require.NoError(t, err)
	require.NoError(t, env.store.DeleteCollection(ctx, "docs"))

	require.NoError(t, c.Drop(ctx, "docs"))
	ok, err := env.bundles.Exists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistence_Save_ManifestFailureKeepsModel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.bundles.saveManifestErr = errors.New("disk full")

	s, err := NewSynchronizer(documentManifest("docs"), env.deps, nil)
	require.NoError(t, err)
	_, err = s.Build(ctx, docCorpus())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save manifest")

	_, ok := env.bundles.models["docs"]
	assert.True(t, ok)
	exists, err := env.bundles.Exists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, exists)
}
