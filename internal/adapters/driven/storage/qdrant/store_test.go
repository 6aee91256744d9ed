package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// recordedRequest is a request seen by the fake server.
type recordedRequest struct {
	Method string
	Path   string
	APIKey string
	Body   map[string]any
}

// fakeServer answers each "METHOD path" with a canned status and body.
type fakeServer struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string][]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
	header map[string]string
}

func newFakeServer(t *testing.T) (*fakeServer, *Store) {
	t.Helper()
	f := &fakeServer{responses: make(map[string][]fakeResponse)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	store, err := NewStore(Config{URL: srv.URL, APIKey: "secret", MaxRetries: 2})
	require.NoError(t, err)
	return f, store
}

func (f *fakeServer) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.responses[key] = append(f.responses[key], fakeResponse{status: status, body: body})
}

func (f *fakeServer) onRateLimited(method, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.responses[key] = append(f.responses[key], fakeResponse{status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "0"}})
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	rec := recordedRequest{Method: r.Method, Path: r.URL.RequestURI(), APIKey: r.Header.Get("api-key")}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	key := r.Method + " " + r.URL.Path
	queue := f.responses[key]
	var resp fakeResponse
	if len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[key] = queue[1:]
		}
	} else {
		resp = fakeResponse{status: http.StatusOK, body: `{"result": true, "status": "ok"}`}
	}
	f.mu.Unlock()

	for k, v := range resp.header {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeServer) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestNewStore_RequiresURL(t *testing.T) {
	_, err := NewStore(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_CreateCollection_RecreatesWithCosine(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodDelete, "/collections/docs", http.StatusNotFound, `{"status": {"error": "Not found"}}`)

	require.NoError(t, store.CreateCollection(context.Background(), "docs", 12, domain.DistanceCosine))

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "secret", reqs[1].APIKey)
	vectors := reqs[1].Body["vectors"].(map[string]any)
	assert.Equal(t, float64(12), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestStore_CollectionInfo(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodGet, "/collections/docs", http.StatusOK, `{"result": {"points_count": 3, "config": {"params": {"vectors": {"size": 4, "distance": "Cosine"}}}}, "status": "ok"}`)
	f.on(http.MethodGet, "/collections/missing", http.StatusNotFound, `{"status": {"error": "Collection missing not found"}}`)

	info, err := store.CollectionInfo(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, 4, info.Dimension)
	assert.Equal(t, 3, info.Count)
	assert.Equal(t, domain.DistanceCosine, info.Distance)

	_, err = store.CollectionInfo(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestStore_Upsert_SendsContentPayload(t *testing.T) {
	f, store := newFakeServer(t)

	err := store.Upsert(context.Background(), "docs", []domain.Point{{ID: 7, Vector: []float32{0.5, 0.5}, Content: "hello"}})
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/collections/docs/points?wait=true", reqs[0].Path)
	points := reqs[0].Body["points"].([]any)
	point := points[0].(map[string]any)
	assert.Equal(t, float64(7), point["id"])
	assert.Equal(t, "hello", point["payload"].(map[string]any)["content"])
}

func TestStore_Search_WithThreshold(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodPost, "/collections/docs/points/search", http.StatusOK,
		`{"result": [{"id": 2, "score": 0.97, "payload": {"content": "two"}}, {"id": 1, "score": 0.96, "payload": {"content": "one"}}]}`)

	floor := 0.95
	hits, err := store.Search(context.Background(), "docs", []float32{1, 0}, 5, &floor)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(2), hits[0].ID)
	assert.Equal(t, "two", hits[0].Content)
	assert.InDelta(t, 0.97, hits[0].Score, 1e-9)

	body := f.recorded()[0].Body
	assert.Equal(t, 0.95, body["score_threshold"])
	assert.Equal(t, float64(5), body["limit"])
}

func TestStore_Search_NoThreshold(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodPost, "/collections/docs/points/search", http.StatusOK, `{"result": []}`)

	hits, err := store.Search(context.Background(), "docs", []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
	_, has := f.recorded()[0].Body["score_threshold"]
	assert.False(t, has)
}

func TestStore_Retrieve_RequestOrder(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodPost, "/collections/docs/points", http.StatusOK,
		`{"result": [{"id": 1, "payload": {"content": "one"}}, {"id": 3, "payload": {"content": "three"}}]}`)

	points, err := store.Retrieve(context.Background(), "docs", []int64{3, 2, 1}, false)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(3), points[0].ID)
	assert.Equal(t, "one", points[1].Content)
}

func TestStore_Scroll(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodPost, "/collections/docs/points/scroll", http.StatusOK,
		`{"result": {"points": [{"id": 1, "payload": {"content": "one"}, "vector": [1, 0]}], "next_page_offset": 5}}`)
	f.on(http.MethodPost, "/collections/docs/points/scroll", http.StatusOK,
		`{"result": {"points": [{"id": 5, "payload": {"content": "five"}}], "next_page_offset": null}}`)

	page, err := store.Scroll(context.Background(), "docs", domain.ScrollRequest{Limit: 1, WithPayload: true, WithVectors: true})
	require.NoError(t, err)
	require.Len(t, page.Points, 1)
	assert.Equal(t, []float32{1, 0}, page.Points[0].Vector)
	assert.Equal(t, "5", page.Next)

	page, err = store.Scroll(context.Background(), "docs", domain.ScrollRequest{Cursor: page.Next, Limit: 1, WithPayload: true})
	require.NoError(t, err)
	assert.Equal(t, "five", page.Points[0].Content)
	assert.Empty(t, page.Next)

	assert.Equal(t, float64(5), f.recorded()[1].Body["offset"])
}

func TestStore_UpdateVectors_NotFound(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodPut, "/collections/docs/points/vectors", http.StatusNotFound, `{"status": {"error": "No point with id 9 found"}}`)

	err := store.UpdateVectors(context.Background(), "docs", 9, []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RateLimitedThenSucceeds(t *testing.T) {
	f, store := newFakeServer(t)
	f.onRateLimited(http.MethodPost, "/collections/docs/points/delete")
	f.on(http.MethodPost, "/collections/docs/points/delete", http.StatusOK, `{"result": {"status": "completed"}}`)

	require.NoError(t, store.Delete(context.Background(), "docs", []int64{1, 2}))
	assert.Len(t, f.recorded(), 2)
}

func TestStore_RateLimitExhausted(t *testing.T) {
	f, store := newFakeServer(t)
	f.onRateLimited(http.MethodPost, "/collections/docs/points/delete")

	err := store.Delete(context.Background(), "docs", []int64{1})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Len(t, f.recorded(), 3)
}

func TestStore_ServerErrorMessage(t *testing.T) {
	f, store := newFakeServer(t)
	f.on(http.MethodPost, "/collections/docs/points/search", http.StatusBadRequest, `{"status": {"error": "Wrong input: Vector dimension error"}}`)

	_, err := store.Search(context.Background(), "docs", []float32{1}, 1, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Vector dimension error")
}
