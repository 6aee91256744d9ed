package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

// stubIndex answers Search and SearchSimilar; the rest of driving.IndexService
// is left to the embedded nil interface.
type stubIndex struct {
	driving.IndexService

	hits  []domain.SearchHit
	err   error
	calls []string

	lastLimit     int
	lastThreshold float64
}

func (s *stubIndex) Manifest() domain.IndexManifest {
	return domain.IndexManifest{Name: "support"}
}

func (s *stubIndex) Search(_ context.Context, query string, limit int) ([]domain.SearchHit, error) {
	s.calls = append(s.calls, "search:"+query)
	s.lastLimit = limit
	return s.hits, s.err
}

func (s *stubIndex) SearchSimilar(_ context.Context, query string, limit int, threshold float64) ([]domain.SearchHit, error) {
	s.calls = append(s.calls, "similar:"+query)
	s.lastLimit = limit
	s.lastThreshold = threshold
	return s.hits, s.err
}

func newTestView(index *stubIndex) *View {
	v := NewView(nil, nil, index, Options{Limit: 3, Threshold: 0.8})
	v.SetDimensions(100, 30)
	return v
}

func typeQuery(v *View, query string) {
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(query)})
}

// submit presses Enter and runs the returned command synchronously.
func submit(t *testing.T, v *View) {
	t.Helper()
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(nil, nil, nil, Options{})

	assert.Equal(t, domain.DefaultSearchLimit, v.opts.Limit)
	assert.Equal(t, domain.DefaultSimilarityThreshold, v.opts.Threshold)
	assert.Equal(t, messages.ModeSearch, v.Mode())
	assert.True(t, v.InputFocused())
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_EnterRunsSearch(t *testing.T) {
	index := &stubIndex{hits: []domain.SearchHit{
		{ID: 2, Score: 0.9, Content: "Delivery takes two days", Collection: "support_answers"},
		{ID: 5, Score: 0.4, Content: "Pickup points", Collection: "support_answers"},
	}}
	v := newTestView(index)

	typeQuery(v, "delivery")
	submit(t, v)

	assert.Equal(t, []string{"search:delivery"}, index.calls)
	assert.Equal(t, 3, index.lastLimit)
	assert.Len(t, v.Hits(), 2)
	assert.False(t, v.InputFocused())
	assert.NoError(t, v.Err())

	view := v.View()
	assert.Contains(t, view, "Results (2)")
	assert.Contains(t, view, "Delivery takes two days")
	assert.Contains(t, view, "support")
}

func TestView_TabTogglesSimilar(t *testing.T) {
	index := &stubIndex{hits: []domain.SearchHit{{ID: 1, Score: 0.99, Content: "x"}}}
	v := newTestView(index)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.ModeSimilar, v.Mode())
	assert.Contains(t, v.View(), "similar")

	typeQuery(v, "refund")
	submit(t, v)

	assert.Equal(t, []string{"similar:refund"}, index.calls)
	assert.Equal(t, 0.8, index.lastThreshold)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.ModeSearch, v.Mode())
}

func TestView_EmptyQueryIgnored(t *testing.T) {
	index := &stubIndex{}
	v := newTestView(index)

	typeQuery(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, index.calls)
}

func TestView_SearchError(t *testing.T) {
	index := &stubIndex{err: errors.New("index not found")}
	v := newTestView(index)

	typeQuery(v, "x")
	submit(t, v)

	require.Error(t, v.Err())
	assert.True(t, v.InputFocused())
	assert.Contains(t, v.View(), "index not found")
}

func TestView_NoIndex(t *testing.T) {
	v := NewView(nil, nil, nil, Options{})
	v.SetDimensions(80, 24)

	typeQuery(v, "x")
	submit(t, v)

	assert.ErrorIs(t, v.Err(), ErrNoIndex)
}

func TestView_NavigateResults(t *testing.T) {
	index := &stubIndex{hits: []domain.SearchHit{
		{ID: 1, Content: "first"},
		{ID: 2, Content: "second full answer"},
	}}
	v := newTestView(index)
	typeQuery(v, "q")
	submit(t, v)

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	hit := v.SelectedHit()
	require.NotNil(t, hit)
	assert.Equal(t, int64(2), hit.ID)
	assert.Contains(t, v.detail.View(), "second full answer")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, int64(1), v.SelectedHit().ID)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Query())
}

func TestView_EscQuits(t *testing.T) {
	v := newTestView(&stubIndex{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}
