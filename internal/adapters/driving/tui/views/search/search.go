// Package search provides the query view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
)

// Options tunes the queries issued by the view.
type Options struct {
	Limit     int
	Threshold float64
}

// View is the query input, the hit list, a viewport with the full content of
// the selected hit and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	detail    viewport.Model
	statusbar *status.Bar

	index driving.IndexService
	opts  Options
	ctx   context.Context

	mode       messages.SearchMode
	width      int
	height     int
	ready      bool
	searching  bool
	err        error
	focusInput bool // true = typing a query, false = browsing hits
}

// NewView creates a new search view over index.
func NewView(s *styles.Styles, km *keymap.KeyMap, index driving.IndexService, opts Options) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if opts.Limit <= 0 {
		opts.Limit = domain.DefaultSearchLimit
	}
	if opts.Threshold <= 0 {
		opts.Threshold = domain.DefaultSimilarityThreshold
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		detail:     viewport.New(80, 6),
		statusbar:  status.NewBar(s, km),
		index:      index,
		opts:       opts,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	if index != nil {
		v.statusbar.SetIndex(index.Manifest().Name)
	}
	return v
}

// WithContext sets the context for index queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }

	case keymap.Matches(msg.String(), v.keymap.ToggleMode):
		v.SetMode(v.mode.Next())
		return v, nil

	case msg.Type == tea.KeyEnter && v.focusInput:
		query := strings.TrimSpace(v.input.Value())
		if query == "" || v.searching {
			return v, nil
		}
		v.searching = true
		v.statusbar.SetState(status.StateSearching)
		return v, v.performSearch(query, v.mode)
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.list.MoveUp()
		v.refreshDetail()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.list.MoveDown()
		v.refreshDetail()
	case keymap.Matches(msg.String(), v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	default:
		// pgup/pgdown and friends scroll the detail pane
		var cmd tea.Cmd
		v.detail, cmd = v.detail.Update(msg)
		return v, cmd
	}
	return v, nil
}

// performSearch queries the index in mode off the UI goroutine.
func (v *View) performSearch(query string, mode messages.SearchMode) tea.Cmd {
	index, opts, ctx := v.index, v.opts, v.ctx
	return func() tea.Msg {
		if index == nil {
			return messages.ErrorOccurred{Err: ErrNoIndex}
		}

		var (
			hits []domain.SearchHit
			err  error
		)
		if mode == messages.ModeSimilar {
			hits, err = index.SearchSimilar(ctx, query, opts.Limit, opts.Threshold)
		} else {
			hits, err = index.Search(ctx, query, opts.Limit)
		}
		return messages.SearchCompleted{Query: query, Mode: mode, Hits: hits, Err: err}
	}
}

// handleSearchCompleted processes search results.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	v.searching = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetHits(msg.Hits)
	v.refreshDetail()
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Hits))

	if len(msg.Hits) > 0 {
		v.focusInput = false
		v.input.Blur()
	}
}

func (v *View) setError(err error) {
	v.searching = false
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// refreshDetail shows the full content of the selected hit.
func (v *View) refreshDetail() {
	hit := v.list.SelectedHit()
	if hit == nil {
		v.detail.SetContent("")
		return
	}
	header := fmt.Sprintf("#%d  %s  score %.4f", hit.ID, hit.Collection, hit.Score)
	body := lipgloss.NewStyle().Width(max(v.detail.Width-2, 10)).Render(hit.Content)
	v.detail.SetContent(header + "\n\n" + body)
	v.detail.GotoTop()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 9)
	sections = append(sections, v.styles.Title.Render("sercha-index"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())
	if v.list.Count() > 0 {
		sections = append(sections, "", v.styles.Detail.Render(v.detail.View()))
	}
	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and splits the height between the
// hit list and the detail pane.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	body := max(height-10, 4)
	listHeight := max(body/2, 3)

	v.input.SetWidth(width)
	v.list.SetDimensions(width, listHeight)
	v.detail.Width = max(width-4, 10)
	v.detail.Height = max(body-listHeight, 2)
	v.statusbar.SetWidth(width)
	v.refreshDetail()
}

// SetMode switches between plain and thresholded search.
func (v *View) SetMode(mode messages.SearchMode) {
	v.mode = mode
	v.input.SetLabel(mode.String())
}

// Mode returns the active search mode.
func (v *View) Mode() messages.SearchMode {
	return v.mode
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Hits returns the current search hits.
func (v *View) Hits() []domain.SearchHit {
	return v.list.Hits()
}

// SelectedHit returns the currently selected hit.
func (v *View) SelectedHit() *domain.SearchHit {
	return v.list.SelectedHit()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
