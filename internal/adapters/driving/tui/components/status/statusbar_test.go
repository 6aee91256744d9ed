package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Equal(t, StateReady, bar.State())
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Bar)
		contains []string
	}{
		{
			name:     "ready",
			setup:    func(*Bar) {},
			contains: []string{"Ready", "enter: search"},
		},
		{
			name:     "searching",
			setup:    func(b *Bar) { b.SetState(StateSearching) },
			contains: []string{"Searching..."},
		},
		{
			name: "error with message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("index not found")
			},
			contains: []string{"Error: index not found"},
		},
		{
			name: "results with index name",
			setup: func(b *Bar) {
				b.SetIndex("support")
				b.SetState(StateResults)
				b.SetResultCount(4)
			},
			contains: []string{"support", "4 results", "n: new search"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			tt.setup(bar)

			view := bar.View()
			for _, want := range tt.contains {
				assert.Contains(t, view, want)
			}
		})
	}
}

func TestStatusBar_Setters(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetMessage("boom")
	bar.SetResultCount(3)

	assert.Equal(t, "boom", bar.Message())
	assert.Equal(t, 3, bar.ResultCount())
}
