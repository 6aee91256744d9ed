package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchMode_String(t *testing.T) {
	assert.Equal(t, "search", ModeSearch.String())
	assert.Equal(t, "similar", ModeSimilar.String())
	assert.Equal(t, "unknown", SearchMode(9).String())
}

func TestSearchMode_Next(t *testing.T) {
	assert.Equal(t, ModeSimilar, ModeSearch.Next())
	assert.Equal(t, ModeSearch, ModeSimilar.Next())
}
