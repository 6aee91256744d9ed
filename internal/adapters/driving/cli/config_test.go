package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetGet(t *testing.T) {
	defer setupTestServices(t)()

	out, err := runCommand(t, "config", "set", "search.limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "search.limit = 3")

	out, err = runCommand(t, "config", "get", "search.limit")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
	assert.Equal(t, 3, configStore.GetInt("search.limit"))
}

func TestConfigGet_Unset(t *testing.T) {
	defer setupTestServices(t)()

	_, err := runCommand(t, "config", "get", "qdrant.url")

	assert.EqualError(t, err, `config key "qdrant.url" is not set`)
}

func TestConfigPath(t *testing.T) {
	defer setupTestServices(t)()

	out, err := runCommand(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, ":memory:\n", out)
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"5", int64(5)},
		{"0.9", 0.9},
		{"true", true},
		{"false", false},
		{"t", "t"},
		{"http://localhost:6333", "http://localhost:6333"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseConfigValue(tt.in))
		})
	}
}

func TestSimilarCmd_ConfigThreshold(t *testing.T) {
	defer setupTestServices(t)()
	createDocs(t)

	_, err := runCommand(t, "config", "set", "search.threshold", "0.01")
	require.NoError(t, err)

	out, err := runCommand(t, "similar", "docs", "delivery", "days")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
}
