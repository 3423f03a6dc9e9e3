package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteJSON_ReadJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "sample.json")

	in := samplePayload{Name: "wallets", Count: 24}
	require.NoError(t, WriteJSON(path, in))
	assert.True(t, Exists(path))

	var out samplePayload
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestExists_MissingFile(t *testing.T) {
	assert.False(t, Exists(filepath.Join(t.TempDir(), "nope.json")))
}
