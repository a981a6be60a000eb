package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, r.Names())
	assert.False(t, r.Has("report.pdf"))
}

func TestAddPersistsSortedList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingested.json")
	r, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, r.Add("zeta.pdf"))
	require.NoError(t, r.Add("alpha.pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var list []string
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, []string{"alpha.pdf", "zeta.pdf"}, list)
}

func TestAddIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingested.json")
	r, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, r.Add("report.pdf"))
	require.NoError(t, r.Add("report.pdf"))

	assert.Equal(t, []string{"report.pdf"}, r.Names())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, reloaded.Names())
	assert.True(t, reloaded.Has("report.pdf"))
}
