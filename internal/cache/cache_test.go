package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundTrip(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Hash("index.st")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetHash("index.st", "abc123"))
	hash, ok, err := c.Hash("index.st")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", hash)

	require.NoError(t, c.SetHash("index.st", "def456"))
	hash, ok, err = c.Hash("index.st")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "def456", hash, "SetHash must upsert, not insert a second row")
}

func TestEdges(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.AddEdge("partial.st", "index.st"))
	require.NoError(t, c.AddEdge("partial.st", "about.st"))
	require.NoError(t, c.AddEdge("partial.st", "index.st")) // duplicate, ignored

	edges, err := c.Edges()
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	var dependants []string
	for _, e := range edges {
		require.Equal(t, "partial.st", e[0])
		dependants = append(dependants, e[1])
	}
	assert.ElementsMatch(t, []string{"index.st", "about.st"}, dependants)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c1.SetHash("index.st", "abc123"))
	require.NoError(t, c1.Close())

	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	hash, ok, err := c2.Hash("index.st")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", hash)
}
