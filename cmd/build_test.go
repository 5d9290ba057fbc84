package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitix-run/sitix/internal/store"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// preConfirmed pre-writes the `.sitix` marker so EmptyWithConfirmation
// takes its already-marked path instead of reading a y/N answer from
// stdin, which a test has none of to give.
func preConfirmed(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.MarkerName), []byte(store.MarkerNotice), 0o644))
}

// An initial build over an already-marked output directory writes the
// `.sitix` marker and every source file's rendered output (spec.md §6,
// §4.7).
func TestDriverInitialPass(t *testing.T) {
	source := t.TempDir()
	out := t.TempDir()
	writeFile(t, source, "index.st", "[!][=x Hello][^x]")
	writeFile(t, source, "plain.txt", "verbatim\n")
	preConfirmed(t, out)

	outputDir = out
	d, err := newDriver(source, true)
	require.NoError(t, err)
	defer d.close()

	require.NoError(t, d.initialPass())

	marker, err := os.ReadFile(filepath.Join(out, store.MarkerName))
	require.NoError(t, err)
	assert.NotEmpty(t, marker)

	rendered, err := os.ReadFile(filepath.Join(out, "index.st"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(rendered))

	plain, err := os.ReadFile(filepath.Join(out, "plain.txt"))
	require.NoError(t, err)
	assert.Equal(t, "verbatim\n", string(plain))
}

// The build cache's watcher-restart fast path: a second driver over an
// unchanged source tree skips the full render pass and reseeds the
// dependency graph from the persisted edge list instead.
func TestDriverCacheFastPathReseedsGraph(t *testing.T) {
	source := t.TempDir()
	out := t.TempDir()
	writeFile(t, source, "index.st", "[!][f posts p][^p.filename][/]")
	writeFile(t, source, "posts/a.st", "[!]a")
	preConfirmed(t, out)

	outputDir = out
	d1, err := newDriver(source, true)
	require.NoError(t, err)
	require.NoError(t, d1.initialPass())
	d1.close()

	outputDir = out
	d2, err := newDriver(source, true)
	require.NoError(t, err)
	defer d2.close()
	require.NoError(t, d2.initialPass())

	dependants := d2.graph.Dependants("posts/a.st")
	assert.Contains(t, dependants, "index.st", "reseeded graph must know posts/a.st's dependant from the cached edge list")
}
