package scope_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitix-run/sitix/internal/parser"
	"github.com/sitix-run/sitix/internal/scope"
	"github.com/sitix-run/sitix/internal/store"
)

func newTestStore(t *testing.T, files map[string]string) *store.BillyStore {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		f, err := fs.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	return store.NewBillyStore(fs, "/")
}

// build renders relPath through a fresh session over src and returns
// the bytes written to the output store, the way the CLI driver's
// BuildFile call does for a single file (spec.md §4.7).
func build(t *testing.T, src *store.BillyStore, relPath string) string {
	t.Helper()
	out := store.NewBillyStore(memfs.New(), "/")
	sess := scope.NewSession(src, parser.Parse)
	require.NoError(t, sess.BuildFile(relPath, out))
	data, err := out.Open(relPath)
	require.NoError(t, err)
	return string(data)
}

// spec.md §8 Scenario 1: a bare setter's content is literal text, not
// re-evaluated as an expression.
func TestSetterAndDereference(t *testing.T) {
	src := newTestStore(t, map[string]string{
		"index.st": "[!][=x Hello][^x]",
	})
	assert.Equal(t, "Hello", build(t, src, "index.st"))
}

// spec.md §8: a for-loop over a directory's enumerated entries renders
// the body once per entry with the iteration binding ghosted to it.
func TestForLoopOverDirectory(t *testing.T) {
	src := newTestStore(t, map[string]string{
		"index.st":   "[!][f posts p][^p.filename][/]",
		"posts/a.st": "[!]a",
		"posts/b.st": "[!]b",
	})
	out := build(t, src, "index.st")
	assert.Contains(t, out, "posts/a.st")
	assert.Contains(t, out, "posts/b.st")
}

// spec.md §4.3: Object.highest_enumerated is the wrap modulus for a
// negative numeric index, not live child count. Also exercises dotted
// descent through a file name containing a literal, escaped dot.
func TestEnumeratedNegativeIndexWraps(t *testing.T) {
	src := newTestStore(t, map[string]string{
		"index.st": `[!][^items\.st.-1]`,
		"items.st": "[!][=+ one][=+ two][=+ three]",
	})
	assert.Equal(t, "three", build(t, src, "index.st"))
}

// spec.md §6: a file whose header is `[?]` is parsed but never
// rendered.
func TestBuildFileSkipsParseOnly(t *testing.T) {
	src := newTestStore(t, map[string]string{
		"partial.st": "[?]never written",
	})
	out := store.NewBillyStore(memfs.New(), "/")
	sess := scope.NewSession(src, parser.Parse)

	require.NoError(t, sess.BuildFile("partial.st", out))
	_, err := out.Open("partial.st")
	assert.Error(t, err, "a [?] file must not be written to the output store")
}

// spec.md §7: a zero-size file is skipped with a warning, not rendered
// as an empty output.
func TestBuildFileSkipsEmptyFile(t *testing.T) {
	src := newTestStore(t, map[string]string{
		"empty.st": "",
	})
	out := store.NewBillyStore(memfs.New(), "/")
	sess := scope.NewSession(src, parser.Parse)

	require.NoError(t, sess.BuildFile("empty.st", out))
	_, err := out.Open("empty.st")
	assert.Error(t, err)
}

// materialiseFile reuse-in-place: re-building the same path on a
// session that already materialised it must not create a duplicate
// root-level Object (a watcher-driven rebuild relies on this so
// existing ObjectID references stay valid).
func TestRebuildSamePathReusesObject(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("index.st")
	require.NoError(t, err)
	_, err = f.Write([]byte("[!][=x one]"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	src := store.NewBillyStore(fs, "/")

	sess := scope.NewSession(src, parser.Parse)
	out := store.NewBillyStore(memfs.New(), "/")

	require.NoError(t, sess.BuildFile("index.st", out))
	firstID, err := sess.Lookup(sess.Root(), `index\.st`, scope.NoObject)
	require.NoError(t, err)

	src.Evict("index.st")
	f, err = fs.Create("index.st")
	require.NoError(t, err)
	_, err = f.Write([]byte("[!][=x two]"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, sess.BuildFile("index.st", out))
	secondID, err := sess.Lookup(sess.Root(), `index\.st`, scope.NoObject)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID, "rebuilding the same path must reuse the existing Object")
}
