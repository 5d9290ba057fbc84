package watcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitix-run/sitix/internal/watcher"
)

func TestGraphDependantsOrder(t *testing.T) {
	g := watcher.New()
	g.AddEdge("partial.st", "index.st")
	g.AddEdge("partial.st", "about.st")
	g.AddEdge("partial.st", "index.st") // duplicate

	assert.Equal(t, []string{"index.st", "about.st"}, g.Dependants("partial.st"))
	assert.Nil(t, g.Dependants("unknown.st"))
}

func TestGraphSelfEdgeDropped(t *testing.T) {
	g := watcher.New()
	g.AddEdge("index.st", "index.st")
	assert.Empty(t, g.Dependants("index.st"))
}

// spec.md §4.7: removal swap-deletes path from every other source's
// dependant list.
func TestGraphRemove(t *testing.T) {
	g := watcher.New()
	g.AddEdge("partial.st", "index.st")
	g.AddEdge("partial.st", "about.st")

	g.Remove("index.st")

	assert.Equal(t, []string{"about.st"}, g.Dependants("partial.st"))
}
