// Package watcher implements spec.md §4.7: the dependency graph and
// change-driven re-render loop. When resolving one file (the dependant)
// causes another file (the source) to be materialised (directory unpack,
// Dereference, Copier, `[^file.thing]`), a directed edge source ->
// dependant is recorded; a change to source re-renders it and then every
// dependant transitively.
//
// Grounded on the teacher's internal/graph.MemoryStore.fileToNodes: a
// roaring bitmap keyed by path gives O(k) dependant lookup instead of
// an O(N) scan over every known path, the same trade the teacher makes
// for "which nodes came from this file" (internal/graph/graph.go).
package watcher

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Graph is a directed source -> dependants index over source-store
// paths, interning each path to a small integer ID the way the teacher
// interns node IDs into fileToNodes (internal/graph/graph.go
// indexNode/nodeIntID/intToNodeID) so the bitmap stays dense.
type Graph struct {
	mu sync.Mutex

	id    map[string]uint32
	byID  []string
	count uint32

	// edges[source] holds the interned IDs of every path whose resolution
	// materialised source.
	edges map[uint32]*roaring.Bitmap
	// order lists each source's dependants in insertion order, which
	// holds until a Remove moves the last entry into the removed slot.
	order map[uint32][]uint32
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{
		id:    make(map[string]uint32),
		edges: make(map[uint32]*roaring.Bitmap),
		order: make(map[uint32][]uint32),
	}
}

func (g *Graph) intern(path string) uint32 {
	if id, ok := g.id[path]; ok {
		return id
	}
	id := g.count
	g.count++
	g.id[path] = id
	g.byID = append(g.byID, path)
	return id
}

// AddEdge records that resolving dependant caused source to be
// materialised, so a change to source re-renders dependant. A self-edge is dropped; a file's own re-render already
// covers itself.
func (g *Graph) AddEdge(source, dependant string) {
	if source == dependant {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.intern(source)
	d := g.intern(dependant)

	bm, ok := g.edges[s]
	if !ok {
		bm = roaring.New()
		g.edges[s] = bm
	}
	if !bm.Contains(d) {
		bm.Add(d)
		g.order[s] = append(g.order[s], d)
	}
}

// Dependants returns every path that depends on source, in the order
// their edges were first recorded; after a Remove from source's list,
// the entry that was last takes the removed entry's position.
func (g *Graph) Dependants(source string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.id[source]
	if !ok {
		return nil
	}
	order := g.order[id]
	out := make([]string, 0, len(order))
	for _, d := range order {
		out = append(out, g.byID[d])
	}
	return out
}

// Remove drops path from the graph: every outgoing edge is forgotten,
// and path is swap-deleted from every other source's dependant list (the
// last entry moves into its slot). Every source's bitmap is checked, so
// a removal costs time proportional to the number of sources.
func (g *Graph) Remove(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.id[path]
	if !ok {
		return
	}
	delete(g.edges, id)
	delete(g.order, id)

	for s, bm := range g.edges {
		if !bm.Contains(id) {
			continue
		}
		bm.Remove(id)
		list := g.order[s]
		for i, d := range list {
			if d == id {
				list[i] = list[len(list)-1]
				g.order[s] = list[:len(list)-1]
				break
			}
		}
	}
}
