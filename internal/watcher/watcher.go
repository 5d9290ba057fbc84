package watcher

import (
	"log"

	"github.com/sitix-run/sitix/internal/store"
)

// RenderFunc (re-)renders a single source-relative path, the same way
// the driver's initial full pass renders each file.
type RenderFunc func(path string) error

// RemoveFunc deletes a path's corresponding output, called when its
// source is deleted or moved away.
type RemoveFunc func(path string) error

// Watcher drains a store.ChangeStream and drives re-renders through a
// Graph of recorded dependency edges (spec.md §4.7).
type Watcher struct {
	stream store.ChangeStream
	graph  *Graph
	render RenderFunc
	remove RemoveFunc
}

// NewWatcher builds a Watcher. graph should be the same Graph instance the
// render path calls AddEdge on as it resolves files, so dependants
// recorded during the initial build are already present before Run
// starts draining events.
func NewWatcher(stream store.ChangeStream, graph *Graph, render RenderFunc, remove RemoveFunc) *Watcher {
	return &Watcher{stream: stream, graph: graph, render: render, remove: remove}
}

// Run blocks draining change events until the stream returns an error
// (spec.md §5: "the watch loop... there is no cancellation — the
// process either continues or exits on signal"). Each iteration's
// Next() call is the suspension point; everything after it runs
// synchronously on this goroutine, matching the single-threaded
// rendering model.
func (w *Watcher) Run() error {
	for {
		change, err := w.stream.Next()
		if err != nil {
			return err
		}
		w.handle(change)
	}
}

func (w *Watcher) handle(change store.Change) {
	switch change.Kind {
	case store.Modified, store.Created, store.MovedTo:
		w.rerenderTransitively(change.Path)
	case store.Deleted, store.MovedFrom:
		if err := w.remove(change.Path); err != nil {
			log.Printf("watcher: removing output for %q: %v", change.Path, err)
		}
		w.graph.Remove(change.Path)
	}
}

// rerenderTransitively re-renders path, then BFS-walks recorded
// dependants re-rendering each in turn — "a re-render processes the
// changed file first, then dependants in traversal order over the edge
// list" (spec.md §5), with deterministic (insertion) ordering per
// spec.md §9.
func (w *Watcher) rerenderTransitively(path string) {
	visited := map[string]bool{path: true}
	queue := []string{path}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if err := w.render(cur); err != nil {
			log.Printf("watcher: re-render %q: %v", cur, err)
			continue
		}
		for _, dep := range w.graph.Dependants(cur) {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			queue = append(queue, dep)
		}
	}
}
