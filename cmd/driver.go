package cmd

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitix-run/sitix/internal/cache"
	"github.com/sitix-run/sitix/internal/config"
	"github.com/sitix-run/sitix/internal/parser"
	"github.com/sitix-run/sitix/internal/scope"
	"github.com/sitix-run/sitix/internal/store"
	"github.com/sitix-run/sitix/internal/watcher"
)

// driver holds everything one `sitix build`/`watch` invocation wires
// together: the source/output stores, the render session, and the
// dependency graph the watcher walks.
type driver struct {
	sourceDir string
	outDir    string

	source *store.BillyStore
	output *store.BillyStore
	sess   *scope.Session
	graph  *watcher.Graph
	cache  *cache.Cache
}

// newDriver resolves SOURCE_DIR/-o, loads `.sitixrc.hcl` (CLI flags
// win over file defaults), confirms and prepares the output directory,
// and wires a fresh scope.Session with internal/parser.Parse as its
// FileParser and the watcher.Graph as its DependencyRecorder.
// outDirSet reports whether -o was passed explicitly, distinguishing
// "user asked for ./output" from "flag default, defer to config file".
func newDriver(sourceArg string, outDirSet bool) (*driver, error) {
	cfg, err := config.Load(filepath.Join(sourceArg, ".sitixrc.hcl"))
	if err != nil {
		return nil, err
	}

	sourceDir := sourceArg
	if sourceDir == "" {
		sourceDir = cfg.Source
	}
	if sourceDir == "" {
		sourceDir = "."
	}

	outDir := outputDir
	if !outDirSet && cfg.Output != "" {
		outDir = cfg.Output
	}

	source, err := store.NewOSStore(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("sitix: open source dir %q: %w", sourceDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("sitix: create output dir %q: %w", outDir, err)
	}
	output, err := store.NewOSStore(outDir)
	if err != nil {
		return nil, fmt.Errorf("sitix: open output dir %q: %w", outDir, err)
	}

	proceeded, err := output.EmptyWithConfirmation(confirmClear)
	if err != nil {
		return nil, fmt.Errorf("sitix: prepare output dir: %w", err)
	}
	if !proceeded {
		return nil, fmt.Errorf("sitix: output dir %q not confirmed, aborting", outDir)
	}

	depGraph := watcher.New()
	// The cache lives alongside the source tree, not the output
	// directory: every build unconditionally empties outDir (spec.md
	// §6's marker contract), which would otherwise destroy the very
	// state the cache exists to carry across runs.
	buildCache, err := cache.Open(filepath.Join(sourceDir, ".sitix-cache.db"))
	if err != nil {
		log.Printf("sitix: build cache unavailable, continuing without it: %v", err)
		buildCache = nil
	}

	sess := scope.NewSession(source, parser.Parse)
	sess.SetDependencyRecorder(func(src, dependant string) {
		depGraph.AddEdge(src, dependant)
		if buildCache != nil {
			if err := buildCache.AddEdge(src, dependant); err != nil {
				log.Printf("sitix: cache edge %s -> %s: %v", src, dependant, err)
			}
		}
	})

	for _, entry := range parseConfigFlags(configFlags) {
		sess.AddConfigEntry(entry.Name, entry.Value)
	}
	for _, entry := range cfg.Entries {
		sess.AddConfigEntry(entry.Name, entry.Value)
	}

	return &driver{
		sourceDir: sourceDir,
		outDir:    outDir,
		source:    source,
		output:    output,
		sess:      sess,
		graph:     depGraph,
		cache:     buildCache,
	}, nil
}

func confirmClear() bool {
	fmt.Print("output directory has no .sitix marker; empty it and proceed? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func parseConfigFlags(flags []string) []config.Entry {
	entries := make([]config.Entry, 0, len(flags))
	for _, f := range flags {
		name, value, _ := strings.Cut(f, "=")
		entries = append(entries, config.ParseCLIEntry(name, value))
	}
	return entries
}

// listFiles enumerates every regular file under the source store in
// directory order (spec.md §4.7's "enumerate the input tree in
// directory order").
func listFiles(source store.SourceStore, dir string) ([]string, error) {
	var files []string
	names, err := source.ListDir(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			// .sitixrc.hcl, .sitix-cache.db, .git, editor swapfiles:
			// none of these are site content.
			continue
		}
		rel := name
		if dir != "" {
			rel = dir + "/" + name
		}
		kind, err := source.Exists(rel)
		if err != nil {
			return nil, err
		}
		switch kind {
		case store.Directory:
			sub, err := listFiles(source, rel)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		case store.File:
			files = append(files, rel)
		}
	}
	return files, nil
}

// initialPass runs spec.md §4.7's initial full render over every file
// in the source tree. When the build cache reports every file's
// content hash unchanged since the last run, the pass is skipped
// entirely and the dependency graph is reseeded from the persisted
// edge list instead (the watcher-restart fast path the build cache
// exists for).
func (d *driver) initialPass() error {
	files, err := listFiles(d.source, "")
	if err != nil {
		return fmt.Errorf("sitix: walk source tree: %w", err)
	}

	if d.cache != nil {
		if unchanged := d.allUnchanged(files); unchanged {
			log.Printf("sitix: %d files unchanged since last run, reseeding dependency graph", len(files))
			edges, err := d.cache.Edges()
			if err != nil {
				return fmt.Errorf("sitix: read cached edges: %w", err)
			}
			for _, e := range edges {
				d.graph.AddEdge(e[0], e[1])
			}
			return nil
		}
	}

	for _, rel := range files {
		if err := d.buildAndHash(rel); err != nil {
			log.Printf("sitix: render %q: %v", rel, err)
		}
	}
	return nil
}

func (d *driver) allUnchanged(files []string) bool {
	for _, rel := range files {
		data, err := d.source.Open(rel)
		if err != nil {
			return false
		}
		hash, ok, err := d.cache.Hash(rel)
		if err != nil || !ok || hash != contentHash(data) {
			return false
		}
	}
	return true
}

func (d *driver) buildAndHash(rel string) error {
	data, err := d.source.Open(rel)
	if err != nil {
		return err
	}
	if err := d.sess.BuildFile(rel, d.output); err != nil {
		return err
	}
	if d.cache != nil {
		if err := d.cache.SetHash(rel, contentHash(data)); err != nil {
			log.Printf("sitix: cache hash for %q: %v", rel, err)
		}
	}
	return nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (d *driver) close() {
	if d.cache != nil {
		_ = d.cache.Close()
	}
}
