package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// BillyStore implements both SourceStore and OutputStore over a
// go-billy filesystem. Tests construct one over memfs.New(); the real
// CLI driver constructs one over osfs.New(dir).
type BillyStore struct {
	fs   billy.Filesystem
	root string // absolute root, used to relativise change-stream paths

	mu    sync.Mutex
	cache map[string][]byte // source-open cache, keyed by store-relative path
}

// NewBillyStore wraps fs as both a SourceStore and an OutputStore.
// root is the absolute directory fs is rooted at, used by Relativise.
func NewBillyStore(fs billy.Filesystem, root string) *BillyStore {
	return &BillyStore{fs: fs, root: root, cache: make(map[string][]byte)}
}

// NewOSStore is a convenience constructor over a real OS directory.
func NewOSStore(dir string) (*BillyStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return NewBillyStore(osfs.New(abs), abs), nil
}

// Filesystem exposes the underlying go-billy filesystem, for callers
// that need to hand the output tree to something that speaks
// billy.Filesystem directly (internal/previewfs's NFS backend).
func (s *BillyStore) Filesystem() billy.Filesystem {
	return s.fs
}

func (s *BillyStore) Exists(path string) (EntryKind, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Missing, nil
		}
		return Missing, err
	}
	if info.IsDir() {
		return Directory, nil
	}
	if info.Mode().IsRegular() {
		return File, nil
	}
	return Other, nil
}

// Open returns path's contents, serving from the source cache when
// present. A change event for path must call Evict first or this will
// keep returning stale bytes — matching spec.md §5's "when a change
// event arrives for a cached path, the entry is evicted before
// re-reading."
func (s *BillyStore) Open(path string) ([]byte, error) {
	s.mu.Lock()
	if data, ok := s.cache[path]; ok {
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[path] = data
	s.mu.Unlock()
	return data, nil
}

// Evict drops path's cached bytes, forcing the next Open to re-read.
func (s *BillyStore) Evict(path string) {
	s.mu.Lock()
	delete(s.cache, path)
	s.mu.Unlock()
}

func (s *BillyStore) ListDir(path string) ([]string, error) {
	infos, err := s.fs.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *BillyStore) Relativise(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Create truncates (or creates) relPath, making parent directories as
// needed.
func (s *BillyStore) Create(relPath string) (WritableSink, error) {
	dir := filepath.Dir(relPath)
	if dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	f, err := s.fs.Create(relPath)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", relPath, err)
	}
	return f, nil
}

// EmptyWithConfirmation implements the `.sitix` marker contract
// (spec.md §6): proceeds unconditionally when the marker already
// exists, otherwise asks confirm before recursively clearing the
// directory.
func (s *BillyStore) EmptyWithConfirmation(confirm func() bool) (bool, error) {
	kind, err := s.Exists(MarkerName)
	if err != nil {
		return false, err
	}
	if kind == Missing {
		if confirm == nil || !confirm() {
			return false, nil
		}
	}

	infos, err := s.fs.ReadDir(".")
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	for _, info := range infos {
		if info.Name() == MarkerName {
			continue
		}
		if err := util.RemoveAll(s.fs, info.Name()); err != nil {
			return false, fmt.Errorf("store: clear %s: %w", info.Name(), err)
		}
	}

	f, err := s.fs.Create(MarkerName)
	if err != nil {
		return false, fmt.Errorf("store: write marker: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write([]byte(MarkerNotice)); err != nil {
		return false, err
	}
	return true, nil
}
