// Package cache implements an optional persistent build cache: a
// per-path content hash and the dependency-edge list survive between
// `sitix build` invocations so an unchanged tree can skip re-rendering
// and the watcher can restore its dependency graph without replaying a
// full initial pass.
//
// Grounded on the teacher's internal/graph.SQLiteGraph: a single
// database/sql handle over modernc.org/sqlite, schema created with a
// plain CREATE TABLE IF NOT EXISTS on open, one struct owning the
// *sql.DB and a small set of prepared-statement-free Exec/Query calls.
// Sitix's cache is a much smaller surface (two tables, no FUSE-facing
// read path) so it skips the teacher's sync.Once scan bookkeeping.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache stores build state between runs.
type Cache struct {
	db *sql.DB
}

// Open creates or reuses the sqlite database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS file_hashes (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dependency_edges (
	source TEXT NOT NULL,
	dependant TEXT NOT NULL,
	PRIMARY KEY (source, dependant)
);
`

// Hash returns the last recorded content hash for path, and whether
// one was found.
func (c *Cache) Hash(path string) (string, bool, error) {
	var hash string
	err := c.db.QueryRow(`SELECT hash FROM file_hashes WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: read hash for %q: %w", path, err)
	}
	return hash, true, nil
}

// SetHash records path's content hash, replacing any previous value.
func (c *Cache) SetHash(path, hash string) error {
	_, err := c.db.Exec(`INSERT INTO file_hashes(path, hash) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash`, path, hash)
	if err != nil {
		return fmt.Errorf("cache: write hash for %q: %w", path, err)
	}
	return nil
}

// AddEdge persists a dependency edge discovered during a build, so a
// freshly-started watcher can rebuild its in-memory watcher.Graph
// without a full initial render.
func (c *Cache) AddEdge(source, dependant string) error {
	_, err := c.db.Exec(`INSERT OR IGNORE INTO dependency_edges(source, dependant) VALUES (?, ?)`,
		source, dependant)
	if err != nil {
		return fmt.Errorf("cache: write edge %q -> %q: %w", source, dependant, err)
	}
	return nil
}

// Edges returns every persisted (source, dependant) pair, for
// repopulating a watcher.Graph at startup.
func (c *Cache) Edges() ([][2]string, error) {
	rows, err := c.db.Query(`SELECT source, dependant FROM dependency_edges`)
	if err != nil {
		return nil, fmt.Errorf("cache: read edges: %w", err)
	}
	defer rows.Close()

	var edges [][2]string
	for rows.Next() {
		var s, d string
		if err := rows.Scan(&s, &d); err != nil {
			return nil, fmt.Errorf("cache: scan edge: %w", err)
		}
		edges = append(edges, [2]string{s, d})
	}
	return edges, rows.Err()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
