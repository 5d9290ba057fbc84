// Package pathutil holds the small path-rewriting helpers the engine
// needs in more than one place: transmuting a source-relative path into
// its output-relative counterpart, normalising directory separators to
// the store's canonical `/`, and escaping path segments the way
// `[#dotted/name]` escapes dots (spec.md §4.4).
//
// Grounded on the teacher's internal/graph/vdirpath.go, which performs
// the analogous job of parsing/rewriting virtual paths without any
// dependency on the graph itself.
package pathutil

import (
	"path"
	"strings"
)

// Clean normalises a store-relative path: forward slashes, no leading
// slash, no trailing slash, "." collapsed.
func Clean(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Join joins store-relative path segments and cleans the result.
func Join(parts ...string) string {
	return Clean(path.Join(parts...))
}

// Dir returns the store-relative parent directory of p ("" for a
// top-level entry).
func Dir(p string) string {
	p = Clean(p)
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// Base returns the final path segment.
func Base(p string) string {
	return path.Base(Clean(p))
}

// Transmute rewrites a path from the source-store root to the
// output-store root — identity for Sitix, since output paths mirror
// source paths 1:1 unless a RedirectorStatement overrides them
// (spec.md §4.6), but kept as a named seam so that override hook has a
// single obvious place to live.
func Transmute(sourceRelPath string) string {
	return Clean(sourceRelPath)
}

// EscapeSlashes replaces literal `/` with the two-byte escape `\/` so
// that a name containing slashes can be fed through dotted lookup
// without its slashes being mistaken for path separators. Used by the
// `[#dotted/name]` directive form (spec.md §4.4), which auto-escapes
// `/` so dots in the path are literal segments rather than lookup
// descents.
func EscapeSlashes(name string) string {
	if !strings.Contains(name, "/") {
		return name
	}
	return strings.ReplaceAll(name, "/", `\/`)
}

// SplitFirst splits a dotted name on the first unescaped '.', returning
// the first segment (with `\.` unescaped to `.`) and the remainder.
// Mirrors the root/remainder split spec.md §4.3 Lookup performs, and is
// shared by the Object graph and the Evals variable-reference resolver.
func SplitFirst(name string) (head, rest string, hasRest bool) {
	escaping := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if escaping {
			escaping = false
			continue
		}
		if c == '\\' {
			escaping = true
			continue
		}
		if c == '.' {
			return unescapeDots(name[:i]), name[i+1:], true
		}
	}
	return unescapeDots(name), "", false
}

func unescapeDots(s string) string {
	if !strings.Contains(s, `\.`) {
		return s
	}
	return strings.ReplaceAll(s, `\.`, ".")
}
