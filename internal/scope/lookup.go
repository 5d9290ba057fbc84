package scope

import (
	"errors"

	"github.com/sitix-run/sitix/internal/pathutil"
)

// ErrNotFound is returned by Lookup when name resolves to nothing
// anywhere up the scope chain (spec.md §7: "Unresolved name").
var ErrNotFound = errors.New("scope: name not found")

// Lookup resolves a dotted name against self, matching spec.md §4.3
// exactly. nope excludes one candidate Object from the Named-child scan
// (the "nope discriminant", used so a replacement walk doesn't return
// the very Object it's trying to replace).
func (s *Session) Lookup(self ObjectID, name string, nope ObjectID) (ObjectID, error) {
	obj := s.Get(self)
	if obj.ghost != NoObject {
		return s.Lookup(obj.ghost, name, nope)
	}

	root, rest, hasRest := pathutil.SplitFirst(name)

	switch root {
	case "__this__":
		return s.finishLookup(self, rest, hasRest)
	case "__file__":
		return s.finishLookup(s.nearestFile(self), rest, hasRest)
	}

	if obj.isFile && obj.name == root {
		return s.finishLookup(self, rest, hasRest)
	}

	if found, ok := s.scanNamed(obj, root, nope); ok {
		return s.finishLookup(found, rest, hasRest)
	}

	if self == s.root {
		if found, ok := s.scanConfig(root); ok {
			return s.finishLookup(found, rest, hasRest)
		}
		if found, err := s.materialiseRoot(root); err != nil {
			return NoObject, err
		} else if found != NoObject {
			return s.finishLookup(found, rest, hasRest)
		}
		if s.currentFile != "" {
			rel := pathutil.Join(pathutil.Dir(s.currentFile), root)
			if rel != root {
				if found, err := s.materialiseRoot(rel); err != nil {
					return NoObject, err
				} else if found != NoObject {
					return s.finishLookup(found, rest, hasRest)
				}
			}
		}
		return NoObject, ErrNotFound
	}

	if obj.parent != NoObject {
		return s.Lookup(obj.parent, name, nope)
	}
	return NoObject, ErrNotFound
}

// materialiseRoot consults the source store for root as a path directly
// under the store's root, materialising and attaching whatever it
// finds (spec.md §4.3 Lookup step 6). Returns NoObject, nil when
// nothing exists at that path.
func (s *Session) materialiseRoot(root string) (ObjectID, error) {
	if found, ok := s.scanNamed(s.Get(s.root), root, NoObject); ok {
		return found, nil
	}
	return s.resolveEntry(s.root, root)
}

func (s *Session) finishLookup(base ObjectID, rest string, hasRest bool) (ObjectID, error) {
	if base == NoObject {
		return NoObject, ErrNotFound
	}
	if !hasRest {
		return base, nil
	}
	return s.descend(base, rest)
}

// descend is child_search_up (spec.md §4.3 "Child-search (dotted
// descent)"): resolves a dotted remainder path against base's children,
// honouring the numeric-index and __before__/__after__ magic segments.
// base is deghosted first: a for-loop iteration binding (or any other
// Named slot reached via ghost) carries no children of its own, only
// its ghost target does, so e.g. `p.filename` over a `[f posts p]`
// binding must search the ghosted-to post, not the empty binding slot.
func (s *Session) descend(base ObjectID, remainder string) (ObjectID, error) {
	base = s.Deghost(base)
	head, rest, hasRest := pathutil.SplitFirst(remainder)

	switch head {
	case "__before__":
		if next, ok := s.adjacentEnumerated(base, false); ok {
			return s.finishLookup(next, rest, hasRest)
		}
		return NoObject, ErrNotFound
	case "__after__":
		if next, ok := s.adjacentEnumerated(base, true); ok {
			return s.finishLookup(next, rest, hasRest)
		}
		return NoObject, ErrNotFound
	}

	if n, ok := splitNumeric(head); ok {
		if child, ok := s.findEnumerated(s.Get(base), n); ok {
			return s.finishLookup(child, rest, hasRest)
		}
		return NoObject, ErrNotFound
	}

	if child, ok := s.scanNamed(s.Get(base), head, NoObject); ok {
		return s.finishLookup(child, rest, hasRest)
	}
	return NoObject, ErrNotFound
}
