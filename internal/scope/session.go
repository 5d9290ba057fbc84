package scope

import (
	"strconv"
	"sync"

	"github.com/sitix-run/sitix/internal/bytewindow"
	"github.com/sitix-run/sitix/internal/fileflags"
	"github.com/sitix-run/sitix/internal/pathutil"
	"github.com/sitix-run/sitix/internal/store"
)

// FileParser compiles a source file's bytes into its render-node body.
// Session calls it during lazy materialisation (spec.md §4.3 Lookup
// step 6); the concrete implementation (internal/parser.Parse) is
// injected rather than imported directly, the same way evals.Resolver
// keeps evals from importing scope — here it's scope that would
// otherwise need to import parser, which needs to import scope to
// build the Object tree it returns.
type FileParser func(session *Session, parent ObjectID, src []byte, flags fileflags.Flags) ([]Node, error)

// DependencyRecorder is notified whenever resolving one file causes
// another to be materialised — the edge the watcher needs to re-render
// transitively (spec.md §4.7). source is the file that got pulled in;
// dependant is the file whose resolution triggered the materialisation,
// so a change to source re-renders dependant.
type DependencyRecorder func(source, dependant string)

// Session is the Object arena for one build. It owns every Object ever
// created during the build and the lazily-materialised filesystem
// projection rooted at Root().
type Session struct {
	mu sync.Mutex

	objects []*Object // index 0 is always nil; IDs start at 1
	root    ObjectID
	config  []ObjectID

	source    store.SourceStore
	parseFile FileParser
	onDep     DependencyRecorder

	// currentFile is the path of the file currently being resolved, so
	// lazy materialisation can register a dependency edge and so
	// relative-retry (spec.md §4.3 Lookup step 6) knows which directory
	// to prepend.
	currentFile string
}

// NewSession creates a session with a fresh, empty session root.
func NewSession(source store.SourceStore, parseFile FileParser) *Session {
	s := &Session{source: source, parseFile: parseFile}
	s.objects = append(s.objects, nil) // ObjectID 0 == NoObject
	root := s.newObject(NoObject, KindVirtual, "", 0)
	s.Get(root).virile = false
	s.root = root
	return s
}

// SetDependencyRecorder installs the callback used to report
// file-to-file dependency edges as they're discovered.
func (s *Session) SetDependencyRecorder(rec DependencyRecorder) { s.onDep = rec }

// Lock acquires the session mutex. No build or watch code path calls it.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session mutex.
func (s *Session) Unlock() { s.mu.Unlock() }

// Root returns the session root's ObjectID.
func (s *Session) Root() ObjectID { return s.root }

// Get returns the Object for id. Panics on an invalid ID, matching the
// arena's contract that every live ObjectID was handed out by this
// session.
func (s *Session) Get(id ObjectID) *Object {
	return s.objects[id]
}

func (s *Session) newObject(parent ObjectID, kind NameKind, name string, number int) ObjectID {
	id := ObjectID(len(s.objects))
	obj := &Object{
		id:     id,
		parent: parent,
		kind:   kind,
		name:   name,
		number: number,
		virile: kind == KindNamed,
	}
	s.objects = append(s.objects, obj)
	if parent != NoObject {
		p := s.Get(parent)
		p.children = append(p.children, id)
		if kind == KindEnumerated && number >= p.highestEnumerated {
			p.highestEnumerated = number + 1
		}
	}
	return id
}

// NewNamed creates a Named child of parent.
func (s *Session) NewNamed(parent ObjectID, name string) ObjectID {
	return s.newObject(parent, KindNamed, name, 0)
}

// NewEnumerated creates an Enumerated child of parent, allocating the
// next index from parent's highestEnumerated counter (spec.md §3:
// "highest_enumerated: running counter for allocating the next
// enumerated child index").
func (s *Session) NewEnumerated(parent ObjectID) ObjectID {
	number := s.Get(parent).highestEnumerated
	return s.newObject(parent, KindEnumerated, "", number)
}

// NewVirtual creates an anonymous structural child (a ForLoop/
// IfStatement/RedirectorStatement body).
func (s *Session) NewVirtual(parent ObjectID) ObjectID {
	return s.newObject(parent, KindVirtual, "", 0)
}

// SetNodes installs obj's render-node body.
func (s *Session) SetNodes(obj ObjectID, nodes []Node) {
	s.Get(obj).nodes = nodes
}

// AddConfigEntry registers a root-level config Object (CLI
// `-c NAME=VALUE`, spec.md §6), consulted by Lookup step 6 before
// filesystem materialisation.
func (s *Session) AddConfigEntry(name, value string) ObjectID {
	id := s.NewNamed(s.root, name)
	obj := s.Get(id)
	obj.virile = false
	if value != "" {
		s.SetNodes(id, []Node{{Kind: NodeTextBlob, TextBlob: value}})
	}
	s.config = append(s.config, id)
	return id
}

// scanNamed finds a Named child of obj equal to name, honouring the
// nope discriminant (spec.md §4.3 Lookup step 5): a child identical to
// nope is skipped, but scanning then stops rather than falling through
// to a later shadowed sibling of the same name.
func (s *Session) scanNamed(obj *Object, name string, nope ObjectID) (ObjectID, bool) {
	for _, cid := range obj.children {
		c := s.Get(cid)
		if c.kind != KindNamed || c.name != name {
			continue
		}
		if cid == nope {
			return NoObject, false
		}
		return cid, true
	}
	return NoObject, false
}

func (s *Session) scanConfig(name string) (ObjectID, bool) {
	for _, cid := range s.config {
		c := s.Get(cid)
		if c.name == name {
			return cid, true
		}
	}
	return NoObject, false
}

// nearestFile walks parent links from self (inclusive) to find the
// nearest Object with IsFile set, implementing the `__file__` magic
// root (spec.md §4.3).
func (s *Session) nearestFile(self ObjectID) ObjectID {
	id := self
	for id != NoObject {
		obj := s.Get(id)
		if obj.isFile {
			return id
		}
		id = obj.parent
	}
	return NoObject
}

// findEnumerated returns obj's Enumerated child whose number equals n,
// wrapping a negative n modulo obj.highestEnumerated (spec.md §8: "D.N
// for an integer N resolves to the N-th entry's Object (modulo entry
// count for negative N)"; spec.md §9 Open Questions resolves the wrap
// modulus to highestEnumerated, not live child count).
func (s *Session) findEnumerated(obj *Object, n int) (ObjectID, bool) {
	if obj.highestEnumerated > 0 && n < 0 {
		n = ((n % obj.highestEnumerated) + obj.highestEnumerated) % obj.highestEnumerated
	}
	for _, cid := range obj.children {
		c := s.Get(cid)
		if c.kind == KindEnumerated && c.number == n {
			return cid, true
		}
	}
	return NoObject, false
}

// adjacentEnumerated implements __before__/__after__: the previous or
// next Enumerated sibling of self within parent's child order.
func (s *Session) adjacentEnumerated(self ObjectID, forward bool) (ObjectID, bool) {
	obj := s.Get(self)
	parent := s.Get(obj.parent)
	var enumerated []ObjectID
	selfIdx := -1
	for _, cid := range parent.children {
		c := s.Get(cid)
		if c.kind != KindEnumerated {
			continue
		}
		if cid == self {
			selfIdx = len(enumerated)
		}
		enumerated = append(enumerated, cid)
	}
	if selfIdx < 0 {
		return NoObject, false
	}
	idx := selfIdx - 1
	if forward {
		idx = selfIdx + 1
	}
	if idx < 0 || idx >= len(enumerated) {
		return NoObject, false
	}
	return enumerated[idx], true
}

// materialiseDirectory unpacks dir's entries into Enumerated ghost
// children, one per entry, each ghosting the lazily-resolved Object for
// that entry (spec.md §4.3 Lookup step 6). Idempotent: a
// once-materialised directory is never unpacked twice. Nothing clears
// the flag, so entries added to the directory later in the same
// session are not picked up.
func (s *Session) materialiseDirectory(dirObj ObjectID, relPath string) error {
	obj := s.Get(dirObj)
	if obj.materialized {
		return nil
	}
	obj.materialized = true

	names, err := s.source.ListDir(relPath)
	if err != nil {
		return err
	}
	for _, name := range names {
		entryRel := pathutil.Join(relPath, name)
		child, err := s.resolveEntry(dirObj, entryRel)
		if err != nil || child == NoObject {
			continue
		}
		ghostSlot := s.NewEnumerated(dirObj)
		s.Get(ghostSlot).virile = false
		s.Get(ghostSlot).ghost = child
	}
	return nil
}

// resolveEntry materialises the Object for entryRel (a file or
// directory), attaching it under the session root the way Lookup step
// 6 does for a direct root-level name.
func (s *Session) resolveEntry(requestor ObjectID, entryRel string) (ObjectID, error) {
	kind, err := s.source.Exists(entryRel)
	if err != nil {
		return NoObject, err
	}
	switch kind {
	case store.Directory:
		id := s.NewNamed(s.root, entryRel)
		s.Get(id).virile = false
		if err := s.materialiseDirectory(id, entryRel); err != nil {
			return NoObject, err
		}
		return id, nil
	case store.File:
		return s.materialiseFile(entryRel)
	default:
		return NoObject, nil
	}
}

// materialiseFile parses entryRel into a file Object attached to the
// session root, synthesising its infertile `filename` child, and
// records a dependency edge from entryRel onto the file currently being
// resolved (spec.md §4.3 Lookup step 6, §4.7). If entryRel was already
// materialised (a watcher-driven rebuild), the existing Object is reset
// in place and reparsed rather than shadowed by a duplicate, so ghosts
// and Lookup results that already reference it by ObjectID keep
// pointing at the rebuilt content.
func (s *Session) materialiseFile(relPath string) (ObjectID, error) {
	data, err := s.source.Open(relPath)
	if err != nil {
		return NoObject, err
	}

	flags := fileflags.ForVerbatim()
	isTemplate := false
	sitix := false
	body := data
	if len(data) >= 3 {
		switch string(data[:3]) {
		case "[!]":
			sitix = true
			flags = fileflags.ForTemplate()
			body = data[3:]
		case "[?]":
			sitix = true
			isTemplate = true
			flags = fileflags.ForTemplate()
			body = data[3:]
		}
	}

	id, reused := s.scanNamed(s.Get(s.root), relPath, NoObject)
	if !reused {
		id = s.NewNamed(s.root, relPath)
	}
	obj := s.Get(id)
	obj.children = nil
	obj.nodes = nil
	obj.highestEnumerated = 0
	obj.isFile = true
	obj.isTemplate = isTemplate
	obj.virile = false
	obj.fileflags = flags

	nameChild := s.NewNamed(id, "filename")
	s.Get(nameChild).virile = false
	s.SetNodes(nameChild, []Node{{Kind: NodeTextBlob, TextBlob: relPath}})

	if sitix && s.parseFile != nil {
		prevFile := s.currentFile
		s.currentFile = relPath
		nodes, err := s.parseFile(s, id, body, flags)
		s.currentFile = prevFile
		if err != nil {
			return NoObject, err
		}
		obj.nodes = append(obj.nodes, nodes...)
	} else {
		obj.nodes = append(obj.nodes, Node{Kind: NodePlainText, PlainText: bytewindow.New(body), Fileflags: flags})
	}

	if s.onDep != nil && s.currentFile != "" && s.currentFile != relPath {
		s.onDep(relPath, s.currentFile)
	}
	return id, nil
}

// splitNumeric parses a purely numeric dotted-name segment.
func splitNumeric(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}
