// Package scope implements Sitix's Object graph (spec.md §3, §4.3): the
// named/enumerated scope tree with lazy directory and file
// materialisation, ghost redirection, and named-child replacement.
//
// Objects are arena-indexed (ObjectID) rather than linked by raw
// pointers, per spec.md §9's re-architecture note: "replace raw
// back-pointers with an arena keyed by stable indices... parent, ghost
// become Option<ObjectId>". This mirrors the teacher's
// internal/graph.MemoryStore, which keys every Node by a stable string
// ID instead of holding live pointers between them.
package scope

import (
	"sync"

	"github.com/sitix-run/sitix/internal/fileflags"
)

// ObjectID indexes into a Session's arena. The zero value, NoObject,
// never denotes a live Object.
type ObjectID int64

// NoObject is the absence of an Object reference (an unset parent,
// ghost, or lookup miss).
const NoObject ObjectID = 0

// NameKind discriminates how an Object is addressed from its parent.
type NameKind int

const (
	// KindVirtual objects are structural/anonymous: ForLoop and
	// IfStatement bodies, RedirectorStatement bodies, and the session
	// root itself.
	KindVirtual NameKind = iota
	// KindNamed objects are addressed by string, e.g. `[=title …]`.
	KindNamed
	// KindEnumerated objects are addressed by a per-parent integer
	// index, e.g. `[=+ …]` or a directory's unpacked entries.
	KindEnumerated
)

// Object is the central scope-graph node (spec.md §3).
type Object struct {
	id   ObjectID
	name string // valid when nameKind == KindNamed or isFile
	kind NameKind

	number int // valid when nameKind == KindEnumerated

	children []ObjectID

	isFile     bool
	isTemplate bool

	// virile objects perform implicit replacement when rendered
	// (spec.md §4.3 Replacement). Synthetic children such as `filename`
	// are non-virile.
	virile bool

	// highestEnumerated is this Object's running counter for the next
	// `[=+ …]` or directory-unpack index.
	highestEnumerated int

	// ghost redirects every operation on this Object to another one.
	// Ghost chains must terminate (spec.md §3 invariant); Deghost walks
	// and bounds the chain.
	ghost ObjectID

	fileflags fileflags.Flags

	parent ObjectID

	// nodes is the render-node content owned by this Object: the parsed
	// body of a file, a `[=name …]`'s content, a ForLoop/IfStatement
	// body, etc. Virtual/Enumerated container objects with no body of
	// their own leave this nil.
	nodes []Node

	// materialized marks a directory Object whose entries have already
	// been unpacked into enumerated ghost children; the first lookup
	// populates children. It is never cleared, including on change
	// events.
	materialized bool
}

// ID returns o's stable arena index.
func (o *Object) ID() ObjectID { return o.id }

// Name returns o's Named-child name, or its file path when o is a file
// Object (file names double as their Named-lookup key, per spec.md
// §3's invariant: "its Object's name is the path relative to the
// source-store root").
func (o *Object) Name() string { return o.name }

// Kind reports whether o is Named, Enumerated, or Virtual.
func (o *Object) Kind() NameKind { return o.kind }

// Number returns o's Enumerated index. Meaningless unless Kind() ==
// KindEnumerated.
func (o *Object) Number() int { return o.number }

// IsFile reports whether o was materialised from a source-store file.
func (o *Object) IsFile() bool { return o.isFile }

// IsTemplate reports whether o's file began with `[?]`.
func (o *Object) IsTemplate() bool { return o.isTemplate }

// Virile reports whether rendering o attempts replacement first.
func (o *Object) Virile() bool { return o.virile }

// Fileflags returns the flags inherited from the file o was parsed
// from.
func (o *Object) Fileflags() fileflags.Flags { return o.fileflags }

// Parent returns o's owning Object, or NoObject for the session root.
func (o *Object) Parent() ObjectID { return o.parent }

// Children returns o's child Object IDs in source/insertion order. The
// slice is owned by the Session; callers must not mutate it.
func (o *Object) Children() []ObjectID { return o.children }

// Nodes returns o's render-node body.
func (o *Object) Nodes() []Node { return o.nodes }

// sessionMu names the mutex type Session embeds. Rendering is
// single-threaded per spec.md §5 ("implementations must treat the scope
// tree as non-thread-shared"), and arena mutation does not take the
// lock: only Session.Lock/Unlock do, and no build or watch code path
// calls them.
type sessionMu = sync.Mutex
