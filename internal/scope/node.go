package scope

import (
	"github.com/sitix-run/sitix/internal/bytewindow"
	"github.com/sitix-run/sitix/internal/evals"
	"github.com/sitix-run/sitix/internal/fileflags"
)

// NodeKind discriminates a Node's variant, matching spec.md §9's
// re-architecture note: "represent Node as a tagged union... no virtual
// dispatch needed; a single match over the variant suffices for
// rendering."
type NodeKind int

const (
	NodePlainText NodeKind = iota
	NodeTextBlob
	NodeObject
	NodeForLoop
	NodeIfStatement
	NodeDereference
	NodeCopier
	NodeRedirector
	NodeEvalsBlob
	NodeDebugger
)

// Node is the tagged union over every render-node leaf variant named in
// spec.md §3. Only the fields relevant to Kind are meaningful; this
// mirrors the teacher's flat-struct-with-discriminant style used for
// internal/graph.Node rather than a Go interface-per-variant, since the
// render switch (render.go) is the only place that ever inspects a
// Node's shape.
type Node struct {
	Kind      NodeKind
	Fileflags fileflags.Flags

	// PlainText: a zero-copy slice of the source file buffer.
	PlainText bytewindow.Window

	// TextBlob: an owned synthesised string, e.g. a `filename` value.
	TextBlob string

	// Object: a child Object materialised inline (a `[=name …]`
	// definition, or a `[=+ …]` element).
	Object ObjectID

	// ForLoop: iterate over Goal's Enumerated children, binding each in
	// turn to IterName, rendering Body (spec.md §4.6).
	Goal     string
	IterName string
	Body     ObjectID

	// IfStatement: evaluate Cond; render Main if truthy, else Else.
	Cond    *evals.Program
	Main    ObjectID
	Else    ObjectID
	HasElse bool

	// Dereference: `[^name]` / `[#dotted/name]`.
	DerefName string

	// Copier: `[~ dst src]` — ghost-install Source onto Target at
	// render time.
	CopyTarget string
	CopySource string

	// RedirectorStatement: `[> expr]…[/]` — render RBody to the output
	// path CondExpr evaluates to.
	CondExpr *evals.Program
	RBody    ObjectID

	// EvalsBlob: `[v …]` — render Program's stringified result.
	Program *evals.Program
}
