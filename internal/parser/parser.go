// Package parser implements the directive parser (spec.md §4.4): it
// consumes a file's byte window and emits a tree of scope.Node values,
// creating scope.Object children for every Named/Enumerated directive
// it encounters along the way. It is injected into scope.Session as a
// scope.FileParser callback rather than imported by scope directly, to
// avoid the import cycle parser -> scope -> parser would otherwise
// create.
//
// Grounded on the teacher's internal/ingest directive-style line
// scanners for the "recognise a marker, dispatch, continue" shape, and
// on bytewindow's own Consume/Trim primitives for everything
// byte-level.
package parser

import (
	"log"

	"github.com/sitix-run/sitix/internal/bytewindow"
	"github.com/sitix-run/sitix/internal/evals"
	"github.com/sitix-run/sitix/internal/fileflags"
	"github.com/sitix-run/sitix/internal/pathutil"
	"github.com/sitix-run/sitix/internal/scope"
)

// exitReason reports why a recursive body-fill stopped, so callers
// like IfStatement can tell an else-branch apart from the end of the
// block (spec.md §4.4: "returns one of three exit reasons... EOF, saw
// [e], saw [/]").
type exitReason int

const (
	exitEOF exitReason = iota
	exitSawSlash
	exitSawE
)

// Parse implements scope.FileParser. flags is the file's starting
// fileflags; a `[@ on|off NAME]` directive anywhere in the file mutates
// a single shared copy for the remainder of the parse, the way the
// original engine threads one mutable fileflags struct through the
// whole file rather than scoping it to the enclosing block.
func Parse(session *scope.Session, parent scope.ObjectID, src []byte, flags fileflags.Flags) ([]scope.Node, error) {
	cur := flags
	p := &parser{session: session, flags: &cur}
	nodes, _, _ := p.parseBody(parent, bytewindow.New(src))
	return nodes, nil
}

type parser struct {
	session *scope.Session
	flags   *fileflags.Flags
}

// parseBody consumes w until EOF, an unescaped `[e]`, or an unescaped
// `[/]`, building render nodes (and, for directives that define
// Objects, new scope children under parent) along the way.
func (p *parser) parseBody(parent scope.ObjectID, w bytewindow.Window) ([]scope.Node, exitReason, bytewindow.Window) {
	var nodes []scope.Node
	for {
		rest, plain, found := w.Consume('[', true)
		if !plain.Empty() {
			warnUnescapedBrackets(plain)
			nodes = append(nodes, scope.Node{Kind: scope.NodePlainText, PlainText: plain.Retain(), Fileflags: *p.flags})
		}
		if !found {
			return nodes, exitEOF, rest
		}
		w = rest

		afterTag, tagData, closed := w.Consume(']', true)
		if !closed {
			log.Printf("parser: unterminated directive at end of file")
			return nodes, exitEOF, afterTag
		}
		w = afterTag

		if tagData.Empty() {
			log.Printf("parser: empty directive []")
			continue
		}
		op := byte(tagData.Peek(0))
		tagData = tagData.Advance(1).Trim()

		switch op {
		case '/':
			return nodes, exitSawSlash, w
		case 'e':
			return nodes, exitSawE, w
		case '=':
			node, err := p.parseSetter(parent, tagData, w)
			if err != nil {
				log.Printf("parser: %v", err)
				continue
			}
			nodes = append(nodes, node.node)
			w = node.rest
		case 'f':
			node, rest := p.parseForLoop(parent, tagData, w)
			nodes = append(nodes, node)
			w = rest
		case 'i':
			node, rest := p.parseIf(parent, tagData, w)
			nodes = append(nodes, node)
			w = rest
		case '^':
			nodes = append(nodes, scope.Node{Kind: scope.NodeDereference, DerefName: tagData.String(), Fileflags: *p.flags})
		case '#':
			nodes = append(nodes, scope.Node{Kind: scope.NodeDereference, DerefName: pathutil.EscapeSlashes(tagData.String()), Fileflags: *p.flags})
		case '~':
			srcWin, dstWin, _ := tagData.Consume(' ', true)
			nodes = append(nodes, scope.Node{
				Kind:       scope.NodeCopier,
				CopyTarget: dstWin.String(),
				CopySource: srcWin.Trim().String(),
				Fileflags:  *p.flags,
			})
		case 'v':
			nodes = append(nodes, scope.Node{Kind: scope.NodeEvalsBlob, Program: p.compileEvals(tagData.String()), Fileflags: *p.flags})
		case '>':
			node, rest := p.parseRedirector(parent, tagData, w)
			nodes = append(nodes, node)
			w = rest
		case 'd':
			nodes = append(nodes, scope.Node{Kind: scope.NodeDebugger, Fileflags: *p.flags})
		case '@':
			p.applyFileflag(tagData)
		default:
			log.Printf("parser: unknown directive %q", string(op))
		}
	}
}

// compileEvals parses an Evals expression once at construction time
// (spec.md §9: "parse into an opcode list at directive construction
// time... not at each render"), logging and degrading to an empty
// program (which renders as Error, per evals.Run's stack-size check)
// on a syntax error rather than aborting the whole file.
func (p *parser) compileEvals(src string) *evals.Program {
	prog, err := evals.Parse(src)
	if err != nil {
		log.Printf("parser: evals syntax error in %q: %v", src, err)
		return &evals.Program{Source: src}
	}
	return prog
}

type setterResult struct {
	node scope.Node
	rest bytewindow.Window
}

// parseSetter handles `[=name content]`, `[=name-]…[/]`, `[=+ …]` and
// `[=+-]…[/]` (spec.md §4.4). A bare word's content is stored as
// literal PlainText, not parsed as an Evals expression: spec.md §8
// Scenario 1 (`[=x Hello][^x]` renders the literal word "Hello") only
// holds if an unadorned setter's body is untouched text — parsing it
// as Evals would look "Hello" up as a bare identifier and, finding
// nothing, render empty. The data-model table's "EvalsBlob content
// node" wording is the data model's later, partially-migrated source
// revision; the literal worked Scenario in §8 is the authoritative
// contract and this implementation follows it.
func (p *parser) parseSetter(parent scope.ObjectID, tagData bytewindow.Window, after bytewindow.Window) (setterResult, error) {
	isExt := tagData.Peek(-1) == '-'
	if isExt {
		tagData, _ = tagData.PopBack()
	}

	contentWin, nameWin, hasContent := tagData.Consume(' ', true)
	name := nameWin.String()
	if !hasContent {
		name = tagData.String()
		contentWin = bytewindow.Window{}
	}

	var id scope.ObjectID
	if name == "+" {
		id = p.session.NewEnumerated(parent)
	} else {
		id = p.session.NewNamed(parent, name)
	}

	if isExt {
		nodes, _, rest := p.parseBody(id, after)
		p.session.SetNodes(id, nodes)
		return setterResult{node: scope.Node{Kind: scope.NodeObject, Object: id, Fileflags: *p.flags}, rest: rest}, nil
	}

	content := contentWin.Trim()
	p.session.SetNodes(id, []scope.Node{{Kind: scope.NodePlainText, PlainText: content.Retain(), Fileflags: *p.flags}})
	return setterResult{node: scope.Node{Kind: scope.NodeObject, Object: id, Fileflags: *p.flags}, rest: after}, nil
}

// parseForLoop handles `[f GOAL ITER]…[/]`.
func (p *parser) parseForLoop(parent scope.ObjectID, tagData bytewindow.Window, after bytewindow.Window) (scope.Node, bytewindow.Window) {
	iterWin, goalWin, _ := tagData.Consume(' ', true)
	goal := goalWin.String()
	iter := iterWin.Trim().String()

	body := p.session.NewVirtual(parent)
	nodes, reason, rest := p.parseBody(body, after)
	if reason == exitEOF {
		log.Printf("parser: for-loop over %q never closed with [/]", goal)
	}
	p.session.SetNodes(body, nodes)
	return scope.Node{Kind: scope.NodeForLoop, Goal: goal, IterName: iter, Body: body, Fileflags: *p.flags}, rest
}

// parseIf handles `[i EXPR]…[/]` and `[i EXPR]…[e]…[/]`.
func (p *parser) parseIf(parent scope.ObjectID, tagData bytewindow.Window, after bytewindow.Window) (scope.Node, bytewindow.Window) {
	cond := p.compileEvals(tagData.String())

	mainBody := p.session.NewVirtual(parent)
	mainNodes, reason, rest := p.parseBody(mainBody, after)
	p.session.SetNodes(mainBody, mainNodes)

	node := scope.Node{Kind: scope.NodeIfStatement, Cond: cond, Main: mainBody, Fileflags: *p.flags}
	if reason == exitSawE {
		elseBody := p.session.NewVirtual(parent)
		elseNodes, reason2, rest2 := p.parseBody(elseBody, rest)
		if reason2 == exitEOF {
			log.Printf("parser: if-statement else branch never closed with [/]")
		}
		p.session.SetNodes(elseBody, elseNodes)
		node.Else = elseBody
		node.HasElse = true
		rest = rest2
	} else if reason == exitEOF {
		log.Printf("parser: if-statement never closed with [/]")
	}
	return node, rest
}

// parseRedirector handles `[> expr]…[/]`.
func (p *parser) parseRedirector(parent scope.ObjectID, tagData bytewindow.Window, after bytewindow.Window) (scope.Node, bytewindow.Window) {
	cond := p.compileEvals(tagData.String())
	body := p.session.NewVirtual(parent)
	nodes, reason, rest := p.parseBody(body, after)
	if reason == exitEOF {
		log.Printf("parser: redirector body never closed with [/]")
	}
	p.session.SetNodes(body, nodes)
	return scope.Node{Kind: scope.NodeRedirector, CondExpr: cond, RBody: body, Fileflags: *p.flags}, rest
}

// applyFileflag handles `[@ on|off minify|markdown]`, mutating the
// shared fileflags the rest of this file's parse will see.
func (p *parser) applyFileflag(tagData bytewindow.Window) {
	nameWin, stateWin, hasName := tagData.Consume(' ', true)
	if !hasName {
		log.Printf("parser: malformed [@ ...] directive")
		return
	}
	state := stateWin.String()
	name := nameWin.Trim().String()
	if state != "on" && state != "off" {
		log.Printf("parser: [@ %s %s] has unrecognised state, want on/off", state, name)
		return
	}
	*p.flags = p.flags.Apply(name, state == "on")
}

// warnUnescapedBrackets logs spec.md §7's "Unmatched `]` outside an
// escape" diagnostic for every stray `]` found in a run of plain text.
// Informational only; it never changes what gets rendered.
func warnUnescapedBrackets(w bytewindow.Window) {
	escaping := false
	for i := 0; i < w.Len(); i++ {
		b := byte(w.Peek(i))
		if escaping {
			escaping = false
			continue
		}
		if b == '\\' {
			escaping = true
			continue
		}
		if b == ']' {
			log.Printf("parser: unmatched ] outside an escape")
		}
	}
}
