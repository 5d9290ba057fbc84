package scope

import (
	"fmt"
	"log"

	"github.com/sitix-run/sitix/internal/evals"
	"github.com/sitix-run/sitix/internal/pathutil"
	"github.com/sitix-run/sitix/internal/render"
	"github.com/sitix-run/sitix/internal/store"
)

// objectAdapter lets a scope.Object stand in as an evals.Object:
// stringify it through EvalString, compare it by its deghosted identity
// (spec.md §4.5: "SitixVariable equal when deghosted pointers match").
type objectAdapter struct {
	session *Session
	id      ObjectID
}

func (o objectAdapter) EvalString() (string, error) { return o.session.EvalString(o.id) }
func (o objectAdapter) Identity() any               { return o.session.Deghost(o.id) }

// evalResolver implements evals.Resolver for a Program evaluated while
// rendering scope: it resolves bare identifiers "parent first, then
// scope" — the literal order spec.md §4.5 gives for Evals variable
// references, which is the reverse of Dereference's own "scope first,
// then parent" (spec.md §4.3). The inconsistency is in the source
// spec, not a bug here: see evals.Resolver's doc comment.
type evalResolver struct {
	session *Session
	scope   ObjectID
}

func (r evalResolver) Resolve(name string) (evals.Object, bool) {
	if parent := r.session.Get(r.scope).parent; parent != NoObject {
		if id, err := r.session.Lookup(parent, name, NoObject); err == nil {
			return objectAdapter{r.session, id}, true
		}
	}
	if id, err := r.session.Lookup(r.scope, name, NoObject); err == nil {
		return objectAdapter{r.session, id}, true
	}
	return nil, false
}

// EvalString renders id in dereference mode through an in-memory
// writer pipeline using its nearest containing file's fileflags, the
// way a SitixVariable value stringifies itself (spec.md §4.5).
func (s *Session) EvalString(id ObjectID) (string, error) {
	flags := s.Get(s.Deghost(id)).fileflags
	if file := s.nearestFile(id); file != NoObject {
		flags = s.Get(file).fileflags
	}
	sink := render.NewStringSink(flags)
	if err := s.Render(id, sink, nil, true); err != nil {
		return "", err
	}
	return sink.String()
}

// Render walks id per spec.md §4.3 "Rendering an Object":
//  1. If ghosting, forward to the ghost.
//  2. If Named and not in dereference mode and virile, attempt
//     replacement.
//  3. If not in dereference mode, return (Objects are silent by
//     default).
//  4. Otherwise render each render-node in source order.
//
// out is the output store RedirectorStatement writes through; it may
// be nil when rendering only needs a captured string (EvalString),
// in which case a RedirectorStatement encountered mid-render is
// reported and skipped rather than attempted.
func (s *Session) Render(id ObjectID, w render.Sink, out store.OutputStore, dereference bool) error {
	obj := s.Get(id)
	if obj.ghost != NoObject {
		return s.Render(obj.ghost, w, out, dereference)
	}
	if obj.kind == KindNamed && !dereference && obj.virile {
		if _, err := s.Replace(id); err != nil {
			return err
		}
	}
	if !dereference {
		return nil
	}
	for _, node := range obj.nodes {
		if err := s.renderNode(node, id, w, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) renderNode(node Node, scope ObjectID, w render.Sink, out store.OutputStore) error {
	switch node.Kind {
	case NodePlainText:
		_, err := w.Write(node.PlainText.Bytes())
		return err
	case NodeTextBlob:
		_, err := w.Write([]byte(node.TextBlob))
		return err
	case NodeObject:
		return s.Render(node.Object, w, out, false)
	case NodeForLoop:
		return s.renderForLoop(node, scope, w, out)
	case NodeIfStatement:
		return s.renderIfStatement(node, scope, w, out)
	case NodeDereference:
		return s.renderDereference(node, scope, w, out)
	case NodeCopier:
		return s.renderCopier(node, scope)
	case NodeRedirector:
		return s.renderRedirector(node, scope, out)
	case NodeEvalsBlob:
		v, err := evals.Run(node.Program, evalResolver{s, scope})
		if err != nil {
			log.Printf("scope: evals error in %q: %v", node.Program.Source, err)
		}
		_, werr := w.Write([]byte(v.ToString()))
		return werr
	case NodeDebugger:
		s.dumpScope(scope, 0)
		return nil
	}
	return fmt.Errorf("scope: unknown node kind %d", node.Kind)
}

func (s *Session) renderForLoop(node Node, scope ObjectID, w render.Sink, out store.OutputStore) error {
	goalID, err := s.Lookup(scope, node.Goal, NoObject)
	if err != nil {
		log.Printf("scope: for-loop goal %q not found: %v", node.Goal, err)
		return nil
	}
	goal := s.Get(s.Deghost(goalID))

	body := s.Get(node.Body)
	binding, ok := s.scanNamed(body, node.IterName, NoObject)
	if !ok {
		binding = s.NewNamed(node.Body, node.IterName)
		s.Get(binding).virile = false
	}

	for _, cid := range goal.children {
		c := s.Get(cid)
		if c.kind != KindEnumerated {
			continue
		}
		if err := s.InstallGhost(binding, cid); err != nil {
			log.Printf("scope: for-loop binding %q: %v", node.IterName, err)
			continue
		}
		for _, n := range body.nodes {
			if err := s.renderNode(n, node.Body, w, out); err != nil {
				return err
			}
		}
		s.Get(binding).ghost = NoObject
	}
	return nil
}

func (s *Session) renderIfStatement(node Node, scope ObjectID, w render.Sink, out store.OutputStore) error {
	v, err := evals.Run(node.Cond, evalResolver{s, scope})
	if err != nil {
		log.Printf("scope: if-condition error: %v", err)
	}
	if v.Truthy() {
		return s.Render(node.Main, w, out, true)
	}
	if node.HasElse {
		return s.Render(node.Else, w, out, true)
	}
	return nil
}

// renderDereference implements spec.md §4.3's Dereference node: resolve
// name scope-first-then-parent (Lookup starting at scope itself already
// has that order built in, since it only escalates to parent after
// exhausting scope); if the result is a file, copy its virile Named
// children into the caller's scope by ghost before rendering it.
func (s *Session) renderDereference(node Node, scope ObjectID, w render.Sink, out store.OutputStore) error {
	target, err := s.Lookup(scope, node.DerefName, NoObject)
	if err != nil {
		log.Printf("scope: dereference %q not found: %v", node.DerefName, err)
		return nil
	}
	resolved := s.Deghost(target)
	obj := s.Get(resolved)
	if obj.isFile {
		for _, cid := range obj.children {
			c := s.Get(cid)
			if c.kind == KindNamed && c.virile {
				if err := s.copyIntoScope(scope, c.name, cid); err != nil {
					log.Printf("scope: copying %q into scope: %v", c.name, err)
				}
			}
		}
	}
	return s.Render(resolved, w, out, true)
}

// copyIntoScope installs a ghost named `name` under scope pointing at
// source, replacing an existing same-named slot rather than shadowing
// it (spec.md §4.3 Dereference: "replacing if a slot exists").
func (s *Session) copyIntoScope(scope ObjectID, name string, source ObjectID) error {
	if existing, ok := s.scanNamed(s.Get(scope), name, NoObject); ok {
		return s.InstallGhost(existing, source)
	}
	id := s.NewNamed(scope, name)
	s.Get(id).virile = false
	return s.InstallGhost(id, source)
}

func (s *Session) renderCopier(node Node, scope ObjectID) error {
	target, err := s.Lookup(scope, node.CopyTarget, NoObject)
	if err != nil {
		target = s.NewNamed(scope, node.CopyTarget)
		s.Get(target).virile = false
	}
	source, err := s.Lookup(scope, node.CopySource, NoObject)
	if err != nil {
		log.Printf("scope: copier source %q not found: %v", node.CopySource, err)
		return nil
	}
	if err := s.InstallGhost(target, source); err != nil {
		log.Printf("scope: copier %q -> %q: %v", node.CopyTarget, node.CopySource, err)
	}
	return nil
}

func (s *Session) renderRedirector(node Node, scope ObjectID, out store.OutputStore) error {
	v, err := evals.Run(node.CondExpr, evalResolver{s, scope})
	if err != nil {
		log.Printf("scope: redirector path expression error: %v", err)
		return nil
	}
	path := pathutil.Transmute(v.ToString())
	if out == nil {
		log.Printf("scope: redirector to %q skipped: no output store in this render context", path)
		return nil
	}
	sink, err := out.Create(path)
	if err != nil {
		return fmt.Errorf("scope: redirector create %q: %w", path, err)
	}
	flags := s.Get(node.RBody).fileflags
	if file := s.nearestFile(scope); file != NoObject {
		flags = s.Get(file).fileflags
	}
	w := render.NewSink(sink, flags)
	if err := s.Render(node.RBody, w, out, true); err != nil {
		_ = w.Close()
		_ = sink.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return sink.Close()
}

// BuildFile (re)materialises relPath and, unless it is a `[?]`
// template-only file (spec.md §6: "parse but do not render"),
// dereference-renders it to out at its input-root-relative path. This
// is the driver's per-file hook for both the initial full pass and a
// watch-loop re-render (spec.md §4.7).
func (s *Session) BuildFile(relPath string, out store.OutputStore) error {
	if data, err := s.source.Open(relPath); err == nil && len(data) == 0 {
		log.Printf("scope: %q is empty, skipping", relPath)
		return nil
	}

	id, err := s.materialiseFile(relPath)
	if err != nil {
		return err
	}
	obj := s.Get(id)
	if obj.isTemplate {
		return nil
	}

	sink, err := out.Create(pathutil.Transmute(relPath))
	if err != nil {
		return fmt.Errorf("scope: create output for %q: %w", relPath, err)
	}
	w := render.NewSink(sink, obj.fileflags)

	// Rendering relPath, not just parsing it, is what actually triggers
	// most lazy materialisation (a for-loop over a directory, a
	// Dereference, a Copier), so currentFile must stay set to relPath
	// for the render call too, or those dependency edges (spec.md §4.7)
	// never get recorded.
	prevFile := s.currentFile
	s.currentFile = relPath
	renderErr := s.Render(id, w, out, true)
	s.currentFile = prevFile
	if err := renderErr; err != nil {
		_ = w.Close()
		_ = sink.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return sink.Close()
}

func (s *Session) dumpScope(id ObjectID, depth int) {
	obj := s.Get(id)
	name := obj.name
	switch obj.kind {
	case KindEnumerated:
		name = fmt.Sprintf("[%d]", obj.number)
	case KindVirtual:
		name = "<virtual>"
	}
	log.Printf("%*sobject %s (file=%v template=%v virile=%v)", depth*2, "", name, obj.isFile, obj.isTemplate, obj.virile)
	for _, cid := range obj.children {
		s.dumpScope(cid, depth+1)
	}
}
