// Package fileflags carries the per-file boolean flags that the parser
// and render pipeline consult to decide whether to run the markdown
// expander, the whitespace minifier, and the escape-stripping stage
// (spec.md §4.2, §4.4 `[@ on|off minify|markdown]`).
//
// A small value type copied by value, not a pointer-shared struct, so
// mutating a node's flags mid-parse never leaks into a sibling's.
package fileflags

// Flags are propagated from the file header to every Node parsed from
// that file (spec.md: "Node.fileflags: inherited from the file where
// the node was parsed"), and mutated at parse time by `[@ on|off ...]`.
type Flags struct {
	Minify   bool
	Markdown bool

	// Sitix controls whether the escape-stripping writer stage runs.
	// Per spec.md Open Questions: files whose header is neither `[!]`
	// nor `[?]` get this turned off, since they were copied verbatim
	// and never passed through the directive parser — there's nothing
	// to unescape.
	Sitix bool
}

// ForTemplate returns the flags a freshly-parsed `[!]`/`[?]` file starts
// with: sitix escaping on, minify/markdown off until `[@ on ...]` says
// otherwise.
func ForTemplate() Flags {
	return Flags{Sitix: true}
}

// ForVerbatim returns the flags a non-template (copied-as-is) file
// carries: nothing active, per the Open Question resolution above.
func ForVerbatim() Flags {
	return Flags{}
}

// Apply mutates the flags in response to an `[@ on|off NAME]` directive
// parsed at parse time (spec.md §4.4). An unknown name leaves the flags
// unchanged; no warning is emitted for it.
func (f Flags) Apply(name string, on bool) Flags {
	switch name {
	case "minify":
		f.Minify = on
	case "markdown":
		f.Markdown = on
	case "sitix":
		f.Sitix = on
	}
	return f
}
