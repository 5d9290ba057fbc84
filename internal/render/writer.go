// Package render implements the output writer pipeline spec.md §4.2
// describes: a sink stack performing Sitix-Markdown expansion,
// whitespace minification, and escape-stripping, each independently
// togglable via fileflags. Grounded on the teacher's layered-writer
// style in internal/graph/arena_writer.go (a small io.Writer wrapping
// another io.Writer, each stage doing one transformation before
// forwarding to the next).
package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/sitix-run/sitix/internal/fileflags"
)

// bufferSize matches spec.md §4.2: "Output is buffered (4 KiB) before
// the underlying sink write."
const bufferSize = 4096

// Sink is a chainable output destination. Close flushes any buffering
// and must be called exactly once, at the end of a render.
type Sink interface {
	io.Writer
	io.Closer
}

// NewSink builds the writer pipeline for dst according to flags:
// markdown (highest precedence), then minification, then
// escape-stripping, matching the stage order in spec.md §4.2. Stages
// whose flag is false pass bytes through unchanged.
func NewSink(dst io.Writer, flags fileflags.Flags) Sink {
	buffered := &flushWriter{w: bufio.NewWriterSize(dst, bufferSize)}
	var s Sink = buffered
	if flags.Sitix {
		s = newEscapeStripper(s)
	}
	if flags.Minify {
		s = newMinifier(s)
	}
	if flags.Markdown {
		s = newMarkdownWriter(s)
	}
	return s
}

// flushWriter adapts a *bufio.Writer to Sink.
type flushWriter struct {
	w *bufio.Writer
}

func (f *flushWriter) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *flushWriter) Close() error                { return f.w.Flush() }

// StringSink renders into an in-memory buffer — used wherever a Value
// needs stringifying through the full writer pipeline (spec.md §4.2:
// "A string sink exists for in-memory rendering (used by
// SitixVariableObject::to_string)").
type StringSink struct {
	inner Sink
	buf   strings.Builder
}

// NewStringSink builds a writer pipeline that accumulates into an
// in-memory string instead of a destination io.Writer.
func NewStringSink(flags fileflags.Flags) *StringSink {
	s := &StringSink{}
	s.inner = NewSink(&s.buf, flags)
	return s
}

func (s *StringSink) Write(p []byte) (int, error) { return s.inner.Write(p) }

// String flushes the pipeline and returns the accumulated text. Only
// call once.
func (s *StringSink) String() (string, error) {
	if err := s.inner.Close(); err != nil {
		return "", err
	}
	return s.buf.String(), nil
}
