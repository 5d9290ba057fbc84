// Package bytewindow implements a reference-counted window over an
// immutable byte buffer, used by the directive parser and the Object
// graph to refer to spans of source files without copying them.
//
// The shape mirrors how the teacher (internal/graph.Node.Data /
// ContentRef) separates "owns bytes" from "refers to bytes elsewhere":
// a Window never copies the backing buffer, only the (start, end)
// range into it, and the buffer's lifetime is governed by a refcount
// so the last Window to drop releases it.
package bytewindow

import (
	"strings"
	"sync/atomic"
)

// EOF is returned by Peek when the logical offset falls outside the window.
const EOF = -1

// buffer is the shared, immutable backing store. refs tracks how many
// live Windows still reference it; Release decrements and the caller
// drops the buffer contents when it hits zero (Go's GC collects the
// slice then; refs exists to mirror the spec's reference-counted
// discipline and to let callers detect a bad refcount defensively,
// per spec.md §7 "Bad reference count").
type buffer struct {
	data []byte
	refs int64
}

func newBuffer(data []byte) *buffer {
	return &buffer{data: data, refs: 1}
}

func (b *buffer) retain() *buffer {
	atomic.AddInt64(&b.refs, 1)
	return b
}

// release drops one reference. It returns an error-ish bool (false) if
// the refcount underflows below zero, which the spec calls out as an
// implementation bug that should be surfaced, not silently ignored.
func (b *buffer) release() bool {
	n := atomic.AddInt64(&b.refs, -1)
	return n >= 0
}

// Window is a cheap, copyable handle into a shared buffer. The zero
// Window is not valid; use New to construct one.
type Window struct {
	buf   *buffer
	start int
	end   int

	// escaping is not read or written by any method; Consume tracks its
	// escape state in a local variable.
	escaping bool
}

// New wraps data in a fresh, singly-referenced Window spanning it whole.
func New(data []byte) Window {
	return Window{buf: newBuffer(data), start: 0, end: len(data)}
}

// Retain returns a new Window sharing the same backing buffer, bumping
// its refcount. Used whenever a Window is duplicated into a longer-lived
// structure (e.g. stored in a parsed Node).
func (w Window) Retain() Window {
	if w.buf == nil {
		return w
	}
	w.buf.retain()
	return w
}

// Release drops this Window's hold on the backing buffer. Safe to call
// on a zero Window. Returns false if the buffer's refcount underflowed,
// which indicates a double-release bug upstream.
func (w Window) Release() bool {
	if w.buf == nil {
		return true
	}
	return w.buf.release()
}

// Len reports the number of bytes remaining in the window.
func (w Window) Len() int {
	if w.end < w.start {
		return 0
	}
	return w.end - w.start
}

// Empty reports whether the window has no bytes left.
func (w Window) Empty() bool { return w.Len() == 0 }

// Peek returns the byte at logical offset i without consuming it.
// Negative indices wrap modulo the window length (peek(-1) is the last
// byte). Returns EOF if the window is empty or i is out of range after
// wrapping.
func (w Window) Peek(i int) int {
	n := w.Len()
	if n == 0 {
		return EOF
	}
	if i < 0 {
		i = ((i % n) + n) % n
	}
	if i >= n {
		return EOF
	}
	return int(w.buf.data[w.start+i])
}

// Advance moves the start of the window forward by n bytes (clamped to
// the window's length).
func (w Window) Advance(n int) Window {
	if n < 0 {
		n = 0
	}
	if n > w.Len() {
		n = w.Len()
	}
	w.start += n
	return w
}

// PopBack moves the end of the window backward by one byte and returns
// the byte that was popped, plus the shrunk window. Returns EOF if the
// window was already empty.
func (w Window) PopBack() (Window, int) {
	if w.Empty() {
		return w, EOF
	}
	b := w.buf.data[w.end-1]
	w.end--
	return w, int(b)
}

// Slice returns a sub-window starting at logical offset `from` with
// length `length`, clamped to the current window's bounds.
func (w Window) Slice(from, length int) Window {
	if from < 0 {
		from = 0
	}
	if from > w.Len() {
		from = w.Len()
	}
	end := from + length
	if end > w.Len() {
		end = w.Len()
	}
	return Window{buf: w.buf, start: w.start + from, end: w.start + end}
}

// Trim advances the start of the window past any ASCII whitespace.
func (w Window) Trim() Window {
	for {
		b := w.Peek(0)
		if b == EOF || !isASCIISpace(byte(b)) {
			return w
		}
		w = w.Advance(1)
	}
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// StartsWith reports whether the window begins with the given literal
// byte sequence.
func (w Window) StartsWith(s string) bool {
	if w.Len() < len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if byte(w.Peek(i)) != s[i] {
			return false
		}
	}
	return true
}

// String materialises an owned copy of the window's contents.
func (w Window) String() string {
	if w.buf == nil {
		return ""
	}
	return string(w.buf.data[w.start:w.end])
}

// Bytes returns the raw byte slice underlying the window. Callers must
// not mutate it — it is shared with every other Window over the same
// buffer.
func (w Window) Bytes() []byte {
	if w.buf == nil {
		return nil
	}
	return w.buf.data[w.start:w.end]
}

// Equal compares two windows by length then byte contents.
func (w Window) Equal(o Window) bool {
	if w.Len() != o.Len() {
		return false
	}
	return string(w.Bytes()) == string(o.Bytes())
}

// Consume advances the window until it meets an `until` byte that is
// not itself escaped (preceded by an unconsumed backslash), and returns
// a sibling window covering the consumed span (not including the
// terminator). The terminator, if found, is also consumed from the
// receiver. If `until` is never found, the whole remainder is consumed
// and `found` is false.
//
// When doesEscape is true, a literal `\` toggles an internal escape
// state and the following byte is treated as literal (it can never
// itself terminate the span, even if it equals `until`).
func (w Window) Consume(until byte, doesEscape bool) (rest Window, consumed Window, found bool) {
	start := w.start
	i := w.start
	escaping := false
	for i < w.end {
		b := w.buf.data[i]
		if escaping {
			escaping = false
			i++
			continue
		}
		if doesEscape && b == '\\' {
			escaping = true
			i++
			continue
		}
		if b == until {
			consumed = Window{buf: w.buf, start: start, end: i}
			rest = Window{buf: w.buf, start: i + 1, end: w.end}
			return rest, consumed, true
		}
		i++
	}
	consumed = Window{buf: w.buf, start: start, end: w.end}
	rest = Window{buf: w.buf, start: w.end, end: w.end}
	return rest, consumed, false
}

// Unescape returns a copy of s with every `\X` replaced by the literal
// byte X. Used for unescaping directive names (e.g. `\.` inside a
// dotted lookup path per spec.md §4.3).
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaping := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaping {
			b.WriteByte(c)
			escaping = false
			continue
		}
		if c == '\\' {
			escaping = true
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
