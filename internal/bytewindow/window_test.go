package bytewindow

import "testing"

func TestPeekWrap(t *testing.T) {
	w := New([]byte("abc"))
	if w.Peek(0) != 'a' {
		t.Fatalf("peek(0) = %c", w.Peek(0))
	}
	if w.Peek(-1) != 'c' {
		t.Fatalf("peek(-1) = %c", w.Peek(-1))
	}
	if w.Peek(-2) != 'b' {
		t.Fatalf("peek(-2) = %c", w.Peek(-2))
	}
}

func TestPeekEOF(t *testing.T) {
	w := New(nil)
	if w.Peek(0) != EOF {
		t.Fatalf("expected EOF on empty window")
	}
}

func TestAdvanceAndPopBack(t *testing.T) {
	w := New([]byte("hello"))
	w = w.Advance(2)
	if w.String() != "llo" {
		t.Fatalf("advance: got %q", w.String())
	}
	w, b := w.PopBack()
	if b != 'o' || w.String() != "ll" {
		t.Fatalf("popback: got %q byte %c", w.String(), b)
	}
}

func TestConsumeUnescaped(t *testing.T) {
	w := New([]byte(`foo\]bar]rest`))
	rest, consumed, found := w.Consume(']', true)
	if !found {
		t.Fatalf("expected terminator found")
	}
	if consumed.String() != `foo\]bar` {
		t.Fatalf("consumed = %q", consumed.String())
	}
	if rest.String() != "rest" {
		t.Fatalf("rest = %q", rest.String())
	}
}

func TestConsumeNoEscape(t *testing.T) {
	w := New([]byte(`a.b.c`))
	rest, consumed, found := w.Consume('.', false)
	if !found || consumed.String() != "a" || rest.String() != "b.c" {
		t.Fatalf("got consumed=%q rest=%q found=%v", consumed.String(), rest.String(), found)
	}
}

func TestTrim(t *testing.T) {
	w := New([]byte("   \t x"))
	if w.Trim().String() != "x" {
		t.Fatalf("trim: got %q", w.Trim().String())
	}
}

func TestStartsWith(t *testing.T) {
	w := New([]byte("[!]hello"))
	if !w.StartsWith("[!]") {
		t.Fatalf("expected prefix match")
	}
	if w.StartsWith("[?]") {
		t.Fatalf("unexpected prefix match")
	}
}

func TestEqual(t *testing.T) {
	a := New([]byte("abc"))
	b := New([]byte("abc"))
	if !a.Equal(b) {
		t.Fatalf("expected equal windows")
	}
	c := New([]byte("abcd"))
	if a.Equal(c) {
		t.Fatalf("expected unequal windows (length)")
	}
}

func TestUnescapeDot(t *testing.T) {
	if got := Unescape(`a\.b`); got != "a.b" {
		t.Fatalf("unescape: got %q", got)
	}
}

func TestRetainRelease(t *testing.T) {
	w := New([]byte("x"))
	w2 := w.Retain()
	if !w.Release() {
		t.Fatalf("first release should not underflow")
	}
	if !w2.Release() {
		t.Fatalf("second release should not underflow")
	}
}
