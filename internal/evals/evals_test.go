package evals

import "testing"

type nilResolver struct{}

func (nilResolver) Resolve(name string) (Object, bool) { return nil, false }

func runSrc(t *testing.T, src string) Value {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	v, err := Run(prog, nilResolver{})
	if err != nil {
		t.Fatalf("Run(%q) error: %v", src, err)
	}
	return v
}

func TestCopyEquals(t *testing.T) {
	v := runSrc(t, `3.14 copy equals`)
	if !v.Truthy() || v.Kind() != KindBoolean {
		t.Fatalf("copy equals = %v, want true", v)
	}
}

func TestNotNotPreservesTruthiness(t *testing.T) {
	v := runSrc(t, `true not not`)
	if !v.Truthy() {
		t.Fatalf("true not not = %v, want truthy", v)
	}
	v = runSrc(t, `false not not`)
	if v.Truthy() {
		t.Fatalf("false not not = %v, want falsy", v)
	}
}

func TestConcat(t *testing.T) {
	v := runSrc(t, `"a" "b" concat`)
	if v.ToString() != "ab" {
		t.Fatalf("concat = %q, want \"ab\"", v.ToString())
	}
}

func TestStripFname(t *testing.T) {
	v := runSrc(t, `"foo/bar.baz" strip_fname`)
	if v.ToString() != "bar" {
		t.Fatalf("strip_fname = %q, want \"bar\"", v.ToString())
	}
}

func TestFilenameify(t *testing.T) {
	v := runSrc(t, `"Hello World!" filenameify`)
	if v.ToString() != "hello-world-" {
		t.Fatalf("filenameify = %q, want \"hello-world-\"", v.ToString())
	}
}

func TestTrim(t *testing.T) {
	v := runSrc(t, `"  x  " trim`)
	if v.ToString() != "x" {
		t.Fatalf("trim = %q, want \"x\"", v.ToString())
	}
}

func TestNumberToString(t *testing.T) {
	v := runSrc(t, `3.14`)
	if got := v.ToString(); got != "3.14" {
		t.Fatalf("ToString = %q, want %q", got, "3.14")
	}
}

func TestSwap(t *testing.T) {
	v := runSrc(t, `"a" "b" swap concat`)
	if v.ToString() != "ba" {
		t.Fatalf("swap concat = %q, want \"ba\"", v.ToString())
	}
}

func TestSliceLeftEitherOperandOrder(t *testing.T) {
	a := runSrc(t, `"abcdef" 3 slice_left`)
	b := runSrc(t, `3 "abcdef" slice_left`)
	if a.ToString() != b.ToString() {
		t.Fatalf("slice_left operand order mismatch: %q vs %q", a.ToString(), b.ToString())
	}
	if a.ToString() != "abc" {
		t.Fatalf("slice_left = %q, want \"abc\"", a.ToString())
	}
}

func TestSliceRightInc(t *testing.T) {
	v := runSrc(t, `"abcdef" 3 slice_right_inc`)
	if v.ToString() != "def" {
		t.Fatalf("slice_right_inc = %q, want \"def\"", v.ToString())
	}
}

func TestCallFunctionLiteral(t *testing.T) {
	v := runSrc(t, `("a" "b" concat) call`)
	if v.ToString() != "ab" {
		t.Fatalf("call = %q, want \"ab\"", v.ToString())
	}
}

func TestFunctionNeverEqual(t *testing.T) {
	prog, err := Parse(`("x") copy equals`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	v, err := Run(prog, nilResolver{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if v.Truthy() {
		t.Fatalf("function copy equals = %v, want false (functions never equal)", v)
	}
}

func TestBadProgramLeavesExtraValues(t *testing.T) {
	prog, err := Parse(`"a" "b"`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Run(prog, nilResolver{})
	if err == nil {
		t.Fatalf("Run with 2 leftover values should error")
	}
}
