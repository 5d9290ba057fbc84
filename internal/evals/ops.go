package evals

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// opFunc implements one Evals built-in operation: pop its operands off
// vm's stack, push its result. Returning an error causes the VM to push
// a single Error value instead (spec.md §4.5: operations never panic
// the whole program, a bad operand just yields "[ ERROR ]" in place).
type opFunc func(vm *VM) error

// operations is the fixed, non-extensible set of Evals built-ins —
// "true"/"false" are literals handled directly by the parser and never
// appear here. Grounded on the teacher's internal/ingest op-table
// pattern (a name-to-function map built once at package init, not
// re-built per call).
var operations = map[string]opFunc{
	"equals":          opEquals,
	"not":             opNot,
	"concat":          opConcat,
	"copy":            opCopy,
	"count_back":      opCountBack,
	"slice_left":      opSliceLeft,
	"slice_left_inc":  opSliceLeftInc,
	"slice_right":     opSliceRight,
	"slice_right_inc": opSliceRightInc,
	"strip_fname":     opStripFname,
	"filenameify":     opFilenameify,
	"trim":            opTrim,
	"swap":            opSwap,
	"call":            opCallFunction,
	"json_path":       opJSONPath,
}

func opEquals(vm *VM) error {
	a, b, ok := vm.popTwo()
	if !ok {
		return fmt.Errorf("evals: equals needs two operands")
	}
	vm.push(Boolean(a.Equals(b)))
	return nil
}

func opNot(vm *VM) error {
	a, ok := vm.pop()
	if !ok {
		return fmt.Errorf("evals: not needs one operand")
	}
	vm.push(Boolean(!a.Truthy()))
	return nil
}

// opConcat pops the top two values and pushes their string forms joined
// in push order (spec.md §4.5: `"a" "b" concat` -> "ab").
func opConcat(vm *VM) error {
	a, b, ok := vm.popTwo()
	if !ok {
		return fmt.Errorf("evals: concat needs two operands")
	}
	vm.push(String(a.ToString() + b.ToString()))
	return nil
}

// opCopy duplicates the top value without popping it.
func opCopy(vm *VM) error {
	n := len(vm.stack)
	if n == 0 {
		return fmt.Errorf("evals: copy needs one operand")
	}
	vm.push(vm.stack[n-1])
	return nil
}

// opSwap exchanges the top two values.
func opSwap(vm *VM) error {
	a, b, ok := vm.popTwo()
	if !ok {
		return fmt.Errorf("evals: swap needs two operands")
	}
	vm.push(b)
	vm.push(a)
	return nil
}

// opCountBack pops two strings (order-independent: whichever is longer
// is the haystack) and pushes the largest inclusive-end index at which
// the shorter occurs as a substring of the longer, or -1 if it never
// occurs. That index is meant to be fed straight into a slice_* op, so
// a -1 "not found" wraps to the haystack's last index there rather than
// being treated as its own special case — the only sane reading of
// spec.md §4.5's "indices wrap mod larger string" note.
func opCountBack(vm *VM) error {
	a, b, ok := vm.popTwo()
	if !ok {
		return fmt.Errorf("evals: count_back needs two operands")
	}
	as, bs := a.ToString(), b.ToString()
	haystack, needle := as, bs
	if len(bs) > len(as) {
		haystack, needle = bs, as
	}
	idx := strings.LastIndex(haystack, needle)
	end := -1
	if idx >= 0 {
		end = idx + len(needle) - 1
	}
	vm.push(Number(float64(end)))
	return nil
}

func wrapIndex(n int, length int) int {
	if length == 0 {
		return 0
	}
	n %= length
	if n < 0 {
		n += length
	}
	return n
}

// opSliceLeft keeps everything up to (exclusive of) index n: s[:n].
func opSliceLeft(vm *VM) error {
	s, n, ok := vm.popTypedPair()
	if !ok {
		return fmt.Errorf("evals: slice_left needs a string and a number")
	}
	i := wrapIndex(int(n), len(s))
	vm.push(String(s[:i]))
	return nil
}

// opSliceLeftInc keeps everything up to and including index n: s[:n+1].
func opSliceLeftInc(vm *VM) error {
	s, n, ok := vm.popTypedPair()
	if !ok {
		return fmt.Errorf("evals: slice_left_inc needs a string and a number")
	}
	i := wrapIndex(int(n), len(s))
	if i+1 > len(s) {
		i = len(s) - 1
	}
	vm.push(String(s[:i+1]))
	return nil
}

// opSliceRight keeps everything after (exclusive of) index n: s[n+1:].
func opSliceRight(vm *VM) error {
	s, n, ok := vm.popTypedPair()
	if !ok {
		return fmt.Errorf("evals: slice_right needs a string and a number")
	}
	i := wrapIndex(int(n), len(s))
	if i+1 > len(s) {
		i = len(s) - 1
	}
	vm.push(String(s[i+1:]))
	return nil
}

// opSliceRightInc keeps index n itself and everything after: s[n:].
func opSliceRightInc(vm *VM) error {
	s, n, ok := vm.popTypedPair()
	if !ok {
		return fmt.Errorf("evals: slice_right_inc needs a string and a number")
	}
	i := wrapIndex(int(n), len(s))
	vm.push(String(s[i:]))
	return nil
}

// opStripFname implements the macro spec.md §4.5 describes as sugar for
// `copy "." count_back slice_left copy "/" count_back slice_right`:
// strip a trailing extension, then strip a leading directory.
// Implemented directly (rather than by literally re-entering the VM
// with that sub-program) so the wrap/not-found behaviour stays in one
// place with opCountBack and the slice ops.
func opStripFname(vm *VM) error {
	v, ok := vm.pop()
	if !ok {
		return fmt.Errorf("evals: strip_fname needs one operand")
	}
	s := v.ToString()

	extIdx := -1
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		extIdx = i
	}
	noExt := s[:wrapIndex(extIdx, len(s))]

	dirIdx := -1
	if i := strings.LastIndexByte(noExt, '/'); i >= 0 {
		dirIdx = i
	}
	start := wrapIndex(dirIdx, len(noExt))
	if dirIdx < 0 {
		vm.push(String(noExt))
		return nil
	}
	vm.push(String(noExt[start+1:]))
	return nil
}

// opFilenameify lowercases s and replaces every byte that isn't a
// lowercase letter, digit, '.', or '_' with '-' (spec.md §4.5 example:
// "Hello World!" -> "hello-world-").
func opFilenameify(vm *VM) error {
	v, ok := vm.pop()
	if !ok {
		return fmt.Errorf("evals: filenameify needs one operand")
	}
	s := strings.ToLower(v.ToString())
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('-')
		}
	}
	vm.push(String(b.String()))
	return nil
}

// opTrim strips leading and trailing ASCII whitespace.
func opTrim(vm *VM) error {
	v, ok := vm.pop()
	if !ok {
		return fmt.Errorf("evals: trim needs one operand")
	}
	vm.push(String(strings.TrimSpace(v.ToString())))
	return nil
}

// opCallFunction pops a Function value and executes it against the same
// resolver, pushing its single resulting value (spec.md §4.5: function
// literals are themselves zero-argument Evals programs).
func opCallFunction(vm *VM) error {
	v, ok := vm.pop()
	if !ok || v.Kind() != KindFunction {
		return fmt.Errorf("evals: call needs a function operand")
	}
	result, err := vm.Call(v.Function())
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// opJSONPath pops a JSONPath expression string and a SitixVariable (or
// string) document, and pushes the first match stringified — a
// supplemental operation wired to github.com/ohler55/ojg/jp so config
// Objects backed by structured data can be queried without a dedicated
// directive (SPEC_FULL.md §3 domain-stack wiring).
func opJSONPath(vm *VM) error {
	a, b, ok := vm.popTwo()
	if !ok {
		return fmt.Errorf("evals: json_path needs a document and a path expression")
	}
	doc, exprVal := a, b
	if exprVal.Kind() != KindString {
		doc, exprVal = b, a
	}
	if exprVal.Kind() != KindString {
		return fmt.Errorf("evals: json_path needs a string path expression")
	}
	expr, err := jp.ParseString(exprVal.ToString())
	if err != nil {
		return fmt.Errorf("evals: bad json_path expression: %w", err)
	}
	var text string
	if doc.Kind() == KindVariable && doc.Object() != nil {
		s, err := doc.Object().EvalString()
		if err != nil {
			return err
		}
		text = s
	} else {
		text = doc.ToString()
	}
	data, err := oj.ParseString(text)
	if err != nil {
		return fmt.Errorf("evals: json_path document is not JSON: %w", err)
	}
	results := expr.Get(data)
	if len(results) == 0 {
		vm.push(String(""))
		return nil
	}
	vm.push(String(fmt.Sprint(results[0])))
	return nil
}
