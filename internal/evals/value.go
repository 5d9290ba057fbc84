// Package evals implements the small postfix stack language used
// inside `[v …]`, `[i …]`, and `[> …]` directives (spec.md §4.5) for
// string manipulation: literals, scope-variable references, and a
// fixed set of built-in operations over a value stack.
//
// The package never imports the scope/Object graph directly — a
// SitixVariable value is anything satisfying the small Object
// interface below — to avoid an import cycle (scope evaluates Evals
// programs for IfStatement/RedirectorStatement conditions, and Evals
// needs to stringify/compare Objects). This mirrors how the teacher
// keeps internal/ingest.Walker/Match generic over "tree-sitter node or
// JSON value" instead of importing a concrete AST type.
package evals

import (
	"fmt"
	"strconv"
)

// Kind discriminates the dynamic type of a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBoolean
	KindError
	KindVariable
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindError:
		return "error"
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Object is the minimal contract an Evals SitixVariable value needs
// from the Object graph: stringify it by rendering in dereference mode,
// and compare it by a stable identity (the deghosted pointer).
type Object interface {
	// EvalString renders the object in dereference mode to a string,
	// the same path `[^name]` would take, but capturing the output
	// instead of writing it to the active sink.
	EvalString() (string, error)
	// Identity returns a value that is == comparable and stable across
	// ghost redirection — two Objects are "the same" for evals equality
	// purposes when their (deghosted) identities match.
	Identity() any
}

// Value is a tagged union over the six dynamic types Evals programs can
// produce, matching spec.md §4.5 exactly: Number(f64), String(string),
// Boolean(bool), Error, SitixVariable(Object), Function(program).
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	obj  Object
	fn   *Program
}

func Number(n float64) Value  { return Value{kind: KindNumber, num: n} }
func String(s string) Value   { return Value{kind: KindString, str: s} }
func Boolean(b bool) Value    { return Value{kind: KindBoolean, b: b} }
func Variable(o Object) Value { return Value{kind: KindVariable, obj: o} }
func Func(p *Program) Value   { return Value{kind: KindFunction, fn: p} }

// Err constructs the Error value. Stringifying it yields the literal
// "[ ERROR ]" per spec.md §7, which is how a failed Evals sub-expression
// makes itself visible in rendered output.
func Err() Value { return Value{kind: KindError} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Number() float64 { return v.num }
func (v Value) Str() string     { return v.str }
func (v Value) Bool() bool      { return v.b }
func (v Value) Object() Object  { return v.obj }
func (v Value) Function() *Program {
	return v.fn
}

// ToString implements spec.md §4.5's value-semantics table.
func (v Value) ToString() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	case KindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case KindError:
		return "[ ERROR ]"
	case KindVariable:
		if v.obj == nil {
			return ""
		}
		s, err := v.obj.EvalString()
		if err != nil {
			return "[ ERROR ]"
		}
		return s
	case KindFunction:
		return "[ FUNCTION ]"
	}
	return ""
}

func formatNumber(n float64) string {
	// Matches the original C++'s "shortest round-tripping decimal"
	// behaviour closely enough for the spec's examples (3.14 -> "3.14"):
	// trim trailing zeros after the decimal point, but never print a
	// bare ".".
	s := strconv.FormatFloat(n, 'f', -1, 64)
	return s
}

// Truthy implements spec.md §4.5's truthiness table.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindBoolean:
		return v.b
	case KindError:
		return false
	case KindVariable:
		return v.obj != nil
	case KindFunction:
		return true
	}
	return false
}

// Equals implements spec.md §4.5's or-equal comparison rules:
//   - String compares stringwise against any value's ToString.
//   - Number/Boolean equal when same type and equal content.
//   - SitixVariable equal when deghosted identities match, else when
//     stringified forms match.
//   - Function never equal (even to itself).
func (v Value) Equals(o Value) bool {
	if v.kind == KindFunction || o.kind == KindFunction {
		return false
	}
	if v.kind == KindString || o.kind == KindString {
		return v.ToString() == o.ToString()
	}
	if v.kind == KindVariable && o.kind == KindVariable {
		if v.obj != nil && o.obj != nil && v.obj.Identity() == o.obj.Identity() {
			return true
		}
		return v.ToString() == o.ToString()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.b == o.b
	case KindVariable:
		return v.ToString() == o.ToString()
	case KindError:
		return false
	}
	return false
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.ToString())
}
