package evals

import "fmt"

// VM executes a compiled Program against a stack of Values. A VM is not
// safe for concurrent use, matching spec.md §5's single-threaded
// rendering model.
type VM struct {
	stack    []Value
	resolver Resolver
}

// Run executes program against resolver (used to look up bare
// identifiers that aren't operation names) and returns the single
// remaining value, or Error plus a diagnostic if the stack doesn't end
// with exactly one value (spec.md §4.5, §7: "Bad Evals program: final
// stack size != 1").
func Run(program *Program, resolver Resolver) (Value, error) {
	vm := &VM{resolver: resolver}
	if err := vm.exec(program.Instructions); err != nil {
		return Err(), err
	}
	if len(vm.stack) != 1 {
		return Err(), fmt.Errorf("evals: program left %d values on the stack, expected 1", len(vm.stack))
	}
	return vm.stack[0], nil
}

func (vm *VM) exec(instrs []Instruction) error {
	for _, instr := range instrs {
		switch instr.kind {
		case opPushLiteral:
			vm.push(instr.literal)
		case opPushFunction:
			vm.push(Func(instr.fn))
		case opPushVar:
			// An unresolved bare word pushes a SitixVariable wrapping
			// nil, not an Error: it stringifies to "" and is falsy, but
			// it is not the same thing as a malformed program (spec.md
			// §4.5's Error is reserved for operations run with the
			// wrong operand types or arity).
			var obj Object
			if vm.resolver != nil {
				obj, _ = vm.resolver.Resolve(instr.name)
			}
			vm.push(Variable(obj))
		case opCall:
			fn, ok := operations[instr.name]
			if !ok {
				return fmt.Errorf("evals: unknown operation %q", instr.name)
			}
			if err := fn(vm); err != nil {
				vm.push(Err())
			}
		}
	}
	return nil
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (Value, bool) {
	n := len(vm.stack)
	if n == 0 {
		return Value{}, false
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, true
}

// popTwo pops the top two values, returning (second-from-top, top) —
// i.e. the order they were pushed in, matching how binary operations
// describe "second+top" in spec.md (e.g. concat).
func (vm *VM) popTwo() (a, b Value, ok bool) {
	top, ok1 := vm.pop()
	second, ok2 := vm.pop()
	if !ok1 || !ok2 {
		return Value{}, Value{}, false
	}
	return second, top, true
}

// popTypedPair pops the top two values and sorts them into (string,
// number) regardless of push order, implementing the "atop" search
// spec.md §4.5 describes for binary operations like Slicer: "they may
// skip up to one stack slot looking for a required type, so both
// `\"abc\" 3 slice_left` and `3 \"abc\" slice_left` work."
func (vm *VM) popTypedPair() (s string, n float64, ok bool) {
	a, b, ok := vm.popTwo()
	if !ok {
		return "", 0, false
	}
	switch {
	case a.Kind() == KindNumber:
		return b.ToString(), a.Number(), true
	case b.Kind() == KindNumber:
		return a.ToString(), b.Number(), true
	default:
		return "", 0, false
	}
}

// Call executes fn as a nested program sharing this VM's resolver, used
// by the `call` operation (spec.md §4.5: "pop a Function, execute it").
func (vm *VM) Call(fn *Program) (Value, error) {
	return Run(fn, vm.resolver)
}

// Exec runs program to completion with resolver, used by callers (e.g.
// IfStatement, RedirectorStatement) that only need the final value and
// don't care about VM internals.
func Exec(program *Program, resolver Resolver) (Value, error) {
	return Run(program, resolver)
}
