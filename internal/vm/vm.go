// Package vm executes bytecode on an operand stack with a flat global
// name environment. All operator semantics come from object.ApplyBinary
// and object.ApplyUnary, the same functions the interpreter uses, so the
// two strategies agree on every representable value.
package vm

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"ward/internal/bytecode"
	"ward/internal/object"
)

const stackLimit = 2048

type VM struct {
	stack    []object.Object
	globals  map[string]object.Object
	builtins map[string]object.Object
}

func New() *VM {
	return &VM{
		stack:   make([]object.Object, 0, 64),
		globals: map[string]object.Object{},
	}
}

// RegisterBuiltin installs a callable the bytecode can invoke through a
// plain call. Globals shadow builtins, same as in the interpreter.
func (v *VM) RegisterBuiltin(name string, value object.Object) {
	if v.builtins == nil {
		v.builtins = map[string]object.Object{}
	}
	v.builtins[name] = value
}

// Run executes a program and returns the final global bindings. The stack
// and globals are reset per invocation; nothing is shared across runs.
func (v *VM) Run(program *bytecode.Program) (map[string]object.Object, error) {
	v.stack = v.stack[:0]
	v.globals = map[string]object.Object{}
	ins := program.Instructions
	ip := 0
	for ip < len(ins) {
		op := bytecode.Opcode(ins[ip])
		switch op {
		case bytecode.OpConstant:
			idx := int(binary.BigEndian.Uint16(ins[ip+1:]))
			if idx >= len(program.Constants) {
				return nil, errors.Errorf("constant index %d out of range", idx)
			}
			if err := v.push(program.Constants[idx]); err != nil {
				return nil, err
			}
			ip += 3

		case bytecode.OpTrue:
			if err := v.push(object.TRUE); err != nil {
				return nil, err
			}
			ip++

		case bytecode.OpFalse:
			if err := v.push(object.FALSE); err != nil {
				return nil, err
			}
			ip++

		case bytecode.OpNone:
			if err := v.push(object.NONE); err != nil {
				return nil, err
			}
			ip++

		case bytecode.OpPop:
			v.pop()
			ip++

		case bytecode.OpBinary:
			operator, ok := bytecode.BinaryOp(ins[ip+1])
			if !ok {
				return nil, errors.Errorf("invalid binary operand %d", ins[ip+1])
			}
			right := v.pop()
			left := v.pop()
			result, opErr := object.ApplyBinary(operator, left, right)
			if opErr != nil {
				return nil, opErr
			}
			if err := v.push(result); err != nil {
				return nil, err
			}
			ip += 2

		case bytecode.OpUnary:
			operator, ok := bytecode.UnaryOp(ins[ip+1])
			if !ok {
				return nil, errors.Errorf("invalid unary operand %d", ins[ip+1])
			}
			result, opErr := object.ApplyUnary(operator, v.pop())
			if opErr != nil {
				return nil, opErr
			}
			if err := v.push(result); err != nil {
				return nil, err
			}
			ip += 2

		case bytecode.OpJump:
			ip = int(binary.BigEndian.Uint16(ins[ip+1:]))

		case bytecode.OpJumpIfFalse:
			target := int(binary.BigEndian.Uint16(ins[ip+1:]))
			if !object.Truthy(v.pop()) {
				ip = target
			} else {
				ip += 3
			}

		case bytecode.OpGetGlobal:
			name, err := programName(program, ins, ip)
			if err != nil {
				return nil, err
			}
			value, ok := v.globals[name]
			if !ok {
				value, ok = v.builtins[name]
			}
			if !ok {
				return nil, object.Errorf(object.NameErrorKind, "name '%s' is not defined", name)
			}
			if err := v.push(value); err != nil {
				return nil, err
			}
			ip += 3

		case bytecode.OpSetGlobal:
			name, err := programName(program, ins, ip)
			if err != nil {
				return nil, err
			}
			v.globals[name] = v.pop()
			ip += 3

		case bytecode.OpList:
			count := int(binary.BigEndian.Uint16(ins[ip+1:]))
			elements := v.popN(count)
			if err := v.push(&object.List{Elements: elements}); err != nil {
				return nil, err
			}
			ip += 3

		case bytecode.OpTuple:
			count := int(binary.BigEndian.Uint16(ins[ip+1:]))
			elements := v.popN(count)
			if err := v.push(&object.Tuple{Elements: elements}); err != nil {
				return nil, err
			}
			ip += 3

		case bytecode.OpSet:
			count := int(binary.BigEndian.Uint16(ins[ip+1:]))
			elements := v.popN(count)
			set := object.NewSet()
			for _, el := range elements {
				if addErr := set.Add(el); addErr != nil {
					return nil, addErr
				}
			}
			if err := v.push(set); err != nil {
				return nil, err
			}
			ip += 3

		case bytecode.OpDict:
			count := int(binary.BigEndian.Uint16(ins[ip+1:]))
			flat := v.popN(count * 2)
			dict := object.NewDict()
			for n := 0; n < len(flat); n += 2 {
				if setErr := dict.Set(flat[n], flat[n+1]); setErr != nil {
					return nil, setErr
				}
			}
			if err := v.push(dict); err != nil {
				return nil, err
			}
			ip += 3

		case bytecode.OpIndex:
			index := v.pop()
			container := v.pop()
			result, idxErr := readIndex(container, index)
			if idxErr != nil {
				return nil, idxErr
			}
			if err := v.push(result); err != nil {
				return nil, err
			}
			ip++

		case bytecode.OpCall:
			argc := int(ins[ip+1])
			args := v.popN(argc)
			callee := v.pop()
			fn, ok := callee.(*object.Builtin)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind,
					"%s is not callable in compiled code", object.TypeName(callee))
			}
			result, callErr := fn.Fn(args, nil)
			if callErr != nil {
				return nil, callErr
			}
			if result == nil {
				result = object.NONE
			}
			if err := v.push(result); err != nil {
				return nil, err
			}
			ip += 2

		case bytecode.OpReturn:
			return v.snapshotGlobals(), nil

		default:
			return nil, errors.Errorf("unknown opcode %d at %d", op, ip)
		}
	}
	return v.snapshotGlobals(), nil
}

func programName(program *bytecode.Program, ins bytecode.Instructions, ip int) (string, error) {
	idx := int(binary.BigEndian.Uint16(ins[ip+1:]))
	if idx >= len(program.Names) {
		return "", errors.Errorf("name index %d out of range", idx)
	}
	return program.Names[idx], nil
}

func (v *VM) push(value object.Object) error {
	if len(v.stack) >= stackLimit {
		return errors.New("stack overflow")
	}
	v.stack = append(v.stack, value)
	return nil
}

func (v *VM) pop() object.Object {
	if len(v.stack) == 0 {
		return object.NONE
	}
	value := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return value
}

func (v *VM) popN(count int) []object.Object {
	if count == 0 {
		return nil
	}
	out := make([]object.Object, count)
	for n := count - 1; n >= 0; n-- {
		out[n] = v.pop()
	}
	return out
}

func (v *VM) snapshotGlobals() map[string]object.Object {
	out := make(map[string]object.Object, len(v.globals))
	for name, value := range v.globals {
		out[name] = value
	}
	return out
}

// readIndex mirrors the interpreter's subscript rules for the container
// kinds constructible in bytecode.
func readIndex(container, index object.Object) (object.Object, *object.Error) {
	switch c := container.(type) {
	case *object.List:
		return sequenceAt(c.Elements, index)
	case *object.Tuple:
		return sequenceAt(c.Elements, index)
	case *object.String:
		runes := []rune(c.Value)
		wrapped := make([]object.Object, len(runes))
		for n, r := range runes {
			wrapped[n] = &object.String{Value: string(r)}
		}
		return sequenceAt(wrapped, index)
	case *object.Dict:
		value, ok, err := c.Get(index)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, object.Errorf(object.KeyErrorKind, "%s", index.Inspect())
		}
		return value, nil
	}
	return nil, object.Errorf(object.TypeErrorKind, "%s is not subscriptable", object.TypeName(container))
}

func sequenceAt(elements []object.Object, index object.Object) (object.Object, *object.Error) {
	idx, ok := index.(*object.Integer)
	if !ok {
		return nil, object.Errorf(object.TypeErrorKind, "indices must be integers, not %s", object.TypeName(index))
	}
	n := idx.Value
	if n < 0 {
		n += int64(len(elements))
	}
	if n < 0 || n >= int64(len(elements)) {
		return nil, object.Errorf(object.IndexErrorKind, "index out of range")
	}
	return elements[n], nil
}
