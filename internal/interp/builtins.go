package interp

import (
	"bufio"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"ward/internal/object"
	"ward/internal/token"
)

func builtin(name string, fn object.BuiltinFunction) *object.Builtin {
	return &object.Builtin{Name: name, Fn: fn}
}

// loadBuiltins assembles the default registry: conversion and collection
// helpers, console I/O bound to the interpreter's streams, and the error
// classes used by EXCEPT and RAISE.
func (i *Interpreter) loadBuiltins() map[string]object.Object {
	reg := map[string]object.Object{}

	for _, name := range object.ErrorClassNames() {
		reg[name] = &object.ErrorClass{Name: name}
	}

	reg["print"] = builtin("print", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		parts := make([]string, len(args))
		for n, arg := range args {
			parts[n] = arg.Inspect()
		}
		if _, err := fmt.Fprintln(i.stdout, strings.Join(parts, " ")); err != nil {
			return nil, object.Errorf(object.IOErrorKind, "print: %v", err)
		}
		return object.NONE, nil
	})

	var stdin *bufio.Reader
	reg["input"] = builtin("input", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("input", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			fmt.Fprint(i.stdout, args[0].Inspect())
		}
		if stdin == nil {
			stdin = bufio.NewReader(i.stdin)
		}
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return &object.String{Value: ""}, nil
		}
		return &object.String{Value: strings.TrimRight(line, "\r\n")}, nil
	})

	reg["len"] = builtin("len", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("len", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *object.String:
			return &object.Integer{Value: int64(len([]rune(v.Value)))}, nil
		case *object.Bytes:
			return &object.Integer{Value: int64(len(v.Value))}, nil
		case *object.List:
			return &object.Integer{Value: int64(len(v.Elements))}, nil
		case *object.Tuple:
			return &object.Integer{Value: int64(len(v.Elements))}, nil
		case *object.Set:
			return &object.Integer{Value: int64(v.Len())}, nil
		case *object.Dict:
			return &object.Integer{Value: int64(v.Len())}, nil
		}
		return nil, object.Errorf(object.TypeErrorKind, "len: %s has no length", object.TypeName(args[0]))
	})

	reg["str"] = builtin("str", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("str", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &object.String{Value: ""}, nil
		}
		return &object.String{Value: args[0].Inspect()}, nil
	})

	reg["int"] = builtin("int", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("int", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &object.Integer{Value: 0}, nil
		}
		switch v := args[0].(type) {
		case *object.Integer:
			return v, nil
		case *object.Float:
			return &object.Integer{Value: int64(v.Value)}, nil
		case *object.Boolean:
			if v.Value {
				return &object.Integer{Value: 1}, nil
			}
			return &object.Integer{Value: 0}, nil
		case *object.String:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
			if err != nil {
				return nil, object.Errorf(object.ValueErrorKind, "invalid literal for int: %q", v.Value)
			}
			return &object.Integer{Value: n}, nil
		}
		return nil, object.Errorf(object.TypeErrorKind, "int: cannot convert %s", object.TypeName(args[0]))
	})

	reg["float"] = builtin("float", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("float", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &object.Float{Value: 0}, nil
		}
		switch v := args[0].(type) {
		case *object.Float:
			return v, nil
		case *object.Integer:
			return &object.Float{Value: float64(v.Value)}, nil
		case *object.Boolean:
			if v.Value {
				return &object.Float{Value: 1}, nil
			}
			return &object.Float{Value: 0}, nil
		case *object.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
			if err != nil {
				return nil, object.Errorf(object.ValueErrorKind, "invalid literal for float: %q", v.Value)
			}
			return &object.Float{Value: f}, nil
		}
		return nil, object.Errorf(object.TypeErrorKind, "float: cannot convert %s", object.TypeName(args[0]))
	})

	reg["bool"] = builtin("bool", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("bool", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return object.FALSE, nil
		}
		return object.BooleanFor(object.Truthy(args[0])), nil
	})

	reg["list"] = builtin("list", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("list", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &object.List{}, nil
		}
		items, err := builtinIterate(args[0])
		if err != nil {
			return nil, err
		}
		return &object.List{Elements: items}, nil
	})

	reg["tuple"] = builtin("tuple", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("tuple", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &object.Tuple{}, nil
		}
		items, err := builtinIterate(args[0])
		if err != nil {
			return nil, err
		}
		return &object.Tuple{Elements: items}, nil
	})

	reg["set"] = builtin("set", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("set", args, 0, 1); err != nil {
			return nil, err
		}
		out := object.NewSet()
		if len(args) == 1 {
			items, err := builtinIterate(args[0])
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				if addErr := out.Add(item); addErr != nil {
					return nil, addErr
				}
			}
		}
		return out, nil
	})

	reg["dict"] = builtin("dict", func(args []object.Object, kwargs map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("dict", args, 0, 1); err != nil {
			return nil, err
		}
		out := object.NewDict()
		if len(args) == 1 {
			src, ok := args[0].(*object.Dict)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "dict: cannot convert %s", object.TypeName(args[0]))
			}
			for _, pair := range src.Pairs() {
				if err := out.Set(pair.Key, pair.Value); err != nil {
					return nil, err
				}
			}
		}
		for _, name := range object.SortedNames(kwargs) {
			if err := out.Set(&object.String{Value: name}, kwargs[name]); err != nil {
				return nil, err
			}
		}
		return out, nil
	})

	reg["bytes"] = builtin("bytes", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("bytes", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return &object.Bytes{}, nil
		}
		switch v := args[0].(type) {
		case *object.Bytes:
			return v, nil
		case *object.String:
			return &object.Bytes{Value: []byte(v.Value)}, nil
		case *object.List:
			out := make([]byte, len(v.Elements))
			for n, el := range v.Elements {
				b, ok := el.(*object.Integer)
				if !ok || b.Value < 0 || b.Value > 255 {
					return nil, object.Errorf(object.ValueErrorKind, "bytes: elements must be integers in 0..255")
				}
				out[n] = byte(b.Value)
			}
			return &object.Bytes{Value: out}, nil
		}
		return nil, object.Errorf(object.TypeErrorKind, "bytes: cannot convert %s", object.TypeName(args[0]))
	})

	reg["range"] = builtin("range", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("range", args, 1, 3); err != nil {
			return nil, err
		}
		bounds := make([]int64, len(args))
		for n, arg := range args {
			v, ok := arg.(*object.Integer)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "range expects integers, got %s", object.TypeName(arg))
			}
			bounds[n] = v.Value
		}
		start, stop, step := int64(0), bounds[0], int64(1)
		if len(bounds) >= 2 {
			start, stop = bounds[0], bounds[1]
		}
		if len(bounds) == 3 {
			step = bounds[2]
		}
		if step == 0 {
			return nil, object.Errorf(object.ValueErrorKind, "range step must not be zero")
		}
		out := &object.List{}
		if step > 0 {
			for n := start; n < stop; n += step {
				out.Elements = append(out.Elements, &object.Integer{Value: n})
			}
		} else {
			for n := start; n > stop; n += step {
				out.Elements = append(out.Elements, &object.Integer{Value: n})
			}
		}
		return out, nil
	})

	reg["abs"] = builtin("abs", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("abs", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *object.Integer:
			if v.Value < 0 {
				return &object.Integer{Value: -v.Value}, nil
			}
			return v, nil
		case *object.Float:
			return &object.Float{Value: math.Abs(v.Value)}, nil
		}
		return nil, object.Errorf(object.TypeErrorKind, "abs expects a number, got %s", object.TypeName(args[0]))
	})

	reg["round"] = builtin("round", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("round", args, 1, 2); err != nil {
			return nil, err
		}
		f, ok := args[0].(*object.Float)
		if !ok {
			if n, isInt := args[0].(*object.Integer); isInt {
				return n, nil
			}
			return nil, object.Errorf(object.TypeErrorKind, "round expects a number, got %s", object.TypeName(args[0]))
		}
		if len(args) == 2 {
			digits, isInt := args[1].(*object.Integer)
			if !isInt {
				return nil, object.Errorf(object.TypeErrorKind, "round digits must be an integer")
			}
			factor := math.Pow(10, float64(digits.Value))
			return &object.Float{Value: math.Round(f.Value*factor) / factor}, nil
		}
		return &object.Integer{Value: int64(math.Round(f.Value))}, nil
	})

	reg["min"] = builtin("min", extremum("min", -1))
	reg["max"] = builtin("max", extremum("max", 1))

	reg["sum"] = builtin("sum", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("sum", args, 1, 2); err != nil {
			return nil, err
		}
		items, err := builtinIterate(args[0])
		if err != nil {
			return nil, err
		}
		total := object.Object(&object.Integer{Value: 0})
		if len(args) == 2 {
			total = args[1]
		}
		for _, item := range items {
			next, addErr := object.ApplyBinary(token.PLUS, total, item)
			if addErr != nil {
				return nil, addErr
			}
			total = next
		}
		return total, nil
	})

	reg["sorted"] = builtin("sorted", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("sorted", args, 1, 1); err != nil {
			return nil, err
		}
		items, err := builtinIterate(args[0])
		if err != nil {
			return nil, err
		}
		out := append([]object.Object(nil), items...)
		var sortErr *object.Error
		sort.SliceStable(out, func(a, b int) bool {
			cmp, cmpErr := object.Compare(out[a], out[b])
			if cmpErr != nil && sortErr == nil {
				sortErr = cmpErr
			}
			return cmp < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
		return &object.List{Elements: out}, nil
	})

	reg["reversed"] = builtin("reversed", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("reversed", args, 1, 1); err != nil {
			return nil, err
		}
		items, err := builtinIterate(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]object.Object, len(items))
		for n, item := range items {
			out[len(items)-1-n] = item
		}
		return &object.List{Elements: out}, nil
	})

	reg["enumerate"] = builtin("enumerate", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("enumerate", args, 1, 2); err != nil {
			return nil, err
		}
		items, err := builtinIterate(args[0])
		if err != nil {
			return nil, err
		}
		start := int64(0)
		if len(args) == 2 {
			n, ok := args[1].(*object.Integer)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "enumerate start must be an integer")
			}
			start = n.Value
		}
		out := &object.List{}
		for n, item := range items {
			out.Elements = append(out.Elements, &object.Tuple{Elements: []object.Object{
				&object.Integer{Value: start + int64(n)}, item,
			}})
		}
		return out, nil
	})

	reg["zip"] = builtin("zip", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if len(args) < 2 {
			return nil, object.Errorf(object.TypeErrorKind, "zip: wrong number of arguments")
		}
		columns := make([][]object.Object, len(args))
		shortest := -1
		for n, arg := range args {
			items, err := builtinIterate(arg)
			if err != nil {
				return nil, err
			}
			columns[n] = items
			if shortest < 0 || len(items) < shortest {
				shortest = len(items)
			}
		}
		out := &object.List{}
		for row := 0; row < shortest; row++ {
			tuple := &object.Tuple{Elements: make([]object.Object, len(columns))}
			for col := range columns {
				tuple.Elements[col] = columns[col][row]
			}
			out.Elements = append(out.Elements, tuple)
		}
		return out, nil
	})

	reg["type"] = builtin("type", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("type", args, 1, 1); err != nil {
			return nil, err
		}
		return &object.String{Value: object.TypeName(args[0])}, nil
	})

	reg["contains"] = builtin("contains", func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		if err := arity("contains", args, 2, 2); err != nil {
			return nil, err
		}
		found, err := object.Contains(args[1], args[0])
		if err != nil {
			return nil, err
		}
		return object.BooleanFor(found), nil
	})

	// function forms of the common collection and string methods, so
	// scripts can write keys(d) as well as d.keys()
	for _, name := range []string{"keys", "values", "items"} {
		reg[name] = builtin(name, dispatchMethod(name, func(recv object.Object, mname string) (object.Object, bool) {
			d, ok := recv.(*object.Dict)
			if !ok {
				return nil, false
			}
			return dictMethod(d, mname)
		}))
	}
	reg["append"] = builtin("append", dispatchMethod("append", func(recv object.Object, mname string) (object.Object, bool) {
		l, ok := recv.(*object.List)
		if !ok {
			return nil, false
		}
		return listMethod(l, mname)
	}))
	for _, name := range []string{"upper", "lower", "strip", "split", "replace", "startswith", "endswith"} {
		reg[name] = builtin(name, dispatchMethod(name, func(recv object.Object, mname string) (object.Object, bool) {
			s, ok := recv.(*object.String)
			if !ok {
				return nil, false
			}
			return stringMethod(s, mname)
		}))
	}
	reg["join"] = builtin("join", dispatchMethod("join", func(recv object.Object, mname string) (object.Object, bool) {
		s, ok := recv.(*object.String)
		if !ok {
			return nil, false
		}
		return stringMethod(s, mname)
	}))

	return reg
}

// dispatchMethod adapts a receiver method into a free function whose first
// argument is the receiver.
func dispatchMethod(name string, lookup func(object.Object, string) (object.Object, bool)) object.BuiltinFunction {
	return func(args []object.Object, kwargs map[string]object.Object) (object.Object, *object.Error) {
		if len(args) == 0 {
			return nil, object.Errorf(object.TypeErrorKind, "%s: wrong number of arguments", name)
		}
		bound, ok := lookup(args[0], name)
		if !ok {
			return nil, object.Errorf(object.TypeErrorKind,
				"%s is not supported for %s", name, object.TypeName(args[0]))
		}
		method, isBuiltin := bound.(*object.Builtin)
		if !isBuiltin {
			return nil, object.Errorf(object.TypeErrorKind, "%s: internal dispatch failure", name)
		}
		return method.Fn(args[1:], kwargs)
	}
}

// builtinIterate mirrors the statement-level iteration rules, except that
// strings expand to their characters the way conversion builtins expect.
func builtinIterate(value object.Object) ([]object.Object, *object.Error) {
	switch v := value.(type) {
	case *object.String:
		runes := []rune(v.Value)
		out := make([]object.Object, len(runes))
		for n, r := range runes {
			out[n] = &object.String{Value: string(r)}
		}
		return out, nil
	case *object.List:
		return append([]object.Object(nil), v.Elements...), nil
	case *object.Tuple:
		return append([]object.Object(nil), v.Elements...), nil
	case *object.Set:
		return v.Elements(), nil
	case *object.Dict:
		out := make([]object.Object, 0, v.Len())
		for _, pair := range v.Pairs() {
			out = append(out, pair.Key)
		}
		return out, nil
	}
	return nil, object.Errorf(object.TypeErrorKind, "value of type %s is not iterable", object.TypeName(value))
}

func extremum(name string, direction int) object.BuiltinFunction {
	return func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
		var items []object.Object
		if len(args) == 1 {
			collected, err := builtinIterate(args[0])
			if err != nil {
				return nil, err
			}
			items = collected
		} else {
			items = args
		}
		if len(items) == 0 {
			return nil, object.Errorf(object.ValueErrorKind, "%s of an empty sequence", name)
		}
		best := items[0]
		for _, item := range items[1:] {
			cmp, err := object.Compare(item, best)
			if err != nil {
				return nil, err
			}
			if cmp*direction > 0 {
				best = item
			}
		}
		return best, nil
	}
}
