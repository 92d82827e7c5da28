package interp

import (
	"sort"
	"strings"

	"ward/internal/object"
)

// getAttribute resolves value.name. Instances check their own fields before
// the class; functions found on a class come back bound to the instance.
// Dicts expose their string keys as attributes for convenience.
func (i *Interpreter) getAttribute(value object.Object, name string, line int) (object.Object, *object.Error) {
	switch v := value.(type) {
	case *object.Instance:
		if field, ok := v.Fields[name]; ok {
			return field, nil
		}
		if attr, ok := v.Class.Lookup(name); ok {
			if fn, isFn := attr.(*object.Function); isFn {
				bound := *fn
				bound.BoundSelf = v
				return &bound, nil
			}
			return attr, nil
		}

	case *object.Class:
		if name == "__doc__" {
			return &object.String{Value: v.Docstring}, nil
		}
		if attr, ok := v.Lookup(name); ok {
			return attr, nil
		}

	case *object.Module:
		if name == "__doc__" {
			return &object.String{Value: v.Docstring}, nil
		}
		if attr, ok := v.Attributes[name]; ok {
			return attr, nil
		}

	case *object.Error:
		switch name {
		case "message":
			return &object.String{Value: v.Message}, nil
		case "kind":
			return &object.String{Value: v.Kind}, nil
		}

	case *object.Function:
		if name == "__doc__" {
			return &object.String{Value: v.Docstring}, nil
		}

	case *object.Deferred:
		if name == "resolved" {
			return object.BooleanFor(v.Resolved()), nil
		}

	case *object.String:
		if method, ok := stringMethod(v, name); ok {
			return method, nil
		}

	case *object.List:
		if method, ok := listMethod(v, name); ok {
			return method, nil
		}

	case *object.Dict:
		if method, ok := dictMethod(v, name); ok {
			return method, nil
		}
		if field, found, err := v.Get(&object.String{Value: name}); err == nil && found {
			return field, nil
		}

	case *object.Set:
		if method, ok := setMethod(v, name); ok {
			return method, nil
		}
	}
	return nil, object.Errorf(object.AttributeErrorKind,
		"%s has no attribute '%s'", object.TypeName(value), name).At(line)
}

func method(name string, fn object.BuiltinFunction) *object.Builtin {
	return &object.Builtin{Name: name, Fn: fn}
}

func arity(name string, args []object.Object, min, max int) *object.Error {
	if len(args) < min || len(args) > max {
		return object.Errorf(object.TypeErrorKind, "%s: wrong number of arguments", name)
	}
	return nil
}

func wantString(name string, value object.Object) (*object.String, *object.Error) {
	s, ok := value.(*object.String)
	if !ok {
		return nil, object.Errorf(object.TypeErrorKind,
			"%s expects a string argument, got %s", name, object.TypeName(value))
	}
	return s, nil
}

func stringMethod(s *object.String, name string) (object.Object, bool) {
	switch name {
	case "upper":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			return &object.String{Value: strings.ToUpper(s.Value)}, nil
		}), true
	case "lower":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			return &object.String{Value: strings.ToLower(s.Value)}, nil
		}), true
	case "strip":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 1); err != nil {
				return nil, err
			}
			if len(args) == 1 {
				cutset, err := wantString(name, args[0])
				if err != nil {
					return nil, err
				}
				return &object.String{Value: strings.Trim(s.Value, cutset.Value)}, nil
			}
			return &object.String{Value: strings.TrimSpace(s.Value)}, nil
		}), true
	case "split":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 1); err != nil {
				return nil, err
			}
			var parts []string
			if len(args) == 1 {
				sep, err := wantString(name, args[0])
				if err != nil {
					return nil, err
				}
				parts = strings.Split(s.Value, sep.Value)
			} else {
				parts = strings.Fields(s.Value)
			}
			elements := make([]object.Object, len(parts))
			for n, part := range parts {
				elements[n] = &object.String{Value: part}
			}
			return &object.List{Elements: elements}, nil
		}), true
	case "join":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			list, ok := args[0].(*object.List)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "join expects a list, got %s", object.TypeName(args[0]))
			}
			parts := make([]string, len(list.Elements))
			for n, el := range list.Elements {
				str, isStr := el.(*object.String)
				if !isStr {
					return nil, object.Errorf(object.TypeErrorKind, "join expects string elements, got %s", object.TypeName(el))
				}
				parts[n] = str.Value
			}
			return &object.String{Value: strings.Join(parts, s.Value)}, nil
		}), true
	case "replace":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 2, 2); err != nil {
				return nil, err
			}
			old, err := wantString(name, args[0])
			if err != nil {
				return nil, err
			}
			replacement, err := wantString(name, args[1])
			if err != nil {
				return nil, err
			}
			return &object.String{Value: strings.ReplaceAll(s.Value, old.Value, replacement.Value)}, nil
		}), true
	case "startswith":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			prefix, err := wantString(name, args[0])
			if err != nil {
				return nil, err
			}
			return object.BooleanFor(strings.HasPrefix(s.Value, prefix.Value)), nil
		}), true
	case "endswith":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			suffix, err := wantString(name, args[0])
			if err != nil {
				return nil, err
			}
			return object.BooleanFor(strings.HasSuffix(s.Value, suffix.Value)), nil
		}), true
	case "find":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			needle, err := wantString(name, args[0])
			if err != nil {
				return nil, err
			}
			return &object.Integer{Value: int64(strings.Index(s.Value, needle.Value))}, nil
		}), true
	case "count":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			needle, err := wantString(name, args[0])
			if err != nil {
				return nil, err
			}
			return &object.Integer{Value: int64(strings.Count(s.Value, needle.Value))}, nil
		}), true
	}
	return nil, false
}

func listMethod(l *object.List, name string) (object.Object, bool) {
	switch name {
	case "append":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			l.Elements = append(l.Elements, args[0])
			return object.NONE, nil
		}), true
	case "extend":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			other, ok := args[0].(*object.List)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "extend expects a list, got %s", object.TypeName(args[0]))
			}
			l.Elements = append(l.Elements, other.Elements...)
			return object.NONE, nil
		}), true
	case "pop":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 1); err != nil {
				return nil, err
			}
			if len(l.Elements) == 0 {
				return nil, object.Errorf(object.IndexErrorKind, "pop from empty list")
			}
			n := len(l.Elements) - 1
			if len(args) == 1 {
				idx, err := sequenceIndex(args[0], len(l.Elements), 0)
				if err != nil {
					return nil, err
				}
				n = idx
			}
			value := l.Elements[n]
			l.Elements = append(l.Elements[:n], l.Elements[n+1:]...)
			return value, nil
		}), true
	case "insert":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 2, 2); err != nil {
				return nil, err
			}
			idx, ok := args[0].(*object.Integer)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "insert expects an integer index")
			}
			n := int(idx.Value)
			if n < 0 {
				n += len(l.Elements)
			}
			if n < 0 {
				n = 0
			}
			if n > len(l.Elements) {
				n = len(l.Elements)
			}
			l.Elements = append(l.Elements[:n], append([]object.Object{args[1]}, l.Elements[n:]...)...)
			return object.NONE, nil
		}), true
	case "remove":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			for n, el := range l.Elements {
				if object.Equals(el, args[0]) {
					l.Elements = append(l.Elements[:n], l.Elements[n+1:]...)
					return object.NONE, nil
				}
			}
			return nil, object.Errorf(object.ValueErrorKind, "value not in list")
		}), true
	case "index":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			for n, el := range l.Elements {
				if object.Equals(el, args[0]) {
					return &object.Integer{Value: int64(n)}, nil
				}
			}
			return nil, object.Errorf(object.ValueErrorKind, "value not in list")
		}), true
	case "count":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			count := int64(0)
			for _, el := range l.Elements {
				if object.Equals(el, args[0]) {
					count++
				}
			}
			return &object.Integer{Value: count}, nil
		}), true
	case "reverse":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			for a, b := 0, len(l.Elements)-1; a < b; a, b = a+1, b-1 {
				l.Elements[a], l.Elements[b] = l.Elements[b], l.Elements[a]
			}
			return object.NONE, nil
		}), true
	case "sort":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			var sortErr *object.Error
			sort.SliceStable(l.Elements, func(a, b int) bool {
				cmp, err := object.Compare(l.Elements[a], l.Elements[b])
				if err != nil && sortErr == nil {
					sortErr = err
				}
				return cmp < 0
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return object.NONE, nil
		}), true
	case "clear":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			l.Elements = nil
			return object.NONE, nil
		}), true
	case "copy":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			return &object.List{Elements: append([]object.Object(nil), l.Elements...)}, nil
		}), true
	}
	return nil, false
}

func dictMethod(d *object.Dict, name string) (object.Object, bool) {
	switch name {
	case "get":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 2); err != nil {
				return nil, err
			}
			value, found, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				return value, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return object.NONE, nil
		}), true
	case "keys":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			out := &object.List{}
			for _, pair := range d.Pairs() {
				out.Elements = append(out.Elements, pair.Key)
			}
			return out, nil
		}), true
	case "values":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			out := &object.List{}
			for _, pair := range d.Pairs() {
				out.Elements = append(out.Elements, pair.Value)
			}
			return out, nil
		}), true
	case "items":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 0, 0); err != nil {
				return nil, err
			}
			out := &object.List{}
			for _, pair := range d.Pairs() {
				out.Elements = append(out.Elements, &object.Tuple{Elements: []object.Object{pair.Key, pair.Value}})
			}
			return out, nil
		}), true
	case "pop":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 2); err != nil {
				return nil, err
			}
			value, found, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				if _, err := d.Delete(args[0]); err != nil {
					return nil, err
				}
				return value, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, object.Errorf(object.KeyErrorKind, "%s", args[0].Inspect())
		}), true
	case "update":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			other, ok := args[0].(*object.Dict)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "update expects a dict, got %s", object.TypeName(args[0]))
			}
			for _, pair := range other.Pairs() {
				if err := d.Set(pair.Key, pair.Value); err != nil {
					return nil, err
				}
			}
			return object.NONE, nil
		}), true
	case "setdefault":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 2); err != nil {
				return nil, err
			}
			value, found, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				return value, nil
			}
			fallback := object.Object(object.NONE)
			if len(args) == 2 {
				fallback = args[1]
			}
			if err := d.Set(args[0], fallback); err != nil {
				return nil, err
			}
			return fallback, nil
		}), true
	}
	return nil, false
}

func setMethod(s *object.Set, name string) (object.Object, bool) {
	switch name {
	case "add":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			if err := s.Add(args[0]); err != nil {
				return nil, err
			}
			return object.NONE, nil
		}), true
	case "remove", "discard":
		strict := name == "remove"
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			has, err := s.Has(args[0])
			if err != nil {
				return nil, err
			}
			if !has {
				if strict {
					return nil, object.Errorf(object.KeyErrorKind, "%s", args[0].Inspect())
				}
				return object.NONE, nil
			}
			rebuilt := object.NewSet()
			for _, el := range s.Elements() {
				if object.Equals(el, args[0]) {
					continue
				}
				if err := rebuilt.Add(el); err != nil {
					return nil, err
				}
			}
			*s = *rebuilt
			return object.NONE, nil
		}), true
	case "union":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			other, ok := args[0].(*object.Set)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "union expects a set, got %s", object.TypeName(args[0]))
			}
			out := object.NewSet()
			for _, el := range s.Elements() {
				if err := out.Add(el); err != nil {
					return nil, err
				}
			}
			for _, el := range other.Elements() {
				if err := out.Add(el); err != nil {
					return nil, err
				}
			}
			return out, nil
		}), true
	case "intersection":
		return method(name, func(args []object.Object, _ map[string]object.Object) (object.Object, *object.Error) {
			if err := arity(name, args, 1, 1); err != nil {
				return nil, err
			}
			other, ok := args[0].(*object.Set)
			if !ok {
				return nil, object.Errorf(object.TypeErrorKind, "intersection expects a set, got %s", object.TypeName(args[0]))
			}
			out := object.NewSet()
			for _, el := range s.Elements() {
				has, err := other.Has(el)
				if err != nil {
					return nil, err
				}
				if has {
					if err := out.Add(el); err != nil {
						return nil, err
					}
				}
			}
			return out, nil
		}), true
	}
	return nil, false
}
