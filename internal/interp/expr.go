package interp

import (
	"ward/internal/ast"
	"ward/internal/object"
)

// eval evaluates an expression to a value or a runtime error.
func (i *Interpreter) eval(expr ast.Expression, env *object.Environment) (object.Object, *object.Error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return &object.Integer{Value: e.Value}, nil
	case *ast.FloatLiteral:
		return &object.Float{Value: e.Value}, nil
	case *ast.StringLiteral:
		return &object.String{Value: e.Value}, nil
	case *ast.BooleanLiteral:
		return object.BooleanFor(e.Value), nil
	case *ast.NoneLiteral:
		return object.NONE, nil

	case *ast.Identifier:
		return i.resolveIdentifier(e.Value, env, e.Token.Line)

	case *ast.UnaryExpression:
		operand, err := i.eval(e.Operand, env)
		if err != nil {
			return nil, err
		}
		result, opErr := object.ApplyUnary(e.Operator, operand)
		if opErr != nil {
			return nil, opErr.At(e.Token.Line)
		}
		return result, nil

	case *ast.BinaryExpression:
		left, err := i.eval(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.eval(e.Right, env)
		if err != nil {
			return nil, err
		}
		result, opErr := object.ApplyBinary(e.Operator, left, right)
		if opErr != nil {
			return nil, opErr.At(e.Token.Line)
		}
		return result, nil

	case *ast.ConditionalExpression:
		condition, err := i.eval(e.Condition, env)
		if err != nil {
			return nil, err
		}
		if object.Truthy(condition) {
			return i.eval(e.IfTrue, env)
		}
		return i.eval(e.IfFalse, env)

	case *ast.ListExpression:
		elements, err := i.evalExpressions(e.Elements, env)
		if err != nil {
			return nil, err
		}
		return &object.List{Elements: elements}, nil

	case *ast.TupleExpression:
		elements, err := i.evalExpressions(e.Elements, env)
		if err != nil {
			return nil, err
		}
		return &object.Tuple{Elements: elements}, nil

	case *ast.SetExpression:
		elements, err := i.evalExpressions(e.Elements, env)
		if err != nil {
			return nil, err
		}
		set := object.NewSet()
		for _, el := range elements {
			if addErr := set.Add(el); addErr != nil {
				return nil, addErr.At(e.Token.Line)
			}
		}
		return set, nil

	case *ast.DictExpression:
		dict := object.NewDict()
		for _, entry := range e.Entries {
			key, err := i.eval(entry.Key, env)
			if err != nil {
				return nil, err
			}
			value, err := i.eval(entry.Value, env)
			if err != nil {
				return nil, err
			}
			if setErr := dict.Set(key, value); setErr != nil {
				return nil, setErr.At(e.Token.Line)
			}
		}
		return dict, nil

	case *ast.ListComprehension:
		return i.evalComprehension(e, env)

	case *ast.AttributeReference:
		value, err := i.eval(e.Object, env)
		if err != nil {
			return nil, err
		}
		return i.getAttribute(value, e.Name, e.Token.Line)

	case *ast.IndexReference:
		value, err := i.eval(e.Object, env)
		if err != nil {
			return nil, err
		}
		index, err := i.eval(e.Index, env)
		if err != nil {
			return nil, err
		}
		return i.readIndex(value, index, e.Token.Line)

	case *ast.CallExpression:
		return i.evalCall(e, env)

	case *ast.LambdaExpression:
		defaults, err := i.evalDefaults(e.Parameters, env)
		if err != nil {
			return nil, err.At(e.Token.Line)
		}
		return &object.Lambda{Parameters: e.Parameters, Defaults: defaults, Body: e.Body, Env: env}, nil

	case *ast.AwaitExpression:
		value, err := i.eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		deferred, ok := value.(*object.Deferred)
		if !ok {
			return nil, object.Errorf(object.TypeErrorKind,
				"AWAIT requires a deferred value, got %s", object.TypeName(value)).At(e.Token.Line)
		}
		result, resolveErr := deferred.Resolve()
		if resolveErr != nil {
			return nil, resolveErr
		}
		return result, nil
	}
	return nil, object.Errorf(object.RuntimeErrorKind, "unsupported expression %T", expr)
}

func (i *Interpreter) evalExpressions(exprs []ast.Expression, env *object.Environment) ([]object.Object, *object.Error) {
	out := make([]object.Object, 0, len(exprs))
	for _, expr := range exprs {
		value, err := i.eval(expr, env)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func (i *Interpreter) evalComprehension(e *ast.ListComprehension, env *object.Environment) (object.Object, *object.Error) {
	iterable, err := i.eval(e.Iterable, env)
	if err != nil {
		return nil, err
	}
	items, iterErr := i.iterateErr(iterable, e.Token.Line)
	if iterErr != nil {
		return nil, iterErr
	}
	compEnv := object.NewEnclosedEnvironment(env)
	out := &object.List{}
	for _, item := range items {
		compEnv.SetLocal(e.Iterator, item)
		if e.Condition != nil {
			keep, err := i.eval(e.Condition, compEnv)
			if err != nil {
				return nil, err
			}
			if !object.Truthy(keep) {
				continue
			}
		}
		element, err := i.eval(e.Element, compEnv)
		if err != nil {
			return nil, err
		}
		out.Elements = append(out.Elements, element)
	}
	return out, nil
}

// resolveIdentifier walks frames outward, then the recording context
// (payloads, targets, scope), then the builtin registry.
func (i *Interpreter) resolveIdentifier(name string, env *object.Environment, line int) (object.Object, *object.Error) {
	if value, ok := env.Get(name); ok {
		return value, nil
	}
	if values, ok := i.ctx.Payloads[name]; ok {
		elements := make([]object.Object, len(values))
		for n, v := range values {
			elements[n] = &object.String{Value: v}
		}
		return &object.List{Elements: elements}, nil
	}
	switch name {
	case "targets":
		return stringList(i.ctx.Targets), nil
	case "scope":
		return stringList(i.ctx.Scope), nil
	}
	if value, ok := i.builtins[name]; ok {
		return value, nil
	}
	return nil, object.Errorf(object.NameErrorKind, "name '%s' is not defined", name).At(line)
}

func stringList(values []string) *object.List {
	elements := make([]object.Object, len(values))
	for n, v := range values {
		elements[n] = &object.String{Value: v}
	}
	return &object.List{Elements: elements}
}

// readTarget reads the current value of an assignment target, for augmented
// assignment.
func (i *Interpreter) readTarget(target ast.Expression, env *object.Environment, line int) (object.Object, object.Object) {
	value, err := i.eval(target, env)
	if err != nil {
		return nil, err.At(line)
	}
	return value, nil
}

// assignTarget stores a value through a name, attribute or index target.
func (i *Interpreter) assignTarget(target ast.Expression, value object.Object, env *object.Environment, line int) object.Object {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := env.Set(t.Value, value); err != nil {
			return err.At(line)
		}
		return nil

	case *ast.AttributeReference:
		owner, err := i.eval(t.Object, env)
		if err != nil {
			return err.At(line)
		}
		switch o := owner.(type) {
		case *object.Instance:
			o.Fields[t.Name] = value
			return nil
		case *object.Module:
			o.Attributes[t.Name] = value
			return nil
		}
		return object.Errorf(object.AttributeErrorKind,
			"cannot set attribute '%s' on %s", t.Name, object.TypeName(owner)).At(line)

	case *ast.IndexReference:
		owner, err := i.eval(t.Object, env)
		if err != nil {
			return err.At(line)
		}
		index, err := i.eval(t.Index, env)
		if err != nil {
			return err.At(line)
		}
		return i.writeIndex(owner, index, value, line)
	}
	return object.Errorf(object.TypeErrorKind, "cannot assign to %s", target.String()).At(line)
}

// readIndex implements subscripting. Negative indices count from the end.
func (i *Interpreter) readIndex(owner, index object.Object, line int) (object.Object, *object.Error) {
	switch o := owner.(type) {
	case *object.List:
		n, err := sequenceIndex(index, len(o.Elements), line)
		if err != nil {
			return nil, err
		}
		return o.Elements[n], nil
	case *object.Tuple:
		n, err := sequenceIndex(index, len(o.Elements), line)
		if err != nil {
			return nil, err
		}
		return o.Elements[n], nil
	case *object.String:
		runes := []rune(o.Value)
		n, err := sequenceIndex(index, len(runes), line)
		if err != nil {
			return nil, err
		}
		return &object.String{Value: string(runes[n])}, nil
	case *object.Bytes:
		n, err := sequenceIndex(index, len(o.Value), line)
		if err != nil {
			return nil, err
		}
		return &object.Integer{Value: int64(o.Value[n])}, nil
	case *object.Dict:
		value, ok, err := o.Get(index)
		if err != nil {
			return nil, err.At(line)
		}
		if !ok {
			return nil, object.Errorf(object.KeyErrorKind, "%s", index.Inspect()).At(line)
		}
		return value, nil
	}
	return nil, object.Errorf(object.TypeErrorKind,
		"%s is not subscriptable", object.TypeName(owner)).At(line)
}

func (i *Interpreter) writeIndex(owner, index, value object.Object, line int) object.Object {
	switch o := owner.(type) {
	case *object.List:
		n, err := sequenceIndex(index, len(o.Elements), line)
		if err != nil {
			return err
		}
		o.Elements[n] = value
		return nil
	case *object.Dict:
		if err := o.Set(index, value); err != nil {
			return err.At(line)
		}
		return nil
	}
	return object.Errorf(object.TypeErrorKind,
		"%s does not support item assignment", object.TypeName(owner)).At(line)
}

func sequenceIndex(index object.Object, length int, line int) (int, *object.Error) {
	var n int64
	switch idx := index.(type) {
	case *object.Integer:
		n = idx.Value
	case *object.Boolean:
		if idx.Value {
			n = 1
		}
	default:
		return 0, object.Errorf(object.TypeErrorKind,
			"indices must be integers, not %s", object.TypeName(index)).At(line)
	}
	if n < 0 {
		n += int64(length)
	}
	if n < 0 || n >= int64(length) {
		return 0, object.Errorf(object.IndexErrorKind, "index out of range").At(line)
	}
	return int(n), nil
}

func (i *Interpreter) evalDefaults(params []ast.Parameter, env *object.Environment) (map[string]object.Object, *object.Error) {
	var defaults map[string]object.Object
	for _, param := range params {
		if param.Default == nil {
			continue
		}
		value, err := i.eval(param.Default, env)
		if err != nil {
			return nil, err
		}
		if defaults == nil {
			defaults = map[string]object.Object{}
		}
		defaults[param.Name] = value
	}
	return defaults, nil
}

// makeFunction builds a function value. Defaults are evaluated once, at
// definition time.
func (i *Interpreter) makeFunction(def *ast.FunctionDefinition, env *object.Environment) (*object.Function, *object.Error) {
	defaults, err := i.evalDefaults(def.Parameters, env)
	if err != nil {
		return nil, err
	}
	return &object.Function{
		Name:       def.Name,
		Parameters: def.Parameters,
		Defaults:   defaults,
		Body:       def.Body,
		Env:        env,
		Docstring:  def.Docstring,
		IsAsync:    def.IsAsync,
	}, nil
}
