package interp

import (
	"ward/internal/ast"
	"ward/internal/object"
)

func (i *Interpreter) evalCall(e *ast.CallExpression, env *object.Environment) (object.Object, *object.Error) {
	callee, err := i.eval(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args, err := i.evalExpressions(e.Args, env)
	if err != nil {
		return nil, err
	}
	var kwargs map[string]object.Object
	if len(e.Keywords) > 0 {
		kwargs = make(map[string]object.Object, len(e.Keywords))
		for _, kw := range e.Keywords {
			value, err := i.eval(kw.Value, env)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name] = value
		}
	}
	result, callErr := i.callValue(callee, args, kwargs, e.Token.Line)
	if callErr != nil {
		return nil, callErr.At(e.Token.Line)
	}
	return result, nil
}

// callValue dispatches a call on any callable value. Calling an async
// function yields a pending Deferred instead of running the body.
func (i *Interpreter) callValue(callee object.Object, args []object.Object, kwargs map[string]object.Object, line int) (object.Object, *object.Error) {
	switch fn := callee.(type) {
	case *object.Function:
		if fn.IsAsync {
			return object.NewDeferred(fn.Name, func() (object.Object, *object.Error) {
				return i.invokeFunction(fn, args, kwargs, line)
			}), nil
		}
		return i.invokeFunction(fn, args, kwargs, line)

	case *object.Lambda:
		return i.invokeLambda(fn, args, kwargs, line)

	case *object.Builtin:
		return fn.Fn(args, kwargs)

	case *object.Class:
		return i.instantiate(fn, args, kwargs, line)

	case *object.ErrorClass:
		message := ""
		if len(args) > 0 {
			message = args[0].Inspect()
		}
		return &object.Error{Kind: fn.Name, Message: message}, nil
	}
	return nil, object.Errorf(object.TypeErrorKind,
		"%s is not callable", object.TypeName(callee))
}

// invokeFunction binds arguments into a fresh frame over the defining
// environment and runs the body. For a bound method the instance fills the
// first declared parameter.
func (i *Interpreter) invokeFunction(fn *object.Function, args []object.Object, kwargs map[string]object.Object, line int) (object.Object, *object.Error) {
	frame := object.NewEnclosedEnvironment(fn.Env)
	params := fn.Parameters
	if fn.BoundSelf != nil {
		if len(params) == 0 {
			return nil, object.Errorf(object.TypeErrorKind,
				"Function '%s' does not accept arguments", fn.Name).At(line)
		}
		frame.SetLocal(params[0].Name, fn.BoundSelf)
		params = params[1:]
	}
	if err := bindParameters(frame, fn.Name, params, fn.Defaults, args, kwargs); err != nil {
		return nil, err.At(line)
	}
	i.funcDepth++
	signal := i.execBlock(fn.Body, frame)
	i.funcDepth--
	switch sig := signal.(type) {
	case nil:
		return object.NONE, nil
	case *object.ReturnValue:
		return sig.Value, nil
	case *object.Error:
		return nil, sig
	case *object.BreakSignal:
		return nil, object.Errorf(object.ControlFlowErrorKind, "BREAK outside of a loop")
	case *object.ContinueSignal:
		return nil, object.Errorf(object.ControlFlowErrorKind, "CONTINUE outside of a loop")
	}
	return nil, object.Errorf(object.RuntimeErrorKind, "unexpected signal from function %s", fn.Name)
}

func (i *Interpreter) invokeLambda(fn *object.Lambda, args []object.Object, kwargs map[string]object.Object, line int) (object.Object, *object.Error) {
	frame := object.NewEnclosedEnvironment(fn.Env)
	if err := bindParameters(frame, "<lambda>", fn.Parameters, fn.Defaults, args, kwargs); err != nil {
		return nil, err.At(line)
	}
	return i.eval(fn.Body, frame)
}

// bindParameters fills a call frame: positionals first, keywords next,
// defaults last. Every parameter must end up bound exactly once.
func bindParameters(frame *object.Environment, name string, params []ast.Parameter, defaults map[string]object.Object, args []object.Object, kwargs map[string]object.Object) *object.Error {
	remaining := make(map[string]object.Object, len(kwargs))
	for kw, value := range kwargs {
		remaining[kw] = value
	}
	used := 0
	for _, param := range params {
		if used < len(args) {
			frame.SetLocal(param.Name, args[used])
			used++
			continue
		}
		if value, ok := remaining[param.Name]; ok {
			frame.SetLocal(param.Name, value)
			delete(remaining, param.Name)
			continue
		}
		if value, ok := defaults[param.Name]; ok {
			frame.SetLocal(param.Name, value)
			continue
		}
		return object.Errorf(object.TypeErrorKind,
			"Missing value for parameter '%s' in function '%s'", param.Name, name)
	}
	if used < len(args) || len(remaining) > 0 {
		return object.Errorf(object.TypeErrorKind,
			"Too many arguments supplied to function '%s'", name)
	}
	return nil
}

// instantiate builds an instance and runs __init__ when the class has one.
func (i *Interpreter) instantiate(cls *object.Class, args []object.Object, kwargs map[string]object.Object, line int) (object.Object, *object.Error) {
	instance := &object.Instance{Class: cls, Fields: map[string]object.Object{}}
	if init, ok := cls.Lookup("__init__"); ok {
		initFn, isFn := init.(*object.Function)
		if !isFn {
			return nil, object.Errorf(object.TypeErrorKind, "__init__ of %s is not a function", cls.Name)
		}
		bound := *initFn
		bound.BoundSelf = instance
		if _, err := i.invokeFunction(&bound, args, kwargs, line); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kwargs) > 0 {
		return nil, object.Errorf(object.TypeErrorKind, "%s() takes no arguments", cls.Name)
	}
	return instance, nil
}
