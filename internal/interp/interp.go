// Package interp is the tree-walking interpreter. It owns the memory model
// (lexical frames over a module scope), control-flow signal propagation,
// cooperative async resolution and the recording of tasks, actions,
// findings and embedded assets into a runtime.Context.
package interp

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ward/internal/ast"
	"ward/internal/object"
	"ward/internal/resolver"
	"ward/internal/runtime"
)

// Plugin runs against a freshly constructed interpreter before any script
// statement executes. A failing plugin aborts construction.
type Plugin func(*Interpreter) error

// RuntimeError is the umbrella error Execute returns when a script error
// escapes every handler. The kinded error value is available via Unwrap.
type RuntimeError struct {
	Err *object.Error
}

func (e *RuntimeError) Error() string { return e.Err.Inspect() }
func (e *RuntimeError) Unwrap() error { return e.Err }

type Interpreter struct {
	ctx      *runtime.Context
	globals  *object.Environment
	builtins map[string]object.Object
	resolver *resolver.Resolver
	logger   *slog.Logger
	stdin    io.Reader
	stdout   io.Writer

	modules   map[string]*object.Module
	loading   map[string]bool
	funcDepth int
	// innermost error being handled, for bare RAISE
	handledErr *object.Error
}

// New builds an interpreter with a fresh context, installs the builtin
// registry and applies every plugin exactly once, in order. The resolver
// may be nil; imports then fail with ImportError.
func New(res *resolver.Resolver, plugins ...Plugin) (*Interpreter, error) {
	i := &Interpreter{
		ctx:      runtime.NewContext(),
		globals:  object.NewEnvironment(),
		resolver: res,
		logger:   slog.Default(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		modules:  map[string]*object.Module{},
		loading:  map[string]bool{},
	}
	i.builtins = i.loadBuiltins()
	for n, plugin := range plugins {
		if err := plugin(i); err != nil {
			return nil, errors.Wrapf(err, "applying plugin %d", n)
		}
		i.logger.Debug("plugin applied", "index", n)
	}
	return i, nil
}

// SetLogger replaces the interpreter's logger.
func (i *Interpreter) SetLogger(logger *slog.Logger) { i.logger = logger }

// SetIO redirects the input/print builtins, mainly for tests and embedding.
func (i *Interpreter) SetIO(stdin io.Reader, stdout io.Writer) {
	if stdin != nil {
		i.stdin = stdin
	}
	if stdout != nil {
		i.stdout = stdout
	}
}

// Context exposes a read view of the recording state.
func (i *Interpreter) Context() *runtime.Context { return i.ctx }

// RegisterBuiltin installs a value in the builtin registry. Builtins are
// resolved after every frame, so an ordinary assignment to the same name
// shadows it without destroying it.
func (i *Interpreter) RegisterBuiltin(name string, value object.Object) {
	i.builtins[name] = value
}

// Builtin looks a builtin up by its registry name, bypassing user bindings.
func (i *Interpreter) Builtin(name string) (object.Object, bool) {
	value, ok := i.builtins[name]
	return value, ok
}

// Execute runs a parsed program to completion. On a runtime error the
// partial result is still returned alongside the error: everything recorded
// before the failing statement stays visible.
func (i *Interpreter) Execute(program *ast.Program) (*runtime.Result, error) {
	for _, stmt := range program.Statements {
		signal := i.execStatement(stmt, i.globals)
		if signal == nil {
			continue
		}
		if errObj := i.signalToError(signal); errObj != nil {
			i.logger.Debug("run aborted", "error", errObj.Inspect())
			return i.snapshot(), &RuntimeError{Err: errObj}
		}
	}
	return i.snapshot(), nil
}

// signalToError turns an escaped control signal into the runtime error the
// caller sees. BREAK/CONTINUE/RETURN reaching the top level are reportable
// errors, never silent no-ops.
func (i *Interpreter) signalToError(signal object.Object) *object.Error {
	switch sig := signal.(type) {
	case *object.Error:
		return sig
	case *object.BreakSignal:
		return object.Errorf(object.ControlFlowErrorKind, "BREAK outside of a loop")
	case *object.ContinueSignal:
		return object.Errorf(object.ControlFlowErrorKind, "CONTINUE outside of a loop")
	case *object.ReturnValue:
		return object.Errorf(object.ControlFlowErrorKind, "RETURN used outside of a function")
	}
	return nil
}

func (i *Interpreter) snapshot() *runtime.Result {
	return i.ctx.Snapshot(i.snapshotVariables())
}

// snapshotVariables renders module-scope bindings as plain data, skipping
// callables the way the result contract demands.
func (i *Interpreter) snapshotVariables() map[string]interface{} {
	out := map[string]interface{}{}
	for name, value := range i.globals.Bindings() {
		switch value.(type) {
		case *object.Function, *object.Lambda, *object.Builtin, *object.Class,
			*object.Module, *object.ErrorClass:
			continue
		}
		out[name] = Plain(value)
	}
	return out
}

// execBlock runs statements until one yields a control signal.
func (i *Interpreter) execBlock(body []ast.Statement, env *object.Environment) object.Object {
	for _, stmt := range body {
		if signal := i.execStatement(stmt, env); signal != nil {
			return signal
		}
	}
	return nil
}

// execStatement returns nil on normal completion or a control carrier
// (*object.Error, *object.ReturnValue, BREAK, CONTINUE) to unwind.
func (i *Interpreter) execStatement(stmt ast.Statement, env *object.Environment) object.Object {
	switch s := stmt.(type) {
	case *ast.SetStatement:
		value, err := i.eval(s.Value, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		// SET always binds in module scope
		i.globals.SetLocal(s.Name, value)
		return nil

	case *ast.TargetStatement:
		items, err := i.coerceStrings(s.Value, env, s.Token.Line)
		if err != nil {
			return err
		}
		for _, item := range items {
			i.ctx.AddTarget(item)
		}
		return nil

	case *ast.ScopeStatement:
		items, err := i.coerceStrings(s.Value, env, s.Token.Line)
		if err != nil {
			return err
		}
		for _, item := range items {
			i.ctx.AddScope(item)
		}
		return nil

	case *ast.PayloadStatement:
		items, err := i.coerceStrings(s.Value, env, s.Token.Line)
		if err != nil {
			return err
		}
		i.ctx.Payloads[s.Name] = items
		return nil

	case *ast.EmbedStatement:
		return i.execEmbed(s, env)

	case *ast.TaskStatement:
		name := i.interpolate(s.Name)
		task := &runtime.Task{Name: name, Line: s.Token.Line, Docstring: s.Docstring}
		i.ctx.PushTask(task)
		i.logger.Debug("task opened", "task", name)
		signal := i.execBlock(s.Body, env)
		i.ctx.PopTask()
		i.logger.Debug("task closed", "task", name, "steps", len(task.Steps))
		return signal

	case *ast.PortScanStatement:
		ports, err := i.coerceStrings(s.Ports, env, s.Token.Line)
		if err != nil {
			return err
		}
		details := map[string]interface{}{"ports": ports, "tool": nil}
		if s.Tool != nil {
			tool, err := i.evalString(s.Tool, env, s.Token.Line)
			if err != nil {
				return err
			}
			details["tool"] = tool
		}
		i.ctx.AddAction(runtime.Action{
			Kind:    "portscan",
			Summary: "Port scan ports " + strings.Join(ports, ", "),
			Details: details,
			Line:    s.Token.Line,
		})
		return nil

	case *ast.HTTPRequestStatement:
		target, err := i.evalString(s.Target, env, s.Token.Line)
		if err != nil {
			return err
		}
		details := map[string]interface{}{"method": s.Method, "target": target}
		if s.ExpectStatus != nil {
			details["expect_status"] = *s.ExpectStatus
		}
		if s.Contains != nil {
			contains, err := i.evalString(s.Contains, env, s.Token.Line)
			if err != nil {
				return err
			}
			details["contains"] = contains
		}
		i.ctx.AddAction(runtime.Action{
			Kind:    "http-check",
			Summary: "HTTP " + s.Method + " " + target,
			Details: details,
			Line:    s.Token.Line,
		})
		return nil

	case *ast.FuzzStatement:
		return i.execFuzz(s, env)

	case *ast.NoteStatement:
		message, err := i.evalString(s.Message, env, s.Token.Line)
		if err != nil {
			return err
		}
		i.ctx.AddNote(message)
		i.ctx.AddAction(runtime.Action{
			Kind:    "note",
			Summary: message,
			Line:    s.Token.Line,
		})
		return nil

	case *ast.FindingStatement:
		message, err := i.evalString(s.Message, env, s.Token.Line)
		if err != nil {
			return err
		}
		i.ctx.AddFinding(runtime.Finding{Severity: s.Severity, Message: message, Line: s.Token.Line})
		i.ctx.AddAction(runtime.Action{
			Kind:    "finding",
			Summary: s.Severity + ": " + message,
			Details: map[string]interface{}{"severity": s.Severity, "message": message},
			Line:    s.Token.Line,
		})
		return nil

	case *ast.RunStatement:
		command, err := i.evalString(s.Command, env, s.Token.Line)
		if err != nil {
			return err
		}
		details := map[string]interface{}{"command": command}
		if s.SaveAs != "" {
			details["save_as"] = s.SaveAs
			if setErr := env.Set(s.SaveAs, &object.String{Value: command}); setErr != nil {
				return setErr.At(s.Token.Line)
			}
		}
		i.ctx.AddAction(runtime.Action{
			Kind:    "run",
			Summary: "Run command: " + command,
			Details: details,
			Line:    s.Token.Line,
		})
		return nil

	case *ast.ReportStatement:
		destination, err := i.evalString(s.Destination, env, s.Token.Line)
		if err != nil {
			return err
		}
		i.ctx.ReportDestination = destination
		return nil

	case *ast.InputStatement:
		return i.execInput(s, env)

	case *ast.OutputStatement:
		return i.execOutput(s, env)

	case *ast.ForStatement:
		return i.execFor(s, env)

	case *ast.IfStatement:
		condition, err := i.eval(s.Condition, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		if object.Truthy(condition) {
			return i.execBlock(s.Body, env)
		}
		for _, elif := range s.Elifs {
			condition, err := i.eval(elif.Condition, env)
			if err != nil {
				return err.At(s.Token.Line)
			}
			if object.Truthy(condition) {
				return i.execBlock(elif.Body, env)
			}
		}
		return i.execBlock(s.Else, env)

	case *ast.WhileStatement:
		return i.execWhile(s, env)

	case *ast.BreakStatement:
		return object.BREAK

	case *ast.ContinueStatement:
		return object.CONTINUE

	case *ast.PassStatement:
		return nil

	case *ast.ReturnStatement:
		if i.funcDepth == 0 {
			return object.Errorf(object.ControlFlowErrorKind, "RETURN used outside of a function").At(s.Token.Line)
		}
		if s.Value == nil {
			return &object.ReturnValue{Value: object.NONE}
		}
		value, err := i.eval(s.Value, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		return &object.ReturnValue{Value: value}

	case *ast.FunctionDefinition:
		fn, err := i.makeFunction(s, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		if setErr := env.Set(s.Name, fn); setErr != nil {
			return setErr.At(s.Token.Line)
		}
		return nil

	case *ast.ClassDefinition:
		return i.execClass(s, env)

	case *ast.WithStatement:
		return i.execWith(s, env)

	case *ast.TryStatement:
		return i.execTry(s, env)

	case *ast.RaiseStatement:
		return i.execRaise(s, env)

	case *ast.ImportStatement:
		return i.execImport(s, env)

	case *ast.FromImportStatement:
		return i.execFromImport(s, env)

	case *ast.GlobalStatement:
		env.DeclareGlobal(s.Names)
		return nil

	case *ast.NonlocalStatement:
		if err := env.DeclareNonlocal(s.Names); err != nil {
			return err.At(s.Token.Line)
		}
		return nil

	case *ast.AssignmentStatement:
		return i.execAssignment(s, env)

	case *ast.AugmentedAssignmentStatement:
		current, err := i.readTarget(s.Target, env, s.Token.Line)
		if err != nil {
			return err
		}
		increment, evalErr := i.eval(s.Value, env)
		if evalErr != nil {
			return evalErr.At(s.Token.Line)
		}
		result, opErr := object.ApplyBinary(s.Operator, current, increment)
		if opErr != nil {
			return opErr.At(s.Token.Line)
		}
		return i.assignTarget(s.Target, result, env, s.Token.Line)

	case *ast.ExpressionStatement:
		_, err := i.eval(s.Expression, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		return nil
	}
	return object.Errorf(object.RuntimeErrorKind, "unsupported statement %T", stmt)
}

func (i *Interpreter) execFor(s *ast.ForStatement, env *object.Environment) object.Object {
	iterable, err := i.eval(s.Iterable, env)
	if err != nil {
		return err.At(s.Token.Line)
	}
	items, iterErr := i.iterate(iterable, s.Token.Line)
	if iterErr != nil {
		return iterErr
	}
	previous, existed := env.Get(s.Iterator)
	var signal object.Object
	broken := false
loop:
	for _, item := range items {
		if setErr := env.Set(s.Iterator, item); setErr != nil {
			signal = setErr.At(s.Token.Line)
			break
		}
		result := i.execBlock(s.Body, env)
		switch result.(type) {
		case nil:
		case *object.ContinueSignal:
			continue
		case *object.BreakSignal:
			broken = true
			break loop
		default:
			signal = result
			break loop
		}
	}
	if signal == nil && !broken {
		signal = i.execBlock(s.Else, env)
	}
	// the loop variable does not leak out of the loop
	if existed {
		if setErr := env.Set(s.Iterator, previous); setErr != nil && signal == nil {
			signal = setErr.At(s.Token.Line)
		}
	} else {
		env.Delete(s.Iterator)
	}
	return signal
}

func (i *Interpreter) execWhile(s *ast.WhileStatement, env *object.Environment) object.Object {
	broke := false
	for {
		condition, err := i.eval(s.Condition, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		if !object.Truthy(condition) {
			break
		}
		result := i.execBlock(s.Body, env)
		switch result.(type) {
		case nil, *object.ContinueSignal:
			continue
		case *object.BreakSignal:
			broke = true
		default:
			return result
		}
		break
	}
	// the ELSE suite runs only when the loop was not broken out of
	if !broke {
		return i.execBlock(s.Else, env)
	}
	return nil
}

func (i *Interpreter) execAssignment(s *ast.AssignmentStatement, env *object.Environment) object.Object {
	value, err := i.eval(s.Value, env)
	if err != nil {
		return err.At(s.Token.Line)
	}
	if !s.Destructured {
		return i.assignTarget(s.Targets[0], value, env, s.Token.Line)
	}
	items, iterErr := i.iterate(value, s.Token.Line)
	if iterErr != nil {
		return iterErr
	}
	if len(items) != len(s.Targets) {
		return object.Errorf(object.ValueErrorKind,
			"cannot unpack %d values into %d targets", len(items), len(s.Targets)).At(s.Token.Line)
	}
	for n, target := range s.Targets {
		if signal := i.assignTarget(target, items[n], env, s.Token.Line); signal != nil {
			return signal
		}
	}
	return nil
}

func (i *Interpreter) execFuzz(s *ast.FuzzStatement, env *object.Environment) object.Object {
	resource, err := i.evalString(s.Resource, env, s.Token.Line)
	if err != nil {
		return err
	}
	method := s.Method
	if method == "" {
		method = "GET"
	}
	var payloads []string
	if s.PayloadName != "" {
		values, ok := i.ctx.Payloads[s.PayloadName]
		if !ok {
			return object.Errorf(object.RuntimeErrorKind, "Unknown payload: %s", s.PayloadName).At(s.Token.Line)
		}
		payloads = append(payloads, values...)
	}
	if s.Payloads != nil {
		inline, err := i.coerceStrings(s.Payloads, env, s.Token.Line)
		if err != nil {
			return err
		}
		payloads = append(payloads, inline...)
	}
	count := "custom"
	if len(payloads) > 0 {
		count = strconv.Itoa(len(payloads))
	}
	summary := "Fuzz " + resource + " using " + count + " payloads"
	i.ctx.AddAction(runtime.Action{
		Kind:    "fuzz",
		Summary: summary,
		Details: map[string]interface{}{"resource": resource, "method": method, "payloads": payloads},
		Line:    s.Token.Line,
	})
	return nil
}

func (i *Interpreter) execInput(s *ast.InputStatement, env *object.Environment) object.Object {
	inputFn, ok := i.builtins["input"]
	if !ok {
		return object.Errorf(object.RuntimeErrorKind, "INPUT statements require the 'input' builtin").At(s.Token.Line)
	}
	prompt := ""
	if s.Prompt != nil {
		value, err := i.eval(s.Prompt, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		if str, isStr := value.(*object.String); isStr {
			prompt = i.interpolate(str.Value)
		} else {
			prompt = value.Inspect()
		}
	}
	value, callErr := i.callValue(inputFn, []object.Object{&object.String{Value: prompt}}, nil, s.Token.Line)
	if callErr != nil {
		return callErr.At(s.Token.Line)
	}
	if s.Target != "" {
		if setErr := env.Set(s.Target, value); setErr != nil {
			return setErr.At(s.Token.Line)
		}
	}
	name := s.Target
	if name == "" {
		name = "value"
	}
	i.ctx.AddAction(runtime.Action{
		Kind:    "input",
		Summary: "Input " + name,
		Details: map[string]interface{}{"prompt": prompt, "value": Plain(value)},
		Line:    s.Token.Line,
	})
	return nil
}

func (i *Interpreter) execOutput(s *ast.OutputStatement, env *object.Environment) object.Object {
	printFn, ok := i.builtins["print"]
	if !ok {
		return object.Errorf(object.RuntimeErrorKind, "OUTPUT statements require the 'print' builtin").At(s.Token.Line)
	}
	value, err := i.eval(s.Value, env)
	if err != nil {
		return err.At(s.Token.Line)
	}
	if str, isStr := value.(*object.String); isStr {
		value = &object.String{Value: i.interpolate(str.Value)}
	}
	if _, callErr := i.callValue(printFn, []object.Object{value}, nil, s.Token.Line); callErr != nil {
		return callErr.At(s.Token.Line)
	}
	i.ctx.AddAction(runtime.Action{
		Kind:    "output",
		Summary: "Output " + value.Inspect(),
		Details: map[string]interface{}{"value": Plain(value)},
		Line:    s.Token.Line,
	})
	return nil
}

func (i *Interpreter) execClass(s *ast.ClassDefinition, env *object.Environment) object.Object {
	var bases []*object.Class
	for _, baseExpr := range s.Bases {
		base, err := i.eval(baseExpr, env)
		if err != nil {
			return err.At(s.Token.Line)
		}
		cls, ok := base.(*object.Class)
		if !ok {
			return object.Errorf(object.TypeErrorKind, "class base must be a class, not %s",
				object.TypeName(base)).At(s.Token.Line)
		}
		bases = append(bases, cls)
	}
	classEnv := object.NewEnclosedEnvironment(env)
	if signal := i.execBlock(s.Body, classEnv); signal != nil {
		return signal
	}
	cls := &object.Class{
		Name:       s.Name,
		Bases:      bases,
		Attributes: classEnv.Bindings(),
		Docstring:  s.Docstring,
	}
	if setErr := env.Set(s.Name, cls); setErr != nil {
		return setErr.At(s.Token.Line)
	}
	return nil
}

func (i *Interpreter) execWith(s *ast.WithStatement, env *object.Environment) object.Object {
	withEnv := object.NewEnclosedEnvironment(env)
	var entered []object.Object
	var signal object.Object
	for _, item := range s.Items {
		manager, err := i.eval(item.Context, withEnv)
		if err != nil {
			signal = err.At(s.Token.Line)
			break
		}
		// values with an enter/exit protocol are managed; anything else
		// just binds
		bound := manager
		if enter, found := i.protocolMethod(manager, "__enter__"); found {
			value, enterErr := i.callValue(enter, nil, nil, s.Token.Line)
			if enterErr != nil {
				signal = enterErr.At(s.Token.Line)
				break
			}
			entered = append(entered, manager)
			bound = value
		}
		if item.Alias != "" {
			if setErr := withEnv.Set(item.Alias, bound); setErr != nil {
				signal = setErr.At(s.Token.Line)
				break
			}
		}
	}
	if signal == nil {
		signal = i.execBlock(s.Body, withEnv)
	}
	// __exit__ runs for every successfully entered manager, inner first
	for n := len(entered) - 1; n >= 0; n-- {
		exit, found := i.protocolMethod(entered[n], "__exit__")
		if !found {
			continue
		}
		if _, exitErr := i.callValue(exit, nil, nil, s.Token.Line); exitErr != nil && signal == nil {
			signal = exitErr.At(s.Token.Line)
		}
	}
	return signal
}

// protocolMethod looks up a dunder method without raising on absence.
func (i *Interpreter) protocolMethod(value object.Object, name string) (object.Object, bool) {
	method, err := i.getAttribute(value, name, 0)
	if err != nil {
		return nil, false
	}
	return method, true
}

func (i *Interpreter) execTry(s *ast.TryStatement, env *object.Environment) object.Object {
	signal := i.execBlock(s.Body, env)
	if errObj, failed := signal.(*object.Error); failed {
		// an unmatched error falls through to FINALLY and propagates
		for _, handler := range s.Handlers {
			match, matchErr := i.handlerMatches(handler, errObj, env, s.Token.Line)
			if matchErr != nil {
				signal = matchErr
				break
			}
			if !match {
				continue
			}
			handlerEnv := object.NewEnclosedEnvironment(env)
			if handler.Alias != "" {
				bound := object.Object(errObj)
				if errObj.Payload != nil {
					bound = errObj.Payload
				}
				handlerEnv.SetLocal(handler.Alias, bound)
			}
			previous := i.handledErr
			i.handledErr = errObj
			signal = i.execBlock(handler.Body, handlerEnv)
			i.handledErr = previous
			break
		}
	} else if signal == nil {
		signal = i.execBlock(s.Else, env)
	}
	if len(s.Finally) > 0 {
		if finallySignal := i.execBlock(s.Finally, env); finallySignal != nil {
			return finallySignal
		}
	}
	return signal
}

func (i *Interpreter) handlerMatches(handler ast.ExceptHandler, errObj *object.Error, env *object.Environment, line int) (bool, object.Object) {
	if handler.Type == nil {
		return true, nil
	}
	expected, err := i.eval(handler.Type, env)
	if err != nil {
		return false, err.At(line)
	}
	candidates := []object.Object{expected}
	if tuple, ok := expected.(*object.Tuple); ok {
		candidates = tuple.Elements
	}
	for _, candidate := range candidates {
		switch c := candidate.(type) {
		case *object.ErrorClass:
			if c.Matches(errObj.Kind) {
				return true, nil
			}
		case *object.Class:
			if instance, ok := errObj.Payload.(*object.Instance); ok {
				if instance.Class.IsSubclassOf(c) {
					return true, nil
				}
			} else if c.Name == errObj.Kind {
				return true, nil
			}
		default:
			return false, object.Errorf(object.TypeErrorKind,
				"EXCEPT requires an error class, not %s", object.TypeName(candidate)).At(line)
		}
	}
	return false, nil
}

func (i *Interpreter) execRaise(s *ast.RaiseStatement, env *object.Environment) object.Object {
	if s.Value == nil {
		if i.handledErr != nil {
			return i.handledErr
		}
		return object.Errorf(object.RuntimeErrorKind, "RAISE requires an exception value").At(s.Token.Line)
	}
	value, err := i.eval(s.Value, env)
	if err != nil {
		return err.At(s.Token.Line)
	}
	switch v := value.(type) {
	case *object.Error:
		return v.At(s.Token.Line)
	case *object.ErrorClass:
		return object.Errorf(v.Name, "").At(s.Token.Line)
	case *object.Instance:
		message := ""
		if raw, ok := v.Fields["message"]; ok {
			message = raw.Inspect()
		}
		return (&object.Error{Kind: v.Class.Name, Message: message, Payload: v}).At(s.Token.Line)
	}
	return object.Errorf(object.TypeErrorKind, "cannot raise value of type %s", object.TypeName(value)).At(s.Token.Line)
}

// coerceStrings evaluates an expression, iterates it and renders each item
// as an interpolated string.
func (i *Interpreter) coerceStrings(expr ast.Expression, env *object.Environment, line int) ([]string, *object.Error) {
	value, err := i.eval(expr, env)
	if err != nil {
		return nil, err.At(line)
	}
	items, iterErr := i.iterateErr(value, line)
	if iterErr != nil {
		return nil, iterErr
	}
	out := make([]string, len(items))
	for n, item := range items {
		out[n] = i.interpolate(item.Inspect())
	}
	return out, nil
}

// evalString evaluates an expression that must produce a string and
// interpolates {name} markers in it.
func (i *Interpreter) evalString(expr ast.Expression, env *object.Environment, line int) (string, object.Object) {
	value, err := i.eval(expr, env)
	if err != nil {
		return "", err.At(line)
	}
	str, ok := value.(*object.String)
	if !ok {
		return "", object.Errorf(object.TypeErrorKind, "expected string value, got %s", object.TypeName(value)).At(line)
	}
	return i.interpolate(str.Value), nil
}

// iterate yields the elements of a value. Strings iterate as a single
// element: TARGET "host" records one target, not four characters.
func (i *Interpreter) iterate(value object.Object, line int) ([]object.Object, object.Object) {
	items, err := i.iterateErr(value, line)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (i *Interpreter) iterateErr(value object.Object, line int) ([]object.Object, *object.Error) {
	switch v := value.(type) {
	case *object.String:
		return []object.Object{v}, nil
	case *object.List:
		return append([]object.Object(nil), v.Elements...), nil
	case *object.Tuple:
		return append([]object.Object(nil), v.Elements...), nil
	case *object.Set:
		return v.Elements(), nil
	case *object.Dict:
		keys := make([]object.Object, 0, v.Len())
		for _, pair := range v.Pairs() {
			keys = append(keys, pair.Key)
		}
		return keys, nil
	}
	return nil, object.Errorf(object.TypeErrorKind, "value of type %s is not iterable", object.TypeName(value)).At(line)
}
