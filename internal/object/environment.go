package object

// Environment is one lexical frame. Lookup walks the chain from the
// innermost frame outward; assignment binds in the innermost frame unless
// the name was declared GLOBAL or NONLOCAL in it.
type Environment struct {
	store    map[string]Object
	outer    *Environment
	globals  *Environment
	global   map[string]bool
	nonlocal map[string]bool
}

func NewEnvironment() *Environment {
	env := &Environment{store: map[string]Object{}}
	env.globals = env
	return env
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: map[string]Object{}, outer: outer, globals: outer.globals}
}

func (e *Environment) Get(name string) (Object, bool) {
	for env := e; env != nil; env = env.outer {
		if value, ok := env.store[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// GetLocal reads a name in this frame only.
func (e *Environment) GetLocal(name string) (Object, bool) {
	value, ok := e.store[name]
	return value, ok
}

// Set binds a name according to the frame's declarations.
func (e *Environment) Set(name string, value Object) *Error {
	if e.global[name] {
		e.globals.store[name] = value
		return nil
	}
	if e.nonlocal[name] {
		for env := e.outer; env != nil && env != e.globals; env = env.outer {
			if _, ok := env.store[name]; ok {
				env.store[name] = value
				return nil
			}
		}
		return Errorf(NameErrorKind, "no binding for nonlocal '%s' found", name)
	}
	e.store[name] = value
	return nil
}

// SetLocal binds in this frame unconditionally, ignoring declarations.
func (e *Environment) SetLocal(name string, value Object) {
	e.store[name] = value
}

func (e *Environment) Delete(name string) bool {
	if _, ok := e.store[name]; ok {
		delete(e.store, name)
		return true
	}
	return false
}

// DeclareGlobal routes later assignments of the names to module scope.
func (e *Environment) DeclareGlobal(names []string) {
	if e.global == nil {
		e.global = map[string]bool{}
	}
	for _, name := range names {
		e.global[name] = true
	}
}

// DeclareNonlocal routes later assignments to the nearest enclosing frame
// that already binds the name. The target must exist by assignment time.
func (e *Environment) DeclareNonlocal(names []string) *Error {
	if e.outer == nil {
		return Errorf(NameErrorKind, "NONLOCAL declaration outside of a function")
	}
	if e.nonlocal == nil {
		e.nonlocal = map[string]bool{}
	}
	for _, name := range names {
		e.nonlocal[name] = true
	}
	return nil
}

// Globals returns the module-scope frame at the root of the chain.
func (e *Environment) Globals() *Environment { return e.globals }

// IsModuleScope reports whether this frame is the module-scope frame.
func (e *Environment) IsModuleScope() bool { return e == e.globals }

// Bindings returns a copy of this frame's own bindings.
func (e *Environment) Bindings() map[string]Object {
	out := make(map[string]Object, len(e.store))
	for name, value := range e.store {
		out[name] = value
	}
	return out
}
