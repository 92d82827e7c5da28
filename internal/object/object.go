// Package object defines the runtime value system. The same values and the
// same operator semantics are shared by the tree-walking interpreter and
// the bytecode VM, which keeps the two backends observably equivalent.
package object

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"ward/internal/ast"
)

type ObjectType string

const (
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	BOOLEAN_OBJ  = "BOOLEAN"
	STRING_OBJ   = "STRING"
	BYTES_OBJ    = "BYTES"
	NONE_OBJ     = "NONE"
	LIST_OBJ     = "LIST"
	TUPLE_OBJ    = "TUPLE"
	SET_OBJ      = "SET"
	DICT_OBJ     = "DICT"
	FUNCTION_OBJ = "FUNCTION"
	LAMBDA_OBJ   = "LAMBDA"
	BUILTIN_OBJ  = "BUILTIN"
	DEFERRED_OBJ = "DEFERRED"
	CLASS_OBJ    = "CLASS"
	INSTANCE_OBJ = "INSTANCE"
	MODULE_OBJ   = "MODULE"

	RETURN_VALUE_OBJ = "RETURN_VALUE"
	BREAK_OBJ        = "BREAK"
	CONTINUE_OBJ     = "CONTINUE"
	ERROR_OBJ        = "ERROR"
	ERROR_CLASS_OBJ  = "ERROR_CLASS"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Shared singletons. NONE, TRUE and FALSE are compared by pointer all over
// the interpreter and the VM.
var (
	NONE  = &None{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	BREAK    = &BreakSignal{}
	CONTINUE = &ContinueSignal{}
)

func BooleanFor(value bool) *Boolean {
	if value {
		return TRUE
	}
	return FALSE
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return fmt.Sprintf("%d", i.Value) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string {
	s := fmt.Sprintf("%g", f.Value)
	// keep a float marker so 2.0 does not print as an integer
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "TRUE"
	}
	return "FALSE"
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type Bytes struct {
	Value []byte
}

func (b *Bytes) Type() ObjectType { return BYTES_OBJ }
func (b *Bytes) Inspect() string  { return fmt.Sprintf("b%q", string(b.Value)) }

type None struct{}

func (n *None) Type() ObjectType { return NONE_OBJ }
func (n *None) Inspect() string  { return "NONE" }

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	return "[" + inspectElements(l.Elements) + "]"
}

type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	if len(t.Elements) == 1 {
		return "(" + inspectElement(t.Elements[0]) + ",)"
	}
	return "(" + inspectElements(t.Elements) + ")"
}

// Set keeps insertion order so iteration and Inspect stay deterministic.
type Set struct {
	items map[HashKey]Object
	order []HashKey
}

func NewSet() *Set {
	return &Set{items: map[HashKey]Object{}}
}

func (s *Set) Type() ObjectType { return SET_OBJ }

func (s *Set) Add(value Object) *Error {
	key, err := HashOf(value)
	if err != nil {
		return err
	}
	if _, ok := s.items[key]; !ok {
		s.items[key] = value
		s.order = append(s.order, key)
	}
	return nil
}

func (s *Set) Has(value Object) (bool, *Error) {
	key, err := HashOf(value)
	if err != nil {
		return false, err
	}
	_, ok := s.items[key]
	return ok, nil
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Elements() []Object {
	out := make([]Object, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.items[key])
	}
	return out
}

func (s *Set) Inspect() string {
	if len(s.order) == 0 {
		return "set()"
	}
	return "{" + inspectElements(s.Elements()) + "}"
}

type DictPair struct {
	Key   Object
	Value Object
}

// Dict also keeps insertion order, same as the Set.
type Dict struct {
	pairs map[HashKey]DictPair
	order []HashKey
}

func NewDict() *Dict {
	return &Dict{pairs: map[HashKey]DictPair{}}
}

func (d *Dict) Type() ObjectType { return DICT_OBJ }

func (d *Dict) Set(key, value Object) *Error {
	hashed, err := HashOf(key)
	if err != nil {
		return err
	}
	if _, ok := d.pairs[hashed]; !ok {
		d.order = append(d.order, hashed)
	}
	d.pairs[hashed] = DictPair{Key: key, Value: value}
	return nil
}

func (d *Dict) Get(key Object) (Object, bool, *Error) {
	hashed, err := HashOf(key)
	if err != nil {
		return nil, false, err
	}
	pair, ok := d.pairs[hashed]
	if !ok {
		return nil, false, nil
	}
	return pair.Value, true, nil
}

func (d *Dict) Delete(key Object) (bool, *Error) {
	hashed, err := HashOf(key)
	if err != nil {
		return false, err
	}
	if _, ok := d.pairs[hashed]; !ok {
		return false, nil
	}
	delete(d.pairs, hashed)
	for i, k := range d.order {
		if k == hashed {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (d *Dict) Len() int { return len(d.order) }

func (d *Dict) Pairs() []DictPair {
	out := make([]DictPair, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.pairs[key])
	}
	return out
}

func (d *Dict) Inspect() string {
	parts := make([]string, 0, len(d.order))
	for _, pair := range d.Pairs() {
		parts = append(parts, inspectElement(pair.Key)+": "+inspectElement(pair.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Function is a user-defined function or method. BoundSelf is non-nil for
// methods retrieved through an instance.
type Function struct {
	Name       string
	Parameters []ast.Parameter
	Defaults   map[string]Object
	Body       []ast.Statement
	Env        *Environment
	Docstring  string
	IsAsync    bool
	BoundSelf  *Instance
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.IsAsync {
		return fmt.Sprintf("<async function %s>", f.Name)
	}
	return fmt.Sprintf("<function %s>", f.Name)
}

type Lambda struct {
	Parameters []ast.Parameter
	Defaults   map[string]Object
	Body       ast.Expression
	Env        *Environment
}

func (l *Lambda) Type() ObjectType { return LAMBDA_OBJ }
func (l *Lambda) Inspect() string  { return "<lambda>" }

// BuiltinFunction receives positional and keyword arguments already
// evaluated. It returns a value or a runtime error, never both.
type BuiltinFunction func(args []Object, kwargs map[string]Object) (Object, *Error)

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return fmt.Sprintf("<builtin %s>", b.Name) }

// Deferred is a single-shot staged computation. Resolve runs the thunk
// synchronously the first time and caches the outcome; later calls return
// the cached outcome without re-running side effects.
type Deferred struct {
	Name     string
	thunk    func() (Object, *Error)
	resolved bool
	result   Object
	failure  *Error
}

func NewDeferred(name string, thunk func() (Object, *Error)) *Deferred {
	return &Deferred{Name: name, thunk: thunk}
}

func (d *Deferred) Type() ObjectType { return DEFERRED_OBJ }
func (d *Deferred) Inspect() string {
	state := "pending"
	if d.resolved {
		state = "resolved"
	}
	return fmt.Sprintf("<deferred %s (%s)>", d.Name, state)
}

func (d *Deferred) Resolved() bool { return d.resolved }

func (d *Deferred) Resolve() (Object, *Error) {
	if !d.resolved {
		d.result, d.failure = d.thunk()
		d.resolved = true
		d.thunk = nil
	}
	return d.result, d.failure
}

type Class struct {
	Name       string
	Bases      []*Class
	Attributes map[string]Object
	Docstring  string
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return fmt.Sprintf("<class %s>", c.Name) }

// Lookup searches the class and its bases depth-first.
func (c *Class) Lookup(name string) (Object, bool) {
	if value, ok := c.Attributes[name]; ok {
		return value, true
	}
	for _, base := range c.Bases {
		if value, ok := base.Lookup(name); ok {
			return value, true
		}
	}
	return nil, false
}

// IsSubclassOf reports whether c is other or derives from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == other {
		return true
	}
	for _, base := range c.Bases {
		if base.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

type Instance struct {
	Class  *Class
	Fields map[string]Object
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string  { return fmt.Sprintf("<%s instance>", i.Class.Name) }

type Module struct {
	Name       string
	Attributes map[string]Object
	Docstring  string
}

func (m *Module) Type() ObjectType { return MODULE_OBJ }
func (m *Module) Inspect() string  { return fmt.Sprintf("<module %s>", m.Name) }

// Control-flow carriers -------------------------------------------------------

type ReturnValue struct {
	Value Object
}

func (r *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (r *ReturnValue) Inspect() string  { return r.Value.Inspect() }

type BreakSignal struct{}

func (b *BreakSignal) Type() ObjectType { return BREAK_OBJ }
func (b *BreakSignal) Inspect() string  { return "BREAK" }

type ContinueSignal struct{}

func (c *ContinueSignal) Type() ObjectType { return CONTINUE_OBJ }
func (c *ContinueSignal) Inspect() string  { return "CONTINUE" }

// Hashing ---------------------------------------------------------------------

type HashKey struct {
	Type  ObjectType
	Value uint64
}

// HashOf returns the hash key of a value, or a TypeError for unhashable
// kinds. Numerically equal values hash alike: 1, 1.0 and TRUE share a key.
func HashOf(value Object) (HashKey, *Error) {
	switch v := value.(type) {
	case *Integer:
		return HashKey{Type: INTEGER_OBJ, Value: uint64(v.Value)}, nil
	case *Boolean:
		if v.Value {
			return HashKey{Type: INTEGER_OBJ, Value: 1}, nil
		}
		return HashKey{Type: INTEGER_OBJ, Value: 0}, nil
	case *Float:
		if v.Value == float64(int64(v.Value)) {
			return HashKey{Type: INTEGER_OBJ, Value: uint64(int64(v.Value))}, nil
		}
		h := fnv.New64a()
		fmt.Fprintf(h, "%g", v.Value)
		return HashKey{Type: FLOAT_OBJ, Value: h.Sum64()}, nil
	case *String:
		h := fnv.New64a()
		h.Write([]byte(v.Value))
		return HashKey{Type: STRING_OBJ, Value: h.Sum64()}, nil
	case *Bytes:
		h := fnv.New64a()
		h.Write(v.Value)
		return HashKey{Type: BYTES_OBJ, Value: h.Sum64()}, nil
	case *None:
		return HashKey{Type: NONE_OBJ, Value: 0}, nil
	case *Tuple:
		h := fnv.New64a()
		for _, el := range v.Elements {
			key, err := HashOf(el)
			if err != nil {
				return HashKey{}, err
			}
			fmt.Fprintf(h, "%s:%d;", key.Type, key.Value)
		}
		return HashKey{Type: TUPLE_OBJ, Value: h.Sum64()}, nil
	}
	return HashKey{}, Errorf(TypeErrorKind, "unhashable type: %s", TypeName(value))
}

// TypeName is the script-facing name of a value's type, used in error
// messages and by the type() builtin.
func TypeName(value Object) string {
	switch v := value.(type) {
	case *Integer:
		return "int"
	case *Float:
		return "float"
	case *Boolean:
		return "bool"
	case *String:
		return "str"
	case *Bytes:
		return "bytes"
	case *None:
		return "NoneType"
	case *List:
		return "list"
	case *Tuple:
		return "tuple"
	case *Set:
		return "set"
	case *Dict:
		return "dict"
	case *Function, *Lambda:
		return "function"
	case *Builtin:
		return "builtin"
	case *Deferred:
		return "deferred"
	case *Class:
		return "class"
	case *Instance:
		return v.Class.Name
	case *Module:
		return "module"
	case *Error:
		return v.Kind
	case *ErrorClass:
		return "type"
	}
	return strings.ToLower(string(value.Type()))
}

// inspectElement quotes strings inside collections while Inspect leaves a
// top-level string bare.
func inspectElement(value Object) string {
	if s, ok := value.(*String); ok {
		return fmt.Sprintf("%q", s.Value)
	}
	return value.Inspect()
}

func inspectElements(elements []Object) string {
	parts := make([]string, len(elements))
	for i, el := range elements {
		parts[i] = inspectElement(el)
	}
	return strings.Join(parts, ", ")
}

// SortedNames is a small helper for deterministic rendering of name sets.
func SortedNames(m map[string]Object) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
