package object

import "fmt"

// Runtime error kinds. TRY/EXCEPT matches handlers against these names;
// every kind is caught by the umbrella "Error" class.
const (
	RuntimeErrorKind       = "RuntimeError"
	NameErrorKind          = "NameError"
	TypeErrorKind          = "TypeError"
	ValueErrorKind         = "ValueError"
	KeyErrorKind           = "KeyError"
	IndexErrorKind         = "IndexError"
	AttributeErrorKind     = "AttributeError"
	ZeroDivisionErrorKind  = "ZeroDivisionError"
	ImportErrorKind        = "ImportError"
	EmbedLanguageErrorKind = "EmbedLanguageError"
	ControlFlowErrorKind   = "ControlFlowError"
	IOErrorKind            = "IOError"

	baseErrorName = "Error"
)

// Error is a runtime error value. It travels through evaluation as an
// ordinary result variant; nothing in the interpreter or VM panics. Payload
// carries the raised instance when a script raises a class instance.
type Error struct {
	Kind    string
	Message string
	Line    int
	Payload Object
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }

func (e *Error) Inspect() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Error makes the value usable wherever a Go error is expected.
func (e *Error) Error() string { return e.Inspect() }

func Errorf(kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At pins an error to a source line unless an inner frame already did.
func (e *Error) At(line int) *Error {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

// ErrorClass is the script-visible constructor for a builtin error kind.
// Calling it produces an Error; naming it in EXCEPT matches that kind.
type ErrorClass struct {
	Name string
}

func (c *ErrorClass) Type() ObjectType { return ERROR_CLASS_OBJ }
func (c *ErrorClass) Inspect() string  { return fmt.Sprintf("<class %s>", c.Name) }

// Matches reports whether an error of the given kind is caught by this
// class. The base "Error" class catches every builtin kind.
func (c *ErrorClass) Matches(kind string) bool {
	return c.Name == kind || c.Name == baseErrorName
}

// ErrorClassNames lists every builtin error class, base class included.
func ErrorClassNames() []string {
	return []string{
		baseErrorName,
		RuntimeErrorKind,
		NameErrorKind,
		TypeErrorKind,
		ValueErrorKind,
		KeyErrorKind,
		IndexErrorKind,
		AttributeErrorKind,
		ZeroDivisionErrorKind,
		ImportErrorKind,
		EmbedLanguageErrorKind,
		ControlFlowErrorKind,
		IOErrorKind,
	}
}
