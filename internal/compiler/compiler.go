// Package compiler lowers a strict subset of the AST into bytecode:
// literals, arithmetic/comparison/logical operators, name load/store,
// collection construction, conditional and loop control flow, and plain
// function calls. Anything else fails the whole compilation; no partial
// bytecode is ever returned.
package compiler

import (
	"fmt"

	"ward/internal/ast"
	"ward/internal/bytecode"
	"ward/internal/object"
)

// UnsupportedError reports the first AST node outside the compilable
// subset.
type UnsupportedError struct {
	Node   string
	Line   int
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("cannot compile %s at line %d: %s", e.Node, e.Line, e.Reason)
	}
	return fmt.Sprintf("cannot compile %s: %s", e.Node, e.Reason)
}

func unsupported(node string, line int, reason string) *UnsupportedError {
	return &UnsupportedError{Node: node, Line: line, Reason: reason}
}

type constantKey struct {
	kind  string
	value string
}

type loopContext struct {
	start  int   // jump target for CONTINUE
	breaks []int // JUMP placeholders patched to the loop's end
}

type Compiler struct {
	instructions bytecode.Instructions
	constants    []object.Object
	constantIdx  map[constantKey]int
	names        []string
	nameIdx      map[string]int
	loops        []*loopContext
}

func New() *Compiler {
	return &Compiler{
		constantIdx: map[constantKey]int{},
		nameIdx:     map[string]int{},
	}
}

// Compile lowers a whole program.
func Compile(program *ast.Program) (*bytecode.Program, error) {
	c := New()
	for _, stmt := range program.Statements {
		if err := c.statement(stmt); err != nil {
			return nil, err
		}
	}
	return &bytecode.Program{
		Instructions: c.instructions,
		Constants:    c.constants,
		Names:        c.names,
	}, nil
}

func (c *Compiler) statement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.SetStatement:
		if err := c.expression(s.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpSetGlobal, c.name(s.Name))
		return nil

	case *ast.AssignmentStatement:
		if s.Destructured {
			return unsupported("destructuring assignment", s.Token.Line, "multiple targets need the interpreter")
		}
		target, ok := s.Targets[0].(*ast.Identifier)
		if !ok {
			return unsupported("assignment target", s.Token.Line, "only plain names are compilable")
		}
		if err := c.expression(s.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpSetGlobal, c.name(target.Value))
		return nil

	case *ast.ExpressionStatement:
		if err := c.expression(s.Expression); err != nil {
			return err
		}
		c.emit(bytecode.OpPop)
		return nil

	case *ast.IfStatement:
		return c.ifStatement(s)

	case *ast.WhileStatement:
		return c.whileStatement(s)

	case *ast.BreakStatement:
		if len(c.loops) == 0 {
			return unsupported("BREAK", s.Token.Line, "no enclosing loop")
		}
		loop := c.loops[len(c.loops)-1]
		loop.breaks = append(loop.breaks, c.emit(bytecode.OpJump, 0xFFFF))
		return nil

	case *ast.ContinueStatement:
		if len(c.loops) == 0 {
			return unsupported("CONTINUE", s.Token.Line, "no enclosing loop")
		}
		c.emit(bytecode.OpJump, c.loops[len(c.loops)-1].start)
		return nil

	case *ast.PassStatement:
		return nil

	case *ast.ReturnStatement:
		if s.Value != nil {
			if err := c.expression(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.OpNone)
		}
		c.emit(bytecode.OpReturn)
		return nil
	}
	return unsupported(fmt.Sprintf("%T", stmt), 0, "outside the bytecode subset")
}

func (c *Compiler) ifStatement(s *ast.IfStatement) error {
	// chain of condition tests, each falling through to the next branch
	var exits []int
	branch := func(condition ast.Expression, body []ast.Statement) (int, error) {
		if err := c.expression(condition); err != nil {
			return 0, err
		}
		skip := c.emit(bytecode.OpJumpIfFalse, 0xFFFF)
		if err := c.block(body); err != nil {
			return 0, err
		}
		exits = append(exits, c.emit(bytecode.OpJump, 0xFFFF))
		return skip, nil
	}
	skip, err := branch(s.Condition, s.Body)
	if err != nil {
		return err
	}
	c.patch(skip)
	for _, elif := range s.Elifs {
		skip, err := branch(elif.Condition, elif.Body)
		if err != nil {
			return err
		}
		c.patch(skip)
	}
	if err := c.block(s.Else); err != nil {
		return err
	}
	for _, exit := range exits {
		c.patch(exit)
	}
	return nil
}

func (c *Compiler) whileStatement(s *ast.WhileStatement) error {
	start := len(c.instructions)
	if err := c.expression(s.Condition); err != nil {
		return err
	}
	exit := c.emit(bytecode.OpJumpIfFalse, 0xFFFF)
	loop := &loopContext{start: start}
	c.loops = append(c.loops, loop)
	err := c.block(s.Body)
	c.loops = c.loops[:len(c.loops)-1]
	if err != nil {
		return err
	}
	c.emit(bytecode.OpJump, start)
	c.patch(exit)
	// the ELSE suite runs only when the condition went false; BREAK jumps
	// land past it
	if err := c.block(s.Else); err != nil {
		return err
	}
	for _, brk := range loop.breaks {
		c.patch(brk)
	}
	return nil
}

func (c *Compiler) block(body []ast.Statement) error {
	for _, stmt := range body {
		if err := c.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) expression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emit(bytecode.OpConstant, c.constant(&object.Integer{Value: e.Value}))
		return nil
	case *ast.FloatLiteral:
		c.emit(bytecode.OpConstant, c.constant(&object.Float{Value: e.Value}))
		return nil
	case *ast.StringLiteral:
		c.emit(bytecode.OpConstant, c.constant(&object.String{Value: e.Value}))
		return nil
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(bytecode.OpTrue)
		} else {
			c.emit(bytecode.OpFalse)
		}
		return nil
	case *ast.NoneLiteral:
		c.emit(bytecode.OpNone)
		return nil

	case *ast.Identifier:
		c.emit(bytecode.OpGetGlobal, c.name(e.Value))
		return nil

	case *ast.UnaryExpression:
		if err := c.expression(e.Operand); err != nil {
			return err
		}
		operand, ok := bytecode.UnaryOperand(e.Operator)
		if !ok {
			return unsupported("unary operator "+e.Operator, e.Token.Line, "no bytecode encoding")
		}
		c.emit(bytecode.OpUnary, int(operand))
		return nil

	case *ast.BinaryExpression:
		if err := c.expression(e.Left); err != nil {
			return err
		}
		if err := c.expression(e.Right); err != nil {
			return err
		}
		operand, ok := bytecode.BinaryOperand(e.Operator)
		if !ok {
			return unsupported("operator "+string(e.Operator), e.Token.Line, "no bytecode encoding")
		}
		c.emit(bytecode.OpBinary, int(operand))
		return nil

	case *ast.ConditionalExpression:
		if err := c.expression(e.Condition); err != nil {
			return err
		}
		skip := c.emit(bytecode.OpJumpIfFalse, 0xFFFF)
		if err := c.expression(e.IfTrue); err != nil {
			return err
		}
		exit := c.emit(bytecode.OpJump, 0xFFFF)
		c.patch(skip)
		if err := c.expression(e.IfFalse); err != nil {
			return err
		}
		c.patch(exit)
		return nil

	case *ast.ListExpression:
		if err := c.expressions(e.Elements); err != nil {
			return err
		}
		c.emit(bytecode.OpList, len(e.Elements))
		return nil

	case *ast.TupleExpression:
		if err := c.expressions(e.Elements); err != nil {
			return err
		}
		c.emit(bytecode.OpTuple, len(e.Elements))
		return nil

	case *ast.SetExpression:
		if err := c.expressions(e.Elements); err != nil {
			return err
		}
		c.emit(bytecode.OpSet, len(e.Elements))
		return nil

	case *ast.DictExpression:
		for _, entry := range e.Entries {
			if err := c.expression(entry.Key); err != nil {
				return err
			}
			if err := c.expression(entry.Value); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpDict, len(e.Entries))
		return nil

	case *ast.IndexReference:
		if err := c.expression(e.Object); err != nil {
			return err
		}
		if err := c.expression(e.Index); err != nil {
			return err
		}
		c.emit(bytecode.OpIndex)
		return nil

	case *ast.CallExpression:
		if len(e.Keywords) > 0 {
			return unsupported("keyword arguments", e.Token.Line, "calls compile with positional arguments only")
		}
		if err := c.expression(e.Callee); err != nil {
			return err
		}
		if err := c.expressions(e.Args); err != nil {
			return err
		}
		c.emit(bytecode.OpCall, len(e.Args))
		return nil
	}
	return unsupported(fmt.Sprintf("%T", expr), 0, "outside the bytecode subset")
}

func (c *Compiler) expressions(exprs []ast.Expression) error {
	for _, expr := range exprs {
		if err := c.expression(expr); err != nil {
			return err
		}
	}
	return nil
}

// emit appends one instruction and returns its position.
func (c *Compiler) emit(op bytecode.Opcode, operands ...int) int {
	pos := len(c.instructions)
	c.instructions = append(c.instructions, bytecode.Make(op, operands...)...)
	return pos
}

// patch rewrites the jump at pos to target the current stream end.
func (c *Compiler) patch(pos int) {
	target := len(c.instructions)
	op := bytecode.Opcode(c.instructions[pos])
	replacement := bytecode.Make(op, target)
	copy(c.instructions[pos:], replacement)
}

// constant interns a literal in the pool.
func (c *Compiler) constant(value object.Object) int {
	key := constantKey{kind: string(value.Type()), value: value.Inspect()}
	if idx, ok := c.constantIdx[key]; ok {
		return idx
	}
	idx := len(c.constants)
	c.constants = append(c.constants, value)
	c.constantIdx[key] = idx
	return idx
}

// name interns a global name.
func (c *Compiler) name(name string) int {
	if idx, ok := c.nameIdx[name]; ok {
		return idx
	}
	idx := len(c.names)
	c.names = append(c.names, name)
	c.nameIdx[name] = idx
	return idx
}
