// Package ast defines the syntax tree produced by the parser. Every node
// keeps the token that introduced it so later stages can report positions.
package ast

import (
	"bytes"
	"strings"
	"ward/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of a parsed script or module.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Statements ---------------------------------------------------------------

// SetStatement binds a single name: SET name = value.
type SetStatement struct {
	Token token.Token
	Name  string
	Value Expression
}

func (s *SetStatement) statementNode()       {}
func (s *SetStatement) TokenLiteral() string { return s.Token.Literal }
func (s *SetStatement) String() string {
	return "SET " + s.Name + " = " + s.Value.String()
}

type TargetStatement struct {
	Token token.Token
	Value Expression
}

func (s *TargetStatement) statementNode()       {}
func (s *TargetStatement) TokenLiteral() string { return s.Token.Literal }
func (s *TargetStatement) String() string       { return "TARGET " + s.Value.String() }

type ScopeStatement struct {
	Token token.Token
	Value Expression
}

func (s *ScopeStatement) statementNode()       {}
func (s *ScopeStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ScopeStatement) String() string       { return "SCOPE " + s.Value.String() }

type PayloadStatement struct {
	Token token.Token
	Name  string
	Value Expression
}

func (s *PayloadStatement) statementNode()       {}
func (s *PayloadStatement) TokenLiteral() string { return s.Token.Literal }
func (s *PayloadStatement) String() string {
	return "PAYLOAD " + s.Name + " = " + s.Value.String()
}

// EmbedStatement records an inline asset in a named language. Metadata is
// the optional USING expression.
type EmbedStatement struct {
	Token    token.Token
	Language string
	Name     string
	Content  Expression
	Metadata Expression
}

func (s *EmbedStatement) statementNode()       {}
func (s *EmbedStatement) TokenLiteral() string { return s.Token.Literal }
func (s *EmbedStatement) String() string {
	var out bytes.Buffer
	out.WriteString("EMBED " + s.Language + " " + s.Name + " = " + s.Content.String())
	if s.Metadata != nil {
		out.WriteString(" USING " + s.Metadata.String())
	}
	return out.String()
}

type TaskStatement struct {
	Token     token.Token
	Name      string
	Body      []Statement
	Docstring string
}

func (s *TaskStatement) statementNode()       {}
func (s *TaskStatement) TokenLiteral() string { return s.Token.Literal }
func (s *TaskStatement) String() string {
	return "TASK \"" + s.Name + "\"" + blockString(s.Body)
}

type PortScanStatement struct {
	Token token.Token
	Ports Expression
	Tool  Expression
}

func (s *PortScanStatement) statementNode()       {}
func (s *PortScanStatement) TokenLiteral() string { return s.Token.Literal }
func (s *PortScanStatement) String() string {
	var out bytes.Buffer
	out.WriteString("PORTSCAN " + s.Ports.String())
	if s.Tool != nil {
		out.WriteString(" TOOL " + s.Tool.String())
	}
	return out.String()
}

type HTTPRequestStatement struct {
	Token        token.Token
	Method       string
	Target       Expression
	ExpectStatus *int64
	Contains     Expression
}

func (s *HTTPRequestStatement) statementNode()       {}
func (s *HTTPRequestStatement) TokenLiteral() string { return s.Token.Literal }
func (s *HTTPRequestStatement) String() string {
	var out bytes.Buffer
	out.WriteString("HTTP " + s.Method + " " + s.Target.String())
	if s.Contains != nil {
		out.WriteString(" CONTAINS " + s.Contains.String())
	}
	return out.String()
}

type FuzzStatement struct {
	Token       token.Token
	Resource    Expression
	Method      string
	PayloadName string
	Payloads    Expression
}

func (s *FuzzStatement) statementNode()       {}
func (s *FuzzStatement) TokenLiteral() string { return s.Token.Literal }
func (s *FuzzStatement) String() string       { return "FUZZ " + s.Resource.String() }

type NoteStatement struct {
	Token   token.Token
	Message Expression
}

func (s *NoteStatement) statementNode()       {}
func (s *NoteStatement) TokenLiteral() string { return s.Token.Literal }
func (s *NoteStatement) String() string       { return "NOTE " + s.Message.String() }

type FindingStatement struct {
	Token    token.Token
	Severity string
	Message  Expression
}

func (s *FindingStatement) statementNode()       {}
func (s *FindingStatement) TokenLiteral() string { return s.Token.Literal }
func (s *FindingStatement) String() string {
	return "FINDING " + s.Severity + " " + s.Message.String()
}

type RunStatement struct {
	Token   token.Token
	Command Expression
	SaveAs  string
}

func (s *RunStatement) statementNode()       {}
func (s *RunStatement) TokenLiteral() string { return s.Token.Literal }
func (s *RunStatement) String() string {
	var out bytes.Buffer
	out.WriteString("RUN " + s.Command.String())
	if s.SaveAs != "" {
		out.WriteString(" SAVE AS " + s.SaveAs)
	}
	return out.String()
}

type ReportStatement struct {
	Token       token.Token
	Destination Expression
}

func (s *ReportStatement) statementNode()       {}
func (s *ReportStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ReportStatement) String() string       { return "REPORT " + s.Destination.String() }

type InputStatement struct {
	Token  token.Token
	Prompt Expression
	Target string
}

func (s *InputStatement) statementNode()       {}
func (s *InputStatement) TokenLiteral() string { return s.Token.Literal }
func (s *InputStatement) String() string {
	var out bytes.Buffer
	out.WriteString("INPUT")
	if s.Prompt != nil {
		out.WriteString(" " + s.Prompt.String())
	}
	if s.Target != "" {
		out.WriteString(" AS " + s.Target)
	}
	return out.String()
}

type OutputStatement struct {
	Token token.Token
	Value Expression
}

func (s *OutputStatement) statementNode()       {}
func (s *OutputStatement) TokenLiteral() string { return s.Token.Literal }
func (s *OutputStatement) String() string       { return "OUTPUT " + s.Value.String() }

type ForStatement struct {
	Token    token.Token
	Iterator string
	Iterable Expression
	Body     []Statement
	Else     []Statement
}

func (s *ForStatement) statementNode()       {}
func (s *ForStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ForStatement) String() string {
	return "FOR " + s.Iterator + " IN " + s.Iterable.String() + blockString(s.Body)
}

type ElifBlock struct {
	Condition Expression
	Body      []Statement
}

type IfStatement struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
	Elifs     []ElifBlock
	Else      []Statement
}

func (s *IfStatement) statementNode()       {}
func (s *IfStatement) TokenLiteral() string { return s.Token.Literal }
func (s *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("IF " + s.Condition.String() + blockString(s.Body))
	for _, e := range s.Elifs {
		out.WriteString(" ELIF " + e.Condition.String() + blockString(e.Body))
	}
	if len(s.Else) > 0 {
		out.WriteString(" ELSE" + blockString(s.Else))
	}
	return out.String()
}

// WhileStatement carries an optional ELSE suite that runs when the loop
// finishes without BREAK.
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
	Else      []Statement
}

func (s *WhileStatement) statementNode()       {}
func (s *WhileStatement) TokenLiteral() string { return s.Token.Literal }
func (s *WhileStatement) String() string {
	return "WHILE " + s.Condition.String() + blockString(s.Body)
}

type BreakStatement struct {
	Token token.Token
}

func (s *BreakStatement) statementNode()       {}
func (s *BreakStatement) TokenLiteral() string { return s.Token.Literal }
func (s *BreakStatement) String() string       { return "BREAK" }

type ContinueStatement struct {
	Token token.Token
}

func (s *ContinueStatement) statementNode()       {}
func (s *ContinueStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ContinueStatement) String() string       { return "CONTINUE" }

type PassStatement struct {
	Token token.Token
}

func (s *PassStatement) statementNode()       {}
func (s *PassStatement) TokenLiteral() string { return s.Token.Literal }
func (s *PassStatement) String() string       { return "PASS" }

type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for a bare RETURN
}

func (s *ReturnStatement) statementNode()       {}
func (s *ReturnStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStatement) String() string {
	if s.Value == nil {
		return "RETURN"
	}
	return "RETURN " + s.Value.String()
}

type Parameter struct {
	Name    string
	Default Expression // nil when the parameter is required
}

func (p Parameter) String() string {
	if p.Default == nil {
		return p.Name
	}
	return p.Name + " = " + p.Default.String()
}

type FunctionDefinition struct {
	Token      token.Token
	Name       string
	Parameters []Parameter
	Body       []Statement
	Docstring  string
	IsAsync    bool
}

func (s *FunctionDefinition) statementNode()       {}
func (s *FunctionDefinition) TokenLiteral() string { return s.Token.Literal }
func (s *FunctionDefinition) String() string {
	var out bytes.Buffer
	if s.IsAsync {
		out.WriteString("ASYNC ")
	}
	out.WriteString("DEF " + s.Name + "(")
	params := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		params[i] = p.String()
	}
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	out.WriteString(blockString(s.Body))
	return out.String()
}

type ClassDefinition struct {
	Token     token.Token
	Name      string
	Bases     []Expression
	Body      []Statement
	Docstring string
}

func (s *ClassDefinition) statementNode()       {}
func (s *ClassDefinition) TokenLiteral() string { return s.Token.Literal }
func (s *ClassDefinition) String() string {
	var out bytes.Buffer
	out.WriteString("CLASS " + s.Name)
	if len(s.Bases) > 0 {
		bases := make([]string, len(s.Bases))
		for i, b := range s.Bases {
			bases[i] = b.String()
		}
		out.WriteString("(" + strings.Join(bases, ", ") + ")")
	}
	out.WriteString(blockString(s.Body))
	return out.String()
}

type WithItem struct {
	Context Expression
	Alias   string
}

type WithStatement struct {
	Token token.Token
	Items []WithItem
	Body  []Statement
}

func (s *WithStatement) statementNode()       {}
func (s *WithStatement) TokenLiteral() string { return s.Token.Literal }
func (s *WithStatement) String() string {
	var out bytes.Buffer
	out.WriteString("WITH ")
	items := make([]string, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.Context.String()
		if item.Alias != "" {
			items[i] += " AS " + item.Alias
		}
	}
	out.WriteString(strings.Join(items, ", "))
	out.WriteString(blockString(s.Body))
	return out.String()
}

type ExceptHandler struct {
	Type  Expression // nil matches every error
	Alias string
	Body  []Statement
}

type TryStatement struct {
	Token    token.Token
	Body     []Statement
	Handlers []ExceptHandler
	Else     []Statement
	Finally  []Statement
}

func (s *TryStatement) statementNode()       {}
func (s *TryStatement) TokenLiteral() string { return s.Token.Literal }
func (s *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("TRY" + blockString(s.Body))
	for _, h := range s.Handlers {
		out.WriteString(" EXCEPT")
		if h.Type != nil {
			out.WriteString(" " + h.Type.String())
		}
		out.WriteString(blockString(h.Body))
	}
	if len(s.Finally) > 0 {
		out.WriteString(" FINALLY" + blockString(s.Finally))
	}
	return out.String()
}

type RaiseStatement struct {
	Token token.Token
	Value Expression // nil re-raises inside a handler
}

func (s *RaiseStatement) statementNode()       {}
func (s *RaiseStatement) TokenLiteral() string { return s.Token.Literal }
func (s *RaiseStatement) String() string {
	if s.Value == nil {
		return "RAISE"
	}
	return "RAISE " + s.Value.String()
}

type ImportItem struct {
	Module []string
	Alias  string
}

type ImportStatement struct {
	Token token.Token
	Items []ImportItem
}

func (s *ImportStatement) statementNode()       {}
func (s *ImportStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ImportStatement) String() string {
	items := make([]string, len(s.Items))
	for i, item := range s.Items {
		items[i] = strings.Join(item.Module, ".")
		if item.Alias != "" {
			items[i] += " AS " + item.Alias
		}
	}
	return "IMPORT " + strings.Join(items, ", ")
}

type FromImportItem struct {
	Name  string // "*" imports everything public
	Alias string
}

type FromImportStatement struct {
	Token  token.Token
	Module []string
	Items  []FromImportItem
}

func (s *FromImportStatement) statementNode()       {}
func (s *FromImportStatement) TokenLiteral() string { return s.Token.Literal }
func (s *FromImportStatement) String() string {
	items := make([]string, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.Name
		if item.Alias != "" {
			items[i] += " AS " + item.Alias
		}
	}
	return "FROM " + strings.Join(s.Module, ".") + " IMPORT " + strings.Join(items, ", ")
}

// GlobalStatement declares that the listed names resolve in module scope
// for the rest of the enclosing function body.
type GlobalStatement struct {
	Token token.Token
	Names []string
}

func (s *GlobalStatement) statementNode()       {}
func (s *GlobalStatement) TokenLiteral() string { return s.Token.Literal }
func (s *GlobalStatement) String() string       { return "GLOBAL " + strings.Join(s.Names, ", ") }

type NonlocalStatement struct {
	Token token.Token
	Names []string
}

func (s *NonlocalStatement) statementNode()       {}
func (s *NonlocalStatement) TokenLiteral() string { return s.Token.Literal }
func (s *NonlocalStatement) String() string       { return "NONLOCAL " + strings.Join(s.Names, ", ") }

// AssignmentStatement covers plain and destructuring assignment. With more
// than one target the value must unpack element-wise.
type AssignmentStatement struct {
	Token        token.Token
	Targets      []Expression
	Destructured bool
	Value        Expression
}

func (s *AssignmentStatement) statementNode()       {}
func (s *AssignmentStatement) TokenLiteral() string { return s.Token.Literal }
func (s *AssignmentStatement) String() string {
	targets := make([]string, len(s.Targets))
	for i, t := range s.Targets {
		targets[i] = t.String()
	}
	return strings.Join(targets, ", ") + " = " + s.Value.String()
}

type AugmentedAssignmentStatement struct {
	Token    token.Token
	Target   Expression
	Operator token.TokenType // the underlying binary operator, e.g. PLUS
	Value    Expression
}

func (s *AugmentedAssignmentStatement) statementNode()       {}
func (s *AugmentedAssignmentStatement) TokenLiteral() string { return s.Token.Literal }
func (s *AugmentedAssignmentStatement) String() string {
	return s.Target.String() + " " + string(s.Operator) + "= " + s.Value.String()
}

type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (s *ExpressionStatement) statementNode()       {}
func (s *ExpressionStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ExpressionStatement) String() string {
	if s.Expression != nil {
		return s.Expression.String()
	}
	return ""
}

// Expressions ---------------------------------------------------------------

type Identifier struct {
	Token token.Token
	Value string
}

func (e *Identifier) expressionNode()      {}
func (e *Identifier) TokenLiteral() string { return e.Token.Literal }
func (e *Identifier) String() string       { return e.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (e *IntegerLiteral) expressionNode()      {}
func (e *IntegerLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *IntegerLiteral) String() string       { return e.Token.Lexeme }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (e *FloatLiteral) expressionNode()      {}
func (e *FloatLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *FloatLiteral) String() string       { return e.Token.Lexeme }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()      {}
func (e *StringLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *StringLiteral) String() string       { return "\"" + e.Value + "\"" }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (e *BooleanLiteral) expressionNode()      {}
func (e *BooleanLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *BooleanLiteral) String() string {
	if e.Value {
		return "TRUE"
	}
	return "FALSE"
}

type NoneLiteral struct {
	Token token.Token
}

func (e *NoneLiteral) expressionNode()      {}
func (e *NoneLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *NoneLiteral) String() string       { return "NONE" }

type AttributeReference struct {
	Token  token.Token // the '.' token
	Object Expression
	Name   string
}

func (e *AttributeReference) expressionNode()      {}
func (e *AttributeReference) TokenLiteral() string { return e.Token.Literal }
func (e *AttributeReference) String() string       { return e.Object.String() + "." + e.Name }

type IndexReference struct {
	Token  token.Token // the '[' token
	Object Expression
	Index  Expression
}

func (e *IndexReference) expressionNode()      {}
func (e *IndexReference) TokenLiteral() string { return e.Token.Literal }
func (e *IndexReference) String() string {
	return e.Object.String() + "[" + e.Index.String() + "]"
}

type KeywordArgument struct {
	Name  string
	Value Expression
}

type CallExpression struct {
	Token    token.Token // the '(' token
	Callee   Expression
	Args     []Expression
	Keywords []KeywordArgument
}

func (e *CallExpression) expressionNode()      {}
func (e *CallExpression) TokenLiteral() string { return e.Token.Literal }
func (e *CallExpression) String() string {
	args := make([]string, 0, len(e.Args)+len(e.Keywords))
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	for _, kw := range e.Keywords {
		args = append(args, kw.Name+" = "+kw.Value.String())
	}
	return e.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// Unary operator names.
const (
	UnaryNegate   = "NEGATE"
	UnaryPositive = "POSITIVE"
	UnaryNot      = "NOT"
)

type UnaryExpression struct {
	Token    token.Token
	Operator string
	Operand  Expression
}

func (e *UnaryExpression) expressionNode()      {}
func (e *UnaryExpression) TokenLiteral() string { return e.Token.Literal }
func (e *UnaryExpression) String() string {
	return "(" + e.Operator + " " + e.Operand.String() + ")"
}

type BinaryExpression struct {
	Token    token.Token
	Operator token.TokenType
	Left     Expression
	Right    Expression
}

func (e *BinaryExpression) expressionNode()      {}
func (e *BinaryExpression) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpression) String() string {
	return "(" + e.Left.String() + " " + e.Token.Lexeme + " " + e.Right.String() + ")"
}

type ListExpression struct {
	Token    token.Token
	Elements []Expression
}

func (e *ListExpression) expressionNode()      {}
func (e *ListExpression) TokenLiteral() string { return e.Token.Literal }
func (e *ListExpression) String() string {
	return "[" + joinExpressions(e.Elements) + "]"
}

type TupleExpression struct {
	Token    token.Token
	Elements []Expression
}

func (e *TupleExpression) expressionNode()      {}
func (e *TupleExpression) TokenLiteral() string { return e.Token.Literal }
func (e *TupleExpression) String() string {
	return "(" + joinExpressions(e.Elements) + ")"
}

type DictEntry struct {
	Key   Expression
	Value Expression
}

type DictExpression struct {
	Token   token.Token
	Entries []DictEntry
}

func (e *DictExpression) expressionNode()      {}
func (e *DictExpression) TokenLiteral() string { return e.Token.Literal }
func (e *DictExpression) String() string {
	pairs := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		pairs[i] = entry.Key.String() + ": " + entry.Value.String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type SetExpression struct {
	Token    token.Token
	Elements []Expression
}

func (e *SetExpression) expressionNode()      {}
func (e *SetExpression) TokenLiteral() string { return e.Token.Literal }
func (e *SetExpression) String() string {
	return "{" + joinExpressions(e.Elements) + "}"
}

type ListComprehension struct {
	Token     token.Token
	Element   Expression
	Iterator  string
	Iterable  Expression
	Condition Expression // nil when no IF filter is present
}

func (e *ListComprehension) expressionNode()      {}
func (e *ListComprehension) TokenLiteral() string { return e.Token.Literal }
func (e *ListComprehension) String() string {
	var out bytes.Buffer
	out.WriteString("[" + e.Element.String() + " FOR " + e.Iterator + " IN " + e.Iterable.String())
	if e.Condition != nil {
		out.WriteString(" IF " + e.Condition.String())
	}
	out.WriteString("]")
	return out.String()
}

// ConditionalExpression is the trailing form: value IF condition ELSE other.
type ConditionalExpression struct {
	Token     token.Token
	Condition Expression
	IfTrue    Expression
	IfFalse   Expression
}

func (e *ConditionalExpression) expressionNode()      {}
func (e *ConditionalExpression) TokenLiteral() string { return e.Token.Literal }
func (e *ConditionalExpression) String() string {
	return "(" + e.IfTrue.String() + " IF " + e.Condition.String() + " ELSE " + e.IfFalse.String() + ")"
}

type LambdaExpression struct {
	Token      token.Token
	Parameters []Parameter
	Body       Expression
}

func (e *LambdaExpression) expressionNode()      {}
func (e *LambdaExpression) TokenLiteral() string { return e.Token.Literal }
func (e *LambdaExpression) String() string {
	params := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		params[i] = p.String()
	}
	return "LAMBDA " + strings.Join(params, ", ") + ": " + e.Body.String()
}

type AwaitExpression struct {
	Token token.Token
	Value Expression
}

func (e *AwaitExpression) expressionNode()      {}
func (e *AwaitExpression) TokenLiteral() string { return e.Token.Literal }
func (e *AwaitExpression) String() string       { return "AWAIT " + e.Value.String() }

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func blockString(body []Statement) string {
	var out bytes.Buffer
	out.WriteString(" { ")
	for _, s := range body {
		out.WriteString(s.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}
