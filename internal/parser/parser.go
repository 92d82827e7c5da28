// Package parser builds the syntax tree from a token stream. Parsing is
// all-or-nothing: the first syntax error aborts the whole parse.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"ward/internal/ast"
	"ward/internal/token"
)

// ParseError reports the first syntax error encountered.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

var binaryPrecedence = map[token.TokenType]int{
	token.OR:       1,
	token.AND:      2,
	token.EQ:       3,
	token.NEQ:      3,
	token.LT:       4,
	token.LTE:      4,
	token.GT:       4,
	token.GTE:      4,
	token.IN:       4,
	token.PLUS:     5,
	token.MINUS:    5,
	token.STAR:     6,
	token.SLASH:    6,
	token.DBLSLASH: 6,
	token.PERCENT:  6,
	token.POWER:    7,
}

var rightAssociative = map[token.TokenType]bool{
	token.POWER: true,
}

var augmentedOps = map[token.TokenType]token.TokenType{
	token.PLUSEQ:     token.PLUS,
	token.MINUSEQ:    token.MINUS,
	token.STAREQ:     token.STAR,
	token.SLASHEQ:    token.SLASH,
	token.DBLSLASHEQ: token.DBLSLASH,
	token.PERCENTEQ:  token.PERCENT,
	token.POWEQ:      token.POWER,
}

type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse is the package-level convenience entry point.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).Parse()
}

// bailout carries the parse error up through the recursive descent. Only
// *ParseError values travel this way; anything else is a real panic.
type bailout struct{ err *ParseError }

func (p *Parser) Parse() (program *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			program = nil
			err = b.err
		}
	}()
	program = &ast.Program{}
	p.skipLayout()
	for !p.check(token.EOF) {
		if p.check(token.DEDENT) {
			p.advance()
			continue
		}
		program.Statements = append(program.Statements, p.statement())
		p.skipLayout()
	}
	return program, nil
}

func (p *Parser) fail(tok token.Token, format string, args ...interface{}) {
	panic(bailout{&ParseError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}})
}

// Layout -------------------------------------------------------------------

func (p *Parser) skipLayout() {
	for p.check(token.NEWLINE) || p.check(token.COMMENT) {
		p.advance()
	}
}

// Statements -----------------------------------------------------------------

func (p *Parser) statement() ast.Statement {
	switch p.peek().Type {
	case token.SET:
		return p.parseSet()
	case token.TARGET:
		keyword := p.advance()
		return &ast.TargetStatement{Token: keyword, Value: p.expression(0)}
	case token.SCOPE:
		keyword := p.advance()
		return &ast.ScopeStatement{Token: keyword, Value: p.expression(0)}
	case token.PAYLOAD:
		return p.parsePayload()
	case token.EMBED:
		return p.parseEmbed()
	case token.TASK:
		return p.parseTask()
	case token.PORTSCAN:
		return p.parsePortScan()
	case token.HTTP:
		return p.parseHTTP()
	case token.FUZZ:
		return p.parseFuzz()
	case token.NOTE:
		keyword := p.advance()
		return &ast.NoteStatement{Token: keyword, Message: p.expression(0)}
	case token.FINDING:
		return p.parseFinding()
	case token.RUN:
		return p.parseRun()
	case token.REPORT:
		keyword := p.advance()
		return &ast.ReportStatement{Token: keyword, Destination: p.expression(0)}
	case token.INPUT:
		return p.parseInput()
	case token.OUTPUT:
		keyword := p.advance()
		return &ast.OutputStatement{Token: keyword, Value: p.expression(0)}
	case token.FOR:
		return p.parseFor()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.advance()}
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.advance()}
	case token.PASS:
		return &ast.PassStatement{Token: p.advance()}
	case token.RETURN:
		return p.parseReturn()
	case token.DEF:
		return p.parseFunction(p.peek(), false)
	case token.ASYNC:
		return p.parseAsync()
	case token.CLASS:
		return p.parseClass()
	case token.WITH:
		return p.parseWith()
	case token.TRY:
		return p.parseTry()
	case token.RAISE:
		return p.parseRaise()
	case token.IMPORT:
		return p.parseImport()
	case token.FROM:
		return p.parseFromImport()
	case token.GLOBAL:
		keyword := p.advance()
		return &ast.GlobalStatement{Token: keyword, Names: p.nameList()}
	case token.NONLOCAL:
		keyword := p.advance()
		return &ast.NonlocalStatement{Token: keyword, Names: p.nameList()}
	}
	return p.parseAssignmentOrExpression()
}

func (p *Parser) parseSet() ast.Statement {
	keyword := p.advance()
	name := p.consume(token.IDENT, "expected identifier after SET")
	p.consume(token.ASSIGN, "expected '=' after identifier")
	return &ast.SetStatement{Token: keyword, Name: name.Literal, Value: p.expression(0)}
}

func (p *Parser) parsePayload() ast.Statement {
	keyword := p.advance()
	name := p.consume(token.IDENT, "expected payload identifier")
	p.consume(token.ASSIGN, "expected '=' after payload name")
	return &ast.PayloadStatement{Token: keyword, Name: name.Literal, Value: p.expression(0)}
}

func (p *Parser) parseEmbed() ast.Statement {
	keyword := p.advance()
	lang := p.advance()
	if lang.Type != token.IDENT && lang.Type != token.STRING {
		p.fail(lang, "expected embed language identifier or string")
	}
	name := p.consume(token.IDENT, "expected identifier after embed language")
	p.consume(token.ASSIGN, "expected '=' after embed name")
	content := p.expression(0)
	var metadata ast.Expression
	if p.match(token.USING) {
		metadata = p.expression(0)
	}
	return &ast.EmbedStatement{
		Token: keyword, Language: lang.Literal, Name: name.Literal,
		Content: content, Metadata: metadata,
	}
}

func (p *Parser) parseTask() ast.Statement {
	keyword := p.advance()
	name := p.consume(token.STRING, "expected task name string")
	body, docstring := p.suiteWithDocstring()
	return &ast.TaskStatement{Token: keyword, Name: name.Literal, Body: body, Docstring: docstring}
}

func (p *Parser) parsePortScan() ast.Statement {
	keyword := p.advance()
	ports := p.expression(0)
	var tool ast.Expression
	if p.match(token.TOOL) {
		tool = p.expression(0)
	}
	return &ast.PortScanStatement{Token: keyword, Ports: ports, Tool: tool}
}

func (p *Parser) parseHTTP() ast.Statement {
	keyword := p.advance()
	method := p.advance()
	if method.Type != token.IDENT && method.Type != token.STRING {
		p.fail(method, "expected HTTP method")
	}
	target := p.expression(0)
	stmt := &ast.HTTPRequestStatement{
		Token: keyword, Method: strings.ToUpper(method.Literal), Target: target,
	}
	if p.match(token.EXPECT) {
		status := p.peek()
		if status.Type != token.NUMBER {
			p.fail(status, "expected numeric status code")
		}
		p.advance()
		value, err := strconv.ParseFloat(status.Literal, 64)
		if err != nil {
			p.fail(status, "invalid status code %q", status.Literal)
		}
		code := int64(value)
		stmt.ExpectStatus = &code
	}
	if p.match(token.CONTAINS) {
		stmt.Contains = p.expression(0)
	}
	return stmt
}

func (p *Parser) parseFuzz() ast.Statement {
	keyword := p.advance()
	stmt := &ast.FuzzStatement{Token: keyword, Resource: p.expression(0)}
	for {
		if p.match(token.METHOD) {
			method := p.consume(token.IDENT, "expected method name after METHOD")
			stmt.Method = strings.ToUpper(method.Literal)
			continue
		}
		if p.match(token.USING) {
			payload := p.consume(token.IDENT, "expected payload identifier after USING")
			stmt.PayloadName = payload.Literal
			continue
		}
		if p.match(token.WITH) {
			stmt.Payloads = p.expression(0)
			continue
		}
		break
	}
	return stmt
}

func (p *Parser) parseFinding() ast.Statement {
	keyword := p.advance()
	severity := p.consume(token.IDENT, "expected severity level")
	return &ast.FindingStatement{
		Token: keyword, Severity: strings.ToUpper(severity.Literal), Message: p.expression(0),
	}
}

func (p *Parser) parseRun() ast.Statement {
	keyword := p.advance()
	stmt := &ast.RunStatement{Token: keyword, Command: p.expression(0)}
	if p.match(token.SAVE) {
		p.consume(token.AS, "expected AS after SAVE")
		name := p.consume(token.IDENT, "expected identifier after SAVE AS")
		stmt.SaveAs = name.Literal
	}
	return stmt
}

func (p *Parser) parseInput() ast.Statement {
	keyword := p.advance()
	stmt := &ast.InputStatement{Token: keyword}
	if !p.check(token.AS) && !p.check(token.NEWLINE) && !p.check(token.EOF) {
		stmt.Prompt = p.expression(0)
	}
	if p.match(token.AS) {
		name := p.consume(token.IDENT, "expected identifier after AS in INPUT")
		stmt.Target = name.Literal
	}
	return stmt
}

func (p *Parser) parseFor() ast.Statement {
	keyword := p.advance()
	iterator := p.consume(token.IDENT, "expected loop variable name")
	p.consume(token.IN, "expected IN in for loop")
	iterable := p.expression(0)
	stmt := &ast.ForStatement{Token: keyword, Iterator: iterator.Literal, Iterable: iterable}
	stmt.Body = p.suite()
	if p.match(token.ELSE) {
		stmt.Else = p.suite()
	}
	return stmt
}

func (p *Parser) parseIf() ast.Statement {
	keyword := p.advance()
	stmt := &ast.IfStatement{Token: keyword, Condition: p.expression(0)}
	stmt.Body = p.suite()
	for p.match(token.ELIF) {
		elif := ast.ElifBlock{Condition: p.expression(0)}
		elif.Body = p.suite()
		stmt.Elifs = append(stmt.Elifs, elif)
	}
	if p.match(token.ELSE) {
		stmt.Else = p.suite()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	keyword := p.advance()
	stmt := &ast.WhileStatement{Token: keyword, Condition: p.expression(0)}
	stmt.Body = p.suite()
	if p.match(token.ELSE) {
		stmt.Else = p.suite()
	}
	return stmt
}

func (p *Parser) parseReturn() ast.Statement {
	keyword := p.advance()
	if p.check(token.NEWLINE) || p.check(token.DEDENT) || p.check(token.EOF) {
		return &ast.ReturnStatement{Token: keyword}
	}
	return &ast.ReturnStatement{Token: keyword, Value: p.expression(0)}
}

func (p *Parser) parseFunction(keyword token.Token, isAsync bool) ast.Statement {
	p.consume(token.DEF, "expected DEF")
	name := p.consume(token.IDENT, "expected function name")
	p.consume(token.LPAREN, "expected '(' after function name")
	params := p.parameterList(token.RPAREN)
	p.consume(token.RPAREN, "expected closing ')' in parameter list")
	body, docstring := p.suiteWithDocstring()
	return &ast.FunctionDefinition{
		Token: keyword, Name: name.Literal, Parameters: params,
		Body: body, Docstring: docstring, IsAsync: isAsync,
	}
}

func (p *Parser) parseAsync() ast.Statement {
	keyword := p.advance()
	if !p.check(token.DEF) {
		p.fail(keyword, "ASYNC must prefix DEF")
	}
	return p.parseFunction(keyword, true)
}

func (p *Parser) parseClass() ast.Statement {
	keyword := p.advance()
	name := p.consume(token.IDENT, "expected class name")
	stmt := &ast.ClassDefinition{Token: keyword, Name: name.Literal}
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			for {
				stmt.Bases = append(stmt.Bases, p.expression(0))
				if p.match(token.COMMA) {
					continue
				}
				break
			}
		}
		p.consume(token.RPAREN, "expected closing ')' after base list")
	}
	stmt.Body, stmt.Docstring = p.suiteWithDocstring()
	return stmt
}

func (p *Parser) parseWith() ast.Statement {
	keyword := p.advance()
	stmt := &ast.WithStatement{Token: keyword}
	for {
		item := ast.WithItem{Context: p.expression(0)}
		if p.match(token.AS) {
			alias := p.consume(token.IDENT, "expected identifier after AS")
			item.Alias = alias.Literal
		}
		stmt.Items = append(stmt.Items, item)
		if p.match(token.COMMA) {
			continue
		}
		break
	}
	stmt.Body = p.suite()
	return stmt
}

func (p *Parser) parseTry() ast.Statement {
	keyword := p.advance()
	stmt := &ast.TryStatement{Token: keyword, Body: p.suite()}
	for p.match(token.EXCEPT) {
		handler := ast.ExceptHandler{}
		if !p.check(token.COLON) && !p.check(token.NEWLINE) && !p.check(token.INDENT) {
			handler.Type = p.expression(0)
			if p.match(token.AS) {
				alias := p.consume(token.IDENT, "expected identifier after AS")
				handler.Alias = alias.Literal
			}
		}
		handler.Body = p.suite()
		stmt.Handlers = append(stmt.Handlers, handler)
	}
	if p.match(token.ELSE) {
		stmt.Else = p.suite()
	}
	if p.match(token.FINALLY) {
		stmt.Finally = p.suite()
	}
	if len(stmt.Handlers) == 0 && len(stmt.Finally) == 0 {
		p.fail(keyword, "TRY block requires except or finally")
	}
	return stmt
}

func (p *Parser) parseRaise() ast.Statement {
	keyword := p.advance()
	if p.check(token.NEWLINE) || p.check(token.DEDENT) || p.check(token.EOF) {
		return &ast.RaiseStatement{Token: keyword}
	}
	return &ast.RaiseStatement{Token: keyword, Value: p.expression(0)}
}

func (p *Parser) parseImport() ast.Statement {
	keyword := p.advance()
	stmt := &ast.ImportStatement{Token: keyword}
	for {
		item := ast.ImportItem{Module: p.dottedName()}
		if p.match(token.AS) {
			alias := p.consume(token.IDENT, "expected alias name")
			item.Alias = alias.Literal
		}
		stmt.Items = append(stmt.Items, item)
		if p.match(token.COMMA) {
			continue
		}
		break
	}
	return stmt
}

func (p *Parser) parseFromImport() ast.Statement {
	keyword := p.advance()
	stmt := &ast.FromImportStatement{Token: keyword, Module: p.dottedName()}
	p.consume(token.IMPORT, "expected IMPORT after module path")
	if p.match(token.STAR) {
		stmt.Items = append(stmt.Items, ast.FromImportItem{Name: "*"})
		return stmt
	}
	for {
		name := p.consume(token.IDENT, "expected imported name")
		item := ast.FromImportItem{Name: name.Literal}
		if p.match(token.AS) {
			alias := p.consume(token.IDENT, "expected alias name")
			item.Alias = alias.Literal
		}
		stmt.Items = append(stmt.Items, item)
		if p.match(token.COMMA) {
			continue
		}
		break
	}
	return stmt
}

func (p *Parser) parseAssignmentOrExpression() ast.Statement {
	expr := p.expression(0)
	if p.match(token.ASSIGN) {
		tok := p.previous()
		value := p.expression(0)
		targets, destructured := p.assignmentTargets(expr)
		return &ast.AssignmentStatement{Token: tok, Targets: targets, Destructured: destructured, Value: value}
	}
	if op, ok := augmentedOps[p.peek().Type]; ok {
		tok := p.advance()
		value := p.expression(0)
		target := p.ensureTarget(expr, tok)
		return &ast.AugmentedAssignmentStatement{Token: tok, Target: target, Operator: op, Value: value}
	}
	return &ast.ExpressionStatement{Token: p.previous(), Expression: expr}
}

func (p *Parser) assignmentTargets(expr ast.Expression) ([]ast.Expression, bool) {
	switch e := expr.(type) {
	case *ast.Identifier, *ast.AttributeReference, *ast.IndexReference:
		return []ast.Expression{expr}, false
	case *ast.TupleExpression:
		return p.ensureTargets(e.Elements), true
	case *ast.ListExpression:
		return p.ensureTargets(e.Elements), true
	}
	p.fail(p.previous(), "invalid assignment target")
	return nil, false
}

func (p *Parser) ensureTargets(elements []ast.Expression) []ast.Expression {
	targets := make([]ast.Expression, len(elements))
	for i, el := range elements {
		targets[i] = p.ensureTarget(el, p.previous())
	}
	return targets
}

func (p *Parser) ensureTarget(expr ast.Expression, tok token.Token) ast.Expression {
	switch expr.(type) {
	case *ast.Identifier, *ast.AttributeReference, *ast.IndexReference:
		return expr
	}
	p.fail(tok, "invalid assignment target")
	return nil
}

// Expressions ----------------------------------------------------------------

func (p *Parser) expression(precedence int) ast.Expression {
	expr := p.prefix()
	for {
		tok := p.peek()
		if tok.Type == token.IF && precedence <= 0 {
			if !p.conditionalElsePending() {
				break
			}
			p.advance()
			condition := p.expression(0)
			p.consume(token.ELSE, "expected ELSE in conditional expression")
			ifFalse := p.expression(precedence)
			expr = &ast.ConditionalExpression{Token: tok, Condition: condition, IfTrue: expr, IfFalse: ifFalse}
			continue
		}
		if tok.Type == token.DOT {
			p.advance()
			name := p.consume(token.IDENT, "expected attribute name after '.'")
			expr = &ast.AttributeReference{Token: tok, Object: expr, Name: name.Literal}
			continue
		}
		if tok.Type == token.LBRACKET {
			p.advance()
			index := p.expression(0)
			p.consume(token.RBRACKET, "expected closing ']' for index")
			expr = &ast.IndexReference{Token: tok, Object: expr, Index: index}
			continue
		}
		if tok.Type == token.LPAREN {
			expr = p.finishCall(expr)
			continue
		}
		opPrecedence, ok := binaryPrecedence[tok.Type]
		if !ok || opPrecedence < precedence {
			break
		}
		operator := p.advance()
		next := opPrecedence + 1
		if rightAssociative[operator.Type] {
			next = opPrecedence
		}
		right := p.expression(next)
		expr = &ast.BinaryExpression{Token: operator, Operator: operator.Type, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) prefix() ast.Expression {
	tok := p.advance()
	switch tok.Type {
	case token.NUMBER:
		return p.numberLiteral(tok)
	case token.STRING:
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}
	case token.TRUE:
		return &ast.BooleanLiteral{Token: tok, Value: true}
	case token.FALSE:
		return &ast.BooleanLiteral{Token: tok, Value: false}
	case token.NONE:
		return &ast.NoneLiteral{Token: tok}
	case token.IDENT:
		return &ast.Identifier{Token: tok, Value: tok.Literal}
	case token.LPAREN:
		expr := p.expression(0)
		if p.match(token.COMMA) {
			elements := []ast.Expression{expr}
			for {
				elements = append(elements, p.expression(0))
				if p.match(token.COMMA) {
					continue
				}
				break
			}
			p.consume(token.RPAREN, "expected closing ')' for tuple")
			return &ast.TupleExpression{Token: tok, Elements: elements}
		}
		p.consume(token.RPAREN, "expected closing ')' for grouping")
		return expr
	case token.LBRACKET:
		return p.listOrComprehension(tok)
	case token.LBRACE:
		return p.dictOrSet(tok)
	case token.MINUS:
		operand := p.expression(binaryPrecedence[token.POWER] + 1)
		return &ast.UnaryExpression{Token: tok, Operator: ast.UnaryNegate, Operand: operand}
	case token.PLUS:
		operand := p.expression(binaryPrecedence[token.POWER] + 1)
		return &ast.UnaryExpression{Token: tok, Operator: ast.UnaryPositive, Operand: operand}
	case token.NOT:
		operand := p.expression(binaryPrecedence[token.AND])
		return &ast.UnaryExpression{Token: tok, Operator: ast.UnaryNot, Operand: operand}
	case token.LAMBDA:
		params := p.parameterList(token.COLON)
		p.consume(token.COLON, "expected ':' after lambda parameters")
		return &ast.LambdaExpression{Token: tok, Parameters: params, Body: p.expression(0)}
	case token.AWAIT:
		return &ast.AwaitExpression{Token: tok, Value: p.expression(0)}
	}
	p.fail(tok, "unexpected token %s", tok.Type)
	return nil
}

func (p *Parser) numberLiteral(tok token.Token) ast.Expression {
	lit := tok.Literal
	if len(lit) > 1 && lit[0] == '0' {
		switch lit[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			value, err := strconv.ParseInt(lit, 0, 64)
			if err != nil {
				p.fail(tok, "invalid integer literal %q", lit)
			}
			return &ast.IntegerLiteral{Token: tok, Value: value}
		}
	}
	if strings.Contains(lit, ".") {
		value, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.fail(tok, "invalid float literal %q", lit)
		}
		return &ast.FloatLiteral{Token: tok, Value: value}
	}
	value, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.fail(tok, "invalid integer literal %q", lit)
	}
	return &ast.IntegerLiteral{Token: tok, Value: value}
}

func (p *Parser) listOrComprehension(tok token.Token) ast.Expression {
	if p.check(token.RBRACKET) {
		p.advance()
		return &ast.ListExpression{Token: tok}
	}
	first := p.expression(0)
	if p.match(token.FOR) {
		iterator := p.consume(token.IDENT, "expected identifier in list comprehension")
		p.consume(token.IN, "expected IN in list comprehension")
		iterable := p.expression(0)
		var condition ast.Expression
		if p.match(token.IF) {
			condition = p.expression(0)
		}
		p.consume(token.RBRACKET, "expected closing ']' for list comprehension")
		return &ast.ListComprehension{
			Token: tok, Element: first, Iterator: iterator.Literal,
			Iterable: iterable, Condition: condition,
		}
	}
	elements := []ast.Expression{first}
	for p.match(token.COMMA) {
		if p.check(token.RBRACKET) {
			break
		}
		elements = append(elements, p.expression(0))
	}
	p.consume(token.RBRACKET, "expected closing ']' for list")
	return &ast.ListExpression{Token: tok, Elements: elements}
}

func (p *Parser) dictOrSet(tok token.Token) ast.Expression {
	if p.check(token.RBRACE) {
		p.advance()
		return &ast.DictExpression{Token: tok}
	}
	first := p.expression(0)
	if p.match(token.COLON) {
		value := p.expression(0)
		dict := &ast.DictExpression{Token: tok, Entries: []ast.DictEntry{{Key: first, Value: value}}}
		for p.match(token.COMMA) {
			if p.check(token.RBRACE) {
				break
			}
			key := p.expression(0)
			p.consume(token.COLON, "expected ':' in dictionary literal")
			dict.Entries = append(dict.Entries, ast.DictEntry{Key: key, Value: p.expression(0)})
		}
		p.consume(token.RBRACE, "expected closing '}' for dictionary")
		return dict
	}
	set := &ast.SetExpression{Token: tok, Elements: []ast.Expression{first}}
	for p.match(token.COMMA) {
		if p.check(token.RBRACE) {
			break
		}
		set.Elements = append(set.Elements, p.expression(0))
	}
	p.consume(token.RBRACE, "expected closing '}' for set literal")
	return set
}

func (p *Parser) finishCall(callee ast.Expression) ast.Expression {
	lparen := p.consume(token.LPAREN, "expected '(' to start call")
	call := &ast.CallExpression{Token: lparen, Callee: callee}
	if !p.check(token.RPAREN) {
		for {
			if p.check(token.IDENT) && p.peekNext().Type == token.ASSIGN {
				name := p.advance()
				p.consume(token.ASSIGN, "expected '=' in keyword argument")
				call.Keywords = append(call.Keywords, ast.KeywordArgument{Name: name.Literal, Value: p.expression(0)})
			} else {
				call.Args = append(call.Args, p.expression(0))
			}
			if p.match(token.COMMA) {
				continue
			}
			break
		}
	}
	p.consume(token.RPAREN, "expected ')' to close call")
	return call
}

func (p *Parser) parameterList(terminator token.TokenType) []ast.Parameter {
	var params []ast.Parameter
	if p.check(terminator) {
		return params
	}
	for {
		name := p.consume(token.IDENT, "expected parameter name")
		param := ast.Parameter{Name: name.Literal}
		if p.match(token.ASSIGN) {
			param.Default = p.expression(0)
		}
		params = append(params, param)
		if p.match(token.COMMA) {
			continue
		}
		break
	}
	return params
}

// Blocks --------------------------------------------------------------------

// suite parses an indented block after ':', a single statement on the same
// line, or a braced block.
func (p *Parser) suite() []ast.Statement {
	if p.match(token.COLON) {
		p.skipLayout()
		if p.match(token.INDENT) {
			var block []ast.Statement
			p.skipLayout()
			for !p.check(token.DEDENT) {
				block = append(block, p.statement())
				p.skipLayout()
			}
			p.consume(token.DEDENT, "expected end of block")
			return block
		}
		return []ast.Statement{p.statement()}
	}
	if p.match(token.LBRACE) {
		var block []ast.Statement
		p.skipLayout()
		for !p.check(token.RBRACE) {
			block = append(block, p.statement())
			p.skipLayout()
		}
		p.consume(token.RBRACE, "expected '}' to close block")
		return block
	}
	p.fail(p.peek(), "expected ':' or '{' to start block")
	return nil
}

// suiteWithDocstring lifts a leading string expression out of the block.
func (p *Parser) suiteWithDocstring() ([]ast.Statement, string) {
	body := p.suite()
	if len(body) > 0 {
		if exprStmt, ok := body[0].(*ast.ExpressionStatement); ok {
			if str, ok := exprStmt.Expression.(*ast.StringLiteral); ok {
				return body[1:], str.Value
			}
		}
	}
	return body, ""
}

func (p *Parser) dottedName() []string {
	first := p.consume(token.IDENT, "expected module name")
	parts := []string{first.Literal}
	for p.match(token.DOT) {
		part := p.consume(token.IDENT, "expected name after '.'")
		parts = append(parts, part.Literal)
	}
	return parts
}

func (p *Parser) nameList() []string {
	first := p.consume(token.IDENT, "expected identifier")
	names := []string{first.Literal}
	for p.match(token.COMMA) {
		name := p.consume(token.IDENT, "expected identifier")
		names = append(names, name.Literal)
	}
	return names
}

// Token helpers --------------------------------------------------------------

func (p *Parser) match(typ token.TokenType) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(typ token.TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekNext() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

// conditionalElsePending scans ahead for an ELSE that would complete a
// trailing conditional expression, ignoring nested brackets.
func (p *Parser) conditionalElsePending() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			if depth == 0 && p.tokens[i].Type != token.RPAREN {
				return false
			}
			if depth > 0 {
				depth--
			}
		default:
			if depth != 0 {
				continue
			}
			switch p.tokens[i].Type {
			case token.ELSE:
				return true
			case token.COMMA, token.COLON, token.NEWLINE, token.DEDENT, token.EOF, token.FOR:
				return false
			}
		}
	}
	return false
}

func (p *Parser) consume(typ token.TokenType, message string) token.Token {
	if p.check(typ) {
		return p.advance()
	}
	p.fail(p.peek(), "%s", message)
	return token.Token{}
}
