package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
	"ward/internal/token"
)

// LexError reports the first invalid construct encountered while scanning.
// Scanning stops there; no tokens past the error are produced.
type LexError struct {
	Line    int
	Column  int
	Offset  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexing error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

var operators = map[string]token.TokenType{
	"//=": token.DBLSLASHEQ,
	"**=": token.POWEQ,
	"==":  token.EQ,
	"!=":  token.NEQ,
	"<=":  token.LTE,
	">=":  token.GTE,
	"+=":  token.PLUSEQ,
	"-=":  token.MINUSEQ,
	"*=":  token.STAREQ,
	"/=":  token.SLASHEQ,
	"%=":  token.PERCENTEQ,
	"**":  token.POWER,
	"//":  token.DBLSLASH,
	"<":   token.LT,
	">":   token.GT,
	"+":   token.PLUS,
	"-":   token.MINUS,
	"*":   token.STAR,
	"/":   token.SLASH,
	"%":   token.PERCENT,
	"=":   token.ASSIGN,
	":":   token.COLON,
	".":   token.DOT,
}

var delimiters = map[rune]token.TokenType{
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	'{': token.LBRACE,
	'}': token.RBRACE,
	',': token.COMMA,
}

// Scanner converts source text into a token sequence. Indentation changes
// are emitted as explicit INDENT/DEDENT tokens so the parser never
// re-counts whitespace.
type Scanner struct {
	src         string
	pos         int
	line        int
	col         int
	indents     []int
	atLineStart bool
}

func New(src string) *Scanner {
	return &Scanner{
		src:         src,
		line:        1,
		col:         1,
		indents:     []int{0},
		atLineStart: true,
	}
}

// Scan tokenizes the whole input. A fresh Scanner is restartable: calling
// Scan on a new Scanner over the same input yields the same tokens.
func Scan(src string) ([]token.Token, error) {
	return New(src).Scan()
}

func (s *Scanner) Scan() ([]token.Token, error) {
	var tokens []token.Token
	for !s.atEnd() {
		if s.atLineStart {
			layout, err := s.handleIndent()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, layout...)
			s.atLineStart = false
			if s.atEnd() {
				break
			}
		}
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			s.advance()
		case ch == '\n':
			tokens = append(tokens, s.makeToken(token.NEWLINE, "\n", "\n"))
			s.advanceLine()
			s.atLineStart = true
		case ch == '#':
			tok, err := s.comment()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case ch == '"' || ch == '\'':
			tok, err := s.stringLiteral(ch)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case unicode.IsDigit(ch):
			tok, err := s.number()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case isIdentStart(ch):
			tokens = append(tokens, s.identifier())
		default:
			if typ, ok := delimiters[ch]; ok {
				tokens = append(tokens, s.makeToken(typ, string(ch), string(ch)))
				s.advance()
				continue
			}
			if tok, ok := s.operator(); ok {
				tokens = append(tokens, tok)
				continue
			}
			return nil, s.errorf("unexpected character %q", ch)
		}
	}
	// unwind the indentation stack at EOF
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		tokens = append(tokens, s.layoutToken(token.DEDENT))
	}
	tokens = append(tokens, token.Token{
		Type: token.EOF, Line: s.line, Column: s.col, Start: s.pos, End: s.pos,
	})
	return tokens, nil
}

// handleIndent measures leading whitespace of a code line. Blank lines and
// comment-only lines never change the indentation stack.
func (s *Scanner) handleIndent() ([]token.Token, error) {
	idx := s.pos
	col := s.col
	indent := 0
	for idx < len(s.src) {
		switch s.src[idx] {
		case ' ':
			indent++
			idx++
			col++
			continue
		case '\t':
			indent += 4
			idx++
			col++
			continue
		case '\r':
			idx++
			continue
		}
		break
	}
	if idx >= len(s.src) {
		s.pos = idx
		s.col = col
		return nil, nil
	}
	next := s.src[idx]
	if next == '\n' || next == '#' {
		s.pos = idx
		s.col = col
		return nil, nil
	}
	s.pos = idx
	s.col = col
	current := s.indents[len(s.indents)-1]
	if indent == current {
		return nil, nil
	}
	if indent > current {
		s.indents = append(s.indents, indent)
		return []token.Token{s.layoutToken(token.INDENT)}, nil
	}
	var tokens []token.Token
	for indent < s.indents[len(s.indents)-1] {
		s.indents = s.indents[:len(s.indents)-1]
		tokens = append(tokens, s.layoutToken(token.DEDENT))
	}
	if indent != s.indents[len(s.indents)-1] {
		return nil, s.errorf("unbalanced indentation")
	}
	return tokens, nil
}

func (s *Scanner) operator() (token.Token, bool) {
	for _, length := range []int{3, 2, 1} {
		if s.pos+length > len(s.src) {
			continue
		}
		candidate := s.src[s.pos : s.pos+length]
		typ, ok := operators[candidate]
		if !ok {
			continue
		}
		tok := s.makeToken(typ, candidate, candidate)
		for i := 0; i < length; i++ {
			s.advance()
		}
		return tok, true
	}
	return token.Token{}, false
}

func (s *Scanner) comment() (token.Token, error) {
	startLine, startCol, start := s.line, s.col, s.pos
	s.advance() // leading '#'
	if !s.atEnd() && s.peek() == '#' {
		s.advance() // second '#'
		return s.blockComment(startLine, startCol, start)
	}
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
	lexeme := s.src[start:s.pos]
	return token.Token{
		Type: token.COMMENT, Literal: lexeme[1:], Lexeme: lexeme,
		Line: startLine, Column: startCol, Start: start, End: s.pos,
	}, nil
}

// blockComment consumes a paired ## ... ## comment. The closing marker must
// be the first non-blank content of its line.
func (s *Scanner) blockComment(startLine, startCol, start int) (token.Token, error) {
	atLineStart := true
	for !s.atEnd() {
		if atLineStart && s.pos+2 <= len(s.src) && s.src[s.pos:s.pos+2] == "##" {
			s.advance()
			s.advance()
			break
		}
		ch := s.peek()
		if ch == '\n' {
			s.advanceLine()
			atLineStart = true
			continue
		}
		s.advance()
		if ch != ' ' && ch != '\t' {
			atLineStart = false
		}
	}
	lexeme := s.src[start:s.pos]
	literal := lexeme
	if len(literal) >= 2 {
		literal = literal[2:]
	}
	if len(literal) >= 2 && literal[len(literal)-2:] == "##" {
		literal = literal[:len(literal)-2]
	}
	return token.Token{
		Type: token.COMMENT, Literal: literal, Lexeme: lexeme,
		Line: startLine, Column: startCol, Start: start, End: s.pos,
	}, nil
}

var escapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
}

func (s *Scanner) stringLiteral(delim rune) (token.Token, error) {
	startLine, startCol, start := s.line, s.col, s.pos
	triple := false
	if s.peekAt(1) == delim && s.peekAt(2) == delim {
		triple = true
		s.advance()
		s.advance()
		s.advance()
	} else {
		s.advance()
	}
	var value []rune
	for !s.atEnd() {
		ch := s.peek()
		if ch == delim {
			if !triple {
				s.advance()
				return s.finishString(value, startLine, startCol, start), nil
			}
			if s.peekAt(1) == delim && s.peekAt(2) == delim {
				s.advance()
				s.advance()
				s.advance()
				return s.finishString(value, startLine, startCol, start), nil
			}
			value = append(value, ch)
			s.advance()
			continue
		}
		if ch == '\\' {
			s.advance()
			if s.atEnd() {
				break
			}
			esc := s.peek()
			if mapped, ok := escapes[esc]; ok {
				value = append(value, mapped)
			} else {
				value = append(value, esc)
			}
			s.advance()
			continue
		}
		if ch == '\n' {
			if !triple {
				break
			}
			value = append(value, ch)
			s.advanceLine()
			continue
		}
		value = append(value, ch)
		s.advance()
	}
	return token.Token{}, &LexError{Line: startLine, Column: startCol, Offset: start, Message: "unterminated string literal"}
}

func (s *Scanner) finishString(value []rune, line, col, start int) token.Token {
	return token.Token{
		Type: token.STRING, Literal: string(value), Lexeme: s.src[start:s.pos],
		Line: line, Column: col, Start: start, End: s.pos,
	}
}

func (s *Scanner) number() (token.Token, error) {
	startLine, startCol, start := s.line, s.col, s.pos
	if s.peek() == '0' {
		switch s.peekAt(1) {
		case 'x', 'X':
			return s.basedNumber(start, startLine, startCol, isHexDigit)
		case 'o', 'O':
			return s.basedNumber(start, startLine, startCol, isOctalDigit)
		case 'b', 'B':
			return s.basedNumber(start, startLine, startCol, isBinaryDigit)
		}
	}
	for !s.atEnd() && unicode.IsDigit(s.peek()) {
		s.advance()
	}
	if !s.atEnd() && s.peek() == '.' && unicode.IsDigit(s.peekAt(1)) {
		s.advance()
		for !s.atEnd() && unicode.IsDigit(s.peek()) {
			s.advance()
		}
	}
	lexeme := s.src[start:s.pos]
	return token.Token{
		Type: token.NUMBER, Literal: lexeme, Lexeme: lexeme,
		Line: startLine, Column: startCol, Start: start, End: s.pos,
	}, nil
}

func (s *Scanner) basedNumber(start, startLine, startCol int, valid func(rune) bool) (token.Token, error) {
	s.advance() // '0'
	s.advance() // base marker
	digits := 0
	for !s.atEnd() && valid(s.peek()) {
		s.advance()
		digits++
	}
	if digits == 0 {
		return token.Token{}, s.errorf("missing digits in numeric literal")
	}
	lexeme := s.src[start:s.pos]
	return token.Token{
		Type: token.NUMBER, Literal: lexeme, Lexeme: lexeme,
		Line: startLine, Column: startCol, Start: start, End: s.pos,
	}, nil
}

func (s *Scanner) identifier() token.Token {
	startLine, startCol, start := s.line, s.col, s.pos
	for !s.atEnd() && isIdentPart(s.peek()) {
		s.advance()
	}
	lexeme := s.src[start:s.pos]
	return token.Token{
		Type: token.LookupIdent(lexeme), Literal: lexeme, Lexeme: lexeme,
		Line: startLine, Column: startCol, Start: start, End: s.pos,
	}
}

// Helper utilities --------------------------------------------------------

func (s *Scanner) makeToken(typ token.TokenType, literal, lexeme string) token.Token {
	return token.Token{
		Type: typ, Literal: literal, Lexeme: lexeme,
		Line: s.line, Column: s.col, Start: s.pos, End: s.pos + len(lexeme),
	}
}

func (s *Scanner) layoutToken(typ token.TokenType) token.Token {
	return token.Token{Type: typ, Line: s.line, Column: s.col, Start: s.pos, End: s.pos}
}

func (s *Scanner) errorf(format string, args ...interface{}) *LexError {
	return &LexError{Line: s.line, Column: s.col, Offset: s.pos, Message: fmt.Sprintf(format, args...)}
}

func (s *Scanner) atEnd() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) peek() rune {
	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return r
}

// peekAt returns the rune n runes ahead of the current position, or 0 when
// the input ends first.
func (s *Scanner) peekAt(n int) rune {
	idx := s.pos
	for i := 0; i < n; i++ {
		if idx >= len(s.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(s.src[idx:])
		idx += size
	}
	if idx >= len(s.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.src[idx:])
	return r
}

func (s *Scanner) advance() {
	if s.atEnd() {
		return
	}
	_, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	s.col++
}

func (s *Scanner) advanceLine() {
	s.pos++
	s.line++
	s.col = 1
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isOctalDigit(ch rune) bool { return ch >= '0' && ch <= '7' }

func isBinaryDigit(ch rune) bool { return ch == '0' || ch == '1' }
