package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Layout
	NEWLINE = "NEWLINE"
	INDENT  = "INDENT"
	DEDENT  = "DEDENT"
	COMMENT = "COMMENT"

	// Identifiers + literals
	IDENT  = "IDENT"
	NUMBER = "NUMBER"
	STRING = "STRING"

	// Operators
	ASSIGN   = "ASSIGN"
	PLUS     = "PLUS"
	MINUS    = "MINUS"
	STAR     = "STAR"
	SLASH    = "SLASH"
	DBLSLASH = "DBLSLASH"
	PERCENT  = "PERCENT"
	POWER    = "POWER"

	PLUSEQ     = "PLUSEQ"
	MINUSEQ    = "MINUSEQ"
	STAREQ     = "STAREQ"
	SLASHEQ    = "SLASHEQ"
	DBLSLASHEQ = "DBLSLASHEQ"
	PERCENTEQ  = "PERCENTEQ"
	POWEQ      = "POWEQ"

	EQ  = "EQ"
	NEQ = "NEQ"
	LT  = "LT"
	LTE = "LTE"
	GT  = "GT"
	GTE = "GTE"

	COLON = "COLON"
	DOT   = "DOT"

	// Delimiters
	LPAREN   = "LPAREN"
	RPAREN   = "RPAREN"
	LBRACKET = "LBRACKET"
	RBRACKET = "RBRACKET"
	LBRACE   = "LBRACE"
	RBRACE   = "RBRACE"
	COMMA    = "COMMA"

	// Keywords
	SET      = "SET"
	EMBED    = "EMBED"
	TARGET   = "TARGET"
	SCOPE    = "SCOPE"
	PAYLOAD  = "PAYLOAD"
	TASK     = "TASK"
	PORTSCAN = "PORTSCAN"
	TOOL     = "TOOL"
	HTTP     = "HTTP"
	EXPECT   = "EXPECT"
	CONTAINS = "CONTAINS"
	FUZZ     = "FUZZ"
	USING    = "USING"
	WITH     = "WITH"
	METHOD   = "METHOD"
	NOTE     = "NOTE"
	FINDING  = "FINDING"
	RUN      = "RUN"
	SAVE     = "SAVE"
	AS       = "AS"
	REPORT   = "REPORT"
	INPUT    = "INPUT"
	OUTPUT   = "OUTPUT"
	LAMBDA   = "LAMBDA"
	ASYNC    = "ASYNC"
	AWAIT    = "AWAIT"
	FOR      = "FOR"
	IN       = "IN"
	IF       = "IF"
	ELIF     = "ELIF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	PASS     = "PASS"
	RETURN   = "RETURN"
	DEF      = "DEF"
	CLASS    = "CLASS"
	TRY      = "TRY"
	EXCEPT   = "EXCEPT"
	FINALLY  = "FINALLY"
	RAISE    = "RAISE"
	IMPORT   = "IMPORT"
	FROM     = "FROM"
	GLOBAL   = "GLOBAL"
	NONLOCAL = "NONLOCAL"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NONE     = "NONE"
	AND      = "AND"
	OR       = "OR"
	NOT      = "NOT"
)

// Token carries both the processed literal (escapes resolved, quotes
// stripped) and the raw lexeme so the original source can be reconstructed
// from the token stream.
type Token struct {
	Type    TokenType
	Literal string // processed value
	Lexeme  string // raw source text
	Line    int
	Column  int
	Start   int // byte offset of the first lexeme byte
	End     int // byte offset one past the last lexeme byte
}

var keywords = map[string]TokenType{
	"SET":      SET,
	"EMBED":    EMBED,
	"TARGET":   TARGET,
	"SCOPE":    SCOPE,
	"PAYLOAD":  PAYLOAD,
	"TASK":     TASK,
	"PORTSCAN": PORTSCAN,
	"TOOL":     TOOL,
	"HTTP":     HTTP,
	"EXPECT":   EXPECT,
	"CONTAINS": CONTAINS,
	"FUZZ":     FUZZ,
	"USING":    USING,
	"WITH":     WITH,
	"METHOD":   METHOD,
	"NOTE":     NOTE,
	"FINDING":  FINDING,
	"RUN":      RUN,
	"SAVE":     SAVE,
	"AS":       AS,
	"REPORT":   REPORT,
	"INPUT":    INPUT,
	"OUTPUT":   OUTPUT,
	"LAMBDA":   LAMBDA,
	"ASYNC":    ASYNC,
	"AWAIT":    AWAIT,
	"FOR":      FOR,
	"IN":       IN,
	"IF":       IF,
	"ELIF":     ELIF,
	"ELSE":     ELSE,
	"WHILE":    WHILE,
	"BREAK":    BREAK,
	"CONTINUE": CONTINUE,
	"PASS":     PASS,
	"RETURN":   RETURN,
	"DEF":      DEF,
	"CLASS":    CLASS,
	"TRY":      TRY,
	"EXCEPT":   EXCEPT,
	"FINALLY":  FINALLY,
	"RAISE":    RAISE,
	"IMPORT":   IMPORT,
	"FROM":     FROM,
	"GLOBAL":   GLOBAL,
	"NONLOCAL": NONLOCAL,
	"TRUE":     TRUE,
	"FALSE":    FALSE,
	"NONE":     NONE,
	"AND":      AND,
	"OR":       OR,
	"NOT":      NOT,
}

// LookupIdent classifies an identifier against the keyword table.
// Matching is case-sensitive: only the exact uppercase spelling is a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
