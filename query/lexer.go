package query

import (
	"strings"
	"unicode"
)

// Lexer tokenizes SQL query strings, tracking line and column positions
type Lexer struct {
	input string
	pos   int
	ch    rune
	line  int
	col   int
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, col: -1}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = -1
	}
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = rune(l.input[l.pos])
	}
	l.pos++
	l.col++
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return rune(l.input[l.pos])
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted string literal. There is no escape handling:
// the literal runs to the matching quote. It reports false when the line
// or input ends before the closing quote. Bytes are copied through raw so
// multi-byte UTF-8 content survives the byte-wise scan.
func (l *Lexer) readString(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			return "", false
		}
		result.WriteByte(byte(l.ch))
		l.readChar()
	}
	l.readChar() // skip closing quote

	return result.String(), true
}

// readNumber reads an integer or simple decimal literal. The dot is
// consumed only when a digit follows, so "12." lexes as 12 and a dot.
func (l *Lexer) readNumber() string {
	var result strings.Builder
	for unicode.IsDigit(l.ch) {
		result.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		result.WriteRune(l.ch)
		l.readChar()
		for unicode.IsDigit(l.ch) {
			result.WriteRune(l.ch)
			l.readChar()
		}
	}
	return result.String()
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	line, col := l.line, l.col

	var tok Token
	switch l.ch {
	case 0:
		tok = Token{Type: TokenEOF}
	case '=':
		tok = Token{Type: TokenEqual, Value: "="}
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "!="}
			l.readChar()
		} else {
			return Token{}, &LexError{Line: line, Column: col, Char: '!'}
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: TokenLessEqual, Value: "<="}
			l.readChar()
		case '>':
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "<>"}
			l.readChar()
		default:
			tok = Token{Type: TokenLess, Value: "<"}
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGreaterEqual, Value: ">="}
			l.readChar()
		} else {
			tok = Token{Type: TokenGreater, Value: ">"}
			l.readChar()
		}
	case '\'', '"':
		quote := l.ch
		value, ok := l.readString(quote)
		if !ok {
			return Token{}, &LexError{Line: line, Column: col, Char: quote, Message: "unterminated string literal"}
		}
		tok = Token{Type: TokenString, Value: value}
	case '+':
		tok = Token{Type: TokenPlus, Value: "+"}
		l.readChar()
	case '-':
		tok = Token{Type: TokenMinus, Value: "-"}
		l.readChar()
	case '/':
		tok = Token{Type: TokenSlash, Value: "/"}
		l.readChar()
	case '*':
		tok = Token{Type: TokenStar, Value: "*"}
		l.readChar()
	case ',':
		tok = Token{Type: TokenComma, Value: ","}
		l.readChar()
	case ';':
		tok = Token{Type: TokenSemicolon, Value: ";"}
		l.readChar()
	case '(':
		tok = Token{Type: TokenLeftParen, Value: "("}
		l.readChar()
	case ')':
		tok = Token{Type: TokenRightParen, Value: ")"}
		l.readChar()
	case '.':
		tok = Token{Type: TokenDot, Value: "."}
		l.readChar()
	default:
		if unicode.IsDigit(l.ch) {
			tok = Token{Type: TokenNumber, Value: l.readNumber()}
		} else if unicode.IsLetter(l.ch) || l.ch == '_' {
			value := l.readIdentifier()
			tok = Token{Type: keywordType(value), Value: value}
		} else {
			return Token{}, &LexError{Line: line, Column: col, Char: l.ch}
		}
	}

	tok.Line, tok.Column = line, col
	return tok, nil
}

// keywords maps upper-cased spellings to their token types. INSERT, UPDATE,
// and DELETE are recognized only so the parser can reject them with a clear
// error instead of a generic one.
var keywords = map[string]TokenType{
	"SELECT":    TokenSelect,
	"FROM":      TokenFrom,
	"WHERE":     TokenWhere,
	"AND":       TokenAnd,
	"OR":        TokenOr,
	"NOT":       TokenNot,
	"AS":        TokenAs,
	"GROUP":     TokenGroup,
	"BY":        TokenBy,
	"HAVING":    TokenHaving,
	"ORDER":     TokenOrder,
	"ASC":       TokenAsc,
	"DESC":      TokenDesc,
	"LIMIT":     TokenLimit,
	"OFFSET":    TokenOffset,
	"IN":        TokenIn,
	"LIKE":      TokenLike,
	"BETWEEN":   TokenBetween,
	"IS":        TokenIs,
	"NULL":      TokenNull,
	"DISTINCT":  TokenDistinct,
	"CASE":      TokenCase,
	"WHEN":      TokenWhen,
	"THEN":      TokenThen,
	"ELSE":      TokenElse,
	"END":       TokenEnd,
	"JOIN":      TokenJoin,
	"INNER":     TokenInner,
	"LEFT":      TokenLeft,
	"RIGHT":     TokenRight,
	"FULL":      TokenFull,
	"OUTER":     TokenOuter,
	"CROSS":     TokenCross,
	"ON":        TokenOn,
	"UNION":     TokenUnion,
	"INTERSECT": TokenIntersect,
	"EXCEPT":    TokenExcept,
	"ALL":       TokenAll,
	"COUNT":     TokenCount,
	"SUM":       TokenSum,
	"AVG":       TokenAvg,
	"MIN":       TokenMin,
	"MAX":       TokenMax,
	"INSERT":    TokenInsert,
	"UPDATE":    TokenUpdate,
	"DELETE":    TokenDelete,
	"TRUE":      TokenBool,
	"FALSE":     TokenBool,
}

// keywordType determines if an identifier is a keyword. Matching is
// case-insensitive.
func keywordType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToUpper(ident)]; ok {
		return tokType
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input, ending with an EOF token.
func Tokenize(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}
