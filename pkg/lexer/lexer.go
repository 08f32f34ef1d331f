// Package lexer turns C source text into a lazy stream of tokens.
package lexer

import (
	"math"
	"strconv"
	"strings"

	"github.com/raymyers/stepc/pkg/diag"
)

// Lexer tokenizes C source code. It is a single forward pass: once a token
// has been returned it cannot be re-read.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	err     *diag.Diagnostic
	names   map[string]string // interned identifiers and keywords
}

// operators lists every punctuator spelling, grouped by length so that the
// longest match wins.
var operators [4]map[string]TokenType

func init() {
	for t := TokenPlus; t <= TokenEllipsis; t++ {
		text := t.String()
		if operators[len(text)] == nil {
			operators[len(text)] = make(map[string]TokenType)
		}
		operators[len(text)][text] = t
	}
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, names: make(map[string]string)}
	l.readChar()
	return l
}

// Err returns the lexical diagnostic behind the most recent TokenIllegal
func (l *Lexer) Err() *diag.Diagnostic {
	return l.err
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.readPos+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPos+n]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token from the input. A lexical error yields a
// TokenIllegal whose diagnostic is available from Err.
func (l *Lexer) NextToken() Token {
	l.skipTrivia()

	start := l.pos
	if l.atEnd() {
		return Token{Type: TokenEOF, Pos: start, End: start}
	}

	var tok Token
	switch {
	case isLetter(l.ch):
		tok = l.readIdentifier()
	case isDigit(l.ch) || l.ch == '.' && isDigit(l.peekChar()):
		tok = l.readNumber()
	case l.ch == '\'':
		tok = l.readCharConst()
	case l.ch == '"':
		tok = l.readString()
	default:
		tok = l.readOperator()
	}
	tok.Pos = start
	if tok.Type != TokenIllegal {
		tok.End = l.pos
		if tok.Literal == "" {
			tok.Literal = l.input[start:l.pos]
		}
	}
	return tok
}

func (l *Lexer) illegal(pos int, format string, args ...any) Token {
	l.err = diag.Errorf(pos, format, args...)
	return Token{Type: TokenIllegal, Literal: l.err.Msg, Pos: pos, End: pos}
}

// skipTrivia skips whitespace, comments and #include lines. An unterminated
// block comment silently runs to the end of the input, so that a half-typed
// program in an editor still tokenizes.
func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume /
			l.readChar() // consume *
			for !l.atEnd() && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if !l.atEnd() {
				l.readChar() // consume *
				l.readChar() // consume /
			}
		case l.ch == '#' && strings.HasPrefix(l.input[l.pos:], "#include"):
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) intern(s string) string {
	if n, ok := l.names[s]; ok {
		return n
	}
	l.names[s] = s
	return s
}

func (l *Lexer) readIdentifier() Token {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	name := l.intern(l.input[pos:l.pos])
	return Token{Type: LookupIdent(name), Literal: name}
}

func (l *Lexer) readOperator() Token {
	for n := 3; n >= 1; n-- {
		if l.pos+n > len(l.input) {
			continue
		}
		if t, ok := operators[n][l.input[l.pos:l.pos+n]]; ok {
			for i := 0; i < n; i++ {
				l.readChar()
			}
			return Token{Type: t}
		}
	}
	return l.illegal(l.pos, "illegal character %q", l.ch)
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		return l.readRadix(start, 16, "hexadecimal", isHexDigit)
	}
	if l.ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		return l.readRadix(start, 2, "binary", isBinaryDigit)
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	floating := false
	if l.ch == '.' {
		floating = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || (l.peekChar() == '+' || l.peekChar() == '-') && isDigit(l.peekAt(1))) {
		floating = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	text := l.input[start:l.pos]

	if l.ch == 'f' || l.ch == 'F' {
		l.readChar()
		v, err := strconv.ParseFloat(text, 32)
		if err != nil && !isRangeError(err) {
			return l.illegal(start, "malformed float constant %s", text)
		}
		return Token{Type: TokenFloatConst, FloatValue: v}
	}
	if floating {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil && !isRangeError(err) {
			return l.illegal(start, "malformed double constant %s", text)
		}
		return Token{Type: TokenDoubleConst, FloatValue: v}
	}

	tok := Token{Type: TokenInt, Decimal: true}
	base := 10
	digits := text
	if len(text) > 1 && text[0] == '0' {
		tok.Decimal = false
		base = 8
		digits = text[1:]
		if i := strings.IndexAny(digits, "89"); i >= 0 {
			return l.illegal(start+1+i, "digit %c is not allowed in an octal literal", digits[i])
		}
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return l.illegal(start, "integer constant %s is too large", text)
	}
	tok.IntValue = v
	return l.readIntSuffix(tok)
}

func (l *Lexer) readRadix(start int, base int, name string, valid func(byte) bool) Token {
	l.readChar() // consume 0
	l.readChar() // consume x or b
	digitsStart := l.pos
	for valid(l.ch) {
		l.readChar()
	}
	if l.pos == digitsStart {
		return l.illegal(start, "%s literal has no digits", name)
	}
	v, err := strconv.ParseUint(l.input[digitsStart:l.pos], base, 64)
	if err != nil {
		return l.illegal(start, "integer constant %s is too large", l.input[start:l.pos])
	}
	return l.readIntSuffix(Token{Type: TokenInt, IntValue: v})
}

func (l *Lexer) readIntSuffix(tok Token) Token {
	for {
		switch {
		case (l.ch == 'u' || l.ch == 'U') && !tok.Unsigned:
			tok.Unsigned = true
		case (l.ch == 'l' || l.ch == 'L') && !tok.Long:
			tok.Long = true
		default:
			if isLetter(l.ch) || isDigit(l.ch) {
				return l.illegal(l.pos, "invalid suffix %q on integer constant", l.ch)
			}
			return tok
		}
		l.readChar()
	}
}

func (l *Lexer) readCharConst() Token {
	start := l.pos
	l.readChar() // consume opening quote
	if l.ch == '\'' {
		return l.illegal(start, "empty character constant")
	}
	var buf []byte
	for l.ch != '\'' {
		if l.ch == '\n' || l.atEnd() {
			return l.illegal(start, "unterminated character constant")
		}
		b, ok := l.readEscaped()
		if !ok {
			return Token{Type: TokenIllegal, Literal: l.err.Msg, Pos: l.err.Pos}
		}
		buf = append(buf, b)
	}
	l.readChar() // consume closing quote
	if len(buf) != 1 {
		return l.illegal(start, "multi-character constant")
	}
	return Token{Type: TokenCharConst, StrValue: string(buf), IntValue: uint64(buf[0])}
}

func (l *Lexer) readString() Token {
	start := l.pos
	l.readChar() // consume opening quote
	var b strings.Builder
	for l.ch != '"' {
		if l.ch == '\n' || l.atEnd() {
			return l.illegal(start, "unterminated string literal")
		}
		c, ok := l.readEscaped()
		if !ok {
			return Token{Type: TokenIllegal, Literal: l.err.Msg, Pos: l.err.Pos}
		}
		b.WriteByte(c)
	}
	l.readChar() // consume closing quote
	return Token{Type: TokenString, StrValue: b.String()}
}

// readEscaped consumes one possibly escaped character of a char or string
// constant.
func (l *Lexer) readEscaped() (byte, bool) {
	if l.ch != '\\' {
		c := l.ch
		l.readChar()
		return c, true
	}
	escPos := l.pos
	l.readChar() // consume backslash
	c := l.ch
	switch c {
	case 'n':
		c = '\n'
	case 't':
		c = '\t'
	case 'r':
		c = '\r'
	case 'a':
		c = '\a'
	case 'b':
		c = '\b'
	case 'f':
		c = '\f'
	case 'v':
		c = '\v'
	case '\\', '\'', '"', '?':
	case 'x':
		l.readChar()
		v := 0
		n := 0
		for isHexDigit(l.ch) {
			d, _ := strconv.ParseUint(string(l.ch), 16, 8)
			v = v*16 + int(d)
			n++
			l.readChar()
		}
		if n == 0 || v > math.MaxUint8 {
			l.illegal(escPos, "malformed hexadecimal escape sequence")
			return 0, false
		}
		return byte(v), true
	default:
		if c >= '0' && c <= '7' {
			v := 0
			for n := 0; n < 3 && l.ch >= '0' && l.ch <= '7'; n++ {
				v = v*8 + int(l.ch-'0')
				l.readChar()
			}
			if v > math.MaxUint8 {
				l.illegal(escPos, "octal escape sequence out of range")
				return 0, false
			}
			return byte(v), true
		}
		l.illegal(escPos, "unknown escape sequence \\%c", c)
		return 0, false
	}
	l.readChar()
	return c, true
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func isBinaryDigit(ch byte) bool {
	return ch == '0' || ch == '1'
}
