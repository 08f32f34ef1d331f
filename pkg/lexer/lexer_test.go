package lexer

import (
	"strings"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `int main() { return 42; }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenInt, "42"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestFixedLexemesRoundTrip(t *testing.T) {
	for tt := TokenInt_; tt <= TokenEllipsis; tt++ {
		text := tt.String()
		l := New(text)
		tok := l.NextToken()
		if tok.Type != tt {
			t.Errorf("%q lexed as %s, want %s", text, tok.Type, tt)
			continue
		}
		if tok.Literal != text {
			t.Errorf("%q has literal %q", text, tok.Literal)
		}
		if tok.Pos != 0 || tok.End != len(text) {
			t.Errorf("%q spans [%d,%d), want [0,%d)", text, tok.Pos, tok.End, len(text))
		}
		if next := l.NextToken(); next.Type != TokenEOF {
			t.Errorf("%q left trailing token %s", text, next.Type)
		}
	}
}

func TestEveryTokenTypeIsSpelled(t *testing.T) {
	for tt := TokenEOF; tt < numTokenTypes; tt++ {
		if tt.String() == "" {
			t.Errorf("token type %d has no spelling", tt)
		}
	}
	for tt := TokenInt_; tt <= TokenEllipsis; tt++ {
		word := isLetter(tt.String()[0])
		if word != tt.IsKeyword() {
			t.Errorf("%q: IsKeyword = %v", tt, tt.IsKeyword())
		}
		if word && LookupIdent(tt.String()) != tt {
			t.Errorf("LookupIdent(%q) = %s", tt, LookupIdent(tt.String()))
		}
	}
	if LookupIdent("restrict") != TokenIdent {
		t.Error("restrict is an ordinary identifier")
	}
}

func TestLongestMatch(t *testing.T) {
	input := `a<<=b>>c->d...e++--f`
	want := []TokenType{
		TokenIdent, TokenShlAssign, TokenIdent, TokenShr, TokenIdent, TokenArrow,
		TokenIdent, TokenEllipsis, TokenIdent, TokenIncrement, TokenDecrement, TokenIdent, TokenEOF,
	}
	l := New(input)
	for i, w := range want {
		if tok := l.NextToken(); tok.Type != w {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, w)
		}
	}
}

func TestComments(t *testing.T) {
	input := `int // comment
main /* block
comment */ ()`

	want := []TokenType{TokenInt_, TokenIdent, TokenLParen, TokenRParen, TokenEOF}
	l := New(input)
	for i, w := range want {
		if tok := l.NextToken(); tok.Type != w {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, w)
		}
	}
}

func TestUnterminatedBlockCommentEndsInput(t *testing.T) {
	l := New("x /* never closed")
	if tok := l.NextToken(); tok.Type != TokenIdent {
		t.Fatalf("got %s, want identifier", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != TokenEOF {
		t.Fatalf("got %s, want EOF", tok.Type)
	}
	if l.Err() != nil {
		t.Fatalf("unexpected error %v", l.Err())
	}
}

func TestIncludeLinesAreSkipped(t *testing.T) {
	l := New("#include <stdio.h>\n#include <stdlib.h>\nint")
	if tok := l.NextToken(); tok.Type != TokenInt_ {
		t.Fatalf("got %s, want int", tok.Type)
	}
}

func TestIntegerConstants(t *testing.T) {
	tests := []struct {
		input    string
		value    uint64
		decimal  bool
		unsigned bool
		long     bool
	}{
		{"0", 0, true, false, false},
		{"42", 42, true, false, false},
		{"052", 42, false, false, false},
		{"0x2a", 42, false, false, false},
		{"0X2A", 42, false, false, false},
		{"0b101010", 42, false, false, false},
		{"42u", 42, true, true, false},
		{"42UL", 42, true, true, true},
		{"4294967295", 4294967295, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != TokenInt {
				t.Fatalf("got %s, want integer constant", tok.Type)
			}
			if tok.IntValue != tt.value {
				t.Errorf("value = %d, want %d", tok.IntValue, tt.value)
			}
			if tok.Decimal != tt.decimal || tok.Unsigned != tt.unsigned || tok.Long != tt.long {
				t.Errorf("flags = (%v,%v,%v), want (%v,%v,%v)",
					tok.Decimal, tok.Unsigned, tok.Long, tt.decimal, tt.unsigned, tt.long)
			}
		})
	}
}

func TestFloatingConstants(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value float64
	}{
		{"1.5", TokenDoubleConst, 1.5},
		{"1.", TokenDoubleConst, 1},
		{".25", TokenDoubleConst, 0.25},
		{"1e3", TokenDoubleConst, 1000},
		{"2.5e-1", TokenDoubleConst, 0.25},
		{"1.5f", TokenFloatConst, 1.5},
		{"3f", TokenFloatConst, 3},
		{"09.5", TokenDoubleConst, 9.5},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("got %s, want %s", tok.Type, tt.typ)
			}
			if tok.FloatValue != tt.value {
				t.Errorf("value = %v, want %v", tok.FloatValue, tt.value)
			}
		})
	}
}

func TestCharAndStringConstants(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value string
	}{
		{`'a'`, TokenCharConst, "a"},
		{`'\n'`, TokenCharConst, "\n"},
		{`'\0'`, TokenCharConst, "\x00"},
		{`'\x41'`, TokenCharConst, "A"},
		{`'\''`, TokenCharConst, "'"},
		{`"hello\tworld\n"`, TokenString, "hello\tworld\n"},
		{`"say \"hi\""`, TokenString, `say "hi"`},
		{`"\101\102"`, TokenString, "AB"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("got %s, want %s (%v)", tok.Type, tt.typ, tok.Literal)
			}
			if tok.StrValue != tt.value {
				t.Errorf("value = %q, want %q", tok.StrValue, tt.value)
			}
			if tok.Literal != tt.input {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.input)
			}
		})
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		input   string
		pos     int
		message string
	}{
		{"x @ y", 2, "illegal character"},
		{"'a\n'", 0, "unterminated character constant"},
		{"\"abc\ndef\"", 0, "unterminated string literal"},
		{"0128", 3, "octal"},
		{"0x;", 0, "hexadecimal literal has no digits"},
		{"0b2", 0, "binary literal has no digits"},
		{"''", 0, "empty character constant"},
		{"'ab'", 0, "multi-character constant"},
		{`"\q"`, 1, "unknown escape"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			var tok Token
			for tok = l.NextToken(); tok.Type != TokenIllegal && tok.Type != TokenEOF; tok = l.NextToken() {
			}
			if tok.Type != TokenIllegal {
				t.Fatalf("expected a lexical error")
			}
			err := l.Err()
			if err.Pos != tt.pos {
				t.Errorf("error position = %d, want %d", err.Pos, tt.pos)
			}
			if !strings.Contains(err.Msg, tt.message) {
				t.Errorf("error %q does not mention %q", err.Msg, tt.message)
			}
		})
	}
}

func TestIdentifiersAreInterned(t *testing.T) {
	l := New("count count")
	a := l.NextToken()
	b := l.NextToken()
	if a.Literal != b.Literal {
		t.Fatalf("literals differ: %q vs %q", a.Literal, b.Literal)
	}
	if len(l.names) != 1 {
		t.Errorf("interned %d names, want 1", len(l.names))
	}
}
