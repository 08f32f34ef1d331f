package lexer

// TokenType represents the type of a token
type TokenType int

// Token types with a fixed spelling run from TokenInt_ to TokenEllipsis;
// the spellings live in the spelling table below.
const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdent
	TokenInt // 42, 0x2a, 052, 0b101010, with optional u/l suffixes
	TokenFloatConst
	TokenDoubleConst
	TokenCharConst
	TokenString

	// Type specifiers
	TokenInt_
	TokenVoid
	TokenChar
	TokenShort
	TokenLong
	TokenFloat
	TokenDouble
	TokenSigned
	TokenUnsigned
	TokenStruct
	TokenUnion
	TokenEnum

	// Storage classes and qualifiers
	TokenTypedef
	TokenStatic
	TokenExtern
	TokenAuto
	TokenRegister
	TokenConst
	TokenVolatile

	// Statements and operators spelled as words
	TokenReturn
	TokenIf
	TokenElse
	TokenWhile
	TokenDo
	TokenFor
	TokenBreak
	TokenContinue
	TokenSwitch
	TokenCase
	TokenDefault
	TokenGoto
	TokenSizeof
	TokenAssert // the assert macro, treated as a statement

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenAssign
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenAnd
	TokenOr
	TokenNot
	TokenAmpersand
	TokenPipe
	TokenCaret
	TokenTilde
	TokenShl
	TokenShr
	TokenQuestion
	TokenColon
	TokenPlusAssign
	TokenMinusAssign
	TokenStarAssign
	TokenSlashAssign
	TokenPercentAssign
	TokenAndAssign
	TokenOrAssign
	TokenXorAssign
	TokenShlAssign
	TokenShrAssign
	TokenIncrement
	TokenDecrement

	// Punctuators
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenArrow
	TokenEllipsis

	numTokenTypes
)

// spelling holds the source text of fixed tokens and a description of the
// others, as used in diagnostics.
var spelling = [numTokenTypes]string{
	TokenEOF:         "end of input",
	TokenIllegal:     "illegal token",
	TokenIdent:       "identifier",
	TokenInt:         "integer constant",
	TokenFloatConst:  "float constant",
	TokenDoubleConst: "double constant",
	TokenCharConst:   "character constant",
	TokenString:      "string literal",

	TokenInt_: "int", TokenVoid: "void", TokenChar: "char", TokenShort: "short",
	TokenLong: "long", TokenFloat: "float", TokenDouble: "double",
	TokenSigned: "signed", TokenUnsigned: "unsigned", TokenStruct: "struct",
	TokenUnion: "union", TokenEnum: "enum",

	TokenTypedef: "typedef", TokenStatic: "static", TokenExtern: "extern",
	TokenAuto: "auto", TokenRegister: "register", TokenConst: "const",
	TokenVolatile: "volatile",

	TokenReturn: "return", TokenIf: "if", TokenElse: "else", TokenWhile: "while",
	TokenDo: "do", TokenFor: "for", TokenBreak: "break", TokenContinue: "continue",
	TokenSwitch: "switch", TokenCase: "case", TokenDefault: "default",
	TokenGoto: "goto", TokenSizeof: "sizeof", TokenAssert: "assert",

	TokenPlus: "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/",
	TokenPercent: "%", TokenAssign: "=", TokenEq: "==", TokenNe: "!=",
	TokenLt: "<", TokenLe: "<=", TokenGt: ">", TokenGe: ">=",
	TokenAnd: "&&", TokenOr: "||", TokenNot: "!", TokenAmpersand: "&",
	TokenPipe: "|", TokenCaret: "^", TokenTilde: "~", TokenShl: "<<",
	TokenShr: ">>", TokenQuestion: "?", TokenColon: ":",
	TokenPlusAssign: "+=", TokenMinusAssign: "-=", TokenStarAssign: "*=",
	TokenSlashAssign: "/=", TokenPercentAssign: "%=", TokenAndAssign: "&=",
	TokenOrAssign: "|=", TokenXorAssign: "^=", TokenShlAssign: "<<=",
	TokenShrAssign: ">>=", TokenIncrement: "++", TokenDecrement: "--",

	TokenLParen: "(", TokenRParen: ")", TokenLBrace: "{", TokenRBrace: "}",
	TokenLBracket: "[", TokenRBracket: "]", TokenSemicolon: ";",
	TokenComma: ",", TokenDot: ".", TokenArrow: "->", TokenEllipsis: "...",
}

func (t TokenType) String() string {
	if t >= 0 && t < numTokenTypes {
		return spelling[t]
	}
	return "unknown token"
}

// IsKeyword reports whether t is a reserved word
func (t TokenType) IsKeyword() bool {
	return t >= TokenInt_ && t <= TokenAssert
}

// IsFixed reports whether every token of type t has the same spelling
func (t TokenType) IsFixed() bool {
	return t >= TokenInt_ && t <= TokenEllipsis
}

// Token is a lexical token. Pos and End are byte offsets of the token's
// first byte and one past its last byte.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
	End     int

	// Decoded literal values
	IntValue   uint64
	FloatValue float64
	StrValue   string // decoded string or character constant contents

	// Integer constant spelling details
	Unsigned bool // u or U suffix
	Long     bool // l or L suffix
	Decimal  bool // written in base 10
}

var keywords = make(map[string]TokenType)

func init() {
	for t := TokenInt_; t <= TokenAssert; t++ {
		keywords[spelling[t]] = t
	}
}

// LookupIdent returns the keyword spelled ident, or TokenIdent
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
