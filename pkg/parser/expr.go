package parser

import (
	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/lexer"
)

// Binding precedences, lowest first
const (
	precLowest  = 0
	precComma   = 10
	precAssign  = 20
	precCond    = 30
	precOr      = 40
	precAnd     = 50
	precBitOr   = 60
	precBitXor  = 70
	precBitAnd  = 80
	precEqual   = 90
	precCompare = 100
	precShift   = 110
	precAdd     = 120
	precMul     = 130
	precPrefix  = 140
	precPostfix = 150
)

// infixOps maps left-associative binary operator tokens to their operator
// and precedence.
var infixOps = map[lexer.TokenType]struct {
	op   cabs.BinaryOp
	prec int
}{
	lexer.TokenOr:        {cabs.OpOr, precOr},
	lexer.TokenAnd:       {cabs.OpAnd, precAnd},
	lexer.TokenPipe:      {cabs.OpBitOr, precBitOr},
	lexer.TokenCaret:     {cabs.OpBitXor, precBitXor},
	lexer.TokenAmpersand: {cabs.OpBitAnd, precBitAnd},
	lexer.TokenEq:        {cabs.OpEq, precEqual},
	lexer.TokenNe:        {cabs.OpNe, precEqual},
	lexer.TokenLt:        {cabs.OpLt, precCompare},
	lexer.TokenLe:        {cabs.OpLe, precCompare},
	lexer.TokenGt:        {cabs.OpGt, precCompare},
	lexer.TokenGe:        {cabs.OpGe, precCompare},
	lexer.TokenShl:       {cabs.OpShl, precShift},
	lexer.TokenShr:       {cabs.OpShr, precShift},
	lexer.TokenPlus:      {cabs.OpAdd, precAdd},
	lexer.TokenMinus:     {cabs.OpSub, precAdd},
	lexer.TokenStar:      {cabs.OpMul, precMul},
	lexer.TokenSlash:     {cabs.OpDiv, precMul},
	lexer.TokenPercent:   {cabs.OpMod, precMul},
}

// assignOps maps assignment tokens to the arithmetic operator they apply
var assignOps = map[lexer.TokenType]cabs.BinaryOp{
	lexer.TokenAssign:        cabs.OpAssign,
	lexer.TokenPlusAssign:    cabs.OpAdd,
	lexer.TokenMinusAssign:   cabs.OpSub,
	lexer.TokenStarAssign:    cabs.OpMul,
	lexer.TokenSlashAssign:   cabs.OpDiv,
	lexer.TokenPercentAssign: cabs.OpMod,
	lexer.TokenAndAssign:     cabs.OpBitAnd,
	lexer.TokenOrAssign:      cabs.OpBitOr,
	lexer.TokenXorAssign:     cabs.OpBitXor,
	lexer.TokenShlAssign:     cabs.OpShl,
	lexer.TokenShrAssign:     cabs.OpShr,
}

var prefixOps = map[lexer.TokenType]cabs.UnaryOp{
	lexer.TokenMinus:     cabs.OpNeg,
	lexer.TokenPlus:      cabs.OpPlus,
	lexer.TokenNot:       cabs.OpNot,
	lexer.TokenTilde:     cabs.OpBitNot,
	lexer.TokenStar:      cabs.OpDeref,
	lexer.TokenAmpersand: cabs.OpAddrOf,
}

// precedence returns the binding power of tok as a continuation; tokens
// that cannot continue an expression bind with precLowest.
func precedence(tok lexer.TokenType) int {
	if info, ok := infixOps[tok]; ok {
		return info.prec
	}
	if _, ok := assignOps[tok]; ok {
		return precAssign
	}
	switch tok {
	case lexer.TokenComma:
		return precComma
	case lexer.TokenQuestion:
		return precCond
	case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenDot, lexer.TokenArrow,
		lexer.TokenIncrement, lexer.TokenDecrement:
		return precPostfix
	}
	return precLowest
}

// parseExpression parses an expression whose continuations all bind more
// tightly than prec.
func (p *Parser) parseExpression(prec int) cabs.Expr {
	left := p.parsePrefix()
	for precedence(p.curToken.Type) > prec {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() cabs.Expr {
	tok := p.curToken
	switch tok.Type {
	case lexer.TokenInt:
		p.nextToken()
		e := &cabs.IntConstant{Raw: tok.IntValue, Unsigned: tok.Unsigned, Long: tok.Long, Decimal: tok.Decimal, Text: tok.Literal}
		e.At = tok.Pos
		return e
	case lexer.TokenFloatConst, lexer.TokenDoubleConst:
		p.nextToken()
		e := &cabs.FloatConstant{Raw: tok.FloatValue, IsFloat: tok.Type == lexer.TokenFloatConst, Text: tok.Literal}
		e.At = tok.Pos
		return e
	case lexer.TokenCharConst:
		p.nextToken()
		e := &cabs.CharConstant{Raw: byte(tok.IntValue), Text: tok.Literal}
		e.At = tok.Pos
		return e
	case lexer.TokenString:
		return p.parseString()
	case lexer.TokenIdent:
		if p.isTypedefName(tok.Literal) {
			p.errorf("unexpected type name '%s' in expression", tok.Literal)
		}
		p.nextToken()
		e := &cabs.Identifier{Name: tok.Literal}
		e.At = tok.Pos
		return e
	case lexer.TokenLParen:
		if p.isTypeStart(p.peekToken) {
			return p.parseCast()
		}
		p.nextToken() // consume '('
		inner := p.parseExpression(precLowest)
		p.expect(lexer.TokenRParen)
		return inner
	case lexer.TokenIncrement, lexer.TokenDecrement:
		p.nextToken()
		e := &cabs.IncDec{Decrement: tok.Type == lexer.TokenDecrement, Operand: p.parseExpression(precPrefix)}
		e.At = tok.Pos
		return e
	case lexer.TokenSizeof:
		p.nextToken()
		if p.curTokenIs(lexer.TokenLParen) && p.isTypeStart(p.peekToken) {
			p.nextToken() // consume '('
			of := p.parseTypeName()
			p.expect(lexer.TokenRParen)
			e := &cabs.SizeofType{Of: of}
			e.At = tok.Pos
			return e
		}
		e := &cabs.SizeofExpr{Operand: p.parseExpression(precPrefix)}
		e.At = tok.Pos
		return e
	}
	if op, ok := prefixOps[tok.Type]; ok {
		p.nextToken()
		e := &cabs.Unary{Op: op, Operand: p.parseExpression(precPrefix)}
		e.At = tok.Pos
		return e
	}
	p.errorf("expected an expression, got %s", describe(tok))
	return nil
}

// parseString concatenates adjacent string literals
func (p *Parser) parseString() cabs.Expr {
	e := &cabs.StringLiteral{}
	e.At = p.curToken.Pos
	for p.curTokenIs(lexer.TokenString) {
		e.Raw += p.curToken.StrValue
		p.nextToken()
	}
	return e
}

func (p *Parser) parseCast() cabs.Expr {
	at := p.curToken.Pos
	p.nextToken() // consume '('
	to := p.parseTypeName()
	p.expect(lexer.TokenRParen)
	if p.curTokenIs(lexer.TokenLBrace) {
		p.unsupported("a compound literal")
	}
	e := &cabs.Cast{To: to, Operand: p.parseExpression(precPrefix)}
	e.At = at
	return e
}

func (p *Parser) parseInfix(left cabs.Expr) cabs.Expr {
	tok := p.curToken
	if info, ok := infixOps[tok.Type]; ok {
		p.nextToken()
		e := &cabs.Binary{Op: info.op, Left: left, Right: p.parseExpression(info.prec)}
		e.At = tok.Pos
		return e
	}
	if op, ok := assignOps[tok.Type]; ok {
		p.nextToken()
		// right-associative
		e := &cabs.Assign{Op: op, Target: left, Source: p.parseExpression(precAssign - 1)}
		e.At = tok.Pos
		return e
	}
	switch tok.Type {
	case lexer.TokenComma:
		p.nextToken()
		e := &cabs.Comma{Left: left, Right: p.parseExpression(precComma)}
		e.At = tok.Pos
		return e
	case lexer.TokenQuestion:
		p.nextToken()
		then := p.parseExpression(precLowest)
		p.expect(lexer.TokenColon)
		e := &cabs.Conditional{Cond: left, Then: then, Else: p.parseExpression(precCond - 1)}
		e.At = tok.Pos
		return e
	case lexer.TokenLParen:
		p.nextToken()
		e := &cabs.Call{Func: left}
		e.At = tok.Pos
		for !p.curTokenIs(lexer.TokenRParen) {
			e.Args = append(e.Args, p.parseExpression(precComma))
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
		p.expect(lexer.TokenRParen)
		return e
	case lexer.TokenLBracket:
		p.nextToken()
		e := &cabs.Index{Array: left, Index: p.parseExpression(precLowest)}
		e.At = tok.Pos
		p.expect(lexer.TokenRBracket)
		return e
	case lexer.TokenDot, lexer.TokenArrow:
		p.nextToken()
		name := p.expectIdent("a member name")
		e := &cabs.Member{Base: left, Name: name.Literal, NamePos: name.Pos, Arrow: tok.Type == lexer.TokenArrow}
		e.At = tok.Pos
		return e
	case lexer.TokenIncrement, lexer.TokenDecrement:
		p.nextToken()
		e := &cabs.IncDec{Decrement: tok.Type == lexer.TokenDecrement, Postfix: true, Operand: left}
		e.At = tok.Pos
		return e
	}
	p.errorf("unexpected %s in expression", describe(tok))
	return nil
}
