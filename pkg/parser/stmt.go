package parser

import (
	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/lexer"
)

func (p *Parser) parseBlock() *cabs.Block {
	p.openScope()
	defer p.closeScope()
	return p.parseBlockIn()
}

// parseBlockIn parses a block in the already open scope
func (p *Parser) parseBlockIn() *cabs.Block {
	block := &cabs.Block{At: p.curToken.Pos, Items: []cabs.Stmt{}}
	p.expect(lexer.TokenLBrace)

	for !p.curTokenIs(lexer.TokenRBrace) {
		if p.curTokenIs(lexer.TokenEOF) {
			p.errorf("expected '}', got %s", describe(p.curToken))
		}
		block.Items = append(block.Items, p.parseBlockItem())
	}

	block.End = p.curToken.Pos
	p.nextToken() // consume '}'
	return block
}

func (p *Parser) parseBlockItem() cabs.Stmt {
	if p.isDeclarationStart() {
		return &cabs.DeclStmt{Decl: p.parseDeclaration(false).(*cabs.Declaration)}
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() cabs.Stmt {
	tok := p.curToken
	switch tok.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenSemicolon:
		p.nextToken()
		return &cabs.Empty{At: tok.Pos}
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenIf:
		return p.parseIfStatement()
	case lexer.TokenWhile:
		p.nextToken()
		cond := p.parseCondition()
		return &cabs.While{At: tok.Pos, Cond: cond, Body: p.parseStatement()}
	case lexer.TokenDo:
		p.nextToken()
		body := p.parseStatement()
		p.expect(lexer.TokenWhile)
		cond := p.parseCondition()
		p.expect(lexer.TokenSemicolon)
		return &cabs.DoWhile{At: tok.Pos, Body: body, Cond: cond}
	case lexer.TokenFor:
		return p.parseForStatement()
	case lexer.TokenSwitch:
		p.nextToken()
		control := p.parseCondition()
		return &cabs.Switch{At: tok.Pos, Control: control, Body: p.parseStatement()}
	case lexer.TokenCase:
		p.nextToken()
		value := p.parseExpression(precAssign)
		p.expect(lexer.TokenColon)
		return &cabs.Case{At: tok.Pos, Value: value, Body: p.parseStatement()}
	case lexer.TokenDefault:
		p.nextToken()
		p.expect(lexer.TokenColon)
		return &cabs.Default{At: tok.Pos, Body: p.parseStatement()}
	case lexer.TokenBreak:
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &cabs.Break{At: tok.Pos}
	case lexer.TokenContinue:
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &cabs.Continue{At: tok.Pos}
	case lexer.TokenGoto:
		p.nextToken()
		label := p.expectIdent("a label")
		p.expect(lexer.TokenSemicolon)
		return &cabs.Goto{At: tok.Pos, Label: label.Literal}
	case lexer.TokenAssert:
		p.nextToken()
		cond := p.parseCondition()
		p.expect(lexer.TokenSemicolon)
		return &cabs.Assert{At: tok.Pos, Cond: cond}
	case lexer.TokenIdent:
		if p.peekTokenIs(lexer.TokenColon) && !p.isTypedefName(tok.Literal) {
			p.nextToken() // label
			p.nextToken() // ':'
			return &cabs.Labeled{At: tok.Pos, Label: tok.Literal, Body: p.parseStatement()}
		}
	}
	if p.isDeclarationStart() {
		p.errorf("a declaration is not allowed here")
	}
	x := p.parseExpression(precLowest)
	p.expect(lexer.TokenSemicolon)
	return &cabs.ExprStmt{X: x}
}

// parseCondition parses a parenthesized expression
func (p *Parser) parseCondition() cabs.Expr {
	p.expect(lexer.TokenLParen)
	x := p.parseExpression(precLowest)
	p.expect(lexer.TokenRParen)
	return x
}

func (p *Parser) parseReturnStatement() cabs.Stmt {
	ret := &cabs.Return{At: p.curToken.Pos}
	p.nextToken() // consume 'return'
	if !p.curTokenIs(lexer.TokenSemicolon) {
		ret.Result = p.parseExpression(precLowest)
	}
	p.expect(lexer.TokenSemicolon)
	return ret
}

func (p *Parser) parseIfStatement() cabs.Stmt {
	stmt := &cabs.If{At: p.curToken.Pos}
	p.nextToken() // consume 'if'
	stmt.Cond = p.parseCondition()
	stmt.Then = p.parseStatement()
	if p.curTokenIs(lexer.TokenElse) {
		p.nextToken()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseForStatement() cabs.Stmt {
	stmt := &cabs.For{At: p.curToken.Pos}
	p.nextToken() // consume 'for'
	p.expect(lexer.TokenLParen)
	p.openScope()
	defer p.closeScope()

	switch {
	case p.curTokenIs(lexer.TokenSemicolon):
		p.nextToken()
	case p.isDeclarationStart():
		stmt.Init = &cabs.DeclStmt{Decl: p.parseDeclaration(false).(*cabs.Declaration)}
	default:
		stmt.Init = &cabs.ExprStmt{X: p.parseExpression(precLowest)}
		p.expect(lexer.TokenSemicolon)
	}
	if !p.curTokenIs(lexer.TokenSemicolon) {
		stmt.Cond = p.parseExpression(precLowest)
	}
	p.expect(lexer.TokenSemicolon)
	if !p.curTokenIs(lexer.TokenRParen) {
		stmt.Update = p.parseExpression(precLowest)
	}
	p.expect(lexer.TokenRParen)
	stmt.Body = p.parseStatement()
	return stmt
}
