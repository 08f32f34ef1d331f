// Package parser implements a Pratt and recursive descent parser for the C
// subset. Parsing stops at the first error.
package parser

import (
	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/lexer"
)

// Parser parses C source code into a Cabs AST
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	peekErr   *diag.Diagnostic

	// scopes records, per block, which names are typedef names (true) and
	// which are ordinary identifiers shadowing them (false)
	scopes []map[string]bool
}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.openScope()
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole translation unit
func Parse(src string) (prog *cabs.Program, err error) {
	defer diag.Catch(&err)
	p := New(lexer.New(src))
	return p.ParseProgram(), nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.curToken.Type == lexer.TokenIllegal {
		diag.Throw(p.peekErr)
	}
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == lexer.TokenIllegal {
		p.peekErr = p.l.Err()
	}
}

func (p *Parser) errorf(format string, args ...any) {
	diag.Throw(diag.Errorf(p.curToken.Pos, format, args...))
}

// describe names a token for a diagnostic
func describe(tok lexer.Token) string {
	switch {
	case tok.Type.IsFixed():
		return "'" + tok.Type.String() + "'"
	case tok.Type == lexer.TokenIdent:
		return "identifier '" + tok.Literal + "'"
	case tok.Type == lexer.TokenEOF:
		return tok.Type.String()
	}
	return tok.Type.String() + " " + tok.Literal
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

// expect consumes a token of type t and returns it
func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.curToken
	if !p.curTokenIs(t) {
		p.errorf("expected '%s', got %s", t, describe(tok))
	}
	p.nextToken()
	return tok
}

func (p *Parser) expectIdent(what string) lexer.Token {
	tok := p.curToken
	if !p.curTokenIs(lexer.TokenIdent) {
		p.errorf("expected %s, got %s", what, describe(tok))
	}
	p.nextToken()
	return tok
}

func (p *Parser) openScope() {
	p.scopes = append(p.scopes, make(map[string]bool))
}

func (p *Parser) closeScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

// declareName records whether name denotes a type in the innermost scope
func (p *Parser) declareName(name string, isType bool) {
	if name != "" {
		p.scopes[len(p.scopes)-1][name] = isType
	}
}

func (p *Parser) isTypedefName(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if isType, ok := p.scopes[i][name]; ok {
			return isType
		}
	}
	return false
}

// ParseProgram parses definitions until the end of input
func (p *Parser) ParseProgram() *cabs.Program {
	prog := &cabs.Program{}
	for !p.curTokenIs(lexer.TokenEOF) {
		prog.Definitions = append(prog.Definitions, p.ParseDefinition())
	}
	return prog
}

// ParseDefinition parses a top-level declaration or function definition
func (p *Parser) ParseDefinition() cabs.Definition {
	if !p.isDeclarationStart() {
		p.errorf("expected a declaration, got %s", describe(p.curToken))
	}
	return p.parseDeclaration(true)
}

// specState is the declaration-specifier state machine
type specState int

const (
	specOpen specState = iota
	specPrimitive
	specUserDefined
	// a struct or enum specifier, which may stand without a declarator
	specNoDeclaratorRequired
)

var primitiveKeywords = map[lexer.TokenType]bool{
	lexer.TokenVoid:     true,
	lexer.TokenChar:     true,
	lexer.TokenShort:    true,
	lexer.TokenInt_:     true,
	lexer.TokenLong:     true,
	lexer.TokenFloat:    true,
	lexer.TokenDouble:   true,
	lexer.TokenSigned:   true,
	lexer.TokenUnsigned: true,
}

var storageClasses = map[lexer.TokenType]cabs.StorageClass{
	lexer.TokenTypedef:  cabs.StorageTypedef,
	lexer.TokenStatic:   cabs.StorageStatic,
	lexer.TokenExtern:   cabs.StorageExtern,
	lexer.TokenAuto:     cabs.StorageAuto,
	lexer.TokenRegister: cabs.StorageRegister,
}

// isTypeStart reports whether the current token can begin a type name
func (p *Parser) isTypeStart(tok lexer.Token) bool {
	switch {
	case primitiveKeywords[tok.Type]:
		return true
	case tok.Type == lexer.TokenStruct, tok.Type == lexer.TokenEnum, tok.Type == lexer.TokenUnion,
		tok.Type == lexer.TokenConst, tok.Type == lexer.TokenVolatile:
		return true
	case tok.Type == lexer.TokenIdent:
		return p.isTypedefName(tok.Literal)
	}
	return false
}

func (p *Parser) isDeclarationStart() bool {
	_, storage := storageClasses[p.curToken.Type]
	return storage || p.isTypeStart(p.curToken)
}

// parseSpecifiers parses a declaration-specifier list
func (p *Parser) parseSpecifiers(allowStorage bool) (*cabs.DeclSpecs, specState) {
	specs := &cabs.DeclSpecs{At: p.curToken.Pos}
	state := specOpen
	combine := func(next specState) {
		if state != specOpen && !(state == specPrimitive && next == specPrimitive) {
			p.errorf("cannot combine %s with the previous type specifier", describe(p.curToken))
		}
		state = next
	}
	for {
		tok := p.curToken
		if sc, ok := storageClasses[tok.Type]; ok {
			if !allowStorage {
				p.errorf("storage class %s is not allowed here", describe(tok))
			}
			if specs.Storage != cabs.StorageNone {
				p.errorf("multiple storage classes in declaration")
			}
			specs.Storage = sc
			p.nextToken()
			continue
		}
		switch {
		case tok.Type == lexer.TokenConst:
			specs.Const = true
			p.nextToken()
		case tok.Type == lexer.TokenVolatile:
			p.unsupported("volatile")
		case tok.Type == lexer.TokenUnion:
			p.unsupported("union")
		case primitiveKeywords[tok.Type]:
			combine(specPrimitive)
			specs.Primitive = append(specs.Primitive, tok.Literal)
			p.nextToken()
		case tok.Type == lexer.TokenStruct:
			combine(specNoDeclaratorRequired)
			specs.Struct = p.parseStructSpec()
		case tok.Type == lexer.TokenEnum:
			combine(specNoDeclaratorRequired)
			specs.Enum = p.parseEnumSpec()
		case tok.Type == lexer.TokenIdent && state == specOpen && p.isTypedefName(tok.Literal):
			combine(specUserDefined)
			specs.TypedefName = tok.Literal
			p.nextToken()
		default:
			if state == specOpen {
				p.errorf("expected a type specifier, got %s", describe(tok))
			}
			if state == specPrimitive {
				if _, ok := cabs.PrimitiveType(cabs.SortPrimitive(specs.Primitive)); !ok {
					diag.Throw(diag.Errorf(specs.At, "invalid combination of type specifiers"))
				}
			}
			return specs, state
		}
	}
}

func (p *Parser) parseStructSpec() *cabs.StructSpec {
	spec := &cabs.StructSpec{At: p.curToken.Pos}
	p.nextToken() // consume 'struct'
	if p.curTokenIs(lexer.TokenIdent) {
		spec.Name = p.curToken.Literal
		p.nextToken()
	}
	if !p.curTokenIs(lexer.TokenLBrace) {
		if spec.Name == "" {
			p.errorf("expected struct tag or '{', got %s", describe(p.curToken))
		}
		return spec
	}
	p.nextToken() // consume '{'
	spec.Defines = true
	for !p.curTokenIs(lexer.TokenRBrace) {
		specs, _ := p.parseSpecifiers(false)
		decl := &cabs.Declaration{At: specs.At, Specs: specs}
		for {
			d := p.parseDeclarator(true)
			if p.curTokenIs(lexer.TokenAssign) {
				p.errorf("struct members cannot have initializers")
			}
			decl.Declarators = append(decl.Declarators, d)
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
		p.expect(lexer.TokenSemicolon)
		spec.Members = append(spec.Members, decl)
	}
	p.nextToken() // consume '}'
	return spec
}

func (p *Parser) parseEnumSpec() *cabs.EnumSpec {
	spec := &cabs.EnumSpec{At: p.curToken.Pos}
	p.nextToken() // consume 'enum'
	if p.curTokenIs(lexer.TokenIdent) {
		spec.Name = p.curToken.Literal
		p.nextToken()
	}
	if !p.curTokenIs(lexer.TokenLBrace) {
		if spec.Name == "" {
			p.errorf("expected enum tag or '{', got %s", describe(p.curToken))
		}
		return spec
	}
	p.nextToken() // consume '{'
	spec.Defines = true
	for {
		name := p.expectIdent("an enumerator")
		en := &cabs.Enumerator{At: name.Pos, Name: name.Literal}
		if p.curTokenIs(lexer.TokenAssign) {
			p.nextToken()
			en.Value = p.parseExpression(precAssign)
		}
		p.declareName(en.Name, false)
		spec.Enumerators = append(spec.Enumerators, en)
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
		if p.curTokenIs(lexer.TokenRBrace) {
			break
		}
	}
	p.expect(lexer.TokenRBrace)
	return spec
}

// parseDeclarator parses a (possibly abstract) declarator. Pointers apply
// to the base type first, then the suffixes from the innermost outwards,
// then the parts of a parenthesized inner declarator.
func (p *Parser) parseDeclarator(named bool) *cabs.NamedDeclarator {
	d := &cabs.NamedDeclarator{At: p.curToken.Pos}
	var parts []cabs.DeclPart
	for p.curTokenIs(lexer.TokenStar) {
		p.nextToken()
		ptr := cabs.PointerPart{}
		for p.curTokenIs(lexer.TokenConst) || p.curTokenIs(lexer.TokenVolatile) {
			if p.curTokenIs(lexer.TokenVolatile) {
				p.unsupported("volatile")
			}
			ptr.Const = true
			p.nextToken()
		}
		parts = append(parts, ptr)
	}

	var inner *cabs.NamedDeclarator
	switch {
	case p.curTokenIs(lexer.TokenIdent):
		d.At = p.curToken.Pos
		d.Name = p.curToken.Literal
		p.nextToken()
	case p.curTokenIs(lexer.TokenLParen) && p.isGrouping():
		p.nextToken() // consume '('
		inner = p.parseDeclarator(named)
		p.expect(lexer.TokenRParen)
	case named:
		p.errorf("expected a declarator, got %s", describe(p.curToken))
	}

	var suffixes []cabs.DeclPart
	for {
		if p.curTokenIs(lexer.TokenLBracket) {
			arr := cabs.ArrayPart{At: p.curToken.Pos}
			p.nextToken()
			if !p.curTokenIs(lexer.TokenRBracket) {
				arr.Length = p.parseExpression(precAssign)
			}
			p.expect(lexer.TokenRBracket)
			suffixes = append(suffixes, arr)
		} else if p.curTokenIs(lexer.TokenLParen) {
			suffixes = append(suffixes, p.parseFunctionPart())
		} else {
			break
		}
	}
	for i := len(suffixes) - 1; i >= 0; i-- {
		parts = append(parts, suffixes[i])
	}
	if inner != nil {
		parts = append(parts, inner.Parts...)
		d.At = inner.At
		d.Name = inner.Name
	}
	d.Parts = parts
	return d
}

// isGrouping tells a parenthesized declarator from a parameter list
func (p *Parser) isGrouping() bool {
	switch p.peekToken.Type {
	case lexer.TokenStar, lexer.TokenLParen, lexer.TokenLBracket:
		return true
	case lexer.TokenIdent:
		return !p.isTypedefName(p.peekToken.Literal)
	}
	return false
}

func (p *Parser) parseFunctionPart() cabs.FunctionPart {
	fn := cabs.FunctionPart{At: p.curToken.Pos}
	p.nextToken() // consume '('
	p.openScope()
	defer p.closeScope()
	if p.curTokenIs(lexer.TokenVoid) && p.peekTokenIs(lexer.TokenRParen) {
		p.nextToken()
	}
	for !p.curTokenIs(lexer.TokenRParen) {
		if p.curTokenIs(lexer.TokenEllipsis) {
			if len(fn.Params) == 0 {
				p.errorf("a variadic function needs a named parameter before '...'")
			}
			fn.Variadic = true
			p.nextToken()
			break
		}
		specs, _ := p.parseSpecifiers(false)
		d := p.parseDeclarator(false)
		p.declareName(d.Name, false)
		fn.Params = append(fn.Params, &cabs.ParamDecl{Specs: specs, Decl: d})
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.expect(lexer.TokenRParen)
	return fn
}

// parseTypeName parses the type in a cast or sizeof
func (p *Parser) parseTypeName() *cabs.TypeName {
	at := p.curToken.Pos
	specs, _ := p.parseSpecifiers(false)
	d := p.parseDeclarator(false)
	if d.Name != "" {
		diag.Throw(diag.Errorf(d.At, "unexpected name %s in type name", d.Name))
	}
	return &cabs.TypeName{At: at, Specs: specs, Decl: d}
}

// parseDeclaration parses a declaration. At file scope a declarator
// followed by a body becomes a function definition.
func (p *Parser) parseDeclaration(external bool) cabs.Definition {
	specs, state := p.parseSpecifiers(true)
	decl := &cabs.Declaration{At: specs.At, Specs: specs}
	if p.curTokenIs(lexer.TokenSemicolon) {
		if state != specNoDeclaratorRequired || specs.Storage == cabs.StorageTypedef {
			p.errorf("declaration does not declare anything")
		}
		p.nextToken()
		return decl
	}
	for {
		d := p.parseDeclarator(true)
		p.declareName(d.Name, specs.Storage == cabs.StorageTypedef)
		if external && len(decl.Declarators) == 0 && p.curTokenIs(lexer.TokenLBrace) {
			if !endsInFunction(d) {
				p.errorf("unexpected '{' after declarator %s", d.Name)
			}
			return p.parseFunctionBody(specs, d)
		}
		if p.curTokenIs(lexer.TokenAssign) {
			if specs.Storage == cabs.StorageTypedef {
				p.errorf("typedef %s cannot be initialized", d.Name)
			}
			p.nextToken()
			d.Init = p.parseInitializer()
		}
		decl.Declarators = append(decl.Declarators, d)
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.expect(lexer.TokenSemicolon)
	return decl
}

func endsInFunction(d *cabs.NamedDeclarator) bool {
	if len(d.Parts) == 0 {
		return false
	}
	_, ok := d.Parts[len(d.Parts)-1].(cabs.FunctionPart)
	return ok
}

func (p *Parser) parseFunctionBody(specs *cabs.DeclSpecs, d *cabs.NamedDeclarator) *cabs.FunctionDefinition {
	if specs.Storage == cabs.StorageTypedef {
		p.errorf("a typedef cannot have a body")
	}
	fn := d.Parts[len(d.Parts)-1].(cabs.FunctionPart)
	p.openScope()
	defer p.closeScope()
	for _, prm := range fn.Params {
		p.declareName(prm.Decl.Name, false)
	}
	return &cabs.FunctionDefinition{
		Specs: specs,
		Decl:  d,
		Body:  p.parseBlockIn(),
	}
}

func (p *Parser) parseInitializer() cabs.Initializer {
	if !p.curTokenIs(lexer.TokenLBrace) {
		return &cabs.ExprInit{X: p.parseExpression(precComma)}
	}
	list := &cabs.ListInit{At: p.curToken.Pos}
	p.nextToken() // consume '{'
	for !p.curTokenIs(lexer.TokenRBrace) {
		list.Items = append(list.Items, p.parseInitializer())
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.expect(lexer.TokenRBrace)
	return list
}

// unsupported rejects a construct the subset leaves out
func (p *Parser) unsupported(what string) {
	p.errorf("%s is not supported", what)
}
