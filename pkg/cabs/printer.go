// Package cabs provides AST printing functionality
package cabs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer outputs the AST in a human-readable format
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintProgram prints a complete program
func (p *Printer) PrintProgram(prog *Program) {
	for _, def := range prog.Definitions {
		p.printDefinition(def)
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printDefinition(def Definition) {
	switch d := def.(type) {
	case *FunctionDefinition:
		p.printSpecs(d.Specs)
		fmt.Fprint(p.w, " "+p.declarator(d.Decl))
		fmt.Fprintln(p.w)
		p.printBlock(d.Body)
	case *Declaration:
		p.printDeclaration(d)
		fmt.Fprintln(p.w, ";")
	default:
		fmt.Fprintf(p.w, "/* unknown definition %T */\n", def)
	}
}

func (p *Printer) printSpecs(s *DeclSpecs) {
	if s.Storage != StorageNone {
		fmt.Fprintf(p.w, "%s ", s.Storage)
	}
	if s.Const {
		fmt.Fprint(p.w, "const ")
	}
	switch {
	case s.Struct != nil:
		p.printStructSpec(s.Struct)
	case s.Enum != nil:
		p.printEnumSpec(s.Enum)
	case s.TypedefName != "":
		fmt.Fprint(p.w, s.TypedefName)
	default:
		fmt.Fprint(p.w, strings.Join(s.Primitive, " "))
	}
}

func (p *Printer) printStructSpec(s *StructSpec) {
	fmt.Fprint(p.w, "struct")
	if s.Name != "" {
		fmt.Fprintf(p.w, " %s", s.Name)
	}
	if !s.Defines {
		return
	}
	fmt.Fprintln(p.w, " {")
	p.indent++
	for _, m := range s.Members {
		p.writeIndent()
		p.printDeclaration(m)
		fmt.Fprintln(p.w, ";")
	}
	p.indent--
	p.writeIndent()
	fmt.Fprint(p.w, "}")
}

func (p *Printer) printEnumSpec(e *EnumSpec) {
	fmt.Fprint(p.w, "enum")
	if e.Name != "" {
		fmt.Fprintf(p.w, " %s", e.Name)
	}
	if !e.Defines {
		return
	}
	fmt.Fprint(p.w, " { ")
	for i, en := range e.Enumerators {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, en.Name)
		if en.Value != nil {
			fmt.Fprint(p.w, " = ")
			p.printExpr(en.Value)
		}
	}
	fmt.Fprint(p.w, " }")
}

// printDeclaration prints a declaration without the trailing semicolon
func (p *Printer) printDeclaration(d *Declaration) {
	p.printSpecs(d.Specs)
	for i, nd := range d.Declarators {
		if i > 0 {
			fmt.Fprint(p.w, ",")
		}
		if s := p.declarator(nd); s != "" {
			fmt.Fprint(p.w, " "+s)
		}
		if nd.Init != nil {
			fmt.Fprint(p.w, " = ")
			p.printInit(nd.Init)
		}
	}
}

// declarator rebuilds C declarator syntax from the type chain. Parts apply
// to the base type first, so the outermost constructor is the last one.
func (p *Printer) declarator(d *NamedDeclarator) string {
	if d == nil {
		return ""
	}
	s := d.Name
	for i := len(d.Parts) - 1; i >= 0; i-- {
		switch part := d.Parts[i].(type) {
		case PointerPart:
			if part.Const {
				s = "* const " + s
			} else {
				s = "*" + s
			}
		case ArrayPart:
			if strings.HasPrefix(s, "*") {
				s = "(" + s + ")"
			}
			s += "[" + p.exprString(part.Length) + "]"
		case FunctionPart:
			if strings.HasPrefix(s, "*") {
				s = "(" + s + ")"
			}
			s += "(" + p.params(part) + ")"
		}
	}
	return s
}

func (p *Printer) params(f FunctionPart) string {
	if len(f.Params) == 0 && !f.Variadic {
		return "void"
	}
	var parts []string
	for _, prm := range f.Params {
		var b strings.Builder
		sub := &Printer{w: &b}
		sub.printSpecs(prm.Specs)
		if d := sub.declarator(prm.Decl); d != "" {
			b.WriteString(" " + d)
		}
		parts = append(parts, b.String())
	}
	if f.Variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

// ExprString renders an expression as C text
func ExprString(e Expr) string {
	return (&Printer{}).exprString(e)
}

func (p *Printer) exprString(e Expr) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	sub := &Printer{w: &b}
	sub.printExpr(e)
	return b.String()
}

func (p *Printer) printInit(init Initializer) {
	switch i := init.(type) {
	case *ExprInit:
		p.printExpr(i.X)
	case *ListInit:
		fmt.Fprint(p.w, "{")
		for n, item := range i.Items {
			if n > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.printInit(item)
		}
		fmt.Fprint(p.w, "}")
	}
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, stmt := range b.Items {
		p.printStmt(stmt)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

// printBody prints a nested statement one level deeper, except blocks
func (p *Printer) printBody(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printStmt(stmt Stmt) {
	if b, ok := stmt.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.writeIndent()
	switch s := stmt.(type) {
	case *Return:
		fmt.Fprint(p.w, "return")
		if s.Result != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Result)
		}
		fmt.Fprintln(p.w, ";")
	case *ExprStmt:
		p.printExpr(s.X)
		fmt.Fprintln(p.w, ";")
	case *DeclStmt:
		p.printDeclaration(s.Decl)
		fmt.Fprintln(p.w, ";")
	case *Empty:
		fmt.Fprintln(p.w, ";")
	case *Assert:
		fmt.Fprint(p.w, "assert(")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ");")
	case *If:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printBody(s.Else)
		}
	case *While:
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Body)
	case *DoWhile:
		fmt.Fprintln(p.w, "do")
		p.printBody(s.Body)
		p.writeIndent()
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ");")
	case *For:
		fmt.Fprint(p.w, "for (")
		switch init := s.Init.(type) {
		case *DeclStmt:
			p.printDeclaration(init.Decl)
		case *ExprStmt:
			p.printExpr(init.X)
		}
		fmt.Fprint(p.w, "; ")
		if s.Cond != nil {
			p.printExpr(s.Cond)
		}
		fmt.Fprint(p.w, "; ")
		if s.Update != nil {
			p.printExpr(s.Update)
		}
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Body)
	case *Break:
		fmt.Fprintln(p.w, "break;")
	case *Continue:
		fmt.Fprintln(p.w, "continue;")
	case *Switch:
		fmt.Fprint(p.w, "switch (")
		p.printExpr(s.Control)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Body)
	case *Case:
		fmt.Fprint(p.w, "case ")
		p.printExpr(s.Value)
		fmt.Fprintln(p.w, ":")
		p.printBody(s.Body)
	case *Default:
		fmt.Fprintln(p.w, "default:")
		p.printBody(s.Body)
	case *Goto:
		fmt.Fprintf(p.w, "goto %s;\n", s.Label)
	case *Labeled:
		fmt.Fprintf(p.w, "%s:\n", s.Label)
		p.printBody(s.Body)
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case *IntConstant:
		fmt.Fprint(p.w, e.Text)
	case *FloatConstant:
		fmt.Fprint(p.w, e.Text)
	case *CharConstant:
		fmt.Fprint(p.w, e.Text)
	case *StringLiteral:
		fmt.Fprint(p.w, strconv.Quote(e.Raw))
	case *Identifier:
		fmt.Fprint(p.w, e.Name)
	case *Unary:
		fmt.Fprint(p.w, e.Op.String())
		p.printOperand(e.Operand)
	case *IncDec:
		op := "++"
		if e.Decrement {
			op = "--"
		}
		if e.Postfix {
			p.printOperand(e.Operand)
			fmt.Fprint(p.w, op)
		} else {
			fmt.Fprint(p.w, op)
			p.printOperand(e.Operand)
		}
	case *Binary:
		p.printOperand(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op.String())
		p.printOperand(e.Right)
	case *Assign:
		p.printOperand(e.Target)
		if e.Op == OpAssign {
			fmt.Fprint(p.w, " = ")
		} else {
			fmt.Fprintf(p.w, " %s= ", e.Op.String())
		}
		p.printOperand(e.Source)
	case *Conditional:
		p.printOperand(e.Cond)
		fmt.Fprint(p.w, " ? ")
		p.printOperand(e.Then)
		fmt.Fprint(p.w, " : ")
		p.printOperand(e.Else)
	case *Comma:
		p.printExpr(e.Left)
		fmt.Fprint(p.w, ", ")
		p.printExpr(e.Right)
	case *Call:
		p.printOperand(e.Func)
		fmt.Fprint(p.w, "(")
		for i, arg := range e.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.printOperand(arg)
		}
		fmt.Fprint(p.w, ")")
	case *Index:
		p.printOperand(e.Array)
		fmt.Fprint(p.w, "[")
		p.printExpr(e.Index)
		fmt.Fprint(p.w, "]")
	case *Member:
		p.printOperand(e.Base)
		if e.Arrow {
			fmt.Fprint(p.w, "->")
		} else {
			fmt.Fprint(p.w, ".")
		}
		fmt.Fprint(p.w, e.Name)
	case *SizeofExpr:
		fmt.Fprint(p.w, "sizeof ")
		p.printOperand(e.Operand)
	case *SizeofType:
		fmt.Fprintf(p.w, "sizeof(%s)", p.typeName(e.Of))
	case *Cast:
		fmt.Fprintf(p.w, "(%s)", p.typeName(e.To))
		p.printOperand(e.Operand)
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}

// printOperand parenthesizes every operand that is not atomic, so the
// printed text shows the parsed grouping.
func (p *Printer) printOperand(e Expr) {
	switch e.(type) {
	case *Binary, *Assign, *Conditional, *Comma, *Cast, *Unary, *IncDec, *SizeofExpr:
		fmt.Fprint(p.w, "(")
		p.printExpr(e)
		fmt.Fprint(p.w, ")")
	default:
		p.printExpr(e)
	}
}

func (p *Printer) typeName(t *TypeName) string {
	var b strings.Builder
	sub := &Printer{w: &b}
	sub.printSpecs(t.Specs)
	if d := sub.declarator(t.Decl); d != "" {
		b.WriteString(" " + d)
	}
	return b.String()
}
