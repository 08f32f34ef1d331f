package cfg

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/stepc/pkg/cabs"
)

// Printer dumps graphs in a readable text form
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintGraph writes every block of g in placement order
func (p *Printer) PrintGraph(g *Graph) {
	fmt.Fprintf(p.w, "%s:\n", g.Func.Name())
	for _, l := range g.Order {
		b := g.Blocks[l]
		mark := ""
		if !b.Reachable {
			mark = " unreachable"
		}
		fmt.Fprintf(p.w, "L%d: ; %s%s\n", b.Label, b.Name, mark)
		for _, s := range b.Stmts {
			fmt.Fprintf(p.w, "  %s\n", StmtString(s))
		}
	}
}

// StmtString renders one flat statement
func StmtString(s Stmt) string {
	switch s := s.(type) {
	case *Decl:
		return "decl " + s.D.Name
	case *ExprStmt:
		return cabs.ExprString(s.X) + ";"
	case *Assert:
		return "assert(" + cabs.ExprString(s.Cond) + ");"
	case *Jump:
		return fmt.Sprintf("goto L%d;", s.Target)
	case *JumpIf:
		return fmt.Sprintf("if (%s) goto L%d; else goto L%d;", cabs.ExprString(s.Cond), s.Then, s.Else)
	case *Switch:
		var parts []string
		for _, v := range caseValues(s.Cases) {
			parts = append(parts, fmt.Sprintf("%d: L%d", v, s.Cases[v]))
		}
		parts = append(parts, fmt.Sprintf("default: L%d", s.Default))
		return fmt.Sprintf("switch (%s) { %s }", cabs.ExprString(s.Control), strings.Join(parts, "; "))
	case *Return:
		switch {
		case s.Implicit:
			return "return; // end of function"
		case s.Result == nil:
			return "return;"
		}
		return "return " + cabs.ExprString(s.Result) + ";"
	}
	return fmt.Sprintf("<%T>", s)
}
