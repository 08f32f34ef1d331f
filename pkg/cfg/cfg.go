// Package cfg lowers the structured statements of a checked function into
// a control flow graph of basic blocks. Every block is a list of flat
// statements of which only the last transfers control.
package cfg

import (
	"fmt"

	"github.com/raymyers/stepc/pkg/cabs"
)

// Label names a basic block within one function
type Label int

// Stmt is the closed set of flat statements
type Stmt interface {
	implCfgStmt()
	Pos() int
}

// Decl runs the initializer of an automatic variable, or marks it
// uninitialized again when it has none.
type Decl struct {
	D *cabs.NamedDeclarator
}

// ExprStmt evaluates an expression and discards the result
type ExprStmt struct {
	X cabs.Expr
}

// Assert aborts the run when Cond is false
type Assert struct {
	At   int
	Cond cabs.Expr
}

// Jump transfers control unconditionally
type Jump struct {
	At     int
	Target Label
}

// JumpIf transfers control to Then when Cond is true, otherwise to Else
type JumpIf struct {
	At   int
	Cond cabs.Expr
	Then Label
	Else Label
}

// Switch dispatches on the value of Control, already converted to the
// promoted control type. Default is the exit of the switch when the body
// has no default label.
type Switch struct {
	At      int
	Control cabs.Expr
	Cases   map[int64]Label
	Default Label
}

// Return leaves the function. Implicit marks the return synthesized at the
// closing brace, which is a fault in a non-void function.
type Return struct {
	At       int
	Result   cabs.Expr
	Implicit bool
}

func (*Decl) implCfgStmt()     {}
func (*ExprStmt) implCfgStmt() {}
func (*Assert) implCfgStmt()   {}
func (*Jump) implCfgStmt()     {}
func (*JumpIf) implCfgStmt()   {}
func (*Switch) implCfgStmt()   {}
func (*Return) implCfgStmt()   {}

func (s *Decl) Pos() int     { return s.D.At }
func (s *ExprStmt) Pos() int { return s.X.Pos() }
func (s *Assert) Pos() int   { return s.At }
func (s *Jump) Pos() int     { return s.At }
func (s *JumpIf) Pos() int   { return s.At }
func (s *Switch) Pos() int   { return s.At }
func (s *Return) Pos() int   { return s.At }

// IsTransfer reports whether s ends a basic block
func IsTransfer(s Stmt) bool {
	switch s.(type) {
	case *Jump, *JumpIf, *Switch, *Return:
		return true
	}
	return false
}

// Block is a basic block
type Block struct {
	Label Label
	// Name describes where the block comes from, e.g. "while.body"
	Name      string
	Stmts     []Stmt
	Reachable bool
}

// IsOpen reports whether the block still lacks its control transfer
func (b *Block) IsOpen() bool {
	return len(b.Stmts) == 0 || !IsTransfer(b.Stmts[len(b.Stmts)-1])
}

// Terminator returns the final control transfer of a closed block
func (b *Block) Terminator() Stmt {
	if b.IsOpen() {
		return nil
	}
	return b.Stmts[len(b.Stmts)-1]
}

// Successors lists the blocks control may reach from b
func (b *Block) Successors() []Label {
	switch t := b.Terminator().(type) {
	case *Jump:
		return []Label{t.Target}
	case *JumpIf:
		return []Label{t.Then, t.Else}
	case *Switch:
		succ := make([]Label, 0, len(t.Cases)+1)
		for _, v := range caseValues(t.Cases) {
			succ = append(succ, t.Cases[v])
		}
		return append(succ, t.Default)
	}
	return nil
}

func (b *Block) String() string {
	return fmt.Sprintf("L%d (%s)", b.Label, b.Name)
}

// Graph is the control flow graph of one function
type Graph struct {
	Func   *cabs.FunctionDefinition
	Entry  Label
	Blocks map[Label]*Block
	// Order lists the labels in the order the blocks were placed
	Order []Label
}

// Block returns the block with the given label
func (g *Graph) Block(l Label) *Block {
	return g.Blocks[l]
}

// Unreachable returns the unreached blocks that hold statements other than
// a plain jump, in placement order.
func (g *Graph) Unreachable() []*Block {
	var out []*Block
	for _, l := range g.Order {
		b := g.Blocks[l]
		if b.Reachable || len(b.Stmts) == 0 {
			continue
		}
		if _, ok := b.Stmts[0].(*Jump); ok && len(b.Stmts) == 1 {
			continue
		}
		if r, ok := b.Stmts[0].(*Return); ok && r.Implicit {
			continue
		}
		out = append(out, b)
	}
	return out
}

// markReachable walks the graph depth-first from the entry block
func (g *Graph) markReachable() {
	stack := []Label{g.Entry}
	for len(stack) > 0 {
		l := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b := g.Blocks[l]
		if b.Reachable {
			continue
		}
		b.Reachable = true
		stack = append(stack, b.Successors()...)
	}
}
