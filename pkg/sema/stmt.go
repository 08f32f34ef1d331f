package sema

import (
	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/memory"
)

func (c *Checker) block(b *cabs.Block) {
	c.openScope()
	defer c.closeScope()
	c.blockItems(b)
}

// blockItems checks the items of a block in the current scope
func (c *Checker) blockItems(b *cabs.Block) {
	for _, item := range b.Items {
		c.stmt(item)
	}
}

func (c *Checker) stmt(s cabs.Stmt) {
	switch s := s.(type) {
	case *cabs.Block:
		c.block(s)
	case *cabs.DeclStmt:
		c.declaration(s.Decl, false)
	case *cabs.ExprStmt:
		c.expr(s.X)
	case *cabs.Empty:
	case *cabs.If:
		c.condition(s.Cond)
		c.stmt(s.Then)
		if s.Else != nil {
			c.stmt(s.Else)
		}
	case *cabs.While:
		c.condition(s.Cond)
		c.loopBody(s.Body)
	case *cabs.DoWhile:
		c.loopBody(s.Body)
		c.condition(s.Cond)
	case *cabs.For:
		c.openScope()
		if s.Init != nil {
			c.stmt(s.Init)
		}
		if s.Cond != nil {
			c.condition(s.Cond)
		}
		if s.Update != nil {
			c.expr(s.Update)
		}
		c.loopBody(s.Body)
		c.closeScope()
	case *cabs.Switch:
		c.switchStmt(s)
	case *cabs.Case:
		c.caseStmt(s)
	case *cabs.Default:
		if len(c.switches) == 0 {
			c.errorf(s.At, "default label not within a switch statement")
		}
		sw := c.switches[len(c.switches)-1]
		if sw.deflt != diag.NoPos {
			diag.Throw(diag.Errorf(s.At, "multiple default labels in one switch").WithSecondary(sw.deflt))
		}
		sw.deflt = s.At
		c.stmt(s.Body)
	case *cabs.Continue:
		if c.loops == 0 {
			c.errorf(s.At, "continue statement not within a loop")
		}
	case *cabs.Break:
		if c.breakable == 0 {
			c.errorf(s.At, "break statement not within a loop or switch")
		}
	case *cabs.Return:
		c.returnStmt(s)
	case *cabs.Goto:
		c.gotos = append(c.gotos, s)
	case *cabs.Labeled:
		if prev, dup := c.labels[s.Label]; dup {
			diag.Throw(diag.Errorf(s.At, "duplicate label %s", s.Label).WithSecondary(prev))
		}
		c.labels[s.Label] = s.At
		c.stmt(s.Body)
	case *cabs.Assert:
		c.condition(s.Cond)
	default:
		diag.Fail("unexpected statement %T", s)
	}
}

func (c *Checker) loopBody(body cabs.Stmt) {
	c.loops++
	c.breakable++
	c.stmt(body)
	c.loops--
	c.breakable--
}

// condition checks an expression used as a truth value
func (c *Checker) condition(e cabs.Expr) {
	if t := c.rvalue(e); !ctypes.IsScalar(t) {
		c.errorf(e.Pos(), "a condition must have scalar type, not %s", t)
	}
}

func (c *Checker) switchStmt(s *cabs.Switch) {
	t := c.rvalue(s.Control)
	if !ctypes.IsIntegral(t) {
		c.errorf(s.Control.Pos(), "switch quantity must be an integer, not %s", t)
	}
	c.switches = append(c.switches, &switchScope{control: ctypes.Promote(t), cases: make(map[int64]int), deflt: diag.NoPos})
	c.breakable++
	c.stmt(s.Body)
	c.breakable--
	c.switches = c.switches[:len(c.switches)-1]
}

func (c *Checker) caseStmt(s *cabs.Case) {
	if len(c.switches) == 0 {
		c.errorf(s.At, "case label not within a switch statement")
	}
	sw := c.switches[len(c.switches)-1]
	v, err := memory.Convert(c.intConstant(s.Value, "a case value"), sw.control)
	if err != nil {
		c.errorf(s.Value.Pos(), "case value does not fit in %s", sw.control)
	}
	if prev, dup := sw.cases[v.I]; dup {
		diag.Throw(diag.Errorf(s.At, "duplicate case value %d", v.I).WithSecondary(prev))
	}
	sw.cases[v.I] = s.At
	s.Resolved = v.I
	c.stmt(s.Body)
}

func (c *Checker) returnStmt(s *cabs.Return) {
	name := c.fn.Name()
	if s.Result == nil {
		if !ctypes.IsVoid(c.ret) {
			c.errorf(s.At, "non-void function %s must return a value", name)
		}
		return
	}
	c.expr(s.Result)
	if ctypes.IsVoid(c.ret) {
		c.errorf(s.Result.Pos(), "void function %s cannot return a value", name)
	}
	c.inferAlloc(s.Result, c.ret)
	c.convertible(c.ret, s.Result, "return value")
}
