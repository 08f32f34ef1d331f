// Package lint reports suspicious but legal constructs in a checked
// program. Every finding is a warning; none of them stops a run.
package lint

import (
	"sort"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/cfg"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/sema"
)

// Check returns the warnings for prog in source order
func Check(prog *sema.Program, graphs map[string]*cfg.Graph) []*diag.Diagnostic {
	l := &linter{}
	for _, def := range prog.AST.Definitions {
		fn, ok := def.(*cabs.FunctionDefinition)
		if !ok {
			continue
		}
		l.unused(fn, prog.Locals[fn.Name()])
		if g, ok := graphs[fn.Name()]; ok {
			l.unreachable(g)
		}
		l.stmt(fn.Body)
	}
	sort.SliceStable(l.out, func(i, j int) bool { return l.out[i].Pos < l.out[j].Pos })
	return l.out
}

type linter struct {
	out []*diag.Diagnostic
}

func (l *linter) warnf(pos int, format string, args ...any) {
	l.out = append(l.out, diag.Warningf(pos, format, args...))
}

func (l *linter) unused(fn *cabs.FunctionDefinition, locals []*sema.Symbol) {
	params := make(map[int]string)
	for _, p := range fn.Params {
		params[p.Offset] = p.Name
	}
	for _, sym := range locals {
		if sym.Kind != sema.Variable || sym.Name == "" || len(sym.Usages) > 0 {
			continue
		}
		if name, ok := params[sym.Offset]; ok && name == sym.Name {
			l.warnf(sym.Pos, "unused parameter '%s' in %s", sym.Name, fn.Name())
		} else {
			l.warnf(sym.Pos, "unused variable '%s'", sym.Name)
		}
	}
}

// unreachable reports the first statement of every block control never
// reaches
func (l *linter) unreachable(g *cfg.Graph) {
	for _, b := range g.Unreachable() {
		l.warnf(b.Stmts[0].Pos(), "unreachable code in %s", g.Func.Name())
	}
}

func (l *linter) condition(e cabs.Expr) {
	if a, ok := e.(*cabs.Assign); ok && a.Op == cabs.OpAssign {
		l.warnf(a.Pos(), "assignment used as a condition; did you mean '=='?")
	}
}

func (l *linter) loopBody(body cabs.Stmt) {
	if e, ok := body.(*cabs.Empty); ok {
		l.warnf(e.At, "empty loop body")
	}
}

func (l *linter) stmt(s cabs.Stmt) {
	switch s := s.(type) {
	case *cabs.Block:
		for _, item := range s.Items {
			l.stmt(item)
		}
	case *cabs.If:
		l.condition(s.Cond)
		l.stmt(s.Then)
		if s.Else != nil {
			l.stmt(s.Else)
		}
	case *cabs.While:
		l.condition(s.Cond)
		l.loopBody(s.Body)
		l.stmt(s.Body)
	case *cabs.DoWhile:
		l.condition(s.Cond)
		l.stmt(s.Body)
	case *cabs.For:
		if s.Cond != nil {
			l.condition(s.Cond)
		}
		l.loopBody(s.Body)
		l.stmt(s.Body)
	case *cabs.Switch:
		l.stmt(s.Body)
	case *cabs.Case:
		l.stmt(s.Body)
	case *cabs.Default:
		l.stmt(s.Body)
	case *cabs.Labeled:
		l.stmt(s.Body)
	}
}
