package cfg

import (
	"sort"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/sema"
)

// Builder lowers one function. It allocates labels, tracks the block
// statements are appended to and keeps the targets of break and continue.
type Builder struct {
	nextLabel  Label
	graph      *Graph
	cur        *Block
	labelNodes map[string]*Block // goto label -> block
	breaks     *TargetStack
	continues  *TargetStack
	switches   []*switchContext
}

type switchContext struct {
	exit  *Block
	cases map[int64]Label
	deflt *Block
}

// TargetStack holds the jump targets of the enclosing loops or switches,
// innermost last.
type TargetStack struct {
	targets []*Block
}

// Push adds the target of a new construct
func (s *TargetStack) Push(b *Block) {
	s.targets = append(s.targets, b)
}

// Pop removes the innermost target
func (s *TargetStack) Pop() {
	if len(s.targets) > 0 {
		s.targets = s.targets[:len(s.targets)-1]
	}
}

// Top returns the innermost target
func (s *TargetStack) Top() (*Block, bool) {
	if len(s.targets) == 0 {
		return nil, false
	}
	return s.targets[len(s.targets)-1], true
}

// Depth returns the current nesting depth
func (s *TargetStack) Depth() int {
	return len(s.targets)
}

// NewBuilder creates a builder for one function
func NewBuilder(fn *cabs.FunctionDefinition) *Builder {
	return &Builder{
		graph:      &Graph{Func: fn, Blocks: make(map[Label]*Block)},
		labelNodes: make(map[string]*Block),
		breaks:     &TargetStack{},
		continues:  &TargetStack{},
	}
}

// Build lowers the body of a checked function
func Build(fn *cabs.FunctionDefinition) (g *Graph, err error) {
	defer diag.Catch(&err)
	b := NewBuilder(fn)
	entry := b.NewBlock("entry")
	b.graph.Entry = entry.Label
	b.place(entry)
	b.stmt(fn.Body)
	if b.cur.IsOpen() {
		b.emit(&Return{At: fn.Body.End, Implicit: true})
	}
	b.graph.markReachable()
	return b.graph, nil
}

// BuildProgram lowers every function of a checked program
func BuildProgram(prog *sema.Program) (map[string]*Graph, error) {
	graphs := make(map[string]*Graph, len(prog.Functions))
	for _, def := range prog.AST.Definitions {
		fn, ok := def.(*cabs.FunctionDefinition)
		if !ok {
			continue
		}
		g, err := Build(fn)
		if err != nil {
			return nil, err
		}
		graphs[fn.Name()] = g
	}
	return graphs, nil
}

// AllocLabel allocates a fresh label
func (b *Builder) AllocLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	return l
}

// NewBlock allocates a block that is not yet placed
func (b *Builder) NewBlock(name string) *Block {
	blk := &Block{Label: b.AllocLabel(), Name: name}
	b.graph.Blocks[blk.Label] = blk
	return blk
}

// GetOrCreateLabel returns the block of a goto label, creating it if needed
func (b *Builder) GetOrCreateLabel(name string) *Block {
	if blk, ok := b.labelNodes[name]; ok {
		return blk
	}
	blk := b.NewBlock("label " + name)
	b.labelNodes[name] = blk
	return blk
}

// place makes blk the current block. An open current block falls through
// into it.
func (b *Builder) place(blk *Block) {
	if b.cur != nil && b.cur.IsOpen() {
		b.cur.Stmts = append(b.cur.Stmts, &Jump{At: diag.NoPos, Target: blk.Label})
	}
	b.graph.Order = append(b.graph.Order, blk.Label)
	b.cur = blk
}

// emit appends s to the current block. Statements after a control
// transfer start a fresh block that nothing jumps to.
func (b *Builder) emit(s Stmt) {
	if !b.cur.IsOpen() {
		b.place(b.NewBlock("unreachable"))
	}
	b.cur.Stmts = append(b.cur.Stmts, s)
}

func (b *Builder) jump(at int, target *Block) {
	b.emit(&Jump{At: at, Target: target.Label})
}

func (b *Builder) stmt(s cabs.Stmt) {
	switch s := s.(type) {
	case *cabs.Block:
		for _, item := range s.Items {
			b.stmt(item)
		}
	case *cabs.DeclStmt:
		for _, d := range s.Decl.Declarators {
			if d.IsStatic() || s.Decl.Specs.Storage == cabs.StorageTypedef || ctypes.IsFunction(d.Type) {
				continue
			}
			b.emit(&Decl{D: d})
		}
	case *cabs.ExprStmt:
		b.emit(&ExprStmt{X: s.X})
	case *cabs.Empty:
	case *cabs.If:
		b.ifStmt(s)
	case *cabs.While:
		check, body, exit := b.NewBlock("while.check"), b.NewBlock("while.body"), b.NewBlock("while.exit")
		b.place(check)
		b.emit(&JumpIf{At: s.At, Cond: s.Cond, Then: body.Label, Else: exit.Label})
		b.loop(body, check, exit, s.Body)
		b.jump(s.At, check)
		b.place(exit)
	case *cabs.DoWhile:
		body, check, exit := b.NewBlock("do.body"), b.NewBlock("do.check"), b.NewBlock("do.exit")
		b.loop(body, check, exit, s.Body)
		b.place(check)
		b.emit(&JumpIf{At: s.Cond.Pos(), Cond: s.Cond, Then: body.Label, Else: exit.Label})
		b.place(exit)
	case *cabs.For:
		b.forStmt(s)
	case *cabs.Switch:
		b.switchStmt(s)
	case *cabs.Case:
		sw := b.innermostSwitch(s.At, "case")
		blk := b.NewBlock("case")
		sw.cases[s.Resolved] = blk.Label
		b.place(blk)
		b.stmt(s.Body)
	case *cabs.Default:
		sw := b.innermostSwitch(s.At, "default")
		blk := b.NewBlock("default")
		sw.deflt = blk
		b.place(blk)
		b.stmt(s.Body)
	case *cabs.Continue:
		target, ok := b.continues.Top()
		if !ok {
			diag.Throw(diag.Errorf(s.At, "continue statement not within a loop"))
		}
		b.jump(s.At, target)
	case *cabs.Break:
		target, ok := b.breaks.Top()
		if !ok {
			diag.Throw(diag.Errorf(s.At, "break statement not within a loop or switch"))
		}
		b.jump(s.At, target)
	case *cabs.Return:
		b.emit(&Return{At: s.At, Result: s.Result})
	case *cabs.Goto:
		b.jump(s.At, b.GetOrCreateLabel(s.Label))
	case *cabs.Labeled:
		b.place(b.GetOrCreateLabel(s.Label))
		b.stmt(s.Body)
	case *cabs.Assert:
		b.emit(&Assert{At: s.At, Cond: s.Cond})
	default:
		diag.Fail("cfg: unexpected statement %T", s)
	}
}

func (b *Builder) ifStmt(s *cabs.If) {
	then, join := b.NewBlock("if.then"), b.NewBlock("if.end")
	els := join
	if s.Else != nil {
		els = b.NewBlock("if.else")
	}
	b.emit(&JumpIf{At: s.At, Cond: s.Cond, Then: then.Label, Else: els.Label})
	b.place(then)
	b.stmt(s.Then)
	b.jump(diag.NoPos, join)
	if s.Else != nil {
		b.place(els)
		b.stmt(s.Else)
		b.jump(diag.NoPos, join)
	}
	b.place(join)
}

// loop places body with break and continue retargeted
func (b *Builder) loop(body, cont, exit *Block, s cabs.Stmt) {
	b.breaks.Push(exit)
	b.continues.Push(cont)
	b.place(body)
	b.stmt(s)
	b.continues.Pop()
	b.breaks.Pop()
}

func (b *Builder) forStmt(s *cabs.For) {
	if s.Init != nil {
		b.stmt(s.Init)
	}
	check, body := b.NewBlock("for.check"), b.NewBlock("for.body")
	update, exit := b.NewBlock("for.update"), b.NewBlock("for.exit")
	b.place(check)
	if s.Cond != nil {
		b.emit(&JumpIf{At: s.Cond.Pos(), Cond: s.Cond, Then: body.Label, Else: exit.Label})
	} else {
		b.jump(s.At, body)
	}
	b.loop(body, update, exit, s.Body)
	b.place(update)
	if s.Update != nil {
		b.emit(&ExprStmt{X: s.Update})
	}
	b.jump(s.At, check)
	b.place(exit)
}

// switchStmt emits the dispatch before its body is lowered and completes
// it once every case label nested in the body has been seen.
func (b *Builder) switchStmt(s *cabs.Switch) {
	dispatch := &Switch{At: s.At, Control: s.Control}
	b.emit(dispatch)
	sw := &switchContext{exit: b.NewBlock("switch.exit"), cases: make(map[int64]Label)}
	b.switches = append(b.switches, sw)
	b.breaks.Push(sw.exit)
	b.stmt(s.Body)
	b.breaks.Pop()
	b.switches = b.switches[:len(b.switches)-1]
	b.place(sw.exit)

	dispatch.Cases = sw.cases
	dispatch.Default = sw.exit.Label
	if sw.deflt != nil {
		dispatch.Default = sw.deflt.Label
	}
}

func (b *Builder) innermostSwitch(pos int, what string) *switchContext {
	if len(b.switches) == 0 {
		diag.Throw(diag.Errorf(pos, "%s label not within a switch statement", what))
	}
	return b.switches[len(b.switches)-1]
}

// caseValues returns the case values of a dispatch in ascending order
func caseValues(cases map[int64]Label) []int64 {
	values := make([]int64, 0, len(cases))
	for v := range cases {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values
}
