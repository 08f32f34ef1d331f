// Package interp executes checked programs. Each call runs the control
// flow graph of its function against a memory.Memory, one flat statement
// at a time, and a small C library is provided natively.
package interp

import (
	"context"
	"errors"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/cfg"
	"github.com/raymyers/stepc/pkg/console"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/memory"
	"github.com/raymyers/stepc/pkg/sema"
)

// DefaultMaxCallDepth bounds recursion unless configured otherwise
const DefaultMaxCallDepth = 10000

var (
	// ErrNoMain is returned by Run when the program defines no main
	ErrNoMain = errors.New("program has no main function")
	// ErrStopped is returned by Run after a stop request
	ErrStopped = console.ErrStopped
	errRan     = errors.New("machine already ran")
)

// Program is a checked program with the graph of every function
type Program struct {
	*sema.Program
	Graphs map[string]*cfg.Graph
}

// Hooks observe execution. BeforeStep receives the source offset of the
// expression or initializer about to be evaluated; AfterStep follows when
// it is done. Hooks must not touch the memory they can inspect.
type Hooks struct {
	BeforeStep func(pos int)
	AfterStep  func()
}

// Option configures a Machine
type Option func(*Machine)

// WithHooks installs stepping hooks
func WithHooks(h Hooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithConsole connects the program's standard streams
func WithConsole(c *console.Console) Option {
	return func(m *Machine) { m.con = c }
}

// WithMaxCallDepth bounds the interpreted call stack; 0 disables the limit
func WithMaxCallDepth(n int) Option {
	return func(m *Machine) { m.maxDepth = n }
}

// Machine runs one program once
type Machine struct {
	prog     *Program
	mem      *memory.Memory
	con      *console.Console
	hooks    Hooks
	ctx      context.Context
	maxDepth int
	depth    int
	seed     uint32
	steps    int64
	ran      bool
}

// New prepares a machine. Static storage is laid out immediately so it can
// be inspected before the run starts.
func New(prog *Program, opts ...Option) *Machine {
	m := &Machine{
		prog:     prog,
		mem:      memory.New(prog.Literals, prog.Statics),
		maxDepth: DefaultMaxCallDepth,
		seed:     1,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.con == nil {
		m.con = console.New(console.WithInput(""))
	}
	return m
}

// Console returns the console the program reads and writes
func (m *Machine) Console() *console.Console { return m.con }

// Memory returns a read-only view of the program's memory
func (m *Machine) Memory() memory.Inspector { return m.mem.Inspector() }

// Depth returns the number of active interpreted calls
func (m *Machine) Depth() int { return m.depth }

// Steps returns the number of flat statements executed so far
func (m *Machine) Steps() int64 { return m.steps }

// exitSignal unwinds the interpreter when the program calls exit
type exitSignal struct {
	code int
	pos  int
}

// stopSignal unwinds the interpreter after a stop request
type stopSignal struct {
	err error
}

// Run executes main and returns its exit code. A program that finishes
// with live heap blocks reports a leak warning alongside the code.
func (m *Machine) Run(ctx context.Context) (code int, err error) {
	if m.ran {
		return 0, errRan
	}
	m.ran = true
	m.ctx = ctx
	main, ok := m.prog.Function("main")
	if !ok {
		return 0, ErrNoMain
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch x := r.(type) {
		case exitSignal:
			code, err = x.code, m.leaks(x.pos)
		case stopSignal:
			code, err = 0, x.err
		case *diag.Diagnostic:
			code, err = 0, x
		case *diag.InternalError:
			code, err = 0, x
		default:
			panic(r)
		}
	}()
	m.initStatics()
	v := m.callFunction(main.Decl.At, main, nil)
	code = int(m.arith(main.Body.End, v).I)
	return code, m.leaks(main.Body.End)
}

// leaks reports heap blocks that were never freed
func (m *Machine) leaks(pos int) error {
	live := m.mem.Leaks()
	if len(live) == 0 {
		return nil
	}
	cells := 0
	for _, seg := range live {
		cells += seg.Len()
	}
	s := "s"
	if len(live) == 1 {
		s = ""
	}
	return diag.Warningf(pos, "memory leak: %d heap block%s (%d cells) never freed, first allocated as %s", len(live), s, cells, live[0].Name())
}

// check turns a memory fault into a run-time diagnostic at pos
func (m *Machine) check(pos int, err error) {
	if err == nil {
		return
	}
	var f *memory.Fault
	if errors.As(err, &f) {
		diag.Throw(diag.Errorf(pos, "%s", f.Msg))
	}
	var ie *diag.InternalError
	if errors.As(err, &ie) {
		panic(ie)
	}
	diag.Fail("%v", err)
}

func (m *Machine) faultf(pos int, format string, args ...any) {
	diag.Throw(diag.Errorf(pos, format, args...))
}

// interrupted unwinds when a stop was requested or the context is done
func (m *Machine) interrupted() {
	if m.con.StopRequested() {
		panic(stopSignal{ErrStopped})
	}
	if err := m.ctx.Err(); err != nil {
		panic(stopSignal{err})
	}
}

func (m *Machine) before(pos int) {
	if m.hooks.BeforeStep != nil {
		m.hooks.BeforeStep(pos)
	}
}

func (m *Machine) after() {
	if m.hooks.AfterStep != nil {
		m.hooks.AfterStep()
	}
}

// initStatics zeroes static storage and runs the static initializers in
// declaration order
func (m *Machine) initStatics() {
	statics := memory.Whole(m.mem.Statics())
	m.check(diag.NoPos, statics.Fill(memory.Zero(m.prog.Statics)))
	for _, d := range m.prog.StaticInits {
		obj := memory.At(m.mem.Statics(), m.prog.StaticIndex(d.Offset), d.Type)
		m.initialize(obj, d.Type, d.Init)
	}
}

// callFunction runs a user-defined function with already converted
// arguments
func (m *Machine) callFunction(pos int, fn *cabs.FunctionDefinition, args []memory.Value) memory.Value {
	if m.maxDepth > 0 && m.depth >= m.maxDepth {
		m.faultf(pos, "call depth limit of %d exceeded calling %s; is a recursion missing its base case?", m.maxDepth, fn.Name())
	}
	g, ok := m.prog.Graphs[fn.Name()]
	if !ok {
		diag.Fail("no graph for %s", fn.Name())
	}
	frame := m.mem.PushFrame(fn.Name(), fn.FrameType)
	m.depth++
	for i, p := range fn.Params {
		m.check(p.At, memory.At(frame, p.Offset, p.Type).Assign(args[i]))
	}
	v := m.execute(g)
	m.depth--
	m.mem.PopFrame()
	return v
}

// execute runs a graph from its entry block until a return
func (m *Machine) execute(g *cfg.Graph) memory.Value {
	blk := g.Block(g.Entry)
	pc := 0
	for {
		if pc >= len(blk.Stmts) {
			diag.Fail("%s: fell off open block %s", g.Func.Name(), blk)
		}
		s := blk.Stmts[pc]
		pc++
		m.interrupted()
		m.steps++
		switch s := s.(type) {
		case *cfg.Decl:
			obj := m.local(s.D.Offset, s.D.Type)
			if s.D.Init == nil {
				m.check(s.D.At, obj.Invalidate())
			} else {
				m.initialize(obj, s.D.Type, s.D.Init)
			}
		case *cfg.ExprStmt:
			m.eval(s.X)
		case *cfg.Assert:
			if !m.truth(s.Cond.Pos(), m.eval(s.Cond)) {
				m.faultf(s.At, "assertion failed: %s", cabs.ExprString(s.Cond))
			}
		case *cfg.Jump:
			blk, pc = g.Block(s.Target), 0
		case *cfg.JumpIf:
			target := s.Else
			if m.truth(s.Cond.Pos(), m.eval(s.Cond)) {
				target = s.Then
			}
			blk, pc = g.Block(target), 0
		case *cfg.Switch:
			t := ctypes.Promote(ctypes.Unqualified(s.Control.Type()))
			v := m.convertArith(s.Control.Pos(), m.arith(s.Control.Pos(), m.eval(s.Control)), t)
			target, ok := s.Cases[v.I]
			if !ok {
				target = s.Default
			}
			blk, pc = g.Block(target), 0
		case *cfg.Return:
			ret := g.Func.Signature().Return
			if s.Implicit {
				if !ctypes.IsVoid(ret) {
					m.faultf(s.At, "missing return: %s reached its end without returning a %s", g.Func.Name(), ret)
				}
				return memory.VoidValue{}
			}
			if s.Result == nil {
				return memory.VoidValue{}
			}
			return m.convert(s.Result.Pos(), m.eval(s.Result), ret)
		default:
			diag.Fail("unexpected flat statement %T", s)
		}
	}
}

// local returns the object of a declarator, static or in the current frame
func (m *Machine) local(offset int, t ctypes.Type) memory.Object {
	if offset < 0 {
		return memory.At(m.mem.Statics(), m.prog.StaticIndex(offset), t)
	}
	top := m.mem.Top()
	if top == nil {
		diag.Fail("frame access at offset %d outside any call", offset)
	}
	return memory.At(top, offset, t)
}

// initialize stores an initializer into obj. Members and elements a braced
// list leaves out are zeroed.
func (m *Machine) initialize(obj memory.Object, t ctypes.Type, init cabs.Initializer) {
	m.before(init.Pos())
	defer m.after()
	switch in := init.(type) {
	case *cabs.ExprInit:
		if arr, ok := ctypes.Unqualified(t).(ctypes.Tarray); ok {
			lit, isLit := in.X.(*cabs.StringLiteral)
			if !isLit {
				diag.Fail("array initialized by %T", in.X)
			}
			m.check(in.Pos(), obj.Fill(memory.Zero(t)))
			for i := 0; i < len(lit.Raw) && i < arr.Length; i++ {
				c := m.convertArith(in.Pos(), memory.Int(int64(int8(lit.Raw[i]))), arr.Elem)
				m.check(in.Pos(), memory.At(obj.Seg, obj.Offset+i, arr.Elem).Assign(c))
			}
			return
		}
		v := m.convert(in.Pos(), m.eval(in.X), t)
		m.check(in.Pos(), obj.Assign(v))
	case *cabs.ListInit:
		switch u := ctypes.Unqualified(t).(type) {
		case ctypes.Tarray:
			m.check(in.At, obj.Fill(memory.Zero(t)))
			n := ctypes.Count(u.Elem)
			for i, item := range in.Items {
				m.initialize(memory.At(obj.Seg, obj.Offset+i*n, u.Elem), u.Elem, item)
			}
		case *ctypes.Tstruct:
			m.check(in.At, obj.Fill(memory.Zero(t)))
			for i, item := range in.Items {
				mem := u.Members[i]
				m.initialize(obj.Member(mem), mem.Type, item)
			}
		default:
			m.initialize(obj, t, in.Items[0])
		}
	default:
		diag.Fail("unexpected initializer %T", init)
	}
}
