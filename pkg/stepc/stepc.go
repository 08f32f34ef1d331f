// Package stepc is the interface a debugger front end uses: it compiles a
// source text into a runnable program and runs it one flat statement at a
// time under caller-supplied hooks and console.
package stepc

import (
	"context"
	"errors"

	"github.com/raymyers/stepc/pkg/cfg"
	"github.com/raymyers/stepc/pkg/console"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/interp"
	"github.com/raymyers/stepc/pkg/memory"
	"github.com/raymyers/stepc/pkg/parser"
	"github.com/raymyers/stepc/pkg/sema"
)

var (
	// ErrNoMain is returned by Run when the program defines no main
	ErrNoMain = interp.ErrNoMain
	// ErrStopped is returned by Run after Console().RequestStop()
	ErrStopped = interp.ErrStopped
)

// Hooks observe execution, see interp.Hooks
type Hooks = interp.Hooks

// Program is a compiled program. It is never modified by running it, so
// one Program can back any number of machines.
type Program struct {
	Source string
	prog   *interp.Program
}

// Checked returns the checked program: AST, symbols and storage layout
func (p *Program) Checked() *sema.Program { return p.prog.Program }

// Graphs returns the control flow graph of every defined function
func (p *Program) Graphs() map[string]*cfg.Graph { return p.prog.Graphs }

// Compile parses, checks and lowers source. The error is a
// *diag.Diagnostic for a rejected program.
func Compile(source string) (*Program, error) {
	Compiles.Inc()
	ast, err := parser.Parse(source)
	if err != nil {
		CompileFailures.WithLabelValues("parse").Inc()
		return nil, err
	}
	checked, err := sema.Check(ast)
	if err != nil {
		CompileFailures.WithLabelValues("check").Inc()
		return nil, err
	}
	graphs, err := cfg.BuildProgram(checked)
	if err != nil {
		CompileFailures.WithLabelValues("cfg").Inc()
		return nil, err
	}
	return &Program{
		Source: source,
		prog:   &interp.Program{Program: checked, Graphs: graphs},
	}, nil
}

// Option configures a Machine
type Option func(*options)

type options struct {
	hooks    interp.Hooks
	console  *console.Console
	maxDepth int
}

// WithHooks installs stepping hooks
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithConsole supplies the console; by default a machine gets an empty
// console that blocks reads until input is fed
func WithConsole(c *console.Console) Option {
	return func(o *options) { o.console = c }
}

// WithMaxCallDepth bounds recursion; 0 disables the bound
func WithMaxCallDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// Machine runs a Program once
type Machine struct {
	m *interp.Machine
}

// NewMachine prepares a run of prog
func NewMachine(prog *Program, opts ...Option) *Machine {
	o := options{maxDepth: interp.DefaultMaxCallDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.console == nil {
		o.console = console.New()
	}
	return &Machine{m: interp.New(prog.prog,
		interp.WithHooks(o.hooks),
		interp.WithConsole(o.console),
		interp.WithMaxCallDepth(o.maxDepth),
	)}
}

// Run executes the program and returns its exit code. A run-time error is a
// *diag.Diagnostic; a leak warning may accompany a valid exit code.
func (m *Machine) Run(ctx context.Context) (int, error) {
	code, err := m.m.Run(ctx)
	Statements.Add(float64(m.m.Steps()))
	HeapAllocations.Add(float64(m.m.Memory().Allocations()))
	var d *diag.Diagnostic
	if errors.As(err, &d) && d.Severity == diag.Error {
		RuntimeFaults.Inc()
	}
	return code, err
}

// Console returns the program's standard streams
func (m *Machine) Console() *console.Console { return m.m.Console() }

// FeedInput queues one character of standard input
func (m *Machine) FeedInput(ch byte) { m.m.Console().FeedInput(ch) }

// IsAwaitingInput reports whether the program is blocked reading input
func (m *Machine) IsAwaitingInput() bool { return m.m.Console().IsAwaitingInput() }

// CurrentOutputText returns everything the program has written
func (m *Machine) CurrentOutputText() string { return m.m.Console().CurrentOutputText() }

// RequestStop asks the run to end at the next statement or read
func (m *Machine) RequestStop() { m.m.Console().RequestStop() }

// Memory returns a read-only view of the program's memory
func (m *Machine) Memory() memory.Inspector { return m.m.Memory() }

// Depth returns the number of active calls, for step over and step out
func (m *Machine) Depth() int { return m.m.Depth() }
