// Package sema type-checks a parsed program. In one pass over the AST it
// resolves declaration specifiers to types, assigns static and frame
// offsets, folds constant expressions and validates conversions, format
// strings and statement placement. The annotated AST is what the CFG
// builder and the interpreter consume.
package sema

import (
	"errors"
	"sort"
	"strings"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/memory"
)

// maxCells bounds the size of a single object
const maxCells = 1 << 20

// Program is a type-checked translation unit
type Program struct {
	AST       *cabs.Program
	Functions map[string]*cabs.FunctionDefinition
	// Statics lays out static storage, lowest offset first
	Statics     *ctypes.Tstruct
	StaticCells int
	// StaticInits lists the initialized static declarators in declaration
	// order
	StaticInits []*cabs.NamedDeclarator
	// Literals is the contents of the string-literal segment
	Literals string
	Globals  Snapshot
	// Locals holds the parameters and local variables of each function
	Locals map[string][]*Symbol
}

// StaticIndex converts a static offset into a cell index of the static
// segment
func (p *Program) StaticIndex(offset int) int {
	return offset + p.StaticCells
}

// Function returns a defined function by name
func (p *Program) Function(name string) (*cabs.FunctionDefinition, bool) {
	f, ok := p.Functions[name]
	return f, ok
}

type staticSlot struct {
	name   string
	typ    ctypes.Type
	offset int
}

type switchScope struct {
	control ctypes.Type
	cases   map[int64]int
	deflt   int
}

// Checker holds the state of one compilation. Nothing is shared between
// checkers, so compilations in one process never see each other's
// counters.
type Checker struct {
	scopes    []*scope
	functions map[string]*Symbol

	staticNext int
	statics    []staticSlot

	literals       strings.Builder
	literalOffsets map[string]int

	prog *Program

	// state of the function being checked
	fn          *cabs.FunctionDefinition
	ret         ctypes.Type
	frame       *ctypes.Tstruct
	frameNext   int
	locals      []*Symbol
	loops       int
	breakable   int
	switches    []*switchScope
	labels      map[string]int
	gotos       []*cabs.Goto
	sizeofDepth int
}

// New creates a checker whose outermost scope holds the library
func New() *Checker {
	return &Checker{
		scopes:         []*scope{universe()},
		functions:      make(map[string]*Symbol),
		literalOffsets: make(map[string]int),
	}
}

// Check type-checks a parsed program
func Check(prog *cabs.Program) (*Program, error) {
	return New().Check(prog)
}

// Check type-checks a parsed program, stopping at the first diagnostic
func (c *Checker) Check(prog *cabs.Program) (result *Program, err error) {
	defer diag.Catch(&err)
	c.prog = &Program{
		AST:       prog,
		Functions: make(map[string]*cabs.FunctionDefinition),
		Locals:    make(map[string][]*Symbol),
	}
	c.openScope()
	for _, def := range prog.Definitions {
		switch d := def.(type) {
		case *cabs.Declaration:
			c.declaration(d, true)
		case *cabs.FunctionDefinition:
			c.functionDefinition(d)
		default:
			diag.Fail("unexpected definition %T", def)
		}
	}
	c.checkUndefinedFunctions()
	c.layoutStatics()
	c.prog.Literals = c.literals.String()
	c.prog.Globals = snapshot(c.scopes)
	return c.prog, nil
}

// Snapshot returns a frozen view of the names currently in scope
func (c *Checker) Snapshot() Snapshot {
	return snapshot(c.scopes)
}

func (c *Checker) errorf(pos int, format string, args ...any) {
	diag.Throw(diag.Errorf(pos, format, args...))
}

// fault turns a memory-model fault raised while folding into a diagnostic
func (c *Checker) fault(pos int, err error) {
	var f *memory.Fault
	if errors.As(err, &f) {
		c.errorf(pos, "%s", f.Msg)
	}
	panic(err)
}

// Scopes

func (c *Checker) top() *scope {
	return c.scopes[len(c.scopes)-1]
}

func (c *Checker) openScope() {
	c.scopes = append(c.scopes, newScope())
}

func (c *Checker) closeScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Checker) lookup(name string) *Symbol {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym, ok := c.scopes[i].symbols[name]; ok {
			return sym
		}
	}
	return nil
}

func (c *Checker) lookupStruct(name string) *ctypes.Tstruct {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if s, ok := c.scopes[i].structs[name]; ok {
			return s
		}
	}
	return nil
}

func (c *Checker) lookupEnum(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if _, ok := c.scopes[i].enums[name]; ok {
			return true
		}
	}
	return false
}

// visibleNames lists the names in scope, for suggestions
func (c *Checker) visibleNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range c.scopes {
		for name, sym := range s.symbols {
			if !seen[name] && sym.Kind != Typedef {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// declare adds sym to the innermost scope
func (c *Checker) declare(sym *Symbol) *Symbol {
	if prev, ok := c.top().symbols[sym.Name]; ok {
		d := diag.Errorf(sym.Pos, "redeclaration of %s", sym.Name)
		if prev.Pos >= 0 {
			d.WithSecondary(prev.Pos)
		}
		diag.Throw(d)
	}
	c.top().declare(sym)
	return sym
}

// declareFunction declares a function in the innermost scope. Every
// function declaration is also remembered by name so that a prototype in
// a closed block still has to agree with the eventual definition.
func (c *Checker) declareFunction(name string, t ctypes.Tfunction, pos int) *Symbol {
	if prev, ok := c.functions[name]; ok {
		if !ctypes.Equal(prev.Type, t) {
			diag.Throw(diag.Errorf(pos, "conflicting types for %s: %s and %s", name, t, prev.Type).WithSecondary(prev.Pos))
		}
		if c.top().symbols[name] != prev {
			c.declare(prev)
		}
		return prev
	}
	sym := &Symbol{Name: name, Kind: Function, Type: t, Pos: pos}
	c.declare(sym)
	c.functions[name] = sym
	return sym
}

func (c *Checker) checkUndefinedFunctions() {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := c.functions[name]
		if !sym.Defined && len(sym.Usages) > 0 {
			diag.Throw(diag.Errorf(sym.Usages[0], "function %s is declared but never defined", name).WithSecondary(sym.Pos))
		}
	}
}

// Storage

func (c *Checker) allocStatic(name string, t ctypes.Type) int {
	c.staticNext -= ctypes.Count(t)
	c.statics = append(c.statics, staticSlot{name: name, typ: t, offset: c.staticNext})
	return c.staticNext
}

func (c *Checker) allocFrame(name string, t ctypes.Type) int {
	offset := c.frameNext
	c.frame.AddMember(name, t)
	c.frameNext += ctypes.Count(t)
	return offset
}

// layoutStatics synthesizes the struct covering static storage. Offsets
// were handed out downwards from zero, so the last declared variable comes
// first.
func (c *Checker) layoutStatics() {
	s := ctypes.NewStruct("static variables")
	for i := len(c.statics) - 1; i >= 0; i-- {
		s.AddMember(c.statics[i].name, c.statics[i].typ)
	}
	s.Seal()
	c.prog.Statics = s
	c.prog.StaticCells = -c.staticNext
}

func (c *Checker) literal(raw string) int {
	if off, ok := c.literalOffsets[raw]; ok {
		return off
	}
	off := c.literals.Len()
	c.literals.WriteString(raw)
	c.literals.WriteByte(0)
	c.literalOffsets[raw] = off
	return off
}

func checkSize(pos int, t ctypes.Type) {
	if ctypes.Count(t) > maxCells {
		diag.Throw(diag.Errorf(pos, "%s is too large for this memory model", t))
	}
}
