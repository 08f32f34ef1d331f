package sema

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/memory"
)

// SymbolKind tells what a name denotes
type SymbolKind int

const (
	Variable SymbolKind = iota
	Function
	Typedef
	Constant // enumeration constants and predeclared constants
	Builtin
)

func (k SymbolKind) String() string {
	names := []string{"variable", "function", "typedef", "constant", "library function"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Symbol is a declared name. Offset follows the declarator convention:
// negative for static storage, frame-relative otherwise. Usages lists the
// position of every reference to the symbol.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Type    ctypes.Type
	Offset  int
	Pos     int
	Value   memory.Value // for constants
	Defined bool         // for functions: a body has been seen
	Usages  []int
}

// IsStatic reports whether a variable lives in static storage
func (s *Symbol) IsStatic() bool {
	return s.Kind == Variable && s.Offset < 0
}

func (s *Symbol) use(pos int) {
	s.Usages = append(s.Usages, pos)
}

// scope is one level of the scope stack. Struct and enum tags live in
// their own namespace.
type scope struct {
	symbols map[string]*Symbol
	order   []*Symbol
	structs map[string]*ctypes.Tstruct
	enums   map[string]int // tag -> position of the definition
}

func newScope() *scope {
	return &scope{
		symbols: make(map[string]*Symbol),
		structs: make(map[string]*ctypes.Tstruct),
		enums:   make(map[string]int),
	}
}

func (s *scope) declare(sym *Symbol) {
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym)
}

// SymbolInfo is an immutable copy of a symbol's description
type SymbolInfo struct {
	Name string
	Kind SymbolKind
	Type ctypes.Type
	Pos  int
}

// Snapshot is a frozen view of the names visible at one point of the
// program. Consumers such as autocompletion use it instead of the
// checker's live scope stack.
type Snapshot struct {
	symbols []SymbolInfo
}

// snapshot copies every visible symbol, inner declarations shadowing
// outer ones.
func snapshot(scopes []*scope) Snapshot {
	seen := make(map[string]bool)
	var out []SymbolInfo
	for i := len(scopes) - 1; i >= 0; i-- {
		for _, sym := range scopes[i].order {
			if seen[sym.Name] {
				continue
			}
			seen[sym.Name] = true
			out = append(out, SymbolInfo{Name: sym.Name, Kind: sym.Kind, Type: sym.Type, Pos: sym.Pos})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return Snapshot{symbols: out}
}

// Symbols returns every symbol in name order
func (s Snapshot) Symbols() []SymbolInfo {
	return append([]SymbolInfo(nil), s.symbols...)
}

// Lookup finds a symbol by name
func (s Snapshot) Lookup(name string) (SymbolInfo, bool) {
	i := sort.Search(len(s.symbols), func(i int) bool { return s.symbols[i].Name >= name })
	if i < len(s.symbols) && s.symbols[i].Name == name {
		return s.symbols[i], true
	}
	return SymbolInfo{}, false
}

// Complete returns the names that start with prefix
func (s Snapshot) Complete(prefix string) []string {
	var names []string
	for _, sym := range s.symbols {
		if strings.HasPrefix(sym.Name, prefix) {
			names = append(names, sym.Name)
		}
	}
	return names
}

// suggest picks the candidate closest to name, if any is close enough to
// be a plausible typo.
func suggest(name string, candidates []string) string {
	best, bestDist := "", len(name)/3+2
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist || d == bestDist && best != "" && c < best {
			best, bestDist = c, d
		}
	}
	return best
}

// didYouMean formats a suggestion suffix for a diagnostic
func didYouMean(name string, candidates []string) string {
	if s := suggest(name, candidates); s != "" {
		return "; did you mean '" + s + "'?"
	}
	return ""
}
