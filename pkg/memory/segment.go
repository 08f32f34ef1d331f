package memory

import (
	"github.com/raymyers/stepc/pkg/ctypes"
)

// Kind tells which region of memory a segment belongs to
type Kind int

const (
	StringLiterals Kind = iota
	Statics
	Frame
	Heap
)

func (k Kind) String() string {
	names := []string{"string literals", "static variables", "stack frame", "heap block"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Segment is a contiguous run of typed cells sharing one liveness flag.
// Dead segments can never be read or written again.
type Segment struct {
	kind     Kind
	name     string
	typ      ctypes.Type
	cellType []ctypes.Type
	cells    []Value
	alive    bool
	readOnly bool
}

// NewSegment creates a live segment with every cell indeterminate
func NewSegment(kind Kind, name string, typ ctypes.Type) *Segment {
	cellType := ctypes.Flatten(typ)
	cells := make([]Value, len(cellType))
	for i := range cells {
		cells[i] = Indeterminate{}
	}
	return &Segment{
		kind:     kind,
		name:     name,
		typ:      typ,
		cellType: cellType,
		cells:    cells,
		alive:    true,
	}
}

// Kind returns the memory region
func (s *Segment) Kind() Kind { return s.kind }

// Name returns the function name of a frame, or a descriptive name
func (s *Segment) Name() string { return s.name }

// Type returns the declared type covering the whole segment
func (s *Segment) Type() ctypes.Type { return s.typ }

// Len returns the number of cells
func (s *Segment) Len() int { return len(s.cells) }

// Alive reports whether the segment may still be accessed
func (s *Segment) Alive() bool { return s.alive }

// ReadOnly reports whether writes are rejected
func (s *Segment) ReadOnly() bool { return s.readOnly }

// CellType returns the scalar type of cell i
func (s *Segment) CellType(i int) ctypes.Type { return s.cellType[i] }

// Kill ends the segment's lifetime
func (s *Segment) Kill() {
	s.alive = false
}

func (s *Segment) checkAccess(offset int) error {
	if !s.alive {
		return Faultf("dangling pointer: the %s %s is no longer alive", s.kind, s.name)
	}
	if offset < 0 || offset >= len(s.cells) {
		return internalf("offset %d outside %s %s of %d cells", offset, s.kind, s.name, len(s.cells))
	}
	return nil
}

// Get reads cell offset
func (s *Segment) Get(offset int) (Value, error) {
	if err := s.checkAccess(offset); err != nil {
		return nil, err
	}
	return s.cells[offset], nil
}

// Set writes cell offset
func (s *Segment) Set(offset int, v Value) error {
	if err := s.checkAccess(offset); err != nil {
		return err
	}
	if s.readOnly {
		return Faultf("attempt to modify a string literal")
	}
	if !sameKind(s.cellType[offset], v) {
		return internalf("storing %s into %s cell %d of %s", v, s.cellType[offset], offset, s.name)
	}
	s.cells[offset] = v
	return nil
}

// peek reads a cell without liveness checks, for inspection only
func (s *Segment) peek(offset int) Value {
	return s.cells[offset]
}
