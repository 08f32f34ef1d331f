package memory

import (
	"fmt"

	"github.com/raymyers/stepc/pkg/ctypes"
)

// Memory owns every segment of a running program: one read-only segment
// for string literals, one for static variables, a stack of frames (most
// recent last) and the live heap blocks.
type Memory struct {
	strings *Segment
	statics *Segment
	stack   []*Segment
	heap    []*Segment
	allocs  int
}

// New creates the string-literal and static segments. literals is the
// concatenated, NUL-terminated contents of every string literal.
func New(literals string, staticType ctypes.Type) *Memory {
	strType := ctypes.Array(ctypes.Char(), len(literals))
	strs := NewSegment(StringLiterals, "string literals", strType)
	for i := 0; i < len(literals); i++ {
		strs.cells[i] = MakeInt(ctypes.Char(), int64(int8(literals[i])))
	}
	strs.readOnly = true
	return &Memory{
		strings: strs,
		statics: NewSegment(Statics, "static variables", staticType),
	}
}

// Strings returns the string-literal segment
func (m *Memory) Strings() *Segment { return m.strings }

// Statics returns the static segment
func (m *Memory) Statics() *Segment { return m.statics }

// Depth returns the number of frames on the stack
func (m *Memory) Depth() int { return len(m.stack) }

// Top returns the most recent frame
func (m *Memory) Top() *Segment {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// PushFrame creates a frame segment for a call of function name
func (m *Memory) PushFrame(name string, frameType ctypes.Type) *Segment {
	seg := NewSegment(Frame, name, frameType)
	m.stack = append(m.stack, seg)
	return seg
}

// PopFrame ends the most recent frame. The outermost frame is never popped
// so that the final state of main stays inspectable.
func (m *Memory) PopFrame() {
	if len(m.stack) <= 1 {
		return
	}
	top := m.stack[len(m.stack)-1]
	top.Kill()
	m.stack = m.stack[:len(m.stack)-1]
}

// Malloc creates a heap block of count elements of elem and returns a
// pointer to element 0.
func (m *Memory) Malloc(elem ctypes.Type, count int) PointerValue {
	m.allocs++
	seg := NewSegment(Heap, fmt.Sprintf("#%d", m.allocs), ctypes.Array(elem, count))
	m.heap = append(m.heap, seg)
	return PointerValue{Obj: Object{Seg: seg, Type: elem, Index: 0, Bound: count}}
}

// Free releases the heap block p points to. p must point to the start of a
// live heap block; freeing the null pointer does nothing.
func (m *Memory) Free(p PointerValue) error {
	if p.IsNull() {
		return nil
	}
	seg := p.Obj.Seg
	if !seg.Alive() {
		return Faultf("dangling pointer: the %s %s was already released", seg.Kind(), seg.Name())
	}
	if seg.Kind() != Heap {
		return Faultf("free on non-heap segment: %s %s", seg.Kind(), seg.Name())
	}
	if p.Obj.Offset != 0 {
		return Faultf("free in the middle of segment: heap block %s, cell %d", seg.Name(), p.Obj.Offset)
	}
	seg.Kill()
	for i, h := range m.heap {
		if h == seg {
			m.heap = append(m.heap[:i], m.heap[i+1:]...)
			break
		}
	}
	return nil
}

// Realloc moves the block p points to into a new block of count elements,
// copying the overlapping prefix, then frees the old block.
func (m *Memory) Realloc(p PointerValue, elem ctypes.Type, count int) (PointerValue, error) {
	if p.IsNull() {
		return m.Malloc(elem, count), nil
	}
	if err := m.checkFreeable(p); err != nil {
		return Null, err
	}
	old := p.Obj.Seg
	oldElem := old.Type().(ctypes.Tarray).Elem
	if !ctypes.Equal(ctypes.Unqualified(oldElem), ctypes.Unqualified(elem)) {
		return Null, Faultf("realloc changes the element type from %s to %s", oldElem, elem)
	}
	q := m.Malloc(elem, count)
	n := old.Len()
	if q.Obj.Seg.Len() < n {
		n = q.Obj.Seg.Len()
	}
	copy(q.Obj.Seg.cells[:n], old.cells[:n])
	if err := m.Free(p); err != nil {
		return Null, err
	}
	return q, nil
}

func (m *Memory) checkFreeable(p PointerValue) error {
	seg := p.Obj.Seg
	switch {
	case !seg.Alive():
		return Faultf("dangling pointer: the %s %s was already released", seg.Kind(), seg.Name())
	case seg.Kind() != Heap:
		return Faultf("realloc on non-heap segment: %s %s", seg.Kind(), seg.Name())
	case p.Obj.Offset != 0:
		return Faultf("realloc in the middle of segment: heap block %s, cell %d", seg.Name(), p.Obj.Offset)
	}
	return nil
}

// Leaks returns the heap blocks that are still alive
func (m *Memory) Leaks() []*Segment {
	out := make([]*Segment, len(m.heap))
	copy(out, m.heap)
	return out
}
