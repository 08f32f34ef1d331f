package memory

import "github.com/raymyers/stepc/pkg/ctypes"

// Inspector is a read-only view of a Memory for visualizers. It offers no
// way to write a cell or change a segment's lifetime.
type Inspector struct {
	m *Memory
}

// SegmentView is a read-only view of one segment
type SegmentView struct {
	seg *Segment
}

// Inspector returns a read-only view of m
func (m *Memory) Inspector() Inspector {
	return Inspector{m: m}
}

// Strings returns the string-literal segment
func (i Inspector) Strings() SegmentView { return SegmentView{i.m.strings} }

// Statics returns the static segment
func (i Inspector) Statics() SegmentView { return SegmentView{i.m.statics} }

// Stack returns the frames, outermost first
func (i Inspector) Stack() []SegmentView { return views(i.m.stack) }

// Heap returns the live heap blocks in allocation order
func (i Inspector) Heap() []SegmentView { return views(i.m.heap) }

// Allocations returns the number of heap blocks created so far, freed
// ones included
func (i Inspector) Allocations() int { return i.m.allocs }

// All returns every segment: strings, statics, frames, heap
func (i Inspector) All() []SegmentView {
	out := []SegmentView{i.Strings(), i.Statics()}
	out = append(out, i.Stack()...)
	return append(out, i.Heap()...)
}

func views(segs []*Segment) []SegmentView {
	out := make([]SegmentView, len(segs))
	for i, s := range segs {
		out[i] = SegmentView{s}
	}
	return out
}

// Kind returns the memory region
func (v SegmentView) Kind() Kind { return v.seg.kind }

// Name returns the segment name
func (v SegmentView) Name() string { return v.seg.name }

// Type returns the declared type of the segment
func (v SegmentView) Type() ctypes.Type { return v.seg.typ }

// Alive reports the liveness flag
func (v SegmentView) Alive() bool { return v.seg.alive }

// Len returns the number of cells
func (v SegmentView) Len() int { return len(v.seg.cells) }

// Cell returns the value of cell i, indeterminate cells included
func (v SegmentView) Cell(i int) Value { return v.seg.peek(i) }

// CellType returns the scalar type of cell i
func (v SegmentView) CellType(i int) ctypes.Type { return v.seg.cellType[i] }
