package memory

import (
	"fmt"

	"github.com/raymyers/stepc/pkg/ctypes"
)

// Object designates a storage location: Type starting at cell Offset of
// Seg. When the location is an array element, Index is its position and
// Bound the array length; Index == Bound is the one-past-the-end sentinel,
// which may be formed and compared but never dereferenced. A lone object
// behaves like an array of length one.
type Object struct {
	Seg    *Segment
	Offset int
	Type   ctypes.Type
	Index  int
	Bound  int
}

// Whole returns the object covering the entire segment
func Whole(seg *Segment) Object {
	return Object{Seg: seg, Type: seg.Type(), Bound: 1}
}

// At returns a lone object of type t at offset in seg
func At(seg *Segment, offset int, t ctypes.Type) Object {
	return Object{Seg: seg, Offset: offset, Type: t, Bound: 1}
}

func (o Object) String() string {
	if o.Seg == nil {
		return "NULL"
	}
	return fmt.Sprintf("%s[%d]", o.Seg.Name(), o.Offset)
}

// IsNull reports whether o is the null object
func (o Object) IsNull() bool {
	return o.Seg == nil
}

// IsSentinel reports whether o is one past the end of its array
func (o Object) IsSentinel() bool {
	return o.Index == o.Bound
}

// Add moves o by delta elements. The result must stay within the array or
// land on its one-past-the-end sentinel.
func (o Object) Add(delta int) (Object, error) {
	if o.IsNull() {
		return o, Faultf("arithmetic on a null pointer")
	}
	if err := o.checkAlive(); err != nil {
		return o, err
	}
	index := o.Index + delta
	if index < 0 || index > o.Bound {
		return o, Faultf("pointer arithmetic leaves the array: index %d of %d", index, o.Bound)
	}
	o.Offset += delta * ctypes.Count(o.Type)
	o.Index = index
	return o, nil
}

func (o Object) checkAlive() error {
	if !o.Seg.Alive() {
		return Faultf("dangling pointer: the %s %s is no longer alive", o.Seg.Kind(), o.Seg.Name())
	}
	return nil
}

// CheckReferable asserts that o may be dereferenced
func (o Object) CheckReferable() error {
	if o.IsNull() {
		return Faultf("null pointer dereference")
	}
	if err := o.checkAlive(); err != nil {
		return err
	}
	if o.IsSentinel() {
		return Faultf("dereferencing the one-past-the-end element %d of an array of length %d", o.Index, o.Bound)
	}
	return nil
}

// Decay converts an array object into an object for its first element
func (o Object) Decay() Object {
	arr, ok := ctypes.Unqualified(o.Type).(ctypes.Tarray)
	if !ok {
		return o
	}
	return Object{Seg: o.Seg, Offset: o.Offset, Type: arr.Elem, Index: 0, Bound: arr.Length}
}

// decayTo strips array levels off o until it has the pointee type elem of
// a pointer conversion, so that a row of char[8] read through a char * is
// its first char. A void pointee keeps the object as it is.
func (o Object) decayTo(elem ctypes.Type) Object {
	if ctypes.IsVoid(elem) {
		return o
	}
	for ctypes.IsArray(o.Type) && !o.IsSentinel() && !ctypes.Equal(bare(o.Type), bare(elem)) {
		o = o.Decay()
	}
	return o
}

// bare drops const from t and from the elements of an array type
func bare(t ctypes.Type) ctypes.Type {
	t = ctypes.Unqualified(t)
	if arr, ok := t.(ctypes.Tarray); ok {
		return ctypes.Array(bare(arr.Elem), arr.Length)
	}
	return t
}

// Member returns the object for struct member m of o
func (o Object) Member(m ctypes.Member) Object {
	t := m.Type
	if ctypes.IsConst(o.Type) {
		t = ctypes.Const(t)
	}
	return At(o.Seg, o.Offset+m.Offset, t)
}

// Evaluate reads the object's value. Arrays decay to a pointer to their
// first element and structs are copied whole; reading an indeterminate
// scalar is fatal.
func (o Object) Evaluate() (Value, error) {
	if _, ok := ctypes.Unqualified(o.Type).(ctypes.Tarray); ok && !o.IsNull() {
		// a sentinel row may still decay
		if err := o.checkAlive(); err != nil {
			return nil, err
		}
		return PointerValue{Obj: o.Decay()}, nil
	}
	if err := o.CheckReferable(); err != nil {
		return nil, err
	}
	switch t := ctypes.Unqualified(o.Type).(type) {
	case *ctypes.Tstruct:
		n := ctypes.Count(t)
		cells := make([]Value, n)
		for i := range cells {
			v, err := o.Seg.Get(o.Offset + i)
			if err != nil {
				return nil, err
			}
			cells[i] = v
		}
		return StructValue{Type: t, Cells: cells}, nil
	}
	v, err := o.Seg.Get(o.Offset)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(Indeterminate); ok {
		return nil, Faultf("read of uninitialized %s", o.describe())
	}
	return v, nil
}

func (o Object) describe() string {
	if o.Seg.Kind() == Heap {
		return fmt.Sprintf("heap memory (%s element %d)", o.Seg.Name(), o.Index)
	}
	return fmt.Sprintf("%s in %s %s", o.Type, o.Seg.Kind(), o.Seg.Name())
}

// Assign stores v into the object. v must already have the object's type.
func (o Object) Assign(v Value) error {
	if err := o.CheckReferable(); err != nil {
		return err
	}
	if sv, ok := v.(StructValue); ok {
		if len(sv.Cells) != ctypes.Count(o.Type) {
			return internalf("assigning %s to %s", sv.Type, o.Type)
		}
		for i, c := range sv.Cells {
			if err := o.Seg.Set(o.Offset+i, c); err != nil {
				return err
			}
		}
		return nil
	}
	return o.Seg.Set(o.Offset, v)
}

// Fill overwrites every cell of the object
func (o Object) Fill(values []Value) error {
	if err := o.CheckReferable(); err != nil {
		return err
	}
	for i, v := range values {
		if err := o.Seg.Set(o.Offset+i, v); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate marks every cell of the object indeterminate again
func (o Object) Invalidate() error {
	n := ctypes.Count(o.Type)
	values := make([]Value, n)
	for i := range values {
		values[i] = Indeterminate{}
	}
	return o.Fill(values)
}

// Diff returns o - p in elements. Both must point into the same array of
// a live segment.
func (o Object) Diff(p Object) (int, error) {
	if o.IsNull() || p.IsNull() {
		return 0, Faultf("subtraction involving a null pointer")
	}
	if o.Seg != p.Seg {
		return 0, Faultf("subtraction of pointers into different segments")
	}
	if err := o.checkAlive(); err != nil {
		return 0, err
	}
	if o.arrayStart() != p.arrayStart() || o.Bound != p.Bound {
		return 0, Faultf("subtraction of pointers into different arrays")
	}
	return o.Index - p.Index, nil
}

// arrayStart is the offset of element 0 of the array o points into
func (o Object) arrayStart() int {
	return o.Offset - o.Index*ctypes.Count(o.Type)
}

// Swap exchanges the contents of two objects of the same type, cell by
// cell. Indeterminate cells move like any other.
func Swap(a, b Object) error {
	for _, o := range []Object{a, b} {
		if err := o.CheckReferable(); err != nil {
			return err
		}
	}
	n := ctypes.Count(a.Type)
	if n != ctypes.Count(b.Type) {
		return internalf("swapping %s with %s", a.Type, b.Type)
	}
	for i := 0; i < n; i++ {
		if err := swapCell(a.Seg, a.Offset+i, b.Seg, b.Offset+i); err != nil {
			return err
		}
	}
	return nil
}

func swapCell(s *Segment, i int, t *Segment, j int) error {
	x, err := s.Get(i)
	if err != nil {
		return err
	}
	y, err := t.Get(j)
	if err != nil {
		return err
	}
	if err := s.Set(i, y); err != nil {
		return err
	}
	return t.Set(j, x)
}

// Compare orders two pointers into the same live segment
func (o Object) Compare(p Object) (int, error) {
	if o.IsNull() || p.IsNull() {
		return 0, Faultf("relational comparison involving a null pointer")
	}
	if o.Seg != p.Seg {
		return 0, Faultf("relational comparison of pointers into different segments")
	}
	if err := o.checkAlive(); err != nil {
		return 0, err
	}
	switch {
	case o.Offset < p.Offset:
		return -1, nil
	case o.Offset > p.Offset:
		return 1, nil
	}
	return 0, nil
}

// Same reports pointer equality
func (o Object) Same(p Object) bool {
	if o.IsNull() || p.IsNull() {
		return o.IsNull() && p.IsNull()
	}
	return o.Seg == p.Seg && o.Offset == p.Offset
}
