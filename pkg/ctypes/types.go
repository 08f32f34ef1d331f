// Package ctypes defines the C type system of the teaching subset:
// arithmetic types, pointers, arrays, structs, functions and the
// qualifier/alias wrappers the checker needs.
package ctypes

import (
	"strconv"
	"strings"

	"github.com/raymyers/stepc/pkg/diag"
)

// Type is the interface for all C types
type Type interface {
	implType()
	String() string
}

// Signedness represents signed/unsigned for integer types
type Signedness int

const (
	Signed Signedness = iota
	Unsigned
)

func (s Signedness) String() string {
	if s == Signed {
		return "signed"
	}
	return "unsigned"
}

// IntSize represents the size of integer types
type IntSize int

const (
	I8 IntSize = iota
	I16
	I32
)

func (s IntSize) String() string {
	names := []string{"i8", "i16", "i32"}
	if int(s) < len(names) {
		return names[s]
	}
	return "?"
}

// FloatSize represents the size of floating-point types
type FloatSize int

const (
	F32 FloatSize = iota
	F64
)

func (s FloatSize) String() string {
	if s == F32 {
		return "f32"
	}
	return "f64"
}

// Tvoid represents the void type
type Tvoid struct{}

// Tint represents char, short and int. Plain char is signed.
type Tint struct {
	Size IntSize
	Sign Signedness
}

// Tlong represents long. The memory model is ILP32, so long is 32 bits wide
// and differs from int only in rank.
type Tlong struct {
	Sign Signedness
}

// Tfloat represents floating-point types (float, double)
type Tfloat struct {
	Size FloatSize
}

// Tpointer represents pointer types
type Tpointer struct {
	Elem Type
}

// Tarray represents array types
type Tarray struct {
	Elem   Type
	Length int // -1 for incomplete array
}

// Tfunction represents function types
type Tfunction struct {
	Params   []Type
	Return   Type
	Variadic bool
}

// Tstruct represents a struct type. Struct types have identity: two
// declarations of struct S in different scopes are different types. A
// struct starts incomplete and is sealed once its member list is final.
type Tstruct struct {
	Name    string
	Members []Member
	sealed  bool
}

// Member is a struct member; Offset counts cells, not bytes.
type Member struct {
	Name   string
	Type   Type
	Offset int
}

// TenumConst is the type of an enumeration constant symbol.
type TenumConst struct {
	Value int64
}

// Ttypedef is the type of a typedef-name symbol.
type Ttypedef struct {
	Name   string
	Target Type
}

// Tconst wraps a type with the const qualifier instead of mutating it.
type Tconst struct {
	Inner Type
}

// Marker methods for Type interface
func (Tvoid) implType()      {}
func (Tint) implType()       {}
func (Tlong) implType()      {}
func (Tfloat) implType()     {}
func (Tpointer) implType()   {}
func (Tarray) implType()     {}
func (Tfunction) implType()  {}
func (*Tstruct) implType()   {}
func (TenumConst) implType() {}
func (Ttypedef) implType()   {}
func (Tconst) implType()     {}

// String methods for types
func (Tvoid) String() string { return "void" }

func (t Tint) String() string {
	sign := ""
	if t.Sign == Unsigned {
		sign = "unsigned "
	}
	switch t.Size {
	case I8:
		return sign + "char"
	case I16:
		return sign + "short"
	}
	return sign + "int"
}

func (t Tlong) String() string {
	if t.Sign == Unsigned {
		return "unsigned long"
	}
	return "long"
}

func (t Tfloat) String() string {
	if t.Size == F32 {
		return "float"
	}
	return "double"
}

func (t Tpointer) String() string {
	if fn, ok := t.Elem.(Tfunction); ok {
		return fn.Return.String() + "(*)" + fn.paramList()
	}
	return t.Elem.String() + " *"
}

func (t Tarray) String() string {
	if t.Length < 0 {
		return t.Elem.String() + "[]"
	}
	return t.Elem.String() + "[" + strconv.Itoa(t.Length) + "]"
}

func (t Tfunction) String() string {
	return t.Return.String() + t.paramList()
}

func (t Tfunction) paramList() string {
	parts := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		parts = append(parts, p.String())
	}
	if t.Variadic {
		parts = append(parts, "...")
	}
	if len(parts) == 0 {
		return "(void)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *Tstruct) String() string {
	if t.Name == "" {
		return "struct <anonymous>"
	}
	return "struct " + t.Name
}

func (t TenumConst) String() string { return "enumeration constant" }

func (t Ttypedef) String() string { return t.Name }

func (t Tconst) String() string {
	if p, ok := t.Inner.(Tpointer); ok {
		return p.String() + " const"
	}
	return "const " + t.Inner.String()
}

// Common type constructors

// Int returns a signed 32-bit int type
func Int() Type {
	return Tint{Size: I32, Sign: Signed}
}

// UInt returns an unsigned 32-bit int type
func UInt() Type {
	return Tint{Size: I32, Sign: Unsigned}
}

// Char returns the (signed) char type
func Char() Type {
	return Tint{Size: I8, Sign: Signed}
}

// UChar returns an unsigned char type
func UChar() Type {
	return Tint{Size: I8, Sign: Unsigned}
}

// Short returns a signed short type
func Short() Type {
	return Tint{Size: I16, Sign: Signed}
}

// UShort returns an unsigned short type
func UShort() Type {
	return Tint{Size: I16, Sign: Unsigned}
}

// Long returns a signed long type
func Long() Type {
	return Tlong{Sign: Signed}
}

// ULong returns an unsigned long type
func ULong() Type {
	return Tlong{Sign: Unsigned}
}

// Float returns a float (32-bit) type
func Float() Type {
	return Tfloat{Size: F32}
}

// Double returns a double (64-bit) type
func Double() Type {
	return Tfloat{Size: F64}
}

// Void returns the void type
func Void() Type {
	return Tvoid{}
}

// Pointer returns a pointer to the given type
func Pointer(elem Type) Type {
	return Tpointer{Elem: elem}
}

// Array returns an array type
func Array(elem Type, length int) Type {
	return Tarray{Elem: elem, Length: length}
}

// Const returns t qualified with const. Qualifying twice is a no-op.
func Const(t Type) Type {
	if _, ok := t.(Tconst); ok {
		return t
	}
	return Tconst{Inner: t}
}

// NewStruct creates an incomplete struct type
func NewStruct(name string) *Tstruct {
	return &Tstruct{Name: name}
}

// AddMember appends a member at the next free cell offset.
func (t *Tstruct) AddMember(name string, typ Type) {
	if t.sealed {
		diag.Fail("member %s added to sealed %s", name, t)
	}
	offset := 0
	if n := len(t.Members); n > 0 {
		last := t.Members[n-1]
		offset = last.Offset + Count(last.Type)
	}
	t.Members = append(t.Members, Member{Name: name, Type: typ, Offset: offset})
}

// Seal marks the member list as final
func (t *Tstruct) Seal() {
	t.sealed = true
}

// IsComplete reports whether the struct has been sealed
func (t *Tstruct) IsComplete() bool {
	return t.sealed
}

// Member looks up a member by name
func (t *Tstruct) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// MemberNames lists member names in declaration order
func (t *Tstruct) MemberNames() []string {
	names := make([]string, len(t.Members))
	for i, m := range t.Members {
		names[i] = m.Name
	}
	return names
}

// Equal checks if two types are equal
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch ta := a.(type) {
	case Tvoid:
		_, ok := b.(Tvoid)
		return ok
	case Tint:
		tb, ok := b.(Tint)
		return ok && ta.Size == tb.Size && ta.Sign == tb.Sign
	case Tlong:
		tb, ok := b.(Tlong)
		return ok && ta.Sign == tb.Sign
	case Tfloat:
		tb, ok := b.(Tfloat)
		return ok && ta.Size == tb.Size
	case Tpointer:
		tb, ok := b.(Tpointer)
		return ok && Equal(ta.Elem, tb.Elem)
	case Tarray:
		tb, ok := b.(Tarray)
		return ok && ta.Length == tb.Length && Equal(ta.Elem, tb.Elem)
	case *Tstruct:
		tb, ok := b.(*Tstruct)
		return ok && ta == tb
	case Tconst:
		tb, ok := b.(Tconst)
		return ok && Equal(ta.Inner, tb.Inner)
	case TenumConst:
		tb, ok := b.(TenumConst)
		return ok && ta.Value == tb.Value
	case Ttypedef:
		tb, ok := b.(Ttypedef)
		return ok && ta.Name == tb.Name && Equal(ta.Target, tb.Target)
	case Tfunction:
		tb, ok := b.(Tfunction)
		if !ok || ta.Variadic != tb.Variadic || len(ta.Params) != len(tb.Params) {
			return false
		}
		if !Equal(ta.Return, tb.Return) {
			return false
		}
		for i, p := range ta.Params {
			if !Equal(Unqualified(p), Unqualified(tb.Params[i])) {
				return false
			}
		}
		return true
	}
	return false
}
