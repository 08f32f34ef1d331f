package ctypes

import (
	"math"

	"github.com/raymyers/stepc/pkg/diag"
)

// Byte sizes of the toy memory model
const (
	PointerSize = 4
)

// Unqualified strips a top-level const
func Unqualified(t Type) Type {
	if c, ok := t.(Tconst); ok {
		return c.Inner
	}
	return t
}

// IsConst reports whether t carries a top-level const
func IsConst(t Type) bool {
	_, ok := t.(Tconst)
	return ok
}

// Decayed applies array-to-pointer and function-to-pointer conversion.
func Decayed(t Type) Type {
	switch u := Unqualified(t).(type) {
	case Tarray:
		return Tpointer{Elem: u.Elem}
	case Tfunction:
		return Tpointer{Elem: u}
	}
	return t
}

// IsVoid reports whether t is (const) void
func IsVoid(t Type) bool {
	_, ok := Unqualified(t).(Tvoid)
	return ok
}

// IsIntegral reports whether t is an integer type
func IsIntegral(t Type) bool {
	switch Unqualified(t).(type) {
	case Tint, Tlong:
		return true
	}
	return false
}

// IsFloating reports whether t is float or double
func IsFloating(t Type) bool {
	_, ok := Unqualified(t).(Tfloat)
	return ok
}

// IsArithmetic reports whether t is an integer or floating type
func IsArithmetic(t Type) bool {
	return IsIntegral(t) || IsFloating(t)
}

// IsPointer reports whether t is a pointer type
func IsPointer(t Type) bool {
	_, ok := Unqualified(t).(Tpointer)
	return ok
}

// IsScalar reports whether t can be tested against zero
func IsScalar(t Type) bool {
	return IsArithmetic(t) || IsPointer(t)
}

// IsArray reports whether t is an array type
func IsArray(t Type) bool {
	_, ok := Unqualified(t).(Tarray)
	return ok
}

// IsFunction reports whether t is a function type
func IsFunction(t Type) bool {
	_, ok := Unqualified(t).(Tfunction)
	return ok
}

// AsStruct returns the struct behind t, if any
func AsStruct(t Type) (*Tstruct, bool) {
	s, ok := Unqualified(t).(*Tstruct)
	return s, ok
}

// IsSigned reports whether an integer type is signed. Floating types count
// as signed.
func IsSigned(t Type) bool {
	switch u := Unqualified(t).(type) {
	case Tint:
		return u.Sign == Signed
	case Tlong:
		return u.Sign == Signed
	case Tfloat:
		return true
	}
	return false
}

// Rank orders arithmetic types for the usual arithmetic conversions.
func Rank(t Type) int {
	switch u := Unqualified(t).(type) {
	case Tint:
		return int(u.Size)*2 + int(u.Sign)
	case Tlong:
		return 6 + int(u.Sign)
	case Tfloat:
		return 8 + int(u.Size)
	}
	diag.Fail("rank of non-arithmetic type %s", t)
	return 0
}

// Bits returns the width of an integer type
func Bits(t Type) uint {
	switch u := Unqualified(t).(type) {
	case Tint:
		return 8 << u.Size
	case Tlong:
		return 32
	}
	diag.Fail("bit width of non-integer type %s", t)
	return 0
}

// MinValue returns the smallest value representable in integer type t
func MinValue(t Type) int64 {
	if !IsSigned(t) {
		return 0
	}
	return -1 << (Bits(t) - 1)
}

// MaxValue returns the largest value representable in integer type t
func MaxValue(t Type) int64 {
	if IsSigned(t) {
		return 1<<(Bits(t)-1) - 1
	}
	return 1<<Bits(t) - 1
}

// Fits reports whether v is representable in integer type t
func Fits(t Type, v int64) bool {
	return v >= MinValue(t) && v <= MaxValue(t)
}

// FitsFloat reports whether the truncation of f is representable in t
func FitsFloat(t Type, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	f = math.Trunc(f)
	return f >= float64(MinValue(t)) && f <= float64(MaxValue(t))
}

// Count returns the number of storage cells a value of type t occupies.
// Every scalar occupies one cell.
func Count(t Type) int {
	switch u := Unqualified(t).(type) {
	case Tarray:
		if u.Length < 0 {
			diag.Fail("cell count of incomplete array %s", t)
		}
		return u.Length * Count(u.Elem)
	case *Tstruct:
		if !u.sealed {
			diag.Fail("cell count of incomplete %s", t)
		}
		n := 0
		for _, m := range u.Members {
			n += Count(m.Type)
		}
		return n
	case Tint, Tlong, Tfloat, Tpointer:
		return 1
	}
	diag.Fail("cell count of %s", t)
	return 0
}

// SizeOf returns the size of t in bytes. Structs have no padding.
func SizeOf(t Type) int {
	switch u := Unqualified(t).(type) {
	case Tint:
		return 1 << u.Size
	case Tlong:
		return 4
	case Tfloat:
		if u.Size == F32 {
			return 4
		}
		return 8
	case Tpointer:
		return PointerSize
	case Tarray:
		if u.Length < 0 {
			diag.Fail("size of incomplete array %s", t)
		}
		return u.Length * SizeOf(u.Elem)
	case *Tstruct:
		if !u.sealed {
			diag.Fail("size of incomplete %s", t)
		}
		n := 0
		for _, m := range u.Members {
			n += SizeOf(m.Type)
		}
		return n
	}
	diag.Fail("size of %s", t)
	return 0
}

// IsComplete reports whether the size of t is known
func IsComplete(t Type) bool {
	switch u := Unqualified(t).(type) {
	case Tvoid, Tfunction:
		return false
	case Tarray:
		return u.Length >= 0 && IsComplete(u.Elem)
	case *Tstruct:
		return u.sealed
	}
	return true
}

// Promote applies the integral promotions: every integer type narrower than
// int becomes int.
func Promote(t Type) Type {
	u := Unqualified(t)
	if i, ok := u.(Tint); ok && i.Size < I32 {
		return Int()
	}
	return u
}

// UsualArithmetic returns the common type of a binary arithmetic operation.
func UsualArithmetic(a, b Type) Type {
	a, b = Promote(a), Promote(b)
	if Rank(a) < Rank(b) {
		a, b = b, a
	}
	// long cannot represent every unsigned int when both are 32 bits wide
	if Equal(a, Long()) && Equal(b, UInt()) {
		return ULong()
	}
	return a
}

// Flatten lists the scalar type of every cell of t in storage order.
func Flatten(t Type) []Type {
	var cells []Type
	var walk func(Type)
	walk = func(t Type) {
		switch u := Unqualified(t).(type) {
		case Tarray:
			for i := 0; i < u.Length; i++ {
				walk(u.Elem)
			}
		case *Tstruct:
			for _, m := range u.Members {
				walk(m.Type)
			}
		default:
			cells = append(cells, u)
		}
	}
	walk(t)
	return cells
}
