// Package memory implements the interpreter's storage model: typed cells
// grouped into segments with one liveness flag each, objects that denote
// (possibly one-past-the-end) locations inside a segment, and the values
// stored in cells.
package memory

import (
	"fmt"
	"math"
	"strconv"

	"github.com/raymyers/stepc/pkg/ctypes"
)

// Value is the closed set of run-time values
type Value interface {
	implValue()
	String() string
}

// VoidValue is the result of a void expression
type VoidValue struct{}

// ArithValue is a number tagged with its exact arithmetic type. Integers
// live in I, floating values in F.
type ArithValue struct {
	Type ctypes.Type
	I    int64
	F    float64
}

// PointerValue wraps the object it points to. The zero Object is the null
// pointer.
type PointerValue struct {
	Obj Object
}

// FunctionDesignator is the value of a function name before decay
type FunctionDesignator struct {
	Name string
	Type ctypes.Tfunction
}

// FunctionPointer is a decayed function designator
type FunctionPointer struct {
	Name string
	Type ctypes.Tfunction
}

// Indeterminate is the content of a cell that was never written
type Indeterminate struct{}

// StructValue is a copy of a whole struct, used for struct assignment,
// struct arguments and struct return values.
type StructValue struct {
	Type  *ctypes.Tstruct
	Cells []Value
}

func (VoidValue) implValue()          {}
func (ArithValue) implValue()         {}
func (PointerValue) implValue()       {}
func (FunctionDesignator) implValue() {}
func (FunctionPointer) implValue()    {}
func (Indeterminate) implValue()      {}
func (StructValue) implValue()        {}

func (VoidValue) String() string { return "void" }

func (v ArithValue) String() string {
	if ctypes.IsFloating(v.Type) {
		if ctypes.Equal(ctypes.Unqualified(v.Type), ctypes.Float()) {
			return strconv.FormatFloat(v.F, 'g', -1, 32)
		}
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	}
	if ctypes.Equal(ctypes.Unqualified(v.Type), ctypes.Char()) && v.I >= 32 && v.I < 127 {
		return fmt.Sprintf("'%c'", rune(v.I))
	}
	return strconv.FormatInt(v.I, 10)
}

func (v PointerValue) String() string {
	if v.IsNull() {
		return "NULL"
	}
	return "&" + v.Obj.String()
}

func (v FunctionDesignator) String() string { return v.Name }

func (v FunctionPointer) String() string { return "&" + v.Name }

func (Indeterminate) String() string { return "?" }

func (v StructValue) String() string { return "{" + v.Type.String() + "}" }

// IsNull reports whether the pointer is the null pointer
func (v PointerValue) IsNull() bool {
	return v.Obj.Seg == nil
}

// Null is the null pointer value
var Null = PointerValue{}

// MakeInt creates an integer value of type t
func MakeInt(t ctypes.Type, i int64) ArithValue {
	return ArithValue{Type: ctypes.Unqualified(t), I: i}
}

// MakeFloat creates a floating value of type t, rounding to float precision
// when t is float.
func MakeFloat(t ctypes.Type, f float64) ArithValue {
	t = ctypes.Unqualified(t)
	if ctypes.Equal(t, ctypes.Float()) {
		f = float64(float32(f))
	}
	return ArithValue{Type: t, F: f}
}

// Int creates an int value
func Int(i int64) ArithValue {
	return MakeInt(ctypes.Int(), i)
}

// Truth converts a Go bool into the int 0 or 1
func Truth(b bool) ArithValue {
	if b {
		return Int(1)
	}
	return Int(0)
}

// IsFloating reports whether the value holds a float or double
func (v ArithValue) IsFloating() bool {
	return ctypes.IsFloating(v.Type)
}

// Float64 returns the value as a float64 regardless of its type
func (v ArithValue) Float64() float64 {
	if v.IsFloating() {
		return v.F
	}
	return float64(v.I)
}

// IsZero reports whether the value compares equal to zero
func (v ArithValue) IsZero() bool {
	if v.IsFloating() {
		return v.F == 0
	}
	return v.I == 0
}

// IsTrue implements C's truth test for scalar values
func IsTrue(v Value) (bool, error) {
	switch x := v.(type) {
	case ArithValue:
		return !x.IsZero(), nil
	case PointerValue:
		return !x.IsNull(), nil
	case FunctionDesignator, FunctionPointer:
		return true, nil
	case Indeterminate:
		return false, Faultf("use of an uninitialized value")
	}
	return false, internalf("truth value of %T", v)
}

// Zero returns the zero value of every cell of t, as static storage is
// initialized.
func Zero(t ctypes.Type) []Value {
	cells := ctypes.Flatten(t)
	values := make([]Value, len(cells))
	for i, c := range cells {
		values[i] = zeroCell(c)
	}
	return values
}

func zeroCell(t ctypes.Type) Value {
	switch {
	case ctypes.IsFloating(t):
		return MakeFloat(t, 0)
	case ctypes.IsIntegral(t):
		return MakeInt(t, 0)
	case ctypes.IsPointer(t):
		return Null
	}
	return Indeterminate{}
}

// sameKind reports whether a cell declared with type t may hold v
func sameKind(t ctypes.Type, v Value) bool {
	switch x := v.(type) {
	case Indeterminate:
		return true
	case ArithValue:
		return ctypes.Equal(ctypes.Unqualified(t), x.Type)
	case PointerValue, FunctionPointer:
		return ctypes.IsPointer(t)
	}
	return false
}

// isFinite guards conversions from floating point
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
