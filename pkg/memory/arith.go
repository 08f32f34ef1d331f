package memory

import (
	"math"

	"github.com/raymyers/stepc/pkg/ctypes"
)

// Op is an arithmetic, bitwise or comparison operator
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	BitAnd
	BitOr
	BitXor
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
)

func (op Op) String() string {
	names := []string{"+", "-", "*", "/", "%", "<<", ">>", "&", "|", "^", "<", "<=", ">", ">=", "==", "!="}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsComparison reports whether op yields an int truth value
func (op Op) IsComparison() bool {
	return op >= Lt
}

// Binary applies op to two arithmetic values. Except for shifts, both
// operands must already have the common type of the operation. Signed
// results that do not fit trap; unsigned results wrap.
func Binary(op Op, a, b ArithValue) (ArithValue, error) {
	if op == Shl || op == Shr {
		return shift(op, a, b)
	}
	if !ctypes.Equal(a.Type, b.Type) {
		return ArithValue{}, internalf("%s applied to %s and %s", op, a.Type, b.Type)
	}
	if op.IsComparison() {
		return compare(op, a, b), nil
	}
	if a.IsFloating() {
		return floatBinary(op, a, b)
	}
	return intBinary(op, a, b)
}

func compare(op Op, a, b ArithValue) ArithValue {
	var c int
	if a.IsFloating() {
		x, y := a.F, b.F
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		case x == y:
			c = 0
		default: // NaN compares unequal to everything
			return Truth(op == Ne)
		}
	} else {
		switch {
		case a.I < b.I:
			c = -1
		case a.I > b.I:
			c = 1
		}
	}
	return Truth(Ordering(op, c))
}

// Ordering evaluates a comparison operator given a three-way result
func Ordering(op Op, c int) bool {
	switch op {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	}
	return false
}

func floatBinary(op Op, a, b ArithValue) (ArithValue, error) {
	var r float64
	switch op {
	case Add:
		r = a.F + b.F
	case Sub:
		r = a.F - b.F
	case Mul:
		r = a.F * b.F
	case Div:
		r = a.F / b.F
	default:
		return ArithValue{}, internalf("%s applied to %s", op, a.Type)
	}
	return MakeFloat(a.Type, r), nil
}

func intBinary(op Op, a, b ArithValue) (ArithValue, error) {
	x, y := a.I, b.I
	var r int64
	switch op {
	case Add:
		r = x + y
	case Sub:
		r = x - y
	case Mul:
		r = x * y
	case Div, Mod:
		if y == 0 {
			return ArithValue{}, Faultf("division by zero")
		}
		if op == Div {
			r = x / y
		} else {
			r = x % y
		}
	case BitAnd:
		r = x & y
	case BitOr:
		r = x | y
	case BitXor:
		r = x ^ y
	default:
		return ArithValue{}, internalf("%s applied to %s", op, a.Type)
	}
	return checkedInt(a.Type, r, func() string {
		return a.String() + " " + op.String() + " " + b.String()
	})
}

// checkedInt wraps unsigned results and traps signed overflow
func checkedInt(t ctypes.Type, r int64, expr func() string) (ArithValue, error) {
	if !ctypes.IsSigned(t) {
		return MakeInt(t, wrap(t, r)), nil
	}
	if !ctypes.Fits(t, r) {
		return ArithValue{}, Faultf("signed integer overflow: %s does not fit in %s", expr(), t)
	}
	return MakeInt(t, r), nil
}

func wrap(t ctypes.Type, r int64) int64 {
	mask := int64(1)<<ctypes.Bits(t) - 1
	return r & mask
}

func shift(op Op, a, b ArithValue) (ArithValue, error) {
	bits := int64(ctypes.Bits(a.Type))
	n := b.I
	if n < 0 || n >= bits {
		return ArithValue{}, Faultf("shift count %d is out of range for %s", n, a.Type)
	}
	if op == Shr {
		return MakeInt(a.Type, a.I>>uint(n)), nil
	}
	if ctypes.IsSigned(a.Type) && a.I < 0 {
		return ArithValue{}, Faultf("left shift of negative value %d", a.I)
	}
	return checkedInt(a.Type, a.I<<uint(n), func() string {
		return a.String() + " << " + b.String()
	})
}

// Negate implements unary minus on an already promoted value
func Negate(a ArithValue) (ArithValue, error) {
	if a.IsFloating() {
		return MakeFloat(a.Type, -a.F), nil
	}
	return checkedInt(a.Type, -a.I, func() string { return "-" + a.String() })
}

// Complement implements ~ on an already promoted value
func Complement(a ArithValue) ArithValue {
	if ctypes.IsSigned(a.Type) {
		return MakeInt(a.Type, ^a.I)
	}
	return MakeInt(a.Type, wrap(a.Type, ^a.I))
}

// Convert converts an arithmetic value to another arithmetic type.
// Conversion to an unsigned type wraps; conversion to a signed type that
// cannot represent the value traps.
func Convert(v ArithValue, to ctypes.Type) (ArithValue, error) {
	to = ctypes.Unqualified(to)
	if ctypes.IsFloating(to) {
		return MakeFloat(to, v.Float64()), nil
	}
	if !ctypes.IsIntegral(to) {
		return ArithValue{}, internalf("converting %s to %s", v.Type, to)
	}
	if v.IsFloating() {
		if !isFinite(v.F) || !ctypes.FitsFloat(to, v.F) {
			return ArithValue{}, Faultf("%g does not fit in %s", v.F, to)
		}
		return MakeInt(to, int64(math.Trunc(v.F))), nil
	}
	if ctypes.Fits(to, v.I) {
		return MakeInt(to, v.I), nil
	}
	if !ctypes.IsSigned(to) {
		return MakeInt(to, wrap(to, v.I)), nil
	}
	return ArithValue{}, Faultf("%d does not fit in %s", v.I, to)
}

// ConvertValue performs an assignment or cast conversion of any value to
// type to.
func ConvertValue(v Value, to ctypes.Type) (Value, error) {
	u := ctypes.Unqualified(to)
	switch t := u.(type) {
	case ctypes.Tvoid:
		return VoidValue{}, nil
	case ctypes.Tpointer:
		switch x := v.(type) {
		case PointerValue:
			if !x.IsNull() {
				x.Obj = x.Obj.decayTo(t.Elem)
			}
			return x, nil
		case FunctionDesignator:
			return FunctionPointer(x), nil
		case FunctionPointer:
			return x, nil
		case ArithValue:
			if !x.IsFloating() && x.I == 0 {
				return Null, nil
			}
			return nil, Faultf("converting the integer %s to %s", x, t)
		}
	case *ctypes.Tstruct:
		if s, ok := v.(StructValue); ok && s.Type == t {
			return s, nil
		}
	default:
		if a, ok := v.(ArithValue); ok && ctypes.IsArithmetic(u) {
			return Convert(a, u)
		}
	}
	if _, ok := v.(Indeterminate); ok {
		return nil, Faultf("use of an uninitialized value")
	}
	return nil, internalf("converting %s to %s", v, to)
}
