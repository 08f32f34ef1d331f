package interp

import (
	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/memory"
)

// eval computes the value of an expression. Arrays and functions decay.
func (m *Machine) eval(e cabs.Expr) memory.Value {
	m.before(e.Pos())
	defer m.after()
	if v := e.Value(); v != nil {
		return v
	}
	return m.value(e)
}

func (m *Machine) value(e cabs.Expr) memory.Value {
	switch e := e.(type) {
	case *cabs.StringLiteral:
		return memory.PointerValue{Obj: m.literal(e).Decay()}
	case *cabs.Identifier:
		switch e.Ref {
		case cabs.RefVariable:
			return m.load(e.Pos(), m.locate(e))
		case cabs.RefFunction, cabs.RefBuiltin:
			return memory.FunctionPointer{Name: e.Name, Type: ctypes.Unqualified(e.Type()).(ctypes.Tfunction)}
		}
	case *cabs.Unary:
		return m.unary(e)
	case *cabs.IncDec:
		return m.incDec(e)
	case *cabs.Binary:
		return m.binary(e)
	case *cabs.Assign:
		return m.assign(e)
	case *cabs.Conditional:
		branch := e.Else
		if m.truth(e.Cond.Pos(), m.eval(e.Cond)) {
			branch = e.Then
		}
		v := m.eval(branch)
		if ctypes.IsVoid(e.Type()) {
			return memory.VoidValue{}
		}
		return m.convert(branch.Pos(), v, e.Type())
	case *cabs.Comma:
		m.eval(e.Left)
		return m.eval(e.Right)
	case *cabs.Call:
		return m.call(e)
	case *cabs.Index:
		return m.load(e.Pos(), m.locate(e))
	case *cabs.Member:
		if !e.Arrow && !m.isLocator(e.Base) {
			return m.temporaryMember(e)
		}
		return m.load(e.NamePos, m.locate(e))
	case *cabs.Cast:
		v := m.eval(e.Operand)
		return m.convert(e.Pos(), v, e.Type())
	}
	diag.Fail("cannot evaluate %T", e)
	return nil
}

// load reads an object, decaying arrays
func (m *Machine) load(pos int, obj memory.Object) memory.Value {
	v, err := obj.Evaluate()
	m.check(pos, err)
	return v
}

func (m *Machine) literal(e *cabs.StringLiteral) memory.Object {
	return memory.At(m.mem.Strings(), e.Offset, e.Type())
}

// isLocator reports whether e denotes storage at run time
func (m *Machine) isLocator(e cabs.Expr) bool {
	switch e := e.(type) {
	case *cabs.Identifier:
		return e.Ref == cabs.RefVariable
	case *cabs.Unary:
		return e.Op == cabs.OpDeref
	case *cabs.Index, *cabs.StringLiteral:
		return true
	case *cabs.Member:
		return e.Arrow || m.isLocator(e.Base)
	}
	return false
}

// locate finds the object a locator expression denotes
func (m *Machine) locate(e cabs.Expr) memory.Object {
	m.before(e.Pos())
	defer m.after()
	switch e := e.(type) {
	case *cabs.Identifier:
		if e.Ref != cabs.RefVariable {
			diag.Fail("locating %s, which is not a variable", e.Name)
		}
		return m.local(e.Offset, e.Type())
	case *cabs.StringLiteral:
		return m.literal(e)
	case *cabs.Unary:
		if e.Op != cabs.OpDeref {
			break
		}
		return m.deref(e.Pos(), m.eval(e.Operand), e.Type())
	case *cabs.Index:
		p := m.pointer(e.Array.Pos(), m.eval(e.Array))
		i := m.arith(e.Index.Pos(), m.eval(e.Index))
		if p.IsNull() {
			m.faultf(e.Pos(), "null pointer dereference")
		}
		obj, err := p.Obj.Add(int(i.I))
		m.check(e.Pos(), err)
		return m.deref(e.Pos(), memory.PointerValue{Obj: obj}, e.Type())
	case *cabs.Member:
		var base memory.Object
		if e.Arrow {
			pt := ctypes.Decayed(ctypes.Unqualified(e.Base.Type())).(ctypes.Tpointer)
			base = m.deref(e.Pos(), m.eval(e.Base), pt.Elem)
		} else {
			base = m.locate(e.Base)
		}
		m.check(e.Pos(), base.CheckReferable())
		return base.Member(e.Resolved)
	}
	diag.Fail("cannot locate %T", e)
	return memory.Object{}
}

// deref turns a pointer value into the object it designates, which must
// have the type the expression reads it as
func (m *Machine) deref(pos int, v memory.Value, t ctypes.Type) memory.Object {
	p := m.pointer(pos, v)
	if p.IsNull() {
		m.faultf(pos, "null pointer dereference")
	}
	if !sameObjectType(p.Obj.Type, t) {
		m.faultf(pos, "type-punned access: the object has type %s but is accessed as %s", p.Obj.Type, t)
	}
	return p.Obj
}

// sameObjectType compares two types ignoring const at every array level
func sameObjectType(a, b ctypes.Type) bool {
	a, b = ctypes.Unqualified(a), ctypes.Unqualified(b)
	aa, aok := a.(ctypes.Tarray)
	ba, bok := b.(ctypes.Tarray)
	if aok && bok {
		return aa.Length == ba.Length && sameObjectType(aa.Elem, ba.Elem)
	}
	return ctypes.Equal(a, b)
}

// temporaryMember reads a member of a struct value that has no storage,
// such as the result of a call
func (m *Machine) temporaryMember(e *cabs.Member) memory.Value {
	sv, ok := m.eval(e.Base).(memory.StructValue)
	if !ok {
		diag.Fail("member %s of a non-struct value", e.Name)
	}
	mem := e.Resolved
	n := ctypes.Count(mem.Type)
	cells := sv.Cells[mem.Offset : mem.Offset+n]
	switch t := ctypes.Unqualified(mem.Type).(type) {
	case *ctypes.Tstruct:
		return memory.StructValue{Type: t, Cells: cells}
	case ctypes.Tarray:
		m.faultf(e.NamePos, "the array member %s of a temporary struct has no storage; store the struct in a variable first", e.Name)
	}
	if _, ok := cells[0].(memory.Indeterminate); ok {
		m.faultf(e.NamePos, "read of uninitialized member %s", e.Name)
	}
	return cells[0]
}

func (m *Machine) arith(pos int, v memory.Value) memory.ArithValue {
	switch x := v.(type) {
	case memory.ArithValue:
		return x
	case memory.Indeterminate:
		m.faultf(pos, "use of an uninitialized value")
	}
	diag.Fail("expected a number, got %s", v)
	return memory.ArithValue{}
}

func (m *Machine) pointer(pos int, v memory.Value) memory.PointerValue {
	switch x := v.(type) {
	case memory.PointerValue:
		return x
	case memory.Indeterminate:
		m.faultf(pos, "use of an uninitialized pointer")
	}
	diag.Fail("expected a pointer, got %s", v)
	return memory.Null
}

func (m *Machine) truth(pos int, v memory.Value) bool {
	b, err := memory.IsTrue(v)
	m.check(pos, err)
	return b
}

func (m *Machine) convert(pos int, v memory.Value, t ctypes.Type) memory.Value {
	r, err := memory.ConvertValue(v, t)
	m.check(pos, err)
	return r
}

func (m *Machine) convertArith(pos int, v memory.ArithValue, t ctypes.Type) memory.ArithValue {
	r, err := memory.Convert(v, t)
	m.check(pos, err)
	return r
}

func (m *Machine) unary(e *cabs.Unary) memory.Value {
	switch e.Op {
	case cabs.OpNeg, cabs.OpPlus, cabs.OpBitNot:
		v := m.convertArith(e.Pos(), m.arith(e.Operand.Pos(), m.eval(e.Operand)), e.Type())
		switch e.Op {
		case cabs.OpNeg:
			r, err := memory.Negate(v)
			m.check(e.Pos(), err)
			return r
		case cabs.OpBitNot:
			return memory.Complement(v)
		}
		return v
	case cabs.OpNot:
		return memory.Truth(!m.truth(e.Operand.Pos(), m.eval(e.Operand)))
	case cabs.OpDeref:
		if ctypes.IsFunction(e.Type()) {
			return m.eval(e.Operand)
		}
		return m.load(e.Pos(), m.locate(e))
	case cabs.OpAddrOf:
		if ctypes.IsFunction(e.Operand.Type()) {
			return m.eval(e.Operand)
		}
		return memory.PointerValue{Obj: m.locate(e.Operand)}
	}
	diag.Fail("unexpected unary operator %s", e.Op)
	return nil
}

// step applies ++ or -- to the value of an object of type t
func (m *Machine) step(pos int, old memory.Value, t ctypes.Type, decrement bool) memory.Value {
	delta := 1
	if decrement {
		delta = -1
	}
	if ctypes.IsPointer(t) {
		p := m.pointer(pos, old)
		if p.IsNull() {
			m.faultf(pos, "arithmetic on a null pointer")
		}
		obj, err := p.Obj.Add(delta)
		m.check(pos, err)
		return memory.PointerValue{Obj: obj}
	}
	opType := ctypes.UsualArithmetic(t, ctypes.Int())
	a := m.convertArith(pos, m.arith(pos, old), opType)
	one := m.convertArith(pos, memory.Int(1), opType)
	op := memory.Add
	if decrement {
		op = memory.Sub
	}
	r, err := memory.Binary(op, a, one)
	m.check(pos, err)
	return m.convertArith(pos, r, t)
}

func (m *Machine) incDec(e *cabs.IncDec) memory.Value {
	obj := m.locate(e.Operand)
	old := m.load(e.Operand.Pos(), obj)
	t := ctypes.Unqualified(e.Type())
	nv := m.step(e.Pos(), old, t, e.Decrement)
	m.check(e.Pos(), obj.Assign(nv))
	if e.Postfix {
		return old
	}
	return nv
}

func (m *Machine) binary(e *cabs.Binary) memory.Value {
	switch e.Op {
	case cabs.OpAnd:
		if !m.truth(e.Left.Pos(), m.eval(e.Left)) {
			return memory.Int(0)
		}
		return memory.Truth(m.truth(e.Right.Pos(), m.eval(e.Right)))
	case cabs.OpOr:
		if m.truth(e.Left.Pos(), m.eval(e.Left)) {
			return memory.Int(1)
		}
		return memory.Truth(m.truth(e.Right.Pos(), m.eval(e.Right)))
	}
	l, r := m.eval(e.Left), m.eval(e.Right)
	if e.OpType == nil {
		if e.Op.IsComparison() {
			return m.comparePointers(e, l, r)
		}
		return m.pointerArithmetic(e, l, r)
	}
	a := m.convertArith(e.Left.Pos(), m.arith(e.Left.Pos(), l), e.OpType)
	rt := e.OpType
	if e.Op.IsShift() {
		rt = ctypes.Promote(ctypes.Decayed(ctypes.Unqualified(e.Right.Type())))
	}
	b := m.convertArith(e.Right.Pos(), m.arith(e.Right.Pos(), r), rt)
	v, err := memory.Binary(e.Op.Arith(), a, b)
	m.check(e.Pos(), err)
	return v
}

func (m *Machine) pointerArithmetic(e *cabs.Binary, l, r memory.Value) memory.Value {
	lp, lok := l.(memory.PointerValue)
	rp, rok := r.(memory.PointerValue)
	var p memory.PointerValue
	var n memory.Value
	var npos int
	switch {
	case lok && rok:
		d, err := lp.Obj.Diff(rp.Obj)
		m.check(e.Pos(), err)
		return memory.Int(int64(d))
	case lok:
		p, n, npos = lp, r, e.Right.Pos()
	case rok:
		p, n, npos = rp, l, e.Left.Pos()
	default:
		diag.Fail("pointer arithmetic on %s and %s", l, r)
	}
	if p.IsNull() {
		m.faultf(e.Pos(), "arithmetic on a null pointer")
	}
	delta := int(m.arith(npos, n).I)
	if e.Op == cabs.OpSub {
		delta = -delta
	}
	obj, err := p.Obj.Add(delta)
	m.check(e.Pos(), err)
	return memory.PointerValue{Obj: obj}
}

func (m *Machine) comparePointers(e *cabs.Binary, l, r memory.Value) memory.Value {
	op := e.Op.Arith()
	if op == memory.Eq || op == memory.Ne {
		same := m.samePointer(e.Pos(), l, r)
		return memory.Truth(same == (op == memory.Eq))
	}
	lp, rp := m.pointer(e.Left.Pos(), l), m.pointer(e.Right.Pos(), r)
	c, err := lp.Obj.Compare(rp.Obj)
	m.check(e.Pos(), err)
	return memory.Truth(memory.Ordering(op, c))
}

// samePointer implements == on pointers, function pointers and the null
// pointer constant
func (m *Machine) samePointer(pos int, l, r memory.Value) bool {
	l, r = m.asPointer(pos, l), m.asPointer(pos, r)
	lf, lok := l.(memory.FunctionPointer)
	rf, rok := r.(memory.FunctionPointer)
	switch {
	case lok && rok:
		return lf.Name == rf.Name
	case lok || rok:
		return false
	}
	return l.(memory.PointerValue).Obj.Same(r.(memory.PointerValue).Obj)
}

func (m *Machine) asPointer(pos int, v memory.Value) memory.Value {
	switch x := v.(type) {
	case memory.ArithValue:
		if x.IsFloating() || x.I != 0 {
			diag.Fail("comparing a pointer with %s", x)
		}
		return memory.Null
	case memory.FunctionDesignator:
		return memory.FunctionPointer(x)
	case memory.Indeterminate:
		m.faultf(pos, "use of an uninitialized pointer")
	}
	return v
}

func (m *Machine) assign(e *cabs.Assign) memory.Value {
	obj := m.locate(e.Target)
	t := ctypes.Unqualified(e.Target.Type())
	if e.Op == cabs.OpAssign {
		v := m.convert(e.Source.Pos(), m.eval(e.Source), t)
		m.check(e.Pos(), obj.Assign(v))
		return v
	}
	old := m.load(e.Target.Pos(), obj)
	src := m.eval(e.Source)
	var nv memory.Value
	if ctypes.IsPointer(t) {
		p := m.pointer(e.Target.Pos(), old)
		if p.IsNull() {
			m.faultf(e.Pos(), "arithmetic on a null pointer")
		}
		delta := int(m.arith(e.Source.Pos(), src).I)
		if e.Op == cabs.OpSub {
			delta = -delta
		}
		moved, err := p.Obj.Add(delta)
		m.check(e.Pos(), err)
		nv = memory.PointerValue{Obj: moved}
	} else {
		a := m.convertArith(e.Target.Pos(), m.arith(e.Target.Pos(), old), e.OpType)
		rt := e.OpType
		if e.Op.IsShift() {
			rt = ctypes.Promote(ctypes.Decayed(ctypes.Unqualified(e.Source.Type())))
		}
		b := m.convertArith(e.Source.Pos(), m.arith(e.Source.Pos(), src), rt)
		r, err := memory.Binary(e.Op.Arith(), a, b)
		m.check(e.Pos(), err)
		nv = m.convertArith(e.Pos(), r, t)
	}
	m.check(e.Pos(), obj.Assign(nv))
	return nv
}

// call evaluates the callee and the arguments left to right and runs the
// function
func (m *Machine) call(e *cabs.Call) memory.Value {
	var name string
	var ft ctypes.Tfunction
	switch f := m.eval(e.Func).(type) {
	case memory.FunctionPointer:
		name, ft = f.Name, f.Type
	case memory.FunctionDesignator:
		name, ft = f.Name, f.Type
	case memory.PointerValue:
		if f.IsNull() {
			m.faultf(e.Func.Pos(), "call through a null function pointer")
		}
		diag.Fail("calling a data pointer")
	case memory.Indeterminate:
		m.faultf(e.Func.Pos(), "call through an uninitialized function pointer")
	default:
		diag.Fail("calling %s", f)
	}
	args := make([]memory.Value, len(e.Args))
	for i, a := range e.Args {
		v := m.eval(a)
		if i < len(ft.Params) {
			v = m.convert(a.Pos(), v, ft.Params[i])
		} else {
			v = m.promote(a.Pos(), v)
		}
		args[i] = v
	}
	return m.invoke(e.Pos(), name, args, e.AllocElem)
}

// promote applies the default argument promotions to a variadic argument
func (m *Machine) promote(pos int, v memory.Value) memory.Value {
	a, ok := v.(memory.ArithValue)
	if !ok {
		return v
	}
	if a.IsFloating() {
		return m.convertArith(pos, a, ctypes.Double())
	}
	return m.convertArith(pos, a, ctypes.Promote(a.Type))
}

// invoke runs a user function or a library function by name
func (m *Machine) invoke(pos int, name string, args []memory.Value, allocElem ctypes.Type) memory.Value {
	if fn, ok := m.prog.Function(name); ok {
		return m.callFunction(pos, fn, args)
	}
	return m.library(pos, name, args, allocElem)
}
