package sema

import (
	"fmt"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/format"
	"github.com/raymyers/stepc/pkg/memory"
)

// expr checks an expression and records its type on the node. The
// recorded type is the type before array and function decay.
func (c *Checker) expr(e cabs.Expr) ctypes.Type {
	t := c.exprType(e)
	e.SetType(t)
	return t
}

// rvalue checks an expression whose value is used, and returns its type
// after decay with qualifiers dropped.
func (c *Checker) rvalue(e cabs.Expr) ctypes.Type {
	return ctypes.Decayed(ctypes.Unqualified(c.expr(e)))
}

func (c *Checker) exprType(e cabs.Expr) ctypes.Type {
	switch e := e.(type) {
	case *cabs.IntConstant:
		t := c.intLiteralType(e)
		e.SetValue(memory.MakeInt(t, int64(e.Raw)))
		return t
	case *cabs.FloatConstant:
		t := ctypes.Double()
		if e.IsFloat {
			t = ctypes.Float()
		}
		e.SetValue(memory.MakeFloat(t, e.Raw))
		return t
	case *cabs.CharConstant:
		e.SetValue(memory.Int(int64(int8(e.Raw))))
		return ctypes.Int()
	case *cabs.StringLiteral:
		e.Offset = c.literal(e.Raw)
		return ctypes.Array(ctypes.Char(), len(e.Raw)+1)
	case *cabs.Identifier:
		return c.identifier(e)
	case *cabs.Unary:
		return c.unary(e)
	case *cabs.IncDec:
		op := "++"
		if e.Decrement {
			op = "--"
		}
		t := ctypes.Unqualified(c.expr(e.Operand))
		c.modifiable(e.Operand, op)
		switch {
		case ctypes.IsArithmetic(t):
		case ctypes.IsPointer(t):
			c.pointerArithmetic(e.At, t)
		default:
			c.errorf(e.At, "operand of %s must be arithmetic or a pointer, not %s", op, t)
		}
		return t
	case *cabs.Binary:
		return c.binary(e)
	case *cabs.Assign:
		return c.assign(e)
	case *cabs.Conditional:
		return c.conditional(e)
	case *cabs.Comma:
		c.expr(e.Left)
		return c.rvalue(e.Right)
	case *cabs.Call:
		return c.call(e)
	case *cabs.Index:
		at, it := c.rvalue(e.Array), c.rvalue(e.Index)
		p, ok := at.(ctypes.Tpointer)
		if !ok {
			c.errorf(e.At, "subscripted value of type %s is not an array or pointer", e.Array.Type())
		}
		if !ctypes.IsIntegral(it) {
			c.errorf(e.Index.Pos(), "an array index must be an integer, not %s", it)
		}
		c.pointerArithmetic(e.At, p)
		return p.Elem
	case *cabs.Member:
		return c.member(e)
	case *cabs.Cast:
		return c.cast(e)
	case *cabs.SizeofExpr:
		c.sizeofDepth++
		t := c.expr(e.Operand)
		c.sizeofDepth--
		return c.sizeof(e, t)
	case *cabs.SizeofType:
		return c.sizeof(e, c.typeName(e.Of))
	}
	diag.Fail("unexpected expression %T", e)
	return nil
}

// intLiteralType picks the first type of the literal's candidate list
// that can represent its value.
func (c *Checker) intLiteralType(e *cabs.IntConstant) ctypes.Type {
	var candidates []ctypes.Type
	switch {
	case e.Unsigned && e.Long:
		candidates = []ctypes.Type{ctypes.ULong()}
	case e.Unsigned:
		candidates = []ctypes.Type{ctypes.UInt(), ctypes.ULong()}
	case e.Long && e.Decimal:
		candidates = []ctypes.Type{ctypes.Long()}
	case e.Long:
		candidates = []ctypes.Type{ctypes.Long(), ctypes.ULong()}
	case e.Decimal:
		candidates = []ctypes.Type{ctypes.Int()}
	default:
		candidates = []ctypes.Type{ctypes.Int(), ctypes.UInt()}
	}
	for _, t := range candidates {
		if e.Raw <= uint64(ctypes.MaxValue(t)) {
			return t
		}
	}
	c.errorf(e.At, "integer constant %s is too large for %s", e.Text, candidates[len(candidates)-1])
	return nil
}

func (c *Checker) identifier(e *cabs.Identifier) ctypes.Type {
	sym := c.lookup(e.Name)
	if sym == nil {
		c.errorf(e.At, "'%s' undeclared%s", e.Name, didYouMean(e.Name, c.visibleNames()))
	}
	sym.use(e.At)
	switch sym.Kind {
	case Variable:
		e.Ref = cabs.RefVariable
		e.Offset = sym.Offset
	case Function:
		e.Ref = cabs.RefFunction
	case Builtin:
		e.Ref = cabs.RefBuiltin
	case Constant:
		e.Ref = cabs.RefEnumConstant
		e.SetValue(sym.Value)
	case Typedef:
		c.errorf(e.At, "unexpected type name '%s' in expression", e.Name)
	}
	return sym.Type
}

// fold records the value of a constant subexpression. Folding is
// suppressed inside sizeof, whose operand is never evaluated.
func (c *Checker) fold(e cabs.Expr, f func() (memory.ArithValue, error)) {
	if c.sizeofDepth > 0 {
		return
	}
	v, err := f()
	if err != nil {
		c.fault(e.Pos(), err)
	}
	e.SetValue(v)
}

func constArith(e cabs.Expr) (memory.ArithValue, bool) {
	v, ok := e.Value().(memory.ArithValue)
	return v, ok
}

// isNullConstant reports whether e is a null pointer constant
func isNullConstant(e cabs.Expr) bool {
	switch v := e.Value().(type) {
	case memory.ArithValue:
		return ctypes.IsIntegral(v.Type) && v.I == 0
	case memory.PointerValue:
		return v.IsNull()
	}
	return false
}

func constTruth(v memory.Value) (bool, bool) {
	switch x := v.(type) {
	case memory.ArithValue:
		return !x.IsZero(), true
	case memory.PointerValue:
		return !x.IsNull(), true
	}
	return false, false
}

func (c *Checker) unary(e *cabs.Unary) ctypes.Type {
	switch e.Op {
	case cabs.OpNeg, cabs.OpPlus, cabs.OpBitNot:
		t := c.rvalue(e.Operand)
		if e.Op == cabs.OpBitNot && !ctypes.IsIntegral(t) {
			c.errorf(e.At, "operand of ~ must be an integer, not %s", t)
		}
		if !ctypes.IsArithmetic(t) {
			c.errorf(e.At, "operand of unary %s must be arithmetic, not %s", e.Op, t)
		}
		rt := ctypes.Promote(t)
		if v, ok := constArith(e.Operand); ok {
			c.fold(e, func() (memory.ArithValue, error) {
				pv, err := memory.Convert(v, rt)
				if err != nil {
					return pv, err
				}
				switch e.Op {
				case cabs.OpNeg:
					return memory.Negate(pv)
				case cabs.OpBitNot:
					return memory.Complement(pv), nil
				}
				return pv, nil
			})
		}
		return rt
	case cabs.OpNot:
		t := c.rvalue(e.Operand)
		if !ctypes.IsScalar(t) {
			c.errorf(e.At, "operand of ! must have scalar type, not %s", t)
		}
		if b, ok := constTruth(e.Operand.Value()); ok {
			c.fold(e, func() (memory.ArithValue, error) { return memory.Truth(!b), nil })
		}
		return ctypes.Int()
	case cabs.OpDeref:
		t := c.rvalue(e.Operand)
		p, ok := t.(ctypes.Tpointer)
		if !ok {
			c.errorf(e.At, "cannot dereference a value of type %s", t)
		}
		if ctypes.IsVoid(p.Elem) {
			c.errorf(e.At, "cannot dereference a void pointer; convert it to a typed pointer first")
		}
		return p.Elem
	case cabs.OpAddrOf:
		t := c.expr(e.Operand)
		if !ctypes.IsFunction(t) && !c.isLocator(e.Operand) {
			c.errorf(e.At, "operand of & is not a locator (an expression that denotes storage)")
		}
		return ctypes.Pointer(t)
	}
	diag.Fail("unexpected unary operator %s", e.Op)
	return nil
}

// isLocator reports whether e denotes a storage location
func (c *Checker) isLocator(e cabs.Expr) bool {
	switch e := e.(type) {
	case *cabs.Identifier:
		return e.Ref == cabs.RefVariable
	case *cabs.Unary:
		return e.Op == cabs.OpDeref
	case *cabs.Index, *cabs.StringLiteral:
		return true
	case *cabs.Member:
		return e.Arrow || c.isLocator(e.Base)
	}
	return false
}

// modifiable requires e to be a locator that may be written
func (c *Checker) modifiable(e cabs.Expr, op string) {
	if !c.isLocator(e) {
		c.errorf(e.Pos(), "operand of %s is not a locator (an expression that denotes storage)", op)
	}
	t := e.Type()
	switch {
	case ctypes.IsArray(t):
		c.errorf(e.Pos(), "cannot apply %s to an array; copy its elements one by one", op)
	case ctypes.IsConst(t):
		c.errorf(e.Pos(), "cannot apply %s to a const object of type %s", op, t)
	}
	if s, ok := ctypes.AsStruct(t); ok && hasConstMember(s) {
		c.errorf(e.Pos(), "cannot apply %s to %s: it has a const member", op, s)
	}
}

func hasConstMember(s *ctypes.Tstruct) bool {
	for _, m := range s.Members {
		if ctypes.IsConst(m.Type) {
			return true
		}
		if inner, ok := ctypes.AsStruct(m.Type); ok && hasConstMember(inner) {
			return true
		}
	}
	return false
}

// pointerArithmetic requires the pointee of p to have a size
func (c *Checker) pointerArithmetic(pos int, p ctypes.Type) {
	elem := ctypes.Unqualified(p).(ctypes.Tpointer).Elem
	if ctypes.IsVoid(elem) || ctypes.IsFunction(elem) || !ctypes.IsComplete(elem) {
		c.errorf(pos, "arithmetic on %s: the pointee has no size", p)
	}
}

func (c *Checker) binary(e *cabs.Binary) ctypes.Type {
	lt, rt := c.rvalue(e.Left), c.rvalue(e.Right)
	lp, rp := ctypes.IsPointer(lt), ctypes.IsPointer(rt)
	switch {
	case e.Op == cabs.OpAnd || e.Op == cabs.OpOr:
		if !ctypes.IsScalar(lt) || !ctypes.IsScalar(rt) {
			c.errorf(e.At, "operands of %s must have scalar type, not %s and %s", e.Op, lt, rt)
		}
		l, lok := constTruth(e.Left.Value())
		r, rok := constTruth(e.Right.Value())
		if lok && rok {
			c.fold(e, func() (memory.ArithValue, error) {
				if e.Op == cabs.OpAnd {
					return memory.Truth(l && r), nil
				}
				return memory.Truth(l || r), nil
			})
		}
		return ctypes.Int()
	case (e.Op == cabs.OpAdd || e.Op == cabs.OpSub) && (lp || rp):
		switch {
		case lp && rp && e.Op == cabs.OpSub:
			le, re := lt.(ctypes.Tpointer).Elem, rt.(ctypes.Tpointer).Elem
			if !ctypes.Equal(ctypes.Unqualified(le), ctypes.Unqualified(re)) {
				c.errorf(e.At, "cannot subtract %s from %s", rt, lt)
			}
			c.pointerArithmetic(e.At, lt)
			return ctypes.Int()
		case lp && ctypes.IsIntegral(rt):
			c.pointerArithmetic(e.At, lt)
			return lt
		case rp && ctypes.IsIntegral(lt) && e.Op == cabs.OpAdd:
			c.pointerArithmetic(e.At, rt)
			return rt
		}
		c.errorf(e.At, "invalid operands to %s: %s and %s", e.Op, lt, rt)
	case e.Op.IsComparison() && (lp || rp):
		c.pointerComparison(e, lt, rt)
		return ctypes.Int()
	}

	if e.Op.IsShift() || e.Op.IsBitwise() {
		if !ctypes.IsIntegral(lt) || !ctypes.IsIntegral(rt) {
			c.errorf(e.At, "operands of %s must be integers, not %s and %s", e.Op, lt, rt)
		}
	} else if !ctypes.IsArithmetic(lt) || !ctypes.IsArithmetic(rt) {
		c.errorf(e.At, "invalid operands to %s: %s and %s", e.Op, lt, rt)
	}

	var result, convertRight ctypes.Type
	if e.Op.IsShift() {
		e.OpType = ctypes.Promote(lt)
		convertRight = ctypes.Promote(rt)
		result = e.OpType
	} else {
		e.OpType = ctypes.UsualArithmetic(lt, rt)
		convertRight = e.OpType
		result = e.OpType
		if e.Op.IsComparison() {
			result = ctypes.Int()
		}
	}
	lv, lok := constArith(e.Left)
	rv, rok := constArith(e.Right)
	if lok && rok {
		c.fold(e, func() (memory.ArithValue, error) {
			a, err := memory.Convert(lv, e.OpType)
			if err != nil {
				return a, err
			}
			b, err := memory.Convert(rv, convertRight)
			if err != nil {
				return b, err
			}
			return memory.Binary(e.Op.Arith(), a, b)
		})
	}
	return result
}

func (c *Checker) pointerComparison(e *cabs.Binary, lt, rt ctypes.Type) {
	lp, rp := ctypes.IsPointer(lt), ctypes.IsPointer(rt)
	equality := e.Op == cabs.OpEq || e.Op == cabs.OpNe
	switch {
	case lp && rp:
		le := ctypes.Unqualified(lt.(ctypes.Tpointer).Elem)
		re := ctypes.Unqualified(rt.(ctypes.Tpointer).Elem)
		if !ctypes.Equal(le, re) && !(equality && (ctypes.IsVoid(le) || ctypes.IsVoid(re))) {
			c.errorf(e.At, "comparison of distinct pointer types %s and %s", lt, rt)
		}
	case equality && lp && isNullConstant(e.Right), equality && rp && isNullConstant(e.Left):
	default:
		c.errorf(e.At, "invalid comparison of %s and %s", lt, rt)
	}
}

func (c *Checker) assign(e *cabs.Assign) ctypes.Type {
	opName := "="
	if e.Op != cabs.OpAssign {
		opName = e.Op.String() + "="
	}
	t := ctypes.Unqualified(c.expr(e.Target))
	c.modifiable(e.Target, opName)
	if e.Op == cabs.OpAssign {
		c.expr(e.Source)
		c.inferAlloc(e.Source, t)
		c.convertible(t, e.Source, "assignment")
		return t
	}
	st := c.rvalue(e.Source)
	switch {
	case ctypes.IsPointer(t) && (e.Op == cabs.OpAdd || e.Op == cabs.OpSub):
		if !ctypes.IsIntegral(st) {
			c.errorf(e.At, "invalid operands to %s: %s and %s", opName, t, st)
		}
		c.pointerArithmetic(e.At, t)
		return t
	case e.Op.IsShift() || e.Op.IsBitwise():
		if !ctypes.IsIntegral(t) || !ctypes.IsIntegral(st) {
			c.errorf(e.At, "operands of %s must be integers, not %s and %s", opName, t, st)
		}
	case !ctypes.IsArithmetic(t) || !ctypes.IsArithmetic(st):
		c.errorf(e.At, "invalid operands to %s: %s and %s", opName, t, st)
	}
	if e.Op.IsShift() {
		e.OpType = ctypes.Promote(t)
	} else {
		e.OpType = ctypes.UsualArithmetic(t, st)
	}
	return t
}

func (c *Checker) conditional(e *cabs.Conditional) ctypes.Type {
	c.condition(e.Cond)
	tt, et := c.rvalue(e.Then), c.rvalue(e.Else)
	var t ctypes.Type
	switch {
	case ctypes.IsArithmetic(tt) && ctypes.IsArithmetic(et):
		t = ctypes.UsualArithmetic(tt, et)
	case ctypes.IsVoid(tt) && ctypes.IsVoid(et):
		t = ctypes.Void()
	case ctypes.Equal(tt, et):
		t = tt
	case ctypes.IsPointer(tt) && isNullConstant(e.Else):
		t = tt
	case ctypes.IsPointer(et) && isNullConstant(e.Then):
		t = et
	case ctypes.IsPointer(tt) && ctypes.IsPointer(et):
		te, ee := tt.(ctypes.Tpointer).Elem, et.(ctypes.Tpointer).Elem
		switch {
		case ctypes.Equal(ctypes.Unqualified(te), ctypes.Unqualified(ee)):
			t = tt
			if ctypes.IsConst(ee) {
				t = et
			}
		case ctypes.IsVoid(te):
			t = tt
		case ctypes.IsVoid(ee):
			t = et
		}
	}
	if t == nil {
		c.errorf(e.At, "mismatched operand types in conditional: %s and %s", tt, et)
	}
	cond, cok := constTruth(e.Cond.Value())
	tv, tok := constArith(e.Then)
	ev, eok := constArith(e.Else)
	if cok && tok && eok {
		c.fold(e, func() (memory.ArithValue, error) {
			if cond {
				return memory.Convert(tv, t)
			}
			return memory.Convert(ev, t)
		})
	}
	return t
}

func (c *Checker) call(e *cabs.Call) ctypes.Type {
	ft := c.rvalue(e.Func)
	var fnType ctypes.Tfunction
	ok := false
	if p, isPtr := ft.(ctypes.Tpointer); isPtr {
		fnType, ok = ctypes.Unqualified(p.Elem).(ctypes.Tfunction)
	}
	if !ok {
		c.errorf(e.Func.Pos(), "called object of type %s is not a function", ft)
	}
	name := "the function"
	builtin := ""
	if id, isID := e.Func.(*cabs.Identifier); isID {
		name = id.Name
		if id.Ref == cabs.RefBuiltin {
			builtin = id.Name
		}
	}
	n := len(fnType.Params)
	if len(e.Args) < n || (len(e.Args) > n && !fnType.Variadic) {
		c.errorf(e.At, "%s expects %d argument%s, got %d", name, n, plural(n), len(e.Args))
	}
	for i, arg := range e.Args {
		t := c.expr(arg)
		if i < n {
			c.inferAlloc(arg, fnType.Params[i])
			c.convertible(fnType.Params[i], arg, fmt.Sprintf("argument %d of %s", i+1, name))
		} else if !ctypes.IsScalar(ctypes.Decayed(ctypes.Unqualified(t))) {
			c.errorf(arg.Pos(), "argument %d of %s must be a number or a pointer, not %s", i+1, name, t)
		}
	}
	switch {
	case builtin == "printf":
		c.formatCall(e, format.Printf)
	case builtin == "scanf":
		c.formatCall(e, format.Scanf)
	case isAllocator(builtin):
		e.AllocElem = ctypes.UChar()
	}
	return fnType.Return
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// formatCall checks the arguments of printf or scanf against its format
func (c *Checker) formatCall(e *cabs.Call, kind format.Kind) {
	lit, ok := e.Args[0].(*cabs.StringLiteral)
	if !ok {
		c.errorf(e.Args[0].Pos(), "the format of %s must be a string literal", kind)
	}
	pieces, err := format.Parse(kind, lit.Raw)
	if err != nil {
		c.errorf(lit.At, "invalid %s format: %s", kind, err)
	}
	dirs := format.Directives(pieces)
	args := e.Args[1:]
	if len(args) < len(dirs) {
		c.errorf(e.At, "the %s format needs %d argument%s, got %d", kind, len(dirs), plural(len(dirs)), len(args))
	}
	if len(args) > len(dirs) {
		c.errorf(args[len(dirs)].Pos(), "too many arguments for the %s format", kind)
	}
	for i, d := range dirs {
		arg := args[i]
		if kind == format.Printf {
			err = d.CheckPrintfArg(promoteArg(arg.Type()))
		} else {
			err = d.CheckScanfArg(arg.Type())
		}
		if err != nil {
			c.errorf(arg.Pos(), "%s", err)
		}
	}
}

// promoteArg applies the default argument promotions
func promoteArg(t ctypes.Type) ctypes.Type {
	u := ctypes.Decayed(ctypes.Unqualified(t))
	switch {
	case ctypes.IsFloating(u):
		return ctypes.Double()
	case ctypes.IsIntegral(u):
		return ctypes.Promote(u)
	}
	return u
}

// inferAlloc gives a malloc, calloc or realloc call the element type of the
// pointer its result is converted to.
func (c *Checker) inferAlloc(src cabs.Expr, target ctypes.Type) {
	call, ok := src.(*cabs.Call)
	if !ok {
		return
	}
	id, ok := call.Func.(*cabs.Identifier)
	if !ok || id.Ref != cabs.RefBuiltin || !isAllocator(id.Name) {
		return
	}
	p, ok := ctypes.Unqualified(target).(ctypes.Tpointer)
	if !ok || ctypes.IsVoid(p.Elem) {
		return
	}
	elem := ctypes.Unqualified(p.Elem)
	if ctypes.IsFunction(elem) || !ctypes.IsComplete(elem) {
		c.errorf(call.At, "cannot allocate %s: it has no size", elem)
	}
	call.AllocElem = elem
}

func (c *Checker) member(e *cabs.Member) ctypes.Type {
	bt := c.expr(e.Base)
	var s *ctypes.Tstruct
	var ok bool
	constBase := false
	if e.Arrow {
		var p ctypes.Tpointer
		p, ok = ctypes.Decayed(ctypes.Unqualified(bt)).(ctypes.Tpointer)
		if ok {
			s, ok = ctypes.AsStruct(p.Elem)
			constBase = ctypes.IsConst(p.Elem)
		}
		if !ok {
			c.errorf(e.At, "left side of -> has type %s, not a pointer to a struct", bt)
		}
	} else {
		s, ok = ctypes.AsStruct(bt)
		if !ok {
			c.errorf(e.At, "left side of . has type %s, not a struct", bt)
		}
		constBase = ctypes.IsConst(bt)
	}
	if !s.IsComplete() {
		c.errorf(e.At, "%s is incomplete", s)
	}
	m, ok := s.Member(e.Name)
	if !ok {
		c.errorf(e.NamePos, "%s has no member named '%s'%s", s, e.Name, didYouMean(e.Name, s.MemberNames()))
	}
	e.Resolved = m
	if constBase {
		return ctypes.Const(m.Type)
	}
	return m.Type
}

func (c *Checker) cast(e *cabs.Cast) ctypes.Type {
	to := ctypes.Unqualified(c.typeName(e.To))
	c.expr(e.Operand)
	from := ctypes.Decayed(ctypes.Unqualified(e.Operand.Type()))
	c.inferAlloc(e.Operand, to)
	switch {
	case ctypes.IsVoid(to):
	case ctypes.IsArithmetic(to) && ctypes.IsArithmetic(from):
		if v, ok := constArith(e.Operand); ok {
			c.fold(e, func() (memory.ArithValue, error) { return memory.Convert(v, to) })
		}
	case ctypes.IsPointer(to) && ctypes.IsPointer(from):
	case ctypes.IsPointer(to) && isNullConstant(e.Operand):
		e.SetValue(memory.Null)
	case ctypes.IsPointer(to) || ctypes.IsPointer(from):
		c.errorf(e.At, "cannot cast %s to %s: pointers and integers do not mix in this memory model", from, to)
	default:
		c.errorf(e.At, "cannot cast %s to %s", from, to)
	}
	return to
}

// typeName resolves the type written in a cast or sizeof. Array lengths
// inside it are folded even within sizeof.
func (c *Checker) typeName(tn *cabs.TypeName) ctypes.Type {
	depth := c.sizeofDepth
	c.sizeofDepth = 0
	defer func() { c.sizeofDepth = depth }()
	t := c.declaratorType(c.specType(tn.Specs), tn.Decl.Parts)
	tn.Resolved = t
	return t
}

func (c *Checker) sizeof(e cabs.Expr, t ctypes.Type) ctypes.Type {
	if ctypes.IsFunction(t) {
		c.errorf(e.Pos(), "sizeof cannot be applied to a function")
	}
	if !ctypes.IsComplete(t) {
		c.errorf(e.Pos(), "sizeof cannot be applied to incomplete type %s", t)
	}
	e.SetValue(memory.MakeInt(ctypes.UInt(), int64(ctypes.SizeOf(t))))
	return ctypes.UInt()
}

// convertible checks that src may be converted to type to as if by
// assignment, and that a constant source fits the target.
func (c *Checker) convertible(to ctypes.Type, src cabs.Expr, what string) {
	from := ctypes.Decayed(ctypes.Unqualified(src.Type()))
	to = ctypes.Unqualified(to)
	switch {
	case ctypes.IsArithmetic(to) && ctypes.IsArithmetic(from):
		if v, ok := constArith(src); ok && c.sizeofDepth == 0 {
			if _, err := memory.Convert(v, to); err != nil {
				c.errorf(src.Pos(), "%s: %s", what, err)
			}
		}
		return
	case ctypes.IsPointer(to) && isNullConstant(src):
		return
	case ctypes.IsPointer(to) && ctypes.IsPointer(from):
		te, fe := to.(ctypes.Tpointer).Elem, from.(ctypes.Tpointer).Elem
		if ctypes.IsConst(fe) && !ctypes.IsConst(te) {
			c.errorf(src.Pos(), "%s discards the const qualifier of %s", what, from)
		}
		tu, fu := ctypes.Unqualified(te), ctypes.Unqualified(fe)
		if ctypes.IsVoid(tu) || ctypes.IsVoid(fu) || ctypes.Equal(tu, fu) {
			return
		}
		c.errorf(src.Pos(), "%s: incompatible pointer types, expected %s but got %s", what, to, from)
	case ctypes.Equal(to, from):
		if _, ok := ctypes.AsStruct(to); ok {
			return
		}
	}
	c.errorf(src.Pos(), "%s: cannot convert %s to %s", what, from, to)
}
