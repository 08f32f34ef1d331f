package sema

import (
	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/memory"
)

// specType resolves a declaration-specifier list to its type
func (c *Checker) specType(specs *cabs.DeclSpecs) ctypes.Type {
	var t ctypes.Type
	switch {
	case specs.Struct != nil:
		t = c.structType(specs.Struct)
	case specs.Enum != nil:
		c.enumType(specs.Enum)
		t = ctypes.Int()
	case specs.TypedefName != "":
		sym := c.lookup(specs.TypedefName)
		if sym == nil || sym.Kind != Typedef {
			c.errorf(specs.At, "unknown type name '%s'", specs.TypedefName)
		}
		sym.use(specs.At)
		t = sym.Type.(ctypes.Ttypedef).Target
	default:
		var ok bool
		t, ok = cabs.PrimitiveType(cabs.SortPrimitive(specs.Primitive))
		if !ok {
			c.errorf(specs.At, "invalid combination of type specifiers")
		}
	}
	if specs.Const {
		t = ctypes.Const(t)
	}
	specs.Resolved = t
	return t
}

func (c *Checker) structType(spec *cabs.StructSpec) ctypes.Type {
	if !spec.Defines {
		if s := c.lookupStruct(spec.Name); s != nil {
			return s
		}
		s := ctypes.NewStruct(spec.Name)
		c.top().structs[spec.Name] = s
		return s
	}
	var s *ctypes.Tstruct
	if spec.Name != "" {
		if prev, ok := c.top().structs[spec.Name]; ok {
			if prev.IsComplete() {
				c.errorf(spec.At, "redefinition of struct %s", spec.Name)
			}
			s = prev
		}
	}
	if s == nil {
		s = ctypes.NewStruct(spec.Name)
		if spec.Name != "" {
			c.top().structs[spec.Name] = s
		}
	}
	seen := make(map[string]int)
	for _, member := range spec.Members {
		base := c.specType(member.Specs)
		for _, d := range member.Declarators {
			t := c.declaratorType(base, d.Parts)
			if ctypes.IsFunction(t) || !ctypes.IsComplete(t) {
				c.errorf(d.At, "member %s has incomplete type %s", d.Name, t)
			}
			if prev, dup := seen[d.Name]; dup {
				diag.Throw(diag.Errorf(d.At, "duplicate member %s", d.Name).WithSecondary(prev))
			}
			seen[d.Name] = d.At
			d.Type = t
			s.AddMember(d.Name, t)
		}
	}
	if len(s.Members) == 0 {
		c.errorf(spec.At, "%s has no members", s)
	}
	s.Seal()
	checkSize(spec.At, s)
	return s
}

func (c *Checker) enumType(spec *cabs.EnumSpec) {
	if !spec.Defines {
		if !c.lookupEnum(spec.Name) {
			c.errorf(spec.At, "unknown enum %s", spec.Name)
		}
		return
	}
	if spec.Name != "" {
		if prev, ok := c.top().enums[spec.Name]; ok {
			diag.Throw(diag.Errorf(spec.At, "redefinition of enum %s", spec.Name).WithSecondary(prev))
		}
		c.top().enums[spec.Name] = spec.At
	}
	next := int64(0)
	for _, en := range spec.Enumerators {
		if en.Value != nil {
			next = c.intConstant(en.Value, "an enumeration value").I
		}
		if !ctypes.Fits(ctypes.Int(), next) {
			c.errorf(en.At, "enumeration value %d does not fit in int", next)
		}
		en.Resolved = next
		c.declare(&Symbol{Name: en.Name, Kind: Constant, Type: ctypes.Int(), Value: memory.Int(next), Pos: en.At})
		next++
	}
}

// intConstant checks an integer constant expression
func (c *Checker) intConstant(e cabs.Expr, what string) memory.ArithValue {
	t := c.rvalue(e)
	if !ctypes.IsIntegral(t) {
		c.errorf(e.Pos(), "%s must be an integer, not %s", what, t)
	}
	v, ok := e.Value().(memory.ArithValue)
	if !ok {
		c.errorf(e.Pos(), "%s must be a constant expression", what)
	}
	return v
}

// declaratorType applies declarator parts to a base type
func (c *Checker) declaratorType(base ctypes.Type, parts []cabs.DeclPart) ctypes.Type {
	t := base
	for _, part := range parts {
		switch p := part.(type) {
		case cabs.PointerPart:
			t = ctypes.Pointer(t)
			if p.Const {
				t = ctypes.Const(t)
			}
		case cabs.ArrayPart:
			if ctypes.IsFunction(t) {
				c.errorf(p.At, "array of functions is not allowed; use an array of function pointers")
			}
			if !ctypes.IsComplete(t) {
				c.errorf(p.At, "array element has incomplete type %s", t)
			}
			n := -1
			if p.Length != nil {
				v := c.intConstant(p.Length, "an array length")
				if v.I <= 0 {
					c.errorf(p.Length.Pos(), "array length must be positive, not %d", v.I)
				}
				if v.I > maxCells {
					c.errorf(p.Length.Pos(), "array length %d is too large for this memory model", v.I)
				}
				n = int(v.I)
			}
			t = ctypes.Array(t, n)
			if n > 0 {
				checkSize(p.At, t)
			}
		case cabs.FunctionPart:
			if ctypes.IsArray(t) || ctypes.IsFunction(t) {
				c.errorf(p.At, "a function cannot return %s", t)
			}
			t = c.functionType(t, p)
		default:
			diag.Fail("unexpected declarator part %T", part)
		}
	}
	return t
}

func (c *Checker) functionType(ret ctypes.Type, part cabs.FunctionPart) ctypes.Tfunction {
	params := make([]ctypes.Type, 0, len(part.Params))
	for _, prm := range part.Params {
		t := c.declaratorType(c.specType(prm.Specs), prm.Decl.Parts)
		switch u := ctypes.Unqualified(t).(type) {
		case ctypes.Tarray:
			t = ctypes.Pointer(u.Elem)
		case ctypes.Tfunction:
			t = ctypes.Pointer(u)
		case ctypes.Tvoid:
			c.errorf(prm.Decl.At, "a parameter cannot have type void")
		}
		prm.Decl.Type = t
		params = append(params, t)
	}
	return ctypes.Tfunction{Params: params, Return: ctypes.Unqualified(ret), Variadic: part.Variadic}
}

// declaration checks a declaration at file scope or in a block
func (c *Checker) declaration(d *cabs.Declaration, fileScope bool) {
	base := c.specType(d.Specs)
	for _, nd := range d.Declarators {
		t := c.declaratorType(base, nd.Parts)
		nd.Type = t
		switch {
		case d.Specs.Storage == cabs.StorageTypedef:
			c.declare(&Symbol{Name: nd.Name, Kind: Typedef, Type: ctypes.Ttypedef{Name: nd.Name, Target: t}, Pos: nd.At})
		case ctypes.IsFunction(t):
			if nd.Init != nil {
				c.errorf(nd.At, "function %s cannot be initialized", nd.Name)
			}
			c.declareFunction(nd.Name, ctypes.Unqualified(t).(ctypes.Tfunction), nd.At)
		case d.Specs.Storage == cabs.StorageExtern:
			c.errorf(nd.At, "extern variables are not supported; define %s in this file instead", nd.Name)
		default:
			c.variable(nd, fileScope || d.Specs.Storage == cabs.StorageStatic, fileScope)
		}
	}
}

func (c *Checker) variable(nd *cabs.NamedDeclarator, static, fileScope bool) {
	if nd.Init != nil {
		nd.Type = c.initializer(nd.Type, nd.Init, static)
	}
	if ctypes.IsArray(nd.Type) && !ctypes.IsComplete(nd.Type) {
		c.errorf(nd.At, "array size missing in %s", nd.Name)
	}
	if !ctypes.IsComplete(nd.Type) {
		c.errorf(nd.At, "variable %s has incomplete type %s", nd.Name, nd.Type)
	}
	if static {
		name := nd.Name
		if c.fn != nil {
			name = c.fn.Name() + "." + name
		}
		nd.Offset = c.allocStatic(name, nd.Type)
	} else {
		nd.Offset = c.allocFrame(nd.Name, nd.Type)
	}
	sym := c.declare(&Symbol{Name: nd.Name, Kind: Variable, Type: nd.Type, Offset: nd.Offset, Pos: nd.At})
	if !fileScope {
		c.locals = append(c.locals, sym)
	}
	if static && nd.Init != nil {
		c.prog.StaticInits = append(c.prog.StaticInits, nd)
	}
}

func (c *Checker) functionDefinition(f *cabs.FunctionDefinition) {
	t := c.declaratorType(c.specType(f.Specs), f.Decl.Parts)
	ft, ok := ctypes.Unqualified(t).(ctypes.Tfunction)
	if !ok {
		diag.Fail("function definition %s has type %s", f.Name(), t)
	}
	f.Decl.Type = ft
	sym := c.declareFunction(f.Name(), ft, f.Decl.At)
	if sym.Defined {
		diag.Throw(diag.Errorf(f.Decl.At, "redefinition of %s", f.Name()).WithSecondary(sym.Pos))
	}
	sym.Defined = true
	sym.Pos = f.Decl.At
	if f.Name() == "main" && (!ctypes.Equal(ft.Return, ctypes.Int()) || len(ft.Params) > 0 || ft.Variadic) {
		c.errorf(f.Decl.At, "main must be declared as int main(void)")
	}
	if !ctypes.IsVoid(ft.Return) && !ctypes.IsComplete(ft.Return) {
		c.errorf(f.Decl.At, "%s returns incomplete type %s", f.Name(), ft.Return)
	}

	c.fn = f
	c.ret = ft.Return
	c.frame = ctypes.NewStruct(f.Name())
	c.frameNext = 0
	c.locals = nil
	c.loops, c.breakable = 0, 0
	c.switches = nil
	c.labels = make(map[string]int)
	c.gotos = nil

	// parameters share the scope of the outermost block
	c.openScope()
	part := f.Decl.Parts[len(f.Decl.Parts)-1].(cabs.FunctionPart)
	f.Params = nil
	for i, prm := range part.Params {
		d := prm.Decl
		if d.Name == "" {
			c.errorf(d.At, "parameter %d of %s has no name", i+1, f.Name())
		}
		if !ctypes.IsComplete(d.Type) {
			c.errorf(d.At, "parameter %s has incomplete type %s", d.Name, d.Type)
		}
		d.Offset = c.allocFrame(d.Name, d.Type)
		c.locals = append(c.locals, c.declare(&Symbol{Name: d.Name, Kind: Variable, Type: d.Type, Offset: d.Offset, Pos: d.At}))
		f.Params = append(f.Params, d)
	}
	c.blockItems(f.Body)
	c.closeScope()

	for _, g := range c.gotos {
		if _, ok := c.labels[g.Label]; !ok {
			names := make([]string, 0, len(c.labels))
			for name := range c.labels {
				names = append(names, name)
			}
			c.errorf(g.At, "label %s used but not defined%s", g.Label, didYouMean(g.Label, names))
		}
	}
	c.frame.Seal()
	f.FrameType = c.frame
	c.prog.Functions[f.Name()] = f
	c.prog.Locals[f.Name()] = c.locals
	c.fn = nil
}

// initializer checks init against t and returns t, completed with the
// array length the initializer implies when t is an incomplete array.
// Static storage only accepts constants.
func (c *Checker) initializer(t ctypes.Type, init cabs.Initializer, static bool) ctypes.Type {
	switch in := init.(type) {
	case *cabs.ExprInit:
		if arr, ok := ctypes.Unqualified(t).(ctypes.Tarray); ok {
			lit, isLit := in.X.(*cabs.StringLiteral)
			if !isLit || !isCharType(arr.Elem) {
				c.errorf(in.Pos(), "an array must be initialized with a braced list")
			}
			c.expr(lit)
			if arr.Length < 0 {
				return ctypes.Array(arr.Elem, len(lit.Raw)+1)
			}
			if len(lit.Raw) > arr.Length {
				c.errorf(in.Pos(), "initializer string of length %d is too long for %s", len(lit.Raw), t)
			}
			return t
		}
		c.expr(in.X)
		c.inferAlloc(in.X, t)
		c.convertible(t, in.X, "initialization")
		if static && !isStaticConstant(in.X) {
			c.errorf(in.Pos(), "initializer of a static variable must be a constant expression")
		}
		return t
	case *cabs.ListInit:
		switch u := ctypes.Unqualified(t).(type) {
		case ctypes.Tarray:
			if u.Length >= 0 && len(in.Items) > u.Length {
				c.errorf(in.Items[u.Length].Pos(), "too many initializers for %s", t)
			}
			for _, item := range in.Items {
				c.element(u.Elem, item, static)
			}
			if u.Length < 0 {
				if len(in.Items) == 0 {
					c.errorf(in.Pos(), "an array of unknown size needs at least one initializer")
				}
				return ctypes.Array(u.Elem, len(in.Items))
			}
			return t
		case *ctypes.Tstruct:
			if len(in.Items) > len(u.Members) {
				c.errorf(in.Items[len(u.Members)].Pos(), "too many initializers for %s", t)
			}
			for i, item := range in.Items {
				c.element(u.Members[i].Type, item, static)
			}
			return t
		}
		if len(in.Items) != 1 {
			c.errorf(in.Pos(), "a scalar initializer must have exactly one element")
		}
		return c.initializer(t, in.Items[0], static)
	}
	diag.Fail("unexpected initializer %T", init)
	return nil
}

// element checks one item of a braced list. Aggregates nested in a list
// need their own braces, except a char array initialized by a string.
func (c *Checker) element(t ctypes.Type, item cabs.Initializer, static bool) {
	if in, ok := item.(*cabs.ExprInit); ok {
		switch u := ctypes.Unqualified(t).(type) {
		case ctypes.Tarray:
			if _, isLit := in.X.(*cabs.StringLiteral); !isLit || !isCharType(u.Elem) {
				c.errorf(item.Pos(), "missing braces around the initializer for %s", t)
			}
		case *ctypes.Tstruct:
			if static {
				c.errorf(item.Pos(), "missing braces around the initializer for %s", t)
			}
		}
	}
	c.initializer(t, item, static)
}

func isCharType(t ctypes.Type) bool {
	u := ctypes.Unqualified(t)
	return ctypes.Equal(u, ctypes.Char()) || ctypes.Equal(u, ctypes.UChar())
}

// isStaticConstant reports whether x can be evaluated before main runs:
// a folded constant, a string literal, a function or the address of a
// static object.
func isStaticConstant(x cabs.Expr) bool {
	if x.Value() != nil {
		return true
	}
	switch e := x.(type) {
	case *cabs.StringLiteral:
		return true
	case *cabs.Identifier:
		return e.Ref == cabs.RefFunction || e.Ref == cabs.RefBuiltin
	case *cabs.Cast:
		return isStaticConstant(e.Operand)
	case *cabs.Unary:
		if e.Op == cabs.OpAddrOf {
			return isStaticLocation(e.Operand)
		}
	}
	return false
}

func isStaticLocation(x cabs.Expr) bool {
	switch e := x.(type) {
	case *cabs.Identifier:
		return e.Ref == cabs.RefFunction || e.Ref == cabs.RefVariable && e.Offset < 0
	case *cabs.Member:
		return !e.Arrow && isStaticLocation(e.Base)
	case *cabs.Index:
		return isStaticLocation(e.Array) && e.Index.Value() != nil
	case *cabs.StringLiteral:
		return true
	}
	return false
}
