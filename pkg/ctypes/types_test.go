package ctypes

import "testing"

func TestTypeConstructors(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		wantStr string
	}{
		{"void", Void(), "void"},
		{"int", Int(), "int"},
		{"unsigned int", UInt(), "unsigned int"},
		{"char", Char(), "char"},
		{"unsigned char", UChar(), "unsigned char"},
		{"short", Short(), "short"},
		{"long", Long(), "long"},
		{"float", Float(), "float"},
		{"double", Double(), "double"},
		{"pointer to int", Pointer(Int()), "int *"},
		{"pointer to void", Pointer(Void()), "void *"},
		{"array of int", Array(Int(), 10), "int[10]"},
		{"const char", Const(Char()), "const char"},
		{"function", Tfunction{Params: []Type{Int()}, Return: Int()}, "int(int)"},
		{"function pointer", Pointer(Tfunction{Return: Void()}), "void(*)(void)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestTypeEquality(t *testing.T) {
	a := NewStruct("A")
	b := NewStruct("A")
	tests := []struct {
		name  string
		a, b  Type
		equal bool
	}{
		{"int == int", Int(), Int(), true},
		{"int != unsigned int", Int(), UInt(), false},
		{"int != long", Int(), Long(), false},
		{"int != void", Int(), Void(), false},
		{"void == void", Void(), Void(), true},
		{"pointer to int == pointer to int", Pointer(Int()), Pointer(Int()), true},
		{"pointer to int != pointer to char", Pointer(Int()), Pointer(Char()), false},
		{"array[10] of int == array[10] of int", Array(Int(), 10), Array(Int(), 10), true},
		{"array[10] of int != array[20] of int", Array(Int(), 10), Array(Int(), 20), false},
		{"struct identity", a, a, true},
		{"same tag different declaration", a, b, false},
		{"const int != int", Const(Int()), Int(), false},
		{"nil == nil", nil, nil, true},
		{"nil != int", nil, Int(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.equal {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestRanks(t *testing.T) {
	ordered := []Type{Char(), UChar(), Short(), UShort(), Int(), UInt(), Long(), ULong(), Float(), Double()}
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i, typ := range ordered {
		if got := Rank(typ); got != want[i] {
			t.Errorf("Rank(%s) = %d, want %d", typ, got, want[i])
		}
	}
}

func TestUsualArithmeticConversions(t *testing.T) {
	tests := []struct {
		a, b Type
		want Type
	}{
		{Char(), Char(), Int()},
		{UShort(), Char(), Int()},
		{Int(), UInt(), UInt()},
		{Long(), UInt(), ULong()},
		{Int(), Double(), Double()},
		{Float(), Long(), Float()},
		{Const(Int()), Short(), Int()},
	}
	for _, tt := range tests {
		if got := UsualArithmetic(tt.a, tt.b); !Equal(got, tt.want) {
			t.Errorf("UsualArithmetic(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLayout(t *testing.T) {
	point := NewStruct("point")
	point.AddMember("x", Int())
	point.AddMember("y", Double())
	point.AddMember("tag", Array(Char(), 3))
	point.Seal()

	if got := SizeOf(point); got != 4+8+3 {
		t.Errorf("sizeof(struct point) = %d, want 15", got)
	}
	if got := Count(point); got != 5 {
		t.Errorf("cells(struct point) = %d, want 5", got)
	}
	m, ok := point.Member("tag")
	if !ok || m.Offset != 2 {
		t.Errorf("tag member = %+v, %v; want offset 2", m, ok)
	}

	for _, elem := range []Type{Char(), Int(), Double(), point, Array(Short(), 4)} {
		for _, n := range []int{1, 2, 7} {
			arr := Array(elem, n)
			if SizeOf(arr) != n*SizeOf(elem) {
				t.Errorf("sizeof(%s) = %d, want %d", arr, SizeOf(arr), n*SizeOf(elem))
			}
			if Count(arr) != n*Count(elem) {
				t.Errorf("cells(%s) = %d, want %d", arr, Count(arr), n*Count(elem))
			}
		}
	}
}

func TestIncompleteStructSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for sizeof an incomplete struct")
		}
	}()
	SizeOf(NewStruct("node"))
}

func TestDecayAndQualifiers(t *testing.T) {
	if got := Decayed(Array(Int(), 3)); !Equal(got, Pointer(Int())) {
		t.Errorf("Decayed(int[3]) = %s", got)
	}
	fn := Tfunction{Return: Int()}
	if got := Decayed(fn); !Equal(got, Pointer(fn)) {
		t.Errorf("Decayed(fn) = %s", got)
	}
	if got := Unqualified(Const(Int())); !Equal(got, Int()) {
		t.Errorf("Unqualified(const int) = %s", got)
	}
	if !IsConst(Const(Const(Int()))) {
		t.Error("double const lost qualifier")
	}
}

func TestIntegerRanges(t *testing.T) {
	tests := []struct {
		typ      Type
		min, max int64
	}{
		{Char(), -128, 127},
		{UChar(), 0, 255},
		{Short(), -32768, 32767},
		{UShort(), 0, 65535},
		{Int(), -2147483648, 2147483647},
		{UInt(), 0, 4294967295},
		{Long(), -2147483648, 2147483647},
	}
	for _, tt := range tests {
		if MinValue(tt.typ) != tt.min || MaxValue(tt.typ) != tt.max {
			t.Errorf("%s range = [%d,%d], want [%d,%d]", tt.typ, MinValue(tt.typ), MaxValue(tt.typ), tt.min, tt.max)
		}
	}
}

func TestFlatten(t *testing.T) {
	s := NewStruct("s")
	s.AddMember("a", Char())
	s.AddMember("b", Array(Pointer(Int()), 2))
	s.Seal()
	cells := Flatten(Array(s, 2))
	if len(cells) != 6 {
		t.Fatalf("got %d cells, want 6", len(cells))
	}
	if !Equal(cells[3], Char()) || !Equal(cells[5], Pointer(Int())) {
		t.Errorf("unexpected cell types %v", cells)
	}
}
