package sema

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/memory"
	"github.com/raymyers/stepc/pkg/parser"
	"gopkg.in/yaml.v3"
)

// TestSpec represents a test case from sema.yaml
type TestSpec struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
	Error string `yaml:"error"`
}

// TestFile represents the sema.yaml file structure
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func check(t *testing.T, src string) *Program {
	t.Helper()
	ast, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, err := Check(ast)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	return prog
}

func checkError(t *testing.T, src string) *diag.Diagnostic {
	t.Helper()
	ast, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Check(ast)
	if err == nil {
		t.Fatalf("expected a diagnostic for %q", src)
	}
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("expected *diag.Diagnostic, got %T: %v", err, err)
	}
	return d
}

func TestRejectedPrograms(t *testing.T) {
	data, err := os.ReadFile("../../testdata/sema.yaml")
	if err != nil {
		t.Fatalf("failed to read sema.yaml: %v", err)
	}
	var testFile TestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse sema.yaml: %v", err)
	}
	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			d := checkError(t, tc.Input)
			if !strings.Contains(d.Msg, tc.Error) {
				t.Errorf("diagnostic %q does not contain %q", d.Msg, tc.Error)
			}
		})
	}
}

func TestDiagnosticPositions(t *testing.T) {
	tests := []struct {
		src       string
		at        string
		secondary string
	}{
		{"int main(void) { return cout; }", "cout", ""},
		{"int main(void) { int x; int x; return 0; }", "x; return", "x; int"},
		{"int main(void) { int n = 0; switch (n) { case 1: case 1: ; } return 0; }", "case 1: ;", "case 1: case"},
		{"int f(int); int main(void) { return f(2); }", "f(2)", "f(int)"},
	}
	for _, tt := range tests {
		d := checkError(t, tt.src)
		if want := strings.Index(tt.src, tt.at); d.Pos != want {
			t.Errorf("%q: position %d, want %d (%s)", tt.src, d.Pos, want, d.Msg)
		}
		if tt.secondary == "" {
			if d.HasSecondary() {
				t.Errorf("%q: unexpected secondary position %d", tt.src, d.Secondary)
			}
			continue
		}
		if want := strings.Index(tt.src, tt.secondary); d.Secondary != want {
			t.Errorf("%q: secondary %d, want %d", tt.src, d.Secondary, want)
		}
	}
}

func TestStaticLayout(t *testing.T) {
	prog := check(t, "int a; char b[3]; int main(void) { static int n; return n; }")
	if prog.StaticCells != 5 {
		t.Fatalf("StaticCells = %d, want 5", prog.StaticCells)
	}
	want := []ctypes.Member{
		{Name: "main.n", Type: ctypes.Int(), Offset: 0},
		{Name: "b", Type: ctypes.Array(ctypes.Char(), 3), Offset: 1},
		{Name: "a", Type: ctypes.Int(), Offset: 4},
	}
	if !reflect.DeepEqual(prog.Statics.Members, want) {
		t.Errorf("statics = %+v, want %+v", prog.Statics.Members, want)
	}
	a, ok := prog.Globals.Lookup("a")
	if !ok || a.Kind != Variable {
		t.Fatalf("a not found in globals: %+v", a)
	}
	decl := prog.AST.Definitions[0].(*cabs.Declaration).Declarators[0]
	if decl.Offset != -1 || prog.StaticIndex(decl.Offset) != 4 {
		t.Errorf("a: offset %d index %d, want -1 and 4", decl.Offset, prog.StaticIndex(decl.Offset))
	}
}

func TestFrameLayout(t *testing.T) {
	prog := check(t, "int f(int x, int y) { int a[2]; { int b; } int c; return x + y + a[0] + c; }")
	f, ok := prog.Function("f")
	if !ok {
		t.Fatal("f not defined")
	}
	offsets := map[string]int{}
	for _, sym := range prog.Locals["f"] {
		offsets[sym.Name] = sym.Offset
	}
	want := map[string]int{"x": 0, "y": 1, "a": 2, "b": 4, "c": 5}
	if !reflect.DeepEqual(offsets, want) {
		t.Errorf("offsets = %v, want %v", offsets, want)
	}
	if got := ctypes.Count(f.FrameType); got != 6 {
		t.Errorf("frame has %d cells, want 6", got)
	}
	if len(f.Params) != 2 || f.Params[1].Name != "y" {
		t.Errorf("params = %+v", f.Params)
	}
}

// exprStmt checks src as the only expression statement of main
func exprStmt(t *testing.T, decls, src string) cabs.Expr {
	t.Helper()
	prog := check(t, decls+" int main(void) { "+src+"; return 0; }")
	main, _ := prog.Function("main")
	return main.Body.Items[0].(*cabs.ExprStmt).X
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		src  string
		typ  ctypes.Type
		want int64
	}{
		{"1 + 2 * 3", ctypes.Int(), 7},
		{"7 / 2", ctypes.Int(), 3},
		{"-7 % 3", ctypes.Int(), -1},
		{"1 << 4", ctypes.Int(), 16},
		{"'a'", ctypes.Int(), 97},
		{"!0", ctypes.Int(), 1},
		{"~0", ctypes.Int(), -1},
		{"1 ? 2 : 3", ctypes.Int(), 2},
		{"3 > 2 && 0", ctypes.Int(), 0},
		{"-1 + 0u", ctypes.UInt(), 4294967295},
		{"sizeof(double)", ctypes.UInt(), 8},
		{"sizeof(int[3])", ctypes.UInt(), 12},
		{"(char)65", ctypes.Char(), 65},
		{"(unsigned char)-1", ctypes.UChar(), 255},
		{"0x7fffffff", ctypes.Int(), 2147483647},
		{"0xffffffff", ctypes.UInt(), 4294967295},
		{"10L", ctypes.Long(), 10},
		{"RAND_MAX", ctypes.Int(), RandMax},
		{"EOF", ctypes.Int(), -1},
	}
	for _, tt := range tests {
		e := exprStmt(t, "", tt.src)
		v, ok := e.Value().(memory.ArithValue)
		if !ok {
			t.Errorf("%s: not folded (value %v)", tt.src, e.Value())
			continue
		}
		if !ctypes.Equal(v.Type, tt.typ) || v.I != tt.want {
			t.Errorf("%s = %s %d, want %s %d", tt.src, v.Type, v.I, tt.typ, tt.want)
		}
	}
}

func TestFloatFolding(t *testing.T) {
	e := exprStmt(t, "", "2.5 * 2")
	v, ok := e.Value().(memory.ArithValue)
	if !ok || !ctypes.Equal(v.Type, ctypes.Double()) || v.F != 5 {
		t.Errorf("2.5 * 2 = %v", e.Value())
	}
}

func TestNoFoldingOfVariables(t *testing.T) {
	e := exprStmt(t, "int x;", "x + 1")
	if e.Value() != nil {
		t.Errorf("x + 1 folded to %v", e.Value())
	}
	if !ctypes.Equal(e.Type(), ctypes.Int()) {
		t.Errorf("type %s, want int", e.Type())
	}
}

func TestSizeofDoesNotEvaluate(t *testing.T) {
	// the operand would trap if it were folded
	e := exprStmt(t, "", "sizeof(1 / 0)")
	v, ok := e.Value().(memory.ArithValue)
	if !ok || v.I != 4 {
		t.Errorf("sizeof(1 / 0) = %v, want 4", e.Value())
	}
}

func TestOperationTypes(t *testing.T) {
	tests := []struct {
		decls  string
		src    string
		opType ctypes.Type
		typ    ctypes.Type
	}{
		{"char c; short s;", "c + s", ctypes.Int(), ctypes.Int()},
		{"unsigned u; int i;", "u < i", ctypes.UInt(), ctypes.Int()},
		{"long l; unsigned u;", "l + u", ctypes.ULong(), ctypes.ULong()},
		{"float f; int i;", "f * i", ctypes.Float(), ctypes.Float()},
		{"char c; long l;", "c << l", ctypes.Int(), ctypes.Int()},
		{"double d; float f;", "d == f", ctypes.Double(), ctypes.Int()},
	}
	for _, tt := range tests {
		e := exprStmt(t, tt.decls, tt.src).(*cabs.Binary)
		if !ctypes.Equal(e.OpType, tt.opType) || !ctypes.Equal(e.Type(), tt.typ) {
			t.Errorf("%s: op %s type %s, want op %s type %s", tt.src, e.OpType, e.Type(), tt.opType, tt.typ)
		}
	}
}

func TestPointerArithmeticTypes(t *testing.T) {
	e := exprStmt(t, "int a[4]; int *p;", "p - a").(*cabs.Binary)
	if e.OpType != nil || !ctypes.Equal(e.Type(), ctypes.Int()) {
		t.Errorf("p - a: op %v type %s", e.OpType, e.Type())
	}
	e = exprStmt(t, "int a[4];", "a + 1").(*cabs.Binary)
	if !ctypes.Equal(e.Type(), ctypes.Pointer(ctypes.Int())) {
		t.Errorf("a + 1: type %s", e.Type())
	}
}

func TestAllocElem(t *testing.T) {
	prog := check(t, `
struct node { int v; struct node *next; };
int main(void) {
	int *p = malloc(4 * sizeof(int));
	char *s;
	s = malloc(3);
	void *v = malloc(2);
	struct node *n = (struct node *)calloc(1, sizeof(struct node));
	free(p); free(s); free(v); free(n);
	return 0;
}`)
	main, _ := prog.Function("main")
	items := main.Body.Items
	initCall := func(i int) *cabs.Call {
		d := items[i].(*cabs.DeclStmt).Decl.Declarators[0]
		x := d.Init.(*cabs.ExprInit).X
		if c, ok := x.(*cabs.Cast); ok {
			x = c.Operand
		}
		return x.(*cabs.Call)
	}
	assigned := items[2].(*cabs.ExprStmt).X.(*cabs.Assign).Source.(*cabs.Call)
	node, _ := prog.AST.Definitions[0].(*cabs.Declaration).Specs.Resolved.(*ctypes.Tstruct)

	tests := []struct {
		name string
		call *cabs.Call
		want ctypes.Type
	}{
		{"init", initCall(0), ctypes.Int()},
		{"assign", assigned, ctypes.Char()},
		{"void", initCall(3), ctypes.UChar()},
		{"cast", initCall(4), node},
	}
	for _, tt := range tests {
		if !ctypes.Equal(tt.call.AllocElem, tt.want) {
			t.Errorf("%s: AllocElem = %v, want %v", tt.name, tt.call.AllocElem, tt.want)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	prog := check(t, `int main(void) { printf("hi\n"); printf("%d\n", 1); printf("hi\n"); return 0; }`)
	if want := "hi\n\x00%d\n\x00"; prog.Literals != want {
		t.Errorf("literals = %q, want %q", prog.Literals, want)
	}
	main, _ := prog.Function("main")
	third := main.Body.Items[2].(*cabs.ExprStmt).X.(*cabs.Call).Args[0].(*cabs.StringLiteral)
	if third.Offset != 0 {
		t.Errorf("duplicate literal at offset %d, want 0", third.Offset)
	}
}

func TestCaseValues(t *testing.T) {
	prog := check(t, `int main(void) { char c = 'a'; switch (c) { case 'a': return 1; case 98: return 2; } return 0; }`)
	main, _ := prog.Function("main")
	sw := main.Body.Items[1].(*cabs.Switch)
	var got []int64
	for _, item := range sw.Body.(*cabs.Block).Items {
		got = append(got, item.(*cabs.Case).Resolved)
	}
	if !reflect.DeepEqual(got, []int64{97, 98}) {
		t.Errorf("case values = %v", got)
	}
}

func TestInitializerCompletesArrays(t *testing.T) {
	prog := check(t, `char s[] = "abc"; int v[] = {1, 2, 3, 4}; int m[2][2] = {{1, 2}, {3, 4}};`)
	tests := map[string]ctypes.Type{
		"s": ctypes.Array(ctypes.Char(), 4),
		"v": ctypes.Array(ctypes.Int(), 4),
		"m": ctypes.Array(ctypes.Array(ctypes.Int(), 2), 2),
	}
	for name, want := range tests {
		sym, ok := prog.Globals.Lookup(name)
		if !ok || !ctypes.Equal(sym.Type, want) {
			t.Errorf("%s: %v, want %s", name, sym.Type, want)
		}
	}
	if len(prog.StaticInits) != 3 {
		t.Errorf("%d static initializers, want 3", len(prog.StaticInits))
	}
}

func TestSnapshot(t *testing.T) {
	prog := check(t, "int counter; int main(void) { return counter; }")
	if got := prog.Globals.Complete("str"); !reflect.DeepEqual(got, []string{"strcat", "strcmp", "strcpy", "strlen"}) {
		t.Errorf("Complete(str) = %v", got)
	}
	if got := prog.Globals.Complete("cou"); !reflect.DeepEqual(got, []string{"counter"}) {
		t.Errorf("Complete(cou) = %v", got)
	}
	main, ok := prog.Globals.Lookup("main")
	if !ok || main.Kind != Function {
		t.Errorf("main: %+v", main)
	}
	null, ok := prog.Globals.Lookup("NULL")
	if !ok || null.Kind != Constant {
		t.Errorf("NULL: %+v", null)
	}
	if _, ok := prog.Globals.Lookup("nothing"); ok {
		t.Error("found an undeclared name")
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"lenght", []string{"length", "width"}, "length"},
		{"x", []string{"y", "z"}, "y"},
		{"total", []string{"printf", "malloc"}, ""},
		{"same", []string{"same"}, ""},
	}
	for _, tt := range tests {
		if got := suggest(tt.name, tt.candidates); got != tt.want {
			t.Errorf("suggest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCheckersAreIndependent(t *testing.T) {
	src := "int a; int b; int main(void) { return a + b; }"
	first := check(t, src)
	second := check(t, src)
	if first.StaticCells != second.StaticCells || first.Statics == second.Statics {
		t.Error("checkers share static layout state")
	}
}
