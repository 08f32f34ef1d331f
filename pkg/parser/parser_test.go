package parser

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/raymyers/stepc/pkg/cabs"
	"github.com/raymyers/stepc/pkg/diag"
	"gopkg.in/yaml.v3"
)

// TestSpec represents a test case from parse.yaml
type TestSpec struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// TestFile represents the parse.yaml file structure
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/parse.yaml")
	if err != nil {
		t.Fatalf("failed to read parse.yaml: %v", err)
	}

	var testFile TestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse parse.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			prog, err := Parse(tc.Input)
			if err != nil {
				t.Fatalf("parser error: %v", err)
			}
			var buf bytes.Buffer
			cabs.NewPrinter(&buf).PrintProgram(prog)
			got := strings.TrimSpace(buf.String())
			want := strings.TrimSpace(tc.Output)
			if got != want {
				t.Errorf("printed AST mismatch\n--- want\n%s\n--- got\n%s", want, got)
			}
		})
	}
}

// parseExpr parses src as the single expression statement of a function
func parseExpr(t *testing.T, src string) cabs.Expr {
	t.Helper()
	prog, err := Parse("void f(void) { " + src + "; }")
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	body := prog.Definitions[0].(*cabs.FunctionDefinition).Body
	stmt, ok := body.Items[0].(*cabs.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", body.Items[0])
	}
	return stmt.X
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "1 + (2 * 3)"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"a - b - c", "(a - b) - c"},
		{"a = b = c", "a = (b = c)"},
		{"a ? b : c ? d : e", "a ? b : (c ? d : e)"},
		{"a || b && c", "a || (b && c)"},
		{"a | b ^ c & d", "a | (b ^ (c & d))"},
		{"a < b == c < d", "(a < b) == (c < d)"},
		{"x += y << 2", "x += (y << 2)"},
		{"-a[1]", "-a[1]"},
		{"*p++", "*(p++)"},
		{"&s.x", "&s.x"},
		{"p->next->val", "p->next->val"},
		{"f(a, b)(c)", "f(a, b)(c)"},
		{"(int)x + 1", "((int)x) + 1"},
		{"(char *)p", "(char *)p"},
		{"sizeof(int) * 2", "sizeof(int) * 2"},
		{"sizeof x + 1", "(sizeof x) + 1"},
		{"~x & 0xff", "(~x) & 0xff"},
		{"i++ + ++j", "(i++) + (++j)"},
		{"a, b = c", "a, b = c"},
		{`"ab" "cd"`, `"abcd"`},
		{"c == 'x'", "c == 'x'"},
	}

	for i, tt := range tests {
		got := cabs.ExprString(parseExpr(t, tt.input))
		if got != tt.expected {
			t.Errorf("tests[%d] - %q: expected=%q, got=%q", i, tt.input, tt.expected, got)
		}
	}
}

func TestCommaBindsLoosest(t *testing.T) {
	x := parseExpr(t, "a = 1, b = 2")
	comma, ok := x.(*cabs.Comma)
	if !ok {
		t.Fatalf("expected Comma, got %T", x)
	}
	if _, ok := comma.Left.(*cabs.Assign); !ok {
		t.Errorf("left operand: expected Assign, got %T", comma.Left)
	}
	if _, ok := comma.Right.(*cabs.Assign); !ok {
		t.Errorf("right operand: expected Assign, got %T", comma.Right)
	}
}

func TestDeclaratorParts(t *testing.T) {
	prog, err := Parse("char *(*table[4])(void);")
	if err != nil {
		t.Fatal(err)
	}
	d := prog.Definitions[0].(*cabs.Declaration).Declarators[0]
	if d.Name != "table" {
		t.Errorf("name = %q", d.Name)
	}
	// char -> pointer -> function -> pointer -> array 4
	kinds := []string{}
	for _, part := range d.Parts {
		switch part.(type) {
		case cabs.PointerPart:
			kinds = append(kinds, "ptr")
		case cabs.ArrayPart:
			kinds = append(kinds, "array")
		case cabs.FunctionPart:
			kinds = append(kinds, "func")
		}
	}
	if got := strings.Join(kinds, " "); got != "ptr func ptr array" {
		t.Errorf("parts = %s", got)
	}
}

func TestTypedefAmbiguity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		decl bool
	}{
		{"typedef makes a declaration", "typedef int T; void f(void) { T * x; }", true},
		{"variable makes a multiplication", "int T, x; void f(void) { T * x; }", false},
		{"inner variable shadows typedef", "typedef int T; void f(void) { int T; T * x; }", false},
		{"shadow ends with its block", "typedef int T; void f(void) { { int T; } T * x; }", true},
		{"parameter shadows typedef", "typedef int T; void f(int T) { T * x; }", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			fn := prog.Definitions[len(prog.Definitions)-1].(*cabs.FunctionDefinition)
			last := fn.Body.Items[len(fn.Body.Items)-1]
			_, isDecl := last.(*cabs.DeclStmt)
			if isDecl != tt.decl {
				t.Errorf("got %T, want declaration=%v", last, tt.decl)
			}
		})
	}
}

func TestFunctionDefinition(t *testing.T) {
	prog, err := Parse("static int add(int a, int b) { return a + b; }")
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := prog.Definitions[0].(*cabs.FunctionDefinition)
	if !ok {
		t.Fatalf("expected FunctionDefinition, got %T", prog.Definitions[0])
	}
	if fn.Name() != "add" {
		t.Errorf("expected name 'add', got %q", fn.Name())
	}
	if fn.Specs.Storage != cabs.StorageStatic {
		t.Errorf("expected static storage, got %v", fn.Specs.Storage)
	}
	params := fn.Decl.Parts[0].(cabs.FunctionPart).Params
	if len(params) != 2 || params[0].Decl.Name != "a" || params[1].Decl.Name != "b" {
		t.Errorf("unexpected parameters %+v", params)
	}
	if fn.Body.End != strings.LastIndex("static int add(int a, int b) { return a + b; }", "}") {
		t.Errorf("closing brace position = %d", fn.Body.End)
	}
}

func TestVariadicPrototype(t *testing.T) {
	prog, err := Parse("int printf(const char *fmt, ...);")
	if err != nil {
		t.Fatal(err)
	}
	d := prog.Definitions[0].(*cabs.Declaration).Declarators[0]
	fn := d.Parts[len(d.Parts)-1].(cabs.FunctionPart)
	if !fn.Variadic || len(fn.Params) != 1 || !fn.Params[0].Specs.Const {
		t.Errorf("unexpected prototype %+v", fn)
	}
}

func TestPositions(t *testing.T) {
	src := "void f(void) { a = b + c; }"
	prog, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	stmt := prog.Definitions[0].(*cabs.FunctionDefinition).Body.Items[0].(*cabs.ExprStmt)
	assign := stmt.X.(*cabs.Assign)
	if assign.Pos() != strings.Index(src, "=") {
		t.Errorf("assignment position = %d", assign.Pos())
	}
	sum := assign.Source.(*cabs.Binary)
	if sum.Pos() != strings.Index(src, "+") {
		t.Errorf("binary position = %d", sum.Pos())
	}
	if assign.Target.Pos() != strings.Index(src, "a =") {
		t.Errorf("identifier position = %d", assign.Target.Pos())
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
		at  string // the error points at the first occurrence of this text
	}{
		{"int main(void) { return 1 }", "expected ';', got '}'", "}"},
		{"int main(void) { int x = ; }", "expected an expression, got ';'", ";"},
		{"union U { int a; };", "union is not supported", "union"},
		{"int main(void) { return (int){1}; }", "compound literal is not supported", "{1"},
		{"unsigned float x;", "invalid combination of type specifiers", "unsigned"},
		{"int long long x;", "invalid combination of type specifiers", "int"},
		{"int;", "declaration does not declare anything", ";"},
		{"static typedef int T;", "multiple storage classes", "typedef"},
		{"int f(...);", "named parameter before '...'", "..."},
		{"x = 1;", "expected a declaration, got identifier 'x'", "x"},
		{"struct S { int a = 1; };", "struct members cannot have initializers", "="},
		{"int f(void) { if (1) int y; }", "a declaration is not allowed here", "int y"},
		{"int main(void) { return 0;", "expected '}', got end of input", ""},
		{"int x = 08;", "digit 8 is not allowed in an octal literal", "8"},
		{"int main(void) { return @; }", "illegal character", "@"},
		{"typedef int T; int f(void) { return T; }", "unexpected type name 'T' in expression", "T; }"},
	}

	for i, tt := range tests {
		_, err := Parse(tt.src)
		var d *diag.Diagnostic
		if !errors.As(err, &d) {
			t.Errorf("tests[%d] - %q: expected a diagnostic, got %v", i, tt.src, err)
			continue
		}
		if !strings.Contains(d.Msg, tt.msg) {
			t.Errorf("tests[%d] - message wrong. expected=%q, got=%q", i, tt.msg, d.Msg)
		}
		want := len(tt.src)
		if tt.at != "" {
			want = strings.Index(tt.src, tt.at)
		}
		if d.Pos != want {
			t.Errorf("tests[%d] - position wrong. expected=%d, got=%d (%s)", i, want, d.Pos, d.Msg)
		}
	}
}
