package cfg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raymyers/stepc/pkg/parser"
	"github.com/raymyers/stepc/pkg/sema"
)

func build(t *testing.T, src, name string) *Graph {
	t.Helper()
	ast, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, err := sema.Check(ast)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	graphs, err := BuildProgram(prog)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g, ok := graphs[name]
	if !ok {
		t.Fatalf("no graph for %s", name)
	}
	return g
}

func blockNames(g *Graph) []string {
	names := make([]string, len(g.Order))
	for i, l := range g.Order {
		names[i] = g.Blocks[l].Name
	}
	return names
}

func findBlock(t *testing.T, g *Graph, name string) *Block {
	t.Helper()
	for _, l := range g.Order {
		if g.Blocks[l].Name == name {
			return g.Blocks[l]
		}
	}
	t.Fatalf("no block named %q in %v", name, blockNames(g))
	return nil
}

func TestEveryBlockIsClosed(t *testing.T) {
	srcs := []string{
		"int main(void) { return 0; }",
		"void f(void) { }",
		"int main(void) { int i = 0; while (i < 3) i++; return i; }",
		"int main(void) { int i = 0; do { i++; } while (i < 3); return i; }",
		"int main(void) { int s = 0; for (int i = 0; i < 3; i++) { if (i == 1) continue; s += i; } return s; }",
		"int main(void) { int x = 1; switch (x) { case 1: x = 2; case 2: break; default: x = 0; } return x; }",
		"int main(void) { goto end; return 1; end: return 0; }",
		"void f(int x) { if (x) return; else x = 1; }",
	}
	for _, src := range srcs {
		name := "main"
		if strings.HasPrefix(src, "void f") {
			name = "f"
		}
		g := build(t, src, name)
		for _, l := range g.Order {
			b := g.Blocks[l]
			if b.IsOpen() {
				t.Errorf("%q: block %s is open", src, b)
				continue
			}
			for i, s := range b.Stmts[:len(b.Stmts)-1] {
				if IsTransfer(s) {
					t.Errorf("%q: block %s transfers control at statement %d of %d", src, b, i, len(b.Stmts))
				}
			}
		}
	}
}

func TestImplicitReturn(t *testing.T) {
	src := "void f(void) { }"
	g := build(t, src, "f")
	entry := g.Block(g.Entry)
	r, ok := entry.Terminator().(*Return)
	if !ok || !r.Implicit {
		t.Fatalf("entry ends with %v, want implicit return", entry.Terminator())
	}
	if r.At != strings.Index(src, "}") {
		t.Errorf("implicit return at %d, want the closing brace", r.At)
	}
}

func TestWhileShape(t *testing.T) {
	g := build(t, "int main(void) { int i = 0; while (i < 3) i++; return i; }", "main")
	want := []string{"entry", "while.check", "while.body", "while.exit"}
	if got := blockNames(g); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("blocks = %v, want %v", got, want)
	}
	check := findBlock(t, g, "while.check")
	cond, ok := check.Terminator().(*JumpIf)
	if !ok {
		t.Fatalf("check ends with %T", check.Terminator())
	}
	if cond.Then != findBlock(t, g, "while.body").Label || cond.Else != findBlock(t, g, "while.exit").Label {
		t.Errorf("check targets %d/%d", cond.Then, cond.Else)
	}
	body := findBlock(t, g, "while.body")
	if j, ok := body.Terminator().(*Jump); !ok || j.Target != check.Label {
		t.Errorf("body does not jump back to the check: %v", body.Terminator())
	}
}

func TestContinueTargetsUpdate(t *testing.T) {
	src := "int main(void) { int s = 0; for (int i = 0; i < 3; i++) { if (i == 1) continue; s += i; } return s; }"
	g := build(t, src, "main")
	update := findBlock(t, g, "for.update")
	at := strings.Index(src, "continue")
	found := false
	for _, b := range g.Blocks {
		for _, s := range b.Stmts {
			if j, ok := s.(*Jump); ok && j.At == at {
				found = true
				if j.Target != update.Label {
					t.Errorf("continue jumps to L%d, want L%d", j.Target, update.Label)
				}
			}
		}
	}
	if !found {
		t.Fatal("no jump for continue")
	}
	// the initializer runs once, before the check
	entry := g.Block(g.Entry)
	if len(entry.Stmts) != 3 {
		t.Errorf("entry has %d statements, want decl s, decl i, jump", len(entry.Stmts))
	}
}

func TestUnreachable(t *testing.T) {
	g := build(t, "int main(void) { int x = 0; return x; x = 2; }", "main")
	dead := g.Unreachable()
	if len(dead) != 1 {
		t.Fatalf("%d unreachable blocks, want 1", len(dead))
	}
	if _, ok := dead[0].Stmts[0].(*ExprStmt); !ok {
		t.Errorf("unreachable block starts with %T", dead[0].Stmts[0])
	}
	if len(g.Order) != 2 {
		t.Errorf("unreached blocks must be kept: %v", blockNames(g))
	}
}

func TestGoto(t *testing.T) {
	g := build(t, "int main(void) { goto end; return 1; end: return 0; }", "main")
	end := findBlock(t, g, "label end")
	if j, ok := g.Block(g.Entry).Terminator().(*Jump); !ok || j.Target != end.Label {
		t.Fatalf("entry does not jump to the label")
	}
	if !end.Reachable {
		t.Error("label block not reachable")
	}
	if len(g.Unreachable()) != 1 {
		t.Errorf("return 1 should be unreachable")
	}
}

func TestSwitchBackpatch(t *testing.T) {
	g := build(t, "int main(void) { int x = 1; switch (x) { x = 5; case 1: x = 2; case 2: break; } return x; }", "main")
	sw, ok := g.Block(g.Entry).Terminator().(*Switch)
	if !ok {
		t.Fatalf("entry ends with %T", g.Block(g.Entry).Terminator())
	}
	if len(sw.Cases) != 2 {
		t.Fatalf("cases = %v", sw.Cases)
	}
	exit := findBlock(t, g, "switch.exit")
	if sw.Default != exit.Label {
		t.Errorf("default = L%d, want the exit L%d", sw.Default, exit.Label)
	}
	// the statement before the first case is never executed
	if len(g.Unreachable()) != 1 {
		t.Errorf("unreachable = %v", g.Unreachable())
	}
}

const duff = `
void copy(char *to, char *from, int count) {
	int n = (count + 7) / 8;
	switch (count % 8) {
	case 0: do { *to++ = *from++;
	case 7: *to++ = *from++;
	case 6: *to++ = *from++;
	case 5: *to++ = *from++;
	case 4: *to++ = *from++;
	case 3: *to++ = *from++;
	case 2: *to++ = *from++;
	case 1: *to++ = *from++;
		} while (--n > 0);
	}
}
`

func TestDuffsDevice(t *testing.T) {
	g := build(t, duff, "copy")
	sw, ok := g.Block(g.Entry).Terminator().(*Switch)
	if !ok {
		t.Fatalf("entry ends with %T", g.Block(g.Entry).Terminator())
	}
	if len(sw.Cases) != 8 {
		t.Fatalf("%d cases, want 8", len(sw.Cases))
	}
	for v, l := range sw.Cases {
		b := g.Block(l)
		if b.Name != "case" || !b.Reachable {
			t.Errorf("case %d: block %s reachable=%v", v, b, b.Reachable)
		}
	}
	body := findBlock(t, g, "do.body")
	check := findBlock(t, g, "do.check")
	if j, ok := check.Terminator().(*JumpIf); !ok || j.Then != body.Label {
		t.Errorf("do.check does not loop back to the body")
	}
	// case 7 lives inside the loop body and falls through from case 0's
	// first copy
	seven := g.Block(sw.Cases[7])
	if j, ok := body.Terminator().(*Jump); !ok || j.Target != seven.Label {
		t.Errorf("do.body falls through to %v, want case 7", body.Terminator())
	}
	if len(g.Unreachable()) != 0 {
		t.Errorf("unexpected unreachable blocks %v", g.Unreachable())
	}
}

func TestPrintGraph(t *testing.T) {
	g := build(t, "int main(void) { int x = 1; if (x) x = 2; return x; }", "main")
	var buf bytes.Buffer
	NewPrinter(&buf).PrintGraph(g)
	out := buf.String()
	for _, want := range []string{"main:", "L0: ; entry", "decl x", "if (x) goto L1; else goto L2;", "x = 2;", "return x;"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
