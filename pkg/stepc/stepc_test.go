package stepc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/raymyers/stepc/pkg/console"
	"github.com/raymyers/stepc/pkg/diag"
)

const sumProgram = `#include <stdio.h>

int sum(int n) {
	if (n == 0)
		return 0;
	return n + sum(n - 1);
}

int main(void) {
	printf("%d\n", sum(4));
	return 0;
}
`

func TestCompileAndRun(t *testing.T) {
	prog, err := Compile(sumProgram)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := prog.Graphs()["sum"]; !ok {
		t.Error("no graph for sum")
	}
	m := NewMachine(prog)
	code, err := m.Run(context.Background())
	if err != nil || code != 0 {
		t.Fatalf("run = %d, %v", code, err)
	}
	if got := m.CurrentOutputText(); got != "10\n" {
		t.Errorf("output = %q", got)
	}
}

func TestCompileFailuresByPhase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		phase string
	}{
		{"syntax", "int main(void) { return 0 }", "parse"},
		{"types", "int main(void) { return x; }", "check"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(CompileFailures.WithLabelValues(tt.phase))
			_, err := Compile(tt.input)
			var d *diag.Diagnostic
			if !errors.As(err, &d) {
				t.Fatalf("err = %v, want a diagnostic", err)
			}
			if got := testutil.ToFloat64(CompileFailures.WithLabelValues(tt.phase)); got != before+1 {
				t.Errorf("%s failures went from %v to %v", tt.phase, before, got)
			}
		})
	}
}

func TestProgramRunsMoreThanOnce(t *testing.T) {
	prog, err := Compile("int g; int main(void) { g++; return g; }")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		code, err := NewMachine(prog).Run(context.Background())
		if err != nil || code != 1 {
			t.Errorf("run %d = %d, %v", i, code, err)
		}
	}
}

func TestDepthForStepping(t *testing.T) {
	prog, err := Compile(sumProgram)
	if err != nil {
		t.Fatal(err)
	}
	deepest := 0
	var m *Machine
	m = NewMachine(prog, WithHooks(Hooks{
		BeforeStep: func(int) {
			if d := m.Depth(); d > deepest {
				deepest = d
			}
		},
	}))
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// main plus sum(4) .. sum(0)
	if deepest != 6 {
		t.Errorf("deepest call depth = %d, want 6", deepest)
	}
}

func TestMetricsCountRuns(t *testing.T) {
	prog, err := Compile(`int main(void) {
	int *p = malloc(sizeof(int));
	free(p);
	return *p;
}`)
	if err != nil {
		t.Fatal(err)
	}
	faults := testutil.ToFloat64(RuntimeFaults)
	allocs := testutil.ToFloat64(HeapAllocations)
	steps := testutil.ToFloat64(Statements)
	m := NewMachine(prog, WithConsole(console.New(console.WithInput(""))))
	if _, err := m.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "dangling pointer") {
		t.Fatalf("err = %v", err)
	}
	if got := testutil.ToFloat64(RuntimeFaults); got != faults+1 {
		t.Errorf("faults = %v, want %v", got, faults+1)
	}
	if got := testutil.ToFloat64(HeapAllocations); got != allocs+1 {
		t.Errorf("allocations = %v, want %v", got, allocs+1)
	}
	if got := testutil.ToFloat64(Statements); got <= steps {
		t.Errorf("statements did not advance from %v", steps)
	}
}

func TestStopWhileAwaitingInput(t *testing.T) {
	prog, err := Compile("int main(void) { return getchar(); }")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMachine(prog)
	done := make(chan error)
	go func() {
		_, err := m.Run(context.Background())
		done <- err
	}()
	for !m.IsAwaitingInput() {
		time.Sleep(time.Millisecond)
	}
	m.RequestStop()
	if err := <-done; !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

func TestFeedInput(t *testing.T) {
	prog, err := Compile("int main(void) { return getchar(); }")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMachine(prog)
	m.FeedInput('A')
	code, err := m.Run(context.Background())
	if err != nil || code != 'A' {
		t.Errorf("run = %d, %v", code, err)
	}
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}
	misses := testutil.ToFloat64(CacheLookups.WithLabelValues("miss"))
	first, err := c.Compile(sumProgram)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := c.Compile(sumProgram)
	if first != again {
		t.Error("a second compile of the same source must hit the cache")
	}
	if _, err := c.Compile("int main(void) { return y; }"); err == nil {
		t.Error("expected a diagnostic")
	}
	if _, err := c.Compile("int main(void) { return y; }"); err == nil {
		t.Error("a cached rejection must still be reported")
	}
	if got := testutil.ToFloat64(CacheLookups.WithLabelValues("miss")); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
	c.Compile("int main(void) { return 1; }")
	if c.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", c.Len())
	}
}
