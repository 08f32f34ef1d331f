package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &out, &errOut)

	expectedFlags := []string{"dparse", "dcfg", "dmem", "config", "lint", "input", "echo-input", "metrics-addr", "max-call-depth"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestUnderscoreFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &out, &errOut)
	if err := cmd.ParseFlags([]string{"--max_call_depth=7", "--echo_input"}); err != nil {
		t.Fatal(err)
	}
	if maxCallDepth != 7 || !echoFlag {
		t.Errorf("max-call-depth = %d, echo-input = %v", maxCallDepth, echoFlag)
	}
}

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "single-dash dparse",
			input:    []string{"-dparse", "test.c"},
			expected: []string{"--dparse", "test.c"},
		},
		{
			name:     "double-dash dparse unchanged",
			input:    []string{"--dparse", "test.c"},
			expected: []string{"--dparse", "test.c"},
		},
		{
			name:     "mixed flags",
			input:    []string{"test.c", "-dcfg", "-dmem"},
			expected: []string{"test.c", "--dcfg", "--dmem"},
		},
		{
			name:     "other flags unchanged",
			input:    []string{"--input", "-dparse-like", "test.c"},
			expected: []string{"--input", "-dparse-like", "test.c"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := normalizeFlags(tc.input)
			if strings.Join(result, " ") != strings.Join(tc.expected, " ") {
				t.Errorf("normalizeFlags(%v) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}

// execute runs the root command on a file holding src
func execute(t *testing.T, src string, args ...string) (string, string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.c")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs(append(args, path))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunWithInput(t *testing.T) {
	src := `#include <stdio.h>
int main(void) {
	int a, b;
	scanf("%d %d", &a, &b);
	printf("%d\n", a * b);
	return 0;
}
`
	out, errOut, err := execute(t, src, "--input", "6 7")
	if err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, errOut)
	}
	if out != "42\n" {
		t.Errorf("output = %q", out)
	}
}

func TestEchoInput(t *testing.T) {
	src := `int main(void) {
	int n;
	printf("n? ");
	scanf("%d", &n);
	printf("twice: %d\n", 2 * n);
	return 0;
}
`
	out, _, err := execute(t, src, "--input", "5\n", "--echo-input")
	if err != nil {
		t.Fatal(err)
	}
	if out != "n? 5\ntwice: 10\n" {
		t.Errorf("output = %q", out)
	}
}

func TestExitCodePropagates(t *testing.T) {
	_, _, err := execute(t, "int main(void) { return 3; }")
	var ee exitError
	if !errors.As(err, &ee) || ee.code != 3 {
		t.Errorf("err = %v, want exit status 3", err)
	}
}

func TestRuntimeDiagnostic(t *testing.T) {
	src := `int main(void) {
	int *p = malloc(sizeof(int));
	free(p);
	return *p;
}
`
	_, errOut, err := execute(t, src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "prog.c:4:") || !strings.Contains(errOut, "dangling pointer") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestCompileDiagnostic(t *testing.T) {
	_, errOut, err := execute(t, "int main(void) {\n\treturn cout;\n}\n")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "prog.c:2:") || !strings.Contains(errOut, "undeclared") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestLeakWarningKeepsExitCode(t *testing.T) {
	src := "int main(void) { int *p = malloc(sizeof(int)); *p = 1; return 0; }"
	_, errOut, err := execute(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "warning: memory leak") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestDParseFlag(t *testing.T) {
	out, _, err := execute(t, "int main(void) { return 0; }", "--dparse")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("AST dump = %q", out)
	}
}

func TestDCFGFlag(t *testing.T) {
	out, _, err := execute(t, "int main(void) { int i = 0; while (i < 3) i++; return i; }", "--dcfg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "main:\n") || !strings.Contains(out, "goto L") {
		t.Errorf("CFG dump = %q", out)
	}
}

func TestDMemFlag(t *testing.T) {
	out, _, err := execute(t, "int g = 5; int main(void) { int x = 7; return 0; }", "--dmem")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"static variables", "stack frame main", "= 7", "= 5", "heap blocks allocated: 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("memory dump lacks %q:\n%s", want, out)
		}
	}
}

func TestLintFlag(t *testing.T) {
	_, errOut, err := execute(t, "int main(void) { int spare; return 0; }", "--lint")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "warning: unused variable 'spare'") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestConfigFile(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "stepc.yaml")
	if err := os.WriteFile(conf, []byte("max-call-depth: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := "int f(int n) { return n == 0 ? 0 : f(n - 1); } int main(void) { return f(10); }"
	_, errOut, err := execute(t, src, "--config", conf)
	if err == nil || !strings.Contains(errOut, "call depth limit of 5") {
		t.Errorf("err = %v, stderr = %q", err, errOut)
	}
	// the flag wins over the file
	if _, errOut, err := execute(t, src, "--config", conf, "--max-call-depth=-1"); err != nil {
		t.Errorf("err = %v, stderr = %q", err, errOut)
	}
}

func TestMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.c")})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error")
	}
	if !strings.Contains(errOut.String(), "stepc: error reading") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
