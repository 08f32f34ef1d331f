package format

import (
	"math"
	"strings"
	"testing"

	"github.com/raymyers/stepc/pkg/ctypes"
)

func TestParsePieces(t *testing.T) {
	pieces, err := Parse(Printf, "x=%-5d, 100%% done %s\n")
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, p := range pieces {
		if p.Directive != nil {
			kinds = append(kinds, p.Directive.Text)
		} else {
			kinds = append(kinds, "'"+p.Literal+"'")
		}
	}
	got := strings.Join(kinds, " ")
	want := "'x=' %-5d ', 100% done ' %s '\n'"
	if got != want {
		t.Errorf("pieces = %s, want %s", got, want)
	}
	d := Directives(pieces)[0]
	if d.Pos != 2 || d.Flags != "-" || d.Width != 5 || d.Precision != -1 || d.Verb != 'd' {
		t.Errorf("unexpected directive %+v", d)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		kind Kind
		s    string
		msg  string
		pos  int
	}{
		{Printf, "%q", "unknown conversion %q", 0},
		{Printf, "abc %", "incomplete conversion", 4},
		{Printf, "%*d", "'*'", 1},
		{Printf, "%ls", "length modifier l", 0},
		{Scanf, "%s", "without a field width", 0},
		{Scanf, " %d %.2f", "precision is not allowed", 5},
		{Scanf, "%0s", "must be positive", 0},
		{Scanf, "%p", "unknown conversion", 0},
		{Scanf, "%3c", "more than one character", 0},
	}
	for i, tt := range tests {
		_, err := Parse(tt.kind, tt.s)
		fe, ok := err.(*Error)
		if !ok {
			t.Errorf("tests[%d] - %q: expected a format error, got %v", i, tt.s, err)
			continue
		}
		if !strings.Contains(fe.Msg, tt.msg) || fe.Pos != tt.pos {
			t.Errorf("tests[%d] - %q: got %q at %d, want %q at %d", i, tt.s, fe.Msg, fe.Pos, tt.msg, tt.pos)
		}
	}
}

func directive(t *testing.T, s string) *Directive {
	t.Helper()
	pieces, err := Parse(Printf, s)
	if err != nil {
		t.Fatal(err)
	}
	return Directives(pieces)[0]
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		format string
		v      int64
		want   string
	}{
		{"%d", -42, "-42"},
		{"%5d", 42, "   42"},
		{"%-5d|", 42, "42   "},
		{"%05d", -42, "-0042"},
		{"%+d", 7, "+7"},
		{"%.3d", 7, "007"},
		{"%u", 4294967295, "4294967295"},
		{"%+u", 3, "3"},
		{"%x", 255, "ff"},
		{"%#X", 255, "0XFF"},
		{"%o", 8, "10"},
		{"%#o", 8, "010"},
		{"%#x", 0, "0"},
		{"%#o", 0, "0"},
		{"%#5X", 0, "    0"},
		{"%c", 'A', "A"},
		{"%3c", 'A', "  A"},
	}
	for i, tt := range tests {
		got := directive(t, tt.format).FormatInt(tt.v)
		if got != tt.want {
			t.Errorf("tests[%d] - %s of %d: expected=%q, got=%q", i, tt.format, tt.v, tt.want, got)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		format string
		v      float64
		want   string
	}{
		{"%f", 3.5, "3.500000"},
		{"%.2f", 3.14159, "3.14"},
		{"%8.3f", -1.5, "  -1.500"},
		{"%e", 1234.5, "1.234500e+03"},
		{"%E", 0.5, "5.000000E-01"},
		{"%g", 100000, "100000"},
		{"%g", 1e6, "1e+06"},
		{"%g", 0.0001, "0.0001"},
		{"%f", math.Inf(1), "inf"},
		{"%5f", math.Inf(-1), " -inf"},
		{"%G", math.NaN(), "NAN"},
	}
	for i, tt := range tests {
		got := directive(t, tt.format).FormatFloat(tt.v)
		if got != tt.want {
			t.Errorf("tests[%d] - %s of %g: expected=%q, got=%q", i, tt.format, tt.v, tt.want, got)
		}
	}
}

func TestFormatString(t *testing.T) {
	if got := directive(t, "%.3s").FormatString("abcdef"); got != "abc" {
		t.Errorf("%%.3s = %q", got)
	}
	if got := directive(t, "%-6s").FormatString("ab"); got != "ab    " {
		t.Errorf("%%-6s = %q", got)
	}
}

func TestCheckPrintfArg(t *testing.T) {
	charPtr := ctypes.Pointer(ctypes.Const(ctypes.Char()))
	tests := []struct {
		format string
		arg    ctypes.Type
		ok     bool
	}{
		{"%d", ctypes.Int(), true},
		{"%d", ctypes.Double(), false},
		{"%ld", ctypes.Long(), true},
		{"%d", ctypes.Long(), false},
		{"%u", ctypes.UInt(), true},
		{"%x", ctypes.Int(), true},
		{"%f", ctypes.Double(), true},
		{"%f", ctypes.Int(), false},
		{"%s", charPtr, true},
		{"%s", ctypes.Array(ctypes.Char(), 4), true},
		{"%s", ctypes.Pointer(ctypes.Int()), false},
		{"%p", ctypes.Pointer(ctypes.Int()), true},
		{"%c", ctypes.Int(), true},
	}
	for i, tt := range tests {
		err := directive(t, tt.format).CheckPrintfArg(tt.arg)
		if (err == nil) != tt.ok {
			t.Errorf("tests[%d] - %s with %s: ok=%v, err=%v", i, tt.format, tt.arg, tt.ok, err)
		}
	}
}

func TestCheckScanfArg(t *testing.T) {
	scan := func(s string) *Directive {
		pieces, err := Parse(Scanf, s)
		if err != nil {
			t.Fatal(err)
		}
		return Directives(pieces)[0]
	}
	tests := []struct {
		format string
		arg    ctypes.Type
		ok     bool
	}{
		{"%d", ctypes.Pointer(ctypes.Int()), true},
		{"%d", ctypes.Int(), false},
		{"%f", ctypes.Pointer(ctypes.Float()), true},
		{"%lf", ctypes.Pointer(ctypes.Double()), true},
		{"%f", ctypes.Pointer(ctypes.Double()), false},
		{"%c", ctypes.Pointer(ctypes.Char()), true},
		{"%9s", ctypes.Array(ctypes.Char(), 10), true},
		{"%10s", ctypes.Array(ctypes.Char(), 10), false},
		{"%d", ctypes.Pointer(ctypes.Const(ctypes.Int())), false},
	}
	for i, tt := range tests {
		err := scan(tt.format).CheckScanfArg(tt.arg)
		if (err == nil) != tt.ok {
			t.Errorf("tests[%d] - %s with %s: ok=%v, err=%v", i, tt.format, tt.arg, tt.ok, err)
		}
	}
}
