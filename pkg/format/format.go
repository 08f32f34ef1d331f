// Package format parses printf and scanf format strings into directives
// and renders printf conversions. The type checker uses it to match
// arguments against directives; the interpreter uses it to execute them.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/raymyers/stepc/pkg/ctypes"
)

// Kind selects the dialect of a format string
type Kind int

const (
	Printf Kind = iota
	Scanf
)

func (k Kind) String() string {
	if k == Scanf {
		return "scanf"
	}
	return "printf"
}

// Piece is either literal text or a conversion directive
type Piece struct {
	Literal   string
	Directive *Directive
}

// Directive is one % conversion. Width and Precision are -1 when absent.
type Directive struct {
	Pos       int // byte offset of the % inside the format string
	Text      string
	Flags     string
	Width     int
	Precision int
	Long      bool
	Verb      byte
}

// Error is a malformed format string; Pos is relative to the string start
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

func errorf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

var verbs = map[Kind]string{
	Printf: "cdiuoxXeEfgGsp%",
	Scanf:  "cdiuxfs%",
}

// Parse splits a format string into pieces
func Parse(kind Kind, s string) ([]Piece, error) {
	var pieces []Piece
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			pieces = append(pieces, Piece{Literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); {
		if s[i] != '%' {
			lit.WriteByte(s[i])
			i++
			continue
		}
		d, next, err := parseDirective(kind, s, i)
		if err != nil {
			return nil, err
		}
		i = next
		if d.Verb == '%' {
			lit.WriteByte('%')
			continue
		}
		flush()
		pieces = append(pieces, Piece{Directive: d})
	}
	flush()
	return pieces, nil
}

func parseDirective(kind Kind, s string, start int) (*Directive, int, error) {
	d := &Directive{Pos: start, Width: -1, Precision: -1}
	i := start + 1
	if kind == Printf {
		for i < len(s) && strings.IndexByte("-+ #0", s[i]) >= 0 {
			d.Flags += string(s[i])
			i++
		}
	}
	if i < len(s) && s[i] == '*' {
		return nil, 0, errorf(i, "'*' in a %s format is not supported", kind)
	}
	d.Width, i = readNumber(s, i)
	if i < len(s) && s[i] == '.' {
		if kind == Scanf {
			return nil, 0, errorf(i, "precision is not allowed in a scanf format")
		}
		i++
		if i < len(s) && s[i] == '*' {
			return nil, 0, errorf(i, "'*' in a %s format is not supported", kind)
		}
		d.Precision, i = readNumber(s, i)
		if d.Precision < 0 {
			d.Precision = 0
		}
	}
	if i < len(s) && s[i] == 'l' {
		d.Long = true
		i++
	}
	if i >= len(s) {
		return nil, 0, errorf(start, "incomplete conversion at the end of the format")
	}
	d.Verb = s[i]
	i++
	d.Text = s[start:i]
	if strings.IndexByte(verbs[kind], d.Verb) < 0 {
		return nil, 0, errorf(start, "unknown conversion %s in %s format", d.Text, kind)
	}
	if d.Long && strings.IndexByte("diuoxXfeEgG", d.Verb) < 0 {
		return nil, 0, errorf(start, "length modifier l cannot be used with %%%c", d.Verb)
	}
	if d.Verb == '%' && d.Text != "%%" {
		return nil, 0, errorf(start, "%s must be written %%%%", d.Text)
	}
	if kind == Scanf {
		if d.Verb == 's' && d.Width < 0 {
			return nil, 0, errorf(start, "%%s without a field width can overflow its buffer; write e.g. %%19s")
		}
		if d.Verb == 'c' && d.Width > 1 {
			return nil, 0, errorf(start, "%s reads more than one character; use %%c in a loop", d.Text)
		}
		if d.Width == 0 {
			return nil, 0, errorf(start, "field width of %s must be positive", d.Text)
		}
	}
	return d, i, nil
}

func readNumber(s string, i int) (int, int) {
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return -1, i
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		n = math.MaxInt32
	}
	return n, i
}

// Directives returns only the directives of a parsed format
func Directives(pieces []Piece) []*Directive {
	var out []*Directive
	for _, p := range pieces {
		if p.Directive != nil {
			out = append(out, p.Directive)
		}
	}
	return out
}

// CheckPrintfArg reports whether t, the type of an argument after the
// default argument promotions, suits the directive.
func (d *Directive) CheckPrintfArg(t ctypes.Type) error {
	t = ctypes.Unqualified(ctypes.Decayed(t))
	ok := false
	want := ""
	switch d.Verb {
	case 'c':
		want = "int"
		ok = ctypes.Equal(t, ctypes.Int()) || ctypes.Equal(t, ctypes.UInt())
	case 'd', 'i', 'u', 'o', 'x', 'X':
		if d.Long {
			want = "long"
			ok = ctypes.Equal(t, ctypes.Long()) || ctypes.Equal(t, ctypes.ULong())
		} else {
			want = "int"
			ok = ctypes.Equal(t, ctypes.Int()) || ctypes.Equal(t, ctypes.UInt())
		}
		if d.Verb != 'd' && d.Verb != 'i' {
			want = "unsigned " + want
		}
	case 'e', 'E', 'f', 'g', 'G':
		want = "double"
		ok = ctypes.Equal(t, ctypes.Double())
	case 's':
		want = "char *"
		if p, isPtr := t.(ctypes.Tpointer); isPtr {
			elem := ctypes.Unqualified(p.Elem)
			ok = ctypes.Equal(elem, ctypes.Char()) || ctypes.Equal(elem, ctypes.UChar())
		}
	case 'p':
		want = "a pointer"
		ok = ctypes.IsPointer(t)
	}
	if !ok {
		return fmt.Errorf("%s expects %s, but the argument has type %s", d.Text, want, t)
	}
	return nil
}

// ScanfTarget returns the type a scanf directive stores into: the pointee
// of its argument, or the element type of the buffer for %s.
func (d *Directive) ScanfTarget() ctypes.Type {
	switch d.Verb {
	case 'd', 'i':
		if d.Long {
			return ctypes.Long()
		}
		return ctypes.Int()
	case 'u', 'x':
		if d.Long {
			return ctypes.ULong()
		}
		return ctypes.UInt()
	case 'f':
		if d.Long {
			return ctypes.Double()
		}
		return ctypes.Float()
	case 'c', 's':
		return ctypes.Char()
	}
	return nil
}

// CheckScanfArg reports whether t, the type of a scanf argument, is a
// pointer to the directive's target type.
func (d *Directive) CheckScanfArg(t ctypes.Type) error {
	want := d.ScanfTarget()
	p, ok := ctypes.Unqualified(ctypes.Decayed(t)).(ctypes.Tpointer)
	if ok && ctypes.IsConst(p.Elem) {
		return fmt.Errorf("%s cannot store through a pointer to const %s", d.Text, ctypes.Unqualified(p.Elem))
	}
	if !ok || !ctypes.Equal(ctypes.Unqualified(p.Elem), want) {
		return fmt.Errorf("%s expects %s, but the argument has type %s", d.Text, ctypes.Pointer(want), t)
	}
	if d.Verb == 's' {
		if arr, isArr := ctypes.Unqualified(t).(ctypes.Tarray); isArr && arr.Length >= 0 && arr.Length < d.Width+1 {
			return fmt.Errorf("%s needs a buffer of at least %d chars, but the array holds %d", d.Text, d.Width+1, arr.Length)
		}
	}
	return nil
}

// goSpec builds the equivalent Go verb with the directive's flags, width
// and precision.
func (d *Directive) goSpec(verb byte, flags string) string {
	var b strings.Builder
	b.WriteByte('%')
	b.WriteString(flags)
	if d.Width >= 0 {
		b.WriteString(strconv.Itoa(d.Width))
	}
	if d.Precision >= 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(d.Precision))
	}
	b.WriteByte(verb)
	return b.String()
}

// FormatInt renders an integer conversion (%d %i %u %o %x %X %c). For the
// unsigned conversions v must already be the unsigned value.
func (d *Directive) FormatInt(v int64) string {
	switch d.Verb {
	case 'c':
		return d.FormatString(string([]byte{byte(v)}))
	case 'd', 'i':
		return fmt.Sprintf(d.goSpec('d', d.Flags), v)
	}
	// the sign flags do not apply to unsigned conversions
	flags := strings.NewReplacer("+", "", " ", "").Replace(d.Flags)
	verb := byte('d')
	switch d.Verb {
	case 'o', 'x', 'X':
		verb = d.Verb
		if v == 0 {
			// the alternate form of zero is a plain 0
			flags = strings.ReplaceAll(flags, "#", "")
		}
	}
	return fmt.Sprintf(d.goSpec(verb, flags), uint64(v))
}

// FormatFloat renders a floating conversion (%e %E %f %g %G)
func (d *Directive) FormatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		s := "inf"
		if math.IsNaN(v) {
			s = "nan"
		}
		if d.Verb == 'E' || d.Verb == 'G' {
			s = strings.ToUpper(s)
		}
		switch {
		case math.IsInf(v, -1):
			s = "-" + s
		case strings.Contains(d.Flags, "+"):
			s = "+" + s
		case strings.Contains(d.Flags, " "):
			s = " " + s
		}
		return d.pad(s)
	}
	spec := *d
	if spec.Precision < 0 {
		spec.Precision = 6
	}
	return fmt.Sprintf(spec.goSpec(d.Verb, d.Flags), v)
}

// FormatString renders %s (honouring precision) and pads to the width
func (d *Directive) FormatString(s string) string {
	if d.Verb == 's' && d.Precision >= 0 && d.Precision < len(s) {
		s = s[:d.Precision]
	}
	return d.pad(s)
}

func (d *Directive) pad(s string) string {
	if len(s) >= d.Width {
		return s
	}
	fill := strings.Repeat(" ", d.Width-len(s))
	if strings.Contains(d.Flags, "-") {
		return s + fill
	}
	return fill + s
}
