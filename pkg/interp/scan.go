package interp

import (
	"strconv"
	"strings"

	"github.com/raymyers/stepc/pkg/console"
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/format"
	"github.com/raymyers/stepc/pkg/memory"
)

func isSpace(ch int) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(ch int, base int) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return ch-'0' < base
	case base == 16:
		return ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
	}
	return false
}

// skipSpace consumes white space and returns the first other character
func (m *Machine) skipSpace() int {
	for {
		ch := m.read()
		if !isSpace(ch) {
			return ch
		}
	}
}

// scanf reads input according to f and stores the converted items
// through args. It returns the number of items stored, or EOF when input
// ended before the first conversion.
func (m *Machine) scanf(pos int, f string, args []memory.Value) memory.Value {
	pieces, err := format.Parse(format.Scanf, f)
	if err != nil {
		diag.Fail("scanf format %q passed the checker: %v", f, err)
	}
	stored := 0
	result := func(eof bool) memory.Value {
		if eof && stored == 0 {
			return memory.Int(console.EOF)
		}
		return memory.Int(int64(stored))
	}
	i := 0
	for _, pc := range pieces {
		d := pc.Directive
		if d == nil {
			for j := 0; j < len(pc.Literal); j++ {
				if isSpace(int(pc.Literal[j])) {
					m.unread(m.skipSpace())
					continue
				}
				ch := m.read()
				if ch != int(pc.Literal[j]) {
					m.unread(ch)
					return result(ch == console.EOF)
				}
			}
			continue
		}
		target := args[i]
		i++
		var ok bool
		switch d.Verb {
		case 'c':
			ch := m.read()
			if ch == console.EOF {
				return result(true)
			}
			m.store(pos, d, target, memory.Int(int64(int8(ch))))
			ok = true
		case 's':
			ok = m.scanWord(pos, d, target)
		case 'f':
			text := m.scanFloat()
			if ok = text != ""; ok {
				v, err := strconv.ParseFloat(text, 64)
				if err != nil && !isRangeError(err) {
					diag.Fail("scanned %q as a number: %v", text, err)
				}
				m.store(pos, d, target, memory.MakeFloat(ctypes.Double(), v))
			}
		default:
			text, base := m.scanInteger(d.Verb)
			if ok = text != ""; ok {
				m.store(pos, d, target, m.parseInteger(pos, d, text, base))
			}
		}
		if !ok {
			ch := m.read()
			m.unread(ch)
			return result(ch == console.EOF)
		}
		stored++
	}
	return result(false)
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// store converts v to the directive's target type and writes it through
// the pointer argument
func (m *Machine) store(pos int, d *format.Directive, target memory.Value, v memory.ArithValue) {
	t := d.ScanfTarget()
	obj := m.deref(pos, target, t)
	m.check(pos, obj.Assign(m.convertArith(pos, v, t)))
}

// scanWord reads at most the directive's width of non-space characters
// into a char buffer and terminates it
func (m *Machine) scanWord(pos int, d *format.Directive, target memory.Value) bool {
	ch := m.skipSpace()
	if ch == console.EOF {
		m.unread(ch)
		return false
	}
	var word strings.Builder
	for ch != console.EOF && !isSpace(ch) && word.Len() < d.Width {
		word.WriteByte(byte(ch))
		ch = m.read()
	}
	m.unread(ch)
	p := m.pointer(pos, target)
	m.deref(pos, p, ctypes.Char())
	m.writeString(pos, p, word.String())
	return true
}

// scanInteger reads the text of an integer for %d, %i, %u or %x and
// returns it with the base to parse it in
func (m *Machine) scanInteger(verb byte) (string, int) {
	base := 10
	if verb == 'x' {
		base = 16
	}
	var b strings.Builder
	ch := m.skipSpace()
	if ch == '+' || ch == '-' {
		b.WriteByte(byte(ch))
		ch = m.read()
	}
	if verb == 'i' && ch == '0' {
		b.WriteByte('0')
		ch = m.read()
		base = 8
		if ch == 'x' || ch == 'X' {
			base = 16
			ch = m.read()
		}
	}
	if base == 16 && ch == '0' && verb == 'x' {
		b.WriteByte('0')
		ch = m.read()
		if ch == 'x' || ch == 'X' {
			ch = m.read()
		}
	}
	for isDigit(ch, base) {
		b.WriteByte(byte(ch))
		ch = m.read()
	}
	m.unread(ch)
	text := b.String()
	if text == "" || text == "+" || text == "-" {
		return "", base
	}
	return text, base
}

// scanFloat reads the text of a decimal floating constant
func (m *Machine) scanFloat() string {
	var b strings.Builder
	ch := m.skipSpace()
	if ch == '+' || ch == '-' {
		b.WriteByte(byte(ch))
		ch = m.read()
	}
	digits := 0
	for isDigit(ch, 10) {
		b.WriteByte(byte(ch))
		digits++
		ch = m.read()
	}
	if ch == '.' {
		b.WriteByte('.')
		ch = m.read()
		for isDigit(ch, 10) {
			b.WriteByte(byte(ch))
			digits++
			ch = m.read()
		}
	}
	if digits == 0 {
		m.unread(ch)
		return ""
	}
	if ch == 'e' || ch == 'E' {
		exp := []byte{byte(ch)}
		ch = m.read()
		if ch == '+' || ch == '-' {
			exp = append(exp, byte(ch))
			ch = m.read()
		}
		if isDigit(ch, 10) {
			b.Write(exp)
			for isDigit(ch, 10) {
				b.WriteByte(byte(ch))
				ch = m.read()
			}
		}
	}
	m.unread(ch)
	return b.String()
}

// parseInteger converts scanned text into the directive's target type.
// Values that do not fit a signed target are a fault; unsigned targets
// wrap like strtoul.
func (m *Machine) parseInteger(pos int, d *format.Directive, text string, base int) memory.ArithValue {
	digits := strings.TrimLeft(text, "+-")
	t := d.ScanfTarget()
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil || u > 1<<32-1 {
		m.faultf(pos, "scanf: %s does not fit in %s", text, t)
	}
	v := int64(u)
	if strings.HasPrefix(text, "-") {
		v = -v
	}
	if ctypes.IsSigned(t) {
		if !ctypes.Fits(t, v) {
			m.faultf(pos, "scanf: %s does not fit in %s", text, t)
		}
		return memory.MakeInt(t, v)
	}
	return memory.MakeInt(t, v&(1<<ctypes.Bits(t)-1))
}
