package interp

import (
	"strings"

	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/diag"
	"github.com/raymyers/stepc/pkg/format"
	"github.com/raymyers/stepc/pkg/memory"
	"github.com/raymyers/stepc/pkg/sema"
)

// library runs a built-in function. Arguments are already converted to
// the parameter types.
func (m *Machine) library(pos int, name string, args []memory.Value, allocElem ctypes.Type) memory.Value {
	switch name {
	case "printf":
		return m.printf(pos, m.readString(pos, args[0]), args[1:])
	case "scanf":
		return m.scanf(pos, m.readString(pos, args[0]), args[1:])
	case "puts":
		s := m.readString(pos, args[0])
		m.write(s + "\n")
		return memory.Int(int64(len(s) + 1))
	case "putchar":
		c := byte(m.arith(pos, args[0]).I)
		m.write(string([]byte{c}))
		return memory.Int(int64(c))
	case "getchar":
		return memory.Int(int64(m.read()))
	case "malloc":
		return m.allocate(pos, name, m.size(pos, args[0]), allocElem, false)
	case "calloc":
		n, size := m.size(pos, args[0]), m.size(pos, args[1])
		return m.allocate(pos, name, n*size, allocElem, true)
	case "realloc":
		p := m.pointer(pos, args[0])
		count := m.elements(pos, name, m.size(pos, args[1]), allocElem)
		q, err := m.mem.Realloc(p, elemOr(allocElem), count)
		m.check(pos, err)
		return q
	case "free":
		m.check(pos, m.mem.Free(m.pointer(pos, args[0])))
		return memory.VoidValue{}
	case "strlen":
		return memory.MakeInt(ctypes.UInt(), int64(len(m.readString(pos, args[0]))))
	case "strcmp":
		return memory.Int(int64(compareBytes(m.readString(pos, args[0]), m.readString(pos, args[1]))))
	case "strcpy":
		src := m.readString(pos, args[1])
		m.writeString(pos, m.pointer(pos, args[0]), src)
		return args[0]
	case "strcat":
		dst := m.pointer(pos, args[0])
		end, err := dst.Obj.Add(len(m.readString(pos, args[0])))
		m.check(pos, err)
		m.writeString(pos, memory.PointerValue{Obj: end}, m.readString(pos, args[1]))
		return args[0]
	case "abs":
		v := m.arith(pos, args[0])
		if v.I >= 0 {
			return v
		}
		r, err := memory.Negate(v)
		m.check(pos, err)
		return r
	case "qsort":
		m.qsort(pos, args)
		return memory.VoidValue{}
	case "bsearch":
		return m.bsearch(pos, args)
	case "exit":
		panic(exitSignal{code: int(m.arith(pos, args[0]).I), pos: pos})
	case "rand":
		m.seed = m.seed*1103515245 + 12345
		return memory.Int(int64(m.seed/65536) % (sema.RandMax + 1))
	case "srand":
		m.seed = uint32(m.arith(pos, args[0]).I)
		return memory.VoidValue{}
	}
	diag.Fail("no library function %s", name)
	return nil
}

func (m *Machine) write(s string) {
	m.con.Write([]byte(s))
}

// read takes one character of input, blocking until it is available
func (m *Machine) read() int {
	ch, err := m.con.Read(m.ctx)
	if err != nil {
		panic(stopSignal{err})
	}
	return ch
}

func (m *Machine) unread(ch int) {
	if err := m.con.Unget(ch); err != nil {
		diag.Fail("%v", err)
	}
}

func (m *Machine) size(pos int, v memory.Value) int {
	return int(m.arith(pos, v).I)
}

func elemOr(t ctypes.Type) ctypes.Type {
	if t == nil {
		return ctypes.UChar()
	}
	return t
}

// elements converts a byte count into a number of elements of elem
func (m *Machine) elements(pos int, name string, bytes int, elem ctypes.Type) int {
	elem = elemOr(elem)
	size := ctypes.SizeOf(elem)
	if bytes%size != 0 {
		m.faultf(pos, "%s of %d bytes is not a whole number of %s elements (%d bytes each)", name, bytes, elem, size)
	}
	return bytes / size
}

func (m *Machine) allocate(pos int, name string, bytes int, elem ctypes.Type, zero bool) memory.Value {
	count := m.elements(pos, name, bytes, elem)
	p := m.mem.Malloc(elemOr(elem), count)
	if zero {
		whole := memory.Whole(p.Obj.Seg)
		m.check(pos, whole.Fill(memory.Zero(whole.Type)))
	}
	return p
}

// readString collects the characters up to the terminating NUL
func (m *Machine) readString(pos int, v memory.Value) string {
	p := m.pointer(pos, v)
	if p.IsNull() {
		m.faultf(pos, "null pointer passed as a string")
	}
	var b strings.Builder
	obj := p.Obj
	for ctypes.IsArray(obj.Type) {
		obj = obj.Decay()
	}
	for {
		c := m.arith(pos, m.load(pos, obj))
		if c.I == 0 {
			return b.String()
		}
		b.WriteByte(byte(c.I))
		next, err := obj.Add(1)
		m.check(pos, err)
		obj = next
	}
}

// writeString stores s and a terminating NUL starting at p
func (m *Machine) writeString(pos int, p memory.PointerValue, s string) {
	if p.IsNull() {
		m.faultf(pos, "null pointer passed as a destination string")
	}
	obj := p.Obj
	for i := 0; i <= len(s); i++ {
		var c int64
		if i < len(s) {
			c = int64(int8(s[i]))
		}
		m.check(pos, obj.Assign(m.convertArith(pos, memory.Int(c), obj.Type)))
		if i < len(s) {
			next, err := obj.Add(1)
			m.check(pos, err)
			obj = next
		}
	}
}

// compareBytes orders strings as unsigned chars, like strcmp
func compareBytes(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *Machine) printf(pos int, f string, args []memory.Value) memory.Value {
	pieces, err := format.Parse(format.Printf, f)
	if err != nil {
		diag.Fail("printf format %q passed the checker: %v", f, err)
	}
	var b strings.Builder
	i := 0
	for _, pc := range pieces {
		d := pc.Directive
		if d == nil {
			b.WriteString(pc.Literal)
			continue
		}
		arg := args[i]
		i++
		switch d.Verb {
		case 'c', 'd', 'i':
			b.WriteString(d.FormatInt(m.arith(pos, arg).I))
		case 'u', 'o', 'x', 'X':
			t := ctypes.UInt()
			if d.Long {
				t = ctypes.ULong()
			}
			b.WriteString(d.FormatInt(m.convertArith(pos, m.arith(pos, arg), t).I))
		case 'e', 'E', 'f', 'g', 'G':
			b.WriteString(d.FormatFloat(m.arith(pos, arg).Float64()))
		case 's':
			b.WriteString(d.FormatString(m.readString(pos, arg)))
		case 'p':
			b.WriteString(d.FormatString(arg.String()))
		default:
			diag.Fail("printf directive %s", d.Text)
		}
	}
	m.write(b.String())
	return memory.Int(int64(b.Len()))
}

// element returns element i of the array base points into
func (m *Machine) element(pos int, base memory.PointerValue, i int) memory.PointerValue {
	obj, err := base.Obj.Add(i)
	m.check(pos, err)
	return memory.PointerValue{Obj: obj}
}

// sortable checks the base and element size passed to qsort or bsearch
func (m *Machine) sortable(pos int, name string, base memory.Value, n, size int) memory.PointerValue {
	p := m.pointer(pos, base)
	if p.IsNull() {
		if n == 0 {
			return p
		}
		m.faultf(pos, "%s on a null array", name)
	}
	if want := ctypes.SizeOf(p.Obj.Type); size != want {
		m.faultf(pos, "%s: element size %d does not match %s (%d bytes)", name, size, p.Obj.Type, want)
	}
	return p
}

func (m *Machine) compare(pos int, cmp memory.Value, a, b memory.PointerValue) int64 {
	fp, ok := cmp.(memory.FunctionPointer)
	if !ok {
		m.faultf(pos, "the comparison function is not a function")
	}
	return m.arith(pos, m.invoke(pos, fp.Name, []memory.Value{a, b}, nil)).I
}

// qsort sorts by insertion, exchanging neighbours, so that every run calls
// the comparison function in the same order
func (m *Machine) qsort(pos int, args []memory.Value) {
	n, size := m.size(pos, args[1]), m.size(pos, args[2])
	base := m.sortable(pos, "qsort", args[0], n, size)
	for i := 1; i < n; i++ {
		for j := i; j > 0; j-- {
			a, b := m.element(pos, base, j-1), m.element(pos, base, j)
			if m.compare(pos, args[3], a, b) <= 0 {
				break
			}
			m.check(pos, memory.Swap(a.Obj, b.Obj))
		}
	}
}

func (m *Machine) bsearch(pos int, args []memory.Value) memory.Value {
	key := m.pointer(pos, args[0])
	n, size := m.size(pos, args[2]), m.size(pos, args[3])
	base := m.sortable(pos, "bsearch", args[1], n, size)
	lo, hi := uint32(0), uint32(n)
	for lo < hi {
		mid := (lo + hi) >> 1
		elem := m.element(pos, base, int(mid))
		c := m.compare(pos, args[4], key, elem)
		switch {
		case c < 0:
			hi = mid
		case c > 0:
			lo = mid + 1
		default:
			return elem
		}
	}
	return memory.Null
}
