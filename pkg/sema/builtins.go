package sema

import (
	"github.com/raymyers/stepc/pkg/ctypes"
	"github.com/raymyers/stepc/pkg/memory"
)

var (
	constCharPtr = ctypes.Pointer(ctypes.Const(ctypes.Char()))
	charPtr      = ctypes.Pointer(ctypes.Char())
	voidPtr      = ctypes.Pointer(ctypes.Void())
	constVoidPtr = ctypes.Pointer(ctypes.Const(ctypes.Void()))
	sizeT        = ctypes.UInt()
	comparator   = ctypes.Pointer(ctypes.Tfunction{Params: []ctypes.Type{constVoidPtr, constVoidPtr}, Return: ctypes.Int()})
)

func fn(ret ctypes.Type, params ...ctypes.Type) ctypes.Tfunction {
	return ctypes.Tfunction{Params: params, Return: ret}
}

func variadic(ret ctypes.Type, params ...ctypes.Type) ctypes.Tfunction {
	return ctypes.Tfunction{Params: params, Return: ret, Variadic: true}
}

// Builtins lists the library functions every program may call
var Builtins = map[string]ctypes.Tfunction{
	"printf":  variadic(ctypes.Int(), constCharPtr),
	"scanf":   variadic(ctypes.Int(), constCharPtr),
	"puts":    fn(ctypes.Int(), constCharPtr),
	"putchar": fn(ctypes.Int(), ctypes.Int()),
	"getchar": fn(ctypes.Int()),
	"malloc":  fn(voidPtr, sizeT),
	"calloc":  fn(voidPtr, sizeT, sizeT),
	"realloc": fn(voidPtr, voidPtr, sizeT),
	"free":    fn(ctypes.Void(), voidPtr),
	"strlen":  fn(sizeT, constCharPtr),
	"strcmp":  fn(ctypes.Int(), constCharPtr, constCharPtr),
	"strcpy":  fn(charPtr, charPtr, constCharPtr),
	"strcat":  fn(charPtr, charPtr, constCharPtr),
	"abs":     fn(ctypes.Int(), ctypes.Int()),
	"qsort":   fn(ctypes.Void(), voidPtr, sizeT, sizeT, comparator),
	"bsearch": fn(voidPtr, constVoidPtr, constVoidPtr, sizeT, sizeT, comparator),
	"exit":    fn(ctypes.Void(), ctypes.Int()),
	"rand":    fn(ctypes.Int()),
	"srand":   fn(ctypes.Void(), ctypes.UInt()),
}

// RandMax is the largest value rand returns
const RandMax = 32767

// predeclared are the constants the standard headers would define
var predeclared = map[string]memory.Value{
	"NULL":         memory.Null,
	"EXIT_SUCCESS": memory.Int(0),
	"EXIT_FAILURE": memory.Int(1),
	"INT_MIN":      memory.Int(-1 << 31),
	"INT_MAX":      memory.Int(1<<31 - 1),
	"UINT_MAX":     memory.MakeInt(ctypes.UInt(), 1<<32-1),
	"CHAR_MIN":     memory.Int(-128),
	"CHAR_MAX":     memory.Int(127),
	"EOF":          memory.Int(-1),
	"RAND_MAX":     memory.Int(RandMax),
}

// isAllocator reports whether a library function returns a fresh heap
// block whose element type comes from the conversion target
func isAllocator(name string) bool {
	return name == "malloc" || name == "calloc" || name == "realloc"
}

// universe builds the outermost scope holding the library
func universe() *scope {
	s := newScope()
	for name, t := range Builtins {
		s.declare(&Symbol{Name: name, Kind: Builtin, Type: t, Pos: -1})
	}
	for name, v := range predeclared {
		t := ctypes.Type(voidPtr)
		if a, ok := v.(memory.ArithValue); ok {
			t = a.Type
		}
		s.declare(&Symbol{Name: name, Kind: Constant, Type: t, Value: v, Pos: -1})
	}
	return s
}
