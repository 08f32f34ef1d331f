package cabs

import (
	"sort"
	"strings"

	"github.com/raymyers/stepc/pkg/ctypes"
)

// primitiveTypes maps every legal combination of primitive type keywords,
// sorted and space-joined, to its type.
var primitiveTypes = map[string]ctypes.Type{
	"void":               ctypes.Void(),
	"char":               ctypes.Char(),
	"char signed":        ctypes.Char(),
	"char unsigned":      ctypes.UChar(),
	"short":              ctypes.Short(),
	"int short":          ctypes.Short(),
	"short signed":       ctypes.Short(),
	"int short signed":   ctypes.Short(),
	"short unsigned":     ctypes.UShort(),
	"int short unsigned": ctypes.UShort(),
	"int":                ctypes.Int(),
	"signed":             ctypes.Int(),
	"int signed":         ctypes.Int(),
	"unsigned":           ctypes.UInt(),
	"int unsigned":       ctypes.UInt(),
	"long":               ctypes.Long(),
	"int long":           ctypes.Long(),
	"long signed":        ctypes.Long(),
	"int long signed":    ctypes.Long(),
	"long unsigned":      ctypes.ULong(),
	"int long unsigned":  ctypes.ULong(),
	"float":              ctypes.Float(),
	"double":             ctypes.Double(),
}

// SortPrimitive puts primitive keywords in canonical order
func SortPrimitive(words []string) []string {
	out := append([]string(nil), words...)
	sort.Strings(out)
	return out
}

// PrimitiveType resolves a sorted list of primitive type keywords
func PrimitiveType(words []string) (ctypes.Type, bool) {
	t, ok := primitiveTypes[strings.Join(words, " ")]
	return t, ok
}
