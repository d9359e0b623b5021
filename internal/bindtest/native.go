package bindtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// Native values are modeled with a handful of Go types:
//
//	bool               C bool
//	byte               char
//	float64            every number and enum, already cast to its C range
//	string             a char array
//	[]float64          a fixed-size numeric array
//	*CString           an allocated or returned char pointer
//	*Buffer            an allocated numeric buffer
//	Struct             a record held by value
//	*Instance          a heap-allocated class instance
//	NativeFunc         a function pointer
//	nil                NULL
type (
	// Struct is a C record value. Assigning it copies.
	Struct map[string]any

	// Instance is a class instance bound to a script object.
	Instance struct {
		Class  *ir.RecordDecl
		Fields Struct
	}

	// CString is a NUL-terminated char buffer.
	CString struct {
		Text  string
		freed bool
	}

	// Buffer is a native array extracted from a typed array.
	Buffer struct {
		Elem  marshal.ElementTag
		Data  []float64
		freed bool
	}

	// NativeFunc is a native function pointer, as produced for callbacks.
	NativeFunc func(args ...any) any
)

// Freed reports whether the string was released.
func (c *CString) Freed() bool { return c.freed }

// Freed reports whether the buffer was released.
func (b *Buffer) Freed() bool { return b.freed }

func (s Struct) clone() Struct {
	out := make(Struct, len(s))
	for k, v := range s {
		switch v := v.(type) {
		case Struct:
			out[k] = v.clone()
		case []float64:
			out[k] = append([]float64(nil), v...)
		default:
			out[k] = v
		}
	}
	return out
}

// zero returns the zero value of t: the result of "= {0}" or "= NULL".
func zero(mod *ir.Module, t ir.Type) any {
	switch t := t.(type) {
	case *ir.BoolType:
		return false
	case *ir.CharType:
		return byte(0)
	case *ir.NumberType, *ir.EnumType:
		return float64(0)
	case *ir.ArrayType:
		elem, _, count := ir.ArrayChain(t)
		if c, ok := elem.(*ir.CharType); ok && c.Width == 1 && t.Size > 0 {
			return ""
		}
		if count > 0 {
			return make([]float64, count)
		}
		return nil
	case *ir.RecordType:
		rec := mod.Record(t.Ref)
		if rec == nil {
			return nil
		}
		if rec.IsClass() {
			return &Instance{Class: rec, Fields: zeroFields(mod, rec)}
		}
		return zeroFields(mod, rec)
	}
	return nil
}

func zeroFields(mod *ir.Module, rec *ir.RecordDecl) Struct {
	s := make(Struct, len(rec.Fields))
	for _, f := range rec.Fields {
		s[f.Name] = zero(mod, f.Type)
	}
	return s
}

// cast converts a script number the way a C cast to t does. Out of range
// integers wrap modulo their width; NaN and infinities become zero.
func cast(x float64, t ir.Type) float64 {
	if math.IsNaN(x) {
		if n, ok := t.(*ir.NumberType); ok && n.Repr.Float() {
			return x
		}
		return 0
	}
	repr := ir.Int32
	if n, ok := t.(*ir.NumberType); ok {
		repr = n.Repr
	}
	if repr.Float() {
		if repr == ir.Float32 {
			return float64(float32(x))
		}
		return x
	}
	if math.IsInf(x, 0) {
		return 0
	}
	i := int64(wrap64(x))
	switch repr {
	case ir.Int8:
		return float64(int8(i))
	case ir.Uint8:
		return float64(uint8(i))
	case ir.Int16:
		return float64(int16(i))
	case ir.Uint16:
		return float64(uint16(i))
	case ir.Int32:
		return float64(int32(i))
	case ir.Uint32:
		return float64(uint32(i))
	case ir.Uint64, ir.Uint128:
		return float64(uint64(i))
	}
	return float64(i)
}

// wrap64 truncates x and reduces it modulo 2^64, the way a script number
// becomes a 64-bit integer.
func wrap64(x float64) uint64 {
	x = math.Trunc(x)
	if x >= -(1<<63) && x < 1<<63 {
		return uint64(int64(x))
	}
	m := math.Mod(x, 1<<64)
	if m < 0 {
		m += 1 << 64
	}
	if m >= 1<<64 {
		return 0
	}
	return uint64(m)
}

// castElem converts a value stored into a typed array of the given element
// type.
func castElem(x float64, elem marshal.ElementTag) float64 {
	switch elem {
	case marshal.ElemInt8:
		return cast(x, ir.Number("", ir.Int8))
	case marshal.ElemUint8:
		return cast(x, ir.Number("", ir.Uint8))
	case marshal.ElemInt16:
		return cast(x, ir.Number("", ir.Int16))
	case marshal.ElemUint16:
		return cast(x, ir.Number("", ir.Uint16))
	case marshal.ElemInt32:
		return cast(x, ir.Number("", ir.Int32))
	case marshal.ElemUint32:
		return cast(x, ir.Number("", ir.Uint32))
	case marshal.ElemBigInt64:
		return cast(x, ir.Number("", ir.Int64))
	case marshal.ElemBigUint64:
		return cast(x, ir.Number("", ir.Uint64))
	case marshal.ElemFloat32:
		return cast(x, ir.Number("", ir.Float32))
	}
	return x
}

// path splits a C lvalue into its root local and field selectors.
// "(*result).x", "native_ptr->x" and "&p" all reduce to plain paths.
func path(expr string) (root string, fields []string) {
	expr = strings.TrimLeft(expr, "&*")
	expr = strings.ReplaceAll(expr, "(*", "")
	expr = strings.ReplaceAll(expr, ")", "")
	expr = strings.ReplaceAll(expr, "->", ".")
	parts := strings.Split(expr, ".")
	return parts[0], parts[1:]
}

// fieldsOf returns the field storage of a record or class instance.
func fieldsOf(v any) (Struct, error) {
	switch v := v.(type) {
	case Struct:
		return v, nil
	case *Instance:
		if v == nil {
			return nil, fmt.Errorf("NULL instance dereferenced")
		}
		return v.Fields, nil
	case nil:
		return nil, fmt.Errorf("NULL dereferenced")
	}
	return nil, fmt.Errorf("%T has no fields", v)
}
