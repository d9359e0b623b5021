package marshal

import (
	"github.com/broady/bindgen/ir"
)

// Tag is the runtime category of a script value.
type Tag string

const (
	// TagAny means no check is possible; used for unsupported types.
	TagAny        Tag = ""
	TagUndefined  Tag = "undefined"
	TagNull       Tag = "null"
	TagBoolean    Tag = "boolean"
	TagNumber     Tag = "number"
	TagString     Tag = "string"
	TagTypedArray Tag = "typedarray"
	TagObject     Tag = "object"
	TagFunction   Tag = "function"
)

// ElementTag names the element type of a typed array.
type ElementTag string

const (
	ElemInt8      ElementTag = "INT8"
	ElemUint8     ElementTag = "UINT8"
	ElemInt16     ElementTag = "INT16"
	ElemUint16    ElementTag = "UINT16"
	ElemInt32     ElementTag = "INT32"
	ElemUint32    ElementTag = "UINT32"
	ElemBigInt64  ElementTag = "BIGINT64"
	ElemBigUint64 ElementTag = "BIGUINT64"
	ElemFloat32   ElementTag = "FLOAT32"
	ElemFloat64   ElementTag = "FLOAT64"
)

// Size returns the element width in bytes.
func (e ElementTag) Size() int {
	switch e {
	case ElemInt8, ElemUint8:
		return 1
	case ElemInt16, ElemUint16:
		return 2
	case ElemInt32, ElemUint32, ElemFloat32:
		return 4
	default:
		return 8
	}
}

// ElementTagOf maps a buffer element type onto a typed array element tag.
// Types with no typed array counterpart (128-bit integers, long double,
// records) report false.
func ElementTagOf(t ir.Type) (ElementTag, bool) {
	switch t := t.(type) {
	case *ir.BoolType:
		return ElemUint8, true
	case *ir.EnumType:
		return ElemInt32, true
	case *ir.NumberType:
		switch t.Repr {
		case ir.Int8:
			return ElemInt8, true
		case ir.Uint8:
			return ElemUint8, true
		case ir.Int16:
			return ElemInt16, true
		case ir.Uint16:
			return ElemUint16, true
		case ir.Int32:
			return ElemInt32, true
		case ir.Uint32:
			return ElemUint32, true
		case ir.Int64:
			return ElemBigInt64, true
		case ir.Uint64:
			return ElemBigUint64, true
		case ir.Float32:
			return ElemFloat32, true
		case ir.Float64:
			return ElemFloat64, true
		}
	}
	return "", false
}

// TagOf returns the tag a script value must carry to convert into t.
// Buffers also accept null; see Nullable.
func TagOf(mod *ir.Module, t ir.Type) Tag {
	switch t := t.(type) {
	case *ir.BoolType:
		return TagBoolean
	case *ir.CharType:
		return TagString
	case *ir.NumberType, *ir.EnumType:
		return TagNumber
	case *ir.RecordType:
		return TagObject
	case *ir.FunctionType:
		return TagFunction
	case *ir.PointerType, *ir.ArrayType:
		switch shapeOf(mod, t) {
		case shapeString:
			return TagString
		case shapeBuffer:
			return TagTypedArray
		case shapeRecordPtr:
			return TagObject
		case shapeCallback:
			return TagFunction
		}
	}
	return TagAny
}

// Nullable reports whether null is accepted in place of a value of type t.
func Nullable(mod *ir.Module, t ir.Type) bool {
	return shapeOf(mod, t) == shapeBuffer
}

// shape is the marshalling strategy for an indirect type.
type shape int

const (
	shapeNone shape = iota
	shapeString
	shapeBuffer
	shapeRecordPtr
	shapeCallback
	shapeUnsupported
)

func shapeOf(mod *ir.Module, t ir.Type) shape {
	var final ir.Type
	var depth int
	switch t.(type) {
	case *ir.PointerType, *ir.ArrayType:
		final, depth = ir.Terminal(t)
	default:
		return shapeNone
	}
	switch final.(type) {
	case *ir.FunctionType:
		if _, ok := t.(*ir.PointerType); ok && depth == 1 {
			return shapeCallback
		}
		return shapeUnsupported
	}
	if depth != 1 {
		// Multi-dimensional numeric arrays flatten into one buffer.
		if _, _, length := ir.ArrayChain(t); length > 0 && depth > 1 {
			if _, ok := ElementTagOf(final); ok && isArrayChain(t) {
				return shapeBuffer
			}
		}
		return shapeUnsupported
	}
	switch final := final.(type) {
	case *ir.CharType:
		if final.Width == 1 {
			return shapeString
		}
	case *ir.NumberType, *ir.EnumType, *ir.BoolType:
		if _, ok := ElementTagOf(final); ok {
			return shapeBuffer
		}
	case *ir.RecordType:
		if _, ok := t.(*ir.PointerType); ok && mod.Record(final.Ref) != nil {
			return shapeRecordPtr
		}
	}
	return shapeUnsupported
}

func isArrayChain(t ir.Type) bool {
	for {
		a, ok := t.(*ir.ArrayType)
		if !ok {
			_, isPtr := t.(*ir.PointerType)
			return !isPtr
		}
		t = a.Elem
	}
}

// bufferElem returns the element type and static element count of a buffer
// shaped type. count is 0 for pointers and incomplete arrays.
func bufferElem(t ir.Type) (elem ir.Type, count int) {
	if _, ok := t.(*ir.ArrayType); ok {
		final, _, length := ir.ArrayChain(t)
		return final, length
	}
	elem, _ = ir.Indirection(t)
	return elem, 0
}
