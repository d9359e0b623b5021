// Package ir defines the intermediate representation for native declarations.
// Types are canonical (typedef-resolved) tagged variants; generators switch
// on the concrete type and must handle every variant, including
// UnsupportedType.
package ir

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a Type.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindChar
	KindNumber
	KindEnum
	KindPointer
	KindArray
	KindRecord
	KindFunction
	KindUnsupported
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindBool:
		return "Bool"
	case KindChar:
		return "Char"
	case KindNumber:
		return "Number"
	case KindEnum:
		return "Enum"
	case KindPointer:
		return "Pointer"
	case KindArray:
		return "Array"
	case KindRecord:
		return "Record"
	case KindFunction:
		return "Function"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Type is a canonical, qualifier-resolved native type.
type Type interface {
	// Kind returns the variant for type switching.
	Kind() Kind

	// Spelling is the surface spelling, used verbatim in emitted native code.
	Spelling() string

	// Const reports whether the type is const-qualified.
	Const() bool

	base() typeBase
}

type typeBase struct {
	spelling string
	isConst  bool

	// canonical is the typedef-resolved spelling, kept for const types
	// whose surface spelling hides the qualifier, such as a typedef of
	// "const int".
	canonical string
}

func (b typeBase) Spelling() string { return b.spelling }
func (b typeBase) Const() bool      { return b.isConst }
func (b typeBase) base() typeBase   { return b }

// VoidType is the absence of a value.
type VoidType struct{ typeBase }

func (*VoidType) Kind() Kind { return KindVoid }

// BoolType is _Bool or bool.
type BoolType struct{ typeBase }

func (*BoolType) Kind() Kind { return KindBool }

// CharType is a character type. Width is in bytes: 1 for char, 2 for
// char16_t, 4 for char32_t and wchar_t.
type CharType struct {
	typeBase
	Width int
}

func (*CharType) Kind() Kind { return KindChar }

// NumberType is an integer or floating point type.
type NumberType struct {
	typeBase
	Repr NumberRepr
}

func (*NumberType) Kind() Kind { return KindNumber }

// EnumType refers to an enum declaration by name.
type EnumType struct {
	typeBase
	Name string
}

func (*EnumType) Kind() Kind { return KindEnum }

// PointerType points to a single element.
type PointerType struct {
	typeBase
	Elem Type
}

func (*PointerType) Kind() Kind { return KindPointer }

// ArrayType is a fixed array. Size 0 marks an incomplete array.
type ArrayType struct {
	typeBase
	Elem Type
	Size int
}

func (*ArrayType) Kind() Kind { return KindArray }

// RecordType refers to a struct, union, or class declaration.
type RecordType struct {
	typeBase
	Ref RecordID
}

func (*RecordType) Kind() Kind { return KindRecord }

// FunctionType is a function signature.
type FunctionType struct {
	typeBase
	Result Type
	Params []Type
}

func (*FunctionType) Kind() Kind { return KindFunction }

// UnsupportedType marks a shape with no marshalling strategy. Name holds the
// surface spelling for diagnostics.
type UnsupportedType struct {
	typeBase
	Name string
}

func (*UnsupportedType) Kind() Kind { return KindUnsupported }

// Void returns the void type.
func Void() *VoidType {
	return &VoidType{typeBase{spelling: "void"}}
}

// Bool returns a boolean type with the given spelling.
func Bool(spelling string) *BoolType {
	return &BoolType{typeBase{spelling: spelling}}
}

// Char returns a character type.
func Char(spelling string, width int) *CharType {
	return &CharType{typeBase: typeBase{spelling: spelling}, Width: width}
}

// Number returns a numeric type.
func Number(spelling string, repr NumberRepr) *NumberType {
	return &NumberType{typeBase: typeBase{spelling: spelling}, Repr: repr}
}

// Enum returns a reference to the named enum.
func Enum(spelling, name string) *EnumType {
	return &EnumType{typeBase: typeBase{spelling: spelling}, Name: name}
}

// Pointer returns a pointer to elem. The spelling is derived from elem's.
func Pointer(elem Type) *PointerType {
	return &PointerType{typeBase: typeBase{spelling: elem.Spelling() + " *"}, Elem: elem}
}

// Array returns a fixed array of elem.
func Array(elem Type, size int) *ArrayType {
	spelling := elem.Spelling() + " []"
	if size > 0 {
		spelling = fmt.Sprintf("%s [%d]", elem.Spelling(), size)
	}
	return &ArrayType{typeBase: typeBase{spelling: spelling}, Elem: elem, Size: size}
}

// Record returns a reference to a record declaration.
func Record(spelling string, ref RecordID) *RecordType {
	return &RecordType{typeBase: typeBase{spelling: spelling}, Ref: ref}
}

// Function returns a function type.
func Function(spelling string, result Type, params ...Type) *FunctionType {
	return &FunctionType{typeBase: typeBase{spelling: spelling}, Result: result, Params: params}
}

// Unsupported returns the sentinel for a type with no marshalling strategy.
func Unsupported(name string) *UnsupportedType {
	return &UnsupportedType{typeBase: typeBase{spelling: name}, Name: name}
}

// WithSpelling returns a shallow copy of t carrying a different spelling.
func WithSpelling(t Type, spelling string) Type {
	b := t.base()
	b.spelling = spelling
	return requalify(t, b)
}

// WithConst returns a shallow copy of t with the const qualifier set.
func WithConst(t Type, isConst bool) Type {
	b := t.base()
	b.isConst = isConst
	return requalify(t, b)
}

// WithCanonical returns a shallow copy of t that remembers the
// typedef-resolved spelling, for Unqualified.
func WithCanonical(t Type, spelling string) Type {
	b := t.base()
	b.canonical = spelling
	return requalify(t, b)
}

// Unqualified spells t without its top-level const, for declaring a local
// that is assigned after its declaration. A const typedef such as "cint"
// spells as its canonical type, "int".
func Unqualified(t Type) string {
	b := t.base()
	if !b.isConst {
		return b.spelling
	}
	s := b.spelling
	if b.canonical != "" {
		s = b.canonical
	}
	if t.Kind() == KindPointer {
		return strings.TrimSpace(strings.TrimSuffix(s, "const"))
	}
	return strings.TrimPrefix(s, "const ")
}

func requalify(t Type, b typeBase) Type {
	switch t := t.(type) {
	case *VoidType:
		return &VoidType{b}
	case *BoolType:
		return &BoolType{b}
	case *CharType:
		return &CharType{typeBase: b, Width: t.Width}
	case *NumberType:
		return &NumberType{typeBase: b, Repr: t.Repr}
	case *EnumType:
		return &EnumType{typeBase: b, Name: t.Name}
	case *PointerType:
		return &PointerType{typeBase: b, Elem: t.Elem}
	case *ArrayType:
		return &ArrayType{typeBase: b, Elem: t.Elem, Size: t.Size}
	case *RecordType:
		return &RecordType{typeBase: b, Ref: t.Ref}
	case *FunctionType:
		return &FunctionType{typeBase: b, Result: t.Result, Params: t.Params}
	case *UnsupportedType:
		return &UnsupportedType{typeBase: b, Name: t.Name}
	default:
		panic("ir: unknown type variant")
	}
}

// IsScalar reports whether t converts with a single check and statement.
func IsScalar(t Type) bool {
	switch t.Kind() {
	case KindBool, KindChar, KindNumber, KindEnum:
		return true
	}
	return false
}
