package jerry

import (
	"strings"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// localSpelling is the spelling of a writable local of type t: top-level
// const is dropped so the local can be assigned after declaration.
func localSpelling(t ir.Type) string {
	return ir.Unqualified(t)
}

// declarator spells a declaration of name with the C type spelling s.
// Function pointer and array spellings take the name inside the type:
// "int (*)(int)" declares "int (*cb)(int)".
func declarator(s, name string) string {
	if i := strings.Index(s, "(*)"); i >= 0 {
		return s[:i] + "(*" + name + ")" + s[i+3:]
	}
	if i := strings.Index(s, "["); i >= 0 {
		return strings.TrimRight(s[:i], " ") + " " + name + s[i:]
	}
	if strings.HasSuffix(s, "*") {
		return s + name
	}
	return s + " " + name
}

// zeroValue returns the initializer for a zero-valued local of type t.
func zeroValue(t ir.Type, cpp bool) string {
	switch t.(type) {
	case *ir.BoolType, *ir.CharType, *ir.NumberType:
		return "0"
	case *ir.EnumType:
		return "(" + localSpelling(t) + ") 0"
	case *ir.PointerType:
		return "NULL"
	}
	if cpp {
		return "{}"
	}
	return "{0}"
}

// isPredicate maps a tag to the runtime's jerry_value_is_* suffix.
func isPredicate(tag marshal.Tag) string {
	return string(tag)
}

// typedArrayType spells the runtime constant for an element tag.
func typedArrayType(e marshal.ElementTag) string {
	return "JERRY_TYPEDARRAY_" + string(e)
}

// elementTag returns the typed array tag for a buffer element, falling back
// to UINT8 for elements with no exact counterpart.
func elementTag(elem ir.Type) marshal.ElementTag {
	if tag, ok := marshal.ElementTagOf(elem); ok {
		return tag
	}
	return marshal.ElemUint8
}
