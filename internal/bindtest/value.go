// Package bindtest executes synthesized handler plans against simulated
// script values and fake native functions, so conversion behavior can be
// tested without compiling the generated C.
package bindtest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// Kind is the runtime type of a script value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
	KindFunction
	KindTypedArray
)

// Func is a script function. this is undefined for callbacks.
type Func func(this Value, args []Value) Value

// Object is a plain or class-bound script object.
type Object struct {
	Props map[string]Value

	// Native and Class are set for objects bound to a native instance.
	Native any
	Class  *ir.RecordDecl
}

// TypedArray holds its elements as float64 regardless of the element type.
type TypedArray struct {
	Elem marshal.ElementTag
	Data []float64
}

// Value is a script value.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	obj  *Object
	arr  *TypedArray
	fn   Func
}

func Undefined() Value         { return Value{} }
func Null() Value              { return Value{kind: KindNull} }
func Bool(b bool) Value        { return Value{kind: KindBoolean, b: b} }
func Number(n float64) Value   { return Value{kind: KindNumber, n: n} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func Function(fn Func) Value   { return Value{kind: KindFunction, fn: fn} }
func ObjectOf(o *Object) Value { return Value{kind: KindObject, obj: o} }

// NewObject returns a plain object with the given properties.
func NewObject(props map[string]Value) Value {
	if props == nil {
		props = make(map[string]Value)
	}
	return ObjectOf(&Object{Props: props})
}

// NewTypedArray returns a typed array holding data.
func NewTypedArray(elem marshal.ElementTag, data ...float64) Value {
	return Value{kind: KindTypedArray, arr: &TypedArray{Elem: elem, Data: data}}
}

func (v Value) Kind() Kind              { return v.kind }
func (v Value) IsNull() bool            { return v.kind == KindNull }
func (v Value) IsUndefined() bool       { return v.kind == KindUndefined }
func (v Value) Bool() bool              { return v.b }
func (v Value) Number() float64         { return v.n }
func (v Value) Str() string             { return v.s }
func (v Value) Object() *Object         { return v.obj }
func (v Value) TypedArray() *TypedArray { return v.arr }
func (v Value) Func() Func              { return v.fn }

// Get returns a property of an object, or undefined.
func (v Value) Get(name string) Value {
	if v.obj == nil {
		return Undefined()
	}
	return v.obj.Props[name]
}

// Keys returns the property names of an object, sorted.
func (v Value) Keys() []string {
	if v.obj == nil {
		return nil
	}
	keys := make([]string, 0, len(v.obj.Props))
	for k := range v.obj.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tag returns the most specific tag of v. Typed arrays and functions are
// also objects; see Is.
func (v Value) Tag() marshal.Tag {
	switch v.kind {
	case KindNull:
		return marshal.TagNull
	case KindBoolean:
		return marshal.TagBoolean
	case KindNumber:
		return marshal.TagNumber
	case KindString:
		return marshal.TagString
	case KindObject:
		return marshal.TagObject
	case KindFunction:
		return marshal.TagFunction
	case KindTypedArray:
		return marshal.TagTypedArray
	}
	return marshal.TagUndefined
}

// Is reports whether v passes the runtime's predicate for tag.
func (v Value) Is(tag marshal.Tag) bool {
	switch tag {
	case marshal.TagAny:
		return true
	case marshal.TagObject:
		return v.kind == KindObject || v.kind == KindFunction || v.kind == KindTypedArray
	}
	return v.Tag() == tag
}

// truthy is the script's boolean conversion.
func (v Value) truthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindNumber:
		return v.n != 0 && v.n == v.n
	case KindString:
		return v.s != ""
	case KindObject, KindFunction, KindTypedArray:
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindFunction:
		return "function"
	case KindTypedArray:
		return fmt.Sprintf("%s%v", v.arr.Elem, v.arr.Data)
	}
	var b strings.Builder
	b.WriteString("{")
	for i, k := range v.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, v.obj.Props[k])
	}
	b.WriteString("}")
	if v.obj.Class != nil {
		return v.obj.Class.Name + b.String()
	}
	return b.String()
}

// ScriptError is an error value a handler returned instead of a result.
type ScriptError struct {
	// Type is "TypeError" or "Error".
	Type    string
	Message string
}

func (e *ScriptError) Error() string {
	return e.Type + ": " + e.Message
}

func typeError(format string, args ...any) *ScriptError {
	return &ScriptError{Type: "TypeError", Message: fmt.Sprintf(format, args...)}
}
