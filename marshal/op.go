package marshal

import (
	"github.com/broady/bindgen/ir"
)

// Op is one step of a handler body. The set is closed; renderers and the
// test simulator switch over it exhaustively.
//
// Names in ops are C lvalue expressions: locals, "args_p[1]", or field
// accesses such as "p.origin". Script values and native values live in
// disjoint locals.
type Op interface {
	op()
}

// Declare introduces a zero-initialized local at handler scope. A nil Type
// declares a script value initialized to undefined. Buffer also declares
// the "<Name>_byte_length" companion that ExtractBuffer fills in.
type Declare struct {
	Name   string
	Type   ir.Type
	Buffer bool
}

// CheckArgCount fails the call unless exactly Want arguments were passed.
type CheckArgCount struct {
	Callable string
	Want     int
}

// CheckType fails the call unless Value carries Tag, or is null when
// Nullable is set.
type CheckType struct {
	Callable string
	Value    string
	Tag      Tag
	Nullable bool
}

// CheckNative fails the call unless Value carries a native pointer bound to
// Record's class.
type CheckNative struct {
	Callable string
	Value    string
	Record   *ir.RecordDecl
}

// ExtractBool converts a boolean.
type ExtractBool struct {
	Dest, Value string
}

// ExtractChar takes the first byte of a string.
type ExtractChar struct {
	Dest, Value string
}

// ExtractNumber converts a number, casting to Type.
type ExtractNumber struct {
	Dest, Value string
	Type        ir.Type
}

// ExtractString copies a string into native memory. Size > 0 copies at most
// Size-1 bytes into the existing char array Dest and terminates it; Size 0
// allocates Dest, which a Free in cleanup releases.
type ExtractString struct {
	Dest, Value string
	Size        int
}

// ExtractBuffer copies a typed array's bytes into native memory. Size > 0
// fills the existing array Dest in place, truncating to its Size elements.
// Size 0 allocates Dest and records the byte length; a null Value leaves
// Dest NULL.
type ExtractBuffer struct {
	Dest, Value string
	Elem        ir.Type
	Size        int
}

// ExtractCallback stores the script function in the trampoline's slot and
// points Dest at the trampoline.
type ExtractCallback struct {
	Dest, Value string
	Trampoline  *Trampoline
}

// ExtractNative loads the native pointer of a class-bound object into Dest,
// which has pointer-to-record type.
type ExtractNative struct {
	Dest, Value string
	Record      *ir.RecordDecl
}

// GetProperty reads property Name of Object into the script value Dest.
type GetProperty struct {
	Dest, Object, Name string
}

// SetProperty stores Value as property Name of Object.
type SetProperty struct {
	Object, Name, Value string
}

// Guard runs Body only when Value carries Tag.
type Guard struct {
	Value string
	Tag   Tag
	Body  []Op
}

// Assign copies a native value.
type Assign struct {
	Dest, From string
}

// CallKind selects how a Call reaches its target.
type CallKind int

const (
	CallFunction CallKind = iota
	CallMethod
	CallStatic
	CallNew
)

// Call invokes the native target. Result, when set, names the local that
// receives the return value: declared with ResultType for functions and
// methods, assigned for CallNew.
type Call struct {
	Kind       CallKind
	Callee     string
	Receiver   string // CallMethod: pointer expression; CallStatic: class spelling
	Args       []string
	Result     string
	ResultType ir.Type
}

// CallScript invokes the script function held in Function with Args and an
// undefined this value.
type CallScript struct {
	Function string
	Args     []string
	Result   string
}

// CopyBack writes a native buffer back into the typed array it was
// extracted from.
type CopyBack struct {
	Name, Value string
}

// Free releases native memory allocated during extraction.
type Free struct {
	Name string
}

// Release drops a script value reference.
type Release struct {
	Name string
}

// Return ends a trampoline with a native value.
type Return struct {
	Value string
}

// WrapUndefined sets Dest to undefined.
type WrapUndefined struct {
	Dest string
}

// WrapBool converts a native boolean.
type WrapBool struct {
	Dest, From string
}

// WrapChar converts a single char to a one character string.
type WrapChar struct {
	Dest, From string
}

// WrapNumber converts a native number or enum.
type WrapNumber struct {
	Dest, From string
	Type       ir.Type
}

// WrapString converts a NUL-terminated char pointer, or null for NULL.
// Array is set when From is a char array and cannot be NULL.
type WrapString struct {
	Dest, From string
	Array      bool
}

// WrapBuffer copies Count elements at From into a new typed array, or sets
// null when From is NULL.
type WrapBuffer struct {
	Dest, From string
	Elem       ir.Type
	Count      int
	Array      bool
}

// WrapRecord creates an empty object for field-wise conversion; SetProperty
// ops fill it in.
type WrapRecord struct {
	Dest   string
	Record *ir.RecordDecl
}

// WrapNative copies From into a heap instance and binds it to a new object
// of Record's class. Pointer is set when From is already a pointer.
type WrapNative struct {
	Dest, From string
	Record     *ir.RecordDecl
	Pointer    bool
}

// WrapNullable sets Dest to null when the native pointer From is NULL and
// runs Body otherwise.
type WrapNullable struct {
	Dest, From string
	Body       []Op
}

// Placeholder marks a value of a type with no marshalling strategy. For
// extraction Dest is a zero-initialized native local; with Wrap set Dest is
// a script value set to undefined.
type Placeholder struct {
	Dest string
	Type ir.Type
	Wrap bool
}

func (Declare) op()         {}
func (CheckArgCount) op()   {}
func (CheckType) op()       {}
func (CheckNative) op()     {}
func (ExtractBool) op()     {}
func (ExtractChar) op()     {}
func (ExtractNumber) op()   {}
func (ExtractString) op()   {}
func (ExtractBuffer) op()   {}
func (ExtractCallback) op() {}
func (ExtractNative) op()   {}
func (GetProperty) op()     {}
func (SetProperty) op()     {}
func (Guard) op()           {}
func (Assign) op()          {}
func (Call) op()            {}
func (CallScript) op()      {}
func (CopyBack) op()        {}
func (Free) op()            {}
func (Release) op()         {}
func (Return) op()          {}
func (WrapUndefined) op()   {}
func (WrapBool) op()        {}
func (WrapChar) op()        {}
func (WrapNumber) op()      {}
func (WrapString) op()      {}
func (WrapBuffer) op()      {}
func (WrapRecord) op()      {}
func (WrapNative) op()      {}
func (WrapNullable) op()    {}
func (Placeholder) op()     {}
