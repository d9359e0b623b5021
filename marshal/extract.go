// Package marshal synthesizes the conversion steps between script values and
// native values. Its output is a runtime-neutral list of ops per handler;
// the jerry package renders them to C and internal/bindtest executes them.
package marshal

import (
	"strings"

	"github.com/broady/bindgen/ir"
)

// Synthesizer builds extraction and wrap ops for the types of one module.
// It holds no per-declaration state and is safe for concurrent use.
type Synthesizer struct {
	Module *ir.Module

	// PropertyName maps a record field name to its script property name.
	// Nil keeps field names as declared.
	PropertyName func(string) string

	// Reserved names are never handed out as handler locals, on top of
	// HandlerNames. Renderers put language keywords and the library
	// functions their output calls here.
	Reserved []string
}

// NewSynthesizer returns a synthesizer for mod.
func NewSynthesizer(mod *ir.Module) *Synthesizer {
	return &Synthesizer{Module: mod}
}

// Context returns a handler context that also reserves s.Reserved.
func (s *Synthesizer) Context(callable, owner string, globals *Scope, reserved ...string) *Context {
	return NewContext(callable, owner, globals, append(reserved, s.Reserved...)...)
}

func (s *Synthesizer) property(name string) string {
	if s.PropertyName == nil {
		return name
	}
	return s.PropertyName(name)
}

// Extraction is the result of converting one script value.
type Extraction struct {
	// Local is the native local holding the converted value.
	Local string

	// Arg is the expression passed to the callee: Local, its address for
	// record pointers, or its dereference for class-bound records.
	Arg string

	// Check validates the script value and runs before any extraction.
	Check []Op

	// Ops declares locals, then converts.
	Ops []Op

	// Cleanup runs after the call.
	Cleanup []Op

	Trampolines []*Trampoline
	Warnings    []ir.Warning
}

// Extract converts the script value held in value into a new local named
// after the context path.
func (s *Synthesizer) Extract(t ir.Type, value string, ctx *Context) *Extraction {
	w0, t0 := len(ctx.diag.warnings), len(ctx.diag.trampolines)
	name := ctx.Path()
	if name == "" {
		name = "arg"
	}
	local := ctx.Scope.Reserve(name)

	b := &extraction{}
	conv, arg := s.extract(b, t, value, local, ctx)

	return &Extraction{
		Local:       local,
		Arg:         arg,
		Check:       s.check(t, value, ctx),
		Ops:         append(b.decls, conv...),
		Cleanup:     b.cleanup,
		Trampolines: ctx.diag.trampolines[t0:],
		Warnings:    ctx.diag.warnings[w0:],
	}
}

// check returns the validation ops for a top-level argument.
func (s *Synthesizer) check(t ir.Type, value string, ctx *Context) []Op {
	tag := TagOf(s.Module, t)
	if tag == TagAny {
		return nil
	}
	ops := []Op{CheckType{Callable: ctx.Callable, Value: value, Tag: tag, Nullable: Nullable(s.Module, t)}}
	if rec := s.classRecord(t); rec != nil {
		ops = append(ops, CheckNative{Callable: ctx.Callable, Value: value, Record: rec})
	}
	return ops
}

// classRecord returns the class-bound record behind t or a pointer to it.
func (s *Synthesizer) classRecord(t ir.Type) *ir.RecordDecl {
	if p, ok := t.(*ir.PointerType); ok {
		t = p.Elem
	}
	rt, ok := t.(*ir.RecordType)
	if !ok {
		return nil
	}
	if rec := s.Module.Record(rt.Ref); rec != nil && rec.IsClass() {
		return rec
	}
	return nil
}

// extraction accumulates hoisted declarations and cleanups while the
// conversion ops are returned to the caller, which may nest them in a
// Guard.
type extraction struct {
	decls   []Op
	cleanup []Op
}

func (b *extraction) declare(name string, t ir.Type) {
	b.decls = append(b.decls, Declare{Name: name, Type: t})
}

// extract converts value into dest, which the function declares. It
// returns the conversion ops and the argument expression for dest.
func (s *Synthesizer) extract(b *extraction, t ir.Type, value, dest string, ctx *Context) ([]Op, string) {
	switch t := t.(type) {
	case *ir.BoolType:
		b.declare(dest, t)
		return []Op{ExtractBool{Dest: dest, Value: value}}, dest

	case *ir.CharType:
		b.declare(dest, t)
		return []Op{ExtractChar{Dest: dest, Value: value}}, dest

	case *ir.NumberType, *ir.EnumType:
		b.declare(dest, t)
		return []Op{ExtractNumber{Dest: dest, Value: value, Type: t}}, dest

	case *ir.RecordType:
		rec := s.Module.Record(t.Ref)
		if rec == nil {
			return s.placeholder(b, t, dest, ctx), dest
		}
		if rec.IsClass() {
			b.declare(dest, ir.Pointer(t))
			return []Op{ExtractNative{Dest: dest, Value: value, Record: rec}}, "*" + dest
		}
		return s.extractRecord(b, t, rec, value, dest, ctx), dest

	case *ir.PointerType, *ir.ArrayType:
		return s.extractIndirect(b, t, value, dest, ctx)

	case *ir.FunctionType:
		ptr := ir.WithSpelling(ir.Pointer(t), pointerTo(t.Spelling()))
		return s.extractCallback(b, ptr, t, value, dest, ctx)
	}
	return s.placeholder(b, t, dest, ctx), dest
}

func (s *Synthesizer) extractIndirect(b *extraction, t ir.Type, value, dest string, ctx *Context) ([]Op, string) {
	switch shapeOf(s.Module, t) {
	case shapeString:
		elem, _ := bufferElem(t)
		b.declare(dest, ir.Pointer(elem))
		b.cleanup = append(b.cleanup, Free{Name: dest})
		return []Op{ExtractString{Dest: dest, Value: value}}, dest

	case shapeBuffer:
		elem, _ := bufferElem(t)
		b.decls = append(b.decls, Declare{Name: dest, Type: ir.Pointer(elem), Buffer: true})
		if !elem.Const() {
			b.cleanup = append(b.cleanup, CopyBack{Name: dest, Value: value})
		}
		b.cleanup = append(b.cleanup, Free{Name: dest})
		return []Op{ExtractBuffer{Dest: dest, Value: value, Elem: elem}}, dest

	case shapeRecordPtr:
		rt := t.(*ir.PointerType).Elem.(*ir.RecordType)
		rec := s.Module.Record(rt.Ref)
		if rec.IsClass() {
			b.declare(dest, t)
			return []Op{ExtractNative{Dest: dest, Value: value, Record: rec}}, dest
		}
		return s.extractRecord(b, rt, rec, value, dest, ctx), "&" + dest

	case shapeCallback:
		fn := t.(*ir.PointerType).Elem.(*ir.FunctionType)
		return s.extractCallback(b, t, fn, value, dest, ctx)
	}
	return s.placeholder(b, t, dest, ctx), dest
}

// extractRecord converts a plain object field by field. Each field is read
// once; a field whose property is missing or mistyped stays zero. Unions
// take only their first field.
func (s *Synthesizer) extractRecord(b *extraction, t *ir.RecordType, rec *ir.RecordDecl, value, dest string, ctx *Context) []Op {
	ctx, ok := ctx.enter(rec)
	if !ok {
		return s.placeholder(b, t, dest, ctx)
	}
	b.declare(dest, t)
	fields := rec.Fields
	if rec.Tag == ir.TagUnion && len(fields) > 1 {
		fields = fields[:1]
	}

	var ops []Op
	for i, f := range fields {
		fctx := ctx.At(f.Name)
		lvalue := dest + "." + f.Name
		local := ctx.Scope.Reserve(fieldLocal(dest, i, f.Name))
		prop := ctx.Scope.Reserve(local + "_value")

		var body []Op
		tag := TagOf(s.Module, f.Type)
		switch {
		case tag == TagAny || s.classRecord(f.Type) != nil || s.recursive(f.Type, ctx):
			s.placeholderField(f.Type, fctx)
			continue
		case isCharArray(f.Type):
			body = []Op{ExtractString{Dest: lvalue, Value: prop, Size: arraySize(f.Type)}}
		case isFixedBuffer(s.Module, f.Type):
			elem, count := bufferElem(f.Type)
			body = []Op{ExtractBuffer{Dest: lvalue, Value: prop, Elem: elem, Size: count}}
		default:
			conv, arg := s.extract(b, f.Type, prop, local, fctx)
			body = append(conv, Assign{Dest: lvalue, From: arg})
		}

		b.decls = append(b.decls, Declare{Name: prop})
		ops = append(ops,
			GetProperty{Dest: prop, Object: value, Name: s.property(f.Name)},
			Guard{Value: prop, Tag: tag, Body: body},
		)
		b.cleanup = append(b.cleanup, Release{Name: prop})
	}
	return ops
}

func (s *Synthesizer) extractCallback(b *extraction, ptr ir.Type, fn *ir.FunctionType, value, dest string, ctx *Context) ([]Op, string) {
	tr := s.trampoline(fn, ctx)
	if tr == nil {
		b.decls = append(b.decls, Placeholder{Dest: dest, Type: ptr})
		return nil, dest
	}
	b.declare(dest, ptr)
	return []Op{ExtractCallback{Dest: dest, Value: value, Trampoline: tr}}, dest
}

// placeholder declares a zero-valued local for an unsupported type and
// records the warning.
func (s *Synthesizer) placeholder(b *extraction, t ir.Type, dest string, ctx *Context) []Op {
	ctx.unsupported(t)
	b.decls = append(b.decls, Placeholder{Dest: dest, Type: t})
	return nil
}

// placeholderField records the warning for a record field left zero.
func (s *Synthesizer) placeholderField(t ir.Type, ctx *Context) {
	ctx.unsupported(t)
}

// recursive reports whether t is a record, or a pointer to one, that is
// already being converted in ctx. Such fields are left zero.
func (s *Synthesizer) recursive(t ir.Type, ctx *Context) bool {
	if p, ok := t.(*ir.PointerType); ok {
		t = p.Elem
	}
	rt, ok := t.(*ir.RecordType)
	if !ok {
		return false
	}
	rec := s.Module.Record(rt.Ref)
	return rec != nil && ctx.converting(rec)
}

func isCharArray(t ir.Type) bool {
	a, ok := t.(*ir.ArrayType)
	if !ok || a.Size == 0 {
		return false
	}
	c, ok := a.Elem.(*ir.CharType)
	return ok && c.Width == 1
}

func arraySize(t ir.Type) int {
	if a, ok := t.(*ir.ArrayType); ok {
		return a.Size
	}
	return 0
}

// isFixedBuffer reports whether t is a numeric array with a static length,
// which converts in place instead of through an allocation.
func isFixedBuffer(mod *ir.Module, t ir.Type) bool {
	if _, ok := t.(*ir.ArrayType); !ok {
		return false
	}
	_, count := bufferElem(t)
	return count > 0 && shapeOf(mod, t) == shapeBuffer
}

// pointerTo spells a pointer to a function type: "int (int)" becomes
// "int (*)(int)".
func pointerTo(fn string) string {
	i := strings.Index(fn, "(")
	if i < 0 {
		return fn + " *"
	}
	return fn[:i] + "(*)" + fn[i:]
}
