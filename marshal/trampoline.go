package marshal

import (
	"fmt"

	"github.com/broady/bindgen/ir"
)

// Trampoline is a native function standing in for a script callback. The
// script function is kept in a file-level slot; the trampoline wraps its
// native arguments, calls the slot, and extracts the result.
type Trampoline struct {
	// Name is the native function. Slot is the global holding the script
	// function.
	Name string
	Slot string

	Type   *ir.FunctionType
	Params []string

	// Body runs inside the trampoline and ends with a Return when the
	// callback has a result.
	Body []Op
}

// trampoline builds the trampoline for one callback-typed value. It returns
// nil when the signature has no conversion, after recording a warning.
func (s *Synthesizer) trampoline(fn *ir.FunctionType, ctx *Context) *Trampoline {
	if !s.callbackResultSupported(fn.Result) {
		ctx.unsupported(fn.Result)
		return nil
	}

	base := ctx.Owner
	if p := ctx.Path(); p != "" {
		base += "_" + p
	}
	tr := &Trampoline{
		Name: ctx.Globals.Reserve(base + "_trampoline"),
		Slot: ctx.Globals.Reserve(base + "_js_function"),
		Type: fn,
	}

	// The trampoline body is its own C function.
	tctx := &Context{
		Callable: ctx.Callable,
		Owner:    ctx.Owner,
		Scope:    NewScope("args", "this_val", "result"),
		Globals:  ctx.Globals,
		path:     ctx.path,
		diag:     ctx.diag,
		records:  ctx.records,
	}

	var decls, wraps, releases []Op
	var args []string
	for i, pt := range fn.Params {
		name := tctx.Scope.Reserve(fmt.Sprintf("arg_%d", i))
		js := tctx.Scope.Reserve(name + "_js")
		tr.Params = append(tr.Params, name)
		decls = append(decls, Declare{Name: js})
		wraps = append(wraps, s.Wrap(pt, name, js, tctx.At(name))...)
		releases = append(releases, Release{Name: js})
		args = append(args, js)
	}

	decls = append(decls, Declare{Name: "result"})
	body := append(decls, wraps...)
	body = append(body, CallScript{Function: tr.Slot, Args: args, Result: "result"})

	var ret []Op
	if _, void := fn.Result.(*ir.VoidType); !void {
		b := &extraction{}
		local := tctx.Scope.Reserve("ret")
		conv, arg := s.extract(b, fn.Result, "result", local, tctx.At("result"))
		body = append(body, b.decls...)
		body = append(body, Guard{Value: "result", Tag: TagOf(s.Module, fn.Result), Body: conv})
		body = append(body, b.cleanup...)
		ret = []Op{Return{Value: arg}}
	}

	body = append(body, releases...)
	body = append(body, Release{Name: "result"})
	tr.Body = append(body, ret...)

	ctx.diag.trampolines = append(ctx.diag.trampolines, tr)
	return tr
}

// callbackResultSupported reports whether a callback result can be
// extracted into a value the trampoline returns by value. Pointers, at any
// depth, would outlive the storage they point into.
func (s *Synthesizer) callbackResultSupported(t ir.Type) bool {
	switch t := t.(type) {
	case *ir.VoidType, *ir.BoolType, *ir.CharType, *ir.NumberType, *ir.EnumType:
		return true
	case *ir.RecordType:
		rec := s.Module.Record(t.Ref)
		if rec == nil || rec.IsClass() {
			return false
		}
		for _, f := range rec.Fields {
			if isCharArray(f.Type) || isFixedBuffer(s.Module, f.Type) {
				continue
			}
			if _, void := f.Type.(*ir.VoidType); void || !s.callbackResultSupported(f.Type) {
				return false
			}
		}
		return true
	}
	return false
}
