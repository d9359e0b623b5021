package marshal

import (
	"fmt"

	"github.com/broady/bindgen/ir"
)

// RetVal is the script value every handler returns.
const RetVal = "ret_val"

// NativePtr is the receiver local of class handlers.
const NativePtr = "native_ptr"

// Plan is one handler body: count check, type checks, extraction, call,
// cleanup, then the result wrap into RetVal.
type Plan struct {
	Callable string

	// ArgCount is the exact argument count required, or -1 when the caller
	// has already dispatched on the count.
	ArgCount int

	Checks  []Op
	Ops     []Op
	Call    *Call
	Cleanup []Op
	Wrap    []Op

	Trampolines []*Trampoline
	Warnings    []ir.Warning
}

// Body returns every op in execution order, starting with the count check.
func (p *Plan) Body() []Op {
	var out []Op
	if p.ArgCount >= 0 {
		out = append(out, CheckArgCount{Callable: p.Callable, Want: p.ArgCount})
	}
	out = append(out, p.Checks...)
	out = append(out, p.Ops...)
	if p.Call != nil {
		out = append(out, *p.Call)
	}
	out = append(out, p.Cleanup...)
	return append(out, p.Wrap...)
}

// Supported reports whether every part of the plan has a conversion.
func (p *Plan) Supported() bool {
	return len(p.Warnings) == 0
}

// Target names what a plan calls.
type Target struct {
	Kind     CallKind
	Callee   string
	Receiver string
}

// Candidate builds the plan for one parameter list. Arguments are read from
// args_p[i]. A nil result means the call produces nothing to wrap.
func (s *Synthesizer) Candidate(target Target, params []ir.Param, result ir.Type, ctx *Context) *Plan {
	p := &Plan{Callable: ctx.Callable, ArgCount: len(params)}
	w0, t0 := len(ctx.diag.warnings), len(ctx.diag.trampolines)

	args := make([]string, 0, len(params))
	for i, prm := range params {
		x := s.Extract(prm.Type, fmt.Sprintf("args_p[%d]", i), ctx.At(prm.Name))
		p.Checks = append(p.Checks, x.Check...)
		p.Ops = append(p.Ops, x.Ops...)
		p.Cleanup = append(p.Cleanup, x.Cleanup...)
		args = append(args, x.Arg)
	}

	call := &Call{Kind: target.Kind, Callee: target.Callee, Receiver: target.Receiver, Args: args}
	switch {
	case target.Kind == CallNew:
		call.Result = NativePtr
	case result == nil || isVoidType(result):
	case TagOf(s.Module, result) == TagAny:
		// Called for its effect; the result cannot be declared.
		p.Wrap = s.Wrap(result, "", RetVal, ctx.At("result"))
	default:
		call.Result = ctx.Scope.Reserve("result")
		call.ResultType = result
		p.Wrap = s.Wrap(result, call.Result, RetVal, ctx.At("result"))
	}
	p.Call = call
	p.Trampolines = ctx.diag.trampolines[t0:]
	p.Warnings = ctx.diag.warnings[w0:]
	return p
}

// Function builds the handler plan of a C function.
func (s *Synthesizer) Function(fn *ir.FunctionDecl, globals *Scope) *Plan {
	ctx := s.Context(fn.Name, fn.Name, globals, fn.Name)
	return s.Candidate(Target{Kind: CallFunction, Callee: fn.Name}, fn.Params, fn.Result, ctx)
}

// AccessorKind is how a variable or field is exposed.
type AccessorKind int

const (
	// Accessor properties call a getter and, unless read-only, a setter.
	Accessor AccessorKind = iota

	// Constant properties hold the value wrapped once at registration.
	Constant

	// TypedArray properties are views over the native array storage.
	TypedArray
)

// Accessors holds the handler plans for a variable or a class field.
type Accessors struct {
	Name string
	Kind AccessorKind

	// Lvalue is the native storage: the variable, or a field through
	// NativePtr.
	Lvalue string

	// Getter wraps the current value into RetVal. For Constant it is the
	// registration-time wrap.
	Getter *Plan

	// Setter reads args_p[0]. Nil when the value is read-only.
	Setter *Plan

	// Elem and Count describe TypedArray storage.
	Elem  ElementTag
	Count int

	Warnings []ir.Warning
}

// Variable builds the accessors of a global variable.
func (s *Synthesizer) Variable(v *ir.VariableDecl, globals *Scope) *Accessors {
	return s.accessors(v.Name, v.Name, v.Name, v.Type, v.IsConst, globals)
}

// Member builds the accessors of a public class field, reached through the
// handler's NativePtr.
func (s *Synthesizer) Member(rec *ir.RecordDecl, f ir.Field, globals *Scope) *Accessors {
	callable := rec.Name + "." + f.Name
	a := s.accessors(callable, rec.Name+"_"+f.Name, NativePtr+"->"+f.Name, f.Type, f.Type.Const(), globals)
	if a.Kind == Constant {
		// Every instance has its own storage.
		a.Kind = Accessor
	}
	return a
}

func (s *Synthesizer) accessors(callable, owner, lvalue string, t ir.Type, readOnly bool, globals *Scope) *Accessors {
	a := &Accessors{Name: owner, Lvalue: lvalue}

	if isFixedBuffer(s.Module, t) && !isCharArray(t) {
		elem, count := bufferElem(t)
		tag, _ := ElementTagOf(elem)
		a.Kind, a.Elem, a.Count = TypedArray, tag, count
		return a
	}

	getCtx := s.Context(callable, owner, globals)
	a.Getter = &Plan{Callable: callable, ArgCount: -1}
	a.Getter.Wrap = s.Wrap(t, lvalue, RetVal, getCtx)
	a.Getter.Warnings = getCtx.Warnings()
	a.Warnings = append(a.Warnings, a.Getter.Warnings...)

	if readOnly || len(a.Warnings) > 0 {
		if readOnly && ir.IsScalar(t) {
			a.Kind = Constant
		}
		return a
	}
	set := s.setter(callable, owner, lvalue, t, globals)
	a.Warnings = append(a.Warnings, set.Warnings...)
	if len(set.Warnings) == 0 {
		a.Setter = set
	}
	return a
}

// setter extracts args_p[0] and stores it. The stored value outlives the
// handler, so allocations are not freed and buffers are not copied back.
func (s *Synthesizer) setter(callable, owner, lvalue string, t ir.Type, globals *Scope) *Plan {
	ctx := s.Context(callable, owner, globals)
	p := &Plan{Callable: callable, ArgCount: -1}
	const value = "args_p[0]"

	if isCharArray(t) {
		p.Checks = []Op{CheckType{Callable: callable, Value: value, Tag: TagString}}
		p.Ops = []Op{ExtractString{Dest: lvalue, Value: value, Size: arraySize(t)}}
		return p
	}

	if shapeOf(s.Module, t) == shapeRecordPtr && s.classRecord(t) == nil {
		// The extracted record is a handler local; storing its address
		// would dangle.
		ctx.unsupported(t)
		p.Warnings = ctx.Warnings()
		return p
	}

	x := s.Extract(t, value, ctx.At("value"))
	p.Checks = x.Check
	p.Ops = append(x.Ops, Assign{Dest: lvalue, From: x.Arg})
	for _, op := range x.Cleanup {
		if r, ok := op.(Release); ok {
			p.Cleanup = append(p.Cleanup, r)
		}
	}
	p.Trampolines = ctx.Trampolines()
	p.Warnings = ctx.Warnings()
	return p
}

// Method builds the plan for one method candidate. Instance methods are
// called through NativePtr.
func (s *Synthesizer) Method(rec *ir.RecordDecl, m *ir.MethodDecl, sig ir.Signature, ctx *Context) *Plan {
	target := Target{Kind: CallMethod, Callee: m.Name, Receiver: NativePtr}
	if m.Static {
		target = Target{Kind: CallStatic, Callee: m.Name, Receiver: rec.Spelling}
	}
	return s.Candidate(target, sig.Params, sig.Result, ctx)
}

// Constructor builds the plan for one constructor candidate. The call
// assigns the new instance to NativePtr.
func (s *Synthesizer) Constructor(rec *ir.RecordDecl, sig ir.Signature, ctx *Context) *Plan {
	return s.Candidate(Target{Kind: CallNew, Callee: rec.Spelling}, sig.Params, nil, ctx)
}

func isVoidType(t ir.Type) bool {
	_, ok := t.(*ir.VoidType)
	return ok
}
