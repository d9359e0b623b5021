package bindtest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/broady/bindgen/dispatch"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// ErrReadOnly is returned when setting an accessor without a setter.
var ErrReadOnly = errors.New("bindtest: property is read-only")

// Sim executes handler plans. Natives are looked up by callee name:
// Functions by function name or "Class::method" for static methods,
// Methods by method name, Constructors by class spelling.
type Sim struct {
	Module *ir.Module

	Functions    map[string]func(args []any) any
	Methods      map[string]func(this *Instance, args []any) any
	Constructors map[string]func(args []any) *Instance

	// Globals holds native global variables by name.
	Globals Struct

	slots  map[string]Value
	allocs []any
}

// New returns a simulator for mod with no natives registered.
func New(mod *ir.Module) *Sim {
	return &Sim{
		Module:       mod,
		Functions:    make(map[string]func([]any) any),
		Methods:      make(map[string]func(*Instance, []any) any),
		Constructors: make(map[string]func([]any) *Instance),
		Globals:      make(Struct),
		slots:        make(map[string]Value),
	}
}

// Func registers a native function.
func (s *Sim) Func(name string, fn func(args []any) any) *Sim {
	s.Functions[name] = fn
	return s
}

// Method registers a native instance method.
func (s *Sim) Method(name string, fn func(this *Instance, args []any) any) *Sim {
	s.Methods[name] = fn
	return s
}

// Live returns allocations made during extraction that were never freed.
func (s *Sim) Live() []any {
	var out []any
	for _, a := range s.allocs {
		switch a := a.(type) {
		case *CString:
			if !a.freed {
				out = append(out, a)
			}
		case *Buffer:
			if !a.freed {
				out = append(out, a)
			}
		}
	}
	return out
}

// Run executes a handler plan called with this and args, returning the
// handler's result. Script-visible failures are *ScriptError.
func (s *Sim) Run(p *marshal.Plan, this Value, args ...Value) (Value, error) {
	f := s.frame(this, args)
	if err := f.run(p.Body()); err != nil {
		return Value{}, err
	}
	return f.script(marshal.RetVal)
}

// RunTree dispatches a call across an overload tree, then runs the chosen
// branch.
func (s *Sim) RunTree(t *dispatch.Tree, this Value, args ...Value) (Value, error) {
	b, err := selectBranch(t, args)
	if err != nil {
		return Value{}, err
	}
	return s.Run(b.Plan, this, args...)
}

// Construct runs a constructor tree and returns the new class-bound object.
func (s *Sim) Construct(t *dispatch.Tree, rec *ir.RecordDecl, args ...Value) (Value, error) {
	b, err := selectBranch(t, args)
	if err != nil {
		return Value{}, err
	}
	f := s.frame(Undefined(), args)
	if err := f.run(b.Plan.Body()); err != nil {
		return Value{}, err
	}
	inst, _ := f.locals[marshal.NativePtr].(*Instance)
	if inst == nil {
		return Value{}, fmt.Errorf("bindtest: %s constructor produced no instance", rec.Name)
	}
	return ObjectOf(&Object{Props: map[string]Value{}, Native: inst, Class: rec}), nil
}

// Get reads a variable or field through its accessors. this is the owning
// object for class fields and ignored otherwise.
func (s *Sim) Get(a *marshal.Accessors, this Value) (Value, error) {
	if a.Kind == marshal.TypedArray {
		f := s.frame(this, nil)
		v, err := f.get(a.Lvalue)
		if err != nil {
			return Value{}, err
		}
		data, _ := v.([]float64)
		return Value{kind: KindTypedArray, arr: &TypedArray{Elem: a.Elem, Data: data}}, nil
	}
	if a.Getter == nil {
		return Undefined(), nil
	}
	return s.Run(a.Getter, this)
}

// Set writes a variable or field through its accessors.
func (s *Sim) Set(a *marshal.Accessors, this, v Value) error {
	if a.Setter == nil {
		return ErrReadOnly
	}
	_, err := s.Run(a.Setter, this, v)
	return err
}

func selectBranch(t *dispatch.Tree, args []Value) (*dispatch.Branch, error) {
	tags := make([]marshal.Tag, len(args))
	for i, a := range args {
		tags[i] = a.Tag()
	}
	b, err := t.Select(tags)
	if err != nil {
		return nil, &ScriptError{Type: "TypeError", Message: err.Error()}
	}
	return b, nil
}

// frame is the local state of one handler or trampoline invocation.
type frame struct {
	sim    *Sim
	args   []Value
	locals map[string]any

	ret      any
	returned bool
}

func (s *Sim) frame(this Value, args []Value) *frame {
	f := &frame{sim: s, args: args, locals: make(map[string]any)}
	f.locals["this_val"] = this
	f.locals[marshal.RetVal] = Undefined()
	for i, a := range args {
		f.locals[fmt.Sprintf("args_p[%d]", i)] = a
	}
	if o := this.Object(); o != nil {
		if inst, ok := o.Native.(*Instance); ok {
			f.locals[marshal.NativePtr] = inst
		}
	}
	return f
}

func (f *frame) run(ops []marshal.Op) error {
	for _, op := range ops {
		if f.returned {
			return nil
		}
		if err := f.exec(op); err != nil {
			return err
		}
	}
	return nil
}

func (f *frame) exec(op marshal.Op) error {
	s := f.sim
	switch op := op.(type) {
	case marshal.Declare:
		if op.Type == nil {
			f.locals[op.Name] = Undefined()
		} else {
			f.locals[op.Name] = zero(s.Module, op.Type)
		}
		if op.Buffer {
			f.locals[op.Name+"_byte_length"] = float64(0)
		}

	case marshal.CheckArgCount:
		if len(f.args) != op.Want {
			return typeError("Wrong argument count for %s(), expected %d.", op.Callable, op.Want)
		}

	case marshal.CheckType:
		v := f.arg(op.Value)
		if v.Is(op.Tag) || (op.Nullable && v.IsNull()) {
			break
		}
		if op.Nullable {
			return typeError("Wrong argument type for %s(), expected %s or null.", op.Callable, op.Tag)
		}
		return typeError("Wrong argument type for %s(), expected %s.", op.Callable, op.Tag)

	case marshal.CheckNative:
		if inst := nativeOf(f.arg(op.Value)); inst == nil || inst.Class.ID != op.Record.ID {
			return typeError("Failed to get native %s pointer", op.Record.Name)
		}

	case marshal.ExtractBool:
		return f.set(op.Dest, f.arg(op.Value).truthy())

	case marshal.ExtractChar:
		if str := f.arg(op.Value).Str(); str != "" {
			return f.set(op.Dest, str[0])
		}

	case marshal.ExtractNumber:
		return f.set(op.Dest, cast(f.arg(op.Value).Number(), op.Type))

	case marshal.ExtractString:
		str := f.arg(op.Value).Str()
		if op.Size > 0 {
			if len(str) > op.Size-1 {
				str = str[:op.Size-1]
			}
			return f.set(op.Dest, str)
		}
		c := &CString{Text: str}
		s.allocs = append(s.allocs, c)
		return f.set(op.Dest, c)

	case marshal.ExtractBuffer:
		return f.extractBuffer(op)

	case marshal.ExtractCallback:
		s.slots[op.Trampoline.Slot] = f.arg(op.Value)
		return f.set(op.Dest, s.trampoline(op.Trampoline))

	case marshal.ExtractNative:
		return f.set(op.Dest, nativeOf(f.arg(op.Value)))

	case marshal.GetProperty:
		f.locals[op.Dest] = f.arg(op.Object).Get(op.Name)

	case marshal.SetProperty:
		obj := f.arg(op.Object).Object()
		if obj == nil {
			return fmt.Errorf("bindtest: set %s on non-object %s", op.Name, op.Object)
		}
		obj.Props[op.Name] = f.arg(op.Value)

	case marshal.Guard:
		if f.arg(op.Value).Is(op.Tag) {
			return f.run(op.Body)
		}

	case marshal.Assign:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		return f.set(op.Dest, byValue(op.From, v))

	case marshal.Call:
		return f.call(op)

	case marshal.CallScript:
		args := make([]Value, len(op.Args))
		for i, a := range op.Args {
			args[i] = f.arg(a)
		}
		result := Undefined()
		if fn := f.arg(op.Function).Func(); fn != nil {
			result = fn(Undefined(), args)
		}
		f.locals[op.Result] = result

	case marshal.CopyBack:
		arr := f.arg(op.Value).TypedArray()
		v, err := f.get(op.Name)
		if err != nil {
			return err
		}
		if buf, ok := v.(*Buffer); ok && arr != nil && buf != nil {
			for i := range arr.Data {
				if i < len(buf.Data) {
					arr.Data[i] = castElem(buf.Data[i], arr.Elem)
				}
			}
		}

	case marshal.Free:
		v, err := f.get(op.Name)
		if err != nil {
			return err
		}
		switch v := v.(type) {
		case *CString:
			if v != nil {
				v.freed = true
			}
		case *Buffer:
			if v != nil {
				v.freed = true
			}
		}

	case marshal.Release:
		// Script values are garbage collected by the host.

	case marshal.Return:
		v, err := f.get(op.Value)
		if err != nil {
			return err
		}
		f.ret, f.returned = byValue(op.Value, v), true

	case marshal.WrapUndefined:
		f.locals[op.Dest] = Undefined()

	case marshal.WrapBool:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		b, _ := v.(bool)
		f.locals[op.Dest] = Bool(b)

	case marshal.WrapChar:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		c, _ := v.(byte)
		f.locals[op.Dest] = String(string([]byte{c}))

	case marshal.WrapNumber:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		f.locals[op.Dest] = Number(cast(toFloat(v), op.Type))

	case marshal.WrapString:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		switch v := v.(type) {
		case string:
			f.locals[op.Dest] = String(v)
		case *CString:
			if v == nil {
				f.locals[op.Dest] = Null()
			} else {
				f.locals[op.Dest] = String(v.Text)
			}
		default:
			f.locals[op.Dest] = Null()
		}

	case marshal.WrapBuffer:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		var data []float64
		switch v := v.(type) {
		case []float64:
			data = v
		case *Buffer:
			if v != nil {
				data = v.Data
			}
		}
		if data == nil && !op.Array {
			f.locals[op.Dest] = Null()
			break
		}
		elem, _ := marshal.ElementTagOf(op.Elem)
		out := make([]float64, op.Count)
		copy(out, data)
		f.locals[op.Dest] = NewTypedArray(elem, out...)

	case marshal.WrapRecord:
		f.locals[op.Dest] = NewObject(nil)

	case marshal.WrapNative:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		var fields Struct
		switch v := v.(type) {
		case *Instance:
			if v != nil {
				fields = v.Fields
			}
		case Struct:
			fields = v
		}
		if fields == nil {
			f.locals[op.Dest] = Null()
			break
		}
		inst := &Instance{Class: op.Record, Fields: fields.clone()}
		f.locals[op.Dest] = ObjectOf(&Object{Props: map[string]Value{}, Native: inst, Class: op.Record})

	case marshal.WrapNullable:
		v, err := f.get(op.From)
		if err != nil {
			return err
		}
		if isNull(v) {
			f.locals[op.Dest] = Null()
			break
		}
		return f.run(op.Body)

	case marshal.Placeholder:
		if op.Wrap {
			f.locals[op.Dest] = Undefined()
		} else {
			f.locals[op.Dest] = zero(s.Module, op.Type)
		}

	default:
		return fmt.Errorf("bindtest: unhandled op %T", op)
	}
	return nil
}

func (f *frame) extractBuffer(op marshal.ExtractBuffer) error {
	v := f.arg(op.Value)
	elem, _ := marshal.ElementTagOf(op.Elem)
	if op.Size > 0 {
		dst := make([]float64, op.Size)
		if arr := v.TypedArray(); arr != nil {
			for i := 0; i < op.Size && i < len(arr.Data); i++ {
				dst[i] = castElem(arr.Data[i], elem)
			}
		}
		return f.set(op.Dest, dst)
	}
	arr := v.TypedArray()
	if arr == nil {
		return f.set(op.Dest, nil)
	}
	buf := &Buffer{Elem: elem, Data: make([]float64, len(arr.Data))}
	for i, x := range arr.Data {
		buf.Data[i] = castElem(x, elem)
	}
	f.sim.allocs = append(f.sim.allocs, buf)
	f.locals[op.Dest+"_byte_length"] = float64(len(arr.Data) * arr.Elem.Size())
	return f.set(op.Dest, buf)
}

func (f *frame) call(op marshal.Call) error {
	s := f.sim
	args := make([]any, len(op.Args))
	for i, a := range op.Args {
		v, err := f.get(a)
		if err != nil {
			return err
		}
		args[i] = byValue(a, v)
	}

	var result any
	switch op.Kind {
	case marshal.CallFunction, marshal.CallStatic:
		name := op.Callee
		if op.Kind == marshal.CallStatic {
			name = op.Receiver + "::" + op.Callee
		}
		fn, ok := s.Functions[name]
		if !ok {
			return fmt.Errorf("bindtest: no native function %s", name)
		}
		result = fn(args)
	case marshal.CallMethod:
		fn, ok := s.Methods[op.Callee]
		if !ok {
			return fmt.Errorf("bindtest: no native method %s", op.Callee)
		}
		recv, err := f.get(op.Receiver)
		if err != nil {
			return err
		}
		inst, _ := recv.(*Instance)
		if inst == nil {
			return fmt.Errorf("bindtest: %s called without an instance", op.Callee)
		}
		result = fn(inst, args)
	case marshal.CallNew:
		if ctor, ok := s.Constructors[op.Callee]; ok {
			result = ctor(args)
			break
		}
		rec := s.recordBySpelling(op.Callee)
		if rec == nil {
			return fmt.Errorf("bindtest: no constructor for %s", op.Callee)
		}
		result = &Instance{Class: rec, Fields: zeroFields(s.Module, rec)}
	}

	if op.Result == "" {
		return nil
	}
	if op.ResultType != nil {
		result = normalize(result, op.ResultType)
	}
	f.locals[op.Result] = result
	return nil
}

func (s *Sim) recordBySpelling(spelling string) *ir.RecordDecl {
	for _, r := range s.Module.Records() {
		if r.Spelling == spelling || r.Name == spelling {
			return r
		}
	}
	return nil
}

// trampoline returns the native function pointer that forwards to the
// script function in tr's slot.
func (s *Sim) trampoline(tr *marshal.Trampoline) NativeFunc {
	return func(args ...any) any {
		f := &frame{sim: s, locals: make(map[string]any)}
		for i, p := range tr.Params {
			var v any
			if i < len(args) {
				v = args[i]
				if i < len(tr.Type.Params) {
					v = normalize(v, tr.Type.Params[i])
				}
			}
			f.locals[p] = v
		}
		if err := f.run(tr.Body); err != nil {
			panic(err)
		}
		return f.ret
	}
}

// arg returns a script value local.
func (f *frame) arg(name string) Value {
	if v, ok := f.locals[name].(Value); ok {
		return v
	}
	if v, ok := f.sim.slots[name]; ok {
		return v
	}
	return Undefined()
}

func (f *frame) script(name string) (Value, error) {
	v, ok := f.locals[name].(Value)
	if !ok {
		return Value{}, fmt.Errorf("bindtest: %s is not a script value", name)
	}
	return v, nil
}

// get evaluates a native lvalue or argument expression.
func (f *frame) get(expr string) (any, error) {
	root, fields := path(expr)
	v, ok := f.locals[root]
	if !ok {
		v, ok = f.sim.Globals[root]
	}
	if !ok {
		return nil, fmt.Errorf("bindtest: unknown name %s in %q", root, expr)
	}
	for _, name := range fields {
		s, err := fieldsOf(v)
		if err != nil {
			return nil, fmt.Errorf("bindtest: %q: %w", expr, err)
		}
		v = s[name]
	}
	return v, nil
}

// set stores into a native lvalue.
func (f *frame) set(expr string, v any) error {
	root, fields := path(expr)
	if len(fields) == 0 {
		if _, local := f.locals[root]; !local {
			if _, global := f.sim.Globals[root]; global {
				f.sim.Globals[root] = v
				return nil
			}
		}
		f.locals[root] = v
		return nil
	}
	parent, err := f.get(strings.Join(append([]string{root}, fields[:len(fields)-1]...), "."))
	if err != nil {
		return err
	}
	s, err := fieldsOf(parent)
	if err != nil {
		return fmt.Errorf("bindtest: %q: %w", expr, err)
	}
	s[fields[len(fields)-1]] = v
	return nil
}

// byValue copies records read by value; "&x" shares them.
func byValue(expr string, v any) any {
	if s, ok := v.(Struct); ok && !strings.HasPrefix(expr, "&") {
		return s.clone()
	}
	return v
}

func nativeOf(v Value) *Instance {
	if o := v.Object(); o != nil {
		inst, _ := o.Native.(*Instance)
		return inst
	}
	return nil
}

func isNull(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case *Instance:
		return v == nil
	case *CString:
		return v == nil
	case *Buffer:
		return v == nil
	case Struct:
		return v == nil
	}
	return false
}

func toFloat(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// normalize converts a value returned by a Go-side native into the model's
// representation for t, so natives can return plain ints and strings.
func normalize(v any, t ir.Type) any {
	switch t := t.(type) {
	case *ir.NumberType, *ir.EnumType:
		return cast(toFloat(v), t)
	case *ir.BoolType:
		if b, ok := v.(bool); ok {
			return b
		}
		return toFloat(v) != 0
	case *ir.CharType:
		switch c := v.(type) {
		case byte:
			return c
		case rune:
			return byte(c)
		case string:
			if c != "" {
				return c[0]
			}
			return byte(0)
		}
	case *ir.PointerType:
		if str, ok := v.(string); ok {
			return &CString{Text: str}
		}
	}
	return v
}
