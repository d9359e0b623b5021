package jerry

import (
	"fmt"

	"github.com/broady/bindgen/dispatch"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// unit is one declaration after synthesis. Synthesis runs in declaration
// order so generated names are deterministic; render is safe to run
// concurrently with other units.
type unit struct {
	status        DeclStatus
	warnings      []ir.Warning
	registrations int
	render        func(f *fragment)
}

// synthesize builds the unit for one declaration, reserving every global
// name it needs in root.
func (e *emitter) synthesize(d ir.Decl, root *marshal.Scope) *unit {
	u := &unit{status: DeclStatus{Name: d.DeclName(), Kind: d.DeclKind()}}
	switch d := d.(type) {
	case *ir.FunctionDecl:
		e.function(u, d, root)
	case *ir.VariableDecl:
		e.variable(u, d, root)
	case *ir.EnumDecl:
		e.enum(u, d)
	case *ir.MacroDecl:
		e.macro(u, d)
	case *ir.RecordDecl:
		if e.cpp && d.IsClass() && !d.Anonymous {
			e.class(u, d, root)
		} else {
			u.status.Skipped = true
		}
	}
	u.status.Supported = len(u.warnings) == 0 && !(u.status.Skipped && d.DeclKind() == ir.DeclMacro)

	src := d.Src()
	for i := range u.warnings {
		if u.warnings[i].Source == nil && !src.IsZero() {
			u.warnings[i].Source = &src
		}
	}
	return u
}

func (e *emitter) comment(d ir.Decl) string {
	src := d.Src()
	if src.IsZero() {
		return d.DeclName()
	}
	return fmt.Sprintf("%s: %s:%d", d.DeclName(), src.File, src.Line)
}

func (e *emitter) function(u *unit, fn *ir.FunctionDecl, root *marshal.Scope) {
	name := root.Reserve(sanitizeIdentifier(fn.Name) + "_handler")
	h := handler{name: name, comment: e.comment(fn)}
	var trampolines []*marshal.Trampoline

	if e.cpp && fn.Overloads != nil && fn.Overloads.Len() > 0 {
		ctx := e.synth.Context(fn.Name, fn.Name, root, fn.Name)
		h.tree = dispatch.Build(marshal.Target{Kind: marshal.CallFunction, Callee: fn.Name}, fn.Overloads, e.synth, ctx)
		trampolines, u.warnings = h.tree.Trampolines, h.tree.Warnings
	} else {
		h.plan = e.synth.Function(fn, root)
		trampolines, u.warnings = h.plan.Trampolines, h.plan.Warnings
	}

	u.registrations = 1
	u.render = func(f *fragment) {
		_, code, init := e.writers(f)
		e.trampolines(code, init, trampolines)
		e.handler(code, h)
		defineFunction(init, "object", fn.Name, name)
	}
}

func (e *emitter) variable(u *unit, v *ir.VariableDecl, root *marshal.Scope) {
	a := e.synth.Variable(v, root)
	names := e.accessorNames(a, sanitizeIdentifier(v.Name), root)
	u.warnings = a.Warnings
	u.registrations = 1
	u.render = func(f *fragment) {
		_, code, init := e.writers(f)
		e.accessorHandlers(code, init, a, names, nil, e.comment(v))
		e.defineProperty(init, "object", v.Name, a, names)
	}
}

func (e *emitter) accessorNames(a *marshal.Accessors, prefix string, root *marshal.Scope) accessorNames {
	var names accessorNames
	if a.Kind != marshal.Accessor {
		return names
	}
	names.getter = root.Reserve(prefix + "_getter")
	if a.Setter != nil {
		names.setter = root.Reserve(prefix + "_setter")
	}
	return names
}

func (e *emitter) enum(u *unit, en *ir.EnumDecl) {
	if en.Name == "" {
		u.registrations = len(en.Constants)
	} else {
		u.registrations = 1
	}
	u.render = func(f *fragment) {
		_, _, init := e.writers(f)
		if en.Name == "" {
			for _, c := range en.Constants {
				init.line("bindgen_define_value (object, %s, jerry_create_number (%d));", cString(c.Name), c.Value)
			}
			return
		}
		init.open("")
		init.line("jerry_value_t enum_obj = jerry_create_object ();")
		for _, c := range en.Constants {
			init.line("bindgen_define_value (enum_obj, %s, jerry_create_number (%d));", cString(c.Name), c.Value)
		}
		init.line("bindgen_define_value (object, %s, enum_obj);", cString(en.Name))
		init.close()
	}
}

func (e *emitter) macro(u *unit, m *ir.MacroDecl) {
	if !m.Class.Emittable() {
		u.status.Skipped = true
		return
	}
	u.registrations = 1
	u.render = func(f *fragment) {
		_, _, init := e.writers(f)
		prop := cString(m.Name)
		switch m.Class {
		case ir.MacroNumber:
			init.line("bindgen_define_value (object, %s, jerry_create_number (%s));", prop, m.Name)
		case ir.MacroString:
			init.line("bindgen_define_value (object, %s, jerry_create_string ((const jerry_char_t *) %s));", prop, m.Name)
		case ir.MacroChar:
			init.open("")
			init.line("char %s_value = %s;", sanitizeIdentifier(m.Name), m.Name)
			init.line("bindgen_define_value (object, %s, jerry_create_string_sz ((const jerry_char_t *) (&%s_value), 1));", prop, sanitizeIdentifier(m.Name))
			init.close()
		}
	}
}

// member is one bound class field.
type member struct {
	field ir.Field
	acc   *marshal.Accessors
	names accessorNames
}

// method is one bound class method.
type method struct {
	decl    *ir.MethodDecl
	handler handler
}

func (e *emitter) class(u *unit, rec *ir.RecordDecl, root *marshal.Scope) {
	prefix := sanitizeIdentifier(rec.Name)
	comment := e.comment(rec)

	ctors := rec.Constructors
	if ctors == nil || ctors.Len() == 0 {
		ctors = ir.NewOverloadSet()
		ctors.Add(nil, nil)
	}
	ctorCtx := e.synth.Context(rec.Name, rec.Name, root, rec.Name, prefix)
	ctor := handler{
		name:       root.Reserve(prefix + "_handler"),
		comment:    comment,
		constructs: rec,
		tree:       dispatch.Build(marshal.Target{Kind: marshal.CallNew, Callee: rec.Spelling}, ctors, e.synth, ctorCtx),
	}
	trampolines := ctor.tree.Trampolines
	u.warnings = append(u.warnings, ctor.tree.Warnings...)

	var members []member
	for _, f := range rec.Fields {
		a := e.synth.Member(rec, f, root)
		members = append(members, member{field: f, acc: a, names: e.accessorNames(a, prefix+"_"+sanitizeIdentifier(f.Name), root)})
		u.warnings = append(u.warnings, a.Warnings...)
	}

	var methods []method
	for _, m := range rec.Methods {
		callable := rec.Name + "." + m.Name
		ctx := e.synth.Context(callable, rec.Name+"_"+m.Name, root, rec.Name, prefix)
		target := marshal.Target{Kind: marshal.CallMethod, Callee: m.Name, Receiver: marshal.NativePtr}
		h := handler{name: root.Reserve(prefix + "_" + sanitizeIdentifier(m.Name) + "_handler"), comment: comment}
		if m.Static {
			target = marshal.Target{Kind: marshal.CallStatic, Callee: m.Name, Receiver: rec.Spelling}
		} else {
			h.receiver = rec
		}
		h.tree = dispatch.Build(target, m.Overloads, e.synth, ctx)
		trampolines = append(trampolines, h.tree.Trampolines...)
		u.warnings = append(u.warnings, h.tree.Warnings...)
		methods = append(methods, method{decl: m, handler: h})
	}

	u.registrations = 1
	u.render = func(f *fragment) {
		prologue, code, init := e.writers(f)
		e.classPrologue(prologue, rec)
		e.trampolines(code, init, trampolines)

		e.handler(code, ctor)
		for _, mb := range members {
			e.accessorHandlers(code, init, mb.acc, mb.names, rec, comment)
		}
		for _, m := range methods {
			e.handler(code, m.handler)
		}

		code.line("static jerry_value_t")
		code.line("%s (%s *native_ptr)", creator(rec), rec.Spelling)
		code.open("")
		code.line("jerry_value_t js_obj = jerry_create_object ();")
		code.line("jerry_set_object_native_pointer (js_obj, native_ptr, &%s);", typeInfo(rec))
		for _, mb := range members {
			e.defineProperty(code, "js_obj", e.property(mb.field.Name), mb.acc, mb.names)
		}
		for _, m := range methods {
			if !m.decl.Static {
				defineFunction(code, "js_obj", e.property(m.decl.Name), m.handler.name)
			}
		}
		code.line("return js_obj;")
		code.close()
		code.line("")

		init.open("")
		init.line("jerry_value_t ctor = jerry_create_external_function (%s);", ctor.name)
		for _, m := range methods {
			if m.decl.Static {
				defineFunction(init, "ctor", e.property(m.decl.Name), m.handler.name)
			}
		}
		init.line("bindgen_define_value (object, %s, ctor);", cString(rec.Name))
		init.close()
	}
}

func (e *emitter) property(name string) string {
	return applyCase(name, e.cfg.PropertyCase)
}
