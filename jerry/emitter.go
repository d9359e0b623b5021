package jerry

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/broady/bindgen/dispatch"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// emitter renders synthesized declarations as JerryScript C or C++.
type emitter struct {
	mod   *ir.Module
	synth *marshal.Synthesizer
	cfg   GeneratorConfig
	cpp   bool
}

// fragment is the rendered output of one declaration. Prologue goes before
// every handler in the file, Code after all prologues, and Init inside
// the module's init function.
type fragment struct {
	prologue bytes.Buffer
	code     bytes.Buffer
	init     bytes.Buffer
}

func (e *emitter) writers(f *fragment) (prologue, code, init *writer) {
	init = newWriter(&f.init, e.cfg.IndentSize)
	init.depth = 1
	return newWriter(&f.prologue, e.cfg.IndentSize), newWriter(&f.code, e.cfg.IndentSize), init
}

// handler is one external function.
type handler struct {
	name    string
	comment string

	// receiver, when set, loads native_ptr from this_val before the body.
	receiver *ir.RecordDecl

	// constructs, when set, makes the handler return a new bound object
	// for native_ptr instead of ret_val.
	constructs *ir.RecordDecl

	plan *marshal.Plan
	tree *dispatch.Tree
}

func (e *emitter) handler(w *writer, h handler) {
	if e.cfg.EmitComments && h.comment != "" {
		w.line("/* %s */", h.comment)
	}
	w.line("static jerry_value_t")
	w.line("%s (const jerry_value_t function_obj, const jerry_value_t this_val, const jerry_value_t args_p[], const jerry_length_t args_cnt)", h.name)
	w.open("")
	if h.constructs == nil {
		w.line("jerry_value_t ret_val = jerry_create_undefined ();")
	}
	switch {
	case h.receiver != nil:
		rec := h.receiver
		w.line("%s *native_ptr = NULL;", rec.Spelling)
		w.open("if (!jerry_get_object_native_pointer (this_val, (void **) &native_ptr, &%s))", typeInfo(rec))
		w.error(errType, fmt.Sprintf("Failed to get native %s pointer", rec.Name))
		w.close()
	case h.constructs != nil:
		w.line("%s *native_ptr = NULL;", h.constructs.Spelling)
	}

	if h.tree != nil {
		e.dispatch(w, h.tree)
	} else {
		e.body(w).ops(h.plan.Body())
	}

	if h.constructs != nil {
		w.line("return %s (native_ptr);", creator(h.constructs))
	} else {
		w.line("return ret_val;")
	}
	w.close()
	w.line("")
}

// dispatch renders a switch on the argument count. Within a case the
// first branch whose conditions hold runs and breaks out of the switch.
func (e *emitter) dispatch(w *writer, t *dispatch.Tree) {
	w.line("switch (args_cnt)")
	w.open("")
	for _, c := range t.Cases {
		w.line("case %d:", c.Arity)
		w.open("")
		unconditional := false
		for _, br := range c.Branches {
			if c.Direct() || len(br.Conds) == 0 {
				e.body(w).ops(br.Plan.Body())
				w.line("break;")
				unconditional = true
				break
			}
			w.open("if (%s)", conditions(br.Conds))
			e.body(w).ops(br.Plan.Body())
			w.line("break;")
			w.close()
		}
		if !unconditional {
			w.error(errType, c.TypeError)
		}
		w.close()
	}
	w.line("default:")
	w.depth++
	w.error(errType, t.CountError)
	w.depth--
	w.close()
}

func conditions(conds []dispatch.Cond) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		p := fmt.Sprintf("jerry_value_is_%s (%s)", isPredicate(c.Tag), c.Value)
		if c.Nullable {
			p = fmt.Sprintf("(%s || jerry_value_is_null (%s))", p, c.Value)
		}
		parts[i] = p
	}
	return strings.Join(parts, " && ")
}

// trampoline renders a callback's slot and native function. The slot is
// set to undefined in init.
func (e *emitter) trampoline(w *writer, init *writer, tr *marshal.Trampoline) {
	w.line("static jerry_value_t %s;", tr.Slot)
	w.line("")

	params := make([]string, len(tr.Params))
	for i, name := range tr.Params {
		params[i] = declarator(tr.Type.Params[i].Spelling(), name)
	}
	list := strings.Join(params, ", ")
	if list == "" {
		list = "void"
	}
	w.line("static %s", tr.Type.Result.Spelling())
	w.line("%s (%s)", tr.Name, list)
	w.open("")
	e.body(w).ops(tr.Body)
	w.close()
	w.line("")

	init.line("%s = jerry_create_undefined ();", tr.Slot)
}

func (e *emitter) trampolines(w, init *writer, trs []*marshal.Trampoline) {
	for _, tr := range trs {
		e.trampoline(w, init, tr)
	}
}

// accessorHandlers renders the getter and setter of a variable or member.
// Typed array and constant properties have none.
func (e *emitter) accessorHandlers(w, init *writer, a *marshal.Accessors, names accessorNames, receiver *ir.RecordDecl, comment string) {
	if a.Kind != marshal.Accessor {
		return
	}
	e.handler(w, handler{name: names.getter, comment: comment, receiver: receiver, plan: a.Getter})
	if a.Setter != nil {
		e.trampolines(w, init, a.Setter.Trampolines)
		e.handler(w, handler{name: names.setter, comment: comment, receiver: receiver, plan: a.Setter})
	}
}

// accessorNames are the handler names reserved for one property.
type accessorNames struct {
	getter, setter string
}

// defineProperty registers a variable or member on object.
func (e *emitter) defineProperty(w *writer, object, prop string, a *marshal.Accessors, names accessorNames) {
	switch a.Kind {
	case marshal.TypedArray:
		w.line("bindgen_define_value (%s, %s, bindgen_external_typedarray (%s, (uint8_t *) %s, sizeof (%s), %d));",
			object, cString(prop), typedArrayType(a.Elem), a.Lvalue, a.Lvalue, a.Count)
	case marshal.Constant:
		w.open("")
		w.line("jerry_value_t ret_val = jerry_create_undefined ();")
		e.body(w).ops(a.Getter.Wrap)
		w.line("bindgen_define_value (%s, %s, ret_val);", object, cString(prop))
		w.close()
	default:
		setter := "NULL"
		if a.Setter != nil {
			setter = names.setter
		}
		w.line("bindgen_define_accessor (%s, %s, %s, %s);", object, cString(prop), names.getter, setter)
	}
}

// defineFunction registers an external function on object.
func defineFunction(w *writer, object, prop, handler string) {
	w.line("bindgen_define_value (%s, %s, jerry_create_external_function (%s));", object, cString(prop), handler)
}

// classPrologue declares the native info block and the creator of a class
// so any handler can bind instances.
func (e *emitter) classPrologue(w *writer, rec *ir.RecordDecl) {
	prefix := sanitizeIdentifier(rec.Name)
	w.line("static void")
	w.line("%s_js_destructor (void *native_p)", prefix)
	w.open("")
	w.line("delete static_cast<%s *> (native_p);", rec.Spelling)
	w.close()
	w.line("")
	w.line("static const jerry_object_native_info_t %s = { %s_js_destructor };", typeInfo(rec), prefix)
	w.line("")
	w.line("static jerry_value_t %s (%s *native_ptr);", creator(rec), rec.Spelling)
	w.line("")
}

// helpers are the file-level functions every binding file uses.
const helpers = `static inline void
bindgen_define_value (jerry_value_t object, const char *name, jerry_value_t value)
{
  jerry_property_descriptor_t desc;
  jerry_init_property_descriptor_fields (&desc);
  desc.is_value_defined = true;
  desc.value = value;
  jerry_value_t prop_name = jerry_create_string ((const jerry_char_t *) name);
  jerry_release_value (jerry_define_own_property (object, prop_name, &desc));
  jerry_release_value (prop_name);
  jerry_free_property_descriptor_fields (&desc);
}

static inline void
bindgen_define_accessor (jerry_value_t object, const char *name, jerry_external_handler_t getter, jerry_external_handler_t setter)
{
  jerry_property_descriptor_t desc;
  jerry_init_property_descriptor_fields (&desc);
  desc.is_get_defined = true;
  desc.getter = jerry_create_external_function (getter);
  if (setter != NULL)
  {
    desc.is_set_defined = true;
    desc.setter = jerry_create_external_function (setter);
  }
  jerry_value_t prop_name = jerry_create_string ((const jerry_char_t *) name);
  jerry_release_value (jerry_define_own_property (object, prop_name, &desc));
  jerry_release_value (prop_name);
  jerry_free_property_descriptor_fields (&desc);
}

static inline jerry_value_t
bindgen_external_typedarray (jerry_typedarray_type_t type, uint8_t *data, jerry_length_t byte_length, jerry_length_t length)
{
  jerry_value_t buffer = jerry_create_arraybuffer_external (byte_length, data, NULL);
  jerry_value_t array = jerry_create_typedarray_for_arraybuffer_sz (type, buffer, 0, length);
  jerry_release_value (buffer);
  return array;
}
`

// writeHelpers writes the helpers re-indented to the configured width.
func writeHelpers(buf *bytes.Buffer, indent int) {
	if indent == 2 {
		buf.WriteString(helpers)
		return
	}
	pad := strings.Repeat(" ", indent)
	for _, ln := range strings.SplitAfter(helpers, "\n") {
		trimmed := strings.TrimLeft(ln, " ")
		depth := (len(ln) - len(trimmed)) / 2
		buf.WriteString(strings.Repeat(pad, depth))
		buf.WriteString(trimmed)
	}
}
