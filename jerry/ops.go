package jerry

import (
	"fmt"
	"strings"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

const (
	errType   = "JERRY_ERROR_TYPE"
	errCommon = "JERRY_ERROR_COMMON"
)

// body renders the ops of one C function body. Buffer locals are tracked so
// that a Free also releases the array buffer the bytes were read from.
type body struct {
	w       *writer
	cpp     bool
	buffers map[string]bool
}

func (e *emitter) body(w *writer) *body {
	return &body{w: w, cpp: e.cpp, buffers: make(map[string]bool)}
}

func (b *body) ops(ops []marshal.Op) {
	for _, op := range ops {
		b.op(op)
	}
}

func (b *body) op(op marshal.Op) {
	w := b.w
	switch op := op.(type) {
	case marshal.Declare:
		b.declare(op)

	case marshal.CheckArgCount:
		w.open("if (args_cnt != %d)", op.Want)
		w.error(errType, fmt.Sprintf("Wrong argument count for %s(), expected %d.", op.Callable, op.Want))
		w.close()

	case marshal.CheckType:
		if op.Nullable {
			w.open("if (!jerry_value_is_%s (%s) && !jerry_value_is_null (%s))", isPredicate(op.Tag), op.Value, op.Value)
			w.error(errType, fmt.Sprintf("Wrong argument type for %s(), expected %s or null.", op.Callable, op.Tag))
		} else {
			w.open("if (!jerry_value_is_%s (%s))", isPredicate(op.Tag), op.Value)
			w.error(errType, fmt.Sprintf("Wrong argument type for %s(), expected %s.", op.Callable, op.Tag))
		}
		w.close()

	case marshal.CheckNative:
		w.open("if (!jerry_get_object_native_pointer (%s, NULL, &%s))", op.Value, typeInfo(op.Record))
		w.error(errType, fmt.Sprintf("Failed to get native %s pointer", op.Record.Name))
		w.close()

	case marshal.ExtractBool:
		w.line("%s = jerry_value_to_boolean (%s);", op.Dest, op.Value)

	case marshal.ExtractChar:
		w.line("jerry_substring_to_char_buffer (%s, 0, 1, (jerry_char_t *) (&%s), 1);", op.Value, op.Dest)

	case marshal.ExtractNumber:
		w.line("%s = (%s) jerry_get_number_value (%s);", op.Dest, localSpelling(op.Type), op.Value)

	case marshal.ExtractString:
		b.extractString(op)

	case marshal.ExtractBuffer:
		b.extractBuffer(op)

	case marshal.ExtractCallback:
		tr := op.Trampoline
		w.line("jerry_release_value (%s);", tr.Slot)
		w.line("%s = jerry_acquire_value (%s);", tr.Slot, op.Value)
		w.line("%s = %s;", op.Dest, tr.Name)

	case marshal.ExtractNative:
		w.line("jerry_get_object_native_pointer (%s, (void **) &%s, &%s);", op.Value, op.Dest, typeInfo(op.Record))

	case marshal.GetProperty:
		w.open("")
		w.line("jerry_value_t prop_name = jerry_create_string ((const jerry_char_t *) %s);", cString(op.Name))
		w.line("%s = jerry_get_property (%s, prop_name);", op.Dest, op.Object)
		w.line("jerry_release_value (prop_name);")
		w.close()

	case marshal.SetProperty:
		w.open("")
		w.line("jerry_value_t prop_name = jerry_create_string ((const jerry_char_t *) %s);", cString(op.Name))
		w.line("jerry_release_value (jerry_set_property (%s, prop_name, %s));", op.Object, op.Value)
		w.line("jerry_release_value (prop_name);")
		w.close()

	case marshal.Guard:
		w.open("if (jerry_value_is_%s (%s))", isPredicate(op.Tag), op.Value)
		b.ops(op.Body)
		w.close()

	case marshal.Assign:
		w.line("%s = %s;", op.Dest, op.From)

	case marshal.Call:
		b.call(op)

	case marshal.CallScript:
		n := len(op.Args)
		args := "NULL"
		w.open("")
		if n > 0 {
			w.line("jerry_value_t args[%d] = { %s };", n, strings.Join(op.Args, ", "))
			args = "args"
		}
		w.line("jerry_value_t this_val = jerry_create_undefined ();")
		w.line("%s = jerry_call_function (%s, this_val, %s, %d);", op.Result, op.Function, args, n)
		w.line("jerry_release_value (this_val);")
		w.close()

	case marshal.CopyBack:
		w.open("if (jerry_value_is_typedarray (%s))", op.Value)
		w.line("jerry_arraybuffer_write (%s_buffer, %s_byte_offset, (uint8_t *) %s, %s_byte_length);", op.Name, op.Name, op.Name, op.Name)
		w.close()

	case marshal.Free:
		if b.buffers[op.Name] {
			w.line("jerry_release_value (%s_buffer);", op.Name)
		}
		w.line("free ((void *) %s);", op.Name)

	case marshal.Release:
		w.line("jerry_release_value (%s);", op.Name)

	case marshal.Return:
		w.line("return %s;", op.Value)

	case marshal.WrapUndefined:
		w.line("%s = jerry_create_undefined ();", op.Dest)

	case marshal.WrapBool:
		w.line("%s = jerry_create_boolean (%s);", op.Dest, op.From)

	case marshal.WrapChar:
		w.line("%s = jerry_create_string_sz ((const jerry_char_t *) (&%s), 1);", op.Dest, op.From)

	case marshal.WrapNumber:
		w.line("%s = jerry_create_number ((double) %s);", op.Dest, op.From)

	case marshal.WrapString:
		if op.Array {
			w.line("%s = jerry_create_string ((const jerry_char_t *) %s);", op.Dest, op.From)
			break
		}
		b.nullable(op.Dest, op.From, func() {
			w.line("%s = jerry_create_string ((const jerry_char_t *) %s);", op.Dest, op.From)
		})

	case marshal.WrapBuffer:
		write := func() {
			buf := sanitizeIdentifier(op.Dest) + "_buffer"
			size := fmt.Sprintf("sizeof (%s) * %d", localSpelling(op.Elem), op.Count)
			w.line("jerry_value_t %s = jerry_create_arraybuffer (%s);", buf, size)
			w.line("jerry_arraybuffer_write (%s, 0, (const uint8_t *) %s, %s);", buf, op.From, size)
			w.line("%s = jerry_create_typedarray_for_arraybuffer_sz (%s, %s, 0, %d);", op.Dest, typedArrayType(elementTag(op.Elem)), buf, op.Count)
			w.line("jerry_release_value (%s);", buf)
		}
		if op.Array {
			w.open("")
			write()
			w.close()
			break
		}
		b.nullable(op.Dest, op.From, write)

	case marshal.WrapRecord:
		w.line("%s = jerry_create_object ();", op.Dest)

	case marshal.WrapNative:
		if op.Pointer {
			b.nullable(op.Dest, op.From, func() {
				w.line("%s = %s (new %s (*%s));", op.Dest, creator(op.Record), op.Record.Spelling, op.From)
			})
			break
		}
		w.line("%s = %s (new %s (%s));", op.Dest, creator(op.Record), op.Record.Spelling, op.From)

	case marshal.WrapNullable:
		b.nullable(op.Dest, op.From, func() { b.ops(op.Body) })

	case marshal.Placeholder:
		if op.Wrap {
			w.line("// TODO: create a script value from %s.", op.Type.Spelling())
			w.line("%s = jerry_create_undefined ();", op.Dest)
			break
		}
		w.line("// TODO: extract a value of type %s.", op.Type.Spelling())
		w.line("%s = %s;", declarator(localSpelling(op.Type), op.Dest), zeroValue(op.Type, b.cpp))

	default:
		panic(fmt.Sprintf("jerry: unhandled op %T", op))
	}
}

func (b *body) declare(op marshal.Declare) {
	w := b.w
	if op.Type == nil {
		w.line("jerry_value_t %s = jerry_create_undefined ();", op.Name)
		return
	}
	w.line("%s = %s;", declarator(localSpelling(op.Type), op.Name), zeroValue(op.Type, b.cpp))
	if op.Buffer {
		b.buffers[op.Name] = true
		w.line("jerry_length_t %s_byte_length = 0;", op.Name)
		w.line("jerry_length_t %s_byte_offset = 0;", op.Name)
		w.line("jerry_value_t %s_buffer = jerry_create_undefined ();", op.Name)
	}
}

func (b *body) extractString(op marshal.ExtractString) {
	w := b.w
	if op.Size > 0 {
		n := sanitizeIdentifier(op.Dest) + "_size"
		w.open("")
		w.line("jerry_size_t %s = jerry_substring_to_char_buffer (%s, 0, %d, (jerry_char_t *) %s, %d);", n, op.Value, op.Size-1, op.Dest, op.Size-1)
		w.line("%s[%s] = '\\0';", op.Dest, n)
		w.close()
		return
	}
	n := op.Dest + "_size"
	w.open("")
	w.line("jerry_size_t %s = jerry_get_string_size (%s);", n, op.Value)
	w.line("char *%s_chars = (char *) malloc (%s + 1);", op.Dest, n)
	w.open("if (%s_chars == NULL)", op.Dest)
	w.error(errCommon, "Fail to allocate memory.")
	w.close()
	w.line("jerry_string_to_char_buffer (%s, (jerry_char_t *) %s_chars, %s);", op.Value, op.Dest, n)
	w.line("%s_chars[%s] = '\\0';", op.Dest, n)
	w.line("%s = %s_chars;", op.Dest, op.Dest)
	w.close()
}

func (b *body) extractBuffer(op marshal.ExtractBuffer) {
	w := b.w
	elem := localSpelling(op.Elem)
	if op.Size > 0 {
		prefix := sanitizeIdentifier(op.Dest)
		w.open("")
		w.line("jerry_length_t %s_byte_offset = 0;", prefix)
		w.line("jerry_length_t %s_byte_length = 0;", prefix)
		w.line("jerry_value_t %s_buffer = jerry_get_typedarray_buffer (%s, &%s_byte_offset, &%s_byte_length);", prefix, op.Value, prefix, prefix)
		w.open("if (%s_byte_length > sizeof (%s))", prefix, op.Dest)
		w.line("%s_byte_length = sizeof (%s);", prefix, op.Dest)
		w.close()
		w.line("jerry_arraybuffer_read (%s_buffer, %s_byte_offset, (uint8_t *) %s, %s_byte_length);", prefix, prefix, op.Dest, prefix)
		w.line("jerry_release_value (%s_buffer);", prefix)
		w.close()
		return
	}
	d := op.Dest
	w.open("if (jerry_value_is_typedarray (%s))", op.Value)
	w.line("%s_buffer = jerry_get_typedarray_buffer (%s, &%s_byte_offset, &%s_byte_length);", d, op.Value, d, d)
	w.line("%s = (%s *) malloc (%s_byte_length ? %s_byte_length : 1);", d, elem, d, d)
	w.open("if (%s == NULL)", d)
	w.error(errCommon, "Fail to allocate memory.")
	w.close()
	w.line("jerry_arraybuffer_read (%s_buffer, %s_byte_offset, (uint8_t *) %s, %s_byte_length);", d, d, d, d)
	w.close()
}

func (b *body) call(op marshal.Call) {
	args := strings.Join(op.Args, ", ")
	var callee string
	switch op.Kind {
	case marshal.CallFunction:
		callee = op.Callee
	case marshal.CallMethod:
		callee = op.Receiver + "->" + op.Callee
	case marshal.CallStatic:
		callee = op.Receiver + "::" + op.Callee
	case marshal.CallNew:
		b.w.line("%s = new %s (%s);", op.Result, op.Callee, args)
		return
	}
	if op.Result == "" {
		b.w.line("%s (%s);", callee, args)
		return
	}
	b.w.line("%s = %s (%s);", declarator(localSpelling(op.ResultType), op.Result), callee, args)
}

// nullable maps a NULL native pointer to null and runs fn otherwise.
func (b *body) nullable(dest, from string, fn func()) {
	w := b.w
	w.open("if (%s == NULL)", from)
	w.line("%s = jerry_create_null ();", dest)
	w.close()
	w.open("else")
	fn()
	w.close()
}

// typeInfo names the native info block of a class record.
func typeInfo(rec *ir.RecordDecl) string {
	return sanitizeIdentifier(rec.Name) + "_type_info"
}

// creator names the function binding a heap instance to a new object.
func creator(rec *ir.RecordDecl) string {
	return sanitizeIdentifier(rec.Name) + "_js_creator"
}
