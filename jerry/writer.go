package jerry

import (
	"bytes"
	"fmt"
	"strings"
)

// writer emits indented C source into a buffer.
type writer struct {
	buf    *bytes.Buffer
	indent string
	depth  int
}

func newWriter(buf *bytes.Buffer, size int) *writer {
	return &writer{buf: buf, indent: strings.Repeat(" ", size)}
}

// line writes one formatted line at the current depth. An empty format
// writes a blank line.
func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.buf.WriteByte('\n')
		return
	}
	for range w.depth {
		w.buf.WriteString(w.indent)
	}
	if len(args) > 0 {
		fmt.Fprintf(w.buf, format, args...)
	} else {
		w.buf.WriteString(format)
	}
	w.buf.WriteByte('\n')
}

// open writes an optional header line followed by an opening brace on its
// own line, then indents.
func (w *writer) open(format string, args ...any) {
	if format != "" {
		w.line(format, args...)
	}
	w.line("{")
	w.depth++
}

// close dedents and writes a closing brace with an optional suffix.
func (w *writer) close(suffix ...string) {
	w.depth--
	w.line("%s", "}"+strings.Join(suffix, ""))
}

// error writes a return of a type error with a constant message.
func (w *writer) error(kind, msg string) {
	w.line("return jerry_create_error (%s, (const jerry_char_t *) %s);", kind, cString(msg))
}
