package marshal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/broady/bindgen/ir"
)

// HandlerNames are the identifiers every generated handler uses itself.
var HandlerNames = []string{
	"function_obj", "this_val", "args_p", "args_cnt", "ret_val",
	"native_ptr", "prop_name", "malloc", "free",
}

// Scope hands out collision-free identifiers within one C scope. A name is
// returned unchanged the first time and with a numeric suffix afterwards.
type Scope struct {
	parent *Scope
	used   map[string]bool
}

// NewScope returns a scope with the given names already taken.
func NewScope(reserved ...string) *Scope {
	s := &Scope{used: make(map[string]bool)}
	for _, name := range reserved {
		s.used[name] = true
	}
	return s
}

// Child returns a nested scope that sees every name taken in s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, used: make(map[string]bool)}
}

// Has reports whether name is taken in s or an enclosing scope.
func (s *Scope) Has(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.used[name] {
			return true
		}
	}
	return false
}

// Reserve takes name, or the first free "<name>_<n>".
func (s *Scope) Reserve(name string) string {
	if name == "" {
		name = "tmp"
	}
	if !s.Has(name) {
		s.used[name] = true
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !s.Has(candidate) {
			s.used[candidate] = true
			return candidate
		}
	}
}

// Context carries naming state through one declaration's synthesis.
type Context struct {
	// Callable is the name used in runtime error messages, such as
	// "make_point" or "Counter.add".
	Callable string

	// Owner is the declaration warnings are recorded against; it also
	// prefixes trampoline names.
	Owner string

	// Scope holds handler-local names.
	Scope *Scope

	// Globals holds file-level names declared on behalf of Owner:
	// trampolines and their slots.
	Globals *Scope

	path []string
	diag *diagnostics

	// records are the records whose conversion encloses this context,
	// outermost first.
	records []ir.RecordID
}

// diagnostics collects what synthesis produces besides ops. It is shared by
// every context derived from one NewContext call.
type diagnostics struct {
	warnings    []ir.Warning
	trampolines []*Trampoline
}

// unsupported records a warning for a type with no marshalling strategy.
func (c *Context) unsupported(t ir.Type) {
	where := c.Callable
	if p := c.Path(); p != "" {
		where += " " + p
	}
	c.diag.warnings = append(c.diag.warnings, ir.Warning{
		Code:    ir.CodeUnsupportedType,
		Message: fmt.Sprintf("%s: unsupported type %q", where, t.Spelling()),
		Decl:    c.Owner,
		Type:    t.Spelling(),
	})
}

// Warnings returns every warning recorded through this context.
func (c *Context) Warnings() []ir.Warning {
	return c.diag.warnings
}

// Trampolines returns every trampoline created through this context.
func (c *Context) Trampolines() []*Trampoline {
	return c.diag.trampolines
}

// NewContext returns a context with a fresh handler scope. Handler names
// and the callee itself are reserved so locals never shadow them.
func NewContext(callable, owner string, globals *Scope, reserved ...string) *Context {
	if globals == nil {
		globals = NewScope()
	}
	names := append(append([]string{}, HandlerNames...), reserved...)
	return &Context{
		Callable: callable,
		Owner:    owner,
		Scope:    NewScope(names...),
		Globals:  globals,
		diag:     &diagnostics{},
	}
}

// Branch returns a context for a nested block: it shares the owner and
// globals but gets a child scope.
func (c *Context) Branch() *Context {
	out := *c
	out.Scope = c.Scope.Child()
	out.path = append([]string(nil), c.path...)
	return &out
}

// At returns a context whose path is extended by name.
func (c *Context) At(name string) *Context {
	out := *c
	out.path = append(append([]string(nil), c.path...), name)
	return &out
}

// enter returns a context nested in the conversion of rec. ok is false when
// rec is already being converted further out, as for a list node that
// points to its own type.
func (c *Context) enter(rec *ir.RecordDecl) (*Context, bool) {
	if c.converting(rec) {
		return c, false
	}
	out := *c
	out.records = append(append([]ir.RecordID(nil), c.records...), rec.ID)
	return &out, true
}

func (c *Context) converting(rec *ir.RecordDecl) bool {
	for _, id := range c.records {
		if id == rec.ID {
			return true
		}
	}
	return false
}

// Path joins the context path with underscores.
func (c *Context) Path() string {
	return strings.Join(c.path, "_")
}

// fieldLocal names the local holding field index of the record held in
// recordLocal.
func fieldLocal(recordLocal string, index int, field string) string {
	return fmt.Sprintf("%s%d_%s", recordLocal, index, field)
}
