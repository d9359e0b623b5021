package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Language selects C or C++ binding semantics.
type Language string

const (
	LangC   Language = "c"
	LangCPP Language = "cpp"
)

// ErrorCode identifies a generation-time diagnostic.
type ErrorCode string

const (
	CodeUnsupportedType          ErrorCode = "unsupported_type"
	CodeMacroCycle               ErrorCode = "macro_cycle"
	CodeAmbiguousAnonymousRecord ErrorCode = "ambiguous_anonymous_record"
	CodeInvalidMacro             ErrorCode = "invalid_macro"
	CodeUnresolvedOverload       ErrorCode = "unresolved_overload"
)

// Warning is a non-fatal issue recorded against one declaration.
type Warning struct {
	Code    ErrorCode
	Message string

	// Decl names the declaration that triggered the warning.
	Decl string

	// Source is the triggering location, if known.
	Source *Source

	// Type is the spelling of the offending type for unsupported_type
	// warnings raised during synthesis.
	Type string
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Source != nil && !w.Source.IsZero() {
		fmt.Fprintf(&b, "%s:%d: ", w.Source.File, w.Source.Line)
	}
	b.WriteString(string(w.Code))
	if w.Decl != "" {
		b.WriteString(" in ")
		b.WriteString(w.Decl)
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	return b.String()
}

// Module is the complete set of declarations collected from a snapshot.
type Module struct {
	// Name is the script-visible module name.
	Name string

	Language Language

	// Headers are the API headers the declarations came from, in the order
	// they were first seen.
	Headers []string

	// Decls holds declarations in discovery order.
	Decls []Decl

	// Warnings accumulates non-fatal issues from every stage.
	Warnings []Warning

	records map[RecordID]*RecordDecl
	enums   map[string]*EnumDecl
}

// NewModule returns an empty module.
func NewModule(name string, lang Language) *Module {
	return &Module{
		Name:     name,
		Language: lang,
		records:  make(map[RecordID]*RecordDecl),
		enums:    make(map[string]*EnumDecl),
	}
}

// AddDecl appends a declaration. Records and enums are also indexed.
func (m *Module) AddDecl(d Decl) {
	m.Decls = append(m.Decls, d)
	switch d := d.(type) {
	case *RecordDecl:
		m.AddRecord(d)
	case *EnumDecl:
		if d.Name == "" {
			break
		}
		if m.enums == nil {
			m.enums = make(map[string]*EnumDecl)
		}
		m.enums[d.Name] = d
	}
}

// AddRecord indexes a record without listing it as a top-level declaration.
// Records only reachable through other declarations (for example anonymous
// field types) are registered this way.
func (m *Module) AddRecord(r *RecordDecl) {
	if m.records == nil {
		m.records = make(map[RecordID]*RecordDecl)
	}
	m.records[r.ID] = r
}

// AddWarning records a non-fatal issue.
func (m *Module) AddWarning(w Warning) {
	m.Warnings = append(m.Warnings, w)
}

// Record resolves a record reference. Returns nil if unknown.
func (m *Module) Record(id RecordID) *RecordDecl {
	return m.records[id]
}

// Enum looks up a named enum. Returns nil if unknown.
func (m *Module) Enum(name string) *EnumDecl {
	return m.enums[name]
}

// DeclarationOf returns the declaration behind a record, enum, or function
// type. Function types yield a synthetic FunctionDecl with positional
// parameter names. Returns nil for every other kind.
func (m *Module) DeclarationOf(t Type) Decl {
	switch t := t.(type) {
	case *RecordType:
		if r := m.Record(t.Ref); r != nil {
			return r
		}
	case *EnumType:
		if e := m.Enum(t.Name); e != nil {
			return e
		}
	case *FunctionType:
		fn := &FunctionDecl{Name: t.Spelling(), Result: t.Result}
		for i, p := range t.Params {
			fn.Params = append(fn.Params, Param{Name: fmt.Sprintf("arg_%d", i), Type: p})
		}
		return fn
	case *PointerType:
		if f, ok := t.Elem.(*FunctionType); ok {
			return m.DeclarationOf(f)
		}
	}
	return nil
}

// Records returns every indexed record, top-level or not, in discovery order
// of the top-level declarations followed by the rest sorted by id.
func (m *Module) Records() []*RecordDecl {
	seen := make(map[RecordID]bool, len(m.records))
	var out []*RecordDecl
	for _, d := range m.Decls {
		if r, ok := d.(*RecordDecl); ok && !seen[r.ID] {
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	var rest []*RecordDecl
	for id, r := range m.records {
		if !seen[id] {
			rest = append(rest, r)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })
	return append(out, rest...)
}

// ValidationError describes a structural problem in a module.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// Validate checks structural invariants and returns every violation found.
func (m *Module) Validate() []error {
	var errs []*ValidationError

	names := make(map[string]DeclKind)
	for _, d := range m.Decls {
		name := d.DeclName()
		if name == "" {
			continue
		}
		if prev, ok := names[name]; ok && prev == d.DeclKind() {
			errs = append(errs, &ValidationError{
				Code:    "duplicate_decl",
				Message: fmt.Sprintf("duplicate %s declaration %s", d.DeclKind(), name),
			})
		}
		names[name] = d.DeclKind()
	}

	for _, d := range m.Decls {
		where := d.DeclKind().String() + " " + d.DeclName()
		switch d := d.(type) {
		case *FunctionDecl:
			errs = append(errs, m.checkRefs(d.Result, where)...)
			for _, p := range d.Params {
				errs = append(errs, m.checkRefs(p.Type, where+" param "+p.Name)...)
			}
			errs = append(errs, checkOverloads(d.Overloads, where)...)
		case *VariableDecl:
			errs = append(errs, m.checkRefs(d.Type, where)...)
		case *RecordDecl:
			for _, f := range d.Fields {
				errs = append(errs, m.checkRefs(f.Type, where+" field "+f.Name)...)
			}
			errs = append(errs, checkOverloads(d.Constructors, where+" constructors")...)
			for _, meth := range d.Methods {
				errs = append(errs, checkOverloads(meth.Overloads, where+" method "+meth.Name)...)
			}
		}
	}

	errs = append(errs, m.detectValueCycles()...)

	result := make([]error, len(errs))
	for i, e := range errs {
		result[i] = e
	}
	return result
}

func (m *Module) checkRefs(t Type, where string) []*ValidationError {
	var errs []*ValidationError
	var walk func(t Type)
	walk = func(t Type) {
		switch t := t.(type) {
		case *RecordType:
			if m.Record(t.Ref) == nil {
				errs = append(errs, &ValidationError{
					Code:    "missing_record",
					Message: where + " references unknown record " + string(t.Ref),
				})
			}
		case *PointerType:
			walk(t.Elem)
		case *ArrayType:
			walk(t.Elem)
		case *FunctionType:
			walk(t.Result)
			for _, p := range t.Params {
				walk(p)
			}
		}
	}
	walk(t)
	return errs
}

func checkOverloads(s *OverloadSet, where string) []*ValidationError {
	if s == nil {
		return nil
	}
	var errs []*ValidationError
	for _, arity := range s.Arities() {
		for _, sig := range s.Candidates(arity) {
			if sig.Arity() != arity {
				errs = append(errs, &ValidationError{
					Code:    "overload_arity",
					Message: fmt.Sprintf("%s: candidate %d has %d params in bucket %d", where, sig.Order, sig.Arity(), arity),
				})
			}
		}
	}
	return errs
}

// detectValueCycles finds records that contain themselves by value, which
// no record layout can satisfy. Cycles through pointer fields are legal and
// are cut during marshalling instead.
func (m *Module) detectValueCycles() []*ValidationError {
	var errs []*ValidationError
	visited := make(map[RecordID]bool)
	inStack := make(map[RecordID]bool)
	reported := make(map[RecordID]bool)

	var visit func(id RecordID, path []string)
	visit = func(id RecordID, path []string) {
		r := m.Record(id)
		if r == nil {
			return
		}
		if inStack[id] {
			if !reported[id] {
				reported[id] = true
				errs = append(errs, &ValidationError{
					Code:    "record_cycle",
					Message: "record contains itself by value: " + strings.Join(append(path, r.Name), " -> "),
				})
			}
			return
		}
		if visited[id] {
			return
		}
		visited[id] = true
		inStack[id] = true
		for _, f := range r.Fields {
			elem, _, _ := ArrayChain(f.Type)
			if rt, ok := elem.(*RecordType); ok {
				visit(rt.Ref, append(path, r.Name))
			}
		}
		inStack[id] = false
	}

	for _, r := range m.Records() {
		visit(r.ID, nil)
	}
	return errs
}
