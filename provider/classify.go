package provider

import (
	"fmt"
	"strings"

	"github.com/broady/bindgen/ast"
	"github.com/broady/bindgen/ir"
)

// site describes where a type is used. owner seeds synthetic names for
// anonymous records; expr is a C expression of that type, used to spell
// anonymous records through __typeof__.
type site struct {
	owner string
	expr  string
}

func (s site) field(owner *ir.RecordDecl, name string) site {
	out := site{owner: owner.Name + "_" + name}
	if owner.Spelling != "" {
		out.expr = fmt.Sprintf("((%s *) 0)->%s", owner.Spelling, name)
	}
	return out
}

// Classify converts a raw snapshot type into the IR. It is exported for
// callers that hold a snapshot but not a full module build, such as the
// check command.
func Classify(snap *ast.Snapshot, mod *ir.Module, t *ast.Type) ir.Type {
	filter, _ := NewHeaderFilter(nil)
	return newBuilder(snap, mod, filter).classify(t, site{})
}

// classify resolves the canonical type and maps it onto an IR variant.
// Unknown kinds become UnsupportedType.
func (b *builder) classify(t *ast.Type, s site) ir.Type {
	if t == nil {
		return ir.Unsupported("<missing type>")
	}
	c := t.CanonicalType()
	spelling := t.Spelling
	if spelling == "" {
		spelling = c.Spelling
	}

	var out ir.Type
	canonical := c.Spelling
	switch c.Kind {
	case ast.Void:
		out = ir.Void()
	case ast.Bool:
		out = ir.Bool(spelling)
	case ast.CharS, ast.CharU:
		out = ir.Char(spelling, 1)
	case ast.Char16:
		out = ir.Char(spelling, 2)
	case ast.Char32, ast.WChar:
		out = ir.Char(spelling, 4)
	case ast.UChar, ast.SChar, ast.Short, ast.UShort, ast.Int, ast.UInt,
		ast.Long, ast.ULong, ast.LongLong, ast.ULongLong, ast.Int128, ast.UInt128,
		ast.Float, ast.Double, ast.LongDouble:
		repr, ok := numberRepr(c)
		if !ok {
			out = ir.Unsupported(spelling)
			break
		}
		out = ir.Number(spelling, repr)
	case ast.Enum:
		out = ir.Enum(spelling, b.enumName(c))
	case ast.Pointer:
		elem := b.classify(c.Pointee, s)
		out = ir.Pointer(elem)
	case ast.ConstantArray:
		out = ir.Array(b.classify(c.Element, s), c.Count)
	case ast.IncompleteArray:
		out = ir.Array(b.classify(c.Element, s), 0)
	case ast.Record:
		id, recSpelling := b.recordRef(c, s)
		if strings.Contains(spelling, "(anonymous") || strings.Contains(spelling, "(unnamed") || spelling == "" {
			spelling = recSpelling
		}
		canonical = recSpelling
		out = ir.Record(spelling, id)
	case ast.FunctionProto, ast.FunctionNoProto:
		fn := ir.Function(spelling, b.classify(c.Result, s))
		for i, p := range c.Params {
			fn.Params = append(fn.Params, b.classify(p, site{owner: fmt.Sprintf("%s_%d", s.owner, i)}))
		}
		out = fn
	default:
		out = ir.Unsupported(spelling)
	}
	out = ir.WithSpelling(ir.WithConst(out, c.Const || t.Const), spelling)
	if out.Const() && canonical != "" && canonical != spelling {
		out = ir.WithCanonical(out, canonical)
	}
	return out
}

// numberRepr maps an integer or floating kind onto a representation. Sizes
// reported by the snapshot take precedence over the LP64 defaults.
func numberRepr(t *ast.Type) (ir.NumberRepr, bool) {
	var size int
	signed := true
	switch t.Kind {
	case ast.Float:
		return ir.Float32, true
	case ast.Double:
		return ir.Float64, true
	case ast.LongDouble:
		return ir.LongDouble, true
	case ast.SChar:
		size = 1
	case ast.UChar:
		size, signed = 1, false
	case ast.Short:
		size = 2
	case ast.UShort:
		size, signed = 2, false
	case ast.Int:
		size = 4
	case ast.UInt:
		size, signed = 4, false
	case ast.Long, ast.LongLong:
		size = 8
	case ast.ULong, ast.ULongLong:
		size, signed = 8, false
	case ast.Int128:
		size = 16
	case ast.UInt128:
		size, signed = 16, false
	default:
		return 0, false
	}
	if t.Size > 0 {
		size = t.Size
	}
	return ir.IntRepr(size, signed)
}

func (b *builder) enumName(t *ast.Type) string {
	if decl := b.snap.Lookup(t.Decl); decl != nil {
		if decl.Spelling != "" {
			return decl.Spelling
		}
		if name, ok := b.typedefNames[decl.ID]; ok {
			return name
		}
	}
	return strings.TrimPrefix(t.Spelling, "enum ")
}

// recordRef registers the record behind a canonical record type and returns
// its id and canonical spelling.
func (b *builder) recordRef(t *ast.Type, s site) (ir.RecordID, string) {
	decl := b.snap.Lookup(t.Decl)
	if decl == nil {
		// Opaque: no definition in the snapshot.
		id := ir.RecordID("opaque:" + t.Spelling)
		if b.mod.Record(id) == nil {
			b.mod.AddRecord(&ir.RecordDecl{ID: id, Name: cIdentifier(t.Spelling), Spelling: t.Spelling})
		}
		return id, t.Spelling
	}
	id := b.record(decl, t.Spelling, s)
	return id, b.mod.Record(id).Spelling
}

// record registers a record declaration and returns its id. Records are
// registered before their fields are classified so that self-referential
// pointers resolve.
func (b *builder) record(cur *ast.Cursor, spelling string, s site) ir.RecordID {
	id := ir.RecordID(cur.ID)
	if id == "" {
		id = ir.RecordID("anon:" + s.owner)
	}
	if r := b.mod.Record(id); r != nil || b.building[id] {
		return id
	}

	r := &ir.RecordDecl{
		Source: sourceOf(cur),
		ID:     id,
		Name:   cur.Spelling,
		Tag:    tagOf(cur.Kind),
	}
	if r.Name == "" {
		r.Anonymous = true
		r.Name, r.Spelling = b.anonymousName(cur, s)
	} else {
		r.Spelling = spelling
		if r.Spelling == "" || strings.Contains(r.Spelling, "(anonymous") {
			r.Spelling = r.Name
			if b.mod.Language == ir.LangC {
				r.Spelling = r.Tag.String() + " " + r.Name
			}
		}
	}

	b.building[id] = true
	b.mod.AddRecord(r)
	defer delete(b.building, id)

	for _, ch := range cur.Children {
		if !ch.IsPublic() {
			continue
		}
		switch ch.Kind {
		case ast.FieldDecl:
			if ch.Spelling == "" {
				b.mod.AddWarning(ir.Warning{
					Code:    ir.CodeUnsupportedType,
					Message: "unnamed member of " + r.Name + " is not bound",
					Decl:    r.Name,
					Source:  ptr(sourceOf(ch)),
				})
				continue
			}
			r.Fields = append(r.Fields, ir.Field{
				Name: ch.Spelling,
				Type: b.classify(ch.Type, s.field(r, ch.Spelling)),
			})
		case ast.Constructor:
			if r.Constructors == nil {
				r.Constructors = ir.NewOverloadSet()
			}
			r.Constructors.AddCallable(b.params(ch, ch.Type.CanonicalType()), nil)
			r.HasDefaultCtor = r.HasDefaultCtor || ch.DefaultCtor
			r.HasCopyCtor = r.HasCopyCtor || ch.CopyCtor
		case ast.CXXMethod:
			if strings.HasPrefix(ch.Spelling, "operator") {
				continue
			}
			b.method(r, ch)
		}
	}

	// C++ records without a declared constructor get the implicit one.
	if b.mod.Language == ir.LangCPP && r.Constructors == nil {
		r.Constructors = ir.NewOverloadSet()
		r.Constructors.Add(nil, nil)
		r.HasDefaultCtor = true
	}
	return id
}

func (b *builder) method(r *ir.RecordDecl, cur *ast.Cursor) {
	fnType := cur.Type.CanonicalType()
	var result ir.Type = ir.Unsupported("<missing result type>")
	if fnType != nil {
		result = b.classify(fnType.Result, site{owner: r.Name + "_" + cur.Spelling})
	}
	m := r.Method(cur.Spelling)
	if m == nil {
		m = &ir.MethodDecl{Name: cur.Spelling, Result: result, Static: cur.Static, Overloads: ir.NewOverloadSet()}
		r.Methods = append(r.Methods, m)
	}
	params := b.params(cur, fnType)
	m.Overloads.AddCallable(params, result)
}

// anonymousName derives a name for an anonymous record from its typedef or
// first use site. A second anonymous record at the same site gets a
// positional suffix.
func (b *builder) anonymousName(cur *ast.Cursor, s site) (name, spelling string) {
	if td, ok := b.typedefNames[cur.ID]; ok {
		return td, td
	}
	base := s.owner
	if base == "" {
		base = "anonymous"
	}
	n := b.anonSites[base]
	b.anonSites[base]++
	name = base
	if n > 0 {
		name = fmt.Sprintf("%s_%d", base, n)
		b.mod.AddWarning(ir.Warning{
			Code:    ir.CodeAmbiguousAnonymousRecord,
			Message: fmt.Sprintf("anonymous %s at %s named %s", tagOf(cur.Kind), base, name),
			Decl:    name,
			Source:  ptr(sourceOf(cur)),
		})
	}
	spelling = name
	if s.expr != "" {
		spelling = "__typeof__ (" + s.expr + ")"
	}
	return name, spelling
}

func tagOf(kind ast.CursorKind) ir.RecordTag {
	switch kind {
	case ast.UnionDecl:
		return ir.TagUnion
	case ast.ClassDecl:
		return ir.TagClass
	default:
		return ir.TagStruct
	}
}

// cIdentifier turns a type spelling into an identifier fragment.
func cIdentifier(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "struct "), "union ")
	var b strings.Builder
	for _, r := range s {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func ptr[T any](v T) *T { return &v }
