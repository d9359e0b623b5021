// Package provider builds the declaration model from an AST snapshot.
package provider

import (
	"context"
	"fmt"

	"github.com/broady/bindgen/ast"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/macro"
)

// SnapshotProvider extracts declarations from a libclang-style snapshot.
type SnapshotProvider struct{}

// InputOptions configures declaration extraction.
type InputOptions struct {
	// Module is the script-visible module name.
	Module string

	// Language overrides the snapshot's language when set.
	Language ir.Language

	// APIHeaders are glob patterns selecting the headers whose declarations
	// are bound. At least one is required.
	APIHeaders []string

	// MaxMacroTokens bounds macro expansion. Zero uses the resolver default.
	MaxMacroTokens int
}

// BuildModule walks the snapshot's top-level cursors once, then resolves
// macros. Declarations outside the API headers are skipped; records they
// define are still registered when an API declaration uses them.
func (p *SnapshotProvider) BuildModule(ctx context.Context, snap *ast.Snapshot, opts InputOptions) (*ir.Module, error) {
	if snap == nil || snap.Root == nil {
		return nil, fmt.Errorf("empty snapshot")
	}
	if len(opts.APIHeaders) == 0 {
		return nil, fmt.Errorf("no api header patterns")
	}
	filter, err := NewHeaderFilter(opts.APIHeaders)
	if err != nil {
		return nil, err
	}
	lang := opts.Language
	if lang == "" {
		lang = ir.Language(snap.Language)
	}
	if lang != ir.LangC && lang != ir.LangCPP {
		return nil, fmt.Errorf("unknown language %q", lang)
	}

	b := newBuilder(snap, ir.NewModule(opts.Module, lang), filter)
	b.collectTypedefNames()

	for _, cur := range snap.Root.Children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !filter.Match(cur.Location.File) {
			continue
		}
		b.visit(cur)
	}

	res := macro.Resolve(b.macros, macro.Options{MaxTokens: opts.MaxMacroTokens})
	for _, w := range res.Warnings {
		b.mod.AddWarning(w)
	}
	return b.mod, nil
}

// builder accumulates declarations during the walk.
type builder struct {
	snap   *ast.Snapshot
	mod    *ir.Module
	filter *HeaderFilter

	// typedefNames maps anonymous record and enum ids to the first typedef
	// naming them.
	typedefNames map[string]string

	// building guards against records that reach themselves through
	// pointer fields while their fields are being classified.
	building map[ir.RecordID]bool

	// anonSites counts anonymous records named after each use site.
	anonSites map[string]int

	// cppFuncs groups C++ free functions by name.
	cppFuncs map[string]*ir.FunctionDecl

	macros  []*ir.MacroDecl
	headers map[string]bool
}

func newBuilder(snap *ast.Snapshot, mod *ir.Module, filter *HeaderFilter) *builder {
	return &builder{
		snap:         snap,
		mod:          mod,
		filter:       filter,
		typedefNames: make(map[string]string),
		building:     make(map[ir.RecordID]bool),
		anonSites:    make(map[string]int),
		cppFuncs:     make(map[string]*ir.FunctionDecl),
		headers:      make(map[string]bool),
	}
}

func (b *builder) collectTypedefNames() {
	for _, cur := range b.snap.Root.Children {
		if cur.Kind != ast.TypedefDecl || cur.Type == nil {
			continue
		}
		under := cur.Type.CanonicalType()
		if under == nil || under.Decl == "" {
			continue
		}
		decl := b.snap.Lookup(under.Decl)
		if decl == nil || decl.Spelling != "" {
			continue
		}
		if _, ok := b.typedefNames[under.Decl]; !ok {
			b.typedefNames[under.Decl] = cur.Spelling
		}
	}
}

func (b *builder) visit(cur *ast.Cursor) {
	src := sourceOf(cur)
	switch cur.Kind {
	case ast.EnumDecl:
		b.noteHeader(src)
		b.mod.AddDecl(b.enumDecl(cur))

	case ast.FunctionDecl:
		b.noteHeader(src)
		fn := b.functionDecl(cur)
		if b.mod.Language == ir.LangCPP {
			b.groupFunction(fn)
			return
		}
		b.mod.AddDecl(fn)

	case ast.VarDecl:
		b.noteHeader(src)
		t := b.classify(cur.Type, site{owner: cur.Spelling, expr: cur.Spelling})
		b.mod.AddDecl(&ir.VariableDecl{
			Source:  src,
			Name:    cur.Spelling,
			Type:    t,
			IsConst: t.Const(),
		})

	case ast.MacroDefinition:
		m := &ir.MacroDecl{
			Source:       src,
			Name:         cur.Spelling,
			Tokens:       convertTokens(cur.Tokens),
			FunctionLike: cur.FunctionLike,
		}
		b.macros = append(b.macros, m)
		b.mod.AddDecl(m)

	case ast.StructDecl, ast.UnionDecl, ast.ClassDecl:
		// Anonymous records are named and registered at their first use.
		if cur.Spelling == "" || !cur.Definition && b.snap.Lookup(cur.ID) != cur {
			return
		}
		b.noteHeader(src)
		var spelling string
		if cur.Type != nil {
			spelling = cur.Type.Spelling
		}
		id := b.record(cur, spelling, site{})
		if r := b.mod.Record(id); r != nil {
			b.mod.AddDecl(r)
		}
	}
}

func (b *builder) noteHeader(src ir.Source) {
	if src.File == "" || b.headers[src.File] {
		return
	}
	b.headers[src.File] = true
	b.mod.Headers = append(b.mod.Headers, src.File)
}

func (b *builder) enumDecl(cur *ast.Cursor) *ir.EnumDecl {
	name := cur.Spelling
	if name == "" {
		name = b.typedefNames[cur.ID]
	}
	e := &ir.EnumDecl{Source: sourceOf(cur), Name: name}
	for _, ch := range cur.ChildrenOf(ast.EnumConstantDecl) {
		e.Constants = append(e.Constants, ir.EnumConstant{Name: ch.Spelling, Value: ch.Value})
	}
	return e
}

func (b *builder) functionDecl(cur *ast.Cursor) *ir.FunctionDecl {
	fn := &ir.FunctionDecl{Source: sourceOf(cur), Name: cur.Spelling}
	fnType := cur.Type.CanonicalType()
	if fnType != nil && fnType.Kind == ast.Pointer {
		fnType = fnType.Pointee.CanonicalType()
	}
	if fnType != nil {
		fn.Result = b.classify(fnType.Result, site{owner: cur.Spelling})
	} else {
		fn.Result = ir.Unsupported("<missing result type>")
	}
	fn.Params = b.params(cur, fnType)
	return fn
}

// params reads PARM_DECL children, falling back to the function type's
// parameter list for declarations made through a function typedef.
func (b *builder) params(cur *ast.Cursor, fnType *ast.Type) []ir.Param {
	var out []ir.Param
	parms := cur.ChildrenOf(ast.ParmDecl)
	if len(parms) > 0 {
		for i, p := range parms {
			name := p.Spelling
			if name == "" {
				name = fmt.Sprintf("arg_%d", i)
			}
			out = append(out, ir.Param{
				Name:       name,
				Type:       b.classify(p.Type, site{owner: cur.Spelling + "_" + name}),
				HasDefault: p.HasDefault,
			})
		}
		return out
	}
	if fnType == nil {
		return nil
	}
	for i, pt := range fnType.Params {
		name := fmt.Sprintf("arg_%d", i)
		out = append(out, ir.Param{Name: name, Type: b.classify(pt, site{owner: cur.Spelling + "_" + name})})
	}
	return out
}

// groupFunction merges C++ free functions that share a name into one
// declaration with an overload set.
func (b *builder) groupFunction(fn *ir.FunctionDecl) {
	existing, ok := b.cppFuncs[fn.Name]
	if !ok {
		fn.Overloads = ir.NewOverloadSet()
		b.cppFuncs[fn.Name] = fn
		b.mod.AddDecl(fn)
		existing = fn
	}
	existing.Overloads.AddCallable(fn.Params, fn.Result)
}

func sourceOf(cur *ast.Cursor) ir.Source {
	return ir.Source{File: cur.Location.File, Line: cur.Location.Line, Column: cur.Location.Column}
}

func convertTokens(tokens []ast.Token) []ir.Token {
	out := make([]ir.Token, len(tokens))
	for i, t := range tokens {
		kind := ir.TokenPunctuation
		switch t.Kind {
		case ast.Keyword:
			kind = ir.TokenKeyword
		case ast.Identifier:
			kind = ir.TokenIdentifier
		case ast.Literal:
			kind = ir.TokenLiteral
		case ast.Comment:
			kind = ir.TokenComment
		}
		out[i] = ir.Token{Spelling: t.Spelling, Kind: kind}
	}
	return out
}
