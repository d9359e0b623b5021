// Package ast defines the snapshot format produced by the native AST front end.
//
// A snapshot mirrors libclang's cursor, type, and token model closely enough
// that a small exporter script can dump a translation unit into it. The
// generator never parses header text; everything it knows about a header
// arrives through these types.
package ast

// CursorKind names the kind of a cursor, using libclang spellings.
type CursorKind string

const (
	TranslationUnit  CursorKind = "TRANSLATION_UNIT"
	StructDecl       CursorKind = "STRUCT_DECL"
	UnionDecl        CursorKind = "UNION_DECL"
	ClassDecl        CursorKind = "CLASS_DECL"
	EnumDecl         CursorKind = "ENUM_DECL"
	EnumConstantDecl CursorKind = "ENUM_CONSTANT_DECL"
	FieldDecl        CursorKind = "FIELD_DECL"
	FunctionDecl     CursorKind = "FUNCTION_DECL"
	VarDecl          CursorKind = "VAR_DECL"
	ParmDecl         CursorKind = "PARM_DECL"
	TypedefDecl      CursorKind = "TYPEDEF_DECL"
	MacroDefinition  CursorKind = "MACRO_DEFINITION"
	Constructor      CursorKind = "CONSTRUCTOR"
	Destructor       CursorKind = "DESTRUCTOR"
	CXXMethod        CursorKind = "CXX_METHOD"
	Namespace        CursorKind = "NAMESPACE"
)

// IsRecord reports whether the cursor declares a struct, union, or class.
func (k CursorKind) IsRecord() bool {
	return k == StructDecl || k == UnionDecl || k == ClassDecl
}

// TypeKind names the kind of a type, using libclang spellings.
type TypeKind string

const (
	Invalid         TypeKind = "INVALID"
	Void            TypeKind = "VOID"
	Bool            TypeKind = "BOOL"
	CharU           TypeKind = "CHAR_U"
	UChar           TypeKind = "UCHAR"
	Char16          TypeKind = "CHAR16"
	Char32          TypeKind = "CHAR32"
	UShort          TypeKind = "USHORT"
	UInt            TypeKind = "UINT"
	ULong           TypeKind = "ULONG"
	ULongLong       TypeKind = "ULONGLONG"
	UInt128         TypeKind = "UINT128"
	CharS           TypeKind = "CHAR_S"
	SChar           TypeKind = "SCHAR"
	WChar           TypeKind = "WCHAR"
	Short           TypeKind = "SHORT"
	Int             TypeKind = "INT"
	Long            TypeKind = "LONG"
	LongLong        TypeKind = "LONGLONG"
	Int128          TypeKind = "INT128"
	Float           TypeKind = "FLOAT"
	Double          TypeKind = "DOUBLE"
	LongDouble      TypeKind = "LONGDOUBLE"
	Pointer         TypeKind = "POINTER"
	LValueReference TypeKind = "LVALUEREFERENCE"
	Record          TypeKind = "RECORD"
	Enum            TypeKind = "ENUM"
	Typedef         TypeKind = "TYPEDEF"
	Elaborated      TypeKind = "ELABORATED"
	ConstantArray   TypeKind = "CONSTANTARRAY"
	IncompleteArray TypeKind = "INCOMPLETEARRAY"
	FunctionProto   TypeKind = "FUNCTIONPROTO"
	FunctionNoProto TypeKind = "FUNCTIONNOPROTO"
)

// TokenKind is the lexical category of a macro token.
type TokenKind string

const (
	Punctuation TokenKind = "PUNCTUATION"
	Keyword     TokenKind = "KEYWORD"
	Identifier  TokenKind = "IDENTIFIER"
	Literal     TokenKind = "LITERAL"
	Comment     TokenKind = "COMMENT"
)

// Access is a C++ access specifier. Empty means public (C declarations).
type Access string

const (
	Public    Access = "public"
	Protected Access = "protected"
	Private   Access = "private"
)

// Location is a position in a source file.
type Location struct {
	File   string `yaml:"file" json:"file"`
	Line   int    `yaml:"line,omitempty" json:"line,omitempty"`
	Column int    `yaml:"column,omitempty" json:"column,omitempty"`
}

// Token is one lexical token of a macro definition.
type Token struct {
	Spelling string    `yaml:"spelling" json:"spelling"`
	Kind     TokenKind `yaml:"kind" json:"kind"`
}

// Type is a type handle as reported by the front end.
//
// Canonical is nil when the type is already canonical. Decl names the
// declaring cursor for records, enums, and typedefs.
type Type struct {
	Kind      TypeKind `yaml:"kind" json:"kind"`
	Spelling  string   `yaml:"spelling,omitempty" json:"spelling,omitempty"`
	Const     bool     `yaml:"const,omitempty" json:"const,omitempty"`
	Size      int      `yaml:"size,omitempty" json:"size,omitempty"`
	Canonical *Type    `yaml:"canonical,omitempty" json:"canonical,omitempty"`
	Pointee   *Type    `yaml:"pointee,omitempty" json:"pointee,omitempty"`
	Element   *Type    `yaml:"element,omitempty" json:"element,omitempty"`
	Count     int      `yaml:"count,omitempty" json:"count,omitempty"`
	Result    *Type    `yaml:"result,omitempty" json:"result,omitempty"`
	Params    []*Type  `yaml:"params,omitempty" json:"params,omitempty"`
	Decl      string   `yaml:"decl,omitempty" json:"decl,omitempty"`
}

// CanonicalType returns the typedef-resolved form of t.
func (t *Type) CanonicalType() *Type {
	if t == nil || t.Canonical == nil {
		return t
	}
	c := t.Canonical
	for c.Canonical != nil && c.Canonical != c {
		c = c.Canonical
	}
	// Qualifiers on the surface spelling carry over.
	if t.Const && !c.Const {
		cp := *c
		cp.Const = true
		return &cp
	}
	return c
}

// Cursor is one node of the translation unit.
type Cursor struct {
	Kind     CursorKind `yaml:"kind" json:"kind"`
	Spelling string     `yaml:"spelling,omitempty" json:"spelling,omitempty"`
	ID       string     `yaml:"id,omitempty" json:"id,omitempty"`
	Type     *Type      `yaml:"type,omitempty" json:"type,omitempty"`
	Location Location   `yaml:"location,omitempty" json:"location,omitempty"`
	Access   Access     `yaml:"access,omitempty" json:"access,omitempty"`
	Children []*Cursor  `yaml:"children,omitempty" json:"children,omitempty"`

	// Macro definitions.
	Tokens       []Token `yaml:"tokens,omitempty" json:"tokens,omitempty"`
	FunctionLike bool    `yaml:"function_like,omitempty" json:"function_like,omitempty"`

	// Parameters with a default argument expression.
	HasDefault bool `yaml:"has_default,omitempty" json:"has_default,omitempty"`

	// Enumerator value.
	Value int64 `yaml:"value,omitempty" json:"value,omitempty"`

	// Constructor and method flags.
	DefaultCtor bool `yaml:"default_ctor,omitempty" json:"default_ctor,omitempty"`
	CopyCtor    bool `yaml:"copy_ctor,omitempty" json:"copy_ctor,omitempty"`
	Static      bool `yaml:"static,omitempty" json:"static,omitempty"`

	// Definition is false for forward declarations.
	Definition bool `yaml:"definition,omitempty" json:"definition,omitempty"`
}

// IsPublic reports whether the cursor is accessible from outside its class.
func (c *Cursor) IsPublic() bool {
	return c.Access == "" || c.Access == Public
}

// ChildrenOf returns the direct children with the given kind.
func (c *Cursor) ChildrenOf(kind CursorKind) []*Cursor {
	var out []*Cursor
	for _, ch := range c.Children {
		if ch.Kind == kind {
			out = append(out, ch)
		}
	}
	return out
}

// Snapshot is a complete translation unit dump.
type Snapshot struct {
	// Language is "c" or "cpp".
	Language string `yaml:"language" json:"language"`

	// Root is the translation unit cursor.
	Root *Cursor `yaml:"root" json:"root"`

	index map[string]*Cursor
}

// Lookup returns the cursor with the given id, or nil.
func (s *Snapshot) Lookup(id string) *Cursor {
	if id == "" {
		return nil
	}
	if s.index == nil {
		s.buildIndex()
	}
	return s.index[id]
}

// Walk visits every cursor depth-first in document order. Returning false
// from fn skips the cursor's children.
func (s *Snapshot) Walk(fn func(c *Cursor, parent *Cursor) bool) {
	if s.Root == nil {
		return
	}
	var visit func(c, parent *Cursor)
	visit = func(c, parent *Cursor) {
		if !fn(c, parent) {
			return
		}
		for _, ch := range c.Children {
			visit(ch, c)
		}
	}
	visit(s.Root, nil)
}

func (s *Snapshot) buildIndex() {
	s.index = make(map[string]*Cursor)
	s.Walk(func(c, _ *Cursor) bool {
		if c.ID == "" {
			return true
		}
		// Prefer the definition over forward declarations sharing an id.
		if prev, ok := s.index[c.ID]; ok && prev.Definition && !c.Definition {
			return true
		}
		s.index[c.ID] = c
		return true
	})
}
