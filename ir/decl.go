package ir

// DeclKind identifies the category of a declaration.
type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclVariable
	DeclEnum
	DeclMacro
	DeclRecord
)

// String returns the string representation of the declaration kind.
func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "Function"
	case DeclVariable:
		return "Variable"
	case DeclEnum:
		return "Enum"
	case DeclMacro:
		return "Macro"
	case DeclRecord:
		return "Record"
	default:
		return "Unknown"
	}
}

// Source is a location in a header file.
type Source struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the source location is empty.
func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}

// Decl is a top-level declaration collected from the API headers.
type Decl interface {
	DeclKind() DeclKind

	// DeclName is the native identifier.
	DeclName() string

	// Src is where the declaration was found.
	Src() Source

	sealed()
}

// Param is a function or method parameter.
type Param struct {
	Name string
	Type Type

	// HasDefault marks a parameter with a default argument (C++).
	HasDefault bool
}

// Field is a record member.
type Field struct {
	Name string
	Type Type
}

// FunctionDecl is a free function. In C++ mode, functions sharing a name are
// grouped and Overloads holds every candidate signature; Params then holds
// the first declaration's full parameter list.
type FunctionDecl struct {
	Source    Source
	Name      string
	Result    Type
	Params    []Param
	Overloads *OverloadSet
}

func (*FunctionDecl) DeclKind() DeclKind { return DeclFunction }
func (d *FunctionDecl) DeclName() string { return d.Name }
func (d *FunctionDecl) Src() Source      { return d.Source }
func (*FunctionDecl) sealed()            {}

// Signature returns the function's type.
func (d *FunctionDecl) Signature() *FunctionType {
	params := make([]Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Type
	}
	return Function(d.Name, d.Result, params...)
}

// VariableDecl is a global variable.
type VariableDecl struct {
	Source  Source
	Name    string
	Type    Type
	IsConst bool
}

func (*VariableDecl) DeclKind() DeclKind { return DeclVariable }
func (d *VariableDecl) DeclName() string { return d.Name }
func (d *VariableDecl) Src() Source      { return d.Source }
func (*VariableDecl) sealed()            {}

// EnumConstant is one enumerator.
type EnumConstant struct {
	Name  string
	Value int64
}

// EnumDecl is an enum declaration. Anonymous enums have an empty Name and
// register their constants directly on the module.
type EnumDecl struct {
	Source    Source
	Name      string
	Constants []EnumConstant
}

func (*EnumDecl) DeclKind() DeclKind { return DeclEnum }
func (d *EnumDecl) DeclName() string { return d.Name }
func (d *EnumDecl) Src() Source      { return d.Source }
func (*EnumDecl) sealed()            {}

// TokenKind is the lexical category of a macro token.
type TokenKind int

const (
	TokenPunctuation TokenKind = iota
	TokenKeyword
	TokenIdentifier
	TokenLiteral
	TokenComment
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenPunctuation:
		return "punctuation"
	case TokenKeyword:
		return "keyword"
	case TokenIdentifier:
		return "identifier"
	case TokenLiteral:
		return "literal"
	case TokenComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Token is a lexical token of a macro definition.
type Token struct {
	Spelling string
	Kind     TokenKind
}

// MacroClass is the classification of a macro body.
type MacroClass int

const (
	MacroUnclassified MacroClass = iota
	MacroChar
	MacroString
	MacroNumber
	MacroFunctionLike
	MacroInvalid
)

// String returns the string representation of the class.
func (c MacroClass) String() string {
	switch c {
	case MacroUnclassified:
		return "Unclassified"
	case MacroChar:
		return "Char"
	case MacroString:
		return "String"
	case MacroNumber:
		return "Number"
	case MacroFunctionLike:
		return "FunctionLike"
	case MacroInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Emittable reports whether macros of this class produce a binding.
func (c MacroClass) Emittable() bool {
	return c == MacroChar || c == MacroString || c == MacroNumber
}

// MacroDecl is an object-like or function-like macro. Tokens is the raw
// stream beginning with the macro name; Resolved is the body after macro
// substitution, without the name.
type MacroDecl struct {
	Source       Source
	Name         string
	Tokens       []Token
	FunctionLike bool
	Class        MacroClass
	Resolved     []Token
}

func (*MacroDecl) DeclKind() DeclKind { return DeclMacro }
func (d *MacroDecl) DeclName() string { return d.Name }
func (d *MacroDecl) Src() Source      { return d.Source }
func (*MacroDecl) sealed()            {}

// RecordID is the canonical identity of a record declaration.
type RecordID string

// RecordTag distinguishes struct, union, and class records.
type RecordTag int

const (
	TagStruct RecordTag = iota
	TagUnion
	TagClass
)

// String returns the C keyword for the tag.
func (t RecordTag) String() string {
	switch t {
	case TagStruct:
		return "struct"
	case TagUnion:
		return "union"
	case TagClass:
		return "class"
	default:
		return "unknown"
	}
}

// MethodDecl is a named C++ member function with its overloads.
type MethodDecl struct {
	Name      string
	Result    Type
	Static    bool
	Overloads *OverloadSet
}

// RecordDecl is a struct, union, or class.
type RecordDecl struct {
	Source    Source
	ID        RecordID
	Name      string
	Tag       RecordTag
	Fields    []Field
	Anonymous bool

	// Spelling is how generated code names the type: "struct point" in C,
	// the typedef name, or a __typeof__ expression for anonymous records.
	Spelling string

	// C++ only.
	Constructors   *OverloadSet
	Methods        []*MethodDecl
	HasDefaultCtor bool
	HasCopyCtor    bool
}

func (*RecordDecl) DeclKind() DeclKind { return DeclRecord }
func (d *RecordDecl) DeclName() string { return d.Name }
func (d *RecordDecl) Src() Source      { return d.Source }
func (*RecordDecl) sealed()            {}

// IsClass reports whether the record is bound as a native-backed class
// rather than converted field by field.
func (d *RecordDecl) IsClass() bool {
	return d.Tag == TagClass || len(d.Methods) > 0 || (d.Constructors != nil && d.Constructors.Len() > 0)
}

// Method returns the method with the given name, or nil.
func (d *RecordDecl) Method(name string) *MethodDecl {
	for _, m := range d.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Field returns the field with the given name.
func (d *RecordDecl) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
