package ir

import (
	"github.com/broady/bindgen/internal/json"
)

// JSON serialization support for IR types and declarations.
// Every value carries a "kind" field for type discrimination.

type typeJSON struct {
	Kind     string `json:"kind"`
	Spelling string `json:"spelling,omitempty"`
	Const    bool   `json:"const,omitempty"`
}

func typeHeader(t Type) typeJSON {
	return typeJSON{Kind: t.Kind().String(), Spelling: t.Spelling(), Const: t.Const()}
}

// MarshalJSON implements json.Marshaler for VoidType.
func (t *VoidType) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeHeader(t))
}

// MarshalJSON implements json.Marshaler for BoolType.
func (t *BoolType) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeHeader(t))
}

// MarshalJSON implements json.Marshaler for CharType.
func (t *CharType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Width int `json:"width"`
	}{typeHeader(t), t.Width})
}

// MarshalJSON implements json.Marshaler for NumberType.
func (t *NumberType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Repr string `json:"repr"`
	}{typeHeader(t), t.Repr.String()})
}

// MarshalJSON implements json.Marshaler for EnumType.
func (t *EnumType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Name string `json:"name"`
	}{typeHeader(t), t.Name})
}

// MarshalJSON implements json.Marshaler for PointerType.
func (t *PointerType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Elem Type `json:"elem"`
	}{typeHeader(t), t.Elem})
}

// MarshalJSON implements json.Marshaler for ArrayType.
func (t *ArrayType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Elem Type `json:"elem"`
		Size int  `json:"size"`
	}{typeHeader(t), t.Elem, t.Size})
}

// MarshalJSON implements json.Marshaler for RecordType.
func (t *RecordType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Ref RecordID `json:"ref"`
	}{typeHeader(t), t.Ref})
}

// MarshalJSON implements json.Marshaler for FunctionType.
func (t *FunctionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Result Type   `json:"result"`
		Params []Type `json:"params"`
	}{typeHeader(t), t.Result, t.Params})
}

// MarshalJSON implements json.Marshaler for UnsupportedType.
func (t *UnsupportedType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		typeJSON
		Name string `json:"name"`
	}{typeHeader(t), t.Name})
}

type paramJSON struct {
	Name       string `json:"name"`
	Type       Type   `json:"type"`
	HasDefault bool   `json:"hasDefault,omitempty"`
}

func paramsJSON(ps []Param) []paramJSON {
	out := make([]paramJSON, len(ps))
	for i, p := range ps {
		out[i] = paramJSON{Name: p.Name, Type: p.Type, HasDefault: p.HasDefault}
	}
	return out
}

// MarshalJSON encodes the set as an arity-ordered list of buckets.
func (s *OverloadSet) MarshalJSON() ([]byte, error) {
	type bucket struct {
		Arity      int           `json:"arity"`
		Candidates [][]paramJSON `json:"candidates"`
	}
	buckets := []bucket{}
	for _, arity := range s.Arities() {
		b := bucket{Arity: arity}
		for _, sig := range s.Candidates(arity) {
			b.Candidates = append(b.Candidates, paramsJSON(sig.Params))
		}
		buckets = append(buckets, b)
	}
	return json.Marshal(buckets)
}

// MarshalJSON implements json.Marshaler for FunctionDecl.
func (d *FunctionDecl) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind      string       `json:"kind"`
		Name      string       `json:"name"`
		Result    Type         `json:"result"`
		Params    []paramJSON  `json:"params"`
		Overloads *OverloadSet `json:"overloads,omitempty"`
		Source    Source       `json:"source"`
	}{"function", d.Name, d.Result, paramsJSON(d.Params), d.Overloads, d.Source})
}

// MarshalJSON implements json.Marshaler for VariableDecl.
func (d *VariableDecl) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    string `json:"kind"`
		Name    string `json:"name"`
		Type    Type   `json:"type"`
		IsConst bool   `json:"const,omitempty"`
		Source  Source `json:"source"`
	}{"variable", d.Name, d.Type, d.IsConst, d.Source})
}

// MarshalJSON implements json.Marshaler for EnumDecl.
func (d *EnumDecl) MarshalJSON() ([]byte, error) {
	type Alias EnumDecl
	return json.Marshal(&struct {
		Kind string `json:"kind"`
		*Alias
	}{"enum", (*Alias)(d)})
}

// MarshalJSON implements json.Marshaler for MacroDecl.
func (d *MacroDecl) MarshalJSON() ([]byte, error) {
	spell := func(ts []Token) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = t.Spelling
		}
		return out
	}
	return json.Marshal(&struct {
		Kind     string   `json:"kind"`
		Name     string   `json:"name"`
		Class    string   `json:"class"`
		Tokens   []string `json:"tokens"`
		Resolved []string `json:"resolved,omitempty"`
		Source   Source   `json:"source"`
	}{"macro", d.Name, d.Class.String(), spell(d.Tokens), spell(d.Resolved), d.Source})
}

// MarshalJSON implements json.Marshaler for RecordDecl.
func (d *RecordDecl) MarshalJSON() ([]byte, error) {
	type fieldJSON struct {
		Name string `json:"name"`
		Type Type   `json:"type"`
	}
	type methodJSON struct {
		Name      string       `json:"name"`
		Result    Type         `json:"result"`
		Static    bool         `json:"static,omitempty"`
		Overloads *OverloadSet `json:"overloads"`
	}
	fields := make([]fieldJSON, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = fieldJSON{f.Name, f.Type}
	}
	methods := make([]methodJSON, len(d.Methods))
	for i, m := range d.Methods {
		methods[i] = methodJSON{m.Name, m.Result, m.Static, m.Overloads}
	}
	return json.Marshal(&struct {
		Kind           string       `json:"kind"`
		ID             RecordID     `json:"id"`
		Name           string       `json:"name"`
		Spelling       string       `json:"spelling,omitempty"`
		Tag            string       `json:"tag"`
		Anonymous      bool         `json:"anonymous,omitempty"`
		Fields         []fieldJSON  `json:"fields"`
		Constructors   *OverloadSet `json:"constructors,omitempty"`
		Methods        []methodJSON `json:"methods,omitempty"`
		HasDefaultCtor bool         `json:"hasDefaultCtor,omitempty"`
		HasCopyCtor    bool         `json:"hasCopyCtor,omitempty"`
		Source         Source       `json:"source"`
	}{"record", d.ID, d.Name, d.Spelling, d.Tag.String(), d.Anonymous, fields, d.Constructors, methods, d.HasDefaultCtor, d.HasCopyCtor, d.Source})
}

// MarshalJSON encodes the module with its declarations and warnings.
func (m *Module) MarshalJSON() ([]byte, error) {
	type warningJSON struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
		Decl    string    `json:"decl,omitempty"`
	}
	warnings := make([]warningJSON, len(m.Warnings))
	for i, w := range m.Warnings {
		warnings[i] = warningJSON{w.Code, w.Message, w.Decl}
	}
	return json.Marshal(&struct {
		Name     string        `json:"name"`
		Language Language      `json:"language"`
		Headers  []string      `json:"headers"`
		Decls    []Decl        `json:"decls"`
		Records  []*RecordDecl `json:"records"`
		Warnings []warningJSON `json:"warnings,omitempty"`
	}{m.Name, m.Language, m.Headers, m.Decls, m.Records(), warnings})
}
