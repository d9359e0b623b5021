package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/bindgen/ir"
)

func tok(spelling string, kind ir.TokenKind) ir.Token {
	return ir.Token{Spelling: spelling, Kind: kind}
}

func ident(s string) ir.Token { return tok(s, ir.TokenIdentifier) }
func lit(s string) ir.Token   { return tok(s, ir.TokenLiteral) }
func punct(s string) ir.Token { return tok(s, ir.TokenPunctuation) }

func define(name string, body ...ir.Token) *ir.MacroDecl {
	return &ir.MacroDecl{Name: name, Tokens: append([]ir.Token{ident(name)}, body...)}
}

func TestResolve_TransitiveNumber(t *testing.T) {
	a := define("A", lit("1"), punct("+"), lit("2"))
	b := define("B", ident("A"), punct("*"), lit("10"))

	res := Resolve([]*ir.MacroDecl{a, b}, Options{})

	assert.Empty(t, res.Cycles)
	assert.Equal(t, ir.MacroNumber, a.Class)
	assert.Equal(t, ir.MacroNumber, b.Class)
	assert.Equal(t, "1 + 2 * 10", Join(b.Resolved))
}

func TestResolve_ForwardReference(t *testing.T) {
	// THREE refers to TWO which is defined after it.
	three := define("THREE", ident("TWO"), punct("+"), lit("1"))
	one := define("ONE", lit("1"))
	two := define("TWO", ident("ONE"), punct("+"), lit("1"))

	Resolve([]*ir.MacroDecl{three, one, two}, Options{})

	assert.Equal(t, ir.MacroNumber, three.Class)
	assert.Equal(t, "1 + 1 + 1", Join(three.Resolved))
	assert.Equal(t, "1 + 1", Join(two.Resolved))
}

func TestResolve_StringNeverBecomesNumber(t *testing.T) {
	s := define("S", lit(`"abc"`))
	n := define("N", ident("S"), punct("+"), lit("1"))
	alias := define("ALIAS", ident("S"))

	Resolve([]*ir.MacroDecl{s, n, alias}, Options{})

	assert.Equal(t, ir.MacroString, s.Class)
	assert.Equal(t, ir.MacroInvalid, n.Class)
	assert.Equal(t, ir.MacroString, alias.Class)
}

func TestResolve_Cycle(t *testing.T) {
	a := define("A", ident("B"), punct("+"), lit("1"))
	b := define("B", ident("A"), punct("+"), lit("1"))
	dep := define("C", ident("A"))
	ok := define("D", lit("4"))

	res := Resolve([]*ir.MacroDecl{a, b, dep, ok}, Options{})

	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []string{"A", "B", "A"}, res.Cycles[0])
	assert.Equal(t, ir.MacroInvalid, a.Class)
	assert.Equal(t, ir.MacroInvalid, b.Class)
	assert.Equal(t, ir.MacroInvalid, dep.Class)
	assert.Equal(t, ir.MacroNumber, ok.Class)

	var cycles, invalid int
	for _, w := range res.Warnings {
		switch w.Code {
		case ir.CodeMacroCycle:
			cycles++
		case ir.CodeInvalidMacro:
			invalid++
			assert.Equal(t, "C", w.Decl)
		}
	}
	assert.Equal(t, 1, cycles)
	assert.Equal(t, 1, invalid)
}

func TestResolve_SelfReference(t *testing.T) {
	a := define("A", ident("A"), punct("+"), lit("1"))

	res := Resolve([]*ir.MacroDecl{a}, Options{})

	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []string{"A", "A"}, res.Cycles[0])
	assert.Equal(t, ir.MacroInvalid, a.Class)
}

func TestResolve_ExpansionLimit(t *testing.T) {
	// Each level doubles the body; level 5 resolves to 32 literals.
	ms := []*ir.MacroDecl{define("L0", lit("1"))}
	for i, name := range []string{"L1", "L2", "L3", "L4", "L5"} {
		prev := ms[i].Name
		ms = append(ms, define(name, ident(prev), punct("+"), ident(prev)))
	}

	res := Resolve(ms, Options{MaxTokens: 20})

	assert.Equal(t, ir.MacroNumber, ms[3].Class)
	assert.Equal(t, ir.MacroInvalid, ms[5].Class)
	assert.NotEmpty(t, res.Warnings)
}

func TestResolve_FunctionLikeSkipped(t *testing.T) {
	fn := define("MAX", punct("("), ident("a"), punct(")"))
	fn.FunctionLike = true
	user := define("M", ident("MAX"), punct("("), lit("1"), punct(")"))

	Resolve([]*ir.MacroDecl{fn, user}, Options{})

	assert.Equal(t, ir.MacroFunctionLike, fn.Class)
	assert.Equal(t, ir.MacroInvalid, user.Class)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		tokens []ir.Token
		want   ir.MacroClass
	}{
		{"empty", nil, ir.MacroInvalid},
		{"char", []ir.Token{lit("'a'")}, ir.MacroChar},
		{"string", []ir.Token{lit(`"AaBb"`)}, ir.MacroString},
		{"decimal", []ir.Token{lit("42")}, ir.MacroNumber},
		{"hex", []ir.Token{lit("0x1f")}, ir.MacroNumber},
		{"signed", []ir.Token{punct("-"), lit("1")}, ir.MacroNumber},
		{"float", []ir.Token{lit("3.14f")}, ir.MacroNumber},
		{"shift", []ir.Token{lit("1"), punct("<<"), lit("4")}, ir.MacroNumber},
		{"parenthesized", []ir.Token{punct("("), lit("1"), punct("+"), lit("2"), punct(")")}, ir.MacroNumber},
		{"only punctuation", []ir.Token{punct("-")}, ir.MacroInvalid},
		{"identifier", []ir.Token{ident("x")}, ir.MacroInvalid},
		{"keyword", []ir.Token{tok("int", ir.TokenKeyword)}, ir.MacroInvalid},
		{"statement", []ir.Token{lit("1"), punct(";")}, ir.MacroInvalid},
		{"two strings", []ir.Token{lit(`"a"`), lit(`"b"`)}, ir.MacroInvalid},
		{"char arithmetic", []ir.Token{lit("'a'"), punct("+"), lit("1")}, ir.MacroInvalid},
		{"comment", []ir.Token{lit("1"), tok("/* x */", ir.TokenComment)}, ir.MacroInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tokens))
		})
	}
}
