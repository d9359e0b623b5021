package jerry

import (
	"testing"

	"github.com/broady/bindgen/ir"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"p.origin", "p_origin"},
		{"native_ptr->tag", "native_ptr_tag"},
		{"(*result).x", "result_x"},
		{"args_p[0]", "args_p_0"},
		{"ns::Widget", "ns_Widget"},
		{"0abc", "_0abc"},
		{"->", "_"},
	}
	for _, tt := range tests {
		if got := sanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("sanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyCase(t *testing.T) {
	tests := []struct {
		name, style, want string
	}{
		{"step_size", "camel", "stepSize"},
		{"stepSize", "snake", "step_size"},
		{"step_size", "preserve", "step_size"},
		{"step_size", "", "step_size"},
	}
	for _, tt := range tests {
		if got := applyCase(tt.name, tt.style); got != tt.want {
			t.Errorf("applyCase(%q, %q) = %q, want %q", tt.name, tt.style, got, tt.want)
		}
	}
}

func TestCString(t *testing.T) {
	if got := cString(`say "hi"\now` + "\n"); got != `"say \"hi\"\\now\n"` {
		t.Errorf("cString = %s", got)
	}
}

func TestDeclarator(t *testing.T) {
	tests := []struct {
		spelling, name, want string
	}{
		{"int", "x", "int x"},
		{"char *", "s", "char *s"},
		{"double [3]", "v", "double v[3]"},
		{"int [2][3]", "m", "int m[2][3]"},
		{"int (*)(int, int)", "cb", "int (*cb)(int, int)"},
		{"struct point", "p", "struct point p"},
	}
	for _, tt := range tests {
		if got := declarator(tt.spelling, tt.name); got != tt.want {
			t.Errorf("declarator(%q, %q) = %q, want %q", tt.spelling, tt.name, got, tt.want)
		}
	}
}

func TestLocalSpelling(t *testing.T) {
	constInt := ir.WithSpelling(ir.WithConst(ir.Number("int", ir.Int32), true), "const int")
	if got := localSpelling(constInt); got != "int" {
		t.Errorf("localSpelling(const int) = %q", got)
	}
	constPtr := ir.WithSpelling(ir.WithConst(ir.Pointer(ir.Char("char", 1)), true), "char *const")
	if got := localSpelling(constPtr); got != "char *" {
		t.Errorf("localSpelling(char *const) = %q", got)
	}
	ptrToConst := ir.Pointer(ir.WithSpelling(ir.WithConst(ir.Char("char", 1), true), "const char"))
	if got := localSpelling(ptrToConst); got != "const char *" {
		t.Errorf("localSpelling(const char *) = %q", got)
	}

	// Typedefs that carry the qualifier spell as their canonical type.
	cint := ir.WithCanonical(ir.WithSpelling(ir.WithConst(ir.Number("int", ir.Int32), true), "cint"), "const int")
	if got := localSpelling(cint); got != "int" {
		t.Errorf("localSpelling(cint) = %q", got)
	}
	cptr := ir.WithCanonical(ir.WithSpelling(ir.WithConst(ir.Pointer(ir.Char("char", 1)), true), "cstr"), "char *const")
	if got := localSpelling(cptr); got != "char *" {
		t.Errorf("localSpelling(cstr) = %q", got)
	}
	cpoint := ir.WithCanonical(ir.WithSpelling(ir.WithConst(ir.Record("struct point", "c:@S@point"), true), "cpoint"), "struct point")
	if got := zeroValue(cpoint, false); got != "{0}" {
		t.Errorf("zeroValue(cpoint) = %q", got)
	}
	if got := declarator(localSpelling(cpoint), "p"); got != "struct point p" {
		t.Errorf("declarator(cpoint) = %q", got)
	}
}

func TestZeroValue(t *testing.T) {
	rec := ir.Record("struct point", "c:@S@point")
	tests := []struct {
		typ  ir.Type
		cpp  bool
		want string
	}{
		{ir.Number("int", ir.Int32), false, "0"},
		{ir.Bool("bool"), false, "0"},
		{ir.Enum("enum color", "color"), false, "(enum color) 0"},
		{ir.Pointer(ir.Void()), false, "NULL"},
		{rec, false, "{0}"},
		{rec, true, "{}"},
	}
	for _, tt := range tests {
		if got := zeroValue(tt.typ, tt.cpp); got != tt.want {
			t.Errorf("zeroValue(%s, %v) = %q, want %q", tt.typ.Spelling(), tt.cpp, got, tt.want)
		}
	}
}
