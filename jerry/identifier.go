package jerry

import (
	"strings"
	"unicode"

	"github.com/huandu/xstrings"
)

// C and C++ keywords. Generated identifiers are reserved against these so
// a field or parameter named "new" or "default" never produces a keyword.
var reservedWords = map[string]bool{
	"auto":      true,
	"bool":      true,
	"break":     true,
	"case":      true,
	"catch":     true,
	"char":      true,
	"class":     true,
	"const":     true,
	"continue":  true,
	"default":   true,
	"delete":    true,
	"do":        true,
	"double":    true,
	"else":      true,
	"enum":      true,
	"explicit":  true,
	"extern":    true,
	"false":     true,
	"float":     true,
	"for":       true,
	"friend":    true,
	"goto":      true,
	"if":        true,
	"inline":    true,
	"int":       true,
	"long":      true,
	"mutable":   true,
	"namespace": true,
	"new":       true,
	"operator":  true,
	"private":   true,
	"protected": true,
	"public":    true,
	"register":  true,
	"restrict":  true,
	"return":    true,
	"short":     true,
	"signed":    true,
	"sizeof":    true,
	"static":    true,
	"struct":    true,
	"switch":    true,
	"template":  true,
	"this":      true,
	"throw":     true,
	"true":      true,
	"try":       true,
	"typedef":   true,
	"typename":  true,
	"union":     true,
	"unsigned":  true,
	"using":     true,
	"virtual":   true,
	"void":      true,
	"volatile":  true,
	"while":     true,
}

// Runtime names every generated file uses at file scope.
var fileNames = []string{
	"object", "js_obj",
	"bindgen_define_value", "bindgen_define_accessor", "bindgen_external_typedarray",
}

// sanitizeIdentifier folds an expression such as "p.origin" or
// "native_ptr->tag" into an identifier fragment: "p_origin",
// "native_ptr_tag".
func sanitizeIdentifier(expr string) string {
	var b strings.Builder
	underscore := false
	for _, r := range expr {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "_"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

// applyCase renames a script-visible property.
func applyCase(name, style string) string {
	switch style {
	case "camel":
		return xstrings.ToCamelCase(name)
	case "snake":
		return xstrings.ToSnakeCase(name)
	default:
		return name
	}
}

// cString quotes s as a C string literal.
func cString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
