package macro

import (
	"strings"

	"github.com/broady/bindgen/ir"
)

// arithmetic lists the punctuators allowed in a numeric constant expression.
var arithmetic = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"(": true, ")": true, "~": true, "!": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

// Classify determines the class of a resolved, object-like macro body.
func Classify(tokens []ir.Token) ir.MacroClass {
	if len(tokens) == 0 {
		return ir.MacroInvalid
	}
	if len(tokens) == 1 && tokens[0].Kind == ir.TokenLiteral {
		lit := tokens[0].Spelling
		switch {
		case strings.Contains(lit, "'"):
			return ir.MacroChar
		case strings.Contains(lit, `"`):
			return ir.MacroString
		}
	}

	literals := 0
	for _, t := range tokens {
		switch t.Kind {
		case ir.TokenLiteral:
			if strings.ContainsAny(t.Spelling, `'"`) {
				return ir.MacroInvalid
			}
			literals++
		case ir.TokenPunctuation:
			if !arithmetic[t.Spelling] {
				return ir.MacroInvalid
			}
		default:
			return ir.MacroInvalid
		}
	}
	if literals == 0 {
		return ir.MacroInvalid
	}
	return ir.MacroNumber
}
