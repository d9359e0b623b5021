// Package macro resolves object-like macros that reference other macros and
// classifies the result.
//
// Resolution is a depth-first walk over the reference graph with an
// in-progress set: a macro that reaches itself again is a cycle, and every
// macro on that cycle is classified Invalid with one macro_cycle warning.
// Finished expansions are memoized, so each macro body is scanned once.
package macro

import (
	"fmt"
	"strings"

	"github.com/broady/bindgen/ir"
)

const causeCycle = "part of reference cycle"

// DefaultMaxTokens bounds the size of a single resolved macro body.
const DefaultMaxTokens = 4096

// Options configures Resolve.
type Options struct {
	// MaxTokens caps the resolved token count of any one macro. Zero uses
	// DefaultMaxTokens.
	MaxTokens int
}

// Result reports what Resolve found besides the per-macro classification.
type Result struct {
	Warnings []ir.Warning

	// Cycles lists each detected reference cycle as a path whose first and
	// last elements are the same macro.
	Cycles [][]string
}

type state int

const (
	unvisited state = iota
	inProgress
	done
	failed
)

type resolver struct {
	byName    map[string]*ir.MacroDecl
	state     map[string]state
	resolved  map[string][]ir.Token
	cause     map[string]string
	maxTokens int
	result    *Result
}

// Resolve substitutes macro references in every object-like macro, then sets
// Resolved and Class on each declaration. Macros are processed in the order
// given, which only affects the order of reported warnings.
func Resolve(macros []*ir.MacroDecl, opts Options) *Result {
	r := &resolver{
		byName:    make(map[string]*ir.MacroDecl, len(macros)),
		state:     make(map[string]state, len(macros)),
		resolved:  make(map[string][]ir.Token, len(macros)),
		cause:     make(map[string]string),
		maxTokens: opts.MaxTokens,
		result:    &Result{},
	}
	if r.maxTokens <= 0 {
		r.maxTokens = DefaultMaxTokens
	}
	for _, m := range macros {
		// Later definitions win, as with #undef/#define pairs.
		r.byName[m.Name] = m
	}

	for _, m := range macros {
		if m.FunctionLike {
			m.Class = ir.MacroFunctionLike
			m.Resolved = body(m)
			continue
		}
		r.expand(m.Name, nil)
	}

	for _, m := range macros {
		if m.FunctionLike {
			continue
		}
		switch r.state[m.Name] {
		case done:
			m.Resolved = r.resolved[m.Name]
			m.Class = Classify(m.Resolved)
		default:
			m.Resolved = body(m)
			m.Class = ir.MacroInvalid
		}
		switch {
		case r.state[m.Name] == failed:
			// Cycle members already carry a macro_cycle warning.
			if c := r.cause[m.Name]; c != causeCycle {
				r.warn(m, ir.CodeInvalidMacro, c)
			}
		case m.Class == ir.MacroInvalid:
			r.warn(m, ir.CodeInvalidMacro, "body is not a char, string, or numeric constant: "+Join(m.Resolved))
		}
	}
	return r.result
}

// expand returns the resolved body of name. path is the chain of macros
// currently being expanded. ok is false when name is part of, or depends on,
// a cycle or an oversized expansion.
func (r *resolver) expand(name string, path []string) (tokens []ir.Token, ok bool) {
	switch r.state[name] {
	case done:
		return r.resolved[name], true
	case failed:
		return nil, false
	case inProgress:
		r.reportCycle(name, path)
		return nil, false
	}

	m := r.byName[name]
	r.state[name] = inProgress
	path = append(path, name)

	var out []ir.Token
	for _, tok := range body(m) {
		ref, isMacro := r.byName[tok.Spelling]
		if tok.Kind != ir.TokenIdentifier || !isMacro || ref.FunctionLike {
			out = append(out, tok)
			continue
		}
		sub, ok := r.expand(ref.Name, path)
		if !ok {
			if r.state[name] == inProgress {
				r.state[name] = failed
				if _, set := r.cause[name]; !set {
					r.cause[name] = "depends on unresolvable macro " + ref.Name
				}
			}
			return nil, false
		}
		out = append(out, sub...)
		if len(out) > r.maxTokens {
			r.state[name] = failed
			r.cause[name] = fmt.Sprintf("expansion exceeds %d tokens", r.maxTokens)
			return nil, false
		}
	}

	r.state[name] = done
	r.resolved[name] = out
	return out, true
}

func (r *resolver) reportCycle(name string, path []string) {
	start := len(path) - 1
	for start > 0 && path[start] != name {
		start--
	}
	cycle := append(append([]string(nil), path[start:]...), name)
	r.result.Cycles = append(r.result.Cycles, cycle)

	for _, member := range cycle[:len(cycle)-1] {
		r.state[member] = failed
		r.cause[member] = causeCycle
	}
	first := r.byName[name]
	src := first.Source
	r.result.Warnings = append(r.result.Warnings, ir.Warning{
		Code:    ir.CodeMacroCycle,
		Message: "macro reference cycle: " + strings.Join(cycle, " -> "),
		Decl:    name,
		Source:  &src,
	})
}

func (r *resolver) warn(m *ir.MacroDecl, code ir.ErrorCode, msg string) {
	src := m.Source
	r.result.Warnings = append(r.result.Warnings, ir.Warning{
		Code:    code,
		Message: msg,
		Decl:    m.Name,
		Source:  &src,
	})
}

// body returns the tokens after the macro name.
func body(m *ir.MacroDecl) []ir.Token {
	if len(m.Tokens) == 0 {
		return nil
	}
	return m.Tokens[1:]
}

// Join renders tokens separated by single spaces.
func Join(tokens []ir.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Spelling
	}
	return strings.Join(parts, " ")
}
