// Package dispatch builds runtime overload dispatch for C++ callables.
//
// A Tree switches on the argument count. Each arity bucket tries its
// candidates in discovery order; a candidate is taken when every argument
// carries the tag its parameter needs. Nothing is ranked: the first
// satisfied branch wins.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

// Cond requires one argument to carry Tag, or null when Nullable is set.
type Cond struct {
	Value    string
	Tag      marshal.Tag
	Nullable bool
}

// Match reports whether an argument with the given tag satisfies c.
func (c Cond) Match(tag marshal.Tag) bool {
	return tag == c.Tag || (c.Nullable && tag == marshal.TagNull)
}

// Branch is one candidate signature.
type Branch struct {
	Signature ir.Signature

	// Conds is the conjunction guarding the branch. Parameters with no
	// conversion contribute no condition.
	Conds []Cond

	// Plan runs when the branch is taken. Its argument count is already
	// known and its tag checks are folded into Conds.
	Plan *marshal.Plan
}

// Match reports whether args satisfy every condition.
func (b *Branch) Match(args []marshal.Tag) bool {
	for i, c := range b.Conds {
		n := argIndex(c.Value, i)
		if n >= len(args) || !c.Match(args[n]) {
			return false
		}
	}
	return true
}

// Case is one arity bucket.
type Case struct {
	Arity    int
	Branches []*Branch

	// TypeError is raised when no branch matches.
	TypeError string
}

// Direct reports whether the case calls its only candidate without
// checking tags.
func (c *Case) Direct() bool {
	return c.Arity == 0 && len(c.Branches) == 1
}

// Tree is the dispatch for one overloaded callable.
type Tree struct {
	Callable    string
	Constructor bool
	Cases       []*Case

	// CountError is raised when the argument count matches no case.
	CountError string

	Trampolines []*marshal.Trampoline
	Warnings    []ir.Warning
}

// Arities returns the handled argument counts in ascending order.
func (t *Tree) Arities() []int {
	out := make([]int, len(t.Cases))
	for i, c := range t.Cases {
		out[i] = c.Arity
	}
	return out
}

// Build synthesizes every candidate of set against target. Each branch gets
// its own block scope; trampolines share ctx's globals so their names stay
// unique across branches.
func Build(target marshal.Target, set *ir.OverloadSet, synth *marshal.Synthesizer, ctx *marshal.Context) *Tree {
	tree := &Tree{
		Callable:    ctx.Callable,
		Constructor: target.Kind == marshal.CallNew,
	}
	name := tree.label()

	for _, arity := range set.Arities() {
		c := &Case{
			Arity:     arity,
			TypeError: fmt.Sprintf("Wrong argument type for %s with %s.", name, plural(arity, "argument")),
		}
		for _, sig := range set.Candidates(arity) {
			bctx := ctx.Branch()
			var result ir.Type
			if target.Kind != marshal.CallNew {
				result = sig.Result
			}
			plan := synth.Candidate(target, sig.Params, result, bctx)
			plan.ArgCount = -1

			b := &Branch{Signature: sig, Plan: plan}
			var checks []marshal.Op
			for _, op := range plan.Checks {
				if ct, ok := op.(marshal.CheckType); ok {
					b.Conds = append(b.Conds, Cond{Value: ct.Value, Tag: ct.Tag, Nullable: ct.Nullable})
					continue
				}
				checks = append(checks, op)
			}
			plan.Checks = checks

			c.Branches = append(c.Branches, b)
			tree.Trampolines = append(tree.Trampolines, plan.Trampolines...)
			tree.Warnings = append(tree.Warnings, plan.Warnings...)
		}
		tree.Cases = append(tree.Cases, c)
	}

	tree.CountError = fmt.Sprintf("Wrong argument count for %s, expected %s.", name, joinArities(tree.Arities()))
	return tree
}

// Select returns the branch a call with the given argument tags takes, or
// the runtime error the generated code raises.
func (t *Tree) Select(args []marshal.Tag) (*Branch, error) {
	for _, c := range t.Cases {
		if c.Arity != len(args) {
			continue
		}
		if c.Direct() {
			return c.Branches[0], nil
		}
		for _, b := range c.Branches {
			if b.Match(args) {
				return b, nil
			}
		}
		return nil, &MismatchError{Callable: t.Callable, Arity: c.Arity, Message: c.TypeError}
	}
	return nil, &CountError{Callable: t.Callable, Got: len(args), Message: t.CountError}
}

func (t *Tree) label() string {
	if t.Constructor {
		return t.Callable + " constructor"
	}
	return t.Callable + "()"
}

// argIndex recovers the argument position from an "args_p[i]" expression.
func argIndex(value string, fallback int) int {
	s, ok := strings.CutPrefix(value, "args_p[")
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "]"))
	if err != nil {
		return fallback
	}
	return n
}

func joinArities(arities []int) string {
	parts := make([]string, len(arities))
	for i, a := range arities {
		parts[i] = strconv.Itoa(a)
	}
	switch len(parts) {
	case 0:
		return "none"
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
