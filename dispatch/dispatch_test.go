package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

var (
	intT    = ir.Number("int", ir.Int32)
	doubleT = ir.Number("double", ir.Float64)
	strT    = ir.Pointer(ir.WithConst(ir.Char("char", 1), true))
)

func param(name string, t ir.Type) ir.Param { return ir.Param{Name: name, Type: t} }

func build(t *testing.T, set *ir.OverloadSet, kind marshal.CallKind) *Tree {
	t.Helper()
	mod := ir.NewModule("m", ir.LangCPP)
	synth := marshal.NewSynthesizer(mod)
	ctx := marshal.NewContext("f", "f", nil, "f")
	return Build(marshal.Target{Kind: kind, Callee: "f"}, set, synth, ctx)
}

func TestBuild_SameArity(t *testing.T) {
	set := ir.NewOverloadSet()
	set.Add([]ir.Param{param("a", intT), param("s", strT)}, ir.Void())
	set.Add([]ir.Param{param("a", intT), param("b", doubleT)}, ir.Void())

	tree := build(t, set, marshal.CallFunction)
	require.Len(t, tree.Cases, 1)
	c := tree.Cases[0]
	assert.Equal(t, 2, c.Arity)
	require.Len(t, c.Branches, 2)
	assert.Equal(t, []Cond{
		{Value: "args_p[0]", Tag: marshal.TagNumber},
		{Value: "args_p[1]", Tag: marshal.TagString},
	}, c.Branches[0].Conds)
	assert.Empty(t, c.Branches[0].Plan.Checks)
	assert.Equal(t, -1, c.Branches[0].Plan.ArgCount)

	tests := []struct {
		name   string
		args   []marshal.Tag
		branch int
		err    string
	}{
		{"number string", []marshal.Tag{marshal.TagNumber, marshal.TagString}, 0, ""},
		{"number number", []marshal.Tag{marshal.TagNumber, marshal.TagNumber}, 1, ""},
		{"number boolean", []marshal.Tag{marshal.TagNumber, marshal.TagBoolean}, -1, "Wrong argument type for f() with 2 arguments."},
		{"one argument", []marshal.Tag{marshal.TagNumber}, -1, "Wrong argument count for f(), expected 2."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tree.Select(tt.args)
			if tt.err != "" {
				require.EqualError(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Same(t, c.Branches[tt.branch], b)
		})
	}
}

func TestBuild_Arities(t *testing.T) {
	set := ir.NewOverloadSet()
	set.AddCallable([]ir.Param{param("a", intT), {Name: "b", Type: intT, HasDefault: true}}, intT)
	set.Add(nil, intT)

	tree := build(t, set, marshal.CallFunction)
	assert.Equal(t, []int{0, 1, 2}, tree.Arities())
	assert.Equal(t, "Wrong argument count for f(), expected 0, 1 or 2.", tree.CountError)
	assert.True(t, tree.Cases[0].Direct())
	assert.False(t, tree.Cases[1].Direct())

	b, err := tree.Select(nil)
	require.NoError(t, err)
	assert.Empty(t, b.Plan.Call.Args)

	b, err = tree.Select([]marshal.Tag{marshal.TagNumber})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Signature.Defaulted)
	assert.Equal(t, []string{"a"}, b.Plan.Call.Args)

	var countErr *CountError
	_, err = tree.Select(make([]marshal.Tag, 3))
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 3, countErr.Got)
	assert.Equal(t, ir.CodeUnresolvedOverload, countErr.Code())
}

func TestBuild_Nullable(t *testing.T) {
	set := ir.NewOverloadSet()
	set.Add([]ir.Param{param("data", ir.Pointer(doubleT))}, ir.Void())
	set.Add([]ir.Param{param("n", intT)}, ir.Void())

	tree := build(t, set, marshal.CallFunction)
	b, err := tree.Select([]marshal.Tag{marshal.TagNull})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Signature.Order)

	b, err = tree.Select([]marshal.Tag{marshal.TagNumber})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Signature.Order)
}

func TestBuild_Constructor(t *testing.T) {
	set := ir.NewOverloadSet()
	set.Add(nil, nil)
	set.Add([]ir.Param{param("step", intT)}, nil)

	tree := build(t, set, marshal.CallNew)
	assert.True(t, tree.Constructor)
	assert.Equal(t, "Wrong argument count for f constructor, expected 0 or 1.", tree.CountError)
	assert.Equal(t, "Wrong argument type for f constructor with 1 argument.", tree.Cases[1].TypeError)
	assert.Equal(t, marshal.NativePtr, tree.Cases[1].Branches[0].Plan.Call.Result)
}

func TestBuild_BranchTrampolines(t *testing.T) {
	cb := ir.Pointer(ir.Function("void (int)", ir.Void(), intT))
	set := ir.NewOverloadSet()
	set.Add([]ir.Param{param("cb", cb)}, ir.Void())
	set.Add([]ir.Param{param("cb", cb), param("n", intT)}, ir.Void())

	tree := build(t, set, marshal.CallFunction)
	require.Len(t, tree.Trampolines, 2)
	assert.Equal(t, "f_cb_trampoline", tree.Trampolines[0].Name)
	assert.Equal(t, "f_cb_trampoline_1", tree.Trampolines[1].Name)
	assert.Same(t, tree.Trampolines[1], tree.Cases[1].Branches[0].Plan.Trampolines[0])
}

func TestBuild_UnsupportedParam(t *testing.T) {
	set := ir.NewOverloadSet()
	set.Add([]ir.Param{param("pp", ir.Pointer(ir.Pointer(intT))), param("n", intT)}, ir.Void())

	tree := build(t, set, marshal.CallFunction)
	require.Len(t, tree.Warnings, 1)
	b := tree.Cases[0].Branches[0]
	assert.Equal(t, []Cond{{Value: "args_p[1]", Tag: marshal.TagNumber}}, b.Conds)

	got, err := tree.Select([]marshal.Tag{marshal.TagObject, marshal.TagNumber})
	require.NoError(t, err)
	assert.Same(t, b, got)
}
