package bindtest_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/bindgen/dispatch"
	"github.com/broady/bindgen/internal/bindtest"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
)

var (
	intT    = ir.Number("int", ir.Int32)
	floatT  = ir.Number("float", ir.Float32)
	doubleT = ir.Number("double", ir.Float64)
	charT   = ir.Char("char", 1)
	strT    = ir.Pointer(ir.WithSpelling(ir.WithConst(charT, true), "const char"))
	pointT  = ir.Record("struct point", "c:@S@point")
	labelT  = ir.Record("struct label", "c:@S@label")
	counter = ir.Record("Counter", "c:@S@Counter")
)

func fixture() *ir.Module {
	mod := ir.NewModule("geo", ir.LangCPP)
	mod.AddDecl(&ir.RecordDecl{
		ID:       "c:@S@point",
		Name:     "point",
		Spelling: "struct point",
		Fields:   []ir.Field{{Name: "x", Type: intT}, {Name: "y", Type: floatT}},
	})
	mod.AddDecl(&ir.RecordDecl{
		ID:       "c:@S@label",
		Name:     "label",
		Spelling: "struct label",
		Fields:   []ir.Field{{Name: "text", Type: ir.Array(charT, 4)}},
	})
	mod.AddDecl(&ir.RecordDecl{
		ID:       "c:@S@Counter",
		Name:     "Counter",
		Tag:      ir.TagClass,
		Spelling: "Counter",
		Fields:   []ir.Field{{Name: "step", Type: intT}},
	})
	return mod
}

func params(kv ...any) []ir.Param {
	var out []ir.Param
	for i := 0; i < len(kv); i += 2 {
		out = append(out, ir.Param{Name: kv[i].(string), Type: kv[i+1].(ir.Type)})
	}
	return out
}

func function(t *testing.T, mod *ir.Module, name string, result ir.Type, ps []ir.Param) *marshal.Plan {
	t.Helper()
	p := marshal.NewSynthesizer(mod).Function(&ir.FunctionDecl{Name: name, Result: result, Params: ps}, nil)
	require.True(t, p.Supported(), "warnings: %v", p.Warnings)
	return p
}

func identity(args []any) any { return args[0] }

func scriptError(t *testing.T, err error) *bindtest.ScriptError {
	t.Helper()
	var se *bindtest.ScriptError
	require.ErrorAs(t, err, &se)
	return se
}

func TestScalarRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  ir.Type
		in   float64
		want float64
	}{
		{"zero", intT, 0, 0},
		{"int8", ir.Number("int8_t", ir.Int8), 127, 127},
		{"int8 min", ir.Number("int8_t", ir.Int8), -128, -128},
		{"uint8 max", ir.Number("uint8_t", ir.Uint8), 255, 255},
		{"int16 extremes", ir.Number("short", ir.Int16), -32768, -32768},
		{"uint16 max", ir.Number("unsigned short", ir.Uint16), 65535, 65535},
		{"int32 max", intT, math.MaxInt32, math.MaxInt32},
		{"int32 min", intT, math.MinInt32, math.MinInt32},
		{"int32 wraps", intT, math.MaxInt32 + 1, math.MinInt32},
		{"uint32 max", ir.Number("unsigned int", ir.Uint32), math.MaxUint32, math.MaxUint32},
		{"int8 wraps", ir.Number("int8_t", ir.Int8), 128, -128},
		{"uint8 wraps", ir.Number("uint8_t", ir.Uint8), -1, 255},
		{"int16", ir.Number("short", ir.Int16), -300, -300},
		{"uint16", ir.Number("unsigned short", ir.Uint16), 65536, 0},
		{"int32 truncates", intT, 3.9, 3},
		{"int32 truncates toward zero", intT, -3.9, -3},
		{"uint32", ir.Number("unsigned int", ir.Uint32), -1, 4294967295},
		{"int64", ir.Number("long long", ir.Int64), 1 << 40, 1 << 40},
		{"uint64", ir.Number("unsigned long long", ir.Uint64), 1 << 52, 1 << 52},
		{"int64 min", ir.Number("long long", ir.Int64), math.MinInt64, math.MinInt64},
		{"int64 max safe integer", ir.Number("long long", ir.Int64), 1<<53 - 1, 1<<53 - 1},
		{"int64 min safe integer", ir.Number("long long", ir.Int64), -(1<<53 - 1), -(1<<53 - 1)},
		// A script number is a double, so the largest 64-bit values arrive
		// already rounded up to 2^63 and 2^64, and wrap.
		{"int64 max rounds", ir.Number("long long", ir.Int64), math.MaxInt64, math.MinInt64},
		{"uint64 max rounds", ir.Number("unsigned long long", ir.Uint64), math.MaxUint64, 0},
		{"uint64 high bit", ir.Number("unsigned long long", ir.Uint64), 1 << 63, 1 << 63},
		{"uint64 min", ir.Number("unsigned long long", ir.Uint64), 0, 0},
		{"float", floatT, 0.1, float64(float32(0.1))},
		{"double", doubleT, 0.1, 0.1},
		{"long double", ir.Number("long double", ir.LongDouble), 2.5, 2.5},
		{"enum", ir.Enum("enum color", "color"), 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := fixture()
			plan := function(t, mod, "id", tt.typ, params("x", tt.typ))
			sim := bindtest.New(mod).Func("id", identity)

			got, err := sim.Run(plan, bindtest.Undefined(), bindtest.Number(tt.in))
			require.NoError(t, err)
			assert.Equal(t, bindtest.KindNumber, got.Kind())
			assert.Equal(t, tt.want, got.Number())
		})
	}
}

func TestScalarRoundTrip_NaN(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "id", doubleT, params("x", doubleT))
	got, err := bindtest.New(mod).Func("id", identity).Run(plan, bindtest.Undefined(), bindtest.Number(math.NaN()))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Number()))
}

func TestBoolAndChar(t *testing.T) {
	mod := fixture()
	boolT := ir.Bool("bool")
	sim := bindtest.New(mod).Func("flip", func(args []any) any { return !args[0].(bool) }).Func("first", identity)

	got, err := sim.Run(function(t, mod, "flip", boolT, params("b", boolT)), bindtest.Undefined(), bindtest.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, bindtest.Bool(false), got)

	got, err = sim.Run(function(t, mod, "first", charT, params("c", charT)), bindtest.Undefined(), bindtest.String("xyz"))
	require.NoError(t, err)
	assert.Equal(t, bindtest.String("x"), got)
}

func TestArgumentChecks(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "id", intT, params("x", intT))
	sim := bindtest.New(mod).Func("id", identity)

	_, err := sim.Run(plan, bindtest.Undefined())
	se := scriptError(t, err)
	assert.Equal(t, "TypeError", se.Type)
	assert.Equal(t, "Wrong argument count for id(), expected 1.", se.Message)

	_, err = sim.Run(plan, bindtest.Undefined(), bindtest.String("1"))
	assert.Equal(t, "Wrong argument type for id(), expected number.", scriptError(t, err).Message)
}

func TestRecordParam(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "sum", intT, params("p", pointT))
	sim := bindtest.New(mod).Func("sum", func(args []any) any {
		p := args[0].(bindtest.Struct)
		return p["x"].(float64) + p["y"].(float64)
	})

	tests := []struct {
		name  string
		props map[string]bindtest.Value
		want  float64
	}{
		{"both fields", map[string]bindtest.Value{"x": bindtest.Number(2), "y": bindtest.Number(1.5)}, 3},
		{"missing field stays zero", map[string]bindtest.Value{"x": bindtest.Number(2)}, 2},
		{"mistyped field stays zero", map[string]bindtest.Value{"x": bindtest.Number(2), "y": bindtest.String("a")}, 2},
		{"extra properties ignored", map[string]bindtest.Value{"x": bindtest.Number(1), "y": bindtest.Number(1), "z": bindtest.Number(9)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sim.Run(plan, bindtest.Undefined(), bindtest.NewObject(tt.props))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Number())
		})
	}

	gets := 0
	for _, op := range plan.Ops {
		if _, ok := op.(marshal.GetProperty); ok {
			gets++
		}
	}
	assert.Equal(t, 2, gets, "one property read per field")
}

func TestRecordParams_DisjointLocals(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "dx", intT, params("a", pointT, "b", pointT))
	sim := bindtest.New(mod).Func("dx", func(args []any) any {
		return args[0].(bindtest.Struct)["x"].(float64) - args[1].(bindtest.Struct)["x"].(float64)
	})

	got, err := sim.Run(plan, bindtest.Undefined(),
		bindtest.NewObject(map[string]bindtest.Value{"x": bindtest.Number(5)}),
		bindtest.NewObject(map[string]bindtest.Value{"x": bindtest.Number(2)}))
	require.NoError(t, err)
	assert.Equal(t, float64(3), got.Number())
}

func TestRecordPointerParam(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "norm1", intT, params("p", ir.Pointer(pointT)))
	sim := bindtest.New(mod).Func("norm1", func(args []any) any {
		p := args[0].(bindtest.Struct)
		return math.Abs(p["x"].(float64)) + math.Abs(p["y"].(float64))
	})

	got, err := sim.Run(plan, bindtest.Undefined(),
		bindtest.NewObject(map[string]bindtest.Value{"x": bindtest.Number(-2), "y": bindtest.Number(3)}))
	require.NoError(t, err)
	assert.Equal(t, float64(5), got.Number())
}

func TestSelfReferentialRecord(t *testing.T) {
	mod := fixture()
	node := ir.Record("struct node", "c:@S@node")
	mod.AddDecl(&ir.RecordDecl{
		ID:       "c:@S@node",
		Name:     "node",
		Spelling: "struct node",
		Fields:   []ir.Field{{Name: "v", Type: intT}, {Name: "next", Type: ir.Pointer(node)}},
	})
	synth := marshal.NewSynthesizer(mod)
	sum := synth.Function(&ir.FunctionDecl{Name: "sum", Result: intT, Params: params("n", ir.Pointer(node))}, nil)
	head := synth.Function(&ir.FunctionDecl{Name: "head", Result: ir.Pointer(node)}, nil)
	require.Len(t, sum.Warnings, 1)
	require.Len(t, head.Warnings, 1)

	var next any = "unset"
	sim := bindtest.New(mod).
		Func("sum", func(args []any) any {
			n := args[0].(bindtest.Struct)
			next = n["next"]
			return n["v"]
		}).
		Func("head", func(args []any) any {
			return bindtest.Struct{"v": float64(1), "next": bindtest.Struct{"v": float64(2)}}
		})

	got, err := sim.Run(sum, bindtest.Undefined(), bindtest.NewObject(map[string]bindtest.Value{
		"v":    bindtest.Number(4),
		"next": bindtest.NewObject(map[string]bindtest.Value{"v": bindtest.Number(5)}),
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(4), got.Number())
	assert.Nil(t, next)

	got, err = sim.Run(head, bindtest.Undefined())
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, got.Keys())
	assert.Equal(t, bindtest.Number(1), got.Get("v"))
}

func TestCharArrayField_Truncates(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "text_len", intT, params("l", labelT))
	var seen string
	sim := bindtest.New(mod).Func("text_len", func(args []any) any {
		seen = args[0].(bindtest.Struct)["text"].(string)
		return len(seen)
	})

	got, err := sim.Run(plan, bindtest.Undefined(),
		bindtest.NewObject(map[string]bindtest.Value{"text": bindtest.String("abcdef")}))
	require.NoError(t, err)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, float64(3), got.Number())
}

func TestRecordResult(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "make_point", pointT, params("x", intT, "y", floatT))
	sim := bindtest.New(mod).Func("make_point", func(args []any) any {
		return bindtest.Struct{"x": args[0], "y": args[1]}
	})

	got, err := sim.Run(plan, bindtest.Undefined(), bindtest.Number(2.7), bindtest.Number(1.5))
	require.NoError(t, err)
	require.Equal(t, bindtest.KindObject, got.Kind())
	assert.Equal(t, []string{"x", "y"}, got.Keys())
	assert.Equal(t, bindtest.Number(2), got.Get("x"))
	assert.Equal(t, bindtest.Number(1.5), got.Get("y"))
}

func TestNullPointerResult(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "find", ir.Pointer(pointT), params("id", intT))
	sim := bindtest.New(mod).Func("find", func(args []any) any {
		if args[0].(float64) == 0 {
			return nil
		}
		return bindtest.Struct{"x": float64(1), "y": float64(2)}
	})

	got, err := sim.Run(plan, bindtest.Undefined(), bindtest.Number(0))
	require.NoError(t, err)
	assert.True(t, got.IsNull())

	got, err = sim.Run(plan, bindtest.Undefined(), bindtest.Number(1))
	require.NoError(t, err)
	assert.Equal(t, bindtest.Number(2), got.Get("y"))
}

func TestStringParamAndResult(t *testing.T) {
	mod := fixture()
	sim := bindtest.New(mod).
		Func("greet", func(args []any) any { return "hello " + args[0].(*bindtest.CString).Text }).
		Func("lookup", func(args []any) any { return nil })

	got, err := sim.Run(function(t, mod, "greet", strT, params("name", strT)), bindtest.Undefined(), bindtest.String("geo"))
	require.NoError(t, err)
	assert.Equal(t, bindtest.String("hello geo"), got)
	assert.Empty(t, sim.Live(), "extracted strings are freed after the call")

	got, err = sim.Run(function(t, mod, "lookup", strT, nil), bindtest.Undefined())
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestBufferCopyBack(t *testing.T) {
	mod := fixture()
	plan := function(t, mod, "scale", ir.Void(), params("values", ir.Pointer(doubleT), "n", intT))
	sim := bindtest.New(mod).Func("scale", func(args []any) any {
		buf, _ := args[0].(*bindtest.Buffer)
		if buf == nil {
			return nil
		}
		for i := 0; i < int(args[1].(float64)); i++ {
			buf.Data[i] *= 2
		}
		return nil
	})

	arr := bindtest.NewTypedArray(marshal.ElemFloat64, 1, 2, 3)
	got, err := sim.Run(plan, bindtest.Undefined(), arr, bindtest.Number(3))
	require.NoError(t, err)
	assert.True(t, got.IsUndefined())
	assert.Equal(t, []float64{2, 4, 6}, arr.TypedArray().Data)
	assert.Empty(t, sim.Live())

	_, err = sim.Run(plan, bindtest.Undefined(), bindtest.Null(), bindtest.Number(0))
	require.NoError(t, err, "null is accepted for buffers")

	_, err = sim.Run(plan, bindtest.Undefined(), bindtest.Number(1), bindtest.Number(0))
	assert.Equal(t, "Wrong argument type for scale(), expected typedarray or null.", scriptError(t, err).Message)
}

func TestBufferConstSkipsCopyBack(t *testing.T) {
	mod := fixture()
	constDouble := ir.WithSpelling(ir.WithConst(doubleT, true), "const double")
	plan := function(t, mod, "total", doubleT, params("values", ir.Pointer(constDouble), "n", intT))
	sim := bindtest.New(mod).Func("total", func(args []any) any {
		buf := args[0].(*bindtest.Buffer)
		sum := 0.0
		for i := range buf.Data {
			sum += buf.Data[i]
			buf.Data[i] = 0
		}
		return sum
	})

	arr := bindtest.NewTypedArray(marshal.ElemFloat64, 1, 2, 3)
	got, err := sim.Run(plan, bindtest.Undefined(), arr, bindtest.Number(3))
	require.NoError(t, err)
	assert.Equal(t, float64(6), got.Number())
	assert.Equal(t, []float64{1, 2, 3}, arr.TypedArray().Data)
}

func TestBufferResult(t *testing.T) {
	tests := []struct {
		name string
		elem ir.Type
		want marshal.ElementTag
	}{
		{"unsigned char", ir.Number("unsigned char", ir.Uint8), marshal.ElemUint8},
		{"double", doubleT, marshal.ElemFloat64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := fixture()
			plan := function(t, mod, "data", ir.Pointer(tt.elem), params("present", ir.Bool("bool")))
			sim := bindtest.New(mod).Func("data", func(args []any) any {
				if !args[0].(bool) {
					return nil
				}
				return &bindtest.Buffer{Elem: tt.want, Data: []float64{7}}
			})

			got, err := sim.Run(plan, bindtest.Undefined(), bindtest.Bool(true))
			require.NoError(t, err)
			require.Equal(t, bindtest.KindTypedArray, got.Kind())
			assert.Equal(t, tt.want, got.TypedArray().Elem)
			assert.Equal(t, []float64{7}, got.TypedArray().Data)

			got, err = sim.Run(plan, bindtest.Undefined(), bindtest.Bool(false))
			require.NoError(t, err)
			assert.True(t, got.IsNull())
		})
	}
}

func TestFixedArrayVariables(t *testing.T) {
	mod := fixture()
	synth := marshal.NewSynthesizer(mod)
	tests := []struct {
		name string
		elem ir.Type
		want marshal.ElementTag
	}{
		{"bytes", ir.Number("uint8_t", ir.Uint8), marshal.ElemUint8},
		{"flags", ir.Bool("bool"), marshal.ElemUint8},
		{"weights", doubleT, marshal.ElemFloat64},
		{"ids", ir.Number("int64_t", ir.Int64), marshal.ElemBigInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := synth.Variable(&ir.VariableDecl{Name: tt.name, Type: ir.Array(tt.elem, 4)}, nil)
			require.Equal(t, marshal.TypedArray, a.Kind)

			sim := bindtest.New(mod)
			sim.Globals[tt.name] = make([]float64, 4)
			got, err := sim.Get(a, bindtest.Undefined())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.TypedArray().Elem)

			got.TypedArray().Data[0] = 1
			assert.Equal(t, float64(1), sim.Globals[tt.name].([]float64)[0], "views share native storage")
		})
	}
}

func TestVariableAccessors(t *testing.T) {
	mod := fixture()
	synth := marshal.NewSynthesizer(mod)
	sim := bindtest.New(mod)

	count := synth.Variable(&ir.VariableDecl{Name: "origin_count", Type: ir.Number("unsigned int", ir.Uint32)}, nil)
	sim.Globals["origin_count"] = float64(7)
	got, err := sim.Get(count, bindtest.Undefined())
	require.NoError(t, err)
	assert.Equal(t, float64(7), got.Number())

	require.NoError(t, sim.Set(count, bindtest.Undefined(), bindtest.Number(-1)))
	assert.Equal(t, float64(4294967295), sim.Globals["origin_count"])

	limit := synth.Variable(&ir.VariableDecl{Name: "limit", Type: intT, IsConst: true}, nil)
	assert.Equal(t, marshal.Constant, limit.Kind)
	assert.ErrorIs(t, sim.Set(limit, bindtest.Undefined(), bindtest.Number(1)), bindtest.ErrReadOnly)
}

func TestStringSetterKeepsAllocation(t *testing.T) {
	mod := fixture()
	synth := marshal.NewSynthesizer(mod)
	sim := bindtest.New(mod)

	name := synth.Variable(&ir.VariableDecl{Name: "name", Type: ir.Pointer(charT)}, nil)
	sim.Globals["name"] = nil
	require.NoError(t, sim.Set(name, bindtest.Undefined(), bindtest.String("geo")))
	assert.Equal(t, "geo", sim.Globals["name"].(*bindtest.CString).Text)
	assert.Len(t, sim.Live(), 1, "the stored string outlives the setter")

	got, err := sim.Get(name, bindtest.Undefined())
	require.NoError(t, err)
	assert.Equal(t, bindtest.String("geo"), got)
}

func TestOverloadDispatch(t *testing.T) {
	mod := fixture()
	set := ir.NewOverloadSet()
	set.Add(params("a", intT, "s", strT), intT)
	set.Add(params("a", intT, "b", intT), intT)
	tree := dispatch.Build(marshal.Target{Kind: marshal.CallFunction, Callee: "pick"}, set,
		marshal.NewSynthesizer(mod), marshal.NewContext("pick", "pick", nil, "pick"))

	sim := bindtest.New(mod).Func("pick", func(args []any) any {
		if _, ok := args[1].(*bindtest.CString); ok {
			return 0
		}
		return 1
	})

	tests := []struct {
		name string
		args []bindtest.Value
		want float64
		err  string
	}{
		{"number string", []bindtest.Value{bindtest.Number(1), bindtest.String("x")}, 0, ""},
		{"number number", []bindtest.Value{bindtest.Number(1), bindtest.Number(2)}, 1, ""},
		{"number boolean", []bindtest.Value{bindtest.Number(1), bindtest.Bool(true)}, 0, "Wrong argument type for pick() with 2 arguments."},
		{"one argument", []bindtest.Value{bindtest.Number(1)}, 0, "Wrong argument count for pick(), expected 2."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sim.RunTree(tree, bindtest.Undefined(), tt.args...)
			if tt.err != "" {
				se := scriptError(t, err)
				assert.Equal(t, "TypeError", se.Type)
				assert.Equal(t, tt.err, se.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Number())
		})
	}
	assert.Empty(t, sim.Live())
}

func TestCallback(t *testing.T) {
	mod := fixture()
	fnT := ir.Function("int (int)", intT, intT)
	plan := function(t, mod, "apply", intT, params("fn", ir.Pointer(fnT), "x", intT))
	require.Len(t, plan.Trampolines, 1)

	sim := bindtest.New(mod).Func("apply", func(args []any) any {
		return args[0].(bindtest.NativeFunc)(args[1])
	})

	times10 := bindtest.Function(func(this bindtest.Value, args []bindtest.Value) bindtest.Value {
		assert.True(t, this.IsUndefined())
		return bindtest.Number(args[0].Number() * 10)
	})
	got, err := sim.Run(plan, bindtest.Undefined(), times10, bindtest.Number(4))
	require.NoError(t, err)
	assert.Equal(t, float64(40), got.Number())

	wrongType := bindtest.Function(func(bindtest.Value, []bindtest.Value) bindtest.Value {
		return bindtest.String("nope")
	})
	got, err = sim.Run(plan, bindtest.Undefined(), wrongType, bindtest.Number(4))
	require.NoError(t, err)
	assert.Equal(t, float64(0), got.Number(), "a mistyped callback result converts to zero")
}

func TestClass(t *testing.T) {
	mod := fixture()
	synth := marshal.NewSynthesizer(mod)
	rec := mod.Record("c:@S@Counter")

	ctors := ir.NewOverloadSet()
	ctors.Add(params("step", intT), nil)
	ctor := dispatch.Build(marshal.Target{Kind: marshal.CallNew, Callee: "Counter"}, ctors, synth,
		marshal.NewContext("Counter", "Counter", nil))

	methods := ir.NewOverloadSet()
	methods.Add(params("n", intT), intT)
	add := dispatch.Build(marshal.Target{Kind: marshal.CallMethod, Callee: "add", Receiver: marshal.NativePtr}, methods, synth,
		marshal.NewContext("Counter.add", "Counter", nil))

	sim := bindtest.New(mod).Method("add", func(this *bindtest.Instance, args []any) any {
		this.Fields["step"] = this.Fields["step"].(float64) + args[0].(float64)
		return this.Fields["step"]
	})
	sim.Constructors["Counter"] = func(args []any) *bindtest.Instance {
		return &bindtest.Instance{Class: rec, Fields: bindtest.Struct{"step": args[0]}}
	}

	obj, err := sim.Construct(ctor, rec, bindtest.Number(3))
	require.NoError(t, err)
	require.NotNil(t, obj.Object())
	assert.Equal(t, rec, obj.Object().Class)

	_, err = sim.Construct(ctor, rec, bindtest.String("3"))
	assert.Equal(t, "Wrong argument type for Counter constructor with 1 argument.", scriptError(t, err).Message)

	step := synth.Member(rec, rec.Fields[0], nil)
	got, err := sim.Get(step, obj)
	require.NoError(t, err)
	assert.Equal(t, float64(3), got.Number())

	require.NoError(t, sim.Set(step, obj, bindtest.Number(5)))
	got, err = sim.RunTree(add, obj, bindtest.Number(2))
	require.NoError(t, err)
	assert.Equal(t, float64(7), got.Number())
}

func TestClassPointerParam(t *testing.T) {
	mod := fixture()
	rec := mod.Record("c:@S@Counter")
	plan := function(t, mod, "peek", intT, params("c", ir.Pointer(counter)))
	sim := bindtest.New(mod).Func("peek", func(args []any) any {
		return args[0].(*bindtest.Instance).Fields["step"]
	})

	obj := bindtest.ObjectOf(&bindtest.Object{
		Props:  map[string]bindtest.Value{},
		Native: &bindtest.Instance{Class: rec, Fields: bindtest.Struct{"step": float64(4)}},
		Class:  rec,
	})
	got, err := sim.Run(plan, bindtest.Undefined(), obj)
	require.NoError(t, err)
	assert.Equal(t, float64(4), got.Number())

	_, err = sim.Run(plan, bindtest.Undefined(), bindtest.NewObject(nil))
	assert.Equal(t, "Failed to get native Counter pointer", scriptError(t, err).Message)
}

func TestClassResultCopies(t *testing.T) {
	mod := fixture()
	rec := mod.Record("c:@S@Counter")
	shared := &bindtest.Instance{Class: rec, Fields: bindtest.Struct{"step": float64(1)}}
	plan := function(t, mod, "current", ir.Pointer(counter), nil)
	sim := bindtest.New(mod).Func("current", func([]any) any { return shared })

	got, err := sim.Run(plan, bindtest.Undefined())
	require.NoError(t, err)
	inst := got.Object().Native.(*bindtest.Instance)
	inst.Fields["step"] = float64(9)
	assert.Equal(t, float64(1), shared.Fields["step"])
}
