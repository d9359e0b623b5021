package bindgen

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/bindgen/ast"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/sink"
)

var geoSnapshot = filepath.Join("testdata", "geo.snapshot.yaml")

func geo() *Generator {
	return FromFile(geoSnapshot).Module("geo").APIHeaders("geo.h")
}

func TestGenerator_Build(t *testing.T) {
	mod, err := geo().Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "geo", mod.Name)
	assert.Equal(t, ir.LangC, mod.Language)
	var names []string
	for _, d := range mod.Decls {
		names = append(names, d.DeclName())
	}
	assert.Equal(t, []string{
		"GEO_VERSION", "GEO_NAME", "GEO_EXPORT",
		"point", "make_point", "scale", "norm", "color", "origin_count",
	}, names)
	assert.NotContains(t, names, "internal_only")
}

func TestGenerator_Generate(t *testing.T) {
	res, err := geo().Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "geo_js_binding.c", res.Path)
	require.Len(t, res.Files, 1)
	assert.Equal(t, int64(len(res.Content)), res.Files[0].Size)
	assert.Equal(t, 7, res.Registrations)

	out := string(res.Content)
	assert.Contains(t, out, "Init_geo (void)")
	assert.Contains(t, out, "make_point_handler")
	assert.Contains(t, out, `"GEO_VERSION"`)
	assert.NotContains(t, out, "GEO_EXPORT")
	assert.NotContains(t, out, "internal_only")
}

func TestGenerator_Warnings(t *testing.T) {
	res, err := geo().Generate(context.Background())
	require.NoError(t, err)

	codes := map[ir.ErrorCode][]string{}
	for _, w := range res.Warnings {
		codes[w.Code] = append(codes[w.Code], w.Decl)
	}
	assert.Contains(t, codes[ir.CodeInvalidMacro], "GEO_EXPORT")
	assert.Contains(t, codes[ir.CodeUnsupportedType], "norm")
}

func TestGenerator_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	_, err := geo().WithLogger(logger).Generate(context.Background())
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "code=unsupported_type")
	assert.Contains(t, logs, "decl=norm")
	assert.NotContains(t, logs, "invalid_macro", "invalid macros log at debug")
}

func TestGenerator_DebugTimings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := geo().WithLogger(logger).Generate(context.Background())
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `msg="loaded snapshot"`)
	assert.Contains(t, logs, `msg="built module"`)
	assert.Contains(t, logs, `msg="generated bindings"`)
	assert.Contains(t, logs, "code=invalid_macro")
}

func TestGenerator_ToDir(t *testing.T) {
	dir := t.TempDir()
	res, err := geo().ToDir(context.Background(), dir)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "geo_js_binding.c"))
	require.NoError(t, err)
	assert.Equal(t, res.Content, got)
}

func TestGenerator_ToDir_CheckUnchanged(t *testing.T) {
	dir := t.TempDir()
	_, err := geo().CheckUnchanged().ToDir(context.Background(), dir)
	require.NoError(t, err)

	res, err := geo().CheckUnchanged().ToDir(context.Background(), dir)
	require.NoError(t, err, "an unchanged file is not an error")
	assert.NotEmpty(t, res.Content)
}

func TestGenerator_ToSink(t *testing.T) {
	mem := sink.NewMemorySink()
	res, err := geo().PropertyCase("camel").Concurrency(2).ToSink(context.Background(), mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"geo_js_binding.c"}, mem.Paths())
	assert.Equal(t, res.Content, mem.Get("geo_js_binding.c"))
}

func TestGenerator_Deterministic(t *testing.T) {
	first, err := geo().Concurrency(1).Generate(context.Background())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := geo().Concurrency(8).Generate(context.Background())
		require.NoError(t, err)
		require.Equal(t, string(first.Content), string(again.Content))
	}
}

func TestGenerator_FromSnapshot(t *testing.T) {
	snap, err := ast.Load(geoSnapshot)
	require.NoError(t, err)

	res, err := FromSnapshot(snap).Module("shapes").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shapes_js_binding.c", res.Path)
	assert.Contains(t, string(res.Content), "Init_shapes (void)")
	// No header filter binds everything.
	assert.Contains(t, string(res.Content), "internal_only")
}

func TestGenerator_LanguageOverride(t *testing.T) {
	res, err := geo().Language("cpp").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "geo_js_binding.cpp", res.Path)
	assert.Contains(t, string(res.Content), `extern "C" jerry_value_t`)
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name string
		gen  *Generator
		code ErrorCode
	}{
		{"no module", FromFile(geoSnapshot), CodeInvalidConfig},
		{"no snapshot", New(Config{Module: "geo"}), CodeInvalidConfig},
		{"missing snapshot", FromFile("testdata/missing.yaml").Module("geo"), CodeInvalidSnapshot},
		{"bad glob", geo().APIHeaders("[unclosed"), CodeInvalidSnapshot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.gen.Generate(context.Background())
			require.Error(t, err)
			var bErr *Error
			require.ErrorAs(t, err, &bErr)
			assert.Equal(t, tt.code, bErr.Code)
		})
	}
}

func TestGenerator_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := geo().Generate(ctx)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, CodeCanceled, bErr.Code)
}

func TestGenerator_NewFromConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "bindgen.yaml"))
	require.NoError(t, err)

	g := New(*cfg)
	assert.Equal(t, "preserve", g.Config().PropertyCase)
	res, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(res.Content), "/* Generated by bindgen. DO NOT EDIT. */"))
}
