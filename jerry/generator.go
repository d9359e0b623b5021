// Package jerry renders a module's bindings as C or C++ source against the
// JerryScript 2.x embedding API.
package jerry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/marshal"
	"github.com/broady/bindgen/sink"
)

// JerryGenerator implements Generator for JerryScript.
type JerryGenerator struct{}

// Name returns "jerry".
func (g *JerryGenerator) Name() string {
	return "jerry"
}

// FileName returns the name of the binding file generated for mod.
func FileName(mod *ir.Module) string {
	if mod.Language == ir.LangCPP {
		return mod.Name + "_js_binding.cpp"
	}
	return mod.Name + "_js_binding.c"
}

// Generate renders mod into a single binding file written to opts.Sink.
func (g *JerryGenerator) Generate(ctx context.Context, mod *ir.Module, opts GenerateOptions) (*GenerateResult, error) {
	if mod == nil {
		return nil, errors.New("module is nil")
	}
	if opts.Sink == nil {
		return nil, errors.New("sink is nil")
	}
	cfg := applyDefaults(opts.Config)

	content, result, err := Render(ctx, mod, cfg)
	if err != nil {
		return nil, err
	}

	path := FileName(mod)
	if err := opts.Sink.WriteFile(ctx, path, content); err != nil && !errors.Is(err, sink.ErrUnchanged) {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	result.Files = []OutputFile{{Path: path, Size: int64(len(content))}}
	return result, nil
}

func applyDefaults(cfg GeneratorConfig) GeneratorConfig {
	if cfg.IndentSize <= 0 {
		cfg.IndentSize = 2
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.PropertyCase == "" {
		cfg.PropertyCase = "preserve"
	}
	return cfg
}

// Render produces the binding source without writing it. Declarations are
// synthesized in order, then rendered in parallel into per-declaration
// buffers that are joined in order, so the output is identical across runs.
func Render(ctx context.Context, mod *ir.Module, cfg GeneratorConfig) ([]byte, *GenerateResult, error) {
	cfg = applyDefaults(cfg)
	e := &emitter{
		mod:   mod,
		synth: marshal.NewSynthesizer(mod),
		cfg:   cfg,
		cpp:   mod.Language == ir.LangCPP,
	}
	if cfg.PropertyCase != "preserve" {
		e.synth.PropertyName = func(name string) string { return applyCase(name, cfg.PropertyCase) }
	}

	root := marshal.NewScope(fileNames...)
	for w := range reservedWords {
		e.synth.Reserved = append(e.synth.Reserved, w)
		root.Reserve(w)
	}
	for _, d := range mod.Decls {
		if name := d.DeclName(); name != "" {
			root.Reserve(name)
		}
		if rec, ok := d.(*ir.RecordDecl); ok && e.cpp && rec.IsClass() {
			prefix := sanitizeIdentifier(rec.Name)
			root.Reserve(prefix + "_js_destructor")
			root.Reserve(typeInfo(rec))
			root.Reserve(creator(rec))
		}
	}
	root.Reserve("Init_" + mod.Name)

	units := make([]*unit, len(mod.Decls))
	for i, d := range mod.Decls {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		units[i] = e.synthesize(d, root)
	}

	frags := make([]*fragment, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, u := range units {
		frags[i] = &fragment{}
		if u.render == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u.render(frags[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	result := &GenerateResult{Warnings: append([]ir.Warning(nil), mod.Warnings...)}
	for _, u := range units {
		result.Registrations += u.registrations
		result.Declarations = append(result.Declarations, u.status)
		result.Warnings = append(result.Warnings, u.warnings...)
	}
	return e.assemble(frags), result, nil
}

func (e *emitter) assemble(frags []*fragment) []byte {
	var buf bytes.Buffer
	w := newWriter(&buf, e.cfg.IndentSize)

	w.line("/* Generated by bindgen. DO NOT EDIT. */")
	w.line("")
	w.line("#include <stdlib.h>")
	w.line("#include <string.h>")
	w.line("#include \"jerryscript.h\"")
	for _, h := range e.mod.Headers {
		w.line("#include %s", cString(h))
	}
	w.line("")
	writeHelpers(&buf, e.cfg.IndentSize)
	w.line("")

	for _, f := range frags {
		buf.Write(f.prologue.Bytes())
	}
	for _, f := range frags {
		buf.Write(f.code.Bytes())
	}

	if e.cpp {
		w.line("extern \"C\" jerry_value_t")
	} else {
		w.line("jerry_value_t")
	}
	w.line("Init_%s (void)", e.mod.Name)
	w.open("")
	w.line("jerry_value_t object = jerry_create_object ();")
	for _, f := range frags {
		buf.Write(f.init.Bytes())
	}
	w.line("return object;")
	w.close()
	return buf.Bytes()
}
