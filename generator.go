package bindgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/broady/bindgen/ast"
	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/jerry"
	"github.com/broady/bindgen/provider"
	"github.com/broady/bindgen/sink"
)

// Generator provides a fluent API for binding generation.
// Create with New, FromFile or FromSnapshot and configure with method
// chaining.
//
// Example:
//
//	bindgen.FromFile("geo.snapshot.yaml").
//	    Module("geo").
//	    PropertyCase("camel").
//	    ToDir(ctx, "./gen")
type Generator struct {
	cfg    Config
	snap   *ast.Snapshot
	logger *slog.Logger
}

// New creates a Generator from a config, typically one read by LoadConfig.
func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// FromFile creates a Generator that reads the snapshot at path.
func FromFile(path string) *Generator {
	return &Generator{cfg: Config{Snapshot: path}}
}

// FromSnapshot creates a Generator for an already decoded snapshot.
func FromSnapshot(snap *ast.Snapshot) *Generator {
	return &Generator{snap: snap}
}

// Module sets the script-visible module name.
func (g *Generator) Module(name string) *Generator {
	g.cfg.Module = name
	return g
}

// Language overrides the snapshot's language.
// Valid values: "c", "cpp".
func (g *Generator) Language(lang string) *Generator {
	g.cfg.Language = lang
	return g
}

// APIHeaders adds header globs. Only declarations in matching files are
// bound.
func (g *Generator) APIHeaders(patterns ...string) *Generator {
	g.cfg.APIHeaders = append(g.cfg.APIHeaders, patterns...)
	return g
}

// PropertyCase controls script-side field and member names.
// Valid values: "preserve" (default), "camel", "snake".
func (g *Generator) PropertyCase(style string) *Generator {
	g.cfg.PropertyCase = style
	return g
}

// Concurrency bounds parallel rendering.
func (g *Generator) Concurrency(n int) *Generator {
	g.cfg.Concurrency = n
	return g
}

// EmitComments adds source locations above each handler.
func (g *Generator) EmitComments() *Generator {
	g.cfg.EmitComments = true
	return g
}

// CheckUnchanged skips rewriting an output file whose content is the same.
func (g *Generator) CheckUnchanged() *Generator {
	g.cfg.CheckUnchanged = true
	return g
}

// WithLogger sets the logger for warnings and stage timings. The default
// discards everything.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

// Config returns the effective configuration, defaults applied.
func (g *Generator) Config() Config {
	return *applyConfigDefaults(&g.cfg)
}

func (g *Generator) log() *slog.Logger {
	if g.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g.logger
}

// Result describes one generation run.
type Result struct {
	// Module is the declaration model the bindings were generated from.
	Module *ir.Module

	// Path is the output file, relative to the sink root.
	Path string

	// Content is the generated source.
	Content []byte

	// Files lists the files handed to the sink.
	Files []jerry.OutputFile

	// Registrations is the number of properties Init sets.
	Registrations int

	// Declarations reports the outcome per top-level declaration.
	Declarations []jerry.DeclStatus

	// Warnings contains every non-fatal issue of the run.
	Warnings []ir.Warning
}

// Build loads the snapshot and returns the validated declaration model
// with macros resolved.
func (g *Generator) Build(ctx context.Context) (*ir.Module, error) {
	cfg := applyConfigDefaults(&g.cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := g.log()

	snap := g.snap
	if snap == nil {
		if cfg.Snapshot == "" {
			return nil, NewError(CodeInvalidConfig, "snapshot: required")
		}
		start := time.Now()
		var err error
		snap, err = ast.Load(cfg.Snapshot)
		if err != nil {
			return nil, Errorf(CodeInvalidSnapshot, "load snapshot: %w", err)
		}
		logger.Debug("loaded snapshot", "path", cfg.Snapshot, "duration", time.Since(start))
	}

	start := time.Now()
	p := &provider.SnapshotProvider{}
	mod, err := p.BuildModule(ctx, snap, provider.InputOptions{
		Module:         cfg.Module,
		Language:       ir.Language(cfg.Language),
		APIHeaders:     cfg.APIHeaders,
		MaxMacroTokens: cfg.MaxMacroTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Errorf(CodeCanceled, "build module: %w", ctxErr)
		}
		return nil, Errorf(CodeInvalidSnapshot, "build module: %w", err)
	}
	logger.Debug("built module",
		"module", mod.Name,
		"language", string(mod.Language),
		"decls", len(mod.Decls),
		"duration", time.Since(start))

	if errs := mod.Validate(); len(errs) > 0 {
		return nil, &Error{
			Code:    CodeInvalidModule,
			Message: fmt.Sprintf("%d structural problems, first: %v", len(errs), errs[0]),
			Cause:   errors.Join(errs...),
		}
	}
	return mod, nil
}

// ToDir generates the binding file into dir.
// This is a terminal operation that writes files to disk.
func (g *Generator) ToDir(ctx context.Context, dir string) (*Result, error) {
	g.cfg.OutDir = dir
	fs := sink.NewFilesystemSink(dir)
	fs.CheckUnchanged = g.cfg.CheckUnchanged
	return g.ToSink(ctx, fs)
}

// Generate returns the generated file in memory without writing to disk.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	return g.ToSink(ctx, sink.NewMemorySink())
}

// ToSink generates the binding file into out.
func (g *Generator) ToSink(ctx context.Context, out sink.OutputSink) (*Result, error) {
	mod, err := g.Build(ctx)
	if err != nil {
		return nil, err
	}
	cfg := applyConfigDefaults(&g.cfg)
	logger := g.log()

	rec := &recordingSink{OutputSink: out}
	start := time.Now()
	gen := &jerry.JerryGenerator{}
	genResult, err := gen.Generate(ctx, mod, jerry.GenerateOptions{
		Sink: rec,
		Config: jerry.GeneratorConfig{
			PropertyCase: cfg.PropertyCase,
			Concurrency:  cfg.Concurrency,
			IndentSize:   cfg.IndentSize,
			EmitComments: cfg.EmitComments,
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Errorf(CodeCanceled, "generate: %w", ctxErr)
		}
		return nil, Errorf(CodeWriteFailed, "generate: %w", err)
	}
	logger.Debug("generated bindings",
		"generator", gen.Name(),
		"registrations", genResult.Registrations,
		"duration", time.Since(start))

	logWarnings(logger, genResult.Warnings)

	res := &Result{
		Module:        mod,
		Path:          jerry.FileName(mod),
		Files:         genResult.Files,
		Registrations: genResult.Registrations,
		Declarations:  genResult.Declarations,
		Warnings:      genResult.Warnings,
	}
	res.Content, _ = rec.content(res.Path)
	return res, nil
}

// logWarnings reports each warning. Invalid macros are routine in real
// headers and only show at debug level.
func logWarnings(logger *slog.Logger, warnings []ir.Warning) {
	for _, w := range warnings {
		attrs := []any{"code", string(w.Code), "decl", w.Decl}
		if w.Source != nil && !w.Source.IsZero() {
			attrs = append(attrs, "file", fmt.Sprintf("%s:%d", w.Source.File, w.Source.Line))
		}
		if w.Code == ir.CodeInvalidMacro {
			logger.Debug(w.Message, attrs...)
			continue
		}
		logger.Warn(w.Message, attrs...)
	}
}

// recordingSink keeps a copy of everything written through it.
type recordingSink struct {
	sink.OutputSink

	mu    sync.Mutex
	files map[string][]byte
}

func (s *recordingSink) WriteFile(ctx context.Context, path string, content []byte) error {
	s.mu.Lock()
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[path] = append([]byte(nil), content...)
	s.mu.Unlock()
	return s.OutputSink.WriteFile(ctx, path, content)
}

func (s *recordingSink) content(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[path]
	return b, ok
}
