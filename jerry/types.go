package jerry

import (
	"context"

	"github.com/broady/bindgen/ir"
	"github.com/broady/bindgen/sink"
)

// Generator transforms a module into binding source code.
type Generator interface {
	// Name returns the generator's identifier.
	Name() string

	// Generate produces the binding source for mod.
	Generate(ctx context.Context, mod *ir.Module, opts GenerateOptions) (*GenerateResult, error)
}

// GenerateOptions configures generation behavior.
type GenerateOptions struct {
	// Sink receives generated output files.
	Sink sink.OutputSink

	// Config contains generator configuration.
	Config GeneratorConfig
}

// GenerateResult contains generation output metadata.
type GenerateResult struct {
	// Files lists all files that were written.
	Files []OutputFile

	// Registrations is the number of properties Init sets on the module
	// object.
	Registrations int

	// Declarations reports, per top-level declaration, whether every part
	// of it was bound.
	Declarations []DeclStatus

	// Warnings contains non-fatal issues encountered, the module's own
	// included.
	Warnings []ir.Warning
}

// DeclStatus is the outcome for one declaration.
type DeclStatus struct {
	Name      string
	Kind      ir.DeclKind
	Supported bool

	// Skipped is set for declarations that produce no code, such as
	// invalid macros and C records.
	Skipped bool
}

// OutputFile describes a generated file.
type OutputFile struct {
	// Path is the relative path of the generated file.
	Path string

	// Size is the number of bytes written.
	Size int64
}

// GeneratorConfig provides configuration options.
type GeneratorConfig struct {
	// PropertyCase renames record fields and class members on the script
	// side: "preserve", "camel", or "snake".
	PropertyCase string

	// Concurrency bounds parallel declaration synthesis. Zero or less
	// means one worker per CPU.
	Concurrency int

	// IndentSize is the number of spaces per indent level. Default 2.
	IndentSize int

	// EmitComments adds a comment naming the source declaration above each
	// handler.
	EmitComments bool
}
