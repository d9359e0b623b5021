package bindgen

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for binding generation.
type Config struct {
	// Module is the script-visible module name. It also names the init
	// function, Init_<Module>, and the output file.
	Module string `yaml:"module" schema:"module" validate:"required,cident"`

	// Language selects C or C++ semantics: "c" or "cpp". Empty uses the
	// snapshot's language.
	Language string `yaml:"language" schema:"language" validate:"omitempty,oneof=c cpp"`

	// Snapshot is the path of the AST snapshot, YAML or JSON.
	// e.g. "build/geo.snapshot.yaml"
	Snapshot string `yaml:"snapshot" schema:"snapshot"`

	// APIHeaders are glob patterns selecting the headers whose declarations
	// are bound. Declarations from every other file, including the system
	// headers the API includes, are skipped.
	// e.g. []string{"include/geo/*.h"}
	APIHeaders []string `yaml:"api_headers" schema:"api_headers" validate:"required,min=1,dive,required"`

	// OutDir is the directory the binding file is written to.
	OutDir string `yaml:"out_dir" schema:"out_dir"`

	// PropertyCase renames record fields and class members on the script
	// side: "preserve", "camel", or "snake".
	// Default: "preserve"
	PropertyCase string `yaml:"property_case" schema:"property_case" validate:"omitempty,oneof=preserve camel snake"`

	// Concurrency bounds parallel rendering. Zero means one worker per CPU.
	Concurrency int `yaml:"concurrency" schema:"concurrency" validate:"min=0,max=1024"`

	// IndentSize is the number of spaces per indent level.
	// Default: 2
	IndentSize int `yaml:"indent_size" schema:"indent_size" validate:"min=0,max=16"`

	// EmitComments adds a comment with the source location above each
	// handler.
	EmitComments bool `yaml:"emit_comments" schema:"emit_comments"`

	// CheckUnchanged leaves the output file untouched when its content
	// would not change.
	CheckUnchanged bool `yaml:"check_unchanged" schema:"check_unchanged"`

	// MaxMacroTokens caps the resolved size of one macro. Zero uses the
	// resolver default.
	MaxMacroTokens int `yaml:"max_macro_tokens" schema:"max_macro_tokens" validate:"min=0"`
}

var cIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cident", func(fl validator.FieldLevel) bool {
		return cIdentifier.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks the config, returning an *Error with code
// CodeInvalidConfig that lists every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return &Error{Code: CodeInvalidConfig, Message: "validate config", Cause: err}
	}
	msgs := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		msgs = append(msgs, ve.Field()+": "+formatValidationError(ve))
	}
	return &Error{Code: CodeInvalidConfig, Message: strings.Join(msgs, "; "), Cause: err}
}

// applyConfigDefaults returns a copy of cfg with defaults filled in.
func applyConfigDefaults(cfg *Config) *Config {
	result := *cfg
	if result.PropertyCase == "" {
		result.PropertyCase = "preserve"
	}
	if result.IndentSize == 0 {
		result.IndentSize = 2
	}
	if result.OutDir == "" {
		result.OutDir = "."
	}
	return &result
}

// LoadConfig reads a YAML config file such as bindgen.yaml. Unknown keys
// are rejected. Relative snapshot and output paths are resolved against
// the file's directory.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Errorf(CodeInvalidConfig, "open config: %w", err)
	}
	defer f.Close()
	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if cfg.Snapshot != "" && !filepath.IsAbs(cfg.Snapshot) {
		cfg.Snapshot = filepath.Join(dir, cfg.Snapshot)
	}
	if cfg.OutDir != "" && !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(dir, cfg.OutDir)
	}
	return cfg, nil
}

// DecodeConfig reads a YAML config document.
func DecodeConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, Errorf(CodeInvalidConfig, "decode config: %w", err)
	}
	return cfg, nil
}

var overrideDecoder = newOverrideDecoder()

func newOverrideDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	return d
}

// ApplyOverrides sets fields from "key=value" pairs, as given to the CLI's
// --set flag. Keys are the config's YAML names; repeating a list key such
// as api_headers appends to it.
func ApplyOverrides(cfg *Config, sets []string) error {
	if len(sets) == 0 {
		return nil
	}
	values := url.Values{}
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return Errorf(CodeInvalidConfig, "override %q is not key=value", s)
		}
		values.Add(key, value)
	}

	// Lists named in the overrides extend rather than replace.
	if headers, ok := values["api_headers"]; ok {
		values["api_headers"] = append(append([]string(nil), cfg.APIHeaders...), headers...)
	}
	if err := overrideDecoder.Decode(cfg, values); err != nil {
		return Errorf(CodeInvalidConfig, "apply overrides: %w", err)
	}
	return nil
}

// String renders the config as YAML.
func (c Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", struct{ Config }{c})
	}
	return string(out)
}
