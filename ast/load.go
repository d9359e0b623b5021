package ast

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broady/bindgen/internal/json"
)

// Format is a snapshot encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf guesses the encoding from a file name. Unknown extensions are
// treated as YAML, which also accepts JSON documents.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := Decode(bytes.NewReader(data), FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Decode reads a snapshot in the given format and validates it.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	snap := &Snapshot{}
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(snap); err != nil {
			return nil, fmt.Errorf("decode json snapshot: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(snap); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("empty snapshot")
			}
			return nil, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Validate checks the structural requirements every consumer relies on.
func (s *Snapshot) Validate() error {
	if s.Root == nil {
		return errors.New("snapshot has no root cursor")
	}
	if s.Root.Kind != TranslationUnit {
		return fmt.Errorf("root cursor kind is %s, want %s", s.Root.Kind, TranslationUnit)
	}
	switch s.Language {
	case "":
		s.Language = "c"
	case "c", "cpp":
	default:
		return fmt.Errorf("unknown language %q", s.Language)
	}

	var errs []error
	s.Walk(func(c, parent *Cursor) bool {
		if c.Kind == "" {
			where := "root"
			if parent != nil {
				where = parent.Spelling
			}
			errs = append(errs, fmt.Errorf("cursor %q under %s has no kind", c.Spelling, where))
			return false
		}
		if c.Kind == MacroDefinition && len(c.Tokens) == 0 {
			errs = append(errs, fmt.Errorf("macro %q has no tokens", c.Spelling))
		}
		return true
	})
	return errors.Join(errs...)
}
