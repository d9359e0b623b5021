package main

import (
	"os"

	"github.com/broady/bindgen"
)

const defaultConfigFile = "bindgen.yaml"

// InputFlags select the snapshot and configuration shared by gen, check
// and dump.
type InputFlags struct {
	Config   string   `help:"Config file (default: ./bindgen.yaml if present)." short:"c" type:"path"`
	Snapshot string   `help:"AST snapshot, overriding the config." short:"s" type:"path"`
	Module   string   `help:"Module name, overriding the config." short:"m"`
	Language string   `help:"Language (c or cpp), overriding the snapshot."`
	Header   []string `help:"API header glob; repeatable." short:"H" name:"header" sep:"none"`
	Set      []string `help:"Override a config key." placeholder:"KEY=VALUE" sep:"none"`
}

// configPath returns the config file in effect, or "" if there is none.
func (f *InputFlags) configPath() string {
	if f.Config != "" {
		return f.Config
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// load reads the config file, if any, and applies the flag overrides.
func (f *InputFlags) load() (*bindgen.Config, error) {
	cfg := &bindgen.Config{}
	if path := f.configPath(); path != "" {
		loaded, err := bindgen.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if f.Snapshot != "" {
		cfg.Snapshot = f.Snapshot
	}
	if f.Module != "" {
		cfg.Module = f.Module
	}
	if f.Language != "" {
		cfg.Language = f.Language
	}
	cfg.APIHeaders = append(cfg.APIHeaders, f.Header...)
	if err := bindgen.ApplyOverrides(cfg, f.Set); err != nil {
		return nil, err
	}
	return cfg, nil
}
