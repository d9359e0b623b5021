package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/broady/bindgen"
	"github.com/broady/bindgen/internal/json"
)

type DumpCmd struct {
	InputFlags `embed:""`

	Format string `help:"Output format." enum:"json,yaml" default:"json" short:"f"`
}

func (c *DumpCmd) Run(e *env) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	mod, err := bindgen.New(*cfg).WithLogger(e.logger()).Build(e.ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(mod, "", "  ")
	if err != nil {
		return fmt.Errorf("encode module: %w", err)
	}
	if c.Format == "yaml" {
		if data, err = toYAML(data); err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}
	_, err = e.stdout.Write(data)
	return err
}

// toYAML re-encodes a JSON document as block-style YAML, keeping key order.
func toYAML(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&doc)
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	return out, nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
