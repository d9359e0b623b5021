package main

import (
	"fmt"

	"github.com/broady/bindgen"
)

type CheckCmd struct {
	InputFlags `embed:""`

	Strict bool `help:"Fail if any declaration is unsupported."`
}

func (c *CheckCmd) Run(e *env) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	report, err := bindgen.New(*cfg).WithLogger(e.logger()).Check(e.ctx)
	if err != nil {
		return err
	}
	if err := report.WriteTable(e.stdout); err != nil {
		return err
	}
	if n := report.Count(bindgen.StatusUnsupported); c.Strict && n > 0 {
		return fmt.Errorf("%d unsupported declarations", n)
	}
	return nil
}
