package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/broady/bindgen"
	"github.com/broady/bindgen/internal/watch"
)

type GenCmd struct {
	InputFlags `embed:""`

	Out          string `help:"Output directory (default: the config's out_dir)." short:"o" type:"path"`
	Watch        bool   `help:"Watch the snapshot and config and regenerate on change." short:"w"`
	EmitComments bool   `help:"Annotate handlers with their source location." name:"emit-comments"`
}

func (c *GenCmd) Run(e *env) error {
	if err := c.generate(e.ctx, e); err != nil {
		if !c.Watch {
			return err
		}
		e.logger().Error("generate failed", "error", err)
	}
	if !c.Watch {
		return nil
	}

	cfg, err := c.load()
	if err != nil {
		return err
	}
	paths := []string{cfg.Snapshot}
	if p := c.configPath(); p != "" {
		paths = append(paths, p)
	}
	fmt.Fprintf(e.stderr, "watching %d files, press Ctrl-C to stop\n", len(paths))
	return watch.Run(e.ctx, watch.Options{
		Paths:  paths,
		Logger: e.logger(),
		OnChange: func(ctx context.Context) error {
			return c.generate(ctx, e)
		},
	})
}

func (c *GenCmd) generate(ctx context.Context, e *env) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if c.EmitComments {
		cfg.EmitComments = true
	}
	out := c.Out
	if out == "" {
		out = cfg.OutDir
	}
	if out == "" {
		out = "."
	}

	res, err := bindgen.New(*cfg).WithLogger(e.logger()).ToDir(ctx, out)
	if err != nil {
		return err
	}
	return printSummary(e.stdout, filepath.Join(out, res.Path), res)
}

func printSummary(w io.Writer, path string, res *bindgen.Result) error {
	var size int64
	for _, f := range res.Files {
		size += f.Size
	}
	_, err := fmt.Fprintf(w, "wrote %s (%s, %s registrations, %s)\n",
		path,
		humanize.Bytes(uint64(size)),
		humanize.Comma(int64(res.Registrations)),
		plural(len(res.Warnings), "warning"))
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
