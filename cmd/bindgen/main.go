package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
)

type CLI struct {
	LogLevel  string `help:"Minimum log level." enum:"debug,info,warn,error" default:"info" name:"log-level"`
	LogFormat string `help:"Log format: text, json, or auto (text on a terminal)." enum:"auto,text,json" default:"auto" name:"log-format"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     GenCmd     `cmd:"" help:"Generate JerryScript bindings from an AST snapshot."`
	Check   CheckCmd   `cmd:"" help:"Report which declarations can be bound without writing files."`
	Dump    DumpCmd    `cmd:"" help:"Print the declaration model as JSON or YAML."`
}

// env is what every command runs against.
type env struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	cli    *CLI
}

type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	_, err := io.WriteString(e.stdout, Version()+"\n")
	return err
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("bindgen"),
		kong.Description("Generate JerryScript bindings for C and C++ APIs."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := newParser(cli, stdout, stderr)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&env{ctx: ctx, stdout: stdout, stderr: stderr, cli: cli})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &CLI{}
	parser, err := newParser(cli, os.Stdout, os.Stderr)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = kctx.Run(&env{ctx: ctx, stdout: os.Stdout, stderr: os.Stderr, cli: cli})
	kctx.FatalIfErrorf(err)
}
