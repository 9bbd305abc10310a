// Command stackdbg loads an object file into an interactive source-level
// debugger session.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"stackvm/objectfile"
	"stackvm/vm"
)

func main() {
	app := &cli.App{
		Name:  "stackdbg",
		Usage: "interactively debug a stack-vm object file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a TOML config file"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "stackdbg:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: stackdbg [flags] <program.out>", 2)
	}

	cfg := vm.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = vm.LoadConfig(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("loading config: %v", err), 1)
		}
	}
	_ = vm.NewLogger(cfg.LogLevel)

	objPath := c.Args().Get(0)
	var img *vm.Image
	var err error
	if cfg.UseMappedLoad {
		img, err = objectfile.LoadMapped(objPath)
	} else {
		img, err = objectfile.Load(objPath)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("loading object file: %v", err), 1)
	}

	dbg := vm.NewDebugger(img, vm.NewHostSyscalls())
	dbg.RunREPL(os.Stdin, os.Stdout)
	return nil
}
