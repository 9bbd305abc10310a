// Command stackvm runs an assembled object file to completion.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v2"

	"stackvm/objectfile"
	"stackvm/vm"
)

func main() {
	app := &cli.App{
		Name:  "stackvm",
		Usage: "execute a stack-vm object file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a TOML config file"},
			&cli.BoolFlag{Name: "mapped", Usage: "load the object file via mmap instead of a plain read"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "stackvm:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: stackvm [flags] <program.out>", 2)
	}

	cfg := vm.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = vm.LoadConfig(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("loading config: %v", err), 1)
		}
	}
	log := vm.NewLogger(cfg.LogLevel)

	objPath := c.Args().Get(0)
	var img *vm.Image
	var err error
	if c.Bool("mapped") || cfg.UseMappedLoad {
		img, err = objectfile.LoadMapped(objPath)
	} else {
		img, err = objectfile.Load(objPath)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("loading %s: %v", objPath, err), 1)
	}

	log.WithField("entry", img.Entry).Debug("loaded image")

	// Hot interpreter loop: disable the GC for the run. Both halt paths
	// below end the process with os.Exit, so the deferred restore does not
	// run.
	gcPercent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gcPercent)

	it := vm.NewInterpreter(img, vm.NewHostSyscalls())
	if err := it.Run(); err != nil {
		log.WithError(err).Error("halted on fault")
		os.Exit(1)
	}
	os.Exit(int(it.ExitCode))
	return nil
}
