// Command stackasm assembles a source file into an object file.
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
		Name:  "stackasm",
		Usage: "assemble a stack-vm source file into an object file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "a.out", Usage: "output object file path"},
			&cli.BoolFlag{Name: "compress", Usage: "write a gzip-framed object file"},
			&cli.BoolFlag{Name: "disassemble", Usage: "print the assembled disassembly instead of writing a file"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "stackasm:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: stackasm [flags] <source.asm>", 2)
	}
	srcPath := c.Args().Get(0)

	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := vm.Assemble(f)
	if err != nil {
		return cli.Exit(fmt.Sprintf("assembling %s: %v", srcPath, err), 1)
	}

	if c.Bool("disassemble") {
		for _, line := range vm.Disassemble(img) {
			fmt.Printf("0x%04x  %s\n", line.Offset, line.Text)
		}
		return nil
	}

	out := c.String("out")
	if c.Bool("compress") {
		return objectfile.SaveCompressed(out, img)
	}
	return objectfile.Save(out, img)
}
