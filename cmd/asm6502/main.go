package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"github.com/tommyo123/asm6502/asm"
)

// osFileReader satisfies asm.FileReader for .incbin, keeping the core
// assembler filesystem-agnostic.
type osFileReader struct{}

func (osFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func readSource(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseOrigin(s string) (uint32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("origin cannot be negative")
	}
	return uint32(v), nil
}

func assembleCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("Insufficient arguments", 1)
	}
	file := args.First()

	source, err := readSource(file)
	if err != nil {
		return cli.Exit(err, 1)
	}

	a := asm.NewAssembler(osFileReader{})
	if origin := c.String("origin"); origin != "" {
		addr, err := parseOrigin(origin)
		if err != nil {
			return cli.Exit("Could not parse origin", 1)
		}
		a.SetOrigin(addr)
	}

	code, items, err := a.AssembleFull(source)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if c.Bool("verbose") {
		fmt.Fprintln(os.Stderr, "symbol table:")
		spew.Fdump(os.Stderr, a.Symbols())
		fmt.Fprintln(os.Stderr, "items:")
		spew.Fdump(os.Stderr, items)
	}

	out := c.String("out")
	if out == "" {
		return asm.WriteBin(code, os.Stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()
	return asm.WriteBin(code, f)
}

func symbolsCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("Insufficient arguments", 1)
	}
	file := args.First()

	source, err := readSource(file)
	if err != nil {
		return cli.Exit(err, 1)
	}

	a := asm.NewAssembler(osFileReader{})
	if origin := c.String("origin"); origin != "" {
		addr, err := parseOrigin(origin)
		if err != nil {
			return cli.Exit("Could not parse origin", 1)
		}
		a.SetOrigin(addr)
	}

	_, syms, err := a.AssembleWithSymbols(source)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Println("Name            Value  Kind")
	for name, s := range syms {
		kind := "label"
		if s.Kind == asm.Constant {
			kind = "const"
		}
		fmt.Printf("%-15s $%04X  %s\n", name, s.Value, kind)
	}
	return nil
}

func listCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("Insufficient arguments", 1)
	}
	file := args.First()

	source, err := readSource(file)
	if err != nil {
		return cli.Exit(err, 1)
	}

	a := asm.NewAssembler(osFileReader{})
	if origin := c.String("origin"); origin != "" {
		addr, err := parseOrigin(origin)
		if err != nil {
			return cli.Exit("Could not parse origin", 1)
		}
		a.SetOrigin(addr)
	}

	_, items, err := a.AssembleFull(source)
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, it := range items {
		switch it.Kind {
		case asm.ItemLabel:
			fmt.Printf("%04X           %s:\n", it.Address, it.Label)
		case asm.ItemInstruction:
			fmt.Printf("%04X  % -8X %s %s\n", it.Address, it.Bytes, it.Mnemonic, it.Operand)
		case asm.ItemDirective:
			fmt.Printf("%04X  % -8X .%s\n", it.Address, it.Bytes, it.Directive)
		}
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "asm6502"
	app.Usage = "Assemble single-file 6502 source into raw machine code"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}

	originFlag := &cli.StringFlag{
		Name:  "origin",
		Usage: "starting program counter until the source's first *= (e.g. 0x0800)",
	}

	app.Commands = []*cli.Command{
		{
			Name:      "assemble",
			Aliases:   []string{"a"},
			Usage:     "Assemble a source file to raw machine code",
			ArgsUsage: "file",
			Action:    assembleCmd,
			Flags: []cli.Flag{
				originFlag,
				&cli.StringFlag{Name: "out", Usage: "output file (default: stdout)"},
				&cli.BoolFlag{Name: "verbose", Usage: "dump the symbol table and item stream to stderr"},
			},
		},
		{
			Name:      "symbols",
			Aliases:   []string{"s"},
			Usage:     "Assemble a source file and print its symbol table",
			ArgsUsage: "file",
			Action:    symbolsCmd,
			Flags:     []cli.Flag{originFlag},
		},
		{
			Name:      "list",
			Aliases:   []string{"l"},
			Usage:     "Assemble a source file and print an address/byte listing",
			ArgsUsage: "file",
			Action:    listCmd,
			Flags:     []cli.Flag{originFlag},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
