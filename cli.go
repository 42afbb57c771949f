package arraycmp

import (
	"errors"
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log"
	cli "github.com/urfave/cli/v2"
)

const appName = "arraycmp"

var ErrUsage = errors.New("invalid arguments")

var usage = fmt.Sprintf("Usage: %s [--byte-order native|little|big] [--verbose] FILE1 FILE2", appName)

// RunCLI parses args (without the program name) and compares the two
// files they name.
func RunCLI(args []string, opts ...CMPOption) error {
	fc, err := NewFileComparer(opts...)
	if err != nil {
		return err
	}
	app := &cli.App{
		Name:            appName,
		Usage:           "report max absolute values and max absolute difference of two binary square matrices",
		ArgsUsage:       "FILE1 FILE2",
		HideHelpCommand: true,
		Writer:          fc.Stdout,
		ErrWriter:       fc.Stderr,
		// errors are returned to the caller instead of exiting here
		ExitErrHandler: func(*cli.Context, error) {},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			fmt.Fprintln(fc.Stderr, usage)
			return fmt.Errorf("%w: %v", ErrUsage, err)
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "byte-order",
				Aliases: []string{"b"},
				Value:   "native",
				Usage:   "byte order of both files: native, little or big",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug output to stderr",
			},
		},
		Action: func(cctx *cli.Context) error {
			if cctx.NArg() != 2 {
				fmt.Fprintln(fc.Stderr, usage)
				return fmt.Errorf("%w: want 2 files, got %d", ErrUsage, cctx.NArg())
			}
			if cctx.Bool("verbose") {
				if err := logging.SetLogLevel(appName, "debug"); err != nil {
					return err
				}
			}
			order, err := ParseByteOrder(cctx.String("byte-order"))
			if err != nil {
				return err
			}
			fc.Order = order
			return fc.Run(cctx.Args().Get(0), cctx.Args().Get(1))
		},
	}
	return app.Run(append([]string{appName}, flagsFirst(args)...))
}

// flagsFirst moves flags ahead of the file arguments so they are accepted
// in any position. Everything after "--" stays positional.
func flagsFirst(args []string) []string {
	var flags, files []string
	terminated := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			terminated = true
			files = append(files, args[i+1:]...)
			i = len(args)
		case len(arg) > 1 && strings.HasPrefix(arg, "-"):
			flags = append(flags, arg)
			if takesValue(arg) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			files = append(files, arg)
		}
	}
	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, files...)
}

func takesValue(flag string) bool {
	switch strings.TrimLeft(flag, "-") {
	case "byte-order", "b":
		return true
	}
	return false
}
