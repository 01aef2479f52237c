// Package cli parses the command line surface: a single positional path
// argument plus the -check flag. A hand-written Options struct filled by a
// manual switch-driven loop over os.Args, with a printHelp built on
// text/tabwriter.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// Options is the parsed command line: "compiler <path> [-check]".
type Options struct {
	Path  string // File or directory to compile.
	Check bool   // Suppress auxiliary sidecar output; only errors are printed.
}

const appVersion = "vslc-rv 1.0"

// ParseArgs parses os.Args[1:] into Options.
func ParseArgs(args []string) (Options, error) {
	opt := Options{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-check":
			opt.Check = true
		default:
			if len(args[i]) > 0 && args[i][0] == '-' {
				return opt, fmt.Errorf("unexpected flag: %s", args[i])
			}
			if opt.Path != "" {
				return opt, fmt.Errorf("unexpected extra argument: %s", args[i])
			}
			opt.Path = args[i]
		}
	}
	if opt.Path == "" {
		return opt, fmt.Errorf("expected a source file or directory path")
	}
	return opt, nil
}

// printHelp prints a usage summary to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "usage: compiler <path> [-check]")
	_, _ = fmt.Fprintln(w, "-check\tSuppress sidecar output; only print errors.")
	_, _ = fmt.Fprintln(w, "-h, -help\tPrint this help message and exit.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrint application version and exit.")
	_ = w.Flush()
}
