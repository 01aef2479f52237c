// Command vslc is the compiler entry point: parse arguments, build the
// grammar table once, and drive the pipeline over the requested path.
package main

import (
	"fmt"
	"os"

	"vslrv/internal/cli"
	"vslrv/internal/driver"
)

func main() {
	opt, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %s\n", err)
		os.Exit(1)
	}

	c, err := driver.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	if err := c.Run(opt); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
