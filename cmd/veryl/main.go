// Command veryl analyzes Veryl sources and translates them to
// SystemVerilog.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/veryl-go/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Command output has already reported an ExitError.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
