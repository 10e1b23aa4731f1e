package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/persistkit/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var withExitCode interface{ ExitCode() int }
		if errors.As(err, &withExitCode) {
			// Already reported by the command's formatter.
			os.Exit(withExitCode.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
