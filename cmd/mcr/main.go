// Command mcr manages contract and rate revisions for managed care review.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
