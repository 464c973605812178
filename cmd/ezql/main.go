// Package main is the entry point for the ezql CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/ezql/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil && !cli.Reported(err) {
		fmt.Fprintf(os.Stderr, "ezql: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
