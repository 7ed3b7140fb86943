// Package main is the entry point for the exportd CLI.
package main

import (
	"fmt"
	"os"

	"github.com/pipewise/exportd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
