// Package main is the entry point for the edgeqctl binary.
package main

import (
	"os"

	"github.com/kailas-cloud/edgeq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
