// Package main provides the entry point for the civicsearch CLI.
package main

import (
	"os"

	"github.com/opencivic/civicsearch/cmd/civicsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
