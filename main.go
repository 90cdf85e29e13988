// Package main is the entry point for the elementio dataflow runner.
package main

import (
	"fmt"
	"os"

	"github.com/elementio/elementio/cmd"
	_ "github.com/elementio/elementio/elements" // registers every built-in element
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
