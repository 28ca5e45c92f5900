// Command coordinfo inspects coordinate description files: it summarises
// the coordinates, writes their compact attributes and applies selections.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
