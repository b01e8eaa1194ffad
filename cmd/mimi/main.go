// Command mimi identifies compounds in mass spectrometry samples against
// cached isotopologue databases.
package main

import (
	"fmt"
	"os"

	"github.com/lgalanti/mimi-go/cmd/mimi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
