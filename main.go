// The main package for the osintvm executable.
package main

import (
	"github.com/Kalinka5/osint-vm/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
