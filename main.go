// The main package for the knavi-crawler executable.
package main

import (
	"knavi-crawler/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
