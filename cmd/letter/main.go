// Command letter writes subscription cancellation letters from the terminal.
package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	c := &cli{out: os.Stdout, errOut: os.Stderr, driver: surveyDriver{}}
	if err := c.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
