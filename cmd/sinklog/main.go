package main

import (
	"fmt"
	"os"
)

var version = "0.1.0" // default version if not set

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
