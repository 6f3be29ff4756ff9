// Command agentshim drives an agent engine through the executor contract
// from the command line.
package main

import "os"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	root := newRootCmd()
	root.Version = version
	root.SetVersionTemplate(`{{printf "agentshim version %s\n" .Version}}`)
	if err := root.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}
