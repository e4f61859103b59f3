// Command pluginhostd is the plugin host's entry point: a thin wrapper
// around the cli package's Cobra command tree (load, execute, chain,
// list, unload, trace, serve).
package main

import (
	"os"

	"github.com/wasmforge/pluginhost/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
