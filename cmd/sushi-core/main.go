// Command sushi-core is a thin CLI embedder around the engine: it loads a
// configuration file, wires the dispatcher and engine together, and serves
// Prometheus metrics, matching the "host process in front of a library"
// shape the engine itself is designed for.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := rootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sushi-core",
		Short: "Headless audio plugin host and signal-processing engine",
	}
	cmd.AddCommand(runCommand())
	cmd.AddCommand(validateCommand())
	return cmd
}
