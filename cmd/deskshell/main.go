package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "deskshell",
		Short: "Desktop shell supervisor for a local web server and browser",
		Long: `Deskshell launches and supervises two cooperating processes: a local
web server and a browser attached to it over a fixed remote-debugging port.
Process output and lifecycle events are forwarded to the hosting UI layer.

Examples:
  deskshell run --config=deskshell.toml
  deskshell paths
  deskshell version`,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")

	root.AddCommand(
		createRunCommand(globalFlags),
		createPathsCommand(globalFlags),
		createVersionCommand(),
	)
	return root
}
