package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loykin/deskshell"
	"github.com/loykin/deskshell/internal/browser"
	"github.com/loykin/deskshell/internal/logger"
)

var version = "dev"

// createRunCommand creates the run subcommand: the daemon mode that
// supervises both processes until interrupted.
func createRunCommand(globalFlags *GlobalFlags) *cobra.Command {
	var serverCommand string
	var serverWorkDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the shell supervisor",
		Long: `Start the server process, launch the managed browser attached to it,
and forward process events until interrupted.

Examples:
  deskshell run --config=deskshell.toml
  deskshell run --server-command=/usr/local/bin/app-server`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deskshell.LoadConfig(globalFlags.ConfigPath)
			if err != nil {
				return err
			}
			if serverCommand != "" {
				cfg.Server.Command = serverCommand
			}
			if serverWorkDir != "" {
				cfg.Server.WorkDir = serverWorkDir
			}
			logger.Setup(cfg.LogLevel, cfg.LogColor)

			app, err := deskshell.New(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&serverCommand, "server-command", "", "server executable (overrides config)")
	cmd.Flags().StringVar(&serverWorkDir, "server-workdir", "", "server working directory (overrides config)")
	return cmd
}

// createPathsCommand creates the paths subcommand, printing resolution
// results for support and debugging.
func createPathsCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved browser and data-directory paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deskshell.LoadConfig(globalFlags.ConfigPath)
			if err != nil {
				return err
			}
			r := browser.NewResolver(nil)
			fmt.Println("candidates:")
			for _, c := range r.Candidates() {
				mark := " "
				if r.Exists(c) {
					mark = "*"
				}
				fmt.Printf("  %s %s\n", mark, c)
			}
			if path, ok := r.FindExecutable(); ok {
				fmt.Printf("executable: %s (family %s)\n", path, browser.DetectFamily(path))
			} else {
				fmt.Println("executable: not found")
			}
			fmt.Printf("chrome data dir: %s\n", r.UserDataDir(browser.FamilyChrome))
			fmt.Printf("edge data dir:   %s\n", r.UserDataDir(browser.FamilyEdge))
			fmt.Printf("output dir:      %s\n", cfg.OutputDir)
			return nil
		},
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deskshell version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("deskshell", version)
		},
	}
}
