package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	apiFlags := &APIFlags{}
	registerFlags := &RegisterFlags{}
	activeFlags := &ActiveFlags{}

	root := &cobra.Command{
		Use:   "procward",
		Short: "Workspace worker-process supervisor",
		Long: "procward tracks the worker subprocess of each user workspace and\n" +
			"guarantees no worker outlives the supervising server: it reconciles a\n" +
			"durable registry against OS reality and reaps registered and\n" +
			"unregistered orphans.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "path to TOML config file")

	root.AddCommand(
		createServeCommand(globalFlags),
		createStatusCommand(apiFlags),
		createRegisterCommand(apiFlags, registerFlags),
		createUnregisterCommand(apiFlags, registerFlags),
		createReconcileCommand(apiFlags, activeFlags),
		createScanCommand(apiFlags, activeFlags),
		createClearCommand(apiFlags),
	)
	return root
}
