package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/tracekit/cmd/tracekit/commands"
	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tracekit",
	Short: "tracekit - trace-link datasets and retrieval metrics",
	Long: `tracekit builds trace-link datasets from layered software artifacts,
augments and splits them, and scores link predictions with
classification and ranking metrics.

Available commands:
  am      - Manage tracekit configuration ("I am")
  build   - Build a dataset from a project file
  split   - Build, augment and split a project into train/val/eval
  eval    - Evaluate prediction scores against a project
  version - Show build information

Examples:
  tracekit am show                          # Show current configuration
  tracekit build project.yaml               # Dataset statistics
  tracekit split project.yaml -v            # Partition sizes with progress logs
  tracekit eval project.yaml -s scores.yaml # Metric report`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(jsonOutput, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default: cascade of system, user and project tracekit.toml)")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.SplitCmd)
	rootCmd.AddCommand(commands.EvalCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
