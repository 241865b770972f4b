// kdat is the tooling front end for kerndata captures: inspect capture
// databases and snapshot files, export database runs to snapshots,
// compare runs, and drive a demo kernel through the instrumentation
// protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// #region root

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kdat",
	Short: "kerndata capture tooling",
	Long: `kdat works with the capture artifacts produced by the kerndata
instrumentation library: sqlite capture databases and JSON snapshot
files. It lists and exports recorded runs, compares runs under a
numeric tolerance, and can run a built-in demo kernel through the
full instrumentation protocol.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(inspectCmd, exportCmd, compareCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion root
