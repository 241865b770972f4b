package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kerndata/internal/store"
)

// #region export

var (
	exportDB  string
	exportRun string
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a capture database run to a snapshot JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportDB == "" || exportOut == "" {
			return fmt.Errorf("--db and --out are required")
		}

		st, err := store.NewStore(exportDB)
		if err != nil {
			return err
		}
		defer st.Close()

		runID := exportRun
		if runID == "" {
			runID, err = st.LatestRunID()
			if err != nil {
				return err
			}
		}

		snap, err := st.LoadRun(runID)
		if err != nil {
			return err
		}
		if err := snap.WriteFile(exportOut); err != nil {
			return err
		}

		logger.Info("exported run",
			zap.String("run", runID), zap.Int("regions", len(snap.Regions)), zap.String("out", exportOut))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "capture database path")
	exportCmd.Flags().StringVar(&exportRun, "run", "", "run id (default: most recent)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output snapshot path")
}

// #endregion export
