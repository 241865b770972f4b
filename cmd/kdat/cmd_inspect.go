package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kerndata/internal/store"
	"kerndata/snapshot"
)

// #region inspect

var (
	inspectDB      string
	inspectFile    string
	inspectRun     string
	inspectLast    int
	inspectJSON    bool
	inspectDetails bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List runs and regions of a capture database or snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case inspectDB != "" && inspectFile == "":
			return inspectDatabase(inspectDB)
		case inspectFile != "" && inspectDB == "":
			snap, err := snapshot.Load(inspectFile)
			if err != nil {
				return err
			}
			return printSnapshot(snap)
		default:
			return fmt.Errorf("exactly one of --db or --snapshot is required")
		}
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", "", "capture database path")
	inspectCmd.Flags().StringVar(&inspectFile, "snapshot", "", "snapshot JSON path")
	inspectCmd.Flags().StringVar(&inspectRun, "run", "", "show one run of the database in full")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "number of runs to list")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of a table")
	inspectCmd.Flags().BoolVar(&inspectDetails, "vars", false, "list variables per region")
}

func inspectDatabase(path string) error {
	st, err := store.NewStore(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if inspectRun != "" {
		snap, err := st.LoadRun(inspectRun)
		if err != nil {
			return err
		}
		return printSnapshot(snap)
	}

	runs, err := st.ListRuns(inspectLast)
	if err != nil {
		return err
	}
	if inspectJSON {
		return writeJSON(runs)
	}
	fmt.Printf("%-38s %-22s %8s  %s\n", "RUN", "CREATED", "REGIONS", "LABEL")
	for _, r := range runs {
		fmt.Printf("%-38s %-22s %8d  %s\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Regions, r.Label)
	}
	return nil
}

func printSnapshot(snap *snapshot.Snapshot) error {
	if inspectJSON {
		return writeJSON(snap)
	}
	fmt.Printf("run %s  created %s  label %q  regions %d\n",
		snap.RunID, snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Label, len(snap.Regions))
	for _, reg := range snap.Regions {
		fmt.Printf("  [%d] %s:%s  pre=%d post=%d\n",
			reg.Seq, reg.Module, reg.Region, len(reg.Pre), len(reg.Post))
		if !inspectDetails {
			continue
		}
		for _, phase := range []struct {
			name string
			vars []snapshot.VarRecord
		}{{"pre", reg.Pre}, {"post", reg.Post}} {
			for _, v := range phase.vars {
				fmt.Printf("      %-4s %2d %-20s %s  %d element(s)\n",
					phase.name, v.Index, v.Name, varType(v), len(v.Data))
			}
		}
	}
	return nil
}

func varType(v snapshot.VarRecord) string {
	if len(v.Dims) == 0 {
		return v.Kind
	}
	return fmt.Sprintf("%s%v", v.Kind, v.Dims)
}

func writeJSON(x any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(x)
}

// #endregion inspect
