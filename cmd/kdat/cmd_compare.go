package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kerndata/replay"
	"kerndata/snapshot"
)

// #region compare

var (
	compareAbs float64
	compareRel float64
)

var compareCmd = &cobra.Command{
	Use:   "compare <got.json> <want.json>",
	Short: "Compare two snapshot files under a numeric tolerance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		got, err := snapshot.Load(args[0])
		if err != nil {
			return err
		}
		want, err := snapshot.Load(args[1])
		if err != nil {
			return err
		}
		if len(got.Regions) != len(want.Regions) {
			return fmt.Errorf("%s has %d regions, %s has %d",
				args[0], len(got.Regions), args[1], len(want.Regions))
		}

		tol := replay.Tolerance{Abs: compareAbs, Rel: compareRel}

		// Regions are independent, so compare them concurrently.
		reports := make([]replay.RegionReport, len(want.Regions))
		var g errgroup.Group
		for i := range want.Regions {
			g.Go(func() error {
				reports[i] = replay.CompareRegions(got.Regions[i], want.Regions[i], tol)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var rep replay.Report
		rep.Regions = reports
		for _, rr := range reports {
			rep.Checked += rr.Checked
			rep.Mismatched += rr.Mismatched
			rep.Problems += len(rr.Problems)
		}

		printReport(rep)
		if !rep.OK() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	def := replay.DefaultTolerance()
	compareCmd.Flags().Float64Var(&compareAbs, "abs", def.Abs, "absolute tolerance")
	compareCmd.Flags().Float64Var(&compareRel, "rel", def.Rel, "relative tolerance")
}

func printReport(rep replay.Report) {
	for _, rr := range rep.Regions {
		if rr.OK() {
			continue
		}
		fmt.Printf("[%d] %s:%s  mismatched=%d\n", rr.Seq, rr.Module, rr.Region, rr.Mismatched)
		for _, p := range rr.Problems {
			fmt.Printf("    problem: %s\n", p)
		}
		for _, d := range rr.Diffs {
			fmt.Printf("    %2d %-20s %d/%d elements differ, worst at %d: %v vs %v\n",
				d.Index, d.Name, d.Mismatched, d.Elements, d.WorstElem, d.WorstGot, d.WorstWant)
		}
	}
	status := "OK"
	if !rep.OK() {
		status = "MISMATCH"
	}
	fmt.Printf("%s: %d region(s), %d variable(s) checked, %d mismatched, %d structural problem(s)\n",
		status, len(rep.Regions), rep.Checked, rep.Mismatched, rep.Problems)
}

// #endregion compare
