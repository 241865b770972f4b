package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kerndata/backend/extract"
	"kerndata/backend/rangecheck"
	"kerndata/backend/timing"
	"kerndata/capture"
)

// #region demo

var (
	demoBackend string
	demoOut     string
	demoDB      string
	demoRules   string
	demoSteps   int
	demoSize    int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a built-in smoothing kernel through the instrumentation protocol",
	Long: `demo drives a small 2-D smoothing kernel for a number of time steps,
with every step wrapped in the full instrumentation call sequence
(PreStart, Declare*, PreEndDeclaration, PreEnd, PostStart, Provide*,
PostEnd). Set ` + capture.VerbosityEnv + ` to 1 or 2 to see the
diagnostic stream of the console backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHandler()
		if err != nil {
			return err
		}
		if err := capture.Init(h); err != nil {
			return err
		}

		runDemoKernel(h, demoSize, demoSteps)

		return capture.Shutdown(h)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoBackend, "backend", "console",
		"backend: console, timing, extract-json, extract-db, rangecheck")
	demoCmd.Flags().StringVar(&demoOut, "out", "demo_capture.json", "snapshot path (extract-json)")
	demoCmd.Flags().StringVar(&demoDB, "db", "demo_capture.db", "capture database path (extract-db)")
	demoCmd.Flags().StringVar(&demoRules, "rules", "", "rules YAML path (rangecheck)")
	demoCmd.Flags().IntVar(&demoSteps, "steps", 5, "time steps to run")
	demoCmd.Flags().IntVar(&demoSize, "size", 16, "grid edge length")
}

func buildHandler() (capture.Handler, error) {
	switch demoBackend {
	case "console":
		return capture.NewBase(), nil
	case "timing":
		return timing.New(), nil
	case "extract-json":
		return extract.New(extract.NewJSONSink(demoOut, "demo")), nil
	case "extract-db":
		sink, err := extract.NewStoreSink(demoDB, "demo")
		if err != nil {
			return nil, err
		}
		return extract.New(sink), nil
	case "rangecheck":
		var rules *rangecheck.Rules
		if demoRules != "" {
			var err error
			rules, err = rangecheck.LoadRules(demoRules)
			if err != nil {
				return nil, err
			}
		}
		return rangecheck.New(rules), nil
	}
	return nil, fmt.Errorf("unknown backend %q", demoBackend)
}

// #endregion demo

// #region kernel

// runDemoKernel smooths an n-by-n grid for the given number of steps,
// wrapping each step in one full instrumentation pass. It is the in-repo
// stand-in for the generated wrapper code that normally drives a handler.
func runDemoKernel(h capture.Handler, n, steps int) {
	grid := make([]float64, n*n)
	grid[(n/2)*n+n/2] = 1000.0 // point source in the middle
	const dt = 0.25

	for step := 0; step < steps; step++ {
		h.PreStart("demo_kernels", "smooth_field", 3, 2)
		h.Declare("field", capture.Float64Array(grid, n, n))
		h.Declare("dt", capture.Float64Scalar(dt))
		h.Declare("step", capture.Int32Scalar(int32(step)))
		h.PreEndDeclaration()
		h.PreEnd()

		grid = smooth(grid, n, dt)

		h.PostStart()
		h.Provide("field", capture.Float64Array(grid, n, n))
		h.Provide("checksum", capture.Float64Scalar(sum(grid)))
		h.PostEnd()
	}
}

// smooth averages every interior cell with its four neighbors.
func smooth(in []float64, n int, dt float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	for i := 1; i < n-1; i++ {
		for j := 1; j < n-1; j++ {
			c := i*n + j
			lap := in[c-1] + in[c+1] + in[c-n] + in[c+n] - 4*in[c]
			out[c] = in[c] + dt*lap
		}
	}
	return out
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

// #endregion kernel
