// Package replay compares capture snapshots: a recomputed run against a
// recorded one, or two recorded runs against each other. Comparison is
// element-wise under a combined absolute and relative tolerance, with NaN
// treated as equal to NaN so a recorded NaN does not mask itself.
package replay

import (
	"fmt"
	"math"

	"kerndata/snapshot"
)

// #region tolerance

// Tolerance bounds the accepted difference per element: a and b match when
// |a-b| <= Abs + Rel*|b|, with b taken from the reference run.
type Tolerance struct {
	Abs float64
	Rel float64
}

// DefaultTolerance admits rounding noise from reordered float arithmetic.
func DefaultTolerance() Tolerance {
	return Tolerance{Abs: 1e-12, Rel: 1e-9}
}

// Within reports whether got matches want under the tolerance.
func (t Tolerance) Within(got, want float64) bool {
	if math.IsNaN(got) && math.IsNaN(want) {
		return true
	}
	return math.Abs(got-want) <= t.Abs+t.Rel*math.Abs(want)
}

// #endregion tolerance

// #region reports

// VarDiff is the comparison result for one variable pair.
type VarDiff struct {
	Name       string
	Index      int
	Elements   int
	Mismatched int

	// Worst offender, meaningful when Mismatched > 0.
	WorstElem int
	WorstGot  float64
	WorstWant float64
	WorstAbs  float64
}

// OK reports a clean comparison.
func (d VarDiff) OK() bool { return d.Mismatched == 0 }

// RegionReport is the comparison result for one region pair. Problems
// lists structural mismatches (differing names, kinds, shapes or counts)
// that made a variable pair incomparable.
type RegionReport struct {
	Module     string
	Region     string
	Seq        int
	Checked    int
	Mismatched int
	Diffs      []VarDiff
	Problems   []string
}

// OK reports a clean region.
func (r RegionReport) OK() bool { return r.Mismatched == 0 && len(r.Problems) == 0 }

// Report is the comparison result for a full run.
type Report struct {
	Regions    []RegionReport
	Checked    int
	Mismatched int
	Problems   int
}

// OK reports a clean run.
func (r Report) OK() bool { return r.Mismatched == 0 && r.Problems == 0 }

// #endregion reports

// #region compare

// CompareVars compares one variable pair element-wise. Elements past the
// shorter payload count as mismatched; CompareRegions screens out unequal
// lengths before calling this.
func CompareVars(got, want snapshot.VarRecord, tol Tolerance) VarDiff {
	d := VarDiff{Name: want.Name, Index: want.Index, Elements: len(want.Data)}
	if len(got.Data) < len(want.Data) {
		d.Mismatched += len(want.Data) - len(got.Data)
	}
	for i, w := range want.Data {
		if i >= len(got.Data) {
			break
		}
		g := got.Data[i]
		if tol.Within(g, w) {
			continue
		}
		d.Mismatched++
		abs := math.Abs(g - w)
		if math.IsNaN(abs) {
			abs = math.Inf(1)
		}
		if d.Mismatched == 1 || abs > d.WorstAbs {
			d.WorstElem = i
			d.WorstGot = g
			d.WorstWant = w
			d.WorstAbs = abs
		}
	}
	return d
}

func pairable(got, want snapshot.VarRecord) error {
	if got.Name != want.Name {
		return fmt.Errorf("variable %d: name %q, want %q", want.Index, got.Name, want.Name)
	}
	if got.Kind != want.Kind {
		return fmt.Errorf("variable %q: kind %s, want %s", want.Name, got.Kind, want.Kind)
	}
	if len(got.Data) != len(want.Data) {
		return fmt.Errorf("variable %q: %d elements, want %d", want.Name, len(got.Data), len(want.Data))
	}
	return nil
}

func compareSet(rep *RegionReport, phase string, got, want []snapshot.VarRecord, tol Tolerance) {
	if len(got) != len(want) {
		rep.Problems = append(rep.Problems,
			fmt.Sprintf("%s set: %d variables, want %d", phase, len(got), len(want)))
		return
	}
	for i := range want {
		if err := pairable(got[i], want[i]); err != nil {
			rep.Problems = append(rep.Problems, fmt.Sprintf("%s %v", phase, err))
			continue
		}
		d := CompareVars(got[i], want[i], tol)
		rep.Checked++
		if !d.OK() {
			rep.Mismatched++
			rep.Diffs = append(rep.Diffs, d)
		}
	}
}

// CompareRegions compares one region pair; variables are paired by
// position within the pre and post sets.
func CompareRegions(got, want snapshot.RegionRecord, tol Tolerance) RegionReport {
	rep := RegionReport{Module: want.Module, Region: want.Region, Seq: want.Seq}
	if got.Module != want.Module || got.Region != want.Region {
		rep.Problems = append(rep.Problems,
			fmt.Sprintf("region %s:%s, want %s:%s", got.Module, got.Region, want.Module, want.Region))
		return rep
	}
	compareSet(&rep, "pre", got.Pre, want.Pre, tol)
	compareSet(&rep, "post", got.Post, want.Post, tol)
	return rep
}

// CompareSnapshots compares two runs region by region, paired in
// activation order. Differing region counts are an error, not a report
// entry, since nothing sensible can be paired.
func CompareSnapshots(got, want *snapshot.Snapshot, tol Tolerance) (Report, error) {
	if len(got.Regions) != len(want.Regions) {
		return Report{}, fmt.Errorf("%d regions, want %d", len(got.Regions), len(want.Regions))
	}
	var rep Report
	for i := range want.Regions {
		rr := CompareRegions(got.Regions[i], want.Regions[i], tol)
		rep.Regions = append(rep.Regions, rr)
		rep.Checked += rr.Checked
		rep.Mismatched += rr.Mismatched
		rep.Problems += len(rr.Problems)
	}
	return rep, nil
}

// #endregion compare
