package replay

import (
	"math"
	"testing"

	"kerndata/capture"
	"kerndata/snapshot"
)

func TestToleranceWithin(t *testing.T) {
	tol := Tolerance{Abs: 1e-6, Rel: 1e-3}
	cases := []struct {
		got, want float64
		ok        bool
	}{
		{1.0, 1.0, true},
		{1.0 + 5e-7, 1.0, true},     // inside abs
		{1000.5, 1000.0, true},      // inside rel
		{1.01, 1.0, false},          // outside both
		{math.NaN(), math.NaN(), true},
		{math.NaN(), 1.0, false},
		{1.0, math.NaN(), false},
	}
	for _, c := range cases {
		if got := tol.Within(c.got, c.want); got != c.ok {
			t.Fatalf("Within(%v, %v) = %v, want %v", c.got, c.want, got, c.ok)
		}
	}
}

func rec(name string, index int, v capture.Value) snapshot.VarRecord {
	return snapshot.VarRecordOf(index, name, v)
}

func TestCompareVarsFindsWorst(t *testing.T) {
	want := rec("field", 1, capture.Float64Array([]float64{1, 2, 3, 4}, 4))
	got := rec("field", 1, capture.Float64Array([]float64{1, 2.5, 3, 14}, 4))

	d := CompareVars(got, want, Tolerance{})
	if d.Mismatched != 2 {
		t.Fatalf("mismatched = %d, want 2", d.Mismatched)
	}
	if d.WorstElem != 3 || d.WorstGot != 14 || d.WorstWant != 4 {
		t.Fatalf("unexpected worst offender: %+v", d)
	}
}

func TestCompareVarsNaNAgainstNumber(t *testing.T) {
	want := rec("x", 1, capture.Float64Scalar(1))
	got := rec("x", 1, capture.Float64Scalar(math.NaN()))

	d := CompareVars(got, want, DefaultTolerance())
	if d.OK() {
		t.Fatal("NaN against a number should mismatch")
	}
	if !math.IsInf(d.WorstAbs, 1) {
		t.Fatalf("WorstAbs = %v, want +Inf", d.WorstAbs)
	}
}

func region(postVal float64) snapshot.RegionRecord {
	return snapshot.RegionRecord{
		Seq: 0, Module: "modA", Region: "region1",
		Pre: []snapshot.VarRecord{
			rec("field", 1, capture.Float64Array([]float64{1, 2}, 2)),
		},
		Post: []snapshot.VarRecord{
			rec("field", 1, capture.Float64Array([]float64{postVal, 2}, 2)),
		},
	}
}

func TestCompareRegionsClean(t *testing.T) {
	rep := CompareRegions(region(5), region(5), DefaultTolerance())
	if !rep.OK() || rep.Checked != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestCompareRegionsMismatch(t *testing.T) {
	rep := CompareRegions(region(5), region(6), DefaultTolerance())
	if rep.OK() || rep.Mismatched != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(rep.Diffs) != 1 || rep.Diffs[0].Name != "field" {
		t.Fatalf("unexpected diffs: %+v", rep.Diffs)
	}
}

func TestCompareRegionsStructuralProblems(t *testing.T) {
	want := region(5)

	got := region(5)
	got.Pre[0].Name = "other"
	rep := CompareRegions(got, want, DefaultTolerance())
	if len(rep.Problems) != 1 {
		t.Fatalf("expected one name problem, got %+v", rep.Problems)
	}

	got = region(5)
	got.Post = nil
	rep = CompareRegions(got, want, DefaultTolerance())
	if len(rep.Problems) != 1 {
		t.Fatalf("expected one set-size problem, got %+v", rep.Problems)
	}

	got = region(5)
	got.Region = "region2"
	rep = CompareRegions(got, want, DefaultTolerance())
	if len(rep.Problems) != 1 || rep.Checked != 0 {
		t.Fatalf("expected one descriptor problem, got %+v", rep)
	}
}

func TestCompareSnapshots(t *testing.T) {
	mk := func(vals ...float64) *snapshot.Snapshot {
		s := &snapshot.Snapshot{RunID: "r"}
		for i, v := range vals {
			r := region(v)
			r.Seq = i
			s.Regions = append(s.Regions, r)
		}
		return s
	}

	rep, err := CompareSnapshots(mk(1, 2), mk(1, 2), DefaultTolerance())
	if err != nil {
		t.Fatalf("CompareSnapshots: %v", err)
	}
	if !rep.OK() || rep.Checked != 4 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	rep, err = CompareSnapshots(mk(1, 2), mk(1, 3), DefaultTolerance())
	if err != nil {
		t.Fatalf("CompareSnapshots: %v", err)
	}
	if rep.OK() || rep.Mismatched != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	if _, err := CompareSnapshots(mk(1), mk(1, 2), DefaultTolerance()); err == nil {
		t.Fatal("expected error for differing region counts")
	}
}
