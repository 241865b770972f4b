package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"kerndata/capture"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		RunID:     "run-1",
		Label:     "unit",
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Regions: []RegionRecord{
			{
				Seq: 0, Module: "modA", Region: "region1",
				Pre: []VarRecord{
					VarRecordOf(1, "x", capture.Float64Scalar(1.5)),
					VarRecordOf(2, "n", capture.Int32Scalar(5)),
				},
				Post: []VarRecord{
					VarRecordOf(1, "x", capture.Float64Scalar(2.5)),
				},
			},
			{
				Seq: 1, Module: "modA", Region: "region1",
				Pre: []VarRecord{
					VarRecordOf(1, "field", capture.Float32Array([]float32{1, 2, 3, 4}, 2, 2)),
				},
			},
		},
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	want := sampleSnapshot()

	if err := want.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestVarRecordRebuildsValue(t *testing.T) {
	orig := capture.Float32Array([]float32{1.5, -2, 0.25, 8}, 2, 2)
	rec := VarRecordOf(3, "field", orig)

	if rec.Index != 3 || rec.Kind != "float32" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	v, err := rec.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.Kind() != capture.Float32 || v.Rank() != 2 {
		t.Fatalf("rebuilt %s, want float32 rank 2", v.TypeString())
	}
	if diff := cmp.Diff(orig.Float32s(), v.Float32s()); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestVarRecordRejectsUnknownKind(t *testing.T) {
	rec := VarRecord{Name: "x", Kind: "complex128", Data: []float64{1}}
	if _, err := rec.Value(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestVarRecordRejectsBadScalar(t *testing.T) {
	rec := VarRecord{Name: "x", Kind: "float64", Data: []float64{1, 2}}
	if _, err := rec.Value(); err == nil {
		t.Fatal("expected error for multi-element scalar")
	}
}

func TestFindRegion(t *testing.T) {
	s := sampleSnapshot()

	first := s.FindRegion("modA", "region1", 0)
	if first == nil || first.Seq != 0 {
		t.Fatalf("occurrence 0: got %+v", first)
	}
	second := s.FindRegion("modA", "region1", 1)
	if second == nil || second.Seq != 1 {
		t.Fatalf("occurrence 1: got %+v", second)
	}
	if s.FindRegion("modA", "region1", 2) != nil {
		t.Fatal("occurrence 2 should be absent")
	}
	if s.FindRegion("modB", "region1", 0) != nil {
		t.Fatal("unknown module should be absent")
	}
}
