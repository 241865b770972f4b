package rangecheck

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"kerndata/capture"
)

func newTestBackend(t *testing.T, rules *Rules) (*Backend, *observer.ObservedLogs, *capture.Gate) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	gate := capture.NewGate()
	diag := capture.NewDiagnosticsWith(core, zap.WithFatalHook(zapcore.WriteThenPanic))
	return NewWith(rules, capture.NewBaseWith(gate, diag)), logs, gate
}

func float64p(x float64) *float64 { return &x }

func expectAbort(t *testing.T, logs *observer.ObservedLogs, wantInMessage string, f func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected abort")
		}
		all := logs.All()
		last := all[len(all)-1]
		if last.Level != zapcore.FatalLevel || !strings.Contains(last.Message, wantInMessage) {
			t.Fatalf("abort line %q does not mention %q", last.Message, wantInMessage)
		}
	}()
	f()
}

func TestNaNAborts(t *testing.T) {
	b, logs, _ := newTestBackend(t, nil)
	b.PreStart("modA", "region1", 1, 0)

	expectAbort(t, logs, "NaN", func() {
		b.Declare("field", capture.Float64Array([]float64{1, math.NaN(), 3}, 3))
	})
}

func TestAllowNaNRule(t *testing.T) {
	rules := &Rules{Checks: []Rule{{Name: "field", AllowNaN: true}}}
	b, _, _ := newTestBackend(t, rules)
	b.PreStart("modA", "region1", 1, 0)

	b.Declare("field", capture.Float64Array([]float64{1, math.NaN()}, 2))
	if b.LastIndex() != 1 {
		t.Fatalf("index = %d, want 1", b.LastIndex())
	}
}

func TestBelowMinimumAborts(t *testing.T) {
	rules := &Rules{Checks: []Rule{{Name: "field", Min: float64p(0)}}}
	b, logs, _ := newTestBackend(t, rules)
	b.PreStart("modA", "region1", 0, 1)
	b.PreEndDeclaration()
	b.PreEnd()
	b.PostStart()

	expectAbort(t, logs, "below minimum", func() {
		b.Provide("field", capture.Float64Array([]float64{0.5, -0.5}, 2))
	})
}

func TestAboveMaximumAborts(t *testing.T) {
	rules := &Rules{Checks: []Rule{{Module: "modA", Name: "dt", Max: float64p(1)}}}
	b, logs, _ := newTestBackend(t, rules)
	b.PreStart("modA", "region1", 1, 0)

	expectAbort(t, logs, "above maximum", func() {
		b.Declare("dt", capture.Float64Scalar(2.5))
	})
}

func TestRuleScoping(t *testing.T) {
	// A rule scoped to another region must not fire here.
	rules := &Rules{Checks: []Rule{{Region: "region2", Name: "dt", Max: float64p(1)}}}
	b, _, _ := newTestBackend(t, rules)
	b.PreStart("modA", "region1", 1, 0)

	b.Declare("dt", capture.Float64Scalar(2.5))
}

func TestIntegerBounds(t *testing.T) {
	rules := &Rules{Checks: []Rule{{Name: "step", Min: float64p(0)}}}
	b, logs, _ := newTestBackend(t, rules)
	b.PreStart("modA", "region1", 1, 0)

	expectAbort(t, logs, "below minimum", func() {
		b.Declare("step", capture.Int32Scalar(-1))
	})
}

func TestDisabledSkipsChecks(t *testing.T) {
	b, logs, gate := newTestBackend(t, nil)
	gate.Stop()
	b.PreStart("modA", "region1", 1, 0)

	b.Declare("field", capture.Float64Array([]float64{math.NaN()}, 1))
	if b.LastIndex() != 1 {
		t.Fatalf("index = %d, want 1", b.LastIndex())
	}
	if logs.Len() != 0 {
		t.Fatalf("disabled backend produced %d lines", logs.Len())
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `check_nan: true
checks:
  - name: field
    min: -1.0
    max: 1.0
  - module: demo_kernels
    name: step
    allow_nan: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules.Checks) != 2 {
		t.Fatalf("got %d checks, want 2", len(rules.Checks))
	}
	first := rules.Checks[0]
	if first.Name != "field" || first.Min == nil || *first.Min != -1 || first.Max == nil || *first.Max != 1 {
		t.Fatalf("unexpected first rule: %+v", first)
	}
	if !rules.checkNaN() {
		t.Fatal("check_nan should be true")
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
