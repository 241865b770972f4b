package capture

import "testing"

func TestGateDefaultsEnabled(t *testing.T) {
	g := NewGate()
	if !g.Enabled() {
		t.Fatal("new gate should be enabled")
	}
}

func TestGateStartStopIdempotent(t *testing.T) {
	g := NewGate()

	g.Stop()
	g.Stop()
	if g.Enabled() {
		t.Fatal("gate should be disabled after Stop")
	}

	g.Start()
	g.Start()
	if !g.Enabled() {
		t.Fatal("gate should be enabled after Start")
	}
}

func TestGateSharedAcrossHandlers(t *testing.T) {
	g := NewGate()
	a := NewBaseWith(g, NewDiagnosticsWith(nil))
	b := NewBaseWith(g, NewDiagnosticsWith(nil))

	g.Stop()
	if a.Enabled() || b.Enabled() {
		t.Fatal("both handlers should observe the stopped gate")
	}
	g.Start()
	if !a.Enabled() || !b.Enabled() {
		t.Fatal("both handlers should observe the started gate")
	}
}
