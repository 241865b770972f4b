package capture

// #region gate

// Gate is the shared capture on/off switch. All Base instances created
// with the same Gate observe the same state, which gives the usual
// process-wide kill-switch behavior when every instance uses DefaultGate.
// Not safe for concurrent use; see the package comment.
type Gate struct {
	disabled bool
}

// NewGate returns a gate in the enabled state.
func NewGate() *Gate { return &Gate{} }

// Start enables capture. Idempotent.
func (g *Gate) Start() { g.disabled = false }

// Stop disables capture. Idempotent. While stopped, protocol calls keep
// their index bookkeeping but emit no diagnostics and backends record
// nothing.
func (g *Gate) Stop() { g.disabled = true }

// Enabled reports the gate state.
func (g *Gate) Enabled() bool { return !g.disabled }

// DefaultGate is the gate used by handlers that are not given their own.
var DefaultGate = NewGate()

// Start enables capture on DefaultGate.
func Start() { DefaultGate.Start() }

// Stop disables capture on DefaultGate.
func Stop() { DefaultGate.Stop() }

// #endregion gate
