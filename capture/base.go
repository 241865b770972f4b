package capture

import (
	"os"
	"strconv"
)

// #region verbosity

// Verbosity levels, read from the environment at every PreStart.
const (
	VerbositySilent    = 0 // nothing
	VerbosityRegions   = 1 // region enter/exit only
	VerbosityVariables = 2 // regions plus one line per declared variable
)

// VerbosityEnv is the environment variable holding the verbosity level.
const VerbosityEnv = "KERNDATA_VERBOSE"

func parseVerbosity(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < VerbositySilent || n > VerbosityVariables {
		return VerbositySilent, false
	}
	return n, true
}

// #endregion verbosity

// #region phase

// Phase is where in the region lifecycle a handler currently is. The base
// tracks it for embedding backends but never rejects out-of-order calls;
// honoring the call sequence is the caller's side of the contract.
type Phase uint8

const (
	PhaseIdle     Phase = iota // before PreStart / after PostEnd
	PhasePre                   // declarations running
	PhaseDeclared              // after PreEndDeclaration
	PhaseRegion                // the instrumented region executes
	PhasePost                  // provides running
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePre:
		return "pre"
	case PhaseDeclared:
		return "declared"
	case PhaseRegion:
		return "region"
	case PhasePost:
		return "post"
	}
	return "unknown"
}

// #endregion phase

// #region base

// NameCap is the longest module or region name kept; longer names are
// truncated at PreStart.
const NameCap = 512

// Base is the default Handler: index bookkeeping, the region descriptor,
// verbosity-gated diagnostics and the fatal abort path. It records no
// values; backends embed it and extend the hooks they need.
type Base struct {
	module  string
	region  string
	numPre  int
	numPost int

	index     int
	last      int
	verbosity int
	phase     Phase

	gate *Gate
	diag *Diagnostics
}

// NewBase returns a Base wired to DefaultGate and DefaultDiagnostics.
func NewBase() *Base {
	return NewBaseWith(DefaultGate, DefaultDiagnostics)
}

// NewBaseWith returns a Base using an explicit gate and diagnostic stream.
// Nil arguments fall back to the package defaults.
func NewBaseWith(gate *Gate, diag *Diagnostics) *Base {
	if gate == nil {
		gate = DefaultGate
	}
	if diag == nil {
		diag = DefaultDiagnostics
	}
	return &Base{gate: gate, diag: diag}
}

func clampName(s string) string {
	if len(s) > NameCap {
		return s[:NameCap]
	}
	return s
}

// #endregion base

// #region base-accessors

// ModuleName returns the enclosing-unit name of the current region.
func (b *Base) ModuleName() string { return b.module }

// RegionName returns the name of the current region.
func (b *Base) RegionName() string { return b.region }

// NumPreVars returns the advisory pre-region variable count from PreStart.
func (b *Base) NumPreVars() int { return b.numPre }

// NumPostVars returns the advisory post-region variable count from PreStart.
func (b *Base) NumPostVars() int { return b.numPost }

// Verbosity returns the level read at the last PreStart.
func (b *Base) Verbosity() int { return b.verbosity }

// Phase returns the current lifecycle phase.
func (b *Base) Phase() Phase { return b.phase }

// Enabled reports the shared gate state.
func (b *Base) Enabled() bool { return b.gate.Enabled() }

// Diagnostics returns the stream this handler writes to.
func (b *Base) Diagnostics() *Diagnostics { return b.diag }

// NextIndex assigns and returns the index for the current declare or
// provide call, then advances the counter. Declare and Provide call this;
// backends replacing those hooks entirely use it directly.
func (b *Base) NextIndex() int {
	i := b.index
	b.index++
	b.last = i
	return i
}

// LastIndex returns the index assigned by the most recent Declare or
// Provide call on this handler.
func (b *Base) LastIndex() int { return b.last }

// ResetIndex restarts variable numbering at 1. Backends that keep separate
// pre and post index spaces call this from PostStart.
func (b *Base) ResetIndex() { b.index = 1 }

// #endregion base-accessors

// #region lifecycle

// PreStart opens an instrumentation pass over one region. The descriptor is
// stored (names truncated at NameCap), the variable index restarts at 1 and
// the verbosity is read fresh from the environment. numPre and numPost are
// advisory counts for backends that pre-size storage; the base does not
// check them against the calls that follow.
func (b *Base) PreStart(module, region string, numPre, numPost int) {
	b.module = clampName(module)
	b.region = clampName(region)
	b.numPre = numPre
	b.numPost = numPost
	b.index = 1
	b.last = 0
	b.phase = PhasePre
	b.verbosity = b.readVerbosity()
	if b.gate.Enabled() && b.verbosity >= VerbosityRegions {
		b.diag.Infof("entering region %s:%s", b.module, b.region)
	}
}

func (b *Base) readVerbosity() int {
	raw, ok := os.LookupEnv(VerbosityEnv)
	if !ok {
		return VerbositySilent
	}
	v, valid := parseVerbosity(raw)
	if !valid && b.gate.Enabled() {
		b.diag.Warnf("invalid %s value %q, falling back to 0", VerbosityEnv, raw)
	}
	return v
}

// Declare registers one pre-region variable. The index for the call is
// assigned before the counter advances. With the gate stopped only the
// bookkeeping runs; otherwise a per-variable line is emitted at verbosity 2.
// The base keeps no reference to the value.
func (b *Base) Declare(name string, v Value) {
	idx := b.NextIndex()
	if !b.gate.Enabled() {
		return
	}
	if b.verbosity >= VerbosityVariables {
		b.diag.Debugf("declare %s:%s variable %d %q %s", b.module, b.region, idx, name, v.TypeString())
	}
}

// PreEndDeclaration closes the declaration phase and restarts variable
// numbering at 1 for the provide calls that follow.
func (b *Base) PreEndDeclaration() {
	b.index = 1
	b.phase = PhaseDeclared
}

// PreEnd marks the hand-off to the instrumented region. The base does
// nothing here; a timing backend starts its clock in this hook.
func (b *Base) PreEnd() {
	b.phase = PhaseRegion
}

// PostStart marks the return from the instrumented region. The base keeps
// the running index; backends wanting a separate post-region index space
// call ResetIndex here.
func (b *Base) PostStart() {
	b.phase = PhasePost
}

// Provide hands one value to the instrumentation layer. The base only
// advances the index; it emits nothing at any verbosity and keeps no
// reference to the value. Capture backends override this hook.
func (b *Base) Provide(name string, v Value) {
	b.NextIndex()
}

// PostEnd closes the instrumentation pass.
func (b *Base) PostEnd() {
	if b.gate.Enabled() && b.verbosity >= VerbosityRegions {
		b.diag.Infof("leaving region %s:%s", b.module, b.region)
	}
	b.phase = PhaseIdle
}

// Abort emits one error line and terminates the process with a non-zero
// status. It never returns. Callable from any phase: a detected
// inconsistency in captured data means nothing downstream can be trusted,
// so there is no recoverable form.
func (b *Base) Abort(msg string) {
	b.diag.Fatalf("abort in region %s:%s: %s", b.module, b.region, msg)
}

// #endregion lifecycle
