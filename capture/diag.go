package capture

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// #region diagnostics

// Diagnostics is the stream every human-readable message goes to: region
// enter/exit lines, per-variable detail, configuration warnings and abort
// errors. It always writes to stderr so instrumentation output can be
// separated from program results.
type Diagnostics struct {
	log *zap.SugaredLogger
}

// NewDiagnostics returns a stream writing console-encoded lines to the
// process stderr. The underlying core passes every level; verbosity
// filtering is done by the callers, since the level is re-read per region.
func NewDiagnostics() *Diagnostics {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = zapcore.OmitKey
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return &Diagnostics{log: zap.New(core).Sugar()}
}

// NewDiagnosticsWith builds a stream over an arbitrary core. Tests pass an
// observer core to count lines, together with
// zap.WithFatalHook(zapcore.WriteThenPanic) to make Abort recoverable.
func NewDiagnosticsWith(core zapcore.Core, opts ...zap.Option) *Diagnostics {
	return &Diagnostics{log: zap.New(core, opts...).Sugar()}
}

// Infof emits a region-level line.
func (d *Diagnostics) Infof(format string, args ...any) { d.log.Infof(format, args...) }

// Debugf emits a per-variable line.
func (d *Diagnostics) Debugf(format string, args ...any) { d.log.Debugf(format, args...) }

// Warnf emits a recoverable-problem line.
func (d *Diagnostics) Warnf(format string, args ...any) { d.log.Warnf(format, args...) }

// Fatalf emits one error line and terminates the process with a non-zero
// status (or runs the configured fatal hook).
func (d *Diagnostics) Fatalf(format string, args ...any) { d.log.Fatalf(format, args...) }

// Sync flushes the underlying sink.
func (d *Diagnostics) Sync() error { return d.log.Sync() }

// DefaultDiagnostics is the stream used by handlers not given their own.
var DefaultDiagnostics = NewDiagnostics()

// #endregion diagnostics
