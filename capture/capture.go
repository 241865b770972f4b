// Package capture implements the region-instrumentation protocol that
// generated kernel wrappers call around computational regions. A caller
// drives one full pass per region activation:
//
//	PreStart -> Declare* -> PreEndDeclaration -> PreEnd ->
//	   [region executes] -> PostStart -> Provide* -> PostEnd
//
// Base is the default handler (bookkeeping and verbosity-gated console
// diagnostics); capture backends embed it and override the hooks they
// need. Calling the operations out of order is not detected or rejected.
//
// The protocol is synchronous and not thread-safe: the gate and any
// backend accumulators are shared mutable state with no locking.
// Instrumenting overlapping regions from several goroutines needs a
// synchronization layer the backends here do not provide.
package capture

import (
	"fmt"

	"go.uber.org/multierr"
)

// #region handler

// Handler is one region-instrumentation backend. The operations mirror the
// generated call sequence in the package comment.
type Handler interface {
	// PreStart opens a pass over the named region. numPre and numPost are
	// advisory counts of the Declare and Provide calls to follow.
	PreStart(module, region string, numPre, numPost int)
	// Declare registers a pre-region variable.
	Declare(name string, v Value)
	// PreEndDeclaration closes the declaration phase.
	PreEndDeclaration()
	// PreEnd hands control to the instrumented region.
	PreEnd()
	// PostStart resumes instrumentation after the region ran.
	PostStart()
	// Provide hands a post-region value to the backend.
	Provide(name string, v Value)
	// PostEnd closes the pass.
	PostEnd()
	// Abort reports an irrecoverable condition and terminates the process.
	Abort(msg string)
}

// Initializer is implemented by backends needing one-time setup before any
// region runs. Call it at most once per process.
type Initializer interface {
	Init() error
}

// Finalizer is implemented by backends holding resources to flush or close
// after the last region. Call it at most once per process.
type Finalizer interface {
	Shutdown() error
}

// Init runs the Init hook of every handler that has one, in order, and
// combines the failures.
func Init(handlers ...Handler) error {
	var err error
	for _, h := range handlers {
		if ini, ok := h.(Initializer); ok {
			err = multierr.Append(err, ini.Init())
		}
	}
	return err
}

// Shutdown runs the Shutdown hook of every handler that has one, in order,
// and combines the failures.
func Shutdown(handlers ...Handler) error {
	var err error
	for _, h := range handlers {
		if fin, ok := h.(Finalizer); ok {
			err = multierr.Append(err, fin.Shutdown())
		}
	}
	return err
}

// #endregion handler

// #region convenience-dispatch

// DeclareVariable wraps a native Go value and declares it on h. Callers
// that know the concrete kind and rank use h.Declare with a Value
// constructor directly; this entry point exists for generated code that
// dispatches on the source type. Unsupported types abort.
func DeclareVariable(h Handler, name string, x any) {
	v, ok := Of(x)
	if !ok {
		h.Abort(fmt.Sprintf("declare %q: unsupported value type %T", name, x))
		return
	}
	h.Declare(name, v)
}

// ProvideVariable wraps a native Go value and provides it on h. The
// bookkeeping is exactly that of h.Provide.
func ProvideVariable(h Handler, name string, x any) {
	v, ok := Of(x)
	if !ok {
		h.Abort(fmt.Sprintf("provide %q: unsupported value type %T", name, x))
		return
	}
	h.Provide(name, v)
}

// #endregion convenience-dispatch
