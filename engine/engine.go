package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/history"
	"github.com/callbridge/callbridge/logging"
)

// entry is one registered handler: the operation name it answers to, an
// optional expected argument count and the callback capability.
type entry struct {
	name    string
	arity   *int // nil disables validation
	handler core.Handler
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil to ensure no logging dependencies.
	Logger logging.Logger

	// History records one entry per dispatched call for later inspection.
	// Nil disables recording. Recording is best-effort: a failing store
	// never fails a dispatch.
	History history.Store
}

// Engine is the single-session dispatch engine. It owns the handler
// registry, runs the blocking receive loop and converts handler outcomes
// into protocol responses.
//
// Concurrency model: the loop is a single goroutine; no handler runs in
// parallel with another and the registry is effectively read-only while
// Running. The lifecycle state and the pending-shutdown flag use atomics so
// they can be observed safely from other goroutines (tests, transports),
// but all mutation of the registry must happen before Start.
type Engine struct {
	transport core.Transport
	logger    logging.Logger
	history   history.Store

	handlers map[string]entry

	state    atomic.Int32
	shutdown atomic.Bool
}

// New creates an Engine bound to the given session transport. The engine is
// in the Created state: register handlers, then call Start.
//
// Example:
//
//	eng := engine.New(transport, func(o *engine.Options) {
//	    o.Logger = logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	})
//	eng.RegisterFunc("ping", engine.Arity(0), func(*core.MessageContext) (string, error) {
//	    return "pong", nil
//	})
//	eng.Start()
func New(transport core.Transport, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Engine{
		transport: transport,
		logger:    opts.Logger,
		history:   opts.History,
		handlers:  make(map[string]entry),
	}
}

// Arity is a convenience for building the optional expected-argument-count
// pointer at registration sites. Pass nil to Register to skip validation.
func Arity(n int) *int { return &n }

// Register inserts or replaces the handler for the given operation name and
// returns the engine to permit chaining. An arity of nil disables argument
// count validation; the handler must then validate shape itself.
//
// Registration is only valid before Start: the registry is not designed for
// concurrent mutation during dispatch, so attempts to register on a running
// or stopped engine are logged and ignored.
func (e *Engine) Register(name string, arity *int, h core.Handler) *Engine {
	if s := e.State(); s != StateCreated {
		e.logger.Error("engine.register.invalid_state", "operation", name, "state", s.String())
		return e
	}

	e.handlers[name] = entry{name: name, arity: arity, handler: h}

	e.logger.Debug("engine.register", "operation", name, "arity_checked", arity != nil)

	return e
}

// RegisterFunc registers a plain function as the handler for name.
func (e *Engine) RegisterFunc(name string, arity *int, fn core.HandlerFunc) *Engine {
	return e.Register(name, arity, fn)
}

// Handler reports whether an operation is registered. Exposed for
// introspection and transports that advertise the operation set.
func (e *Engine) Handler(name string) bool {
	_, ok := e.handlers[name]
	return ok
}

// Operations returns the sorted names of all registered operations.
func (e *Engine) Operations() []string {
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// ShutdownPending reports whether a cooperative shutdown has been requested
// but the loop has not yet exited.
func (e *Engine) ShutdownPending() bool {
	return e.shutdown.Load()
}

// requestShutdown sets the pending-shutdown flag observed by the loop after
// the current invocation returns. Handed to each MessageContext; the
// in-flight handler is never aborted.
func (e *Engine) requestShutdown() {
	e.shutdown.Store(true)
	if e.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		e.logger.Info("engine.shutdown.requested")
	}
}

// Start transitions the engine to Running and blocks in the dispatch loop
// until a handler requests shutdown or the session is torn down. The
// shutting-down call's response is still delivered before Start returns.
//
// Start returns an error only when the engine is not in the Created state;
// an Engine instance is single-use and cannot be restarted.
func (e *Engine) Start() error {
	if !e.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("engine not startable in state %s", e.State())
	}

	e.logger.Info("engine.start", "operations", len(e.handlers))

	for {
		call, err := e.transport.ReceiveNext()
		if err != nil {
			if errors.Is(err, core.ErrSessionClosed) {
				e.logger.Info("engine.session.closed")
			} else {
				e.logger.Error("engine.receive.failed", "error", err.Error())
			}
			// Implicit shutdown: the session is gone, nothing left to serve.
			e.shutdown.Store(true)
			e.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown))
			break
		}

		resp := e.Dispatch(call)

		if err := e.transport.SendResponse(resp); err != nil {
			e.logger.Error("engine.respond.failed", "call_id", call.ID, "error", err.Error())
			e.shutdown.Store(true)
			e.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown))
			break
		}

		if e.shutdown.Load() {
			break
		}
	}

	e.state.Store(int32(StateStopped))
	e.logger.Info("engine.stopped")

	return nil
}
