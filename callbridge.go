// Package callbridge provides a high-level façade over the dispatch engine
// and its collaborators (transports, default handlers, call history and
// logging), streamlining the handling of backend requests issued by a
// sandboxed webview frontend. Most applications interact with this package
// by:
//  1. Creating a Bridge via New() around a session transport
//  2. Registering the default operation set and/or custom handlers
//  3. Calling Start(), which blocks until a handler requests shutdown or
//     the session is torn down
//
// The façade delegates dispatch to engine.Engine while keeping setup and
// usage ergonomics concise: registration methods return the Bridge so calls
// can be chained. All defaults are safe for local development and testing;
// production deployments typically supply a structured logger and a durable
// history store.
package callbridge

import (
	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/defaults"
	"github.com/callbridge/callbridge/engine"
	"github.com/callbridge/callbridge/history"
	"github.com/callbridge/callbridge/logging"
)

// Options configures the Bridge instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// History records dispatched calls; nil disables recording.
	History history.Store
}

// Arity is a convenience re-export for registration sites.
func Arity(n int) *int { return engine.Arity(n) }

// Bridge is the high-level façade aggregating the dispatch engine and its
// session transport.
type Bridge struct {
	opts   Options
	engine *engine.Engine
}

// New creates a Bridge around the given session transport with optional
// overrides.
func New(transport core.Transport, optFns ...func(o *Options)) *Bridge {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng := engine.New(transport, func(o *engine.Options) {
		o.Logger = opts.Logger
		o.History = opts.History
	})

	return &Bridge{opts: opts, engine: eng}
}

// Register adds a handler for the named operation; chainable. A nil arity
// disables argument count validation.
func (b *Bridge) Register(name string, arity *int, h core.Handler) *Bridge {
	b.engine.Register(name, arity, h)
	return b
}

// RegisterFunc registers a plain function as a handler; chainable.
func (b *Bridge) RegisterFunc(name string, arity *int, fn core.HandlerFunc) *Bridge {
	b.engine.RegisterFunc(name, arity, fn)
	return b
}

// RegisterDefaults registers the built-in operation set (file access,
// checksums, archive extraction, HTTP fetches, directory listings and
// session control); chainable. The engine treats these identically to
// user-registered handlers.
func (b *Bridge) RegisterDefaults(optFns ...func(o *defaults.Options)) *Bridge {
	defaults.Register(b.engine, optFns...)
	return b
}

// Start runs the blocking dispatch loop until a handler requests shutdown
// or the session transport is torn down.
func (b *Bridge) Start() error { return b.engine.Start() }

// Dispatch runs a single call through the invocation pipeline without the
// receive loop. Must not be called concurrently with Start.
func (b *Bridge) Dispatch(call core.Call) core.Response { return b.engine.Dispatch(call) }

// State returns the engine lifecycle state.
func (b *Bridge) State() engine.State { return b.engine.State() }

// Engine exposes the underlying dispatch engine for advanced wiring (e.g.
// advertising Operations through a transport).
func (b *Bridge) Engine() *engine.Engine { return b.engine }
