// Package logging provides a minimal logging interface and adapters for
// callbridge.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, transports and default handlers use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - BridgeLogger with contextual helpers (component, session, call)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.New(transport, func(o *engine.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
