// Package history records one entry per dispatched call for later
// inspection: the call id, operation, outcome classification and timing.
//
// The Store interface is consumed by the engine when configured through
// engine.Options.History. Two implementations are provided: a bounded
// in-memory store suited to tests and short-lived sessions, and a SQLite
// backed store for deployments that want dispatch history to survive
// restarts. Recording is best-effort by contract; the engine never fails a
// dispatch because a store failed.
package history
