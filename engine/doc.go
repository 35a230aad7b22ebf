// Package engine implements the dispatch engine at the heart of callbridge:
// the handler registry, the request-validation and invocation pipeline, and
// the run/shutdown lifecycle state machine.
//
// An Engine owns exactly one session transport and processes calls strictly
// one at a time on a single loop: it blocks for the next inbound call,
// dispatches it through the registered handler, hands the terminal response
// back to the transport and only then reads the next call. This guarantees
// per-session response ordering and at most one executing handler body at
// any instant.
//
// Shutdown is cooperative and deferred: a handler requests it through its
// MessageContext, the in-flight invocation completes, its response is sent,
// and the loop exits. A torn-down transport (ErrSessionClosed or any
// receive failure) is treated as an implicit shutdown so Start never blocks
// forever.
package engine
