// Package core provides the foundational domain types and interfaces used by
// callbridge. It defines the core abstractions for:
//
//   - Calls (one frontend-initiated invocation of a named operation)
//   - Responses (the terminal accepted/rejected outcome of a call)
//   - Progress (out-of-band status updates tied to an in-flight call)
//   - Handlers (units of backend work invoked by the dispatch engine)
//   - MessageContext (the scoped per-invocation capability surface)
//   - Transport (the pluggable session boundary delivering calls and
//     accepting outbound responses)
//
// The package intentionally keeps implementation concerns (the dispatch
// engine, concrete transports, the default operation set) out of scope,
// exposing small interfaces to enable custom backends and extensions.
package core
