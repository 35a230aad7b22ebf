package core

// Handler is the polymorphic capability invoked by the dispatch engine for a
// registered operation. Implementations receive the per-invocation
// MessageContext and return either a success payload or an error whose
// message is surfaced verbatim to the frontend as the rejection reason.
//
// Handler implementations should:
//   - Validate argument shape themselves when registered without an
//     expected arity
//   - Return plain string payloads, JSON-encoding structured results
//   - Avoid spawning work that outlives the invocation; the MessageContext
//     is only valid until Handle returns
type Handler interface {
	Handle(ctx *MessageContext) (string, error)
}

// HandlerFunc adapts a plain function to the Handler interface, allowing
// closures to be registered directly.
type HandlerFunc func(ctx *MessageContext) (string, error)

// Handle invokes the wrapped function.
func (f HandlerFunc) Handle(ctx *MessageContext) (string, error) { return f(ctx) }
