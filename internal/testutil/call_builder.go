package testutil

import (
	"github.com/google/uuid"

	"github.com/callbridge/callbridge/core"
)

// CallBuilder provides a fluent helper for constructing calls in tests.
// Example:
//
//	call := NewCallBuilder("add").ID("call-1").Args("2", "3").Build()
//
// Chain only the parts you need; a uuid correlation id is applied when ID
// is not set.
type CallBuilder struct {
	id        string
	operation string
	args      []string
}

// NewCallBuilder creates a builder for the given operation.
func NewCallBuilder(operation string) *CallBuilder {
	return &CallBuilder{operation: operation}
}

// ID overrides the auto-generated correlation id (chainable). Use mainly in
// tests where determinism matters.
func (b *CallBuilder) ID(id string) *CallBuilder { b.id = id; return b }

// Args sets the ordered argument list (chainable). Leaving it unset keeps
// the arguments absent, which the engine counts as length 0.
func (b *CallBuilder) Args(args ...string) *CallBuilder { b.args = args; return b }

// Build constructs the core.Call value.
func (b *CallBuilder) Build() core.Call {
	id := b.id
	if id == "" {
		id = uuid.NewString()
	}
	return core.Call{ID: id, Operation: b.operation, Args: b.args}
}
