package testutil

import (
	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/transport"
)

// ScriptSession builds an in-memory session preloaded with the given calls
// and already closed, so an engine Start drains the script and then
// observes session closure. The returned transport's Sent snapshot holds
// every outbound frame in delivery order.
func ScriptSession(calls ...core.Call) *transport.InMemory {
	session := transport.NewInMemory(len(calls))
	for _, call := range calls {
		if err := session.Push(call); err != nil {
			panic(err)
		}
	}
	session.Close()
	return session
}
