package core

import (
	"github.com/callbridge/callbridge/logging"
)

// MessageContext provides a constrained, auditable surface for handler
// implementations invoked by the dispatch engine. It exposes the call's
// arguments read-only, a fire-and-forget progress channel and a cooperative
// shutdown request. A MessageContext is bound to exactly one invocation and
// must not be retained after the handler returns.
type MessageContext struct {
	callID          string
	operation       string
	args            []string
	transport       Transport
	requestShutdown func()

	*loggerAdapter
}

// NewMessageContext constructs a message context bound to a call, the
// session transport and the engine's shutdown request. The engine is the
// only expected caller; it is exported so custom dispatchers and tests can
// drive handlers directly.
func NewMessageContext(call Call, transport Transport, requestShutdown func(), logger logging.Logger) *MessageContext {
	return &MessageContext{
		callID:          call.ID,
		operation:       call.Operation,
		args:            call.Args,
		transport:       transport,
		requestShutdown: requestShutdown,
		loggerAdapter:   newLoggerAdapter(logger),
	}
}

// CallID returns the correlation id of the owning call.
func (mc *MessageContext) CallID() string { return mc.callID }

// Operation returns the operation name the call was dispatched under.
func (mc *MessageContext) Operation() string { return mc.operation }

// Args returns the call's ordered argument list, or nil when the frontend
// supplied none. The slice is the engine's view of the call; handlers must
// treat it as read-only.
func (mc *MessageContext) Args() []string { return mc.args }

// Arg returns the i-th argument or the empty string when out of range.
// Handlers registered with an expected arity may index freely within it;
// others should check len(Args()) themselves.
func (mc *MessageContext) Arg(i int) string {
	if i < 0 || i >= len(mc.args) {
		return ""
	}
	return mc.args[i]
}

// SendProgress forwards a progress event for the owning call to the session
// transport and returns immediately. It never blocks on frontend
// acknowledgment and may be called any number of times before the handler
// returns. Delivery failures are logged and otherwise ignored.
func (mc *MessageContext) SendProgress(p Progress) {
	if mc.transport == nil {
		return
	}
	if err := mc.transport.SendProgress(mc.callID, p); err != nil {
		mc.LogWarn("progress.send_failed", "call_id", mc.callID, "operation", mc.operation, "error", err.Error())
	}
}

// Shutdown requests cooperative engine shutdown. The flag is observed by
// the engine loop after the current invocation returns; the running handler
// is never aborted and its Response is still delivered.
func (mc *MessageContext) Shutdown() {
	if mc.requestShutdown != nil {
		mc.requestShutdown()
	}
}
