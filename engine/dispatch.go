package engine

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/history"
)

// faultReason is the generic rejection surfaced to the frontend when a
// handler faults unexpectedly. The real failure is kept in the logs; the
// wire carries no internals.
const faultReason = "handler failed unexpectedly"

// Dispatch runs one call through the invocation pipeline and returns its
// terminal response:
//
//  1. Registry lookup; unknown operations are rejected without touching the
//     arguments or constructing a MessageContext.
//  2. Arity validation when the handler declared an expectation (absent
//     arguments count as length 0); mismatches are rejected without
//     invoking the handler.
//  3. Synchronous handler invocation with a per-call MessageContext bound
//     to the transport's progress channel and the engine's shutdown flag.
//  4. Success maps to an accepted response, a handler error to a rejected
//     one carrying the error text verbatim. A panicking handler is
//     contained at the invocation boundary and rejected with a generic
//     reason so the loop stays alive for subsequent calls.
//
// Dispatch is exported for embedders driving the pipeline without the
// Start loop; it must not be called concurrently with itself.
func (e *Engine) Dispatch(call core.Call) core.Response {
	start := time.Now()

	ent, ok := e.handlers[call.Operation]
	if !ok {
		e.logger.Warn("dispatch.unknown_operation", "call_id", call.ID, "operation", call.Operation)
		resp := core.Reject(call.ID, fmt.Sprintf("no handler registered for operation %s", call.Operation))
		e.record(call, resp, core.RejectUnknownOperation, start)
		return resp
	}

	if ent.arity != nil && *ent.arity != len(call.Args) {
		e.logger.Warn("dispatch.arity_mismatch", "call_id", call.ID, "operation", call.Operation, "expected", *ent.arity, "got", len(call.Args))
		resp := core.Reject(call.ID, fmt.Sprintf("expected %d arguments, got %d", *ent.arity, len(call.Args)))
		e.record(call, resp, core.RejectArityMismatch, start)
		return resp
	}

	e.logger.Debug("dispatch.call.start", "call_id", call.ID, "operation", call.Operation, "args", len(call.Args))

	ctx := core.NewMessageContext(call, e.transport, e.requestShutdown, e.logger)

	payload, faulted, err := e.invoke(ent, ctx)

	var resp core.Response
	switch {
	case faulted:
		resp = core.Reject(call.ID, faultReason)
		e.record(call, resp, core.RejectHandlerFault, start)
	case err != nil:
		e.logger.Warn("dispatch.call.error", "call_id", call.ID, "operation", call.Operation, "error", err.Error())
		resp = core.Reject(call.ID, err.Error())
		e.record(call, resp, core.RejectHandlerError, start)
	default:
		e.logger.Info("dispatch.call.success", "call_id", call.ID, "operation", call.Operation, "duration_ms", time.Since(start).Milliseconds())
		resp = core.Accept(call.ID, payload)
		e.record(call, resp, "", start)
	}

	return resp
}

// invoke runs the handler, converting a panic into a contained fault so one
// faulty handler cannot take down the dispatch loop or leave a call
// permanently unanswered.
func (e *Engine) invoke(ent entry, ctx *core.MessageContext) (payload string, faulted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			faulted = true
			e.logger.Error("dispatch.call.fault", "call_id", ctx.CallID(), "operation", ctx.Operation(), "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	payload, err = ent.handler.Handle(ctx)

	return payload, false, err
}

// record appends a call-history entry when a store is configured. Failures
// are logged and never surfaced to the caller.
func (e *Engine) record(call core.Call, resp core.Response, code core.RejectCode, start time.Time) {
	if e.history == nil {
		return
	}

	ent := history.Entry{
		CallID:    call.ID,
		Operation: call.Operation,
		Accepted:  resp.Accepted(),
		Code:      code,
		Reason:    rejectReason(resp),
		Duration:  time.Since(start),
		At:        start.UTC(),
	}

	if err := e.history.Append(ent); err != nil {
		e.logger.Warn("dispatch.history.append_failed", "call_id", call.ID, "error", err.Error())
	}
}

func rejectReason(resp core.Response) string {
	if resp.Accepted() {
		return ""
	}
	return resp.Message
}
