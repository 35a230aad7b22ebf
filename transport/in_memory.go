package transport

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/callbridge/callbridge/core"
)

// Outbound is one frame handed to the frontend side of an in-memory
// session: exactly one of Response or Progress is set. CallID correlates
// progress frames; for response frames it duplicates Response.CallID.
type Outbound struct {
	CallID   string
	Response *core.Response
	Progress *core.Progress
}

// InMemory is a channel-backed core.Transport for a single in-process
// session. Inbound calls are queued with Push; outbound traffic is recorded
// in delivery order (Sent) and mirrored on a buffered channel (Outbound)
// for live consumers. Safe for concurrent use.
type InMemory struct {
	calls chan core.Call

	mu     sync.Mutex
	closed bool
	sent   []Outbound

	outbound chan Outbound
	dropped  int
}

// NewInMemory constructs an in-memory session with room for buffer queued
// inbound calls (minimum 1).
func NewInMemory(buffer int) *InMemory {
	if buffer < 1 {
		buffer = 1
	}
	return &InMemory{
		calls:    make(chan core.Call, buffer),
		outbound: make(chan Outbound, 256),
	}
}

// Push queues an inbound call for the engine. It returns ErrSessionClosed
// after Close and an error when the queue is full.
func (t *InMemory) Push(call core.Call) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return core.ErrSessionClosed
	}
	select {
	case t.calls <- call:
		return nil
	default:
		return errors.New("call queue full")
	}
}

// PushCall queues a call for operation with the given arguments, assigning
// a fresh correlation id which is returned to the caller.
func (t *InMemory) PushCall(operation string, args ...string) (string, error) {
	id := uuid.NewString()
	return id, t.Push(core.Call{ID: id, Operation: operation, Args: args})
}

// Close closes the inbound side of the session: ReceiveNext returns
// ErrSessionClosed once queued calls are drained. Outbound frames for
// already-accepted calls are still recorded so no call goes unanswered.
// Close is idempotent.
func (t *InMemory) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.calls)
}

// ReceiveNext blocks until the next queued call or session closure.
func (t *InMemory) ReceiveNext() (core.Call, error) {
	call, ok := <-t.calls
	if !ok {
		return core.Call{}, core.ErrSessionClosed
	}
	return call, nil
}

// SendResponse records the terminal outcome for a call.
func (t *InMemory) SendResponse(resp core.Response) error {
	return t.send(Outbound{CallID: resp.CallID, Response: &resp})
}

// SendProgress records an out-of-band progress event. It never blocks: when
// the live channel is full the frame is still recorded but not streamed.
func (t *InMemory) SendProgress(callID string, p core.Progress) error {
	return t.send(Outbound{CallID: callID, Progress: &p})
}

func (t *InMemory) send(out Outbound) error {
	t.mu.Lock()
	t.sent = append(t.sent, out)
	t.mu.Unlock()

	// Don't let slow consumers block the dispatch loop.
	select {
	case t.outbound <- out:
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
	}
	return nil
}

// Outbound returns the live stream of outbound frames. Frames are dropped
// from the stream (never from Sent) when the consumer falls behind.
func (t *InMemory) Outbound() <-chan Outbound { return t.outbound }

// Sent returns a snapshot of every outbound frame in delivery order.
func (t *InMemory) Sent() []Outbound {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Outbound, len(t.sent))
	copy(out, t.sent)
	return out
}

// Dropped reports how many frames were not streamed because the live
// channel was full.
func (t *InMemory) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}
