package core

import "fmt"

// Call represents one inbound request read off the session transport. The
// JSON field names mirror the wire format used by webview frontends: each
// call carries an opaque correlation id, the operation name and an optional
// ordered argument list.
type Call struct {
	ID        string   `json:"id"`
	Operation string   `json:"call_name"`
	Args      []string `json:"arguments,omitempty"`
}

// String returns a compact representation for logging.
func (c Call) String() string {
	return fmt.Sprintf("(id: %s, operation: %s)", c.ID, c.Operation)
}

// Response is the terminal outcome of a call. Exactly one Response is
// produced per Call; OK selects between the accepted and rejected branches
// and Message carries the payload or the rejection reason respectively.
// Accepted payloads are plain strings, optionally holding JSON-encoded
// structured data parsed by the frontend.
type Response struct {
	CallID  string `json:"id"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Accept builds an accepted Response carrying payload.
func Accept(callID, payload string) Response {
	return Response{CallID: callID, OK: true, Message: payload}
}

// Reject builds a rejected Response carrying the reason.
func Reject(callID, reason string) Response {
	return Response{CallID: callID, OK: false, Message: reason}
}

// Accepted reports whether the response resolves the frontend promise.
func (r Response) Accepted() bool { return r.OK }

// Progress is an out-of-band status update emitted by a handler while its
// call is in flight. Percent is a completion estimate in the range [0, 100];
// handlers may send any value any number of times, no monotonicity is
// implied. Progress events for a call are always delivered strictly before
// that call's terminal Response.
type Progress struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Percent float64 `json:"percent"`
}

// NewProgress constructs a Progress event, clamping percent into [0, 100].
func NewProgress(title, message string, percent float64) Progress {
	return Progress{Title: title, Message: message, Percent: min(max(percent, 0), 100)}
}
