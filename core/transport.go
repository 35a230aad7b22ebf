package core

import "errors"

// ErrSessionClosed is returned by Transport.ReceiveNext when the session has
// been torn down and no further calls will arrive. The engine treats it as
// an implicit shutdown rather than an error.
var ErrSessionClosed = errors.New("session closed")

// Transport is the session boundary consumed by the dispatch engine. It
// delivers inbound calls and accepts outbound responses and progress
// events. A Transport instance serves exactly one long-lived session.
//
// Implementations MUST:
//   - Block in ReceiveNext until a call arrives or the session closes,
//     returning ErrSessionClosed in the latter case
//   - Preserve the order in which SendResponse and SendProgress are called
//     when delivering to the frontend
type Transport interface {
	// ReceiveNext blocks until the next inbound call is available. It
	// returns ErrSessionClosed once the session is torn down; any other
	// error is treated by the engine as a transport failure forcing an
	// implicit shutdown.
	ReceiveNext() (Call, error)

	// SendResponse delivers the terminal outcome for a call, correlated by
	// its id.
	SendResponse(resp Response) error

	// SendProgress delivers an out-of-band progress event for the call
	// identified by callID.
	SendProgress(callID string, p Progress) error
}
