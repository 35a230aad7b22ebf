// Package httpbridge exposes a dispatch engine to a webview frontend over
// HTTP. It implements core.Transport on top of two endpoints:
//
//   - POST /call queues an inbound call (a correlation id is assigned when
//     the client omits one) and returns it immediately; the terminal
//     outcome arrives asynchronously on the event stream.
//   - GET /events streams responses and progress events as server-sent
//     events. A small ring buffer lets clients that reconnect with
//     Last-Event-ID recover frames they missed.
//
// The bridge serves exactly one session: shutting the HTTP server down (or
// calling Close) surfaces core.ErrSessionClosed to the engine loop, which
// treats it as an implicit shutdown.
package httpbridge
