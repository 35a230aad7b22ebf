// Package transport provides concrete core.Transport implementations.
//
// InMemory is a channel-backed session suited to embedding the engine in
// the same process as its frontend (and to tests): callers push inbound
// calls, the engine's outbound responses and progress events are recorded
// in delivery order and optionally streamed over a channel.
//
// The HTTP bridge for real webview frontends lives in the httpbridge
// subpackage.
package transport
