// Package session runs a framed link over a byte-stream transport.
//
// Ownership boundary:
// - serialized frame writes (Link.Send)
// - the reader loop that feeds the stream framer and dispatches by tag
// - reconnect with backoff (Supervisor)
//
// A Link closes its transport when Run returns if the transport is an
// io.Closer. A bare io.ReadWriter is not closed, so its reader goroutine
// lingers in Read until the transport returns.
//
// Message schemas live in protocol/messages; transports in internal/transport.
package session
