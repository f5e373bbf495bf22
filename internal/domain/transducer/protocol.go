// Package transducer implements the per-direction streaming HTTP
// transducer: a stateful filter that sits between a raw socket and its
// peer, reframing HTTP heads through the interceptor pipeline while
// streaming body bytes through untouched, and latching to pure byte
// pass-through once a protocol upgrade has completed.
package transducer

import "sync/atomic"

// httpProtocol is the sentinel stored in Protocol before any upgrade has
// been observed.
const httpProtocol = "http"

// Protocol is a small mutable cell shared between the request-side and
// response-side Transducers of one connection. Exactly one of them
// observes the 101 Switching Protocols response that flips it; from that
// point on, both directions read it as opaque and stop framing entirely.
//
// atomic.Value is used rather than a mutex because this is a single
// read-mostly scalar written at most once per connection's lifetime.
type Protocol struct {
	v atomic.Value
}

// NewProtocol returns a Protocol cell initialized to plain HTTP framing.
func NewProtocol() *Protocol {
	p := &Protocol{}
	p.v.Store(httpProtocol)
	return p
}

// Upgrade latches the cell to the given protocol token (the value of the
// response's Upgrade header, e.g. "websocket"). Once latched, IsOpaque
// reports true for the remaining lifetime of the connection.
func (p *Protocol) Upgrade(token string) {
	if token == "" {
		token = "unknown"
	}
	p.v.Store(token)
}

// IsOpaque reports whether the connection has switched out of HTTP framing.
func (p *Protocol) IsOpaque() bool {
	return p.v.Load().(string) != httpProtocol
}

// Name returns the current protocol token, "http" until an upgrade latches.
func (p *Protocol) Name() string {
	return p.v.Load().(string)
}
