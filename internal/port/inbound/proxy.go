// Package inbound defines the inbound port for the proxy core. Inbound
// adapters (the TCP listener, the admin control surface) call this
// interface rather than reaching into the service package directly.
package inbound

import (
	"context"
	"net"

	"github.com/hostgate/hostgate/internal/domain/intercept"
	"github.com/hostgate/hostgate/internal/domain/route"
)

// EventType identifies one lifecycle event a control-surface caller may
// register a callback for.
type EventType int

const (
	// EventConnect fires once a connection has been accepted, routed, and
	// dialed successfully.
	EventConnect EventType = iota
	// EventDisconnect fires when a connection's relay loop ends, for any
	// reason, after both sockets have been closed.
	EventDisconnect
	// EventError fires when a connection fails before a backend relay
	// could be established (parse failure, no route, dial failure).
	EventError
)

// Callback receives the host a connection was routed to (empty for
// EventError cases that occur before routing) and, when relevant, the
// error that ended the connection.
type Callback func(host string, err error)

// Server is the inbound port exposed by the proxy core: the full control
// surface a transport adapter or the admin API drives it with.
type Server interface {
	// Serve accepts and proxies connections from ln until ctx is
	// cancelled or Accept fails. Serve itself is not gated by Start/Stop;
	// Stop only flips the active flag newly accepted connections are
	// checked against.
	Serve(ctx context.Context, ln net.Listener) error

	// Start marks the server active: subsequently accepted connections
	// are proxied normally.
	Start() error

	// Stop marks the server passive: subsequently accepted connections
	// are rejected with a 503 and closed. It does not drop connections
	// already in flight.
	Stop() error

	// GetStatus reports "active" or "passive".
	GetStatus() string

	// GetConfig returns the currently installed route entries.
	GetConfig() []route.Entry

	// SetConfig atomically replaces the route table driving the default
	// resolver.
	SetConfig(entries []route.Entry) error

	// GetRoutes is an alias for GetConfig exposed under the control
	// surface's own name for the operation.
	GetRoutes() []route.Entry

	// SetRouteResolver atomically swaps the resolver used to route new
	// connections.
	SetRouteResolver(r route.Resolver)

	// GetCallbacks returns a copy of the currently registered event
	// callbacks.
	GetCallbacks() map[EventType][]Callback

	// SetCallbacks atomically replaces the registered event callbacks.
	SetCallbacks(callbacks map[EventType][]Callback)

	// AddRequestInterceptor appends t to the request-side chain.
	AddRequestInterceptor(t intercept.Transform)

	// AddResponseInterceptor appends t to the response-side chain.
	AddResponseInterceptor(t intercept.Transform)

	// DisconnectHost closes every active connection for host.
	DisconnectHost(host string) int

	// DisconnectAll closes every active connection.
	DisconnectAll() int

	// ActiveConnections reports the number of currently proxied
	// connections.
	ActiveConnections() int
}
