// Package route implements the route table and resolver: the mapping from
// an inbound virtual host to the backend a connection should be forwarded
// to.
package route

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Kind distinguishes the two backend transports a route can point at.
type Kind int

const (
	// KindTCP dials a backend over TCP at Host:Port.
	KindTCP Kind = iota
	// KindIPC dials a backend over a local socket or named pipe at Path.
	// Path already carries the OS-specific prefix (e.g. \\.\pipe\ on
	// Windows) baked in at config-build time.
	KindIPC
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindIPC:
		return "ipc"
	default:
		return "unknown"
	}
}

// ErrUnknownKind is returned by Dial when an Endpoint's Kind is not one of
// the recognized values.
var ErrUnknownKind = errors.New("route: unknown endpoint kind")

// Endpoint describes one backend target.
type Endpoint struct {
	Kind Kind
	Host string
	Port string
	Path string

	// DialTimeout bounds how long the outbound dialer adapter waits before
	// giving up; Endpoint.Dial itself only honors ctx. Zero means use the
	// dialer's default.
	DialTimeout time.Duration
}

// Addr renders the endpoint's address for logging.
func (e Endpoint) Addr() string {
	if e.Kind == KindIPC {
		return e.Path
	}
	return net.JoinHostPort(e.Host, e.Port)
}

// Dial opens a new connection to the endpoint using the platform dialer
// registered for its Kind. The net.Dial family already distinguishes "tcp"
// from "unix"/named-pipe addressing, so Dial is a thin, timeout-aware
// wrapper rather than a full adapter; adapter/outbound/dialer composes this
// with a dial timeout and metrics.
func (e Endpoint) Dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{}
	switch e.Kind {
	case KindTCP:
		return d.DialContext(ctx, "tcp", e.Addr())
	case KindIPC:
		return dialIPC(ctx, e.Path)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, e.Kind)
	}
}
