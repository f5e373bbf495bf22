// Package outbound defines the outbound port for dialing proxy backends.
package outbound

import (
	"context"
	"net"

	"github.com/hostgate/hostgate/internal/domain/route"
)

// Dialer is the outbound port for opening a connection to a resolved
// backend endpoint. Adapters implement this to add retry, metrics, or
// platform-specific dialing (TCP vs. local IPC socket or named pipe)
// without the service layer knowing which.
type Dialer interface {
	Dial(ctx context.Context, ep route.Endpoint) (net.Conn, error)
}
