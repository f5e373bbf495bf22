// Package dialer adapts route.Endpoint.Dial into the outbound.Dialer port,
// adding a default timeout (spec.md leaves the exact backend dial timeout
// unspecified; this proxy defaults to 10s, configurable per route) and
// dial-failure metrics.
package dialer

import (
	"context"
	"net"
	"time"

	"github.com/hostgate/hostgate/internal/adapter/inbound/metrics"
	"github.com/hostgate/hostgate/internal/domain/route"
	"github.com/hostgate/hostgate/internal/port/outbound"
)

// DefaultTimeout is used when an endpoint does not specify its own
// DialTimeout.
const DefaultTimeout = 10 * time.Second

// Dialer is the default outbound.Dialer implementation.
type Dialer struct {
	metrics *metrics.Set
}

// New builds a Dialer. m may be nil in tests that don't care about metrics.
func New(m *metrics.Set) *Dialer {
	return &Dialer{metrics: m}
}

// Dial implements outbound.Dialer.
func (d *Dialer) Dial(ctx context.Context, ep route.Endpoint) (net.Conn, error) {
	timeout := ep.DialTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := ep.Dial(dialCtx)
	if err != nil {
		if d.metrics != nil {
			d.metrics.DialFailuresTotal.WithLabelValues(ep.Kind.String()).Inc()
		}
		return nil, err
	}
	return conn, nil
}

var _ outbound.Dialer = (*Dialer)(nil)
