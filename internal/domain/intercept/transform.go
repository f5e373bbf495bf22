// Package intercept implements the request-side and response-side
// interceptor pipelines: ordered, append-only sequences of pure message
// transforms evaluated in registration order.
package intercept

import (
	"context"

	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// Transform mutates a message in place. Implementations must be
// non-blocking: a transform that performs network or disk I/O stalls every
// connection sharing its chain, not just the one being processed.
//
// Returning an error stops the chain and the message is not forwarded. The
// proxy server reacts by closing both sockets of the connection; it does not
// write an error response to the client.
type Transform interface {
	Apply(ctx context.Context, msg *httpmsg.Message) error
}

// TransformFunc adapts a plain function to Transform.
type TransformFunc func(ctx context.Context, msg *httpmsg.Message) error

// Apply implements Transform.
func (f TransformFunc) Apply(ctx context.Context, msg *httpmsg.Message) error {
	return f(ctx, msg)
}

// Passthrough is a Transform that does nothing, useful as a chain's zero
// value or as a test double.
type Passthrough struct{}

// Apply implements Transform.
func (Passthrough) Apply(context.Context, *httpmsg.Message) error { return nil }

var _ Transform = Passthrough{}
