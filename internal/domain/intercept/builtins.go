package intercept

import (
	"context"
	"fmt"

	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// HeaderInjector adds a fixed header to every message it sees, overwriting
// any existing value. Useful for X-Forwarded-* style annotations.
type HeaderInjector struct {
	Name  string
	Value string
}

// Apply implements Transform.
func (h HeaderInjector) Apply(_ context.Context, msg *httpmsg.Message) error {
	msg.Headers.Set(h.Name, h.Value)
	return nil
}

// ForwardedFor appends the client's address to X-Forwarded-For, following
// the existing chain if one is already present.
type ForwardedFor struct {
	ClientAddr string
}

// Apply implements Transform.
func (f ForwardedFor) Apply(_ context.Context, msg *httpmsg.Message) error {
	if msg.IsResponse() {
		return nil
	}
	if existing, ok := msg.Headers.Get("X-Forwarded-For"); ok && existing != "" {
		msg.Headers.Set("X-Forwarded-For", existing+", "+f.ClientAddr)
		return nil
	}
	msg.Headers.Set("X-Forwarded-For", f.ClientAddr)
	return nil
}

// HostRewriter replaces the Host header on request messages, for backends
// that validate it strictly.
type HostRewriter struct {
	NewHost string
}

// Apply implements Transform.
func (h HostRewriter) Apply(_ context.Context, msg *httpmsg.Message) error {
	if msg.IsResponse() {
		return nil
	}
	msg.Headers.Set("Host", h.NewHost)
	return nil
}

// MaxHeaderCount rejects messages carrying more than Limit header fields, a
// cheap guard against header-flood abuse that needs no I/O to evaluate.
type MaxHeaderCount struct {
	Limit int
}

// Apply implements Transform.
func (m MaxHeaderCount) Apply(_ context.Context, msg *httpmsg.Message) error {
	if len(msg.Headers.All()) > m.Limit {
		return fmt.Errorf("intercept: %d headers exceeds limit of %d", len(msg.Headers.All()), m.Limit)
	}
	return nil
}

var (
	_ Transform = HeaderInjector{}
	_ Transform = ForwardedFor{}
	_ Transform = HostRewriter{}
	_ Transform = MaxHeaderCount{}
)
