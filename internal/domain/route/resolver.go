package route

import (
	"sync/atomic"

	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// Resolver maps an inbound request to the endpoint it should be forwarded
// to. Implementations must be safe for concurrent use; the proxy server
// calls Resolve from every connection's goroutine.
type Resolver interface {
	Resolve(req *httpmsg.Message) (Endpoint, bool)
}

// DefaultResolver resolves purely on the Host header against a Table,
// swapped atomically whenever the route configuration changes. Reads never
// take a lock, matching the lock-free config-read pattern used throughout
// the proxy for rarely-written, frequently-read state.
type DefaultResolver struct {
	table atomic.Pointer[Table]
}

// NewDefaultResolver builds a resolver seeded with an initial table.
func NewDefaultResolver(t *Table) *DefaultResolver {
	r := &DefaultResolver{}
	r.table.Store(t)
	return r
}

// SetTable atomically replaces the active route table.
func (r *DefaultResolver) SetTable(t *Table) {
	r.table.Store(t)
}

// Table returns the currently active route table.
func (r *DefaultResolver) Table() *Table {
	return r.table.Load()
}

// Resolve implements Resolver.
func (r *DefaultResolver) Resolve(req *httpmsg.Message) (Endpoint, bool) {
	host, ok := req.Headers.Get("Host")
	if !ok {
		return Endpoint{}, false
	}
	return r.table.Load().Lookup(host)
}

var _ Resolver = (*DefaultResolver)(nil)
