// Package tracker implements the process-wide registry of active proxied
// connections, keyed by a monotonic numeric ID and indexed both flatly and
// by virtual host, so bulk disconnects can target one host without
// scanning every connection.
package tracker

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Conn records one proxied connection's identity and both of its sockets.
type Conn struct {
	ID      uint64
	Host    string
	TraceID string
	Client  net.Conn
	Backend net.Conn
}

// Tracker maintains two mutually consistent indices over active
// connections: a flat ID lookup and a per-host set. Every mutating method
// holds the single mutex for its full critical section so the two indices
// are never observed out of sync.
type Tracker struct {
	mu     sync.Mutex
	byID   map[uint64]*Conn
	byHost map[string]map[uint64]struct{}

	nextID atomic.Uint64
}

// New builds an empty Tracker.
func New() *Tracker {
	return &Tracker{
		byID:   make(map[uint64]*Conn),
		byHost: make(map[string]map[uint64]struct{}),
	}
}

// Add registers a new connection and returns its tracked record, stamped
// with a fresh monotonic ID and a trace ID used only for log correlation.
func (t *Tracker) Add(host string, client, backend net.Conn) *Conn {
	id := t.nextID.Add(1)
	c := &Conn{
		ID:      id,
		Host:    host,
		TraceID: uuid.NewString(),
		Client:  client,
		Backend: backend,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[id] = c
	set, ok := t.byHost[host]
	if !ok {
		set = make(map[uint64]struct{})
		t.byHost[host] = set
	}
	set[id] = struct{}{}
	return c
}

// Remove untracks id, closing neither socket itself (the caller owns
// connection lifecycle); it reports whether id was still tracked, making
// teardown idempotent when called more than once for the same connection.
func (t *Tracker) Remove(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.byID[id]
	if !ok {
		return false
	}
	delete(t.byID, id)
	if set, ok := t.byHost[c.Host]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(t.byHost, c.Host)
		}
	}
	return true
}

// Get returns the tracked record for id, if any.
func (t *Tracker) Get(id uint64) (*Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.byID[id]
	return c, ok
}

// Count returns the number of currently tracked connections.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// CountHost returns the number of currently tracked connections for host.
func (t *Tracker) CountHost(host string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byHost[host])
}

// DisconnectHost closes every connection tracked for host and removes them
// from both indices, returning how many were closed.
func (t *Tracker) DisconnectHost(host string) int {
	return t.disconnect(t.snapshotHost(host))
}

// DisconnectAll closes every tracked connection, returning how many were
// closed.
func (t *Tracker) DisconnectAll() int {
	return t.disconnect(t.snapshotAll())
}

func (t *Tracker) snapshotHost(host string) []*Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.byHost[host]
	out := make([]*Conn, 0, len(set))
	for id := range set {
		out = append(out, t.byID[id])
	}
	return out
}

func (t *Tracker) snapshotAll() []*Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Conn, 0, len(t.byID))
	for _, c := range t.byID {
		out = append(out, c)
	}
	return out
}

func (t *Tracker) disconnect(conns []*Conn) int {
	n := 0
	for _, c := range conns {
		if !t.Remove(c.ID) {
			continue
		}
		_ = c.Client.Close()
		_ = c.Backend.Close()
		n++
	}
	return n
}
