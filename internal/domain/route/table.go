package route

import "strings"

// Entry is one hostname-to-endpoint mapping as supplied by configuration.
type Entry struct {
	Host     string
	Endpoint Endpoint
}

// Table is an immutable snapshot of the hostname-to-endpoint mapping. A new
// Table is built whenever routes change; callers never mutate one in place,
// matching the rest of the proxy's rare-write/frequent-read discipline.
type Table struct {
	byHost map[string]Endpoint
}

// Build constructs a Table from entries. Hostnames are matched
// case-insensitively. When the same hostname appears more than once, the
// last entry wins; this mirrors how a freshly reloaded config file is
// expected to behave when a caller appends an override after a base list.
func Build(entries []Entry) *Table {
	t := &Table{byHost: make(map[string]Endpoint, len(entries))}
	for _, e := range entries {
		t.byHost[strings.ToLower(e.Host)] = e.Endpoint
	}
	return t
}

// Lookup returns the endpoint registered for host, falling back to a "*"
// wildcard entry if one was configured and host has no exact match.
func (t *Table) Lookup(host string) (Endpoint, bool) {
	if t == nil {
		return Endpoint{}, false
	}
	if ep, ok := t.byHost[strings.ToLower(StripPort(host))]; ok {
		return ep, true
	}
	if ep, ok := t.byHost["*"]; ok {
		return ep, true
	}
	return Endpoint{}, false
}

// Hosts returns every configured hostname, excluding the wildcard entry.
func (t *Table) Hosts() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.byHost))
	for h := range t.byHost {
		if h != "*" {
			out = append(out, h)
		}
	}
	return out
}

// StripPort removes a trailing ":port" from a Host header value, leaving
// IPv6 literals (which arrive bracketed, e.g. "[::1]:80") alone unless the
// bracket closes before the colon.
func StripPort(host string) string {
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		// Only strip when what follows looks like a port, not an IPv6
		// literal's internal colon (those arrive bracketed, e.g. "[::1]:80").
		if !strings.Contains(host[i:], "]") {
			return host[:i]
		}
	}
	return host
}
