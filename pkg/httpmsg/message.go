// Package httpmsg provides a small, dependency-light representation of an
// HTTP/1.x request or response head, plus an incremental parser and a
// serializer. It is deliberately independent of net/http: the proxy works
// below the request/response abstraction, directly on the bytes crossing a
// raw TCP connection.
package httpmsg

import "strings"

// Header is a single header field, case preserved as written on the wire.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered, case-insensitive multi-map of header fields.
// Order and duplicates are preserved; lookups fold case.
type Headers struct {
	fields []Header
	index  map[string][]int
}

// Add appends a header field, preserving any existing fields of the same name.
func (h *Headers) Add(name, value string) {
	if h.index == nil {
		h.index = make(map[string][]int)
	}
	key := strings.ToLower(name)
	h.index[key] = append(h.index[key], len(h.fields))
	h.fields = append(h.fields, Header{Name: name, Value: value})
}

// Set replaces all existing fields of the given name with a single field.
func (h *Headers) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Del removes every field with the given name (case-insensitive).
func (h *Headers) Del(name string) {
	key := strings.ToLower(name)
	idxs, ok := h.index[key]
	if !ok {
		return
	}
	removed := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		removed[i] = true
	}
	kept := h.fields[:0]
	for i, f := range h.fields {
		if !removed[i] {
			kept = append(kept, f)
		}
	}
	h.fields = kept
	delete(h.index, key)
	h.reindex()
}

func (h *Headers) reindex() {
	idx := make(map[string][]int, len(h.fields))
	for i, f := range h.fields {
		key := strings.ToLower(f.Name)
		idx[key] = append(idx[key], i)
	}
	h.index = idx
}

// Get returns the first value for name, and whether it was present.
func (h *Headers) Get(name string) (string, bool) {
	idxs, ok := h.index[strings.ToLower(name)]
	if !ok || len(idxs) == 0 {
		return "", false
	}
	return h.fields[idxs[0]].Value, true
}

// Values returns every value for name, in the order they were added.
func (h *Headers) Values(name string) []string {
	idxs, ok := h.index[strings.ToLower(name)]
	if !ok {
		return nil
	}
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = h.fields[idx].Value
	}
	return out
}

// All returns the fields in wire order.
func (h *Headers) All() []Header {
	return h.fields
}

// Message is a parsed HTTP/1.x request or response head. Exactly one of
// {Method, StatusCode} is meaningful, selected by IsResponse.
type Message struct {
	VersionMajor int
	VersionMinor int

	// Request line fields. Valid when IsResponse() is false.
	Method string
	URL    string

	// Status line fields. Valid when IsResponse() is true.
	StatusCode   int
	StatusReason string

	Headers Headers

	isResponse bool
}

// NewRequest builds a request-side Message.
func NewRequest(method, url string, versionMajor, versionMinor int) *Message {
	return &Message{
		Method:       method,
		URL:          url,
		VersionMajor: versionMajor,
		VersionMinor: versionMinor,
	}
}

// NewResponse builds a response-side Message.
func NewResponse(statusCode int, reason string, versionMajor, versionMinor int) *Message {
	return &Message{
		StatusCode:   statusCode,
		StatusReason: reason,
		VersionMajor: versionMajor,
		VersionMinor: versionMinor,
		isResponse:   true,
	}
}

// IsResponse reports whether this Message is a response head.
func (m *Message) IsResponse() bool { return m.isResponse }

// IsUpgrade reports whether this message carries an HTTP Upgrade request or
// a 101 Switching Protocols response.
func (m *Message) IsUpgrade() bool {
	if m.isResponse {
		return m.StatusCode == 101
	}
	v, ok := m.Headers.Get("Connection")
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v), "upgrade")
}

// UpgradeProtocol returns the value of the Upgrade header, if present.
func (m *Message) UpgradeProtocol() (string, bool) {
	return m.Headers.Get("Upgrade")
}

// KeepAlive reports whether the connection should persist past this message,
// per HTTP/1.1 defaults and any explicit Connection header override.
func (m *Message) KeepAlive() bool {
	v, ok := m.Headers.Get("Connection")
	if !ok {
		return m.VersionMajor == 1 && m.VersionMinor >= 1
	}
	lv := strings.ToLower(v)
	if strings.Contains(lv, "close") {
		return false
	}
	if strings.Contains(lv, "keep-alive") {
		return true
	}
	return m.VersionMajor == 1 && m.VersionMinor >= 1
}

// ContentLength returns the parsed Content-Length header value, or -1 if
// absent or malformed.
func (m *Message) ContentLength() int64 {
	v, ok := m.Headers.Get("Content-Length")
	if !ok {
		return -1
	}
	n, err := parseInt64(v)
	if err != nil {
		return -1
	}
	return n
}

// Chunked reports whether Transfer-Encoding names "chunked" as the final
// coding, per RFC 7230 §3.3.1.
func (m *Message) Chunked() bool {
	v, ok := m.Headers.Get("Transfer-Encoding")
	if !ok {
		return false
	}
	codings := strings.Split(v, ",")
	if len(codings) == 0 {
		return false
	}
	last := strings.TrimSpace(codings[len(codings)-1])
	return strings.EqualFold(last, "chunked")
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, errNotNumeric
	}
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errNotNumeric
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}
