package httpmsg

import (
	"strconv"
	"strings"
)

// Serialize renders a Message back into its HTTP/1.x wire form, including
// the trailing blank line that terminates the head. It does not append any
// body bytes; callers stream the body separately.
func Serialize(m *Message) []byte {
	var b strings.Builder
	version := "HTTP/" + strconv.Itoa(m.VersionMajor) + "." + strconv.Itoa(m.VersionMinor)

	if m.IsResponse() {
		reason := m.StatusReason
		if reason == "" {
			reason = ReasonPhrase(m.StatusCode)
		}
		b.WriteString(version)
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(m.StatusCode))
		b.WriteByte(' ')
		b.WriteString(reason)
		b.WriteString("\r\n")
	} else {
		b.WriteString(m.Method)
		b.WriteByte(' ')
		b.WriteString(m.URL)
		b.WriteByte(' ')
		b.WriteString(version)
		b.WriteString("\r\n")
	}

	for _, h := range m.Headers.All() {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// ReasonPhrase returns the standard IANA reason phrase for a status code, or
// a generic phrase for its status-code class when the exact code is unknown.
func ReasonPhrase(code int) string {
	if p, ok := reasonPhrases[code]; ok {
		return p
	}
	switch {
	case code >= 100 && code < 200:
		return "Informational"
	case code >= 200 && code < 300:
		return "Success"
	case code >= 300 && code < 400:
		return "Redirection"
	case code >= 400 && code < 500:
		return "Client Error"
	case code >= 500 && code < 600:
		return "Server Error"
	default:
		return "Unknown"
	}
}

var reasonPhrases = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	408: "Request Timeout",
	413: "Payload Too Large",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}
