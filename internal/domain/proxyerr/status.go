// Package proxyerr renders terminal proxy errors as bare HTTP status lines,
// matching spec.md's requirement that the server operates below net/http's
// request/response model and never constructs a full response body for its
// own errors.
package proxyerr

import (
	"fmt"
	"io"

	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// WriteStatus writes a bare status-line HTTP/1.1 response for code, with no
// headers and no body, collapsing any status code outside the standard
// table to 500, per spec.md's error handling design.
func WriteStatus(w io.Writer, code int) error {
	if _, known := knownCodes[code]; !known {
		code = 500
	}
	line := fmt.Sprintf("HTTP/1.1 %d %s\r\n\r\n", code, httpmsg.ReasonPhrase(code))
	_, err := w.Write([]byte(line))
	return err
}

var knownCodes = map[int]struct{}{
	400: {}, 404: {}, 500: {}, 502: {}, 503: {},
}
