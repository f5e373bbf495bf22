package proxyerr

import (
	"bytes"
	"testing"
)

func TestWriteStatusExactWireForm(t *testing.T) {
	cases := map[int]string{
		400: "HTTP/1.1 400 Bad Request\r\n\r\n",
		404: "HTTP/1.1 404 Not Found\r\n\r\n",
		500: "HTTP/1.1 500 Internal Server Error\r\n\r\n",
		502: "HTTP/1.1 502 Bad Gateway\r\n\r\n",
		503: "HTTP/1.1 503 Service Unavailable\r\n\r\n",
	}
	for code, want := range cases {
		var buf bytes.Buffer
		if err := WriteStatus(&buf, code); err != nil {
			t.Fatalf("WriteStatus(%d): %v", code, err)
		}
		if got := buf.String(); got != want {
			t.Fatalf("WriteStatus(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestWriteStatusCollapsesUnknownCodeTo500(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatus(&buf, 999); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	want := "HTTP/1.1 500 Internal Server Error\r\n\r\n"
	if got := buf.String(); got != want {
		t.Fatalf("WriteStatus(999) = %q, want %q", got, want)
	}
}
