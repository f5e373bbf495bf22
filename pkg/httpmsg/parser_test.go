package httpmsg

import (
	"bytes"
	"testing"
)

func TestParserRequestLineAndHeaders(t *testing.T) {
	var got *Message
	p := NewRequestParser()
	p.OnHead = func(m *Message) { got = m }

	raw := "GET /widgets?id=1 HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n"
	if err := p.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got == nil {
		t.Fatal("expected OnHead to fire")
	}
	if got.Method != "GET" || got.URL != "/widgets?id=1" {
		t.Fatalf("unexpected request line: %+v", got)
	}
	if v, ok := got.Headers.Get("host"); !ok || v != "example.com" {
		t.Fatalf("expected Host header, got %q ok=%v", v, ok)
	}
}

func TestParserStatusLine(t *testing.T) {
	var got *Message
	p := NewResponseParser()
	p.OnHead = func(m *Message) { got = m }

	raw := "HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n"
	if err := p.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got.StatusCode != 404 || got.StatusReason != "Not Found" {
		t.Fatalf("unexpected status line: %+v", got)
	}
}

func TestParserSplitAcrossChunks(t *testing.T) {
	var got *Message
	p := NewRequestParser()
	p.OnHead = func(m *Message) { got = m }

	raw := "POST /submit HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\nhello"
	var body bytes.Buffer
	p.OnBody = func(c []byte) { body.Write(c) }

	for i := 0; i < len(raw); i++ {
		if err := p.Feed([]byte{raw[i]}); err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
	}
	if got == nil {
		t.Fatal("expected head")
	}
	if body.String() != "hello" {
		t.Fatalf("expected body 'hello', got %q", body.String())
	}
}

func TestParserChunkedBody(t *testing.T) {
	var body bytes.Buffer
	p := NewResponseParser()
	p.OnBody = func(c []byte) { body.Write(c) }

	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	if err := p.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if body.String() != "Wikipedia" {
		t.Fatalf("expected dechunked body, got %q", body.String())
	}
}

func TestParserMalformedRequestLine(t *testing.T) {
	p := NewRequestParser()
	if err := p.Feed([]byte("NOT A REQUEST\r\n\r\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParserOversizedHead(t *testing.T) {
	p := NewRequestParser()
	big := bytes.Repeat([]byte("a"), MaxHeadSize+1)
	if err := p.Feed(big); err == nil {
		t.Fatal("expected ErrMalformedHead for oversized head")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	m := NewRequest("GET", "/", 1, 1)
	m.Headers.Add("Host", "example.com")
	out := Serialize(m)

	var got *Message
	p := NewRequestParser()
	p.OnHead = func(msg *Message) { got = msg }
	if err := p.Feed(out); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got.Method != "GET" || got.URL != "/" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
