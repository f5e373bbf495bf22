package transducer

import (
	"bytes"
	"context"
	"testing"

	"github.com/hostgate/hostgate/internal/domain/intercept"
)

func TestTransducerFramesAndForwardsRequest(t *testing.T) {
	var out bytes.Buffer
	chain := intercept.NewChain()
	chain.Add(intercept.HeaderInjector{Name: "X-Proxy", Value: "hostgate"})

	tr := New(context.Background(), RequestSide, NewProtocol(), chain, &out)

	raw := "GET /widgets HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	if _, err := tr.Write([]byte(raw)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := out.String()
	if !bytes.Contains([]byte(got), []byte("X-Proxy: hostgate")) {
		t.Fatalf("expected injected header in output, got %q", got)
	}
	if !bytes.HasSuffix([]byte(got), []byte("hello")) {
		t.Fatalf("expected body forwarded, got %q", got)
	}
}

func TestTransducerLatchesOpaqueOnUpgrade(t *testing.T) {
	var out bytes.Buffer
	protocol := NewProtocol()
	tr := New(context.Background(), ResponseSide, protocol, nil, &out)

	upgrade := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n"
	if _, err := tr.Write([]byte(upgrade)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !protocol.IsOpaque() {
		t.Fatal("expected protocol to latch opaque after 101 response")
	}
	if protocol.Name() != "websocket" {
		t.Fatalf("expected protocol name websocket, got %q", protocol.Name())
	}

	out.Reset()
	raw := []byte{0x81, 0x05, 'h', 'e', 'l', 'l', 'o'}
	if _, err := tr.Write(raw); err != nil {
		t.Fatalf("Write opaque bytes: %v", err)
	}
	if !bytes.Equal(out.Bytes(), raw) {
		t.Fatalf("expected raw bytes passed through untouched, got %v", out.Bytes())
	}
}

func TestTransducerChainErrorStopsForwarding(t *testing.T) {
	var out bytes.Buffer
	chain := intercept.NewChain()
	chain.Add(intercept.MaxHeaderCount{Limit: 0})

	tr := New(context.Background(), RequestSide, NewProtocol(), chain, &out)
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if _, err := tr.Write([]byte(raw)); err == nil {
		t.Fatal("expected chain error to propagate from Write")
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing forwarded after chain rejection, got %q", out.String())
	}
}

func TestTransducerFlushEmitsPartialHead(t *testing.T) {
	var out bytes.Buffer
	tr := New(context.Background(), RequestSide, NewProtocol(), nil, &out)

	partial := "GET / HTTP/1.1\r\nHost: exam"
	if _, err := tr.Write([]byte(partial)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing forwarded before head completes, got %q", out.String())
	}
	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if out.String() != partial {
		t.Fatalf("expected Flush to emit buffered partial head, got %q", out.String())
	}
}
