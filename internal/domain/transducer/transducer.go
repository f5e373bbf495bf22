package transducer

import (
	"context"
	"io"

	"github.com/hostgate/hostgate/internal/domain/intercept"
	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// Side identifies which direction of a connection a Transducer handles,
// which in turn selects whether it parses request or response heads. Only a
// ResponseSide Transducer watches for the 101 response that latches the
// shared Protocol cell.
type Side int

const (
	// RequestSide transduces bytes flowing from client to backend.
	RequestSide Side = iota
	// ResponseSide transduces bytes flowing from backend to client.
	ResponseSide
)

// Transducer reframes one direction of a connection's byte stream. While
// the shared Protocol cell reports plain HTTP, it buffers until a full head
// is available, runs that head through the given interceptor chain, and
// re-serializes it before forwarding; body bytes already associated with a
// framed head stream straight through as they arrive. Once the Protocol
// cell latches to an upgraded protocol, Write becomes a pure byte copy.
type Transducer struct {
	side     Side
	protocol *Protocol
	chain    *intercept.Chain
	down     io.Writer
	ctx      context.Context

	parser     *httpmsg.Parser
	chainErr   error
}

// New builds a Transducer for one direction of a connection. down is the
// writer bytes are forwarded to once processed; ctx bounds interceptor
// execution (interceptors are expected to be non-blocking, but a context
// still lets the caller cancel the surrounding connection).
func New(ctx context.Context, side Side, protocol *Protocol, chain *intercept.Chain, down io.Writer) *Transducer {
	t := &Transducer{
		side:     side,
		protocol: protocol,
		chain:    chain,
		down:     down,
		ctx:      ctx,
	}
	if side == RequestSide {
		t.parser = httpmsg.NewRequestParser()
	} else {
		t.parser = httpmsg.NewResponseParser()
	}
	t.parser.OnHead = t.onHead
	t.parser.OnBody = t.onBody
	return t
}

// Write feeds chunk through the transducer. In opaque mode it is a direct
// pass-through; in framed mode it drives the underlying Parser, which
// invokes onHead/onBody synchronously as complete pieces become available.
// Write never buffers chunk itself beyond what the Parser needs to find a
// head boundary, so callers may reuse chunk's backing array after Write
// returns only if the Parser does not retain it — see httpmsg.Parser.Feed.
func (t *Transducer) Write(chunk []byte) (int, error) {
	if t.protocol.IsOpaque() {
		n, err := t.down.Write(chunk)
		return n, err
	}
	if err := t.parser.Feed(chunk); err != nil {
		return 0, err
	}
	if t.chainErr != nil {
		err := t.chainErr
		t.chainErr = nil
		return 0, err
	}
	return len(chunk), nil
}

// Flush writes out any bytes the Parser was still holding while waiting for
// more data (typically a connection closing mid-head), so a mid-stream
// teardown never silently drops bytes the parser had already buffered.
func (t *Transducer) Flush() error {
	if t.protocol.IsOpaque() {
		return nil
	}
	tail := t.parser.Flush()
	if len(tail) == 0 {
		return nil
	}
	_, err := t.down.Write(tail)
	return err
}

func (t *Transducer) onHead(msg *httpmsg.Message) {
	chain := t.chain
	if chain != nil {
		if err := chain.Apply(t.ctx, msg); err != nil {
			// Surface the error to the caller of Write; the proxy server
			// then tears the connection down without writing any response,
			// so the head is deliberately not forwarded.
			t.chainErr = err
			return
		}
	}
	if t.side == ResponseSide && msg.IsResponse() && msg.StatusCode == 101 {
		token, _ := msg.UpgradeProtocol()
		t.protocol.Upgrade(token)
	}
	_, _ = t.down.Write(httpmsg.Serialize(msg))
}

func (t *Transducer) onBody(chunk []byte) {
	_, _ = t.down.Write(chunk)
}
