package httpmsg

import (
	"bytes"
	"strconv"
	"strings"
)

type chunkPhase int

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseData
	chunkPhaseDataCRLF
	chunkPhaseTrailer
	chunkPhaseDone
)

// chunkDecoderState tracks progress through RFC 7230 §4.1 chunked framing
// across arbitrarily small Feed calls.
type chunkDecoderState struct {
	phase        chunkPhase
	sizeBuf      bytes.Buffer
	left         int64
	trailBuf     bytes.Buffer
	crlfConsumed int
}

// feedChunked consumes as much of chunk as belongs to the chunked body
// currently being decoded, emitting decoded data via p.OnBody, and returns
// the remaining, unconsumed bytes (non-empty only once the terminating
// trailer section has been fully read).
func (p *Parser) feedChunked(chunk []byte) ([]byte, error) {
	for len(chunk) > 0 {
		switch p.chunkState.phase {
		case chunkPhaseSize:
			i := bytes.IndexByte(chunk, '\n')
			if i < 0 {
				p.chunkState.sizeBuf.Write(chunk)
				return nil, nil
			}
			p.chunkState.sizeBuf.Write(chunk[:i+1])
			chunk = chunk[i+1:]
			line := strings.TrimRight(p.chunkState.sizeBuf.String(), "\r\n")
			p.chunkState.sizeBuf.Reset()
			if semi := strings.IndexByte(line, ';'); semi >= 0 {
				line = line[:semi]
			}
			size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
			if err != nil {
				return nil, parseErr("malformed chunk size")
			}
			if size == 0 {
				p.chunkState.phase = chunkPhaseTrailer
				continue
			}
			p.chunkState.left = size
			p.chunkState.phase = chunkPhaseData
		case chunkPhaseData:
			n := int64(len(chunk))
			if n > p.chunkState.left {
				n = p.chunkState.left
			}
			if n > 0 && p.OnBody != nil {
				p.OnBody(chunk[:n])
			}
			p.chunkState.left -= n
			chunk = chunk[n:]
			if p.chunkState.left == 0 {
				p.chunkState.phase = chunkPhaseDataCRLF
			}
		case chunkPhaseDataCRLF:
			// Consume the two-byte CRLF following chunk data, tolerating a
			// split across Feed calls by tracking how much was seen so far.
			need := 2 - p.chunkState.crlfConsumed
			consume := need
			if consume > len(chunk) {
				consume = len(chunk)
			}
			chunk = chunk[consume:]
			p.chunkState.crlfConsumed += consume
			if p.chunkState.crlfConsumed >= 2 {
				p.chunkState.crlfConsumed = 0
				p.chunkState.phase = chunkPhaseSize
			} else {
				return nil, nil
			}
		case chunkPhaseTrailer:
			i := bytes.Index(chunk, []byte("\r\n"))
			if i < 0 {
				p.chunkState.trailBuf.Write(chunk)
				return nil, nil
			}
			p.chunkState.trailBuf.Write(chunk[:i])
			trailerLine := p.chunkState.trailBuf.String()
			p.chunkState.trailBuf.Reset()
			chunk = chunk[i+2:]
			if trailerLine == "" {
				p.chunkState.phase = chunkPhaseDone
				p.state = stateHead
				return chunk, nil
			}
			// Trailer headers are read but discarded; the proxy does not
			// surface them to interceptors.
		case chunkPhaseDone:
			return chunk, nil
		}
	}
	return nil, nil
}
