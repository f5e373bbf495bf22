// Package service orchestrates the proxy core: accepting connections,
// resolving routes, dialing backends, and wiring up the bidirectional
// transducer pipeline between them.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hostgate/hostgate/internal/adapter/inbound/metrics"
	"github.com/hostgate/hostgate/internal/ctxkey"
	"github.com/hostgate/hostgate/internal/domain/intercept"
	"github.com/hostgate/hostgate/internal/domain/proxyerr"
	"github.com/hostgate/hostgate/internal/domain/route"
	"github.com/hostgate/hostgate/internal/domain/tracker"
	"github.com/hostgate/hostgate/internal/domain/transducer"
	"github.com/hostgate/hostgate/internal/port/inbound"
	"github.com/hostgate/hostgate/internal/port/outbound"
	"github.com/hostgate/hostgate/pkg/httpmsg"
)

var _ inbound.Server = (*ProxyServer)(nil)

// EventType and Callback are the control surface's event vocabulary,
// defined on the inbound port so adapters can reference them without
// importing this package.
type (
	EventType = inbound.EventType
	Callback  = inbound.Callback
)

const (
	EventConnect    = inbound.EventConnect
	EventDisconnect = inbound.EventDisconnect
	EventError      = inbound.EventError
)

// ProxyServer is the accept/dial/relay engine described by the proxy's
// component design. It owns no listener itself; Serve is handed one so
// callers control how and where it binds.
type ProxyServer struct {
	resolver atomic.Pointer[route.Resolver]
	dialer   outbound.Dialer
	tracker  *tracker.Tracker
	metrics  *metrics.Set
	logger   *slog.Logger

	reqChain  *intercept.Chain
	respChain *intercept.Chain

	active atomic.Bool

	cfgMu  sync.RWMutex
	routes []route.Entry

	cbMu      sync.RWMutex
	callbacks map[EventType][]Callback
}

// New builds a ProxyServer, active from construction. metrics may be nil,
// in which case no metrics are recorded.
func New(resolver route.Resolver, dialer outbound.Dialer, m *metrics.Set, logger *slog.Logger) *ProxyServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ProxyServer{
		dialer:    dialer,
		tracker:   tracker.New(),
		metrics:   m,
		logger:    logger,
		reqChain:  intercept.NewChain(),
		respChain: intercept.NewChain(),
		callbacks: make(map[EventType][]Callback),
	}
	s.resolver.Store(&resolver)
	s.active.Store(true)
	return s
}

// SetCallback registers fn to run whenever event fires. Callbacks run
// synchronously on the connection's own goroutine and must not block.
func (s *ProxyServer) SetCallback(event EventType, fn Callback) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks[event] = append(s.callbacks[event], fn)
}

// GetCallbacks returns a copy of the currently registered event callbacks.
func (s *ProxyServer) GetCallbacks() map[EventType][]Callback {
	s.cbMu.RLock()
	defer s.cbMu.RUnlock()
	out := make(map[EventType][]Callback, len(s.callbacks))
	for ev, cbs := range s.callbacks {
		out[ev] = append([]Callback(nil), cbs...)
	}
	return out
}

// SetCallbacks atomically replaces the registered event callbacks.
func (s *ProxyServer) SetCallbacks(callbacks map[EventType][]Callback) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = make(map[EventType][]Callback, len(callbacks))
	for ev, cbs := range callbacks {
		s.callbacks[ev] = append([]Callback(nil), cbs...)
	}
}

func (s *ProxyServer) fire(event EventType, host string, err error) {
	s.cbMu.RLock()
	cbs := s.callbacks[event]
	s.cbMu.RUnlock()
	for _, cb := range cbs {
		cb(host, err)
	}
}

// AddRequestInterceptor appends t to the request-side chain.
func (s *ProxyServer) AddRequestInterceptor(t intercept.Transform) {
	s.reqChain.Add(t)
}

// AddResponseInterceptor appends t to the response-side chain.
func (s *ProxyServer) AddResponseInterceptor(t intercept.Transform) {
	s.respChain.Add(t)
}

// SetRouteResolver atomically swaps the resolver used to route new
// connections.
func (s *ProxyServer) SetRouteResolver(r route.Resolver) {
	s.resolver.Store(&r)
}

// GetConfig returns the route entries most recently installed via
// SetConfig. It is empty until SetConfig has been called at least once,
// even if a resolver was supplied to New or via SetRouteResolver directly.
func (s *ProxyServer) GetConfig() []route.Entry {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return append([]route.Entry(nil), s.routes...)
}

// GetRoutes is an alias for GetConfig, exposed under the control surface's
// own name for the operation.
func (s *ProxyServer) GetRoutes() []route.Entry {
	return s.GetConfig()
}

// SetConfig atomically rebuilds the route table from entries and installs
// a DefaultResolver over it as the active resolver.
func (s *ProxyServer) SetConfig(entries []route.Entry) error {
	table := route.Build(entries)
	s.SetRouteResolver(route.NewDefaultResolver(table))

	s.cfgMu.Lock()
	s.routes = append([]route.Entry(nil), entries...)
	s.cfgMu.Unlock()
	return nil
}

// DisconnectHost closes every active connection routed to host.
func (s *ProxyServer) DisconnectHost(host string) int {
	return s.tracker.DisconnectHost(host)
}

// DisconnectAll closes every active connection.
func (s *ProxyServer) DisconnectAll() int {
	return s.tracker.DisconnectAll()
}

// ActiveConnections reports the number of currently proxied connections.
func (s *ProxyServer) ActiveConnections() int {
	return s.tracker.Count()
}

// Start marks the server active: subsequently accepted connections are
// proxied normally.
func (s *ProxyServer) Start() error {
	s.active.Store(true)
	return nil
}

// Stop marks the server passive: subsequently accepted connections are
// rejected with a 503 and closed. It does not drop connections already in
// flight; callers that need those closed too should call DisconnectAll.
func (s *ProxyServer) Stop() error {
	s.active.Store(false)
	return nil
}

// GetStatus reports "active" or "passive".
func (s *ProxyServer) GetStatus() string {
	if s.active.Load() {
		return "active"
	}
	return "passive"
}

// Serve accepts connections from ln until ctx is cancelled or Accept fails.
// Each accepted connection is handled on its own goroutine; Serve does not
// wait for in-flight connections to finish before returning. Serve's own
// lifetime is bound to ctx and ln, independent of Start/Stop, which only
// gate whether a newly accepted connection is actually proxied.
func (s *ProxyServer) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("service: accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *ProxyServer) loadResolver() route.Resolver {
	if r := s.resolver.Load(); r != nil {
		return *r
	}
	return nil
}

func (s *ProxyServer) handleConn(ctx context.Context, client net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic handling connection", "panic", r)
		}
	}()

	if !s.active.Load() {
		_ = proxyerr.WriteStatus(client, 503)
		_ = client.Close()
		return
	}

	first := make([]byte, 64*1024)
	n, err := client.Read(first)
	if err != nil {
		_ = client.Close()
		if s.metrics != nil {
			s.metrics.ConnectionErrors.WithLabelValues("read").Inc()
		}
		s.fire(EventError, "", err)
		return
	}

	req, err := parseFirstRequest(first[:n])
	if err != nil {
		s.logger.Debug("rejecting connection with unparseable first request", "error", err)
		_ = proxyerr.WriteStatus(client, 400)
		_ = client.Close()
		if s.metrics != nil {
			s.metrics.ConnectionErrors.WithLabelValues("parse").Inc()
		}
		s.fire(EventError, "", err)
		return
	}

	resolver := s.loadResolver()
	ep, ok := resolver.Resolve(req)
	if !ok {
		s.logger.Debug("no route for request", "host", headerOrEmpty(req, "Host"))
		_ = proxyerr.WriteStatus(client, 404)
		_ = client.Close()
		if s.metrics != nil {
			s.metrics.ConnectionErrors.WithLabelValues("route").Inc()
		}
		s.fire(EventError, "", errors.New("service: no route for host"))
		return
	}
	rawHost, _ := req.Headers.Get("Host")
	host := route.StripPort(rawHost)

	backend, err := s.dialer.Dial(ctx, ep)
	if err != nil {
		s.logger.Warn("backend dial failed", "host", host, "endpoint", ep.Addr(), "error", err)
		_ = proxyerr.WriteStatus(client, 503)
		_ = client.Close()
		if s.metrics != nil {
			s.metrics.ConnectionErrors.WithLabelValues("dial").Inc()
		}
		s.fire(EventError, host, err)
		return
	}

	tracked := s.tracker.Add(host, client, backend)
	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
		s.metrics.ConnectionsTotal.WithLabelValues(host).Inc()
	}
	s.fire(EventConnect, host, nil)

	connLogger := s.logger.With("trace_id", tracked.TraceID, "host", host)
	connCtx := context.WithValue(ctx, ctxkey.LoggerKey{}, connLogger)

	relayErr := s.relay(connCtx, tracked, first[:n])

	if s.tracker.Remove(tracked.ID) {
		_ = client.Close()
		_ = backend.Close()
		if s.metrics != nil {
			s.metrics.ActiveConnections.Dec()
		}
	}
	s.fire(EventDisconnect, host, relayErr)
}

// relay installs the request-side and response-side transducers over the
// already-dialed backend and pumps bytes in both directions. When one side
// reaches end of stream, the write half of the other socket is closed so
// that peer sees end of stream too; relay returns once both directions have
// ended, or as soon as either fails, in which case both sockets are closed.
// firstChunk is the bytes already read from the client before
// the backend existed; feeding it through the request transducer here,
// instead of discarding it, is what keeps a client that pipelines body
// bytes into its very first TCP segment from losing them.
func (s *ProxyServer) relay(ctx context.Context, c *tracker.Conn, firstChunk []byte) error {
	logger := loggerFromContext(ctx, s.logger)
	logger.Debug("relay started", "client", c.Client.RemoteAddr(), "backend", c.Backend.RemoteAddr())

	protocol := transducer.NewProtocol()
	defer func() {
		if s.metrics != nil && protocol.IsOpaque() {
			s.metrics.UpgradesTotal.Inc()
		}
	}()
	reqT := transducer.New(ctx, transducer.RequestSide, protocol, s.reqChain, c.Backend)
	respT := transducer.New(ctx, transducer.ResponseSide, protocol, s.respChain, c.Client)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := reqT.Write(firstChunk); err != nil {
			errCh <- fmt.Errorf("service: request head: %w", err)
			return
		}
		n, err := pump(c.Client, reqT, s.bytesCounter("client_to_backend"))
		_ = n
		if err != nil && !isClosedErr(err) {
			errCh <- fmt.Errorf("service: client->backend: %w", err)
			return
		}
		if cw, ok := c.Backend.(interface{ CloseWrite() error }); ok {
			_ = cw.CloseWrite()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := pump(c.Backend, respT, s.bytesCounter("backend_to_client"))
		_ = n
		if err != nil && !isClosedErr(err) {
			errCh <- fmt.Errorf("service: backend->client: %w", err)
			return
		}
		if cw, ok := c.Client.(interface{ CloseWrite() error }); ok {
			_ = cw.CloseWrite()
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case err := <-errCh:
		logger.Warn("relay ended with error", "error", err)
		_ = c.Client.Close()
		_ = c.Backend.Close()
		<-done
		return err
	}
}

// loggerFromContext retrieves the per-connection logger stashed by
// handleConn, falling back to base when ctx carries none.
func loggerFromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return base
}

func (s *ProxyServer) bytesCounter(direction string) func(int) {
	if s.metrics == nil {
		return func(int) {}
	}
	return func(n int) {
		s.metrics.BytesForwarded.WithLabelValues(direction).Add(float64(n))
	}
}

// pump reads from src and writes each chunk through dst, until src returns
// EOF or an error. Either way, dst is flushed before returning so bytes the
// transducer was still holding for a not-yet-complete head aren't dropped
// on a half-close.
func pump(src io.Reader, dst *transducer.Transducer, onBytes func(int)) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			onBytes(n)
			total += int64(n)
		}
		if rerr != nil {
			ferr := dst.Flush()
			if rerr == io.EOF {
				return total, ferr
			}
			return total, rerr
		}
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}

func parseFirstRequest(data []byte) (*httpmsg.Message, error) {
	var msg *httpmsg.Message
	p := httpmsg.NewRequestParser()
	p.OnHead = func(m *httpmsg.Message) { msg = m }
	if err := p.Feed(data); err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.New("service: incomplete request head in first segment")
	}
	return msg, nil
}

func headerOrEmpty(m *httpmsg.Message, name string) string {
	v, _ := m.Headers.Get(name)
	return v
}
