package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hostgate/hostgate/internal/domain/intercept"
	"github.com/hostgate/hostgate/internal/domain/route"
)

type fakeServer struct {
	active           int
	disconnectedHost string
	disconnectAll    bool
	toReturn         int

	status         string
	routes         []route.Entry
	reqInterceptor intercept.Transform
	respInterceptor intercept.Transform
}

func (f *fakeServer) DisconnectHost(host string) int {
	f.disconnectedHost = host
	return f.toReturn
}
func (f *fakeServer) DisconnectAll() int {
	f.disconnectAll = true
	return f.toReturn
}
func (f *fakeServer) ActiveConnections() int { return f.active }

func (f *fakeServer) Start() error {
	f.status = "active"
	return nil
}
func (f *fakeServer) Stop() error {
	f.status = "passive"
	return nil
}
func (f *fakeServer) GetStatus() string {
	if f.status == "" {
		return "active"
	}
	return f.status
}
func (f *fakeServer) GetConfig() []route.Entry { return f.routes }
func (f *fakeServer) SetConfig(entries []route.Entry) error {
	f.routes = entries
	return nil
}
func (f *fakeServer) AddRequestInterceptor(t intercept.Transform)  { f.reqInterceptor = t }
func (f *fakeServer) AddResponseInterceptor(t intercept.Transform) { f.respInterceptor = t }

var _ controlledServer = (*fakeServer)(nil)

func TestHandlerStatus(t *testing.T) {
	h := NewHandler(&fakeServer{active: 3}, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActiveConnections != 3 {
		t.Fatalf("expected 3 active connections, got %d", resp.ActiveConnections)
	}
}

func TestHandlerDisconnectByHost(t *testing.T) {
	fs := &fakeServer{toReturn: 2}
	h := NewHandler(fs, nil)

	body, _ := json.Marshal(disconnectRequest{Host: "example.com"})
	req := httptest.NewRequest(http.MethodPost, "/disconnect", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fs.disconnectedHost != "example.com" {
		t.Fatalf("expected host-scoped disconnect, got %q", fs.disconnectedHost)
	}
}

func TestHandlerDisconnectAllWithoutHost(t *testing.T) {
	fs := &fakeServer{toReturn: 5}
	h := NewHandler(fs, nil)

	req := httptest.NewRequest(http.MethodPost, "/disconnect", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !fs.disconnectAll {
		t.Fatal("expected DisconnectAll to be called when host is omitted")
	}
}

func TestHandlerDisconnectRejectsGET(t *testing.T) {
	h := NewHandler(&fakeServer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/disconnect", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandlerStopThenStart(t *testing.T) {
	fs := &fakeServer{}
	h := NewHandler(fs, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stop", nil))
	if fs.GetStatus() != "passive" {
		t.Fatalf("expected passive after stop, got %q", fs.GetStatus())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/start", nil))
	if fs.GetStatus() != "active" {
		t.Fatalf("expected active after start, got %q", fs.GetStatus())
	}
}

func TestHandlerSetConfigThenGetConfig(t *testing.T) {
	fs := &fakeServer{}
	h := NewHandler(fs, nil)

	body, _ := json.Marshal([]routeEntryDTO{
		{Host: "example.com", Kind: "tcp", TCPHost: "127.0.0.1", Port: "8081"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/config", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(fs.routes) != 1 || fs.routes[0].Host != "example.com" {
		t.Fatalf("expected one route installed, got %v", fs.routes)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))
	var got []routeEntryDTO
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].TCPHost != "127.0.0.1" {
		t.Fatalf("expected round-tripped route, got %v", got)
	}
}

func TestHandlerAddRequestInterceptor(t *testing.T) {
	fs := &fakeServer{}
	h := NewHandler(fs, nil)

	body, _ := json.Marshal(interceptorRequest{Type: "header_injector", Name: "X-Test", Value: "1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interceptors/request", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if fs.reqInterceptor == nil {
		t.Fatal("expected a request interceptor to be registered")
	}
}

func TestHandlerAddInterceptorRejectsUnknownType(t *testing.T) {
	h := NewHandler(&fakeServer{}, nil)

	body, _ := json.Marshal(interceptorRequest{Type: "bogus"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interceptors/request", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
