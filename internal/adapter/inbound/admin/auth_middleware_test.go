package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hostgate/hostgate/internal/domain/auth"
)

func TestRequireBearerTokenRejectsMissing(t *testing.T) {
	hash, err := auth.HashToken("secret")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := RequireBearerToken(auth.NewTokenVerifier(hash), next)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatal("next handler should not run without a token")
	}
}

func TestRequireBearerTokenAcceptsValid(t *testing.T) {
	hash, err := auth.HashToken("secret")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := RequireBearerToken(auth.NewTokenVerifier(hash), next)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatal("expected next handler to run with a valid token")
	}
}
