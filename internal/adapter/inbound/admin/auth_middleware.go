package admin

import (
	"net/http"
	"strings"

	"github.com/hostgate/hostgate/internal/domain/auth"
)

// RequireBearerToken wraps next, rejecting any request that does not carry
// a valid "Authorization: Bearer <token>" header, per the control surface's
// token-gated access requirement.
func RequireBearerToken(verifier *auth.TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		valid, err := verifier.Verify(token)
		if err != nil || !valid {
			writeJSONError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
