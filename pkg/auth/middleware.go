// Package auth verifies participant identity and applies request policy.
// Identity issuance is external: callers present an opaque user id signed
// with a shared HMAC secret, and the middleware injects the verified
// identity into the request context.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"vagentd/pkg/config"
	"vagentd/pkg/logger"
	"vagentd/pkg/models"
)

// SecConfig carries the request-policy settings for the middleware.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
}

// open paths served without identity; probes and scrapes do not sign.
var openPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// Middleware returns a handler wrapper enforcing CORS, per-user rate
// limits and signed identity headers (X-User-ID, X-User-Signature, plus
// display-only X-User-Email).
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	pool := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-User-Email, X-User-Signature")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if _, open := openPaths[r.URL.Path]; open {
				next.ServeHTTP(w, r)
				return
			}

			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			sig := strings.TrimSpace(r.Header.Get("X-User-Signature"))
			if userID == "" || sig == "" {
				logger.Warn("missing_identity_headers", "path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, `{"error":"missing identity headers"}`, http.StatusUnauthorized)
				return
			}
			if userID == models.AgentID {
				// the agent sentinel never authenticates as a user
				http.Error(w, `{"error":"reserved user id"}`, http.StatusUnauthorized)
				return
			}

			keys := config.GetSigningKeys()
			if len(keys) == 0 {
				logger.Error("no_signing_keys_configured")
				http.Error(w, `{"error":"server misconfigured: no signing secrets available"}`, http.StatusInternalServerError)
				return
			}
			if !verify(keys, userID, sig) {
				logger.Warn("invalid_signature", "user", userID)
				http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
				return
			}

			if !pool.Allow(userID) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			ident := models.Participant{ID: userID, Email: strings.TrimSpace(r.Header.Get("X-User-Email"))}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// Sign computes the signature a client must present for userID under key.
// Shared with tests and bundled tooling.
func Sign(key, userID string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(keys map[string]struct{}, userID, sig string) bool {
	for k := range keys {
		expected := Sign(k, userID)
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
