package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// rateLimiter tracks failed authentication attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// prune drops attempts outside the window. Caller holds mu.
func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// limited reports whether ip has used up its failures for the window.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip, rl.now())) >= rateLimitMaxFail
}

// recordFailure records a failed attempt for ip.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	rl.attempts[ip] = append(rl.prune(ip, now), now)
}

// Authenticator resolves bearer credentials to an email. A credential is
// either a stored API key or a signed token.
type Authenticator struct {
	keys    *APIKeyStore
	tokens  *TokenIssuer
	limiter *rateLimiter
}

// NewAuthenticator creates an authenticator. tokens may be nil, in which
// case only API keys are accepted.
func NewAuthenticator(keys *APIKeyStore, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{keys: keys, tokens: tokens, limiter: newRateLimiter()}
}

// Authenticate returns the email behind raw, or "" if it is not accepted.
func (a *Authenticator) Authenticate(raw string) (string, error) {
	if IsAPIKey(raw) {
		return a.keys.Validate(raw)
	}
	if a.tokens == nil {
		return "", nil
	}
	email, err := a.tokens.Verify(raw)
	if err != nil {
		slog.Debug("bearer token rejected", "error", err)
		return "", nil
	}
	return email, nil
}

// RequireToken is middleware that validates Bearer token auth.
// Returns 401 for missing/invalid credentials, 429 for rate-limited IPs.
// On success the caller's email is available through EmailFromContext.
func (a *Authenticator) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if a.limiter.limited(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		authHeader := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(authHeader, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		email, err := a.Authenticate(raw)
		if err != nil {
			slog.Error("authenticating request", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if email == "" {
			a.limiter.recordFailure(ip)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("writing auth error", "error", err)
	}
}
