/*
auth.go - Session tokens and authorization middleware

PURPOSE:
  Issues HS256 session tokens at login and verifies them on every other
  route. Two middleware layers gate the routes: RequireAuth parses the
  bearer token and loads the caller identity into the request context;
  RequireAdmin additionally demands the admin role.

RATE LIMITING:
  Login is the only credential-checked endpoint, so it carries a
  per-client-IP token bucket to slow guessing. Other routes are not
  limited.

SEE ALSO:
  - handlers.go: Login handler issuing the tokens
  - parking/ledger.go: Credential check (Authenticate)
*/
package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/warp/slotkeeper/parking"
)

// tokenTTL is how long an issued session token stays valid.
const tokenTTL = 24 * time.Hour

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, stored in the request context.
type Identity struct {
	UserID string
	Role   parking.Role
}

func (id Identity) IsAdmin() bool { return id.Role == parking.RoleAdmin }

// IdentityFrom extracts the caller identity set by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// =============================================================================
// TOKENS
// =============================================================================

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// issueToken mints a signed session token for a user.
func (h *Handler) issueToken(user *parking.User, now time.Time) (string, error) {
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// parseToken verifies a session token and returns the caller identity.
func (h *Handler) parseToken(raw string) (Identity, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, parking.ErrForbidden
	}
	return Identity{UserID: claims.Subject, Role: parking.Role(claims.Role)}, nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity in the context for handlers downstream.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		identity, err := h.parseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route to admin callers. Must run after RequireAuth.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok || !identity.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// LOGIN RATE LIMITER
// =============================================================================

// loginLimiter hands out one token bucket per client IP. Entries are never
// evicted; the map stays small because each distinct IP costs one bucket.
type loginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Every(time.Second),
		burst:   5,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = bucket
	}
	return bucket.Allow()
}

// RateLimitLogin rejects clients that hammer the login endpoint.
func (h *Handler) RateLimitLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !h.loginLimiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "Too many login attempts", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
