package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token for browser pages.
const SessionCookie = "leaderboard_session"

const gateKey = "auth.gate"

// Session attaches a TokenGate built from the bearer header or the session
// cookie. It never aborts: pages decide what an absent user means.
func Session(signingKey, issuer string, rev Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		gate := NewTokenGate(c.Request.Context(), RawToken(c), signingKey, issuer, rev)
		c.Set(gateKey, gate)
		c.Next()
	}
}

// RawToken returns the bearer token, falling back to the session cookie.
func RawToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// GateFrom returns the request's gate. Without Session installed it reports
// no user.
func GateFrom(c *gin.Context) Gate {
	if v, ok := c.Get(gateKey); ok {
		if g, ok := v.(Gate); ok {
			return g
		}
	}
	return &TokenGate{}
}

// WithGate replaces the request's gate.
func WithGate(c *gin.Context, g Gate) {
	c.Set(gateKey, g)
}
