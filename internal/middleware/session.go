package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harentsoaR/dentist-portal/internal/auth"
)

const (
	authContextKey = "authContext"
	sessionIDKey   = "sessionID"
)

type CookieOptions struct {
	Name   string
	Secure bool
	// MaxAge in seconds; zero makes it a browser-session cookie.
	MaxAge int
}

// Session resolves the browser's Auth Context from its session cookie, issuing
// a new id when the cookie is missing or malformed.
func Session(reg *auth.Registry, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(opts.Name)
		if err != nil {
			sid = uuid.NewString()
		} else if _, perr := uuid.Parse(sid); perr != nil {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opts.Name, sid, opts.MaxAge, "/", "", opts.Secure, true)

		ac := reg.Get(sid)
		c.Set(sessionIDKey, sid)
		c.Set(authContextKey, ac)
		c.Request = c.Request.WithContext(auth.WithContext(c.Request.Context(), ac))

		c.Next()
	}
}

// AuthContext returns the context stored by Session.
func AuthContext(c *gin.Context) *auth.Context {
	v, ok := c.Get(authContextKey)
	if !ok {
		return nil
	}
	ac, _ := v.(*auth.Context)
	return ac
}

func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Hydrate runs the one-time hydration of the browser's session. A client that
// disconnects mid-verify must not purge a valid session, so cancellation of
// the request is not propagated.
func Hydrate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ac := AuthContext(c); ac != nil {
			ac.Hydrate(context.WithoutCancel(c.Request.Context()))
		}
		c.Next()
	}
}
