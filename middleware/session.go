package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/cart"
)

const identityKey = "cart_identity"

type SessionOptions struct {
	JWTSecret     string
	CookieName    string
	LegacyCookies []string
	// MaxAge of zero issues a session-scoped cookie.
	MaxAge time.Duration
	Secure bool
	Domain string
	Logger *zap.Logger
}

// Session resolves the acting identity once per request. A valid user token
// sets the user id; every request also gets a guest session id, read from
// the primary cookie, migrated from a legacy cookie, or freshly minted.
func Session(opts SessionOptions) gin.HandlerFunc {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		var id cart.Identity
		if header := c.GetHeader("Authorization"); header != "" {
			uid, err := auth.UserID(header, opts.JWTSecret)
			if err == nil {
				id.UserID = uid
			} else if !errors.Is(err, auth.ErrNoUser) {
				opts.Logger.Debug("ignoring invalid bearer token", zap.Error(err))
			}
		}

		sid, fromLegacy := readSessionCookie(c, opts)
		switch {
		case sid == "":
			minted, err := auth.NewSessionID()
			if err != nil {
				opts.Logger.Error("mint session id", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": cart.CodeInternal})
				return
			}
			sid = minted
			writeSessionCookie(c, opts, sid)
		case fromLegacy:
			writeSessionCookie(c, opts, sid)
			expireLegacyCookies(c, opts)
		}
		id.SessionID = sid

		c.Set(identityKey, id)
		c.Next()
	}
}

func readSessionCookie(c *gin.Context, opts SessionOptions) (sid string, legacy bool) {
	if v, err := c.Cookie(opts.CookieName); err == nil && auth.ValidSessionID(v) {
		return v, false
	}
	for _, name := range opts.LegacyCookies {
		if v, err := c.Cookie(name); err == nil && auth.ValidSessionID(v) {
			return v, true
		}
	}
	return "", false
}

func writeSessionCookie(c *gin.Context, opts SessionOptions, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.CookieName, sid, int(opts.MaxAge/time.Second), "/", opts.Domain, opts.Secure, true)
}

func expireLegacyCookies(c *gin.Context, opts SessionOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	for _, name := range opts.LegacyCookies {
		if _, err := c.Cookie(name); err == nil {
			c.SetCookie(name, "", -1, "/", opts.Domain, opts.Secure, true)
		}
	}
}

// ClearSessionCookies expires the primary and legacy cookies.
func ClearSessionCookies(c *gin.Context, opts SessionOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.CookieName, "", -1, "/", opts.Domain, opts.Secure, true)
	for _, name := range opts.LegacyCookies {
		c.SetCookie(name, "", -1, "/", opts.Domain, opts.Secure, true)
	}
}

// Identity returns the identity resolved by Session.
func Identity(c *gin.Context) cart.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(cart.Identity); ok {
			return id
		}
	}
	return cart.Identity{}
}
