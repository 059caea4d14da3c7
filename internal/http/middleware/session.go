// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the cookie-backed form session used by the HTML pages:
//
//   - Sessions() makes sure each browser carries a CSRF token in a signed
//     cookie and exposes it to templates via CSRFToken().
//   - VerifyCSRF() rejects unsafe page requests whose csrf_token form field
//     does not match the signed cookie.
//   - SetFlash()/TakeFlash() carry a one-shot user message across a redirect.
//
// Cookies are signed with HMAC-SHA256 over the configured secret key, so a
// tampered cookie is treated as absent.
package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFField is the form field carrying the token.
	CSRFField = "csrf_token"

	csrfCookie  = "tm_csrf"
	flashCookie = "tm_flash"

	ctxKeySecret = "session.secret"
	ctxKeyCSRF   = "session.csrf"
	ctxKeySecure = "session.secure"
)

// SessionOptions configures Sessions.
type SessionOptions struct {
	// Secret signs cookies. It must not be empty.
	Secret []byte
	// Secure marks cookies Secure (HTTPS only).
	Secure bool
}

// Sessions ensures a signed CSRF token cookie exists and stashes the token
// and signing secret in the Gin context.
func Sessions(opts SessionOptions) gin.HandlerFunc {
	secret := append([]byte(nil), opts.Secret...)
	return func(c *gin.Context) {
		c.Set(ctxKeySecret, secret)
		c.Set(ctxKeySecure, opts.Secure)

		token := ""
		if raw, err := c.Cookie(csrfCookie); err == nil {
			token, _ = Unsign(secret, raw)
		}
		if token == "" {
			token = newToken()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(csrfCookie, Sign(secret, token), 0, "/", "", opts.Secure, true)
		}
		c.Set(ctxKeyCSRF, token)
		c.Next()
	}
}

// VerifyCSRF rejects POST/PUT/PATCH/DELETE page requests without a matching
// token with 403. It must run after Sessions.
func VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		want := CSRFToken(c)
		got := c.PostForm(CSRFField)
		if want == "" || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			LoggerFrom(c).Warn().Msg("csrf token mismatch")
			c.Data(http.StatusForbidden, "text/html; charset=utf-8",
				[]byte(`<!doctype html><p>Your form expired. <a href="/">Back to the list</a></p>`))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRFToken returns the token for the current request, or "" outside Sessions.
func CSRFToken(c *gin.Context) string {
	v, _ := c.Get(ctxKeyCSRF)
	s, _ := v.(string)
	return s
}

// SetFlash stores a one-shot message shown on the next rendered page.
func SetFlash(c *gin.Context, msg string) {
	secret := secretFrom(c)
	if secret == nil || msg == "" {
		return
	}
	enc := base64.RawURLEncoding.EncodeToString([]byte(msg))
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, Sign(secret, enc), 60, "/", "", secureFrom(c), true)
}

// TakeFlash returns and clears the pending flash message.
func TakeFlash(c *gin.Context) string {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", secureFrom(c), true)

	enc, ok := Unsign(secretFrom(c), raw)
	if !ok {
		return ""
	}
	b, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return ""
	}
	return string(b)
}

// Sign returns value.signature.
func Sign(secret []byte, value string) string {
	return value + "." + mac(secret, value)
}

// Unsign verifies a value produced by Sign and returns the payload.
func Unsign(secret []byte, signed string) (string, bool) {
	if len(secret) == 0 {
		return "", false
	}
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(mac(secret, value))) {
		return "", false
	}
	return value, true
}

func mac(secret []byte, value string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func secretFrom(c *gin.Context) []byte {
	v, _ := c.Get(ctxKeySecret)
	b, _ := v.([]byte)
	return b
}

func secureFrom(c *gin.Context) bool {
	v, _ := c.Get(ctxKeySecure)
	b, _ := v.(bool)
	return b
}
