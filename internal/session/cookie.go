package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const DefaultCookieName = "session"

// Cookies reads and writes the session cookie on a gin context.
type Cookies struct {
	Codec  *Codec
	Name   string
	Secure bool
}

func NewCookies(codec *Codec, name string, secure bool) *Cookies {
	if name == "" {
		name = DefaultCookieName
	}
	return &Cookies{Codec: codec, Name: name, Secure: secure}
}

// Read returns the session from the request cookie. A missing, malformed or
// expired cookie reads as absent.
func (k *Cookies) Read(c *gin.Context) (*Session, bool) {
	value, err := c.Cookie(k.Name)
	if err != nil {
		return nil, false
	}
	return k.Codec.Decode(value)
}

// Write overwrites the cookie with s, valid for ttl.
func (k *Cookies) Write(c *gin.Context, s Session, ttl time.Duration) error {
	value, err := k.Codec.Encode(s)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.Name, value, int(ttl/time.Second), "/", "", k.Secure, true)
	return nil
}

// Clear deletes the cookie.
func (k *Cookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.Name, "", -1, "/", "", k.Secure, true)
}
