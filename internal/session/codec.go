package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptySecret = errors.New("session: signing secret is empty")

// claims keeps expiry in the millisecond expiresAt field only; the
// registered exp claim would round it down to whole seconds.
type claims struct {
	Session
	jwt.RegisteredClaims
}

// Codec turns a Session into a cookie value and back. Values are HS256
// signed so a client cannot mint its own session.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) Now() time.Time {
	return c.now()
}

func (c *Codec) Encode(s Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  s.StudentID,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	})
	return token.SignedString(c.secret)
}

// Decode returns the session in value, or false when it is missing,
// malformed, badly signed, or expired. It never panics.
func (c *Codec) Decode(value string) (*Session, bool) {
	if value == "" {
		return nil, false
	}
	var out claims
	token, err := jwt.ParseWithClaims(value, &out, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	s := out.Session
	if !s.wellFormed() || s.Expired(c.now()) {
		return nil, false
	}
	return &s, true
}
