package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/session"
)

const (
	sessionKey = "session"
	adminKey   = "isAdmin"
)

// PrivilegeVerifier re-checks a session's admin claim against the database.
type PrivilegeVerifier interface {
	VerifyPrivilege(ctx context.Context, sess *session.Session) (services.PrivilegeVerdict, error)
}

// SessionLoader puts the cookie session, if any, on the context. It never
// rejects a request.
func SessionLoader(cookies *session.Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, ok := cookies.Read(c); ok {
			c.Set(sessionKey, sess)
		}
		c.Next()
	}
}

// RequireSession rejects requests without a valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin lets a request through only when the database confirms the
// caller is an admin. Impersonated sessions are refused even though the
// admin behind them is real.
func RequireAdmin(verifier PrivilegeVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if sess.IsImpersonating {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": services.ErrImpersonationActive.Message})
			return
		}
		verdict, err := verifier.VerifyPrivilege(c.Request.Context(), sess)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "auth: privilege check failed", "error", err)
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !verdict.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": services.ErrAdminRequired.Message})
			return
		}
		c.Set(adminKey, true)
		c.Next()
	}
}

// SessionFrom returns the session SessionLoader stored, if any.
func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok && sess != nil
}

// StudentID is the acting subject of the request's session.
func StudentID(c *gin.Context) (uuid.UUID, error) {
	sess, ok := SessionFrom(c)
	if !ok {
		return uuid.Nil, services.ErrUnauthorized
	}
	id, err := sess.SubjectUUID()
	if err != nil {
		return uuid.Nil, errors.Join(services.ErrUnauthorized, err)
	}
	return id, nil
}

// IsAdmin reports whether RequireAdmin already verified this request.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(adminKey)
}
