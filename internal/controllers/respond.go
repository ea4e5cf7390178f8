package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/session"
)

// respondError writes {error} with the status the error kind maps to.
// Anything unclassified is a 500 whose cause is logged, not returned.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		ae *services.AccessError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Message})
	case errors.As(err, &ae):
		c.JSON(statusFor(ae.Kind), gin.H{"error": ae.Message})
	case errors.Is(err, services.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": services.ErrTooManyAttempts.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, services.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PrivilegeVerifier is the subset of AuthService controllers need to decide
// admin-only views on public routes.
type PrivilegeVerifier interface {
	VerifyPrivilege(ctx context.Context, sess *session.Session) (services.PrivilegeVerdict, error)
}

// verifiedAdmin reports whether the caller is a database-confirmed admin
// acting as themselves. Routes behind RequireAdmin skip the lookup.
func verifiedAdmin(c *gin.Context, verifier PrivilegeVerifier) (bool, error) {
	if middleware.IsAdmin(c) {
		return true, nil
	}
	sess, ok := middleware.SessionFrom(c)
	if !ok || sess.IsImpersonating {
		return false, nil
	}
	verdict, err := verifier.VerifyPrivilege(c.Request.Context(), sess)
	if err != nil {
		return false, err
	}
	return verdict.IsAdmin, nil
}

// wantsAll reads the ?all=true switch used by list endpoints.
func wantsAll(c *gin.Context) bool {
	return c.Query("all") == "true"
}

// bindMap decodes a JSON object body for whitelisted updates.
func bindMap(c *gin.Context) (map[string]any, bool) {
	raw := map[string]any{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, "Invalid request body")
		return nil, false
	}
	return raw, true
}

// bindJSON decodes the body into dst, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}
