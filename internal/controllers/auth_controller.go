package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/session"
)

type AuthController struct {
	auth    *services.AuthService
	cookies *session.Cookies
}

func NewAuthController(auth *services.AuthService, cookies *session.Cookies) *AuthController {
	return &AuthController{auth: auth, cookies: cookies}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type impersonateRequest struct {
	StudentID string `json:"studentId"`
}

// SendOTP answers the same way for registered and unknown phones
// POST /api/auth/send-otp
func (ac *AuthController) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	phone, err := ac.auth.IssueOTP(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": services.OTPSentMessage,
		"phone":   phone,
	})
}

// VerifyOTP exchanges a valid code for a session cookie
// POST /api/auth/verify-otp
func (ac *AuthController) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	student, sess, err := ac.auth.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := ac.cookies.Write(c, sess, ac.auth.SessionTTL()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"student": gin.H{"id": student.ID, "name": student.Name},
	})
}

// Logout drops the session cookie
// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	ac.cookies.Clear(c)
	success(c)
}

// Session returns the decoded session for the impersonation banner
// GET /api/auth/session
func (ac *AuthController) Session(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// Impersonate switches an admin's cookie to a target student
// POST /api/admin/impersonate
func (ac *AuthController) Impersonate(c *gin.Context) {
	var req impersonateRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, _ := middleware.SessionFrom(c)
	target, sess, err := ac.auth.StartImpersonation(c.Request.Context(), admin, req.StudentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := ac.cookies.Write(c, sess, ac.auth.SessionTTL()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Now impersonating " + target.Name,
		"student": gin.H{"id": target.ID, "name": target.Name},
	})
}

// StopImpersonate restores the original admin, re-checked in the database
// POST /api/admin/stop-impersonate
func (ac *AuthController) StopImpersonate(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	admin, restored, err := ac.auth.StopImpersonation(c.Request.Context(), sess)
	if err != nil {
		if errors.Is(err, services.ErrAdminRevoked) {
			ac.cookies.Clear(c)
		}
		respondError(c, err)
		return
	}
	if err := ac.cookies.Write(c, restored, ac.auth.SessionTTL()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Returned to admin account: " + admin.Name,
		"admin":   gin.H{"id": admin.ID, "name": admin.Name},
	})
}
