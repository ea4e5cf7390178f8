package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/controllers"
)

func RegisterAuthRoutes(api *gin.RouterGroup, ac *controllers.AuthController, g Guards) {
	auth := api.Group("/auth")
	{
		// POST /api/auth/send-otp - issue a login code
		auth.POST("/send-otp", ac.SendOTP)

		// POST /api/auth/verify-otp - exchange the code for a session cookie
		auth.POST("/verify-otp", ac.VerifyOTP)

		auth.POST("/logout", ac.Logout)

		// GET /api/auth/session - current session, read by the impersonation banner
		auth.GET("/session", g.Session, ac.Session)
	}

	// Impersonation lives under /admin but is wired here so both halves
	// sit next to each other. Stop accepts an impersonated session, start
	// does not.
	api.POST("/admin/impersonate", g.Admin, ac.Impersonate)
	api.POST("/admin/stop-impersonate", g.Session, ac.StopImpersonate)
}
