package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/controllers"
)

// Handlers bundles every controller the router dispatches to.
type Handlers struct {
	Auth         *controllers.AuthController
	Admin        *controllers.AdminController
	Jobs         *controllers.JobController
	Tasks        *controllers.TaskController
	Catalog      *controllers.CatalogController
	Learning     *controllers.LearningController
	Certificates *controllers.CertificateController
	Dashboard    *controllers.DashboardController
	Media        *controllers.MediaController
}

// Guards are the per-route middlewares. Session and Admin reject the
// request; Audit records it.
type Guards struct {
	Session gin.HandlerFunc
	Admin   gin.HandlerFunc
	Audit   gin.HandlerFunc
}

// SetupRoutes registers all application routes and returns the /api group
// so callers can mount extra handlers under the same middleware.
func SetupRoutes(router *gin.Engine, h Handlers, g Guards) *gin.RouterGroup {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/media/*path", h.Media.Serve)

	api := router.Group("/api")
	if g.Audit != nil {
		api.Use(g.Audit)
	}

	RegisterAuthRoutes(api, h.Auth, g)
	RegisterAdminRoutes(api.Group("/admin"), h, g)
	RegisterCatalogRoutes(api, h, g)
	RegisterPortalRoutes(api, h, g)

	return api
}
