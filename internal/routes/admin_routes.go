package routes

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes registers admin-only endpoints under /api/admin.
func RegisterAdminRoutes(admin *gin.RouterGroup, h Handlers, g Guards) {
	protected := admin.Group("")
	protected.Use(g.Admin)
	{
		protected.GET("/students", h.Admin.SearchStudents)
		protected.POST("/students", h.Admin.CreateStudent)
		protected.PUT("/students/:id", h.Admin.UpdateStudent)

		protected.GET("/task-applications", h.Tasks.ListApplications)
		protected.PUT("/task-applications/:id", h.Tasks.ReviewApplication)

		// POST /api/admin/media - multipart upload to the public container
		protected.POST("/media", h.Media.Upload)
		protected.DELETE("/media/*path", h.Media.Delete)
	}
}
