package routes

import "github.com/gin-gonic/gin"

// RegisterCatalogRoutes registers jobs, tasks, skills, courses and the
// learning tree. Reads are public; writes need an admin.
func RegisterCatalogRoutes(api *gin.RouterGroup, h Handlers, g Guards) {
	jobs := api.Group("/jobs")
	{
		jobs.GET("", h.Jobs.List)
		jobs.GET("/:id", h.Jobs.Get)
		jobs.POST("", g.Admin, h.Jobs.Create)
		jobs.PUT("/:id", g.Admin, h.Jobs.Update)
		jobs.DELETE("/:id", g.Admin, h.Jobs.Delete)
		jobs.POST("/:id/duplicate", g.Admin, h.Jobs.Duplicate)

		jobs.POST("/:id/apply", g.Session, h.Jobs.Apply)
		jobs.GET("/:id/apply", g.Session, h.Jobs.ApplicationStatus)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.POST("", g.Admin, h.Tasks.Create)
		tasks.PUT("/:id", g.Admin, h.Tasks.Update)
		tasks.DELETE("/:id", g.Admin, h.Tasks.Delete)
		tasks.POST("/:id/duplicate", g.Admin, h.Tasks.Duplicate)

		tasks.POST("/:id/apply", g.Session, h.Tasks.Apply)
		tasks.GET("/:id/apply", g.Session, h.Tasks.Application)
		tasks.PUT("/:id/apply", g.Session, h.Tasks.UpdateApplication)
		tasks.DELETE("/:id/apply", g.Session, h.Tasks.CancelApplication)
	}

	skills := api.Group("/skills")
	{
		skills.GET("", h.Catalog.ListSkills)
		skills.GET("/:id", h.Catalog.GetSkill)
		skills.POST("", g.Admin, h.Catalog.CreateSkill)
		skills.PUT("/:id", g.Admin, h.Catalog.UpdateSkill)
		skills.DELETE("/:id", g.Admin, h.Catalog.DeleteSkill)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", h.Catalog.ListCourses)
		courses.POST("", g.Admin, h.Catalog.CreateCourse)
		courses.PUT("/:id", g.Admin, h.Catalog.UpdateCourse)
		courses.DELETE("/:id", g.Admin, h.Catalog.DeleteCourse)
	}

	technologies := api.Group("/technologies")
	{
		technologies.GET("", h.Learning.ListTechnologies)
		technologies.GET("/:id", h.Learning.GetTechnology)
		technologies.POST("", g.Admin, h.Learning.CreateTechnology)
		technologies.PUT("/:id", g.Admin, h.Learning.UpdateTechnology)
		technologies.DELETE("/:id", g.Admin, h.Learning.DeleteTechnology)
	}

	topics := api.Group("/topics")
	{
		topics.GET("", h.Learning.ListTopics)
		topics.GET("/:id", h.Learning.GetTopic)
		topics.POST("", g.Admin, h.Learning.CreateTopic)
		topics.PUT("/:id", g.Admin, h.Learning.UpdateTopic)
		topics.DELETE("/:id", g.Admin, h.Learning.DeleteTopic)
	}
}

// RegisterPortalRoutes registers the signed-in student's own views plus the
// admin audit readers.
func RegisterPortalRoutes(api *gin.RouterGroup, h Handlers, g Guards) {
	api.GET("/dashboard", g.Session, h.Dashboard.Get)

	certs := api.Group("/certificate-requests")
	{
		certs.GET("", g.Session, h.Certificates.List)
		certs.POST("", g.Session, h.Certificates.Create)
		certs.PUT("/:id", g.Admin, h.Certificates.Update)
		certs.DELETE("/:id", g.Admin, h.Certificates.Delete)
	}

	api.GET("/logs", g.Admin, h.Admin.Logs)
	api.GET("/login-attempts", g.Admin, h.Admin.LoginAttempts)
}
