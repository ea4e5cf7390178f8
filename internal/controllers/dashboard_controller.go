package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

// GET /api/dashboard
func (dc *DashboardController) Get(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := dc.dashboard.Get(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
