package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

// AdminController covers the back office: students and the audit views.
type AdminController struct {
	students *services.StudentService
	logs     *services.LogService
}

func NewAdminController(students *services.StudentService, logs *services.LogService) *AdminController {
	return &AdminController{students: students, logs: logs}
}

// GET /api/admin/students
func (ac *AdminController) SearchStudents(c *gin.Context) {
	students, err := ac.students.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// POST /api/admin/students
func (ac *AdminController) CreateStudent(c *gin.Context) {
	var in services.StudentInput
	if !bindJSON(c, &in) {
		return
	}
	student, err := ac.students.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// PUT /api/admin/students/:id
func (ac *AdminController) UpdateStudent(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	student, err := ac.students.Update(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student})
}

// Logs pages through the API audit trail
// GET /api/logs
func (ac *AdminController) Logs(c *gin.Context) {
	page, err := ac.logs.Logs(c.Request.Context(), services.LogQuery{
		Method:    c.Query("method"),
		Path:      c.Query("path"),
		Status:    c.Query("status"),
		UserID:    c.Query("user_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Limit:     c.Query("limit"),
		Offset:    c.Query("offset"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/login-attempts
func (ac *AdminController) LoginAttempts(c *gin.Context) {
	report, err := ac.logs.LoginAttempts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
