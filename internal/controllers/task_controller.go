package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

type TaskController struct {
	tasks    *services.TaskService
	verifier PrivilegeVerifier
}

func NewTaskController(tasks *services.TaskService, verifier PrivilegeVerifier) *TaskController {
	return &TaskController{tasks: tasks, verifier: verifier}
}

type taskApplicationRequest struct {
	Status     string  `json:"status"`
	Submission *string `json:"submission"`
}

type reviewRequest struct {
	Status string `json:"status"`
}

// GET /api/tasks
func (tc *TaskController) List(c *gin.Context) {
	all := wantsAll(c)
	if all {
		admin, err := verifiedAdmin(c, tc.verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		if !admin {
			respondError(c, services.ErrAdminRequired)
			return
		}
	}
	tasks, err := tc.tasks.List(c.Request.Context(), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GET /api/tasks/:id
func (tc *TaskController) Get(c *gin.Context) {
	admin, err := verifiedAdmin(c, tc.verifier)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := tc.tasks.Get(c.Request.Context(), c.Param("id"), admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// POST /api/tasks
func (tc *TaskController) Create(c *gin.Context) {
	var in services.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	task, err := tc.tasks.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// PUT /api/tasks/:id
func (tc *TaskController) Update(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	task, err := tc.tasks.Update(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DELETE /api/tasks/:id
func (tc *TaskController) Delete(c *gin.Context) {
	if err := tc.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// POST /api/tasks/:id/duplicate
func (tc *TaskController) Duplicate(c *gin.Context) {
	task, err := tc.tasks.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// POST /api/tasks/:id/apply
func (tc *TaskController) Apply(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	app, err := tc.tasks.Apply(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// GET /api/tasks/:id/apply
func (tc *TaskController) Application(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	status, err := tc.tasks.GetApplication(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// UpdateApplication moves the student's own application between states
// PUT /api/tasks/:id/apply
func (tc *TaskController) UpdateApplication(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req taskApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := tc.tasks.UpdateApplication(c.Request.Context(), studentID, c.Param("id"), req.Status, req.Submission)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// DELETE /api/tasks/:id/apply
func (tc *TaskController) CancelApplication(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := tc.tasks.CancelApplication(c.Request.Context(), studentID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// GET /api/admin/task-applications
func (tc *TaskController) ListApplications(c *gin.Context) {
	apps, err := tc.tasks.ListApplications(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// ReviewApplication approves or rejects a submission
// PUT /api/admin/task-applications/:id
func (tc *TaskController) ReviewApplication(c *gin.Context) {
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := tc.tasks.ReviewApplication(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}
