package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

type JobController struct {
	jobs     *services.JobService
	verifier PrivilegeVerifier
}

func NewJobController(jobs *services.JobService, verifier PrivilegeVerifier) *JobController {
	return &JobController{jobs: jobs, verifier: verifier}
}

// List returns active jobs; ?all=true adds inactive ones for admins
// GET /api/jobs
func (jc *JobController) List(c *gin.Context) {
	all := wantsAll(c)
	if all {
		admin, err := verifiedAdmin(c, jc.verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		if !admin {
			respondError(c, services.ErrAdminRequired)
			return
		}
	}
	jobs, err := jc.jobs.List(c.Request.Context(), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Get returns one job. Inactive jobs are visible to admins only
// GET /api/jobs/:id
func (jc *JobController) Get(c *gin.Context) {
	admin, err := verifiedAdmin(c, jc.verifier)
	if err != nil {
		respondError(c, err)
		return
	}
	job, err := jc.jobs.Get(c.Request.Context(), c.Param("id"), admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// POST /api/jobs
func (jc *JobController) Create(c *gin.Context) {
	var in services.JobInput
	if !bindJSON(c, &in) {
		return
	}
	job, err := jc.jobs.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"job": job})
}

// PUT /api/jobs/:id
func (jc *JobController) Update(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	job, err := jc.jobs.Update(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// Delete hides the job instead of removing it
// DELETE /api/jobs/:id
func (jc *JobController) Delete(c *gin.Context) {
	if err := jc.jobs.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// POST /api/jobs/:id/duplicate
func (jc *JobController) Duplicate(c *gin.Context) {
	job, err := jc.jobs.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"job": job})
}

// POST /api/jobs/:id/apply
func (jc *JobController) Apply(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	app, err := jc.jobs.Apply(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// GET /api/jobs/:id/apply
func (jc *JobController) ApplicationStatus(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	status, err := jc.jobs.ApplicationStatus(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
