package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

type LearningController struct {
	learning *services.LearningService
	verifier PrivilegeVerifier
}

func NewLearningController(learning *services.LearningService, verifier PrivilegeVerifier) *LearningController {
	return &LearningController{learning: learning, verifier: verifier}
}

// showInactive is true only for a verified admin asking with ?all=true.
func (lc *LearningController) showInactive(c *gin.Context) (bool, error) {
	if !wantsAll(c) {
		return false, nil
	}
	return verifiedAdmin(c, lc.verifier)
}

// GET /api/technologies
func (lc *LearningController) ListTechnologies(c *gin.Context) {
	all, err := lc.showInactive(c)
	if err != nil {
		respondError(c, err)
		return
	}
	techs, err := lc.learning.ListTechnologies(c.Request.Context(), c.Query("course_id"), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technologies": techs})
}

// GET /api/technologies/:id
func (lc *LearningController) GetTechnology(c *gin.Context) {
	admin, err := verifiedAdmin(c, lc.verifier)
	if err != nil {
		respondError(c, err)
		return
	}
	tech, err := lc.learning.GetTechnology(c.Request.Context(), c.Param("id"), admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technology": tech})
}

// POST /api/technologies
func (lc *LearningController) CreateTechnology(c *gin.Context) {
	var in services.TechnologyInput
	if !bindJSON(c, &in) {
		return
	}
	tech, err := lc.learning.CreateTechnology(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"technology": tech})
}

// PUT /api/technologies/:id
func (lc *LearningController) UpdateTechnology(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	tech, err := lc.learning.UpdateTechnology(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technology": tech})
}

// DELETE /api/technologies/:id
func (lc *LearningController) DeleteTechnology(c *gin.Context) {
	if err := lc.learning.DeleteTechnology(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// GET /api/topics
func (lc *LearningController) ListTopics(c *gin.Context) {
	all, err := lc.showInactive(c)
	if err != nil {
		respondError(c, err)
		return
	}
	topics, err := lc.learning.ListTopics(c.Request.Context(), c.Query("technology_id"), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GET /api/topics/:id
func (lc *LearningController) GetTopic(c *gin.Context) {
	admin, err := verifiedAdmin(c, lc.verifier)
	if err != nil {
		respondError(c, err)
		return
	}
	topic, err := lc.learning.GetTopic(c.Request.Context(), c.Param("id"), admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic": topic})
}

// POST /api/topics
func (lc *LearningController) CreateTopic(c *gin.Context) {
	var in services.TopicInput
	if !bindJSON(c, &in) {
		return
	}
	topic, err := lc.learning.CreateTopic(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"topic": topic})
}

// PUT /api/topics/:id
func (lc *LearningController) UpdateTopic(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	topic, err := lc.learning.UpdateTopic(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic": topic})
}

// DELETE /api/topics/:id
func (lc *LearningController) DeleteTopic(c *gin.Context) {
	if err := lc.learning.DeleteTopic(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}
