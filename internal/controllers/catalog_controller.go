package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

// CatalogController serves skills and courses, the lookup tables jobs and
// tasks refer to.
type CatalogController struct {
	skills   *services.SkillService
	courses  *services.CourseService
	verifier PrivilegeVerifier
}

func NewCatalogController(skills *services.SkillService, courses *services.CourseService, verifier PrivilegeVerifier) *CatalogController {
	return &CatalogController{skills: skills, courses: courses, verifier: verifier}
}

// ListSkills falls back to active skills when a non-admin asks for all
// GET /api/skills
func (cc *CatalogController) ListSkills(c *gin.Context) {
	all := false
	if wantsAll(c) {
		admin, err := verifiedAdmin(c, cc.verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		all = admin
	}
	skills, err := cc.skills.List(c.Request.Context(), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// GET /api/skills/:id
func (cc *CatalogController) GetSkill(c *gin.Context) {
	skill, err := cc.skills.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

// POST /api/skills
func (cc *CatalogController) CreateSkill(c *gin.Context) {
	var in services.SkillInput
	if !bindJSON(c, &in) {
		return
	}
	skill, err := cc.skills.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"skill": skill})
}

// PUT /api/skills/:id
func (cc *CatalogController) UpdateSkill(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	skill, err := cc.skills.Update(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

// DELETE /api/skills/:id
func (cc *CatalogController) DeleteSkill(c *gin.Context) {
	if err := cc.skills.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// GET /api/courses
func (cc *CatalogController) ListCourses(c *gin.Context) {
	courses, err := cc.courses.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// POST /api/courses
func (cc *CatalogController) CreateCourse(c *gin.Context) {
	var in services.CourseInput
	if !bindJSON(c, &in) {
		return
	}
	course, err := cc.courses.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// PUT /api/courses/:id
func (cc *CatalogController) UpdateCourse(c *gin.Context) {
	raw, ok := bindMap(c)
	if !ok {
		return
	}
	course, err := cc.courses.Update(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

// DELETE /api/courses/:id
func (cc *CatalogController) DeleteCourse(c *gin.Context) {
	if err := cc.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}
