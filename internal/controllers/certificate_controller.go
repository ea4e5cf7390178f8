package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

type CertificateController struct {
	certs    *services.CertificateService
	verifier PrivilegeVerifier
}

func NewCertificateController(certs *services.CertificateService, verifier PrivilegeVerifier) *CertificateController {
	return &CertificateController{certs: certs, verifier: verifier}
}

// List returns the caller's latest request, or every request for ?all=true
// GET /api/certificate-requests
func (cc *CertificateController) List(c *gin.Context) {
	if wantsAll(c) {
		admin, err := verifiedAdmin(c, cc.verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		if !admin {
			respondError(c, services.ErrAdminRequired)
			return
		}
		reqs, err := cc.certs.ListAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": reqs})
		return
	}

	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req, err := cc.certs.Latest(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// POST /api/certificate-requests
func (cc *CertificateController) Create(c *gin.Context) {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var in services.CertificateInput
	if !bindJSON(c, &in) {
		return
	}
	req, err := cc.certs.Create(c.Request.Context(), studentID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// PUT /api/certificate-requests/:id
func (cc *CertificateController) Update(c *gin.Context) {
	var in services.CertificateStatusInput
	if !bindJSON(c, &in) {
		return
	}
	req, err := cc.certs.UpdateStatus(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// DELETE /api/certificate-requests/:id
func (cc *CertificateController) Delete(c *gin.Context) {
	if err := cc.certs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}
