package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
)

type MediaController struct {
	media *services.MediaService
}

func NewMediaController(media *services.MediaService) *MediaController {
	return &MediaController{media: media}
}

// Upload stores a multipart "file" in the public container
// POST /api/admin/media
func (mc *MediaController) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "File is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	res, err := mc.media.Upload(c.Request.Context(), services.MediaUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// DELETE /api/admin/media/*path
func (mc *MediaController) Delete(c *gin.Context) {
	if err := mc.media.Delete(c.Request.Context(), c.Param("path")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// Serve streams a public object
// GET /media/*path
func (mc *MediaController) Serve(c *gin.Context) {
	res, err := mc.media.Open(c.Request.Context(), c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer res.Reader.Close()

	c.Header("Content-Type", res.ContentType)
	if res.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(res.Size, 10))
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, res.Reader)
}
