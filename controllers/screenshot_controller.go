package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"formfill/services"
	"formfill/utils"
)

type ScreenshotController struct {
	screenshots *services.ScreenshotService
}

func NewScreenshotController(screenshots *services.ScreenshotService) *ScreenshotController {
	return &ScreenshotController{screenshots: screenshots}
}

// GetScreenshot serves a locally stored snapshot or redirects to a
// pre-signed S3 URL
func (c *ScreenshotController) GetScreenshot(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("key"), "/")
	if key == "" {
		utils.BadRequestError(ctx, "Screenshot key is required", nil)
		return
	}

	if path, ok := c.screenshots.LocalFile(key); ok {
		ctx.File(path)
		return
	}

	presignedURL, err := c.screenshots.PresignedURL(key)
	if err != nil {
		utils.NotFoundError(ctx, "Screenshot not found")
		return
	}
	ctx.Redirect(http.StatusTemporaryRedirect, presignedURL)
}

// GetScreenshotURL returns a pre-signed URL as JSON instead of redirecting
func (c *ScreenshotController) GetScreenshotURL(ctx *gin.Context) {
	key := ctx.Query("key")
	if key == "" {
		utils.BadRequestError(ctx, "Screenshot key is required", nil)
		return
	}

	presignedURL, err := c.screenshots.PresignedURL(key)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Screenshot URL not available",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"url":        presignedURL,
		"expires_in": "1 hour",
		"key":        services.NormalizeScreenshotKey(key),
	})
}
