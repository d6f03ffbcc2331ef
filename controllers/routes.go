package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"formfill/middleware"
	"formfill/services"
)

// RouteDeps carries everything the HTTP routes need
type RouteDeps struct {
	Autofill       *AutofillController
	Screenshots    *ScreenshotController
	JWT            *services.JWTService
	StartLimiter   *middleware.RateLimiter
	GeneralLimiter *middleware.RateLimiter
	MaxBodyBytes   int64
}

func SetupRoutes(r *gin.Engine, d RouteDeps) {
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 1 << 20
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api",
		middleware.SanitizeInput(),
		middleware.AuthMiddleware(d.JWT),
		d.GeneralLimiter.Limit(),
	)

	api.GET("/screenshots/*key", d.Screenshots.GetScreenshot)
	api.GET("/screenshot-url", d.Screenshots.GetScreenshotURL)

	autofill := api.Group("/autofill", middleware.MaxRequestSize(d.MaxBodyBytes), middleware.ValidateJSON())
	autofill.POST("/start", d.StartLimiter.Limit(), d.Autofill.Start)
	autofill.POST("/continue", d.Autofill.Continue)
	autofill.POST("/submit", d.Autofill.Submit)
	autofill.POST("/cancel", d.Autofill.Cancel)
	autofill.GET("/sessions", d.Autofill.ListSessions)
	autofill.GET("/sessions/:id", d.Autofill.GetSession)
}
