package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/joho/godotenv"

	"formfill/config"
	"formfill/controllers"
	"formfill/database"
	"formfill/middleware"
	"formfill/models"
	"formfill/services"
	"formfill/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.LogWarn("No .env file loaded, using process environment", map[string]interface{}{
			"error": err.Error(),
		})
	}

	cfg := config.GetAppConfig()
	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Level: utils.LogLevel(cfg.LogLevel),
		File:  cfg.LogFile,
	})
	utils.SetGlobalLogger(logger)
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	// Keep profile numbers (zip codes, phone numbers) exactly as sent.
	binding.EnableDecoderUseNumber = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var profiles controllers.ProfileSource
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		utils.LogWarn("Database not available, requests must carry an inline profile", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer db.Close()
		profileModel := models.NewProfileModel(db)
		if err := profileModel.CreateTable(ctx); err != nil {
			utils.LogError("Failed to create profile table", err)
			os.Exit(1)
		}
		profiles = profileModel
	}

	var s3Service *services.S3Service
	if cfg.S3.Configured() {
		s3Service, err = services.NewS3Service(cfg.S3)
		if err != nil {
			utils.LogError("Failed to initialize S3, keeping screenshots locally", err)
			s3Service = nil
		}
	}
	screenshots := services.NewScreenshotService(s3Service, cfg.Automation.ScreenshotDir)

	launcher, err := services.NewPlaywrightLauncher(services.NewLauncherOptions(cfg.Automation))
	if err != nil {
		utils.LogError("Failed to start browser driver", err)
		os.Exit(1)
	}

	manager := services.NewSessionManager(
		services.NewManagerConfig(cfg.Automation),
		launcher,
		nil,
		services.NewFieldMapper(services.NewMapperConfig(cfg.Automation)),
		screenshots,
	)
	go manager.RunReaper(ctx, time.Minute)

	limiters := middleware.CreateRateLimiters()
	for _, limiter := range limiters {
		go limiter.RunCleanup(ctx)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	controllers.SetupRoutes(r, controllers.RouteDeps{
		Autofill: controllers.NewAutofillController(
			manager,
			profiles,
			services.NewScreenshotHelper(cfg.BaseURL),
			cfg.Automation.Headless,
		),
		Screenshots:    controllers.NewScreenshotController(screenshots),
		JWT:            services.NewJWTService(cfg.JWTSecret, 0),
		StartLimiter:   limiters["start"],
		GeneralLimiter: limiters["general"],
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{
			"port":        cfg.Port,
			"environment": cfg.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError("Server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("HTTP server shutdown failed", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Failed to close browser sessions", err)
	}
	if err := launcher.Stop(); err != nil {
		utils.LogError("Failed to stop browser driver", err)
	}
}
