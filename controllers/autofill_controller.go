package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"formfill/middleware"
	"formfill/models"
	"formfill/services"
	"formfill/utils"
)

// ProfileSource loads a user's stored answers
type ProfileSource interface {
	GetProfile(ctx context.Context, userKey string) (map[string]any, error)
}

type AutofillController struct {
	manager     *services.SessionManager
	profiles    ProfileSource
	screenshots *services.ScreenshotHelper
	headless    bool
}

// NewAutofillController wires the session manager to HTTP. profiles may be
// nil, in which case every request must carry an inline profile.
func NewAutofillController(manager *services.SessionManager, profiles ProfileSource, screenshots *services.ScreenshotHelper, headless bool) *AutofillController {
	return &AutofillController{
		manager:     manager,
		profiles:    profiles,
		screenshots: screenshots,
		headless:    headless,
	}
}

type StartRequest struct {
	FormURL  string         `json:"form_url" binding:"required"`
	Headless *bool          `json:"headless"`
	Profile  map[string]any `json:"profile"`
}

type SessionRequest struct {
	SessionID string         `json:"session_id" binding:"required"`
	Profile   map[string]any `json:"profile"`
}

type runResponse struct {
	*services.RunResult
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

type submitResponse struct {
	*services.SubmitResult
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

// Start opens a browser session for the caller and fills the form
func (c *AutofillController) Start(ctx *gin.Context) {
	userKey, ok := middleware.UserKey(ctx)
	if !ok {
		utils.UnauthorizedError(ctx, "User not authenticated")
		return
	}

	var req StartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	profile, ok := c.loadProfile(ctx, userKey, req.Profile)
	if !ok {
		return
	}

	headless := c.headless
	if req.Headless != nil {
		headless = *req.Headless
	}

	result, err := c.manager.Start(ctx.Request.Context(), userKey, req.FormURL, profile, headless)
	if err != nil {
		c.respondError(ctx, "Failed to start autofill", err)
		return
	}
	c.respondRun(ctx, result)
}

// Continue resumes a session after the user signed in
func (c *AutofillController) Continue(ctx *gin.Context) {
	userKey, req, ok := c.bindSession(ctx)
	if !ok {
		return
	}

	profile, ok := c.loadProfile(ctx, userKey, req.Profile)
	if !ok {
		return
	}

	result, err := c.manager.Continue(ctx.Request.Context(), req.SessionID, profile)
	if err != nil {
		c.respondError(ctx, "Failed to continue autofill", err)
		return
	}
	c.respondRun(ctx, result)
}

// Submit is the human confirm step: it clicks the form's submit control
func (c *AutofillController) Submit(ctx *gin.Context) {
	_, req, ok := c.bindSession(ctx)
	if !ok {
		return
	}

	result, err := c.manager.Submit(ctx.Request.Context(), req.SessionID)
	if err != nil {
		c.respondError(ctx, "Failed to submit form", err)
		return
	}

	message := "Form submitted"
	if !result.Success {
		message = result.Reason
	}
	utils.SuccessResponse(ctx, http.StatusOK, message, submitResponse{
		SubmitResult:  result,
		ScreenshotURL: c.screenshotURL(result.ScreenshotKey),
	})
}

// Cancel closes the session; unknown ids report cancelled=false
func (c *AutofillController) Cancel(ctx *gin.Context) {
	userKey, ok := middleware.UserKey(ctx)
	if !ok {
		utils.UnauthorizedError(ctx, "User not authenticated")
		return
	}

	var req SessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	result := &services.CancelResult{Cancelled: false}
	if c.owns(userKey, req.SessionID) {
		result = c.manager.Cancel(req.SessionID)
	}
	utils.SuccessResponse(ctx, http.StatusOK, "Cancel processed", result)
}

// ListSessions returns the caller's live sessions
func (c *AutofillController) ListSessions(ctx *gin.Context) {
	userKey, ok := middleware.UserKey(ctx)
	if !ok {
		utils.UnauthorizedError(ctx, "User not authenticated")
		return
	}

	sessions := []services.SessionInfo{}
	for _, info := range c.manager.List() {
		if info.UserKey == userKey {
			sessions = append(sessions, info)
		}
	}
	utils.SuccessResponse(ctx, http.StatusOK, "Sessions retrieved", sessions)
}

// GetSession returns one of the caller's sessions
func (c *AutofillController) GetSession(ctx *gin.Context) {
	userKey, ok := middleware.UserKey(ctx)
	if !ok {
		utils.UnauthorizedError(ctx, "User not authenticated")
		return
	}

	info, found := c.manager.Get(ctx.Param("id"))
	if !found || info.UserKey != userKey {
		utils.NotFoundError(ctx, services.ErrSessionNotFound.Error())
		return
	}
	utils.SuccessResponse(ctx, http.StatusOK, "Session retrieved", info)
}

// bindSession parses a session request and checks the caller owns it.
// Another user's session is reported exactly like an unknown one.
func (c *AutofillController) bindSession(ctx *gin.Context) (string, SessionRequest, bool) {
	var req SessionRequest

	userKey, ok := middleware.UserKey(ctx)
	if !ok {
		utils.UnauthorizedError(ctx, "User not authenticated")
		return "", req, false
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return "", req, false
	}
	if !c.owns(userKey, req.SessionID) {
		utils.NotFoundError(ctx, services.ErrSessionNotFound.Error())
		return "", req, false
	}
	return userKey, req, true
}

func (c *AutofillController) owns(userKey, sessionID string) bool {
	info, ok := c.manager.Get(sessionID)
	return ok && info.UserKey == userKey
}

// loadProfile merges inline answers over the stored profile
func (c *AutofillController) loadProfile(ctx *gin.Context, userKey string, inline map[string]any) (services.Profile, bool) {
	profile := services.Profile{}

	if c.profiles != nil {
		stored, err := c.profiles.GetProfile(ctx.Request.Context(), userKey)
		switch {
		case err == nil:
			for k, v := range stored {
				profile[k] = v
			}
		case errors.Is(err, models.ErrProfileNotFound):
			if len(inline) == 0 {
				utils.ErrorResponseWithCode(ctx, http.StatusPreconditionFailed, "No stored profile for this user", err)
				return nil, false
			}
		default:
			utils.LogError("Failed to load profile", err, map[string]interface{}{"user_key": userKey})
			utils.InternalServerError(ctx, "Failed to load profile", err)
			return nil, false
		}
	}

	for k, v := range inline {
		profile[k] = v
	}
	if len(profile) == 0 {
		utils.BadRequestError(ctx, "A profile is required", nil)
		return nil, false
	}
	return profile, true
}

func (c *AutofillController) respondRun(ctx *gin.Context, result *services.RunResult) {
	message := "Form filled, review and confirm to submit"
	switch {
	case result.NeedsLogin:
		message = result.Message
	case result.State == services.StateFailed:
		message = result.Message
	}
	utils.SuccessResponse(ctx, http.StatusOK, message, runResponse{
		RunResult:     result,
		ScreenshotURL: c.screenshotURL(result.ScreenshotKey),
	})
}

func (c *AutofillController) respondError(ctx *gin.Context, message string, err error) {
	var sessErr *services.SessionError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		utils.NotFoundError(ctx, err.Error())
	case errors.Is(err, services.ErrInvalidRequest):
		utils.BadRequestError(ctx, message, err)
	case errors.As(err, &sessErr):
		utils.ErrorResponseWithData(ctx, http.StatusInternalServerError, message, err, gin.H{
			"session_id":     sessErr.SessionID,
			"screenshot_url": c.screenshotURL(sessErr.ScreenshotKey),
		})
	default:
		utils.LogError(message, err)
		utils.InternalServerError(ctx, message, err)
	}
}

func (c *AutofillController) screenshotURL(key string) string {
	if c.screenshots == nil {
		return ""
	}
	return c.screenshots.GetScreenshotURL(key)
}
