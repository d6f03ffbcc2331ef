package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"formfill/utils"
)

const screenshotPrefix = "screenshots/"

// ScreenshotService captures page snapshots and stores them in S3, falling
// back to a local directory when S3 is not configured or the upload fails.
type ScreenshotService struct {
	S3Service *S3Service
	localDir  string
}

func NewScreenshotService(s3Service *S3Service, localDir string) *ScreenshotService {
	if localDir == "" {
		localDir = "./static/screenshots"
	}
	if s3Service == nil {
		utils.LogWarn("S3 service not available, screenshots will be kept locally", map[string]interface{}{
			"dir": localDir,
		})
	}
	return &ScreenshotService{S3Service: s3Service, localDir: localDir}
}

// CaptureAndUpload takes a full-page screenshot and returns its storage key
func (s *ScreenshotService) CaptureAndUpload(ctx context.Context, page Page, screenshotType string) (string, error) {
	data, err := page.Screenshot()
	if err != nil {
		return "", err
	}
	return s.Save(ctx, screenshotType, data)
}

// Save stores PNG bytes and returns the key they can be fetched by
func (s *ScreenshotService) Save(ctx context.Context, screenshotType string, data []byte) (string, error) {
	key := fmt.Sprintf("%s%s_%d.png", screenshotPrefix, sanitizeKeyPart(screenshotType), time.Now().UnixNano())

	if s.S3Service != nil {
		err := s.S3Service.UploadBytes(ctx, key, data, "image/png")
		if err == nil {
			utils.LogInfo("Screenshot uploaded to S3", map[string]interface{}{"key": key})
			return key, nil
		}
		utils.LogError("Screenshot upload failed, saving locally", err, map[string]interface{}{"key": key})
	}

	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	if err := os.WriteFile(s.localPath(key), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	utils.LogInfo("Screenshot saved locally", map[string]interface{}{"key": key})
	return key, nil
}

// LocalFile returns the on-disk path of a locally stored screenshot
func (s *ScreenshotService) LocalFile(key string) (string, bool) {
	path := s.localPath(key)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, true
	}
	return "", false
}

// PresignedURL returns a temporary S3 URL for key
func (s *ScreenshotService) PresignedURL(key string) (string, error) {
	if s.S3Service == nil {
		return "", fmt.Errorf("S3 service not available")
	}
	return s.S3Service.GeneratePresignedURL(NormalizeScreenshotKey(key))
}

// NormalizeScreenshotKey trims slashes and adds the screenshots/ prefix
func NormalizeScreenshotKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, screenshotPrefix) {
		key = screenshotPrefix + key
	}
	return key
}

func (s *ScreenshotService) localPath(key string) string {
	// Base() keeps lookups inside localDir.
	return filepath.Join(s.localDir, filepath.Base(NormalizeScreenshotKey(key)))
}

func sanitizeKeyPart(part string) string {
	part = unsafePathChars.ReplaceAllString(part, "_")
	if part == "" {
		return "snapshot"
	}
	return part
}
