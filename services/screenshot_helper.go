package services

import (
	"net/url"
	"strings"
)

// ScreenshotHelper turns snapshot storage keys into links served by the
// screenshot routes under BaseURL (e.g. http://localhost:8081/api)
type ScreenshotHelper struct {
	base *url.URL
	raw  string
}

func NewScreenshotHelper(baseURL string) *ScreenshotHelper {
	raw := strings.TrimSuffix(baseURL, "/")
	base, _ := url.Parse(raw)
	return &ScreenshotHelper{base: base, raw: raw}
}

// GetScreenshotURL links to GET /screenshots/:key. The key is reduced to its
// file name and escaped; an empty key yields "".
func (h *ScreenshotHelper) GetScreenshotURL(key string) string {
	name := strings.TrimPrefix(NormalizeScreenshotKey(key), screenshotPrefix)
	if strings.TrimSpace(name) == "" {
		return ""
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	if h.base == nil {
		return h.raw + "/screenshots/" + url.PathEscape(name)
	}
	return h.base.JoinPath("screenshots", name).String()
}
