package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenshotHelperURL(t *testing.T) {
	h := NewScreenshotHelper("http://api.test/api/")

	tests := map[string]string{
		"filled_s1.png":                    "http://api.test/api/screenshots/filled_s1.png",
		"screenshots/filled_s1.png":        "http://api.test/api/screenshots/filled_s1.png",
		"/screenshots/filled_s1.png":       "http://api.test/api/screenshots/filled_s1.png",
		"screenshots/nested/filled_s1.png": "http://api.test/api/screenshots/filled_s1.png",
		"screenshots/filled s1.png":        "http://api.test/api/screenshots/filled%20s1.png",
		"":                                 "",
		"screenshots/":                     "",
	}
	for key, want := range tests {
		assert.Equal(t, want, h.GetScreenshotURL(key), key)
	}
}
