package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMaxRequestSize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(MaxRequestSize(64))
	router.POST("/test", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"size": len(body["form_url"])})
	})

	small := `{"form_url":"https://example.com/f"}`
	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("POST", "/test", bytes.NewBufferString(small))
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)

	large := `{"form_url":"https://example.com/` + strings.Repeat("a", 200) + `"}`
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("POST", "/test", bytes.NewBufferString(large))
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w2.Code, "declared length over the limit")

	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequest("POST", "/test", bytes.NewBufferString(large))
	req3.ContentLength = -1
	router.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusBadRequest, w3.Code, "the body is cut off before it parses")
}

func TestValidateJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ValidateJSON())
	router.POST("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	router.OPTIONS("/test", func(c *gin.Context) {
		c.Status(204)
	})

	tests := []struct {
		name        string
		method      string
		contentType string
		code        int
	}{
		{"json", "POST", "application/json", http.StatusOK},
		{"json with charset", "POST", "application/json; charset=utf-8", http.StatusOK},
		{"upper case", "POST", "Application/JSON", http.StatusOK},
		{"missing content type", "POST", "", http.StatusUnsupportedMediaType},
		{"form encoded", "POST", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"json lookalike", "POST", "application/jsonp", http.StatusUnsupportedMediaType},
		{"get skips", "GET", "", http.StatusOK},
		{"options skips", "OPTIONS", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, "/test", bytes.NewBufferString("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusUnsupportedMediaType {
				assert.Contains(t, w.Body.String(), "Content-Type must be application/json")
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(SanitizeInput())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"query": c.Query("q")})
	})

	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/test?q=hello%00world", nil)
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Contains(t, w1.Body.String(), `"helloworld"`)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/test?q=%20%20test%20%20", nil)
	router.ServeHTTP(w2, req2)
	assert.Contains(t, w2.Body.String(), `"test"`)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "helloworld", sanitizeString("hello\x00world"))
	assert.Equal(t, "test", sanitizeString("  test  "))
	assert.Equal(t, "ab", sanitizeString("a\tb\x7f"))
	assert.Equal(t, "ok", sanitizeString("o\xffk"))
	assert.Len(t, []rune(sanitizeString(strings.Repeat("é", 3000))), maxQueryValueRunes)
	assert.Equal(t, "helloworld", sanitizeString("  hello\x00world  "))
}
