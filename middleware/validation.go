package middleware

import (
	"mime"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"formfill/utils"
)

// maxQueryValueRunes caps a single query value; the API only takes ids and
// short filters in the query string
const maxQueryValueRunes = 2048

// MaxRequestSize rejects bodies over maxSize. A declared length over the
// limit fails with 413 before reading; an undeclared one is cut off while
// binding.
func MaxRequestSize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponseWithCode(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// ValidateJSON answers 415 to bodies not declared as application/json
func ValidateJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
			c.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			utils.ErrorResponseWithCode(c, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SanitizeInput strips control characters and padding from query values
func SanitizeInput() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i := range values {
				values[i] = sanitizeString(values[i])
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()
		c.Next()
	}
}

func sanitizeString(input string) string {
	input = strings.ToValidUTF8(input, "")
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	input = strings.TrimSpace(input)

	if utf8.RuneCountInString(input) > maxQueryValueRunes {
		input = string([]rune(input)[:maxQueryValueRunes])
	}
	return input
}
