package csrf

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"oauth-service/internal/logger"
)

// safeMethod reports whether the method has read-only semantics.
// Methods compare case-insensitively.
func safeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// Middleware gates state-changing requests on a valid token. Safe
// methods always pass but still receive a (possibly freshly minted)
// token for future use.
func Middleware(guard *Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if safeMethod(c.Request.Method) {
			if _, err := guard.TokenFor(c.Writer, c.Request); err != nil {
				logger.Error("csrf token issuance failed", map[string]any{
					"error": err.Error(),
				})
			}
			c.Next()
			return
		}

		if !guard.Validate(Expected(c.Request), Presented(c.Request)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "csrf validation failed",
				"kind":      "csrf",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		c.Next()
	}
}
