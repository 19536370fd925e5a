package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirumee/avatax-excise/internal/interfaces/http/dto"
)

// SecretKeyHeader carries the shared secret the host platform sends with
// every request
const SecretKeyHeader = "X-Secret-Key"

// SecretKeyAuth returns a middleware that authenticates requests with a
// shared secret. When no secret is configured, all requests pass; that is
// only acceptable for local development.
func SecretKeyAuth(secretKey string) gin.HandlerFunc {
	if secretKey == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	expected := []byte(secretKey)

	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(SecretKeyHeader))
		if subtle.ConstantTimeCompare(expected, provided) != 1 {
			requestID := getTracingRequestID(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Invalid or missing secret key",
				requestID,
			))
			return
		}
		c.Next()
	}
}
