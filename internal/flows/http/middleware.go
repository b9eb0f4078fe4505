package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rfgrow/vozzysmart1-sub008/internal/auth"
	"github.com/rfgrow/vozzysmart1-sub008/internal/httputil"
)

// AdminAuthMiddleware guards the key management surface with a bearer API
// key checked against its configured Argon2id hash. An empty configured hash
// disables the surface entirely rather than leaving it open.
func AdminAuthMiddleware(secretService auth.SecretService, apiKeyHash string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKeyHash == "" {
			logger.Warn("admin api key not configured, rejecting request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse{
				Error:   "unauthorized",
				Message: "Authentication is required",
			})
			return
		}

		header := c.GetHeader("Authorization")
		apiKey, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse{
				Error:   "unauthorized",
				Message: "Authentication is required",
			})
			return
		}

		if !secretService.CompareSecret(apiKey, apiKeyHash) {
			logger.Warn("admin authentication failed", slog.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse{
				Error:   "unauthorized",
				Message: "Authentication is required",
			})
			return
		}

		c.Next()
	}
}
