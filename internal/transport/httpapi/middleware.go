package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// apiKeyAuth requires X-API-KEY when key is set
func apiKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		given := c.GetHeader("X-API-KEY")
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Error: "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// requestLogger writes one slog line per request
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request failed", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Info("request handled", attrs...)
		}
	}
}

// recovery turns handler panics into the standard error envelope
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("handler panic", slog.Any("panic", recovered), slog.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
	})
}
