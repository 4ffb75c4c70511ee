package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/taichung-eats-linebot/internal/config"
)

// metricsAuthMiddleware enforces Basic Auth on /metrics when
// cfg.AuthEnabled is set; otherwise it passes through.
func metricsAuthMiddleware(cfg config.MetricsConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.AuthEnabled {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
		if !ok || !userMatch || !passMatch {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
