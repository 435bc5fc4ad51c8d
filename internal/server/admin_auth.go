package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminAPIKeyHeader = "X-Admin-API-Key"

// AdminAuthRequired gates dashboard-side operations behind the shared admin
// secret. When no secret is configured the routes refuse every request
// rather than running open.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(s.cfg.AdminAPIKey)
		if secret == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		provided := strings.TrimSpace(c.GetHeader(adminAPIKeyHeader))
		if provided == "" || !equalSecret(provided, secret) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}

func equalSecret(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
