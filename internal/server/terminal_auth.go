package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tapcard/internal/terminalctx"
)

const terminalAPIKeyHeader = "X-Terminal-API-Key"

// TerminalAuthRequired authenticates a point-of-sale terminal by API key and
// threads the resolved identity into the request context. Last-seen is
// updated off the request path.
func (s *Server) TerminalAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := strings.TrimSpace(c.GetHeader(terminalAPIKeyHeader))
		if rawKey == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.terminalSvc.ValidateAPIKey(c.Request.Context(), rawKey)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		s.terminalSvc.UpdateLastSeen(identity.TerminalID)
		c.Request = c.Request.WithContext(terminalctx.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

func terminalIdentity(c *gin.Context) (terminalctx.Identity, bool) {
	return terminalctx.FromContext(c.Request.Context())
}
