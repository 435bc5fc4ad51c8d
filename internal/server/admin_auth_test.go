package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tapcard/internal/config"
	"github.com/stretchr/testify/assert"
)

func adminTestEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := &Server{cfg: config.Config{AdminAPIKey: secret}}

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.POST("/guarded", s.AdminAuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAdminAuthRequired(t *testing.T) {
	r := adminTestEngine("dashboard-secret")

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
		req.Header.Set(adminAPIKeyHeader, "guessed")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("correct secret", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
		req.Header.Set(adminAPIKeyHeader, "dashboard-secret")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminAuthRefusesWhenUnconfigured(t *testing.T) {
	r := adminTestEngine("")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set(adminAPIKeyHeader, "anything")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
