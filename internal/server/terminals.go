package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type pairTerminalRequest struct {
	PairingCode string `json:"pairingCode"`
	DeviceModel string `json:"deviceModel"`
	DeviceID    string `json:"deviceId"`
}

func (s *Server) PairTerminal(c *gin.Context) {
	var req pairTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.terminalSvc.Pair(c.Request.Context(), req.PairingCode, req.DeviceModel, req.DeviceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"apiKey":     result.APIKey,
		"terminalId": result.Terminal.ID,
		"accountId":  result.Terminal.AccountID,
		"label":      result.Terminal.Label,
	})
}

func (s *Server) ValidateTerminal(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"terminalId": identity.TerminalID,
		"accountId":  identity.AccountID,
		"label":      identity.Label,
	})
}

type generatePairingCodeRequest struct {
	AccountID snowflake.ID `json:"accountId"`
	Label     string       `json:"label"`
}

func (s *Server) GeneratePairingCode(c *gin.Context) {
	var req generatePairingCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccountID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	terminal, err := s.terminalSvc.GeneratePairingCode(c.Request.Context(), req.AccountID, req.Label)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"terminalId":  terminal.ID,
		"pairingCode": terminal.PairingCode,
		"expiresAt":   terminal.PairingExpiresAt,
	})
}
