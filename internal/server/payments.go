package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/tapcard/internal/payment/domain"
)

type createIntentRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func (s *Server) CreatePaymentIntent(c *gin.Context) {
	identity, ok := terminalIdentity(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.paymentSvc.CreateIntent(c.Request.Context(), paymentdomain.CreateIntentRequest{
		AccountID:   identity.AccountID,
		TerminalID:  identity.TerminalID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"paymentId":       result.Payment.ID,
		"paymentIntentId": result.Payment.ProviderIntentID,
		"clientSecret":    result.ClientSecret,
		"amount":          result.Payment.Amount,
		"currency":        result.Payment.Currency,
		"status":          result.Payment.Status,
	})
}

type updateIntentRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) UpdatePaymentIntent(c *gin.Context) {
	identity, ok := terminalIdentity(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.UpdateAmount(c.Request.Context(), identity.AccountID, c.Param("id"), req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentIntentId": payment.ProviderIntentID,
		"amount":          payment.Amount,
		"status":          payment.Status,
	})
}

func (s *Server) CapturePayment(c *gin.Context) {
	identity, ok := terminalIdentity(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	outcome, err := s.paymentSvc.CaptureSimple(c.Request.Context(), identity.AccountID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, captureResponse(outcome))
}

type applyRedemptionRequest struct {
	CustomerID     snowflake.ID `json:"customerId"`
	CreditToRedeem int64        `json:"creditToRedeem"`
}

func (s *Server) ApplyRedemption(c *gin.Context) {
	identity, ok := terminalIdentity(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req applyRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.ApplyRedemption(c.Request.Context(), identity.AccountID, c.Param("id"), req.CustomerID, req.CreditToRedeem)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentIntentId": payment.ProviderIntentID,
		"amountCharged":   payment.AmountCharged,
		"loyaltyRedeemed": payment.LoyaltyRedeemed,
		"status":          payment.Status,
	})
}

type captureWithRedemptionRequest struct {
	CustomerID      snowflake.ID `json:"customerId"`
	AmountToCapture int64        `json:"amountToCapture"`
	CreditRedeemed  int64        `json:"creditRedeemed"`
}

func (s *Server) CaptureWithRedemption(c *gin.Context) {
	identity, ok := terminalIdentity(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req captureWithRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	outcome, err := s.paymentSvc.CaptureWithRedemption(
		c.Request.Context(),
		identity.AccountID,
		c.Param("id"),
		req.CustomerID,
		req.AmountToCapture,
		req.CreditRedeemed,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, captureResponse(outcome))
}

type refundRequest struct {
	AccountID      snowflake.ID `json:"accountId"`
	AmountRefunded int64        `json:"amountRefunded"`
}

func (s *Server) RefundPayment(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccountID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.MarkRefunded(c.Request.Context(), req.AccountID, c.Param("id"), req.AmountRefunded)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentIntentId": payment.ProviderIntentID,
		"status":          payment.Status,
	})
}

func captureResponse(outcome *paymentdomain.CaptureOutcome) gin.H {
	resp := gin.H{
		"paymentIntentId": outcome.Payment.ProviderIntentID,
		"status":          outcome.Payment.Status,
		"amountCharged":   outcome.Payment.AmountCharged,
		"loyaltyPoints":   outcome.EarnedPoints,
		"cashbackAmount":  outcome.EarnedCashback,
	}
	if outcome.CustomerID != nil {
		resp["customerId"] = *outcome.CustomerID
	}
	if outcome.SignupURL != "" {
		resp["signupUrl"] = outcome.SignupURL
		resp["unclaimedPoints"] = outcome.Unclaimed.Points
		resp["unclaimedCashback"] = outcome.Unclaimed.Cashback
	}
	return resp
}
