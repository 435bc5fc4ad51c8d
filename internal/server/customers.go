package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/tapcard/internal/customer/domain"
)

type lookupByPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (s *Server) LookupByPayment(c *gin.Context) {
	identity, ok := terminalIdentity(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req lookupByPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	lookup, err := s.paymentSvc.LookupCredit(c.Request.Context(), identity.AccountID, req.PaymentIntentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if lookup.Known {
		c.JSON(http.StatusOK, gin.H{
			"known":           true,
			"customerId":      lookup.CustomerID,
			"pointsBalance":   lookup.PointsBalance,
			"cashbackBalance": lookup.CashbackBalance,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"known":             false,
		"unclaimedPoints":   lookup.Unclaimed.Points,
		"unclaimedCashback": lookup.Unclaimed.Cashback,
		"signupUrl":         lookup.SignupURL,
	})
}

type registerCustomerRequest struct {
	AccountID       snowflake.ID `json:"accountId"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	CardFingerprint string       `json:"cardFingerprint"`
	Brand           string       `json:"brand"`
	Last4           string       `json:"last4"`
}

func (s *Server) RegisterCustomer(c *gin.Context) {
	var req registerCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccountID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.customerSvc.Register(c.Request.Context(), customerdomain.RegisterRequest{
		AccountID:   req.AccountID,
		Name:        req.Name,
		Email:       req.Email,
		Fingerprint: req.CardFingerprint,
		Brand:       req.Brand,
		Last4:       req.Last4,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer": result.Customer,
		"claimed": gin.H{
			"points":   result.Claimed.Points,
			"cashback": result.Claimed.Cashback,
		},
	})
}
