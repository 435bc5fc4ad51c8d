package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/tapcard/internal/account/domain"
	carddomain "github.com/smallbiznis/tapcard/internal/card/domain"
	customerdomain "github.com/smallbiznis/tapcard/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/tapcard/internal/payment/domain"
	"github.com/smallbiznis/tapcard/internal/processor"
	terminaldomain "github.com/smallbiznis/tapcard/internal/terminal/domain"
	unclaimeddomain "github.com/smallbiznis/tapcard/internal/unclaimed/domain"
	"github.com/smallbiznis/tapcard/pkg/db"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// Money moved but bookkeeping failed, or the processor itself refused.
	// Both surface their message so the terminal can show something real.
	var consistencyErr *paymentdomain.ConsistencyError
	if errors.As(err, &consistencyErr) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "consistency_error",
			Message: consistencyErr.Error(),
		}
	}
	var upstreamErr *processor.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "processor_error",
			Code:    upstreamErr.Code,
			Message: upstreamErr.Message,
		}
	}

	switch {
	case errors.Is(err, terminaldomain.ErrPairingExpired):
		return http.StatusBadRequest, errorPayload{
			Type:    "pairing_expired",
			Message: "pairing code expired",
		}
	case errors.Is(err, terminaldomain.ErrPairingAlreadyUsed):
		return http.StatusBadRequest, errorPayload{
			Type:    "pairing_already_used",
			Message: "pairing code already used",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, terminaldomain.ErrInvalidAPIKey):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    err.Error(),
			Message: "not found",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, paymentdomain.ErrNotPending),
		errors.Is(err, paymentdomain.ErrNotCompleted),
		errors.Is(err, paymentdomain.ErrRedemptionApplied),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "conflict",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidIntent),
		errors.Is(err, paymentdomain.ErrNoPaymentCard),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, customerdomain.ErrInvalidFingerprint),
		errors.Is(err, unclaimeddomain.ErrInvalidFingerprint),
		errors.Is(err, unclaimeddomain.ErrInvalidCustomer),
		errors.Is(err, terminaldomain.ErrInvalidLabel),
		errors.Is(err, ledgerdomain.ErrInvalidAccount),
		errors.Is(err, ledgerdomain.ErrInvalidCustomer),
		errors.Is(err, ledgerdomain.ErrInvalidType),
		errors.Is(err, ledgerdomain.ErrEmptyDelta):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, terminaldomain.ErrNotFound),
		errors.Is(err, terminaldomain.ErrPairingNotFound),
		errors.Is(err, carddomain.ErrUnknownCard),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
