// Package processor defines the outbound boundary to the card payment
// processor. The core drives a manual-capture flow: create an authorization,
// optionally shrink it, capture it, and look up the payment method used.
package processor

import (
	"context"
	"errors"
	"fmt"
)

// Authorization is a processor-side hold of funds pending capture.
// PaymentMethodID is empty until the cardholder has presented a card.
type Authorization struct {
	ID              string
	ClientSecret    string
	Amount          int64
	Currency        string
	Status          string
	PaymentMethodID string
}

// CaptureResult is the outcome of finalizing an authorization.
type CaptureResult struct {
	ChargeID        string
	PaymentMethodID string
	AmountCaptured  int64
}

// PaymentMethod describes the card behind an authorization. Fingerprint is
// the processor-issued stable identifier for the physical card.
type PaymentMethod struct {
	ID          string
	Fingerprint string
	Brand       string
	Last4       string
	ExpMonth    int
	ExpYear     int
}

type Client interface {
	// CreateAuthorization opens a manual-capture authorization.
	CreateAuthorization(ctx context.Context, amount int64, currency, description string) (*Authorization, error)

	// UpdateAuthorization changes the authorized amount before capture.
	UpdateAuthorization(ctx context.Context, id string, amount int64) (*Authorization, error)

	// GetAuthorization fetches the current state of an authorization.
	GetAuthorization(ctx context.Context, id string) (*Authorization, error)

	// CaptureAuthorization finalizes the hold. amountToCapture of 0 captures
	// the full authorized amount. This call is the point of no return: a
	// captured authorization cannot be un-captured.
	CaptureAuthorization(ctx context.Context, id string, amountToCapture int64) (*CaptureResult, error)

	GetPaymentMethod(ctx context.Context, id string) (*PaymentMethod, error)
}

var ErrNotConfigured = errors.New("payment processor not configured")

// UpstreamError carries the processor's own failure message; the orchestrator
// surfaces it as-is without retrying.
type UpstreamError struct {
	Provider string
	Code     string
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
