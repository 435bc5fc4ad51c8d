package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is a payment's lifecycle state. A payment reaches completed at most
// once; refund states are only reachable from completed.
type Status string

const (
	StatusPending           Status = "pending"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
	StatusRefunded          Status = "refunded"
	StatusPartiallyRefunded Status = "partially_refunded"
)

var (
	ErrNotFound      = errors.New("payment_not_found")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrNotPending    = errors.New("payment_not_pending")
	ErrNotCompleted  = errors.New("payment_not_completed")
	ErrInvalidIntent = errors.New("invalid_intent_id")
	ErrNoPaymentCard = errors.New("no_payment_card_on_intent")

	// ErrRedemptionApplied means credit was already applied against the
	// intent; only capture-with-redemption can settle it now, since a plain
	// capture would keep the discount without debiting the balance.
	ErrRedemptionApplied = errors.New("redemption_applied")
)

// ConsistencyError means money moved at the processor but the matching
// loyalty bookkeeping failed. The capture cannot be rolled back, so the
// failure is surfaced loudly instead of being retried or swallowed.
type ConsistencyError struct {
	IntentID string
	ChargeID string
	Amount   int64
	Err      error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("payment %s captured at processor but bookkeeping failed: %v", e.IntentID, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// Payment tracks one terminal charge. Amount is the originally authorized
// amount; AmountCharged is what the cardholder actually pays after any
// redemption; LoyaltyRedeemed and LoyaltyEarned are in the account's loyalty
// unit (points or minor currency units).
type Payment struct {
	ID               snowflake.ID  `gorm:"primaryKey"`
	AccountID        snowflake.ID  `gorm:"column:account_id;not null;index"`
	TerminalID       snowflake.ID  `gorm:"column:terminal_id;not null"`
	CustomerID       *snowflake.ID `gorm:"column:customer_id;index"`
	ProviderIntentID string        `gorm:"column:provider_intent_id;type:text;not null;uniqueIndex:ux_payments_provider_intent"`
	ProviderChargeID string        `gorm:"column:provider_charge_id;type:text"`
	Amount           int64         `gorm:"not null"`
	AmountCharged    int64         `gorm:"column:amount_charged;not null;default:0"`
	LoyaltyRedeemed  int64         `gorm:"column:loyalty_redeemed;not null;default:0"`
	LoyaltyEarned    int64         `gorm:"column:loyalty_earned;not null;default:0"`
	Currency         string        `gorm:"type:text;not null"`
	Status           Status        `gorm:"type:text;not null;default:'pending'"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	CompletedAt      *time.Time    `gorm:"column:completed_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
