package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Completion carries the fields stamped onto a payment row when it flips to
// completed. LoyaltyRedeemed nil leaves whatever an earlier redemption wrote.
type Completion struct {
	CustomerID      *snowflake.ID
	ChargeID        string
	AmountCharged   int64
	LoyaltyEarned   int64
	LoyaltyRedeemed *int64
	CompletedAt     time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByIntentID(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string) (*Payment, error)

	// MarkCompleted flips pending to completed. The status guard in the
	// WHERE clause is the capture idempotency gate: the returned count is
	// zero when another call already completed the payment.
	MarkCompleted(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, c Completion) (int64, error)

	// UpdateAmount resizes a pending payment.
	UpdateAmount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, amount int64) (int64, error)

	// UpdateRedemption records a pre-capture redemption against a pending
	// payment.
	UpdateRedemption(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, customerID snowflake.ID, amountCharged, loyaltyRedeemed int64) (int64, error)

	// MarkRefunded moves a completed payment into a refund state. Guarded
	// the same way as MarkCompleted.
	MarkRefunded(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, status Status) (int64, error)
}
