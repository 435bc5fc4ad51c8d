package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidFingerprint = errors.New("invalid_fingerprint")
	ErrInvalidCustomer    = errors.New("invalid_customer")
)

// UnclaimedTransaction is loyalty value accrued against a card fingerprint
// that no customer owns yet. Rows are append-only; the claim fields are
// stamped exactly once when a customer registers with that card.
type UnclaimedTransaction struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	AccountID       snowflake.ID `gorm:"column:account_id;not null;index:ix_unclaimed_account_fingerprint,priority:1"`
	CardFingerprint string       `gorm:"column:card_fingerprint;type:text;not null;index:ix_unclaimed_account_fingerprint,priority:2"`
	PaymentID       snowflake.ID `gorm:"column:payment_id;not null"`
	Points          int64        `gorm:"not null;default:0"`
	CashbackAmount  int64        `gorm:"column:cashback_amount;not null;default:0"`
	Amount          int64        `gorm:"not null;default:0"`

	ClaimedByCustomerID *snowflake.ID `gorm:"column:claimed_by_customer_id"`
	ClaimedAt           *time.Time    `gorm:"column:claimed_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UnclaimedTransaction) TableName() string { return "unclaimed_transactions" }

// Totals is the aggregate unclaimed value for a fingerprint.
type Totals struct {
	Points   int64 `json:"points"`
	Cashback int64 `json:"cashback"`
	Amount   int64 `json:"amount"`
}

func (t Totals) IsZero() bool {
	return t.Points == 0 && t.Cashback == 0
}
