package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// TransactionType classifies a loyalty ledger entry.
type TransactionType string

const (
	TypeEarn           TransactionType = "earn"
	TypeRedeem         TransactionType = "redeem"
	TypeCashbackEarn   TransactionType = "cashback_earn"
	TypeCashbackRedeem TransactionType = "cashback_redeem"
	TypeWelcomeBonus   TransactionType = "welcome_bonus"
	TypeAdjustment     TransactionType = "adjustment"
)

var (
	ErrInvalidAccount  = errors.New("invalid_account")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidType     = errors.New("invalid_transaction_type")
	ErrEmptyDelta      = errors.New("empty_transaction_delta")

	// ErrUnknownCustomer means the balance row the delta should land on does
	// not exist; committing the ledger row anyway would break balance==sum.
	ErrUnknownCustomer = errors.New("unknown_customer")
)

// Transaction is an immutable loyalty ledger entry. Customer balances are
// derived by summing these rows; the cached columns on customers exist for
// read performance and are adjusted in the same database transaction as the
// insert.
type Transaction struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	AccountID      snowflake.ID    `gorm:"column:account_id;not null;index"`
	CustomerID     snowflake.ID    `gorm:"column:customer_id;not null;index"`
	PaymentID      *snowflake.ID   `gorm:"column:payment_id;index"`
	Type           TransactionType `gorm:"type:text;not null"`
	Points         int64           `gorm:"not null;default:0"`
	CashbackAmount int64           `gorm:"column:cashback_amount;not null;default:0"`
	Amount         int64           `gorm:"not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "loyalty_transactions" }

func ValidType(t TransactionType) bool {
	switch t {
	case TypeEarn, TypeRedeem, TypeCashbackEarn, TypeCashbackRedeem, TypeWelcomeBonus, TypeAdjustment:
		return true
	default:
		return false
	}
}
