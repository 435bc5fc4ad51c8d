package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound           = errors.New("customer_not_found")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidFingerprint = errors.New("invalid_fingerprint")
)

// Customer carries cached loyalty balances. The cache is adjusted only by
// ledger application so it always matches the sum of the customer's
// loyalty_transactions rows.
type Customer struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID       snowflake.ID `gorm:"column:account_id;not null;index" json:"account_id"`
	Name            string       `gorm:"type:text;not null" json:"name"`
	Email           string       `gorm:"type:text;not null" json:"email"`
	PointsBalance   int64        `gorm:"column:points_balance;not null;default:0" json:"points_balance"`
	CashbackBalance int64        `gorm:"column:cashback_balance;not null;default:0" json:"cashback_balance"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
