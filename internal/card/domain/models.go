package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrUnknownCard means the fingerprint has no customer association yet.
	ErrUnknownCard = errors.New("unknown_card")
)

// Card links a processor payment-method fingerprint to a customer. Rows are
// created only on first successful capture for a known customer or at
// registration, never by lookups. Fingerprints are scoped per account: the
// same physical card enrolled with two merchants yields two rows.
type Card struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	AccountID   snowflake.ID `gorm:"column:account_id;not null;uniqueIndex:ux_cards_account_fingerprint,priority:1"`
	Fingerprint string       `gorm:"type:text;not null;uniqueIndex:ux_cards_account_fingerprint,priority:2"`
	CustomerID  snowflake.ID `gorm:"column:customer_id;not null;index"`
	Brand       string       `gorm:"type:text"`
	Last4       string       `gorm:"column:last4;type:text"`
	LastUsedAt  *time.Time   `gorm:"column:last_used_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Card) TableName() string { return "cards" }
