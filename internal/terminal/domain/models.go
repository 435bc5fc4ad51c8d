package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound           = errors.New("terminal_not_found")
	ErrInvalidLabel       = errors.New("invalid_label")
	ErrInvalidAPIKey      = errors.New("invalid_api_key")
	ErrPairingNotFound    = errors.New("pairing_code_not_found")
	ErrPairingExpired     = errors.New("pairing_code_expired")
	ErrPairingAlreadyUsed = errors.New("pairing_code_already_used")
)

// APIKeyPrefix starts every minted terminal key so leaked keys are
// recognizable in logs and scanners.
const APIKeyPrefix = "tc_live_key_"

// Terminal is a paired point-of-sale device. Only the sha256 of its API key
// is stored; the raw key is shown once at pairing. The pairing code is kept
// after use so a replayed code reports already-used instead of not-found.
type Terminal struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	AccountID        snowflake.ID `gorm:"column:account_id;not null;index"`
	Label            string       `gorm:"type:text;not null"`
	APIKeyHash       *string      `gorm:"column:api_key_hash;type:text;uniqueIndex:ux_terminals_api_key_hash"`
	PairingCode      *string      `gorm:"column:pairing_code;type:text;index"`
	PairingExpiresAt *time.Time   `gorm:"column:pairing_expires_at"`
	DeviceModel      string       `gorm:"column:device_model;type:text"`
	DeviceID         string       `gorm:"column:device_id;type:text"`
	IsActive         bool         `gorm:"column:is_active;not null;default:true"`
	PairedAt         *time.Time   `gorm:"column:paired_at"`
	LastSeenAt       *time.Time   `gorm:"column:last_seen_at"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Terminal) TableName() string { return "terminals" }

// HashAPIKey is the only form in which keys touch storage or the cache.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
