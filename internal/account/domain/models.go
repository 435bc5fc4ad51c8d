package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// LoyaltySystemType selects how an account rewards captured payments.
type LoyaltySystemType string

const (
	LoyaltySystemPoints   LoyaltySystemType = "points"
	LoyaltySystemCashback LoyaltySystemType = "cashback"
)

var (
	ErrNotFound = errors.New("account_not_found")
)

// Account is the tenant configuration. It is owned by the dashboard and
// read-only to the loyalty core.
type Account struct {
	ID                snowflake.ID      `gorm:"primaryKey"`
	Name              string            `gorm:"type:text;not null"`
	LoyaltySystemType LoyaltySystemType `gorm:"column:loyalty_system_type;type:text;not null"`

	// CashbackRateBps is the cashback percentage in basis points
	// (500 = 5.00%).
	CashbackRateBps int64 `gorm:"column:cashback_rate_bps;not null;default:0"`

	// PointsRateHundredths is points earned per major currency unit,
	// scaled by 100 (150 = 1.5 points per unit).
	PointsRateHundredths int64 `gorm:"column:points_rate_hundredths;not null;default:0"`

	HistoricalRewardDays int   `gorm:"column:historical_reward_days;not null;default:0"`
	WelcomeIncentive     int64 `gorm:"column:welcome_incentive;not null;default:0"`

	Currency  string    `gorm:"type:text;not null;default:'USD'"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
