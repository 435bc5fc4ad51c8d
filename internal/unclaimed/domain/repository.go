package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, row *UnclaimedTransaction) error
	SumUnclaimed(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string) (Totals, error)
	StampClaim(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string, customerID snowflake.ID, claimedAt time.Time) (int64, error)
	SumClaimedAt(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string, customerID snowflake.ID, claimedAt time.Time) (Totals, error)
}
