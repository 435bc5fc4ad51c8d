package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Accrue appends an unclaimed row inside the caller's capture
	// transaction.
	Accrue(ctx context.Context, tx *gorm.DB, row *UnclaimedTransaction) error

	// TotalUnclaimed sums rows with claimed_at IS NULL for the key.
	TotalUnclaimed(ctx context.Context, accountID snowflake.ID, fingerprint string) (Totals, error)

	// ClaimAll stamps every visible unclaimed row for the fingerprint and
	// posts one consolidated welcome_bonus ledger transaction for the summed
	// value. Must run inside a database transaction; a concurrent or
	// repeated claim stamps zero rows and posts nothing. An accrual that
	// lands after the stamp simply stays unclaimed for a later pass.
	ClaimAll(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, fingerprint string, customerID snowflake.ID) (Totals, error)
}
