package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByFingerprint(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string) (*Card, error)

	// Ensure inserts the card if the (account, fingerprint) pair is new and
	// is a no-op otherwise. Safe under concurrent captures.
	Ensure(ctx context.Context, db *gorm.DB, card *Card) error

	TouchLastUsed(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string) error
}
