package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Balances is a customer's loyalty position.
type Balances struct {
	Points   int64
	Cashback int64
}

type Service interface {
	// Apply inserts the ledger row and adjusts the customer's cached
	// balance inside the caller's transaction.
	Apply(ctx context.Context, tx *gorm.DB, txn *Transaction) error

	// SumBalances derives the balances from the ledger rows alone.
	SumBalances(ctx context.Context, db *gorm.DB, accountID, customerID snowflake.ID) (Balances, error)
}
