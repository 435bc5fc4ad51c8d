package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Resolution is the outcome of a fingerprint lookup.
type Resolution struct {
	CustomerID snowflake.ID
	Card       *Card
}

type Service interface {
	// Resolve maps a fingerprint to a known customer. Read-only: it never
	// creates a card. Returns ErrUnknownCard when no association exists.
	Resolve(ctx context.Context, accountID snowflake.ID, fingerprint string) (*Resolution, error)
}
