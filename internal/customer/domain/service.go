package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	unclaimeddomain "github.com/smallbiznis/tapcard/internal/unclaimed/domain"
)

type RegisterRequest struct {
	AccountID   snowflake.ID
	Name        string
	Email       string
	Fingerprint string
	Brand       string
	Last4       string
}

type RegisterResult struct {
	Customer *Customer
	Claimed  unclaimeddomain.Totals
}

type Service interface {
	// Register creates the customer, associates the card, migrates the
	// fingerprint's unclaimed history exactly once, and grants the
	// account's welcome incentive.
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)

	Get(ctx context.Context, accountID, customerID snowflake.ID) (*Customer, error)
}
