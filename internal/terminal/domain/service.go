package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/terminalctx"
)

// PairResult carries the raw API key exactly once, at pairing time.
type PairResult struct {
	Terminal *Terminal
	APIKey   string
}

type Service interface {
	// GeneratePairingCode creates or refreshes an unpaired terminal row with
	// a short-lived pairing code. Dashboard-side operation.
	GeneratePairingCode(ctx context.Context, accountID snowflake.ID, label string) (*Terminal, error)

	// Pair exchanges a live pairing code for a freshly minted API key.
	// Distinguishes ErrPairingNotFound, ErrPairingExpired and
	// ErrPairingAlreadyUsed; the exchange is one-shot.
	Pair(ctx context.Context, code, deviceModel, deviceID string) (*PairResult, error)

	// ValidateAPIKey resolves a raw key to the terminal identity, through a
	// short TTL cache. A revoked terminal keeps validating for at most one
	// cache TTL.
	ValidateAPIKey(ctx context.Context, rawKey string) (terminalctx.Identity, error)

	// Revoke deactivates the terminal and drops its cache entry.
	Revoke(ctx context.Context, accountID, terminalID snowflake.ID) error

	// UpdateLastSeen is fire-and-forget; failures are logged, never
	// surfaced to the request that triggered them.
	UpdateLastSeen(terminalID snowflake.ID)

	// CleanupExpiredPairingCodes clears codes whose window has passed.
	CleanupExpiredPairingCodes(ctx context.Context) (int64, error)
}
