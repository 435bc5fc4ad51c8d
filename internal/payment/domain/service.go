package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	unclaimeddomain "github.com/smallbiznis/tapcard/internal/unclaimed/domain"
)

type CreateIntentRequest struct {
	AccountID   snowflake.ID
	TerminalID  snowflake.ID
	Amount      int64
	Currency    string
	Description string
}

// IntentResult pairs the stored payment with the processor client secret the
// terminal needs to collect the card.
type IntentResult struct {
	Payment      *Payment
	ClientSecret string
}

// CaptureOutcome summarizes what a capture did on the loyalty side. For an
// unknown card the earn value lands in Unclaimed and SignupURL points the
// cardholder at registration.
type CaptureOutcome struct {
	Payment          *Payment
	AlreadyCompleted bool

	CustomerID     *snowflake.ID
	EarnedPoints   int64
	EarnedCashback int64

	CardFingerprint string
	Unclaimed       unclaimeddomain.Totals
	SignupURL       string
}

// CreditLookup reports the loyalty credit behind the card on an intent.
type CreditLookup struct {
	Known      bool
	CustomerID *snowflake.ID

	PointsBalance   int64
	CashbackBalance int64

	Unclaimed unclaimeddomain.Totals
	SignupURL string
}

type Service interface {
	// CreateIntent opens a manual-capture authorization at the processor and
	// records the pending payment.
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResult, error)

	// UpdateAmount resizes a pending authorization, at the processor first
	// and then on the stored row.
	UpdateAmount(ctx context.Context, accountID snowflake.ID, intentID string, amount int64) (*Payment, error)

	// CaptureSimple captures the full authorized amount and reconciles the
	// loyalty side: earn for a known card, unclaimed accrual for an unknown
	// one. Safe to re-invoke after completion.
	CaptureSimple(ctx context.Context, accountID snowflake.ID, intentID string) (*CaptureOutcome, error)

	// ApplyRedemption shrinks the authorization by the customer's redeemed
	// credit before capture. The ledger entry is deferred to the capture.
	ApplyRedemption(ctx context.Context, accountID snowflake.ID, intentID string, customerID snowflake.ID, creditToRedeem int64) (*Payment, error)

	// CaptureWithRedemption captures the reduced amount and posts the
	// redeem and earn ledger entries in one transaction, redeem first.
	CaptureWithRedemption(ctx context.Context, accountID snowflake.ID, intentID string, customerID snowflake.ID, amountToCapture, creditRedeemed int64) (*CaptureOutcome, error)

	// LookupCredit is the read-only pre-capture balance check for the card
	// on an intent.
	LookupCredit(ctx context.Context, accountID snowflake.ID, intentID string) (*CreditLookup, error)

	// MarkRefunded records an externally initiated refund and reverses the
	// loyalty earned on the refunded portion.
	MarkRefunded(ctx context.Context, accountID snowflake.ID, intentID string, amountRefunded int64) (*Payment, error)
}
