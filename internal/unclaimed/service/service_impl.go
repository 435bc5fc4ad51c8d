package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	unclaimeddomain "github.com/smallbiznis/tapcard/internal/unclaimed/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	LedgerSvc ledgerdomain.Service
	Repo      unclaimeddomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	ledgerSvc ledgerdomain.Service
	repo      unclaimeddomain.Repository
}

func NewService(p Params) unclaimeddomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("unclaimed.service"),
		genID:     p.GenID,
		ledgerSvc: p.LedgerSvc,
		repo:      p.Repo,
	}
}

func (s *Service) Accrue(ctx context.Context, tx *gorm.DB, row *unclaimeddomain.UnclaimedTransaction) error {
	row.CardFingerprint = strings.TrimSpace(row.CardFingerprint)
	if row.CardFingerprint == "" {
		return unclaimeddomain.ErrInvalidFingerprint
	}

	if row.ID == 0 {
		row.ID = s.genID.Generate()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return s.repo.Insert(ctx, tx, row)
}

func (s *Service) TotalUnclaimed(ctx context.Context, accountID snowflake.ID, fingerprint string) (unclaimeddomain.Totals, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return unclaimeddomain.Totals{}, unclaimeddomain.ErrInvalidFingerprint
	}
	return s.repo.SumUnclaimed(ctx, s.db, accountID, fingerprint)
}

// ClaimAll stamps first and sums the stamped rows afterwards, so the
// consolidated transaction covers exactly what this pass claimed. A row
// accrued after the stamp stays unclaimed for the next pass.
func (s *Service) ClaimAll(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, fingerprint string, customerID snowflake.ID) (unclaimeddomain.Totals, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return unclaimeddomain.Totals{}, unclaimeddomain.ErrInvalidFingerprint
	}
	if customerID == 0 {
		return unclaimeddomain.Totals{}, unclaimeddomain.ErrInvalidCustomer
	}

	claimedAt := time.Now().UTC()
	stamped, err := s.repo.StampClaim(ctx, tx, accountID, fingerprint, customerID, claimedAt)
	if err != nil {
		return unclaimeddomain.Totals{}, err
	}
	if stamped == 0 {
		return unclaimeddomain.Totals{}, nil
	}

	totals, err := s.repo.SumClaimedAt(ctx, tx, accountID, fingerprint, customerID, claimedAt)
	if err != nil {
		return unclaimeddomain.Totals{}, err
	}
	if totals.IsZero() {
		return totals, nil
	}

	if err := s.ledgerSvc.Apply(ctx, tx, &ledgerdomain.Transaction{
		AccountID:      accountID,
		CustomerID:     customerID,
		Type:           ledgerdomain.TypeWelcomeBonus,
		Points:         totals.Points,
		CashbackAmount: totals.Cashback,
		Amount:         totals.Amount,
	}); err != nil {
		return unclaimeddomain.Totals{}, err
	}

	s.log.Info("claimed unclaimed history",
		zap.String("account_id", accountID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Int64("rows", stamped),
		zap.Int64("points", totals.Points),
		zap.Int64("cashback", totals.Cashback),
	)
	return totals, nil
}
