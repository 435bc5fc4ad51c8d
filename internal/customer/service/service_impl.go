package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/tapcard/internal/account/domain"
	carddomain "github.com/smallbiznis/tapcard/internal/card/domain"
	customerdomain "github.com/smallbiznis/tapcard/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	unclaimeddomain "github.com/smallbiznis/tapcard/internal/unclaimed/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         customerdomain.Repository
	AccountRepo  accountdomain.Repository
	CardRepo     carddomain.Repository
	LedgerSvc    ledgerdomain.Service
	UnclaimedSvc unclaimeddomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         customerdomain.Repository
	accountRepo  accountdomain.Repository
	cardRepo     carddomain.Repository
	ledgerSvc    ledgerdomain.Service
	unclaimedSvc unclaimeddomain.Service
}

func NewService(p Params) customerdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("customer.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		accountRepo:  p.AccountRepo,
		cardRepo:     p.CardRepo,
		ledgerSvc:    p.LedgerSvc,
		unclaimedSvc: p.UnclaimedSvc,
	}
}

func (s *Service) Register(ctx context.Context, req customerdomain.RegisterRequest) (*customerdomain.RegisterResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, customerdomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, customerdomain.ErrInvalidEmail
	}
	fingerprint := strings.TrimSpace(req.Fingerprint)
	if fingerprint == "" {
		return nil, customerdomain.ErrInvalidFingerprint
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	now := time.Now().UTC()
	customer := &customerdomain.Customer{
		ID:        s.genID.Generate(),
		AccountID: req.AccountID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var claimed unclaimeddomain.Totals
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, customer); err != nil {
			return err
		}

		if err := s.cardRepo.Ensure(ctx, tx, &carddomain.Card{
			ID:          s.genID.Generate(),
			AccountID:   req.AccountID,
			Fingerprint: fingerprint,
			CustomerID:  customer.ID,
			Brand:       strings.TrimSpace(req.Brand),
			Last4:       strings.TrimSpace(req.Last4),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		claimed, err = s.unclaimedSvc.ClaimAll(ctx, tx, req.AccountID, fingerprint, customer.ID)
		if err != nil {
			return err
		}

		if account.WelcomeIncentive > 0 {
			bonus := &ledgerdomain.Transaction{
				AccountID:  req.AccountID,
				CustomerID: customer.ID,
				Type:       ledgerdomain.TypeWelcomeBonus,
			}
			if account.LoyaltySystemType == accountdomain.LoyaltySystemCashback {
				bonus.CashbackAmount = account.WelcomeIncentive
			} else {
				bonus.Points = account.WelcomeIncentive
			}
			if err := s.ledgerSvc.Apply(ctx, tx, bonus); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, s.db, req.AccountID, customer.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, customerdomain.ErrNotFound
	}

	s.log.Info("customer registered",
		zap.String("account_id", req.AccountID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.Int64("claimed_points", claimed.Points),
		zap.Int64("claimed_cashback", claimed.Cashback),
	)
	return &customerdomain.RegisterResult{Customer: created, Claimed: claimed}, nil
}

func (s *Service) Get(ctx context.Context, accountID, customerID snowflake.ID) (*customerdomain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, accountID, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}
	return customer, nil
}
