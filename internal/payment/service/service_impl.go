package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/tapcard/internal/account/domain"
	auditdomain "github.com/smallbiznis/tapcard/internal/audit/domain"
	carddomain "github.com/smallbiznis/tapcard/internal/card/domain"
	"github.com/smallbiznis/tapcard/internal/config"
	customerdomain "github.com/smallbiznis/tapcard/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	"github.com/smallbiznis/tapcard/internal/observability/metrics"
	"github.com/smallbiznis/tapcard/internal/payment/domain"
	"github.com/smallbiznis/tapcard/internal/processor"
	"github.com/smallbiznis/tapcard/internal/reward"
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
	Cfg          config.Config
	Repo         domain.Repository
	AccountRepo  accountdomain.Repository
	CardRepo     carddomain.Repository
	CardSvc      carddomain.Service
	CustomerRepo customerdomain.Repository
	LedgerSvc    ledgerdomain.Service
	UnclaimedSvc unclaimeddomain.Service
	Processor    processor.Client
	Audit        auditdomain.Service
	Metrics      *metrics.Metrics
}

// Service orchestrates the capture flow between the processor and the
// loyalty bookkeeping. The processor capture is the point of no return:
// everything after it either lands in one DB transaction or is reported as a
// reconciliation incident.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	cfg          config.Config
	repo         domain.Repository
	accountRepo  accountdomain.Repository
	cardRepo     carddomain.Repository
	cardSvc      carddomain.Service
	customerRepo customerdomain.Repository
	ledgerSvc    ledgerdomain.Service
	unclaimedSvc unclaimeddomain.Service
	processor    processor.Client
	audit        auditdomain.Service
	metrics      *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		cfg:          p.Cfg,
		repo:         p.Repo,
		accountRepo:  p.AccountRepo,
		cardRepo:     p.CardRepo,
		cardSvc:      p.CardSvc,
		customerRepo: p.CustomerRepo,
		ledgerSvc:    p.LedgerSvc,
		unclaimedSvc: p.UnclaimedSvc,
		processor:    p.Processor,
		audit:        p.Audit,
		metrics:      p.Metrics,
	}
}

func (s *Service) CreateIntent(ctx context.Context, req domain.CreateIntentRequest) (*domain.IntentResult, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = account.Currency
	}

	auth, err := s.processor.CreateAuthorization(ctx, req.Amount, currency, req.Description)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:               s.genID.Generate(),
		AccountID:        req.AccountID,
		TerminalID:       req.TerminalID,
		ProviderIntentID: auth.ID,
		Amount:           req.Amount,
		Currency:         currency,
		Status:           domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		s.log.Warn("authorization created but payment insert failed, hold will expire unused",
			zap.String("intent_id", auth.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("payment intent created",
		zap.String("account_id", req.AccountID.String()),
		zap.String("intent_id", auth.ID),
		zap.Int64("amount", req.Amount),
	)
	return &domain.IntentResult{Payment: payment, ClientSecret: auth.ClientSecret}, nil
}

func (s *Service) UpdateAmount(ctx context.Context, accountID snowflake.ID, intentID string, amount int64) (*domain.Payment, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrInvalidIntent
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	payment, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	if payment.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	if _, err := s.processor.UpdateAuthorization(ctx, intentID, amount); err != nil {
		return nil, err
	}

	rows, err := s.repo.UpdateAmount(ctx, s.db, accountID, intentID, amount)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrNotPending
	}

	payment.Amount = amount
	return payment, nil
}

func (s *Service) CaptureSimple(ctx context.Context, accountID snowflake.ID, intentID string) (*domain.CaptureOutcome, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrInvalidIntent
	}

	payment, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	if payment.Status != domain.StatusPending {
		return s.settledOutcome(payment)
	}
	if payment.LoyaltyRedeemed > 0 {
		return nil, domain.ErrRedemptionApplied
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	capture, err := s.processor.CaptureAuthorization(ctx, intentID, 0)
	if err != nil {
		s.metrics.Captures.WithLabelValues("processor_error").Inc()
		return nil, err
	}

	method, err := s.processor.GetPaymentMethod(ctx, capture.PaymentMethodID)
	if err != nil {
		return nil, s.incident(ctx, accountID, intentID, capture, err)
	}

	rw := reward.Compute(account, capture.AmountCaptured)
	now := time.Now().UTC()

	outcome := &domain.CaptureOutcome{
		Payment:         payment,
		EarnedPoints:    rw.Points,
		EarnedCashback:  rw.CashbackMinor,
		CardFingerprint: method.Fingerprint,
	}
	alreadyCompleted := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := s.cardRepo.FindByFingerprint(ctx, tx, accountID, method.Fingerprint)
		if err != nil {
			return err
		}

		completion := domain.Completion{
			ChargeID:      capture.ChargeID,
			AmountCharged: capture.AmountCaptured,
			LoyaltyEarned: earnValue(rw),
			CompletedAt:   now,
		}
		if card != nil {
			completion.CustomerID = &card.CustomerID
		}

		rows, err := s.repo.MarkCompleted(ctx, tx, accountID, intentID, completion)
		if err != nil {
			return err
		}
		if rows == 0 {
			alreadyCompleted = true
			return nil
		}

		if card != nil {
			outcome.CustomerID = &card.CustomerID
			if err := s.ledgerSvc.Apply(ctx, tx, &ledgerdomain.Transaction{
				AccountID:      accountID,
				CustomerID:     card.CustomerID,
				PaymentID:      &payment.ID,
				Type:           earnType(account),
				Points:         rw.Points,
				CashbackAmount: rw.CashbackMinor,
				Amount:         capture.AmountCaptured,
			}); err != nil {
				return err
			}
			return s.cardRepo.TouchLastUsed(ctx, tx, accountID, method.Fingerprint)
		}

		return s.unclaimedSvc.Accrue(ctx, tx, &unclaimeddomain.UnclaimedTransaction{
			AccountID:       accountID,
			CardFingerprint: method.Fingerprint,
			PaymentID:       payment.ID,
			Points:          rw.Points,
			CashbackAmount:  rw.CashbackMinor,
			Amount:          capture.AmountCaptured,
		})
	})
	if err != nil {
		return nil, s.incident(ctx, accountID, intentID, capture, err)
	}

	if alreadyCompleted {
		s.metrics.Captures.WithLabelValues("already_completed").Inc()
		fresh, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
		if err == nil && fresh != nil {
			return s.settledOutcome(fresh)
		}
		return s.settledOutcome(payment)
	}

	s.markCaptured(payment, capture, outcome, now)

	if outcome.CustomerID == nil {
		s.metrics.UnclaimedAccrued.Inc()
		s.metrics.Captures.WithLabelValues("unclaimed").Inc()
		outcome.SignupURL = s.signupURL(accountID, method.Fingerprint)

		totals, err := s.unclaimedSvc.TotalUnclaimed(ctx, accountID, method.Fingerprint)
		if err != nil {
			s.log.Warn("unclaimed total lookup failed after capture",
				zap.String("intent_id", intentID),
				zap.Error(err),
			)
			totals = unclaimeddomain.Totals{Points: rw.Points, Cashback: rw.CashbackMinor, Amount: capture.AmountCaptured}
		}
		outcome.Unclaimed = totals
	} else {
		s.metrics.Captures.WithLabelValues("earned").Inc()
	}

	s.log.Info("payment captured",
		zap.String("account_id", accountID.String()),
		zap.String("intent_id", intentID),
		zap.Int64("amount_charged", capture.AmountCaptured),
		zap.Bool("known_card", outcome.CustomerID != nil),
	)
	return outcome, nil
}

func (s *Service) ApplyRedemption(ctx context.Context, accountID snowflake.ID, intentID string, customerID snowflake.ID, creditToRedeem int64) (*domain.Payment, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrInvalidIntent
	}
	if creditToRedeem <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	payment, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	if payment.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, accountID, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}

	available := customer.PointsBalance
	if account.LoyaltySystemType == accountdomain.LoyaltySystemCashback {
		available = customer.CashbackBalance
	}

	credit := min(creditToRedeem, payment.Amount, available)
	if credit <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	reduced := payment.Amount - credit

	if _, err := s.processor.UpdateAuthorization(ctx, intentID, reduced); err != nil {
		return nil, err
	}

	rows, err := s.repo.UpdateRedemption(ctx, s.db, accountID, intentID, customerID, reduced, credit)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrNotPending
	}

	s.log.Info("redemption applied",
		zap.String("account_id", accountID.String()),
		zap.String("intent_id", intentID),
		zap.String("customer_id", customerID.String()),
		zap.Int64("credit", credit),
		zap.Int64("amount_charged", reduced),
	)

	payment.CustomerID = &customerID
	payment.AmountCharged = reduced
	payment.LoyaltyRedeemed = credit
	return payment, nil
}

func (s *Service) CaptureWithRedemption(ctx context.Context, accountID snowflake.ID, intentID string, customerID snowflake.ID, amountToCapture, creditRedeemed int64) (*domain.CaptureOutcome, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrInvalidIntent
	}
	if amountToCapture <= 0 || creditRedeemed < 0 {
		return nil, domain.ErrInvalidAmount
	}

	payment, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	if payment.Status != domain.StatusPending {
		return s.settledOutcome(payment)
	}
	if creditRedeemed > payment.Amount {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, accountID, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}

	capture, err := s.processor.CaptureAuthorization(ctx, intentID, amountToCapture)
	if err != nil {
		s.metrics.Captures.WithLabelValues("processor_error").Inc()
		return nil, err
	}

	method, err := s.processor.GetPaymentMethod(ctx, capture.PaymentMethodID)
	if err != nil {
		return nil, s.incident(ctx, accountID, intentID, capture, err)
	}

	rw := reward.Compute(account, capture.AmountCaptured)
	redeem := reward.RedeemDelta(account, creditRedeemed)
	now := time.Now().UTC()
	alreadyCompleted := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.MarkCompleted(ctx, tx, accountID, intentID, domain.Completion{
			CustomerID:      &customerID,
			ChargeID:        capture.ChargeID,
			AmountCharged:   capture.AmountCaptured,
			LoyaltyEarned:   earnValue(rw),
			LoyaltyRedeemed: &creditRedeemed,
			CompletedAt:     now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			alreadyCompleted = true
			return nil
		}

		if creditRedeemed > 0 {
			if err := s.ledgerSvc.Apply(ctx, tx, &ledgerdomain.Transaction{
				AccountID:      accountID,
				CustomerID:     customerID,
				PaymentID:      &payment.ID,
				Type:           redeemType(account),
				Points:         redeem.Points,
				CashbackAmount: redeem.CashbackMinor,
				Amount:         -creditRedeemed,
			}); err != nil {
				return err
			}
		}

		if err := s.ledgerSvc.Apply(ctx, tx, &ledgerdomain.Transaction{
			AccountID:      accountID,
			CustomerID:     customerID,
			PaymentID:      &payment.ID,
			Type:           earnType(account),
			Points:         rw.Points,
			CashbackAmount: rw.CashbackMinor,
			Amount:         capture.AmountCaptured,
		}); err != nil {
			return err
		}

		if err := s.cardRepo.Ensure(ctx, tx, &carddomain.Card{
			ID:          s.genID.Generate(),
			AccountID:   accountID,
			Fingerprint: method.Fingerprint,
			CustomerID:  customerID,
			Brand:       method.Brand,
			Last4:       method.Last4,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return s.cardRepo.TouchLastUsed(ctx, tx, accountID, method.Fingerprint)
	})
	if err != nil {
		return nil, s.incident(ctx, accountID, intentID, capture, err)
	}

	if alreadyCompleted {
		s.metrics.Captures.WithLabelValues("already_completed").Inc()
		fresh, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
		if err == nil && fresh != nil {
			return s.settledOutcome(fresh)
		}
		return s.settledOutcome(payment)
	}

	s.metrics.Captures.WithLabelValues("earned").Inc()

	outcome := &domain.CaptureOutcome{
		Payment:         payment,
		CustomerID:      &customerID,
		EarnedPoints:    rw.Points,
		EarnedCashback:  rw.CashbackMinor,
		CardFingerprint: method.Fingerprint,
	}
	s.markCaptured(payment, capture, outcome, now)
	payment.CustomerID = &customerID
	payment.LoyaltyRedeemed = creditRedeemed

	s.log.Info("payment captured with redemption",
		zap.String("account_id", accountID.String()),
		zap.String("intent_id", intentID),
		zap.String("customer_id", customerID.String()),
		zap.Int64("amount_charged", capture.AmountCaptured),
		zap.Int64("credit_redeemed", creditRedeemed),
	)
	return outcome, nil
}

func (s *Service) LookupCredit(ctx context.Context, accountID snowflake.ID, intentID string) (*domain.CreditLookup, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrInvalidIntent
	}

	payment, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}

	auth, err := s.processor.GetAuthorization(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if auth.PaymentMethodID == "" {
		return nil, domain.ErrNoPaymentCard
	}

	method, err := s.processor.GetPaymentMethod(ctx, auth.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	resolution, err := s.cardSvc.Resolve(ctx, accountID, method.Fingerprint)
	if err != nil {
		if errors.Is(err, carddomain.ErrUnknownCard) {
			totals, err := s.unclaimedSvc.TotalUnclaimed(ctx, accountID, method.Fingerprint)
			if err != nil {
				return nil, err
			}
			return &domain.CreditLookup{
				Unclaimed: totals,
				SignupURL: s.signupURL(accountID, method.Fingerprint),
			}, nil
		}
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, accountID, resolution.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}

	return &domain.CreditLookup{
		Known:           true,
		CustomerID:      &customer.ID,
		PointsBalance:   customer.PointsBalance,
		CashbackBalance: customer.CashbackBalance,
	}, nil
}

func (s *Service) MarkRefunded(ctx context.Context, accountID snowflake.ID, intentID string, amountRefunded int64) (*domain.Payment, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.ErrInvalidIntent
	}

	payment, err := s.repo.FindByIntentID(ctx, s.db, accountID, intentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	if payment.Status != domain.StatusCompleted && payment.Status != domain.StatusPartiallyRefunded {
		return nil, domain.ErrNotCompleted
	}
	if amountRefunded <= 0 || amountRefunded > payment.AmountCharged {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.accountRepo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	status := domain.StatusPartiallyRefunded
	if amountRefunded == payment.AmountCharged {
		status = domain.StatusRefunded
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.MarkRefunded(ctx, tx, accountID, intentID, status)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotCompleted
		}

		if payment.CustomerID == nil {
			return nil
		}

		// Claw back the loyalty earned on the refunded portion.
		rw := reward.Compute(account, amountRefunded)
		if rw.Points == 0 && rw.CashbackMinor == 0 {
			return nil
		}
		return s.ledgerSvc.Apply(ctx, tx, &ledgerdomain.Transaction{
			AccountID:      accountID,
			CustomerID:     *payment.CustomerID,
			PaymentID:      &payment.ID,
			Type:           ledgerdomain.TypeAdjustment,
			Points:         -rw.Points,
			CashbackAmount: -rw.CashbackMinor,
			Amount:         -amountRefunded,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment refunded",
		zap.String("account_id", accountID.String()),
		zap.String("intent_id", intentID),
		zap.Int64("amount_refunded", amountRefunded),
		zap.String("status", string(status)),
	)

	payment.Status = status
	return payment, nil
}

// settledOutcome reports a payment that is past pending without touching the
// ledger again.
func (s *Service) settledOutcome(payment *domain.Payment) (*domain.CaptureOutcome, error) {
	if payment.Status == domain.StatusPending {
		return nil, domain.ErrNotPending
	}
	return &domain.CaptureOutcome{
		Payment:          payment,
		AlreadyCompleted: true,
		CustomerID:       payment.CustomerID,
	}, nil
}

func (s *Service) markCaptured(payment *domain.Payment, capture *processor.CaptureResult, outcome *domain.CaptureOutcome, completedAt time.Time) {
	payment.Status = domain.StatusCompleted
	payment.ProviderChargeID = capture.ChargeID
	payment.AmountCharged = capture.AmountCaptured
	payment.LoyaltyEarned = outcome.EarnedPoints + outcome.EarnedCashback
	payment.CompletedAt = &completedAt
	payment.UpdatedAt = completedAt
	if outcome.CustomerID != nil {
		payment.CustomerID = outcome.CustomerID
	}
}

// incident records a post-capture bookkeeping failure. The capture already
// moved money, so this path never retries and never hides the error.
func (s *Service) incident(ctx context.Context, accountID snowflake.ID, intentID string, capture *processor.CaptureResult, cause error) error {
	s.metrics.Captures.WithLabelValues("consistency_error").Inc()
	s.log.Error("payment reconciliation incident",
		zap.String("account_id", accountID.String()),
		zap.String("intent_id", intentID),
		zap.String("charge_id", capture.ChargeID),
		zap.Int64("amount_captured", capture.AmountCaptured),
		zap.Error(cause),
	)

	target := intentID
	if err := s.audit.AuditLog(ctx, &accountID, auditdomain.ActionReconciliationIncident, "payment", &target, map[string]any{
		"charge_id":       capture.ChargeID,
		"amount_captured": capture.AmountCaptured,
		"error":           cause.Error(),
	}); err != nil {
		s.log.Warn("audit write failed for reconciliation incident", zap.Error(err))
	}

	return &domain.ConsistencyError{
		IntentID: intentID,
		ChargeID: capture.ChargeID,
		Amount:   capture.AmountCaptured,
		Err:      cause,
	}
}

func (s *Service) signupURL(accountID snowflake.ID, fingerprint string) string {
	return fmt.Sprintf("%s/signup?account_id=%s&card=%s",
		s.cfg.SignupBaseURL,
		accountID.String(),
		url.QueryEscape(fingerprint),
	)
}

func earnValue(rw reward.Reward) int64 {
	if rw.CashbackMinor != 0 {
		return rw.CashbackMinor
	}
	return rw.Points
}

func earnType(account *accountdomain.Account) ledgerdomain.TransactionType {
	if account.LoyaltySystemType == accountdomain.LoyaltySystemCashback {
		return ledgerdomain.TypeCashbackEarn
	}
	return ledgerdomain.TypeEarn
}

func redeemType(account *accountdomain.Account) ledgerdomain.TransactionType {
	if account.LoyaltySystemType == accountdomain.LoyaltySystemCashback {
		return ledgerdomain.TypeCashbackRedeem
	}
	return ledgerdomain.TypeRedeem
}
