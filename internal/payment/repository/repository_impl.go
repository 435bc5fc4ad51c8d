package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, account_id, terminal_id, customer_id, provider_intent_id, provider_charge_id,
			amount, amount_charged, loyalty_redeemed, loyalty_earned, currency, status,
			created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		payment.ID,
		payment.AccountID,
		payment.TerminalID,
		payment.CustomerID,
		payment.ProviderIntentID,
		payment.ProviderChargeID,
		payment.Amount,
		payment.AmountCharged,
		payment.LoyaltyRedeemed,
		payment.LoyaltyEarned,
		payment.Currency,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByIntentID(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE account_id = ? AND provider_intent_id = ?`,
		accountID,
		intentID,
	).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, c domain.Completion) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?,
		     customer_id = COALESCE(?, customer_id),
		     provider_charge_id = ?,
		     amount_charged = ?,
		     loyalty_earned = ?,
		     loyalty_redeemed = COALESCE(?, loyalty_redeemed),
		     completed_at = ?,
		     updated_at = ?
		 WHERE account_id = ? AND provider_intent_id = ? AND status = ?`,
		domain.StatusCompleted,
		c.CustomerID,
		c.ChargeID,
		c.AmountCharged,
		c.LoyaltyEarned,
		c.LoyaltyRedeemed,
		c.CompletedAt,
		c.CompletedAt,
		accountID,
		intentID,
		domain.StatusPending,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) UpdateAmount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, amount int64) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET amount = ?, updated_at = ?
		 WHERE account_id = ? AND provider_intent_id = ? AND status = ?`,
		amount,
		time.Now().UTC(),
		accountID,
		intentID,
		domain.StatusPending,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) UpdateRedemption(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, customerID snowflake.ID, amountCharged, loyaltyRedeemed int64) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET customer_id = ?, amount_charged = ?, loyalty_redeemed = ?, updated_at = ?
		 WHERE account_id = ? AND provider_intent_id = ? AND status = ?`,
		customerID,
		amountCharged,
		loyaltyRedeemed,
		time.Now().UTC(),
		accountID,
		intentID,
		domain.StatusPending,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) MarkRefunded(ctx context.Context, db *gorm.DB, accountID snowflake.ID, intentID string, status domain.Status) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, updated_at = ?
		 WHERE account_id = ? AND provider_intent_id = ?
		   AND status IN (?, ?)`,
		status,
		time.Now().UTC(),
		accountID,
		intentID,
		domain.StatusCompleted,
		domain.StatusPartiallyRefunded,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
