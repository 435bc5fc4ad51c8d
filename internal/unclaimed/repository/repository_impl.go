package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/unclaimed/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, row *domain.UnclaimedTransaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO unclaimed_transactions (
			id, account_id, card_fingerprint, payment_id, points, cashback_amount, amount,
			claimed_by_customer_id, claimed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)`,
		row.ID,
		row.AccountID,
		row.CardFingerprint,
		row.PaymentID,
		row.Points,
		row.CashbackAmount,
		row.Amount,
		row.CreatedAt,
	).Error
}

func (r *repo) SumUnclaimed(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string) (domain.Totals, error) {
	var row struct {
		Points   int64 `gorm:"column:points"`
		Cashback int64 `gorm:"column:cashback"`
		Amount   int64 `gorm:"column:amount"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(points), 0) AS points,
		        COALESCE(SUM(cashback_amount), 0) AS cashback,
		        COALESCE(SUM(amount), 0) AS amount
		 FROM unclaimed_transactions
		 WHERE account_id = ? AND card_fingerprint = ? AND claimed_at IS NULL`,
		accountID,
		fingerprint,
	).Scan(&row).Error
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.Totals{Points: row.Points, Cashback: row.Cashback, Amount: row.Amount}, nil
}

// StampClaim marks every unclaimed row for the key as claimed. claimed_at IS
// NULL is the sole gate: a second claimer affects zero rows.
func (r *repo) StampClaim(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string, customerID snowflake.ID, claimedAt time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE unclaimed_transactions
		 SET claimed_by_customer_id = ?, claimed_at = ?
		 WHERE account_id = ? AND card_fingerprint = ? AND claimed_at IS NULL`,
		customerID,
		claimedAt,
		accountID,
		fingerprint,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumClaimedAt sums exactly the rows stamped by one claim pass.
func (r *repo) SumClaimedAt(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string, customerID snowflake.ID, claimedAt time.Time) (domain.Totals, error) {
	var row struct {
		Points   int64 `gorm:"column:points"`
		Cashback int64 `gorm:"column:cashback"`
		Amount   int64 `gorm:"column:amount"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(points), 0) AS points,
		        COALESCE(SUM(cashback_amount), 0) AS cashback,
		        COALESCE(SUM(amount), 0) AS amount
		 FROM unclaimed_transactions
		 WHERE account_id = ? AND card_fingerprint = ?
		   AND claimed_by_customer_id = ? AND claimed_at = ?`,
		accountID,
		fingerprint,
		customerID,
		claimedAt,
	).Scan(&row).Error
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.Totals{Points: row.Points, Cashback: row.Cashback, Amount: row.Amount}, nil
}
