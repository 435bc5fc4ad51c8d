package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/tapcard/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

func (s *Service) Apply(ctx context.Context, tx *gorm.DB, txn *ledgerdomain.Transaction) error {
	if txn.AccountID == 0 {
		return ledgerdomain.ErrInvalidAccount
	}
	if txn.CustomerID == 0 {
		return ledgerdomain.ErrInvalidCustomer
	}
	if !ledgerdomain.ValidType(txn.Type) {
		return ledgerdomain.ErrInvalidType
	}
	if txn.Points == 0 && txn.CashbackAmount == 0 {
		return ledgerdomain.ErrEmptyDelta
	}

	if txn.ID == 0 {
		txn.ID = s.genID.Generate()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO loyalty_transactions (
			id, account_id, customer_id, payment_id, type, points, cashback_amount, amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.AccountID,
		txn.CustomerID,
		txn.PaymentID,
		string(txn.Type),
		txn.Points,
		txn.CashbackAmount,
		txn.Amount,
		txn.CreatedAt,
	).Error; err != nil {
		return err
	}

	result := tx.WithContext(ctx).Exec(
		`UPDATE customers
		 SET points_balance = points_balance + ?,
		     cashback_balance = cashback_balance + ?,
		     updated_at = ?
		 WHERE account_id = ? AND id = ?`,
		txn.Points,
		txn.CashbackAmount,
		txn.CreatedAt,
		txn.AccountID,
		txn.CustomerID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledgerdomain.ErrUnknownCustomer
	}
	return nil
}

func (s *Service) SumBalances(ctx context.Context, db *gorm.DB, accountID, customerID snowflake.ID) (ledgerdomain.Balances, error) {
	var row struct {
		Points   int64 `gorm:"column:points"`
		Cashback int64 `gorm:"column:cashback"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(points), 0) AS points,
		        COALESCE(SUM(cashback_amount), 0) AS cashback
		 FROM loyalty_transactions
		 WHERE account_id = ? AND customer_id = ?`,
		accountID,
		customerID,
	).Scan(&row).Error
	if err != nil {
		return ledgerdomain.Balances{}, err
	}
	return ledgerdomain.Balances{Points: row.Points, Cashback: row.Cashback}, nil
}
