package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/card/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByFingerprint(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string) (*domain.Card, error) {
	var card domain.Card
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, fingerprint, customer_id, brand, last4, last_used_at, created_at
		 FROM cards WHERE account_id = ? AND fingerprint = ?`,
		accountID,
		fingerprint,
	).Scan(&card).Error
	if err != nil {
		return nil, err
	}
	if card.ID == 0 {
		return nil, nil
	}
	return &card, nil
}

func (r *repo) Ensure(ctx context.Context, db *gorm.DB, card *domain.Card) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO cards (id, account_id, fingerprint, customer_id, brand, last4, last_used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, fingerprint) DO NOTHING`,
		card.ID,
		card.AccountID,
		card.Fingerprint,
		card.CustomerID,
		card.Brand,
		card.Last4,
		card.LastUsedAt,
		card.CreatedAt,
	).Error
}

func (r *repo) TouchLastUsed(ctx context.Context, db *gorm.DB, accountID snowflake.ID, fingerprint string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE cards SET last_used_at = ? WHERE account_id = ? AND fingerprint = ?`,
		time.Now().UTC(),
		accountID,
		fingerprint,
	).Error
}
