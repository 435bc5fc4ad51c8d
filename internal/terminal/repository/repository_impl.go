package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tapcard/internal/terminal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, terminal *domain.Terminal) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO terminals (
			id, account_id, label, api_key_hash, pairing_code, pairing_expires_at,
			device_model, device_id, is_active, paired_at, last_seen_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		terminal.ID,
		terminal.AccountID,
		terminal.Label,
		terminal.APIKeyHash,
		terminal.PairingCode,
		terminal.PairingExpiresAt,
		terminal.DeviceModel,
		terminal.DeviceID,
		terminal.IsActive,
		terminal.CreatedAt,
		terminal.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*domain.Terminal, error) {
	var terminal domain.Terminal
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM terminals WHERE account_id = ? AND id = ?`,
		accountID,
		id,
	).First(&terminal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &terminal, nil
}

func (r *repo) FindByPairingCode(ctx context.Context, db *gorm.DB, code string) (*domain.Terminal, error) {
	var terminal domain.Terminal
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM terminals WHERE pairing_code = ?`,
		code,
	).First(&terminal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &terminal, nil
}

func (r *repo) FindActiveByKeyHash(ctx context.Context, db *gorm.DB, keyHash string) (*domain.Terminal, error) {
	var terminal domain.Terminal
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM terminals WHERE api_key_hash = ? AND is_active = ?`,
		keyHash,
		true,
	).First(&terminal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &terminal, nil
}

func (r *repo) CodeInUse(ctx context.Context, db *gorm.DB, code string, now time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM terminals
		 WHERE pairing_code = ? AND api_key_hash IS NULL AND pairing_expires_at > ?`,
		code,
		now,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CompletePairing(ctx context.Context, db *gorm.DB, code, keyHash, deviceModel, deviceID string, pairedAt time.Time) (int64, error) {
	// Expiry is re-checked in the guard so a pairing racing the boundary
	// cannot consume a code the service saw as live moments earlier.
	result := db.WithContext(ctx).Exec(
		`UPDATE terminals
		 SET api_key_hash = ?, device_model = ?, device_id = ?, paired_at = ?, updated_at = ?
		 WHERE pairing_code = ? AND api_key_hash IS NULL AND pairing_expires_at > ?`,
		keyHash,
		deviceModel,
		deviceID,
		pairedAt,
		pairedAt,
		code,
		pairedAt,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE terminals SET is_active = ?, updated_at = ? WHERE account_id = ? AND id = ? AND is_active = ?`,
		false,
		time.Now().UTC(),
		accountID,
		id,
		true,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) TouchLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE terminals SET last_seen_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}

func (r *repo) ClearExpiredCodes(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE terminals
		 SET pairing_code = NULL, pairing_expires_at = NULL, updated_at = ?
		 WHERE api_key_hash IS NULL AND pairing_code IS NOT NULL AND pairing_expires_at <= ?`,
		now,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
