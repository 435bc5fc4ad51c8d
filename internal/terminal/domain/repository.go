package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, terminal *Terminal) error
	FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*Terminal, error)
	FindByPairingCode(ctx context.Context, db *gorm.DB, code string) (*Terminal, error)
	FindActiveByKeyHash(ctx context.Context, db *gorm.DB, keyHash string) (*Terminal, error)

	// CodeInUse reports whether a live unpaired row already holds the code.
	CodeInUse(ctx context.Context, db *gorm.DB, code string, now time.Time) (bool, error)

	// CompletePairing stamps the key hash and device info onto the row
	// holding the code. api_key_hash IS NULL in the WHERE clause makes the
	// pairing one-shot; the returned count is zero for a lost race.
	CompletePairing(ctx context.Context, db *gorm.DB, code, keyHash, deviceModel, deviceID string, pairedAt time.Time) (int64, error)

	Deactivate(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (int64, error)
	TouchLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error

	// ClearExpiredCodes drops code and expiry from unpaired rows whose
	// window has passed.
	ClearExpiredCodes(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
