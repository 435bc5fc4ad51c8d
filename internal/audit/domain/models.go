package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only operational record. Reconciliation incidents
// (money captured, ledger write failed) are written here so they are never
// silently swallowed.
type AuditLog struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	AccountID  *snowflake.ID  `gorm:"column:account_id;index"`
	Action     string         `gorm:"type:text;not null"`
	TargetType string         `gorm:"column:target_type;type:text;not null"`
	TargetID   *string        `gorm:"column:target_id;type:text"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActionReconciliationIncident = "payment.reconciliation_incident"
	ActionTerminalPaired         = "terminal.paired"
	ActionTerminalRevoked        = "terminal.revoked"
	ActionHistoryClaimed         = "loyalty.history_claimed"
)

type Service interface {
	AuditLog(ctx context.Context, accountID *snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error
}
