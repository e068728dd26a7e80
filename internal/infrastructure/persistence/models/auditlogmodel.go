package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/heya-pos/heya/internal/shared/constants"
)

// AuditLogModel is the persistence model for audit entries. Rows are
// append-only.
type AuditLogModel struct {
	ID         string         `gorm:"primaryKey;size:36"`
	MerchantID string         `gorm:"not null;size:32;index:idx_audit_logs_merchant_time"`
	StaffID    *string        `gorm:"size:32;index:idx_audit_logs_staff"`
	Action     string         `gorm:"not null;size:64;index:idx_audit_logs_action"`
	EntityType string         `gorm:"not null;size:32"`
	EntityID   string         `gorm:"size:64"`
	Details    datatypes.JSON `gorm:"type:json"`
	IPAddress  string         `gorm:"size:45"`
	Timestamp  time.Time      `gorm:"not null;index:idx_audit_logs_merchant_time"`
}

// TableName specifies the table name for GORM
func (AuditLogModel) TableName() string {
	return constants.TableAuditLogs
}
