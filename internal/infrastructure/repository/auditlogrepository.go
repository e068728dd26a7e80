package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/mappers"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

var _ audit.Sink = (*AuditLogRepository)(nil)

func (r *AuditLogRepository) Append(ctx context.Context, entry *audit.Entry) error {
	model, err := mappers.ToAuditLogModel(entry)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// ListByMerchant returns the newest entries for a merchant first.
func (r *AuditLogRepository) ListByMerchant(ctx context.Context, merchantID string, limit int) ([]*audit.Entry, error) {
	var rows []*models.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	entries := make([]*audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := mappers.ToAuditEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
