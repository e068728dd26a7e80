package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
)

// ToAuditLogModel converts an audit entry for storage. Details are encoded
// as JSON; an empty map is stored as NULL.
func ToAuditLogModel(entry *audit.Entry) (*models.AuditLogModel, error) {
	var details datatypes.JSON
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = raw
	}

	var staffID *string
	if entry.StaffID != "" {
		id := entry.StaffID
		staffID = &id
	}

	return &models.AuditLogModel{
		ID:         entry.ID,
		MerchantID: entry.MerchantID,
		StaffID:    staffID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    details,
		IPAddress:  entry.IPAddress,
		Timestamp:  entry.Timestamp,
	}, nil
}

// ToAuditEntry converts a stored row back to an entry.
func ToAuditEntry(model *models.AuditLogModel) (*audit.Entry, error) {
	var details map[string]any
	if len(model.Details) > 0 {
		if err := json.Unmarshal(model.Details, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
		}
	}

	entry := &audit.Entry{
		ID:         model.ID,
		MerchantID: model.MerchantID,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Details:    details,
		IPAddress:  model.IPAddress,
		Timestamp:  model.Timestamp,
	}
	if model.StaffID != nil {
		entry.StaffID = *model.StaffID
	}
	return entry, nil
}
