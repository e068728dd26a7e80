package mappers

import (
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
)

func LocationToModel(l *staff.Location) *models.LocationModel {
	if l == nil {
		return nil
	}
	return &models.LocationModel{
		ID:         l.ID,
		MerchantID: l.MerchantID,
		Name:       l.Name,
		IsActive:   l.IsActive,
		CreatedAt:  l.CreatedAt,
	}
}
