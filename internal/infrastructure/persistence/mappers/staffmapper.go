package mappers

import (
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
)

// StaffMapper converts between staff credentials and persistence models.
type StaffMapper interface {
	ToEntity(model *models.StaffModel) *staff.Credential
	ToModel(entity *staff.Credential) *models.StaffModel
	ToEntities(models []*models.StaffModel) []*staff.Credential
}

type StaffMapperImpl struct{}

func NewStaffMapper() StaffMapper {
	return &StaffMapperImpl{}
}

func (m *StaffMapperImpl) ToEntity(model *models.StaffModel) *staff.Credential {
	if model == nil {
		return nil
	}

	var locationIDs []string
	for _, loc := range model.Locations {
		locationIDs = append(locationIDs, loc.LocationID)
	}

	return &staff.Credential{
		ID:          model.ID,
		MerchantID:  model.MerchantID,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		PinHash:     model.PinHash,
		Status:      staff.Status(model.Status),
		AccessLevel: staff.AccessLevel(model.AccessLevel),
		LocationIDs: locationIDs,
		LastLoginAt: model.LastLoginAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func (m *StaffMapperImpl) ToModel(entity *staff.Credential) *models.StaffModel {
	if entity == nil {
		return nil
	}

	locations := make([]models.StaffLocationModel, 0, len(entity.LocationIDs))
	for _, id := range entity.LocationIDs {
		locations = append(locations, models.StaffLocationModel{StaffID: entity.ID, LocationID: id})
	}

	status := entity.Status
	if status == "" {
		status = staff.StatusActive
	}

	return &models.StaffModel{
		ID:          entity.ID,
		MerchantID:  entity.MerchantID,
		FirstName:   entity.FirstName,
		LastName:    entity.LastName,
		PinHash:     entity.PinHash,
		Status:      string(status),
		AccessLevel: int(entity.AccessLevel.Normalize()),
		LastLoginAt: entity.LastLoginAt,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
		Locations:   locations,
	}
}

func (m *StaffMapperImpl) ToEntities(ms []*models.StaffModel) []*staff.Credential {
	entities := make([]*staff.Credential, 0, len(ms))
	for _, model := range ms {
		entities = append(entities, m.ToEntity(model))
	}
	return entities
}
