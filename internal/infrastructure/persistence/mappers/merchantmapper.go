package mappers

import (
	"strings"

	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
)

// MerchantMapper converts between merchant accounts and persistence models.
type MerchantMapper interface {
	ToEntity(model *models.MerchantModel) *merchant.Account
	ToModel(entity *merchant.Account) *models.MerchantModel
}

type MerchantMapperImpl struct{}

func NewMerchantMapper() MerchantMapper {
	return &MerchantMapperImpl{}
}

func (m *MerchantMapperImpl) ToEntity(model *models.MerchantModel) *merchant.Account {
	if model == nil {
		return nil
	}

	var username string
	if model.Username != nil {
		username = *model.Username
	}

	return &merchant.Account{
		ID:                 model.ID,
		MerchantID:         model.MerchantID,
		Name:               model.Name,
		Email:              model.Email,
		Username:           username,
		PasswordHash:       model.PasswordHash,
		Status:             merchant.Status(model.Status),
		SubscriptionStatus: merchant.SubscriptionStatus(model.SubscriptionStatus),
		TrialEndsAt:        model.TrialEndsAt,
		LastLoginAt:        model.LastLoginAt,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// ToModel stores emails lower-cased so lookups match case-insensitively on
// every driver. An empty username is stored as NULL to keep the unique index
// usable.
func (m *MerchantMapperImpl) ToModel(entity *merchant.Account) *models.MerchantModel {
	if entity == nil {
		return nil
	}

	var username *string
	if entity.Username != "" {
		u := entity.Username
		username = &u
	}

	status := entity.Status
	if status == "" {
		status = merchant.StatusActive
	}
	subscription := entity.SubscriptionStatus
	if subscription == "" {
		subscription = merchant.SubscriptionTrial
	}

	return &models.MerchantModel{
		ID:                 entity.ID,
		MerchantID:         entity.MerchantID,
		Name:               entity.Name,
		Email:              strings.ToLower(strings.TrimSpace(entity.Email)),
		Username:           username,
		PasswordHash:       entity.PasswordHash,
		Status:             string(status),
		SubscriptionStatus: string(subscription),
		TrialEndsAt:        entity.TrialEndsAt,
		LastLoginAt:        entity.LastLoginAt,
		CreatedAt:          entity.CreatedAt,
		UpdatedAt:          entity.UpdatedAt,
	}
}
