package models

import (
	"time"

	"github.com/heya-pos/heya/internal/shared/constants"
)

// MerchantModel is the persistence model for merchant owner accounts.
type MerchantModel struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	MerchantID         string  `gorm:"not null;size:32;uniqueIndex:idx_merchant_accounts_merchant"`
	Name               string  `gorm:"not null;size:200"`
	Email              string  `gorm:"not null;size:255;index:idx_merchant_accounts_email"`
	Username           *string `gorm:"size:100;uniqueIndex:idx_merchant_accounts_username"`
	PasswordHash       string  `gorm:"not null;size:255"`
	Status             string  `gorm:"not null;size:20;default:ACTIVE"`
	SubscriptionStatus string  `gorm:"not null;size:20;default:TRIAL"`
	TrialEndsAt        *time.Time
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (MerchantModel) TableName() string {
	return constants.TableMerchants
}
