package models

import (
	"time"

	"github.com/heya-pos/heya/internal/shared/constants"
)

// LocationModel is the persistence model for merchant locations.
type LocationModel struct {
	ID         string `gorm:"primaryKey;size:32"`
	MerchantID string `gorm:"not null;size:32;index:idx_locations_merchant"`
	Name       string `gorm:"not null;size:100"`
	IsActive   bool   `gorm:"not null"`
	CreatedAt  time.Time
}

// TableName specifies the table name for GORM
func (LocationModel) TableName() string {
	return constants.TableLocations
}
