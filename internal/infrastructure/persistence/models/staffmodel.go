package models

import (
	"time"

	"github.com/heya-pos/heya/internal/shared/constants"
)

// StaffModel is the persistence model for staff credentials.
type StaffModel struct {
	ID          string `gorm:"primaryKey;size:32"`
	MerchantID  string `gorm:"not null;size:32;index:idx_staff_merchant_status"`
	FirstName   string `gorm:"not null;size:100"`
	LastName    string `gorm:"size:100"`
	PinHash     string `gorm:"size:255"`
	Status      string `gorm:"not null;size:20;default:ACTIVE;index:idx_staff_merchant_status"`
	AccessLevel int    `gorm:"not null;default:1"`
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Locations []StaffLocationModel `gorm:"foreignKey:StaffID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (StaffModel) TableName() string {
	return constants.TableStaff
}

// StaffLocationModel assigns a staff member to a location.
type StaffLocationModel struct {
	StaffID    string `gorm:"primaryKey;size:32"`
	LocationID string `gorm:"primaryKey;size:32;index:idx_staff_locations_location"`
}

// TableName specifies the table name for GORM
func (StaffLocationModel) TableName() string {
	return constants.TableStaffLocations
}
