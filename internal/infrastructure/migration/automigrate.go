package migration

import (
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the models GormAutoMigrateStrategy creates.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.StaffModel{},
		&models.StaffLocationModel{},
		&models.AuditLogModel{},
		&models.LocationModel{},
		&models.MerchantModel{},
	}
}
