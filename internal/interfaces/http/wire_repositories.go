package http

import (
	"gorm.io/gorm"

	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/repository"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	staffRepo    staff.Repository
	merchantRepo merchant.Repository
	auditLogRepo *repository.AuditLogRepository
}

// newRepositories creates all repository instances from the database connection.
func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		staffRepo:    repository.NewStaffRepository(db),
		merchantRepo: repository.NewMerchantRepository(db),
		auditLogRepo: repository.NewAuditLogRepository(db),
	}
}
