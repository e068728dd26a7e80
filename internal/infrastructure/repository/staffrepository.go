package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/mappers"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
	"github.com/heya-pos/heya/internal/shared/biztime"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type StaffRepository struct {
	db     *gorm.DB
	mapper mappers.StaffMapper
}

func NewStaffRepository(db *gorm.DB) staff.Repository {
	return &StaffRepository{
		db:     db,
		mapper: mappers.NewStaffMapper(),
	}
}

func (r *StaffRepository) FindActiveByMerchant(ctx context.Context, merchantID, locationID string) ([]*staff.Credential, error) {
	query := r.db.WithContext(ctx).
		Preload("Locations").
		Where("merchant_id = ? AND status = ?", merchantID, string(staff.StatusActive))

	if locationID != "" {
		// Staff without location assignments work everywhere.
		query = query.Where(
			"(NOT EXISTS (SELECT 1 FROM staff_locations sl WHERE sl.staff_id = staff.id)"+
				" OR EXISTS (SELECT 1 FROM staff_locations sl WHERE sl.staff_id = staff.id AND sl.location_id = ?))",
			locationID,
		)
	}

	var staffModels []*models.StaffModel
	if err := query.Order("created_at ASC, id ASC").Find(&staffModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find active staff: %w", err)
	}

	return r.mapper.ToEntities(staffModels), nil
}

func (r *StaffRepository) FindByID(ctx context.Context, id string) (*staff.Credential, error) {
	var model models.StaffModel
	err := r.db.WithContext(ctx).Preload("Locations").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get staff by ID: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}

func (r *StaffRepository) UpdatePinHash(ctx context.Context, id, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"pin_hash":   hash,
		"updated_at": biztime.NowUTC(),
	})
}

func (r *StaffRepository) UpdateLastLogin(ctx context.Context, id string) error {
	now := biztime.NowUTC()
	return r.updateColumns(ctx, id, map[string]interface{}{
		"last_login_at": now,
		"updated_at":    now,
	})
}

func (r *StaffRepository) updateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.StaffModel{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update staff: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("staff not found", id)
	}
	return nil
}

func (r *StaffRepository) Create(ctx context.Context, credential *staff.Credential) error {
	model := r.mapper.ToModel(credential)
	now := biztime.NowUTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("staff already exists", credential.ID)
		}
		return fmt.Errorf("failed to create staff: %w", err)
	}

	credential.CreatedAt = model.CreatedAt
	credential.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *StaffRepository) HasLocation(ctx context.Context, merchantID, locationID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LocationModel{}).
		Where("id = ? AND merchant_id = ? AND is_active = ?", locationID, merchantID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up location: %w", err)
	}
	return count > 0, nil
}

func (r *StaffRepository) CreateLocation(ctx context.Context, location *staff.Location) error {
	model := mappers.LocationToModel(location)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = biztime.NowUTC()
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("location already exists", location.ID)
		}
		return fmt.Errorf("failed to create location: %w", err)
	}

	location.CreatedAt = model.CreatedAt
	return nil
}
