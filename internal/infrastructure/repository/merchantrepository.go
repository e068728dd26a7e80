package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/mappers"
	"github.com/heya-pos/heya/internal/infrastructure/persistence/models"
	"github.com/heya-pos/heya/internal/shared/biztime"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type MerchantRepository struct {
	db     *gorm.DB
	mapper mappers.MerchantMapper
}

func NewMerchantRepository(db *gorm.DB) merchant.Repository {
	return &MerchantRepository{
		db:     db,
		mapper: mappers.NewMerchantMapper(),
	}
}

func (r *MerchantRepository) FindByLogin(ctx context.Context, login string) (*merchant.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil
	}

	acct, err := r.findOne(ctx, "email = ?", strings.ToLower(login))
	if err != nil || acct != nil {
		return acct, err
	}
	return r.findOne(ctx, "username = ?", login)
}

func (r *MerchantRepository) FindByID(ctx context.Context, id string) (*merchant.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *MerchantRepository) findOne(ctx context.Context, query string, arg interface{}) (*merchant.Account, error) {
	var model models.MerchantModel
	err := r.db.WithContext(ctx).Where(query, arg).Order("created_at ASC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get merchant account: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}

func (r *MerchantRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"password_hash": hash,
		"updated_at":    biztime.NowUTC(),
	})
}

func (r *MerchantRepository) UpdateLastLogin(ctx context.Context, id string) error {
	now := biztime.NowUTC()
	return r.updateColumns(ctx, id, map[string]interface{}{
		"last_login_at": now,
		"updated_at":    now,
	})
}

func (r *MerchantRepository) updateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.MerchantModel{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update merchant account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("merchant account not found", id)
	}
	return nil
}

func (r *MerchantRepository) Create(ctx context.Context, account *merchant.Account) error {
	model := r.mapper.ToModel(account)
	now := biztime.NowUTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("merchant account already exists", account.MerchantID)
		}
		return fmt.Errorf("failed to create merchant account: %w", err)
	}

	account.CreatedAt = model.CreatedAt
	account.UpdatedAt = model.UpdatedAt
	return nil
}
