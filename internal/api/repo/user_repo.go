package repo

import (
	"context"
	"jobmarket"
	"jobmarket/internal/api/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	Db *gorm.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{Db: jobmarket.DB}
}

// FindByEmail matches the address case-insensitively
func (slf *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := slf.Db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	return user, err
}

func (slf *UserRepository) FindByPhoneNumber(ctx context.Context, phoneNumber string) (models.User, error) {
	var user models.User
	err := slf.Db.WithContext(ctx).Where("phone_number = ?", phoneNumber).First(&user).Error
	return user, err
}

// FindByID retrieves a user with their completion history, oldest first
func (slf *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := slf.Db.WithContext(ctx).
		Preload("CompletedJobs", func(db *gorm.DB) *gorm.DB {
			return db.Order("completed_at ASC, id ASC")
		}).
		First(&user, id).Error
	return user, err
}

func (slf *UserRepository) Create(ctx context.Context, user *models.User) error {
	return slf.Db.WithContext(ctx).Create(user).Error
}

func (slf *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := slf.Db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	return count > 0, err
}

// UpdateRefreshToken stores the refresh token currently accepted for the user
func (slf *UserRepository) UpdateRefreshToken(ctx context.Context, id uint, refreshToken string) error {
	return slf.updateColumn(ctx, id, "refresh_token", refreshToken)
}

func (slf *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return slf.updateColumn(ctx, id, "password", hashedPassword)
}

// UpdateFcmToken replaces whatever device token the user had before
func (slf *UserRepository) UpdateFcmToken(ctx context.Context, id uint, token string) error {
	return slf.updateColumn(ctx, id, "fcm_token", token)
}

func (slf *UserRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	result := slf.Db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
