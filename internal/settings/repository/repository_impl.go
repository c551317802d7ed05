package repository

import (
	"context"

	"github.com/teblo/teblo/internal/settings/domain"
	"gorm.io/gorm"
)

type Repository interface {
	FindByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.Settings, error)
	Insert(ctx context.Context, db *gorm.DB, settings *domain.Settings) error
	Save(ctx context.Context, db *gorm.DB, settings *domain.Settings) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) FindByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.Settings, error) {
	var settings domain.Settings
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&settings).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Create(settings).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Save(settings).Error
}
