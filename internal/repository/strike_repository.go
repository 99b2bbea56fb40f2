package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type StrikeRepository interface {
	Create(ctx context.Context, strike *model.Strike) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Strike, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteBySubject(ctx context.Context, userID uuid.UUID) error
	DeleteByIssuer(ctx context.Context, issuerID uuid.UUID) error
}

type strikeRepository struct {
	db *gorm.DB
}

func NewStrikeRepository(db *gorm.DB) StrikeRepository {
	return &strikeRepository{db: db}
}

func (r *strikeRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *strikeRepository) Create(ctx context.Context, strike *model.Strike) error {
	return r.conn(ctx).Create(strike).Error
}

func (r *strikeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Strike, error) {
	var strikes []*model.Strike
	if err := r.conn(ctx).
		Preload("Issuer").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&strikes).Error; err != nil {
		return nil, err
	}
	return strikes, nil
}

func (r *strikeRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.conn(ctx).Model(&model.Strike{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *strikeRepository) DeleteBySubject(ctx context.Context, userID uuid.UUID) error {
	return r.conn(ctx).Delete(&model.Strike{}, "user_id = ?", userID).Error
}

func (r *strikeRepository) DeleteByIssuer(ctx context.Context, issuerID uuid.UUID) error {
	return r.conn(ctx).Delete(&model.Strike{}, "issuer_id = ?", issuerID).Error
}
