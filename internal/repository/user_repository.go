package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*model.User, error)
	// FindStrikeIssuer returns the admin that serves as issuer for
	// system-generated strikes: the oldest active admin (IDs are uuid v7,
	// so ordering by id is creation order). Returns gorm.ErrRecordNotFound
	// when no active admin exists.
	FindStrikeIssuer(ctx context.Context) (*model.User, error)
	ListActive(ctx context.Context) ([]*model.User, error)
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.conn(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.conn(ctx).
		Where("id = ? AND is_deleted = false", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.conn(ctx).
		Where("email = ? AND is_deleted = false", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindStrikeIssuer(ctx context.Context) (*model.User, error) {
	var admin model.User
	if err := r.conn(ctx).
		Where("role = ? AND is_deleted = false", model.RoleAdmin).
		Order("id ASC").
		First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.conn(ctx).
		Where("is_deleted = false").
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.conn(ctx).Model(&model.User{}).
		Where("id = ? AND is_deleted = false", id).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}

func (r *userRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
}
