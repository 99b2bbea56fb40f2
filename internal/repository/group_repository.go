package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Group, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Group, error)
	ListActive(ctx context.Context) ([]*model.Group, error)
	ListActiveByRequestIDs(ctx context.Context, requestIDs []uuid.UUID) ([]*model.Group, error)
	UpdateReputation(ctx context.Context, id uuid.UUID, reputation float64) error
	MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.conn(ctx).Create(group).Error
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var group model.Group
	if err := r.conn(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var group model.Group
	if err := r.conn(ctx).
		Preload("Representative").
		Where("id = ? AND is_deleted = false", id).
		First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) ListActive(ctx context.Context) ([]*model.Group, error) {
	var groups []*model.Group
	if err := r.conn(ctx).
		Where("is_deleted = false").
		Order("created_at ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) ListActiveByRequestIDs(ctx context.Context, requestIDs []uuid.UUID) ([]*model.Group, error) {
	if len(requestIDs) == 0 {
		return []*model.Group{}, nil
	}
	var groups []*model.Group
	if err := r.conn(ctx).
		Where("group_request_id IN ? AND is_deleted = false", requestIDs).
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) UpdateReputation(ctx context.Context, id uuid.UUID, reputation float64) error {
	return r.conn(ctx).Model(&model.Group{}).
		Where("id = ?", id).
		Update("reputation", reputation).Error
}

func (r *groupRepository) MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&model.Group{}).
		Where("id IN ? AND is_deleted = false", ids).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}
