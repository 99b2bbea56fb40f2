package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type GroupRequestRepository interface {
	Create(ctx context.Context, req *model.GroupRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GroupRequest, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*model.GroupRequest, error)
	ListPending(ctx context.Context) ([]*model.GroupRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error
	MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type groupRequestRepository struct {
	db *gorm.DB
}

func NewGroupRequestRepository(db *gorm.DB) GroupRequestRepository {
	return &groupRequestRepository{db: db}
}

func (r *groupRequestRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *groupRequestRepository) Create(ctx context.Context, req *model.GroupRequest) error {
	return r.conn(ctx).Create(req).Error
}

func (r *groupRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GroupRequest, error) {
	var req model.GroupRequest
	if err := r.conn(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *groupRequestRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*model.GroupRequest, error) {
	var reqs []*model.GroupRequest
	if err := r.conn(ctx).
		Where("user_id = ? AND is_deleted = false", userID).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *groupRequestRepository) ListPending(ctx context.Context) ([]*model.GroupRequest, error) {
	var reqs []*model.GroupRequest
	if err := r.conn(ctx).
		Preload("User").
		Where("status = ? AND is_deleted = false", model.StatusPending).
		Order("created_at ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *groupRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error {
	return r.conn(ctx).Model(&model.GroupRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *groupRequestRepository) MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&model.GroupRequest{}).
		Where("id IN ? AND is_deleted = false", ids).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}

func (r *groupRequestRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Model(&model.GroupRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
}
