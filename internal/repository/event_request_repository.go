package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type EventRequestRepository interface {
	Create(ctx context.Context, req *model.EventRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.EventRequest, error)
	ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*model.EventRequest, error)
	// ListActiveIDsByGroup returns the ids of the group's non-deleted event
	// requests; this is the foreign-key set reputation aggregates over.
	ListActiveIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	ListActiveIDsByGroupIDs(ctx context.Context, groupIDs []uuid.UUID) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error
	MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type eventRequestRepository struct {
	db *gorm.DB
}

func NewEventRequestRepository(db *gorm.DB) EventRequestRepository {
	return &eventRequestRepository{db: db}
}

func (r *eventRequestRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *eventRequestRepository) Create(ctx context.Context, req *model.EventRequest) error {
	return r.conn(ctx).Create(req).Error
}

func (r *eventRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EventRequest, error) {
	var req model.EventRequest
	if err := r.conn(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *eventRequestRepository) ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*model.EventRequest, error) {
	var reqs []*model.EventRequest
	if err := r.conn(ctx).
		Where("group_id = ? AND is_deleted = false", groupID).
		Order("day ASC, module ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *eventRequestRepository) ListActiveIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.conn(ctx).Model(&model.EventRequest{}).
		Where("group_id = ? AND is_deleted = false", groupID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *eventRequestRepository) ListActiveIDsByGroupIDs(ctx context.Context, groupIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(groupIDs) == 0 {
		return []uuid.UUID{}, nil
	}
	var ids []uuid.UUID
	if err := r.conn(ctx).Model(&model.EventRequest{}).
		Where("group_id IN ? AND is_deleted = false", groupIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *eventRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error {
	return r.conn(ctx).Model(&model.EventRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *eventRequestRepository) MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&model.EventRequest{}).
		Where("id IN ? AND is_deleted = false", ids).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}
