package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Feedback, error)
	FindByEventAndStudent(ctx context.Context, eventID, studentID uuid.UUID) (*model.Feedback, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Feedback, error)
	Update(ctx context.Context, fb *model.Feedback) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByEventIDs(ctx context.Context, eventIDs []uuid.UUID) error
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) error
	// AverageRatingByEventIDs computes the mean rating over all feedback
	// whose event is in the given set, together with the row count. The
	// average is 0 when the set matches no rows.
	AverageRatingByEventIDs(ctx context.Context, eventIDs []uuid.UUID) (float64, int64, error)
	// GroupIDsWithFeedbackByStudent returns the distinct groups whose
	// events carry feedback authored by the student. The cascade uses it
	// to know which reputations to recompute after hard-deleting the
	// student's feedback.
	GroupIDsWithFeedbackByStudent(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *feedbackRepository) Create(ctx context.Context, fb *model.Feedback) error {
	return r.conn(ctx).Create(fb).Error
}

func (r *feedbackRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	var fb model.Feedback
	if err := r.conn(ctx).Where("id = ?", id).First(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepository) FindByEventAndStudent(ctx context.Context, eventID, studentID uuid.UUID) (*model.Feedback, error) {
	var fb model.Feedback
	if err := r.conn(ctx).
		Where("event_id = ? AND student_id = ?", eventID, studentID).
		First(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Feedback, error) {
	var fbs []*model.Feedback
	if err := r.conn(ctx).
		Preload("Student").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&fbs).Error; err != nil {
		return nil, err
	}
	return fbs, nil
}

func (r *feedbackRepository) Update(ctx context.Context, fb *model.Feedback) error {
	return r.conn(ctx).Model(&model.Feedback{}).
		Where("id = ?", fb.ID).
		Updates(map[string]interface{}{"rating": fb.Rating, "comment": fb.Comment}).Error
}

func (r *feedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Delete(&model.Feedback{}, "id = ?", id).Error
}

func (r *feedbackRepository) DeleteByEventIDs(ctx context.Context, eventIDs []uuid.UUID) error {
	if len(eventIDs) == 0 {
		return nil
	}
	return r.conn(ctx).Delete(&model.Feedback{}, "event_id IN ?", eventIDs).Error
}

func (r *feedbackRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	return r.conn(ctx).Delete(&model.Feedback{}, "student_id = ?", studentID).Error
}

func (r *feedbackRepository) GroupIDsWithFeedbackByStudent(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.conn(ctx).Model(&model.Feedback{}).
		Joins("JOIN event_requests ON event_requests.id = feedbacks.event_id").
		Where("feedbacks.student_id = ?", studentID).
		Distinct().
		Pluck("event_requests.group_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *feedbackRepository) AverageRatingByEventIDs(ctx context.Context, eventIDs []uuid.UUID) (float64, int64, error) {
	if len(eventIDs) == 0 {
		return 0, 0, nil
	}

	var result struct {
		Avg   float64
		Count int64
	}
	if err := r.conn(ctx).Model(&model.Feedback{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("event_id IN ?", eventIDs).
		Scan(&result).Error; err != nil {
		return 0, 0, err
	}

	return result.Avg, result.Count, nil
}
