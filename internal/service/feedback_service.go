package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/dto"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/pkg/apperror"
	"ucampus.dev/reserve/pkg/database"
)

const feedbackRateLimitAction = "feedback"

type FeedbackService interface {
	Create(ctx context.Context, studentID uuid.UUID, in dto.CreateFeedbackInput) (*model.Feedback, error)
	Update(ctx context.Context, actorID, id uuid.UUID, in dto.UpdateFeedbackInput) (*model.Feedback, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Feedback, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
	eventRepo    repository.EventRequestRepository
	userRepo     repository.UserRepository
	reputation   ReputationService
	tx           database.Transactor
	rdb          *redis.Client
	rateLimit    time.Duration
	sanitizer    *bluemonday.Policy
}

func NewFeedbackService(
	feedbackRepo repository.FeedbackRepository,
	eventRepo repository.EventRequestRepository,
	userRepo repository.UserRepository,
	reputation ReputationService,
	tx database.Transactor,
	rdb *redis.Client,
	rateLimit time.Duration,
) FeedbackService {
	return &feedbackService{
		feedbackRepo: feedbackRepo,
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		reputation:   reputation,
		tx:           tx,
		rdb:          rdb,
		rateLimit:    rateLimit,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func (s *feedbackService) Create(ctx context.Context, studentID uuid.UUID, in dto.CreateFeedbackInput) (*model.Feedback, error) {
	if !validRating(in.Rating) {
		return nil, fmt.Errorf("rating must be between 1.0 and 5.0 with one decimal place: %w", apperror.ErrBadRequest)
	}

	eventID, err := uuid.Parse(in.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", apperror.ErrBadRequest)
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil || event.IsDeleted {
		return nil, fmt.Errorf("event %s: %w", eventID, apperror.ErrNotFound)
	}
	if event.Status != model.StatusConfirmed {
		return nil, fmt.Errorf("event %s is not confirmed: %w", eventID, apperror.ErrBadRequest)
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.rdb, studentID, feedbackRateLimitAction, s.rateLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	if _, err := s.feedbackRepo.FindByEventAndStudent(ctx, eventID, studentID); err == nil {
		return nil, fmt.Errorf("feedback for event %s already exists: %w", eventID, apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fb := &model.Feedback{
		EventID:   eventID,
		StudentID: studentID,
		Rating:    in.Rating,
		Comment:   s.sanitizeComment(in.Comment),
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.feedbackRepo.Create(ctx, fb); err != nil {
			return err
		}
		_, err := s.reputation.Recompute(ctx, event.GroupID)
		return err
	})
	if err != nil {
		// The action didn't happen; don't burn the user's cooldown slot.
		_ = ClearRateLimit(ctx, s.rdb, studentID, feedbackRateLimitAction)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent create won the race past the read above; the
			// unique (event, student) index caught it.
			return nil, fmt.Errorf("feedback for event %s already exists: %w", eventID, apperror.ErrConflict)
		}
		return nil, err
	}

	return fb, nil
}

func (s *feedbackService) Update(ctx context.Context, actorID, id uuid.UUID, in dto.UpdateFeedbackInput) (*model.Feedback, error) {
	if !validRating(in.Rating) {
		return nil, fmt.Errorf("rating must be between 1.0 and 5.0 with one decimal place: %w", apperror.ErrBadRequest)
	}

	fb, err := s.feedbackRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("feedback %s: %w", id, apperror.ErrNotFound)
	}
	if fb.StudentID != actorID {
		return nil, fmt.Errorf("feedback %s: %w", id, apperror.ErrForbidden)
	}

	event, err := s.eventRepo.FindByID(ctx, fb.EventID)
	if err != nil {
		return nil, fmt.Errorf("feedback %s: %w", id, err)
	}

	fb.Rating = in.Rating
	fb.Comment = s.sanitizeComment(in.Comment)

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.feedbackRepo.Update(ctx, fb); err != nil {
			return err
		}
		_, err := s.reputation.Recompute(ctx, event.GroupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return fb, nil
}

func (s *feedbackService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	fb, err := s.feedbackRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("feedback %s: %w", id, apperror.ErrNotFound)
	}

	if fb.StudentID != actorID {
		actor, err := s.userRepo.FindActiveByID(ctx, actorID)
		if err != nil {
			return apperror.ErrUnauthorized
		}
		if !actor.Role.CanModerate() {
			return fmt.Errorf("feedback %s: %w", id, apperror.ErrForbidden)
		}
	}

	event, err := s.eventRepo.FindByID(ctx, fb.EventID)
	if err != nil {
		return fmt.Errorf("feedback %s: %w", id, err)
	}

	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.feedbackRepo.Delete(ctx, id); err != nil {
			return err
		}
		_, err := s.reputation.Recompute(ctx, event.GroupID)
		return err
	})
}

func (s *feedbackService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Feedback, error) {
	return s.feedbackRepo.ListByEvent(ctx, eventID)
}

func (s *feedbackService) sanitizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*comment)
	return &clean
}

// validRating accepts ratings in [1.0, 5.0] with at most one decimal place.
func validRating(r float64) bool {
	if r < 1.0 || r > 5.0 {
		return false
	}
	scaled := r * 10
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}
