package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"ucampus.dev/reserve/internal/repository"
)

// ReputationService keeps a group's reputation equal to the mean rating of
// feedback on its non-deleted event requests, rounded to one decimal place,
// zero when no feedback exists. Recompute must run as the last step of the
// transaction that performed the triggering mutation so it reads the
// already-applied structural changes.
type ReputationService interface {
	Recompute(ctx context.Context, groupID uuid.UUID) (float64, error)
}

type reputationService struct {
	eventRepo    repository.EventRequestRepository
	feedbackRepo repository.FeedbackRepository
	groupRepo    repository.GroupRepository
}

func NewReputationService(eventRepo repository.EventRequestRepository, feedbackRepo repository.FeedbackRepository, groupRepo repository.GroupRepository) ReputationService {
	return &reputationService{
		eventRepo:    eventRepo,
		feedbackRepo: feedbackRepo,
		groupRepo:    groupRepo,
	}
}

func (s *reputationService) Recompute(ctx context.Context, groupID uuid.UUID) (float64, error) {
	eventIDs, err := s.eventRepo.ListActiveIDsByGroup(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("recompute reputation for group %s: %w", groupID, err)
	}

	avg, count, err := s.feedbackRepo.AverageRatingByEventIDs(ctx, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("recompute reputation for group %s: %w", groupID, err)
	}

	reputation := 0.0
	if count > 0 {
		reputation = roundRating(avg)
	}

	if err := s.groupRepo.UpdateReputation(ctx, groupID, reputation); err != nil {
		return 0, fmt.Errorf("recompute reputation for group %s: %w", groupID, err)
	}

	return reputation, nil
}

// roundRating rounds to one decimal place, the precision reputation is
// stored and displayed with.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
