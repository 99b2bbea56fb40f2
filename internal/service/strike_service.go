package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/pkg/apperror"
)

type StrikeService interface {
	// ListForUser returns a user's strikes and their total count; students
	// may only see their own.
	ListForUser(ctx context.Context, actorID, userID uuid.UUID) ([]*model.Strike, int64, error)
	// Issue creates an admin-issued MISCONDUCT strike.
	Issue(ctx context.Context, issuerID, userID uuid.UUID, description string) (*model.Strike, error)
}

type strikeService struct {
	strikeRepo repository.StrikeRepository
	userRepo   repository.UserRepository
}

func NewStrikeService(strikeRepo repository.StrikeRepository, userRepo repository.UserRepository) StrikeService {
	return &strikeService{strikeRepo: strikeRepo, userRepo: userRepo}
}

func (s *strikeService) ListForUser(ctx context.Context, actorID, userID uuid.UUID) ([]*model.Strike, int64, error) {
	if actorID != userID {
		actor, err := s.userRepo.FindActiveByID(ctx, actorID)
		if err != nil {
			return nil, 0, apperror.ErrUnauthorized
		}
		if !actor.Role.CanModerate() {
			return nil, 0, fmt.Errorf("strikes of user %s: %w", userID, apperror.ErrForbidden)
		}
	}

	strikes, err := s.strikeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.strikeRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return strikes, total, nil
}

func (s *strikeService) Issue(ctx context.Context, issuerID, userID uuid.UUID, description string) (*model.Strike, error) {
	subject, err := s.userRepo.FindActiveByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}

	strike := &model.Strike{
		UserID:      subject.ID,
		IssuerID:    issuerID,
		Type:        model.StrikeMisconduct,
		Description: description,
	}
	if err := s.strikeRepo.Create(ctx, strike); err != nil {
		return nil, err
	}
	return strike, nil
}
