package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"ucampus.dev/reserve/internal/dto"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/internal/schedule"
	"ucampus.dev/reserve/pkg/apperror"
)

type EventService interface {
	Create(ctx context.Context, actorID uuid.UUID, in dto.CreateEventRequestInput) (*model.EventRequest, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*model.EventRequest, error)
	Confirm(ctx context.Context, id uuid.UUID) (*model.EventRequest, error)
	Cancel(ctx context.Context, actorID, id uuid.UUID) (*model.EventRequest, error)
}

type eventService struct {
	eventRepo repository.EventRequestRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

func NewEventService(
	eventRepo repository.EventRequestRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

func (s *eventService) Create(ctx context.Context, actorID uuid.UUID, in dto.CreateEventRequestInput) (*model.EventRequest, error) {
	groupID, err := uuid.Parse(in.GroupID)
	if err != nil {
		return nil, fmt.Errorf("invalid group id: %w", apperror.ErrBadRequest)
	}

	group, err := s.groupRepo.FindActiveByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", groupID, apperror.ErrNotFound)
	}

	if group.RepresentativeID != actorID {
		actor, err := s.userRepo.FindActiveByID(ctx, actorID)
		if err != nil {
			return nil, apperror.ErrUnauthorized
		}
		if !actor.Role.CanModerate() {
			return nil, fmt.Errorf("group %s: %w", groupID, apperror.ErrForbidden)
		}
	}

	if _, err := schedule.BlockFor(in.Module); err != nil {
		return nil, fmt.Errorf("module %d: %w", in.Module, apperror.ErrBadRequest)
	}

	day, err := time.Parse("2006-01-02", in.Day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", in.Day, apperror.ErrBadRequest)
	}

	req := &model.EventRequest{
		GroupID:     groupID,
		Space:       in.Space,
		Day:         day,
		Module:      in.Module,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.StatusPending,
	}
	if err := s.eventRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *eventService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*model.EventRequest, error) {
	return s.eventRepo.ListActiveByGroup(ctx, groupID)
}

func (s *eventService) Confirm(ctx context.Context, id uuid.UUID) (*model.EventRequest, error) {
	req, err := s.eventRepo.FindByID(ctx, id)
	if err != nil || req.IsDeleted {
		return nil, fmt.Errorf("event request %s: %w", id, apperror.ErrNotFound)
	}
	if req.Status != model.StatusPending {
		return nil, fmt.Errorf("event request %s is %s: %w", id, req.Status, apperror.ErrConflict)
	}

	if err := s.eventRepo.UpdateStatus(ctx, id, model.StatusConfirmed); err != nil {
		return nil, err
	}
	req.Status = model.StatusConfirmed
	return req, nil
}

func (s *eventService) Cancel(ctx context.Context, actorID, id uuid.UUID) (*model.EventRequest, error) {
	req, err := s.eventRepo.FindByID(ctx, id)
	if err != nil || req.IsDeleted {
		return nil, fmt.Errorf("event request %s: %w", id, apperror.ErrNotFound)
	}

	group, err := s.groupRepo.FindByID(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("event request %s: %w", id, err)
	}
	if group.RepresentativeID != actorID {
		actor, err := s.userRepo.FindActiveByID(ctx, actorID)
		if err != nil {
			return nil, apperror.ErrUnauthorized
		}
		if !actor.Role.CanModerate() {
			return nil, fmt.Errorf("event request %s: %w", id, apperror.ErrForbidden)
		}
	}

	if req.Status != model.StatusPending {
		return nil, fmt.Errorf("event request %s is %s: %w", id, req.Status, apperror.ErrConflict)
	}

	if err := s.eventRepo.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		return nil, err
	}
	req.Status = model.StatusCancelled
	return req, nil
}
