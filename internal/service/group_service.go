package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"ucampus.dev/reserve/internal/dto"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/pkg/apperror"
	"ucampus.dev/reserve/pkg/database"
)

type GroupService interface {
	CreateRequest(ctx context.Context, userID uuid.UUID, in dto.CreateGroupRequestInput) (*model.GroupRequest, error)
	ListMyRequests(ctx context.Context, userID uuid.UUID) ([]*model.GroupRequest, error)
	ListPendingRequests(ctx context.Context) ([]*model.GroupRequest, error)
	// ConfirmRequest moves a pending request to CONFIRMED and creates its
	// Group, with the proposer as representative, in one transaction.
	ConfirmRequest(ctx context.Context, id uuid.UUID) (*model.Group, error)
	CancelRequest(ctx context.Context, actorID, id uuid.UUID) (*model.GroupRequest, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*model.Group, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
}

type groupService struct {
	groupReqRepo repository.GroupRequestRepository
	groupRepo    repository.GroupRepository
	userRepo     repository.UserRepository
	tx           database.Transactor
}

func NewGroupService(
	groupReqRepo repository.GroupRequestRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	tx database.Transactor,
) GroupService {
	return &groupService{
		groupReqRepo: groupReqRepo,
		groupRepo:    groupRepo,
		userRepo:     userRepo,
		tx:           tx,
	}
}

func (s *groupService) CreateRequest(ctx context.Context, userID uuid.UUID, in dto.CreateGroupRequestInput) (*model.GroupRequest, error) {
	req := &model.GroupRequest{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Status:      model.StatusPending,
	}
	if err := s.groupReqRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *groupService) ListMyRequests(ctx context.Context, userID uuid.UUID) ([]*model.GroupRequest, error) {
	return s.groupReqRepo.ListActiveByUser(ctx, userID)
}

func (s *groupService) ListPendingRequests(ctx context.Context) ([]*model.GroupRequest, error) {
	return s.groupReqRepo.ListPending(ctx)
}

func (s *groupService) ConfirmRequest(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	req, err := s.groupReqRepo.FindByID(ctx, id)
	if err != nil || req.IsDeleted {
		return nil, fmt.Errorf("group request %s: %w", id, apperror.ErrNotFound)
	}
	if req.Status != model.StatusPending {
		return nil, fmt.Errorf("group request %s is %s: %w", id, req.Status, apperror.ErrConflict)
	}

	group := &model.Group{
		GroupRequestID:   req.ID,
		RepresentativeID: req.UserID,
		Name:             req.Name,
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.groupReqRepo.UpdateStatus(ctx, id, model.StatusConfirmed); err != nil {
			return err
		}
		return s.groupRepo.Create(ctx, group)
	})
	if err != nil {
		return nil, fmt.Errorf("confirm group request %s: %w", id, err)
	}

	return group, nil
}

func (s *groupService) CancelRequest(ctx context.Context, actorID, id uuid.UUID) (*model.GroupRequest, error) {
	req, err := s.groupReqRepo.FindByID(ctx, id)
	if err != nil || req.IsDeleted {
		return nil, fmt.Errorf("group request %s: %w", id, apperror.ErrNotFound)
	}

	if req.UserID != actorID {
		actor, err := s.userRepo.FindActiveByID(ctx, actorID)
		if err != nil {
			return nil, apperror.ErrUnauthorized
		}
		if !actor.Role.CanModerate() {
			return nil, fmt.Errorf("group request %s: %w", id, apperror.ErrForbidden)
		}
	}

	if req.Status != model.StatusPending {
		return nil, fmt.Errorf("group request %s is %s: %w", id, req.Status, apperror.ErrConflict)
	}

	if err := s.groupReqRepo.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		return nil, err
	}
	req.Status = model.StatusCancelled
	return req, nil
}

func (s *groupService) GetGroup(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	group, err := s.groupRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", id, apperror.ErrNotFound)
	}
	return group, nil
}

func (s *groupService) ListGroups(ctx context.Context) ([]*model.Group, error) {
	return s.groupRepo.ListActive(ctx)
}
