package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/pkg/apperror"
	"ucampus.dev/reserve/pkg/database"
	"ucampus.dev/reserve/pkg/identity"
)

// CascadeService soft-deletes a root entity and everything it transitively
// owns, in one transaction, walking the ownership chain in a fixed order:
// User -> GroupRequest -> Group -> EventRequest -> Feedback (hard-deleted).
// Only non-deleted descendants are touched, so concurrent or repeated
// cascades are no-ops below the root. Reputation is recomputed for every
// touched group as the last step of the same transaction.
type CascadeService interface {
	// DeleteUser cascades a user deletion. The returned warning is
	// non-empty when the post-commit identity suspension failed; the
	// deletion itself is already committed at that point.
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, string, error)
	// RestoreUser clears the deletion flag on the user only; cascaded
	// descendants stay deleted.
	RestoreUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, string, error)
	DeleteGroupRequest(ctx context.Context, actorID, id uuid.UUID) (*model.GroupRequest, error)
	RestoreGroupRequest(ctx context.Context, actorID, id uuid.UUID) (*model.GroupRequest, error)
	DeleteGroup(ctx context.Context, actorID, id uuid.UUID) (*model.Group, error)
	DeleteEventRequest(ctx context.Context, actorID, id uuid.UUID) (*model.EventRequest, error)
}

type cascadeService struct {
	userRepo        repository.UserRepository
	groupReqRepo    repository.GroupRequestRepository
	groupRepo       repository.GroupRepository
	eventRepo       repository.EventRequestRepository
	feedbackRepo    repository.FeedbackRepository
	reservationRepo repository.ReservationRepository
	strikeRepo      repository.StrikeRepository
	reputation      ReputationService
	identity        identity.Provider
	tx              database.Transactor
}

func NewCascadeService(
	userRepo repository.UserRepository,
	groupReqRepo repository.GroupRequestRepository,
	groupRepo repository.GroupRepository,
	eventRepo repository.EventRequestRepository,
	feedbackRepo repository.FeedbackRepository,
	reservationRepo repository.ReservationRepository,
	strikeRepo repository.StrikeRepository,
	reputation ReputationService,
	idp identity.Provider,
	tx database.Transactor,
) CascadeService {
	return &cascadeService{
		userRepo:        userRepo,
		groupReqRepo:    groupReqRepo,
		groupRepo:       groupRepo,
		eventRepo:       eventRepo,
		feedbackRepo:    feedbackRepo,
		reservationRepo: reservationRepo,
		strikeRepo:      strikeRepo,
		reputation:      reputation,
		identity:        idp,
		tx:              tx,
	}
}

// subtree is the level-ordered set of ids a cascade will touch below its
// root. Collecting it first and deleting level by level keeps the ordering
// in one place as the schema grows.
type subtree struct {
	groupRequestIDs []uuid.UUID
	groupIDs        []uuid.UUID
	eventIDs        []uuid.UUID
}

func (s *cascadeService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, string, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, "", err
	}
	if actor.ID != id && !actor.Role.CanModerate() {
		return nil, "", fmt.Errorf("delete user %s: %w", id, apperror.ErrForbidden)
	}

	var target *model.User
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		target, err = s.userRepo.FindByID(ctx, id)
		if err != nil || target.IsDeleted {
			return fmt.Errorf("delete user %s: %w", id, apperror.ErrNotFound)
		}

		now := time.Now()

		sub, err := s.collectUserSubtree(ctx, id)
		if err != nil {
			return err
		}

		// Groups outside the user's own subtree lose feedback too when the
		// user's authored feedback goes away; they need recomputing as well.
		authored, err := s.feedbackRepo.GroupIDsWithFeedbackByStudent(ctx, id)
		if err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}

		if err := s.userRepo.MarkDeleted(ctx, id, now); err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}
		if err := s.applySubtree(ctx, sub, now); err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}

		if err := s.reservationRepo.ReleaseByUser(ctx, id); err != nil {
			return fmt.Errorf("delete user %s: release reservations: %w", id, err)
		}
		if err := s.feedbackRepo.DeleteByStudent(ctx, id); err != nil {
			return fmt.Errorf("delete user %s: delete feedback: %w", id, err)
		}
		if err := s.strikeRepo.DeleteBySubject(ctx, id); err != nil {
			return fmt.Errorf("delete user %s: delete strikes: %w", id, err)
		}
		if target.Role.CanModerate() {
			if err := s.strikeRepo.DeleteByIssuer(ctx, id); err != nil {
				return fmt.Errorf("delete user %s: delete issued strikes: %w", id, err)
			}
		}

		return s.recomputeAll(ctx, union(sub.groupIDs, authored))
	})
	if err != nil {
		return nil, "", err
	}

	warning := s.suspendAccount(ctx, target)
	return target, warning, nil
}

func (s *cascadeService) RestoreUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, string, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, "", err
	}
	if !actor.Role.CanModerate() {
		return nil, "", fmt.Errorf("restore user %s: %w", id, apperror.ErrForbidden)
	}

	target, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("restore user %s: %w", id, apperror.ErrNotFound)
	}
	if !target.IsDeleted {
		return nil, "", fmt.Errorf("restore user %s: not deleted: %w", id, apperror.ErrBadRequest)
	}

	if err := s.userRepo.Restore(ctx, id); err != nil {
		return nil, "", fmt.Errorf("restore user %s: %w", id, err)
	}
	target.IsDeleted = false
	target.DeletedAt = nil

	warning := s.restoreAccount(ctx, target)
	return target, warning, nil
}

func (s *cascadeService) DeleteGroupRequest(ctx context.Context, actorID, id uuid.UUID) (*model.GroupRequest, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var req *model.GroupRequest
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		req, err = s.groupReqRepo.FindByID(ctx, id)
		if err != nil || req.IsDeleted {
			return fmt.Errorf("delete group request %s: %w", id, apperror.ErrNotFound)
		}
		if actor.ID != req.UserID && !actor.Role.CanModerate() {
			return fmt.Errorf("delete group request %s: %w", id, apperror.ErrForbidden)
		}

		now := time.Now()

		sub, err := s.collectRequestSubtree(ctx, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("delete group request %s: %w", id, err)
		}

		if err := s.applySubtree(ctx, sub, now); err != nil {
			return fmt.Errorf("delete group request %s: %w", id, err)
		}

		return s.recomputeAll(ctx, sub.groupIDs)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *cascadeService) RestoreGroupRequest(ctx context.Context, actorID, id uuid.UUID) (*model.GroupRequest, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanModerate() {
		return nil, fmt.Errorf("restore group request %s: %w", id, apperror.ErrForbidden)
	}

	req, err := s.groupReqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore group request %s: %w", id, apperror.ErrNotFound)
	}
	if !req.IsDeleted {
		return nil, fmt.Errorf("restore group request %s: not deleted: %w", id, apperror.ErrBadRequest)
	}

	if err := s.groupReqRepo.Restore(ctx, id); err != nil {
		return nil, fmt.Errorf("restore group request %s: %w", id, err)
	}
	req.IsDeleted = false
	req.DeletedAt = nil
	return req, nil
}

func (s *cascadeService) DeleteGroup(ctx context.Context, actorID, id uuid.UUID) (*model.Group, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var group *model.Group
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		group, err = s.groupRepo.FindByID(ctx, id)
		if err != nil || group.IsDeleted {
			return fmt.Errorf("delete group %s: %w", id, apperror.ErrNotFound)
		}
		if actor.ID != group.RepresentativeID && !actor.Role.CanModerate() {
			return fmt.Errorf("delete group %s: %w", id, apperror.ErrForbidden)
		}

		now := time.Now()

		sub := subtree{groupIDs: []uuid.UUID{id}}
		sub.eventIDs, err = s.eventRepo.ListActiveIDsByGroupIDs(ctx, sub.groupIDs)
		if err != nil {
			return fmt.Errorf("delete group %s: %w", id, err)
		}

		if err := s.applySubtree(ctx, sub, now); err != nil {
			return fmt.Errorf("delete group %s: %w", id, err)
		}

		return s.recomputeAll(ctx, sub.groupIDs)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *cascadeService) DeleteEventRequest(ctx context.Context, actorID, id uuid.UUID) (*model.EventRequest, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var req *model.EventRequest
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		req, err = s.eventRepo.FindByID(ctx, id)
		if err != nil || req.IsDeleted {
			return fmt.Errorf("delete event request %s: %w", id, apperror.ErrNotFound)
		}

		group, err := s.groupRepo.FindByID(ctx, req.GroupID)
		if err != nil {
			return fmt.Errorf("delete event request %s: %w", id, err)
		}
		if actor.ID != group.RepresentativeID && !actor.Role.CanModerate() {
			return fmt.Errorf("delete event request %s: %w", id, apperror.ErrForbidden)
		}

		sub := subtree{eventIDs: []uuid.UUID{id}}
		if err := s.applySubtree(ctx, sub, time.Now()); err != nil {
			return fmt.Errorf("delete event request %s: %w", id, err)
		}

		return s.recomputeAll(ctx, []uuid.UUID{req.GroupID})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// collectUserSubtree gathers the ids of everything a user transitively
// owns, level by level, skipping already-deleted rows at each level.
func (s *cascadeService) collectUserSubtree(ctx context.Context, userID uuid.UUID) (subtree, error) {
	var sub subtree

	reqs, err := s.groupReqRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return sub, fmt.Errorf("collect group requests: %w", err)
	}
	for _, req := range reqs {
		sub.groupRequestIDs = append(sub.groupRequestIDs, req.ID)
	}

	rest, err := s.collectRequestSubtree(ctx, sub.groupRequestIDs)
	if err != nil {
		return sub, err
	}
	sub.groupIDs = rest.groupIDs
	sub.eventIDs = rest.eventIDs
	return sub, nil
}

func (s *cascadeService) collectRequestSubtree(ctx context.Context, requestIDs []uuid.UUID) (subtree, error) {
	sub := subtree{groupRequestIDs: requestIDs}

	groups, err := s.groupRepo.ListActiveByRequestIDs(ctx, requestIDs)
	if err != nil {
		return sub, fmt.Errorf("collect groups: %w", err)
	}
	for _, g := range groups {
		sub.groupIDs = append(sub.groupIDs, g.ID)
	}

	sub.eventIDs, err = s.eventRepo.ListActiveIDsByGroupIDs(ctx, sub.groupIDs)
	if err != nil {
		return sub, fmt.Errorf("collect event requests: %w", err)
	}
	return sub, nil
}

// applySubtree executes the deletions in the fixed downward order. Feedback
// is physically removed, never flagged.
func (s *cascadeService) applySubtree(ctx context.Context, sub subtree, now time.Time) error {
	if err := s.groupReqRepo.MarkDeleted(ctx, sub.groupRequestIDs, now); err != nil {
		return fmt.Errorf("mark group requests deleted: %w", err)
	}
	if err := s.groupRepo.MarkDeleted(ctx, sub.groupIDs, now); err != nil {
		return fmt.Errorf("mark groups deleted: %w", err)
	}
	if err := s.eventRepo.MarkDeleted(ctx, sub.eventIDs, now); err != nil {
		return fmt.Errorf("mark event requests deleted: %w", err)
	}
	if err := s.feedbackRepo.DeleteByEventIDs(ctx, sub.eventIDs); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}

func (s *cascadeService) recomputeAll(ctx context.Context, groupIDs []uuid.UUID) error {
	for _, groupID := range groupIDs {
		if _, err := s.reputation.Recompute(ctx, groupID); err != nil {
			return err
		}
	}
	return nil
}

func (s *cascadeService) loadActor(ctx context.Context, actorID uuid.UUID) (*model.User, error) {
	actor, err := s.userRepo.FindActiveByID(ctx, actorID)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}
	return actor, nil
}

// suspendAccount runs the identity-provider call after the delete has
// committed. It is deliberately outside the transaction: its failure is
// retried once, then logged for alerting and surfaced as a warning, never
// as a rollback of the already-committed delete.
func (s *cascadeService) suspendAccount(ctx context.Context, user *model.User) string {
	if user.ExternalID == "" {
		return ""
	}

	err := s.identity.Suspend(ctx, user.ExternalID)
	if err != nil {
		err = s.identity.Suspend(ctx, user.ExternalID)
	}
	if err != nil {
		log.Printf("ALERT: account suspension failed for user %s: %v", user.ID, err)
		return "user deleted, but account suspension failed; the identity must be suspended manually"
	}
	return ""
}

func (s *cascadeService) restoreAccount(ctx context.Context, user *model.User) string {
	if user.ExternalID == "" {
		return ""
	}

	err := s.identity.Restore(ctx, user.ExternalID)
	if err != nil {
		err = s.identity.Restore(ctx, user.ExternalID)
	}
	if err != nil {
		log.Printf("ALERT: account restoration failed for user %s: %v", user.ID, err)
		return "user restored, but account restoration failed; the identity must be restored manually"
	}
	return ""
}

func union(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(a)+len(b))
	var out []uuid.UUID
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
