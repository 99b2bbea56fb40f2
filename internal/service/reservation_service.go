package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/internal/schedule"
	"ucampus.dev/reserve/pkg/apperror"
)

type ReservationService interface {
	ListByDay(ctx context.Context, day time.Time, room string) ([]*model.Reservation, error)
	// Book claims an available slot for the user. The claim is a single
	// conditional update, so two concurrent bookings of the same slot
	// cannot both succeed.
	Book(ctx context.Context, userID, reservationID uuid.UUID) (*model.Reservation, error)
	// CheckIn marks the user present. Valid until the module's start time
	// plus the grace period; after that the slot belongs to the sweeper.
	CheckIn(ctx context.Context, userID, reservationID uuid.UUID, now time.Time) (*model.Reservation, error)
	// Seed pre-creates slots for every room, day and module in the
	// horizon. Existing slots are left untouched.
	Seed(ctx context.Context, rooms []string, from time.Time, days int) (int, error)
}

type reservationService struct {
	reservationRepo repository.ReservationRepository
	graceMinutes    int
	loc             *time.Location
}

func NewReservationService(reservationRepo repository.ReservationRepository, graceMinutes int, loc *time.Location) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		graceMinutes:    graceMinutes,
		loc:             loc,
	}
}

func (s *reservationService) ListByDay(ctx context.Context, day time.Time, room string) ([]*model.Reservation, error) {
	return s.reservationRepo.ListByDay(ctx, day, room)
}

func (s *reservationService) Book(ctx context.Context, userID, reservationID uuid.UUID) (*model.Reservation, error) {
	res, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, apperror.ErrNotFound)
	}
	if res.IsFinished || res.Availability != model.SlotAvailable {
		return nil, fmt.Errorf("reservation %s is not available: %w", reservationID, apperror.ErrConflict)
	}

	if err := s.reservationRepo.Book(ctx, reservationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Someone else claimed the slot between the read and the update.
			return nil, fmt.Errorf("reservation %s is not available: %w", reservationID, apperror.ErrConflict)
		}
		return nil, err
	}

	return s.reservationRepo.FindByID(ctx, reservationID)
}

func (s *reservationService) CheckIn(ctx context.Context, userID, reservationID uuid.UUID, now time.Time) (*model.Reservation, error) {
	res, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, apperror.ErrNotFound)
	}
	if res.UserID == nil || *res.UserID != userID {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, apperror.ErrForbidden)
	}
	if res.Status != model.ReservationPending || res.Availability != model.SlotUnavailable {
		return nil, fmt.Errorf("reservation %s is not awaiting check-in: %w", reservationID, apperror.ErrConflict)
	}

	day := schedule.DayIn(res.Day, s.loc)
	deadline, err := schedule.Deadline(day, res.Module, s.graceMinutes)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, apperror.ErrBadRequest)
	}
	if now.After(deadline) {
		return nil, fmt.Errorf("check-in window for reservation %s closed at %s: %w",
			reservationID, deadline.Format(time.RFC3339), apperror.ErrBadRequest)
	}

	if err := s.reservationRepo.SetStatus(ctx, reservationID, model.ReservationPresent); err != nil {
		return nil, err
	}
	res.Status = model.ReservationPresent
	return res, nil
}

func (s *reservationService) Seed(ctx context.Context, rooms []string, from time.Time, days int) (int, error) {
	var slots []*model.Reservation
	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		for _, room := range rooms {
			for module := 1; module <= 9; module++ {
				slots = append(slots, &model.Reservation{
					Room:         room,
					Day:          day,
					Module:       module,
					Availability: model.SlotAvailable,
					Status:       model.ReservationPending,
				})
			}
		}
	}

	if err := s.reservationRepo.BulkCreate(ctx, slots); err != nil {
		return 0, fmt.Errorf("seed reservations: %w", err)
	}
	return len(slots), nil
}
