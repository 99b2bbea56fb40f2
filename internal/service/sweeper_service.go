package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/internal/schedule"
	"ucampus.dev/reserve/pkg/database"
)

// SweeperService detects booked reservations whose check-in window has
// passed and reverts them, issuing a NO_SHOW strike against the assigned
// user. Each overdue reservation is handled in its own transaction so one
// failure never aborts the rest of the batch. The service is
// trigger-agnostic; scheduling lives in internal/sweep.
type SweeperService interface {
	// Sweep processes every overdue reservation and returns how many were
	// reverted. now is caller-supplied so the decision is testable.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type sweeperService struct {
	reservationRepo repository.ReservationRepository
	userRepo        repository.UserRepository
	strikeRepo      repository.StrikeRepository
	tx              database.Transactor
	graceMinutes    int
	loc             *time.Location
}

func NewSweeperService(
	reservationRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
	strikeRepo repository.StrikeRepository,
	tx database.Transactor,
	graceMinutes int,
	loc *time.Location,
) SweeperService {
	return &sweeperService{
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		strikeRepo:      strikeRepo,
		tx:              tx,
		graceMinutes:    graceMinutes,
		loc:             loc,
	}
}

func (s *sweeperService) Sweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.reservationRepo.ListPendingAssigned(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep: list candidates: %w", err)
	}

	reverted := 0
	for _, res := range candidates {
		day := schedule.DayIn(res.Day, s.loc)

		deadline, err := schedule.Deadline(day, res.Module, s.graceMinutes)
		if errors.Is(err, schedule.ErrModuleNotConfigured) {
			log.Printf("sweep: skipping reservation %s: %v", res.ID, err)
			continue
		}
		if err != nil {
			log.Printf("sweep: skipping reservation %s: %v", res.ID, err)
			continue
		}

		if !now.After(deadline) {
			continue
		}

		if err := s.revertAndPenalize(ctx, res, day); err != nil {
			// Isolate per-item failures: record and continue the batch.
			log.Printf("sweep: reservation %s failed: %v", res.ID, err)
			continue
		}
		reverted++
	}

	return reverted, nil
}

func (s *sweeperService) revertAndPenalize(ctx context.Context, res *model.Reservation, day time.Time) error {
	// Capture the assignee and slot details before the revert; a store may
	// hand back the same row it mutates, and the revert clears the user.
	userID := res.UserID
	room, module := res.Room, res.Module

	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.reservationRepo.Revert(ctx, res.ID); err != nil {
			return fmt.Errorf("revert: %w", err)
		}

		if userID == nil {
			return nil
		}

		issuer, err := s.userRepo.FindStrikeIssuer(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No active admin to issue the strike. The reservation is
			// still reverted; the missed penalty is a degraded condition.
			log.Printf("sweep: no active admin, reverted reservation %s without strike", res.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("find strike issuer: %w", err)
		}

		strike := &model.Strike{
			UserID:   *userID,
			IssuerID: issuer.ID,
			Type:     model.StrikeNoShow,
			Description: fmt.Sprintf("Missed check-in for room %s, module %d on %s",
				room, module, day.Format("2006-01-02")),
		}
		if err := s.strikeRepo.Create(ctx, strike); err != nil {
			return fmt.Errorf("create strike: %w", err)
		}

		return nil
	})
}
