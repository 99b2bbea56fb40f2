package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/pkg/database"
)

type ReservationRepository interface {
	// BulkCreate inserts slots, silently skipping (room, day, module)
	// combinations that already exist. Used by the horizon seeder.
	BulkCreate(ctx context.Context, slots []*model.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	FindSlot(ctx context.Context, room string, day time.Time, module int) (*model.Reservation, error)
	ListByDay(ctx context.Context, day time.Time, room string) ([]*model.Reservation, error)
	// ListPendingAssigned returns reservations still waiting for a
	// check-in: booked, pending, not finished, with a user assigned.
	// This is the sweeper's candidate set.
	ListPendingAssigned(ctx context.Context) ([]*model.Reservation, error)
	// Book atomically claims an available slot for a user. Returns
	// gorm.ErrRecordNotFound when the slot was not available.
	Book(ctx context.Context, id, userID uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error
	// Revert returns a slot to its clean state: available, pending,
	// nobody assigned.
	Revert(ctx context.Context, id uuid.UUID) error
	// ReleaseByUser frees every slot currently assigned to the user.
	ReleaseByUser(ctx context.Context, userID uuid.UUID) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *reservationRepository) BulkCreate(ctx context.Context, slots []*model.Reservation) error {
	if len(slots) == 0 {
		return nil
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(slots, 200).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.conn(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) FindSlot(ctx context.Context, room string, day time.Time, module int) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.conn(ctx).
		Where("room = ? AND day = ? AND module = ?", room, day, module).
		First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) ListByDay(ctx context.Context, day time.Time, room string) ([]*model.Reservation, error) {
	query := r.conn(ctx).Where("day = ?", day)
	if room != "" {
		query = query.Where("room = ?", room)
	}

	var slots []*model.Reservation
	if err := query.Order("room ASC, module ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *reservationRepository) ListPendingAssigned(ctx context.Context) ([]*model.Reservation, error) {
	var slots []*model.Reservation
	if err := r.conn(ctx).
		Where("availability = ? AND status = ? AND is_finished = false AND user_id IS NOT NULL",
			model.SlotUnavailable, model.ReservationPending).
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *reservationRepository) Book(ctx context.Context, id, userID uuid.UUID) error {
	result := r.conn(ctx).Model(&model.Reservation{}).
		Where("id = ? AND availability = ? AND is_finished = false", id, model.SlotAvailable).
		Updates(map[string]interface{}{
			"availability": model.SlotUnavailable,
			"status":       model.ReservationPending,
			"user_id":      userID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reservationRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error {
	return r.conn(ctx).Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *reservationRepository) Revert(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Model(&model.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"availability": model.SlotAvailable,
			"status":       model.ReservationPending,
			"user_id":      nil,
		}).Error
}

func (r *reservationRepository) ReleaseByUser(ctx context.Context, userID uuid.UUID) error {
	return r.conn(ctx).Model(&model.Reservation{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"availability": model.SlotAvailable,
			"status":       model.ReservationPending,
			"user_id":      nil,
		}).Error
}
