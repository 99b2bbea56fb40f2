package bootstrap

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/service"
)

// defaultRooms are the study rooms slots are pre-created for. Admins can
// seed additional rooms through the API.
var defaultRooms = []string{"SR-101", "SR-102", "SR-103", "SR-201", "SR-202", "SR-203"}

// SeedAdmin creates a development admin account when no active admin
// exists. Without one the sweeper has no strike issuer.
func SeedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("role = ? AND is_deleted = false", model.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Name:         "Administrator",
		Email:        "admin@ucampus.dev",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		ExternalID:   "admin@ucampus.dev",
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Println("✅ Admin user seeded")
	log.Println("   Email: admin@ucampus.dev")
	log.Println("   Password: admin123")
	return nil
}

// SeedReservations pre-creates reservation slots for every default room
// over the configured horizon, starting today. Existing slots are skipped,
// so this is safe to run on every startup.
func SeedReservations(ctx context.Context, svc service.ReservationService, horizonDays int, loc *time.Location) error {
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	created, err := svc.Seed(ctx, defaultRooms, today, horizonDays)
	if err != nil {
		return err
	}

	log.Printf("📅 Reservation horizon seeded: %d slots over %d days", created, horizonDays)
	return nil
}
