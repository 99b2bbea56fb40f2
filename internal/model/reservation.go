package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Availability string

const (
	SlotAvailable   Availability = "AVAILABLE"
	SlotUnavailable Availability = "UNAVAILABLE"
)

type ReservationStatus string

const (
	ReservationPending ReservationStatus = "PENDING"
	ReservationPresent ReservationStatus = "PRESENT"
	ReservationAbsent  ReservationStatus = "ABSENT"
)

// Reservation is one (room, day, module) study-room slot. Slots are
// pre-created in bulk for a fixed horizon and only cycle between states;
// they are never deleted.
type Reservation struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Room         string            `gorm:"size:50;not null;uniqueIndex:idx_reservation_slot" json:"room"`
	Day          time.Time         `gorm:"type:date;not null;uniqueIndex:idx_reservation_slot" json:"day"`
	Module       int               `gorm:"not null;uniqueIndex:idx_reservation_slot" json:"module"`
	Availability Availability      `gorm:"size:20;not null;default:AVAILABLE" json:"availability"`
	Status       ReservationStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	IsFinished   bool              `gorm:"not null;default:false" json:"is_finished"`
	UserID       *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User         *User             `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
