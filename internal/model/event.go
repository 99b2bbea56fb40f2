package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRequest is a group's proposal to hold an event in a public space on
// a given day and module. A confirmed request is the scheduled occurrence
// that feedback attaches to.
type EventRequest struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"group_id"`
	Group       Group         `gorm:"constraint:OnDelete:CASCADE" json:"group,omitempty"`
	Space       string        `gorm:"size:100;not null" json:"space"`
	Day         time.Time     `gorm:"type:date;not null" json:"day"`
	Module      int           `gorm:"not null" json:"module"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      RequestStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	IsDeleted   bool          `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *EventRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID, err = uuid.NewV7()
	}
	return
}
