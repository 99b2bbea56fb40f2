package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is shared by group requests and event requests.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusConfirmed RequestStatus = "CONFIRMED"
	StatusCancelled RequestStatus = "CANCELLED"
)

type GroupRequest struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User          `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Status      RequestStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	IsDeleted   bool          `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *GroupRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

// Group is created 1:1 from a confirmed GroupRequest. Reputation is the
// mean rating of feedback on the group's non-deleted event requests,
// maintained by the reputation service on every relevant mutation.
type Group struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GroupRequestID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"group_request_id"`
	GroupRequest     GroupRequest `gorm:"constraint:OnDelete:CASCADE" json:"group_request,omitempty"`
	RepresentativeID uuid.UUID  `gorm:"type:uuid;not null;index" json:"representative_id"`
	Representative   User       `gorm:"foreignKey:RepresentativeID" json:"representative,omitempty"`
	Name             string     `gorm:"size:100;not null" json:"name"`
	Reputation       float64    `gorm:"type:numeric(3,1);not null;default:0" json:"reputation"`
	IsDeleted        bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}
