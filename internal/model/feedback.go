package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback carries no history: it is physically removed when its event or
// author goes away, never flagged as deleted.
type Feedback struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_feedback_event_student" json:"event_id"`
	Event     EventRequest `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`
	StudentID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_feedback_event_student" json:"student_id"`
	Student   User         `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Rating    float64      `gorm:"type:numeric(2,1);not null;check:rating >= 1.0 AND rating <= 5.0" json:"rating"`
	Comment   *string      `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}
