package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StrikeType string

const (
	StrikeNoShow     StrikeType = "NO_SHOW"
	StrikeMisconduct StrikeType = "MISCONDUCT"
)

// Strike is an immutable disciplinary record. It is only ever removed as a
// cascade side effect of deleting its subject or issuing admin.
type Strike struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	IssuerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"issuer_id"`
	Issuer      User       `gorm:"foreignKey:IssuerID;constraint:OnDelete:CASCADE" json:"issuer,omitempty"`
	Type        StrikeType `gorm:"size:20;not null" json:"type"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (s *Strike) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}
