package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit is an append-only record of a user's presence in the library.
type Visit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index:idx_visit_user_date,priority:1;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_visit_user_date,priority:2" json:"created_at"`
}

func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
