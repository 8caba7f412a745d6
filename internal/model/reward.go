package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardCycle is a named, time-bounded reward period. The partial unique
// index keeps the database from ever holding two active cycles, so the
// rollover flow cannot race itself into a double-active state.
type RewardCycle struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string     `gorm:"size:100;not null" json:"title"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `gorm:"not null;default:false;index:idx_reward_cycle_active,unique,where:is_active" json:"is_active"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (c *RewardCycle) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RewardPoint accumulates a user's points within one cycle.
// (user_id, reward_cycle_id) is the natural key the accrual upsert relies on.
type RewardPoint struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;uniqueIndex:idx_reward_point_user_cycle;not null" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"-"`
	RewardCycleID uuid.UUID   `gorm:"type:uuid;uniqueIndex:idx_reward_point_user_cycle;not null" json:"reward_cycle_id"`
	RewardCycle   RewardCycle `gorm:"foreignKey:RewardCycleID" json:"-"`
	Points        int         `gorm:"not null;default:0" json:"points"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *RewardPoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
