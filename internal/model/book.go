package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Book struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookCode     string    `gorm:"size:50;uniqueIndex;not null" json:"book_code"`
	ISBN         *string   `gorm:"size:30" json:"isbn,omitempty"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Publisher    *string   `gorm:"size:150" json:"publisher,omitempty"`
	Author       *string   `gorm:"size:150" json:"author,omitempty"`
	LocationRack *string   `gorm:"size:50" json:"location_rack,omitempty"`
	PublishYear  *int      `json:"publish_year,omitempty"`
	Stock        int       `gorm:"not null;default:0" json:"stock"`
	Abstract     *string   `gorm:"type:text" json:"abstract,omitempty"`
	CoverURL     *string   `gorm:"type:text" json:"cover_url,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

const (
	BorrowingStatusActive   = "active"
	BorrowingStatusReturned = "returned"
)

type Borrowing struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	BookID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"book_id"`
	Book       Book       `gorm:"foreignKey:BookID" json:"book"`
	Status     string     `gorm:"size:20;not null;default:active;index" json:"status"`
	BorrowedAt time.Time  `gorm:"autoCreateTime" json:"borrowed_at"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

func (b *Borrowing) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
