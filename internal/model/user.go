package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "ADMIN"
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
	RoleVisitor = "VISITOR"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null;index" json:"name"`
	Role         string    `gorm:"size:20;not null" json:"role"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	StudentProfile *StudentProfile `gorm:"constraint:OnDelete:CASCADE" json:"student_profile,omitempty"`
	TeacherProfile *TeacherProfile `gorm:"constraint:OnDelete:CASCADE" json:"teacher_profile,omitempty"`
	VisitorProfile *VisitorProfile `gorm:"constraint:OnDelete:CASCADE" json:"visitor_profile,omitempty"`
	Visits         []Visit         `gorm:"constraint:OnDelete:CASCADE" json:"visits,omitempty"`
	Borrowings     []Borrowing     `gorm:"constraint:OnDelete:CASCADE" json:"borrowings,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type StudentProfile struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User         *User      `gorm:"foreignKey:UserID" json:"-"`
	NIS          string     `gorm:"size:50;uniqueIndex;not null" json:"nis"`
	Major        *string    `gorm:"size:100" json:"major,omitempty"`
	GradeLevelID uuid.UUID  `gorm:"type:uuid;not null" json:"grade_level_id"`
	GradeLevel   GradeLevel `gorm:"constraint:OnUpdate:CASCADE" json:"grade_level"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *StudentProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type TeacherProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	NIP       string    `gorm:"size:50;uniqueIndex;not null" json:"nip"`
	Subject   string    `gorm:"size:100;not null" json:"subject"`
	Position  *string   `gorm:"size:100" json:"position,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *TeacherProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type VisitorProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Institution *string   `gorm:"size:150" json:"institution,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *VisitorProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// GradeLevel is an ordered school year. Exactly one level carries IsFinal,
// the graduating one.
type GradeLevel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Order     int       `gorm:"column:level_order;uniqueIndex;not null" json:"order"`
	IsFinal   bool      `gorm:"not null;default:false" json:"is_final"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (g *GradeLevel) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
