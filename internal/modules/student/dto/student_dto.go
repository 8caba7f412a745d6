package dto

import "github.com/google/uuid"

type CreateStudentItem struct {
	Name            string  `json:"name" binding:"required"`
	NIS             string  `json:"nis" binding:"required"`
	GradeLevelOrder int     `json:"grade_level_order" binding:"required"`
	Major           *string `json:"major,omitempty"`
}

type UpdateStudentRequest struct {
	Name            *string `json:"name,omitempty"`
	NIS             *string `json:"nis,omitempty"`
	GradeLevelOrder *int    `json:"grade_level_order,omitempty"`
	Major           *string `json:"major,omitempty"`
}

type StudentResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	NIS        string    `json:"nis"`
	GradeLevel string    `json:"grade_level"`
	GradeOrder int       `json:"grade_order"`
	Major      *string   `json:"major,omitempty"`
	IsActive   bool      `json:"is_active"`
}

type PromoteSkipped struct {
	UserID uuid.UUID `json:"user_id"`
	NIS    string    `json:"nis"`
	Reason string    `json:"reason"`
}

type PromoteResponse struct {
	Message       string           `json:"message"`
	TotalStudents int              `json:"total_students"`
	Promoted      int              `json:"promoted"`
	Graduated     int              `json:"graduated"`
	Skipped       []PromoteSkipped `json:"skipped,omitempty"`
}

type GradeLevelResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Order   int       `json:"order"`
	IsFinal bool      `json:"is_final"`
}
