package dto

import (
	"time"

	"github.com/google/uuid"
)

type CycleResponse struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `json:"is_active"`
}

type RestartRewardResponse struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	NewCycle   CycleResponse `json:"new_cycle"`
	Statistics struct {
		Students int64 `json:"students"`
		Teachers int64 `json:"teachers"`
		Total    int64 `json:"total"`
	} `json:"statistics"`
}

type ActiveRewardResponse struct {
	ActivePeriod CycleResponse `json:"active_period"`
	TotalPoints  int64         `json:"total_points"`
	UserCount    int64         `json:"user_count"`
}

type StudentProfileSubset struct {
	ID    uuid.UUID `json:"id"`
	NIS   string    `json:"nis"`
	Major *string   `json:"major"`
}

type TeacherProfileSubset struct {
	ID       uuid.UUID `json:"id"`
	NIP      string    `json:"nip"`
	Position *string   `json:"position"`
}

type StudentAwardEntry struct {
	UserID         uuid.UUID             `json:"user_id"`
	Points         int                   `json:"points"`
	Name           string                `json:"name"`
	GradeLevel     *string               `json:"grade_level"`
	GradeOrder     *int                  `json:"grade_order"`
	StudentProfile *StudentProfileSubset `json:"student_profile"`
}

type TeacherAwardEntry struct {
	UserID         uuid.UUID             `json:"user_id"`
	Points         int                   `json:"points"`
	Name           string                `json:"name"`
	Subject        *string               `json:"subject"`
	TeacherProfile *TeacherProfileSubset `json:"teacher_profile"`
}

type AwardResponse struct {
	CycleID        *uuid.UUID          `json:"cycle_id"`
	CycleTitle     *string             `json:"cycle_title"`
	CycleStartDate *time.Time          `json:"cycle_start_date,omitempty"`
	Students       []StudentAwardEntry `json:"students"`
	Teachers       []TeacherAwardEntry `json:"teachers"`
}
