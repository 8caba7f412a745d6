package dto

import (
	"time"

	borrowingDto "anoa.com/perpussekolah/internal/modules/borrowing/dto"
	"github.com/google/uuid"
)

type StudentProfileInfo struct {
	NIS        string  `json:"nis"`
	Major      *string `json:"major,omitempty"`
	GradeLevel string  `json:"grade_level"`
	GradeOrder int     `json:"grade_order"`
}

type TeacherProfileInfo struct {
	NIP      string  `json:"nip"`
	Subject  string  `json:"subject"`
	Position *string `json:"position,omitempty"`
}

type VisitorProfileInfo struct {
	Institution *string `json:"institution,omitempty"`
}

type VisitInfo struct {
	ID        uuid.UUID `json:"id"`
	VisitedAt time.Time `json:"visited_at"`
}

type RewardHistoryEntry struct {
	CycleID    uuid.UUID  `json:"cycle_id"`
	CycleTitle string     `json:"cycle_title"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	IsActive   bool       `json:"is_active"`
	Points     int        `json:"points"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	StudentProfile *StudentProfileInfo `json:"student_profile,omitempty"`
	TeacherProfile *TeacherProfileInfo `json:"teacher_profile,omitempty"`
	VisitorProfile *VisitorProfileInfo `json:"visitor_profile,omitempty"`

	TotalVisits int64       `json:"total_visits"`
	Visits      []VisitInfo `json:"visits"`

	Borrowings []borrowingDto.BorrowingResponse `json:"borrowings"`

	RewardHistory []RewardHistoryEntry `json:"reward_history"`
	ActivePoints  int                  `json:"active_points"`
	TotalPoints   int                  `json:"total_points"`
}
