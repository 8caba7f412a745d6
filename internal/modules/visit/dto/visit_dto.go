package dto

import "time"

type RecordVisitRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type RecordVisitResponse struct {
	Success        bool      `json:"success"`
	AlreadyVisited bool      `json:"already_visited"`
	Message        string    `json:"message"`
	VisitID        string    `json:"visit_id,omitempty"`
	PointsGranted  int       `json:"points_granted"`
	CycleTitle     string    `json:"cycle_title,omitempty"`
	VisitedAt      time.Time `json:"visited_at,omitempty"`
}

// VisitEvent is published to the visit feed whenever a visit is recorded.
type VisitEvent struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	PointsGranted int       `json:"points_granted"`
	VisitedAt     time.Time `json:"visited_at"`
}

type RecentVisitEntry struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	VisitedAt time.Time `json:"visited_at"`
}
