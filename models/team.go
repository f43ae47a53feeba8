package models

import "time"

type TeamStatus int

const (
	TeamStatusRequested TeamStatus = 0
	TeamStatusEnrolled  TeamStatus = 1
)

func (s TeamStatus) String() string {
	switch s {
	case TeamStatusRequested:
		return "Pending Approval"
	case TeamStatusEnrolled:
		return "Enrolled"
	default:
		return "Unknown"
	}
}

type Team struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	CaptainID    int64      `json:"captain_id" db:"captain_id"`
	Status       TeamStatus `json:"status" db:"status"`
	IsPaid       bool       `json:"is_paid" db:"is_paid"`
	CreatedAt    time.Time  `json:"created_at" db:"create_date"`
}
