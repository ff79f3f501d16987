package models

import "time"

// SenderRole identifies which side of a conversation sent a message.
type SenderRole string

const (
	SenderStudent    SenderRole = "student"
	SenderSupervisor SenderRole = "supervisor"
)

// Message is one entry in the append-only conversation log between a student
// and a personal supervisor. Content may be edited, and a message deleted,
// by its original sender only.
type Message struct {
	ID           int64      `db:"Id"`
	StudentID    int64      `db:"StudentId" validate:"required"`
	SupervisorID int64      `db:"PersonalSupervisorId" validate:"required"`
	SenderRole   SenderRole `db:"SenderRole" validate:"required"`
	Content      string     `db:"Content" validate:"required"`
	Timestamp    time.Time  `db:"Timestamp"`
	IsRead       bool       `db:"IsRead"`
}
