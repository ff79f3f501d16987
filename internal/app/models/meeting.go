package models

import "time"

// Meeting is a scheduled meeting between a student and their personal
// supervisor. It is stored once in the Meetings table but loaded into both
// the student's and the supervisor's in-memory collections.
type Meeting struct {
	ID            int64     `db:"Id"`
	StudentID     int64     `db:"StudentId" validate:"required"`
	SupervisorID  int64     `db:"PersonalSupervisorId" validate:"required"`
	ScheduledTime time.Time `db:"ScheduledTime" validate:"required"`
}
