package models

import "time"

// HighPriorityScoreThreshold marks the score below which a report flags the
// student as needing attention.
const HighPriorityScoreThreshold = 5

// WellbeingReport is a single periodic self-report. Reports are append-only;
// submitting a new one retires the previous current report into history.
type WellbeingReport struct {
	ID        int64     `db:"Id"`
	StudentID int64     `db:"StudentId"`
	Score     int       `db:"Score" validate:"min=0,max=10"`
	Notes     string    `db:"Notes"`
	Date      time.Time `db:"Date"`

	// IsHighPriority is true iff Score < HighPriorityScoreThreshold.
	IsHighPriority bool `db:"IsHighPriority"`

	// IsCurrent marks the single most recent report for its student. It is
	// derived on load, not persisted.
	IsCurrent bool
}
