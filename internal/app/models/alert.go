package models

import "time"

// AlertReason explains why a wellbeing alert was raised.
type AlertReason string

const (
	AlertLowScore     AlertReason = "low_score"
	AlertMissedReport AlertReason = "missed_report"
)

// WellbeingAlert records that a student needs attention. Alerts are created
// by the wellbeing tracker and terminated by explicit resolution; resolved
// alerts are kept for audit.
type WellbeingAlert struct {
	ID        int64       `db:"Id"`
	StudentID int64       `db:"StudentId" validate:"required"`
	// StudentName is a denormalized snapshot taken at alert creation.
	StudentName  string      `db:"StudentName"`
	AlertDate    time.Time   `db:"AlertDate"`
	Reason       AlertReason `db:"Reason" validate:"required"`
	IsResolved   bool        `db:"IsResolved"`
	ResolvedDate *time.Time  `db:"ResolvedDate"`
}
