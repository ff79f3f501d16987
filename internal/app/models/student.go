package models

import "time"

// Student is a student aggregate: the Users row plus its owned Meetings and
// Reports collections, loaded and saved as one unit.
type Student struct {
	User

	// SupervisorID is the assigned personal supervisor; 0 means unassigned.
	SupervisorID int64 `db:"PersonalSupervisorId"`

	// StudentCode is the external human-facing code: enrollment-year digits
	// followed by a 5-digit random suffix, e.g. 202412345.
	StudentCode string `db:"StudentCode"`

	YearGroup int `db:"YearGroup" validate:"min=1,max=4"`

	// Wellbeing deadline tracking. LastReportDate is the zero time for
	// students who have never submitted a report.
	LastReportDate    time.Time `db:"LastWellbeingReportDate"`
	HasMissedReport   bool      `db:"HasMissedWellbeingReport"`
	MissedReportCount int       `db:"MissedReportCount"`

	// Owned child collections. Meetings and Reports are replaced wholesale
	// in storage every time the aggregate is saved.
	Meetings []Meeting
	Reports  []WellbeingReport
}

// CurrentReport returns the most recent wellbeing report, or nil when the
// student has never submitted one. Reports are loaded in date order, so the
// current report is always the last element.
func (s *Student) CurrentReport() *WellbeingReport {
	if len(s.Reports) == 0 {
		return nil
	}
	return &s.Reports[len(s.Reports)-1]
}

// ReportHistory returns every report except the current one, oldest first.
func (s *Student) ReportHistory() []WellbeingReport {
	if len(s.Reports) < 2 {
		return nil
	}
	return s.Reports[:len(s.Reports)-1]
}
