package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/app/repositories"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

// ReportStatus is the student-facing view of the reporting deadline.
type ReportStatus struct {
	Deadline      time.Time
	TimeRemaining time.Duration
	IsOverdue     bool
	DaysOverdue   int
}

// WellbeingService drives the periodic reporting state machine: report
// submission, the missed-report deadline sweep, and the derived
// high-priority view supervisors see.
type WellbeingService struct {
	db          *dbpkg.SQLiteDB
	studentRepo *repositories.StudentRepository
	alertRepo   *repositories.AlertRepository
	guard       *sync.Mutex
	logger      zerolog.Logger

	// now and loc are injectable so deadline math is testable.
	now func() time.Time
	loc *time.Location
}

// NewWellbeingService creates a new wellbeing service instance. The guard is
// shared with every service that rewrites student or supervisor aggregates,
// so the scheduled sweep never interleaves with a shell-driven save.
func NewWellbeingService(
	db *dbpkg.SQLiteDB,
	studentRepo *repositories.StudentRepository,
	alertRepo *repositories.AlertRepository,
	loc *time.Location,
	guard *sync.Mutex,
	logger zerolog.Logger,
) *WellbeingService {
	return &WellbeingService{
		db:          db,
		studentRepo: studentRepo,
		alertRepo:   alertRepo,
		guard:       guard,
		logger:      logger,
		now:         time.Now,
		loc:         loc,
	}
}

// NextMondayNoon returns the reporting deadline implied by t: if t falls on
// Monday before noon it is that same Monday at 12:00, otherwise the following
// Monday at 12:00. A t of exactly Monday noon rolls to the next week.
func NextMondayNoon(t time.Time) time.Time {
	daysUntilMonday := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	candidate := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location()).
		AddDate(0, 0, daysUntilMonday)
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// SubmitReport records a new wellbeing report for the student, retiring the
// previous current report into history, resetting the deadline clock, and
// raising a low_score alert in the same transaction when the score warrants
// one. Returns the stored report.
func (s *WellbeingService) SubmitReport(ctx context.Context, studentID int64, score int, notes string) (*models.WellbeingReport, error) {
	if score < 0 || score > 10 {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidScore,
			fmt.Sprintf("score %d is outside 0-10", score))
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrStudentReference,
			fmt.Sprintf("student %d not found", studentID))
	}

	now := s.now().In(s.loc)
	report := models.WellbeingReport{
		StudentID:      student.ID,
		Score:          score,
		Notes:          notes,
		Date:           now,
		IsHighPriority: score < models.HighPriorityScoreThreshold,
		IsCurrent:      true,
	}
	if prior := student.CurrentReport(); prior != nil {
		prior.IsCurrent = false
	}
	student.Reports = append(student.Reports, report)
	student.LastReportDate = now
	student.HasMissedReport = false
	student.MissedReportCount = 0

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.studentRepo.SaveTx(ctx, tx, student); err != nil {
			return err
		}
		if report.IsHighPriority {
			alert := &models.WellbeingAlert{
				StudentID:   student.ID,
				StudentName: student.Name,
				AlertDate:   now,
				Reason:      models.AlertLowScore,
			}
			if err := s.alertRepo.AddTx(ctx, tx, alert); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("studentId", student.ID).
		Int("score", score).
		Bool("highPriority", report.IsHighPriority).
		Msg("Wellbeing report submitted")

	return student.CurrentReport(), nil
}

// Status computes the deadline view for one student. The clock runs from the
// last submitted report; a student who has never reported is measured from
// now and is therefore never overdue yet.
func (s *WellbeingService) Status(student *models.Student) ReportStatus {
	now := s.now().In(s.loc)

	anchor := student.LastReportDate
	if anchor.IsZero() {
		anchor = now
	}
	deadline := NextMondayNoon(anchor.In(s.loc))

	if deadline.After(now) {
		return ReportStatus{
			Deadline:      deadline,
			TimeRemaining: deadline.Sub(now),
		}
	}
	overdueBy := now.Sub(deadline)
	return ReportStatus{
		Deadline:    deadline,
		IsOverdue:   true,
		DaysOverdue: int(math.Ceil(overdueBy.Hours() / 24)),
	}
}

// CheckAndUpdateMissedReports sweeps every student against the reporting
// deadline. A student is overdue when the deadline implied by their last
// report has passed and at least a full week has elapsed since that report.
// The missed flag guards alert creation, so re-running the sweep within the
// same overdue week raises no duplicates. Every student is persisted once
// per sweep.
func (s *WellbeingService) CheckAndUpdateMissedReports(ctx context.Context) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	students, err := s.studentRepo.All(ctx)
	if err != nil {
		return err
	}
	now := s.now().In(s.loc)

	for _, student := range students {
		overdue := false
		if !student.LastReportDate.IsZero() {
			deadline := NextMondayNoon(student.LastReportDate.In(s.loc))
			overdue = now.After(deadline) && now.Sub(student.LastReportDate) >= 7*24*time.Hour
		}

		if overdue {
			if !student.HasMissedReport {
				student.HasMissedReport = true
				student.MissedReportCount++

				err = s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
					if err := s.studentRepo.SaveTx(ctx, tx, student); err != nil {
						return err
					}
					return s.alertRepo.AddTx(ctx, tx, &models.WellbeingAlert{
						StudentID:   student.ID,
						StudentName: student.Name,
						AlertDate:   now,
						Reason:      models.AlertMissedReport,
					})
				})
				if err != nil {
					return err
				}

				s.logger.Warn().
					Int64("studentId", student.ID).
					Int("missedCount", student.MissedReportCount).
					Msg("Student missed wellbeing report deadline")
				continue
			}
		} else {
			student.HasMissedReport = false
		}

		if err := s.studentRepo.Save(ctx, student); err != nil {
			return err
		}
	}

	s.logger.Info().Int("students", len(students)).Msg("Missed report sweep completed")
	return nil
}

// HighPriorityStudents returns the supervisor's students needing attention:
// a low current score, a missed report, or any low score within the trailing
// 30 days.
func (s *WellbeingService) HighPriorityStudents(ctx context.Context, supervisorID int64) ([]*models.Student, error) {
	students, err := s.studentRepo.BySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	cutoff := now.AddDate(0, 0, -30)

	var flagged []*models.Student
	for _, student := range students {
		if s.isHighPriority(student, cutoff) {
			flagged = append(flagged, student)
		}
	}
	return flagged, nil
}

func (s *WellbeingService) isHighPriority(student *models.Student, cutoff time.Time) bool {
	if student.HasMissedReport {
		return true
	}
	if current := student.CurrentReport(); current != nil && current.Score < models.HighPriorityScoreThreshold {
		return true
	}
	for _, report := range student.ReportHistory() {
		if report.Score < models.HighPriorityScoreThreshold && report.Date.After(cutoff) {
			return true
		}
	}
	return false
}

// LowWellbeingStudents lists every student whose current report scores below
// the high-priority threshold, for the senior tutor dashboard.
func (s *WellbeingService) LowWellbeingStudents(ctx context.Context) ([]*models.Student, error) {
	return s.studentRepo.WithLowWellbeing(ctx)
}

// MissedReportStudents lists every student currently flagged as having
// missed the reporting deadline.
func (s *WellbeingService) MissedReportStudents(ctx context.Context) ([]*models.Student, error) {
	return s.studentRepo.WithMissedReports(ctx)
}

// ActiveAlerts lists unresolved alerts for the senior tutor dashboard.
func (s *WellbeingService) ActiveAlerts(ctx context.Context) ([]*models.WellbeingAlert, error) {
	return s.alertRepo.Active(ctx)
}

// ResolveAlert marks an alert handled, stamping the resolution time.
func (s *WellbeingService) ResolveAlert(ctx context.Context, alertID int64) error {
	if err := s.alertRepo.Resolve(ctx, alertID, s.now().In(s.loc)); err != nil {
		return err
	}
	s.logger.Info().Int64("alertId", alertID).Msg("Wellbeing alert resolved")
	return nil
}
