package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/app/repositories"
	dbpkg "github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

// MeetingService books meetings between students and personal supervisors.
// A booking mutates both aggregates, so both saves run in one transaction
// and the meeting appears in both parties' collections on reload.
type MeetingService struct {
	db             *dbpkg.SQLiteDB
	studentRepo    *repositories.StudentRepository
	supervisorRepo *repositories.SupervisorRepository
	guard          *sync.Mutex
	logger         zerolog.Logger
}

// NewMeetingService creates a new meeting service instance. The guard
// serializes bookings against the scheduled missed-report sweep, which also
// rewrites student aggregates.
func NewMeetingService(
	db *dbpkg.SQLiteDB,
	studentRepo *repositories.StudentRepository,
	supervisorRepo *repositories.SupervisorRepository,
	guard *sync.Mutex,
	logger zerolog.Logger,
) *MeetingService {
	return &MeetingService{
		db:             db,
		studentRepo:    studentRepo,
		supervisorRepo: supervisorRepo,
		guard:          guard,
		logger:         logger,
	}
}

// BookForStudent books a meeting between the student and their assigned
// supervisor at the given time. An unassigned student cannot book.
func (s *MeetingService) BookForStudent(ctx context.Context, studentID int64, at time.Time) (*models.Meeting, error) {
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
	if student.SupervisorID == 0 {
		return nil, apperrors.NewCustomError(apperrors.ErrNoSupervisor,
			fmt.Sprintf("student %d has no assigned supervisor", studentID))
	}
	return s.book(ctx, student, student.SupervisorID, at)
}

// BookForSupervisor books a meeting on behalf of the supervisor with one of
// their students.
func (s *MeetingService) BookForSupervisor(ctx context.Context, supervisorID, studentID int64, at time.Time) (*models.Meeting, error) {
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
	return s.book(ctx, student, supervisorID, at)
}

func (s *MeetingService) book(ctx context.Context, student *models.Student, supervisorID int64, at time.Time) (*models.Meeting, error) {
	supervisor, err := s.supervisorRepo.GetByID(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if supervisor == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrSupervisorReference,
			fmt.Sprintf("supervisor %d not found", supervisorID))
	}

	meeting := models.Meeting{
		StudentID:     student.ID,
		SupervisorID:  supervisor.ID,
		ScheduledTime: at,
	}
	student.Meetings = append(student.Meetings, meeting)
	supervisor.Meetings = append(supervisor.Meetings, meeting)

	// Both aggregate saves commit together. The student save replaces the
	// shared Meetings rows first; the supervisor save then replaces the same
	// rows keyed by supervisor id, so the final state is the union both
	// parties hold in memory.
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.studentRepo.SaveTx(ctx, tx, student); err != nil {
			return err
		}
		return s.supervisorRepo.SaveTx(ctx, tx, supervisor)
	})
	if err != nil {
		return nil, err
	}

	booked := &supervisor.Meetings[len(supervisor.Meetings)-1]
	s.logger.Info().
		Int64("studentId", student.ID).
		Int64("supervisorId", supervisor.ID).
		Time("scheduled", at).
		Msg("Meeting booked")
	return booked, nil
}

// StudentMeetings returns the student's meetings in time order.
func (s *MeetingService) StudentMeetings(ctx context.Context, studentID int64) ([]models.Meeting, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrStudentReference,
			fmt.Sprintf("student %d not found", studentID))
	}
	return student.Meetings, nil
}

// SupervisorMeetings returns the supervisor's meetings in time order.
func (s *MeetingService) SupervisorMeetings(ctx context.Context, supervisorID int64) ([]models.Meeting, error) {
	supervisor, err := s.supervisorRepo.GetByID(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if supervisor == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrSupervisorReference,
			fmt.Sprintf("supervisor %d not found", supervisorID))
	}
	return supervisor.Meetings, nil
}
