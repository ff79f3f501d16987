package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/app/repositories"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/auth"
	"github.com/aydin/tutorhub/internal/pkg/codes"
)

// RegistrationService creates accounts on behalf of senior tutors. Each new
// account gets a bcrypt-hashed password and a freshly issued unique code.
type RegistrationService struct {
	studentRepo    *repositories.StudentRepository
	supervisorRepo *repositories.SupervisorRepository
	tutorRepo      *repositories.SeniorTutorRepository
	guard          *sync.Mutex
	logger         zerolog.Logger
	now            func() time.Time
}

// NewRegistrationService creates a new registration service instance. The
// guard serializes supervisor reassignment against the scheduled sweep.
func NewRegistrationService(
	studentRepo *repositories.StudentRepository,
	supervisorRepo *repositories.SupervisorRepository,
	tutorRepo *repositories.SeniorTutorRepository,
	guard *sync.Mutex,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		studentRepo:    studentRepo,
		supervisorRepo: supervisorRepo,
		tutorRepo:      tutorRepo,
		guard:          guard,
		logger:         logger,
		now:            time.Now,
	}
}

// requireUsernameFree enforces case-insensitive username uniqueness across
// every role. The UNIQUE constraint on the column is case-sensitive, so the
// check has to happen here with the same folding the lookups use.
func (s *RegistrationService) requireUsernameFree(ctx context.Context, username string) error {
	student, err := s.studentRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	supervisor, err := s.supervisorRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	tutor, err := s.tutorRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if student != nil || supervisor != nil || tutor != nil {
		return apperrors.NewCustomError(apperrors.ErrUsernameTaken, "username already in use: "+username)
	}
	return nil
}

// RegisterStudent creates a student account. The student code prefix is the
// enrollment year derived from the year group; supervisorID of 0 leaves the
// student unassigned. The deadline clock starts at registration.
func (s *RegistrationService) RegisterStudent(ctx context.Context, username, name, password string, yearGroup int, supervisorID int64) (*models.Student, error) {
	if err := s.requireUsernameFree(ctx, username); err != nil {
		return nil, err
	}
	if yearGroup < 1 || yearGroup > 4 {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidYearGroup,
			fmt.Sprintf("year group %d is outside 1-4", yearGroup))
	}
	if supervisorID != 0 {
		supervisor, err := s.supervisorRepo.GetByID(ctx, supervisorID)
		if err != nil {
			return nil, err
		}
		if supervisor == nil {
			return nil, apperrors.NewCustomError(apperrors.ErrSupervisorReference,
				fmt.Sprintf("supervisor %d not found", supervisorID))
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	code, err := codes.Generate(ctx, codes.StudentPrefix(yearGroup, s.now()), s.studentRepo.CodeExists)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		User: models.User{
			Username: username,
			Name:     name,
			Password: hash,
		},
		SupervisorID:   supervisorID,
		StudentCode:    code,
		YearGroup:      yearGroup,
		LastReportDate: s.now(),
	}
	if err := s.studentRepo.Save(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("studentId", student.ID).
		Str("studentCode", code).
		Int("yearGroup", yearGroup).
		Msg("Student registered")
	return student, nil
}

// RegisterSupervisor creates a personal supervisor account with a PS-prefixed
// code.
func (s *RegistrationService) RegisterSupervisor(ctx context.Context, username, name, password string) (*models.PersonalSupervisor, error) {
	if err := s.requireUsernameFree(ctx, username); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	code, err := codes.Generate(ctx, codes.SupervisorPrefix, s.supervisorRepo.CodeExists)
	if err != nil {
		return nil, err
	}

	supervisor := &models.PersonalSupervisor{
		User: models.User{
			Username: username,
			Name:     name,
			Password: hash,
		},
		SupervisorCode: code,
	}
	if err := s.supervisorRepo.Save(ctx, supervisor); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("supervisorId", supervisor.ID).
		Str("supervisorCode", code).
		Msg("Supervisor registered")
	return supervisor, nil
}

// RegisterSeniorTutor creates a senior tutor account with an ST-prefixed code.
func (s *RegistrationService) RegisterSeniorTutor(ctx context.Context, username, name, password string) (*models.SeniorTutor, error) {
	if err := s.requireUsernameFree(ctx, username); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	code, err := codes.Generate(ctx, codes.SeniorTutorPrefix, s.tutorRepo.CodeExists)
	if err != nil {
		return nil, err
	}

	tutor := &models.SeniorTutor{
		User: models.User{
			Username: username,
			Name:     name,
			Password: hash,
		},
		SeniorTutorCode: code,
	}
	if err := s.tutorRepo.Save(ctx, tutor); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("tutorId", tutor.ID).
		Str("tutorCode", code).
		Msg("Senior tutor registered")
	return tutor, nil
}

// GetStudent reloads one student aggregate, or reports a reference error.
func (s *RegistrationService) GetStudent(ctx context.Context, studentID int64) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrStudentReference,
			fmt.Sprintf("student %d not found", studentID))
	}
	return student, nil
}

// AllStudents lists every registered student.
func (s *RegistrationService) AllStudents(ctx context.Context) ([]*models.Student, error) {
	return s.studentRepo.All(ctx)
}

// StudentsOf lists the students assigned to one supervisor.
func (s *RegistrationService) StudentsOf(ctx context.Context, supervisorID int64) ([]*models.Student, error) {
	return s.studentRepo.BySupervisor(ctx, supervisorID)
}

// AssignSupervisor reassigns a student to a personal supervisor.
func (s *RegistrationService) AssignSupervisor(ctx context.Context, studentID, supervisorID int64) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student == nil {
		return apperrors.NewCustomError(apperrors.ErrStudentReference,
			fmt.Sprintf("student %d not found", studentID))
	}
	supervisor, err := s.supervisorRepo.GetByID(ctx, supervisorID)
	if err != nil {
		return err
	}
	if supervisor == nil {
		return apperrors.NewCustomError(apperrors.ErrSupervisorReference,
			fmt.Sprintf("supervisor %d not found", supervisorID))
	}

	student.SupervisorID = supervisor.ID
	if err := s.studentRepo.Save(ctx, student); err != nil {
		return err
	}

	s.logger.Info().
		Int64("studentId", student.ID).
		Int64("supervisorId", supervisor.ID).
		Msg("Supervisor assigned")
	return nil
}
