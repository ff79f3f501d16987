package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/models"
	"github.com/aydin/tutorhub/internal/app/repositories"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/auth"
)

// AuthService authenticates users for the interactive shell. Usernames match
// case-insensitively; an unknown username and a wrong password produce the
// same error so login failures leak nothing.
type AuthService struct {
	studentRepo    *repositories.StudentRepository
	supervisorRepo *repositories.SupervisorRepository
	tutorRepo      *repositories.SeniorTutorRepository
	logger         zerolog.Logger
}

// NewAuthService creates a new auth service instance.
func NewAuthService(
	studentRepo *repositories.StudentRepository,
	supervisorRepo *repositories.SupervisorRepository,
	tutorRepo *repositories.SeniorTutorRepository,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		studentRepo:    studentRepo,
		supervisorRepo: supervisorRepo,
		tutorRepo:      tutorRepo,
		logger:         logger,
	}
}

func invalidCredentials(username string) error {
	return apperrors.NewCustomError(apperrors.ErrInvalidCredentials,
		"invalid username or password for "+username)
}

// LoginStudent authenticates a student account.
func (s *AuthService) LoginStudent(ctx context.Context, username, password string) (*models.Student, error) {
	student, err := s.studentRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if student == nil || !auth.CheckPassword(student.Password, password) {
		s.logger.Debug().Str("username", username).Msg("Student login rejected")
		return nil, invalidCredentials(username)
	}
	s.logger.Info().Int64("studentId", student.ID).Msg("Student logged in")
	return student, nil
}

// LoginSupervisor authenticates a personal supervisor account.
func (s *AuthService) LoginSupervisor(ctx context.Context, username, password string) (*models.PersonalSupervisor, error) {
	supervisor, err := s.supervisorRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if supervisor == nil || !auth.CheckPassword(supervisor.Password, password) {
		s.logger.Debug().Str("username", username).Msg("Supervisor login rejected")
		return nil, invalidCredentials(username)
	}
	s.logger.Info().Int64("supervisorId", supervisor.ID).Msg("Supervisor logged in")
	return supervisor, nil
}

// LoginSeniorTutor authenticates a senior tutor account.
func (s *AuthService) LoginSeniorTutor(ctx context.Context, username, password string) (*models.SeniorTutor, error) {
	tutor, err := s.tutorRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if tutor == nil || !auth.CheckPassword(tutor.Password, password) {
		s.logger.Debug().Str("username", username).Msg("Senior tutor login rejected")
		return nil, invalidCredentials(username)
	}
	s.logger.Info().Int64("tutorId", tutor.ID).Msg("Senior tutor logged in")
	return tutor, nil
}
