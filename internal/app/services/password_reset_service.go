package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/repositories"
	"github.com/aydin/tutorhub/internal/pkg/apperrors"
	"github.com/aydin/tutorhub/internal/pkg/auth"
)

// PasswordResetService drives the forgot-password flow: answer the account's
// security question correctly and choose a new password.
type PasswordResetService struct {
	credentialRepo *repositories.CredentialRepository
	logger         zerolog.Logger
}

// NewPasswordResetService creates a new password reset service instance.
func NewPasswordResetService(credentialRepo *repositories.CredentialRepository, logger zerolog.Logger) *PasswordResetService {
	return &PasswordResetService{credentialRepo: credentialRepo, logger: logger}
}

// SecurityQuestion returns the recovery question for an account.
func (s *PasswordResetService) SecurityQuestion(ctx context.Context, username string) (string, error) {
	return s.credentialRepo.GetSecurityQuestion(ctx, username)
}

// SetSecurityQuestion stores the recovery question and answer for an account.
func (s *PasswordResetService) SetSecurityQuestion(ctx context.Context, username, question, answer string) error {
	updated, err := s.credentialRepo.SetSecurityQuestion(ctx, username, question, answer)
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.NewReferenceError("no account with username " + username)
	}
	return nil
}

// ResetPassword verifies the security answer and replaces the password.
// Mismatched answers fail without touching the account.
func (s *PasswordResetService) ResetPassword(ctx context.Context, username, answer, newPassword string) error {
	ok, err := s.credentialRepo.VerifySecurityAnswer(ctx, username, answer)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn().Str("username", username).Msg("Password reset rejected")
		return apperrors.NewCustomError(apperrors.ErrSecurityAnswerMismatch,
			"security answer does not match for "+username)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	updated, err := s.credentialRepo.UpdatePassword(ctx, username, hash)
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.NewReferenceError("no account with username " + username)
	}

	s.logger.Info().Str("username", username).Msg("Password reset completed")
	return nil
}
