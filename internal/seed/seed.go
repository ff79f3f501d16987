package seed

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aydin/tutorhub/internal/app/repositories"
	"github.com/aydin/tutorhub/internal/app/services"
	"github.com/aydin/tutorhub/internal/config"
)

// CreateDefaultData makes sure at least one senior tutor account exists, so a
// fresh database is administrable. Credentials come from configuration and
// should be changed after first login.
func CreateDefaultData(ctx context.Context, repos *repositories.Repositories, registration *services.RegistrationService, cfg *config.Config, lgr zerolog.Logger) error {
	tutors, err := repos.SeniorTutors.All(ctx)
	if err != nil {
		return err
	}
	if len(tutors) > 0 {
		return nil
	}

	lgr.Info().Str("username", cfg.Seed.AdminUsername).Msg("No senior tutor found, creating default account")
	tutor, err := registration.RegisterSeniorTutor(ctx,
		cfg.Seed.AdminUsername, cfg.Seed.AdminName, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}

	if cfg.Seed.AdminSecurityQuestion != "" && cfg.Seed.AdminSecurityAnswer != "" {
		if _, err := repos.Credentials.SetSecurityQuestion(ctx,
			tutor.Username, cfg.Seed.AdminSecurityQuestion, cfg.Seed.AdminSecurityAnswer); err != nil {
			return err
		}
	}

	lgr.Info().
		Int64("tutorId", tutor.ID).
		Str("tutorCode", tutor.SeniorTutorCode).
		Msg("Default senior tutor created")
	return nil
}
