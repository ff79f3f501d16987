package bootstrap

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appMigrations "github.com/aydin/tutorhub/internal/app/migrations"
	appRepos "github.com/aydin/tutorhub/internal/app/repositories"
	appServices "github.com/aydin/tutorhub/internal/app/services"
	"github.com/aydin/tutorhub/internal/config"
	"github.com/aydin/tutorhub/internal/db"
	"github.com/aydin/tutorhub/internal/pkg/logger"
	"github.com/aydin/tutorhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Database *db.SQLiteDB
	Repos    *appRepos.Repositories

	AuthService          *appServices.AuthService
	RegistrationService  *appServices.RegistrationService
	WellbeingService     *appServices.WellbeingService
	MeetingService       *appServices.MeetingService
	MessageService       *appServices.MessageService
	PasswordResetService *appServices.PasswordResetService
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the embedded store and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.SQLiteDB, error) {
	lgr.Info().Str("path", cfg.Database.Path).Msg("Opening database...")
	database, err := db.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to open database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.DB)
	if err := migrator.Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// BuildDependencies wires repositories and services over the opened database
// and seeds the default senior tutor account.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.SQLiteDB, lgr zerolog.Logger) (*Dependencies, error) {
	loc, err := time.LoadLocation(cfg.Wellbeing.Timezone)
	if err != nil {
		lgr.Error().Err(err).Str("timezone", cfg.Wellbeing.Timezone).Msg("Invalid wellbeing timezone")
		return nil, err
	}

	repos := appRepos.NewRepositories(database)

	// One process-wide guard keeps the cron-driven sweep from interleaving
	// with aggregate saves triggered from the shell.
	guard := &sync.Mutex{}

	deps := &Dependencies{
		Config:   cfg,
		Logger:   lgr,
		Database: database,
		Repos:    repos,

		AuthService: appServices.NewAuthService(
			repos.Students, repos.Supervisors, repos.SeniorTutors, lgr),
		RegistrationService: appServices.NewRegistrationService(
			repos.Students, repos.Supervisors, repos.SeniorTutors, guard, lgr),
		WellbeingService: appServices.NewWellbeingService(
			database, repos.Students, repos.Alerts, loc, guard, lgr),
		MeetingService: appServices.NewMeetingService(
			database, repos.Students, repos.Supervisors, guard, lgr),
		MessageService: appServices.NewMessageService(
			repos.Messages, lgr),
		PasswordResetService: appServices.NewPasswordResetService(
			repos.Credentials, lgr),
	}

	if err := seed.CreateDefaultData(ctx, repos, deps.RegistrationService, cfg, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to seed default data")
		return nil, err
	}

	return deps, nil
}
