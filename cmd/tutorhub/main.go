package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aydin/tutorhub/internal/bootstrap"
	"github.com/aydin/tutorhub/internal/cli"
	"github.com/aydin/tutorhub/internal/pkg/logger"
)

func main() {
	// .env is optional; environment variables win over configs/config.yaml.
	_ = godotenv.Load()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	database, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to set up database")
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	deps, err := bootstrap.BuildDependencies(ctx, cfg, database, lgr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build dependencies")
		os.Exit(1)
	}

	// One sweep at startup, then on the configured schedule while the shell
	// is open. The sweep and the shell's aggregate saves share a mutex inside
	// the services, so the cron goroutine never interleaves with a
	// shell-driven save.
	if err := deps.WellbeingService.CheckAndUpdateMissedReports(ctx); err != nil {
		logger.Error().Err(err).Msg("Startup missed-report sweep failed")
		os.Exit(1)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Wellbeing.SweepSchedule, func() {
		if err := deps.WellbeingService.CheckAndUpdateMissedReports(ctx); err != nil {
			lgr.Error().Err(err).Msg("Scheduled missed-report sweep failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Str("schedule", cfg.Wellbeing.SweepSchedule).Msg("Invalid sweep schedule")
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if err := cli.NewShell(deps).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Shell exited with error")
		os.Exit(1)
	}

	lgr.Info().Msg("Application finished gracefully.")
}
