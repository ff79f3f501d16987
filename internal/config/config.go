package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Database struct {
		Path string `yaml:"path" env:"DB_PATH"`
	} `yaml:"database"`

	Wellbeing struct {
		// Timezone anchors the Monday-noon reporting deadline.
		Timezone string `yaml:"timezone" env:"WELLBEING_TIMEZONE"`
		// SweepSchedule is a cron expression for the missed-report sweep.
		SweepSchedule string `yaml:"sweep_schedule" env:"WELLBEING_SWEEP_SCHEDULE"`
	} `yaml:"wellbeing"`

	Seed struct {
		AdminUsername string `yaml:"admin_username" env:"SEED_ADMIN_USERNAME"`
		AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		// Optional recovery question for the seeded account.
		AdminSecurityQuestion string `yaml:"admin_security_question" env:"SEED_ADMIN_SECURITY_QUESTION"`
		AdminSecurityAnswer   string `yaml:"admin_security_answer" env:"SEED_ADMIN_SECURITY_ANSWER"`
	} `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		err = yaml.Unmarshal(file, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	err := loadFromEnv(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Database defaults
	config.Database.Path = "tutorhub.db"

	// Wellbeing defaults
	config.Wellbeing.Timezone = "Europe/London"
	config.Wellbeing.SweepSchedule = "0 * * * *"

	// Seed defaults
	config.Seed.AdminUsername = "admin"
	config.Seed.AdminName = "Default Senior Tutor"
	config.Seed.AdminPassword = "admin"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "text"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if _, err := time.LoadLocation(config.Wellbeing.Timezone); err != nil {
		return fmt.Errorf("invalid wellbeing timezone: %w", err)
	}

	if config.Seed.AdminUsername == "" || config.Seed.AdminPassword == "" {
		return fmt.Errorf("seed admin credentials are required")
	}

	return nil
}
