// Package config loads harness settings from an optional rdsharness.yaml,
// RDSHARNESS_* environment variables and built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/schmitthub/rdsharness/internal/pgcheck"
	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/schmitthub/rdsharness/internal/scenario"
)

// Timeout constants for ready waits.
const (
	// DefaultReadyTimeout is the default timeout for waiting on readiness markers.
	DefaultReadyTimeout = 60 * time.Second

	// CIReadyTimeout is used when running in CI, where image pulls and
	// initdb are slower.
	CIReadyTimeout = 180 * time.Second
)

// Config is the complete harness configuration.
type Config struct {
	ComposeFile   string            `mapstructure:"compose_file" yaml:"compose_file"`
	ProjectName   string            `mapstructure:"project_name" yaml:"project_name"`
	Services      ServicesConfig    `mapstructure:"services" yaml:"services"`
	Port          int               `mapstructure:"port" yaml:"port"`
	Database      string            `mapstructure:"database" yaml:"database"`
	User          string            `mapstructure:"user" yaml:"user"`
	Password      string            `mapstructure:"password" yaml:"password"`
	BackupCommand string            `mapstructure:"backup_command" yaml:"backup_command"`
	Volumes       VolumesConfig     `mapstructure:"volumes" yaml:"volumes"`
	Timeouts      TimeoutsConfig    `mapstructure:"timeouts" yaml:"timeouts"`
	Markers       readiness.Markers `mapstructure:"markers" yaml:"markers"`
	Logging       LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	LockFile      string            `mapstructure:"lock_file" yaml:"lock_file"`
}

// ServicesConfig names the compose services the checks drive.
type ServicesConfig struct {
	Main         string `mapstructure:"main" yaml:"main"`
	NoPassword   string `mapstructure:"no_password" yaml:"no_password"`
	NoInstanceID string `mapstructure:"no_instance_id" yaml:"no_instance_id"`
}

// VolumesConfig holds volume keys as declared in the compose file.
type VolumesConfig struct {
	Data   string `mapstructure:"data" yaml:"data"`
	Backup string `mapstructure:"backup" yaml:"backup"`
}

// TimeoutsConfig controls polling.
type TimeoutsConfig struct {
	Ready        time.Duration `mapstructure:"ready" yaml:"ready"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Settle       time.Duration `mapstructure:"settle" yaml:"settle"`
	Dial         time.Duration `mapstructure:"dial" yaml:"dial"`
}

// LoggingConfig controls the optional rotated log file.
type LoggingConfig struct {
	FileEnabled bool   `mapstructure:"file_enabled" yaml:"file_enabled"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// DefaultConfig returns the configuration for the bundled rds deployment.
func DefaultConfig() *Config {
	return &Config{
		ComposeFile: "docker-compose.yml",
		ProjectName: "rds",
		Services: ServicesConfig{
			Main:         "rds-test1",
			NoPassword:   "rds-test1-no-password",
			NoInstanceID: "rds-test1-no-instance-id",
		},
		Port:          5432,
		Database:      "test1",
		User:          "test1",
		Password:      "password1",
		BackupCommand: "/rds/bin/backup.sh",
		Volumes: VolumesConfig{
			Data:   "rds-data",
			Backup: "rds-backup",
		},
		Timeouts: TimeoutsConfig{
			Ready:        ReadyTimeout(),
			PollInterval: 500 * time.Millisecond,
			Settle:       5 * time.Second,
			Dial:         time.Second,
		},
		Markers: readiness.DefaultMarkers(),
		Logging: LoggingConfig{
			MaxSizeMB:  20,
			MaxAgeDays: 7,
			MaxBackups: 3,
		},
		LockFile: filepath.Join(os.TempDir(), "rdsharness.lock"),
	}
}

// ReadyTimeout returns the default readiness timeout. It checks the
// RDSHARNESS_READY_TIMEOUT environment variable (seconds) first.
func ReadyTimeout() time.Duration {
	if envTimeout := os.Getenv(EnvPrefix + "_READY_TIMEOUT"); envTimeout != "" {
		if secs, err := strconv.Atoi(envTimeout); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	if os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true" {
		return CIReadyTimeout
	}

	return DefaultReadyTimeout
}

// Scenario returns the sequencer configuration.
func (c *Config) Scenario() scenario.Config {
	return scenario.Config{
		Port:          c.Port,
		DataVolume:    c.Volumes.Data,
		BackupVolume:  c.Volumes.Backup,
		BackupCommand: c.BackupCommand,
		Markers:       c.Markers.WithDefaults(),
		ReadyTimeout:  c.Timeouts.Ready,
		PollInterval:  c.Timeouts.PollInterval,
		Settle:        c.Timeouts.Settle,
		DialTimeout:   c.Timeouts.Dial,
	}
}

// Credentials returns the login for the main service.
func (c *Config) Credentials() pgcheck.Credentials {
	return pgcheck.Credentials{
		Database: c.Database,
		User:     c.User,
		Password: c.Password,
	}
}

// LoggerConfig adapts logging settings for logger.InitWithFile.
func (c *Config) LoggerConfig() *logger.LoggingConfig {
	enabled := c.Logging.FileEnabled
	return &logger.LoggingConfig{
		FileEnabled: &enabled,
		MaxSizeMB:   c.Logging.MaxSizeMB,
		MaxAgeDays:  c.Logging.MaxAgeDays,
		MaxBackups:  c.Logging.MaxBackups,
	}
}
