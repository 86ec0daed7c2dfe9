package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = "rdsharness.yaml"
	// EnvPrefix prefixes environment overrides, e.g. RDSHARNESS_TIMEOUTS_READY.
	EnvPrefix = "RDSHARNESS"
)

// Loader handles loading and parsing of harness configuration
type Loader struct {
	workDir    string
	configFile string
	viper      *viper.Viper
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigFile loads path instead of rdsharness.yaml in the working
// directory. An explicit file must exist.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) { l.configFile = path }
}

// NewLoader creates a new configuration loader for the given working directory
func NewLoader(workDir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	if l.configFile != "" {
		if filepath.IsAbs(l.configFile) {
			return l.configFile
		}
		return filepath.Join(l.workDir, l.configFile)
	}
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// Load merges defaults, the config file (when present) and environment
// overrides, then validates the result. Relative paths are resolved against
// the directory of the config file, or the working directory without one.
func (l *Loader) Load() (*Config, error) {
	configPath := l.ConfigPath()
	hasFile := l.Exists()
	if !hasFile && l.configFile != "" {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetConfigType("yaml")
	l.viper.SetEnvPrefix(EnvPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()
	setDefaults(l.viper, DefaultConfig())

	baseDir := l.workDir
	if hasFile {
		l.viper.SetConfigFile(configPath)
		if err := l.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		baseDir = filepath.Dir(configPath)
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ComposeFile = resolvePath(baseDir, cfg.ComposeFile)
	if cfg.Logging.Dir != "" {
		cfg.Logging.Dir = resolvePath(baseDir, cfg.Logging.Dir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("compose_file", d.ComposeFile)
	v.SetDefault("project_name", d.ProjectName)
	v.SetDefault("services.main", d.Services.Main)
	v.SetDefault("services.no_password", d.Services.NoPassword)
	v.SetDefault("services.no_instance_id", d.Services.NoInstanceID)
	v.SetDefault("port", d.Port)
	v.SetDefault("database", d.Database)
	v.SetDefault("user", d.User)
	v.SetDefault("password", d.Password)
	v.SetDefault("backup_command", d.BackupCommand)
	v.SetDefault("volumes.data", d.Volumes.Data)
	v.SetDefault("volumes.backup", d.Volumes.Backup)
	v.SetDefault("timeouts.ready", d.Timeouts.Ready.String())
	v.SetDefault("timeouts.poll_interval", d.Timeouts.PollInterval.String())
	v.SetDefault("timeouts.settle", d.Timeouts.Settle.String())
	v.SetDefault("timeouts.dial", d.Timeouts.Dial.String())
	v.SetDefault("markers.ready", string(d.Markers.Ready))
	v.SetDefault("markers.shutdown", string(d.Markers.Shutdown))
	v.SetDefault("markers.backup_completed", string(d.Markers.BackupCompleted))
	v.SetDefault("markers.missing_instance_id", string(d.Markers.MissingInstanceID))
	v.SetDefault("logging.file_enabled", d.Logging.FileEnabled)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("lock_file", d.LockFile)
}

// ConfigNotFoundError is returned when an explicitly requested config file doesn't exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	var target *ConfigNotFoundError
	return errors.As(err, &target)
}
