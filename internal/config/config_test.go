package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RDSHARNESS_READY_TIMEOUT", "CI", "GITHUB_ACTIONS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestReadyTimeout(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected time.Duration
	}{
		{name: "default when no env set", envVars: map[string]string{}, expected: DefaultReadyTimeout},
		{name: "custom timeout from env", envVars: map[string]string{"RDSHARNESS_READY_TIMEOUT": "30"}, expected: 30 * time.Second},
		{name: "CI timeout when CI is true", envVars: map[string]string{"CI": "true"}, expected: CIReadyTimeout},
		{name: "CI timeout when GITHUB_ACTIONS is true", envVars: map[string]string{"GITHUB_ACTIONS": "true"}, expected: CIReadyTimeout},
		{name: "custom overrides CI", envVars: map[string]string{"RDSHARNESS_READY_TIMEOUT": "45", "CI": "true"}, expected: 45 * time.Second},
		{name: "invalid env value falls back to default", envVars: map[string]string{"RDSHARNESS_READY_TIMEOUT": "invalid"}, expected: DefaultReadyTimeout},
		{name: "zero value falls back to default", envVars: map[string]string{"RDSHARNESS_READY_TIMEOUT": "0"}, expected: DefaultReadyTimeout},
		{name: "negative value falls back to default", envVars: map[string]string{"RDSHARNESS_READY_TIMEOUT": "-5"}, expected: DefaultReadyTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, ReadyTimeout())
		})
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), cfg.ComposeFile)
	assert.Equal(t, "rds", cfg.ProjectName)
	assert.Equal(t, "rds-test1", cfg.Services.Main)
	assert.Equal(t, "rds-test1-no-password", cfg.Services.NoPassword)
	assert.Equal(t, "rds-test1-no-instance-id", cfg.Services.NoInstanceID)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "password1", cfg.Password)
	assert.Equal(t, "/rds/bin/backup.sh", cfg.BackupCommand)
	assert.Equal(t, VolumesConfig{Data: "rds-data", Backup: "rds-backup"}, cfg.Volumes)
	assert.Equal(t, DefaultReadyTimeout, cfg.Timeouts.Ready)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeouts.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Settle)
	assert.Equal(t, readiness.DefaultMarkers(), cfg.Markers)
	assert.False(t, cfg.Logging.FileEnabled)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
compose_file: deploy/compose.yml
project_name: rdsci
services:
  main: pg-primary
port: 6432
timeouts:
  ready: 90s
  settle: 0s
markers:
  ready: "listening on port"
logging:
  file_enabled: true
  dir: logs
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "deploy", "compose.yml"), cfg.ComposeFile)
	assert.Equal(t, "rdsci", cfg.ProjectName)
	assert.Equal(t, "pg-primary", cfg.Services.Main)
	assert.Equal(t, "rds-test1-no-password", cfg.Services.NoPassword, "unset keys keep defaults")
	assert.Equal(t, 6432, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.Timeouts.Ready)
	assert.Equal(t, time.Duration(0), cfg.Timeouts.Settle)
	assert.Equal(t, readiness.Marker("listening on port"), cfg.Markers.Ready)
	assert.Equal(t, readiness.DefaultMarkers().Shutdown, cfg.Markers.Shutdown)
	assert.True(t, cfg.Logging.FileEnabled)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.Logging.Dir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RDSHARNESS_PORT", "15432")
	t.Setenv("RDSHARNESS_TIMEOUTS_POLL_INTERVAL", "250ms")
	t.Setenv("RDSHARNESS_SERVICES_MAIN", "rds-test2")
	t.Setenv("RDSHARNESS_COMPOSE_FILE", "/srv/rds/docker-compose.yml")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, 15432, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeouts.PollInterval)
	assert.Equal(t, "rds-test2", cfg.Services.Main)
	assert.Equal(t, "/srv/rds/docker-compose.yml", cfg.ComposeFile)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	clearEnv(t)
	_, err := NewLoader(t.TempDir(), WithConfigFile("missing.yaml")).Load()
	require.Error(t, err)
	assert.True(t, IsConfigNotFound(err))
}

func TestLoad_ExplicitFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ci.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_name: ci\n"), 0o644))

	cfg, err := NewLoader(t.TempDir(), WithConfigFile(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, "ci", cfg.ProjectName)
	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), cfg.ComposeFile)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("port: [nope\n"), 0o644))

	_, err := NewLoader(dir).Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "port out of range", mutate: func(c *Config) { c.Port = 70000 }, field: "port", wantErr: true},
		{name: "missing compose file", mutate: func(c *Config) { c.ComposeFile = "" }, field: "compose_file", wantErr: true},
		{name: "missing main service", mutate: func(c *Config) { c.Services.Main = "" }, field: "services.main", wantErr: true},
		{name: "same volumes", mutate: func(c *Config) { c.Volumes.Backup = c.Volumes.Data }, field: "volumes.backup", wantErr: true},
		{name: "blank backup command", mutate: func(c *Config) { c.BackupCommand = "  " }, field: "backup_command", wantErr: true},
		{name: "zero ready timeout", mutate: func(c *Config) { c.Timeouts.Ready = 0 }, field: "timeouts.ready", wantErr: true},
		{name: "negative settle", mutate: func(c *Config) { c.Timeouts.Settle = -time.Second }, field: "timeouts.settle", wantErr: true},
		{name: "zero settle allowed", mutate: func(c *Config) { c.Timeouts.Settle = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var multi *MultiValidationError
			require.ErrorAs(t, err, &multi)
			require.Len(t, multi.ValidationErrors(), 1)
			var ve *ValidationError
			require.ErrorAs(t, multi.ValidationErrors()[0], &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestMultiValidationError_Message(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.Services.Main = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 configuration errors")
	assert.Contains(t, err.Error(), "invalid port")
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeouts.Settle = 2 * time.Second
	cfg.Logging.FileEnabled = true

	sc := cfg.Scenario()
	assert.Equal(t, 5432, sc.Port)
	assert.Equal(t, "rds-data", sc.DataVolume)
	assert.Equal(t, "rds-backup", sc.BackupVolume)
	assert.Equal(t, 2*time.Second, sc.Settle)
	assert.Equal(t, cfg.Timeouts.Ready, sc.ReadyTimeout)

	creds := cfg.Credentials()
	assert.Equal(t, "test1", creds.Database)
	assert.Equal(t, "test1", creds.User)
	assert.Equal(t, "password1", creds.Password)

	lc := cfg.LoggerConfig()
	assert.True(t, lc.IsFileEnabled())
	assert.Equal(t, 20, lc.GetMaxSizeMB())
}
