package harness

import (
	"context"
	"testing"

	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The bundled compose file must match the default configuration without
// Docker being involved.
func TestBundledComposeFileMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ComposeFile(), cfg.ComposeFile)

	stack, err := compose.Open(context.Background(), compose.Options{File: cfg.ComposeFile, ProjectName: cfg.ProjectName})
	require.NoError(t, err)

	assert.Equal(t, []string{"rds-test1", "rds-test1-no-instance-id", "rds-test1-no-password"}, stack.Services())
	for _, svc := range stack.Services() {
		assert.True(t, stack.PublishesPort(svc, cfg.Port), "%s publishes %d", svc, cfg.Port)
	}

	env, err := stack.Environment(cfg.Services.Main)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database, env["DB_DATABASE"])
	assert.Equal(t, cfg.User, env["DB_USERNAME"])
	assert.Equal(t, cfg.Password, env["DB_PASSWORD"])

	env, err = stack.Environment(cfg.Services.NoPassword)
	require.NoError(t, err)
	assert.NotContains(t, env, "DB_PASSWORD")

	env, err = stack.Environment(cfg.Services.NoInstanceID)
	require.NoError(t, err)
	assert.NotContains(t, env, "DB_INSTANCE_ID")

	assert.Equal(t, "rds_rds-data", stack.VolumeName(cfg.Volumes.Data))
	assert.Equal(t, "rds_rds-backup", stack.VolumeName(cfg.Volumes.Backup))
}

func TestSuiteEnv(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	env := (&Suite{Config: cfg}).Env()
	assert.Equal(t, "rds-test1", env.Service)
	assert.Equal(t, "rds-test1-no-password", env.NoPasswordService)
	assert.Equal(t, "rds-test1-no-instance-id", env.NoInstanceIDService)
	assert.Equal(t, "password1", env.Credentials.Password)
	assert.Equal(t, "/rds/bin/backup.sh", env.Scenario.BackupCommand)
}
