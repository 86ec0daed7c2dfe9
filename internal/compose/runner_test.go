package compose

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_OutputKeepsStdoutOnly(t *testing.T) {
	out, err := ExecRunner{}.RunOutput(context.Background(), t.TempDir(), "sh", "-c", "echo 0.0.0.0:5432; echo 'WARN version is obsolete' >&2")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5432\n", string(out))
}

func TestExecRunner_StderrInError(t *testing.T) {
	out, err := ExecRunner{}.RunOutput(context.Background(), "", "sh", "-c", "echo partial; echo 'no such service' >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "partial\n", string(out))
	assert.Contains(t, err.Error(), "no such service")
	assert.Equal(t, 3, exitCode(err))
}

func TestExecRunner_CombinedKeepsStderr(t *testing.T) {
	out, err := ExecRunner{}.RunCombined(context.Background(), "", "sh", "-c", "echo stdout line; echo 'stderr line' >&2")
	require.NoError(t, err)
	assert.Equal(t, "stdout line\nstderr line\n", string(out))
}

func TestExecRunner_CombinedError(t *testing.T) {
	out, err := ExecRunner{}.RunCombined(context.Background(), "", "sh", "-c", "echo partial; echo 'no such service' >&2; exit 4")
	require.Error(t, err)
	assert.Equal(t, "partial\nno such service\n", string(out))
	assert.Contains(t, err.Error(), "no such service")
	assert.Equal(t, 4, exitCode(err))
}

// PostgreSQL logs to stderr, and compose logs forwards a container's stderr
// to its own stderr.
func TestStack_LogsSeeStderrMarkers(t *testing.T) {
	dir := t.TempDir()
	docker := filepath.Join(dir, "docker")
	script := "#!/bin/sh\n" +
		"echo 'backup command end: completed successfully'\n" +
		"echo 'LOG:  database system is ready to accept connections' >&2\n"
	require.NoError(t, os.WriteFile(docker, []byte(script), 0o755))

	s, _, _ := openTestStack(t)
	s.runner = ExecRunner{}
	s.binary = docker

	logs, err := s.Logs(context.Background(), "rds-test1")
	require.NoError(t, err)

	markers := readiness.DefaultMarkers()
	assert.True(t, markers.BackupCompleted.In(logs))
	assert.True(t, markers.Ready.In(logs), "ready marker written to stderr must be visible")
}
