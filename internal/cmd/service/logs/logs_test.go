package logs

import (
	"context"
	"testing"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/compose/composetest"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams/iostreamstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `LOG:  database system is ready to accept connections
INFO: backup command end: completed successfully
LOG:  database system is shut down
LOG:  database system is ready to accept connections
`

func TestLogsRun(t *testing.T) {
	tests := []struct {
		name    string
		opts    LogsOptions
		want    string
		wantCmd string
	}{
		{
			name:    "raw log of main service",
			want:    sampleLog,
			wantCmd: "logs --no-color --no-log-prefix rds-test1",
		},
		{
			name:    "marker counts",
			opts:    LogsOptions{Service: "rds-test2", Markers: true},
			want:    "ready                2\nshutdown             1\nbackup_completed     1\nmissing_instance_id  0\n",
			wantCmd: "logs --no-color --no-log-prefix rds-test2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, runner, _ := composetest.NewStack(t)
			runner.On("logs", sampleLog, nil)
			tio := iostreamstest.New()

			opts := tt.opts
			opts.IOStreams = tio.IOStreams
			opts.Config = func() (*config.Config, error) { return config.DefaultConfig(), nil }
			opts.Stack = func(context.Context) (*compose.Stack, error) { return stack, nil }

			require.NoError(t, logsRun(context.Background(), &opts))
			assert.Equal(t, tt.want, tio.OutBuf.String())
			assert.Equal(t, []string{tt.wantCmd}, runner.Commands())
		})
	}
}

func TestNewCmdLogs(t *testing.T) {
	var gotOpts *LogsOptions
	cmd := NewCmdLogs(&cmdutil.Factory{}, func(_ context.Context, opts *LogsOptions) error {
		gotOpts = opts
		return nil
	})
	cmd.SetArgs([]string{"rds-test2", "-m"})

	_, err := cmd.ExecuteC()
	require.NoError(t, err)
	assert.Equal(t, "rds-test2", gotOpts.Service)
	assert.True(t, gotOpts.Markers)
}
