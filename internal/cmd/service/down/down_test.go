package down

import (
	"context"
	"errors"
	"testing"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/compose/composetest"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams/iostreamstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownRun(t *testing.T) {
	tests := []struct {
		name        string
		volumes     bool
		engineErr   error
		wantRemoved []string
		wantErr     bool
	}{
		{name: "containers only"},
		{name: "with volumes", volumes: true, wantRemoved: []string{"rds_rds-data", "rds_rds-backup"}},
		{name: "volume removal fails", volumes: true, engineErr: errors.New("volume in use"), wantRemoved: []string{"rds_rds-data"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, runner, engine := composetest.NewStack(t)
			engine.Err = tt.engineErr
			tio := iostreamstest.New()

			opts := &DownOptions{
				IOStreams: tio.IOStreams,
				Config:    func() (*config.Config, error) { return config.DefaultConfig(), nil },
				Stack:     func(context.Context) (*compose.Stack, error) { return stack, nil },
				Volumes:   tt.volumes,
			}

			err := downRun(context.Background(), opts)
			if tt.wantErr {
				var oe *compose.OrchestrationError
				require.ErrorAs(t, err, &oe)
				assert.Equal(t, "volume rm", oe.Op)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, []string{"down --remove-orphans --timeout 0"}, runner.Commands())
			assert.Equal(t, tt.wantRemoved, engine.Removed)
			assert.Contains(t, tio.ErrBuf.String(), "ok rds shut down")
		})
	}
}

func TestNewCmdDown_RejectsArgs(t *testing.T) {
	cmd := NewCmdDown(&cmdutil.Factory{}, func(context.Context, *DownOptions) error { return nil })
	cmd.SetArgs([]string{"rds-test1"})
	_, err := cmd.ExecuteC()
	assert.Error(t, err)
}
