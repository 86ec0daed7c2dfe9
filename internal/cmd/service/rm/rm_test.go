package rm

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/shlex"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/compose/composetest"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams/iostreamstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "default service", input: "", want: []string{"rm rds-test1"}},
		{name: "force", input: "--force", want: []string{"rm -f -s rds-test1"}},
		{name: "short force with services", input: "-f rds-test1 rds-test2", want: []string{"rm -f -s rds-test1", "rm -f -s rds-test2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, runner, _ := composetest.NewStack(t)
			tio := iostreamstest.New()
			f := &cmdutil.Factory{
				IOStreams: tio.IOStreams,
				Config:    func() (*config.Config, error) { return config.DefaultConfig(), nil },
				Stack:     func(context.Context) (*compose.Stack, error) { return stack, nil },
			}

			cmd := NewCmdRm(f, nil)

			// Cobra hack-around for help flag
			cmd.Flags().BoolP("help", "x", false, "")

			argv, err := shlex.Split(tt.input)
			require.NoError(t, err)
			cmd.SetArgs(argv)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			_, err = cmd.ExecuteC()
			require.NoError(t, err)
			assert.Equal(t, tt.want, runner.Commands())
		})
	}
}
