package loggertest_test

import (
	"strings"
	"testing"

	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger/loggertest"
)

func TestNew_CapturesOutput(t *testing.T) {
	tl := loggertest.New()

	tl.Debug().Str("service", "rds-test1").Msg("hello world")

	output := tl.Output()
	if !strings.Contains(output, "hello world") || !strings.Contains(output, `"service":"rds-test1"`) {
		t.Errorf("Output() should contain logged message and fields, got %q", output)
	}
}

func TestNew_LinesAndReset(t *testing.T) {
	tl := loggertest.New()

	tl.Info().Msg("first message")
	tl.Warn().Msg("second message")
	if got := len(tl.Lines()); got != 2 {
		t.Fatalf("Lines() = %d entries, want 2", got)
	}

	tl.Reset()
	if tl.Output() != "" || tl.Lines() != nil {
		t.Error("output should be empty after Reset()")
	}
}

func TestNewNop_DiscardsOutput(t *testing.T) {
	tl := loggertest.NewNop()

	tl.Error().Msg("should be discarded")

	if tl.Output() != "" {
		t.Errorf("NewNop().Output() should be empty, got %q", tl.Output())
	}
}

var _ iostreams.Logger = (*loggertest.TestLogger)(nil)
