// Package iostreamstest provides test doubles for the iostreams package.
package iostreamstest

import (
	"bytes"

	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger/loggertest"
)

// TestIOStreams wraps IOStreams for testing with accessible buffers.
type TestIOStreams struct {
	*iostreams.IOStreams
	InBuf  *bytes.Buffer
	OutBuf *bytes.Buffer
	ErrBuf *bytes.Buffer
	Log    *loggertest.TestLogger
}

// New creates non-interactive IOStreams backed by buffers and a capturing logger.
func New() *TestIOStreams {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	log := loggertest.New()

	return &TestIOStreams{
		IOStreams: &iostreams.IOStreams{
			In:     in,
			Out:    out,
			ErrOut: errOut,
			Logger: log,
		},
		InBuf:  in,
		OutBuf: out,
		ErrBuf: errOut,
		Log:    log,
	}
}
