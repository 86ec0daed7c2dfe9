// Package iostreams bundles the standard streams and the diagnostic logger
// handed to commands, so tests can swap both.
package iostreams

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// IOStreams provides access to standard input/output/error streams.
// It follows the GitHub CLI pattern for testable I/O.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	Logger Logger

	// isOutputTTY caches whether stdout is a terminal.
	// -1 = unchecked, 0 = false, 1 = true
	isOutputTTY int
}

// NewIOStreams creates an IOStreams connected to standard streams.
func NewIOStreams(log Logger) *IOStreams {
	return &IOStreams{
		In:          os.Stdin,
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
		Logger:      log,
		isOutputTTY: -1,
	}
}

// IsOutputTTY reports whether stdout is a terminal.
func (s *IOStreams) IsOutputTTY() bool {
	if s.isOutputTTY == -1 {
		s.isOutputTTY = 0
		if f, ok := s.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			s.isOutputTTY = 1
		}
	}
	return s.isOutputTTY == 1
}

// Successf prints a step result line to stderr.
func (s *IOStreams) Successf(format string, args ...any) {
	fmt.Fprintf(s.ErrOut, "%s %s\n", s.mark("✓", "ok"), fmt.Sprintf(format, args...))
}

// Failuref prints a failed step line to stderr.
func (s *IOStreams) Failuref(format string, args ...any) {
	fmt.Fprintf(s.ErrOut, "%s %s\n", s.mark("✗", "FAIL"), fmt.Sprintf(format, args...))
}

func (s *IOStreams) mark(tty, plain string) string {
	if s.IsOutputTTY() {
		return tty
	}
	return plain
}
