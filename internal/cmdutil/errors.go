package cmdutil

import (
	"errors"
	"fmt"

	"github.com/schmitthub/rdsharness/internal/docker"
	"github.com/schmitthub/rdsharness/internal/iostreams"
)

// FlagError indicates bad flags or arguments. When Main() encounters this error
// type, it prints the error message followed by the command's usage string.
type FlagError struct {
	err error
}

func (e *FlagError) Error() string { return e.err.Error() }
func (e *FlagError) Unwrap() error { return e.err }

// FlagErrorf creates a FlagError with a formatted message.
func FlagErrorf(format string, args ...any) error {
	return &FlagError{err: fmt.Errorf(format, args...)}
}

// SilentError signals that the error has already been displayed to the user.
// Main() will exit non-zero but not print anything additional.
var SilentError = errors.New("SilentError")

// HandleError prints err to stderr, with remediation steps for Docker
// failures.
func HandleError(ios *iostreams.IOStreams, err error) {
	if err == nil {
		return
	}
	var dockerErr *docker.Error
	if errors.As(err, &dockerErr) {
		fmt.Fprint(ios.ErrOut, dockerErr.FormatUserError())
		return
	}
	fmt.Fprintf(ios.ErrOut, "Error: %s\n", err)
}
