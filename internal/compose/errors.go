package compose

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownService is returned for service names the compose file does not declare.
var ErrUnknownService = errors.New("unknown service")

// OrchestrationError is returned for any failed engine or compose CLI call.
type OrchestrationError struct {
	Op       string   // up, kill, rm, down, exec, logs, port, ps, volume rm
	Service  string   // empty for project-wide operations
	Args     []string // full argument vector handed to the runner
	ExitCode int      // -1 when the command never produced an exit status
	Output   string
	Err      error
}

func (e *OrchestrationError) Error() string {
	var sb strings.Builder
	sb.WriteString("compose ")
	sb.WriteString(e.Op)
	if e.Service != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Service)
	}
	if e.ExitCode > 0 {
		sb.WriteString(fmt.Sprintf(" (exit %d)", e.ExitCode))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}

// exitCode extracts a process exit status from err, or -1.
func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}
