package docker

import (
	"fmt"
	"strings"
)

// Error is a user-facing Docker failure with remediation steps.
type Error struct {
	Op        string   // Operation that failed (e.g., "connect", "volume remove")
	Err       error    // Underlying error
	Message   string   // Human-readable message
	NextSteps []string // Suggested remediation steps
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FormatUserError formats the error for display with next steps.
func (e *Error) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))

	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// ErrDockerNotRunning returns an error for when Docker daemon is not accessible.
func ErrDockerNotRunning(err error) *Error {
	return &Error{
		Op:      "connect",
		Err:     err,
		Message: "Cannot connect to Docker daemon",
		NextSteps: []string{
			"Ensure Docker is installed and running",
			"Check DOCKER_HOST or the Docker socket: ls -la /var/run/docker.sock",
			"Verify your user is in the docker group: groups $USER",
		},
	}
}

// ErrVolumeRemoveFailed returns an error for when volume removal fails.
func ErrVolumeRemoveFailed(name string, err error) *Error {
	return &Error{
		Op:      "volume remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove volume '%s'", name),
		NextSteps: []string{
			"Check no container still mounts the volume: docker ps -a --filter volume=" + name,
			"Tear the deployment down first: rdsharness service down",
		},
	}
}
