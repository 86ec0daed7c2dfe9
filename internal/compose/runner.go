package compose

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner executes external commands. Tests substitute a fake.
type CommandRunner interface {
	// RunOutput returns stdout; stderr only surfaces in the error.
	RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	// RunCombined returns stdout and stderr interleaved in write order.
	RunCombined(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner is a CommandRunner using os/exec.
//
// Parsed output such as `docker compose port` goes through RunOutput so CLI
// warnings never leak into it. Container logs go through RunCombined because
// compose forwards a container's stderr to its own stderr.
type ExecRunner struct{}

func (r ExecRunner) RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

func (r ExecRunner) RunCombined(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var out lockedBuffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return out.Bytes(), fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

// lockedBuffer is shared by both pipes of one command.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

func (b *lockedBuffer) String() string {
	return string(b.Bytes())
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
