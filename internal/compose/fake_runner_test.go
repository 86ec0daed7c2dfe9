package compose

import (
	"context"
	"fmt"
	"sync"
)

type fakeCall struct {
	Dir      string
	Name     string
	Args     []string
	Combined bool
}

type fakeResponse struct {
	output string
	stderr string
	err    error
}

// fakeRunner records calls and answers by compose subcommand.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []fakeCall
	responses map[string]fakeResponse
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

// on registers a response for the first compose subcommand (e.g. "port").
func (f *fakeRunner) on(sub, output string, err error) {
	f.responses[sub] = fakeResponse{output: output, err: err}
}

// onStderr registers stdout and stderr text for a subcommand. Only
// RunCombined sees the stderr part.
func (f *fakeRunner) onStderr(sub, stdout, stderr string) {
	f.responses[sub] = fakeResponse{output: stdout, stderr: stderr}
}

func (f *fakeRunner) RunOutput(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	resp := f.record(dir, name, args, false)
	return []byte(resp.output), resp.err
}

func (f *fakeRunner) RunCombined(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	resp := f.record(dir, name, args, true)
	return []byte(resp.output + resp.stderr), resp.err
}

func (f *fakeRunner) record(dir, name string, args []string, combined bool) fakeResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Dir: dir, Name: name, Args: append([]string(nil), args...), Combined: combined})
	return f.responses[subcommand(args)]
}

func (f *fakeRunner) last() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return fakeCall{}
	}
	return f.calls[len(f.calls)-1]
}

// subcommand skips the "compose -f <file> -p <project>" prefix.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "compose":
			continue
		case "-f", "-p":
			i++
			continue
		}
		return args[i]
	}
	return ""
}

type fakeEngine struct {
	removed []string
	err     error
}

func (f *fakeEngine) RemoveVolume(_ context.Context, name string) error {
	f.removed = append(f.removed, name)
	return f.err
}

type fakeExitError struct{ code int }

func (e fakeExitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e fakeExitError) ExitCode() int { return e.code }
