package scenario

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/stretchr/testify/require"
)

var _ Stack = (*compose.Stack)(nil)

// fakeStack simulates one postgres service: up writes upLogs, kill appends
// the shutdown marker, rm clears the log.
type fakeStack struct {
	mu sync.Mutex

	calls   []string
	logs    map[string]string
	running map[string]bool

	upLogs  string
	ep      compose.Endpoint
	errs    map[string]error
	execOut string
}

func newFakeStack(t *testing.T) *fakeStack {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	m := readiness.DefaultMarkers()
	return &fakeStack{
		logs:    map[string]string{},
		running: map[string]bool{},
		upLogs:  string(m.BackupCompleted) + "\n" + string(m.Ready) + "\n",
		ep:      compose.Endpoint{Host: "127.0.0.1", Port: addr.Port},
		errs:    map[string]error{},
	}
}

func (f *fakeStack) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[strings.Fields(call)[0]]
}

// lifecycle returns recorded calls without log and port polling.
func (f *fakeStack) lifecycle() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		switch strings.Fields(c)[0] {
		case "logs", "ps", "port":
			continue
		}
		out = append(out, c)
	}
	return out
}

func (f *fakeStack) Up(_ context.Context, service string, opts compose.UpOptions) error {
	call := "up " + service
	if opts.Detach {
		call = "up -d " + service
	}
	if err := f.record(call); err != nil {
		return err
	}
	f.mu.Lock()
	f.logs[service] = f.upLogs
	f.running[service] = true
	f.mu.Unlock()
	return nil
}

func (f *fakeStack) Kill(_ context.Context, service string) error {
	if err := f.record("kill " + service); err != nil {
		return err
	}
	f.mu.Lock()
	f.logs[service] += string(readiness.DefaultMarkers().Shutdown) + "\n"
	f.running[service] = false
	f.mu.Unlock()
	return nil
}

func (f *fakeStack) Rm(_ context.Context, service string, force bool) error {
	call := "rm " + service
	if force {
		call = "rm -f " + service
	}
	if err := f.record(call); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.logs, service)
	f.mu.Unlock()
	return nil
}

func (f *fakeStack) ForceShutdown(context.Context) error {
	return f.record("down")
}

func (f *fakeStack) Exec(_ context.Context, service, command string) (compose.ExecResult, error) {
	if err := f.record("exec " + service + " " + command); err != nil {
		return compose.ExecResult{ExitCode: 1}, err
	}
	return compose.ExecResult{Output: f.execOut}, nil
}

func (f *fakeStack) Logs(_ context.Context, service string) (string, error) {
	if err := f.record("logs " + service); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[service], nil
}

func (f *fakeStack) Address(_ context.Context, service string, port int) (compose.Endpoint, error) {
	if err := f.record("port " + service); err != nil {
		return compose.Endpoint{}, err
	}
	return f.ep, nil
}

func (f *fakeStack) Running(_ context.Context, service string) (bool, error) {
	if err := f.record("ps " + service); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[service], nil
}

func (f *fakeStack) RemoveVolume(_ context.Context, key string) error {
	return f.record("volume-rm " + key)
}
