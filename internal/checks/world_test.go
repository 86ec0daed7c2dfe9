package checks

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/pgcheck"
	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	hasTable bool
	pets     []string
}

func (s snapshot) clone() snapshot {
	return snapshot{hasTable: s.hasTable, pets: append([]string(nil), s.pets...)}
}

// world simulates the rds image: a fresh data volume is initialized and
// backed up on first start, a missing data volume is restored from the
// backup volume, and the backup command snapshots the data volume.
type world struct {
	mu sync.Mutex

	data               *snapshot
	backup             *snapshot
	logs               map[string]string
	running            map[string]bool
	ep                 compose.Endpoint
	noInstanceID       string
	trustBlankPassword bool
	backupsTaken       int
	restores           int
}

func newWorld(t *testing.T) *world {
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
	return &world{
		logs:         map[string]string{},
		running:      map[string]bool{},
		ep:           compose.Endpoint{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port},
		noInstanceID: "rds-test1-no-instance-id",
	}
}

func (w *world) env() Env {
	cfg := testScenarioConfig()
	return Env{
		Stack:               w,
		Scenario:            cfg,
		Service:             "rds-test1",
		NoPasswordService:   "rds-test1-no-password",
		NoInstanceIDService: w.noInstanceID,
		Credentials:         pgcheck.Credentials{Database: "test1", User: "test1", Password: "password1"},
		Connect:             w.connect,
	}
}

func (w *world) Up(_ context.Context, service string, _ compose.UpOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := readiness.DefaultMarkers()

	if service == w.noInstanceID {
		w.logs[service] = string(m.MissingInstanceID) + "\n"
		w.running[service] = false
		return nil
	}

	var out string
	switch {
	case w.data != nil:
	case w.backup != nil:
		restored := w.backup.clone()
		w.data = &restored
		w.restores++
	default:
		w.data = &snapshot{}
		initial := w.data.clone()
		w.backup = &initial
		w.backupsTaken++
		out += string(m.BackupCompleted) + "\n"
	}
	w.logs[service] = out + string(m.Ready) + "\n"
	w.running[service] = true
	return nil
}

func (w *world) Kill(_ context.Context, service string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logs[service] += string(readiness.DefaultMarkers().Shutdown) + "\n"
	w.running[service] = false
	return nil
}

func (w *world) Rm(_ context.Context, service string, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.logs, service)
	return nil
}

func (w *world) ForceShutdown(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logs = map[string]string{}
	w.running = map[string]bool{}
	return nil
}

func (w *world) Exec(_ context.Context, _ string, command string) (compose.ExecResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if command != "/rds/bin/backup.sh" {
		return compose.ExecResult{ExitCode: 127}, &compose.OrchestrationError{Op: "exec", ExitCode: 127}
	}
	snap := w.data.clone()
	w.backup = &snap
	w.backupsTaken++
	return compose.ExecResult{Output: "backup command end: completed successfully"}, nil
}

func (w *world) Logs(_ context.Context, service string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.logs[service], nil
}

func (w *world) Address(context.Context, string, int) (compose.Endpoint, error) {
	return w.ep, nil
}

func (w *world) Running(_ context.Context, service string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running[service], nil
}

func (w *world) RemoveVolume(_ context.Context, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch key {
	case "rds-data":
		w.data = nil
	case "rds-backup":
		w.backup = nil
	default:
		return errors.New("unknown volume " + key)
	}
	return nil
}

func (w *world) connect(_ context.Context, _ compose.Endpoint, creds pgcheck.Credentials) (Database, error) {
	if creds.Password != "password1" && !w.trustBlankPassword {
		return nil, &pq.Error{Code: "28P01", Message: "password authentication failed for user \"test1\""}
	}
	return &fakeDB{w: w}, nil
}

type fakeDB struct {
	w      *world
	closed bool
}

func (d *fakeDB) Version(context.Context) (string, error) {
	return "PostgreSQL 16.2", nil
}

func (d *fakeDB) CreatePetsTable(context.Context) error {
	d.w.mu.Lock()
	defer d.w.mu.Unlock()
	if d.w.data.hasTable {
		return errors.New(`relation "pets" already exists`)
	}
	d.w.data.hasTable = true
	return nil
}

func (d *fakeDB) InsertPet(_ context.Context, name string) error {
	d.w.mu.Lock()
	defer d.w.mu.Unlock()
	d.w.data.pets = append(d.w.data.pets, name)
	return nil
}

func (d *fakeDB) HasPet(_ context.Context, name string) (bool, error) {
	d.w.mu.Lock()
	defer d.w.mu.Unlock()
	if !d.w.data.hasTable {
		return false, nil
	}
	for _, p := range d.w.data.pets {
		if p == name {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDB) Close() error {
	d.closed = true
	return nil
}
