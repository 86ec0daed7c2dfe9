// Package composetest provides a scripted compose runner for command tests.
package composetest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/schmitthub/rdsharness/internal/compose"
)

// ComposeFile is a two-service deployment shaped like the bundled rds one.
const ComposeFile = `
services:
  rds-test1:
    image: rds-postgres:latest
    environment:
      DB_INSTANCE_ID: test1
    ports:
      - "5432"
    volumes:
      - rds-data:/storage/data
      - rds-backup:/storage/backup
  rds-test2:
    image: rds-postgres:latest
    environment:
      DB_INSTANCE_ID: test2
    ports:
      - "5432"
volumes:
  rds-data: {}
  rds-backup: {}
`

// Response is the canned answer for a compose subcommand.
type Response struct {
	Output string
	Err    error
}

// Runner records compose invocations and answers by subcommand.
type Runner struct {
	mu        sync.Mutex
	Calls     [][]string
	Responses map[string]Response
}

// NewRunner returns an empty Runner.
func NewRunner() *Runner {
	return &Runner{Responses: map[string]Response{}}
}

// On sets the response for a subcommand such as "port" or "exec".
func (r *Runner) On(sub, output string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses[sub] = Response{Output: output, Err: err}
}

func (r *Runner) RunCombined(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return r.RunOutput(ctx, dir, name, args...)
}

func (r *Runner) RunOutput(_ context.Context, _, _ string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := Subcommand(args)
	r.Calls = append(r.Calls, append([]string(nil), sub...))
	resp := r.Responses[sub[0]]
	return []byte(resp.Output), resp.Err
}

// Commands returns each recorded call without the project prefix, joined
// by spaces.
func (r *Runner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}

// Subcommand strips the "compose -f FILE -p PROJECT" prefix.
func Subcommand(args []string) []string {
	i := 0
	for i < len(args) {
		switch args[i] {
		case "compose":
			i++
		case "-f", "-p":
			i += 2
		default:
			return args[i:]
		}
	}
	return []string{""}
}

// Engine records removed volume names.
type Engine struct {
	mu      sync.Mutex
	Removed []string
	Err     error
}

func (e *Engine) RemoveVolume(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Removed = append(e.Removed, name)
	return e.Err
}

// NewStack writes ComposeFile to a temp dir and opens it as project "rds".
func NewStack(t *testing.T) (*compose.Stack, *Runner, *Engine) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "docker-compose.yml")
	if err := os.WriteFile(file, []byte(ComposeFile), 0o644); err != nil {
		t.Fatalf("writing compose file: %v", err)
	}
	runner := NewRunner()
	engine := &Engine{}
	s, err := compose.Open(context.Background(), compose.Options{
		File:        file,
		ProjectName: "rds",
		Runner:      runner,
		Engine:      engine,
	})
	if err != nil {
		t.Fatalf("opening compose stack: %v", err)
	}
	return s, runner, engine
}
