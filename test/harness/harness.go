// Package harness supports the Docker-backed integration tests: a clean
// deployment before and after the run, a cross-process lock, and a Suite
// wired to the bundled compose file.
package harness

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/schmitthub/rdsharness/internal/checks"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/docker"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/schmitthub/rdsharness/internal/suitelock"
)

const cleanupTimeout = 30 * time.Second

// ComposeFile returns the absolute path of the bundled compose file.
func ComposeFile() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", "docker-compose.yml")
}

// LoadConfig loads harness configuration for the bundled deployment.
// RDSHARNESS_* environment variables still apply; the compose file
// defaults to ComposeFile.
func LoadConfig() (*config.Config, error) {
	dir := filepath.Dir(ComposeFile())
	return config.NewLoader(dir).Load()
}

// RunTestMain wraps testing.M.Run with teardown of the bundled deployment.
// It takes the suite lock so concurrent runs cannot fight over the same
// containers and volumes. The deployment is shut down before tests start,
// again after they complete, and on SIGINT/SIGTERM. Use from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(harness.RunTestMain(m)) }
func RunTestMain(m *testing.M) int {
	logger.Init(os.Getenv("RDSHARNESS_DEBUG") != "")

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	lock, err := suitelock.Acquire(context.Background(), cfg.LockFile, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v (lock: %s)\n", err, cfg.LockFile)
		return 1
	}
	defer lock.Release()

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := teardown(ctx, cfg); err != nil {
			logger.Warn().Err(err).Msg("integration teardown failed")
		}
	}

	// Catch SIGINT/SIGTERM so Ctrl+C still cleans up.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cleanup()
		_ = lock.Release()
		os.Exit(1)
	}()

	// Clean stale state from previous runs
	cleanup()

	code := m.Run()

	signal.Stop(sig)
	cleanup()

	return code
}

// teardown force-stops the deployment. Missing Docker is not an error so
// unit-only environments can still run the package.
func teardown(ctx context.Context, cfg *config.Config) error {
	eng, err := docker.NewEngine(ctx)
	if err != nil {
		return nil
	}
	defer eng.Close()

	stack, err := compose.Open(ctx, compose.Options{File: cfg.ComposeFile, ProjectName: cfg.ProjectName, Engine: eng})
	if err != nil {
		return err
	}
	return stack.ForceShutdown(ctx)
}

// RequireDocker skips the test if Docker is not available.
func RequireDocker(t *testing.T) {
	t.Helper()
	if !docker.Available(context.Background()) {
		t.Skip("Docker is not available, skipping test")
	}
}

// Suite is a live connection to the bundled deployment.
type Suite struct {
	Config *config.Config
	Engine *docker.Engine
	Stack  *compose.Stack
}

// NewSuite connects to Docker and opens the bundled compose file. The test
// is skipped when Docker is unavailable. Resources are released via
// t.Cleanup.
func NewSuite(t *testing.T) *Suite {
	t.Helper()
	RequireDocker(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("loading harness config: %v", err)
	}

	ctx := context.Background()
	eng, err := docker.NewEngine(ctx)
	if err != nil {
		t.Fatalf("connecting to docker: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })

	stack, err := compose.Open(ctx, compose.Options{
		File:        cfg.ComposeFile,
		ProjectName: cfg.ProjectName,
		Engine:      eng,
	})
	if err != nil {
		t.Fatalf("opening compose file: %v", err)
	}

	return &Suite{Config: cfg, Engine: eng, Stack: stack}
}

// Env returns a checks.Env driving the suite's deployment.
func (s *Suite) Env() checks.Env {
	return checks.Env{
		Stack:               s.Stack,
		Scenario:            s.Config.Scenario(),
		Service:             s.Config.Services.Main,
		NoPasswordService:   s.Config.Services.NoPassword,
		NoInstanceIDService: s.Config.Services.NoInstanceID,
		Credentials:         s.Config.Credentials(),
		Logger:              &logger.Log,
	}
}
