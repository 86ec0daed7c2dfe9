package factory

import (
	"context"
	"os"
	"sync"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/docker"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/schmitthub/rdsharness/internal/suitelock"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (cmd/rdsharness).
// Subcommand tests construct &cmdutil.Factory{} directly instead.
func New(version, commit string) *cmdutil.Factory {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	f := &cmdutil.Factory{
		WorkDir:   wd,
		Version:   version,
		Commit:    commit,
		IOStreams: iostreams.NewIOStreams(&logger.Log),
	}

	// Config. Loaded on first use so --config is already parsed.
	var (
		configOnce sync.Once
		configData *config.Config
		configErr  error
	)
	f.Config = func() (*config.Config, error) {
		configOnce.Do(func() {
			var opts []config.LoaderOption
			if f.ConfigFile != "" {
				opts = append(opts, config.WithConfigFile(f.ConfigFile))
			}
			configData, configErr = config.NewLoader(f.WorkDir, opts...).Load()
		})
		return configData, configErr
	}

	// Docker engine
	var (
		engineOnce sync.Once
		engine     *docker.Engine
		engineErr  error
	)
	f.Engine = func(ctx context.Context) (*docker.Engine, error) {
		engineOnce.Do(func() {
			engine, engineErr = docker.NewEngine(ctx)
		})
		return engine, engineErr
	}
	f.CloseEngine = func() {
		if engine != nil {
			_ = engine.Close()
		}
	}

	// Compose stack
	var (
		stackOnce sync.Once
		stack     *compose.Stack
		stackErr  error
	)
	f.Stack = func(ctx context.Context) (*compose.Stack, error) {
		stackOnce.Do(func() {
			cfg, err := f.Config()
			if err != nil {
				stackErr = err
				return
			}
			eng, err := f.Engine(ctx)
			if err != nil {
				stackErr = err
				return
			}
			stack, stackErr = compose.Open(ctx, compose.Options{
				File:        cfg.ComposeFile,
				ProjectName: cfg.ProjectName,
				Engine:      eng,
			})
		})
		return stack, stackErr
	}

	f.Lock = func(ctx context.Context) (*suitelock.Lock, error) {
		cfg, err := f.Config()
		if err != nil {
			return nil, err
		}
		return suitelock.Acquire(ctx, cfg.LockFile, 0)
	}

	return f
}
