// Package cmdutil holds the dependency container and error types shared by
// every rdsharness command.
package cmdutil

import (
	"context"

	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/docker"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/suitelock"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir    string
	ConfigFile string
	Debug      bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	IOStreams *iostreams.IOStreams

	Config func() (*config.Config, error)

	Engine      func(context.Context) (*docker.Engine, error)
	CloseEngine func()

	Stack func(context.Context) (*compose.Stack, error)

	// Lock takes the cross-process suite lock.
	Lock func(context.Context) (*suitelock.Lock, error)
}
