// Package scenario sequences lifecycle commands and readiness waits into
// the flows the suite is built from: clean start, restart with data,
// backup then restore.
//
// A Sequencer is built per test case and drives one service through a
// small state machine. It never tears anything down after a failure;
// cleanup is the job of the next CleanStart or the suite teardown.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/schmitthub/rdsharness/internal/poll"
	"github.com/schmitthub/rdsharness/internal/readiness"
)

// Stack is the part of *compose.Stack the sequencer drives.
type Stack interface {
	Up(ctx context.Context, service string, opts compose.UpOptions) error
	Kill(ctx context.Context, service string) error
	Rm(ctx context.Context, service string, force bool) error
	ForceShutdown(ctx context.Context) error
	Exec(ctx context.Context, service, command string) (compose.ExecResult, error)
	Logs(ctx context.Context, service string) (string, error)
	Address(ctx context.Context, service string, containerPort int) (compose.Endpoint, error)
	Running(ctx context.Context, service string) (bool, error)
	RemoveVolume(ctx context.Context, key string) error
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger replaces the global logger.
func WithLogger(log iostreams.Logger) Option {
	return func(s *Sequencer) {
		if log != nil {
			s.log = log
		}
	}
}

// Sequencer runs scenario flows against a Stack.
type Sequencer struct {
	stack   Stack
	cfg     Config
	log     iostreams.Logger
	state   State
	history []Transition

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Sequencer in the Unstarted state.
func New(stack Stack, cfg Config, opts ...Option) *Sequencer {
	s := &Sequencer{
		stack: stack,
		cfg:   cfg.withDefaults(),
		log:   &logger.Log,
		state: Unstarted,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// History returns every transition so far, oldest first.
func (s *Sequencer) History() []Transition {
	return append([]Transition(nil), s.history...)
}

// Config returns the effective configuration.
func (s *Sequencer) Config() Config {
	return s.cfg
}

// CleanStart provisions a fresh instance with empty data and backup volumes
// and waits for its first backup to complete.
func (s *Sequencer) CleanStart(ctx context.Context, service string) (compose.Endpoint, error) {
	if s.state != Unstarted {
		return compose.Endpoint{}, fmt.Errorf("%w: clean start from %s", ErrInvalidTransition, s.state)
	}
	if err := s.transition(service, Provisioning); err != nil {
		return compose.Endpoint{}, err
	}

	steps := []func() error{
		func() error { return s.stack.ForceShutdown(ctx) },
		func() error { return s.stack.RemoveVolume(ctx, s.cfg.DataVolume) },
		func() error { return s.stack.RemoveVolume(ctx, s.cfg.BackupVolume) },
		func() error { return s.stack.Up(ctx, service, compose.UpOptions{Detach: true}) },
		func() error { return s.waitLog(ctx, service, s.cfg.Markers.BackupCompleted) },
	}
	if err := s.runSteps(service, steps); err != nil {
		return compose.Endpoint{}, err
	}
	return s.becomeReady(ctx, service)
}

// RestartPreservingData kills and recreates the service while keeping its
// data volume.
func (s *Sequencer) RestartPreservingData(ctx context.Context, service string) (compose.Endpoint, error) {
	if s.state != Ready {
		return compose.Endpoint{}, ErrNotReady
	}
	if err := s.stop(ctx, service); err != nil {
		return compose.Endpoint{}, err
	}
	return s.restart(ctx, service)
}

// BackupThenRestore takes a backup, destroys the data volume and restarts
// the service so it restores from the backup volume.
func (s *Sequencer) BackupThenRestore(ctx context.Context, service string) (compose.Endpoint, error) {
	if s.state != Ready {
		return compose.Endpoint{}, ErrNotReady
	}
	res, err := s.stack.Exec(ctx, service, s.cfg.BackupCommand)
	if err != nil {
		return compose.Endpoint{}, s.fail(service, fmt.Errorf("running backup: %w", err))
	}
	s.log.Debug().Str("service", service).Str("output", res.Output).Msg("backup finished")

	return s.restore(ctx, service)
}

// RestoreWithoutBackup is BackupThenRestore without the backup. Data
// written since the last backup is expected to be lost.
func (s *Sequencer) RestoreWithoutBackup(ctx context.Context, service string) (compose.Endpoint, error) {
	if s.state != Ready {
		return compose.Endpoint{}, ErrNotReady
	}
	return s.restore(ctx, service)
}

// ExpectStartupRefusal starts a misconfigured service and waits for it to
// log marker and exit. Reaching the ready marker is ErrReachedReady.
func (s *Sequencer) ExpectStartupRefusal(ctx context.Context, service string, marker readiness.Marker) error {
	if s.state != Unstarted {
		return fmt.Errorf("%w: startup refusal from %s", ErrInvalidTransition, s.state)
	}
	if err := s.transition(service, Provisioning); err != nil {
		return err
	}

	exited := readiness.Not(func(ctx context.Context) (bool, error) {
		return s.stack.Running(ctx, service)
	})
	steps := []func() error{
		func() error { return s.stack.Up(ctx, service, compose.UpOptions{Detach: true}) },
		func() error { return s.waitLog(ctx, service, marker) },
		func() error { return s.wait(ctx, service+" exit", exited) },
		func() error {
			logs, err := s.stack.Logs(ctx, service)
			if err != nil {
				return err
			}
			if s.cfg.Markers.Ready.In(logs) {
				return fmt.Errorf("%w: %s logged %q", ErrReachedReady, service, s.cfg.Markers.Ready)
			}
			return nil
		},
	}
	if err := s.runSteps(service, steps); err != nil {
		return err
	}
	return s.transition(service, Refused)
}

func (s *Sequencer) restore(ctx context.Context, service string) (compose.Endpoint, error) {
	if err := s.stop(ctx, service); err != nil {
		return compose.Endpoint{}, err
	}
	if err := s.stack.RemoveVolume(ctx, s.cfg.DataVolume); err != nil {
		return compose.Endpoint{}, s.fail(service, err)
	}
	return s.restart(ctx, service)
}

// stop kills the service, waits for the shutdown marker and removes the
// container. Ready -> Stopping -> Removed.
func (s *Sequencer) stop(ctx context.Context, service string) error {
	if err := s.transition(service, Stopping); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return s.stack.Kill(ctx, service) },
		func() error { return s.waitLog(ctx, service, s.cfg.Markers.Shutdown) },
		func() error { return s.stack.Rm(ctx, service, true) },
	}
	if err := s.runSteps(service, steps); err != nil {
		return err
	}
	return s.transition(service, Removed)
}

// restart brings a removed service back. Removed -> Provisioning -> Ready.
func (s *Sequencer) restart(ctx context.Context, service string) (compose.Endpoint, error) {
	if err := s.transition(service, Provisioning); err != nil {
		return compose.Endpoint{}, err
	}
	steps := []func() error{
		func() error { return s.stack.Up(ctx, service, compose.UpOptions{Detach: true}) },
		func() error { return s.waitLog(ctx, service, s.cfg.Markers.Ready) },
	}
	if err := s.runSteps(service, steps); err != nil {
		return compose.Endpoint{}, err
	}
	return s.becomeReady(ctx, service)
}

// becomeReady resolves the endpoint, waits for the port and settles.
func (s *Sequencer) becomeReady(ctx context.Context, service string) (compose.Endpoint, error) {
	ep, err := s.stack.Address(ctx, service, s.cfg.Port)
	if err != nil {
		return compose.Endpoint{}, s.fail(service, err)
	}
	if err := s.wait(ctx, "port "+ep.String(), readiness.PortOpen(ep, s.cfg.DialTimeout)); err != nil {
		return compose.Endpoint{}, s.fail(service, err)
	}
	if s.cfg.Settle > 0 {
		s.log.Debug().Str("service", service).Dur("settle", s.cfg.Settle).Msg("settling")
		if err := s.sleep(ctx, s.cfg.Settle); err != nil {
			return compose.Endpoint{}, s.fail(service, fmt.Errorf("settling: %w", err))
		}
	}
	if err := s.transition(service, Ready); err != nil {
		return compose.Endpoint{}, err
	}
	return ep, nil
}

func (s *Sequencer) runSteps(service string, steps []func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return s.fail(service, err)
		}
	}
	return nil
}

func (s *Sequencer) waitLog(ctx context.Context, service string, m readiness.Marker) error {
	src := serviceLogs{stack: s.stack, service: service}
	return s.wait(ctx, fmt.Sprintf("%s log %q", service, m), readiness.LogContains(src, m))
}

func (s *Sequencer) wait(ctx context.Context, desc string, cond poll.Condition) error {
	start := s.now()
	err := poll.Until(ctx, cond,
		poll.WithTimeout(s.cfg.ReadyTimeout),
		poll.WithInterval(s.cfg.PollInterval),
		poll.WithDescription(desc),
	)
	if err == nil {
		s.log.Debug().Str("condition", desc).Dur("elapsed", s.now().Sub(start)).Msg("condition met")
	}
	return err
}

func (s *Sequencer) transition(service string, to State) error {
	from := s.state
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state = to
	s.history = append(s.history, Transition{From: from, To: to, At: s.now()})
	s.log.Info().Str("service", service).Str("from", from.String()).Str("to", to.String()).Msg("scenario transition")
	return nil
}

// fail records the Failed state and returns err unchanged.
func (s *Sequencer) fail(service string, err error) error {
	if terr := s.transition(service, Failed); terr != nil {
		return errors.Join(err, terr)
	}
	s.log.Error().Err(err).Str("service", service).Msg("scenario failed")
	return err
}

type serviceLogs struct {
	stack   Stack
	service string
}

func (l serviceLogs) Logs(ctx context.Context) (string, error) {
	return l.stack.Logs(ctx, l.service)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
