// Package poll blocks until an externally observed condition becomes true.
//
// Conditions are re-evaluated from scratch on every attempt, so they must be
// free of side effects: reading logs or probing a port is fine, mutating
// state is not.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults used when no option overrides them.
const (
	DefaultTimeout  = 60 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// ErrTimeout is matched by every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("condition not met before timeout")

// Condition reports whether the awaited state has been reached.
// A non-nil error aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

// TimeoutError is returned when a condition stays false past its deadline.
type TimeoutError struct {
	Description string
	Timeout     time.Duration
	Elapsed     time.Duration
	Attempts    int
	LastResult  bool
}

func (e *TimeoutError) Error() string {
	desc := e.Description
	if desc == "" {
		desc = "condition"
	}
	return fmt.Sprintf("timed out waiting for %s after %s (timeout %s, %d attempts, last result %t)",
		desc, e.Elapsed.Round(time.Millisecond), e.Timeout, e.Attempts, e.LastResult)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Option configures a single wait.
type Option func(*Poller)

// WithTimeout sets the maximum wait. Zero or negative means a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) { p.Timeout = d }
}

// WithInterval sets the pause between attempts.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.Interval = d
		}
	}
}

// WithDescription names the condition in errors.
func WithDescription(desc string) Option {
	return func(p *Poller) { p.Description = desc }
}

// Poller evaluates a condition until it holds or the timeout elapses.
// The zero value is not usable; build one with New.
type Poller struct {
	Timeout     time.Duration
	Interval    time.Duration
	Description string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Poller with defaults applied, then opts.
func New(opts ...Option) *Poller {
	p := &Poller{
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Until blocks until cond returns true, cond fails, ctx is done, or the
// timeout elapses. See Poller.Wait.
func Until(ctx context.Context, cond Condition, opts ...Option) error {
	return New(opts...).Wait(ctx, cond)
}

// Wait evaluates cond at least once. An already-true condition returns
// without sleeping.
func (p *Poller) Wait(ctx context.Context, cond Condition) error {
	start := p.now()
	attempts := 0

	for {
		attempts++
		ok, err := cond(ctx)
		if err != nil {
			if p.Description != "" {
				return fmt.Errorf("checking %s: %w", p.Description, err)
			}
			return err
		}
		if ok {
			return nil
		}

		elapsed := p.now().Sub(start)
		remaining := p.Timeout - elapsed
		if remaining <= 0 {
			return &TimeoutError{
				Description: p.Description,
				Timeout:     p.Timeout,
				Elapsed:     elapsed,
				Attempts:    attempts,
				LastResult:  ok,
			}
		}

		pause := p.Interval
		if pause > remaining {
			pause = remaining
		}
		if err := p.sleep(ctx, pause); err != nil {
			if p.Description != "" {
				return fmt.Errorf("waiting for %s: %w", p.Description, err)
			}
			return fmt.Errorf("waiting for condition: %w", err)
		}
	}
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
