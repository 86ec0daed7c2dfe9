// Package readiness turns the PostgreSQL container's log and network
// signals into poll conditions.
package readiness

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/schmitthub/rdsharness/internal/poll"
)

// Marker is a substring the service writes to its log at a lifecycle point.
type Marker string

// In reports whether logs contain the marker.
func (m Marker) In(logs string) bool {
	return m != "" && strings.Contains(logs, string(m))
}

// Count returns how many times the marker appears in logs.
func (m Marker) Count(logs string) int {
	if m == "" {
		return 0
	}
	return strings.Count(logs, string(m))
}

func (m Marker) String() string {
	return string(m)
}

// Markers is the full log contract of the service.
type Markers struct {
	Ready             Marker `mapstructure:"ready" yaml:"ready"`
	Shutdown          Marker `mapstructure:"shutdown" yaml:"shutdown"`
	BackupCompleted   Marker `mapstructure:"backup_completed" yaml:"backup_completed"`
	MissingInstanceID Marker `mapstructure:"missing_instance_id" yaml:"missing_instance_id"`
}

// DefaultMarkers returns the markers emitted by the stock image.
func DefaultMarkers() Markers {
	return Markers{
		Ready:             "database system is ready to accept connections",
		Shutdown:          "database system is shut down",
		BackupCompleted:   "backup command end: completed successfully",
		MissingInstanceID: "DB_INSTANCE_ID not set or empty, exiting",
	}
}

// WithDefaults fills empty markers from DefaultMarkers.
func (m Markers) WithDefaults() Markers {
	d := DefaultMarkers()
	if m.Ready == "" {
		m.Ready = d.Ready
	}
	if m.Shutdown == "" {
		m.Shutdown = d.Shutdown
	}
	if m.BackupCompleted == "" {
		m.BackupCompleted = d.BackupCompleted
	}
	if m.MissingInstanceID == "" {
		m.MissingInstanceID = d.MissingInstanceID
	}
	return m
}

// LogSource yields the complete log of a service's current container.
type LogSource interface {
	Logs(ctx context.Context) (string, error)
}

// LogContains is true once the service log contains m. Log retrieval errors
// abort the wait.
func LogContains(src LogSource, m Marker) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		logs, err := src.Logs(ctx)
		if err != nil {
			return false, fmt.Errorf("reading logs: %w", err)
		}
		return m.In(logs), nil
	}
}

// PortOpen is true once a TCP connection to ep succeeds. Refused or timed
// out dials count as "not yet".
func PortOpen(ep fmt.Stringer, dialTimeout time.Duration) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		d := net.Dialer{Timeout: dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", ep.String())
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, nil
		}
		_ = conn.Close()
		return true, nil
	}
}

// Not inverts a condition.
func Not(cond poll.Condition) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		ok, err := cond(ctx)
		return !ok, err
	}
}
