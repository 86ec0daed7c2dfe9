package scenario

import (
	"time"

	"github.com/schmitthub/rdsharness/internal/poll"
	"github.com/schmitthub/rdsharness/internal/readiness"
)

// Config parameterizes the flows.
type Config struct {
	// Port is the container port the database listens on.
	Port int
	// DataVolume and BackupVolume are volume keys from the compose file.
	DataVolume   string
	BackupVolume string
	// BackupCommand runs inside the container to take a backup.
	BackupCommand string
	Markers       readiness.Markers

	ReadyTimeout time.Duration
	PollInterval time.Duration
	// Settle is slept after every readiness wait.
	Settle      time.Duration
	DialTimeout time.Duration
}

// DefaultConfig matches the stock rds-postgres image.
func DefaultConfig() Config {
	return Config{
		Port:          5432,
		DataVolume:    "rds-data",
		BackupVolume:  "rds-backup",
		BackupCommand: "/rds/bin/backup.sh",
		Markers:       readiness.DefaultMarkers(),
		ReadyTimeout:  poll.DefaultTimeout,
		PollInterval:  poll.DefaultInterval,
		Settle:        5 * time.Second,
		DialTimeout:   time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.DataVolume == "" {
		c.DataVolume = d.DataVolume
	}
	if c.BackupVolume == "" {
		c.BackupVolume = d.BackupVolume
	}
	if c.BackupCommand == "" {
		c.BackupCommand = d.BackupCommand
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = d.ReadyTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
	c.Markers = c.Markers.WithDefaults()
	return c
}
