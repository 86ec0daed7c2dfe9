package config

import (
	"fmt"
	"strings"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid %s: %s (got %v)", e.Field, e.Message, e.Value)
	}
	return "invalid " + e.Field + ": " + e.Message
}

// MultiValidationError collects every validation failure.
type MultiValidationError struct {
	Errors []error
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d configuration errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidationErrors returns the individual errors
func (e *MultiValidationError) ValidationErrors() []error {
	return e.Errors
}

// Validate checks cfg and returns a *MultiValidationError listing every problem.
func Validate(cfg *Config) error {
	var errs []error
	add := func(field, message string, value interface{}) {
		errs = append(errs, &ValidationError{Field: field, Message: message, Value: value})
	}

	if cfg.ComposeFile == "" {
		add("compose_file", "is required", nil)
	}
	if cfg.Services.Main == "" {
		add("services.main", "is required", nil)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		add("port", "must be between 1 and 65535", cfg.Port)
	}
	if cfg.Volumes.Data == "" {
		add("volumes.data", "is required", nil)
	}
	if cfg.Volumes.Backup == "" {
		add("volumes.backup", "is required", nil)
	}
	if cfg.Volumes.Data != "" && cfg.Volumes.Data == cfg.Volumes.Backup {
		add("volumes.backup", "must differ from volumes.data", cfg.Volumes.Backup)
	}
	if strings.TrimSpace(cfg.BackupCommand) == "" {
		add("backup_command", "is required", nil)
	}
	if cfg.Timeouts.Ready <= 0 {
		add("timeouts.ready", "must be positive", cfg.Timeouts.Ready)
	}
	if cfg.Timeouts.PollInterval <= 0 {
		add("timeouts.poll_interval", "must be positive", cfg.Timeouts.PollInterval)
	}
	if cfg.Timeouts.Dial <= 0 {
		add("timeouts.dial", "must be positive", cfg.Timeouts.Dial)
	}
	if cfg.Timeouts.Settle < 0 {
		add("timeouts.settle", "must not be negative", cfg.Timeouts.Settle)
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}
