// Package checks holds the end-to-end behaviors the PostgreSQL service must
// exhibit, each runnable on its own against a compose stack.
package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/schmitthub/rdsharness/internal/pgcheck"
	"github.com/schmitthub/rdsharness/internal/scenario"
)

// Database is the subset of *pgcheck.DB the checks use.
type Database interface {
	Version(ctx context.Context) (string, error)
	CreatePetsTable(ctx context.Context) error
	InsertPet(ctx context.Context, name string) error
	HasPet(ctx context.Context, name string) (bool, error)
	Close() error
}

// ConnectFunc opens a database connection.
type ConnectFunc func(ctx context.Context, ep compose.Endpoint, creds pgcheck.Credentials) (Database, error)

// Env is everything a check needs.
type Env struct {
	Stack    scenario.Stack
	Scenario scenario.Config

	// Service is the fully configured service.
	Service string
	// NoPasswordService runs without a configured password.
	NoPasswordService string
	// NoInstanceIDService lacks DB_INSTANCE_ID.
	NoInstanceIDService string

	Credentials pgcheck.Credentials
	Logger      iostreams.Logger
	// Connect defaults to pgcheck.Connect.
	Connect ConnectFunc
}

func (e Env) sequencer() *scenario.Sequencer {
	return scenario.New(e.Stack, e.Scenario, scenario.WithLogger(e.Logger))
}

func (e Env) connect(ctx context.Context, ep compose.Endpoint, creds pgcheck.Credentials) (Database, error) {
	if e.Connect != nil {
		return e.Connect(ctx, ep, creds)
	}
	db, err := pgcheck.Connect(ctx, ep, creds)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Check is one named end-to-end behavior.
type Check struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env Env) error
}

// All returns every check in suite order.
func All() []Check {
	return []Check{
		{Name: "missing-instance-id", Description: "refuses to start without DB_INSTANCE_ID", Run: MissingInstanceID},
		{Name: "connect", Description: "accepts the configured user on the configured database", Run: Connect},
		{Name: "rejects-blank-password", Description: "never authenticates a blank password", Run: RejectsBlankPassword},
		{Name: "keeps-data-after-restart", Description: "keeps committed rows across kill and restart", Run: KeepsDataAfterRestart},
		{Name: "restores-from-backup", Description: "restores committed rows from backup after losing the data volume", Run: RestoresFromBackup},
		{Name: "loses-data-without-backup", Description: "loses rows written after the last backup when the data volume is lost", Run: LosesDataWithoutBackup},
	}
}

// Lookup finds a check by name.
func Lookup(name string) (Check, bool) {
	for _, c := range All() {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// Names returns the names of All, in order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	return names
}

// Result is the outcome of one check.
type Result struct {
	Name    string
	Err     error
	Elapsed time.Duration
}

// Run executes checks sequentially, calling report after each one.
// All checks run even if earlier ones fail; each begins with its own
// clean start.
func Run(ctx context.Context, env Env, list []Check, report func(Result)) []Result {
	results := make([]Result, 0, len(list))
	for _, c := range list {
		if ctx.Err() != nil {
			break
		}
		logger.SetContext(env.Service, c.Name)
		start := time.Now()
		err := c.Run(ctx, env)
		r := Result{Name: c.Name, Err: err, Elapsed: time.Since(start)}
		results = append(results, r)
		if report != nil {
			report(r)
		}
	}
	logger.ClearContext()
	return results
}

// MissingInstanceID starts the service without an instance id and expects
// it to log the refusal and exit.
func MissingInstanceID(ctx context.Context, env Env) error {
	seq := env.sequencer()
	return seq.ExpectStartupRefusal(ctx, env.NoInstanceIDService, seq.Config().Markers.MissingInstanceID)
}

// Connect expects the configured credentials to authenticate.
func Connect(ctx context.Context, env Env) error {
	ep, err := env.sequencer().CleanStart(ctx, env.Service)
	if err != nil {
		return err
	}
	db, err := env.connect(ctx, ep, env.Credentials)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.Version(ctx)
	if err != nil {
		return err
	}
	env.log().Debug().Str("version", version).Msg("server version")
	return nil
}

// RejectsBlankPassword expects a blank password to fail authentication.
func RejectsBlankPassword(ctx context.Context, env Env) error {
	ep, err := env.sequencer().CleanStart(ctx, env.NoPasswordService)
	if err != nil {
		return err
	}

	creds := env.Credentials
	creds.Password = " "
	db, err := env.connect(ctx, ep, creds)
	if err == nil {
		_ = db.Close()
		return &pgcheck.AssertionError{
			Check:    "blank password rejected",
			Expected: "authentication failure",
			Observed: "connection accepted",
		}
	}
	if !pgcheck.IsAuthError(err) {
		return &pgcheck.AssertionError{
			Check:    "blank password rejected",
			Expected: "authentication failure",
			Observed: err.Error(),
		}
	}
	return nil
}

// KeepsDataAfterRestart writes a row, restarts the service with its data
// volume intact and expects the row back.
func KeepsDataAfterRestart(ctx context.Context, env Env) error {
	return roundTrip(ctx, env, "pet present after restart", true,
		func(seq *scenario.Sequencer) (compose.Endpoint, error) {
			return seq.RestartPreservingData(ctx, env.Service)
		})
}

// RestoresFromBackup writes a row, backs up, destroys the data volume and
// expects the row to be restored.
func RestoresFromBackup(ctx context.Context, env Env) error {
	return roundTrip(ctx, env, "pet present after restore", true,
		func(seq *scenario.Sequencer) (compose.Endpoint, error) {
			return seq.BackupThenRestore(ctx, env.Service)
		})
}

// LosesDataWithoutBackup is the counter-check of RestoresFromBackup: without
// a fresh backup the row must be gone.
func LosesDataWithoutBackup(ctx context.Context, env Env) error {
	return roundTrip(ctx, env, "pet absent after restore without backup", false,
		func(seq *scenario.Sequencer) (compose.Endpoint, error) {
			return seq.RestoreWithoutBackup(ctx, env.Service)
		})
}

func roundTrip(ctx context.Context, env Env, check string, wantPresent bool, cycle func(*scenario.Sequencer) (compose.Endpoint, error)) error {
	seq := env.sequencer()
	ep, err := seq.CleanStart(ctx, env.Service)
	if err != nil {
		return err
	}

	pet := uuid.NewString()
	if err := seedPet(ctx, env, ep, pet); err != nil {
		return err
	}

	ep, err = cycle(seq)
	if err != nil {
		return err
	}

	db, err := env.connect(ctx, ep, env.Credentials)
	if err != nil {
		return err
	}
	defer db.Close()

	present, err := db.HasPet(ctx, pet)
	if err != nil {
		return err
	}
	expected, observed := "pet "+pet, "no such pet"
	if !wantPresent {
		expected, observed = "no pet "+pet, "pet "+pet
	}
	return pgcheck.Assertf(present == wantPresent, check, expected, "%s", observed)
}

func seedPet(ctx context.Context, env Env, ep compose.Endpoint, pet string) error {
	db, err := env.connect(ctx, ep, env.Credentials)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreatePetsTable(ctx); err != nil {
		return err
	}
	if err := db.InsertPet(ctx, pet); err != nil {
		return err
	}
	present, err := db.HasPet(ctx, pet)
	if err != nil {
		return err
	}
	if err := pgcheck.Assertf(present, "pet present after insert", "pet "+pet, "no such pet"); err != nil {
		return err
	}
	env.log().Debug().Str("pet", pet).Msg("seeded pet")
	return nil
}

func (e Env) log() iostreams.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return &logger.Log
}

// String is used in CLI listings.
func (c Check) String() string {
	return fmt.Sprintf("%-28s %s", c.Name, c.Description)
}
