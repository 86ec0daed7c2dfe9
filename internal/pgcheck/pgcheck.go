// Package pgcheck issues protocol-level probes against a running
// PostgreSQL endpoint: connecting, authenticating and reading back rows.
package pgcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/schmitthub/rdsharness/internal/logger"
)

// DefaultConnectTimeout bounds a single connection attempt.
const DefaultConnectTimeout = 10 * time.Second

// PostgreSQL error codes the probes classify.
const (
	codeInvalidPassword      = "28P01"
	codeInvalidAuthorization = "28000"
	codeUndefinedTable       = "42P01"
)

// Credentials identifies a database login.
type Credentials struct {
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
}

// DSN builds a lib/pq keyword/value connection string.
func DSN(ep fmt.Stringer, creds Credentials) (string, error) {
	host, port, err := splitEndpoint(ep.String())
	if err != nil {
		return "", err
	}
	parts := []string{
		"host=" + quote(host),
		"port=" + port,
		"dbname=" + quote(creds.Database),
		"user=" + quote(creds.User),
		"password=" + quote(creds.Password),
		"sslmode=disable",
		"connect_timeout=" + strconv.Itoa(int(DefaultConnectTimeout/time.Second)),
	}
	return strings.Join(parts, " "), nil
}

// quote renders a keyword value, quoting anything but plain tokens.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func splitEndpoint(addr string) (string, string, error) {
	i := strings.LastIndex(addr, ":")
	if i <= 0 || i == len(addr)-1 {
		return "", "", fmt.Errorf("invalid endpoint %q", addr)
	}
	host := strings.TrimSuffix(strings.TrimPrefix(addr[:i], "["), "]")
	return host, addr[i+1:], nil
}

// DB is an open, authenticated connection pool.
type DB struct {
	db *sql.DB
}

// Connect opens a pool and pings it, so authentication failures surface here.
func Connect(ctx context.Context, ep fmt.Stringer, creds Credentials) (*DB, error) {
	dsn, err := DSN(ep, creds)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s as %s: %w", ep, creds.User, err)
	}
	logger.Debug().Str("endpoint", ep.String()).Str("database", creds.Database).Str("user", creds.User).Msg("connected to postgres")
	return &DB{db: db}, nil
}

// IsAuthError reports whether err is a PostgreSQL authentication rejection.
func IsAuthError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeInvalidPassword || pqErr.Code == codeInvalidAuthorization
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUndefinedTable
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Version returns the server version banner.
func (d *DB) Version(ctx context.Context) (string, error) {
	var v string
	if err := d.db.QueryRowContext(ctx, "SELECT version();").Scan(&v); err != nil {
		return "", fmt.Errorf("querying version: %w", err)
	}
	return v, nil
}

// CreatePetsTable creates the table the durability checks write to.
func (d *DB) CreatePetsTable(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "CREATE TABLE pets (id SERIAL PRIMARY KEY, name VARCHAR(64) NOT NULL);"); err != nil {
		return fmt.Errorf("creating pets table: %w", err)
	}
	return nil
}

// InsertPet inserts one committed row.
func (d *DB) InsertPet(ctx context.Context, name string) error {
	if _, err := d.db.ExecContext(ctx, "INSERT INTO pets (name) VALUES ($1);", name); err != nil {
		return fmt.Errorf("inserting pet %s: %w", name, err)
	}
	return nil
}

// PetNames returns every pet name in insertion order.
func (d *DB) PetNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT name FROM pets ORDER BY id;")
	if err != nil {
		return nil, fmt.Errorf("querying pets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning pet: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pets: %w", err)
	}
	return names, nil
}

// HasPet reports whether a pet with name exists. A missing pets table
// counts as absent.
func (d *DB) HasPet(ctx context.Context, name string) (bool, error) {
	names, err := d.PetNames(ctx)
	if err != nil {
		if isUndefinedTable(err) {
			return false, nil
		}
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
