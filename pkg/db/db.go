package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/FreePeak/mcp-dev-server/internal/logger"
)

// Common database errors
var (
	ErrNoDatabase      = errors.New("no database connection")
	ErrUnsupportedType = errors.New("unsupported database type")
)

// Config represents database connection configuration
type Config struct {
	// URL is a postgres://, postgresql:// or mysql:// connection URL
	URL string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SetDefaults sets default values for the configuration if they are not set
func (c *Config) SetDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
}

// Database is the relational-store connector shared by every request
type Database interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Execute runs a statement and collects either its rows or its affected-row count
	Execute(ctx context.Context, query string, args ...interface{}) (*Result, error)
	// ListTables enumerates base tables and views from the schema catalog
	ListTables(ctx context.Context) ([]Table, error)
	// SelectTable returns up to limit rows of table in no particular order
	SelectTable(ctx context.Context, table string, limit int) ([]map[string]interface{}, error)

	Connect() error
	Close() error
	Ping(ctx context.Context) error

	DriverName() string
	ConnectionString() string
}

// database is the concrete implementation of the Database interface
type database struct {
	config     Config
	db         *sql.DB
	driverName string
	dsn        string
	redacted   string
}

// NewDatabase prepares a database connector from the configuration. No
// connection is opened until Connect is called.
func NewDatabase(config Config) (Database, error) {
	config.SetDefaults()

	driverName, dsn, err := parseURL(config.URL)
	if err != nil {
		return nil, err
	}

	redacted := config.URL
	if u, err := url.Parse(config.URL); err == nil {
		redacted = u.Redacted()
	}

	return &database{
		config:     config,
		driverName: driverName,
		dsn:        dsn,
		redacted:   redacted,
	}, nil
}

// parseURL maps a connection URL onto a registered driver name and its DSN
func parseURL(raw string) (string, string, error) {
	if raw == "" {
		return "", "", fmt.Errorf("%w: empty connection URL", ErrUnsupportedType)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid database URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		// lib/pq accepts URLs directly
		return "postgres", raw, nil
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if u.Port() == "" {
			cfg.Addr = u.Hostname() + ":3306"
		}
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		cfg.ParseTime = true
		if len(u.Query()) > 0 {
			cfg.Params = make(map[string]string)
			for k := range u.Query() {
				cfg.Params[k] = u.Query().Get(k)
			}
		}
		return "mysql", cfg.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, u.Scheme)
	}
}

// Connect establishes a connection to the database
func (d *database) Connect() error {
	db, err := sql.Open(d.driverName, d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(d.config.MaxOpenConns)
	db.SetMaxIdleConns(d.config.MaxIdleConns)
	db.SetConnMaxLifetime(d.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(d.config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database connection: %v", closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.db = db
	logger.Info("Connected to %s database at %s", d.driverName, d.redacted)

	return nil
}

// Close closes the database connection
func (d *database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping checks if the database connection is still alive
func (d *database) Ping(ctx context.Context) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	return d.db.PingContext(ctx)
}

// Query executes a query that returns rows
func (d *database) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	return d.db.QueryContext(ctx, query, args...)
}

// Exec executes a query without returning any rows
func (d *database) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	return d.db.ExecContext(ctx, query, args...)
}

// DriverName returns the name of the database driver
func (d *database) DriverName() string {
	return d.driverName
}

// ConnectionString returns the connection URL with the password masked
func (d *database) ConnectionString() string {
	return d.redacted
}
