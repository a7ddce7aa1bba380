package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
)

// DB represents the database connection
type DB struct {
	*sql.DB
	driver string
	config *config.DatabaseConfig
	logger *logger.Logger
}

// NewConnection opens the configured database. The development setup runs on
// an embedded SQLite file; deployments point the same code at PostgreSQL by
// switching the driver in config.
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == "sqlite3" {
		// SQLite serializes writers through a single connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		driver: cfg.Driver,
		config: cfg,
		logger: log,
	}

	log.WithFields(map[string]interface{}{"driver": cfg.Driver}).Info("Database connection established")
	return db, nil
}

// NewWithDB wraps an existing sql.DB handle. Used by tests that inject a
// mocked connection.
func NewWithDB(sqlDB *sql.DB, driver string, log *logger.Logger) *DB {
	return &DB{
		DB:     sqlDB,
		driver: driver,
		logger: log,
	}
}

// buildDSN constructs the driver-specific connection string
func buildDSN(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "sqlite3":
		return cfg.Path + "?_foreign_keys=on", nil
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Driver returns the active driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites $1..$n placeholders to ? for SQLite. Queries are written in
// PostgreSQL placeholder style throughout the repositories.
func (db *DB) Rebind(query string) string {
	if db.driver != "sqlite3" {
		return query
	}
	return RebindSQLite(query)
}

// RebindSQLite converts $n placeholders to the ? form SQLite binds positionally.
func RebindSQLite(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			// A bare $ is not a placeholder.
			b.WriteByte(query[i])
			continue
		}
		if _, err := strconv.Atoi(query[i+1 : j]); err == nil {
			b.WriteByte('?')
			i = j - 1
		}
	}

	return b.String()
}

// ExecBound rebinds and executes a statement.
func (db *DB) ExecBound(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(ctx, db.Rebind(query), args...)
}

// QueryBound rebinds and runs a query.
func (db *DB) QueryBound(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.Rebind(query), args...)
}

// QueryRowBound rebinds and runs a single-row query.
func (db *DB) QueryRowBound(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(ctx, db.Rebind(query), args...)
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

// BeginTx starts a new transaction
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.DB.BeginTx(ctx, opts)
}
