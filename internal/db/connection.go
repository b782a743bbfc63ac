/*-------------------------------------------------------------------------
 *
 * connection.go
 *    Database connection management
 *
 * Opens a pooled sqlx connection for the configured flavor (PostgreSQL
 * through the pgx stdlib driver, SQLite through modernc) with retry.
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math/rand"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/logging"
)

/* sqliteLowerFunc folds case like strings.ToLower; SQLite's LOWER only folds ASCII */
const sqliteLowerFunc = "unicode_lower"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlite.MustRegisterDeterministicScalarFunction(sqliteLowerFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

/* DB wraps a sqlx pool together with its flavor */
type DB struct {
	*sqlx.DB
	flavor string
}

/* driverName maps a flavor onto its database/sql driver */
func driverName(flavor string) (string, error) {
	switch flavor {
	case config.FlavorPostgres:
		return "pgx", nil
	case config.FlavorSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database flavor: %s", flavor)
	}
}

/* Open connects with the default retry policy */
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (*DB, error) {
	return OpenWithRetry(ctx, cfg, logger, 3, 2*time.Second)
}

/* OpenWithRetry connects, retrying with exponential backoff and jitter */
func OpenWithRetry(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger, maxRetries int, retryDelay time.Duration) (*DB, error) {
	driver, err := driverName(cfg.Flavor)
	if err != nil {
		return nil, err
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		var conn *sqlx.DB
		conn, err = sqlx.Open(driver, cfg.DSN())
		if err == nil {
			configurePool(conn, cfg)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = conn.PingContext(pingCtx)
			cancel()
			if err == nil {
				logger.Info("Database connection established", map[string]interface{}{
					"attempt": attempt + 1,
					"flavor":  cfg.Flavor,
					"target":  target(cfg),
				})
				return &DB{DB: conn, flavor: cfg.Flavor}, nil
			}
			conn.Close()
		}

		if attempt < maxRetries-1 {
			/* Add jitter: +-25% variation */
			delay := retryDelay
			jitter := float64(delay) * 0.25
			delay += time.Duration(jitter * (rand.Float64()*2 - 1))

			logger.Warn("Database connection failed, retrying", map[string]interface{}{
				"attempt":     attempt + 1,
				"max_retries": maxRetries,
				"retry_delay": delay.String(),
				"error":       err.Error(),
				"target":      target(cfg),
			})

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			retryDelay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to %s after %d attempts (last error: %w)", target(cfg), maxRetries, err)
}

func configurePool(conn *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.Flavor == config.FlavorSQLite {
		/* one writer; also keeps a :memory: database alive on a single connection */
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		return
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

func target(cfg config.DatabaseConfig) string {
	if cfg.Flavor == config.FlavorSQLite {
		return "sqlite:" + cfg.SQLitePath
	}
	return fmt.Sprintf("%s@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
}

/* New wraps an already opened pool */
func New(conn *sqlx.DB, flavor string) *DB {
	return &DB{DB: conn, flavor: flavor}
}

/* Flavor returns the configured flavor */
func (d *DB) Flavor() string { return d.flavor }

/* HealthCheck tests the database connection */
func (d *DB) HealthCheck(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	var result int
	if err := d.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

/* PoolStats returns connection pool statistics */
func (d *DB) PoolStats() (openConns, idleConns, inUse int) {
	if d == nil || d.DB == nil {
		return 0, 0, 0
	}
	stats := d.Stats()
	return stats.OpenConnections, stats.Idle, stats.InUse
}

// lower returns the flavor's Unicode-aware lower-case function applied to column
func (d *DB) lower(column string) string {
	if d.flavor == config.FlavorSQLite {
		return sqliteLowerFunc + "(" + column + ")"
	}
	return "LOWER(" + column + ")"
}

/* timeArg encodes t for the flavor; SQLite gets a fixed-width text form so that ORDER BY sorts chronologically */
func (d *DB) timeArg(t time.Time) interface{} {
	t = t.UTC()
	if d.flavor == config.FlavorSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

const sqliteTimeLayout = "2006-01-02 15:04:05.000000000-07:00"
